package hoard

import "hoard-go/internal/model"

// Index is the searchable cache of a repository's assets.
// It is derived data: every row can be rebuilt by rescanning the
// repositories on disk, and the filesystem wins on any disagreement.
// Lookups return (nil, nil) when nothing matches.
type Index interface {
	// Asset operations

	// UpsertAsset records an asset row and returns it with its ID set.
	// Upserting an existing URI updates its directories in place.
	UpsertAsset(rec *model.AssetRecord) (*model.AssetRecord, error)

	// FindAsset returns the row for uri.
	FindAsset(uri model.URI) (*model.AssetRecord, error)

	// FlushAsset removes the asset and everything attached to it.
	FlushAsset(uri model.URI) error

	// FlushRepository removes every asset of repo and prunes keywords and
	// metadata no remaining asset references.
	FlushRepository(repo string) error

	// Search terms

	// AddKeywords attaches keywords to an asset. Repeats are ignored.
	AddKeywords(assetID int64, keywords []string) error

	// AddMetadata attaches key/value pairs to an asset. Repeats are ignored.
	AddMetadata(assetID int64, kv map[string]string) error

	// Thumbnails

	// RecordThumbnailSet replaces the thumbnails recorded for one version
	// and clears its poster.
	RecordThumbnailSet(assetID int64, version model.VersionID, thumbs []model.Thumbnail) error

	// RecordPoster records the poster of one version.
	RecordPoster(assetID int64, version model.VersionID, poster model.Thumbnail) error

	// Thumbnails returns the recorded thumbnails of one version.
	Thumbnails(uri model.URI, version model.VersionID) ([]model.Thumbnail, error)

	// Poster returns the recorded poster of one version.
	Poster(uri model.URI, version model.VersionID) (*model.Thumbnail, error)

	// Query returns the assets matching every filter of q, ordered by URI.
	Query(q model.Query) ([]model.AssetRecord, error)

	// Close releases the underlying connection.
	Close() error
}
