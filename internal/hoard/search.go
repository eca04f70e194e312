package hoard

import (
	"errors"
	"fmt"
	"path/filepath"

	"hoard-go/internal/asset"
	"hoard-go/internal/model"
)

// ErrNoIndex is returned by index-backed operations when no index is configured.
var ErrNoIndex = errors.New("no repository index configured")

// reindex replaces the index rows of one asset with what is on disk.
// Failures are wrapped in model.ErrIndexStale.
func (s *Service) reindex(a *asset.Asset, u model.URI) error {
	if s.index == nil {
		return nil
	}
	if err := s.projectAsset(a, u); err != nil {
		s.logger.Warn("index update failed", "uri", u.String(), "error", err)
		return fmt.Errorf("%w: %s: %v", model.ErrIndexStale, u, err)
	}
	return nil
}

// projectAsset writes the index rows of one asset: asset-scope keywords and
// metadata plus those of every sealed version, and every thumbnail set.
func (s *Service) projectAsset(a *asset.Asset, u model.URI) error {
	if err := s.index.FlushAsset(u); err != nil {
		return err
	}
	rec, err := s.index.UpsertAsset(&model.AssetRecord{
		Repo:      u.Repo,
		URI:       u,
		ParentDir: filepath.Dir(a.Dir()),
		AssetDir:  a.Dir(),
	})
	if err != nil {
		return err
	}

	sealed, err := a.SealedVersions()
	if err != nil {
		return err
	}
	scopes := append([]model.VersionID{model.AssetScope}, sealed...)
	for _, scope := range scopes {
		kws, err := a.Keywords(scope)
		if err != nil {
			return err
		}
		if err := s.index.AddKeywords(rec.ID, kws); err != nil {
			return err
		}
		kv, err := a.Metadata(scope)
		if err != nil {
			return err
		}
		if err := s.index.AddMetadata(rec.ID, kv); err != nil {
			return err
		}
	}

	for _, v := range sealed {
		thumbs, err := a.Thumbnails(v)
		if err != nil {
			return err
		}
		if len(thumbs) == 0 {
			continue
		}
		if err := s.index.RecordThumbnailSet(rec.ID, v, thumbs); err != nil {
			return err
		}
		poster, err := a.Poster(v)
		if err != nil {
			return err
		}
		if poster != nil {
			if err := s.index.RecordPoster(rec.ID, v, *poster); err != nil {
				return err
			}
		}
	}
	return nil
}

// RebuildIndex drops every index row of a repository and re-projects each
// asset found on disk. It returns the number of assets indexed.
// Callers must keep readers away while a rebuild runs.
func (s *Service) RebuildIndex(repoName string) (int, error) {
	if s.index == nil {
		return 0, ErrNoIndex
	}
	r, err := s.Repository(repoName)
	if err != nil {
		return 0, err
	}
	start := s.clock.Now()

	if err := s.index.FlushRepository(r.Name()); err != nil {
		return 0, fmt.Errorf("flushing index of %s: %w", r.Name(), err)
	}
	uris, err := r.Scan()
	if err != nil {
		return 0, err
	}
	for _, u := range uris {
		a, err := r.OpenAsset(u)
		if err != nil {
			return 0, err
		}
		if err := s.projectAsset(a, u); err != nil {
			return 0, fmt.Errorf("indexing %s: %w", u, err)
		}
	}

	s.logger.Info("index rebuilt", "repo", r.Name(), "assets", len(uris), "duration", s.clock.Now().Sub(start).String())
	return len(uris), nil
}

// ListAssets returns the indexed assets matching q.
func (s *Service) ListAssets(q model.Query) ([]model.AssetRecord, error) {
	if s.index == nil {
		return nil, ErrNoIndex
	}
	if q.Repo != "" {
		if _, err := s.Repository(q.Repo); err != nil {
			return nil, err
		}
	}
	return s.index.Query(q)
}

// IndexedThumbnails returns the thumbnails the index holds for one version,
// 0 for the newest sealed version.
func (s *Service) IndexedThumbnails(u model.URI, v model.VersionID) ([]model.Thumbnail, *model.Thumbnail, error) {
	if s.index == nil {
		return nil, nil, ErrNoIndex
	}
	if v == model.AssetScope {
		latest, err := s.ResolveVersion(u, "LATEST")
		if err != nil {
			return nil, nil, err
		}
		v = latest
	}
	thumbs, err := s.index.Thumbnails(u, v)
	if err != nil {
		return nil, nil, err
	}
	poster, err := s.index.Poster(u, v)
	if err != nil {
		return nil, nil, err
	}
	return thumbs, poster, nil
}
