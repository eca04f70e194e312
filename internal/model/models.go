package model

import "time"

// SourceFile is one file offered to a publish.
type SourceFile struct {
	Path string // Absolute path of the file to store
	Dest string // Slash-separated path relative to the version directory
}

// FileEntry is one stored file of a version.
type FileEntry struct {
	Path    string `yaml:"path"`              // Slash-separated path within the version
	Digest  string `yaml:"digest"`            // Hex digest, also the payload name in .data
	Size    int64  `yaml:"size"`              // Payload size in bytes
	Carried bool   `yaml:"carried,omitempty"` // Carried forward from the prior version
}

// Manifest describes a sealed version. A version directory without a
// manifest is unsealed.
type Manifest struct {
	Version   VersionID   `yaml:"version"`
	Hash      string      `yaml:"hash"` // Digest algorithm used for every entry
	SealedAt  time.Time   `yaml:"sealed_at"`
	PublishID string      `yaml:"publish_id,omitempty"`
	Files     []FileEntry `yaml:"files"`
}

// Digests returns the set of payload digests referenced by the manifest.
func (m *Manifest) Digests() map[string]bool {
	out := make(map[string]bool, len(m.Files))
	for _, f := range m.Files {
		out[f.Digest] = true
	}
	return out
}

// Pin is a named pointer to a version.
type Pin struct {
	Name    string
	Version VersionID
	Locked  bool
}

// Thumbnail is one frame of a version's thumbnail set.
type Thumbnail struct {
	Frame int
	Path  string // Absolute path of the stored thumbnail
}

// VersionInfo summarizes one version directory of an asset.
type VersionInfo struct {
	Version VersionID
	Sealed  bool
	Pins    []string
}

// AssetRecord is the index projection of one asset.
type AssetRecord struct {
	ID        int64
	Repo      string
	URI       URI
	ParentDir string // Absolute path of the directory holding the asset
	AssetDir  string // Absolute path of the asset directory
}

// MetadataFilter compares a metadata key against a value.
// Ordering operators compare the numeric sub-value of the metadata.
type MetadataFilter struct {
	Key   string
	Op    string // one of = != < > <= >=
	Value string
}

// Query selects assets from the index. Empty fields do not filter.
// Different kinds of filters are combined with AND; within one kind the
// *All flags choose AND over the default OR.
type Query struct {
	Repo         string
	PathPrefix   string // Token path prefix, slash separated
	Name         string
	Keywords     []string
	KeywordsAll  bool
	MetadataKeys []string
	Metadata     []MetadataFilter
	MetadataAll  bool
}

// CollapseResult reports what a collapse removed.
type CollapseResult struct {
	Kept            VersionID
	RemovedVersions []VersionID
	RemovedPins     []string
	MovedPins       []string
}
