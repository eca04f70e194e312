// Package asset implements the on-disk layout of a single versioned asset.
//
// An asset directory holds:
//
//	<asset>/
//	  .asset                     semaphore (structure version, hash algorithm)
//	  v0001/ ... vNNNN/          version files, hard links into .data
//	  .v0001/ ... .vNNNN/        version sidecars (manifest, ledger, thumbnails)
//	  .data/<digest>             unique payloads
//	  .thumbnaildata/<digest>    unique thumbnail payloads
//	  .metadata/                 asset scoped ledger and the asset log
//	  .pins/<NAME>               pin pointer files
//
// Everything an asset knows lives below its directory, so moving or copying
// the directory carries versions, pins and ledger along.
package asset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"hoard-go/internal/digest"
	"hoard-go/internal/model"
)

// Names of the fixed entries of an asset directory.
const (
	SemaphoreFile    = ".asset"
	DataDir          = ".data"
	ThumbnailDataDir = ".thumbnaildata"
	MetadataDir      = ".metadata"
	PinsDir          = ".pins"
)

// StructureVersion is written to the semaphore of every new asset.
const StructureVersion = 1

// DefaultRetryBudget bounds how many lost slot races ReserveVersion tolerates.
const DefaultRetryBudget = 32

type semaphore struct {
	Structure int       `yaml:"structure"`
	Name      string    `yaml:"name"`
	Hash      string    `yaml:"hash"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Options configures how an asset is opened.
type Options struct {
	Hash        string           // Digest algorithm for new assets; existing assets keep theirs
	RetryBudget int              // Lost slot races tolerated per reservation; 0 selects DefaultRetryBudget
	Now         func() time.Time // Clock for manifests and log lines; nil selects time.Now
}

// Asset is a handle to one asset directory.
type Asset struct {
	dir         string
	name        string
	hasher      *digest.Hasher
	retryBudget int
	now         func() time.Time

	// copier moves payload bytes into the store.
	copier func(dst io.Writer, src io.Reader) (int64, error)
}

// IsAsset reports whether dir holds an asset semaphore.
func IsAsset(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, SemaphoreFile))
	return err == nil && !info.IsDir()
}

// Create initializes a new asset at dir. The directory may already exist
// but must not already be an asset.
func Create(dir string, opts Options) (*Asset, error) {
	name := filepath.Base(dir)
	if err := model.ValidateAssetName(name); err != nil {
		return nil, err
	}
	if IsAsset(dir) {
		return nil, fmt.Errorf("asset already exists: %s", dir)
	}

	hasher, err := digest.New(opts.Hash)
	if err != nil {
		return nil, err
	}

	for _, sub := range []string{DataDir, ThumbnailDataDir, MetadataDir, PinsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, fmt.Errorf("creating asset directory: %w", err)
		}
	}

	a := newAsset(dir, name, hasher, opts)
	sem := semaphore{
		Structure: StructureVersion,
		Name:      name,
		Hash:      hasher.Algorithm(),
		CreatedAt: a.now().UTC(),
	}
	if err := writeYAML(filepath.Join(dir, SemaphoreFile), sem); err != nil {
		return nil, fmt.Errorf("writing asset semaphore: %w", err)
	}
	return a, nil
}

// Open returns a handle to the existing asset at dir.
func Open(dir string, opts Options) (*Asset, error) {
	var sem semaphore
	if err := readYAML(filepath.Join(dir, SemaphoreFile), &sem); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", model.ErrAssetNotFound, dir)
		}
		return nil, fmt.Errorf("reading asset semaphore: %w", err)
	}

	hasher, err := digest.New(sem.Hash)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", dir, err)
	}
	return newAsset(dir, filepath.Base(dir), hasher, opts), nil
}

func newAsset(dir, name string, hasher *digest.Hasher, opts Options) *Asset {
	a := &Asset{
		dir:         dir,
		name:        name,
		hasher:      hasher,
		retryBudget: opts.RetryBudget,
		now:         opts.Now,
		copier:      io.Copy,
	}
	if a.retryBudget <= 0 {
		a.retryBudget = DefaultRetryBudget
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Name returns the asset name, which is also its directory name.
func (a *Asset) Name() string {
	return a.name
}

// Dir returns the absolute asset directory.
func (a *Asset) Dir() string {
	return a.dir
}

// HashAlgorithm returns the digest algorithm the asset stores payloads under.
func (a *Asset) HashAlgorithm() string {
	return a.hasher.Algorithm()
}

// VersionDir returns the directory holding the files of version v.
func (a *Asset) VersionDir(v model.VersionID) string {
	return filepath.Join(a.dir, v.String())
}

// SidecarDir returns the hidden directory holding the metadata of version v.
func (a *Asset) SidecarDir(v model.VersionID) string {
	return filepath.Join(a.dir, "."+v.String())
}

func (a *Asset) path(elem ...string) string {
	return filepath.Join(append([]string{a.dir}, elem...)...)
}

// writeFile writes data from r to destPath using atomic write (temp file + rename).
func writeFile(destPath string, r io.Reader, perm os.FileMode) error {
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

func writeYAML(destPath string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(destPath), err)
	}
	return writeBytes(destPath, data)
}

func writeBytes(destPath string, data []byte) error {
	return writeFile(destPath, bytes.NewReader(data), 0644)
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
