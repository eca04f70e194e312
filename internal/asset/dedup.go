package asset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"hoard-go/internal/model"
)

// ManifestFile is the name of the manifest inside a version sidecar.
const ManifestFile = "manifest.yaml"

// PopulateOptions controls how a version is filled.
type PopulateOptions struct {
	// Merge carries forward every file of the prior sealed version that no
	// source replaces, along with its thumbnails, poster, keywords and
	// metadata. Notes are not carried.
	Merge bool
	// Verify re-hashes every newly copied payload before it is stored.
	Verify bool
}

// Populate fills the reserved version v with sources and returns the
// manifest describing it. The version is not sealed.
//
// Each source is hashed; a payload already present in the asset is linked
// instead of copied. On failure the partially filled version is left on
// disk unsealed.
func (a *Asset) Populate(v model.VersionID, sources []model.SourceFile, opts PopulateOptions) (*model.Manifest, error) {
	if !a.HasVersion(v) {
		return nil, fmt.Errorf("%w: %s", model.ErrVersionNotFound, v)
	}

	sources = append([]model.SourceFile(nil), sources...)
	dests := make(map[string]bool, len(sources))
	for i := range sources {
		dest, err := cleanDest(sources[i].Dest)
		if err != nil {
			return nil, err
		}
		if dests[dest] {
			return nil, fmt.Errorf("%w: %s", model.ErrDuplicateDestination, dest)
		}
		dests[dest] = true
		sources[i].Dest = dest

		info, err := os.Stat(sources[i].Path)
		if err != nil || info.IsDir() {
			return nil, fmt.Errorf("%w: %s", model.ErrPathNotFound, sources[i].Path)
		}
	}

	manifest := &model.Manifest{Version: v, Hash: a.hasher.Algorithm()}

	for _, src := range sources {
		entry, err := a.storeFile(v, src, opts.Verify)
		if err != nil {
			return nil, err
		}
		manifest.Files = append(manifest.Files, *entry)
	}

	if opts.Merge {
		prior, err := a.priorManifest(v)
		if err != nil {
			return nil, err
		}
		if prior != nil {
			parents := parentDirs(dests)
			for _, f := range prior.Files {
				if dests[f.Path] || parents[f.Path] || hasAncestorIn(f.Path, dests) {
					continue
				}
				if err := a.linkPayload(a.path(DataDir, f.Digest), a.versionFile(v, f.Path)); err != nil {
					return nil, fmt.Errorf("carrying %s forward: %w", f.Path, err)
				}
				f.Carried = true
				manifest.Files = append(manifest.Files, f)
			}
			if err := a.carrySidecar(prior.Version, v); err != nil {
				return nil, fmt.Errorf("carrying %s sidecar forward: %w", prior.Version, err)
			}
		}
	}

	sort.Slice(manifest.Files, func(i, j int) bool { return manifest.Files[i].Path < manifest.Files[j].Path })
	return manifest, nil
}

// parentDirs returns every directory that some path in paths lives under.
func parentDirs(paths map[string]bool) map[string]bool {
	dirs := make(map[string]bool)
	for p := range paths {
		for d := path.Dir(p); d != "." && d != "/"; d = path.Dir(d) {
			dirs[d] = true
		}
	}
	return dirs
}

// hasAncestorIn reports whether one of the directories above p is in paths.
func hasAncestorIn(p string, paths map[string]bool) bool {
	for d := path.Dir(p); d != "." && d != "/"; d = path.Dir(d) {
		if paths[d] {
			return true
		}
	}
	return false
}

// carrySidecar copies the thumbnails, poster, keywords and metadata of
// version from into version to.
func (a *Asset) carrySidecar(from, to model.VersionID) error {
	if err := os.MkdirAll(a.SidecarDir(to), 0755); err != nil {
		return fmt.Errorf("creating version sidecar: %w", err)
	}
	for _, name := range []string{KeywordsFile, KeyValuesFile} {
		data, err := os.ReadFile(filepath.Join(a.SidecarDir(from), name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		if err := writeBytes(filepath.Join(a.SidecarDir(to), name), data); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	thumbs, err := a.Thumbnails(from)
	if err != nil {
		return err
	}
	thumbDir := filepath.Join(a.SidecarDir(to), ThumbnailsDir)
	for _, t := range thumbs {
		sum, _, err := a.hasher.File(t.Path)
		if err != nil {
			return err
		}
		if err := a.linkPayload(a.path(ThumbnailDataDir, sum), filepath.Join(thumbDir, filepath.Base(t.Path))); err != nil {
			return fmt.Errorf("linking frame %d: %w", t.Frame, err)
		}
	}
	frame, err := a.posterFrame(from)
	if err != nil {
		return err
	}
	return a.writePoster(to, frame)
}

// storeFile stores one source payload and links it into version v.
func (a *Asset) storeFile(v model.VersionID, src model.SourceFile, verify bool) (*model.FileEntry, error) {
	sum, size, err := a.hasher.File(src.Path)
	if err != nil {
		return nil, err
	}

	payload := a.path(DataDir, sum)
	if err := a.storePayload(payload, src.Path, sum, verify); err != nil {
		return nil, err
	}
	if err := a.linkPayload(payload, a.versionFile(v, src.Dest)); err != nil {
		return nil, fmt.Errorf("linking %s: %w", src.Dest, err)
	}
	return &model.FileEntry{Path: src.Dest, Digest: sum, Size: size}, nil
}

// storePayload copies srcPath into the payload store under its digest
// unless the payload is already present.
func (a *Asset) storePayload(payload, srcPath, sum string, verify bool) error {
	if exists(payload) {
		return nil
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer src.Close()

	tmpFile, err := os.CreateTemp(filepath.Dir(payload), ".tmp-*")
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

	if _, err := a.copier(tmpFile, src); err != nil {
		tmpFile.Close()
		return fmt.Errorf("copying %s: %w", srcPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if verify {
		stored, _, err := a.hasher.File(tmpPath)
		if err != nil {
			return err
		}
		if stored != sum {
			return fmt.Errorf("%w: %s stored as %s, expected %s", model.ErrCopyVerificationFailed, srcPath, stored, sum)
		}
	}

	if err := os.Chmod(tmpPath, 0444); err != nil {
		return fmt.Errorf("setting payload read-only: %w", err)
	}
	if err := os.Rename(tmpPath, payload); err != nil {
		return fmt.Errorf("renaming payload: %w", err)
	}

	success = true
	return nil
}

// linkPayload makes dst reference payload. Hard links are preferred; a
// relative symlink is used where the filesystem refuses hard links.
func (a *Asset) linkPayload(payload, dst string) error {
	if !exists(payload) {
		return fmt.Errorf("payload missing: %s", filepath.Base(payload))
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if exists(dst) {
		if err := os.Remove(dst); err != nil {
			return fmt.Errorf("replacing %s: %w", dst, err)
		}
	}

	err := os.Link(payload, dst)
	if err == nil {
		return nil
	}
	rel, relErr := filepath.Rel(filepath.Dir(dst), payload)
	if relErr != nil {
		return err
	}
	if symErr := os.Symlink(rel, dst); symErr != nil {
		return fmt.Errorf("linking payload: %w", errors.Join(err, symErr))
	}
	return nil
}

func (a *Asset) versionFile(v model.VersionID, dest string) string {
	return filepath.Join(a.VersionDir(v), filepath.FromSlash(dest))
}

// cleanDest normalizes a destination path and rejects anything that would
// escape the version directory.
func cleanDest(dest string) (string, error) {
	d := path.Clean(strings.ReplaceAll(dest, "\\", "/"))
	d = strings.TrimPrefix(d, "/")
	if d == "" || d == "." || d == ".." || strings.HasPrefix(d, "../") {
		return "", fmt.Errorf("%w: bad destination %q", model.ErrPathNotFound, dest)
	}
	return d, nil
}

// Seal records manifest as the final content of version v and advances
// LATEST.
func (a *Asset) Seal(v model.VersionID, manifest *model.Manifest) error {
	if !a.HasVersion(v) {
		return fmt.Errorf("%w: %s", model.ErrVersionNotFound, v)
	}
	manifest.Version = v
	if manifest.Hash == "" {
		manifest.Hash = a.hasher.Algorithm()
	}
	manifest.SealedAt = a.now().UTC()

	if err := os.MkdirAll(a.SidecarDir(v), 0755); err != nil {
		return fmt.Errorf("creating version sidecar: %w", err)
	}
	if err := writeYAML(filepath.Join(a.SidecarDir(v), ManifestFile), manifest); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return a.UpdateLatest()
}

// IsSealed reports whether version v has a manifest.
func (a *Asset) IsSealed(v model.VersionID) bool {
	return a.HasVersion(v) && exists(filepath.Join(a.SidecarDir(v), ManifestFile))
}

// Manifest returns the manifest of sealed version v.
func (a *Asset) Manifest(v model.VersionID) (*model.Manifest, error) {
	m, err := a.readManifest(v)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %s is not sealed", model.ErrVersionNotFound, v)
	}
	return m, nil
}

// readManifest returns nil when v is not sealed.
func (a *Asset) readManifest(v model.VersionID) (*model.Manifest, error) {
	if !a.HasVersion(v) {
		return nil, nil
	}
	var m model.Manifest
	err := readYAML(filepath.Join(a.SidecarDir(v), ManifestFile), &m)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest of %s: %w", v, err)
	}
	return &m, nil
}

// SealedVersions lists sealed versions in ascending order.
func (a *Asset) SealedVersions() ([]model.VersionID, error) {
	ids, err := a.VersionIDs()
	if err != nil {
		return nil, err
	}
	var sealed []model.VersionID
	for _, v := range ids {
		if a.IsSealed(v) {
			sealed = append(sealed, v)
		}
	}
	return sealed, nil
}

// LatestSealed returns the newest sealed version, or 0 when none exists.
func (a *Asset) LatestSealed() (model.VersionID, error) {
	sealed, err := a.SealedVersions()
	if err != nil {
		return 0, err
	}
	if len(sealed) == 0 {
		return 0, nil
	}
	return sealed[len(sealed)-1], nil
}

// priorManifest returns the manifest of the newest sealed version below v.
func (a *Asset) priorManifest(v model.VersionID) (*model.Manifest, error) {
	sealed, err := a.SealedVersions()
	if err != nil {
		return nil, err
	}
	for i := len(sealed) - 1; i >= 0; i-- {
		if sealed[i] < v {
			return a.readManifest(sealed[i])
		}
	}
	return nil, nil
}

// OpenFile opens a stored file of a sealed version for reading.
func (a *Asset) OpenFile(v model.VersionID, file string) (io.ReadCloser, error) {
	if !a.IsSealed(v) {
		return nil, fmt.Errorf("%w: %s", model.ErrVersionNotFound, v)
	}
	dest, err := cleanDest(file)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(a.versionFile(v, dest))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s in %s", model.ErrPathNotFound, dest, v)
		}
		return nil, fmt.Errorf("opening %s: %w", dest, err)
	}
	return f, nil
}
