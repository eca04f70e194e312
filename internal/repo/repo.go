// Package repo maps asset URIs onto a repository directory tree.
//
// A repository is a directory holding a .repo_root marker. Assets live at
// <root>/<token path>/<asset name>; any directory between the root and an
// asset is a plain token directory.
package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"hoard-go/internal/asset"
	"hoard-go/internal/model"
)

// RootMarker marks the top directory of a repository.
const RootMarker = ".repo_root"

type rootFile struct {
	Name      string    `yaml:"name"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Repository is a handle to one repository root.
type Repository struct {
	name string
	root string
	opts asset.Options
}

// ValidateName checks that name can be used as the repository part of a URI.
func ValidateName(name string) error {
	return model.URI{Repo: name, Name: "x"}.Validate()
}

// Init marks root as a new repository called name. root must not lie
// inside another repository.
func Init(root, name string, opts asset.Options) (*Repository, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving repository root: %w", err)
	}
	if outer, ok := FindRoot(abs); ok {
		if outer == abs {
			return nil, fmt.Errorf("repository already initialized: %s", abs)
		}
		return nil, fmt.Errorf("%w: %s is inside %s", model.ErrNestedRepository, abs, outer)
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("creating repository root: %w", err)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	data, err := yaml.Marshal(rootFile{Name: name, CreatedAt: now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("encoding repository marker: %w", err)
	}
	if err := os.WriteFile(filepath.Join(abs, RootMarker), data, 0644); err != nil {
		return nil, fmt.Errorf("writing repository marker: %w", err)
	}
	return &Repository{name: name, root: abs, opts: opts}, nil
}

// Open returns the repository rooted at root.
func Open(root string, opts asset.Options) (*Repository, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving repository root: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(abs, RootMarker))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", model.ErrNotARepository, abs)
		}
		return nil, fmt.Errorf("reading repository marker: %w", err)
	}
	var rf rootFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("decoding repository marker: %w", err)
	}
	if err := ValidateName(rf.Name); err != nil {
		return nil, fmt.Errorf("repository marker in %s: %w", abs, err)
	}
	return &Repository{name: rf.Name, root: abs, opts: opts}, nil
}

// FindRoot walks up from dir and returns the nearest repository root.
func FindRoot(dir string) (string, bool) {
	for d := filepath.Clean(dir); ; d = filepath.Dir(d) {
		if _, err := os.Stat(filepath.Join(d, RootMarker)); err == nil {
			return d, true
		}
		if parent := filepath.Dir(d); parent == d {
			return "", false
		}
	}
}

// Name returns the repository name.
func (r *Repository) Name() string {
	return r.name
}

// Root returns the absolute repository root.
func (r *Repository) Root() string {
	return r.root
}

// AssetDir returns the directory an asset URI maps to.
func (r *Repository) AssetDir(u model.URI) (string, error) {
	if err := u.Validate(); err != nil {
		return "", err
	}
	if u.Repo != r.name {
		return "", fmt.Errorf("%w: %s is not %s", model.ErrUnknownRepository, u.Repo, r.name)
	}
	return filepath.Join(r.root, filepath.FromSlash(u.Path), u.Name), nil
}

// URIFor returns the URI of the asset stored in dir.
func (r *Repository) URIFor(dir string) (model.URI, error) {
	rel, err := filepath.Rel(r.root, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return model.URI{}, fmt.Errorf("%w: %s is outside %s", model.ErrInvalidURI, dir, r.root)
	}
	rel = filepath.ToSlash(rel)
	u := model.URI{Repo: r.name, Name: rel}
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		u.Path, u.Name = rel[:i], rel[i+1:]
	}
	return u, u.Validate()
}

// OpenAsset opens the asset at u.
func (r *Repository) OpenAsset(u model.URI) (*asset.Asset, error) {
	dir, err := r.AssetDir(u)
	if err != nil {
		return nil, err
	}
	if !asset.IsAsset(dir) {
		return nil, fmt.Errorf("%w: %s", model.ErrAssetNotFound, u)
	}
	return asset.Open(dir, r.opts)
}

// CreateAsset creates the asset at u. Assets cannot contain other assets.
func (r *Repository) CreateAsset(u model.URI) (*asset.Asset, error) {
	dir, err := r.AssetDir(u)
	if err != nil {
		return nil, err
	}
	if asset.IsAsset(dir) {
		return nil, fmt.Errorf("asset already exists: %s", u)
	}

	for d := filepath.Dir(dir); d != r.root && strings.HasPrefix(d, r.root); d = filepath.Dir(d) {
		if asset.IsAsset(d) {
			return nil, fmt.Errorf("%w: %s is inside asset %s", model.ErrNestedAsset, u, d)
		}
	}
	if inner, err := r.scanDir(dir); err != nil {
		return nil, err
	} else if len(inner) > 0 {
		return nil, fmt.Errorf("%w: %s would contain %s", model.ErrNestedAsset, u, inner[0])
	}

	a, err := asset.Create(dir, r.opts)
	if err != nil {
		return nil, fmt.Errorf("creating asset %s: %w", u, err)
	}
	return a, nil
}

// OpenOrCreateAsset opens the asset at u, creating it when missing.
func (r *Repository) OpenOrCreateAsset(u model.URI) (*asset.Asset, bool, error) {
	a, err := r.OpenAsset(u)
	if err == nil {
		return a, false, nil
	}
	if !errors.Is(err, model.ErrAssetNotFound) {
		return nil, false, err
	}
	a, err = r.CreateAsset(u)
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

// Scan returns the URI of every asset in the repository, sorted.
func (r *Repository) Scan() ([]model.URI, error) {
	return r.scanDir(r.root)
}

// scanDir finds assets at or below dir. It does not descend into assets or
// hidden directories.
func (r *Repository) scanDir(dir string) ([]model.URI, error) {
	var uris []model.URI
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != r.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if asset.IsAsset(p) {
			u, err := r.URIFor(p)
			if err != nil {
				return fmt.Errorf("asset at %s: %w", p, err)
			}
			uris = append(uris, u)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Slice(uris, func(i, j int) bool { return uris[i].String() < uris[j].String() })
	return uris, nil
}
