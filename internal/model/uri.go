package model

import (
	"fmt"
	"strings"
)

// URI identifies an asset as repo:/token/path#name.
// Path is slash separated without leading or trailing slashes and may be
// empty for assets stored directly under the repository root.
type URI struct {
	Repo string
	Path string
	Name string
}

// ParseURI parses "repo:/token/path#name".
func ParseURI(s string) (URI, error) {
	repo, rest, ok := strings.Cut(s, ":/")
	if !ok {
		return URI{}, fmt.Errorf("%w: %q is missing ':/'", ErrInvalidURI, s)
	}
	path, name, ok := strings.Cut(rest, "#")
	if !ok {
		return URI{}, fmt.Errorf("%w: %q is missing '#'", ErrInvalidURI, s)
	}
	u := URI{Repo: repo, Path: strings.Trim(path, "/"), Name: name}
	if err := u.Validate(); err != nil {
		return URI{}, err
	}
	return u, nil
}

// Validate checks every component of the URI.
func (u URI) Validate() error {
	if u.Repo == "" || strings.ContainsAny(u.Repo, ":/#") {
		return fmt.Errorf("%w: bad repository name %q", ErrInvalidURI, u.Repo)
	}
	if err := ValidateAssetName(u.Name); err != nil {
		return err
	}
	if u.Path == "" {
		return nil
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg == "" || strings.HasPrefix(seg, ".") || strings.Contains(seg, "#") {
			return fmt.Errorf("%w: bad token path segment %q in %q", ErrInvalidURI, seg, u.Path)
		}
	}
	return nil
}

// ValidateAssetName checks that name can be used as an asset directory name.
func ValidateAssetName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, "/#\\") {
		return fmt.Errorf("%w: bad asset name %q", ErrInvalidURI, name)
	}
	return nil
}

// String renders the URI in its canonical form.
func (u URI) String() string {
	return u.Repo + ":/" + u.Path + "#" + u.Name
}

// IndexPath is the token path as stored in the index: a trailing slash
// after every segment so that prefix matches stop at segment boundaries.
func (u URI) IndexPath() string {
	return NormalizePathPrefix(u.Path)
}

// NormalizePathPrefix turns a token path or prefix into its index form.
func NormalizePathPrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}
