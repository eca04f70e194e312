package hoard

import (
	"fmt"

	"hoard-go/internal/model"
)

// Ledger operations take a scope: model.AssetScope for the asset itself or
// one existing version. Every change is logged and re-indexed.

// AddNotes appends text to the notes of scope, or replaces them.
func (s *Service) AddNotes(u model.URI, scope model.VersionID, text string, replace bool) error {
	a, err := s.openAsset(u)
	if err != nil {
		return err
	}
	if err := a.AddNotes(scope, text, replace); err != nil {
		return fmt.Errorf("adding notes to %s: %w", u, err)
	}
	return s.record(a, u, "notes added to %s", scopeName(scope))
}

// DeleteNotes removes the notes of scope.
func (s *Service) DeleteNotes(u model.URI, scope model.VersionID) error {
	a, err := s.openAsset(u)
	if err != nil {
		return err
	}
	if err := a.DeleteNotes(scope); err != nil {
		return fmt.Errorf("deleting notes of %s: %w", u, err)
	}
	return s.record(a, u, "notes deleted from %s", scopeName(scope))
}

// Notes returns the notes of scope.
func (s *Service) Notes(u model.URI, scope model.VersionID) (string, error) {
	a, err := s.openAsset(u)
	if err != nil {
		return "", err
	}
	return a.Notes(scope)
}

// AddKeywords adds keywords to scope.
func (s *Service) AddKeywords(u model.URI, scope model.VersionID, keywords []string) error {
	a, err := s.openAsset(u)
	if err != nil {
		return err
	}
	if err := a.AddKeywords(scope, keywords); err != nil {
		return fmt.Errorf("adding keywords to %s: %w", u, err)
	}
	return s.record(a, u, "keywords added to %s: %v", scopeName(scope), keywords)
}

// DeleteKeywords removes keywords from scope.
func (s *Service) DeleteKeywords(u model.URI, scope model.VersionID, keywords []string) error {
	a, err := s.openAsset(u)
	if err != nil {
		return err
	}
	if err := a.DeleteKeywords(scope, keywords); err != nil {
		return fmt.Errorf("deleting keywords of %s: %w", u, err)
	}
	return s.record(a, u, "keywords deleted from %s: %v", scopeName(scope), keywords)
}

// Keywords returns the sorted keywords of scope.
func (s *Service) Keywords(u model.URI, scope model.VersionID) ([]string, error) {
	a, err := s.openAsset(u)
	if err != nil {
		return nil, err
	}
	return a.Keywords(scope)
}

// AddMetadata sets key/value pairs on scope.
func (s *Service) AddMetadata(u model.URI, scope model.VersionID, kv map[string]string) error {
	a, err := s.openAsset(u)
	if err != nil {
		return err
	}
	if err := a.AddMetadata(scope, kv); err != nil {
		return fmt.Errorf("adding metadata to %s: %w", u, err)
	}
	return s.record(a, u, "metadata set on %s: %d keys", scopeName(scope), len(kv))
}

// DeleteMetadata removes keys from scope.
func (s *Service) DeleteMetadata(u model.URI, scope model.VersionID, keys []string) error {
	a, err := s.openAsset(u)
	if err != nil {
		return err
	}
	if err := a.DeleteMetadata(scope, keys); err != nil {
		return fmt.Errorf("deleting metadata of %s: %w", u, err)
	}
	return s.record(a, u, "metadata deleted from %s: %v", scopeName(scope), keys)
}

// Metadata returns the key/value pairs of scope.
func (s *Service) Metadata(u model.URI, scope model.VersionID) (map[string]string, error) {
	a, err := s.openAsset(u)
	if err != nil {
		return nil, err
	}
	return a.Metadata(scope)
}

// Thumbnails

// AddThumbnails stores thumbnails for version v (0 for the newest sealed
// version) and returns the version they were stored on.
func (s *Service) AddThumbnails(u model.URI, v model.VersionID, paths []string, merge bool, poster int) (model.VersionID, error) {
	a, err := s.openAsset(u)
	if err != nil {
		return 0, err
	}
	v, err = a.AddThumbnails(v, paths, merge, poster)
	if err != nil {
		return 0, fmt.Errorf("adding thumbnails to %s: %w", u, err)
	}
	return v, s.record(a, u, "thumbnails added to %s: %d files", v, len(paths))
}

// DeleteThumbnails removes every thumbnail of version v.
func (s *Service) DeleteThumbnails(u model.URI, v model.VersionID) (model.VersionID, error) {
	a, err := s.openAsset(u)
	if err != nil {
		return 0, err
	}
	v, err = a.DeleteThumbnails(v)
	if err != nil {
		return 0, fmt.Errorf("deleting thumbnails of %s: %w", u, err)
	}
	return v, s.record(a, u, "thumbnails deleted from %s", v)
}

// Thumbnails returns the thumbnails of version v, ordered by frame.
func (s *Service) Thumbnails(u model.URI, v model.VersionID) ([]model.Thumbnail, error) {
	a, err := s.openAsset(u)
	if err != nil {
		return nil, err
	}
	return a.Thumbnails(v)
}

// SetPoster selects the poster frame of version v.
func (s *Service) SetPoster(u model.URI, v model.VersionID, frame int) (model.VersionID, error) {
	a, err := s.openAsset(u)
	if err != nil {
		return 0, err
	}
	v, err = a.SetPoster(v, frame)
	if err != nil {
		return 0, fmt.Errorf("setting poster of %s: %w", u, err)
	}
	return v, s.record(a, u, "poster of %s set to frame %d", v, frame)
}

// Poster returns the poster of version v, or nil when there is none.
func (s *Service) Poster(u model.URI, v model.VersionID) (*model.Thumbnail, error) {
	a, err := s.openAsset(u)
	if err != nil {
		return nil, err
	}
	return a.Poster(v)
}

func scopeName(scope model.VersionID) string {
	if scope == model.AssetScope {
		return "asset"
	}
	return scope.String()
}
