package hoard

import (
	"errors"
	"fmt"
	"path/filepath"

	"hoard-go/internal/asset"
	"hoard-go/internal/model"
)

// PublishOptions controls one publish.
type PublishOptions struct {
	Merge      bool // carry forward files of the prior version not in the sources
	VerifyCopy bool // in addition to the service default
	Pins       []string
	Notes      string
	Keywords   []string
	Metadata   map[string]string
	Thumbnails []string
	Poster     int // poster frame, 0 for the first frame
}

// PublishResult describes a sealed version.
type PublishResult struct {
	URI         model.URI
	Version     model.VersionID
	Created     bool // the asset did not exist before this publish
	Manifest    *model.Manifest
	Pins        []string // pins moved to the new version
	LockedPins  []string // requested pins left alone because they are locked
	CarriedOver int
}

// Publish stores sources as a new version of the asset at u, creating the
// asset on first publish. Sources are files or directories; a directory
// contributes every non-ignored file below it, relative to itself.
//
// A failure before the seal leaves the reserved version unsealed on disk.
func (s *Service) Publish(u model.URI, sources []string, opts PublishOptions) (*PublishResult, error) {
	start := s.clock.Now()
	r, err := s.Repository(u.Repo)
	if err != nil {
		return nil, err
	}

	files, err := s.expandSources(sources)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 && !opts.Merge {
		return nil, fmt.Errorf("%w: nothing to publish to %s", model.ErrPathNotFound, u)
	}
	pins, err := publishPins(s.opts.DefaultPins, opts.Pins)
	if err != nil {
		return nil, err
	}

	a, created, err := r.OpenOrCreateAsset(u)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("asset created", "uri", u.String(), "dir", a.Dir())
	}

	v, err := a.ReserveVersion()
	if err != nil {
		return nil, fmt.Errorf("reserving version of %s: %w", u, err)
	}
	s.logger.Debug("version reserved", "uri", u.String(), "version", v.String())

	manifest, err := a.Populate(v, files, asset.PopulateOptions{
		Merge:  opts.Merge,
		Verify: opts.VerifyCopy || s.opts.VerifyCopy,
	})
	if err != nil {
		s.logger.Error("publish failed", "uri", u.String(), "version", v.String(), "error", err)
		return nil, fmt.Errorf("populating %s of %s: %w", v, u, err)
	}

	if err := s.describeVersion(a, v, opts); err != nil {
		s.logger.Error("publish failed", "uri", u.String(), "version", v.String(), "error", err)
		return nil, err
	}

	manifest.PublishID = s.idgen.New()
	if err := a.Seal(v, manifest); err != nil {
		return nil, fmt.Errorf("sealing %s of %s: %w", v, u, err)
	}

	res := &PublishResult{URI: u, Version: v, Created: created, Manifest: manifest}
	for _, f := range manifest.Files {
		if f.Carried {
			res.CarriedOver++
		}
	}

	// The version is sealed: from here on failures are reported alongside
	// the result and the publish is still recorded.
	var pinErr error
	for _, name := range pins {
		changed, err := a.SetPin(name, v)
		switch {
		case errors.Is(err, model.ErrPinLocked):
			s.logger.Warn("pin locked, not moved", "uri", u.String(), "pin", name)
			res.LockedPins = append(res.LockedPins, name)
		case err != nil:
			s.logger.Error("pin not set", "uri", u.String(), "pin", name, "error", err)
			pinErr = errors.Join(pinErr, fmt.Errorf("pinning %s of %s: %w", v, u, err))
		case changed:
			res.Pins = append(res.Pins, name)
		}
	}

	s.logger.Info("version published", "uri", u.String(), "version", v.String(),
		"files", len(manifest.Files), "carried", res.CarriedOver,
		"publish_id", manifest.PublishID, "duration", s.clock.Now().Sub(start).String())

	recErr := s.record(a, u, "published %s (%d files, %d carried) %s", v, len(manifest.Files), res.CarriedOver, manifest.PublishID)
	return res, errors.Join(pinErr, recErr)
}

// publishPins validates and normalizes the pins a publish moves, defaults
// first. LATEST is rejected because the seal already advanced it.
func publishPins(defaults, requested []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, name := range append(append([]string{}, defaults...), requested...) {
		n, err := model.ValidatePinName(name)
		if err != nil {
			return nil, err
		}
		if n == model.PinLatest {
			return nil, fmt.Errorf("%w: %s is managed automatically", model.ErrReservedName, n)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out, nil
}

// describeVersion writes the ledger entries given with a publish.
func (s *Service) describeVersion(a *asset.Asset, v model.VersionID, opts PublishOptions) error {
	if opts.Notes != "" {
		if err := a.AddNotes(v, opts.Notes, false); err != nil {
			return fmt.Errorf("adding notes: %w", err)
		}
	}
	if len(opts.Keywords) > 0 {
		if err := a.AddKeywords(v, opts.Keywords); err != nil {
			return fmt.Errorf("adding keywords: %w", err)
		}
	}
	if len(opts.Metadata) > 0 {
		if err := a.AddMetadata(v, opts.Metadata); err != nil {
			return fmt.Errorf("adding metadata: %w", err)
		}
	}
	if len(opts.Thumbnails) > 0 {
		if _, err := a.AddThumbnails(v, opts.Thumbnails, false, opts.Poster); err != nil {
			return fmt.Errorf("adding thumbnails: %w", err)
		}
	}
	return nil
}

// expandSources resolves raw source paths into publish sources. A file is
// stored under its base name; a directory contributes its files relative
// to itself, minus ignored ones.
func (s *Service) expandSources(raw []string) ([]model.SourceFile, error) {
	var out []model.SourceFile
	for _, rawPath := range raw {
		p, err := s.fsmgr.Resolve(rawPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", model.ErrPathNotFound, rawPath, err)
		}

		if !p.IsDir() {
			out = append(out, model.SourceFile{Path: p.String(), Dest: filepath.Base(p.String())})
			continue
		}

		files, err := s.fsmgr.FindFiles(p, true)
		if err != nil {
			return nil, fmt.Errorf("finding files in %s: %w", p.String(), err)
		}
		for _, f := range files {
			ignored, err := s.fsmgr.IsIgnored(f, p.String())
			if err != nil {
				return nil, fmt.Errorf("checking ignore rules: %w", err)
			}
			if ignored {
				s.logger.Debug("file ignored", "path", f.String())
				continue
			}
			rel, err := filepath.Rel(p.String(), f.String())
			if err != nil {
				return nil, fmt.Errorf("calculating relative path: %w", err)
			}
			out = append(out, model.SourceFile{Path: f.String(), Dest: filepath.ToSlash(rel)})
		}
	}
	return out, nil
}
