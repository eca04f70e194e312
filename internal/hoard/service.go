package hoard

import (
	"fmt"
	"sort"

	"hoard-go/internal/asset"
	"hoard-go/internal/model"
	"hoard-go/internal/repo"
)

// Options holds service-wide publish defaults.
type Options struct {
	VerifyCopy  bool     // re-hash every copied payload
	DefaultPins []string // pins moved to every new version
}

// Service is the orchestration layer that coordinates repositories, assets
// and the index to perform the operations needed by the CLI.
type Service struct {
	repos  map[string]*repo.Repository
	index  Index
	fsmgr  FilesystemManager
	logger Logger
	clock  Clock
	idgen  IDGenerator
	opts   Options
}

// NewService creates a Service over the given repositories.
// index may be nil, in which case nothing is indexed and ListAssets fails.
func NewService(repos []*repo.Repository, index Index, fsmgr FilesystemManager, logger Logger, clock Clock, idgen IDGenerator, opts Options) *Service {
	byName := make(map[string]*repo.Repository, len(repos))
	for _, r := range repos {
		byName[r.Name()] = r
	}
	return &Service{
		repos:  byName,
		index:  index,
		fsmgr:  fsmgr,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
		opts:   opts,
	}
}

// Repository returns the repository called name.
func (s *Service) Repository(name string) (*repo.Repository, error) {
	r, ok := s.repos[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownRepository, name)
	}
	return r, nil
}

// Repositories returns the names of every repository, sorted.
func (s *Service) Repositories() []string {
	names := make([]string, 0, len(s.repos))
	for name := range s.repos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// openAsset opens an existing asset.
func (s *Service) openAsset(u model.URI) (*asset.Asset, error) {
	r, err := s.Repository(u.Repo)
	if err != nil {
		return nil, err
	}
	return r.OpenAsset(u)
}

// ResolveVersion turns a version reference (v0003, 3 or a pin name) into a version.
func (s *Service) ResolveVersion(u model.URI, ref string) (model.VersionID, error) {
	a, err := s.openAsset(u)
	if err != nil {
		return 0, err
	}
	return a.ResolveVersion(ref)
}

// Versions lists every version directory of an asset.
func (s *Service) Versions(u model.URI) ([]model.VersionInfo, error) {
	a, err := s.openAsset(u)
	if err != nil {
		return nil, err
	}
	return a.Versions()
}

// Manifest returns the manifest of a sealed version.
func (s *Service) Manifest(u model.URI, v model.VersionID) (*model.Manifest, error) {
	a, err := s.openAsset(u)
	if err != nil {
		return nil, err
	}
	return a.Manifest(v)
}

// AssetLog returns the history of an asset, oldest first.
func (s *Service) AssetLog(u model.URI) ([]asset.LogEntry, error) {
	a, err := s.openAsset(u)
	if err != nil {
		return nil, err
	}
	return a.Log()
}

// Collapse reduces an asset to its newest sealed version.
func (s *Service) Collapse(u model.URI, removePins bool) (*model.CollapseResult, error) {
	a, err := s.openAsset(u)
	if err != nil {
		return nil, err
	}

	res, err := a.Collapse(removePins)
	if err != nil {
		return nil, fmt.Errorf("collapsing %s: %w", u, err)
	}

	s.logger.Info("asset collapsed", "uri", u.String(), "kept", res.Kept.String(),
		"removed", len(res.RemovedVersions), "pins_removed", len(res.RemovedPins))
	return res, s.record(a, u, "collapsed to %s, removed %d versions", res.Kept, len(res.RemovedVersions))
}

// DeleteVersion removes one version of an asset. Pinned versions are refused.
func (s *Service) DeleteVersion(u model.URI, v model.VersionID) error {
	a, err := s.openAsset(u)
	if err != nil {
		return err
	}
	if err := a.DeleteVersion(v); err != nil {
		return fmt.Errorf("deleting %s of %s: %w", v, u, err)
	}

	s.logger.Info("version deleted", "uri", u.String(), "version", v.String())
	return s.record(a, u, "deleted %s", v)
}

// record appends msg to the asset log and refreshes the asset's index rows.
// The change has already happened on disk when record runs.
func (s *Service) record(a *asset.Asset, u model.URI, format string, args ...any) error {
	if err := a.AppendLog(format, args...); err != nil {
		return err
	}
	return s.reindex(a, u)
}
