package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"hoard-go/internal/asset"
	"hoard-go/internal/config"
	"hoard-go/internal/digest"
	"hoard-go/internal/fs"
	"hoard-go/internal/hoard"
	"hoard-go/internal/index"
	"hoard-go/internal/model"
	"hoard-go/internal/repo"
)

// HoardApp is the application layer between the CLI and the hoard Service.
// It constructs all dependencies from config, turns raw CLI strings into
// URIs and versions, and releases the index and log file on Close.
type HoardApp struct {
	cfg     *config.Config
	index   hoard.Index
	service *hoard.Service
	logger  *slog.Logger
	logFile *os.File
	clock   hoard.Clock
	op      *Operation
}

// AppOptions tunes a HoardApp beyond what the config holds.
type AppOptions struct {
	Verbose bool // echo info and debug records to stderr
}

// NewHoardApp creates a fully wired HoardApp from the given config.
// operation names the CLI command being run and args its arguments.
// The caller must call Close when done.
func NewHoardApp(cfg *config.Config, operation string, args []string, opts AppOptions) (*HoardApp, error) {
	clock := hoard.RealClock{}
	idgen := hoard.UUIDGenerator{}

	assetOpts, err := assetOptions(cfg.Store, clock)
	if err != nil {
		return nil, err
	}

	repos := make([]*repo.Repository, 0, len(cfg.Repos))
	for _, rc := range cfg.Repos {
		r, err := repo.Open(rc.Root, assetOpts)
		if err != nil {
			return nil, fmt.Errorf("opening repository %s: %w", rc.Name, err)
		}
		if r.Name() != rc.Name {
			return nil, fmt.Errorf("repository at %s is named %q, config says %q", rc.Root, r.Name(), rc.Name)
		}
		repos = append(repos, r)
	}

	idx, err := index.NewIndexFromConfig(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}

	consoleLevel := slog.LevelWarn
	if opts.Verbose {
		consoleLevel = slog.LevelDebug
	}
	op := NewOperation(idgen.New(), operation, args, clock.Now())
	logger, logFile, err := newLogger(cfg.LogDir, op.ID, consoleLevel)
	if err != nil {
		idx.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := hoard.NewService(
		repos,
		idx,
		fs.NewOSFilesystemManager(cfg.Filesystem.Ignore),
		&slogAdapter{l: logger},
		clock,
		idgen,
		hoard.Options{VerifyCopy: cfg.Store.VerifyCopy, DefaultPins: cfg.Store.DefaultPins},
	)

	logger.Debug("operation started", "operation", op.Summary())
	return &HoardApp{
		cfg:     cfg,
		index:   idx,
		service: svc,
		logger:  logger,
		logFile: logFile,
		clock:   clock,
		op:      op,
	}, nil
}

// assetOptions translates the store config into asset options.
func assetOptions(sc config.StoreConfig, clock hoard.Clock) (asset.Options, error) {
	hash := sc.Hash
	if hash == "" {
		hash = digest.Default
	}
	if _, err := digest.New(hash); err != nil {
		return asset.Options{}, fmt.Errorf("store.hash: %w", err)
	}
	if sc.RetryBudget < 0 {
		return asset.Options{}, fmt.Errorf("store.retry_budget must not be negative, got %d", sc.RetryBudget)
	}
	return asset.Options{Hash: hash, RetryBudget: sc.RetryBudget, Now: clock.Now}, nil
}

// Service returns the wired service.
func (a *HoardApp) Service() *hoard.Service {
	return a.service
}

// Operation returns the operation this app runs.
func (a *HoardApp) Operation() *Operation {
	return a.op
}

// ParseURI parses a raw asset URI. The repository may be left out
// ("/chars#hero" or "chars#hero"), in which case default_repo is used.
func (a *HoardApp) ParseURI(raw string) (model.URI, error) {
	return ParseURI(raw, a.cfg.DefaultRepo)
}

// ParseURI parses raw, filling in defaultRepo when raw names no repository.
func ParseURI(raw, defaultRepo string) (model.URI, error) {
	if strings.Contains(raw, ":/") {
		return model.ParseURI(raw)
	}
	if defaultRepo == "" {
		return model.URI{}, fmt.Errorf("%w: %q names no repository and no default_repo is set", model.ErrInvalidURI, raw)
	}
	return model.ParseURI(defaultRepo + ":/" + strings.TrimPrefix(raw, "/"))
}

// ParseScope turns a raw version reference into a ledger scope. An empty
// reference selects the asset scope.
func (a *HoardApp) ParseScope(u model.URI, ref string) (model.VersionID, error) {
	if ref == "" {
		return model.AssetScope, nil
	}
	return a.service.ResolveVersion(u, ref)
}

// RebuildIndex rebuilds the index of one repository, or of every
// configured repository when name is empty. It returns the number of
// assets indexed.
func (a *HoardApp) RebuildIndex(name string) (int, error) {
	names := []string{name}
	if name == "" {
		names = a.service.Repositories()
	}
	total := 0
	for _, n := range names {
		count, err := a.service.RebuildIndex(n)
		if err != nil {
			return total, err
		}
		total += count
	}
	return total, nil
}

// Finish records the outcome of the operation and returns err unchanged.
// An ErrIndexStale outcome is logged as a warning: the change is on disk.
func (a *HoardApp) Finish(err error) error {
	switch {
	case err == nil:
	case errors.Is(err, model.ErrIndexStale):
		a.logger.Warn("index is stale, run 'hoard index rebuild'", "error", err)
	default:
		a.op.Fail(err)
		a.logger.Error("operation failed", "operation", a.op.Name, "error", err)
	}
	return err
}

// Close logs the end of the operation and closes the index and log file.
func (a *HoardApp) Close() error {
	a.logger.Debug("operation finished", "operation", a.op.Name, "status", a.op.Status,
		"duration", a.clock.Now().Sub(a.op.Started).String())

	var firstErr error
	if err := a.index.Close(); err != nil {
		firstErr = fmt.Errorf("closing index: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// InitRepository marks root as a repository called name and registers it
// in the config file at cfgPath.
func InitRepository(cfgPath string, cfg *config.Config, root, name string) (*repo.Repository, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving repository root: %w", err)
	}
	if _, ok := cfg.Repo(name); ok {
		return nil, fmt.Errorf("repository %q already registered", name)
	}
	assetOpts, err := assetOptions(cfg.Store, hoard.RealClock{})
	if err != nil {
		return nil, err
	}

	r, err := repo.Init(abs, name, assetOpts)
	if err != nil {
		return nil, err
	}
	if err := cfg.AddRepo(name, abs); err != nil {
		return nil, err
	}
	if err := config.WriteToFile(cfgPath, cfg); err != nil {
		return nil, fmt.Errorf("registering repository: %w", err)
	}
	return r, nil
}
