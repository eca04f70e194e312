package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"hoard-go/internal/app"
	"hoard-go/internal/config"
	"hoard-go/internal/model"

	"github.com/spf13/cobra"
)

// Exit codes beyond cobra's generic failure.
const (
	exitFailure    = 1
	exitIndexStale = 3
	exitAborted    = 4
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		switch {
		case errors.Is(err, model.ErrIndexStale):
			os.Exit(exitIndexStale)
		case errors.Is(err, errAborted):
			os.Exit(exitAborted)
		}
		os.Exit(exitFailure)
	}
}

// newApp reads the config and creates a HoardApp. The caller must defer app.Close().
func newApp(cmd *cobra.Command, args []string) (*app.HoardApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewHoardApp(cfg, cmd.CommandPath(), args, app.AppOptions{Verbose: verbose})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// withApp runs fn against a fresh HoardApp and records its outcome.
func withApp(cmd *cobra.Command, args []string, fn func(a *app.HoardApp) error) error {
	a, err := newApp(cmd, args)
	if err != nil {
		return err
	}
	defer a.Close()

	err = a.Finish(fn(a))
	if errors.Is(err, model.ErrIndexStale) {
		fmt.Fprintln(os.Stderr, "warning: the change is on disk but the index is stale; run 'hoard index rebuild'")
	}
	return err
}

var rootCmd = &cobra.Command{
	Use:          "hoard",
	Short:        "Versioned asset store",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir)
		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Base Dir: %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Base Dir:     %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:      %s\n", cfg.LogDir)
		fmt.Printf("Index:        %s %s\n", cfg.Index.Type, cfg.Index.DataDir)
		fmt.Printf("Hash:         %s\n", cfg.Store.Hash)
		fmt.Printf("Verify Copy:  %v\n", cfg.Store.VerifyCopy)
		fmt.Printf("Default Repo: %s\n", cfg.DefaultRepo)
		for _, r := range cfg.Repos {
			fmt.Printf("Repo:         %s -> %s\n", r.Name, r.Root)
		}
		return nil
	},
}

// repo command
var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage repositories",
}

var repoInitCmd = &cobra.Command{
	Use:   "init NAME [ROOT]",
	Short: "Create a repository and register it",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		root := "."
		if len(args) > 1 {
			root = args[1]
		}
		r, err := app.InitRepository(defaults.ConfigPath, cfg, root, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Repository %s initialized at %s\n", r.Name(), r.Root())
		return nil
	},
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered repositories",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HoardApp) error {
			for _, name := range a.Service().Repositories() {
				r, err := a.Service().Repository(name)
				if err != nil {
					return err
				}
				fmt.Printf("%s\t%s\n", name, r.Root())
			}
			return nil
		})
	},
}

// scopeFlag reads the --version flag as a ledger scope.
func scopeFlag(cmd *cobra.Command, a *app.HoardApp, u model.URI) (model.VersionID, error) {
	ref, _ := cmd.Flags().GetString("version")
	return a.ParseScope(u, ref)
}

func absPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving path: %w", err)
		}
		out = append(out, abs)
	}
	return out, nil
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Echo info and debug log lines to stderr")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to every confirmation")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	repoCmd.AddCommand(repoInitCmd)
	repoCmd.AddCommand(repoListCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(repoCmd)
}
