package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults holds the locations hoard uses when nothing else is configured.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - HOARD_CONFIG_PATH: config file location (default: ~/.config/hoard.toml)
//   - HOARD_HOME: base directory for hoard data (default: ~/.local/share/hoard)
func GetDefaults() (*Defaults, error) {
	configPath, err := fromEnvOrHome("HOARD_CONFIG_PATH", ".config", "hoard.toml")
	if err != nil {
		return nil, err
	}
	baseDir, err := fromEnvOrHome("HOARD_HOME", ".local", "share", "hoard")
	if err != nil {
		return nil, err
	}
	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

// fromEnvOrHome returns $env when set, else the path elems below the home directory.
func fromEnvOrHome(env string, elem ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}
