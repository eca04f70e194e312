package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("HOARD_CONFIG_PATH", "/custom/hoard.toml")
		t.Setenv("HOARD_HOME", "/custom/hoard")

		d, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		if d.ConfigPath != "/custom/hoard.toml" {
			t.Errorf("ConfigPath = %q, want %q", d.ConfigPath, "/custom/hoard.toml")
		}
		if d.BaseDir != "/custom/hoard" {
			t.Errorf("BaseDir = %q, want %q", d.BaseDir, "/custom/hoard")
		}
		if d.LogDir != "/custom/hoard/log" {
			t.Errorf("LogDir = %q, want %q", d.LogDir, "/custom/hoard/log")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("HOARD_CONFIG_PATH", "")
		t.Setenv("HOARD_HOME", "")

		d, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		homeDir, _ := os.UserHomeDir()

		if want := filepath.Join(homeDir, ".config", "hoard.toml"); d.ConfigPath != want {
			t.Errorf("ConfigPath = %q, want %q", d.ConfigPath, want)
		}
		if want := filepath.Join(homeDir, ".local", "share", "hoard"); d.BaseDir != want {
			t.Errorf("BaseDir = %q, want %q", d.BaseDir, want)
		}
	})
}
