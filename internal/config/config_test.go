package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir:     "/home/user/.local/share/hoard",
		LogDir:      "/home/user/.local/share/hoard/log",
		DefaultRepo: "show",
		Repos: []RepoConfig{
			{Name: "show", Root: "/projects/show"},
			{Name: "lib", Root: "/projects/library"},
		},
		Index: IndexConfig{Type: "sqlite", DataDir: "/home/user/.local/share/hoard/index"},
		Store: StoreConfig{RetryBudget: 8, Hash: "blake3", VerifyCopy: true, DefaultPins: []string{"CURRENT"}},
		Filesystem: FilesystemConfig{
			Ignore: []string{"*.bak", "cache/"},
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.DefaultRepo != "show" {
		t.Errorf("DefaultRepo = %q, want %q", got.DefaultRepo, "show")
	}
	if len(got.Repos) != 2 {
		t.Fatalf("len(Repos) = %d, want 2", len(got.Repos))
	}
	if got.Repos[1].Root != "/projects/library" {
		t.Errorf("Repos[1].Root = %q, want %q", got.Repos[1].Root, "/projects/library")
	}
	if got.Index.Type != "sqlite" {
		t.Errorf("Index.Type = %q, want %q", got.Index.Type, "sqlite")
	}
	if got.Store.RetryBudget != 8 || got.Store.Hash != "blake3" || !got.Store.VerifyCopy {
		t.Errorf("Store = %+v", got.Store)
	}
	if len(got.Store.DefaultPins) != 1 || got.Store.DefaultPins[0] != "CURRENT" {
		t.Errorf("Store.DefaultPins = %v, want [CURRENT]", got.Store.DefaultPins)
	}
	if len(got.Filesystem.Ignore) != 2 {
		t.Fatalf("len(Filesystem.Ignore) = %d, want 2", len(got.Filesystem.Ignore))
	}
}

func TestManager_Read_TOMLKeys(t *testing.T) {
	input := `
log_dir = "/var/log/hoard"
default_repo = "show"

[[repos]]
name = "show"
root = "/projects/show"

[index]
type = "memory"

[store]
retry_budget = 4
hash = "sha256"
verify_copy = true

[filesystem]
ignore = ["*.tmp"]
`
	got, err := (&Manager{}).Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.LogDir != "/var/log/hoard" || got.Index.Type != "memory" {
		t.Errorf("Read() = %+v", got)
	}
	if r, ok := got.Repo("show"); !ok || r.Root != "/projects/show" {
		t.Errorf("Repo(show) = %+v, %v", r, ok)
	}
	if got.Store.RetryBudget != 4 || !got.Store.VerifyCopy {
		t.Errorf("Store = %+v", got.Store)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/hoard")

	if cfg.BaseDir != "/data/hoard" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/hoard")
	}
	if cfg.LogDir != "/data/hoard/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/hoard/log")
	}
	if cfg.Index.Type != "sqlite" || cfg.Index.DataDir != "/data/hoard/index" {
		t.Errorf("Index = %+v", cfg.Index)
	}
	if cfg.Store.RetryBudget != 32 || cfg.Store.Hash != "sha256" {
		t.Errorf("Store = %+v", cfg.Store)
	}
}

func TestConfig_AddRepo(t *testing.T) {
	cfg := NewConfig("/data/hoard")

	if err := cfg.AddRepo("show", "/projects/show"); err != nil {
		t.Fatalf("AddRepo() error = %v", err)
	}
	if cfg.DefaultRepo != "show" {
		t.Errorf("DefaultRepo = %q, want first registered repo", cfg.DefaultRepo)
	}
	if err := cfg.AddRepo("lib", "/projects/lib"); err != nil {
		t.Fatalf("AddRepo() error = %v", err)
	}
	if cfg.DefaultRepo != "show" {
		t.Errorf("DefaultRepo = %q, want unchanged", cfg.DefaultRepo)
	}
	if err := cfg.AddRepo("show", "/elsewhere"); err == nil {
		t.Error("AddRepo() with a duplicate name should fail")
	}
	if _, ok := cfg.Repo("missing"); ok {
		t.Error("Repo(missing) found a repository")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "hoard.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "hoard.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads what WriteToFile wrote", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "hoard.toml")
		cfg := NewConfig(dir)
		cfg.Index = IndexConfig{Type: "memory"}
		if err := cfg.AddRepo("show", filepath.Join(dir, "show")); err != nil {
			t.Fatal(err)
		}

		if err := WriteToFile(path, cfg); err != nil {
			t.Fatalf("WriteToFile() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Index.Type != "memory" || got.DefaultRepo != "show" {
			t.Errorf("ReadFromFile() = %+v", got)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/hoard.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
