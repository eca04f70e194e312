package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(f), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func relPaths(t *testing.T, root string, m *OSFilesystemManager, recursive bool) []string {
	t.Helper()
	dir, err := m.Resolve(root)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	found, err := m.FindFiles(dir, recursive)
	if err != nil {
		t.Fatalf("FindFiles() error = %v", err)
	}
	var out []string
	for _, p := range found {
		rel, _ := filepath.Rel(root, p.String())
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestOSFilesystemManager_Resolve(t *testing.T) {
	m := NewOSFilesystemManager(nil)
	root := t.TempDir()
	writeTree(t, root, "a.txt")

	t.Run("file", func(t *testing.T) {
		p, err := m.Resolve(filepath.Join(root, "a.txt"))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if p.IsDir() || !filepath.IsAbs(p.String()) {
			t.Errorf("Resolve() = %+v", p)
		}
	})

	t.Run("directory", func(t *testing.T) {
		p, err := m.Resolve(root)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !p.IsDir() {
			t.Error("IsDir() = false for a directory")
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := m.Resolve(filepath.Join(root, "missing")); err == nil {
			t.Error("Resolve() of a missing path should fail")
		}
	})
}

func TestOSFilesystemManager_FindFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "scene.usd", "tex/albedo.png", "tex/deep/rough.png", ".git/HEAD")
	m := NewOSFilesystemManager(nil)

	t.Run("recursive", func(t *testing.T) {
		got := relPaths(t, root, m, true)
		want := []string{"scene.usd", "tex/albedo.png", "tex/deep/rough.png"}
		if len(got) != len(want) {
			t.Fatalf("FindFiles() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("FindFiles()[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("flat", func(t *testing.T) {
		got := relPaths(t, root, m, false)
		if len(got) != 1 || got[0] != "scene.usd" {
			t.Errorf("FindFiles() = %v, want [scene.usd]", got)
		}
	})

	t.Run("file is rejected", func(t *testing.T) {
		p, _ := m.Resolve(filepath.Join(root, "scene.usd"))
		if _, err := m.FindFiles(p, true); err == nil {
			t.Error("FindFiles() on a file should fail")
		}
	})
}

func TestOSFilesystemManager_IsIgnored(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "scene.usd", "scene.bak", "cache/a.bgeo", "notes.tmp")
	if err := os.WriteFile(filepath.Join(root, IgnoreFileName), []byte("cache/\n"), 0644); err != nil {
		t.Fatal(err)
	}
	m := NewOSFilesystemManager([]string{"*.bak", "*.tmp"})

	tests := []struct {
		file string
		want bool
	}{
		{file: "scene.usd", want: false},
		{file: "scene.bak", want: true},
		{file: "notes.tmp", want: true},
		{file: "cache/a.bgeo", want: true},
		{file: IgnoreFileName, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			p, err := m.Resolve(filepath.Join(root, filepath.FromSlash(tt.file)))
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			got, err := m.IsIgnored(p, root)
			if err != nil {
				t.Fatalf("IsIgnored() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsIgnored(%s) = %v, want %v", tt.file, got, tt.want)
			}
		})
	}
}
