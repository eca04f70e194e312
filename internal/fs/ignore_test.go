package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewIgnoreMatcher(t *testing.T) {
	t.Run("skips blank lines and comments", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"", "  ", "# comment", "*.tmp", "!", "/"})
		if len(m.patterns) != 1 {
			t.Fatalf("expected 1 pattern, got %d", len(m.patterns))
		}
		if m.patterns[0].glob != "*.tmp" {
			t.Errorf("expected *.tmp, got %s", m.patterns[0].glob)
		}
	})

	t.Run("classifies pattern kinds", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"*.tmp", "render/*.exr", "cache/", "!keep.tmp", "/plates/raw/"})
		want := []ignorePattern{
			{glob: "*.tmp"},
			{glob: "render/*.exr", anchored: true},
			{glob: "cache", dirOnly: true},
			{glob: "keep.tmp", negate: true},
			{glob: "plates/raw", anchored: true, dirOnly: true},
		}
		if len(m.patterns) != len(want) {
			t.Fatalf("got %d patterns, want %d", len(m.patterns), len(want))
		}
		for i := range want {
			if m.patterns[i] != want[i] {
				t.Errorf("pattern %d = %+v, want %+v", i, m.patterns[i], want[i])
			}
		}
	})
}

func TestIgnoreMatcher_Match(t *testing.T) {
	tests := []struct {
		name         string
		patterns     []string
		relativePath string
		want         bool
	}{
		{
			name:         "name glob matches file in root",
			patterns:     []string{"*.tmp"},
			relativePath: "scene.tmp",
			want:         true,
		},
		{
			name:         "name glob matches file in subdirectory",
			patterns:     []string{"*.tmp"},
			relativePath: filepath.Join("textures", "albedo.tmp"),
			want:         true,
		},
		{
			name:         "name glob does not match different extension",
			patterns:     []string{"*.tmp"},
			relativePath: "scene.usd",
			want:         false,
		},
		{
			name:         "ignore file itself",
			patterns:     defaultIgnorePatterns,
			relativePath: IgnoreFileName,
			want:         true,
		},
		{
			name:         "finder litter in subdirectory",
			patterns:     defaultIgnorePatterns,
			relativePath: filepath.Join("tex", ".DS_Store"),
			want:         true,
		},
		{
			name:         "anchored path matches",
			patterns:     []string{"render/*.exr"},
			relativePath: filepath.Join("render", "beauty.exr"),
			want:         true,
		},
		{
			name:         "anchored path does not match elsewhere",
			patterns:     []string{"render/*.exr"},
			relativePath: filepath.Join("comp", "render", "beauty.exr"),
			want:         false,
		},
		{
			name:         "directory pattern matches files below it",
			patterns:     []string{"cache/"},
			relativePath: filepath.Join("sim", "cache", "frame.0001.bgeo"),
			want:         true,
		},
		{
			name:         "directory pattern ignores a file of that name",
			patterns:     []string{"cache/"},
			relativePath: "cache",
			want:         false,
		},
		{
			name:         "anchored directory pattern",
			patterns:     []string{"plates/raw/"},
			relativePath: filepath.Join("plates", "raw", "a.dpx"),
			want:         true,
		},
		{
			name:         "negation re-includes",
			patterns:     []string{"*.tmp", "!keep.tmp"},
			relativePath: "keep.tmp",
			want:         false,
		},
		{
			name:         "last match wins",
			patterns:     []string{"!keep.tmp", "*.tmp"},
			relativePath: "keep.tmp",
			want:         true,
		},
		{
			name:         "malformed pattern never matches",
			patterns:     []string{"[a-"},
			relativePath: "a",
			want:         false,
		},
		{
			name:         "no patterns matches nothing",
			patterns:     nil,
			relativePath: "anything.txt",
			want:         false,
		},
		{
			name:         "empty string path",
			patterns:     []string{"*"},
			relativePath: "",
			want:         false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewIgnoreMatcher(tt.patterns)
			got := m.Match(tt.relativePath)
			if got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.relativePath, got, tt.want)
			}
		})
	}
}

func TestParseIgnoreFile(t *testing.T) {
	t.Run("reads patterns from file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, IgnoreFileName)
		content := "*.tmp\n# comment\n\ncache/\nrender/*.exr\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("writing test file: %v", err)
		}

		patterns, err := ParseIgnoreFile(path)
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		if len(patterns) != 5 {
			t.Fatalf("expected 5 raw lines, got %d", len(patterns))
		}

		m := NewIgnoreMatcher(patterns)
		if len(m.patterns) != 3 {
			t.Errorf("expected 3 parsed patterns, got %d", len(m.patterns))
		}
	})

	t.Run("returns nil for missing file", func(t *testing.T) {
		t.Parallel()
		patterns, err := ParseIgnoreFile(filepath.Join(t.TempDir(), IgnoreFileName))
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		if patterns != nil {
			t.Errorf("expected nil patterns, got %v", patterns)
		}
	})
}
