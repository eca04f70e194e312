package fs

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IgnoreFileName is read from the root of every directory published as a source.
const IgnoreFileName = ".hoardignore"

// defaultIgnorePatterns are always applied regardless of config or .hoardignore.
var defaultIgnorePatterns = []string{IgnoreFileName, ".DS_Store", "Thumbs.db"}

type ignorePattern struct {
	glob     string
	anchored bool // match the full relative path instead of a single segment
	dirOnly  bool // match directories on the way to the file, never the file itself
	negate   bool // re-include a path an earlier pattern excluded
}

// IgnoreMatcher decides which files of a source directory are left out of a
// publish. Patterns follow a small subset of gitignore:
//
//	*.tmp      any file whose name matches, at any depth
//	cache/     any directory named cache, at any depth
//	render/*.exr  a path relative to the source root
//	!keep.tmp  re-include something an earlier pattern excluded
//
// The last matching pattern wins.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher creates an IgnoreMatcher from raw pattern strings.
// Blank lines and lines starting with '#' are skipped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	var patterns []ignorePattern
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		var p ignorePattern
		if strings.HasPrefix(raw, "!") {
			p.negate = true
			raw = raw[1:]
		}
		if strings.HasSuffix(raw, "/") {
			p.dirOnly = true
			raw = strings.TrimSuffix(raw, "/")
		}
		raw = strings.TrimPrefix(raw, "/")
		if raw == "" {
			continue
		}
		p.anchored = strings.Contains(raw, "/")
		p.glob = raw
		patterns = append(patterns, p)
	}
	return &IgnoreMatcher{patterns: patterns}
}

// Match reports whether relativePath, a file below the source root, is ignored.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	if len(m.patterns) == 0 || relativePath == "" {
		return false
	}
	rel := filepath.ToSlash(relativePath)
	segments := strings.Split(rel, "/")

	ignored := false
	for _, p := range m.patterns {
		if p.matches(rel, segments) {
			ignored = !p.negate
		}
	}
	return ignored
}

func (p ignorePattern) matches(rel string, segments []string) bool {
	dirs := segments[:len(segments)-1]

	if p.anchored {
		if p.dirOnly {
			for i := range dirs {
				if globMatch(p.glob, strings.Join(segments[:i+1], "/")) {
					return true
				}
			}
			return false
		}
		return globMatch(p.glob, rel)
	}

	if p.dirOnly {
		for _, d := range dirs {
			if globMatch(p.glob, d) {
				return true
			}
		}
		return false
	}
	return globMatch(p.glob, segments[len(segments)-1])
}

func globMatch(pattern, name string) bool {
	matched, err := path.Match(pattern, name)
	// A malformed pattern never matches.
	return err == nil && matched
}

// ParseIgnoreFile reads an ignore file and returns the raw pattern strings.
// Returns nil and no error if the file does not exist.
func ParseIgnoreFile(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return patterns, nil
}
