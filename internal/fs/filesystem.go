package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"hoard-go/internal/hoard"
)

// OSFilesystemManager is the real filesystem implementation of FilesystemManager.
type OSFilesystemManager struct {
	ignorePatterns []string // From config, applied to every source directory
}

// NewOSFilesystemManager creates a filesystem manager that applies the given
// ignore patterns in addition to each source directory's .hoardignore.
func NewOSFilesystemManager(ignorePatterns []string) *OSFilesystemManager {
	return &OSFilesystemManager{ignorePatterns: ignorePatterns}
}

// Resolve validates a raw path and returns a Path object.
func (m *OSFilesystemManager) Resolve(rawPath string) (*hoard.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	// Stat follows symlinks: a linked file is published by content.
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	mode := info.Mode()
	if mode&os.ModeDevice != 0 {
		return nil, fmt.Errorf("device files not supported: %s", absPath)
	}
	if mode&os.ModeNamedPipe != 0 {
		return nil, fmt.Errorf("named pipes not supported: %s", absPath)
	}
	if mode&os.ModeSocket != 0 {
		return nil, fmt.Errorf("sockets not supported: %s", absPath)
	}

	return hoard.NewPath(absPath, info.IsDir(), info), nil
}

// FindFiles discovers regular files under the given directory path, sorted
// by path. Hidden directories are not descended into.
func (m *OSFilesystemManager) FindFiles(path *hoard.Path, recursive bool) ([]*hoard.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	var paths []*hoard.Path
	root := path.String()

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p == root {
				return nil
			}
			if !recursive || isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		paths = append(paths, hoard.NewPath(p, false, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(paths, func(i, j int) bool { return paths[i].String() < paths[j].String() })
	return paths, nil
}

// IsIgnored reports whether path should be left out of a publish of root.
// Patterns come from the defaults, the config and root/.hoardignore.
func (m *OSFilesystemManager) IsIgnored(path *hoard.Path, root string) (bool, error) {
	rel, err := filepath.Rel(root, path.String())
	if err != nil {
		return false, fmt.Errorf("calculating relative path: %w", err)
	}

	filePatterns, err := ParseIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return false, err
	}

	patterns := make([]string, 0, len(defaultIgnorePatterns)+len(m.ignorePatterns)+len(filePatterns))
	patterns = append(patterns, defaultIgnorePatterns...)
	patterns = append(patterns, m.ignorePatterns...)
	patterns = append(patterns, filePatterns...)
	return NewIgnoreMatcher(patterns).Match(rel), nil
}

func isHidden(name string) bool {
	return len(name) > 1 && name[0] == '.'
}

// Compile-time check that OSFilesystemManager implements hoard.FilesystemManager interface
var _ hoard.FilesystemManager = (*OSFilesystemManager)(nil)
