package asset

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hoard-go/internal/model"
)

// Ledger file names, found in .metadata for the asset scope and in the
// version sidecar for a version scope.
const (
	NotesFile     = "notes"
	KeywordsFile  = "keywords"
	KeyValuesFile = "keyvalues"
)

// scopePath returns the directory holding ledger files for scope without
// creating it. Version 0 (model.AssetScope) addresses the asset as a whole.
func (a *Asset) scopePath(scope model.VersionID) (string, error) {
	if scope == model.AssetScope {
		return a.path(MetadataDir), nil
	}
	if !a.HasVersion(scope) {
		return "", fmt.Errorf("%w: %s", model.ErrVersionNotFound, scope)
	}
	return a.SidecarDir(scope), nil
}

// scopeDir is scopePath for writers: the directory is created.
func (a *Asset) scopeDir(scope model.VersionID) (string, error) {
	dir, err := a.scopePath(scope)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating ledger directory: %w", err)
	}
	return dir, nil
}

// AddNotes appends text as a new line of the notes of scope. With replace
// the existing notes are discarded first.
func (a *Asset) AddNotes(scope model.VersionID, text string, replace bool) error {
	dir, err := a.scopeDir(scope)
	if err != nil {
		return err
	}
	notesPath := filepath.Join(dir, NotesFile)

	var existing []byte
	if !replace {
		existing, err = os.ReadFile(notesPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading notes: %w", err)
		}
	}

	var buf bytes.Buffer
	buf.Write(existing)
	buf.WriteString(text)
	buf.WriteString("\n")
	if err := writeBytes(notesPath, buf.Bytes()); err != nil {
		return fmt.Errorf("writing notes: %w", err)
	}
	return nil
}

// DeleteNotes removes every note of scope.
func (a *Asset) DeleteNotes(scope model.VersionID) error {
	dir, err := a.scopeDir(scope)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(dir, NotesFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting notes: %w", err)
	}
	return nil
}

// Notes returns the notes of scope, empty when none were written.
func (a *Asset) Notes(scope model.VersionID) (string, error) {
	dir, err := a.scopePath(scope)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(dir, NotesFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading notes: %w", err)
	}
	return string(data), nil
}

// AddKeywords adds keywords to scope. Keywords already present are ignored.
func (a *Asset) AddKeywords(scope model.VersionID, keywords []string) error {
	normalized, err := normalizeKeywords(keywords)
	if err != nil {
		return err
	}
	return a.updateKeywords(scope, func(set map[string]bool) {
		for _, kw := range normalized {
			set[kw] = true
		}
	})
}

// DeleteKeywords removes keywords from scope. Absent keywords are ignored.
func (a *Asset) DeleteKeywords(scope model.VersionID, keywords []string) error {
	normalized, err := normalizeKeywords(keywords)
	if err != nil {
		return err
	}
	return a.updateKeywords(scope, func(set map[string]bool) {
		for _, kw := range normalized {
			delete(set, kw)
		}
	})
}

// Keywords returns the sorted keywords of scope.
func (a *Asset) Keywords(scope model.VersionID) ([]string, error) {
	dir, err := a.scopePath(scope)
	if err != nil {
		return nil, err
	}
	set, err := readKeywords(filepath.Join(dir, KeywordsFile))
	if err != nil {
		return nil, err
	}
	return sortedKeys(set), nil
}

func (a *Asset) updateKeywords(scope model.VersionID, change func(map[string]bool)) error {
	dir, err := a.scopeDir(scope)
	if err != nil {
		return err
	}
	kwPath := filepath.Join(dir, KeywordsFile)
	set, err := readKeywords(kwPath)
	if err != nil {
		return err
	}
	change(set)

	var buf bytes.Buffer
	for _, kw := range sortedKeys(set) {
		buf.WriteString(kw)
		buf.WriteString("\n")
	}
	if err := writeBytes(kwPath, buf.Bytes()); err != nil {
		return fmt.Errorf("writing keywords: %w", err)
	}
	return nil
}

func normalizeKeywords(keywords []string) ([]string, error) {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		n, err := model.NormalizeKeyword(kw)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func readKeywords(path string) (map[string]bool, error) {
	set := make(map[string]bool)
	lines, err := readLines(path)
	if err != nil {
		return nil, fmt.Errorf("reading keywords: %w", err)
	}
	for _, line := range lines {
		set[line] = true
	}
	return set, nil
}

// AddMetadata sets every key of kv on scope. Keys are upper-cased; an
// existing value for a key is replaced.
func (a *Asset) AddMetadata(scope model.VersionID, kv map[string]string) error {
	normalized := make(map[string]string, len(kv))
	for k, v := range kv {
		key, err := model.NormalizeMetadataKey(k)
		if err != nil {
			return err
		}
		if err := model.ValidateMetadataValue(v); err != nil {
			return err
		}
		normalized[key] = v
	}
	return a.updateMetadata(scope, func(m map[string]string) {
		for k, v := range normalized {
			m[k] = v
		}
	})
}

// DeleteMetadata removes keys and their values from scope. Absent keys are
// ignored.
func (a *Asset) DeleteMetadata(scope model.VersionID, keys []string) error {
	normalized := make([]string, 0, len(keys))
	for _, k := range keys {
		key, err := model.NormalizeMetadataKey(k)
		if err != nil {
			return err
		}
		normalized = append(normalized, key)
	}
	return a.updateMetadata(scope, func(m map[string]string) {
		for _, k := range normalized {
			delete(m, k)
		}
	})
}

// Metadata returns the key/value pairs of scope.
func (a *Asset) Metadata(scope model.VersionID) (map[string]string, error) {
	dir, err := a.scopePath(scope)
	if err != nil {
		return nil, err
	}
	return readKeyValues(filepath.Join(dir, KeyValuesFile))
}

func (a *Asset) updateMetadata(scope model.VersionID, change func(map[string]string)) error {
	dir, err := a.scopeDir(scope)
	if err != nil {
		return err
	}
	kvPath := filepath.Join(dir, KeyValuesFile)
	m, err := readKeyValues(kvPath)
	if err != nil {
		return err
	}
	change(m)

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s=%s\n", k, m[k])
	}
	if err := writeBytes(kvPath, buf.Bytes()); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

func readKeyValues(path string) (map[string]string, error) {
	m := make(map[string]string)
	lines, err := readLines(path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	for _, line := range lines {
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w: malformed line %q in %s", model.ErrInvalidMetadata, line, path)
		}
		m[k] = v
	}
	return m, nil
}

// readLines returns the non-empty lines of path, or nothing if it is missing.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
