package asset

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// LogFile is the append-only history of an asset, kept in .metadata.
const LogFile = "log"

// LogEntry is one line of the asset log.
type LogEntry struct {
	Time    time.Time
	Message string
}

// AppendLog records a line in the asset log.
func (a *Asset) AppendLog(format string, args ...any) error {
	if err := os.MkdirAll(a.path(MetadataDir), 0755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}
	f, err := os.OpenFile(a.path(MetadataDir, LogFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening asset log: %w", err)
	}
	defer f.Close()

	msg := strings.ReplaceAll(fmt.Sprintf(format, args...), "\n", " ")
	if _, err := fmt.Fprintf(f, "%s\t%s\n", a.now().UTC().Format(time.RFC3339), msg); err != nil {
		return fmt.Errorf("writing asset log: %w", err)
	}
	return nil
}

// Log returns every entry of the asset log, oldest first.
func (a *Asset) Log() ([]LogEntry, error) {
	lines, err := readLines(a.path(MetadataDir, LogFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading asset log: %w", err)
	}

	entries := make([]LogEntry, 0, len(lines))
	for _, line := range lines {
		ts, msg, ok := strings.Cut(line, "\t")
		if !ok {
			entries = append(entries, LogEntry{Message: line})
			continue
		}
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			entries = append(entries, LogEntry{Message: line})
			continue
		}
		entries = append(entries, LogEntry{Time: t, Message: msg})
	}
	return entries, nil
}
