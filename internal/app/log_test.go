package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestHoardHandler_Handle(t *testing.T) {
	ts := time.Date(2026, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			level:   slog.LevelInfo,
			message: "version published",
			want:    "2026-06-15T14:30:45Z\tINFO\top-1\tversion published\n",
		},
		{
			name:    "with record attrs",
			level:   slog.LevelDebug,
			message: "version reserved",
			attrs:   []slog.Attr{slog.String("uri", "show:/chars#hero"), slog.Int("files", 3)},
			want:    "2026-06-15T14:30:45Z\tDEBUG\top-1\tversion reserved\turi=show:/chars#hero\tfiles=3\n",
		},
		{
			name:    "values with spaces are quoted",
			level:   slog.LevelWarn,
			message: "index update failed",
			attrs:   []slog.Attr{slog.String("error", "disk full")},
			want:    "2026-06-15T14:30:45Z\tWARN\top-1\tindex update failed\terror=\"disk full\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &hoardHandler{file: &buf, opID: "op-1"}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			r.AddAttrs(tt.attrs...)

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestHoardHandler_ConsoleLevel(t *testing.T) {
	var file, console bytes.Buffer
	h := &hoardHandler{file: &file, console: &console, consoleLevel: slog.LevelWarn, opID: "op-1"}
	logger := slog.New(h)

	logger.Info("quiet")
	logger.Warn("loud")

	if got := strings.Count(file.String(), "\n"); got != 2 {
		t.Errorf("file got %d lines, want 2", got)
	}
	if strings.Contains(console.String(), "quiet") || !strings.Contains(console.String(), "loud") {
		t.Errorf("console = %q, want only the warning", console.String())
	}
}

func TestHoardHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &hoardHandler{file: &buf, opID: "op-1", attrs: []slog.Attr{slog.String("a", "1")}}

	h2 := h.WithAttrs([]slog.Attr{slog.String("repo", "show")}).(*hoardHandler)
	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "index rebuilt", 0)
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "a=1\trepo=show") {
		t.Errorf("expected pre-set attrs, got: %q", got)
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")

	logger, f, err := newLogger(dir, "test-op", slog.LevelError)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	logger.Info("hello", "k", "v")
	f.Close()

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "\ttest-op\thello\tk=v\n") {
		t.Errorf("log file = %q", data)
	}
}
