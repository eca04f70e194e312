package index

import (
	"fmt"
	"os"
	"path/filepath"

	"hoard-go/internal/config"
	"hoard-go/internal/hoard"
)

// FileName is the name of the index database inside data_dir.
const FileName = "index.db"

// NewIndexFromConfig creates an Index implementation based on the index config type.
func NewIndexFromConfig(cfg config.IndexConfig) (hoard.Index, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite index")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
		return NewSQLiteIndex(filepath.Join(cfg.DataDir, FileName))
	case "memory":
		return NewSQLiteIndex(":memory:")
	default:
		return nil, fmt.Errorf("unknown index type: %s", cfg.Type)
	}
}
