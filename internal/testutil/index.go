package testutil

import (
	"errors"
	"testing"

	"hoard-go/internal/hoard"
	"hoard-go/internal/index"
	"hoard-go/internal/model"
)

// NewTestIndex creates an in-memory SQLite index with schema applied.
// The index is closed when the test completes.
func NewTestIndex(t *testing.T) *index.SQLiteIndex {
	t.Helper()

	idx, err := index.NewSQLiteIndex(":memory:")
	if err != nil {
		t.Fatalf("failed to open index: %v", err)
	}
	t.Cleanup(func() {
		idx.Close()
	})
	return idx
}

// ErrInjected is returned by FailingIndex.
var ErrInjected = errors.New("injected index failure")

// FailingIndex wraps an Index and fails every write once Fail is set.
type FailingIndex struct {
	hoard.Index
	Fail bool
}

func (f *FailingIndex) UpsertAsset(rec *model.AssetRecord) (*model.AssetRecord, error) {
	if f.Fail {
		return nil, ErrInjected
	}
	return f.Index.UpsertAsset(rec)
}

func (f *FailingIndex) FlushAsset(uri model.URI) error {
	if f.Fail {
		return ErrInjected
	}
	return f.Index.FlushAsset(uri)
}
