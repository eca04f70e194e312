// Package index is the SQLite implementation of the repository index.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"hoard-go/internal/hoard"
	"hoard-go/internal/index/migrations"
	"hoard-go/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteIndex implements the hoard.Index interface using SQLite.
type SQLiteIndex struct {
	db      *sql.DB
	queries *Queries
	path    string
}

// NewSQLiteIndex opens the index at path, migrating its schema to the
// latest version. path can be a file path or ":memory:".
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing index %s: %w", path, err)
	}
	if err := migrations.CheckStatus(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing index %s: %w", path, err)
	}

	return &SQLiteIndex{
		db:      db,
		queries: NewQueries(db),
		path:    path,
	}, nil
}

// OpenConnection opens and configures a SQLite connection.
// path can be a file path or ":memory:" for an in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	// A single connection keeps :memory: databases alive across calls and
	// serializes writers on file databases.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Path returns the location the index was opened from.
func (s *SQLiteIndex) Path() string {
	return s.path
}

// Asset operations

func (s *SQLiteIndex) UpsertAsset(rec *model.AssetRecord) (*model.AssetRecord, error) {
	ctx := context.Background()
	if err := rec.URI.Validate(); err != nil {
		return nil, err
	}

	err := s.queries.UpsertAsset(ctx, UpsertAssetParams{
		Repo:      rec.URI.Repo,
		URI:       rec.URI.String(),
		URIPath:   rec.URI.IndexPath(),
		Name:      rec.URI.Name,
		ParentDir: rec.ParentDir,
		AssetDir:  rec.AssetDir,
	})
	if err != nil {
		return nil, fmt.Errorf("upserting asset %s: %w", rec.URI, err)
	}

	row, err := s.queries.GetAssetByURI(ctx, rec.URI.String())
	if err != nil {
		return nil, fmt.Errorf("reading back asset %s: %w", rec.URI, err)
	}
	return toRecord(row), nil
}

func (s *SQLiteIndex) FindAsset(uri model.URI) (*model.AssetRecord, error) {
	row, err := s.queries.GetAssetByURI(context.Background(), uri.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding asset %s: %w", uri, err)
	}
	return toRecord(row), nil
}

func (s *SQLiteIndex) FlushAsset(uri model.URI) error {
	return s.inTx(func(ctx context.Context, q *Queries) error {
		if err := q.DeleteAssetByURI(ctx, uri.String()); err != nil {
			return fmt.Errorf("deleting asset %s: %w", uri, err)
		}
		return prune(ctx, q)
	})
}

func (s *SQLiteIndex) FlushRepository(repo string) error {
	return s.inTx(func(ctx context.Context, q *Queries) error {
		if err := q.DeleteAssetsByRepo(ctx, repo); err != nil {
			return fmt.Errorf("deleting assets of %s: %w", repo, err)
		}
		return prune(ctx, q)
	})
}

// prune removes keywords and metadata no asset references.
func prune(ctx context.Context, q *Queries) error {
	if err := q.PruneKeywords(ctx); err != nil {
		return fmt.Errorf("pruning keywords: %w", err)
	}
	if err := q.PruneMetadata(ctx); err != nil {
		return fmt.Errorf("pruning metadata: %w", err)
	}
	return nil
}

// Search terms

func (s *SQLiteIndex) AddKeywords(assetID int64, keywords []string) error {
	return s.inTx(func(ctx context.Context, q *Queries) error {
		for _, kw := range keywords {
			n, err := model.NormalizeKeyword(kw)
			if err != nil {
				return err
			}
			if err := q.InsertKeyword(ctx, n); err != nil {
				return fmt.Errorf("inserting keyword %s: %w", n, err)
			}
			if err := q.LinkKeyword(ctx, assetID, n); err != nil {
				return fmt.Errorf("linking keyword %s: %w", n, err)
			}
		}
		return nil
	})
}

func (s *SQLiteIndex) AddMetadata(assetID int64, kv map[string]string) error {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return s.inTx(func(ctx context.Context, q *Queries) error {
		for _, k := range keys {
			key, err := model.NormalizeMetadataKey(k)
			if err != nil {
				return err
			}
			value := kv[k]
			err = q.InsertMetadata(ctx, InsertMetadataParams{
				Key:      key,
				Value:    value,
				NumValue: numericValue(value),
			})
			if err != nil {
				return fmt.Errorf("inserting metadata %s: %w", key, err)
			}
			if err := q.LinkMetadata(ctx, assetID, key, value); err != nil {
				return fmt.Errorf("linking metadata %s: %w", key, err)
			}
		}
		return nil
	})
}

// Thumbnails

func (s *SQLiteIndex) RecordThumbnailSet(assetID int64, version model.VersionID, thumbs []model.Thumbnail) error {
	v := int(version)
	return s.inTx(func(ctx context.Context, q *Queries) error {
		if err := q.DeleteThumbnails(ctx, assetID, v); err != nil {
			return fmt.Errorf("clearing thumbnails of %s: %w", version, err)
		}
		if err := q.DeletePoster(ctx, assetID, v); err != nil {
			return fmt.Errorf("clearing poster of %s: %w", version, err)
		}
		for _, t := range thumbs {
			if err := q.InsertThumbnail(ctx, assetID, v, t.Frame, t.Path); err != nil {
				return fmt.Errorf("recording thumbnail %d of %s: %w", t.Frame, version, err)
			}
		}
		return nil
	})
}

func (s *SQLiteIndex) RecordPoster(assetID int64, version model.VersionID, poster model.Thumbnail) error {
	if err := s.queries.UpsertPoster(context.Background(), assetID, int(version), poster.Frame, poster.Path); err != nil {
		return fmt.Errorf("recording poster of %s: %w", version, err)
	}
	return nil
}

func (s *SQLiteIndex) Thumbnails(uri model.URI, version model.VersionID) ([]model.Thumbnail, error) {
	rows, err := s.queries.ListThumbnails(context.Background(), uri.String(), int(version))
	if err != nil {
		return nil, fmt.Errorf("listing thumbnails of %s %s: %w", uri, version, err)
	}
	thumbs := make([]model.Thumbnail, 0, len(rows))
	for _, r := range rows {
		thumbs = append(thumbs, model.Thumbnail{Frame: r.Frame, Path: r.Path})
	}
	return thumbs, nil
}

func (s *SQLiteIndex) Poster(uri model.URI, version model.VersionID) (*model.Thumbnail, error) {
	row, err := s.queries.GetPoster(context.Background(), uri.String(), int(version))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding poster of %s %s: %w", uri, version, err)
	}
	return &model.Thumbnail{Frame: row.Frame, Path: row.Path}, nil
}

// Search

func (s *SQLiteIndex) Query(q model.Query) ([]model.AssetRecord, error) {
	stmt, args, err := buildQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(context.Background(), stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying assets: %w", err)
	}
	defer rows.Close()

	var out []model.AssetRecord
	for rows.Next() {
		row, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		out = append(out, *toRecord(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying assets: %w", err)
	}
	return out, nil
}

func (s *SQLiteIndex) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// inTx runs fn inside one transaction.
func (s *SQLiteIndex) inTx(fn func(ctx context.Context, q *Queries) error) error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, s.queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func toRecord(row Asset) *model.AssetRecord {
	return &model.AssetRecord{
		ID:   row.AssetID,
		Repo: row.Repo,
		URI: model.URI{
			Repo: row.Repo,
			Path: strings.TrimSuffix(row.URIPath, "/"),
			Name: row.Name,
		},
		ParentDir: row.ParentDir,
		AssetDir:  row.AssetDir,
	}
}

// Compile-time check that SQLiteIndex implements the hoard.Index interface
var _ hoard.Index = (*SQLiteIndex)(nil)
