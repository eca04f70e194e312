package index

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the fixed statements of the index.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Asset is one row of the assets table.
type Asset struct {
	AssetID   int64
	Repo      string
	URI       string
	URIPath   string
	Name      string
	ParentDir string
	AssetDir  string
}

const assetColumns = `asset_id, repo, uri, uri_path, name, parent_dir, asset_dir`

func scanAsset(row interface{ Scan(...interface{}) error }) (Asset, error) {
	var a Asset
	err := row.Scan(&a.AssetID, &a.Repo, &a.URI, &a.URIPath, &a.Name, &a.ParentDir, &a.AssetDir)
	return a, err
}

const upsertAsset = `
INSERT INTO assets (repo, uri, uri_path, name, parent_dir, asset_dir)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (uri) DO UPDATE SET
    parent_dir = excluded.parent_dir,
    asset_dir = excluded.asset_dir
`

type UpsertAssetParams struct {
	Repo      string
	URI       string
	URIPath   string
	Name      string
	ParentDir string
	AssetDir  string
}

func (q *Queries) UpsertAsset(ctx context.Context, arg UpsertAssetParams) error {
	_, err := q.db.ExecContext(ctx, upsertAsset,
		arg.Repo, arg.URI, arg.URIPath, arg.Name, arg.ParentDir, arg.AssetDir)
	return err
}

const getAssetByURI = `SELECT ` + assetColumns + ` FROM assets WHERE uri = ?`

func (q *Queries) GetAssetByURI(ctx context.Context, uri string) (Asset, error) {
	return scanAsset(q.db.QueryRowContext(ctx, getAssetByURI, uri))
}

const deleteAssetByURI = `DELETE FROM assets WHERE uri = ?`

func (q *Queries) DeleteAssetByURI(ctx context.Context, uri string) error {
	_, err := q.db.ExecContext(ctx, deleteAssetByURI, uri)
	return err
}

const deleteAssetsByRepo = `DELETE FROM assets WHERE repo = ?`

func (q *Queries) DeleteAssetsByRepo(ctx context.Context, repo string) error {
	_, err := q.db.ExecContext(ctx, deleteAssetsByRepo, repo)
	return err
}

const insertKeyword = `INSERT OR IGNORE INTO keywords (keyword) VALUES (?)`

func (q *Queries) InsertKeyword(ctx context.Context, keyword string) error {
	_, err := q.db.ExecContext(ctx, insertKeyword, keyword)
	return err
}

const linkKeyword = `
INSERT OR IGNORE INTO assets_keywords (asset_id, keyword_id)
SELECT ?, keyword_id FROM keywords WHERE keyword = ?
`

func (q *Queries) LinkKeyword(ctx context.Context, assetID int64, keyword string) error {
	_, err := q.db.ExecContext(ctx, linkKeyword, assetID, keyword)
	return err
}

const insertMetadata = `
INSERT OR IGNORE INTO metadata (metadata_key, metadata_value, metadata_num_value)
VALUES (?, ?, ?)
`

type InsertMetadataParams struct {
	Key      string
	Value    string
	NumValue sql.NullFloat64
}

func (q *Queries) InsertMetadata(ctx context.Context, arg InsertMetadataParams) error {
	_, err := q.db.ExecContext(ctx, insertMetadata, arg.Key, arg.Value, arg.NumValue)
	return err
}

const linkMetadata = `
INSERT OR IGNORE INTO assets_metadata (asset_id, metadata_id)
SELECT ?, metadata_id FROM metadata WHERE metadata_key = ? AND metadata_value = ?
`

func (q *Queries) LinkMetadata(ctx context.Context, assetID int64, key, value string) error {
	_, err := q.db.ExecContext(ctx, linkMetadata, assetID, key, value)
	return err
}

const pruneKeywords = `
DELETE FROM keywords
WHERE keyword_id NOT IN (SELECT keyword_id FROM assets_keywords)
`

func (q *Queries) PruneKeywords(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, pruneKeywords)
	return err
}

const pruneMetadata = `
DELETE FROM metadata
WHERE metadata_id NOT IN (SELECT metadata_id FROM assets_metadata)
`

func (q *Queries) PruneMetadata(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, pruneMetadata)
	return err
}

const deleteThumbnails = `DELETE FROM thumbnails WHERE asset_id = ? AND version = ?`

func (q *Queries) DeleteThumbnails(ctx context.Context, assetID int64, version int) error {
	_, err := q.db.ExecContext(ctx, deleteThumbnails, assetID, version)
	return err
}

const deletePoster = `DELETE FROM posters WHERE asset_id = ? AND version = ?`

func (q *Queries) DeletePoster(ctx context.Context, assetID int64, version int) error {
	_, err := q.db.ExecContext(ctx, deletePoster, assetID, version)
	return err
}

const insertThumbnail = `
INSERT OR REPLACE INTO thumbnails (asset_id, version, frame, path)
VALUES (?, ?, ?, ?)
`

func (q *Queries) InsertThumbnail(ctx context.Context, assetID int64, version, frame int, path string) error {
	_, err := q.db.ExecContext(ctx, insertThumbnail, assetID, version, frame, path)
	return err
}

const upsertPoster = `
INSERT OR REPLACE INTO posters (asset_id, version, frame, path)
VALUES (?, ?, ?, ?)
`

func (q *Queries) UpsertPoster(ctx context.Context, assetID int64, version, frame int, path string) error {
	_, err := q.db.ExecContext(ctx, upsertPoster, assetID, version, frame, path)
	return err
}

const listThumbnails = `
SELECT t.frame, t.path
FROM thumbnails t
JOIN assets a ON a.asset_id = t.asset_id
WHERE a.uri = ? AND t.version = ?
ORDER BY t.frame
`

type ThumbnailRow struct {
	Frame int
	Path  string
}

func (q *Queries) ListThumbnails(ctx context.Context, uri string, version int) ([]ThumbnailRow, error) {
	rows, err := q.db.QueryContext(ctx, listThumbnails, uri, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ThumbnailRow
	for rows.Next() {
		var i ThumbnailRow
		if err := rows.Scan(&i.Frame, &i.Path); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPoster = `
SELECT p.frame, p.path
FROM posters p
JOIN assets a ON a.asset_id = p.asset_id
WHERE a.uri = ? AND p.version = ?
`

func (q *Queries) GetPoster(ctx context.Context, uri string, version int) (ThumbnailRow, error) {
	var i ThumbnailRow
	err := q.db.QueryRowContext(ctx, getPoster, uri, version).Scan(&i.Frame, &i.Path)
	return i, err
}
