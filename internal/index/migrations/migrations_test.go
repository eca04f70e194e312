package migrations

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	tables := []string{"assets", "keywords", "metadata", "assets_keywords", "assets_metadata", "thumbnails", "posters", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s was not created: %v", table, err)
		}
	}
}

func TestCheckStatus(t *testing.T) {
	t.Run("fresh database needs migration", func(t *testing.T) {
		db := openTestDB(t)
		if err := CheckStatus(db); !errors.Is(err, ErrNoSchema) {
			t.Errorf("CheckStatus() error = %v, want ErrNoSchema", err)
		}
	})

	t.Run("migrated database is current", func(t *testing.T) {
		db := openTestDB(t)
		if err := MigrateUp(db); err != nil {
			t.Fatalf("MigrateUp() failed: %v", err)
		}
		if err := CheckStatus(db); err != nil {
			t.Errorf("CheckStatus() after migration returned error: %v", err)
		}
	})
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("first MigrateUp() failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Errorf("second MigrateUp() failed: %v", err)
	}
	if err := CheckStatus(db); err != nil {
		t.Errorf("CheckStatus() after double migration returned error: %v", err)
	}
}

func TestLatestVersion(t *testing.T) {
	v, err := LatestVersion()
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if v != 1 {
		t.Errorf("LatestVersion() = %d, want 1", v)
	}
}

func TestSchema_Constraints(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	insertAsset := `INSERT INTO assets (repo, uri, uri_path, name, parent_dir, asset_dir)
		VALUES ('show', 'show:/chars#hero', 'chars/', 'hero', '/r/chars', '/r/chars/hero')`
	if _, err := db.Exec(insertAsset); err != nil {
		t.Fatalf("inserting asset: %v", err)
	}

	t.Run("uri is unique", func(t *testing.T) {
		if _, err := db.Exec(insertAsset); err == nil {
			t.Error("expected unique constraint violation for duplicate uri")
		}
	})

	t.Run("links need an asset", func(t *testing.T) {
		if _, err := db.Exec("INSERT INTO keywords (keyword) VALUES ('RIG')"); err != nil {
			t.Fatal(err)
		}
		_, err := db.Exec("INSERT INTO assets_keywords (asset_id, keyword_id) VALUES (999, 1)")
		if err == nil {
			t.Error("expected foreign key violation, insert succeeded")
		}
	})

	t.Run("deleting an asset cascades", func(t *testing.T) {
		if _, err := db.Exec("INSERT INTO assets_keywords (asset_id, keyword_id) VALUES (1, 1)"); err != nil {
			t.Fatal(err)
		}
		if _, err := db.Exec("INSERT INTO thumbnails (asset_id, version, frame, path) VALUES (1, 1, 1, '/t')"); err != nil {
			t.Fatal(err)
		}
		if _, err := db.Exec("DELETE FROM assets WHERE asset_id = 1"); err != nil {
			t.Fatal(err)
		}
		for _, table := range []string{"assets_keywords", "thumbnails"} {
			var n int
			if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
				t.Fatal(err)
			}
			if n != 0 {
				t.Errorf("%s has %d rows after asset delete, want 0", table, n)
			}
		}
	})
}

// openTestDB opens an in-memory SQLite database with foreign keys enforced.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// Every pooled connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	return db
}
