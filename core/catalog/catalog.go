// Package catalog keeps a local SQLite registry of ingested IFC models:
// path, content hashes, schema id, line count, and the linear scaling
// factor. The CLI and the API use it to list known models. Only this
// metadata is stored, not model content, so a catalogued model is not
// re-opened from the catalog.
//
// Two drivers are supported via build tags: pure Go modernc.org/sqlite
// by default, mattn/go-sqlite3 with -tags cgo_sqlite.
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vegarringdal/web-ifc/core/errors"
)

// Entry is one catalogued model.
type Entry struct {
	ID                  int64     `json:"id"`
	Path                string    `json:"path"`
	SHA256              string    `json:"sha256"`
	BLAKE3              string    `json:"blake3"`
	Schema              string    `json:"schema"`
	NumLines            int       `json:"num_lines"`
	LinearScalingFactor float64   `json:"linear_scaling_factor"`
	LoadMillis          int64     `json:"load_millis"`
	CreatedAt           time.Time `json:"created_at"`
}

// Catalog wraps the SQLite database holding the model registry.
type Catalog struct {
	db *sql.DB
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS models (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL,
	sha256 TEXT NOT NULL UNIQUE,
	blake3 TEXT NOT NULL,
	schema TEXT NOT NULL DEFAULT '',
	num_lines INTEGER NOT NULL,
	linear_scaling_factor REAL NOT NULL,
	load_millis INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_models_path ON models(path);
`

// Open opens (creating if needed) a catalog database at path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize catalog schema")
	}
	return &Catalog{db: db}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Add records a model, replacing any previous entry with the same
// content hash. Returns the entry id.
func (c *Catalog) Add(entry *Entry) (int64, error) {
	if entry.SHA256 == "" {
		return 0, errors.NewValidation("sha256", "must not be empty")
	}

	var id int64
	err := c.db.QueryRow(`
INSERT INTO models (path, sha256, blake3, schema, num_lines, linear_scaling_factor, load_millis)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(sha256) DO UPDATE SET
	path = excluded.path,
	blake3 = excluded.blake3,
	schema = excluded.schema,
	num_lines = excluded.num_lines,
	linear_scaling_factor = excluded.linear_scaling_factor,
	load_millis = excluded.load_millis
RETURNING id`,
		entry.Path, entry.SHA256, entry.BLAKE3, entry.Schema,
		entry.NumLines, entry.LinearScalingFactor, entry.LoadMillis).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "failed to insert catalog entry")
	}
	return id, nil
}

// List returns all entries, most recent first.
func (c *Catalog) List() ([]Entry, error) {
	rows, err := c.db.Query(`
SELECT id, path, sha256, blake3, schema, num_lines, linear_scaling_factor, load_millis, created_at
FROM models ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query catalog")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.Path, &entry.SHA256, &entry.BLAKE3,
			&entry.Schema, &entry.NumLines, &entry.LinearScalingFactor,
			&entry.LoadMillis, &entry.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan catalog row")
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// FindBySHA256 looks up an entry by content hash.
func (c *Catalog) FindBySHA256(hash string) (*Entry, error) {
	row := c.db.QueryRow(`
SELECT id, path, sha256, blake3, schema, num_lines, linear_scaling_factor, load_millis, created_at
FROM models WHERE sha256 = ?`, hash)

	var entry Entry
	err := row.Scan(&entry.ID, &entry.Path, &entry.SHA256, &entry.BLAKE3,
		&entry.Schema, &entry.NumLines, &entry.LinearScalingFactor,
		&entry.LoadMillis, &entry.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("catalog entry", hash)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan catalog row")
	}
	return &entry, nil
}

// Remove deletes an entry by content hash.
func (c *Catalog) Remove(hash string) error {
	result, err := c.db.Exec(`DELETE FROM models WHERE sha256 = ?`, hash)
	if err != nil {
		return errors.Wrap(err, "failed to delete catalog entry")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read delete result")
	}
	if affected == 0 {
		return errors.NewNotFound("catalog entry", hash)
	}
	return nil
}

// Count returns the number of catalogued models.
func (c *Catalog) Count() (int, error) {
	var count int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM models`).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count catalog entries")
	}
	return count, nil
}

// String implements fmt.Stringer for debugging.
func (e Entry) String() string {
	return fmt.Sprintf("%s (%d lines, scale %g)", e.Path, e.NumLines, e.LinearScalingFactor)
}
