// Package store persists crop rectangles per image path in SQLite, so crops
// drawn in one session can be extracted in a later one.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/menta2k/datacrop/pkg/record"
	"github.com/menta2k/datacrop/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS crops (
  id TEXT PRIMARY KEY,
  image_path TEXT NOT NULL,
  seq INTEGER NOT NULL,
  x INTEGER NOT NULL,
  y INTEGER NOT NULL,
  width INTEGER NOT NULL,
  height INTEGER NOT NULL,
  UNIQUE(image_path, seq)
);

CREATE INDEX IF NOT EXISTS idx_crops_image_path ON crops(image_path);
`

// Store is a SQLite-backed crop store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open crop store: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create crop schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored crops of rec.Path() with rec's current crops.
func (s *Store) Save(ctx context.Context, rec *record.ImageRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("while starting crop transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM crops WHERE image_path = ?`, rec.Path()); err != nil {
		return fmt.Errorf("while clearing crops of '%s': %w", rec.Path(), err)
	}

	for i, c := range rec.Crops() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO crops (id, image_path, seq, x, y, width, height) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, rec.Path(), i, c.Rect.X, c.Rect.Y, c.Rect.Width, c.Rect.Height)
		if err != nil {
			return fmt.Errorf("while inserting crop %d of '%s': %w", i, rec.Path(), err)
		}
	}

	return tx.Commit()
}

// Load rebuilds the record for path with its crops in stored order. An
// unknown path yields a record without crops.
func (s *Store) Load(ctx context.Context, path string) (*record.ImageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, x, y, width, height FROM crops WHERE image_path = ? ORDER BY seq`, path)
	if err != nil {
		return nil, fmt.Errorf("while loading crops of '%s': %w", path, err)
	}
	defer rows.Close()

	rec := record.New(path)
	for rows.Next() {
		var id string
		var r types.CropRect
		if err := rows.Scan(&id, &r.X, &r.Y, &r.Width, &r.Height); err != nil {
			return nil, fmt.Errorf("while scanning crop of '%s': %w", path, err)
		}
		rec.RestoreCrop(id, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Paths lists every image path that has stored crops.
func (s *Store) Paths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT image_path FROM crops ORDER BY image_path`)
	if err != nil {
		return nil, fmt.Errorf("while listing image paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Delete removes all crops of path.
func (s *Store) Delete(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM crops WHERE image_path = ?`, path); err != nil {
		return fmt.Errorf("while deleting crops of '%s': %w", path, err)
	}
	return nil
}
