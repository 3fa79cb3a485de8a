// Package sqlite keeps trained models in a SQLite database, keyed by name.
package sqlite

import (
	"FlowSentinel/internal/model"
	"FlowSentinel/internal/store"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Entry describes a stored model without decoding it.
type Entry struct {
	Name      string
	Algorithm string
	SavedAt   time.Time
}

// Store implements model.ModelStore. The path argument of Save and Load is
// the model name.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "./models.sqlite"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	ddl := `
CREATE TABLE IF NOT EXISTS models (
	name      TEXT PRIMARY KEY,
	algorithm TEXT NOT NULL,
	blob      BLOB NOT NULL,
	saved_at  INTEGER NOT NULL
);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create models table: %w", err)
	}
	return nil
}

func (s *Store) Save(handle model.ModelHandle, name string) error {
	return s.SaveContext(context.Background(), handle, name)
}

func (s *Store) SaveContext(ctx context.Context, handle model.ModelHandle, name string) error {
	blob, err := store.Marshal(handle)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO models (name, algorithm, blob, saved_at) VALUES (?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET algorithm = excluded.algorithm, blob = excluded.blob, saved_at = excluded.saved_at;
`, name, handle.Algorithm(), blob, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save model %q: %w", name, err)
	}
	return nil
}

func (s *Store) Load(name string) (model.ModelHandle, error) {
	return s.LoadContext(context.Background(), name)
}

func (s *Store) LoadContext(ctx context.Context, name string) (model.ModelHandle, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM models WHERE name = ?;`, name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrModelNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model %q: %w", name, err)
	}
	return store.Unmarshal(blob)
}

// List returns stored models, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, algorithm, saved_at FROM models ORDER BY saved_at DESC;`)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var savedAt int64
		if err := rows.Scan(&e.Name, &e.Algorithm, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan model row: %w", err)
		}
		e.SavedAt = time.Unix(0, savedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
