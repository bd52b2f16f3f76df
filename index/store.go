// Package index keeps a small sqlite database of finalized deliverables.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no deliverable has the requested id.
var ErrNotFound = errors.New("deliverable not found")

// Entry describes one finalized deliverable.
type Entry struct {
	ID        string    `json:"id"`
	Generator string    `json:"generator"`
	APIs      []string  `json:"apis"`
	Record    string    `json:"record"`
	Files     int       `json:"files"`
	CreatedAt time.Time `json:"created_at"`
}

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the deliverable index.
type Store struct {
	db *sql.DB
}

// Open opens or creates the index database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening index: %w", err)
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing index schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS deliverables (
		id TEXT PRIMARY KEY,
		generator TEXT NOT NULL,
		apis TEXT NOT NULL,
		record TEXT NOT NULL,
		files INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_deliverables_created_at ON deliverables(created_at);
	`
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put records a deliverable, replacing an entry with the same id.
func (s *Store) Put(ctx context.Context, e Entry) error {
	apis, err := json.Marshal(e.APIs)
	if err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO deliverables (id, generator, apis, record, files, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Generator, string(apis), e.Record, e.Files, e.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("indexing deliverable %s: %w", e.ID, err)
	}
	return nil
}

// Get returns the entry for id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, generator, apis, record, files, created_at FROM deliverables WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading deliverable %s: %w", id, err)
	}
	return e, nil
}

// List returns the most recent entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, generator, apis, record, files, created_at FROM deliverables ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing deliverables: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("listing deliverables: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// DeleteBefore removes entries created before t and returns how many were removed.
func (s *Store) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM deliverables WHERE created_at < ?`, t.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning deliverables: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var apis, created string
	if err := row.Scan(&e.ID, &e.Generator, &apis, &e.Record, &e.Files, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(apis), &e.APIs); err != nil {
		return nil, fmt.Errorf("decoding apis: %w", err)
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("decoding created_at: %w", err)
	}
	e.CreatedAt = t
	return &e, nil
}
