// Package draft persists in-progress compositions to a keyed local SQLite
// store. Snapshots carry an updated-at timestamp; the 24 hour time-to-live
// is enforced at read time, not via active expiry, and expired snapshots are
// deleted the moment they are detected.
package draft

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"cardpress/internal/composition"
	"cardpress/internal/config"
)

// ErrNoSnapshot indicates no restorable snapshot exists for the key.
var ErrNoSnapshot = errors.New("no draft snapshot")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS drafts (
    key        TEXT PRIMARY KEY,
    payload    BLOB NOT NULL,
    updated_at TEXT NOT NULL
);
`

// Store manages draft snapshots backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	ttl  time.Duration
}

// Open initializes or connects to the draft database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "drafts.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create drafts schema: %w", err)
	}

	ttl := time.Duration(cfg.Drafts.TTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Store{db: db, path: dbPath, ttl: ttl}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// TTL returns the configured snapshot time-to-live.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Save writes a snapshot of the composition under the key. Compositions that
// already carry a publish result are not persisted: the draft is about to be
// deleted anyway and a stale snapshot must not outlive the published card.
func (s *Store) Save(ctx context.Context, key string, comp *composition.Composition, now time.Time) error {
	if comp.Published() {
		return nil
	}
	payload, err := composition.EncodeSnapshot(comp, now)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO drafts (key, payload, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, payload, now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save draft %q: %w", key, err)
	}
	return nil
}

// Restore loads the snapshot for the key. Snapshots older than the TTL are
// deleted on detection and reported as absent, so an expired draft is never
// offered for restoration.
func (s *Store) Restore(ctx context.Context, key string, now time.Time) (*composition.Snapshot, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM drafts WHERE key = ?", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load draft %q: %w", key, err)
	}

	snap, err := composition.DecodeSnapshot(payload)
	if err != nil {
		// Unreadable snapshots are as useless as expired ones.
		_ = s.Delete(ctx, key)
		return nil, ErrNoSnapshot
	}

	if snap.Age(now) > s.ttl {
		if err := s.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// Delete removes the snapshot for the key, if present.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM drafts WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete draft %q: %w", key, err)
	}
	return nil
}

// Entry summarizes a stored snapshot for listings.
type Entry struct {
	Key       string
	UpdatedAt time.Time
	Bytes     int
}

// List returns all stored snapshots, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, updated_at, length(payload) FROM drafts ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var stamp string
		if err := rows.Scan(&entry.Key, &stamp, &entry.Bytes); err != nil {
			return nil, fmt.Errorf("scan draft row: %w", err)
		}
		if entry.UpdatedAt, err = time.Parse(time.RFC3339Nano, stamp); err != nil {
			return nil, fmt.Errorf("parse draft timestamp: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
