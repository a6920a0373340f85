package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrCardNotFound indicates no card exists for the given identifier.
var ErrCardNotFound = errors.New("card not found")

// ErrBlobNotFound indicates no blob exists for the given key.
var ErrBlobNotFound = errors.New("blob not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cards (
    id         TEXT PRIMARY KEY,
    public_id  TEXT NOT NULL UNIQUE,
    payload    BLOB NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS blobs (
    key        TEXT PRIMARY KEY,
    mime_type  TEXT NOT NULL,
    data       BLOB NOT NULL,
    created_at TEXT NOT NULL
);
`

// CardRecord is a stored card row.
type CardRecord struct {
	ID        string
	PublicID  string
	Payload   []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Blob is a stored upload.
type Blob struct {
	Key      string
	MIMEType string
	Data     []byte
}

// Store is the development backend's SQLite persistence.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore initializes or connects to the development database under dir.
func OpenStore(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, "devserver.db")
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
		return nil, fmt.Errorf("create devserver schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
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

// PutBlob stores or replaces an uploaded blob.
func (s *Store) PutBlob(ctx context.Context, blob Blob) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO blobs (key, mime_type, data, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET mime_type = excluded.mime_type, data = excluded.data`,
		blob.Key, blob.MIMEType, blob.Data, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store blob %s: %w", blob.Key, err)
	}
	return nil
}

// GetBlob retrieves an uploaded blob by key.
func (s *Store) GetBlob(ctx context.Context, key string) (Blob, error) {
	blob := Blob{Key: key}
	err := s.db.QueryRowContext(ctx,
		"SELECT mime_type, data FROM blobs WHERE key = ?", key).
		Scan(&blob.MIMEType, &blob.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return Blob{}, ErrBlobNotFound
	}
	if err != nil {
		return Blob{}, fmt.Errorf("load blob %s: %w", key, err)
	}
	return blob, nil
}

// CreateCard inserts a new card row.
func (s *Store) CreateCard(ctx context.Context, record CardRecord) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO cards (id, public_id, payload, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		record.ID, record.PublicID, record.Payload, now, now)
	if err != nil {
		return fmt.Errorf("create card %s: %w", record.ID, err)
	}
	return nil
}

// UpdateCard replaces the payload of an existing card.
func (s *Store) UpdateCard(ctx context.Context, id string, payload []byte) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE cards SET payload = ?, updated_at = ? WHERE id = ?",
		payload, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("update card %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update card %s: %w", id, err)
	}
	if affected == 0 {
		return ErrCardNotFound
	}
	return nil
}

// GetCardByID retrieves a card by internal identifier.
func (s *Store) GetCardByID(ctx context.Context, id string) (CardRecord, error) {
	return s.getCard(ctx, "id", id)
}

// GetCardByPublicID retrieves a card by its shareable identifier.
func (s *Store) GetCardByPublicID(ctx context.Context, publicID string) (CardRecord, error) {
	return s.getCard(ctx, "public_id", publicID)
}

func (s *Store) getCard(ctx context.Context, column, value string) (CardRecord, error) {
	var record CardRecord
	var created, updated string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, public_id, payload, created_at, updated_at FROM cards WHERE "+column+" = ?", value).
		Scan(&record.ID, &record.PublicID, &record.Payload, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return CardRecord{}, ErrCardNotFound
	}
	if err != nil {
		return CardRecord{}, fmt.Errorf("load card %s: %w", value, err)
	}
	record.CreatedAt, _ = time.Parse(time.RFC3339, created)
	record.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return record, nil
}
