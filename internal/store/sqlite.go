// Package store provides SQLite-based local caching for maskann. It keeps
// downloaded image-meta lookups so repeated row-index resolution does not
// re-fetch them from the service.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const currentSchemaVersion = 1

// Store represents the SQLite cache store.
type Store struct {
	db *sql.DB
}

// New creates a new store connection.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Initialize creates the database schema.
func (s *Store) Initialize() error {
	schema := `
	-- Cached image-meta lookups, one row per (collection, source)
	CREATE TABLE IF NOT EXISTS lookups (
		collection_id TEXT NOT NULL,
		source TEXT NOT NULL,
		imageset_id TEXT NOT NULL,
		image_indices JSON NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (collection_id, source)
	);

	-- Config (schema version, etc.)
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return s.SetValue("schema_version", fmt.Sprintf("%d", currentSchemaVersion))
}

// GetValue retrieves a value from the kv table, empty string if not set.
func (s *Store) GetValue(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get value for %s: %w", key, err)
	}
	return value, nil
}

// SetValue stores a value in the kv table.
func (s *Store) SetValue(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set value for %s: %w", key, err)
	}
	return nil
}

// CachedLookup is a locally cached image-meta lookup.
type CachedLookup struct {
	CollectionID string
	Source       string
	ImagesetID   string
	ImageIndices []int
	FetchedAt    time.Time
}

// PutLookup stores (or replaces) the cached lookup for a collection source.
func (s *Store) PutLookup(collectionID, source, imagesetID string, imageIndices []int) error {
	data, err := json.Marshal(imageIndices)
	if err != nil {
		return fmt.Errorf("failed to marshal lookup: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO lookups (collection_id, source, imageset_id, image_indices, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection_id, source) DO UPDATE SET
			imageset_id = excluded.imageset_id,
			image_indices = excluded.image_indices,
			fetched_at = excluded.fetched_at
	`, collectionID, source, imagesetID, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to store lookup for %s/%s: %w", collectionID, source, err)
	}
	return nil
}

// GetLookup returns the cached lookup for a collection source, or nil if
// none is cached or the cached entry is older than maxAge (maxAge <= 0
// disables the age check).
func (s *Store) GetLookup(collectionID, source string, maxAge time.Duration) (*CachedLookup, error) {
	var (
		imagesetID string
		data       string
		fetchedStr string
	)
	err := s.db.QueryRow(`
		SELECT imageset_id, image_indices, fetched_at
		FROM lookups WHERE collection_id = ? AND source = ?
	`, collectionID, source).Scan(&imagesetID, &data, &fetchedStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lookup for %s/%s: %w", collectionID, source, err)
	}

	fetchedAt := parseTimestamp(fetchedStr)
	if maxAge > 0 && time.Since(fetchedAt) > maxAge {
		return nil, nil
	}

	var indices []int
	if err := json.Unmarshal([]byte(data), &indices); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached lookup: %w", err)
	}

	return &CachedLookup{
		CollectionID: collectionID,
		Source:       source,
		ImagesetID:   imagesetID,
		ImageIndices: indices,
		FetchedAt:    fetchedAt,
	}, nil
}

// parseTimestamp parses a timestamp string from SQLite in various formats.
// A zero time is returned for unparseable values, which reads as stale.
func parseTimestamp(s string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DeleteLookup drops the cached lookup for a collection source.
func (s *Store) DeleteLookup(collectionID, source string) error {
	_, err := s.db.Exec("DELETE FROM lookups WHERE collection_id = ? AND source = ?", collectionID, source)
	if err != nil {
		return fmt.Errorf("failed to delete lookup for %s/%s: %w", collectionID, source, err)
	}
	return nil
}
