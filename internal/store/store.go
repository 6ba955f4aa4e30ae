// Package store persists ConferenceMind snapshots in SQLite. The engine
// never touches storage itself; callers pass a Store into the ingest/query
// surfaces. One Save is one transaction, so a conference's artifacts become
// visible together or not at all.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vthunder/confmind/internal/logging"
	"github.com/vthunder/confmind/internal/types"
)

// ErrNotFound means no conference with that slug is stored
var ErrNotFound = errors.New("conference not found")

// Store wraps the SQLite database holding conference snapshots
type Store struct {
	db   *sql.DB
	path string
}

// Meta is the listing shape: snapshot metadata without the snapshot body
type Meta struct {
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Created      time.Time `json:"created"`
	SpeakerCount int       `json:"speaker_count"`
	SegmentCount int       `json:"segment_count"`
}

// Open opens or creates the conference database under statePath
func Open(statePath string) (*Store, error) {
	dbPath := filepath.Join(statePath, "conferences.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER)`); err != nil {
		return err
	}
	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version`).Scan(&version)
	if err == sql.ErrNoRows {
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if version < 1 {
		logging.Debug("store", "migrating to schema v1")
		_, err := s.db.Exec(`
			CREATE TABLE IF NOT EXISTS conferences (
				slug          TEXT PRIMARY KEY,
				name          TEXT NOT NULL,
				created       TEXT NOT NULL,
				speaker_count INTEGER NOT NULL,
				segment_count INTEGER NOT NULL,
				snapshot      TEXT NOT NULL
			)`)
		if err != nil {
			return err
		}
		if _, err := s.db.Exec(`UPDATE schema_version SET version = 1`); err != nil {
			return err
		}
	}
	return nil
}

// Save upserts a conference snapshot in a single transaction
func (s *Store) Save(mind *types.ConferenceMind) error {
	snapshot, err := json.Marshal(mind)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO conferences (slug, name, created, speaker_count, segment_count, snapshot)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			name = excluded.name,
			created = excluded.created,
			speaker_count = excluded.speaker_count,
			segment_count = excluded.segment_count,
			snapshot = excluded.snapshot`,
		mind.Slug, mind.Name, mind.Created.Format(time.RFC3339),
		len(mind.Speakers), len(mind.Segments), string(snapshot))
	if err != nil {
		return fmt.Errorf("failed to save conference: %w", err)
	}
	return tx.Commit()
}

// Load reads a conference snapshot by slug
func (s *Store) Load(slug string) (*types.ConferenceMind, error) {
	var snapshot string
	err := s.db.QueryRow(`SELECT snapshot FROM conferences WHERE slug = ?`, slug).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%q: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conference: %w", err)
	}
	var mind types.ConferenceMind
	if err := json.Unmarshal([]byte(snapshot), &mind); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &mind, nil
}

// List returns metadata for all stored conferences, newest first
func (s *Store) List() ([]Meta, error) {
	rows, err := s.db.Query(`
		SELECT slug, name, created, speaker_count, segment_count
		FROM conferences ORDER BY created DESC, slug`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conferences: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var m Meta
		var created string
		if err := rows.Scan(&m.Slug, &m.Name, &created, &m.SpeakerCount, &m.SegmentCount); err != nil {
			return nil, err
		}
		m.Created, _ = time.Parse(time.RFC3339, created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Delete removes a conference. Deleting an absent slug returns ErrNotFound.
func (s *Store) Delete(slug string) error {
	res, err := s.db.Exec(`DELETE FROM conferences WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("failed to delete conference: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%q: %w", slug, ErrNotFound)
	}
	return nil
}
