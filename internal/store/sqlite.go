package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the state as a single fixed row in a SQLite
// database. Useful where the state file should live alongside other
// tooling that already speaks SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS state (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	channel_id TEXT NOT NULL DEFAULT '',
	event      TEXT,
	start_date TEXT,
	updated_at TEXT NOT NULL DEFAULT ''
);
INSERT OR IGNORE INTO state (id) VALUES (1);
`

// OpenSQLite opens (creating if needed) the database at path and
// ensures the state row exists. ":memory:" is accepted for tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) TrackedEvent() (*Tracking, error) {
	var event, startDate sql.NullString
	row := s.db.QueryRow(`SELECT event, start_date FROM state WHERE id = 1`)
	if err := row.Scan(&event, &startDate); err != nil {
		return nil, fmt.Errorf("scanning tracked event: %w", err)
	}
	if !event.Valid || event.String == "" {
		return nil, nil
	}
	return &Tracking{Event: event.String, StartDate: startDate.String}, nil
}

func (s *SQLiteStore) SetTrackedEvent(t *Tracking) error {
	var err error
	if t == nil {
		_, err = s.db.Exec(
			`UPDATE state SET event = NULL, start_date = NULL, updated_at = datetime('now') WHERE id = 1`)
	} else {
		_, err = s.db.Exec(
			`UPDATE state SET event = ?, start_date = ?, updated_at = datetime('now') WHERE id = 1`,
			t.Event, t.StartDate)
	}
	if err != nil {
		return fmt.Errorf("updating tracked event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ChannelID() (string, error) {
	var id string
	row := s.db.QueryRow(`SELECT channel_id FROM state WHERE id = 1`)
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("scanning channel id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) SetChannelID(id string) error {
	if _, err := s.db.Exec(
		`UPDATE state SET channel_id = ?, updated_at = datetime('now') WHERE id = 1`, id); err != nil {
		return fmt.Errorf("updating channel id: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
