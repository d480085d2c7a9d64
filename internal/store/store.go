package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/yashdodwani/gridflow/internal/civiltime"
)

// ErrNotFound is returned when a lookup by id or "latest" finds nothing.
var ErrNotFound = errors.New("not found")

// Store handles persistent storage using SQLite
type Store struct {
	db       *sql.DB
	resolver *civiltime.Resolver
}

// NewStore opens (creating if needed) the database at dbPath. Timestamps read
// back from the database are resolved into civil instants with r.
func NewStore(dbPath string, r *civiltime.Resolver) (*Store, error) {
	if r == nil {
		return nil, errors.New("store needs a resolver")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer at a time; sqlite would otherwise report SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, resolver: r}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// initialize creates the database schema
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts_unix INTEGER NOT NULL UNIQUE,
		ts TEXT NOT NULL,
		energy_kwh REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS appliances (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		power_kw REAL NOT NULL,
		cycle_minutes INTEGER NOT NULL,
		window_start TEXT NOT NULL DEFAULT '00:00',
		window_end TEXT NOT NULL DEFAULT '00:00',
		enabled INTEGER DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tariff_bands (
		position INTEGER PRIMARY KEY,
		start_tod TEXT NOT NULL,
		end_tod TEXT NOT NULL,
		price_per_kwh REAL NOT NULL,
		label TEXT DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_appliances_name ON appliances(name);
	`

	_, err := s.db.Exec(schema)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
