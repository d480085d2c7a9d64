package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yashdodwani/gridflow/internal/civiltime"
	"github.com/yashdodwani/gridflow/internal/meter"
)

// AppendReadings stores readings and returns how many were new. A persisted
// reading is never changed: one whose instant is already stored is skipped.
func (s *Store) AppendReadings(readings ...meter.Reading) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO readings (ts_unix, ts, energy_kwh) VALUES (?, ?, ?)
		ON CONFLICT(ts_unix) DO NOTHING`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	stored := 0
	for _, r := range readings {
		if r.At.IsZero() {
			return 0, fmt.Errorf("reading without timestamp: %w", civiltime.ErrInvalidTimestamp)
		}
		res, err := stmt.Exec(r.At.Unix(), r.At.String(), r.EnergyKWh)
		if err != nil {
			return 0, fmt.Errorf("inserting reading at %s: %w", r.At, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			stored++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return stored, nil
}

// LatestReading returns the most recent reading or ErrNotFound.
func (s *Store) LatestReading() (meter.Reading, error) {
	row := s.db.QueryRow(`SELECT id, ts_unix, energy_kwh FROM readings ORDER BY ts_unix DESC LIMIT 1`)

	r, err := s.scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		return meter.Reading{}, ErrNotFound
	}
	return r, err
}

// ReadingsBetween returns readings in [from, to), oldest first.
func (s *Store) ReadingsBetween(from, to civiltime.Instant) ([]meter.Reading, error) {
	rows, err := s.db.Query(`SELECT id, ts_unix, energy_kwh FROM readings
		WHERE ts_unix >= ? AND ts_unix < ? ORDER BY ts_unix`, from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.collectReadings(rows)
}

// History returns up to limit readings, newest first.
func (s *Store) History(limit int) ([]meter.Reading, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`SELECT id, ts_unix, energy_kwh FROM readings ORDER BY ts_unix DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.collectReadings(rows)
}

// ResetReadings deletes every stored reading.
func (s *Store) ResetReadings() error {
	_, err := s.db.Exec(`DELETE FROM readings`)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanReading(row scanner) (meter.Reading, error) {
	var r meter.Reading
	var ts int64
	if err := row.Scan(&r.ID, &ts, &r.EnergyKWh); err != nil {
		return meter.Reading{}, err
	}

	at, err := s.resolver.Resolve(time.Unix(ts, 0))
	if err != nil {
		return meter.Reading{}, err
	}
	r.At = at
	return r, nil
}

func (s *Store) collectReadings(rows *sql.Rows) ([]meter.Reading, error) {
	readings := []meter.Reading{}
	for rows.Next() {
		r, err := s.scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}
