package store

import (
	"fmt"

	"github.com/yashdodwani/gridflow/internal/civiltime"
	"github.com/yashdodwani/gridflow/internal/tariff"
)

// SaveBands replaces the stored tariff table. The bands are validated as a
// schedule first so a broken table is never persisted.
func (s *Store) SaveBands(bands []tariff.Band) error {
	if _, err := tariff.Build(bands); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tariff_bands`); err != nil {
		return err
	}
	for i, b := range bands {
		_, err := tx.Exec(`INSERT INTO tariff_bands (position, start_tod, end_tod, price_per_kwh, label) VALUES (?, ?, ?, ?, ?)`,
			i, b.Start.String(), b.End.String(), b.PricePerKWh, b.Label)
		if err != nil {
			return fmt.Errorf("inserting band %s: %w", b, err)
		}
	}

	return tx.Commit()
}

// GetBands returns the stored tariff table in insertion order. An empty
// result means no table has been saved.
func (s *Store) GetBands() ([]tariff.Band, error) {
	rows, err := s.db.Query(`SELECT start_tod, end_tod, price_per_kwh, label FROM tariff_bands ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bands []tariff.Band
	for rows.Next() {
		var b tariff.Band
		var start, end string
		if err := rows.Scan(&start, &end, &b.PricePerKWh, &b.Label); err != nil {
			return nil, err
		}
		if b.Start, err = civiltime.ParseTimeOfDay(start); err != nil {
			return nil, err
		}
		if b.End, err = civiltime.ParseTimeOfDay(end); err != nil {
			return nil, err
		}
		bands = append(bands, b)
	}

	return bands, rows.Err()
}

// Schedule builds the stored tariff table, or returns ok=false when none has
// been saved.
func (s *Store) Schedule() (sched *tariff.Schedule, ok bool, err error) {
	bands, err := s.GetBands()
	if err != nil || len(bands) == 0 {
		return nil, false, err
	}
	sched, err = tariff.Build(bands)
	if err != nil {
		return nil, false, err
	}
	return sched, true, nil
}
