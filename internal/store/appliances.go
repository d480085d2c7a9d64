package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yashdodwani/gridflow/internal/civiltime"
	"github.com/yashdodwani/gridflow/internal/engine"
)

// SaveAppliance inserts or updates an appliance. An empty ID gets a fresh UUID,
// written back into a.
func (s *Store) SaveAppliance(a *engine.Appliance) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	now := s.resolver.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}

	query := `INSERT INTO appliances
		(id, name, power_kw, cycle_minutes, window_start, window_end, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			power_kw = excluded.power_kw,
			cycle_minutes = excluded.cycle_minutes,
			window_start = excluded.window_start,
			window_end = excluded.window_end,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`

	_, err := s.db.Exec(query, a.ID, a.Name, a.PowerKW, a.CycleMinutes, a.WindowStart.String(), a.WindowEnd.String(),
		boolToInt(a.Enabled), a.CreatedAt.Unix(), now.Unix())
	return err
}

// GetAppliance retrieves a single appliance by ID
func (s *Store) GetAppliance(id string) (*engine.Appliance, error) {
	row := s.db.QueryRow(`SELECT id, name, power_kw, cycle_minutes, window_start, window_end, enabled, created_at
		FROM appliances WHERE id = ?`, id)

	a, err := s.scanAppliance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("appliance %s: %w", id, ErrNotFound)
	}
	return a, err
}

// ListAppliances returns all appliances ordered by name
func (s *Store) ListAppliances() ([]*engine.Appliance, error) {
	rows, err := s.db.Query(`SELECT id, name, power_kw, cycle_minutes, window_start, window_end, enabled, created_at
		FROM appliances ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appliances := []*engine.Appliance{}
	for rows.Next() {
		a, err := s.scanAppliance(rows)
		if err != nil {
			return nil, err
		}
		appliances = append(appliances, a)
	}

	return appliances, rows.Err()
}

// DeleteAppliance deletes an appliance by ID
func (s *Store) DeleteAppliance(id string) error {
	res, err := s.db.Exec(`DELETE FROM appliances WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("appliance %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) scanAppliance(row scanner) (*engine.Appliance, error) {
	var a engine.Appliance
	var windowStart, windowEnd string
	var enabledInt int
	var createdAt int64

	err := row.Scan(&a.ID, &a.Name, &a.PowerKW, &a.CycleMinutes, &windowStart, &windowEnd, &enabledInt, &createdAt)
	if err != nil {
		return nil, err
	}

	if a.WindowStart, err = civiltime.ParseTimeOfDay(windowStart); err != nil {
		return nil, fmt.Errorf("appliance %s window_start: %w", a.ID, err)
	}
	if a.WindowEnd, err = civiltime.ParseTimeOfDay(windowEnd); err != nil {
		return nil, fmt.Errorf("appliance %s window_end: %w", a.ID, err)
	}
	a.Enabled = enabledInt == 1
	if a.CreatedAt, err = s.resolver.Resolve(time.Unix(createdAt, 0)); err != nil {
		return nil, fmt.Errorf("appliance %s created_at: %w", a.ID, err)
	}

	return &a, nil
}
