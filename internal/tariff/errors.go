package tariff

import (
	"errors"
	"fmt"

	"github.com/yashdodwani/gridflow/internal/civiltime"
)

var (
	// ErrInvalidSchedule means the bands do not partition the day.
	ErrInvalidSchedule = errors.New("invalid tariff schedule")
	// ErrNoMatchingBand means a lookup found no band. A schedule returned by
	// Build never produces it.
	ErrNoMatchingBand = errors.New("no matching tariff band")
)

// ScheduleError describes why Build rejected a set of bands.
type ScheduleError struct {
	Band   *Band
	Other  *Band
	Reason string
}

func (e *ScheduleError) Error() string {
	switch {
	case e.Band != nil && e.Other != nil:
		return fmt.Sprintf("%v: band %s: %s %s", ErrInvalidSchedule, e.Band, e.Reason, e.Other)
	case e.Band != nil:
		return fmt.Sprintf("%v: band %s: %s", ErrInvalidSchedule, e.Band, e.Reason)
	default:
		return fmt.Sprintf("%v: %s", ErrInvalidSchedule, e.Reason)
	}
}

func (e *ScheduleError) Unwrap() error {
	return ErrInvalidSchedule
}

// LookupError is returned when no band matches an instant.
type LookupError struct {
	At civiltime.Instant
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%v at %s (time of day %s)", ErrNoMatchingBand, e.At, e.At.TimeOfDay())
}

func (e *LookupError) Unwrap() error {
	return ErrNoMatchingBand
}
