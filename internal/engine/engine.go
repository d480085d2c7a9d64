package engine

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/yashdodwani/gridflow/internal/civiltime"
	"github.com/yashdodwani/gridflow/internal/tariff"
)

const (
	// DefaultGranularity is the step between candidate start times.
	DefaultGranularity = civiltime.DefaultSlot
	// DefaultInterval is the metering interval a profile's draw refers to.
	DefaultInterval = civiltime.DefaultSlot

	// costEpsilon absorbs float noise when deciding whether two costs tie.
	costEpsilon = 1e-9
)

var (
	ErrNoFeasibleSlot = errors.New("no feasible slot")
	ErrInvalidProfile = errors.New("invalid appliance profile")
)

// FeasibilityError reports a run that cannot fit in its allowed window.
type FeasibilityError struct {
	Duration time.Duration
	Window   time.Duration
}

func (e *FeasibilityError) Error() string {
	return fmt.Sprintf("%v: run of %s does not fit in a window of %s", ErrNoFeasibleSlot, e.Duration, e.Window)
}

func (e *FeasibilityError) Unwrap() error {
	return ErrNoFeasibleSlot
}

func (p ApplianceProfile) interval() time.Duration {
	if p.Interval == 0 {
		return DefaultInterval
	}
	return p.Interval
}

// validateLoad checks the parts of a profile needed to price a single run.
func (p ApplianceProfile) validateLoad() error {
	switch {
	case p.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidProfile, p.Duration)
	case p.Interval < 0:
		return fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidProfile, p.Interval)
	case p.PowerDrawKWhPerInterval < 0 || math.IsNaN(p.PowerDrawKWhPerInterval) || math.IsInf(p.PowerDrawKWhPerInterval, 0):
		return fmt.Errorf("%w: power draw must be a non-negative number, got %v", ErrInvalidProfile, p.PowerDrawKWhPerInterval)
	}
	return nil
}

func (p ApplianceProfile) validate() error {
	if err := p.validateLoad(); err != nil {
		return err
	}
	if p.Window.Start.IsZero() || p.Window.End.IsZero() {
		return fmt.Errorf("%w: allowed window is not set", ErrInvalidProfile)
	}
	if p.Window.End.Before(p.Window.Start) {
		return fmt.Errorf("%w: window ends at %s before it starts at %s", ErrInvalidProfile, p.Window.End, p.Window.Start)
	}
	return nil
}

// CostAt prices a run of p starting at start. The run is cut into metering
// intervals and each interval is priced at the band in force when it begins;
// a trailing partial interval draws pro-rata energy.
func CostAt(p ApplianceProfile, s *tariff.Schedule, start civiltime.Instant) (SlotCandidate, error) {
	if err := p.validateLoad(); err != nil {
		return SlotCandidate{}, err
	}

	interval := p.interval()
	c := SlotCandidate{Start: start, End: start.Add(p.Duration)}

	for elapsed := time.Duration(0); elapsed < p.Duration; elapsed += interval {
		chunk := min(interval, p.Duration-elapsed)

		price, err := s.PriceAt(start.Add(elapsed))
		if err != nil {
			return SlotCandidate{}, fmt.Errorf("pricing interval at %s: %w", start.Add(elapsed), err)
		}

		energy := p.PowerDrawKWhPerInterval * float64(chunk) / float64(interval)
		c.TotalEnergy += energy
		c.TotalCost += energy * price
	}

	return c, nil
}

// Candidates prices every start in [Window.Start, Window.End-Duration] at the
// given granularity, in start order. A granularity <= 0 means DefaultGranularity.
func Candidates(p ApplianceProfile, s *tariff.Schedule, granularity time.Duration) ([]SlotCandidate, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if granularity <= 0 {
		granularity = DefaultGranularity
	}

	if window := p.Window.Duration(); p.Duration > window {
		return nil, &FeasibilityError{Duration: p.Duration, Window: window}
	}

	last := p.Window.End.Add(-p.Duration)
	candidates := []SlotCandidate{}
	for start := p.Window.Start; !start.After(last); start = start.Add(granularity) {
		c, err := CostAt(p, s, start)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// CheapestSlot returns the minimum-cost candidate. Equal costs resolve to the
// earliest start, so identical inputs always give the same answer.
func CheapestSlot(p ApplianceProfile, s *tariff.Schedule, granularity time.Duration) (SlotCandidate, error) {
	candidates, err := Candidates(p, s, granularity)
	if err != nil {
		return SlotCandidate{}, err
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.TotalCost < best.TotalCost-costEpsilon {
			best = c
		}
	}

	return best, nil
}
