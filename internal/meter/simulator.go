package meter

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/yashdodwani/gridflow/internal/civiltime"
)

// DefaultInterval is the metering interval of the simulated meter.
const DefaultInterval = civiltime.DefaultSlot

// Sink receives each reading produced by Run.
type Sink func(ctx context.Context, r Reading) error

// Simulator fakes a household smart meter. Readings are stamped with the
// civil start of their interval and follow a daily load curve with noise.
type Simulator struct {
	resolver *civiltime.Resolver
	interval time.Duration
	baseKW   float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator builds a simulator. The seed makes the noise reproducible.
func NewSimulator(r *civiltime.Resolver, interval time.Duration, seed uint64) *Simulator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Simulator{
		resolver: r,
		interval: interval,
		baseKW:   0.4,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Interval returns the metering interval.
func (s *Simulator) Interval() time.Duration { return s.interval }

// LoadKW is the mean household draw at a civil time of day: a flat base with
// a morning bump around 08:00 and a larger evening peak around 20:00.
func (s *Simulator) LoadKW(tod civiltime.TimeOfDay) float64 {
	h := float64(tod.Seconds()) / 3600
	morning := 0.8 * math.Exp(-math.Pow(h-8, 2)/2)
	evening := 1.6 * math.Exp(-math.Pow(h-20, 2)/4)
	return s.baseKW + morning + evening
}

// ReadingAt produces the reading for the interval containing at.
func (s *Simulator) ReadingAt(at civiltime.Instant) Reading {
	start := s.resolver.RoundDown(at, s.interval)

	s.mu.Lock()
	noise := 0.8 + 0.4*s.rng.Float64()
	s.mu.Unlock()

	kwh := s.LoadKW(start.TimeOfDay()) * s.interval.Hours() * noise
	return Reading{At: start, EnergyKWh: math.Round(kwh*1000) / 1000}
}

// Step produces the reading for the current interval.
func (s *Simulator) Step() Reading {
	return s.ReadingAt(s.resolver.Now())
}

// Backfill produces count consecutive readings starting with the interval
// containing from.
func (s *Simulator) Backfill(from civiltime.Instant, count int) []Reading {
	if count <= 0 {
		return nil
	}
	readings := make([]Reading, 0, count)
	at := s.resolver.RoundDown(from, s.interval)
	for range count {
		readings = append(readings, s.ReadingAt(at))
		at = at.Add(s.interval)
	}
	return readings
}

// Run emits a reading every tick until ctx is cancelled. A tick of 0 uses the
// metering interval. Sink errors stop the loop.
func (s *Simulator) Run(ctx context.Context, tick time.Duration, sink Sink) error {
	if tick <= 0 {
		tick = s.interval
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := sink(ctx, s.Step()); err != nil {
				return err
			}
		}
	}
}
