package meter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashdodwani/gridflow/internal/civiltime"
)

func newResolver(t *testing.T) *civiltime.Resolver {
	t.Helper()
	loc, err := civiltime.LoadZone("Asia/Kolkata")
	require.NoError(t, err)
	// 13:37 UTC is 19:07 IST.
	r, err := civiltime.NewResolver(loc, civiltime.FixedClock{At: time.Date(2025, 1, 15, 13, 37, 0, 0, time.UTC)})
	require.NoError(t, err)
	return r
}

func TestSimulatorStep(t *testing.T) {
	r := newResolver(t)
	sim := NewSimulator(r, 15*time.Minute, 1)

	reading := sim.Step()

	assert.Equal(t, "2025-01-15T19:00:00+05:30", reading.At.String())
	assert.Greater(t, reading.EnergyKWh, 0.0)
}

func TestSimulatorBackfill(t *testing.T) {
	r := newResolver(t)
	sim := NewSimulator(r, 15*time.Minute, 7)

	from, err := r.Parse("2025-01-15 23:20")
	require.NoError(t, err)

	readings := sim.Backfill(from, 8)
	require.Len(t, readings, 8)

	assert.Equal(t, "2025-01-15T23:15:00+05:30", readings[0].At.String())
	assert.Equal(t, "2025-01-16T01:00:00+05:30", readings[7].At.String())
	for i := 1; i < len(readings); i++ {
		assert.Equal(t, 15*time.Minute, readings[i].At.Sub(readings[i-1].At))
	}

	assert.Nil(t, sim.Backfill(from, 0))
}

func TestSimulatorSeedIsReproducible(t *testing.T) {
	r := newResolver(t)
	from, err := r.Parse("2025-01-15")
	require.NoError(t, err)

	a := NewSimulator(r, 0, 42).Backfill(from, 96)
	b := NewSimulator(r, 0, 42).Backfill(from, 96)
	assert.Equal(t, a, b)
}

func TestLoadKW(t *testing.T) {
	sim := NewSimulator(newResolver(t), 0, 1)

	night := sim.LoadKW(civiltime.MustParseTimeOfDay("03:00"))
	morning := sim.LoadKW(civiltime.MustParseTimeOfDay("08:00"))
	evening := sim.LoadKW(civiltime.MustParseTimeOfDay("20:00"))

	assert.Less(t, night, morning)
	assert.Less(t, morning, evening)
	assert.InDelta(t, 0.4, night, 0.05)
}

func TestSimulatorRun(t *testing.T) {
	r := newResolver(t)
	sim := NewSimulator(r, 15*time.Minute, 3)

	t.Run("stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		var emitted atomic.Int32

		done := make(chan error, 1)
		go func() {
			done <- sim.Run(ctx, time.Millisecond, func(context.Context, Reading) error {
				if emitted.Add(1) >= 3 {
					cancel()
				}
				return nil
			})
		}()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not stop after cancel")
		}
		assert.GreaterOrEqual(t, emitted.Load(), int32(3))
	})

	t.Run("stops on sink error", func(t *testing.T) {
		boom := errors.New("boom")
		err := sim.Run(context.Background(), time.Millisecond, func(context.Context, Reading) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})
}
