package civiltime

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIST(t *testing.T) *Resolver {
	t.Helper()
	loc, err := LoadZone("Asia/Kolkata")
	require.NoError(t, err)
	r, err := NewResolver(loc, FixedClock{At: time.Date(2025, 1, 15, 13, 30, 0, 0, time.UTC)})
	require.NoError(t, err)
	return r
}

func TestLoadZone(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantOffset int
		wantErr    bool
	}{
		{"iana name", "Asia/Kolkata", 19800, false},
		{"fixed offset", "+05:30", 19800, false},
		{"utc prefixed", "UTC+5:30", 19800, false},
		{"negative offset", "-03:00", -10800, false},
		{"compact offset", "+0530", 19800, false},
		{"empty", "", 0, true},
		{"unknown zone", "Mars/Olympus", 0, true},
		{"offset out of range", "+20:00", 0, true},
	}

	ref := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadZone(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, offset := ref.In(loc).Zone()
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestNewResolverRequiresZone(t *testing.T) {
	_, err := NewResolver(nil, nil)
	assert.Error(t, err)
}

func TestResolveAnchorsToCivilZone(t *testing.T) {
	r := newIST(t)

	// 13:30 UTC is 19:00 on the IST wall clock.
	got, err := r.Resolve(time.Date(2025, 1, 15, 13, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 19}, got.TimeOfDay())
	assert.Equal(t, "2025-01-15T19:00:00+05:30", got.String())
}

func TestResolveIsIdempotent(t *testing.T) {
	r := newIST(t)

	inputs := []time.Time{
		time.Date(2025, 1, 15, 13, 30, 0, 0, time.UTC),
		time.Date(2025, 1, 15, 23, 59, 59, 0, time.UTC),
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.FixedZone("EST", -5*3600)),
		time.Date(2024, 2, 29, 18, 29, 0, 0, time.UTC),
	}
	for _, in := range inputs {
		once, err := r.Resolve(in)
		require.NoError(t, err)
		twice, err := r.Resolve(once.Time())
		require.NoError(t, err)

		assert.True(t, once.Equal(twice))
		assert.Equal(t, once.TimeOfDay(), twice.TimeOfDay())
		assert.Equal(t, once.String(), twice.String())
	}
}

func TestResolveRejectsZeroTime(t *testing.T) {
	r := newIST(t)
	_, err := r.Resolve(time.Time{})
	assert.True(t, errors.Is(err, ErrInvalidTimestamp))
}

func TestParse(t *testing.T) {
	r := newIST(t)

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"utc instant", "2025-01-15T13:30:00Z", "2025-01-15T19:00:00+05:30", false},
		{"offset instant", "2025-01-15T19:00:00+05:30", "2025-01-15T19:00:00+05:30", false},
		{"civil seconds", "2025-01-15T19:00:00", "2025-01-15T19:00:00+05:30", false},
		{"civil minutes", "2025-01-15 19:00", "2025-01-15T19:00:00+05:30", false},
		{"civil date", "2025-01-15", "2025-01-15T00:00:00+05:30", false},
		{"empty", "  ", "", true},
		{"garbage", "tomorrow-ish", "", true},
		{"bad month", "2025-13-01T00:00:00Z", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Parse(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTimestamp)
				var tsErr *TimestampError
				require.ErrorAs(t, err, &tsErr)
				assert.Equal(t, tt.raw, tsErr.Input)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNowUsesInjectedClock(t *testing.T) {
	r := newIST(t)
	now := r.Now()
	assert.Equal(t, "2025-01-15T19:00:00+05:30", now.String())
}

func TestDayBoundsAreCivil(t *testing.T) {
	r := newIST(t)

	// 20:00 UTC on the 15th is already the 16th in IST.
	at, err := r.Resolve(time.Date(2025, 1, 15, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	start, end := r.DayBounds(at)
	assert.Equal(t, "2025-01-16T00:00:00+05:30", start.String())
	assert.Equal(t, "2025-01-17T00:00:00+05:30", end.String())
}

func TestOnEndOfDay(t *testing.T) {
	r := newIST(t)
	day := r.Date(2025, 1, 15)

	assert.Equal(t, "2025-01-15T22:00:00+05:30", r.On(day, MustParseTimeOfDay("22:00")).String())
	assert.Equal(t, "2025-01-16T00:00:00+05:30", r.On(day, EndOfDay).String())
}

func TestRoundDownAndSlots(t *testing.T) {
	r := newIST(t)

	at, err := r.Parse("2025-01-15T19:07:42")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15T19:00:00+05:30", r.RoundDown(at, DefaultSlot).String())

	end, err := r.Parse("2025-01-15T20:00")
	require.NoError(t, err)
	slots := r.Slots(at, end, DefaultSlot)
	require.Len(t, slots, 4)
	assert.Equal(t, "2025-01-15T19:45:00+05:30", slots[3].String())

	assert.Nil(t, r.Slots(at, end, 0))
}
