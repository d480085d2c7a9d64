package tariff

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/yashdodwani/gridflow/internal/civiltime"
)

// Schedule is a validated, immutable set of bands that covers every second of
// the day exactly once. Build is the only constructor.
type Schedule struct {
	bands []Band
}

// segment is a non-wrapping piece of a band, [from, to) in seconds from midnight.
type segment struct {
	from, to int
	band     int
}

// Build validates bands and returns a schedule. It fails with a *ScheduleError
// if any band is empty, if the bands overlap or leave a gap, or if more than
// one band wraps midnight.
func Build(bands []Band) (*Schedule, error) {
	if len(bands) == 0 {
		return nil, &ScheduleError{Reason: "no bands defined"}
	}

	segments := make([]segment, 0, len(bands)+1)
	wrapping := -1

	for i := range bands {
		b := &bands[i]

		if b.Start.IsEndOfDay() {
			return nil, &ScheduleError{Band: b, Reason: "cannot start at 24:00"}
		}
		if b.Start.Seconds() == b.End.Seconds() {
			return nil, &ScheduleError{Band: b, Reason: "start equals end"}
		}
		if math.IsNaN(b.PricePerKWh) || math.IsInf(b.PricePerKWh, 0) {
			return nil, &ScheduleError{Band: b, Reason: "price is not a finite number"}
		}

		if b.Wraps() {
			if wrapping >= 0 {
				return nil, &ScheduleError{Band: b, Other: &bands[wrapping], Reason: "wraps midnight, as does"}
			}
			wrapping = i
			segments = append(segments,
				segment{from: b.Start.Seconds(), to: civiltime.SecondsPerDay, band: i},
				segment{from: 0, to: b.End.Seconds(), band: i},
			)
			continue
		}
		segments = append(segments, segment{from: b.Start.Seconds(), to: b.endSeconds(), band: i})
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].from < segments[j].from
	})

	cursor, prev := 0, -1
	for _, seg := range segments {
		b := &bands[seg.band]
		switch {
		case seg.from > cursor:
			return nil, &ScheduleError{
				Band:   b,
				Reason: fmt.Sprintf("leaves a gap from %s to %s before it", civiltime.TimeOfDayFromSeconds(cursor), civiltime.TimeOfDayFromSeconds(seg.from)),
			}
		case seg.from < cursor:
			return nil, &ScheduleError{Band: b, Other: &bands[prev], Reason: "overlaps"}
		}
		cursor, prev = seg.to, seg.band
	}
	if cursor != civiltime.SecondsPerDay {
		return nil, &ScheduleError{
			Band:   &bands[prev],
			Reason: fmt.Sprintf("leaves a gap from %s to 24:00 after it", civiltime.TimeOfDayFromSeconds(cursor)),
		}
	}

	ordered := make([]Band, len(bands))
	copy(ordered, bands)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start.Before(ordered[j].Start)
	})

	return &Schedule{bands: ordered}, nil
}

// Bands returns a copy of the bands in ascending start order.
func (s *Schedule) Bands() []Band {
	out := make([]Band, len(s.bands))
	copy(out, s.bands)
	return out
}

// Len returns the number of bands.
func (s *Schedule) Len() int { return len(s.bands) }

// MinPrice returns the cheapest unit price in the schedule.
func (s *Schedule) MinPrice() float64 {
	lo := s.bands[0].PricePerKWh
	for _, b := range s.bands[1:] {
		lo = math.Min(lo, b.PricePerKWh)
	}
	return lo
}

// MaxPrice returns the most expensive unit price in the schedule.
func (s *Schedule) MaxPrice() float64 {
	hi := s.bands[0].PricePerKWh
	for _, b := range s.bands[1:] {
		hi = math.Max(hi, b.PricePerKWh)
	}
	return hi
}

// Percentile returns the share of the day (0-1) priced strictly below price.
func (s *Schedule) Percentile(price float64) float64 {
	below := 0
	for _, b := range s.bands {
		if b.PricePerKWh < price {
			below += b.Seconds()
		}
	}
	return float64(below) / float64(civiltime.SecondsPerDay)
}

func (s *Schedule) String() string {
	lines := make([]string, len(s.bands))
	for i, b := range s.bands {
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}
