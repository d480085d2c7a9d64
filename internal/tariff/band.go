package tariff

import (
	"fmt"

	"github.com/yashdodwani/gridflow/internal/civiltime"
)

// Band is a time-of-day interval [Start, End) with a unit price. Start and End
// are wall-clock values in the civil zone. A band whose End is earlier than its
// Start wraps midnight; an End of 00:00 or 24:00 closes the band at midnight.
type Band struct {
	Start       civiltime.TimeOfDay `json:"start" yaml:"start"`
	End         civiltime.TimeOfDay `json:"end" yaml:"end"`
	PricePerKWh float64             `json:"price_per_kwh" yaml:"price_per_kwh"`
	Label       string              `json:"label,omitempty" yaml:"label,omitempty"`
}

// Wraps reports whether the band crosses midnight, e.g. 22:00-06:00.
func (b Band) Wraps() bool {
	return b.End.Seconds() != 0 && b.End.Before(b.Start)
}

// endSeconds is End as an offset from midnight, with 00:00 read as 24:00 for
// bands that do not wrap.
func (b Band) endSeconds() int {
	if b.End.Seconds() == 0 {
		return civiltime.SecondsPerDay
	}
	return b.End.Seconds()
}

// Contains reports whether tod falls in the band. Start is inclusive, End exclusive.
func (b Band) Contains(tod civiltime.TimeOfDay) bool {
	t := tod.Seconds()
	if b.Wraps() {
		return t >= b.Start.Seconds() || t < b.End.Seconds()
	}
	return t >= b.Start.Seconds() && t < b.endSeconds()
}

// Seconds returns how much of the day the band covers.
func (b Band) Seconds() int {
	if b.Wraps() {
		return civiltime.SecondsPerDay - b.Start.Seconds() + b.End.Seconds()
	}
	return b.endSeconds() - b.Start.Seconds()
}

func (b Band) String() string {
	s := fmt.Sprintf("%s-%s @ %.2f", b.Start, b.End, b.PricePerKWh)
	if b.Label != "" {
		s += " (" + b.Label + ")"
	}
	return s
}
