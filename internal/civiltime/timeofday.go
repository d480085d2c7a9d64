package civiltime

import (
	"fmt"
	"strconv"
	"strings"
)

// SecondsPerDay is the span of wall-clock time-of-day values, 00:00 to 24:00.
const SecondsPerDay = 24 * 60 * 60

// TimeOfDay is a wall-clock reading without a date or zone, e.g. "18:00".
// It is always interpreted in the resolver's zone.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// EndOfDay is the "24:00" marker. It is only meaningful as the end of a range.
var EndOfDay = TimeOfDay{Hour: 24}

// ParseTimeOfDay parses HH:MM or HH:MM:SS. "24:00" is accepted as EndOfDay.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, &TimestampError{Input: s, Reason: "expected HH:MM or HH:MM:SS"}
	}

	vals := make([]int, 3)
	for i, p := range parts {
		if !isClockComponent(p) {
			return TimeOfDay{}, &TimestampError{Input: s, Reason: "non-numeric clock component"}
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return TimeOfDay{}, &TimestampError{Input: s, Reason: "non-numeric clock component"}
		}
		vals[i] = n
	}

	t := TimeOfDay{Hour: vals[0], Minute: vals[1], Second: vals[2]}
	if !t.valid() {
		return TimeOfDay{}, &TimestampError{Input: s, Reason: "clock component out of range"}
	}
	return t, nil
}

// isClockComponent reports whether p is one or two ASCII digits.
func isClockComponent(p string) bool {
	if len(p) == 0 || len(p) > 2 {
		return false
	}
	for i := 0; i < len(p); i++ {
		if p[i] < '0' || p[i] > '9' {
			return false
		}
	}
	return true
}

// MustParseTimeOfDay is like ParseTimeOfDay but panics on error.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) valid() bool {
	if t.Hour == 24 {
		return t.Minute == 0 && t.Second == 0
	}
	return t.Hour >= 0 && t.Hour < 24 &&
		t.Minute >= 0 && t.Minute < 60 &&
		t.Second >= 0 && t.Second < 60
}

// Seconds returns the offset from midnight in seconds (0..SecondsPerDay).
func (t TimeOfDay) Seconds() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

// IsEndOfDay reports whether t is the 24:00 marker.
func (t TimeOfDay) IsEndOfDay() bool {
	return t.Seconds() == SecondsPerDay
}

// Before reports whether t is earlier in the day than u.
func (t TimeOfDay) Before(u TimeOfDay) bool {
	return t.Seconds() < u.Seconds()
}

func (t TimeOfDay) String() string {
	if t.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimeOfDayFromSeconds converts an offset from midnight (0..SecondsPerDay).
func TimeOfDayFromSeconds(secs int) TimeOfDay {
	return TimeOfDay{Hour: secs / 3600, Minute: secs % 3600 / 60, Second: secs % 60}
}
