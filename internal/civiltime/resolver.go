package civiltime

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Resolver converts instants into the single configured civil zone. Every
// component that produces or compares timestamps is handed the same Resolver.
type Resolver struct {
	loc   *time.Location
	clock Clock
}

// NewResolver creates a resolver for loc. A nil clock means SystemClock.
func NewResolver(loc *time.Location, clock Clock) (*Resolver, error) {
	if loc == nil {
		return nil, errors.New("civil zone is required")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Resolver{loc: loc, clock: clock}, nil
}

var offsetPattern = regexp.MustCompile(`^(?:UTC|GMT)?([+-])(\d{1,2})(?::?(\d{2}))?$`)

// LoadZone resolves an IANA zone name ("Asia/Kolkata") or a fixed offset
// ("+05:30", "UTC+5:30"). An empty name is an error rather than time.Local.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("zone name is empty")
	}

	if m := offsetPattern.FindStringSubmatch(strings.ToUpper(name)); m != nil {
		hours, _ := strconv.Atoi(m[2])
		minutes := 0
		if m[3] != "" {
			minutes, _ = strconv.Atoi(m[3])
		}
		if hours > 14 || minutes > 59 {
			return nil, fmt.Errorf("offset out of range: %s", name)
		}
		secs := hours*3600 + minutes*60
		if m[1] == "-" {
			secs = -secs
		}
		return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", m[1], hours, minutes), secs), nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading zone %s: %w", name, err)
	}
	return loc, nil
}

// Location returns the configured civil zone.
func (r *Resolver) Location() *time.Location { return r.loc }

// Resolve anchors an absolute instant to the civil zone. Resolving the time of
// an already-resolved Instant yields the same wall clock.
func (r *Resolver) Resolve(t time.Time) (Instant, error) {
	if t.IsZero() {
		return Instant{}, &TimestampError{Input: t.String(), Reason: "zero time"}
	}
	return Instant{t: t.Round(0).In(r.loc)}, nil
}

// absoluteLayouts carry their own offset; civilLayouts do not and are read as
// wall-clock time in the configured zone.
var (
	absoluteLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04Z07:00",
		"2006-01-02 15:04:05Z07:00",
	}
	civilLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04",
		"2006-01-02",
	}
)

// Parse interprets raw as a point in time. Offset-bearing inputs are converted;
// zone-less inputs are taken as civil time.
func (r *Resolver) Parse(raw string) (Instant, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Instant{}, &TimestampError{Input: raw, Reason: "empty"}
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return r.Resolve(t)
		}
	}
	for _, layout := range civilLayouts {
		if t, err := time.ParseInLocation(layout, s, r.loc); err == nil {
			return r.Resolve(t)
		}
	}

	return Instant{}, &TimestampError{Input: raw, Reason: "unrecognised layout"}
}

// Now returns the current instant from the injected clock.
func (r *Resolver) Now() Instant {
	return Instant{t: r.clock.Now().Round(0).In(r.loc)}
}

// On returns the instant at tod on the civil date of day. EndOfDay maps to the
// following midnight.
func (r *Resolver) On(day Instant, tod TimeOfDay) Instant {
	y, m, d := day.t.In(r.loc).Date()
	return Instant{t: time.Date(y, m, d, tod.Hour, tod.Minute, tod.Second, 0, r.loc)}
}

// Date returns civil midnight of the given calendar date.
func (r *Resolver) Date(year int, month time.Month, day int) Instant {
	return Instant{t: time.Date(year, month, day, 0, 0, 0, 0, r.loc)}
}

// StartOfDay returns civil midnight of the day containing i.
func (r *Resolver) StartOfDay(i Instant) Instant {
	return r.On(i, TimeOfDay{})
}

// DayBounds returns [midnight, next midnight) of the civil day containing i.
func (r *Resolver) DayBounds(i Instant) (Instant, Instant) {
	start := r.StartOfDay(i)
	return start, start.AddDate(0, 0, 1)
}
