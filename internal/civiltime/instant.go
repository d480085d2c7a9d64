package civiltime

import "time"

// Instant is a point in time anchored to the resolver's civil zone. The zero
// value is not a valid instant; only a Resolver hands out non-zero ones, so an
// Instant that reaches a tariff lookup has always been resolved.
//
// There is deliberately no UnmarshalJSON: decoded input goes through
// Resolver.Parse.
type Instant struct {
	t time.Time
}

// Time returns the underlying time in the civil zone.
func (i Instant) Time() time.Time { return i.t }

// IsZero reports whether i was never resolved.
func (i Instant) IsZero() bool { return i.t.IsZero() }

// Location returns the civil zone the instant is anchored to.
func (i Instant) Location() *time.Location { return i.t.Location() }

// Add returns i+d in the same zone.
func (i Instant) Add(d time.Duration) Instant { return Instant{t: i.t.Add(d)} }

// AddDate adds calendar days/months/years in the civil zone.
func (i Instant) AddDate(years, months, days int) Instant {
	return Instant{t: i.t.AddDate(years, months, days)}
}

func (i Instant) Sub(u Instant) time.Duration { return i.t.Sub(u.t) }
func (i Instant) Before(u Instant) bool       { return i.t.Before(u.t) }
func (i Instant) After(u Instant) bool        { return i.t.After(u.t) }
func (i Instant) Equal(u Instant) bool        { return i.t.Equal(u.t) }
func (i Instant) Compare(u Instant) int       { return i.t.Compare(u.t) }

// TimeOfDay returns the wall-clock component in the civil zone.
func (i Instant) TimeOfDay() TimeOfDay {
	h, m, s := i.t.Clock()
	return TimeOfDay{Hour: h, Minute: m, Second: s}
}

// Date returns the civil calendar date.
func (i Instant) Date() (year int, month time.Month, day int) {
	return i.t.Date()
}

// Unix returns seconds since the epoch, used as the storage comparison key.
func (i Instant) Unix() int64 { return i.t.Unix() }

func (i Instant) Format(layout string) string { return i.t.Format(layout) }

// String renders RFC3339 with the civil offset, e.g. 2025-01-15T19:00:00+05:30.
func (i Instant) String() string { return i.t.Format(time.RFC3339) }

func (i Instant) MarshalJSON() ([]byte, error) {
	return i.t.MarshalJSON()
}
