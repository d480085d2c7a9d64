package engine

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yashdodwani/gridflow/internal/civiltime"
)

// Appliance is a user-registered device as stored and served over the API.
// WindowStart/WindowEnd are civil times of day; a window whose end is not
// after its start runs into the next day, and equal ends mean the whole day.
type Appliance struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	PowerKW      float64             `json:"power_kw"`
	CycleMinutes int                 `json:"cycle_minutes"`
	WindowStart  civiltime.TimeOfDay `json:"window_start"`
	WindowEnd    civiltime.TimeOfDay `json:"window_end"`
	Enabled      bool                `json:"enabled"`
	CreatedAt    civiltime.Instant   `json:"created_at"`
}

// UnmarshalJSON decodes the user-supplied fields. created_at is stamped by the
// store and ignored on input.
func (a *Appliance) UnmarshalJSON(data []byte) error {
	type fields Appliance
	in := struct {
		fields
		CreatedAt json.RawMessage `json:"created_at"`
	}{fields: fields(*a)}

	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*a = Appliance(in.fields)
	return nil
}

// Validate checks the fields a user supplies.
func (a *Appliance) Validate() error {
	switch {
	case strings.TrimSpace(a.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	case a.PowerKW <= 0:
		return fmt.Errorf("%w: power_kw must be positive", ErrInvalidProfile)
	case a.CycleMinutes <= 0:
		return fmt.Errorf("%w: cycle_minutes must be positive", ErrInvalidProfile)
	case a.WindowStart.IsEndOfDay():
		return fmt.Errorf("%w: window cannot start at 24:00", ErrInvalidProfile)
	}
	return nil
}

// Cycle returns how long one run lasts.
func (a *Appliance) Cycle() time.Duration {
	return time.Duration(a.CycleMinutes) * time.Minute
}

// Profile turns the appliance into an optimizer profile whose window opens on
// the civil day containing day.
func (a *Appliance) Profile(r *civiltime.Resolver, day civiltime.Instant, interval time.Duration) (ApplianceProfile, error) {
	if err := a.Validate(); err != nil {
		return ApplianceProfile{}, err
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	start := r.On(day, a.WindowStart)
	end := r.On(day, a.WindowEnd)
	if !end.After(start) {
		end = r.On(day.AddDate(0, 0, 1), a.WindowEnd)
	}

	return ApplianceProfile{
		Name:                    a.Name,
		PowerDrawKWhPerInterval: a.PowerKW * interval.Hours(),
		Interval:                interval,
		Window:                  Window{Start: start, End: end},
		Duration:                a.Cycle(),
	}, nil
}

// NextProfile is Profile for the next window a run can still complete in.
// Today's window is used if it is open or ahead of now, with its start moved
// up to the first granularity step at or after now; otherwise tomorrow's.
func (a *Appliance) NextProfile(r *civiltime.Resolver, now civiltime.Instant, interval, granularity time.Duration) (ApplianceProfile, error) {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}

	// A window that started yesterday may still be open, e.g. 22:00-06:00 at 02:00.
	for _, day := range []civiltime.Instant{now.AddDate(0, 0, -1), now} {
		p, err := a.Profile(r, day, interval)
		if err != nil {
			return ApplianceProfile{}, err
		}

		if p.Window.Start.Before(now) {
			start := r.RoundDown(now, granularity)
			if start.Before(now) {
				start = start.Add(granularity)
			}
			p.Window.Start = start
		}
		if !p.Window.End.Before(p.Window.Start) && p.Window.Duration() >= p.Duration {
			return p, nil
		}
	}

	return a.Profile(r, now.AddDate(0, 0, 1), interval)
}
