package meter

import "github.com/yashdodwani/gridflow/internal/civiltime"

// Reading is the energy drawn during one metering interval, stamped with the
// civil instant the interval started.
type Reading struct {
	ID        int64             `json:"id,omitempty"`
	At        civiltime.Instant `json:"timestamp"`
	EnergyKWh float64           `json:"energy_kwh"`
}
