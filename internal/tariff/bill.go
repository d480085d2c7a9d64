package tariff

import (
	"fmt"

	"github.com/yashdodwani/gridflow/internal/meter"
)

// BandUsage is the share of a bill that fell into one band.
type BandUsage struct {
	Band      Band    `json:"band"`
	Readings  int     `json:"readings"`
	EnergyKWh float64 `json:"energy_kwh"`
	Cost      float64 `json:"cost"`
}

// Bill totals metered energy priced at the band in force for each reading.
type Bill struct {
	Readings  int         `json:"readings"`
	EnergyKWh float64     `json:"energy_kwh"`
	Cost      float64     `json:"cost"`
	ByBand    []BandUsage `json:"by_band"`
}

// Bill prices every reading independently: cost += energy x price(reading.At).
func (s *Schedule) Bill(readings []meter.Reading) (Bill, error) {
	bill := Bill{ByBand: make([]BandUsage, len(s.bands))}
	for i, b := range s.bands {
		bill.ByBand[i].Band = b
	}

	for _, r := range readings {
		idx, err := s.indexAt(r.At)
		if err != nil {
			return Bill{}, fmt.Errorf("pricing reading %d: %w", r.ID, err)
		}

		cost := r.EnergyKWh * s.bands[idx].PricePerKWh
		bill.Readings++
		bill.EnergyKWh += r.EnergyKWh
		bill.Cost += cost

		usage := &bill.ByBand[idx]
		usage.Readings++
		usage.EnergyKWh += r.EnergyKWh
		usage.Cost += cost
	}

	return bill, nil
}
