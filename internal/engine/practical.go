package engine

import (
	"fmt"
	"time"

	"github.com/yashdodwani/gridflow/internal/civiltime"
	"github.com/yashdodwani/gridflow/internal/tariff"
)

// goodEnoughRatio is how far above the best achievable cost a start "now" may
// be and still get a green light.
const goodEnoughRatio = 1.15

// nowHorizon is how far ahead CanUseNow looks for a cheaper start.
const nowHorizon = 24 * time.Hour

// CanUseNow compares starting the appliance at now with the cheapest start in
// the following 24 hours. The profile's own window is ignored.
func CanUseNow(p ApplianceProfile, s *tariff.Schedule, now civiltime.Instant, granularity time.Duration) (Verdict, error) {
	current, err := CostAt(p, s, now)
	if err != nil {
		return Verdict{}, err
	}

	horizon := p
	horizon.Window = Window{Start: now, End: now.Add(nowHorizon)}
	best, err := CheapestSlot(horizon, s, granularity)
	if err != nil {
		return Verdict{}, err
	}

	price, err := s.PriceAt(now)
	if err != nil {
		return Verdict{}, err
	}

	v := Verdict{
		CurrentPrice:  price,
		Now:           current,
		Best:          best,
		SavingsIfWait: max(0, current.TotalCost-best.TotalCost),
	}
	v.CanUseNow = current.TotalCost <= best.TotalCost*goodEnoughRatio+costEpsilon

	if v.CanUseNow {
		v.Message = "Good time: the tariff is near its low for the next 24 hours"
	} else {
		v.Message = fmt.Sprintf("Wait until %s to save %.2f", best.Start.Format("15:04"), v.SavingsIfWait)
	}

	return v, nil
}
