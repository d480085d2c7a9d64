package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/yashdodwani/gridflow/internal/civiltime"
	"github.com/yashdodwani/gridflow/internal/tariff"
)

// RankSlots returns the topN best-scoring candidates, each with an
// explanation of why it ranks where it does. Slots are ordered by Score, then
// by cost, then earliest first.
func RankSlots(p ApplianceProfile, s *tariff.Schedule, granularity time.Duration, topN int) ([]Recommendation, error) {
	candidates, err := Candidates(p, s, granularity)
	if err != nil {
		return nil, err
	}
	if topN <= 0 {
		topN = 3
	}

	recs := make([]Recommendation, len(candidates))
	for i, c := range candidates {
		hour := c.Start.Add(c.End.Sub(c.Start) / 2).TimeOfDay().Hour
		recs[i] = Recommendation{
			SlotCandidate: c,
			AvgPrice:      averagePrice(c),
			GridLoad:      GridLoad(hour),
			Score:         Score(c.TotalCost, hour),
		}
	}

	// Candidates arrive in start order, so a stable sort keeps ties earliest-first.
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].TotalCost < recs[j].TotalCost-costEpsilon
	})

	if len(recs) > topN {
		recs = recs[:topN]
	}
	for i := range recs {
		recs[i].Rank = i + 1
		recs[i].Reason = generateReason(recs[i], s)
	}

	return recs, nil
}

// BuildPlan finds the cheapest slot, prices a baseline run starting at
// baselineStart and reports the savings between the two.
func BuildPlan(p ApplianceProfile, s *tariff.Schedule, granularity time.Duration, baselineStart civiltime.Instant, emissionFactor float64, topN int) (Plan, error) {
	best, err := CheapestSlot(p, s, granularity)
	if err != nil {
		return Plan{}, err
	}

	if baselineStart.IsZero() {
		baselineStart = p.Window.Start
	}
	baseline, err := CostAt(p, s, baselineStart)
	if err != nil {
		return Plan{}, fmt.Errorf("pricing baseline: %w", err)
	}

	alternatives, err := RankSlots(p, s, granularity, topN)
	if err != nil {
		return Plan{}, err
	}

	return Plan{
		Appliance:    p.Name,
		Cheapest:     best,
		Baseline:     baseline,
		Savings:      ComputeSavings(baseline, best, emissionFactor),
		Alternatives: alternatives,
	}, nil
}

// GridLoad is a simulated grid demand between 0.1 and 0.9 for an hour of the
// day: a sine wave peaking in the evening and bottoming out before dawn.
func GridLoad(hour int) float64 {
	h := float64(hour % 24)
	load := 0.5 + 0.4*math.Sin(math.Pi*(h-6)/12)
	return math.Round(math.Max(0.1, math.Min(0.9, load))*1000) / 1000
}

// TimePreference scores how convenient an hour is for an unattended run:
// overnight is best, the evening peak worst.
func TimePreference(hour int) float64 {
	switch h := hour % 24; {
	case h >= 22 || h < 6:
		return 1.0
	case h < 9:
		return 0.6
	case h >= 18:
		return 0.1
	default:
		return 0.5
	}
}

// Score weighs a run's total cost against grid load and time preference at
// the hour of its midpoint. Higher is better. Non-positive costs score as 0.01.
//
//	0.6/cost + 0.3*(1-GridLoad) + 0.1*TimePreference
func Score(cost float64, hour int) float64 {
	if cost <= 0 {
		cost = 0.01
	}
	score := 0.6/cost + 0.3*(1-GridLoad(hour)) + 0.1*TimePreference(hour)
	return math.Round(score*10000) / 10000
}

func averagePrice(c SlotCandidate) float64 {
	if c.TotalEnergy == 0 {
		return 0
	}
	return c.TotalCost / c.TotalEnergy
}

// generateReason creates a human-readable explanation for a recommendation
func generateReason(rec Recommendation, s *tariff.Schedule) string {
	percentile := s.Percentile(rec.AvgPrice)

	parts := []string{}
	switch {
	case percentile < 0.2:
		parts = append(parts, fmt.Sprintf("excellent price (bottom %.0f%% of the day)", percentile*100))
	case percentile < 0.4:
		parts = append(parts, fmt.Sprintf("good price (%.0f%% percentile)", percentile*100))
	case percentile < 0.6:
		parts = append(parts, "moderate pricing")
	default:
		parts = append(parts, fmt.Sprintf("higher price (%.0f%% percentile) but fits the window", percentile*100))
	}

	if rec.GridLoad < 0.4 {
		parts = append(parts, "low grid load")
	}

	if peak := rec.TotalEnergy * s.MaxPrice(); peak-rec.TotalCost > costEpsilon {
		parts = append(parts, fmt.Sprintf("saves %.2f vs the peak rate", peak-rec.TotalCost))
	}

	return fmt.Sprintf("#%d %s-%s: %s", rec.Rank, rec.Start.Format("15:04"), rec.End.Format("15:04"), strings.Join(parts, ", "))
}
