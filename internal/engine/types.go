package engine

import (
	"time"

	"github.com/yashdodwani/gridflow/internal/civiltime"
)

// Window is the civil time range an appliance is allowed to run in.
type Window struct {
	Start civiltime.Instant `json:"start"`
	End   civiltime.Instant `json:"end"`
}

// Duration returns the length of the window.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// ApplianceProfile is a runnable load as seen by the optimizer
type ApplianceProfile struct {
	Name                    string
	PowerDrawKWhPerInterval float64       // energy drawn per metering interval while running
	Interval                time.Duration // metering interval the draw refers to; 0 = DefaultInterval
	Window                  Window
	Duration                time.Duration
}

// SlotCandidate is one possible start for a run, with its priced totals
type SlotCandidate struct {
	Start       civiltime.Instant `json:"start"`
	End         civiltime.Instant `json:"end"`
	TotalCost   float64           `json:"total_cost"`
	TotalEnergy float64           `json:"total_energy_kwh"`
}

// Recommendation is a ranked candidate with a human-readable explanation
type Recommendation struct {
	SlotCandidate
	Rank     int     `json:"rank"`
	AvgPrice float64 `json:"avg_price"`
	GridLoad float64 `json:"grid_load"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
}

// SavingsResult compares a baseline run against the optimized one
type SavingsResult struct {
	BaselineCost   float64 `json:"baseline_cost"`
	OptimizedCost  float64 `json:"optimized_cost"`
	CostDelta      float64 `json:"cost_delta"` // baseline - optimized; negative when the baseline was cheaper
	CarbonDeltaKg  float64 `json:"carbon_delta_kg"`
	EmissionFactor float64 `json:"emission_factor_kg_per_kwh"`
	PercentSaved   float64 `json:"percent_saved"`
}

// Plan bundles everything the recommendation endpoint reports for one appliance
type Plan struct {
	Appliance    string           `json:"appliance"`
	Cheapest     SlotCandidate    `json:"cheapest"`
	Baseline     SlotCandidate    `json:"baseline"`
	Savings      SavingsResult    `json:"savings"`
	Alternatives []Recommendation `json:"alternatives"`
}

// Verdict answers "is now a good time to start?"
type Verdict struct {
	CanUseNow     bool          `json:"can_use_now"`
	CurrentPrice  float64       `json:"current_price"`
	Now           SlotCandidate `json:"now"`
	Best          SlotCandidate `json:"best"`
	SavingsIfWait float64       `json:"savings_if_you_wait"`
	Message       string        `json:"message"`
}
