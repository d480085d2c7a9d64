package engine

// ComputeSavings compares a baseline run with the optimized one. CostDelta is
// not clamped: a negative value means the baseline was cheaper. The carbon
// figure tracks energy moved, not money, so it ignores prices.
func ComputeSavings(baseline, optimized SlotCandidate, emissionFactor float64) SavingsResult {
	r := SavingsResult{
		BaselineCost:   baseline.TotalCost,
		OptimizedCost:  optimized.TotalCost,
		CostDelta:      baseline.TotalCost - optimized.TotalCost,
		CarbonDeltaKg:  Emissions(optimized.TotalEnergy, emissionFactor),
		EmissionFactor: emissionFactor,
	}
	if baseline.TotalCost != 0 {
		r.PercentSaved = r.CostDelta / baseline.TotalCost * 100
	}
	return r
}

// Emissions returns kg of CO2 for kwh at factor kg/kWh.
func Emissions(kwh, factor float64) float64 {
	return kwh * factor
}
