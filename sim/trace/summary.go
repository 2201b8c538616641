package trace

import "math"

// TraceSummary aggregates statistics from a PriceTrace.
type TraceSummary struct {
	TotalSamples   int
	RenewalSamples int
	SaleSamples    int
	MinPrice       float64
	MaxPrice       float64
	Rotations      int
	Adapted        int            // rotations that applied a multiplier
	AnchorCounts   map[string]int // anchor -> count; "" counts unchanged rotations
	FinalBasePrice float64        // NewPrice of the last rotation (0 if none)
}

// Summarize computes aggregate statistics from a PriceTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(pt *PriceTrace) *TraceSummary {
	summary := &TraceSummary{
		AnchorCounts: make(map[string]int),
	}
	if pt == nil {
		return summary
	}

	summary.TotalSamples = len(pt.Samples)
	if len(pt.Samples) > 0 {
		summary.MinPrice = math.Inf(1)
		summary.MaxPrice = math.Inf(-1)
	}
	for _, s := range pt.Samples {
		switch s.Phase {
		case "renewal":
			summary.RenewalSamples++
		case "sale":
			summary.SaleSamples++
		}
		summary.MinPrice = math.Min(summary.MinPrice, s.Price)
		summary.MaxPrice = math.Max(summary.MaxPrice, s.Price)
	}

	summary.Rotations = len(pt.Rotations)
	for _, r := range pt.Rotations {
		summary.AnchorCounts[r.Anchor]++
		if r.Anchor != "" {
			summary.Adapted++
		}
	}
	if n := len(pt.Rotations); n > 0 {
		summary.FinalBasePrice = pt.Rotations[n-1].NewPrice
	}
	return summary
}
