package sim

import (
	"fmt"
	"math"
)

// LeadinCurve maps lead-in progress to a multiplicative factor on the base price.
// progress must already be clamped to [0, 1]. The factor is non-increasing in
// progress and never negative for progress in that range.
type LeadinCurve interface {
	FactorAt(progress float64) float64
	Name() string
}

// LinearLeadin starts at 2*Steepness and decays linearly to Steepness.
// With Steepness=1 this is the broker pallet lead-in: double price at sale
// start, base price at the end of the lead-in.
type LinearLeadin struct {
	Steepness float64
}

func (l *LinearLeadin) FactorAt(progress float64) float64 {
	return (2 - progress) * l.Steepness
}

func (l *LinearLeadin) Name() string { return "linear" }

// ExponentialLeadin computes (2 - progress)^Steepness: 2^Steepness at sale
// start, 1 at the end of the lead-in.
type ExponentialLeadin struct {
	Steepness float64
}

func (e *ExponentialLeadin) FactorAt(progress float64) float64 {
	return math.Pow(2-progress, e.Steepness)
}

func (e *ExponentialLeadin) Name() string { return "exponential" }

// ValidLeadinCurves is the set of recognized lead-in curve names.
var ValidLeadinCurves = map[string]bool{"": true, "linear": true, "exponential": true}

// IsValidLeadinCurve returns true if name is a recognized lead-in curve.
func IsValidLeadinCurve(name string) bool {
	return ValidLeadinCurves[name]
}

// NewLeadinCurve creates a LeadinCurve by name.
// Empty string defaults to linear. Panics on unrecognized names.
func NewLeadinCurve(name string, steepness float64) LeadinCurve {
	if !IsValidLeadinCurve(name) {
		panic(fmt.Sprintf("unknown leadin curve %q", name))
	}
	switch name {
	case "", "linear":
		return &LinearLeadin{Steepness: steepness}
	case "exponential":
		return &ExponentialLeadin{Steepness: steepness}
	default:
		panic(fmt.Sprintf("unhandled leadin curve %q", name))
	}
}
