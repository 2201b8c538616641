package sim

import (
	"fmt"
	"math"
)

// AdaptationLaw computes the multiplier applied to the previous region's anchor
// price given the cores sold, the ideal target and the offered limit.
//
// Contract: the multiplier is <= 1 when sold <= target and > 1 otherwise.
// Implementations return ErrDivisionByZero instead of NaN or Inf when target is
// zero, or when sold > target and limit <= target.
type AdaptationLaw interface {
	Adapt(sold, target, limit int) (float64, error)
	Name() string
}

// checkAdaptArgs enforces the preconditions shared by all laws.
func checkAdaptArgs(sold, target, limit int) error {
	if sold < 0 {
		return fmt.Errorf("%w: sold must be >= 0, got %d", ErrInvalidConfiguration, sold)
	}
	if target <= 0 {
		return fmt.Errorf("%w: target must be > 0, got %d", ErrDivisionByZero, target)
	}
	if sold > target && limit <= target {
		return fmt.Errorf("%w: sold %d exceeds target %d but limit %d leaves no headroom",
			ErrDivisionByZero, sold, target, limit)
	}
	return nil
}

// LinearAdaptation is the broker pallet law:
//
//	sold <= target: max(sold, 1) / target
//	sold >  target: 1 + (sold - target) / (limit - target)
//
// It is continuous at sold == target.
type LinearAdaptation struct{}

func (LinearAdaptation) Adapt(sold, target, limit int) (float64, error) {
	if err := checkAdaptArgs(sold, target, limit); err != nil {
		return 0, err
	}
	if sold <= target {
		return float64(max(sold, 1)) / float64(target), nil
	}
	return 1 + float64(sold-target)/float64(limit-target), nil
}

func (LinearAdaptation) Name() string { return "linear" }

// ExponentialAdaptation is an illustrative alternative law:
//
//	sold <= target: 2^(-sold/target)
//	sold >  target: 1 + 2^((sold - target) / (limit - target))
//
// Unlike the linear law it jumps at sold == target.
type ExponentialAdaptation struct{}

func (ExponentialAdaptation) Adapt(sold, target, limit int) (float64, error) {
	if err := checkAdaptArgs(sold, target, limit); err != nil {
		return 0, err
	}
	if sold <= target {
		return math.Pow(2, -float64(sold)/float64(target)), nil
	}
	excess := float64(sold-target) / float64(limit-target)
	return 1 + math.Pow(2, excess), nil
}

func (ExponentialAdaptation) Name() string { return "exponential" }

// ValidAdaptationLaws is the set of recognized adaptation law names.
var ValidAdaptationLaws = map[string]bool{"": true, "linear": true, "exponential": true}

// IsValidAdaptationLaw returns true if name is a recognized adaptation law.
func IsValidAdaptationLaw(name string) bool {
	return ValidAdaptationLaws[name]
}

// NewAdaptationLaw creates an AdaptationLaw by name.
// Empty string defaults to linear. Panics on unrecognized names.
func NewAdaptationLaw(name string) AdaptationLaw {
	if !IsValidAdaptationLaw(name) {
		panic(fmt.Sprintf("unknown adaptation law %q", name))
	}
	switch name {
	case "", "linear":
		return LinearAdaptation{}
	case "exponential":
		return ExponentialAdaptation{}
	default:
		panic(fmt.Sprintf("unhandled adaptation law %q", name))
	}
}
