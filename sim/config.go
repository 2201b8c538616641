package sim

import (
	"fmt"
	"math"
)

// SaleConfig groups the per-region sale parameters. It is immutable for the
// duration of a region; replace it between regions with SalePriceEngine.UpdateConfig.
type SaleConfig struct {
	// InterludeLength is the renewal window in blocks (> 0).
	InterludeLength int64 `yaml:"interlude_length" toml:"interlude_length"`
	// LeadinLength is the price ramp-down window in blocks (> 0).
	LeadinLength int64 `yaml:"leadin_length" toml:"leadin_length"`
	// RegionLength is the full sale cycle in blocks (>= interlude + leadin).
	RegionLength int64 `yaml:"region_length" toml:"region_length"`
	// IdealBulkProportion is the share of offered cores that keeps the price flat, in (0, 1].
	IdealBulkProportion float64 `yaml:"ideal_bulk_proportion" toml:"ideal_bulk_proportion"`
	// LimitCoresOffered caps the cores sold per region. 0 means nothing is offered.
	LimitCoresOffered int `yaml:"limit_cores_offered,omitempty" toml:"limit_cores_offered"`
	// RenewalBump is the max fractional renewal price growth per region (>= 0).
	RenewalBump float64 `yaml:"renewal_bump" toml:"renewal_bump"`
}

// NewSaleConfig creates a SaleConfig. It does not validate; call Validate.
func NewSaleConfig(interlude, leadin, region int64, idealProportion float64, limit int, renewalBump float64) SaleConfig {
	return SaleConfig{
		InterludeLength:     interlude,
		LeadinLength:        leadin,
		RegionLength:        region,
		IdealBulkProportion: idealProportion,
		LimitCoresOffered:   limit,
		RenewalBump:         renewalBump,
	}
}

// Validate rejects configurations that would fail deep inside price computation.
func (c SaleConfig) Validate() error {
	if c.InterludeLength <= 0 {
		return fmt.Errorf("%w: interlude_length must be > 0, got %d", ErrInvalidConfiguration, c.InterludeLength)
	}
	if c.LeadinLength <= 0 {
		return fmt.Errorf("%w: leadin_length must be > 0, got %d", ErrInvalidConfiguration, c.LeadinLength)
	}
	if c.RegionLength <= 0 {
		return fmt.Errorf("%w: region_length must be > 0, got %d", ErrInvalidConfiguration, c.RegionLength)
	}
	if c.InterludeLength+c.LeadinLength > c.RegionLength {
		return fmt.Errorf("%w: interlude_length + leadin_length (%d) exceeds region_length %d",
			ErrInvalidConfiguration, c.InterludeLength+c.LeadinLength, c.RegionLength)
	}
	if math.IsNaN(c.IdealBulkProportion) || c.IdealBulkProportion <= 0 || c.IdealBulkProportion > 1 {
		return fmt.Errorf("%w: ideal_bulk_proportion must be in (0, 1], got %v", ErrInvalidConfiguration, c.IdealBulkProportion)
	}
	if c.LimitCoresOffered < 0 {
		return fmt.Errorf("%w: limit_cores_offered must be >= 0, got %d", ErrInvalidConfiguration, c.LimitCoresOffered)
	}
	if c.LimitCoresOffered > 0 && c.IdealCores() < 1 {
		return fmt.Errorf("%w: ideal target floor(%v * %d) is zero",
			ErrInvalidConfiguration, c.IdealBulkProportion, c.LimitCoresOffered)
	}
	if math.IsNaN(c.RenewalBump) || math.IsInf(c.RenewalBump, 0) || c.RenewalBump < 0 {
		return fmt.Errorf("%w: renewal_bump must be a finite value >= 0, got %v", ErrInvalidConfiguration, c.RenewalBump)
	}
	return nil
}

// IdealCores returns floor(IdealBulkProportion * LimitCoresOffered), the demand
// level at which the next region's price stays flat.
func (c SaleConfig) IdealCores() int {
	return int(math.Floor(c.IdealBulkProportion * float64(c.LimitCoresOffered)))
}

// CurveConfig selects the lead-in curve and the adaptation law.
// Empty names select the linear variants; zero steepness selects DefaultSteepness.
type CurveConfig struct {
	Leadin     string  `yaml:"leadin" toml:"leadin"`
	Steepness  float64 `yaml:"steepness,omitempty" toml:"steepness"`
	Adaptation string  `yaml:"adaptation" toml:"adaptation"`
}

// DefaultSteepness is the lead-in factor used when none is configured.
const DefaultSteepness = 1.0

// NewCurveConfig creates a CurveConfig.
func NewCurveConfig(leadin string, steepness float64, adaptation string) CurveConfig {
	return CurveConfig{Leadin: leadin, Steepness: steepness, Adaptation: adaptation}
}

// withDefaults fills the zero steepness.
func (c CurveConfig) withDefaults() CurveConfig {
	if c.Steepness == 0 {
		c.Steepness = DefaultSteepness
	}
	return c
}

// Validate checks curve names and the steepness range.
func (c CurveConfig) Validate() error {
	if !IsValidLeadinCurve(c.Leadin) {
		return fmt.Errorf("%w: unknown leadin curve %q", ErrInvalidConfiguration, c.Leadin)
	}
	if !IsValidAdaptationLaw(c.Adaptation) {
		return fmt.Errorf("%w: unknown adaptation law %q", ErrInvalidConfiguration, c.Adaptation)
	}
	if math.IsNaN(c.Steepness) || math.IsInf(c.Steepness, 0) || c.Steepness < 0 {
		return fmt.Errorf("%w: steepness must be finite and >= 0 (0 selects the default), got %v", ErrInvalidConfiguration, c.Steepness)
	}
	return nil
}
