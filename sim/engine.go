package sim

import (
	"fmt"
	"math"
)

// Phase identifies where a block falls within its region.
type Phase string

const (
	// PhaseRenewal covers [regionStart, regionStart+InterludeLength).
	PhaseRenewal Phase = "renewal"
	// PhaseSale covers the lead-in ramp and the flat remainder up to region end.
	PhaseSale Phase = "sale"
)

// PriceState is a read-only snapshot of the engine's pricing state.
type PriceState struct {
	Price              float64  // base price for the active region
	SelloutPrice       *float64 // nil until first observed
	InitialBoughtPrice float64  // renewal baseline for the current cap
	NewBuyPrice        float64  // last renewal price quoted in the current region
	CoresSoldInRenewal int      // renewals in the region that last rotated
	CoresSoldInSale    int      // sales in the region that last rotated
}

// Rotation describes one end-of-region price transition.
type Rotation struct {
	Renewed    int
	Sold       int
	Ideal      int
	Anchor     string  // "sellout", "price" or "" when no anchor applied
	Multiplier float64 // 0 when no anchor applied
	OldPrice   float64
	NewPrice   float64
}

// SalePriceEngine is the pricing state machine for a rolling core sale.
//
// Callers must query CalculatePrice with non-decreasing blocks within a region,
// then call UpdateRenewalPrice and RotateSale, in that order, exactly once
// before querying the next region. Not safe for concurrent use: CalculatePrice
// may refresh the sellout price.
type SalePriceEngine struct {
	config SaleConfig
	curves CurveConfig
	leadin LeadinCurve
	law    AdaptationLaw

	price              float64
	selloutPrice       *float64
	initialBoughtPrice float64
	newBuyPrice        float64
	coresSoldInRenewal int
	coresSoldInSale    int
}

// NewSalePriceEngine creates an engine for cfg with the given starting base
// price and the price at which the renewing cores were originally bought.
func NewSalePriceEngine(cfg SaleConfig, curves CurveConfig, initialPrice, initialBoughtPrice float64) (*SalePriceEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := curves.Validate(); err != nil {
		return nil, err
	}
	if err := checkPrice("initial price", initialPrice); err != nil {
		return nil, err
	}
	if err := checkPrice("initial bought price", initialBoughtPrice); err != nil {
		return nil, err
	}
	curves = curves.withDefaults()
	return &SalePriceEngine{
		config:             cfg,
		curves:             curves,
		leadin:             NewLeadinCurve(curves.Leadin, curves.Steepness),
		law:                NewAdaptationLaw(curves.Adaptation),
		price:              initialPrice,
		initialBoughtPrice: initialBoughtPrice,
		newBuyPrice:        initialBoughtPrice,
	}, nil
}

func checkPrice(name string, p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return fmt.Errorf("%w: %s must be a finite value >= 0, got %v", ErrInvalidConfiguration, name, p)
	}
	return nil
}

// Config returns the active sale configuration.
func (e *SalePriceEngine) Config() SaleConfig { return e.config }

// Curves returns the active curve selection with defaults applied.
func (e *SalePriceEngine) Curves() CurveConfig { return e.curves }

// State returns a snapshot of the pricing state.
func (e *SalePriceEngine) State() PriceState {
	st := PriceState{
		Price:              e.price,
		InitialBoughtPrice: e.initialBoughtPrice,
		NewBuyPrice:        e.newBuyPrice,
		CoresSoldInRenewal: e.coresSoldInRenewal,
		CoresSoldInSale:    e.coresSoldInSale,
	}
	if e.selloutPrice != nil {
		v := *e.selloutPrice
		st.SelloutPrice = &v
	}
	return st
}

// SetPrice overrides the current base price.
func (e *SalePriceEngine) SetPrice(p float64) error {
	if err := checkPrice("price", p); err != nil {
		return err
	}
	e.price = p
	return nil
}

// SetBoughtPrice overrides the renewal baseline.
func (e *SalePriceEngine) SetBoughtPrice(p float64) error {
	if err := checkPrice("bought price", p); err != nil {
		return err
	}
	e.initialBoughtPrice = p
	return nil
}

// UpdateConfig replaces the sale configuration. Only call between regions.
func (e *SalePriceEngine) UpdateConfig(cfg SaleConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.config = cfg
	return nil
}

// SetCurves replaces the lead-in curve and adaptation law.
func (e *SalePriceEngine) SetCurves(curves CurveConfig) error {
	if err := curves.Validate(); err != nil {
		return err
	}
	curves = curves.withDefaults()
	e.curves = curves
	e.leadin = NewLeadinCurve(curves.Leadin, curves.Steepness)
	e.law = NewAdaptationLaw(curves.Adaptation)
	return nil
}

// PhaseAt reports which period blockNow falls in for the region starting at
// regionStart. It returns ErrOutOfRange outside [regionStart, regionStart+RegionLength].
func (e *SalePriceEngine) PhaseAt(regionStart, blockNow int64) (Phase, error) {
	if blockNow < regionStart || blockNow > regionStart+e.config.RegionLength {
		return "", fmt.Errorf("%w: block %d not in [%d, %d]",
			ErrOutOfRange, blockNow, regionStart, regionStart+e.config.RegionLength)
	}
	if blockNow < regionStart+e.config.InterludeLength {
		return PhaseRenewal, nil
	}
	return PhaseSale, nil
}

// CalculatePrice returns the price at blockNow for the region starting at
// regionStart: the capped renewal price during the interlude, the lead-in sale
// price afterwards.
func (e *SalePriceEngine) CalculatePrice(regionStart, blockNow int64) (float64, error) {
	phase, err := e.PhaseAt(regionStart, blockNow)
	if err != nil {
		return 0, err
	}
	if phase == PhaseRenewal {
		return e.renewPrice(regionStart, blockNow), nil
	}
	return e.salePrice(regionStart+e.config.InterludeLength, blockNow), nil
}

// salePrice applies the lead-in factor to the base price. Cores sold during
// the sale are assumed to be sold at the lowest price of the sale, so the base
// price is recorded as the sellout anchor unless the last region overshot the
// ideal target.
func (e *SalePriceEngine) salePrice(saleStart, blockNow int64) float64 {
	elapsed := min(max(blockNow-saleStart, 0), e.config.LeadinLength)
	progress := float64(elapsed) / float64(e.config.LeadinLength)
	priceNow := e.leadin.FactorAt(progress) * e.price

	if e.coresSoldInRenewal+e.coresSoldInSale <= e.config.IdealCores() || e.selloutPrice == nil {
		p := e.price
		e.selloutPrice = &p
	}
	return math.Max(priceNow, 0)
}

// renewPrice is the lesser of the capped bump on the bought price and what a
// fresh purchase would cost now.
func (e *SalePriceEngine) renewPrice(regionStart, blockNow int64) float64 {
	e.newBuyPrice = math.Min(e.renewalCap(), e.salePrice(regionStart, blockNow))
	return e.newBuyPrice
}

func (e *SalePriceEngine) renewalCap() float64 {
	return e.initialBoughtPrice * (1 + e.config.RenewalBump)
}

// UpdateRenewalPrice commits the renewal price quoted during the region that
// just ended as the baseline for the next region's cap.
func (e *SalePriceEngine) UpdateRenewalPrice() {
	e.initialBoughtPrice = math.Min(e.renewalCap(), e.newBuyPrice)
}

// RotateSale closes the region with the given demand and adapts the base price
// for the next region. On error no state is modified.
func (e *SalePriceEngine) RotateSale(renewed, sold int) (Rotation, error) {
	if renewed < 0 || sold < 0 {
		return Rotation{}, fmt.Errorf("%w: demand must be >= 0, got renewed=%d sold=%d",
			ErrInvalidConfiguration, renewed, sold)
	}
	total := renewed + sold
	limit := e.config.LimitCoresOffered
	rot := Rotation{
		Renewed:  renewed,
		Sold:     sold,
		Ideal:    e.config.IdealCores(),
		OldPrice: e.price,
		NewPrice: e.price,
	}

	var anchor *float64
	switch {
	case limit == 0:
		// nothing offered, nothing bought
	case total >= rot.Ideal:
		// Never raise the price off an anchor that was never observed.
		if e.selloutPrice != nil {
			anchor = e.selloutPrice
			rot.Anchor = "sellout"
		}
	default:
		anchor = &e.price
		rot.Anchor = "price"
	}

	if anchor != nil {
		m, err := e.law.Adapt(total, rot.Ideal, limit)
		if err != nil {
			return Rotation{}, fmt.Errorf("rotating sale: %w", err)
		}
		rot.Multiplier = m
		rot.NewPrice = m * *anchor
	}

	e.coresSoldInRenewal = renewed
	e.coresSoldInSale = sold
	e.price = rot.NewPrice
	return rot, nil
}
