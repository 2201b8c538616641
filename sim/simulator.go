package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/coretime-sim/sim/demand"
	"github.com/inference-sim/coretime-sim/sim/trace"
)

// SimulatorConfig controls how the driver walks regions.
type SimulatorConfig struct {
	Regions     int   // number of regions to simulate (> 0)
	SaleStart   int64 // first block of region 0
	SampleStep  int64 // blocks between price queries within a region (> 0)
	ClampDemand bool  // bound demand to the offered limit before rotating
}

// Simulator drives a SalePriceEngine region by region: it queries a price for
// every sampled block, then commits the renewal price and rotates the sale with
// the demand the schedule reports for that region.
type Simulator struct {
	Config   SimulatorConfig
	Engine   *SalePriceEngine
	Schedule demand.Schedule
	Trace    *trace.PriceTrace // may be nil
	Metrics  *Metrics
}

// NewSimulator validates cfg and wires the collaborators together.
func NewSimulator(cfg SimulatorConfig, engine *SalePriceEngine, schedule demand.Schedule, tr *trace.PriceTrace) (*Simulator, error) {
	if cfg.Regions <= 0 {
		return nil, fmt.Errorf("%w: regions must be > 0, got %d", ErrInvalidConfiguration, cfg.Regions)
	}
	if cfg.SampleStep <= 0 {
		return nil, fmt.Errorf("%w: sample step must be > 0, got %d", ErrInvalidConfiguration, cfg.SampleStep)
	}
	if engine == nil {
		return nil, fmt.Errorf("%w: engine is required", ErrInvalidConfiguration)
	}
	if schedule == nil {
		return nil, fmt.Errorf("%w: demand schedule is required", ErrInvalidConfiguration)
	}
	return &Simulator{
		Config:   cfg,
		Engine:   engine,
		Schedule: schedule,
		Trace:    tr,
		Metrics:  NewMetrics(),
	}, nil
}

// RegionStart returns the first block of the given zero-based region.
func (s *Simulator) RegionStart(region int) int64 {
	return s.Config.SaleStart + int64(region)*s.Engine.Config().RegionLength
}

// Run simulates all configured regions. It stops at the first error; regions
// completed before it remain reflected in Metrics and Trace.
func (s *Simulator) Run() error {
	for region := 0; region < s.Config.Regions; region++ {
		if err := s.runRegion(region); err != nil {
			return fmt.Errorf("region %d: %w", region, err)
		}
	}
	return nil
}

func (s *Simulator) runRegion(region int) error {
	cfg := s.Engine.Config()
	start := s.RegionStart(region)
	end := start + cfg.RegionLength
	s.Metrics.observeRegionStart(s.Engine.State().Price)

	for block := start; block <= end; block += s.Config.SampleStep {
		if err := s.sample(region, start, block); err != nil {
			return err
		}
	}
	// The region end is always quoted, whatever the step.
	if (end-start)%s.Config.SampleStep != 0 {
		if err := s.sample(region, start, end); err != nil {
			return err
		}
	}

	d := s.Schedule.At(region)
	if clamped, changed := demand.Clamp(d, cfg.LimitCoresOffered); changed {
		logrus.Warnf("region %d: demand renewed=%d sold=%d exceeds %d offered cores",
			region, d.Renewed, d.Sold, cfg.LimitCoresOffered)
		if s.Config.ClampDemand {
			d = clamped
			s.Metrics.ClampedRegions++
		}
	}

	s.Engine.UpdateRenewalPrice()
	rot, err := s.Engine.RotateSale(d.Renewed, d.Sold)
	if err != nil {
		return err
	}
	st := s.Engine.State()
	logrus.Debugf("region %d rotated: renewed=%d sold=%d ideal=%d anchor=%q multiplier=%.4f price %.4f -> %.4f",
		region, rot.Renewed, rot.Sold, rot.Ideal, rot.Anchor, rot.Multiplier, rot.OldPrice, rot.NewPrice)

	s.Metrics.observeRotation(rot, st)
	s.Trace.RecordRotation(trace.RotationRecord{
		Region:       region,
		Renewed:      rot.Renewed,
		Sold:         rot.Sold,
		Ideal:        rot.Ideal,
		Anchor:       rot.Anchor,
		Multiplier:   rot.Multiplier,
		OldPrice:     rot.OldPrice,
		NewPrice:     rot.NewPrice,
		RenewalPrice: st.InitialBoughtPrice,
	})
	return nil
}

func (s *Simulator) sample(region int, start, block int64) error {
	phase, err := s.Engine.PhaseAt(start, block)
	if err != nil {
		return err
	}
	price, err := s.Engine.CalculatePrice(start, block)
	if err != nil {
		return err
	}
	s.Metrics.observeSample(price)
	s.Trace.RecordSample(trace.PriceSample{Region: region, Block: block, Phase: string(phase), Price: price})
	return nil
}
