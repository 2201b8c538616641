package sim

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/coretime-sim/sim/demand"
	"github.com/inference-sim/coretime-sim/sim/internal/testutil"
	"github.com/inference-sim/coretime-sim/sim/trace"
)

func TestSimulator_GoldenDataset(t *testing.T) {
	dataset := testutil.LoadGoldenDataset(t)
	require.NotEmpty(t, dataset.Tests)

	for _, tc := range dataset.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			// GIVEN the golden configuration
			cfg := NewSaleConfig(tc.Sale.InterludeLength, tc.Sale.LeadinLength, tc.Sale.RegionLength,
				tc.Sale.IdealBulkProportion, tc.Sale.LimitCoresOffered, tc.Sale.RenewalBump)
			curves := NewCurveConfig(tc.Curves.Leadin, tc.Curves.Steepness, tc.Curves.Adaptation)
			engine, err := NewSalePriceEngine(cfg, curves, tc.InitialPrice, tc.BoughtPrice)
			require.NoError(t, err)

			regions := make([]demand.Demand, len(tc.Demand))
			for i, d := range tc.Demand {
				regions[i] = demand.Demand{Renewed: d.Renewed, Sold: d.Sold}
			}
			sim, err := NewSimulator(SimulatorConfig{
				Regions:    tc.Regions,
				SaleStart:  tc.SaleStart,
				SampleStep: tc.SampleStep,
			}, engine, &demand.PerRegion{Regions: regions}, nil)
			require.NoError(t, err)

			// WHEN the simulation runs
			require.NoError(t, sim.Run())

			// THEN every tracked quantity matches the golden run
			want := tc.Expected
			m := sim.Metrics
			assert.Equal(t, tc.Regions, m.Regions)
			assert.Equal(t, want.Samples, m.Samples)
			require.Len(t, m.RegionBasePrices, len(want.RegionBasePrices))
			for i := range want.RegionBasePrices {
				testutil.AssertFloat64Equal(t, fmt.Sprintf("region %d base price", i), want.RegionBasePrices[i], m.RegionBasePrices[i], 1e-9)
			}
			testutil.AssertFloat64Equal(t, "final base price", want.FinalBasePrice, m.FinalBasePrice, 1e-9)
			testutil.AssertFloat64Equal(t, "final renewal price", want.FinalRenewalPrice, m.FinalRenewalPrice, 1e-9)
			testutil.AssertFloat64Equal(t, "min price", want.MinPrice, m.MinPrice, 1e-9)
			testutil.AssertFloat64Equal(t, "max price", want.MaxPrice, m.MaxPrice, 1e-9)
			if want.SelloutPrice == nil {
				assert.Nil(t, m.SelloutPrice)
			} else {
				require.NotNil(t, m.SelloutPrice)
				testutil.AssertFloat64Equal(t, "sellout price", *want.SelloutPrice, *m.SelloutPrice, 1e-9)
			}
		})
	}
}

func TestSimulator_RecordsEveryBlockInOrder(t *testing.T) {
	// GIVEN the fixture config with a step that does not divide the region
	engine := newTestEngine(t, withLimit(50))
	tr := trace.NewPriceTrace(trace.TraceLevelBlocks)
	sim, err := NewSimulator(SimulatorConfig{Regions: 2, SaleStart: 100, SampleStep: 7}, engine,
		&demand.Constant{Demand: demand.Demand{Renewed: 30, Sold: 5}}, tr)
	require.NoError(t, err)

	// WHEN run
	require.NoError(t, sim.Run())

	// THEN blocks 0,7,...,28 plus the region end are sampled per region
	perRegion := []int64{0, 7, 14, 21, 28, 30}
	require.Len(t, tr.Samples, 2*len(perRegion))
	for region := 0; region < 2; region++ {
		start := sim.RegionStart(region)
		for i, off := range perRegion {
			s := tr.Samples[region*len(perRegion)+i]
			assert.Equal(t, region, s.Region)
			assert.Equal(t, start+off, s.Block)
		}
	}
	assert.Equal(t, "renewal", tr.Samples[0].Phase)
	assert.Equal(t, "sale", tr.Samples[2].Phase)

	// AND each region rotated once with the schedule's demand
	require.Len(t, tr.Rotations, 2)
	assert.Equal(t, 30, tr.Rotations[0].Renewed)
	assert.Equal(t, 5, tr.Rotations[0].Sold)
	assert.InDelta(t, 875.0, tr.Rotations[0].NewPrice, 1e-9)
	assert.InDelta(t, 875.0*0.875, tr.Rotations[1].NewPrice, 1e-9)
}

func TestSimulator_ClampDemand(t *testing.T) {
	// GIVEN demand above the 50 offered cores
	over := &demand.Constant{Demand: demand.Demand{Renewed: 45, Sold: 20}}

	// WHEN clamping is off, the oversold excess reaches the engine
	engine := newTestEngine(t, NewSaleConfig(10, 20, 30, 1.0, 50, 0.05))
	sim, err := NewSimulator(SimulatorConfig{Regions: 1, SampleStep: 1}, engine, over, nil)
	require.NoError(t, err)
	err = sim.Run()

	// THEN the rotation fails fast (ideal == limit leaves no headroom)
	assert.True(t, errors.Is(err, ErrDivisionByZero), "got %v", err)

	// WHEN clamping is on, demand is bounded to 45 + 5
	engine = newTestEngine(t, NewSaleConfig(10, 20, 30, 1.0, 50, 0.05))
	sim, err = NewSimulator(SimulatorConfig{Regions: 1, SampleStep: 1, ClampDemand: true}, engine, over, nil)
	require.NoError(t, err)
	require.NoError(t, sim.Run())
	assert.Equal(t, 1, sim.Metrics.ClampedRegions)
	assert.Equal(t, 45, sim.Metrics.TotalRenewed)
	assert.Equal(t, 5, sim.Metrics.TotalSold)
}

func TestSimulator_RegionStart(t *testing.T) {
	engine := newTestEngine(t, fixtureConfig())
	sim, err := NewSimulator(SimulatorConfig{Regions: 1, SaleStart: 15, SampleStep: 1}, engine, &demand.Constant{}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(15), sim.RegionStart(0))
	assert.Equal(t, int64(75), sim.RegionStart(2))
}

func TestNewSimulator_Invalid(t *testing.T) {
	engine := newTestEngine(t, fixtureConfig())
	sched := &demand.Constant{}
	tests := []struct {
		name     string
		cfg      SimulatorConfig
		engine   *SalePriceEngine
		schedule demand.Schedule
	}{
		{"zero regions", SimulatorConfig{Regions: 0, SampleStep: 1}, engine, sched},
		{"zero step", SimulatorConfig{Regions: 1, SampleStep: 0}, engine, sched},
		{"nil engine", SimulatorConfig{Regions: 1, SampleStep: 1}, nil, sched},
		{"nil schedule", SimulatorConfig{Regions: 1, SampleStep: 1}, engine, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSimulator(tt.cfg, tt.engine, tt.schedule, nil)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration), "got %v", err)
		})
	}
}
