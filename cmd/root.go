package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/coretime-sim/sim"
	"github.com/inference-sim/coretime-sim/sim/demand"
	"github.com/inference-sim/coretime-sim/sim/trace"
)

var (
	logLevel     string // Log verbosity level
	presetName   string // Built-in scenario name
	scenarioPath string // YAML or TOML scenario file (overrides --preset)

	// Sale configuration overrides
	interludeLength     int64   // Interlude (renewal) period in blocks
	leadinLength        int64   // Lead-in period in blocks
	regionLength        int64   // Region length in blocks
	idealBulkProportion float64 // Share of offered cores that keeps the price flat
	limitCoresOffered   int     // Cores offered per region (0 = none)
	renewalBump         float64 // Max renewal price growth per region

	// Curve selection
	leadinCurve    string  // "linear" or "exponential"
	steepness      float64 // Lead-in steepness factor
	adaptationLaw  string  // "linear" or "exponential"
	initialPrice   float64 // Starting base price
	boughtPrice    float64 // Price the renewing cores were bought at
	regions        int     // Regions to simulate
	saleStart      int64   // First block of region 0
	sampleStep     int64   // Blocks between price samples
	seed           int64   // Seed for random demand
	renewedCores   int     // Constant renewals per region (replaces the scenario's demand)
	soldCores      int     // Constant sales per region (replaces the scenario's demand)
	clampDemand    bool    // Bound demand to the offered limit
	traceLevel     string  // none, rotations, blocks
	traceOut       string  // Trace output file (.csv or .json)
	metricsOut     string  // Prometheus textfile output
	priceRegion    int64   // Region start for the price command
	priceBlock     int64   // Block for the price command
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "coretime-sim",
	Short: "Adaptive price simulator for periodic core sales",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)
		return nil
	},
}

// runCmd simulates consecutive regions and reports the resulting prices.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate sale regions and report prices",
	Run: func(cmd *cobra.Command, args []string) {
		sc, err := buildScenario(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("unknown trace level %q", traceLevel)
		}
		level := trace.TraceLevel(traceLevel)
		if traceOut != "" && !cmd.Flags().Changed("trace-level") {
			level = trace.TraceLevelBlocks
		}
		logrus.Infof("Starting simulation: %d regions, sale=%+v, curves=%+v",
			sc.SimulatorConfig().Regions, sc.Sale, sc.Curves)

		if err := runSimulation(sc, level, traceOut, metricsOut, os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// priceCmd quotes a single block against a fresh engine.
var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Quote the price of one block in a fresh region",
	Run: func(cmd *cobra.Command, args []string) {
		sc, err := buildScenario(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := quotePrice(sc, priceRegion, priceBlock, os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// presetsCmd lists the built-in scenarios.
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List built-in scenarios",
	Run: func(cmd *cobra.Command, args []string) {
		p, err := loadPresets(presetsYAML)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		for _, name := range presetNames(p) {
			s := p.Presets[name].Sale
			fmt.Printf("%-10s interlude=%d leadin=%d region=%d ideal=%.2f limit=%d bump=%.2f\n",
				name, s.InterludeLength, s.LeadinLength, s.RegionLength,
				s.IdealBulkProportion, s.LimitCoresOffered, s.RenewalBump)
		}
	},
}

// buildScenario loads the preset or scenario file, then applies every flag the
// user set explicitly.
func buildScenario(cmd *cobra.Command) (*sim.Scenario, error) {
	var sc *sim.Scenario
	var err error
	if scenarioPath != "" {
		sc, err = sim.LoadScenario(scenarioPath)
	} else {
		sc, err = GetPreset(presetName)
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("interlude") {
		sc.Sale.InterludeLength = interludeLength
	}
	if flags.Changed("leadin") {
		sc.Sale.LeadinLength = leadinLength
	}
	if flags.Changed("region") {
		sc.Sale.RegionLength = regionLength
	}
	if flags.Changed("ideal") {
		sc.Sale.IdealBulkProportion = idealBulkProportion
	}
	if flags.Changed("limit-cores") {
		sc.Sale.LimitCoresOffered = limitCoresOffered
	}
	if flags.Changed("renewal-bump") {
		sc.Sale.RenewalBump = renewalBump
	}
	if flags.Changed("leadin-curve") {
		sc.Curves.Leadin = leadinCurve
	}
	if flags.Changed("steepness") {
		sc.Curves.Steepness = steepness
	}
	if flags.Changed("adaptation") {
		sc.Curves.Adaptation = adaptationLaw
	}
	if flags.Changed("initial-price") {
		sc.Prices.Initial = &initialPrice
	}
	if flags.Changed("bought-price") {
		sc.Prices.Bought = &boughtPrice
	}
	if flags.Changed("regions") {
		sc.Simulation.Regions = regions
	}
	if flags.Changed("sale-start") {
		sc.Simulation.SaleStart = saleStart
	}
	if flags.Changed("sample-step") {
		sc.Simulation.SampleStep = sampleStep
	}
	if flags.Changed("seed") {
		sc.Simulation.Seed = seed
	}
	if flags.Changed("clamp-demand") {
		sc.Simulation.ClampDemand = clampDemand
	}
	if flags.Changed("renewed") || flags.Changed("sold") {
		sc.Demand = demand.Spec{Kind: "constant", Renewed: renewedCores, Sold: soldCores}
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// runSimulation runs sc and writes metrics to stdout, plus the optional trace
// and Prometheus textfile outputs.
func runSimulation(sc *sim.Scenario, level trace.TraceLevel, tracePath, metricsPath string, stdout io.Writer) error {
	engine, err := sim.NewSalePriceEngine(sc.Sale, sc.Curves, sc.InitialPrice(), sc.BoughtPrice())
	if err != nil {
		return err
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(sc.Simulation.Seed))
	schedule, err := demand.NewSchedule(sc.Demand, sc.Sale.LimitCoresOffered, rng.ForSubsystem(sim.SubsystemDemand))
	if err != nil {
		return err
	}
	var tr *trace.PriceTrace
	if level != trace.TraceLevelNone && level != "" {
		tr = trace.NewPriceTrace(level)
	}

	s, err := sim.NewSimulator(sc.SimulatorConfig(), engine, schedule, tr)
	if err != nil {
		return err
	}
	runErr := s.Run()
	// Partial results are still reported when a region fails.
	if err := s.Metrics.Print(stdout); err != nil {
		return err
	}
	if tr != nil {
		summary := trace.Summarize(tr)
		logrus.Infof("Trace %s: %d samples, %d rotations (%d adapted), price range [%.4f, %.4f]",
			tr.RunID, summary.TotalSamples, summary.Rotations, summary.Adapted, summary.MinPrice, summary.MaxPrice)
		if tracePath != "" {
			if err := writeTrace(tr, tracePath); err != nil {
				return err
			}
		}
	}
	if metricsPath != "" {
		if err := s.Metrics.WriteTextfile(metricsPath); err != nil {
			return err
		}
	}
	return runErr
}

// writeTrace writes CSV for .csv paths and JSON otherwise.
func writeTrace(tr *trace.PriceTrace, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file: %w", err)
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		err = tr.WriteCSV(f)
	} else {
		err = tr.WriteJSON(f)
	}
	if err != nil {
		return err
	}
	return f.Close()
}

// quotePrice prints the price of block in the region starting at regionStart.
func quotePrice(sc *sim.Scenario, regionStart, block int64, stdout io.Writer) error {
	engine, err := sim.NewSalePriceEngine(sc.Sale, sc.Curves, sc.InitialPrice(), sc.BoughtPrice())
	if err != nil {
		return err
	}
	phase, err := engine.PhaseAt(regionStart, block)
	if err != nil {
		return err
	}
	price, err := engine.CalculatePrice(regionStart, block)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "block=%d phase=%s price=%.6f\n", block, phase, price)
	return err
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&presetName, "preset", DefaultPreset, "Built-in scenario name (list them with the presets command)")
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario file (.yaml or .toml); overrides --preset")

	cmd.Flags().Int64Var(&interludeLength, "interlude", 0, "Interlude (renewal) period in blocks")
	cmd.Flags().Int64Var(&leadinLength, "leadin", 0, "Lead-in period in blocks")
	cmd.Flags().Int64Var(&regionLength, "region", 0, "Region length in blocks")
	cmd.Flags().Float64Var(&idealBulkProportion, "ideal", 0, "Ideal bulk proportion in (0, 1]")
	cmd.Flags().IntVar(&limitCoresOffered, "limit-cores", 0, "Cores offered per region (0 = no sale)")
	cmd.Flags().Float64Var(&renewalBump, "renewal-bump", 0, "Max fractional renewal price growth per region")

	cmd.Flags().StringVar(&leadinCurve, "leadin-curve", "linear", "Lead-in curve: linear, exponential")
	cmd.Flags().Float64Var(&steepness, "steepness", sim.DefaultSteepness, "Lead-in steepness factor")
	cmd.Flags().StringVar(&adaptationLaw, "adaptation", "linear", "Price adaptation law: linear, exponential")
	cmd.Flags().Float64Var(&initialPrice, "initial-price", sim.DefaultInitialPrice, "Starting base price")
	cmd.Flags().Float64Var(&boughtPrice, "bought-price", sim.DefaultBoughtPrice, "Price the renewing cores were bought at")
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	addScenarioFlags(runCmd)
	runCmd.Flags().IntVar(&regions, "regions", 2, "Number of regions to simulate")
	runCmd.Flags().Int64Var(&saleStart, "sale-start", 0, "First block of region 0")
	runCmd.Flags().Int64Var(&sampleStep, "sample-step", 1, "Blocks between price samples")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Seed for random demand")
	runCmd.Flags().IntVar(&renewedCores, "renewed", 0, "Cores renewed in every region (replaces scenario demand)")
	runCmd.Flags().IntVar(&soldCores, "sold", 0, "Cores sold in every region (replaces scenario demand)")
	runCmd.Flags().BoolVar(&clampDemand, "clamp-demand", false, "Bound demand to the offered limit")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Trace verbosity: none, rotations, blocks")
	runCmd.Flags().StringVar(&traceOut, "trace-out", "", "Write the trace to this file (.csv samples or .json)")
	runCmd.Flags().StringVar(&metricsOut, "metrics-textfile", "", "Write Prometheus metrics to this textfile")

	addScenarioFlags(priceCmd)
	priceCmd.Flags().Int64Var(&priceRegion, "region-start", 0, "First block of the region")
	priceCmd.Flags().Int64Var(&priceBlock, "block", 0, "Block to quote")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(presetsCmd)
}
