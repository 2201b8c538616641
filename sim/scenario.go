package sim

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/coretime-sim/sim/demand"
)

// Default starting prices.
const (
	DefaultInitialPrice = 1000.0
	DefaultBoughtPrice  = 1000.0
)

// Scenario is a complete simulation setup, loadable from YAML or TOML.
// Nil pointer fields mean "not set in the file" and fall back to defaults.
type Scenario struct {
	Sale       SaleConfig     `yaml:"sale" toml:"sale"`
	Curves     CurveConfig    `yaml:"curves" toml:"curves"`
	Prices     PriceSpec      `yaml:"prices" toml:"prices"`
	Simulation SimulationSpec `yaml:"simulation" toml:"simulation"`
	Demand     demand.Spec    `yaml:"demand" toml:"demand"`
}

// PriceSpec holds the starting prices.
type PriceSpec struct {
	Initial *float64 `yaml:"initial" toml:"initial"`
	Bought  *float64 `yaml:"bought" toml:"bought"`
}

// SimulationSpec holds the driver settings.
type SimulationSpec struct {
	Regions     int   `yaml:"regions" toml:"regions"`
	SaleStart   int64 `yaml:"sale_start" toml:"sale_start"`
	SampleStep  int64 `yaml:"sample_step" toml:"sample_step"`
	Seed        int64 `yaml:"seed" toml:"seed"`
	ClampDemand bool  `yaml:"clamp_demand" toml:"clamp_demand"`
}

// InitialPrice returns the configured starting base price or the default.
func (s *Scenario) InitialPrice() float64 {
	if s.Prices.Initial == nil {
		return DefaultInitialPrice
	}
	return *s.Prices.Initial
}

// BoughtPrice returns the configured bought price or the default.
func (s *Scenario) BoughtPrice() float64 {
	if s.Prices.Bought == nil {
		return DefaultBoughtPrice
	}
	return *s.Prices.Bought
}

// SimulatorConfig converts the driver settings, defaulting to 2 regions and a
// step of one block.
func (s *Scenario) SimulatorConfig() SimulatorConfig {
	cfg := SimulatorConfig{
		Regions:     s.Simulation.Regions,
		SaleStart:   s.Simulation.SaleStart,
		SampleStep:  s.Simulation.SampleStep,
		ClampDemand: s.Simulation.ClampDemand,
	}
	if cfg.Regions == 0 {
		cfg.Regions = 2
	}
	if cfg.SampleStep == 0 {
		cfg.SampleStep = 1
	}
	return cfg
}

// Validate checks every section of the scenario.
func (s *Scenario) Validate() error {
	if err := s.Sale.Validate(); err != nil {
		return fmt.Errorf("sale: %w", err)
	}
	if err := s.Curves.Validate(); err != nil {
		return fmt.Errorf("curves: %w", err)
	}
	if err := checkPrice("prices.initial", s.InitialPrice()); err != nil {
		return err
	}
	if err := checkPrice("prices.bought", s.BoughtPrice()); err != nil {
		return err
	}
	if s.Simulation.Regions < 0 {
		return fmt.Errorf("%w: simulation.regions must be >= 0, got %d", ErrInvalidConfiguration, s.Simulation.Regions)
	}
	if s.Simulation.SampleStep < 0 {
		return fmt.Errorf("%w: simulation.sample_step must be >= 0, got %d", ErrInvalidConfiguration, s.Simulation.SampleStep)
	}
	if err := s.Demand.Validate(); err != nil {
		return fmt.Errorf("%w: demand: %v", ErrInvalidConfiguration, err)
	}
	return nil
}

// LoadScenario reads a scenario file. Files ending in .toml are parsed as TOML,
// everything else as YAML. Unknown keys are rejected in both formats.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseScenarioTOML(data)
	}
	return ParseScenarioYAML(data)
}

// ParseScenarioYAML decodes a YAML scenario with strict field checking.
func ParseScenarioYAML(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &sc, nil
}

// ParseScenarioTOML decodes a TOML scenario, rejecting undecoded keys.
func ParseScenarioTOML(data []byte) (*Scenario, error) {
	var sc Scenario
	meta, err := toml.Decode(string(data), &sc)
	if err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parsing scenario: unknown keys %s", strings.Join(keys, ", "))
	}
	return &sc, nil
}
