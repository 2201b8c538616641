package cmd

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/coretime-sim/sim"
)

//go:embed presets.yaml
var presetsYAML []byte

// DefaultPreset is used when neither --preset nor --scenario is given.
const DefaultPreset = "polkadot"

// Presets represents the full presets.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Presets struct {
	Version string                  `yaml:"version"`
	Presets map[string]sim.Scenario `yaml:"presets"`
}

// loadPresets parses presets.yaml with strict field checking.
func loadPresets(data []byte) (Presets, error) {
	var p Presets
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return Presets{}, fmt.Errorf("parsing presets: %w", err)
	}
	return p, nil
}

// GetPreset returns a copy of the named built-in scenario.
func GetPreset(name string) (*sim.Scenario, error) {
	p, err := loadPresets(presetsYAML)
	if err != nil {
		return nil, err
	}
	sc, ok := p.Presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (available: %v)", name, presetNames(p))
	}
	return &sc, nil
}

func presetNames(p Presets) []string {
	names := make([]string, 0, len(p.Presets))
	for name := range p.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
