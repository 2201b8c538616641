package demand

import (
	"fmt"
	"math/rand"
)

// Spec describes a demand schedule in a scenario file.
//
//	kind: constant      -> renewed/sold for every region
//	kind: per-region    -> regions: [{renewed, sold}, ...]
//	kind: random        -> min_renewed/max_renewed, sales fill the remaining limit
type Spec struct {
	Kind       string   `yaml:"kind" toml:"kind"`
	Renewed    int      `yaml:"renewed,omitempty" toml:"renewed"`
	Sold       int      `yaml:"sold,omitempty" toml:"sold"`
	Regions    []Demand `yaml:"regions,omitempty" toml:"regions"`
	MinRenewed int      `yaml:"min_renewed,omitempty" toml:"min_renewed"`
	MaxRenewed int      `yaml:"max_renewed,omitempty" toml:"max_renewed"`
}

// ValidKinds is the set of recognized schedule kinds. Empty means constant.
var ValidKinds = map[string]bool{"": true, "constant": true, "per-region": true, "random": true}

// Validate checks the kind and that all counts are non-negative.
func (s *Spec) Validate() error {
	if !ValidKinds[s.Kind] {
		return fmt.Errorf("unknown demand kind %q", s.Kind)
	}
	if err := (Demand{Renewed: s.Renewed, Sold: s.Sold}).Validate(); err != nil {
		return err
	}
	for i, d := range s.Regions {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("region %d: %w", i, err)
		}
	}
	if s.MinRenewed < 0 || s.MaxRenewed < s.MinRenewed {
		return fmt.Errorf("renewal range must satisfy 0 <= min_renewed <= max_renewed, got [%d, %d]",
			s.MinRenewed, s.MaxRenewed)
	}
	return nil
}

// NewSchedule builds the Schedule described by spec. limit is the number of
// cores offered; rng is only used (and required) for kind random.
func NewSchedule(spec Spec, limit int, rng *rand.Rand) (Schedule, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	switch spec.Kind {
	case "", "constant":
		return &Constant{Demand: Demand{Renewed: spec.Renewed, Sold: spec.Sold}}, nil
	case "per-region":
		regions := make([]Demand, len(spec.Regions))
		copy(regions, spec.Regions)
		return &PerRegion{Regions: regions}, nil
	case "random":
		if rng == nil {
			return nil, fmt.Errorf("random demand requires an rng")
		}
		return NewRandom(spec.MinRenewed, spec.MaxRenewed, limit, rng), nil
	default:
		panic(fmt.Sprintf("unhandled demand kind %q", spec.Kind))
	}
}
