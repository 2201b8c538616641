// Package demand supplies the per-region core demand that drives price
// adaptation. The pricing engine never decides how many cores are renewed or
// sold; a Schedule does.
//
// This package has no dependencies on sim/, so the simulator can import it.
package demand

import (
	"fmt"
	"math/rand"
)

// Demand is the number of cores renewed and sold in one region.
type Demand struct {
	Renewed int `yaml:"renewed" toml:"renewed" json:"renewed"`
	Sold    int `yaml:"sold" toml:"sold" json:"sold"`
}

// Total returns Renewed + Sold.
func (d Demand) Total() int { return d.Renewed + d.Sold }

// Schedule returns the demand for a zero-based region index.
type Schedule interface {
	At(region int) Demand
}

// Constant returns the same demand for every region.
type Constant struct {
	Demand Demand
}

func (c *Constant) At(_ int) Demand { return c.Demand }

// PerRegion returns an explicit demand per region. Regions past the end of
// the list have zero demand.
type PerRegion struct {
	Regions []Demand
}

func (p *PerRegion) At(region int) Demand {
	if region < 0 || region >= len(p.Regions) {
		return Demand{}
	}
	return p.Regions[region]
}

// Random draws renewals uniformly from [MinRenewed, MaxRenewed] and sales
// uniformly from [0, Limit-renewed]. Draws are cached so At is repeatable for
// a region regardless of call order.
type Random struct {
	MinRenewed int
	MaxRenewed int
	Limit      int

	rng   *rand.Rand
	drawn []Demand
}

// NewRandom creates a seeded random schedule. rng must not be nil.
func NewRandom(minRenewed, maxRenewed, limit int, rng *rand.Rand) *Random {
	return &Random{MinRenewed: minRenewed, MaxRenewed: maxRenewed, Limit: limit, rng: rng}
}

func (r *Random) At(region int) Demand {
	if region < 0 {
		return Demand{}
	}
	for len(r.drawn) <= region {
		r.drawn = append(r.drawn, r.draw())
	}
	return r.drawn[region]
}

func (r *Random) draw() Demand {
	renewed := r.MinRenewed
	if r.MaxRenewed > r.MinRenewed {
		renewed += r.rng.Intn(r.MaxRenewed - r.MinRenewed + 1)
	}
	if renewed > r.Limit {
		renewed = r.Limit
	}
	sold := 0
	if headroom := r.Limit - renewed; headroom > 0 {
		sold = r.rng.Intn(headroom + 1)
	}
	return Demand{Renewed: renewed, Sold: sold}
}

// Clamp bounds d to what can actually be bought when limit cores are offered:
// renewals in [0, limit], sales in [0, limit-renewals]. Reports whether d changed.
func Clamp(d Demand, limit int) (Demand, bool) {
	out := d
	out.Renewed = min(max(out.Renewed, 0), max(limit, 0))
	out.Sold = min(max(out.Sold, 0), max(limit-out.Renewed, 0))
	return out, out != d
}

// Validate checks a demand value for negative counts.
func (d Demand) Validate() error {
	if d.Renewed < 0 || d.Sold < 0 {
		return fmt.Errorf("demand must be non-negative, got renewed=%d sold=%d", d.Renewed, d.Sold)
	}
	return nil
}
