// Package sim provides the adaptive pricing engine for a rolling core sale.
//
// # Reading Guide
//
// Start with these files:
//   - engine.go: SalePriceEngine, the per-block price query and the
//     end-of-region transition (UpdateRenewalPrice, RotateSale)
//   - leadin.go: lead-in curves that ramp the sale price down to the base price
//   - adaptation.go: laws that scale the next region's price from demand
//
// # Region layout
//
// A region starting at block S spans [S, S+RegionLength]. Blocks before
// S+InterludeLength are the renewal period, where renewals are quoted at the
// lesser of the capped bump and the current sale price. The rest is the sale
// period: the price starts at the lead-in multiple of the base price and
// reaches the base price after LeadinLength blocks.
//
// # Driving the engine
//
// The engine is a single-owner state machine. Simulator (simulator.go) is the
// canonical driver: it queries blocks in order, then calls UpdateRenewalPrice
// and RotateSale once per region with demand from a demand.Schedule.
//
// Sub-packages:
//   - sim/demand/: per-region demand schedules
//   - sim/trace/: price and rotation trace recording
package sim
