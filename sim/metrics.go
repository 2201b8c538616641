package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates what a simulation run produced for final reporting, and
// mirrors the live pricing state into Prometheus collectors on a private registry.
type Metrics struct {
	Regions           int       `json:"regions"`
	Samples           int       `json:"samples"`
	MinPrice          float64   `json:"min_price"`
	MaxPrice          float64   `json:"max_price"`
	FinalBasePrice    float64   `json:"final_base_price"`
	FinalRenewalPrice float64   `json:"final_renewal_price"`
	SelloutPrice      *float64  `json:"sellout_price"`
	TotalRenewed      int       `json:"total_renewed"`
	TotalSold         int       `json:"total_sold"`
	ClampedRegions    int       `json:"clamped_regions"`
	RegionBasePrices  []float64 `json:"region_base_prices"` // base price in effect during each region

	registry     *prometheus.Registry
	basePrice    prometheus.Gauge
	selloutPrice prometheus.Gauge
	renewalPrice prometheus.Gauge
	quotedPrice  prometheus.Gauge
	rotations    *prometheus.CounterVec
	coresSold    *prometheus.CounterVec
}

// NewMetrics creates an empty Metrics with its own Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MinPrice:         math.Inf(1),
		MaxPrice:         math.Inf(-1),
		RegionBasePrices: make([]float64, 0),
		registry:         prometheus.NewRegistry(),
		basePrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coretime_base_price",
			Help: "Base price in effect for the active region.",
		}),
		selloutPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coretime_sellout_price",
			Help: "Last base price observed while demand stayed within the ideal target.",
		}),
		renewalPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coretime_renewal_price",
			Help: "Committed renewal price baseline.",
		}),
		quotedPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coretime_quoted_price",
			Help: "Most recent price returned for a block.",
		}),
		rotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coretime_rotations_total",
			Help: "End-of-region rotations by adaptation anchor.",
		}, []string{"anchor"}),
		coresSold: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coretime_cores_sold_total",
			Help: "Cores bought per region, by kind (renewal or sale).",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		m.basePrice,
		m.selloutPrice,
		m.renewalPrice,
		m.quotedPrice,
		m.rotations,
		m.coresSold,
	)
	return m
}

// Registry exposes the collectors, e.g. for tests or an embedding exporter.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeRegionStart(basePrice float64) {
	m.RegionBasePrices = append(m.RegionBasePrices, basePrice)
	m.basePrice.Set(basePrice)
}

func (m *Metrics) observeSample(price float64) {
	m.Samples++
	m.MinPrice = math.Min(m.MinPrice, price)
	m.MaxPrice = math.Max(m.MaxPrice, price)
	m.quotedPrice.Set(price)
}

func (m *Metrics) observeRotation(rot Rotation, st PriceState) {
	m.Regions++
	m.TotalRenewed += rot.Renewed
	m.TotalSold += rot.Sold
	m.FinalBasePrice = st.Price
	m.FinalRenewalPrice = st.InitialBoughtPrice
	m.SelloutPrice = st.SelloutPrice

	anchor := rot.Anchor
	if anchor == "" {
		anchor = "none"
	}
	m.rotations.WithLabelValues(anchor).Inc()
	m.coresSold.WithLabelValues("renewal").Add(float64(rot.Renewed))
	m.coresSold.WithLabelValues("sale").Add(float64(rot.Sold))
	m.basePrice.Set(st.Price)
	m.renewalPrice.Set(st.InitialBoughtPrice)
	if st.SelloutPrice != nil {
		m.selloutPrice.Set(*st.SelloutPrice)
	}
}

// Print writes the metrics as a JSON document under a header.
func (m *Metrics) Print(w io.Writer) error {
	out := *m
	if out.Samples == 0 {
		out.MinPrice, out.MaxPrice = 0, 0
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling metrics: %w", err)
	}
	if _, err := fmt.Fprintf(w, "=== Simulation Metrics ===\n%s\n", data); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// WriteTextfile writes the Prometheus collectors to path in the text
// exposition format used by node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
