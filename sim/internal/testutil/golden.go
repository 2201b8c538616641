// Package testutil provides shared test infrastructure for the price simulator:
// the golden dataset of end-to-end runs and float assertion helpers.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenSale mirrors the sale configuration of a golden case.
type GoldenSale struct {
	InterludeLength     int64   `json:"interlude_length"`
	LeadinLength        int64   `json:"leadin_length"`
	RegionLength        int64   `json:"region_length"`
	IdealBulkProportion float64 `json:"ideal_bulk_proportion"`
	LimitCoresOffered   int     `json:"limit_cores_offered"`
	RenewalBump         float64 `json:"renewal_bump"`
}

// GoldenCurves mirrors the curve selection of a golden case.
type GoldenCurves struct {
	Leadin     string  `json:"leadin"`
	Steepness  float64 `json:"steepness"`
	Adaptation string  `json:"adaptation"`
}

// GoldenDemand is one region's demand.
type GoldenDemand struct {
	Renewed int `json:"renewed"`
	Sold    int `json:"sold"`
}

// GoldenTestCase represents a single simulator run from the golden dataset.
type GoldenTestCase struct {
	Name         string         `json:"name"`
	Sale         GoldenSale     `json:"sale"`
	Curves       GoldenCurves   `json:"curves"`
	InitialPrice float64        `json:"initial_price"`
	BoughtPrice  float64        `json:"bought_price"`
	Regions      int            `json:"regions"`
	SaleStart    int64          `json:"sale_start"`
	SampleStep   int64          `json:"sample_step"`
	Demand       []GoldenDemand `json:"demand"`
	Expected     GoldenExpected `json:"expected"`
}

// GoldenExpected holds the expected outcome of a golden run.
type GoldenExpected struct {
	RegionBasePrices  []float64 `json:"region_base_prices"`
	FinalBasePrice    float64   `json:"final_base_price"`
	FinalRenewalPrice float64   `json:"final_renewal_price"`
	SelloutPrice      *float64  `json:"sellout_price"`
	Samples           int       `json:"samples"`
	MinPrice          float64   `json:"min_price"`
	MaxPrice          float64   `json:"max_price"`
}

// LoadGoldenDataset loads the golden dataset from the repo root testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
