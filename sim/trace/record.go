// Package trace records the prices a simulation produced, block by block, and
// every end-of-region rotation.
// This package has no dependencies on sim/; it stores plain data types.
package trace

// PriceSample captures one CalculatePrice result.
type PriceSample struct {
	Region int     `json:"region"`
	Block  int64   `json:"block"`
	Phase  string  `json:"phase"`
	Price  float64 `json:"price"`
}

// RotationRecord captures one end-of-region price transition.
type RotationRecord struct {
	Region       int     `json:"region"`
	Renewed      int     `json:"renewed"`
	Sold         int     `json:"sold"`
	Ideal        int     `json:"ideal"`
	Anchor       string  `json:"anchor"` // "sellout", "price" or "" when the price was left unchanged
	Multiplier   float64 `json:"multiplier"`
	OldPrice     float64 `json:"old_price"`
	NewPrice     float64 `json:"new_price"`
	RenewalPrice float64 `json:"renewal_price"` // committed renewal baseline after the region
}
