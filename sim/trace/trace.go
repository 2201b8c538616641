package trace

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
)

// TraceLevel controls what is recorded.
type TraceLevel string

const (
	// TraceLevelNone disables tracing.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelRotations captures rotation records only.
	TraceLevelRotations TraceLevel = "rotations"
	// TraceLevelBlocks captures rotations and every sampled block price.
	TraceLevelBlocks TraceLevel = "blocks"
)

var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelRotations: true,
	TraceLevelBlocks:    true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// PriceTrace collects price samples and rotations during a simulation run.
type PriceTrace struct {
	RunID     string           `json:"run_id"`
	Level     TraceLevel       `json:"level"`
	Samples   []PriceSample    `json:"samples"`
	Rotations []RotationRecord `json:"rotations"`
}

// NewPriceTrace creates a PriceTrace with a fresh run ID.
func NewPriceTrace(level TraceLevel) *PriceTrace {
	return &PriceTrace{
		RunID:     uuid.NewString(),
		Level:     level,
		Samples:   make([]PriceSample, 0),
		Rotations: make([]RotationRecord, 0),
	}
}

// RecordSample appends a price sample when block-level tracing is on.
// Safe on a nil trace.
func (pt *PriceTrace) RecordSample(s PriceSample) {
	if pt == nil || pt.Level != TraceLevelBlocks {
		return
	}
	pt.Samples = append(pt.Samples, s)
}

// RecordRotation appends a rotation record unless tracing is off.
// Safe on a nil trace.
func (pt *PriceTrace) RecordRotation(r RotationRecord) {
	if pt == nil || pt.Level == TraceLevelNone || pt.Level == "" {
		return
	}
	pt.Rotations = append(pt.Rotations, r)
}

// WriteJSON writes the whole trace as indented JSON.
func (pt *PriceTrace) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pt); err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}
	return nil
}

// WriteCSV writes the price samples as CSV: region,block,phase,price.
func (pt *PriceTrace) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"region", "block", "phase", "price"}); err != nil {
		return fmt.Errorf("writing trace header: %w", err)
	}
	for _, s := range pt.Samples {
		row := []string{
			strconv.Itoa(s.Region),
			strconv.FormatInt(s.Block, 10),
			s.Phase,
			strconv.FormatFloat(s.Price, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing trace row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
