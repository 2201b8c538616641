package trace

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceTrace_RecordSample_OnlyAtBlockLevel(t *testing.T) {
	// GIVEN traces at every level
	blocks := NewPriceTrace(TraceLevelBlocks)
	rotations := NewPriceTrace(TraceLevelRotations)
	none := NewPriceTrace(TraceLevelNone)

	// WHEN a sample is recorded on each
	s := PriceSample{Region: 0, Block: 5, Phase: "renewal", Price: 1050}
	blocks.RecordSample(s)
	rotations.RecordSample(s)
	none.RecordSample(s)

	// THEN only the block-level trace keeps it
	require.Len(t, blocks.Samples, 1)
	assert.Equal(t, s, blocks.Samples[0])
	assert.Empty(t, rotations.Samples)
	assert.Empty(t, none.Samples)
}

func TestPriceTrace_RecordRotation_SkippedWhenOff(t *testing.T) {
	r := RotationRecord{Region: 1, Renewed: 30, Sold: 5, Ideal: 40, Anchor: "price", Multiplier: 0.875}

	on := NewPriceTrace(TraceLevelRotations)
	on.RecordRotation(r)
	require.Len(t, on.Rotations, 1)
	assert.Equal(t, r, on.Rotations[0])

	off := NewPriceTrace(TraceLevelNone)
	off.RecordRotation(r)
	assert.Empty(t, off.Rotations)
}

func TestPriceTrace_NilIsSafe(t *testing.T) {
	var pt *PriceTrace
	assert.NotPanics(t, func() {
		pt.RecordSample(PriceSample{})
		pt.RecordRotation(RotationRecord{})
	})
}

func TestPriceTrace_RunIDIsUnique(t *testing.T) {
	a := NewPriceTrace(TraceLevelBlocks)
	b := NewPriceTrace(TraceLevelBlocks)
	assert.NotEmpty(t, a.RunID)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestPriceTrace_WriteCSV(t *testing.T) {
	pt := NewPriceTrace(TraceLevelBlocks)
	pt.RecordSample(PriceSample{Region: 0, Block: 0, Phase: "renewal", Price: 1050})
	pt.RecordSample(PriceSample{Region: 0, Block: 10, Phase: "sale", Price: 2000.5})

	var buf bytes.Buffer
	require.NoError(t, pt.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "region,block,phase,price", lines[0])
	assert.Equal(t, "0,0,renewal,1050", lines[1])
	assert.Equal(t, "0,10,sale,2000.5", lines[2])
}

func TestPriceTrace_WriteJSON_RoundTripsRotations(t *testing.T) {
	pt := NewPriceTrace(TraceLevelRotations)
	pt.RecordRotation(RotationRecord{Region: 0, Anchor: "sellout", NewPrice: 900})

	var buf bytes.Buffer
	require.NoError(t, pt.WriteJSON(&buf))

	var decoded PriceTrace
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, pt.RunID, decoded.RunID)
	require.Len(t, decoded.Rotations, 1)
	assert.Equal(t, 900.0, decoded.Rotations[0].NewPrice)
}

func TestIsValidTraceLevel(t *testing.T) {
	for _, lvl := range []string{"", "none", "rotations", "blocks"} {
		assert.True(t, IsValidTraceLevel(lvl), lvl)
	}
	assert.False(t, IsValidTraceLevel("decisions"))
}
