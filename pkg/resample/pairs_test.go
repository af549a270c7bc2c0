package resample

import (
	"math"
	"testing"
)

func TestDepthValuePairsStepped(t *testing.T) {
	p := sectionProfile("salinity", [][3]float64{
		{0, 0.1, 6},
		{0.1, 0.2, 5},
	})

	pairs := DepthValuePairs(p, "salinity")
	expectedDepths := []float64{0, 0.1, 0.1, 0.2}
	expectedValues := []float64{6, 6, 5, 5}
	if len(pairs.Depths) != len(expectedDepths) {
		t.Fatalf("expected %d pairs, got %d", len(expectedDepths), len(pairs.Depths))
	}
	for i := range expectedDepths {
		if math.Abs(pairs.Depths[i]-expectedDepths[i]) > 1e-9 ||
			math.Abs(pairs.Values[i]-expectedValues[i]) > 1e-9 {
			t.Errorf("pair %d: expected (%g, %g), got (%g, %g)", i,
				expectedDepths[i], expectedValues[i], pairs.Depths[i], pairs.Values[i])
		}
	}
}

func TestDepthValuePairsContinuous(t *testing.T) {
	p := pointProfile("temperature", [][2]float64{{0.1, -1}, {0.3, -3}})

	pairs := DepthValuePairs(p, "temperature")
	if len(pairs.Depths) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs.Depths))
	}
	if pairs.Depths[0] != 0.1 || pairs.Values[0] != -1 {
		t.Errorf("unexpected first pair (%g, %g)", pairs.Depths[0], pairs.Values[0])
	}
}
