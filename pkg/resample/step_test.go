package resample

import (
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/megavolts/sea-ice/pkg/profile"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// sectionProfile builds a single-property section-sampled profile.
func sectionProfile(prop string, sections [][3]float64) *profile.Profile {
	p := profile.New()
	for _, s := range sections {
		r := profile.NewRow()
		r.Name = "core1"
		r.VRef = profile.Top
		r.Variables = profile.Properties{prop}
		r.YLow = s[0]
		r.YMid = s[0] + (s[1]-s[0])/2
		r.YSup = s[1]
		r.Values[prop] = s[2]
		p.Rows = append(p.Rows, r)
	}
	return p
}

func TestDiscretizeStepWorkedExample(t *testing.T) {
	p := sectionProfile("salinity", [][3]float64{
		{0, 10, 5},
		{10, 20, 7},
	})

	got := Discretize(p, DefaultConfig(), Options{YBins: []float64{0, 5, 15, 20}}, testLogger())

	expected := []struct {
		low, sup, value, weight float64
	}{
		{0, 5, 5.0, 1.0},
		{5, 15, 6.0, 1.0}, // (5*5 + 7*5) / 10
		{15, 20, 7.0, 1.0},
	}
	if len(got.Rows) != len(expected) {
		t.Fatalf("expected %d rows, got %d", len(expected), len(got.Rows))
	}
	for i, want := range expected {
		r := &got.Rows[i]
		if math.Abs(r.YLow-want.low) > 1e-6 || math.Abs(r.YSup-want.sup) > 1e-6 {
			t.Errorf("row %d: expected bin (%g, %g), got (%g, %g)", i, want.low, want.sup, r.YLow, r.YSup)
		}
		if math.Abs(r.Value("salinity")-want.value) > 1e-6 {
			t.Errorf("row %d: expected value %g, got %g", i, want.value, r.Value("salinity"))
		}
		if math.Abs(r.Weight("salinity")-want.weight) > 1e-6 {
			t.Errorf("row %d: expected weight %g, got %g", i, want.weight, r.Weight("salinity"))
		}
	}
}

func TestDiscretizeStepSingleSectionIdentity(t *testing.T) {
	p := sectionProfile("salinity", [][3]float64{{0.1, 0.3, 4.2}})

	got := Discretize(p, DefaultConfig(), Options{YBins: []float64{0.1, 0.3}}, testLogger())
	if len(got.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got.Rows))
	}
	r := &got.Rows[0]
	if math.Abs(r.Value("salinity")-4.2) > 1e-6 {
		t.Errorf("expected source value back, got %g", r.Value("salinity"))
	}
	if math.Abs(r.Weight("salinity")-1.0) > 1e-6 {
		t.Errorf("expected weight 1, got %g", r.Weight("salinity"))
	}
}

func TestDiscretizeStepIdempotentAtOriginalBoundaries(t *testing.T) {
	sections := [][3]float64{
		{0, 0.2, 6.1},
		{0.2, 0.4, 5.3},
		{0.4, 0.6, 4.8},
	}
	p := sectionProfile("salinity", sections)

	got := Discretize(p, DefaultConfig(), Options{YBins: []float64{0, 0.2, 0.4, 0.6}}, testLogger())
	if len(got.Rows) != len(sections) {
		t.Fatalf("expected %d rows, got %d", len(sections), len(got.Rows))
	}
	for i, s := range sections {
		r := &got.Rows[i]
		if math.Abs(r.Value("salinity")-s[2]) > 1e-6 {
			t.Errorf("row %d: value drifted from %g to %g", i, s[2], r.Value("salinity"))
		}
		if math.Abs(r.Weight("salinity")-1.0) > 1e-6 {
			t.Errorf("row %d: expected weight 1, got %g", i, r.Weight("salinity"))
		}
	}
}

func TestDiscretizeStepSkipsUncoveredBins(t *testing.T) {
	p := sectionProfile("salinity", [][3]float64{{0, 10, 5}})

	got := Discretize(p, DefaultConfig(), Options{YBins: []float64{0, 10, 20, 30}}, testLogger())
	if len(got.Rows) != 1 {
		t.Fatalf("bins without source coverage must be skipped, got %d rows", len(got.Rows))
	}
	if got.Rows[0].YSup != 10 {
		t.Errorf("unexpected bin (%g, %g)", got.Rows[0].YLow, got.Rows[0].YSup)
	}
}

func TestDiscretizeStepGapHandling(t *testing.T) {
	// sections (0,1)=2 and (2,3)=4 leave an uncovered gap (1,2)
	p := sectionProfile("salinity", [][3]float64{
		{0, 1, 2},
		{2, 3, 4},
	})
	bins := []float64{0, 1, 2, 3}

	t.Run("gap is explicit NaN without fill", func(t *testing.T) {
		got := Discretize(p, DefaultConfig(), Options{YBins: bins}, testLogger())
		if len(got.Rows) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(got.Rows))
		}
		mid := &got.Rows[1]
		if !math.IsNaN(mid.Value("salinity")) {
			t.Errorf("expected NaN in gap, got %g", mid.Value("salinity"))
		}
		// structural coverage: the synthetic NaN section still covers the bin
		if math.Abs(mid.Weight("salinity")-1.0) > 1e-6 {
			t.Errorf("expected weight 1, got %g", mid.Weight("salinity"))
		}
	})

	t.Run("fill interpolates by midpoint position", func(t *testing.T) {
		got := Discretize(p, DefaultConfig(), Options{YBins: bins, FillGap: true}, testLogger())
		mid := &got.Rows[1]
		if math.Abs(mid.Value("salinity")-3.0) > 1e-6 {
			t.Errorf("expected interpolated fill 3.0, got %g", mid.Value("salinity"))
		}
	})
}

func TestDiscretizeStepFillGapOneSided(t *testing.T) {
	// NaN-valued leading section has no valid neighbor below: stays NaN
	p := sectionProfile("salinity", [][3]float64{
		{0, 1, math.NaN()},
		{1, 2, 4},
	})

	got := Discretize(p, DefaultConfig(), Options{YBins: []float64{0, 1, 2}, FillGap: true}, testLogger())
	if !math.IsNaN(got.Rows[0].Value("salinity")) {
		t.Errorf("one-sided gap must stay NaN, got %g", got.Rows[0].Value("salinity"))
	}
	if math.Abs(got.Rows[1].Value("salinity")-4.0) > 1e-6 {
		t.Errorf("valid section value lost: %g", got.Rows[1].Value("salinity"))
	}
}

func TestDiscretizeStepExtremityClipping(t *testing.T) {
	p := sectionProfile("salinity", [][3]float64{{0.05, 0.2, 3}})
	bins := []float64{0, 0.1, 0.2}

	t.Run("clipped to data extent", func(t *testing.T) {
		got := Discretize(p, DefaultConfig(), Options{YBins: bins}, testLogger())
		if len(got.Rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(got.Rows))
		}
		if math.Abs(got.Rows[0].YLow-0.05) > 1e-6 {
			t.Errorf("first boundary should clip to data start 0.05, got %g", got.Rows[0].YLow)
		}
		if math.Abs(got.Rows[0].Weight("salinity")-0.5) > 1e-6 {
			t.Errorf("expected weight 0.5 in partially covered bin, got %g", got.Rows[0].Weight("salinity"))
		}
	})

	t.Run("nominal edges with fill extremity", func(t *testing.T) {
		got := Discretize(p, DefaultConfig(), Options{YBins: bins, FillExtremity: true}, testLogger())
		if math.Abs(got.Rows[0].YLow-0) > 1e-6 {
			t.Errorf("expected nominal edge 0, got %g", got.Rows[0].YLow)
		}
	})
}

func TestDiscretizeStepDescendingBinsReversed(t *testing.T) {
	p := sectionProfile("salinity", [][3]float64{
		{0, 10, 5},
		{10, 20, 7},
	})

	got := Discretize(p, DefaultConfig(), Options{YBins: []float64{20, 15, 5, 0}}, testLogger())
	if len(got.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got.Rows))
	}
	if math.Abs(got.Rows[1].Value("salinity")-6.0) > 1e-6 {
		t.Errorf("expected 6.0 on the middle bin, got %g", got.Rows[1].Value("salinity"))
	}
}

func TestNormalizeBinsUnsorted(t *testing.T) {
	bins := []float64{0, 2, 1}
	got := normalizeBins(bins, testLogger())
	for i, v := range bins {
		if got[i] != v {
			t.Fatalf("unsorted bins must pass through unchanged, got %v", got)
		}
	}
}

func TestDiscretizeStepBroadcastsStaticAttributes(t *testing.T) {
	p := sectionProfile("salinity", [][3]float64{{0, 10, 5}})
	p.Rows[0].Extra = map[string]string{"site": "utqiagvik"}
	p.Rows[0].Length = 1.4

	got := Discretize(p, DefaultConfig(), Options{YBins: []float64{0, 10}}, testLogger())
	r := &got.Rows[0]
	if r.Name != "core1" || r.VRef != profile.Top {
		t.Errorf("static attributes not broadcast: %q %q", r.Name, r.VRef)
	}
	if r.Extra["site"] != "utqiagvik" {
		t.Errorf("metadata column not broadcast: %v", r.Extra)
	}
	if math.Abs(r.Length-1.4) > 1e-9 {
		t.Errorf("length not broadcast: %g", r.Length)
	}
}
