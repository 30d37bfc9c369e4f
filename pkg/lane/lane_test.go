package lane

import (
	"errors"
	"math"
	"testing"
)

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCentroid_AllBlackReturnsDefault(t *testing.T) {
	for _, def := range []float64{0, 0.25, -1} {
		got, found, err := CentroidBand(NewMask(64, 48), 0.6, 0.8, def)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if found {
			t.Error("found: got true, want false")
		}
		if got != def {
			t.Errorf("default %v: got %v", def, got)
		}
	}
}

func TestCentroid_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		col  int
		want float64
	}{
		{"left edge", 0, -1},
		{"right edge", 63, 1},
		{"just left of center", 31, -1.0 / 63},
		{"just right of center", 32, 1.0 / 63},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMask(64, 10)
			m.FillColumns(tt.col, tt.col+1)
			got, err := Centroid(m, 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !floatEquals(got, tt.want) {
				t.Errorf("col %d: got %v, want %v", tt.col, got, tt.want)
			}
		})
	}
}

func TestCentroid_AlwaysBounded(t *testing.T) {
	for w := 1; w <= 17; w++ {
		for col := 0; col < w; col++ {
			m := NewMask(w, 5)
			m.FillColumns(col, w)
			got, err := Centroid(m, 0)
			if err != nil {
				t.Fatalf("w=%d col=%d: %v", w, col, err)
			}
			if got < -1 || got > 1 {
				t.Errorf("w=%d col=%d: %v out of [-1, 1]", w, col, got)
			}
		}
	}
}

func TestCentroid_OnlyBandCounts(t *testing.T) {
	// White pixels outside rows [60, 80) of a 100-row frame are ignored.
	m := NewMask(21, 100)
	for y := 0; y < 60; y++ {
		m.Set(0, y, 255)
	}
	for y := 80; y < 100; y++ {
		m.Set(0, y, 255)
	}
	for y := 60; y < 80; y++ {
		m.Set(20, y, 255)
	}
	got, err := Centroid(m, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("got %v, want 1", got)
	}
}

func TestCentroid_IntensityWeighted(t *testing.T) {
	m := NewMask(11, 10)
	for y := 6; y < 8; y++ {
		m.Set(0, y, 255)
		m.Set(10, y, 85) // a third of the weight
	}
	got, err := Centroid(m, 0)
	if err != nil {
		t.Fatal(err)
	}
	// cx = 10*85/(255+85) = 2.5, half = 5 -> -0.5
	if !floatEquals(got, -0.5) {
		t.Errorf("got %v, want -0.5", got)
	}
}

func TestBalance(t *testing.T) {
	tests := []struct {
		name   string
		x0, x1 int
		want   float64
	}{
		{"empty", 0, 0, 0},
		{"left band full", 0, 4, -100},
		{"left band half", 0, 2, -50},
		{"right band full", 6, 10, 100},
		{"center only", 4, 6, 0},
		{"everything", 0, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMask(10, 6)
			m.FillColumns(tt.x0, tt.x1)
			got, err := Balance(m)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBalance_FullHeightVersusCropped(t *testing.T) {
	// Lane only in the bottom third: the literal metric sees it, the
	// cropped one does not.
	m := NewMask(10, 9)
	for y := 6; y < 9; y++ {
		for x := 0; x < 4; x++ {
			m.Set(x, y, 255)
		}
	}
	full, err := Balance(m)
	if err != nil {
		t.Fatal(err)
	}
	if full != -33 {
		t.Errorf("full height: got %v, want -33", full)
	}
	cropped, err := BalanceCropped(m)
	if err != nil {
		t.Fatal(err)
	}
	if cropped != 0 {
		t.Errorf("cropped: got %v, want 0", cropped)
	}
}

func TestBalance_NarrowFrameRejected(t *testing.T) {
	_, err := Balance(NewMask(4, 10))
	var se *ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want *ShapeError", err)
	}
}

func TestShapeErrors(t *testing.T) {
	bad := []Frame{
		{Width: 0, Height: 10, Channels: 1},
		{Width: 10, Height: -1, Channels: 1},
		{Width: 2, Height: 2, Channels: 1, Pix: make([]byte, 3)},
		{Width: 2, Height: 2, Channels: 2, Pix: make([]byte, 8)},
	}
	for i, f := range bad {
		if _, err := Centroid(f, 0); err == nil {
			t.Errorf("frame %d: expected shape error", i)
		}
		var se *ShapeError
		if _, err := Balance(f); !errors.As(err, &se) {
			t.Errorf("frame %d: got %v, want *ShapeError", i, err)
		}
	}
}

func TestMeasure_SelectsPolicy(t *testing.T) {
	raw := NewMask(10, 10)
	raw.FillColumns(0, 4)
	warped := NewMask(10, 10)
	warped.FillColumns(9, 10)

	cfg := DefaultConfig()
	res, err := Measure(cfg, raw, warped)
	if err != nil {
		t.Fatal(err)
	}
	if res.Error != 1 || !res.Found || res.Policy != PolicyCentroid {
		t.Errorf("centroid: got %+v", res)
	}

	cfg.Policy = PolicyBalance
	res, err = Measure(cfg, raw, warped)
	if err != nil {
		t.Fatal(err)
	}
	if res.Error != -100 || !res.Found {
		t.Errorf("balance: got error=%v found=%v", res.Error, res.Found)
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy(" Balance "); err != nil || p != PolicyBalance {
		t.Errorf("got %v, %v", p, err)
	}
	if _, err := ParsePolicy("hough"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); errs != nil {
		t.Errorf("default config invalid: %v", errs)
	}
	cfg.ROITop, cfg.ROIBottom = 0.8, 0.6
	cfg.DefaultError = 3
	if errs := cfg.Validate(); len(errs) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(errs), errs)
	}
}

func TestSlider(t *testing.T) {
	tests := []struct {
		value, scale float64
		want         string
	}{
		{0, 1, "<............|............> {0.00}"},
		{-1, 1, "<|........................> {-1.00}"},
		{1, 1, "<........................|> {1.00}"},
		{-100, 100, "<|........................> {-1.00}"},
		{40, 100, "<.................|.......> {0.40}"},
		{5, 1, "<........................|> {1.00}"},
		// 13.5 and 10.5 round to even
		{0.125, 1, "<..............|..........> {0.12}"},
		{-0.125, 1, "<..........|..............> {-0.12}"},
	}
	for _, tt := range tests {
		if got := Slider(tt.value, tt.scale); got != tt.want {
			t.Errorf("Slider(%v, %v) = %q, want %q", tt.value, tt.scale, got, tt.want)
		}
	}
}
