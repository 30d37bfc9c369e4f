package lane

import (
	"math"
	"strings"
	"testing"
)

func identityCalibration(w, h int) Calibration {
	fw, fh := float64(w), float64(h)
	return Calibration{
		TopLeft: Point{0, 0}, TopRight: Point{fw, 0},
		BottomLeft: Point{0, fh}, BottomRight: Point{fw, fh},
		Width: w, Height: h,
	}
}

func TestDefaultCalibration(t *testing.T) {
	c := DefaultCalibration()
	want := [4]Point{{76, 60}, {284, 60}, {15, 161}, {345, 161}}
	if c.Source() != want {
		t.Errorf("source: got %v, want %v", c.Source(), want)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default calibration invalid: %v", err)
	}
}

func TestCalibration_Scaled(t *testing.T) {
	c := DefaultCalibration().Scaled(720, 480)
	want := [4]Point{{152, 120}, {568, 120}, {30, 322}, {690, 322}}
	if c.Source() != want {
		t.Errorf("source: got %v, want %v", c.Source(), want)
	}
	if c.Width != 720 || c.Height != 480 {
		t.Errorf("size: got %dx%d, want 720x480", c.Width, c.Height)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("scaled calibration invalid: %v", err)
	}
	if got := DefaultCalibration().Scaled(360, 240); got != DefaultCalibration() {
		t.Errorf("same size: got %+v", got)
	}
}

func TestHomography_MapsCorners(t *testing.T) {
	c := DefaultCalibration()
	h, err := c.Homography()
	if err != nil {
		t.Fatal(err)
	}
	src, dst := c.Source(), c.Target()
	for i := range src {
		got := h.Apply(src[i])
		if math.Abs(got.X-dst[i].X) > 1e-6 || math.Abs(got.Y-dst[i].Y) > 1e-6 {
			t.Errorf("corner %d: got %v, want %v", i, got, dst[i])
		}
	}

	inv, err := c.Inverse()
	if err != nil {
		t.Fatal(err)
	}
	back := inv.Apply(h.Apply(Point{180, 120}))
	if math.Abs(back.X-180) > 1e-6 || math.Abs(back.Y-120) > 1e-6 {
		t.Errorf("round trip: got %v", back)
	}
}

func TestCalibration_Rejects(t *testing.T) {
	tests := []struct {
		name string
		cal  Calibration
		want string
	}{
		{"zero size", Calibration{}, "must be positive"},
		{"outside frame", TrapezoidCalibration(-5, 60, 15, 161, 360, 240), "outside"},
		{"collinear", Calibration{
			TopLeft: Point{0, 0}, TopRight: Point{10, 10},
			BottomLeft: Point{20, 20}, BottomRight: Point{30, 0},
			Width: 100, Height: 100,
		}, "collinear"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cal.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
			if _, err := NewWarper(tt.cal); err == nil {
				t.Error("NewWarper accepted an invalid calibration")
			}
		})
	}
}

func TestWarper_Identity(t *testing.T) {
	w, err := NewWarper(identityCalibration(8, 6))
	if err != nil {
		t.Fatal(err)
	}
	src := NewMask(8, 6)
	src.FillColumns(1, 3)
	out, err := w.Warp(src)
	if err != nil {
		t.Fatal(err)
	}
	for i := range src.Pix {
		if out.Pix[i] != src.Pix[i] {
			t.Fatalf("pixel %d: got %d, want %d", i, out.Pix[i], src.Pix[i])
		}
	}
}

func TestWarper_StretchesTrapezoid(t *testing.T) {
	// A vertical line through the middle of the trapezoid stays in the
	// middle of the bird's-eye view.
	c := TrapezoidCalibration(20, 10, 5, 50, 60, 60)
	w, err := NewWarper(c)
	if err != nil {
		t.Fatal(err)
	}
	src := NewMask(60, 60)
	src.FillColumns(29, 31)
	out, err := w.Warp(src)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Centroid(out, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got) > 0.05 {
		t.Errorf("centered line drifted to %v", got)
	}
}

func TestThreshold(t *testing.T) {
	f := Frame{Width: 3, Height: 1, Channels: 3, Pix: []byte{
		0, 0, 0, // black -> lane
		255, 255, 255, // white -> floor
		100, 100, 100, // boundary -> lane
	}}
	m, err := Threshold(f, 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{255, 0, 255}
	for i := range want {
		if m.Pix[i] != want[i] {
			t.Errorf("pixel %d: got %d, want %d", i, m.Pix[i], want[i])
		}
	}
	if m.Channels != 1 {
		t.Errorf("channels: got %d, want 1", m.Channels)
	}
}

func TestPipeline_LeftLaneSteersLeft(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Calibration = identityCalibration(30, 20)
	p, err := NewPipeline(cfg)
	if err != nil {
		t.Fatal(err)
	}

	// White floor with a black stripe in the left third.
	f := Frame{Width: 30, Height: 20, Channels: 3, Pix: make([]byte, 30*20*3)}
	for i := range f.Pix {
		f.Pix[i] = 255
	}
	for y := 0; y < 20; y++ {
		for x := 0; x < 10; x++ {
			f.Set(x, y, 0)
		}
	}

	res, err := p.Perceive(f)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found || res.Error >= 0 {
		t.Errorf("got %+v, want found with negative error", res.Error)
	}
}
