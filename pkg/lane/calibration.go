package lane

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Point is an image coordinate.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Calibration is the camera's view of a rectangle on the ground: four
// source points that the warp maps onto the corners (0,0), (W,0), (0,H)
// and (W,H) of a Width x Height bird's-eye frame. The points are in
// camera pixels, and the camera frame must also be Width x Height.
type Calibration struct {
	TopLeft     Point `json:"top_left" yaml:"top_left"`
	TopRight    Point `json:"top_right" yaml:"top_right"`
	BottomLeft  Point `json:"bottom_left" yaml:"bottom_left"`
	BottomRight Point `json:"bottom_right" yaml:"bottom_right"`
	Width       int   `json:"width" yaml:"width"`
	Height      int   `json:"height" yaml:"height"`
}

// TrapezoidCalibration builds a calibration symmetric about the vertical
// center line: the top edge is inset by widthTop at row heightTop, the
// bottom edge by widthBottom at row heightBottom.
func TrapezoidCalibration(widthTop, heightTop, widthBottom, heightBottom float64, w, h int) Calibration {
	fw := float64(w)
	return Calibration{
		TopLeft:     Point{widthTop, heightTop},
		TopRight:    Point{fw - widthTop, heightTop},
		BottomLeft:  Point{widthBottom, heightBottom},
		BottomRight: Point{fw - widthBottom, heightBottom},
		Width:       w,
		Height:      h,
	}
}

// DefaultCalibration matches the 360x240 camera mount.
func DefaultCalibration() Calibration {
	return TrapezoidCalibration(76, 60, 15, 161, 360, 240)
}

// Scaled returns the calibration for a camera running at w x h, with
// every point moved proportionally.
func (c Calibration) Scaled(w, h int) Calibration {
	if c.Width <= 0 || c.Height <= 0 {
		return c
	}
	sx, sy := float64(w)/float64(c.Width), float64(h)/float64(c.Height)
	scale := func(p Point) Point { return Point{X: p.X * sx, Y: p.Y * sy} }
	return Calibration{
		TopLeft:     scale(c.TopLeft),
		TopRight:    scale(c.TopRight),
		BottomLeft:  scale(c.BottomLeft),
		BottomRight: scale(c.BottomRight),
		Width:       w,
		Height:      h,
	}
}

// Source returns the four source points in TL, TR, BL, BR order.
func (c Calibration) Source() [4]Point {
	return [4]Point{c.TopLeft, c.TopRight, c.BottomLeft, c.BottomRight}
}

// Target returns the bird's-eye corners in the same order.
func (c Calibration) Target() [4]Point {
	w, h := float64(c.Width), float64(c.Height)
	return [4]Point{{0, 0}, {w, 0}, {0, h}, {w, h}}
}

// Validate checks that the points describe a usable perspective mapping.
func (c Calibration) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("calibration: target size %dx%d must be positive", c.Width, c.Height)
	}
	src := c.Source()
	for i, p := range src {
		if p.X < 0 || p.Y < 0 || p.X > float64(c.Width) || p.Y > float64(c.Height) {
			return fmt.Errorf("calibration: point %d (%v, %v) outside the %dx%d frame", i, p.X, p.Y, c.Width, c.Height)
		}
	}
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			for k := j + 1; k < 4; k++ {
				if collinear(src[i], src[j], src[k]) {
					return fmt.Errorf("calibration: points %d, %d and %d are collinear", i, j, k)
				}
			}
		}
	}
	if _, err := c.Homography(); err != nil {
		return err
	}
	_, err := c.Inverse()
	return err
}

// Homography maps source points to the bird's-eye frame.
func (c Calibration) Homography() (Homography, error) {
	return SolveHomography(c.Source(), c.Target())
}

// Inverse maps bird's-eye coordinates back to the source frame. This is the
// direction a warp samples in.
func (c Calibration) Inverse() (Homography, error) {
	return SolveHomography(c.Target(), c.Source())
}

func collinear(a, b, c Point) bool {
	cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	return math.Abs(cross) < 1e-9
}

// Homography is a 3x3 projective transform in row-major order with the
// last element fixed to 1.
type Homography [9]float64

// SolveHomography finds H with H*src[i] ~ dst[i] for four correspondences.
func SolveHomography(src, dst [4]Point) (Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return Homography{}, fmt.Errorf("calibration: degenerate point set: %w", err)
	}

	var out Homography
	for i := 0; i < 8; i++ {
		out[i] = h.AtVec(i)
	}
	out[8] = 1
	return out, nil
}

// Apply maps p through the transform. Points on the horizon line map to
// NaN.
func (h Homography) Apply(p Point) Point {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		return Point{math.NaN(), math.NaN()}
	}
	return Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}
