// Package lane holds the frame types and the lateral error metrics used to
// keep the vehicle centered over a single dark line.
//
// Everything here is plain Go over byte grids so the metrics can be tested
// without OpenCV. Image processing (threshold, warp, encode) lives in
// pkg/vision.
package lane

import "fmt"

// Frame is a fixed-size pixel grid. Pix is row-major, Channels bytes per
// pixel (1 for gray masks, 3 for BGR). A Frame is treated as immutable once
// it has been handed to another component.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// NewMask allocates an all-black single-channel frame.
func NewMask(width, height int) Frame {
	return Frame{Width: width, Height: height, Channels: 1, Pix: make([]byte, width*height)}
}

// ShapeError reports a frame whose dimensions cannot be processed.
type ShapeError struct {
	Op       string
	Width    int
	Height   int
	Channels int
	Reason   string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: bad frame shape %dx%dx%d: %s", e.Op, e.Width, e.Height, e.Channels, e.Reason)
}

// Check validates dimensions and buffer length.
func (f Frame) Check(op string) error {
	if f.Width <= 0 || f.Height <= 0 {
		return &ShapeError{Op: op, Width: f.Width, Height: f.Height, Channels: f.Channels, Reason: "non-positive dimensions"}
	}
	if f.Channels != 1 && f.Channels != 3 {
		return &ShapeError{Op: op, Width: f.Width, Height: f.Height, Channels: f.Channels, Reason: "channels must be 1 or 3"}
	}
	if len(f.Pix) != f.Width*f.Height*f.Channels {
		return &ShapeError{Op: op, Width: f.Width, Height: f.Height, Channels: f.Channels,
			Reason: fmt.Sprintf("buffer has %d bytes, want %d", len(f.Pix), f.Width*f.Height*f.Channels)}
	}
	return nil
}

// At returns the first channel value at (x, y).
func (f Frame) At(x, y int) byte {
	return f.Pix[(y*f.Width+x)*f.Channels]
}

// Set writes v to every channel at (x, y).
func (f Frame) Set(x, y int, v byte) {
	i := (y*f.Width + x) * f.Channels
	for c := 0; c < f.Channels; c++ {
		f.Pix[i+c] = v
	}
}

// Clone returns a deep copy.
func (f Frame) Clone() Frame {
	out := f
	out.Pix = append([]byte(nil), f.Pix...)
	return out
}

// FillColumns paints columns [x0, x1) white over the whole height.
// Used by test fixtures and the calibration preview.
func (f Frame) FillColumns(x0, x1 int) {
	if x0 < 0 {
		x0 = 0
	}
	if x1 > f.Width {
		x1 = f.Width
	}
	for y := 0; y < f.Height; y++ {
		for x := x0; x < x1; x++ {
			f.Set(x, y, 255)
		}
	}
}
