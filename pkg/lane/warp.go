package lane

import "math"

// Threshold converts a frame to a binary mask: pixels whose gray level is
// within [lo, hi] become 255, all others 0. BGR input is converted to gray
// with the usual 0.299/0.587/0.114 weights.
func Threshold(f Frame, lo, hi uint8) (Frame, error) {
	if err := f.Check("threshold"); err != nil {
		return Frame{}, err
	}
	out := NewMask(f.Width, f.Height)
	for i := range out.Pix {
		var g uint8
		if f.Channels == 1 {
			g = f.Pix[i]
		} else {
			b, gr, r := f.Pix[3*i], f.Pix[3*i+1], f.Pix[3*i+2]
			g = uint8(math.Round(0.114*float64(b) + 0.587*float64(gr) + 0.299*float64(r)))
		}
		if g >= lo && g <= hi {
			out.Pix[i] = 255
		}
	}
	return out, nil
}

// Warper resamples masks into the bird's-eye view with nearest-neighbor
// sampling. The transform is solved once.
type Warper struct {
	inv    Homography
	width  int
	height int
}

// NewWarper validates the calibration and prepares the transform.
func NewWarper(c Calibration) (*Warper, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	inv, err := c.Inverse()
	if err != nil {
		return nil, err
	}
	return &Warper{inv: inv, width: c.Width, height: c.Height}, nil
}

// Warp returns a new single-channel frame of the calibration size. Target
// pixels that map outside the source stay black.
func (w *Warper) Warp(src Frame) (Frame, error) {
	if err := src.Check("warp"); err != nil {
		return Frame{}, err
	}
	out := NewMask(w.width, w.height)
	for y := 0; y < w.height; y++ {
		for x := 0; x < w.width; x++ {
			p := w.inv.Apply(Point{float64(x), float64(y)})
			if math.IsNaN(p.X) || math.IsNaN(p.Y) {
				continue
			}
			sx, sy := int(math.Round(p.X)), int(math.Round(p.Y))
			if sx < 0 || sy < 0 || sx >= src.Width || sy >= src.Height {
				continue
			}
			out.Pix[y*w.width+x] = src.At(sx, sy)
		}
	}
	return out, nil
}
