// Package vision is the OpenCV perception backend: threshold, bird's-eye
// warp and JPEG encoding on gocv Mats. The metrics themselves come from
// pkg/lane so both backends measure identically.
package vision

import (
	"fmt"

	"github.com/teslashibe/go-lanebot/pkg/lane"
	"gocv.io/x/gocv"
)

// ToMat wraps a frame in a Mat, which the caller must close. On error no
// Mat is allocated.
func ToMat(f lane.Frame) (gocv.Mat, error) {
	if err := f.Check("mat"); err != nil {
		return gocv.Mat{}, err
	}
	mt := gocv.MatTypeCV8UC3
	if f.Channels == 1 {
		mt = gocv.MatTypeCV8UC1
	}
	return gocv.NewMatFromBytes(f.Height, f.Width, mt, f.Pix)
}

// FromMat copies an 8-bit Mat into a frame.
func FromMat(m gocv.Mat) (lane.Frame, error) {
	if m.Empty() {
		return lane.Frame{}, fmt.Errorf("vision: empty mat")
	}
	ch := m.Channels()
	if ch != 1 && ch != 3 {
		return lane.Frame{}, &lane.ShapeError{Op: "mat", Width: m.Cols(), Height: m.Rows(), Channels: ch,
			Reason: "channels must be 1 or 3"}
	}
	return lane.Frame{
		Width:    m.Cols(),
		Height:   m.Rows(),
		Channels: ch,
		Pix:      m.ToBytes(),
	}, nil
}
