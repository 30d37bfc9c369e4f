package vision

import (
	"fmt"

	"github.com/teslashibe/go-lanebot/pkg/lane"
	"gocv.io/x/gocv"
)

// JPEGEncoder encodes frames for the debug stream.
type JPEGEncoder struct {
	Quality int
}

// NewJPEGEncoder returns an encoder at the given quality (1-100).
func NewJPEGEncoder(quality int) *JPEGEncoder {
	return &JPEGEncoder{Quality: quality}
}

// Encode returns the JPEG bytes of f.
func (e *JPEGEncoder) Encode(f lane.Frame) ([]byte, error) {
	img, err := ToMat(f)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, e.Quality})
	if err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}
