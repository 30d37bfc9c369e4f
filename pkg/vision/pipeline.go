package vision

import (
	"fmt"
	"image"

	"github.com/teslashibe/go-lanebot/pkg/lane"
	"gocv.io/x/gocv"
)

// Backends.
const (
	BackendOpenCV = "opencv"
	BackendGo     = "go"
)

// Config selects the perception backend.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
}

// DefaultConfig uses OpenCV.
func DefaultConfig() Config {
	return Config{Backend: BackendOpenCV}
}

// Validate returns a list of problems, or nil.
func (c *Config) Validate() []string {
	if c.Backend != BackendOpenCV && c.Backend != BackendGo {
		return []string{fmt.Sprintf("backend must be opencv or go, got %q", c.Backend)}
	}
	return nil
}

// NewPerceiver builds the configured backend.
func NewPerceiver(cfg Config, lc lane.Config) (lane.Perceiver, error) {
	if cfg.Backend == BackendGo {
		return lane.NewPipeline(lc)
	}
	return NewPipeline(lc)
}

// Pipeline thresholds and warps with OpenCV, then measures with pkg/lane.
// Not safe for concurrent use: the scratch Mats are reused every frame.
type Pipeline struct {
	cfg  lane.Config
	size image.Point

	transform gocv.Mat
	lo, hi    gocv.Scalar

	gray   gocv.Mat
	mask   gocv.Mat
	warped gocv.Mat
}

// NewPipeline validates the calibration and computes the transform once.
func NewPipeline(cfg lane.Config) (*Pipeline, error) {
	if err := cfg.Calibration.Validate(); err != nil {
		return nil, err
	}

	src := toPoint2f(cfg.Calibration.Source())
	dst := toPoint2f(cfg.Calibration.Target())
	srcVec := gocv.NewPoint2fVectorFromPoints(src)
	defer srcVec.Close()
	dstVec := gocv.NewPoint2fVectorFromPoints(dst)
	defer dstVec.Close()

	return &Pipeline{
		cfg:       cfg,
		size:      image.Pt(cfg.Calibration.Width, cfg.Calibration.Height),
		transform: gocv.GetPerspectiveTransform2f(srcVec, dstVec),
		lo:        gocv.NewScalar(float64(cfg.ThresholdLow), 0, 0, 0),
		hi:        gocv.NewScalar(float64(cfg.ThresholdHigh), 0, 0, 0),
		gray:      gocv.NewMat(),
		mask:      gocv.NewMat(),
		warped:    gocv.NewMat(),
	}, nil
}

// Perceive runs one frame through threshold, warp and the configured metric.
func (p *Pipeline) Perceive(f lane.Frame) (lane.Result, error) {
	img, err := ToMat(f)
	if err != nil {
		return lane.Result{}, err
	}
	defer img.Close()

	if f.Channels == 3 {
		gocv.CvtColor(img, &p.gray, gocv.ColorBGRToGray)
	} else {
		img.CopyTo(&p.gray)
	}
	gocv.InRangeWithScalar(p.gray, p.lo, p.hi, &p.mask)
	gocv.WarpPerspective(p.mask, &p.warped, p.transform, p.size)

	mask, err := FromMat(p.mask)
	if err != nil {
		return lane.Result{}, err
	}
	warped, err := FromMat(p.warped)
	if err != nil {
		return lane.Result{}, err
	}
	return lane.Measure(p.cfg, mask, warped)
}

// Close releases the Mats.
func (p *Pipeline) Close() error {
	p.transform.Close()
	p.gray.Close()
	p.mask.Close()
	p.warped.Close()
	return nil
}

func toPoint2f(pts [4]lane.Point) []gocv.Point2f {
	out := make([]gocv.Point2f, len(pts))
	for i, p := range pts {
		out[i] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
	}
	return out
}
