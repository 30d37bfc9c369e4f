package lane

// Perceiver turns a camera frame into a lateral error and a debug mask.
type Perceiver interface {
	Perceive(f Frame) (Result, error)
}

// Pipeline is the pure Go perceiver: threshold, warp, measure.
type Pipeline struct {
	cfg    Config
	warper *Warper
}

// NewPipeline validates cfg and prepares the warp.
func NewPipeline(cfg Config) (*Pipeline, error) {
	w, err := NewWarper(cfg.Calibration)
	if err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, warper: w}, nil
}

// Perceive runs one frame through the pipeline.
func (p *Pipeline) Perceive(f Frame) (Result, error) {
	mask, err := Threshold(f, p.cfg.ThresholdLow, p.cfg.ThresholdHigh)
	if err != nil {
		return Result{}, err
	}
	warped, err := p.warper.Warp(mask)
	if err != nil {
		return Result{}, err
	}
	return Measure(p.cfg, mask, warped)
}
