package lane

import (
	"fmt"
	"strings"
)

// Policy selects how the lateral error is computed from a lane mask.
type Policy string

const (
	// PolicyBalance compares white density in the left and right bands of
	// the un-warped mask. Output is on the legacy [-100, 100] scale.
	PolicyBalance Policy = "balance"

	// PolicyCentroid locates the intensity-weighted centroid of a
	// horizontal band of the warped mask. Output is normalized to [-1, 1].
	PolicyCentroid Policy = "centroid"
)

// ParsePolicy accepts the policy name case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyBalance:
		return PolicyBalance, nil
	case PolicyCentroid:
		return PolicyCentroid, nil
	}
	return "", fmt.Errorf("unknown lane policy %q (want balance or centroid)", s)
}

// Scale is the magnitude bound of errors produced under the policy.
func (p Policy) Scale() float64 {
	if p == PolicyBalance {
		return 100
	}
	return 1
}

// Config holds the error extraction settings.
type Config struct {
	Policy Policy `json:"policy" yaml:"policy"`

	// DefaultError is returned by the centroid metric when the band has
	// no lane pixels at all.
	DefaultError float64 `json:"default_error" yaml:"default_error"`

	// ROITop and ROIBottom bound the centroid band as fractions of the
	// warped frame height.
	ROITop    float64 `json:"roi_top" yaml:"roi_top"`
	ROIBottom float64 `json:"roi_bottom" yaml:"roi_bottom"`

	// ThresholdLow and ThresholdHigh bound the gray levels counted as
	// lane. Dark tape on a light floor is 0-100.
	ThresholdLow  uint8 `json:"threshold_low" yaml:"threshold_low"`
	ThresholdHigh uint8 `json:"threshold_high" yaml:"threshold_high"`

	Calibration Calibration `json:"calibration" yaml:"calibration"`

	// BalanceCropRows restricts the balance bands to the top two thirds
	// of the frame. Off by default: the bands span the full height.
	BalanceCropRows bool `json:"balance_crop_rows" yaml:"balance_crop_rows"`
}

// DefaultConfig returns centroid settings with a 0.6-0.8 band.
func DefaultConfig() Config {
	return Config{
		Policy:       PolicyCentroid,
		DefaultError: 0,
		ROITop:       0.6,
		ROIBottom:    0.8,

		ThresholdLow:  0,
		ThresholdHigh: 100,
		Calibration:   DefaultCalibration(),
	}
}

// Validate returns a list of problems, or nil.
func (c *Config) Validate() []string {
	var errs []string
	if c.Policy != PolicyBalance && c.Policy != PolicyCentroid {
		errs = append(errs, fmt.Sprintf("policy must be balance or centroid, got %q", c.Policy))
	}
	if c.ROITop < 0 || c.ROIBottom > 1 || c.ROITop >= c.ROIBottom {
		errs = append(errs, "roi must satisfy 0 <= roi_top < roi_bottom <= 1")
	}
	if c.ThresholdLow > c.ThresholdHigh {
		errs = append(errs, "threshold_low must not exceed threshold_high")
	}
	if err := c.Calibration.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.DefaultError < -c.Policy.Scale() || c.DefaultError > c.Policy.Scale() {
		errs = append(errs, "default_error must be inside the policy scale")
	}
	return errs
}

// Result is the outcome of one perception pass.
type Result struct {
	Error  float64
	Found  bool
	Policy Policy
	// Mask is the frame the metric ran on, reused as the debug frame.
	Mask Frame
}

// Measure runs the configured metric. For the balance policy, raw is the
// un-warped threshold mask; for centroid, warped is used. The returned
// Result carries warped as its debug mask in both cases.
func Measure(cfg Config, raw, warped Frame) (Result, error) {
	res := Result{Policy: cfg.Policy, Mask: warped}
	switch cfg.Policy {
	case PolicyBalance:
		var (
			v   float64
			err error
		)
		if cfg.BalanceCropRows {
			v, err = BalanceCropped(raw)
		} else {
			v, err = Balance(raw)
		}
		if err != nil {
			return res, err
		}
		res.Error = v
		res.Found = hasWhite(raw)
	case PolicyCentroid:
		v, found, err := CentroidBand(warped, cfg.ROITop, cfg.ROIBottom, cfg.DefaultError)
		if err != nil {
			return res, err
		}
		res.Error, res.Found = v, found
	default:
		return res, fmt.Errorf("lane: unknown policy %q", cfg.Policy)
	}
	return res, nil
}

func hasWhite(f Frame) bool {
	for i := 0; i < len(f.Pix); i += f.Channels {
		if f.Pix[i] != 0 {
			return true
		}
	}
	return false
}
