// Package control turns a lateral lane error into wheel power.
//
// Step is a pure function over an explicit State so the control loop owns
// all controller memory; Controller wraps it for callers that prefer an
// object.
package control

import (
	"fmt"

	"github.com/teslashibe/go-lanebot/pkg/lane"
)

// Timing selects how dt enters the integral and derivative terms.
type Timing string

const (
	// Discrete treats every call as one unit step: I += e, D = e - prev.
	Discrete Timing = "discrete"
	// Elapsed scales by wall time: I += e*dt, D = (e - prev)/dt.
	Elapsed Timing = "elapsed"
)

// Config holds the PID gains and limits.
type Config struct {
	Kp float64 `json:"kp" yaml:"kp"`
	Ki float64 `json:"ki" yaml:"ki"`
	Kd float64 `json:"kd" yaml:"kd"`

	// IntegralLimit bounds the accumulated integral to ±IntegralLimit.
	IntegralLimit float64 `json:"integral_limit" yaml:"integral_limit"`

	// OutputLimit bounds the steering output to ±OutputLimit.
	OutputLimit float64 `json:"output_limit" yaml:"output_limit"`

	Timing Timing `json:"timing" yaml:"timing"`
}

// CentroidConfig is tuned for normalized [-1, 1] errors.
func CentroidConfig() Config {
	return Config{
		Kp:            0.9,
		Ki:            0.1,
		Kd:            0.1,
		IntegralLimit: 2.0,
		OutputLimit:   1,
		Timing:        Elapsed,
	}
}

// BalanceConfig carries the gains of the band-balance follower, which ran
// one PID step per frame on a [-100, 100] error.
func BalanceConfig() Config {
	return Config{
		Kp:            0.4,
		Ki:            0.001,
		Kd:            0.3,
		IntegralLimit: 2.0,
		OutputLimit:   100,
		Timing:        Discrete,
	}
}

// ConfigFor returns the preset matching a lane policy.
func ConfigFor(p lane.Policy) Config {
	if p == lane.PolicyBalance {
		return BalanceConfig()
	}
	return CentroidConfig()
}

// Validate returns a list of problems, or nil.
func (c *Config) Validate() []string {
	var errs []string
	if c.Kp < 0 || c.Ki < 0 || c.Kd < 0 {
		errs = append(errs, "gains must be non-negative")
	}
	if c.IntegralLimit <= 0 {
		errs = append(errs, "integral_limit must be positive")
	}
	if c.OutputLimit <= 0 {
		errs = append(errs, "output_limit must be positive")
	}
	if c.Timing != Discrete && c.Timing != Elapsed {
		errs = append(errs, fmt.Sprintf("timing must be discrete or elapsed, got %q", c.Timing))
	}
	return errs
}

// State is the controller memory. The zero value is the reset state.
type State struct {
	PreviousError float64 `json:"previous_error"`
	Integral      float64 `json:"integral"`
}

// Step advances the controller by one sample and returns the new state and
// the steering output.
//
// A reset call clears the state and returns exactly Kp*e: the integral
// stays at zero and the sample only seeds PreviousError, so the next
// non-reset step has no derivative kick across the boundary.
func Step(cfg Config, s State, e, dt float64, reset bool) (State, float64) {
	if reset {
		return State{PreviousError: e}, clamp(cfg.Kp*e, -cfg.OutputLimit, cfg.OutputLimit)
	}

	var d float64
	switch cfg.Timing {
	case Discrete:
		s.Integral += e
		d = e - s.PreviousError
	default:
		if dt > 0 {
			s.Integral += e * dt
			d = (e - s.PreviousError) / dt
		}
	}
	s.Integral = clamp(s.Integral, -cfg.IntegralLimit, cfg.IntegralLimit)

	out := cfg.Kp*e + cfg.Ki*s.Integral + cfg.Kd*d
	out = clamp(out, -cfg.OutputLimit, cfg.OutputLimit)

	s.PreviousError = e
	return s, out
}

// Controller holds a Config and its State.
type Controller struct {
	cfg     Config
	state   State
	pending bool
}

// NewController creates a controller in the reset state.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg, pending: true}
}

// Update runs one step and keeps the new state. The first call after
// NewController or Reset is a reset step.
func (c *Controller) Update(e, dt float64) float64 {
	var out float64
	c.state, out = Step(c.cfg, c.state, e, dt, c.pending)
	c.pending = false
	return out
}

// Reset clears integral and previous error.
func (c *Controller) Reset() {
	c.state = State{}
	c.pending = true
}

// State returns a copy of the controller memory.
func (c *Controller) State() State {
	return c.state
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
