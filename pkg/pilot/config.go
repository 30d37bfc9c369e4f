// Package pilot runs the lane-keeping control loop and owns the lifetime
// of every component around it.
package pilot

import (
	"fmt"
	"strings"
	"time"

	"github.com/teslashibe/go-lanebot/pkg/camera"
	"github.com/teslashibe/go-lanebot/pkg/control"
	"github.com/teslashibe/go-lanebot/pkg/drive"
	"github.com/teslashibe/go-lanebot/pkg/lane"
	"github.com/teslashibe/go-lanebot/pkg/stream"
	"github.com/teslashibe/go-lanebot/pkg/vision"
	"github.com/teslashibe/go-lanebot/pkg/web"
)

// MaxLoopDelay is the longest allowed pause between ticks.
const MaxLoopDelay = 10 * time.Millisecond

// LoopConfig holds the control loop timing and speed.
type LoopConfig struct {
	// BaseSpeed is the forward power both wheels share, 0-100.
	BaseSpeed float64 `json:"base_speed" yaml:"base_speed"`

	// TurnScale converts steering output to wheel power units.
	TurnScale float64 `json:"turn_scale" yaml:"turn_scale"`

	// Warmup is how long perception and PID run before the motors move.
	Warmup time.Duration `json:"warmup" yaml:"warmup"`

	// LoopDelay is the pause after every tick.
	LoopDelay time.Duration `json:"loop_delay" yaml:"loop_delay"`

	// CaptureRetry is the pause after the camera had no frame.
	CaptureRetry time.Duration `json:"capture_retry" yaml:"capture_retry"`

	// Heartbeat is the interval of the loop rate log line. 0 disables it.
	Heartbeat time.Duration `json:"heartbeat" yaml:"heartbeat"`
}

// Config aggregates every component's configuration.
type Config struct {
	Camera camera.Config  `json:"camera" yaml:"camera"`
	Vision vision.Config  `json:"vision" yaml:"vision"`
	Lane   lane.Config    `json:"lane" yaml:"lane"`
	PID    control.Config `json:"pid" yaml:"pid"`
	Drive  drive.Config   `json:"drive" yaml:"drive"`
	Stream stream.Config  `json:"stream" yaml:"stream"`
	Web    web.Config     `json:"web" yaml:"web"`
	Loop   LoopConfig     `json:"loop" yaml:"loop"`

	LogLevel string `json:"log_level" yaml:"log_level"`
	Debug    bool   `json:"debug" yaml:"debug"`
}

// DefaultTurnScale returns the steering-to-power factor for a policy.
// Balance steering is already in power units.
func DefaultTurnScale(p lane.Policy) float64 {
	if p == lane.PolicyBalance {
		return 1
	}
	return 50
}

// DefaultConfig returns the centroid follower at base speed 30.
func DefaultConfig() Config {
	return Config{
		Camera: camera.DefaultConfig(),
		Vision: vision.DefaultConfig(),
		Lane:   lane.DefaultConfig(),
		PID:    control.CentroidConfig(),
		Drive:  drive.DefaultConfig(),
		Stream: stream.DefaultConfig(),
		Web:    web.DefaultConfig(),
		Loop: LoopConfig{
			BaseSpeed:    30,
			TurnScale:    DefaultTurnScale(lane.PolicyCentroid),
			Warmup:       5 * time.Second,
			LoopDelay:    7 * time.Millisecond,
			CaptureRetry: 100 * time.Millisecond,
			Heartbeat:    5 * time.Second,
		},
		LogLevel: "info",
	}
}

// UsePolicy switches the error metric and loads the matching PID preset
// and turn scale.
func (c *Config) UsePolicy(p lane.Policy) {
	c.Lane.Policy = p
	c.PID = control.ConfigFor(p)
	c.Loop.TurnScale = DefaultTurnScale(p)
}

// UseCamera switches the camera settings and rescales the calibration
// points to the new frame size.
func (c *Config) UseCamera(cam camera.Config) {
	if cam.Width != c.Camera.Width || cam.Height != c.Camera.Height {
		c.Lane.Calibration = c.Lane.Calibration.Scaled(cam.Width, cam.Height)
	}
	c.Camera = cam
}

// Validate checks every section and returns the first problem as a
// *ConfigError.
func (c *Config) Validate() error {
	sections := []struct {
		name string
		errs []string
	}{
		{"camera", c.Camera.Validate()},
		{"vision", c.Vision.Validate()},
		{"lane", c.Lane.Validate()},
		{"pid", c.PID.Validate()},
		{"drive", c.Drive.Validate()},
		{"stream", c.Stream.Validate()},
		{"web", c.Web.Validate()},
		{"loop", c.Loop.validate()},
	}
	for _, s := range sections {
		if len(s.errs) > 0 {
			return &ConfigError{Field: s.name, Message: strings.Join(s.errs, "; ")}
		}
	}

	if cal := c.Lane.Calibration; cal.Width != c.Camera.Width || cal.Height != c.Camera.Height {
		msg := fmt.Sprintf("calibrated for %dx%d frames but the camera delivers %dx%d",
			cal.Width, cal.Height, c.Camera.Width, c.Camera.Height)
		return &ConfigError{Field: "lane.calibration", Message: msg}
	}

	if scale := c.Lane.Policy.Scale(); c.PID.OutputLimit != scale {
		return &ConfigError{
			Field:   "pid.output_limit",
			Message: fmt.Sprintf("%v does not match the %s error scale %v", c.PID.OutputLimit, c.Lane.Policy, scale),
		}
	}
	return nil
}

func (l LoopConfig) validate() []string {
	var errs []string
	if l.BaseSpeed < 0 || l.BaseSpeed > control.MaxPower {
		errs = append(errs, "base_speed must be between 0 and 100")
	}
	if l.TurnScale <= 0 {
		errs = append(errs, "turn_scale must be positive")
	}
	if l.Warmup < 0 {
		errs = append(errs, "warmup must not be negative")
	}
	if l.LoopDelay < 0 || l.LoopDelay > MaxLoopDelay {
		errs = append(errs, "loop_delay must be between 0 and 10ms")
	}
	if l.CaptureRetry <= 0 {
		errs = append(errs, "capture_retry must be positive")
	}
	if l.Heartbeat < 0 {
		errs = append(errs, "heartbeat must not be negative")
	}
	return errs
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}
