// Package camera provides the forward camera: its configuration, the frame
// source capability the control loop consumes, and an OpenCV capture
// implementation.
package camera

import "time"

// Config holds the camera configuration.
type Config struct {
	// Device is a V4L2 index ("0"), a device path, a video file or a
	// stream URL.
	Device string `json:"device" yaml:"device"`

	// === Resolution ===
	Width     int `json:"width" yaml:"width"`         // Frame width in pixels
	Height    int `json:"height" yaml:"height"`       // Frame height in pixels
	Framerate int `json:"framerate" yaml:"framerate"` // Requested FPS

	// ReadTimeout bounds how long NextFrame waits for a new frame before
	// reporting ErrNoFrame.
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// Brightness adjustment (-1.0 to +1.0), 0 leaves the driver default.
	Brightness float64 `json:"brightness" yaml:"brightness"`

	// Rotate180 turns the image half a turn for upside-down mounts.
	Rotate180 bool `json:"rotate_180" yaml:"rotate_180"`
}

// Capture limits
const (
	MaxWidth     = 1920
	MaxHeight    = 1080
	MaxFramerate = 120
)

// DefaultConfig returns the 360x240 configuration the lane calibration
// was measured at.
func DefaultConfig() Config {
	return Config{
		Device:      "0",
		Width:       360,
		Height:      240,
		Framerate:   30,
		ReadTimeout: 500 * time.Millisecond,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device == "" {
		errors = append(errors, "device is required")
	}
	if c.Width < 32 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 32 and 1920")
	}
	if c.Height < 24 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 24 and 1080")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.ReadTimeout <= 0 {
		errors = append(errors, "read_timeout must be positive")
	}
	if c.Brightness < -1.0 || c.Brightness > 1.0 {
		errors = append(errors, "brightness must be between -1.0 and 1.0")
	}

	return errors
}
