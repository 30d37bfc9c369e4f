// Package drive is the motor side of the vehicle: the Actuator capability,
// its serial and dry-run implementations, trim, and manual maneuvers.
package drive

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-lanebot/pkg/control"
)

// Side identifies one motor of the differential drive.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "L"
	}
	return "R"
}

// Direction is the rotation direction of a motor.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	if d == Forward {
		return "F"
	}
	return "R"
}

// ErrPowerRange is returned for power outside [0, 100].
var ErrPowerRange = errors.New("drive: power out of range [0, 100]")

// Actuator drives the two wheel motors.
type Actuator interface {
	// Drive sets one motor. Power is in [0, 100].
	Drive(side Side, dir Direction, power float64) error
	// Stop halts both motors.
	Stop() error
}

// CheckPower validates a power value.
func CheckPower(power float64) error {
	if power < 0 || power > control.MaxPower || power != power {
		return fmt.Errorf("%w: %v", ErrPowerRange, power)
	}
	return nil
}

// Trim scales each side to compensate for mismatched motors.
type Trim struct {
	LeftBias  float64 `json:"left_bias" yaml:"left_bias"`
	RightBias float64 `json:"right_bias" yaml:"right_bias"`
}

// NoTrim leaves power untouched.
func NoTrim() Trim {
	return Trim{LeftBias: 1, RightBias: 1}
}

// Adjust applies the biases and clamps back into [0, 100].
func (t Trim) Adjust(cmd control.WheelCommand) control.WheelCommand {
	return control.WheelCommand{Left: cmd.Left * t.LeftBias, Right: cmd.Right * t.RightBias}.Clamped()
}

// Apply emits a wheel command as two forward Drive calls, left first.
func Apply(act Actuator, trim Trim, cmd control.WheelCommand) error {
	cmd = trim.Adjust(cmd)
	if err := act.Drive(Left, Forward, cmd.Left); err != nil {
		return fmt.Errorf("drive left: %w", err)
	}
	if err := act.Drive(Right, Forward, cmd.Right); err != nil {
		return fmt.Errorf("drive right: %w", err)
	}
	return nil
}
