package drive

import (
	"log/slog"
	"sync"

	"github.com/teslashibe/go-lanebot/internal/log"
	"github.com/teslashibe/go-lanebot/pkg/control"
)

// LogActuator moves nothing. It validates and logs every command and keeps
// the last wheel state, for dry runs and bench testing without a board.
type LogActuator struct {
	mu      sync.Mutex
	logger  *slog.Logger
	last    control.WheelCommand
	stopped bool
}

// NewLogActuator creates a dry-run actuator.
func NewLogActuator() *LogActuator {
	return &LogActuator{logger: log.With("component", "drive", "driver", "log"), stopped: true}
}

// Drive records one motor command.
func (a *LogActuator) Drive(side Side, dir Direction, power float64) error {
	if err := CheckPower(power); err != nil {
		return err
	}
	if dir == Reverse {
		power = -power
	}

	a.mu.Lock()
	if side == Left {
		a.last.Left = power
	} else {
		a.last.Right = power
	}
	a.stopped = false
	a.mu.Unlock()

	a.logger.Debug("drive", "side", side.String(), "power", power)
	return nil
}

// Stop zeroes both motors.
func (a *LogActuator) Stop() error {
	a.mu.Lock()
	a.last = control.WheelCommand{}
	a.stopped = true
	a.mu.Unlock()

	a.logger.Info("motors stopped")
	return nil
}

// Last returns the most recent per-side power; reverse is negative.
func (a *LogActuator) Last() (control.WheelCommand, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last, a.stopped
}
