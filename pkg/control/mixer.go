package control

// MaxPower is the top of the wheel power range.
const MaxPower = 100.0

// WheelCommand is per-side forward power in [0, 100].
type WheelCommand struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Mix maps a base speed and a turn amount onto the two wheels. Positive
// turn speeds up the left wheel and slows the right one (turns right).
//
// Each side is clamped after the sum, so a hard turn at high speed
// saturates one wheel before the other.
func Mix(baseSpeed, turn float64) WheelCommand {
	return WheelCommand{
		Left:  clamp(baseSpeed+turn, 0, MaxPower),
		Right: clamp(baseSpeed-turn, 0, MaxPower),
	}
}

// Steer converts a steering command to power units and mixes it.
func Steer(baseSpeed, steering, turnScale float64) WheelCommand {
	return Mix(baseSpeed, steering*turnScale)
}

// Clamped returns the command with both sides limited to [0, 100].
func (w WheelCommand) Clamped() WheelCommand {
	return WheelCommand{
		Left:  clamp(w.Left, 0, MaxPower),
		Right: clamp(w.Right, 0, MaxPower),
	}
}
