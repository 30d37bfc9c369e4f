package drive

import (
	"fmt"
	"strings"
)

// Maneuver is a manual drive action.
type Maneuver string

const (
	ManeuverForward Maneuver = "forward"
	ManeuverReverse Maneuver = "reverse"
	ManeuverLeft    Maneuver = "left"
	ManeuverRight   Maneuver = "right"
	ManeuverStop    Maneuver = "stop"
)

// ParseManeuver accepts the maneuver names and the w/a/s/d/space keys.
func ParseManeuver(s string) (Maneuver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "forward":
		return ManeuverForward, nil
	case "s", "reverse":
		return ManeuverReverse, nil
	case "a", "left":
		return ManeuverLeft, nil
	case "d", "right":
		return ManeuverRight, nil
	case "", "x", "stop":
		return ManeuverStop, nil
	}
	return "", fmt.Errorf("unknown maneuver %q", s)
}

// Perform executes a maneuver at the given speed. Turns spin in place, with
// the outer wheel slightly faster than the inner one.
func Perform(act Actuator, trim Trim, m Maneuver, speed float64) error {
	if err := CheckPower(speed); err != nil {
		return err
	}
	l, r := speed*trim.LeftBias, speed*trim.RightBias
	l, r = min(l, 100), min(r, 100)

	switch m {
	case ManeuverForward:
		return pair(act, Forward, l, Forward, r)
	case ManeuverReverse:
		return pair(act, Reverse, l, Reverse, r)
	case ManeuverLeft:
		return pair(act, Reverse, l*0.9, Forward, min(r*1.1, 100))
	case ManeuverRight:
		return pair(act, Forward, min(l*1.1, 100), Reverse, r*0.9)
	case ManeuverStop:
		return act.Stop()
	}
	return fmt.Errorf("unknown maneuver %q", m)
}

func pair(act Actuator, ld Direction, lp float64, rd Direction, rp float64) error {
	if err := act.Drive(Left, ld, lp); err != nil {
		return err
	}
	return act.Drive(Right, rd, rp)
}
