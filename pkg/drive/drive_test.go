package drive

import (
	"bytes"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/teslashibe/go-lanebot/pkg/control"
	"go.bug.st/serial"
)

type driveCall struct {
	side  Side
	dir   Direction
	power float64
}

// mockActuator records calls for verification
type mockActuator struct {
	mu    sync.Mutex
	calls []driveCall
	stops int
	err   error
}

func (m *mockActuator) Drive(side Side, dir Direction, power float64) error {
	if err := CheckPower(power); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, driveCall{side, dir, power})
	return m.err
}

func (m *mockActuator) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return nil
}

type bufCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufCloser) Close() error {
	b.closed = true
	return nil
}

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestApply_LeftThenRightForward(t *testing.T) {
	m := &mockActuator{}
	if err := Apply(m, NoTrim(), control.WheelCommand{Left: 40, Right: 20}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := []driveCall{{Left, Forward, 40}, {Right, Forward, 20}}
	if len(m.calls) != 2 || m.calls[0] != want[0] || m.calls[1] != want[1] {
		t.Errorf("calls: got %+v, want %+v", m.calls, want)
	}
}

func TestApply_TrimClamps(t *testing.T) {
	m := &mockActuator{}
	trim := Trim{LeftBias: 1.2, RightBias: 0.5}
	if err := Apply(m, trim, control.WheelCommand{Left: 90, Right: 60}); err != nil {
		t.Fatal(err)
	}
	if m.calls[0].power != 100 {
		t.Errorf("left: got %v, want 100", m.calls[0].power)
	}
	if m.calls[1].power != 30 {
		t.Errorf("right: got %v, want 30", m.calls[1].power)
	}
}

func TestApply_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	m := &mockActuator{err: boom}
	if err := Apply(m, NoTrim(), control.WheelCommand{}); !errors.Is(err, boom) {
		t.Errorf("got %v, want wrapped boom", err)
	}
}

func TestCheckPower(t *testing.T) {
	for _, p := range []float64{-0.1, 100.5, math.NaN()} {
		if err := CheckPower(p); !errors.Is(err, ErrPowerRange) {
			t.Errorf("power %v: got %v, want ErrPowerRange", p, err)
		}
	}
	for _, p := range []float64{0, 55.5, 100} {
		if err := CheckPower(p); err != nil {
			t.Errorf("power %v: unexpected %v", p, err)
		}
	}
}

func TestSerialActuator_Protocol(t *testing.T) {
	buf := &bufCloser{}
	a := NewSerialActuator(buf)

	if err := a.Drive(Left, Forward, 40.4); err != nil {
		t.Fatal(err)
	}
	if err := a.Drive(Right, Reverse, 7); err != nil {
		t.Fatal(err)
	}
	if err := a.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := a.Drive(Left, Forward, 101); !errors.Is(err, ErrPowerRange) {
		t.Errorf("got %v, want ErrPowerRange", err)
	}

	want := "M L F 040\nM R R 007\nS\n"
	if got := buf.String(); got != want {
		t.Errorf("wire: got %q, want %q", got, want)
	}
	if err := a.Close(); err != nil || !buf.closed {
		t.Errorf("close: err=%v closed=%v", err, buf.closed)
	}
}

func TestPortOptions_SerialMode(t *testing.T) {
	mode, err := PortOptions{Parity: "even", StopBits: 2}.SerialMode()
	if err != nil {
		t.Fatal(err)
	}
	if mode.BaudRate != 115200 || mode.DataBits != 8 {
		t.Errorf("defaults: got %+v", mode)
	}
	if mode.Parity != serial.EvenParity || mode.StopBits != serial.TwoStopBits {
		t.Errorf("parity/stop: got %+v", mode)
	}

	if _, err := (PortOptions{DataBits: 9}).Normalize(); err == nil {
		t.Error("expected data bits error")
	}
	if _, err := (PortOptions{Parity: "mark"}).Normalize(); err == nil {
		t.Error("expected parity error")
	}
}

func TestPerform(t *testing.T) {
	tests := []struct {
		m    Maneuver
		want []driveCall
	}{
		{ManeuverForward, []driveCall{{Left, Forward, 50}, {Right, Forward, 50}}},
		{ManeuverReverse, []driveCall{{Left, Reverse, 50}, {Right, Reverse, 50}}},
		{ManeuverLeft, []driveCall{{Left, Reverse, 45}, {Right, Forward, 55}}},
		{ManeuverRight, []driveCall{{Left, Forward, 55}, {Right, Reverse, 45}}},
	}

	for _, tt := range tests {
		t.Run(string(tt.m), func(t *testing.T) {
			m := &mockActuator{}
			if err := Perform(m, NoTrim(), tt.m, 50); err != nil {
				t.Fatal(err)
			}
			if len(m.calls) != 2 {
				t.Fatalf("got %d calls, want 2", len(m.calls))
			}
			for i, c := range m.calls {
				w := tt.want[i]
				if c.side != w.side || c.dir != w.dir || !floatEquals(c.power, w.power) {
					t.Errorf("call %d: got %+v, want %+v", i, c, w)
				}
			}
		})
	}

	m := &mockActuator{}
	if err := Perform(m, NoTrim(), ManeuverStop, 50); err != nil || m.stops != 1 {
		t.Errorf("stop: err=%v stops=%d", err, m.stops)
	}
}

func TestParseManeuver(t *testing.T) {
	keys := map[string]Maneuver{"w": ManeuverForward, "A": ManeuverLeft, "s": ManeuverReverse, "d": ManeuverRight, " ": ManeuverStop}
	for k, want := range keys {
		got, err := ParseManeuver(k)
		if err != nil || got != want {
			t.Errorf("%q: got %v, %v, want %v", k, got, err, want)
		}
	}
	if _, err := ParseManeuver("jump"); err == nil {
		t.Error("expected error")
	}
}

func TestLogActuator(t *testing.T) {
	a := NewLogActuator()
	if err := a.Drive(Left, Forward, 30); err != nil {
		t.Fatal(err)
	}
	if err := a.Drive(Right, Reverse, 10); err != nil {
		t.Fatal(err)
	}
	last, stopped := a.Last()
	if stopped || last.Left != 30 || last.Right != -10 {
		t.Errorf("got %+v stopped=%v", last, stopped)
	}
	if err := a.Stop(); err != nil {
		t.Fatal(err)
	}
	if last, stopped = a.Last(); !stopped || last != (control.WheelCommand{}) {
		t.Errorf("after stop: got %+v stopped=%v", last, stopped)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); errs != nil {
		t.Errorf("default invalid: %v", errs)
	}
	cfg = Config{Driver: "gpio"}
	if errs := cfg.Validate(); len(errs) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(errs), errs)
	}
	a, err := Open(Config{Driver: DriverLog, Trim: NoTrim()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := a.(*LogActuator); !ok {
		t.Errorf("got %T, want *LogActuator", a)
	}
}
