package debug

import (
	"bytes"
	"testing"
)

func capture(t *testing.T, enabled, ticks bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevEnabled, prevTicks := Output, Enabled, Ticks
	Output, Enabled, Ticks = &buf, enabled, ticks
	t.Cleanup(func() { Output, Enabled, Ticks = prevOut, prevEnabled, prevTicks })
	return &buf
}

func TestLogGated(t *testing.T) {
	buf := capture(t, false, false)
	Log("viewer %d\n", 1)
	Logln("stopped")
	TickLog("tick\n")
	if buf.Len() != 0 {
		t.Errorf("disabled output: got %q", buf.String())
	}
}

func TestLogEnabled(t *testing.T) {
	buf := capture(t, true, false)
	Log("viewer %d\n", 1)
	Logln("stopped")
	TickLog("tick\n")
	if got, want := buf.String(), "viewer 1\nstopped\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTickLog(t *testing.T) {
	buf := capture(t, false, true)
	TickLog("tick %d\n", 7)
	Log("hidden\n")
	if got, want := buf.String(), "tick 7\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
