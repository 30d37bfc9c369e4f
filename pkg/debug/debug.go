// Package debug provides global debug logging flags
package debug

import (
	"fmt"
	"io"
	"os"
)

// Enabled controls whether debug logging is active
var Enabled bool

// Ticks controls whether a line is printed for every control loop tick.
// Use --debug-ticks to enable; at ~100 Hz this is very verbose.
var Ticks bool

// Output receives all debug output.
var Output io.Writer = os.Stdout

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Fprintf(Output, format, args...)
	}
}

// Logln prints a message with newline only if debug mode is enabled
func Logln(msg string) {
	if Enabled {
		fmt.Fprintln(Output, msg)
	}
}

// TickLog prints a message only if tick tracing is enabled
func TickLog(format string, args ...interface{}) {
	if Ticks {
		fmt.Fprintf(Output, format, args...)
	}
}
