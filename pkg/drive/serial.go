package drive

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"go.bug.st/serial"
)

// PortOptions describes the serial link to the motor board.
type PortOptions struct {
	BaudRate int    `json:"baud_rate" yaml:"baud_rate"`
	DataBits int    `json:"data_bits" yaml:"data_bits"`
	StopBits int    `json:"stop_bits" yaml:"stop_bits"`
	Parity   string `json:"parity" yaml:"parity"`
}

// Normalize validates the options and fills defaults (115200 8N1).
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 115200
	}
	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}
	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	switch strings.TrimSpace(strings.ToUpper(opts.Parity)) {
	case "", "N", "NONE":
		opts.Parity = "N"
	case "E", "EVEN":
		opts.Parity = "E"
	case "O", "ODD":
		opts.Parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", o.Parity)
	}
	return opts, nil
}

// SerialMode converts the options into a go.bug.st/serial mode.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: serial.OneStopBit,
	}
	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		mode.Parity = serial.NoParity
	}
	return mode, nil
}

// SerialActuator speaks a line protocol to a motor driver board:
//
//	M <L|R> <F|R> <000-100>\n   set one motor
//	S\n                         stop both motors
type SerialActuator struct {
	mu   sync.Mutex
	port io.WriteCloser
}

// OpenSerial opens the board on path.
func OpenSerial(path string, opts PortOptions) (*SerialActuator, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open motor board %s: %w", path, err)
	}
	return NewSerialActuator(port), nil
}

// NewSerialActuator wraps an already open link.
func NewSerialActuator(port io.WriteCloser) *SerialActuator {
	return &SerialActuator{port: port}
}

// Drive sends one motor command.
func (a *SerialActuator) Drive(side Side, dir Direction, power float64) error {
	if err := CheckPower(power); err != nil {
		return err
	}
	return a.send(fmt.Sprintf("M %s %s %03d\n", side, dir, int(math.Round(power))))
}

// Stop sends the stop command.
func (a *SerialActuator) Stop() error {
	return a.send("S\n")
}

// Close releases the port.
func (a *SerialActuator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.port.Close()
}

func (a *SerialActuator) send(line string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := io.WriteString(a.port, line); err != nil {
		return fmt.Errorf("motor board write: %w", err)
	}
	return nil
}
