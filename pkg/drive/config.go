package drive

import "fmt"

// Drivers.
const (
	DriverSerial = "serial"
	DriverLog    = "log"
)

// Config selects and configures the actuator.
type Config struct {
	Driver string      `json:"driver" yaml:"driver"`
	Port   string      `json:"port" yaml:"port"`
	Serial PortOptions `json:"serial" yaml:"serial"`
	Trim   Trim        `json:"trim" yaml:"trim"`
}

// DefaultConfig talks to a board on the first USB serial port.
func DefaultConfig() Config {
	return Config{
		Driver: DriverSerial,
		Port:   "/dev/ttyUSB0",
		Serial: PortOptions{BaudRate: 115200},
		Trim:   NoTrim(),
	}
}

// Validate returns a list of problems, or nil.
func (c *Config) Validate() []string {
	var errs []string
	switch c.Driver {
	case DriverSerial:
		if c.Port == "" {
			errs = append(errs, "port is required for the serial driver")
		}
		if _, err := c.Serial.Normalize(); err != nil {
			errs = append(errs, err.Error())
		}
	case DriverLog:
	default:
		errs = append(errs, fmt.Sprintf("driver must be serial or log, got %q", c.Driver))
	}
	if c.Trim.LeftBias <= 0 || c.Trim.RightBias <= 0 {
		errs = append(errs, "trim biases must be positive")
	}
	return errs
}

// Open constructs the configured actuator.
func Open(cfg Config) (Actuator, error) {
	switch cfg.Driver {
	case DriverLog:
		return NewLogActuator(), nil
	case DriverSerial:
		act, err := OpenSerial(cfg.Port, cfg.Serial)
		if err != nil {
			return nil, err
		}
		return act, nil
	}
	return nil, fmt.Errorf("unknown drive driver %q", cfg.Driver)
}
