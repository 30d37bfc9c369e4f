// Package config loads lanebot configuration from YAML and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-lanebot/pkg/lane"
	"github.com/teslashibe/go-lanebot/pkg/pilot"
)

// Environment variables read by Load.
const (
	EnvConfig   = "LANEBOT_CONFIG"
	EnvPort     = "LANEBOT_PORT"
	EnvSerial   = "LANEBOT_SERIAL"
	EnvPolicy   = "LANEBOT_POLICY"
	EnvCamera   = "LANEBOT_CAMERA"
	EnvLogLevel = "LANEBOT_LOG_LEVEL"
)

// Path returns the config file path from LANEBOT_CONFIG, or fallback.
func Path(fallback string) string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return fallback
}

// Load returns the defaults overlaid with the YAML file at path (if path is
// not empty) and the LANEBOT_* environment. The result is validated.
func Load(path string) (pilot.Config, error) {
	cfg := pilot.DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := Decode(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Decode overlays a YAML document on cfg. Unknown keys are rejected. When
// the document picks a policy, that policy's PID preset and turn scale are
// applied first so the document only needs to name what it changes.
func Decode(data []byte, cfg *pilot.Config) error {
	var head struct {
		Lane struct {
			Policy lane.Policy `yaml:"policy"`
		} `yaml:"lane"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return err
	}
	if head.Lane.Policy != "" {
		p, err := lane.ParsePolicy(string(head.Lane.Policy))
		if err != nil {
			return err
		}
		cfg.UsePolicy(p)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv applies LANEBOT_* overrides to cfg.
func ApplyEnv(cfg *pilot.Config) error {
	if v := os.Getenv(EnvPolicy); v != "" {
		p, err := lane.ParsePolicy(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPolicy, err)
		}
		if p != cfg.Lane.Policy {
			cfg.UsePolicy(p)
		}
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not a port number", EnvPort, v)
		}
		cfg.Web.Port = port
	}
	if v := os.Getenv(EnvSerial); v != "" {
		cfg.Drive.Port = v
	}
	if v := os.Getenv(EnvCamera); v != "" {
		cfg.Camera.Device = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// Marshal renders cfg as YAML, for writing a starter config file.
func Marshal(cfg pilot.Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
