// lanebot - camera lane follower for a two-wheel differential drive.
// Warms up the perception and PID loop, then drives until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-lanebot/internal/config"
	ilog "github.com/teslashibe/go-lanebot/internal/log"
	"github.com/teslashibe/go-lanebot/pkg/camera"
	"github.com/teslashibe/go-lanebot/pkg/debug"
	"github.com/teslashibe/go-lanebot/pkg/drive"
	"github.com/teslashibe/go-lanebot/pkg/lane"
	"github.com/teslashibe/go-lanebot/pkg/pilot"
)

func main() {
	cfg, err := parseFlags()
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	ilog.Init(cfg.LogLevel)

	app, err := pilot.New(cfg)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if err := app.Init(); err != nil {
		log.Fatalf("❌ Initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		app.Shutdown()
		log.Fatalf("❌ Runtime error: %v", err)
	}
}

// parseFlags loads the config file and environment, then applies the
// flags that were set explicitly.
func parseFlags() (pilot.Config, error) {
	configPath := flag.String("config", config.Path(""), "YAML config file (overrides LANEBOT_CONFIG)")
	port := flag.Int("port", 0, "Debug server port")
	noWeb := flag.Bool("no-web", false, "Disable the debug server")
	policy := flag.String("policy", "", "Error policy: centroid or balance")
	backend := flag.String("backend", "", "Perception backend: opencv or go")
	serialPort := flag.String("serial", "", "Motor board serial port")
	dryRun := flag.Bool("dry-run", false, "Log wheel commands instead of driving the motors")
	device := flag.String("camera", "", "Camera index, device path, file or URL")
	preset := flag.String("preset", "", "Camera preset: default, vga, bench")
	speed := flag.Float64("speed", 0, "Base speed 0-100")
	warmup := flag.Duration("warmup", 0, "Warmup duration before the motors move")
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	debugTicks := flag.Bool("debug-ticks", false, "Print a steering slider every tick")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, err
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if *policy != "" {
		p, err := lane.ParsePolicy(*policy)
		if err != nil {
			return cfg, err
		}
		if p != cfg.Lane.Policy {
			cfg.UsePolicy(p)
		}
	}
	if *preset != "" {
		pc := camera.GetPreset(*preset)
		if pc == nil {
			return cfg, fmt.Errorf("unknown camera preset %q", *preset)
		}
		pc.Device = cfg.Camera.Device
		cfg.UseCamera(*pc)
	}
	if *device != "" {
		cfg.Camera.Device = *device
	}
	if *backend != "" {
		cfg.Vision.Backend = *backend
	}
	if *serialPort != "" {
		cfg.Drive.Port = *serialPort
	}
	if *dryRun {
		cfg.Drive.Driver = drive.DriverLog
	}
	if set["port"] {
		cfg.Web.Port = *port
	}
	if *noWeb {
		cfg.Web.Enabled = false
	}
	if set["speed"] {
		cfg.Loop.BaseSpeed = *speed
	}
	if set["warmup"] {
		cfg.Loop.Warmup = *warmup
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *debugFlag {
		cfg.Debug = true
		if *logLevel == "" {
			cfg.LogLevel = "debug"
		}
	}
	debug.Ticks = *debugTicks

	return cfg, cfg.Validate()
}
