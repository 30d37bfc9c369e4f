// Command drivetest drives the motors by hand to check wiring, direction
// and trim before letting the lane follower loose.
//
// Usage:
//
//	go run ./cmd/drivetest --serial /dev/ttyUSB0 --speed 40
//	go run ./cmd/drivetest --dry-run
//
// Keys (followed by Enter): w forward, s reverse, a left, d right,
// x or empty line stop, q quit.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-lanebot/internal/config"
	ilog "github.com/teslashibe/go-lanebot/internal/log"
	"github.com/teslashibe/go-lanebot/pkg/drive"
)

func main() {
	configPath := flag.String("config", config.Path(""), "YAML config file")
	serialPort := flag.String("serial", "", "Motor board serial port")
	speed := flag.Float64("speed", 40, "Power for every maneuver, 0-100")
	dryRun := flag.Bool("dry-run", false, "Log commands instead of driving the motors")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("❌ Config error: %v\n", err)
		os.Exit(1)
	}
	ilog.Init(cfg.LogLevel)

	if *serialPort != "" {
		cfg.Drive.Port = *serialPort
	}
	if *dryRun {
		cfg.Drive.Driver = drive.DriverLog
	}

	fmt.Println("🕹️  Drive test")
	fmt.Println("==============")
	fmt.Printf("Driver: %s %s, speed %.0f, trim L=%.2f R=%.2f\n",
		cfg.Drive.Driver, cfg.Drive.Port, *speed, cfg.Drive.Trim.LeftBias, cfg.Drive.Trim.RightBias)

	act, err := drive.Open(cfg.Drive)
	if err != nil {
		fmt.Printf("❌ Motors: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := act.Stop(); err != nil {
			fmt.Printf("⚠️  Stop failed: %v\n", err)
		}
		if c, ok := act.(interface{ Close() error }); ok {
			c.Close()
		}
		fmt.Println("👋 Motors stopped")
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	fmt.Println("w/a/s/d to drive, x to stop, q to quit")
	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "q" {
				return
			}
			m, err := drive.ParseManeuver(line)
			if err != nil {
				fmt.Printf("❓ %v\n", err)
				continue
			}
			if err := drive.Perform(act, cfg.Drive.Trim, m, *speed); err != nil {
				fmt.Printf("❌ %s: %v\n", m, err)
				continue
			}
			fmt.Printf("✅ %s\n", m)
		}
	}
}
