// Package web serves the vehicle's debug surface: the MJPEG stream, a small
// JSON status API and the telemetry websocket.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-lanebot/internal/log"
	"github.com/teslashibe/go-lanebot/pkg/hub"
	"github.com/teslashibe/go-lanebot/pkg/protocol"
	"github.com/teslashibe/go-lanebot/pkg/stream"
)

// ErrServerClosed is returned when starting a server after Shutdown.
var ErrServerClosed = errors.New("web: server closed")

// NotFoundText is the body of every 404.
const NotFoundText = "Not Found. Access /stream.mjpg for the video feed."

// Config holds the debug server settings.
type Config struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Host    string `json:"host" yaml:"host"`
	Port    int    `json:"port" yaml:"port"`

	// TelemetryInterval throttles websocket telemetry; ticks in between
	// only update /api/status.
	TelemetryInterval time.Duration `json:"telemetry_interval" yaml:"telemetry_interval"`
}

// DefaultConfig listens on :8000 and pushes telemetry at 10 Hz.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		Port:              8000,
		TelemetryInterval: 100 * time.Millisecond,
	}
}

// Validate returns a list of problems, or nil.
func (c *Config) Validate() []string {
	var errs []string
	if !c.Enabled {
		return nil
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}
	if c.TelemetryInterval < 0 {
		errs = append(errs, "telemetry_interval must not be negative")
	}
	return errs
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

// Server is the debug HTTP server.
type Server struct {
	app *fiber.App
	cfg Config
	pub *stream.Publisher

	telemetryHub *hub.Hub

	lifeMu    sync.Mutex
	hubCancel context.CancelFunc
	listeners []net.Listener
	closed    bool

	// State
	state    protocol.TelemetryData
	phase    protocol.PhaseData
	stateMu  sync.RWMutex
	lastPush time.Time

	settings   interface{}
	settingsMu sync.RWMutex
}

// NewServer creates the server around a frame publisher.
func NewServer(cfg Config, pub *stream.Publisher) *Server {
	s := &Server{
		cfg:          cfg,
		pub:          pub,
		telemetryHub: hub.New("telemetry"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "lanebot",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	// Debug stream
	app.Get("/stream.mjpg", NewStreamHandler(pub).Handle)

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/stream/stats", s.handleStreamStats)
	api.Get("/config", s.handleConfig)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/telemetry", websocket.New(s.handleTelemetryWS))

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).SendString(NotFoundText)
	})

	s.app = app
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// startHub runs the telemetry hub once. It reports false after Shutdown.
func (s *Server) startHub() bool {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.closed {
		return false
	}
	if s.hubCancel == nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.hubCancel = cancel
		go s.telemetryHub.Run(ctx)
	}
	return true
}

// track records ln for Shutdown. After Shutdown it closes ln instead.
func (s *Server) track(ln net.Listener) bool {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.closed {
		ln.Close()
		return false
	}
	s.listeners = append(s.listeners, ln)
	return true
}

func (s *Server) isClosed() bool {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	return s.closed
}

// Start serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	fmt.Printf("🌐 Debug stream: http://%s/stream.mjpg\n", displayAddr(s.cfg))
	return s.Serve(ln)
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	if !s.startHub() {
		ln.Close()
		return ErrServerClosed
	}
	if !s.track(ln) {
		return ErrServerClosed
	}
	return s.app.Listener(ln)
}

// StartAsync binds the port and starts the hub before returning, then
// serves in a goroutine. A Shutdown that follows always sees both.
func (s *Server) StartAsync() error {
	if !s.startHub() {
		return ErrServerClosed
	}
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("web: listen %s: %w", s.cfg.Addr(), err)
	}
	if !s.track(ln) {
		return ErrServerClosed
	}
	fmt.Printf("🌐 Debug stream: http://%s/stream.mjpg\n", displayAddr(s.cfg))

	go func() {
		if err := s.app.Listener(ln); err != nil && !s.isClosed() {
			log.Error("web server stopped", "error", err)
		}
	}()
	return nil
}

// Observe records one tick of telemetry and pushes it to websocket
// clients at most once per TelemetryInterval.
func (s *Server) Observe(t protocol.TelemetryData) {
	s.stateMu.Lock()
	s.state = t
	push := time.Since(s.lastPush) >= s.cfg.TelemetryInterval
	if push {
		s.lastPush = time.Now()
	}
	s.stateMu.Unlock()

	if push && s.telemetryHub.ClientCount() > 0 {
		if err := s.telemetryHub.Publish(protocol.TypeTelemetry, t); err != nil {
			log.Warn("telemetry encode failed", "error", err)
		}
	}
}

// PhaseChanged records and broadcasts a phase transition.
func (s *Server) PhaseChanged(p protocol.PhaseData) {
	s.stateMu.Lock()
	s.phase = p
	s.state.Phase = p.To
	s.stateMu.Unlock()

	if err := s.telemetryHub.Publish(protocol.TypePhase, p); err != nil {
		log.Warn("phase encode failed", "error", err)
	}
}

// SetSettings sets the value served on /api/config.
func (s *Server) SetSettings(v interface{}) {
	s.settingsMu.Lock()
	s.settings = v
	s.settingsMu.Unlock()
}

// TelemetryHub returns the telemetry hub for external use
func (s *Server) TelemetryHub() *hub.Hub {
	return s.telemetryHub
}

// Shutdown stops the hub and the server and releases the port. Open
// stream handlers end when the publisher is stopped, which the caller
// does first. Later Start calls fail with ErrServerClosed.
func (s *Server) Shutdown() error {
	s.lifeMu.Lock()
	s.closed = true
	cancel := s.hubCancel
	listeners := s.listeners
	s.listeners = nil
	s.lifeMu.Unlock()

	if cancel != nil {
		cancel()
	}
	err := s.app.ShutdownWithTimeout(2 * time.Second)
	// The serve goroutine may not have reached Accept yet, in which case
	// fiber does not know the listener.
	for _, ln := range listeners {
		ln.Close()
	}
	return err
}

func displayAddr(c Config) string {
	if c.Host == "" {
		return fmt.Sprintf("localhost:%d", c.Port)
	}
	return c.Addr()
}
