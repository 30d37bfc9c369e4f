package web

import (
	"bufio"
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-lanebot/internal/log"
	"github.com/teslashibe/go-lanebot/pkg/debug"
	"github.com/teslashibe/go-lanebot/pkg/hub"
	"github.com/teslashibe/go-lanebot/pkg/protocol"
	"github.com/teslashibe/go-lanebot/pkg/stream"
)

// StreamHandler serves /stream.mjpg. One handler is built at startup and
// shared by every connection; each connection gets its own subscription.
type StreamHandler struct {
	pub *stream.Publisher
}

// NewStreamHandler binds a handler to a publisher.
func NewStreamHandler(pub *stream.Publisher) *StreamHandler {
	return &StreamHandler{pub: pub}
}

// Handle streams frames until the client goes away or the publisher stops.
func (h *StreamHandler) Handle(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, stream.ContentType)
	c.Set(fiber.HeaderCacheControl, "no-cache, private")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderAge, "0")

	sub := h.pub.Subscribe()
	remote := c.IP()
	log.Debug("stream viewer connected", "remote", remote, "subscription", sub.ID())
	debug.Log("🐛 stream viewer %s connected (%d watching)\n", remote, h.pub.Stats().Subscribers)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer sub.Close()
		n, err := stream.Serve(context.Background(), w, sub)
		if err != nil {
			// Write errors just mean the viewer disconnected.
			log.Debug("stream viewer disconnected", "remote", remote, "frames", n, "error", err)
			return
		}
		log.Debug("stream ended", "remote", remote, "frames", n)
		debug.Log("🐛 stream viewer %s done after %d frames\n", remote, n)
	})
	return nil
}

// handleStatus returns the latest tick
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return c.JSON(fiber.Map{
		"telemetry": s.state,
		"phase":     s.phase,
		"clients":   s.telemetryHub.ClientCount(),
	})
}

// handleStreamStats returns publisher counters
func (s *Server) handleStreamStats(c *fiber.Ctx) error {
	st := s.pub.Stats()
	return c.JSON(protocol.StreamData{
		Published:    st.Published,
		Dropped:      st.Dropped,
		EncodeErrors: st.EncodeErrors,
		Delivered:    st.Delivered,
		LastSeq:      st.LastSeq,
		Subscribers:  st.Subscribers,
	})
}

// handleConfig returns the active configuration
func (s *Server) handleConfig(c *fiber.Ctx) error {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	if s.settings == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "configuration not published",
		})
	}
	return c.JSON(s.settings)
}

// handleTelemetryWS attaches a websocket client to the telemetry hub
func (s *Server) handleTelemetryWS(c *websocket.Conn) {
	client := hub.NewClient(s.telemetryHub, c)
	if client == nil {
		c.Close()
		return
	}
	client.Run()
}
