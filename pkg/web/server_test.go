package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-lanebot/pkg/debug"
	"github.com/teslashibe/go-lanebot/pkg/lane"
	"github.com/teslashibe/go-lanebot/pkg/protocol"
	"github.com/teslashibe/go-lanebot/pkg/stream"
)

func newTestPublisher() *stream.Publisher {
	enc := stream.EncoderFunc(func(f lane.Frame) ([]byte, error) {
		return append([]byte(nil), f.Pix...), nil
	})
	return stream.NewPublisher(enc, stream.Config{
		Quality:     70,
		MinInterval: 5 * time.Millisecond,
		EmptyWait:   5 * time.Millisecond,
	})
}

func TestNotFound(t *testing.T) {
	s := NewServer(DefaultConfig(), newTestPublisher())

	for _, path := range []string{"/", "/index.html", "/stream.mjpeg", "/api/nope"} {
		resp, err := s.App().Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, 404, resp.StatusCode, path)
		assert.Equal(t, NotFoundText, string(body), path)
	}
}

func TestStreamEndpoint(t *testing.T) {
	pub := newTestPublisher()
	s := NewServer(DefaultConfig(), pub)
	require.NoError(t, pub.PublishEncoded([]byte("jpeg-1")))

	go func() {
		time.Sleep(60 * time.Millisecond)
		_ = pub.PublishEncoded([]byte("jpeg-2"))
		time.Sleep(60 * time.Millisecond)
		pub.Stop()
	}()

	resp, err := s.App().Test(httptest.NewRequest("GET", "/stream.mjpg", nil), 3000)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "multipart/x-mixed-replace; boundary=frame", resp.Header.Get("Content-Type"))

	reader := stream.NewPartReader(resp.Body)
	seen := map[string]int{}
	for {
		part, err := reader.Next()
		if err != nil {
			break
		}
		assert.Equal(t, "image/jpeg", part.ContentType)
		seen[string(part.Data)]++
	}
	assert.Greater(t, seen["jpeg-1"], 0)
	assert.Greater(t, seen["jpeg-2"], 0)
	assert.Len(t, seen, 2)
	assert.Equal(t, 0, pub.Stats().Subscribers, "subscription released")
}

func TestAPI(t *testing.T) {
	pub := newTestPublisher()
	s := NewServer(DefaultConfig(), pub)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/config", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)

	s.SetSettings(map[string]int{"port": 8000})
	resp, err = s.App().Test(httptest.NewRequest("GET", "/api/config", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	s.Observe(protocol.TelemetryData{Tick: 7, Phase: "run", Left: 40, Right: 20})
	resp, err = s.App().Test(httptest.NewRequest("GET", "/api/status", nil))
	require.NoError(t, err)
	var status struct {
		Telemetry protocol.TelemetryData `json:"telemetry"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, uint64(7), status.Telemetry.Tick)
	assert.Equal(t, 40.0, status.Telemetry.Left)

	require.NoError(t, pub.PublishEncoded([]byte("a")))
	require.NoError(t, pub.PublishEncoded([]byte("b")))
	resp, err = s.App().Test(httptest.NewRequest("GET", "/api/stream/stats", nil))
	require.NoError(t, err)
	var st protocol.StreamData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, uint64(2), st.Published)
	assert.Equal(t, uint64(1), st.Dropped)
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	s := NewServer(DefaultConfig(), newTestPublisher())
	resp, err := s.App().Test(httptest.NewRequest("GET", "/ws/telemetry", nil))
	require.NoError(t, err)
	assert.Equal(t, 426, resp.StatusCode)
}

func TestTelemetryWebSocket(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TelemetryInterval = 0
	s := NewServer(cfg, newTestPublisher())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go s.Serve(ln)
	defer s.Shutdown()

	url := fmt.Sprintf("ws://%s/ws/telemetry", ln.Addr())
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool { return s.TelemetryHub().ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	s.Observe(protocol.TelemetryData{Tick: 1, Phase: "run", Steering: -0.3})

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	msg, err := protocol.ParseMessage(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeTelemetry, msg.Type)
	tel, err := msg.GetTelemetryData()
	require.NoError(t, err)
	assert.Equal(t, -0.3, tel.Steering)

	// Protocol ping gets a pong
	ping, _ := protocol.NewPingMessage("p1")
	raw, _ := ping.Bytes()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, raw))
	_, data, err = ws.ReadMessage()
	require.NoError(t, err)
	msg, err = protocol.ParseMessage(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypePong, msg.Type)

	ws.Close()
	require.Eventually(t, func() bool { return s.TelemetryHub().ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.Validate())
	assert.Equal(t, ":8000", cfg.Addr())

	cfg.Port = 0
	assert.Len(t, cfg.Validate(), 1)

	cfg.Enabled = false
	assert.Empty(t, cfg.Validate(), "a disabled server needs no port")
}

func TestStreamViewerDebugLines(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevEnabled := debug.Output, debug.Enabled
	debug.Output, debug.Enabled = &buf, true
	defer func() { debug.Output, debug.Enabled = prevOut, prevEnabled }()

	pub := newTestPublisher()
	s := NewServer(DefaultConfig(), pub)
	require.NoError(t, pub.PublishEncoded([]byte("jpeg")))
	go func() {
		time.Sleep(30 * time.Millisecond)
		pub.Stop()
	}()

	resp, err := s.App().Test(httptest.NewRequest("GET", "/stream.mjpg", nil), 3000)
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)

	out := buf.String()
	assert.Contains(t, out, "connected (1 watching)")
	assert.Contains(t, out, "done after")
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestShutdownRightAfterStartAsync(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = freePort(t)
	s := NewServer(cfg, newTestPublisher())

	require.NoError(t, s.StartAsync())
	require.NoError(t, s.Shutdown())

	select {
	case <-s.TelemetryHub().Done():
	case <-time.After(time.Second):
		t.Fatal("telemetry hub still running after Shutdown")
	}

	// The serve goroutine must not grab the port back after Shutdown.
	time.Sleep(50 * time.Millisecond)
	ln, err := net.Listen("tcp", cfg.Addr())
	require.NoError(t, err, "port released")
	ln.Close()

	assert.ErrorIs(t, s.StartAsync(), ErrServerClosed)
}
