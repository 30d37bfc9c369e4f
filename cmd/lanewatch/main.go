// Command lanewatch follows a running lanebot from another machine. It
// prints the telemetry feed and counts frames on the MJPEG debug stream.
//
// Usage:
//
//	go run ./cmd/lanewatch --addr 192.168.1.20:8000
//	go run ./cmd/lanewatch --addr localhost:8000 --no-video
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-lanebot/internal/httpc"
	"github.com/teslashibe/go-lanebot/pkg/lane"
	"github.com/teslashibe/go-lanebot/pkg/protocol"
	"github.com/teslashibe/go-lanebot/pkg/stream"
)

func main() {
	addr := flag.String("addr", "localhost:8000", "lanebot debug server host:port")
	noVideo := flag.Bool("no-video", false, "Skip the MJPEG stream")
	every := flag.Int("every", 10, "Print every Nth telemetry tick")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("🔭 Watching %s\n", *addr)

	var status struct {
		Phase     protocol.PhaseData     `json:"phase"`
		Telemetry protocol.TelemetryData `json:"telemetry"`
		Clients   int                    `json:"clients"`
	}
	if err := httpc.GetJSON(ctx, "http://"+*addr+"/api/status", &status); err != nil {
		fmt.Printf("❌ Status: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("   phase %s, tick %d, %d telemetry clients\n", status.Phase.To, status.Telemetry.Tick, status.Clients)

	if !*noVideo {
		go watchStream(ctx, "http://"+*addr+"/stream.mjpg")
	}

	if err := watchTelemetry(ctx, "ws://"+*addr+"/ws/telemetry", *every); err != nil && ctx.Err() == nil {
		fmt.Printf("❌ Telemetry: %v\n", err)
		os.Exit(1)
	}
}

func watchTelemetry(ctx context.Context, url string, every int) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	ping, _ := protocol.NewPingMessage("lanewatch")
	if data, err := ping.Bytes(); err == nil {
		conn.WriteMessage(websocket.TextMessage, data)
	}

	sample := newSampler(every)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case protocol.TypeTelemetry:
			t, err := msg.GetTelemetryData()
			if err != nil || !sample.take() {
				continue
			}
			fmt.Printf("#%-6d %-7s %s  L=%5.1f R=%5.1f  dt=%4.1fms\n",
				t.Tick, t.Phase, lane.Slider(t.Steering, lane.Policy(t.Policy).Scale()), t.Left, t.Right, t.DtMs)
		case protocol.TypePhase:
			p, err := msg.GetPhaseData()
			if err != nil {
				continue
			}
			fmt.Printf("🚦 %s → %s\n", p.From, p.To)
			if p.Warmup != nil {
				fmt.Printf("   warmup: %d frames, %d with lane, mean error %.3f\n",
					p.Warmup.Frames, p.Warmup.LaneFrames, p.Warmup.MeanError)
			}
		case protocol.TypePong:
			if p, err := msg.GetPongData(); err == nil {
				fmt.Printf("🏓 pong after %v\n", time.Since(time.UnixMilli(p.PingTS)).Round(time.Millisecond))
			}
		}
	}
}

// sampler passes the first of every n received messages. The server
// already throttles telemetry, so tick numbers arrive with gaps and cannot
// be used for this.
type sampler struct {
	n, seen int
}

func newSampler(n int) *sampler {
	if n < 1 {
		n = 1
	}
	return &sampler{n: n}
}

func (s *sampler) take() bool {
	ok := s.seen%s.n == 0
	s.seen++
	return ok
}

func watchStream(ctx context.Context, url string) {
	resp, err := httpc.OpenStream(ctx, url)
	if err != nil {
		fmt.Printf("⚠️  Stream: %v\n", err)
		return
	}
	defer resp.Body.Close()

	pr := stream.NewPartReader(resp.Body)
	var frames, bytes int
	start := time.Now()
	report := time.NewTicker(5 * time.Second)
	defer report.Stop()
	for {
		part, err := pr.Next()
		if err != nil {
			if ctx.Err() == nil {
				fmt.Printf("⚠️  Stream ended: %v\n", err)
			}
			return
		}
		frames++
		bytes += len(part.Data)

		select {
		case <-report.C:
			secs := time.Since(start).Seconds()
			fmt.Printf("🎞️  %d frames, %.1f fps, %.0f KB/s\n", frames, float64(frames)/secs, float64(bytes)/1024/secs)
		default:
		}
	}
}
