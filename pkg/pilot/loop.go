package pilot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-lanebot/internal/log"
	"github.com/teslashibe/go-lanebot/pkg/camera"
	"github.com/teslashibe/go-lanebot/pkg/control"
	"github.com/teslashibe/go-lanebot/pkg/debug"
	"github.com/teslashibe/go-lanebot/pkg/drive"
	"github.com/teslashibe/go-lanebot/pkg/lane"
	"github.com/teslashibe/go-lanebot/pkg/protocol"
	"github.com/teslashibe/go-lanebot/pkg/stream"
)

// Phase is the loop state.
type Phase string

const (
	PhaseWarmup  Phase = "warmup"
	PhaseRun     Phase = "run"
	PhaseStopped Phase = "stopped"
)

// Observer receives telemetry from the loop goroutine. Implementations
// must not block.
type Observer interface {
	Observe(t protocol.TelemetryData)
	PhaseChanged(p protocol.PhaseData)
}

// FramePublisher accepts debug frames. *stream.Publisher implements it.
type FramePublisher interface {
	Publish(f lane.Frame) error
}

// Loop is the control loop: capture, perceive, steer, drive, publish.
// It runs on a single goroutine and owns the controller state.
type Loop struct {
	cfg    LoopConfig
	policy lane.Policy
	pid    control.Config
	trim   drive.Trim

	src  camera.Source
	perc lane.Perceiver
	act  drive.Actuator
	pub  FramePublisher
	obs  Observer

	logger *slog.Logger

	phase    Phase
	state    control.State
	tick     uint64
	lastTick time.Time
	warmup   warmupStats
	beat     heartbeat
}

type warmupStats struct {
	started    time.Time
	frames     int
	laneFrames int
	errorSum   float64
	skipped    int
}

func (w warmupStats) summary() *protocol.WarmupStats {
	s := &protocol.WarmupStats{
		Frames:      w.frames,
		LaneFrames:  w.laneFrames,
		Skipped:     w.skipped,
		DurationSec: time.Since(w.started).Seconds(),
	}
	if w.laneFrames > 0 {
		s.MeanError = w.errorSum / float64(w.laneFrames)
	}
	return s
}

// missCounter is implemented by sources that count failed device reads,
// such as *camera.Capture.
type missCounter interface {
	Misses() uint64
}

type heartbeat struct {
	last     time.Time
	ticks    int
	skipped  int
	noFrames int
}

// NewLoop wires a loop. pub and obs may be nil.
func NewLoop(cfg Config, src camera.Source, perc lane.Perceiver, act drive.Actuator, pub FramePublisher, obs Observer) *Loop {
	return &Loop{
		cfg:    cfg.Loop,
		policy: cfg.Lane.Policy,
		pid:    cfg.PID,
		trim:   cfg.Drive.Trim,
		src:    src,
		perc:   perc,
		act:    act,
		pub:    pub,
		obs:    obs,
		logger: log.Component("pilot"),
		phase:  PhaseStopped,
	}
}

// Phase returns the current phase. Only meaningful from the loop goroutine
// or after Run returned.
func (l *Loop) Phase() Phase {
	return l.phase
}

// Run warms up, then drives until ctx is cancelled. It returns nil on
// cancellation and an error if the frame source fails for good. It never
// stops the actuator; the owner does that on shutdown.
func (l *Loop) Run(ctx context.Context) error {
	l.warmup = warmupStats{started: time.Now()}
	l.beat = heartbeat{last: time.Now()}
	warmupEnd := time.Now().Add(l.cfg.Warmup)
	l.setPhase(PhaseWarmup, nil)

	fmt.Printf("🛣️  Lane follower warming up for %v (policy=%s, Kp=%.3f Ki=%.3f Kd=%.3f)\n",
		l.cfg.Warmup, l.policy, l.pid.Kp, l.pid.Ki, l.pid.Kd)

	for {
		if ctx.Err() != nil {
			l.setPhase(PhaseStopped, nil)
			return nil
		}

		if l.phase == PhaseWarmup && !time.Now().Before(warmupEnd) {
			stats := l.warmup.summary()
			l.logger.Info("warmup complete",
				"frames", stats.Frames,
				"lane_frames", stats.LaneFrames,
				"mean_error", stats.MeanError,
				"skipped", stats.Skipped)
			fmt.Println("🚗 Driving")
			l.setPhase(PhaseRun, stats)
		}

		err := l.Step(ctx)
		switch {
		case err == nil:
		case errors.Is(err, camera.ErrNoFrame):
			l.beat.noFrames++
			sleep(ctx, l.cfg.CaptureRetry)
			continue
		case ctx.Err() != nil:
			continue
		default:
			l.setPhase(PhaseStopped, nil)
			return fmt.Errorf("frame source: %w", err)
		}

		l.heartbeat()
		sleep(ctx, l.cfg.LoopDelay)
	}
}

// Step runs one tick. Only frame source errors are returned; perception
// failures are logged and the tick is skipped, leaving the previous wheel
// command in effect.
func (l *Loop) Step(ctx context.Context) error {
	frame, err := l.src.NextFrame(ctx)
	if err != nil {
		return err
	}

	res, err := l.perc.Perceive(frame)
	if err != nil {
		l.beat.skipped++
		if l.phase == PhaseWarmup {
			l.warmup.skipped++
		}
		l.logger.Warn("perception failed, skipping tick", "error", err)
		return nil
	}

	now := time.Now()
	var dt float64
	if !l.lastTick.IsZero() {
		dt = now.Sub(l.lastTick).Seconds()
	}
	l.lastTick = now
	l.tick++
	l.beat.ticks++

	warming := l.phase != PhaseRun
	var steer float64
	l.state, steer = control.Step(l.pid, l.state, res.Error, dt, warming)
	cmd := control.Steer(l.cfg.BaseSpeed, steer, l.cfg.TurnScale)

	actuated := false
	if warming {
		l.warmup.frames++
		if res.Found {
			l.warmup.laneFrames++
			l.warmup.errorSum += res.Error
		}
	} else if err := drive.Apply(l.act, l.trim, cmd); err != nil {
		l.logger.Error("actuator command failed", "error", err)
	} else {
		actuated = true
	}

	if l.pub != nil {
		if err := l.pub.Publish(res.Mask); err != nil && !errors.Is(err, stream.ErrClosed) {
			l.logger.Debug("debug frame not published", "error", err)
		}
	}

	debug.TickLog("%s %s  L=%5.1f R=%5.1f  %s\n", l.phase, lane.Slider(steer, l.policy.Scale()),
		cmd.Left, cmd.Right, foundMark(res.Found))

	if l.obs != nil {
		l.obs.Observe(protocol.TelemetryData{
			Tick:     l.tick,
			Phase:    string(l.phase),
			Policy:   string(l.policy),
			Error:    res.Error,
			Found:    res.Found,
			Steering: steer,
			Left:     cmd.Left,
			Right:    cmd.Right,
			Actuated: actuated,
			DtMs:     dt * 1000,
		})
	}
	return nil
}

// State returns the controller memory.
func (l *Loop) State() control.State {
	return l.state
}

func (l *Loop) setPhase(p Phase, stats *protocol.WarmupStats) {
	if l.phase == p {
		return
	}
	from := l.phase
	l.phase = p
	l.logger.Info("phase change", "from", from, "to", p)
	if l.obs != nil {
		l.obs.PhaseChanged(protocol.PhaseData{From: string(from), To: string(p), Warmup: stats})
	}
}

func (l *Loop) heartbeat() {
	if l.cfg.Heartbeat <= 0 {
		return
	}
	elapsed := time.Since(l.beat.last)
	if elapsed < l.cfg.Heartbeat {
		return
	}
	attrs := []any{
		"phase", l.phase,
		"hz", float64(l.beat.ticks) / elapsed.Seconds(),
		"skipped", l.beat.skipped,
		"no_frame", l.beat.noFrames,
	}
	if mc, ok := l.src.(missCounter); ok {
		attrs = append(attrs, "camera_misses", mc.Misses())
	}
	l.logger.Info("loop heartbeat", attrs...)
	l.beat = heartbeat{last: time.Now()}
}

func foundMark(found bool) string {
	if found {
		return "✓"
	}
	return "·"
}

// sleep waits d or until ctx is done. It reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
