package pilot

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/teslashibe/go-lanebot/internal/log"
	"github.com/teslashibe/go-lanebot/pkg/camera"
	"github.com/teslashibe/go-lanebot/pkg/debug"
	"github.com/teslashibe/go-lanebot/pkg/drive"
	"github.com/teslashibe/go-lanebot/pkg/lane"
	"github.com/teslashibe/go-lanebot/pkg/stream"
	"github.com/teslashibe/go-lanebot/pkg/vision"
	"github.com/teslashibe/go-lanebot/pkg/web"
)

// App owns every component of the vehicle.
type App struct {
	cfg Config

	src  camera.Source
	perc lane.Perceiver
	act  drive.Actuator
	enc  stream.Encoder

	pub  *stream.Publisher
	web  *web.Server
	loop *Loop

	shutdownOnce sync.Once
}

// Option replaces a component that Init would otherwise open from config.
type Option func(*App)

// WithSource uses s instead of opening the camera.
func WithSource(s camera.Source) Option {
	return func(a *App) { a.src = s }
}

// WithPerceiver uses p instead of building the configured backend.
func WithPerceiver(p lane.Perceiver) Option {
	return func(a *App) { a.perc = p }
}

// WithActuator uses act instead of opening the motor board.
func WithActuator(act drive.Actuator) Option {
	return func(a *App) { a.act = act }
}

// WithEncoder uses enc for debug frames instead of OpenCV JPEG.
func WithEncoder(enc stream.Encoder) Option {
	return func(a *App) { a.enc = enc }
}

// New validates cfg and creates an App. Nothing is opened until Init.
func New(cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug

	a := &App{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Init opens the components. On failure everything already opened is
// released again.
func (a *App) Init() error {
	fmt.Println("🚗 lanebot - single line follower")
	fmt.Println("=================================")
	if debug.Enabled {
		fmt.Println("🐛 Debug mode enabled")
	}

	if err := a.init(); err != nil {
		a.Shutdown()
		return err
	}
	return nil
}

func (a *App) init() error {
	if a.perc == nil {
		fmt.Printf("👁️  Perception: %s backend, %s policy\n", a.cfg.Vision.Backend, a.cfg.Lane.Policy)
		perc, err := vision.NewPerceiver(a.cfg.Vision, a.cfg.Lane)
		if err != nil {
			return fmt.Errorf("perception: %w", err)
		}
		a.perc = perc
	}

	if a.enc == nil {
		a.enc = vision.NewJPEGEncoder(a.cfg.Stream.Quality)
	}
	a.pub = stream.NewPublisher(a.enc, a.cfg.Stream)

	if a.act == nil {
		fmt.Printf("⚙️  Motors: %s driver %s... ", a.cfg.Drive.Driver, a.cfg.Drive.Port)
		act, err := drive.Open(a.cfg.Drive)
		if err != nil {
			fmt.Println("❌")
			return fmt.Errorf("actuator: %w", err)
		}
		fmt.Println("✅")
		a.act = act
	}

	if a.src == nil {
		fmt.Printf("📹 Camera %s %dx%d... ", a.cfg.Camera.Device, a.cfg.Camera.Width, a.cfg.Camera.Height)
		src, err := camera.Open(a.cfg.Camera)
		if err != nil {
			fmt.Println("❌")
			return fmt.Errorf("camera: %w", err)
		}
		fmt.Println("✅")
		a.src = src
	}

	var obs Observer
	if a.cfg.Web.Enabled {
		a.web = web.NewServer(a.cfg.Web, a.pub)
		a.web.SetSettings(a.cfg)
		obs = a.web
	}

	a.loop = NewLoop(a.cfg, a.src, a.perc, a.act, a.pub, obs)
	return nil
}

// Run starts the debug server and the control loop and blocks until ctx is
// cancelled or the frame source fails. Shutdown runs before Run returns.
func (a *App) Run(ctx context.Context) error {
	if a.loop == nil {
		return fmt.Errorf("pilot: Run called before Init")
	}
	defer a.Shutdown()

	if a.web != nil {
		if err := a.web.StartAsync(); err != nil {
			return err
		}
	}
	fmt.Println("   (Ctrl+C to stop)")
	return a.loop.Run(ctx)
}

// Publisher returns the debug frame publisher.
func (a *App) Publisher() *stream.Publisher {
	return a.pub
}

// Loop returns the control loop.
func (a *App) Loop() *Loop {
	return a.loop
}

// Shutdown stops the motors first, then the debug stream, then releases
// everything else. It is safe to call more than once.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		fmt.Println("\n👋 Stopping...")

		if a.act != nil {
			if err := a.act.Stop(); err != nil {
				log.Error("motor stop failed", "error", err)
			}
		}
		debug.Logln("🐛 motors stopped, closing debug stream")
		if a.pub != nil {
			a.pub.Stop()
		}

		if a.web != nil {
			if err := a.web.Shutdown(); err != nil {
				log.Warn("web shutdown", "error", err)
			}
		}
		closeQuietly("camera", a.src)
		closeQuietly("actuator", a.act)
		closeQuietly("perception", a.perc)
	})
}

func closeQuietly(name string, v interface{}) {
	c, ok := v.(io.Closer)
	if !ok || c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("close failed", "component", name, "error", err)
	}
}
