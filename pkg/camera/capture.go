package camera

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/teslashibe/go-lanebot/internal/log"
	"github.com/teslashibe/go-lanebot/pkg/lane"
	"github.com/teslashibe/go-lanebot/pkg/vision"
	"gocv.io/x/gocv"
)

// Capture reads frames from an OpenCV VideoCapture in the background and
// keeps only the latest one.
type Capture struct {
	cfg Config
	vc  *gocv.VideoCapture

	mu      sync.Mutex
	latest  lane.Frame
	seq     uint64
	taken   uint64
	fresh   chan struct{} // closed and replaced on every new frame
	misses  uint64
	closed  bool
	done    chan struct{}
	stopped chan struct{}
}

// Open starts capturing from cfg.Device.
func Open(cfg Config) (*Capture, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera config: %v", errs)
	}

	var device interface{} = cfg.Device
	if idx, err := strconv.Atoi(cfg.Device); err == nil {
		device = idx
	}
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %s: %w", cfg.Device, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	if cfg.Brightness != 0 {
		vc.Set(gocv.VideoCaptureBrightness, cfg.Brightness)
	}

	c := &Capture{
		cfg:     cfg,
		vc:      vc,
		fresh:   make(chan struct{}),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go c.readLoop()

	log.Info("camera opened", "device", cfg.Device, "width", cfg.Width, "height", cfg.Height)
	return c, nil
}

func (c *Capture) readLoop() {
	defer close(c.stopped)

	img := gocv.NewMat()
	defer img.Close()
	rotated := gocv.NewMat()
	defer rotated.Close()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		if ok := c.vc.Read(&img); !ok || img.Empty() {
			c.mu.Lock()
			c.misses++
			c.mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			continue
		}

		src := img
		if c.cfg.Rotate180 {
			rotate180(img, &rotated)
			src = rotated
		}
		f, err := vision.FromMat(src)
		if err != nil {
			log.Warn("camera frame dropped", "error", err)
			continue
		}

		c.mu.Lock()
		c.latest = f
		c.seq++
		close(c.fresh)
		c.fresh = make(chan struct{})
		c.mu.Unlock()
	}
}

// NextFrame returns the newest frame not yet returned, waiting up to
// ReadTimeout for one to arrive.
func (c *Capture) NextFrame(ctx context.Context) (lane.Frame, error) {
	timer := time.NewTimer(c.cfg.ReadTimeout)
	defer timer.Stop()

	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return lane.Frame{}, ErrClosed
		}
		if c.seq > c.taken {
			c.taken = c.seq
			f := c.latest
			c.mu.Unlock()
			return f, nil
		}
		fresh := c.fresh
		c.mu.Unlock()

		select {
		case <-fresh:
		case <-timer.C:
			return lane.Frame{}, ErrNoFrame
		case <-c.done:
			return lane.Frame{}, ErrClosed
		case <-ctx.Done():
			return lane.Frame{}, ctx.Err()
		}
	}
}

// Misses returns the number of failed reads so far.
func (c *Capture) Misses() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.misses
}

// Close stops the reader and releases the device. Safe to call twice.
func (c *Capture) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	<-c.stopped
	return c.vc.Close()
}

// rotate180 flips around both axes.
func rotate180(src gocv.Mat, dst *gocv.Mat) {
	gocv.Flip(src, dst, -1)
}
