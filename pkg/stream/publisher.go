// Package stream holds the latest encoded debug frame and serves it to any
// number of viewers as an MJPEG multipart stream.
//
// The Publisher is a single slot: every Publish replaces the previous frame
// and a slow viewer simply skips whatever it missed. Publishing never waits
// on a viewer.
package stream

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-lanebot/pkg/lane"
)

// ErrClosed is returned once the publisher has been stopped.
var ErrClosed = errors.New("stream: publisher stopped")

// Encoder turns a frame into the bytes that go on the wire (JPEG).
type Encoder interface {
	Encode(f lane.Frame) ([]byte, error)
}

// EncoderFunc adapts a function to Encoder.
type EncoderFunc func(f lane.Frame) ([]byte, error)

// Encode calls fn.
func (fn EncoderFunc) Encode(f lane.Frame) ([]byte, error) {
	return fn(f)
}

// Config controls encoding and viewer pacing.
type Config struct {
	// Quality is the JPEG quality, 1-100.
	Quality int `json:"quality" yaml:"quality"`
	// MinInterval is the shortest gap between two frames to one viewer.
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval"`
	// EmptyWait is how long a viewer sleeps when nothing is published yet.
	EmptyWait time.Duration `json:"empty_wait" yaml:"empty_wait"`
	// SkipRepeats makes viewers wait for a new frame instead of resending
	// the current one at MinInterval.
	SkipRepeats bool `json:"skip_repeats" yaml:"skip_repeats"`
}

// DefaultConfig paces viewers at ~30 fps with quality 70.
func DefaultConfig() Config {
	return Config{
		Quality:     70,
		MinInterval: time.Second / 30,
		EmptyWait:   100 * time.Millisecond,
	}
}

// Validate returns a list of problems, or nil.
func (c *Config) Validate() []string {
	var errs []string
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, "quality must be between 1 and 100")
	}
	if c.MinInterval < 0 {
		errs = append(errs, "min_interval must not be negative")
	}
	if c.EmptyWait <= 0 {
		errs = append(errs, "empty_wait must be positive")
	}
	return errs
}

// Frame is one published encoding. Data is never modified after publish.
type Frame struct {
	Seq       uint64
	Data      []byte
	Timestamp time.Time
}

// Stats are publisher counters.
type Stats struct {
	Published    uint64 `json:"published"`
	Dropped      uint64 `json:"dropped"` // overwritten before any viewer read them
	EncodeErrors uint64 `json:"encode_errors"`
	Delivered    uint64 `json:"delivered"`
	LastSeq      uint64 `json:"last_seq"`
	Subscribers  int    `json:"subscribers"`
	Stopped      bool   `json:"stopped"`
}

// Publisher is the single-slot, most-recent-wins frame buffer.
type Publisher struct {
	enc Encoder
	cfg Config

	mu      sync.Mutex
	latest  *Frame
	read    bool
	changed chan struct{} // closed and replaced on every publish
	subs    map[string]*Subscription
	stats   Stats
	stopped bool
	done    chan struct{}
}

// NewPublisher creates an empty publisher.
func NewPublisher(enc Encoder, cfg Config) *Publisher {
	return &Publisher{
		enc:     enc,
		cfg:     cfg,
		changed: make(chan struct{}),
		subs:    make(map[string]*Subscription),
		done:    make(chan struct{}),
	}
}

// Publish encodes f and makes it the current frame. Encoding happens
// outside the lock; only the slot swap is serialized.
func (p *Publisher) Publish(f lane.Frame) error {
	if p.isStopped() {
		return ErrClosed
	}
	data, err := p.enc.Encode(f)
	if err != nil {
		p.mu.Lock()
		p.stats.EncodeErrors++
		p.mu.Unlock()
		return err
	}
	return p.PublishEncoded(data)
}

// PublishEncoded makes data the current frame. The publisher takes
// ownership of data; the caller must not modify it afterwards.
func (p *Publisher) PublishEncoded(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrClosed
	}
	if p.latest != nil && !p.read {
		p.stats.Dropped++
	}
	p.stats.LastSeq++
	p.stats.Published++
	p.latest = &Frame{Seq: p.stats.LastSeq, Data: data, Timestamp: time.Now()}
	p.read = false

	close(p.changed)
	p.changed = make(chan struct{})
	return nil
}

// Latest returns the current frame, if any, without counting a delivery.
func (p *Publisher) Latest() (Frame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest == nil {
		return Frame{}, false
	}
	return *p.latest, true
}

// Subscribe registers a viewer.
func (p *Publisher) Subscribe() *Subscription {
	s := &Subscription{id: uuid.NewString(), p: p}
	p.mu.Lock()
	p.subs[s.id] = s
	p.mu.Unlock()
	return s
}

// Stats returns a snapshot of the counters.
func (p *Publisher) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.stats
	st.Subscribers = len(p.subs)
	st.Stopped = p.stopped
	return st
}

// Config returns the publisher configuration.
func (p *Publisher) Config() Config {
	return p.cfg
}

// Stop releases every waiting viewer and rejects further publishes.
// Safe to call more than once.
func (p *Publisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	close(p.done)
}

// Done is closed when the publisher stops.
func (p *Publisher) Done() <-chan struct{} {
	return p.done
}

func (p *Publisher) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// poll returns the current frame and the channel that will close on the
// next publish.
func (p *Publisher) poll() (Frame, bool, <-chan struct{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return Frame{}, false, nil, ErrClosed
	}
	if p.latest == nil {
		return Frame{}, false, p.changed, nil
	}
	p.read = true
	p.stats.Delivered++
	return *p.latest, true, p.changed, nil
}

func (p *Publisher) remove(id string) {
	p.mu.Lock()
	delete(p.subs, id)
	p.mu.Unlock()
}
