package stream

import (
	"context"
	"time"
)

// Subscription is one viewer's handle on a Publisher. It is not safe for
// concurrent use; each viewer goroutine owns its own.
type Subscription struct {
	id   string
	p    *Publisher
	last uint64
	sent time.Time
}

// ID identifies the subscription.
func (s *Subscription) ID() string {
	return s.id
}

// Poll returns the newest frame, or false if nothing was published yet
// or the publisher is stopped.
func (s *Subscription) Poll() (Frame, bool) {
	f, ok, _, err := s.p.poll()
	if err != nil || !ok {
		return Frame{}, false
	}
	s.last = f.Seq
	return f, true
}

// Next blocks until it is time to send the next frame to this viewer and
// returns the newest one. Frames are at least MinInterval apart. When
// nothing has been published yet it rechecks every EmptyWait. It returns
// ErrClosed after Stop and ctx.Err() on cancellation.
func (s *Subscription) Next(ctx context.Context) (Frame, error) {
	cfg := s.p.cfg

	if !s.sent.IsZero() {
		if wait := cfg.MinInterval - time.Since(s.sent); wait > 0 {
			if err := s.sleep(ctx, wait, nil); err != nil {
				return Frame{}, err
			}
		}
	}

	for {
		f, ok, changed, err := s.p.poll()
		if err != nil {
			return Frame{}, err
		}
		if ok && !(cfg.SkipRepeats && f.Seq == s.last) {
			s.last = f.Seq
			s.sent = time.Now()
			return f, nil
		}

		wake := changed
		if !ok {
			// Nothing yet: plain sleep, like a viewer that polls.
			wake = nil
		}
		if err := s.sleep(ctx, cfg.EmptyWait, wake); err != nil {
			return Frame{}, err
		}
	}
}

// Close unregisters the subscription.
func (s *Subscription) Close() {
	s.p.remove(s.id)
}

func (s *Subscription) sleep(ctx context.Context, d time.Duration, wake <-chan struct{}) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-wake:
		return nil
	case <-s.p.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
