package stream

import (
	"context"
	"errors"
	"io"
)

type flusher interface {
	Flush() error
}

// Serve writes frames from sub to w until ctx is done, the publisher stops
// or a write fails. If w can Flush, every part is flushed. It returns the
// number of parts written; a publisher stop or cancellation is not an
// error.
func Serve(ctx context.Context, w io.Writer, sub *Subscription) (int, error) {
	fl, _ := w.(flusher)
	n := 0
	for {
		f, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return n, nil
			}
			return n, err
		}
		if err := WritePart(w, f.Data); err != nil {
			return n, err
		}
		if fl != nil {
			if err := fl.Flush(); err != nil {
				return n, err
			}
		}
		n++
	}
}
