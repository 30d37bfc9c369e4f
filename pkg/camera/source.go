package camera

import (
	"context"
	"errors"

	"github.com/teslashibe/go-lanebot/pkg/lane"
)

var (
	// ErrNoFrame means no new frame arrived in time. It is transient;
	// callers retry.
	ErrNoFrame = errors.New("camera: no frame available")

	// ErrClosed means the source was closed.
	ErrClosed = errors.New("camera: closed")
)

// Source produces camera frames.
type Source interface {
	// NextFrame returns a frame newer than the previous call's.
	NextFrame(ctx context.Context) (lane.Frame, error)
	Close() error
}
