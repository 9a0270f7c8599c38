// Package capture implements the producer side of the pipeline: host input
// sources translated into normalized events and framed onto standard output.
package capture

import (
	"context"
	"errors"

	"github.com/StardustXR/non-spatial-input/internal/event"
)

// ErrSourceLost is returned by a backend when its host source goes away mid
// run: the captured device was unplugged, or the capture window was
// destroyed. The adapter turns it into a clean end-of-stream, never a
// half-written frame.
var ErrSourceLost = errors.New("capture: host input source lost")

// Backend is one host input source. Implementations translate raw host
// events 1:1 into normalized events and hand them to the registered callback
// in exactly host delivery order; they never buffer, coalesce, or reorder.
type Backend interface {
	// OnEvent registers the event callback. Must be called before Run.
	// The callback may block; backends treat that as backpressure.
	OnEvent(func(event.Event))

	// Run captures until the context is canceled or the host source is
	// lost. It returns nil on cancellation and ErrSourceLost when the
	// source disappears.
	Run(ctx context.Context) error
}
