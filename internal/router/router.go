package router

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/StardustXR/non-spatial-input/internal/event"
	"github.com/StardustXR/non-spatial-input/internal/logger"
	"github.com/StardustXR/non-spatial-input/internal/wire"
)

// State of a consumer. Every consumer passes through Draining before
// Stopped, because "stream closed after the last full frame" and "stream
// closed mid-frame" must be told apart before reporting success.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Sink applies one decoded event against the compositor. Implemented by the
// focus router and the pointer projector; everything else about consuming a
// stream is shared.
type Sink interface {
	Apply(ctx context.Context, ev event.Event) error
}

// Router drives one decode/apply loop over one input stream. Single
// goroutine, blocking reads; no event is ever applied out of order.
type Router struct {
	dec   *wire.Decoder
	sink  Sink
	state State
}

// New creates a router reading frames from r, normally stdin.
func New(r io.Reader, sink Sink) *Router {
	return &Router{
		dec:   wire.NewDecoder(r),
		sink:  sink,
		state: StateIdle,
	}
}

// State returns the router's current lifecycle state.
func (r *Router) State() State {
	return r.state
}

// Run consumes the stream until it ends. A clean end-of-stream returns nil:
// the producer going away is the expected terminal condition, not a failure.
// A version mismatch or a frame truncated by the transport closing mid-frame
// is returned as an error. A failed compositor call drops that one event and
// keeps streaming; one failed effect should not kill a healthy session.
func (r *Router) Run(ctx context.Context) error {
	r.state = StateStreaming

	for {
		if err := ctx.Err(); err != nil {
			r.state = StateStopped
			return err
		}

		ev, err := r.dec.Decode()
		if err != nil {
			r.state = StateDraining
			switch {
			case err == io.EOF:
				logger.Debug("Stream ended cleanly")
				r.state = StateStopped
				return nil
			case errors.Is(err, wire.ErrTruncatedFrame):
				r.state = StateStopped
				return err
			case errors.Is(err, wire.ErrVersionMismatch):
				r.state = StateStopped
				return err
			default:
				r.state = StateStopped
				return fmt.Errorf("read event stream: %w", err)
			}
		}

		if err := r.sink.Apply(ctx, ev); err != nil {
			logger.Warnf("Dropping %s event, compositor call failed: %v", ev.Kind(), err)
		}
	}
}
