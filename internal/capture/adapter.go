package capture

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/StardustXR/non-spatial-input/internal/event"
	"github.com/StardustXR/non-spatial-input/internal/logger"
	"github.com/StardustXR/non-spatial-input/internal/wire"
	"golang.org/x/sys/unix"
)

// Adapter connects one backend to one wire stream. It is the only writer:
// backend callbacks enqueue events in capture order and a single loop drains
// the queue through the encoder, so frames can never interleave.
type Adapter struct {
	backend Backend
	enc     *wire.Encoder
	queue   chan event.Event
}

// NewAdapter wires a backend to an output stream, normally stdout.
func NewAdapter(backend Backend, w io.Writer) *Adapter {
	return &Adapter{
		backend: backend,
		enc:     wire.NewEncoder(w),
		queue:   make(chan event.Event, 64),
	}
}

// Run captures and encodes until the backend stops or the consumer goes
// away. A lost host source and a vanished consumer (broken pipe) are both
// normal terminations: the stream ends on a frame boundary and Run returns
// nil. Any other encode failure is returned as an error.
func (a *Adapter) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.backend.OnEvent(func(ev event.Event) {
		select {
		case a.queue <- ev:
		case <-ctx.Done():
		}
	})

	backendErr := make(chan error, 1)
	go func() {
		backendErr <- a.backend.Run(ctx)
	}()

	for {
		select {
		case ev := <-a.queue:
			if err := a.encode(ev); err != nil {
				if errors.Is(err, unix.EPIPE) {
					logger.Info("Consumer closed the pipe, stopping capture")
					return nil
				}
				return err
			}
		case err := <-backendErr:
			// Drain events the backend emitted before it stopped.
			for {
				select {
				case ev := <-a.queue:
					if encErr := a.encode(ev); encErr != nil {
						if errors.Is(encErr, unix.EPIPE) {
							return nil
						}
						return encErr
					}
				default:
					return a.finish(err)
				}
			}
		}
	}
}

func (a *Adapter) encode(ev event.Event) error {
	if err := a.enc.Encode(ev); err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Kind(), err)
	}
	return nil
}

func (a *Adapter) finish(err error) error {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return nil
	case errors.Is(err, ErrSourceLost):
		logger.Info("Host input source lost, shutting down cleanly")
		return nil
	default:
		return fmt.Errorf("capture backend: %w", err)
	}
}
