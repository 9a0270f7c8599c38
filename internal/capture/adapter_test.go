package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StardustXR/non-spatial-input/internal/event"
	"github.com/StardustXR/non-spatial-input/internal/wire"
)

// scriptedBackend emits a fixed event sequence and then stops with the
// configured error.
type scriptedBackend struct {
	events  []event.Event
	stopErr error
	emit    func(event.Event)
}

func (b *scriptedBackend) OnEvent(emit func(event.Event)) { b.emit = emit }

func (b *scriptedBackend) Run(ctx context.Context) error {
	for _, ev := range b.events {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		b.emit(ev)
	}
	return b.stopErr
}

func decodeAll(t *testing.T, data []byte) []event.Event {
	t.Helper()
	dec := wire.NewDecoder(bytes.NewReader(data))
	var out []event.Event
	for {
		ev, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, ev)
	}
}

func TestAdapterEncodesInCaptureOrder(t *testing.T) {
	events := []event.Event{
		event.Key{Time: 1, Code: 30, Pressed: true},
		event.PointerMotion{Time: 2, DX: 5, DY: -3},
		event.PointerButton{Time: 3, Button: event.ButtonLeft, Pressed: true},
		event.PointerAbsolute{Time: 4, X: 100, Y: 200, Surface: 1},
		event.Key{Time: 5, Code: 30, Pressed: false},
	}

	var buf bytes.Buffer
	adapter := NewAdapter(&scriptedBackend{events: events}, &buf)
	require.NoError(t, adapter.Run(context.Background()))

	assert.Equal(t, events, decodeAll(t, buf.Bytes()))
}

func TestAdapterSourceLostIsClean(t *testing.T) {
	backend := &scriptedBackend{
		events:  []event.Event{event.Key{Time: 1, Code: 1, Pressed: true}},
		stopErr: ErrSourceLost,
	}

	var buf bytes.Buffer
	adapter := NewAdapter(backend, &buf)
	require.NoError(t, adapter.Run(context.Background()))

	// The event emitted before the source vanished still made it out.
	assert.Len(t, decodeAll(t, buf.Bytes()), 1)
}

func TestAdapterBackendFailure(t *testing.T) {
	backend := &scriptedBackend{stopErr: errors.New("device exploded")}
	adapter := NewAdapter(backend, &bytes.Buffer{})

	err := adapter.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device exploded")
}

type failWriter struct{ err error }

func (w failWriter) Write(p []byte) (int, error) { return 0, w.err }

func TestAdapterEncodeFailure(t *testing.T) {
	backend := &scriptedBackend{
		events: []event.Event{event.Key{Time: 1, Code: 1, Pressed: true}},
	}
	adapter := NewAdapter(backend, failWriter{err: errors.New("disk full")})

	err := adapter.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestAdapterCancel(t *testing.T) {
	// A backend that blocks until cancelled.
	blocking := &blockingBackend{}
	adapter := NewAdapter(blocking, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- adapter.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		// Interruption is a normal shutdown, not a failure.
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("adapter did not stop on cancel")
	}
}

type blockingBackend struct{}

func (b *blockingBackend) OnEvent(func(event.Event)) {}

func (b *blockingBackend) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
