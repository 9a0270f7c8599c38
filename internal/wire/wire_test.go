package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StardustXR/non-spatial-input/internal/event"
)

func allVariants() []event.Event {
	return []event.Event{
		event.Key{Time: 1111, Code: 42, Pressed: true},
		event.Key{Time: 1112, Code: 42, Pressed: false},
		event.PointerMotion{Time: 2222, DX: 243.5, DY: -162.62},
		event.PointerAbsolute{Time: 3333, X: 64.25, Y: 12.5, Surface: 7},
		event.PointerButton{Time: 4444, Button: event.ButtonLeft, Pressed: true},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, ev := range allVariants() {
		t.Run(ev.Kind().String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewEncoder(&buf).Encode(ev))

			decoded, err := NewDecoder(&buf).Decode()
			require.NoError(t, err)
			assert.Equal(t, ev, decoded)
		})
	}
}

func TestOrderingPreserved(t *testing.T) {
	events := allVariants()
	// Several rounds to interleave variant types on the same stream.
	var stream []event.Event
	for i := 0; i < 5; i++ {
		stream = append(stream, events...)
	}

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, ev := range stream {
		require.NoError(t, enc.Encode(ev))
	}

	dec := NewDecoder(&buf)
	for i, want := range stream {
		got, err := dec.Decode()
		require.NoError(t, err, "event %d", i)
		assert.Equal(t, want, got, "event %d", i)
	}

	_, err := dec.Decode()
	assert.Equal(t, io.EOF, err)
}

func TestVersionGate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(event.Key{Code: 1, Pressed: true}))
	frame := buf.Bytes()
	frame[0] = Version + 1

	dec := NewDecoder(bytes.NewReader(frame))
	_, err := dec.Decode()
	require.ErrorIs(t, err, ErrVersionMismatch)

	// No further bytes are consumed after the mismatch.
	_, err = dec.Decode()
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

// chunkReader yields the stream in fixed-size pieces to simulate short reads.
type chunkReader struct {
	data  []byte
	chunk int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := c.chunk
	if n > len(c.data) {
		n = len(c.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

func TestPartialReadTolerance(t *testing.T) {
	want := event.PointerAbsolute{Time: 99, X: 1.5, Y: -2.5, Surface: 3}
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(want))
	frame := buf.Bytes()

	// Every possible split point, including one byte at a time.
	for chunk := 1; chunk < len(frame); chunk++ {
		dec := NewDecoder(&chunkReader{data: frame, chunk: chunk})
		got, err := dec.Decode()
		require.NoError(t, err, "chunk size %d", chunk)
		assert.Equal(t, want, got, "chunk size %d", chunk)
	}
}

func TestTruncatedFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(event.PointerMotion{DX: 1, DY: 2}))
	frame := buf.Bytes()

	tests := []struct {
		name string
		cut  int
	}{
		{"mid header", 1},
		{"after header", 2},
		{"mid payload", len(frame) - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := NewDecoder(bytes.NewReader(frame[:tt.cut]))
			_, err := dec.Decode()
			assert.ErrorIs(t, err, ErrTruncatedFrame)
		})
	}
}

func TestCleanEOFAfterLastFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(event.Key{Code: 9, Pressed: true}))

	dec := NewDecoder(&buf)
	_, err := dec.Decode()
	require.NoError(t, err)
	_, err = dec.Decode()
	assert.Equal(t, io.EOF, err)
}

func TestUnknownTag(t *testing.T) {
	dec := NewDecoder(bytes.NewReader([]byte{Version, 0x7f}))
	_, err := dec.Decode()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTruncatedFrame)
}
