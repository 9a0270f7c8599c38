// Package wire implements the versioned binary framing of the event stream.
// Producers and consumers are built independently and glued together with an
// OS pipe at runtime, so the layout here is the whole contract between them:
// one version byte, one variant tag, and a fixed-size little-endian payload
// per variant. No length prefixes; frame size follows from the tag alone.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/StardustXR/non-spatial-input/internal/event"
)

// Version is the current wire format revision. A decoder never attempts to
// negotiate down; a foreign version byte is a hard error.
const Version byte = 1

// Variant tags, byte 1 of every frame.
const (
	tagKey             byte = 0
	tagPointerMotion   byte = 1
	tagPointerAbsolute byte = 2
	tagPointerButton   byte = 3
)

// Payload sizes per tag, excluding the two header bytes. Every payload leads
// with the u64 capture timestamp.
const (
	sizeKey             = 8 + 4 + 1
	sizePointerMotion   = 8 + 8 + 8
	sizePointerAbsolute = 8 + 8 + 8 + 8
	sizePointerButton   = 8 + 1 + 1
)

var (
	// ErrVersionMismatch is returned when a frame's version byte differs
	// from Version. The decoder consumes no further bytes after it.
	ErrVersionMismatch = errors.New("wire: protocol version mismatch")

	// ErrTruncatedFrame is returned when the stream ends in the middle of a
	// frame. End-of-stream on a frame boundary is io.EOF, not this.
	ErrTruncatedFrame = errors.New("wire: truncated frame at end of stream")
)

func payloadSize(tag byte) (int, error) {
	switch tag {
	case tagKey:
		return sizeKey, nil
	case tagPointerMotion:
		return sizePointerMotion, nil
	case tagPointerAbsolute:
		return sizePointerAbsolute, nil
	case tagPointerButton:
		return sizePointerButton, nil
	}
	return 0, fmt.Errorf("wire: unknown variant tag %#x", tag)
}

// Encoder writes events as self-delimiting frames. It performs exactly one
// Write call per event so a frame is never left half-written by a failure
// between writes; a partial frame can only result from the transport itself
// dying mid-write, which the producer treats as fatal anyway.
type Encoder struct {
	w   io.Writer
	buf [2 + sizePointerAbsolute]byte
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode frames one event onto the stream.
func (e *Encoder) Encode(ev event.Event) error {
	buf := e.buf[:0]
	buf = append(buf, Version)

	switch ev := ev.(type) {
	case event.Key:
		buf = append(buf, tagKey)
		buf = binary.LittleEndian.AppendUint64(buf, ev.Time)
		buf = binary.LittleEndian.AppendUint32(buf, ev.Code)
		buf = appendBool(buf, ev.Pressed)
	case event.PointerMotion:
		buf = append(buf, tagPointerMotion)
		buf = binary.LittleEndian.AppendUint64(buf, ev.Time)
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(ev.DX))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(ev.DY))
	case event.PointerAbsolute:
		buf = append(buf, tagPointerAbsolute)
		buf = binary.LittleEndian.AppendUint64(buf, ev.Time)
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(ev.X))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(ev.Y))
		buf = binary.LittleEndian.AppendUint64(buf, ev.Surface)
	case event.PointerButton:
		buf = append(buf, tagPointerButton)
		buf = binary.LittleEndian.AppendUint64(buf, ev.Time)
		buf = append(buf, ev.Button)
		buf = appendBool(buf, ev.Pressed)
	default:
		return fmt.Errorf("wire: cannot encode event kind %s", ev.Kind())
	}

	if _, err := e.w.Write(buf); err != nil {
		return fmt.Errorf("wire: write frame: %w", err)
	}
	return nil
}

func appendBool(buf []byte, b bool) []byte {
	if b {
		return append(buf, 1)
	}
	return append(buf, 0)
}

// Decoder reads frames back into events. It resumes from wherever bytes are
// currently available: a short read mid-frame just blocks for more, and only
// the transport closing mid-frame produces ErrTruncatedFrame.
type Decoder struct {
	r    io.Reader
	buf  [sizePointerAbsolute]byte
	fail error
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode returns the next event in exactly the order it was written.
// It returns io.EOF once the stream is closed on a frame boundary,
// ErrVersionMismatch on a foreign version byte, and ErrTruncatedFrame when
// the stream ends inside a frame. After any of those errors the decoder is
// done and keeps returning the same condition.
func (d *Decoder) Decode() (event.Event, error) {
	if d.fail != nil {
		return nil, d.fail
	}

	header := d.buf[:2]
	if _, err := io.ReadFull(d.r, header); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			d.fail = ErrTruncatedFrame
			return nil, d.fail
		}
		return nil, fmt.Errorf("wire: read frame header: %w", err)
	}
	if header[0] != Version {
		d.fail = fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, header[0], Version)
		return nil, d.fail
	}
	tag := header[1]
	size, err := payloadSize(tag)
	if err != nil {
		d.fail = err
		return nil, d.fail
	}

	payload := d.buf[:size]
	if _, err := io.ReadFull(d.r, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			d.fail = ErrTruncatedFrame
			return nil, d.fail
		}
		return nil, fmt.Errorf("wire: read frame payload: %w", err)
	}

	ts := binary.LittleEndian.Uint64(payload[0:8])
	switch tag {
	case tagKey:
		return event.Key{
			Time:    ts,
			Code:    binary.LittleEndian.Uint32(payload[8:12]),
			Pressed: payload[12] != 0,
		}, nil
	case tagPointerMotion:
		return event.PointerMotion{
			Time: ts,
			DX:   math.Float64frombits(binary.LittleEndian.Uint64(payload[8:16])),
			DY:   math.Float64frombits(binary.LittleEndian.Uint64(payload[16:24])),
		}, nil
	case tagPointerAbsolute:
		return event.PointerAbsolute{
			Time:    ts,
			X:       math.Float64frombits(binary.LittleEndian.Uint64(payload[8:16])),
			Y:       math.Float64frombits(binary.LittleEndian.Uint64(payload[16:24])),
			Surface: binary.LittleEndian.Uint64(payload[24:32]),
		}, nil
	case tagPointerButton:
		return event.PointerButton{
			Time:    ts,
			Button:  payload[8],
			Pressed: payload[9] != 0,
		}, nil
	}
	panic("unreachable")
}
