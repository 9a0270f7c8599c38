// Package router implements the consumer side of the pipeline: decoding the
// event stream and applying its effects against the compositor, either at
// whatever object is currently gazed at or through a free-floating 3D
// pointer.
package router

import (
	"github.com/StardustXR/non-spatial-input/internal/compositor"
	"github.com/StardustXR/non-spatial-input/internal/event"
)

// Session is the accumulated per-consumer state that outlives individual
// events. One instance per router, threaded through the apply loop
// explicitly; it is never shared, serialized, or restored.
type Session struct {
	// Modifiers is reconstructed from the ordered key stream. Because
	// every consumer derives it the same way, independently built
	// producers and consumers agree on it without a handshake.
	Modifiers *event.ModifierTracker

	// CumulativeX/Y is the running sum of every pointer motion delta
	// since the router started. Reset only by process restart.
	CumulativeX float64
	CumulativeY float64

	// Focus is the last gaze target the compositor reported. It is a
	// lookup handle, re-queried every event; the object behind it may
	// vanish at any time.
	Focus compositor.Handle

	// Presses records which keys and buttons have been forwarded as
	// pressed, so releases without a forwarded press can be dropped
	// instead of producing phantom release effects.
	Presses *event.PressLedger

	// Last absolute pointer sample, for turning window-local absolute
	// positions into deltas.
	absValid   bool
	absSurface uint64
	absX, absY float64
}

func NewSession() *Session {
	return &Session{
		Modifiers: event.NewModifierTracker(),
		Focus:     compositor.None,
		Presses:   event.NewPressLedger(),
	}
}

// accumulate folds a motion delta into the cumulative pointer position.
func (s *Session) accumulate(dx, dy float64) {
	s.CumulativeX += dx
	s.CumulativeY += dy
}

// absoluteDelta converts an absolute sample into a delta against the last
// sample on the same surface. The first sample on a surface establishes
// position and yields no delta.
func (s *Session) absoluteDelta(e event.PointerAbsolute) (dx, dy float64, ok bool) {
	if s.absValid && s.absSurface == e.Surface {
		dx, dy = e.X-s.absX, e.Y-s.absY
		ok = true
	}
	s.absValid = true
	s.absSurface = e.Surface
	s.absX, s.absY = e.X, e.Y
	return dx, dy, ok
}
