// Package event defines the normalized input event representation shared by
// every producer and consumer in the pipeline. Events are backend-agnostic:
// a capture adapter translates host events into this form, and a router only
// ever sees this form.
package event

// Kind identifies an event variant. The set is closed; the wire codec and the
// routers dispatch exhaustively on it.
type Kind uint8

const (
	KindKey Kind = iota
	KindPointerMotion
	KindPointerAbsolute
	KindPointerButton
)

func (k Kind) String() string {
	switch k {
	case KindKey:
		return "key"
	case KindPointerMotion:
		return "pointer-motion"
	case KindPointerAbsolute:
		return "pointer-absolute"
	case KindPointerButton:
		return "pointer-button"
	}
	return "unknown"
}

// Event is one logical input action stamped with its capture time in
// nanoseconds. Compound state (held modifiers, button chords) is never an
// event of its own; consumers derive it from the ordered Key/PointerButton
// sequence.
type Event interface {
	Kind() Kind
	Timestamp() uint64
}

// Key is a single key press or release, carrying an evdev keycode.
type Key struct {
	Time    uint64
	Code    uint32
	Pressed bool
}

// PointerMotion is a relative pointer delta in device-space units.
type PointerMotion struct {
	Time uint64
	DX   float64
	DY   float64
}

// PointerAbsolute is a window-local pointer position, bound to the captured
// surface it was observed on. Only the window-capture producer emits these.
type PointerAbsolute struct {
	Time    uint64
	X       float64
	Y       float64
	Surface uint64
}

// PointerButton is a single pointer button press or release. Button numbers
// live in the evdev BTN_ range offset to fit a byte (see Button constants).
type PointerButton struct {
	Time    uint64
	Button  uint8
	Pressed bool
}

func (e Key) Kind() Kind             { return KindKey }
func (e Key) Timestamp() uint64      { return e.Time }
func (e PointerMotion) Kind() Kind   { return KindPointerMotion }
func (e PointerMotion) Timestamp() uint64 { return e.Time }
func (e PointerAbsolute) Kind() Kind { return KindPointerAbsolute }
func (e PointerAbsolute) Timestamp() uint64 { return e.Time }
func (e PointerButton) Kind() Kind   { return KindPointerButton }
func (e PointerButton) Timestamp() uint64 { return e.Time }

// Pointer buttons on the wire. evdev button codes start at BTN_LEFT (0x110);
// subtracting that base keeps the common buttons inside a byte.
const (
	ButtonLeft    uint8 = 0 // BTN_LEFT
	ButtonRight   uint8 = 1 // BTN_RIGHT
	ButtonMiddle  uint8 = 2 // BTN_MIDDLE
	ButtonSide    uint8 = 3 // BTN_SIDE
	ButtonExtra   uint8 = 4 // BTN_EXTRA
	ButtonForward uint8 = 5 // BTN_FORWARD
	ButtonBack    uint8 = 6 // BTN_BACK
	ButtonTask    uint8 = 7 // BTN_TASK
)

// ButtonBase is the evdev code of BTN_LEFT, the offset applied when packing a
// button code into a PointerButton.
const ButtonBase uint32 = 0x110

// ButtonCode maps a wire button number back to its evdev keycode, which is
// what the compositor's key-event call expects for pointer buttons.
func ButtonCode(button uint8) uint32 {
	return ButtonBase + uint32(button)
}
