package event

// Modifier bits derived from the key stream. The mask is reconstructed
// independently by each consumer from ordered Key events, so two consumers
// fed the same stream agree on it without any shared state.
const (
	ModShift uint32 = 1 << 0
	ModCaps  uint32 = 1 << 1
	ModCtrl  uint32 = 1 << 2
	ModAlt   uint32 = 1 << 3
	ModMeta  uint32 = 1 << 6
)

// evdev keycodes for modifier keys.
const (
	keyLeftShift  uint32 = 42
	keyRightShift uint32 = 54
	keyLeftCtrl   uint32 = 29
	keyRightCtrl  uint32 = 97
	keyLeftAlt    uint32 = 56
	keyRightAlt   uint32 = 100
	keyLeftMeta   uint32 = 125
	keyRightMeta  uint32 = 126
	keyCapsLock   uint32 = 58
)

var modifierKeys = map[uint32]uint32{
	keyLeftShift:  ModShift,
	keyRightShift: ModShift,
	keyLeftCtrl:   ModCtrl,
	keyRightCtrl:  ModCtrl,
	keyLeftAlt:    ModAlt,
	keyRightAlt:   ModAlt,
	keyLeftMeta:   ModMeta,
	keyRightMeta:  ModMeta,
	keyCapsLock:   ModCaps,
}

// ModifierBit returns the modifier bit a keycode contributes to, or zero for
// non-modifier keys.
func ModifierBit(code uint32) uint32 {
	return modifierKeys[code]
}

// ModifierTracker derives the current modifier mask from the key stream.
// Held keycodes are tracked as a set, so duplicate presses and releases are
// idempotent: pressing left shift twice then releasing it once still leaves
// shift released.
type ModifierTracker struct {
	held map[uint32]struct{}
}

func NewModifierTracker() *ModifierTracker {
	return &ModifierTracker{held: make(map[uint32]struct{})}
}

// Apply folds one key event into the tracker. Non-modifier keys are ignored.
func (m *ModifierTracker) Apply(e Key) {
	if ModifierBit(e.Code) == 0 {
		return
	}
	if e.Pressed {
		m.held[e.Code] = struct{}{}
	} else {
		delete(m.held, e.Code)
	}
}

// Mask returns the OR of the bits for every currently held modifier key.
func (m *ModifierTracker) Mask() uint32 {
	var mask uint32
	for code := range m.held {
		mask |= modifierKeys[code]
	}
	return mask
}
