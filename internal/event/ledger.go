package event

// Press is one entry of a ledger balance: a code and whether it should be
// pressed or released to move toward neutral.
type Press struct {
	Code    uint32
	Pressed bool
}

// PressLedger tracks the press/release balance per code so that a stream can
// be returned to a neutral state. A positive balance means outstanding
// presses, negative means surplus releases. The window producer flushes
// balancing events when its window loses focus, and the focus router uses a
// ledger to refuse releases that were never preceded by a press.
type PressLedger struct {
	codes map[uint32]int
}

func NewPressLedger() *PressLedger {
	return &PressLedger{codes: make(map[uint32]int)}
}

// Update records one press (true) or release (false) of a code.
func (l *PressLedger) Update(code uint32, pressed bool) {
	if pressed {
		l.codes[code]++
	} else {
		l.codes[code]--
	}
	if l.codes[code] == 0 {
		delete(l.codes, code)
	}
}

// Held reports whether the code has more recorded presses than releases.
func (l *PressLedger) Held(code uint32) bool {
	return l.codes[code] > 0
}

// Clean reports whether every code has been released exactly as many times
// as it was pressed.
func (l *PressLedger) Clean() bool {
	return len(l.codes) == 0
}

// Balancing returns the presses and releases that bring every code back to
// neutral, and resets the ledger. An outstanding press yields a release, a
// surplus release yields a press.
func (l *PressLedger) Balancing() []Press {
	var out []Press
	for code, balance := range l.codes {
		n := balance
		if n < 0 {
			n = -n
		}
		for i := 0; i < n; i++ {
			out = append(out, Press{Code: code, Pressed: balance < 0})
		}
	}
	l.codes = make(map[uint32]int)
	return out
}
