package event

import (
	"testing"
)

func TestModifierTrackerDuplicatesIdempotent(t *testing.T) {
	m := NewModifierTracker()

	// A duplicated press followed by one release still ends released.
	m.Apply(Key{Code: 42, Pressed: true})
	m.Apply(Key{Code: 42, Pressed: true})
	if m.Mask()&ModShift == 0 {
		t.Fatalf("expected shift held, mask = %#x", m.Mask())
	}
	m.Apply(Key{Code: 42, Pressed: false})
	if m.Mask()&ModShift != 0 {
		t.Errorf("expected shift released after single release, mask = %#x", m.Mask())
	}
}

func TestModifierTrackerPerKeyHeld(t *testing.T) {
	m := NewModifierTracker()

	// Both shifts held; releasing one keeps the bit set.
	m.Apply(Key{Code: 42, Pressed: true})
	m.Apply(Key{Code: 54, Pressed: true})
	m.Apply(Key{Code: 42, Pressed: false})
	if m.Mask()&ModShift == 0 {
		t.Errorf("expected shift still held via right shift, mask = %#x", m.Mask())
	}
	m.Apply(Key{Code: 54, Pressed: false})
	if m.Mask() != 0 {
		t.Errorf("expected empty mask, got %#x", m.Mask())
	}
}

func TestModifierTrackerCombinedMask(t *testing.T) {
	tests := []struct {
		name  string
		codes []uint32
		want  uint32
	}{
		{"ctrl+alt", []uint32{29, 56}, ModCtrl | ModAlt},
		{"shift+meta", []uint32{54, 125}, ModShift | ModMeta},
		{"non-modifier ignored", []uint32{30, 31}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModifierTracker()
			for _, code := range tt.codes {
				m.Apply(Key{Code: code, Pressed: true})
			}
			if m.Mask() != tt.want {
				t.Errorf("mask = %#x, want %#x", m.Mask(), tt.want)
			}
		})
	}
}

func TestPressLedgerBalancing(t *testing.T) {
	l := NewPressLedger()
	l.Update(30, true)
	l.Update(30, true)
	l.Update(48, true)
	l.Update(48, false)

	if l.Clean() {
		t.Fatal("ledger should not be clean with outstanding presses")
	}
	if !l.Held(30) {
		t.Fatal("expected code 30 held")
	}

	balancing := l.Balancing()
	if len(balancing) != 2 {
		t.Fatalf("expected 2 balancing releases, got %d", len(balancing))
	}
	for _, p := range balancing {
		if p.Code != 30 || p.Pressed {
			t.Errorf("unexpected balancing entry %+v", p)
		}
	}
	if !l.Clean() {
		t.Error("ledger should be clean after balancing")
	}
}

func TestPressLedgerSurplusRelease(t *testing.T) {
	l := NewPressLedger()
	l.Update(17, false)

	balancing := l.Balancing()
	if len(balancing) != 1 || balancing[0].Code != 17 || !balancing[0].Pressed {
		t.Fatalf("expected one balancing press of 17, got %+v", balancing)
	}
}

func TestButtonCode(t *testing.T) {
	if got := ButtonCode(ButtonLeft); got != 0x110 {
		t.Errorf("ButtonCode(left) = %#x, want 0x110", got)
	}
	if got := ButtonCode(ButtonRight); got != 0x111 {
		t.Errorf("ButtonCode(right) = %#x, want 0x111", got)
	}
}
