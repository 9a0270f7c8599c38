package capture

import (
	"fmt"
	"strings"

	evdev "github.com/gvalkov/golang-evdev"
)

type deviceType int

const (
	deviceMouse deviceType = iota
	deviceKeyboard
)

// findDevice scans /dev/input/event* for the first device matching the
// requested type, by capability rather than by name.
func findDevice(kind deviceType) (string, error) {
	devices, err := evdev.ListInputDevices("/dev/input/event*")
	if err != nil {
		return "", fmt.Errorf("list input devices: %w", err)
	}

	for _, dev := range devices {
		if matchesDeviceType(dev, kind) {
			return dev.Fn, nil
		}
	}
	return "", fmt.Errorf("no suitable device found")
}

func matchesDeviceType(dev *evdev.InputDevice, kind deviceType) bool {
	if dev.Capabilities == nil {
		return false
	}

	switch kind {
	case deviceMouse:
		relAxes, ok := dev.CapabilitiesFlat[evdev.EV_REL]
		if !ok {
			return false
		}
		hasX, hasY := false, false
		for _, axis := range relAxes {
			if axis == evdev.REL_X {
				hasX = true
			}
			if axis == evdev.REL_Y {
				hasY = true
			}
		}
		if !hasX || !hasY {
			return false
		}
		for _, btn := range dev.CapabilitiesFlat[evdev.EV_KEY] {
			if btn == evdev.BTN_LEFT || btn == evdev.BTN_RIGHT || btn == evdev.BTN_MIDDLE {
				return true
			}
		}
		return false

	case deviceKeyboard:
		// Power buttons and the like also report EV_KEY; require real
		// alphabetic keys.
		nameLower := strings.ToLower(dev.Name)
		if strings.Contains(nameLower, "power") ||
			strings.Contains(nameLower, "video") ||
			strings.Contains(nameLower, "sleep") ||
			strings.Contains(nameLower, "button") {
			return false
		}
		for _, key := range dev.CapabilitiesFlat[evdev.EV_KEY] {
			if key >= evdev.KEY_A && key <= evdev.KEY_Z {
				return true
			}
		}
		return false
	}
	return false
}
