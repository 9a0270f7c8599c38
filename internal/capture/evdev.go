package capture

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/StardustXR/non-spatial-input/internal/event"
	"github.com/StardustXR/non-spatial-input/internal/logger"
)

// DeviceBackend captures raw events straight from evdev devices. It is not
// scoped to any window or seat focus, so it runs for the whole process
// lifetime: every key and pointer action on the captured devices becomes an
// event, whoever has focus on the host.
type DeviceBackend struct {
	mu           sync.Mutex
	mousePath    string
	keyboardPath string
	grab         bool

	mouse    *evdev.InputDevice
	keyboard *evdev.InputDevice
	onEvent  func(event.Event)
}

// NewDeviceBackend creates an evdev capture backend. Empty paths mean
// auto-detection; grab requests exclusive device access.
func NewDeviceBackend(mousePath, keyboardPath string, grab bool) *DeviceBackend {
	return &DeviceBackend{
		mousePath:    mousePath,
		keyboardPath: keyboardPath,
		grab:         grab,
	}
}

func (d *DeviceBackend) OnEvent(callback func(event.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onEvent = callback
}

// Run opens the devices and reads them until cancellation or loss. Each
// device gets its own read loop; both feed the same callback, so per-device
// delivery order is preserved end to end.
func (d *DeviceBackend) Run(ctx context.Context) error {
	if err := d.open(); err != nil {
		return err
	}
	defer d.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 2)
	var wg sync.WaitGroup
	readers := 0

	if d.mouse != nil {
		wg.Add(1)
		readers++
		go func() {
			defer wg.Done()
			errc <- d.readLoop(ctx, d.mouse, d.translateMouse())
		}()
	}
	if d.keyboard != nil {
		wg.Add(1)
		readers++
		go func() {
			defer wg.Done()
			errc <- d.readLoop(ctx, d.keyboard, d.translateKeyboard())
		}()
	}
	if readers == 0 {
		return fmt.Errorf("no input devices to capture")
	}

	// First reader to fail takes the backend down; a vanished device is
	// ErrSourceLost for the adapter.
	err := <-errc
	cancel()
	wg.Wait()
	return err
}

func (d *DeviceBackend) open() error {
	if d.mousePath == "" {
		path, err := findDevice(deviceMouse)
		if err != nil {
			logger.Warnf("No mouse device found: %v", err)
		} else {
			d.mousePath = path
		}
	}
	if d.keyboardPath == "" {
		path, err := findDevice(deviceKeyboard)
		if err != nil {
			logger.Warnf("No keyboard device found: %v", err)
		} else {
			d.keyboardPath = path
		}
	}

	if d.mousePath != "" {
		mouse, err := evdev.Open(d.mousePath)
		if err != nil {
			return fmt.Errorf("open mouse device %s: %w", d.mousePath, err)
		}
		d.mouse = mouse
		logger.Infof("Capturing mouse device: %s", d.mousePath)
	}
	if d.keyboardPath != "" {
		keyboard, err := evdev.Open(d.keyboardPath)
		if err != nil {
			return fmt.Errorf("open keyboard device %s: %w", d.keyboardPath, err)
		}
		d.keyboard = keyboard
		logger.Infof("Capturing keyboard device: %s", d.keyboardPath)
	}

	if d.grab {
		if d.mouse != nil {
			if err := d.mouse.Grab(); err != nil {
				return fmt.Errorf("grab mouse device: %w", err)
			}
		}
		if d.keyboard != nil {
			if err := d.keyboard.Grab(); err != nil {
				if d.mouse != nil {
					d.mouse.Release()
				}
				return fmt.Errorf("grab keyboard device: %w", err)
			}
		}
		logger.Debug("Grabbed exclusive access to capture devices")
	}
	return nil
}

func (d *DeviceBackend) close() {
	if d.grab {
		if d.mouse != nil {
			d.mouse.Release()
		}
		if d.keyboard != nil {
			d.keyboard.Release()
		}
	}
	d.mouse = nil
	d.keyboard = nil
}

func (d *DeviceBackend) emit(ev event.Event) {
	d.mu.Lock()
	callback := d.onEvent
	d.mu.Unlock()
	if callback != nil {
		callback(ev)
	}
}

// readLoop pulls raw evdev events and feeds them through a translator.
func (d *DeviceBackend) readLoop(ctx context.Context, dev *evdev.InputDevice, translate func(evdev.InputEvent)) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		events, err := dev.Read()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if strings.Contains(err.Error(), "resource temporarily unavailable") {
				continue
			}
			logger.Warnf("Device read failed: %v", err)
			return ErrSourceLost
		}
		for _, raw := range events {
			translate(raw)
		}
	}
}

// translateMouse folds REL_X/REL_Y pairs within one device frame into a
// single motion event, emitted on SYN_REPORT so simultaneous axes are not
// split into two deltas.
func (d *DeviceBackend) translateMouse() func(evdev.InputEvent) {
	var dx, dy float64
	var ts uint64
	return func(raw evdev.InputEvent) {
		switch raw.Type {
		case evdev.EV_REL:
			switch raw.Code {
			case evdev.REL_X:
				dx += float64(raw.Value)
				ts = timestamp(raw)
			case evdev.REL_Y:
				dy += float64(raw.Value)
				ts = timestamp(raw)
			}
		case evdev.EV_KEY:
			if raw.Code >= evdev.BTN_LEFT && raw.Code <= evdev.BTN_TASK && raw.Value != 2 {
				d.emit(event.PointerButton{
					Time:    timestamp(raw),
					Button:  uint8(uint32(raw.Code) - event.ButtonBase),
					Pressed: raw.Value == 1,
				})
			}
		case evdev.EV_SYN:
			if dx != 0 || dy != 0 {
				d.emit(event.PointerMotion{Time: ts, DX: dx, DY: dy})
				dx, dy = 0, 0
			}
		}
	}
}

// translateKeyboard emits one key event per press or release. Value 2 is
// the kernel autorepeat, which is not a new logical action.
func (d *DeviceBackend) translateKeyboard() func(evdev.InputEvent) {
	return func(raw evdev.InputEvent) {
		if raw.Type != evdev.EV_KEY || raw.Value == 2 {
			return
		}
		d.emit(event.Key{
			Time:    timestamp(raw),
			Code:    uint32(raw.Code),
			Pressed: raw.Value == 1,
		})
	}
}

func timestamp(raw evdev.InputEvent) uint64 {
	return uint64(raw.Time.Sec)*1e9 + uint64(raw.Time.Usec)*1e3
}

// IsEvdevAvailable checks if evdev is available on this system
func IsEvdevAvailable() bool {
	if _, err := os.Stat("/dev/input"); os.IsNotExist(err) {
		return false
	}
	devices, err := evdev.ListInputDevices("/dev/input/event*")
	if err != nil {
		return false
	}
	return len(devices) > 0
}
