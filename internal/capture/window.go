package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/rajveermalviya/go-wayland/wayland/client"
	xdg_shell "github.com/rajveermalviya/go-wayland/wayland/stable/xdg-shell"

	"github.com/StardustXR/non-spatial-input/internal/event"
	"github.com/StardustXR/non-spatial-input/internal/logger"
)

// WindowBackend captures input through a small Wayland window. Events only
// flow while the window holds host focus; when focus leaves, the backend
// emits whatever releases are needed to balance outstanding presses so the
// consumer is never stuck with a phantom held key, then goes quiet until
// focus returns. No gap marker is emitted.
type WindowBackend struct {
	mu      sync.Mutex
	title   string
	onEvent func(event.Event)

	display    *client.Display
	registry   *client.Registry
	compositor *client.Compositor
	seat       *client.Seat
	wmBase     *xdg_shell.WmBase
	surface    *client.Surface
	keyboard   *client.Keyboard
	pointer    *client.Pointer

	focused bool
	ledger  *event.PressLedger
	closed  bool

	// Identifies the capture window within this producer's stream. A
	// single backend owns a single window, so the id is constant, but it
	// still travels on every absolute event so a consumer can tell two
	// producers' windows apart if streams are ever compared.
	surfaceID uint64
}

// NewWindowBackend creates a window-capture backend. The window is created
// when Run starts.
func NewWindowBackend(title string) *WindowBackend {
	return &WindowBackend{
		title:     title,
		ledger:    event.NewPressLedger(),
		surfaceID: 1,
	}
}

func (w *WindowBackend) OnEvent(callback func(event.Event)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onEvent = callback
}

// Run connects to the host compositor, maps the capture window, and
// dispatches events until cancellation or window destruction.
func (w *WindowBackend) Run(ctx context.Context) error {
	display, err := client.Connect("")
	if err != nil {
		return fmt.Errorf("connect to wayland display: %w", err)
	}
	w.display = display

	if err := w.setup(); err != nil {
		w.teardown()
		return err
	}

	// Unblock the dispatch loop on cancellation by tearing the
	// connection down; the resulting dispatch error is expected then.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			w.teardown()
		case <-done:
		}
	}()

	for {
		if err := display.Context().Dispatch(); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if w.isClosed() {
				return ErrSourceLost
			}
			return fmt.Errorf("wayland dispatch: %w", err)
		}
		if w.isClosed() {
			w.teardown()
			return ErrSourceLost
		}
	}
}

func (w *WindowBackend) setup() error {
	registry, err := w.display.GetRegistry()
	if err != nil {
		return fmt.Errorf("get registry: %w", err)
	}
	w.registry = registry

	registry.SetGlobalHandler(w.handleGlobal)

	// Two roundtrips: one to collect globals, one to let the seat report
	// its capabilities.
	if err := w.roundtrip(); err != nil {
		return err
	}
	if err := w.roundtrip(); err != nil {
		return err
	}

	if w.compositor == nil || w.wmBase == nil {
		return fmt.Errorf("host compositor is missing wl_compositor or xdg_wm_base")
	}
	if w.seat == nil {
		return fmt.Errorf("host compositor exposes no seat")
	}

	surface, err := w.compositor.CreateSurface()
	if err != nil {
		return fmt.Errorf("create surface: %w", err)
	}
	w.surface = surface

	xdgSurface, err := w.wmBase.GetXdgSurface(surface)
	if err != nil {
		return fmt.Errorf("get xdg surface: %w", err)
	}
	toplevel, err := xdgSurface.GetToplevel()
	if err != nil {
		return fmt.Errorf("get xdg toplevel: %w", err)
	}
	if err := toplevel.SetTitle(w.title); err != nil {
		return fmt.Errorf("set window title: %w", err)
	}

	xdgSurface.SetConfigureHandler(func(e xdg_shell.SurfaceConfigureEvent) {
		if err := xdgSurface.AckConfigure(e.Serial); err != nil {
			logger.Warnf("Failed to ack configure: %v", err)
		}
		if err := w.surface.Commit(); err != nil {
			logger.Warnf("Failed to commit surface: %v", err)
		}
	})
	toplevel.SetCloseHandler(func(xdg_shell.ToplevelCloseEvent) {
		logger.Info("Capture window closed by host")
		w.flushBalancing()
		w.setClosed()
	})

	if err := surface.Commit(); err != nil {
		return fmt.Errorf("commit surface: %w", err)
	}

	logger.Infof("Capture window %q mapped", w.title)
	return nil
}

func (w *WindowBackend) handleGlobal(e client.RegistryGlobalEvent) {
	switch e.Interface {
	case "wl_compositor":
		compositor := client.NewCompositor(w.display.Context())
		if err := w.registry.Bind(e.Name, e.Interface, e.Version, compositor); err != nil {
			logger.Warnf("Failed to bind wl_compositor: %v", err)
			return
		}
		w.compositor = compositor
	case "xdg_wm_base":
		wmBase := xdg_shell.NewWmBase(w.display.Context())
		if err := w.registry.Bind(e.Name, e.Interface, e.Version, wmBase); err != nil {
			logger.Warnf("Failed to bind xdg_wm_base: %v", err)
			return
		}
		wmBase.SetPingHandler(func(e xdg_shell.WmBasePingEvent) {
			if err := wmBase.Pong(e.Serial); err != nil {
				logger.Warnf("Failed to pong: %v", err)
			}
		})
		w.wmBase = wmBase
	case "wl_seat":
		seat := client.NewSeat(w.display.Context())
		if err := w.registry.Bind(e.Name, e.Interface, e.Version, seat); err != nil {
			logger.Warnf("Failed to bind wl_seat: %v", err)
			return
		}
		seat.SetCapabilitiesHandler(w.handleSeatCapabilities)
		w.seat = seat
	}
}

func (w *WindowBackend) handleSeatCapabilities(e client.SeatCapabilitiesEvent) {
	if e.Capabilities&uint32(client.SeatCapabilityKeyboard) != 0 && w.keyboard == nil {
		keyboard, err := w.seat.GetKeyboard()
		if err != nil {
			logger.Warnf("Failed to get keyboard: %v", err)
		} else {
			w.keyboard = keyboard
			keyboard.SetKeyHandler(w.handleKey)
			keyboard.SetEnterHandler(func(client.KeyboardEnterEvent) { w.setFocus(true) })
			keyboard.SetLeaveHandler(func(client.KeyboardLeaveEvent) { w.setFocus(false) })
		}
	}
	if e.Capabilities&uint32(client.SeatCapabilityPointer) != 0 && w.pointer == nil {
		pointer, err := w.seat.GetPointer()
		if err != nil {
			logger.Warnf("Failed to get pointer: %v", err)
		} else {
			w.pointer = pointer
			pointer.SetMotionHandler(w.handleMotion)
			pointer.SetButtonHandler(w.handleButton)
		}
	}
}

func (w *WindowBackend) handleKey(e client.KeyboardKeyEvent) {
	w.mu.Lock()
	if !w.focused {
		w.mu.Unlock()
		return
	}
	pressed := e.State == uint32(client.KeyboardKeyStatePressed)
	w.ledger.Update(e.Key, pressed)
	callback := w.onEvent
	w.mu.Unlock()

	if callback != nil {
		callback(event.Key{Time: msToNs(e.Time), Code: e.Key, Pressed: pressed})
	}
}

func (w *WindowBackend) handleMotion(e client.PointerMotionEvent) {
	w.mu.Lock()
	callback := w.onEvent
	surfaceID := w.surfaceID
	w.mu.Unlock()

	if callback != nil {
		callback(event.PointerAbsolute{
			Time:    msToNs(e.Time),
			X:       e.SurfaceX,
			Y:       e.SurfaceY,
			Surface: surfaceID,
		})
	}
}

func (w *WindowBackend) handleButton(e client.PointerButtonEvent) {
	if e.Button < event.ButtonBase || e.Button > event.ButtonBase+0xff {
		return
	}
	pressed := e.State == uint32(client.PointerButtonStatePressed)

	w.mu.Lock()
	w.ledger.Update(e.Button, pressed)
	callback := w.onEvent
	w.mu.Unlock()

	if callback != nil {
		callback(event.PointerButton{
			Time:    msToNs(e.Time),
			Button:  uint8(e.Button - event.ButtonBase),
			Pressed: pressed,
		})
	}
}

func (w *WindowBackend) setFocus(focused bool) {
	w.mu.Lock()
	w.focused = focused
	w.mu.Unlock()
	if focused {
		logger.Debug("Capture window gained focus")
		return
	}
	logger.Debug("Capture window lost focus")
	w.flushBalancing()
}

// flushBalancing emits the releases (or presses) needed to return every
// outstanding key and button to neutral. The consumer cannot see focus
// changes, so an unbalanced press would otherwise be held forever.
func (w *WindowBackend) flushBalancing() {
	w.mu.Lock()
	presses := w.ledger.Balancing()
	callback := w.onEvent
	w.mu.Unlock()

	if callback == nil {
		return
	}
	for _, p := range presses {
		if p.Code >= event.ButtonBase {
			callback(event.PointerButton{
				Button:  uint8(p.Code - event.ButtonBase),
				Pressed: p.Pressed,
			})
		} else {
			callback(event.Key{Code: p.Code, Pressed: p.Pressed})
		}
	}
}

func (w *WindowBackend) setClosed() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

func (w *WindowBackend) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *WindowBackend) roundtrip() error {
	if err := w.display.Context().Dispatch(); err != nil {
		return fmt.Errorf("wayland dispatch: %w", err)
	}
	return nil
}

func (w *WindowBackend) teardown() {
	w.mu.Lock()
	display := w.display
	w.mu.Unlock()
	if display != nil {
		if err := display.Destroy(); err != nil {
			logger.Debugf("Display teardown: %v", err)
		}
	}
}

func msToNs(ms uint32) uint64 {
	return uint64(ms) * 1e6
}
