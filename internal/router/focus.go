package router

import (
	"context"
	"fmt"

	"github.com/StardustXR/non-spatial-input/internal/compositor"
	"github.com/StardustXR/non-spatial-input/internal/event"
	"github.com/StardustXR/non-spatial-input/internal/logger"
)

// FocusRouter forwards every event to whatever object the viewer is
// currently gazing at. The gaze target is re-resolved from the compositor on
// every event; while nothing is gazed at, events are dropped rather than
// queued.
type FocusRouter struct {
	comp    compositor.Client
	session *Session
}

func NewFocusRouter(comp compositor.Client, session *Session) *FocusRouter {
	return &FocusRouter{comp: comp, session: session}
}

func (f *FocusRouter) Apply(ctx context.Context, ev event.Event) error {
	target, err := f.comp.QueryGazeTarget(ctx)
	if err != nil {
		return fmt.Errorf("query gaze target: %w", err)
	}
	if target != f.session.Focus {
		// Focus boundary: the cumulative pointer is not reset, and the
		// modifier mask belongs to the keyboard stream rather than to
		// any one object, so both carry over untouched.
		logger.Debugf("Gaze focus changed: %d -> %d", f.session.Focus, target)
		f.session.Focus = target
	}

	switch ev := ev.(type) {
	case event.Key:
		f.session.Modifiers.Apply(ev)
		return f.press(ctx, ev.Code, ev.Pressed)
	case event.PointerButton:
		return f.press(ctx, event.ButtonCode(ev.Button), ev.Pressed)
	case event.PointerMotion:
		f.session.accumulate(ev.DX, ev.DY)
		if f.session.Focus == compositor.None {
			return nil
		}
		return f.comp.SendPointerEvent(ctx, f.session.Focus, ev.DX, ev.DY)
	case event.PointerAbsolute:
		dx, dy, ok := f.session.absoluteDelta(ev)
		if !ok {
			return nil
		}
		f.session.accumulate(dx, dy)
		if f.session.Focus == compositor.None {
			return nil
		}
		return f.comp.SendPointerEvent(ctx, f.session.Focus, dx, dy)
	}
	return fmt.Errorf("unhandled event kind %s", ev.Kind())
}

// press forwards one key or button action, with the ledger guarding against
// phantom releases: a release whose press was never forwarded (because no
// target was present at the time) is dropped silently.
func (f *FocusRouter) press(ctx context.Context, code uint32, pressed bool) error {
	if f.session.Focus == compositor.None {
		return nil
	}
	if !pressed && !f.session.Presses.Held(code) {
		return nil
	}
	if err := f.comp.SendKeyEvent(ctx, f.session.Focus, code, pressed); err != nil {
		return err
	}
	f.session.Presses.Update(code, pressed)
	return nil
}
