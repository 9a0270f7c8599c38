package router

import (
	"context"
	"fmt"
	"math"

	"github.com/StardustXR/non-spatial-input/internal/compositor"
	"github.com/StardustXR/non-spatial-input/internal/event"
	"github.com/StardustXR/non-spatial-input/internal/logger"
)

// PointerProjector owns a single persistent 3D pointer object in the
// compositor and steers it with the decoded motion stream. Deltas turn into
// yaw and pitch around the viewer; the compositor owns the actual ray
// projection into the scene, this side only supplies poses and button/key
// state in order.
type PointerProjector struct {
	comp    compositor.Client
	session *Session
	pointer compositor.Handle

	// Degrees of rotation per device-space unit.
	sensitivity float64

	yaw   float64
	pitch float64
}

// NewPointerProjector registers the pointer object with the compositor. A
// registration failure is fatal; without the pointer there is nothing to
// route to.
func NewPointerProjector(ctx context.Context, comp compositor.Client, session *Session, sensitivity float64) (*PointerProjector, error) {
	pointer, err := comp.RegisterPointerObject(ctx)
	if err != nil {
		return nil, fmt.Errorf("register pointer object: %w", err)
	}
	logger.Debugf("Registered pointer object %d", pointer)
	return &PointerProjector{
		comp:        comp,
		session:     session,
		pointer:     pointer,
		sensitivity: sensitivity,
	}, nil
}

func (p *PointerProjector) Apply(ctx context.Context, ev event.Event) error {
	switch ev := ev.(type) {
	case event.Key:
		p.session.Modifiers.Apply(ev)
		return p.comp.SendKeyEvent(ctx, p.pointer, ev.Code, ev.Pressed)
	case event.PointerButton:
		return p.comp.SendKeyEvent(ctx, p.pointer, event.ButtonCode(ev.Button), ev.Pressed)
	case event.PointerMotion:
		return p.move(ctx, ev.DX, ev.DY)
	case event.PointerAbsolute:
		// The projector has no window-local coordinate space; absolute
		// samples become deltas against the last known position.
		dx, dy, ok := p.session.absoluteDelta(ev)
		if !ok {
			return nil
		}
		return p.move(ctx, dx, dy)
	}
	return fmt.Errorf("unhandled event kind %s", ev.Kind())
}

func (p *PointerProjector) move(ctx context.Context, dx, dy float64) error {
	p.session.accumulate(dx, dy)

	p.yaw += dx * p.sensitivity
	p.pitch += dy * p.sensitivity
	if p.pitch > 90 {
		p.pitch = 90
	}
	if p.pitch < -90 {
		p.pitch = -90
	}

	return p.comp.UpdatePointerPose(ctx, p.pointer, compositor.Pose{
		Orientation: orientation(p.yaw, p.pitch),
	})
}

// orientation builds the pointer quaternion: yaw about Y then pitch about X,
// both negated so positive deltas move the pointer right and down.
func orientation(yawDeg, pitchDeg float64) [4]float64 {
	halfYaw := -yawDeg * math.Pi / 360
	halfPitch := -pitchDeg * math.Pi / 360

	sy, cy := math.Sin(halfYaw), math.Cos(halfYaw)
	sp, cp := math.Sin(halfPitch), math.Cos(halfPitch)

	// q = qy * qx, components (x, y, z, w).
	return [4]float64{
		cy * sp,
		sy * cp,
		-sy * sp,
		cy * cp,
	}
}
