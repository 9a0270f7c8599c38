// Package compositor is the pipeline's view of the 3D compositor. The
// compositor owns the scene graph, gaze resolution, and the actual 3D
// projection of pointer motion; this package only carries the blocking
// request/response calls the routers need. No retry policy lives here.
package compositor

import "context"

// Handle is an opaque lookup id for a compositor object. The compositor owns
// the object's lifetime, so a handle is re-resolved on use and may go stale
// at any time; it is never an owning reference.
type Handle uint64

// None is the zero handle, meaning no object.
const None Handle = 0

// Pose is a position and orientation for the pointer object, in the
// compositor's coordinate space. Orientation is a quaternion (x, y, z, w).
type Pose struct {
	Position    [3]float64 `json:"position"`
	Orientation [4]float64 `json:"orientation"`
}

// Client is the compositor collaborator interface. Every call blocks until
// the compositor answers; cancellation comes from the context.
type Client interface {
	// QueryGazeTarget resolves the object currently under the viewer's
	// gaze, or None when nothing is gazed at.
	QueryGazeTarget(ctx context.Context) (Handle, error)

	// SendKeyEvent forwards one key or button action to a target object.
	SendKeyEvent(ctx context.Context, target Handle, code uint32, pressed bool) error

	// SendPointerEvent forwards one relative pointer delta to a target
	// object. How the delta maps into the object's frame is the
	// compositor's business.
	SendPointerEvent(ctx context.Context, target Handle, dx, dy float64) error

	// RegisterPointerObject creates the persistent free-floating pointer
	// object and returns its handle.
	RegisterPointerObject(ctx context.Context) (Handle, error)

	// UpdatePointerPose moves a registered pointer object.
	UpdatePointerPose(ctx context.Context, pointer Handle, pose Pose) error

	Close() error
}
