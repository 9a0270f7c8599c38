package compositor

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/StardustXR/non-spatial-input/internal/logger"
)

// SocketEnv overrides the compositor socket path when set.
const SocketEnv = "NON_SPATIAL_INPUT_SOCKET"

const defaultSocketName = "non-spatial-input.sock"

// request/response envelope for the compositor's JSON protocol. Messages are
// length-prefixed (4 bytes, big endian) on a unix socket; the schema itself
// is owned by the compositor.
type request struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type keyEventParams struct {
	Target  Handle `json:"target"`
	Code    uint32 `json:"code"`
	Pressed bool   `json:"pressed"`
}

type pointerEventParams struct {
	Target Handle  `json:"target"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
}

type pointerPoseParams struct {
	Pointer Handle `json:"pointer"`
	Pose    Pose   `json:"pose"`
}

type handleResult struct {
	Handle Handle `json:"handle"`
}

// SocketClient talks to the compositor over its unix socket. Calls are
// serialized: the routers are single sequential loops, so one in-flight
// request at a time is all the pipeline ever needs.
type SocketClient struct {
	mu     sync.Mutex
	conn   net.Conn
	nextID uint64
}

// SocketPath returns the compositor socket path, honoring SocketEnv and
// falling back to $XDG_RUNTIME_DIR.
func SocketPath() (string, error) {
	if path := os.Getenv(SocketEnv); path != "" {
		return path, nil
	}
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return "", fmt.Errorf("compositor: XDG_RUNTIME_DIR not set and %s not set", SocketEnv)
	}
	return filepath.Join(runtimeDir, defaultSocketName), nil
}

// Dial connects to the compositor socket. An empty path means the default
// location.
func Dial(path string) (*SocketClient, error) {
	if path == "" {
		var err error
		path, err = SocketPath()
		if err != nil {
			return nil, err
		}
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("compositor: connect to %s: %w", path, err)
	}
	logger.Debugf("Connected to compositor at %s", path)
	return NewSocketClient(conn), nil
}

// NewSocketClient wraps an established connection. Split out from Dial so
// tests can drive the client over an in-memory pipe.
func NewSocketClient(conn net.Conn) *SocketClient {
	return &SocketClient{conn: conn}
}

func (c *SocketClient) QueryGazeTarget(ctx context.Context) (Handle, error) {
	var res handleResult
	if err := c.call(ctx, "query_gaze_target", nil, &res); err != nil {
		return None, err
	}
	return res.Handle, nil
}

func (c *SocketClient) SendKeyEvent(ctx context.Context, target Handle, code uint32, pressed bool) error {
	return c.call(ctx, "send_key_event", keyEventParams{Target: target, Code: code, Pressed: pressed}, nil)
}

func (c *SocketClient) SendPointerEvent(ctx context.Context, target Handle, dx, dy float64) error {
	return c.call(ctx, "send_pointer_event", pointerEventParams{Target: target, DX: dx, DY: dy}, nil)
}

func (c *SocketClient) RegisterPointerObject(ctx context.Context) (Handle, error) {
	var res handleResult
	if err := c.call(ctx, "register_pointer_object", nil, &res); err != nil {
		return None, err
	}
	return res.Handle, nil
}

func (c *SocketClient) UpdatePointerPose(ctx context.Context, pointer Handle, pose Pose) error {
	return c.call(ctx, "update_pointer_pose", pointerPoseParams{Pointer: pointer, Pose: pose}, nil)
}

func (c *SocketClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

// call performs one blocking request/response exchange.
func (c *SocketClient) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	req := request{ID: c.nextID, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("compositor: marshal %s params: %w", method, err)
		}
		req.Params = raw
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("compositor: set deadline: %w", err)
		}
		defer c.conn.SetDeadline(time.Time{})
	}

	if err := writeMessage(c.conn, req); err != nil {
		return fmt.Errorf("compositor: %s: %w", method, err)
	}

	var res response
	if err := readMessage(c.conn, &res); err != nil {
		return fmt.Errorf("compositor: %s: %w", method, err)
	}
	if res.ID != req.ID {
		return fmt.Errorf("compositor: %s: response id %d for request %d", method, res.ID, req.ID)
	}
	if res.Error != "" {
		return fmt.Errorf("compositor: %s: %s", method, res.Error)
	}
	if result != nil && res.Result != nil {
		if err := json.Unmarshal(res.Result, result); err != nil {
			return fmt.Errorf("compositor: %s: decode result: %w", method, err)
		}
	}
	return nil
}

func writeMessage(conn net.Conn, msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	if _, err := conn.Write(length[:]); err != nil {
		return fmt.Errorf("write message length: %w", err)
	}
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("write message data: %w", err)
	}
	return nil
}

func readMessage(conn net.Conn, msg interface{}) error {
	var length [4]byte
	if _, err := io.ReadFull(conn, length[:]); err != nil {
		return fmt.Errorf("read message length: %w", err)
	}
	data := make([]byte, binary.BigEndian.Uint32(length[:]))
	if _, err := io.ReadFull(conn, data); err != nil {
		return fmt.Errorf("read message data: %w", err)
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal message: %w", err)
	}
	return nil
}
