package compositor

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers requests on the far end of a net.Pipe with a scripted
// handler per method.
type fakeServer struct {
	t       *testing.T
	conn    net.Conn
	handler func(req request) response
}

func newFakeServer(t *testing.T, handler func(req request) response) *SocketClient {
	t.Helper()
	clientEnd, serverEnd := net.Pipe()
	srv := &fakeServer{t: t, conn: serverEnd, handler: handler}
	go srv.serve()
	t.Cleanup(func() { serverEnd.Close() })
	return NewSocketClient(clientEnd)
}

func (s *fakeServer) serve() {
	for {
		var length [4]byte
		if _, err := io.ReadFull(s.conn, length[:]); err != nil {
			return
		}
		data := make([]byte, binary.BigEndian.Uint32(length[:]))
		if _, err := io.ReadFull(s.conn, data); err != nil {
			return
		}
		var req request
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}
		if err := writeMessage(s.conn, s.handler(req)); err != nil {
			return
		}
	}
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestQueryGazeTarget(t *testing.T) {
	client := newFakeServer(t, func(req request) response {
		assert.Equal(t, "query_gaze_target", req.Method)
		return response{ID: req.ID, Result: mustJSON(t, handleResult{Handle: 42})}
	})
	defer client.Close()

	target, err := client.QueryGazeTarget(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Handle(42), target)
}

func TestSendKeyEvent(t *testing.T) {
	var got keyEventParams
	client := newFakeServer(t, func(req request) response {
		assert.Equal(t, "send_key_event", req.Method)
		require.NoError(t, json.Unmarshal(req.Params, &got))
		return response{ID: req.ID}
	})
	defer client.Close()

	require.NoError(t, client.SendKeyEvent(context.Background(), 7, 30, true))
	assert.Equal(t, keyEventParams{Target: 7, Code: 30, Pressed: true}, got)
}

func TestUpdatePointerPose(t *testing.T) {
	var got pointerPoseParams
	client := newFakeServer(t, func(req request) response {
		require.NoError(t, json.Unmarshal(req.Params, &got))
		return response{ID: req.ID}
	})
	defer client.Close()

	pose := Pose{Orientation: [4]float64{0, 0.5, 0, 0.5}}
	require.NoError(t, client.UpdatePointerPose(context.Background(), 3, pose))
	assert.Equal(t, Handle(3), got.Pointer)
	assert.Equal(t, pose, got.Pose)
}

func TestServerError(t *testing.T) {
	client := newFakeServer(t, func(req request) response {
		return response{ID: req.ID, Error: "no such target"}
	})
	defer client.Close()

	err := client.SendPointerEvent(context.Background(), 9, 1, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such target")
}

func TestMismatchedResponseID(t *testing.T) {
	client := newFakeServer(t, func(req request) response {
		return response{ID: req.ID + 100}
	})
	defer client.Close()

	err := client.SendKeyEvent(context.Background(), 1, 1, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "response id")
}

func TestRequestIDsIncrement(t *testing.T) {
	var ids []uint64
	client := newFakeServer(t, func(req request) response {
		ids = append(ids, req.ID)
		return response{ID: req.ID}
	})
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.SendKeyEvent(ctx, 1, 1, true))
	require.NoError(t, client.SendKeyEvent(ctx, 1, 1, false))
	require.NoError(t, client.SendPointerEvent(ctx, 1, 0, 0))
	assert.Equal(t, []uint64{1, 2, 3}, ids)
}

func TestContextDeadline(t *testing.T) {
	// A server that never answers; the context deadline must unblock the call.
	clientEnd, serverEnd := net.Pipe()
	t.Cleanup(func() { serverEnd.Close() })
	client := NewSocketClient(clientEnd)
	defer client.Close()

	go func() {
		var length [4]byte
		io.ReadFull(serverEnd, length[:])
		data := make([]byte, binary.BigEndian.Uint32(length[:]))
		io.ReadFull(serverEnd, data)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.QueryGazeTarget(ctx)
	require.Error(t, err)
}

func TestSocketPathEnvOverride(t *testing.T) {
	t.Setenv(SocketEnv, "/tmp/custom.sock")
	path, err := SocketPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.sock", path)
}

func TestSocketPathRuntimeDir(t *testing.T) {
	t.Setenv(SocketEnv, "")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	path, err := SocketPath()
	require.NoError(t, err)
	assert.Equal(t, "/run/user/1000/non-spatial-input.sock", path)
}
