package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	cfg = nil
	configPathOverride = ""
	t.Cleanup(func() {
		viper.Reset()
		cfg = nil
		configPathOverride = ""
	})
}

func TestDefaults(t *testing.T) {
	resetConfig(t)
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, Init())

	c := Get()
	assert.Empty(t, c.Capture.MouseDevice)
	assert.Empty(t, c.Capture.KeyboardDevice)
	assert.False(t, c.Capture.GrabDevices)
	assert.Equal(t, "Non-Spatial Input", c.Capture.WindowTitle)
	assert.Equal(t, 0.01, c.Pointer.Sensitivity)
	assert.Empty(t, c.Compositor.SocketPath)
}

func TestConfigFileOverride(t *testing.T) {
	resetConfig(t)

	path := filepath.Join(t.TempDir(), "non-spatial-input.toml")
	content := `
[capture]
mouse_device = "/dev/input/event5"
grab_devices = true

[pointer]
sensitivity = 0.05

[compositor]
socket_path = "/run/user/1000/test.sock"

[logging]
log_level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	SetConfigPath(path)
	require.NoError(t, Init())

	c := Get()
	assert.Equal(t, "/dev/input/event5", c.Capture.MouseDevice)
	assert.True(t, c.Capture.GrabDevices)
	// Unset fields fall back to defaults.
	assert.Equal(t, "Non-Spatial Input", c.Capture.WindowTitle)
	assert.Equal(t, 0.05, c.Pointer.Sensitivity)
	assert.Equal(t, "/run/user/1000/test.sock", c.Compositor.SocketPath)
	assert.Equal(t, "debug", c.Logging.LogLevel)
}

func TestGetBeforeInit(t *testing.T) {
	resetConfig(t)
	assert.Equal(t, &DefaultConfig, Get())
}

func TestGetConfigPathOverride(t *testing.T) {
	resetConfig(t)
	SetConfigPath("/tmp/my.toml")
	assert.Equal(t, "/tmp/my.toml", GetConfigPath())
}
