// Package config handles configuration management using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Capture configuration (producer side)
	Capture CaptureConfig `mapstructure:"capture"`

	// Pointer configuration (pointer-projector consumer)
	Pointer PointerConfig `mapstructure:"pointer"`

	// Compositor connection
	Compositor CompositorConfig `mapstructure:"compositor"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// CaptureConfig contains producer-side settings
type CaptureConfig struct {
	MouseDevice    string `mapstructure:"mouse_device"`    // evdev path, empty for auto-detection
	KeyboardDevice string `mapstructure:"keyboard_device"` // evdev path, empty for auto-detection
	GrabDevices    bool   `mapstructure:"grab_devices"`    // exclusive access to captured devices
	WindowTitle    string `mapstructure:"window_title"`    // title of the capture window
}

// PointerConfig contains pointer-projector settings
type PointerConfig struct {
	Sensitivity float64 `mapstructure:"sensitivity"` // degrees per device unit
}

// CompositorConfig contains compositor connection settings
type CompositorConfig struct {
	SocketPath string `mapstructure:"socket_path"` // empty for the default runtime dir location
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // overrides LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Capture: CaptureConfig{
			MouseDevice:    "",
			KeyboardDevice: "",
			GrabDevices:    false,
			WindowTitle:    "Non-Spatial Input",
		},
		Pointer: PointerConfig{
			Sensitivity: 0.01,
		},
		Compositor: CompositorConfig{
			SocketPath: "",
		},
		Logging: LoggingConfig{
			LogLevel: "",
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("non-spatial-input")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		if home := os.Getenv("HOME"); home != "" {
			viper.AddConfigPath(filepath.Join(home, ".config", "non-spatial-input"))
		}
		viper.AddConfigPath(".")
	}

	// Set defaults - need to set individual fields for proper merging
	viper.SetDefault("capture.mouse_device", DefaultConfig.Capture.MouseDevice)
	viper.SetDefault("capture.keyboard_device", DefaultConfig.Capture.KeyboardDevice)
	viper.SetDefault("capture.grab_devices", DefaultConfig.Capture.GrabDevices)
	viper.SetDefault("capture.window_title", DefaultConfig.Capture.WindowTitle)

	viper.SetDefault("pointer.sensitivity", DefaultConfig.Pointer.Sensitivity)

	viper.SetDefault("compositor.socket_path", DefaultConfig.Compositor.SocketPath)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}
	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "non-spatial-input.toml"
	}
	return filepath.Join(home, ".config", "non-spatial-input", "non-spatial-input.toml")
}
