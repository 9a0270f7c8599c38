package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/StardustXR/non-spatial-input/internal/capture"
	"github.com/StardustXR/non-spatial-input/internal/config"
	"github.com/StardustXR/non-spatial-input/internal/logger"
)

var (
	mouseDevice    string
	keyboardDevice string
	grabDevices    bool
	windowTitle    string
)

var captureWindowCmd = &cobra.Command{
	Use:   "capture-window",
	Short: "Capture input through a focusable window",
	Long: `Capture keyboard and mouse input through a small window on the host
compositor and write the event stream to stdout. Events flow only while the
window holds focus, so the rest of the desktop stays usable.`,
	RunE: runCaptureWindow,
}

var captureDeviceCmd = &cobra.Command{
	Use:   "capture-device",
	Short: "Capture input straight from evdev devices",
	Long: `Capture keyboard and mouse input at the device level and write the event
stream to stdout. This is not scoped to any window: every input action on
the captured devices is streamed for as long as the process runs.`,
	RunE: runCaptureDevice,
}

func init() {
	captureWindowCmd.Flags().StringVarP(&windowTitle, "title", "t", "", "Capture window title")
	viper.BindPFlag("capture.window_title", captureWindowCmd.Flags().Lookup("title"))

	captureDeviceCmd.Flags().StringVarP(&mouseDevice, "mouse", "m", "", "Mouse device path (auto-detected if empty)")
	captureDeviceCmd.Flags().StringVarP(&keyboardDevice, "keyboard", "k", "", "Keyboard device path (auto-detected if empty)")
	captureDeviceCmd.Flags().BoolVarP(&grabDevices, "grab", "g", false, "Grab exclusive access to the devices")
	viper.BindPFlag("capture.mouse_device", captureDeviceCmd.Flags().Lookup("mouse"))
	viper.BindPFlag("capture.keyboard_device", captureDeviceCmd.Flags().Lookup("keyboard"))
	viper.BindPFlag("capture.grab_devices", captureDeviceCmd.Flags().Lookup("grab"))
}

func runCaptureWindow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	title := cfg.Capture.WindowTitle

	backend := capture.NewWindowBackend(title)
	return runCapture(backend)
}

func runCaptureDevice(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	if !capture.IsEvdevAvailable() {
		return fmt.Errorf("no evdev devices available (is /dev/input readable?)")
	}

	backend := capture.NewDeviceBackend(
		cfg.Capture.MouseDevice,
		cfg.Capture.KeyboardDevice,
		cfg.Capture.GrabDevices,
	)
	return runCapture(backend)
}

// runCapture runs a backend against stdout with signal-driven shutdown.
func runCapture(backend capture.Backend) error {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("stdout is a terminal; pipe this into a route command, e.g. `non-spatial-input capture-device | non-spatial-input route-focus`")
	}

	// With SIGPIPE ignored, a vanished consumer surfaces as an EPIPE
	// write error we can shut down on, instead of killing the process.
	signal.Ignore(syscall.SIGPIPE)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	adapter := capture.NewAdapter(backend, os.Stdout)
	if err := adapter.Run(ctx); err != nil {
		return err
	}
	logger.Info("Capture stopped")
	return nil
}
