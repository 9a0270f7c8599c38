package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/StardustXR/non-spatial-input/internal/compositor"
	"github.com/StardustXR/non-spatial-input/internal/config"
	"github.com/StardustXR/non-spatial-input/internal/logger"
	"github.com/StardustXR/non-spatial-input/internal/router"
)

var (
	compositorSocket string
	sensitivity      float64
)

var routeFocusCmd = &cobra.Command{
	Use:   "route-focus",
	Short: "Route events to the object under the viewer's gaze",
	Long: `Read an event stream from stdin and forward each event to whatever object
the compositor reports as currently gazed at. While nothing is gazed at,
events are dropped rather than queued.`,
	RunE: runRouteFocus,
}

var routePointerCmd = &cobra.Command{
	Use:   "route-pointer",
	Short: "Project events through a free-floating 3D pointer",
	Long: `Read an event stream from stdin and steer a persistent 3D pointer object
in the compositor with it. Mouse motion rotates the pointer around the
viewer; keys and buttons are delivered through the pointer object.`,
	RunE: runRoutePointer,
}

func init() {
	for _, c := range []*cobra.Command{routeFocusCmd, routePointerCmd} {
		c.Flags().StringVarP(&compositorSocket, "socket", "s", "", "Compositor socket path")
	}
	routePointerCmd.Flags().Float64Var(&sensitivity, "sensitivity", 0, "Pointer rotation in degrees per device unit")
	viper.BindPFlag("compositor.socket_path", routeFocusCmd.Flags().Lookup("socket"))
	viper.BindPFlag("pointer.sensitivity", routePointerCmd.Flags().Lookup("sensitivity"))
}

func runRouteFocus(cmd *cobra.Command, args []string) error {
	return runRoute(func(ctx context.Context, comp compositor.Client, session *router.Session) (router.Sink, error) {
		return router.NewFocusRouter(comp, session), nil
	})
}

func runRoutePointer(cmd *cobra.Command, args []string) error {
	return runRoute(func(ctx context.Context, comp compositor.Client, session *router.Session) (router.Sink, error) {
		return router.NewPointerProjector(ctx, comp, session, config.Get().Pointer.Sensitivity)
	})
}

// runRoute wires stdin, the compositor connection, and a sink into one
// consumer loop.
func runRoute(makeSink func(context.Context, compositor.Client, *router.Session) (router.Sink, error)) error {
	if isatty.IsTerminal(os.Stdin.Fd()) {
		return fmt.Errorf("stdin is a terminal; pipe a capture command into this, e.g. `non-spatial-input capture-device | non-spatial-input route-focus`")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	socketPath := compositorSocket
	if socketPath == "" {
		socketPath = config.Get().Compositor.SocketPath
	}
	comp, err := compositor.Dial(socketPath)
	if err != nil {
		return err
	}
	defer comp.Close()

	session := router.NewSession()
	sink, err := makeSink(ctx, comp, session)
	if err != nil {
		return err
	}

	r := router.New(os.Stdin, sink)
	if err := r.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Routing interrupted")
			return nil
		}
		return err
	}
	logger.Info("Routing stopped",
		"cumulative_x", session.CumulativeX,
		"cumulative_y", session.CumulativeY)
	return nil
}
