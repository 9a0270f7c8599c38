package cmd

import (
	"github.com/StardustXR/non-spatial-input/internal/config"
	"github.com/StardustXR/non-spatial-input/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	configPath string

	rootCmd = &cobra.Command{
		Use:   "non-spatial-input",
		Short: "Pipe flat keyboard/mouse input into a 3D spatial compositor",
		Long: `non-spatial-input bridges ordinary keyboard and mouse input into a 3D
spatial compositor. A capture command translates host input into a stream of
events on stdout; a route command reads that stream on stdin and applies it
to the compositor. Compose them with an ordinary pipe:

  non-spatial-input capture-device | non-spatial-input route-focus`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				config.SetConfigPath(configPath)
			}
			if err := config.Init(); err != nil {
				return err
			}
			if level := config.Get().Logging.LogLevel; level != "" {
				logger.SetLevel(level)
			}
			return nil
		},
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")

	rootCmd.AddCommand(captureWindowCmd)
	rootCmd.AddCommand(captureDeviceCmd)
	rootCmd.AddCommand(routeFocusCmd)
	rootCmd.AddCommand(routePointerCmd)
}
