package cmd

import (
	"github.com/StardustXR/non-spatial-input/internal/logger"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		logger.Infof("non-spatial-input %s", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
