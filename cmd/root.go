package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevel  string
	logFormat string

	rootCmd = &cobra.Command{
		Use:   "raceconnect",
		Short: "RaceConnect marathon listing and registration API",
		// serve when no subcommand is given
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCmd.RunE(cmd, args)
		},
		SilenceUsage: true,
	}
)

// Execute is called by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error), overrides LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console), overrides LOG_FORMAT")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
}
