package cmd

import (
	"github.com/spf13/cobra"

	"raceconnect/app"
	"raceconnect/config"
)

var serverPort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the RaceConnect HTTP server.

Configuration comes from the environment (and a .env file outside production).
The server drains in-flight requests and disconnects from MongoDB and Redis on
SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if logFormat != "" {
			cfg.Logging.Format = logFormat
		}
		if serverPort != "" {
			cfg.Port = serverPort
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := config.NewLogger(cfg.Logging)
		a, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			logger.Error().Err(err).Msg("startup failed")
			return err
		}
		return a.Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverPort, "port", "", "listen port, overrides PORT")
}
