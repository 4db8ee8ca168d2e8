package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"convertey/config"
	"convertey/server"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP conversion API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort != "" {
			cfg.Port = servePort
		}

		logger := config.NewLogger(cfg, os.Stdout)

		logger.Info("server starting",
			"environment", cfg.Environment,
			"port", cfg.Port,
			"origins", cfg.Origins(),
			"palette", cfg.Palette,
		)

		dispatcher, routines, err := newDispatcher(cfg, logger)
		if err != nil {
			return err
		}
		srv := server.New(cfg, dispatcher, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if found := routines.Rasterizers(); len(found) > 0 {
			logger.Info("rasterizer available", "binaries", found)
		} else {
			logger.Warn("no rasterizer found, PDF to JPG conversions will return a placeholder",
				"searched", cfg.Rasterizer.Binaries,
			)
		}

		if err := srv.ListenAndServe(ctx); err != nil {
			logger.Error("server stopped", "error", err)
			return err
		}
		logger.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to listen on (overrides config and PORT)")
	rootCmd.AddCommand(serveCmd)
}
