package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"convertey/config"
	"convertey/converter"
	"convertey/converter/colors"
	"convertey/converter/raster"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "convertey",
	Short: "Convert documents between PDF, Word, PowerPoint and image formats",
	Long: `Convertey converts files between formats.

Supported conversions:
  - PDF  -> DOCX, JPG, PPTX
  - DOCX -> PDF
  - JPG / PNG -> PDF
  - PPTX / PPT -> PDF

Run "convertey serve" for the HTTP API or "convertey convert" for a single file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (default: built-in defaults and environment)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
}

// loadConfig reads .env, then the config file and environment
func loadConfig() (*config.Config, error) {
	// Missing .env is normal outside development
	_ = godotenv.Load()

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// cliLogger logs to stderr, quiet unless --verbose
func cliLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newRoutines builds the conversion routines from configuration
func newRoutines(cfg *config.Config, logger *slog.Logger) (*converter.Routines, error) {
	palette, err := colors.GetPalette(cfg.Palette)
	if err != nil {
		return nil, err
	}

	return converter.NewRoutines(converter.Options{
		Raster: raster.Options{
			Binaries: cfg.Rasterizer.Binaries,
			DPI:      cfg.Rasterizer.DPI,
			Timeout:  cfg.Rasterizer.Timeout,
		},
		Palette:        palette,
		MaxImagePixels: cfg.MaxImagePixels,
		Logger:         logger,
	}), nil
}

// newDispatcher wires the registry and routines
func newDispatcher(cfg *config.Config, logger *slog.Logger) (*converter.Dispatcher, *converter.Routines, error) {
	routines, err := newRoutines(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("setup routines: %w", err)
	}
	return converter.NewDispatcher(converter.NewRegistry(), routines.Table(), logger), routines, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
