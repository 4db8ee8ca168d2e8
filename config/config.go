package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"

	"convertey/converter/colors"
	"convertey/converter/raster"
)

// RateLimit is one request-rate tier applied per client IP
type RateLimit struct {
	Name     string        `yaml:"name"`
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// Rasterizer configures the external PDF rasterizer
type Rasterizer struct {
	Binaries []string      `yaml:"binaries"`
	DPI      int           `yaml:"dpi"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Config struct {
	Port            string        `yaml:"port"`
	Environment     string        `yaml:"environment"`
	FrontendURL     string        `yaml:"frontend_url"` // comma-separated CORS origins
	LogLevel        string        `yaml:"log_level"`
	Palette         string        `yaml:"palette"`
	MaxRequestBytes int64         `yaml:"max_request_bytes"`
	MaxImagePixels  int64         `yaml:"max_image_pixels"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Rasterizer      Rasterizer    `yaml:"rasterizer"`
	RateLimits      []RateLimit   `yaml:"rate_limits"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Port:            "3001",
		Environment:     "dev",
		FrontendURL:     "http://localhost:3000",
		Palette:         "default",
		MaxRequestBytes: 64 << 20,
		MaxImagePixels:  raster.DefaultMaxPixels,
		ShutdownTimeout: 15 * time.Second,
		Rasterizer: Rasterizer{
			Binaries: []string{"pdftoppm", "pdftocairo"},
			DPI:      300,
			Timeout:  30 * time.Second,
		},
		RateLimits: []RateLimit{
			{Name: "short", Requests: 3, Window: time.Second},
			{Name: "medium", Requests: 20, Window: 10 * time.Second},
			{Name: "long", Requests: 100, Window: time.Minute},
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides fields from the environment
func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.FrontendURL = getEnv("FRONTEND_URL", c.FrontendURL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Palette = getEnv("PALETTE", c.Palette)

	var errs []error
	if v := os.Getenv("MAX_REQUEST_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAX_REQUEST_BYTES: %w", err))
		}
		c.MaxRequestBytes = n
	}
	if v := os.Getenv("MAX_IMAGE_PIXELS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAX_IMAGE_PIXELS: %w", err))
		}
		c.MaxImagePixels = n
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err))
		}
		c.ShutdownTimeout = d
	}
	if v := os.Getenv("RASTERIZER_BINARIES"); v != "" {
		c.Rasterizer.Binaries = splitList(v)
	}
	if v := os.Getenv("RASTERIZER_DPI"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("RASTERIZER_DPI: %w", err))
		}
		c.Rasterizer.DPI = n
	}
	if v := os.Getenv("RASTERIZER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("RASTERIZER_TIMEOUT: %w", err))
		}
		c.Rasterizer.Timeout = d
	}

	return errors.Join(errs...)
}

// Validate checks the configuration
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, is.Port),
		validation.Field(&c.Environment, validation.Required, validation.In("dev", "test", "prod")),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Palette, validation.Required, validation.In(asValues(colors.ListPalettes())...)),
		validation.Field(&c.MaxRequestBytes, validation.Required, validation.Min(int64(1024))),
		validation.Field(&c.MaxImagePixels, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.ShutdownTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Rasterizer),
		validation.Field(&c.RateLimits),
	)
}

// Validate checks the rasterizer settings
func (r Rasterizer) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Binaries, validation.Required, validation.Each(validation.Required)),
		validation.Field(&r.DPI, validation.Required, validation.Min(36), validation.Max(1200)),
		validation.Field(&r.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// Validate checks one rate-limit tier
func (l RateLimit) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Name, validation.Required),
		validation.Field(&l.Requests, validation.Required, validation.Min(1)),
		validation.Field(&l.Window, validation.Required, validation.Min(time.Millisecond)),
	)
}

// Origins returns the CORS origins listed in FrontendURL
func (c *Config) Origins() []string {
	return splitList(c.FrontendURL)
}

// Level returns the log level, defaulting to debug in dev and info elsewhere
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if c.Environment == "dev" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// NewLogger creates the structured JSON logger for the service
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func asValues(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
