package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "ENVIRONMENT", "FRONTEND_URL", "LOG_LEVEL", "PALETTE",
	"MAX_REQUEST_BYTES", "MAX_IMAGE_PIXELS", "SHUTDOWN_TIMEOUT",
	"RASTERIZER_BINARIES", "RASTERIZER_DPI", "RASTERIZER_TIMEOUT",
}

// clearEnv blanks every variable Load reads for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "convertey.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, int64(16383*16383), cfg.MaxImagePixels)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Origins())
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	require.Len(t, cfg.RateLimits, 3)
	assert.Equal(t, RateLimit{Name: "short", Requests: 3, Window: time.Second}, cfg.RateLimits[0])
	assert.Equal(t, RateLimit{Name: "long", Requests: 100, Window: time.Minute}, cfg.RateLimits[2])
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
port: "8080"
environment: prod
frontend_url: "https://app.example.com, https://admin.example.com"
palette: nord
shutdown_timeout: 5s
rasterizer:
  binaries: [pdftocairo]
  dpi: 150
  timeout: 10s
rate_limits:
  - name: burst
    requests: 10
    window: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Origins())
	assert.Equal(t, "nord", cfg.Palette)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, Rasterizer{Binaries: []string{"pdftocairo"}, DPI: 150, Timeout: 10 * time.Second}, cfg.Rasterizer)
	assert.Equal(t, []RateLimit{{Name: "burst", Requests: 10, Window: 2 * time.Second}}, cfg.RateLimits)
	assert.Equal(t, int64(64<<20), cfg.MaxRequestBytes, "unset keys keep their defaults")
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "port: \"8080\"\npalette: nord\n")

	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("MAX_REQUEST_BYTES", "2048")
	t.Setenv("MAX_IMAGE_PIXELS", "1000000")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("RASTERIZER_BINARIES", "pdftocairo, pdftoppm")
	t.Setenv("RASTERIZER_DPI", "72")
	t.Setenv("RASTERIZER_TIMEOUT", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "nord", cfg.Palette)
	assert.Equal(t, slog.LevelWarn, cfg.Level())
	assert.Equal(t, int64(2048), cfg.MaxRequestBytes)
	assert.Equal(t, int64(1000000), cfg.MaxImagePixels)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"pdftocairo", "pdftoppm"}, cfg.Rasterizer.Binaries)
	assert.Equal(t, 72, cfg.Rasterizer.DPI)
	assert.Equal(t, 2*time.Second, cfg.Rasterizer.Timeout)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "port out of range", env: map[string]string{"PORT": "70000"}},
		{name: "port not a number", env: map[string]string{"PORT": "http"}},
		{name: "unknown environment", env: map[string]string{"ENVIRONMENT": "staging"}},
		{name: "unknown log level", env: map[string]string{"LOG_LEVEL": "verbose"}},
		{name: "unknown palette", env: map[string]string{"PALETTE": "neon"}},
		{name: "tiny body limit", env: map[string]string{"MAX_REQUEST_BYTES": "10"}},
		{name: "unparsable body limit", env: map[string]string{"MAX_REQUEST_BYTES": "lots"}},
		{name: "zero pixel limit", env: map[string]string{"MAX_IMAGE_PIXELS": "0"}},
		{name: "unparsable pixel limit", env: map[string]string{"MAX_IMAGE_PIXELS": "many"}},
		{name: "unparsable timeout", env: map[string]string{"SHUTDOWN_TIMEOUT": "soon"}},
		{name: "dpi too high", env: map[string]string{"RASTERIZER_DPI": "5000"}},
		{name: "rate limit without requests", file: "rate_limits:\n  - name: x\n    window: 1s\n"},
		{name: "malformed yaml", file: "port: [unterminated\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			cfg, err := Load(path)
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLevel(t *testing.T) {
	tests := []struct {
		env, level string
		want       slog.Level
	}{
		{"dev", "", slog.LevelDebug},
		{"prod", "", slog.LevelInfo},
		{"test", "", slog.LevelInfo},
		{"dev", "error", slog.LevelError},
		{"prod", "DEBUG", slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			cfg := &Config{Environment: tt.env, LogLevel: tt.level}
			assert.Equal(t, tt.want, cfg.Level())
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Environment: "prod"}, &buf)

	logger.Debug("hidden")
	logger.Info("shown", "key", "value")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"key":"value"`)
}

func TestOriginsSkipsBlanks(t *testing.T) {
	cfg := &Config{FrontendURL: " http://a.test ,, http://b.test "}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Origins())
}
