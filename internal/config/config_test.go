package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.ExportTimeout)
	assert.Equal(t, int64(50_000_000), cfg.MaxFileSize)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, 1024, cfg.PixelViewportWidth)
	assert.InDelta(t, 1.5, cfg.PixelScale, 1e-9)
	assert.Equal(t, 32767, cfg.MaxCanvasHeight)
	assert.Equal(t, 85, cfg.PixelJPEGQuality)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CREDCHECK_EXPORT_TIMEOUT", "5s")
	t.Setenv("CREDCHECK_MAX_FILE_SIZE", "2 MiB")
	t.Setenv("CREDCHECK_CONCURRENCY", "4")
	t.Setenv("CREDCHECK_LANG", "de")
	t.Setenv("CREDCHECK_PIXEL_SCALE", "2")
	t.Setenv("CREDCHECK_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.ExportTimeout)
	assert.Equal(t, int64(2<<20), cfg.MaxFileSize)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "de", cfg.Language)
	assert.InDelta(t, 2.0, cfg.PixelScale, 1e-9)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadReportsEveryBadValue(t *testing.T) {
	t.Setenv("CREDCHECK_EXPORT_TIMEOUT", "soon")
	t.Setenv("CREDCHECK_MAX_FILE_SIZE", "huge")
	t.Setenv("CREDCHECK_CONCURRENCY", "0")

	cfg, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CREDCHECK_EXPORT_TIMEOUT")
	assert.Contains(t, err.Error(), "CREDCHECK_MAX_FILE_SIZE")
	assert.Contains(t, err.Error(), "CREDCHECK_CONCURRENCY")
	assert.Equal(t, 30*time.Second, cfg.ExportTimeout)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in), tt.in)
	}
}

func TestLoggerWritesBothOutputs(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("export completed", "item_id", "abc")
	logger.Debug("hidden")

	assert.Contains(t, stderr.String(), "item_id=abc")
	assert.Contains(t, file.String(), `"item_id":"abc"`)
	assert.NotContains(t, file.String(), "hidden")
}
