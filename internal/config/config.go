// Package config loads credcheck settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Config holds all configuration values.
type Config struct {
	// Export queue
	ExportTimeout time.Duration
	MaxFileSize   int64
	Concurrency   int

	// Text
	Language     string
	Translations string

	// Reliable-font PDF
	PDFFontPath     string
	PDFFontBoldPath string

	// Pixel-perfect PDF
	BrowserBin         string
	PixelViewportWidth int
	PixelScale         float64
	MaxCanvasHeight    int
	PixelJPEGQuality   int

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables. Every malformed value
// is reported; unset values take their defaults.
func Load() (Config, error) {
	var errs []error
	cfg := Config{
		ExportTimeout: getDuration("CREDCHECK_EXPORT_TIMEOUT", 30*time.Second, &errs),
		MaxFileSize:   getBytes("CREDCHECK_MAX_FILE_SIZE", "50MB", &errs),
		Concurrency:   getInt("CREDCHECK_CONCURRENCY", 2, &errs),

		Language:     getEnv("CREDCHECK_LANG", "en"),
		Translations: getEnv("CREDCHECK_TRANSLATIONS", ""),

		PDFFontPath:     getEnv("CREDCHECK_PDF_FONT_PATH", ""),
		PDFFontBoldPath: getEnv("CREDCHECK_PDF_FONT_BOLD_PATH", ""),

		BrowserBin:         getEnv("CREDCHECK_BROWSER_BIN", ""),
		PixelViewportWidth: getInt("CREDCHECK_PIXEL_VIEWPORT_WIDTH", 1024, &errs),
		PixelScale:         getFloat("CREDCHECK_PIXEL_SCALE", 1.5, &errs),
		MaxCanvasHeight:    getInt("CREDCHECK_MAX_CANVAS_HEIGHT", 32767, &errs),
		PixelJPEGQuality:   getInt("CREDCHECK_PIXEL_JPEG_QUALITY", 85, &errs),

		LogFile:  getEnv("CREDCHECK_LOG_FILE", "/tmp/credcheck.log"),
		LogLevel: parseLogLevel(getEnv("CREDCHECK_LOG_LEVEL", "INFO")),
	}

	if cfg.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("CREDCHECK_CONCURRENCY must be at least 1, got %d", cfg.Concurrency))
	}
	if cfg.ExportTimeout <= 0 {
		errs = append(errs, fmt.Errorf("CREDCHECK_EXPORT_TIMEOUT must be positive, got %s", cfg.ExportTimeout))
	}
	if cfg.PixelJPEGQuality < 1 || cfg.PixelJPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("CREDCHECK_PIXEL_JPEG_QUALITY must be 1-100, got %d", cfg.PixelJPEGQuality))
	}
	return cfg, errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int, errs *[]error) int {
	s := getEnv(key, "")
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultVal
	}
	return v
}

func getFloat(key string, defaultVal float64, errs *[]error) float64 {
	s := getEnv(key, "")
	if s == "" {
		return defaultVal
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid value %q", key, s))
		return defaultVal
	}
	return v
}

func getDuration(key string, defaultVal time.Duration, errs *[]error) time.Duration {
	s := getEnv(key, "")
	if s == "" {
		return defaultVal
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultVal
	}
	return v
}

// getBytes parses sizes like "50MB" or "2 MiB".
func getBytes(key, defaultVal string, errs *[]error) int64 {
	s := getEnv(key, defaultVal)
	v, err := humanize.ParseBytes(s)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		v, _ = humanize.ParseBytes(defaultVal)
	}
	return int64(v)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
