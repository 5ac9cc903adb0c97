// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	GinMode string

	GeminiAPIKey      string
	ImageModel        string
	ImageAspectRatio  string
	GenerationTimeout time.Duration
	// GenerationRate is the number of provider calls allowed per minute.
	GenerationRate int

	CaptureScale      float64
	PreviewWidth      int
	PreviewHeight     int
	ExportSettleDelay time.Duration
	// MaxCapturePixels caps width*height of one render.
	MaxCapturePixels int
	// ExportConcurrency caps renders running at once.
	ExportConcurrency int

	SessionTTL time.Duration

	FontPath     string
	FontBoldPath string

	LogFormat string
	LogLevel  string
}

// Load reads .env when present and returns the resolved settings.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file, using process environment")
	}
	return &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "release"),

		GeminiAPIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		ImageModel:        getEnv("IMAGE_MODEL", "gemini-2.5-flash-image"),
		ImageAspectRatio:  getEnv("IMAGE_ASPECT_RATIO", "3:4"),
		GenerationTimeout: getDuration("GENERATION_TIMEOUT", 0),
		GenerationRate:    getInt("GENERATION_RATE", 10),

		CaptureScale:      getFloat("CAPTURE_SCALE", 4),
		PreviewWidth:      getInt("PREVIEW_WIDTH", 468),
		PreviewHeight:     getInt("PREVIEW_HEIGHT", 624),
		ExportSettleDelay: getDuration("EXPORT_SETTLE_DELAY", 300*time.Millisecond),
		MaxCapturePixels:  getInt("MAX_CAPTURE_PIXELS", 32<<20),
		ExportConcurrency: getInt("EXPORT_CONCURRENCY", 2),

		SessionTTL: getDuration("SESSION_TTL", 2*time.Hour),

		FontPath:     os.Getenv("FONT_PATH"),
		FontBoldPath: os.Getenv("FONT_BOLD_PATH"),

		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}
}

// NewLogger builds the process logger from LOG_FORMAT and LOG_LEVEL.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h)
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		slog.Warn("invalid integer setting, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f <= 0 {
		slog.Warn("invalid number setting, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d < 0 {
		slog.Warn("invalid duration setting, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}
