package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/lpcrm/reminder-poster/internal/api"
	"github.com/lpcrm/reminder-poster/internal/config"
	imagepkg "github.com/lpcrm/reminder-poster/internal/image"
	"github.com/lpcrm/reminder-poster/internal/imagegen"
	"github.com/lpcrm/reminder-poster/internal/service"
	"github.com/lpcrm/reminder-poster/internal/session"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	fonts, err := imagepkg.LoadFonts(cfg.FontPath, cfg.FontBoldPath)
	if err != nil {
		logger.Error("failed to load fonts", "regular", cfg.FontPath, "bold", cfg.FontBoldPath, "error", err)
		os.Exit(1)
	}

	var limiter *rate.Limiter
	if cfg.GenerationRate > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.GenerationRate)), cfg.GenerationRate)
	}
	gen := imagegen.NewClient(imagegen.Config{
		APIKey:      cfg.GeminiAPIKey,
		Model:       cfg.ImageModel,
		AspectRatio: cfg.ImageAspectRatio,
		Timeout:     cfg.GenerationTimeout,
		Limiter:     limiter,
	}, imagegen.WithLogger(logger))
	if err := gen.Configured(); err != nil {
		logger.Warn("background generation disabled until GEMINI_API_KEY is set")
	}

	sessions := session.NewManager(cfg.SessionTTL, imagepkg.NewQREncoder(imagepkg.DefaultQROptions()), logger)
	posters := service.NewPoster(gen, imagepkg.NewCompositor(fonts), service.Options{
		CaptureScale: cfg.CaptureScale,
		SettleDelay:  cfg.ExportSettleDelay,
		Viewport:     imagepkg.Viewport{Width: cfg.PreviewWidth, Height: cfg.PreviewHeight},
		MaxPixels:    cfg.MaxCapturePixels,
		MaxExports:   cfg.ExportConcurrency,
	}, logger)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), api.RequestLogger(logger))
	api.RegisterRoutes(r, api.NewHandler(sessions, posters, logger))

	logger.Info("starting server", "addr", "http://localhost:"+cfg.Port, "model", cfg.ImageModel, "capture_scale", cfg.CaptureScale)
	if err := r.Run(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
