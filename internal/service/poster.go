// Package service runs the two long actions of the poster tool: background
// generation and poster export.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/semaphore"

	imagepkg "github.com/lpcrm/reminder-poster/internal/image"
	"github.com/lpcrm/reminder-poster/internal/imagegen"
	"github.com/lpcrm/reminder-poster/internal/poster"
)

var (
	// ErrGenerationFailed covers every provider-side failure.
	ErrGenerationFailed = errors.New("failed to generate image")
	// ErrEmptyResult means the provider answered without an image.
	ErrEmptyResult = errors.New("image generation returned no image")
	// ErrExportFailed covers render and encode failures during export.
	ErrExportFailed = errors.New("failed to save poster")
	// ErrPreviewFailed covers render and encode failures of the preview.
	ErrPreviewFailed = errors.New("failed to render preview")
)

const (
	// DefaultMaxCapturePixels bounds a single render, about 128 MiB of RGBA.
	DefaultMaxCapturePixels = 32 << 20
	DefaultMaxExports       = 2
)

// ImageGenerator produces a background image for a prompt.
type ImageGenerator interface {
	Configured() error
	Generate(ctx context.Context, prompt string) (*imagegen.Image, error)
}

// Renderer draws a poster snapshot.
type Renderer interface {
	Render(snap poster.Snapshot, v imagepkg.Viewport, scale float64) image.Image
}

type Options struct {
	// CaptureScale multiplies the preview size for exports.
	CaptureScale float64
	// SettleDelay bounds the wait for pending QR encodes before capture.
	SettleDelay time.Duration
	// Viewport is used when the client does not report its preview size.
	Viewport imagepkg.Viewport
	// MaxPixels caps width*height of a render; the scale is lowered to fit.
	MaxPixels int
	// MaxExports caps renders running at once across all sessions.
	MaxExports int
}

// Poster orchestrates generation and export against a poster.Store.
type Poster struct {
	gen      ImageGenerator
	renderer Renderer
	opts     Options
	renders  *semaphore.Weighted
	logger   *slog.Logger
}

func NewPoster(gen ImageGenerator, renderer Renderer, opts Options, logger *slog.Logger) *Poster {
	if opts.CaptureScale <= 0 {
		opts.CaptureScale = 4
	}
	if !opts.Viewport.Valid() {
		opts.Viewport = imagepkg.DefaultViewport
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxCapturePixels
	}
	if opts.MaxExports <= 0 {
		opts.MaxExports = DefaultMaxExports
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poster{
		gen:      gen,
		renderer: renderer,
		opts:     opts,
		renders:  semaphore.NewWeighted(int64(opts.MaxExports)),
		logger:   logger,
	}
}

// Viewport is the preview size used when a caller does not report one.
func (p *Poster) Viewport() imagepkg.Viewport {
	return p.opts.Viewport
}

// Generate validates the form, asks the provider for a background and stores
// it. The generating flag is cleared on every return path; on failure the
// previous background is left as it was.
func (p *Poster) Generate(ctx context.Context, store *poster.Store) error {
	snap := store.Snapshot()
	if err := snap.Config.Validate(); err != nil {
		return err
	}
	if err := p.gen.Configured(); err != nil {
		return err
	}
	if err := store.TryBeginGenerate(); err != nil {
		return err
	}
	defer store.EndGenerate()

	prompt := poster.BuildPrompt(snap.Config.Gender)
	img, err := p.gen.Generate(ctx, prompt)
	switch {
	case errors.Is(err, imagegen.ErrNoImage):
		p.logger.Warn("provider returned no image", "gender", snap.Config.Gender)
		return ErrEmptyResult
	case err != nil:
		p.logger.Error("image generation failed", "gender", snap.Config.Gender, "error", err)
		return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	bg, err := imagepkg.DecodeImage(img.Data)
	if err != nil {
		p.logger.Error("generated image could not be decoded", "mime_type", img.MIMEType, "error", err)
		return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	store.SetBackground(bg)
	p.logger.Info("background set", "gender", snap.Config.Gender, "width", bg.Bounds().Dx(), "height", bg.Bounds().Dy())
	return nil
}

// Export is a rendered poster ready for download.
type Export struct {
	Filename string
	PNG      []byte
	Width    int
	Height   int
}

// Export renders the current poster at the capture scale. It refuses to run
// without a background or while another export is in flight.
func (p *Poster) Export(ctx context.Context, store *poster.Store, v imagepkg.Viewport) (exp *Export, err error) {
	if err := store.TryBeginExport(); err != nil {
		return nil, err
	}
	defer store.EndExport()

	if !v.Valid() {
		v = p.opts.Viewport
	}
	p.settle(ctx, store)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.renders.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.renders.Release(1)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("poster render panicked", "panic", r)
			exp, err = nil, fmt.Errorf("%w: render: %v", ErrExportFailed, r)
		}
	}()

	snap := store.Snapshot()
	img := imagepkg.Flatten(p.renderer.Render(snap, v, p.scaleFor(v, p.opts.CaptureScale)), imagepkg.Background)

	buf := new(bytes.Buffer)
	if err := imagepkg.EncodePNG(buf, img); err != nil {
		p.logger.Error("poster encode failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	b := img.Bounds()
	exp = &Export{
		Filename: poster.ExportFilename(snap.Config.StudentName),
		PNG:      buf.Bytes(),
		Width:    b.Dx(),
		Height:   b.Dy(),
	}
	p.logger.Info("poster exported", "filename", exp.Filename, "width", exp.Width, "height", exp.Height, "bytes", len(exp.PNG))
	return exp, nil
}

// Preview renders the poster at its on-screen size.
func (p *Poster) Preview(store *poster.Store, v imagepkg.Viewport) (png []byte, err error) {
	if !v.Valid() {
		v = p.opts.Viewport
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("preview render panicked", "panic", r)
			png, err = nil, fmt.Errorf("%w: render: %v", ErrPreviewFailed, r)
		}
	}()

	buf := new(bytes.Buffer)
	if err := imagepkg.EncodePNG(buf, p.renderer.Render(store.Snapshot(), v, p.scaleFor(v, 1))); err != nil {
		p.logger.Error("preview encode failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPreviewFailed, err)
	}
	return buf.Bytes(), nil
}

// scaleFor lowers scale so that v rendered at it stays within MaxPixels.
func (p *Poster) scaleFor(v imagepkg.Viewport, scale float64) float64 {
	area := float64(v.Width) * float64(v.Height)
	if area*scale*scale <= float64(p.opts.MaxPixels) {
		return scale
	}
	clamped := math.Sqrt(float64(p.opts.MaxPixels) / area)
	p.logger.Warn("render scale lowered to fit pixel budget",
		"width", v.Width, "height", v.Height, "scale", scale, "clamped", clamped, "max_pixels", p.opts.MaxPixels)
	return clamped
}

// settle gives in-flight QR encodes up to SettleDelay to land before capture.
func (p *Poster) settle(ctx context.Context, store *poster.Store) {
	if p.opts.SettleDelay <= 0 {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, p.opts.SettleDelay)
	defer cancel()
	if err := store.AwaitQR(wctx); err != nil && ctx.Err() == nil {
		p.logger.Warn("capturing with a QR encode still pending", "error", err)
	}
}
