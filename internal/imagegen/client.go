// Package imagegen requests poster backgrounds from the Gemini image models.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	DefaultModel       = "gemini-2.5-flash-image"
	DefaultAspectRatio = "3:4"
)

var (
	// ErrMissingAPIKey is a configuration error: generation cannot run at all.
	ErrMissingAPIKey = errors.New("imagegen: GEMINI_API_KEY is not set")
	// ErrNoImage means the provider answered without any inline image.
	ErrNoImage = errors.New("imagegen: response contained no image")
)

// Image is one generated raster as returned by the provider.
type Image struct {
	Data     []byte
	MIMEType string
}

// contentGenerator is the slice of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Config struct {
	APIKey      string
	Model       string
	AspectRatio string
	// Timeout bounds one provider call; zero leaves it unbounded.
	Timeout time.Duration
	// Limiter throttles provider calls across all sessions; nil disables it.
	Limiter *rate.Limiter
}

// Client generates images through the Gemini API. The underlying SDK client
// is created on first use so a missing key only disables generation.
type Client struct {
	cfg    Config
	logger *slog.Logger

	once    sync.Once
	initErr error
	models  contentGenerator
}

type Option func(*Client)

// WithContentGenerator replaces the SDK client, for tests.
func WithContentGenerator(g contentGenerator) Option {
	return func(c *Client) {
		c.models = g
		c.once.Do(func() {})
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.AspectRatio == "" {
		cfg.AspectRatio = DefaultAspectRatio
	}
	c := &Client{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports ErrMissingAPIKey when no credential was supplied.
func (c *Client) Configured() error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func (c *Client) init(ctx context.Context) error {
	c.once.Do(func() {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			c.initErr = fmt.Errorf("create gemini client: %w", err)
			return
		}
		c.models = client.Models
	})
	return c.initErr
}

// Generate sends prompt to the image model and returns the first inline
// image of the response.
func (c *Client) Generate(ctx context.Context, prompt string) (*Image, error) {
	if err := c.Configured(); err != nil {
		return nil, err
	}
	if err := c.init(ctx); err != nil {
		return nil, err
	}
	if c.cfg.Limiter != nil {
		if err := c.cfg.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: c.cfg.AspectRatio,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generate content (model=%s): %w", c.cfg.Model, err)
	}

	img := firstInlineImage(resp)
	if img == nil {
		return nil, ErrNoImage
	}
	c.logger.Info("background generated",
		"model", c.cfg.Model,
		"aspect_ratio", c.cfg.AspectRatio,
		"mime_type", img.MIMEType,
		"bytes", len(img.Data),
		"elapsed", time.Since(start))
	return img, nil
}

func firstInlineImage(resp *genai.GenerateContentResponse) *Image {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return &Image{Data: part.InlineData.Data, MIMEType: mime}
		}
	}
	return nil
}
