package imagepkg

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/lpcrm/reminder-poster/internal/poster"
)

// QROptions controls how class links are drawn.
type QROptions struct {
	Width      int // output width and height in pixels
	Margin     int // quiet zone in modules
	Level      qrcode.RecoveryLevel
	Foreground color.Color
	Background color.Color
}

func DefaultQROptions() QROptions {
	return QROptions{
		Width:      400,
		Margin:     2,
		Level:      qrcode.Medium,
		Foreground: color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff},
		Background: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	}
}

// QREncoder renders QR codes for the poster's class link.
type QREncoder struct {
	opts QROptions
}

func NewQREncoder(opts QROptions) *QREncoder {
	def := DefaultQROptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Margin < 0 {
		opts.Margin = def.Margin
	}
	if opts.Foreground == nil {
		opts.Foreground = def.Foreground
	}
	if opts.Background == nil {
		opts.Background = def.Background
	}
	return &QREncoder{opts: opts}
}

// Encode implements poster.QREncoder.
func (e *QREncoder) Encode(ctx context.Context, text string) (*poster.QRArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := e.Image(text)
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("encode QR png: %w", err)
	}
	return &poster.QRArtifact{Link: text, Image: img, PNG: buf.Bytes()}, nil
}

// Image returns the QR code for text as a Width x Width image with a quiet
// zone of Margin modules.
func (e *QREncoder) Image(text string) (image.Image, error) {
	q, err := qrcode.New(text, e.opts.Level)
	if err != nil {
		return nil, fmt.Errorf("build QR: %w", err)
	}
	q.DisableBorder = true
	bitmap := q.Bitmap()

	m := e.opts.Margin
	n := len(bitmap) + 2*m
	modules := image.NewPaletted(image.Rect(0, 0, n, n), color.Palette{e.opts.Background, e.opts.Foreground})
	for y, row := range bitmap {
		for x, dark := range row {
			if dark {
				modules.SetColorIndex(x+m, y+m, 1)
			}
		}
	}
	return imaging.Resize(modules, e.opts.Width, e.opts.Width, imaging.NearestNeighbor), nil
}

// GenerateQRPNG returns PNG bytes of a QR code for the given text.
func GenerateQRPNG(text string, size int) ([]byte, error) {
	pngBytes, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, err
	}
	return pngBytes, nil
}

// DataURI wraps encoded image bytes as a data: URI.
func DataURI(mimeType string, b []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(b)
}
