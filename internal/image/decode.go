package imagepkg

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
)

var ErrEmptyImage = errors.New("image: no data")

// DecodeImage decodes generated image bytes (PNG, JPEG, GIF, BMP, TIFF).
func DecodeImage(b []byte) (image.Image, error) {
	if len(b) == 0 {
		return nil, ErrEmptyImage
	}
	img, err := imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Flatten composites img over an opaque background so no transparent pixel
// survives into the export.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	base := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(base, img, image.Pt(0, 0), 1.0)
}

// EncodePNG writes img as a lossless PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}
