package imagepkg

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func TestQREncoder_Encode(t *testing.T) {
	enc := NewQREncoder(DefaultQROptions())
	art, err := enc.Encode(context.Background(), "https://class.example/room1")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if art.Link != "https://class.example/room1" {
		t.Errorf("link = %q", art.Link)
	}
	b := art.Image.Bounds()
	if b.Dx() != 400 || b.Dy() != 400 {
		t.Errorf("size = %dx%d, want 400x400", b.Dx(), b.Dy())
	}

	decoded, err := png.Decode(bytes.NewReader(art.PNG))
	if err != nil {
		t.Fatalf("PNG bytes do not decode: %v", err)
	}
	if decoded.Bounds() != art.Image.Bounds() {
		t.Errorf("PNG bounds %v != image bounds %v", decoded.Bounds(), art.Image.Bounds())
	}

	// the quiet zone corner is background; (70,70) falls in the centre of the
	// top-left finder pattern for versions 2 to 4
	corner := color.NRGBAModel.Convert(art.Image.At(0, 0)).(color.NRGBA)
	if corner != (color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}) {
		t.Errorf("corner = %v, want white quiet zone", corner)
	}
	finder := color.NRGBAModel.Convert(art.Image.At(70, 70)).(color.NRGBA)
	if finder != (color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}) {
		t.Errorf("finder pixel = %v, want #333333", finder)
	}
}

func TestQREncoder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewQREncoder(QROptions{}).Encode(ctx, "x"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestQREncoder_ZeroOptionsUseDefaults(t *testing.T) {
	img, err := NewQREncoder(QROptions{}).Image("hello")
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 400 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}
}

func TestGenerateQRPNG(t *testing.T) {
	b, err := GenerateQRPNG("deck:example", 256)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 256 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}
}

func TestDataURI(t *testing.T) {
	got := DataURI("image/png", []byte{0x89, 'P', 'N', 'G'})
	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("DataURI = %q", got)
	}
	if !strings.HasSuffix(got, "iVBORw==") {
		t.Errorf("payload = %q", got)
	}
}
