package imagepkg

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Fonts holds the parsed typefaces used on the poster. The Go fonts are the
// fallback; Arabic text needs a font with Arabic glyphs, supplied through
// LoadFonts.
type Fonts struct {
	Regular *font.Font
	Bold    *font.Font
}

// LoadFonts parses the TTF/OTF files at the given paths. An empty path selects
// the embedded Go font for that weight.
func LoadFonts(regularPath, boldPath string) (*Fonts, error) {
	regular, err := parseFont(regularPath, goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("regular font: %w", err)
	}
	if boldPath == "" {
		boldPath = regularPath
	}
	bold, err := parseFont(boldPath, gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("bold font: %w", err)
	}
	return &Fonts{Regular: regular, Bold: bold}, nil
}

// DefaultFonts returns the embedded Go fonts.
func DefaultFonts() *Fonts {
	f, err := LoadFonts("", "")
	if err != nil {
		panic(err)
	}
	return f
}

func parseFont(path string, fallback []byte) (*font.Font, error) {
	data := fallback
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = b
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return face.Font, nil
}

// faceSet holds the faces of a single render. Faces cache glyph extents, so
// a set must not be shared between goroutines; the fonts behind them can be.
type faceSet struct {
	regular *font.Face
	bold    *font.Face
}

func newFaceSet(f *Fonts) *faceSet {
	return &faceSet{regular: font.NewFace(f.Regular), bold: font.NewFace(f.Bold)}
}

func (fs *faceSet) face(bold bool) *font.Face {
	if bold {
		return fs.bold
	}
	return fs.regular
}
