package imagepkg

import "image/color"

var (
	colorBlue     = color.NRGBA{R: 0x26, G: 0xB7, B: 0xFF, A: 0xff}
	colorDark     = color.NRGBA{R: 0x1E, G: 0x29, B: 0x3B, A: 0xff}
	colorSoftGray = color.NRGBA{R: 0xF1, G: 0xF5, B: 0xF9, A: 0xff}
	colorSlate50  = color.NRGBA{R: 0xF8, G: 0xFA, B: 0xFC, A: 0xff}
	colorSlate300 = color.NRGBA{R: 0xCB, G: 0xD5, B: 0xE1, A: 0xff}
	colorArtBg    = color.NRGBA{R: 0xF9, G: 0xF9, B: 0xF9, A: 0xff}
	colorShadow   = color.NRGBA{A: 0x66}
)

// Background is the opaque fill behind every poster pixel.
var Background color.Color = color.White

func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(float64(c.A)*a + 0.5)
	return c
}

// poster copy
const (
	brandName      = "51TALK"
	brandSuffix    = "Academy"
	scheduleLabel  = "موعد الحصص المباشرة"
	notice         = "لضمان أفضل جودة للتعلّم، يُرجى استخدام جهاز بشاشة كبيرة مثل الآيباد لمسح رمز الـ QR والدخول إلى الصف."
	scanCaption    = "امسح الكود للدخول"
	scanCaptionEN  = "SCAN TO START CLASS"
	previewCaption = "ARTWORK PREVIEW"
	renderCaption  = "RENDERING JOURNEY..."
)
