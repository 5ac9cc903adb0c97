package imagepkg

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/go-text/typesetting/shaping"

	"github.com/lpcrm/reminder-poster/internal/poster"
)

// MaxScheduleCards is the number of schedule slots on the poster. Extra
// entries are not drawn.
const MaxScheduleCards = 4

// Viewport is the on-screen size of the poster preview, in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultViewport is the 3:4 preview size of the configuration page.
var DefaultViewport = Viewport{Width: 468, Height: 624}

func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0
}

// Size returns the pixel size of a capture at the given scale.
func (v Viewport) Size(scale float64) (int, int) {
	return int(math.Round(float64(v.Width) * scale)), int(math.Round(float64(v.Height) * scale))
}

type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Layout is the resolved geometry of one poster render, in output pixels.
// Only the fields of the active view are set.
type Layout struct {
	View   poster.View
	Scale  float64
	Canvas Rect

	Art           Rect
	Fade          Rect
	Logo          Rect
	NameRight     float64
	NameBottom    float64
	NameSize      float64
	Zone          Rect
	ScheduleLabel Rect
	Cards         []Rect
	Notice        Rect
	NoticeLines   []string
	QRBox         Rect
	QRImage       Rect

	Icon Rect
}

// Compositor draws the fixed poster template.
type Compositor struct {
	fonts *Fonts
}

func NewCompositor(fonts *Fonts) *Compositor {
	if fonts == nil {
		fonts = DefaultFonts()
	}
	return &Compositor{fonts: fonts}
}

// Layout resolves the poster geometry for snap at viewport v and scale.
func (c *Compositor) Layout(snap poster.Snapshot, v Viewport, scale float64) Layout {
	return c.layout(newPen(newFaceSet(c.fonts), scale), snap, v)
}

// Render draws snap into a new image of v's size multiplied by scale.
func (c *Compositor) Render(snap poster.Snapshot, v Viewport, scale float64) image.Image {
	if scale <= 0 {
		scale = 1
	}
	if !v.Valid() {
		v = DefaultViewport
	}
	p := newPen(newFaceSet(c.fonts), scale)
	l := c.layout(p, snap, v)

	dc := gg.NewContext(int(l.Canvas.W), int(l.Canvas.H))
	p.dc = dc
	dc.SetColor(Background)
	dc.Clear()

	switch l.View {
	case poster.ViewEmpty:
		c.drawEmpty(p, l)
	case poster.ViewGenerating:
		c.drawGenerating(p, l)
	default:
		c.drawPopulated(p, l, snap)
	}
	return dc.Image()
}

func (c *Compositor) layout(p *pen, snap poster.Snapshot, v Viewport) Layout {
	if !v.Valid() {
		v = DefaultViewport
	}
	w, h := v.Size(p.scale)
	l := Layout{
		View:   snap.View(),
		Scale:  p.scale,
		Canvas: Rect{W: float64(w), H: float64(h)},
	}
	u := p.u
	W, H := l.Canvas.W, l.Canvas.H

	switch l.View {
	case poster.ViewEmpty:
		l.Icon = Rect{X: W/2 - u(32), Y: H/2 - u(40), W: u(64), H: u(64)}
		return l
	case poster.ViewGenerating:
		l.Icon = Rect{X: W/2 - u(20), Y: H/2 - u(32), W: u(40), H: u(40)}
		return l
	}

	artH := math.Round(H * 0.62)
	l.Art = Rect{W: W, H: artH}
	l.Fade = Rect{Y: artH - u(60), W: W, H: u(60)}

	brandW := p.measure(brandName, 12, true)
	suffixW := p.measure(brandSuffix, 10, true)
	logoW := u(16)*2 + brandW + u(8) + suffixW
	l.Logo = Rect{X: (W - logoW) / 2, Y: u(24), W: logoW, H: u(28)}

	l.NameRight = W - u(24)
	l.NameBottom = artH - u(24)
	l.NameSize = p.fitSize(snap.Config.StudentName, 30, 12, true, W-u(48))

	l.Zone = Rect{X: u(32), Y: artH + u(24), W: W - u(64), H: H - artH - u(48)}

	// right-to-left: the text column sits on the right, the QR column on the left
	l.QRBox = Rect{X: l.Zone.X, Y: l.Zone.Y + u(8), W: u(96), H: u(96)}
	l.QRImage = Rect{X: l.QRBox.X + u(8), Y: l.QRBox.Y + u(8), W: u(80), H: u(80)}

	textLeft := l.QRBox.Right() + u(16)
	textRight := l.Zone.Right()
	colW := math.Max(textRight-textLeft, u(80))
	textLeft = textRight - colW

	l.ScheduleLabel = Rect{X: textLeft, Y: l.Zone.Y, W: colW, H: u(15)}

	gridTop := l.ScheduleLabel.Bottom() + u(10)
	cardW := (colW - u(8)) / 2
	cardH := u(50)
	n := min(len(snap.Config.Schedules), MaxScheduleCards)
	l.Cards = make([]Rect, 0, n)
	for i := 0; i < n; i++ {
		row, col := i/2, i%2
		l.Cards = append(l.Cards, Rect{
			X: textRight - float64(col+1)*cardW - float64(col)*u(8),
			Y: gridTop + float64(row)*(cardH+u(8)),
			W: cardW,
			H: cardH,
		})
	}
	gridH := 0.0
	if rows := (n + 1) / 2; rows > 0 {
		gridH = float64(rows)*cardH + float64(rows-1)*u(8)
	}

	l.NoticeLines = p.wrap(notice, 11, true, colW-u(24))
	l.Notice = Rect{
		X: textLeft,
		Y: gridTop + gridH + u(16),
		W: colW,
		H: u(24) + float64(len(l.NoticeLines))*u(18),
	}
	return l
}

func (c *Compositor) drawEmpty(p *pen, l Layout) {
	dc, u := p.dc, p.u
	ic := l.Icon
	S := ic.W
	col := withAlpha(colorDark, 0.2)

	dc.SetColor(col)
	dc.SetLineWidth(u(3))
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	dc.DrawRoundedRectangle(ic.X+0.1*S, ic.Y+0.2*S, 0.8*S, 0.6*S, 0.08*S)
	dc.Stroke()
	dc.MoveTo(ic.X+0.1*S, ic.Y+0.68*S)
	dc.LineTo(ic.X+0.35*S, ic.Y+0.44*S)
	dc.LineTo(ic.X+0.55*S, ic.Y+0.62*S)
	dc.LineTo(ic.X+0.68*S, ic.Y+0.5*S)
	dc.LineTo(ic.X+0.9*S, ic.Y+0.7*S)
	dc.Stroke()
	dc.NewSubPath()
	dc.DrawCircle(ic.X+0.68*S, ic.Y+0.35*S, 0.05*S)
	dc.Stroke()

	p.text(previewCaption, 10, true, col, l.Canvas.W/2, ic.Bottom()+u(8), 0.5, 1)
}

func (c *Compositor) drawGenerating(p *pen, l Layout) {
	dc, u := p.dc, p.u
	ic := l.Icon
	cx, cy := ic.X+ic.W/2, ic.Y+ic.H/2

	dc.SetColor(colorBlue)
	dc.SetLineWidth(u(4))
	dc.NewSubPath()
	// the top quarter of the ring is left open
	dc.DrawArc(cx, cy, ic.W/2-u(2), -math.Pi/4, 5*math.Pi/4)
	dc.Stroke()

	p.text(renderCaption, 8, true, colorBlue, l.Canvas.W/2, ic.Bottom()+u(16), 0.5, 1)
}

func (c *Compositor) drawPopulated(p *pen, l Layout, snap poster.Snapshot) {
	dc, u := p.dc, p.u

	// art
	dc.SetColor(colorArtBg)
	dc.DrawRectangle(l.Art.X, l.Art.Y, l.Art.W, l.Art.H)
	dc.Fill()
	if snap.Background != nil {
		art := imaging.Fill(snap.Background, int(l.Art.W), int(l.Art.H), imaging.Center, imaging.Lanczos)
		dc.DrawImage(art, int(l.Art.X), int(l.Art.Y))
	}

	fade := gg.NewLinearGradient(0, l.Fade.Y, 0, l.Fade.Bottom())
	fade.AddColorStop(0, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0})
	fade.AddColorStop(1, color.White)
	dc.SetFillStyle(fade)
	dc.DrawRectangle(l.Fade.X, l.Fade.Y, l.Fade.W, l.Fade.H)
	dc.Fill()

	// brand pill
	lg := l.Logo
	dc.SetColor(withAlpha(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, 0.85))
	dc.DrawRoundedRectangle(lg.X, lg.Y, lg.W, lg.H, lg.H/2)
	dc.FillPreserve()
	dc.SetColor(withAlpha(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, 0.4))
	dc.SetLineWidth(u(1))
	dc.Stroke()
	mid := lg.Y + lg.H/2
	p.text(brandName, 12, true, colorBlue, lg.X+u(16), mid, 0, 0.35)
	p.text(brandSuffix, 10, true, colorDark, lg.Right()-u(16), mid, 1, 0.35)

	c.drawName(p, l, snap.Config.StudentName)

	// schedule
	p.text(scheduleLabel, 10, true, colorBlue, l.ScheduleLabel.Right(), l.ScheduleLabel.Y, 1, 1)
	for i, r := range l.Cards {
		e := snap.Config.Schedules[i]
		dc.SetColor(withAlpha(colorSoftGray, 0.6))
		dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, u(12))
		dc.FillPreserve()
		dc.SetColor(colorSlate50)
		dc.SetLineWidth(u(1))
		dc.Stroke()
		p.text(e.Day, 8, true, withAlpha(colorDark, 0.4), r.Right()-u(12), r.Y+u(9), 1, 1)
		p.text(e.Time, 14, true, colorBlue, r.Right()-u(12), r.Y+u(22), 1, 1)
	}

	// notice
	nb := l.Notice
	dc.SetColor(withAlpha(colorBlue, 0.05))
	dc.DrawRoundedRectangle(nb.X, nb.Y, nb.W, nb.H, u(12))
	dc.FillPreserve()
	dc.SetColor(withAlpha(colorBlue, 0.1))
	dc.SetLineWidth(u(1))
	dc.Stroke()
	for i, line := range l.NoticeLines {
		p.text(line, 11, true, withAlpha(colorDark, 0.8), nb.Right()-u(12), nb.Y+u(12)+float64(i)*u(18), 1, 1)
	}

	// QR
	qb := l.QRBox
	dc.SetColor(color.White)
	dc.DrawRoundedRectangle(qb.X, qb.Y, qb.W, qb.H, u(24))
	dc.FillPreserve()
	dc.SetColor(colorSoftGray)
	dc.SetLineWidth(u(2))
	dc.Stroke()
	if snap.QR != nil && snap.QR.Image != nil {
		qi := l.QRImage
		qr := imaging.Resize(snap.QR.Image, int(qi.W), int(qi.H), imaging.Lanczos)
		dc.DrawImage(qr, int(qi.X), int(qi.Y))
	}
	cx := qb.X + qb.W/2
	p.text(scanCaption, 9, true, colorBlue, cx, qb.Bottom()+u(8), 0.5, 1)
	p.text(scanCaptionEN, 7, true, colorSlate300, cx, qb.Bottom()+u(24), 0.5, 1)
}

// drawName paints the student name with a blurred drop shadow. The shadow is
// rasterized into its own layer so it composes the same at every scale.
func (c *Compositor) drawName(p *pen, l Layout, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	u := p.u
	st := p.shape(name, l.NameSize, true)
	w, h := st.width, st.height()
	x := l.NameRight - w
	top := l.NameBottom - h

	pad := math.Ceil(u(16))
	layer := gg.NewContext(int(math.Ceil(w+2*pad)), int(math.Ceil(h+2*pad)))
	layer.SetColor(colorShadow)
	st.draw(layer, pad, pad+st.ascent)
	shadow := imaging.Blur(layer.Image(), u(4))
	p.dc.DrawImage(shadow, int(math.Round(x-pad)), int(math.Round(top-pad+u(2))))

	p.dc.SetColor(colorBlue)
	st.draw(p.dc, x, top+st.ascent)
}

// pen carries the per-render scale, faces and shaper.
type pen struct {
	dc     *gg.Context
	fs     *faceSet
	scale  float64
	shaper *shaping.HarfbuzzShaper
}

func newPen(fs *faceSet, scale float64) *pen {
	if scale <= 0 {
		scale = 1
	}
	return &pen{fs: fs, scale: scale, shaper: &shaping.HarfbuzzShaper{}}
}

// u converts CSS pixels to output pixels.
func (p *pen) u(v float64) float64 {
	return v * p.scale
}

// shape lays out s at size CSS pixels.
func (p *pen) shape(s string, size float64, bold bool) shapedText {
	return shapeLine(p.shaper, p.fs.face(bold), s, p.u(size))
}

func (p *pen) measure(s string, size float64, bold bool) float64 {
	return p.shape(s, size, bold).width
}

// fitSize shrinks size until s fits in maxW output pixels.
func (p *pen) fitSize(s string, size, minSize float64, bold bool, maxW float64) float64 {
	for size > minSize && p.measure(s, size, bold) > maxW {
		size -= 2
	}
	return math.Max(size, minSize)
}

// wrap breaks s into lines no wider than maxW, keeping logical order.
func (p *pen) wrap(s string, size float64, bold bool, maxW float64) []string {
	words := strings.Fields(s)
	var lines []string
	line := ""
	for _, w := range words {
		candidate := w
		if line != "" {
			candidate = line + " " + w
		}
		if line != "" && p.measure(candidate, size, bold) > maxW {
			lines = append(lines, line)
			line = w
			continue
		}
		line = candidate
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// text draws s with the anchor (ax, ay) of its box at (x, y). ax=1 right
// aligns; ay=1 puts the top of the box at y.
func (p *pen) text(s string, size float64, bold bool, col color.Color, x, y, ax, ay float64) {
	st := p.shape(s, size, bold)
	p.dc.SetColor(col)
	st.draw(p.dc, x-ax*st.width, y+ay*st.height()-st.descent)
}
