package imagepkg

import (
	"math"
	"slices"

	"github.com/fogleman/gg"
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"
)

// Text is split into directional runs with x/text's bidi resolver, each run
// is shaped by HarfBuzz (joining forms, ligatures, mirroring), and the glyph
// outlines are filled through gg.

type textRun struct {
	runes []rune
	rtl   bool
}

// strongDir reports the direction of r when r is a strong letter.
func strongDir(r rune) (rtl, ok bool) {
	p, _ := bidi.LookupRune(r)
	switch p.Class() {
	case bidi.R, bidi.AL:
		return true, true
	case bidi.L:
		return false, true
	}
	return false, false
}

// isRTL reports whether the first strong letter of s is right-to-left.
func isRTL(s string) bool {
	for _, r := range s {
		if rtl, ok := strongDir(r); ok {
			return rtl
		}
	}
	return false
}

func hasStrongLTR(rs []rune) bool {
	for _, r := range rs {
		if rtl, ok := strongDir(r); ok && !rtl {
			return true
		}
	}
	return false
}

func hasDigit(rs []rune) bool {
	for _, r := range rs {
		p, _ := bidi.LookupRune(r)
		if c := p.Class(); c == bidi.EN || c == bidi.AN {
			return true
		}
	}
	return false
}

// visualRuns returns the directional runs of one line, left to right. Run
// contents stay in logical order; the shaper reverses right-to-left runs.
func visualRuns(s string) []textRun {
	if s == "" {
		return nil
	}
	rtl := isRTL(s)
	whole := []textRun{{runes: []rune(s), rtl: rtl}}

	dir := bidi.LeftToRight
	if rtl {
		dir = bidi.RightToLeft
	}
	var p bidi.Paragraph
	if _, err := p.SetString(s, bidi.DefaultDirection(dir)); err != nil {
		return whole
	}
	ord, err := p.Order()
	if err != nil || ord.NumRuns() == 0 {
		return whole
	}
	runs := make([]textRun, 0, ord.NumRuns())
	for i := 0; i < ord.NumRuns(); i++ {
		run := ord.Run(i)
		runs = append(runs, textRun{runes: []rune(run.String()), rtl: run.Direction() == bidi.RightToLeft})
	}

	if rtl {
		slices.Reverse(runs)
		return runs
	}
	// In a left-to-right line, numbers that follow right-to-left text are
	// embedded in it and display on its left.
	for i := 0; i < len(runs); {
		if !runs[i].rtl {
			i++
			continue
		}
		j := i + 1
		for j < len(runs) && (runs[j].rtl || (hasDigit(runs[j].runes) && !hasStrongLTR(runs[j].runes))) {
			j++
		}
		slices.Reverse(runs[i:j])
		i = j
	}
	return runs
}

// runScript picks the script HarfBuzz shapes a run with.
func runScript(rs []rune, rtl bool) language.Script {
	for _, r := range rs {
		if d, ok := strongDir(r); ok && d == rtl {
			return language.LookupScript(r)
		}
	}
	if rtl {
		return language.Arabic
	}
	return language.Latin
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// shapedText is one shaped line, ready to measure or draw.
type shapedText struct {
	face    *font.Face
	size    float64
	runs    []shaping.Output
	width   float64
	ascent  float64
	descent float64
}

func (st shapedText) height() float64 {
	return st.ascent + st.descent
}

func shapeLine(sh *shaping.HarfbuzzShaper, face *font.Face, s string, size float64) shapedText {
	st := shapedText{face: face, size: size}
	for _, run := range visualRuns(s) {
		dir, lang := di.DirectionLTR, "en"
		if run.rtl {
			dir, lang = di.DirectionRTL, "ar"
		}
		out := sh.Shape(shaping.Input{
			Text:      run.runes,
			RunStart:  0,
			RunEnd:    len(run.runes),
			Direction: dir,
			Face:      face,
			Size:      toFixed(size),
			Script:    runScript(run.runes, run.rtl),
			Language:  language.NewLanguage(lang),
		})
		st.runs = append(st.runs, out)
		st.width += math.Abs(fromFixed(out.Advance))
		st.ascent = math.Max(st.ascent, fromFixed(out.LineBounds.Ascent))
		st.descent = math.Max(st.descent, math.Abs(fromFixed(out.LineBounds.Descent)))
	}
	return st
}

// draw fills the glyph outlines with the current color, starting at x on
// baseline y.
func (st shapedText) draw(dc *gg.Context, x, y float64) {
	scale := st.size / float64(st.face.Upem())
	for _, out := range st.runs {
		for _, g := range out.Glyphs {
			if outline, ok := st.face.GlyphData(g.GlyphID).(font.GlyphOutline); ok {
				traceOutline(dc, outline, x+fromFixed(g.XOffset), y-fromFixed(g.YOffset), scale)
			}
			x += math.Abs(fromFixed(g.XAdvance))
		}
	}
	dc.Fill()
}

// traceOutline appends a glyph outline in font units to dc's path. Font
// units grow upwards, image pixels downwards.
func traceOutline(dc *gg.Context, o font.GlyphOutline, x, y, scale float64) {
	for _, seg := range o.Segments {
		a := seg.Args
		px := func(i int) float64 { return x + float64(a[i].X)*scale }
		py := func(i int) float64 { return y - float64(a[i].Y)*scale }
		switch seg.Op {
		case ot.SegmentOpMoveTo:
			dc.MoveTo(px(0), py(0))
		case ot.SegmentOpLineTo:
			dc.LineTo(px(0), py(0))
		case ot.SegmentOpQuadTo:
			dc.QuadraticTo(px(0), py(0), px(1), py(1))
		case ot.SegmentOpCubeTo:
			dc.CubicTo(px(0), py(0), px(1), py(1), px(2), py(2))
		}
	}
	dc.ClosePath()
}
