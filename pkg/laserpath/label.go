package laserpath

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/aretw0/femto/pkg/geometry"
	"github.com/aretw0/femto/pkg/schema"
)

// glyphPPEM is the size at which outlines are loaded before being scaled.
const glyphPPEM = 256

var (
	defaultFont     *sfnt.Font
	defaultFontErr  error
	defaultFontOnce sync.Once
)

func goRegular() (*sfnt.Font, error) {
	defaultFontOnce.Do(func() {
		defaultFont, defaultFontErr = sfnt.Parse(goregular.TTF)
	})
	return defaultFont, defaultFontErr
}

// LabelParams describes a text engraving.
type LabelParams struct {
	Params `mapstructure:",squash" yaml:",inline"`

	// Height is the em size of the font in mm.
	Height float64 `mapstructure:"height" json:"height" yaml:"height"`
	// Steps is the number of segments each curve is flattened into.
	Steps int `mapstructure:"steps" json:"steps" yaml:"steps"`
}

// DefaultLabelParams returns 0.5 mm text.
func DefaultLabelParams() LabelParams {
	return LabelParams{Params: DefaultParams(), Height: 0.5, Steps: 8}
}

// Validate reports every invalid field.
func (p LabelParams) Validate() error {
	var c schema.Checker
	c.Merge("params", p.Params.Validate())
	c.Positive("height", p.Height)
	c.AtLeast("steps", float64(p.Steps), 1)
	return c.Err()
}

// Label is text engraved along the outlines of its glyphs.
type Label struct {
	*Path
	lp    LabelParams
	width float64
}

// NewLabel engraves text with the Go Regular font. The baseline starts at
// origin and the text runs along +x.
func NewLabel(text string, origin geometry.Vec3, p LabelParams) (*Label, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, errors.New("label text is empty")
	}
	f, err := goRegular()
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	l := &Label{Path: NewPath(p.Params), lp: p}
	scale := p.Height / glyphPPEM
	ppem := fixed.I(glyphPPEM)

	var buf sfnt.Buffer
	pen := 0.0
	var prev sfnt.GlyphIndex
	for i, r := range text {
		gid, err := f.GlyphIndex(&buf, r)
		if err != nil {
			return nil, fmt.Errorf("glyph for %q: %w", r, err)
		}
		if i > 0 {
			if k, err := f.Kern(&buf, prev, gid, ppem, font.HintingNone); err == nil {
				pen += fixed26(k)
			}
		}
		segments, err := f.LoadGlyph(&buf, gid, ppem, nil)
		if err != nil {
			return nil, fmt.Errorf("outline for %q: %w", r, err)
		}

		at := func(pt fixed.Point26_6) geometry.Vec3 {
			// Font space has y pointing down.
			return geometry.V(origin.X+(pen+fixed26(pt.X))*scale, origin.Y-fixed26(pt.Y)*scale, origin.Z)
		}
		l.outline(segments, at)

		adv, err := f.GlyphAdvance(&buf, gid, ppem, font.HintingNone)
		if err != nil {
			return nil, fmt.Errorf("advance for %q: %w", r, err)
		}
		pen += fixed26(adv)
		prev = gid
	}
	l.close()
	l.width = pen * scale
	return l, nil
}

// Width is the advance of the whole text in mm.
func (l *Label) Width() float64 {
	return l.width
}

func (l *Label) outline(segments sfnt.Segments, at func(fixed.Point26_6) geometry.Vec3) {
	steps := l.lp.Steps
	var start, cur geometry.Vec3
	open := false
	closeContour := func() {
		if open && !cur.AlmostEqual(start, 1e-12) {
			l.openTo(start, l.lp.Speed)
		}
		open = false
	}

	for _, s := range segments {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			closeContour()
			start = at(s.Args[0])
			cur = start
			l.closedTo(start, l.lp.SpeedClosed)
			l.openTo(start, l.lp.Speed)
			open = true
		case sfnt.SegmentOpLineTo:
			cur = at(s.Args[0])
			l.openTo(cur, l.lp.Speed)
		case sfnt.SegmentOpQuadTo:
			p0, p1, p2 := cur, at(s.Args[0]), at(s.Args[1])
			for i := 1; i <= steps; i++ {
				t := float64(i) / float64(steps)
				a, b := p0.Lerp(p1, t), p1.Lerp(p2, t)
				l.openTo(a.Lerp(b, t), l.lp.Speed)
			}
			cur = p2
		case sfnt.SegmentOpCubeTo:
			p0, p1, p2, p3 := cur, at(s.Args[0]), at(s.Args[1]), at(s.Args[2])
			for i := 1; i <= steps; i++ {
				t := float64(i) / float64(steps)
				a, b, c := p0.Lerp(p1, t), p1.Lerp(p2, t), p2.Lerp(p3, t)
				d, e := a.Lerp(b, t), b.Lerp(c, t)
				l.openTo(d.Lerp(e, t), l.lp.Speed)
			}
			cur = p3
		}
	}
	closeContour()
}

func fixed26(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
