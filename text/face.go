// Package text extracts glyph outlines and metrics from TrueType and
// OpenType fonts.
//
// Outlines are reported in font design units with y growing upwards,
// which is the coordinate system font metrics are defined in. Scaling to
// screen space, including the flip to y-down, is the caller's concern.
package text

import (
	"errors"
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"honnef.co/go/curve"
)

// ErrMissingGlyph is returned when a font has no glyph for a rune.
var ErrMissingGlyph = errors.New("no glyph for rune")

// A Face is a parsed font ready for outline extraction. A Face holds a
// reusable parse buffer and must not be used concurrently.
type Face struct {
	font *sfnt.Font
	buf  sfnt.Buffer
	// ppem equal to the font's units per em makes all sfnt results come
	// back in design units.
	ppem fixed.Int26_6
}

// An Outline is one glyph's outline plus its horizontal metrics, all in
// design units.
type Outline struct {
	// Elements is the glyph outline, y-up. Contours are explicitly
	// closed.
	Elements []curve.PathElement
	// Advance is the horizontal advance width.
	Advance float64
	// LSB is the left-side bearing, the x offset of the outline's
	// bounding box.
	LSB float64
}

// ParseFace parses a TTF or OTF font.
func ParseFace(data []byte) (*Face, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	face := &Face{
		font: f,
		ppem: fixed.I(int(f.UnitsPerEm())),
	}
	return face, nil
}

// UnitsPerEm returns the size of the design unit grid.
func (f *Face) UnitsPerEm() float64 {
	return float64(f.font.UnitsPerEm())
}

// CapHeight returns the height of flat capital letters above the
// baseline, in design units. Fonts without a cap height metric fall back
// to the ascent.
func (f *Face) CapHeight() (float64, error) {
	m, err := f.font.Metrics(&f.buf, f.ppem, font.HintingNone)
	if err != nil {
		return 0, fmt.Errorf("font metrics: %w", err)
	}
	if m.CapHeight > 0 {
		return fromFixed(m.CapHeight), nil
	}
	return fromFixed(m.Ascent), nil
}

// GlyphOutline returns the outline for r. Runes outside the font's
// coverage return [ErrMissingGlyph].
func (f *Face) GlyphOutline(r rune) (Outline, error) {
	gid, err := f.font.GlyphIndex(&f.buf, r)
	if err != nil {
		return Outline{}, fmt.Errorf("glyph index for %q: %w", r, err)
	}
	if gid == 0 {
		return Outline{}, fmt.Errorf("glyph for %q: %w", r, ErrMissingGlyph)
	}

	segs, err := f.font.LoadGlyph(&f.buf, gid, f.ppem, nil)
	if err != nil {
		return Outline{}, fmt.Errorf("loading glyph for %q: %w", r, err)
	}
	bounds, advance, err := f.font.GlyphBounds(&f.buf, gid, f.ppem, font.HintingNone)
	if err != nil {
		return Outline{}, fmt.Errorf("glyph bounds for %q: %w", r, err)
	}

	out := Outline{
		Elements: segmentsToElements(segs),
		Advance:  fromFixed(advance),
		LSB:      fromFixed(bounds.Min.X),
	}
	return out, nil
}

// segmentsToElements converts sfnt segments, which are y-down and leave
// contours implicitly closed, into y-up path elements with explicit
// closes.
func segmentsToElements(segs sfnt.Segments) []curve.PathElement {
	elems := make([]curve.PathElement, 0, len(segs)+4)
	open := false
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				elems = append(elems, curve.PathElement{Kind: curve.ClosePathKind})
			}
			elems = append(elems, curve.PathElement{
				Kind: curve.MoveToKind,
				P0:   segPoint(seg.Args[0]),
			})
			open = true
		case sfnt.SegmentOpLineTo:
			elems = append(elems, curve.PathElement{
				Kind: curve.LineToKind,
				P0:   segPoint(seg.Args[0]),
			})
		case sfnt.SegmentOpQuadTo:
			elems = append(elems, curve.PathElement{
				Kind: curve.QuadToKind,
				P0:   segPoint(seg.Args[0]),
				P1:   segPoint(seg.Args[1]),
			})
		case sfnt.SegmentOpCubeTo:
			elems = append(elems, curve.PathElement{
				Kind: curve.CubicToKind,
				P0:   segPoint(seg.Args[0]),
				P1:   segPoint(seg.Args[1]),
				P2:   segPoint(seg.Args[2]),
			})
		}
	}
	if open {
		elems = append(elems, curve.PathElement{Kind: curve.ClosePathKind})
	}
	return elems
}

func segPoint(p fixed.Point26_6) curve.Point {
	return curve.Point{X: fromFixed(p.X), Y: -fromFixed(p.Y)}
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
