package vexel

import (
	"errors"

	"honnef.co/go/curve"

	"github.com/vexel-gfx/vexel/text"
)

// A Font turns glyph outlines into meshes on its renderer. Glyph meshes
// are tessellated once per rune and cached; text layout then only hands
// out instance placements.
//
// Glyph meshes are baseline-relative: an instance position is the pen
// position on the baseline, with ascenders extending to smaller y.
type Font struct {
	r     *Renderer
	face  *text.Face
	color Color
	// scale maps design units to pixels so capitals come out at the
	// requested cap height.
	scale  float64
	glyphs map[rune]glyphEntry
}

type glyphEntry struct {
	mesh    Mesh
	advance float64
	lsb     float64
	hasMesh bool
	missing bool
}

// A Glyph is one rune's mesh and horizontal metrics in pixels.
type Glyph struct {
	Mesh Mesh
	// HasMesh is false for blank glyphs such as spaces, which advance
	// the pen but have nothing to draw.
	HasMesh bool
	Advance float64
	LSB     float64
}

// A Placement positions one glyph mesh on the baseline.
type Placement struct {
	Mesh     Mesh
	Instance Instance
}

// LoadFont parses a TTF or OTF font and prepares it for glyph meshing at
// the given cap height in pixels. Glyphs are filled with the given
// color.
func (r *Renderer) LoadFont(data []byte, capHeight float64, color Color) (*Font, error) {
	face, err := text.ParseFace(data)
	if err != nil {
		return nil, err
	}
	ch, err := face.CapHeight()
	if err != nil {
		return nil, err
	}
	return &Font{
		r:      r,
		face:   face,
		color:  color,
		scale:  capHeight / ch,
		glyphs: make(map[rune]glyphEntry),
	}, nil
}

// Glyph returns the cached mesh and metrics for rn, tessellating the
// outline on first use. Runes outside the font's coverage return
// [text.ErrMissingGlyph].
func (f *Font) Glyph(rn rune) (Glyph, error) {
	if e, ok := f.glyphs[rn]; ok {
		if e.missing {
			return Glyph{}, text.ErrMissingGlyph
		}
		return Glyph{Mesh: e.mesh, HasMesh: e.hasMesh, Advance: e.advance, LSB: e.lsb}, nil
	}

	outline, err := f.face.GlyphOutline(rn)
	if errors.Is(err, text.ErrMissingGlyph) {
		f.glyphs[rn] = glyphEntry{missing: true}
		return Glyph{}, err
	} else if err != nil {
		return Glyph{}, err
	}

	e := glyphEntry{
		advance: outline.Advance * f.scale,
		lsb:     outline.LSB * f.scale,
	}
	if len(outline.Elements) > 0 {
		mesh, err := f.r.UploadPath(f.screenElements(outline.Elements), f.color, 1)
		if err != nil {
			return Glyph{}, err
		}
		e.mesh = mesh
		e.hasMesh = true
	}
	f.glyphs[rn] = e
	return Glyph{Mesh: e.mesh, HasMesh: e.hasMesh, Advance: e.advance, LSB: e.lsb}, nil
}

// screenElements scales design-unit outline elements to pixels and flips
// them to the renderer's y-down space.
func (f *Font) screenElements(elems []curve.PathElement) []curve.PathElement {
	out := make([]curve.PathElement, len(elems))
	for i, el := range elems {
		el.P0 = f.screenPoint(el.P0)
		el.P1 = f.screenPoint(el.P1)
		el.P2 = f.screenPoint(el.P2)
		out[i] = el
	}
	return out
}

func (f *Font) screenPoint(p curve.Point) curve.Point {
	return curve.Point{X: p.X * f.scale, Y: -p.Y * f.scale}
}

// LayoutText places s on a single baseline starting at the pen position
// (x, y), in pixels. Runes the font cannot map advance the pen by a
// third of an em and draw nothing. There is no wrapping or shaping; the
// pen moves by each glyph's advance.
func (f *Font) LayoutText(s string, x, y float32) ([]Placement, error) {
	fallback := f.face.UnitsPerEm() / 3 * f.scale
	var placements []Placement
	pen := float64(x)
	for _, rn := range s {
		g, err := f.Glyph(rn)
		if errors.Is(err, text.ErrMissingGlyph) {
			pen += fallback
			continue
		} else if err != nil {
			return nil, err
		}
		if g.HasMesh {
			placements = append(placements, Placement{
				Mesh:     g.Mesh,
				Instance: NewInstance(float32(pen), y),
			})
		}
		pen += g.Advance
	}
	return placements, nil
}

// Instances groups placements into per-mesh instance lists, ready for
// [Renderer.SetInstances].
func Instances(placements []Placement) map[Mesh][]Instance {
	byMesh := make(map[Mesh][]Instance)
	for _, p := range placements {
		byMesh[p.Mesh] = append(byMesh[p.Mesh], p.Instance)
	}
	return byMesh
}
