package text

import (
	"errors"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
	"honnef.co/go/curve"
)

func testFace(t *testing.T) *Face {
	t.Helper()
	face, err := ParseFace(goregular.TTF)
	if err != nil {
		t.Fatalf("ParseFace: %v", err)
	}
	return face
}

func TestParseFaceInvalid(t *testing.T) {
	if _, err := ParseFace([]byte("not a font")); err == nil {
		t.Error("expected error for invalid font data")
	}
}

func TestGlyphOutline(t *testing.T) {
	face := testFace(t)
	outline, err := face.GlyphOutline('H')
	if err != nil {
		t.Fatalf("GlyphOutline: %v", err)
	}
	if len(outline.Elements) == 0 {
		t.Fatal("glyph 'H' has no outline")
	}
	if outline.Elements[0].Kind != curve.MoveToKind {
		t.Errorf("outline starts with %v, want MoveTo", outline.Elements[0].Kind)
	}
	if outline.Elements[len(outline.Elements)-1].Kind != curve.ClosePathKind {
		t.Error("outline does not end with an explicit close")
	}
	if outline.Advance <= 0 {
		t.Errorf("got advance %v, want > 0", outline.Advance)
	}

	// Design units are y-up: an uppercase letter lives above the
	// baseline, so its on-curve points have y >= 0.
	capHeight, err := face.CapHeight()
	if err != nil {
		t.Fatalf("CapHeight: %v", err)
	}
	if capHeight <= 0 {
		t.Fatalf("got cap height %v, want > 0", capHeight)
	}
	var maxY float64
	for _, el := range outline.Elements {
		if el.Kind == curve.MoveToKind || el.Kind == curve.LineToKind {
			if el.P0.Y > maxY {
				maxY = el.P0.Y
			}
			if el.P0.Y < -1 {
				t.Fatalf("point %v of 'H' below the baseline", el.P0)
			}
		}
	}
	// The top of 'H' sits at the cap height, give or take a little
	// overshoot.
	tol := face.UnitsPerEm() * 0.02
	if diff := maxY - capHeight; diff < -tol || diff > tol {
		t.Errorf("top of 'H' at %v, cap height %v", maxY, capHeight)
	}
}

func TestGlyphOutlineMissing(t *testing.T) {
	face := testFace(t)
	// Go fonts do not cover CJK.
	_, err := face.GlyphOutline('世')
	if err == nil {
		t.Fatal("expected error for uncovered rune")
	}
	if !errors.Is(err, ErrMissingGlyph) {
		t.Errorf("got %v, want ErrMissingGlyph", err)
	}
}

func TestGlyphOutlineDesignUnits(t *testing.T) {
	face := testFace(t)
	if face.UnitsPerEm() <= 0 {
		t.Fatalf("got units per em %v, want > 0", face.UnitsPerEm())
	}
	outline, err := face.GlyphOutline('M')
	if err != nil {
		t.Fatalf("GlyphOutline: %v", err)
	}
	// Advance of a wide letter is a substantial fraction of the em.
	if outline.Advance < face.UnitsPerEm()/4 {
		t.Errorf("advance %v implausibly small for 'M' at upem %v", outline.Advance, face.UnitsPerEm())
	}
}
