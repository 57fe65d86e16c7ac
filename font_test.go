package vexel

import (
	"errors"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/vexel-gfx/vexel/text"
)

func testFont(t *testing.T, capHeight float64) (*Renderer, *Font) {
	t.Helper()
	r, err := NewRenderer(640, 480, Options{})
	if err != nil {
		t.Fatal(err)
	}
	f, err := r.LoadFont(goregular.TTF, capHeight, RGBA(0, 0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	return r, f
}

func TestGlyphMesh(t *testing.T) {
	r, f := testFont(t, 20)

	g, err := f.Glyph('H')
	if err != nil {
		t.Fatal(err)
	}
	if !g.HasMesh {
		t.Fatal("H has no mesh")
	}
	if g.Advance <= 0 {
		t.Errorf("advance = %v, want > 0", g.Advance)
	}

	// Baseline-relative and y-down: the capital sits above the
	// baseline, so every vertex has y <= 0 and none reaches much past
	// the cap height.
	for _, v := range r.table.call(g.Mesh).vertices {
		if v.Pos[1] > 0.5 || v.Pos[1] < -21 {
			t.Fatalf("vertex y = %v, want within [-21, 0.5]", v.Pos[1])
		}
	}
}

func TestGlyphMeshCached(t *testing.T) {
	r, f := testFont(t, 20)

	first, err := f.Glyph('a')
	if err != nil {
		t.Fatal(err)
	}
	uploaded := len(r.table.calls)
	second, err := f.Glyph('a')
	if err != nil {
		t.Fatal(err)
	}
	if first.Mesh != second.Mesh {
		t.Errorf("repeated lookups returned meshes %d and %d", first.Mesh, second.Mesh)
	}
	if got := len(r.table.calls); got != uploaded {
		t.Errorf("second lookup uploaded a new mesh (%d calls, was %d)", got, uploaded)
	}
}

func TestGlyphMissing(t *testing.T) {
	_, f := testFont(t, 20)

	if _, err := f.Glyph('世'); !errors.Is(err, text.ErrMissingGlyph) {
		t.Errorf("got %v, want ErrMissingGlyph", err)
	}
	// The miss is cached too.
	if _, err := f.Glyph('世'); !errors.Is(err, text.ErrMissingGlyph) {
		t.Errorf("cached lookup: got %v, want ErrMissingGlyph", err)
	}
}

func TestLayoutText(t *testing.T) {
	_, f := testFont(t, 20)

	placements, err := f.LayoutText("Hi Hi", 10, 100)
	if err != nil {
		t.Fatal(err)
	}
	// The space advances the pen but draws nothing.
	if len(placements) != 4 {
		t.Fatalf("got %d placements, want 4", len(placements))
	}

	prev := float32(10) - 1
	for i, p := range placements {
		if p.Instance.Position[0] <= prev {
			t.Errorf("placement %d at x=%v, want strictly right of %v", i, p.Instance.Position[0], prev)
		}
		if p.Instance.Position[1] != 100 {
			t.Errorf("placement %d at y=%v, want the baseline at 100", i, p.Instance.Position[1])
		}
		prev = p.Instance.Position[0]
	}

	// Both H's and both i's share a mesh.
	if placements[0].Mesh != placements[2].Mesh {
		t.Errorf("H placed with meshes %d and %d", placements[0].Mesh, placements[2].Mesh)
	}
	if placements[1].Mesh != placements[3].Mesh {
		t.Errorf("i placed with meshes %d and %d", placements[1].Mesh, placements[3].Mesh)
	}

	byMesh := Instances(placements)
	if len(byMesh) != 2 {
		t.Fatalf("got %d distinct meshes, want 2", len(byMesh))
	}
	for mesh, instances := range byMesh {
		if len(instances) != 2 {
			t.Errorf("mesh %d has %d instances, want 2", mesh, len(instances))
		}
	}
}

func TestLayoutTextMissingGlyphAdvances(t *testing.T) {
	_, f := testFont(t, 20)

	with, err := f.LayoutText("A世B", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	without, err := f.LayoutText("AB", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(with) != 2 || len(without) != 2 {
		t.Fatalf("got %d and %d placements, want 2 each", len(with), len(without))
	}
	if with[1].Instance.Position[0] <= without[1].Instance.Position[0] {
		t.Errorf("missing glyph did not advance the pen: B at %v vs %v",
			with[1].Instance.Position[0], without[1].Instance.Position[0])
	}
}
