package tess

import (
	"errors"
	"testing"

	"honnef.co/go/curve"
)

var red = Color{1, 0, 0, 1}

func rectPath(x, y, w, h float64) []curve.PathElement {
	return []curve.PathElement{
		{Kind: curve.MoveToKind, P0: curve.Point{X: x, Y: y}},
		{Kind: curve.LineToKind, P0: curve.Point{X: x + w, Y: y}},
		{Kind: curve.LineToKind, P0: curve.Point{X: x + w, Y: y + h}},
		{Kind: curve.LineToKind, P0: curve.Point{X: x, Y: y + h}},
		{Kind: curve.ClosePathKind},
	}
}

func circlePath(cx, cy, r float64) []curve.PathElement {
	// Cubic approximation with four arcs.
	const k = 0.5519150244935105707435627
	return []curve.PathElement{
		{Kind: curve.MoveToKind, P0: curve.Point{X: cx + r, Y: cy}},
		{Kind: curve.CubicToKind,
			P0: curve.Point{X: cx + r, Y: cy + k*r},
			P1: curve.Point{X: cx + k*r, Y: cy + r},
			P2: curve.Point{X: cx, Y: cy + r}},
		{Kind: curve.CubicToKind,
			P0: curve.Point{X: cx - k*r, Y: cy + r},
			P1: curve.Point{X: cx - r, Y: cy + k*r},
			P2: curve.Point{X: cx - r, Y: cy}},
		{Kind: curve.CubicToKind,
			P0: curve.Point{X: cx - r, Y: cy - k*r},
			P1: curve.Point{X: cx - k*r, Y: cy - r},
			P2: curve.Point{X: cx, Y: cy - r}},
		{Kind: curve.CubicToKind,
			P0: curve.Point{X: cx + k*r, Y: cy - r},
			P1: curve.Point{X: cx + r, Y: cy - k*r},
			P2: curve.Point{X: cx + r, Y: cy}},
		{Kind: curve.ClosePathKind},
	}
}

func TestFillRectangle(t *testing.T) {
	// A rectangle has no curves, so the triangle count must not depend
	// on the flattening tolerance.
	for _, tol := range []float64{0.01, 10} {
		var buf Buffers
		opts := DefaultFillOptions(red)
		opts.Tolerance = tol
		if err := Fill(&buf, rectPath(0, 0, 10, 20), opts); err != nil {
			t.Fatalf("Fill: %v", err)
		}
		if len(buf.Vertices) != 4 {
			t.Errorf("tolerance %v: got %d vertices, want 4", tol, len(buf.Vertices))
		}
		if len(buf.Indices) != 6 {
			t.Errorf("tolerance %v: got %d indices, want 6", tol, len(buf.Indices))
		}
	}
}

func TestFillAppendsOffsetCorrect(t *testing.T) {
	var buf Buffers
	opts := DefaultFillOptions(red)
	if err := Fill(&buf, rectPath(0, 0, 10, 10), opts); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	firstVerts := len(buf.Vertices)
	firstIdx := len(buf.Indices)
	if err := Fill(&buf, rectPath(20, 0, 10, 10), opts); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if len(buf.Vertices) != 2*firstVerts || len(buf.Indices) != 2*firstIdx {
		t.Fatalf("got %d vertices/%d indices after two fills, want %d/%d",
			len(buf.Vertices), len(buf.Indices), 2*firstVerts, 2*firstIdx)
	}
	for _, idx := range buf.Indices[firstIdx:] {
		if int(idx) < firstVerts {
			t.Fatalf("index %d in second fill refers into the first fill's vertices", idx)
		}
		if int(idx) >= len(buf.Vertices) {
			t.Fatalf("index %d out of range", idx)
		}
	}
}

func TestFillIndicesDivisibleByThree(t *testing.T) {
	var buf Buffers
	opts := DefaultFillOptions(red)
	opts.Tolerance = 0.01
	if err := Fill(&buf, circlePath(0, 0, 50), opts); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if len(buf.Indices) == 0 || len(buf.Indices)%3 != 0 {
		t.Fatalf("got %d indices, want a positive multiple of 3", len(buf.Indices))
	}
	if len(buf.Vertices) <= 4 {
		t.Fatalf("got %d vertices for a finely flattened circle, expected more", len(buf.Vertices))
	}
}

func TestFillConcavePolygon(t *testing.T) {
	// An L shape cannot be triangulated by a fan from vertex 0.
	elems := []curve.PathElement{
		{Kind: curve.MoveToKind, P0: curve.Point{X: 0, Y: 0}},
		{Kind: curve.LineToKind, P0: curve.Point{X: 10, Y: 0}},
		{Kind: curve.LineToKind, P0: curve.Point{X: 10, Y: 4}},
		{Kind: curve.LineToKind, P0: curve.Point{X: 4, Y: 4}},
		{Kind: curve.LineToKind, P0: curve.Point{X: 4, Y: 10}},
		{Kind: curve.LineToKind, P0: curve.Point{X: 0, Y: 10}},
		{Kind: curve.ClosePathKind},
	}
	var buf Buffers
	if err := Fill(&buf, elems, DefaultFillOptions(red)); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if len(buf.Vertices) != 6 {
		t.Errorf("got %d vertices, want 6", len(buf.Vertices))
	}
	// 6 polygon vertices triangulate into 4 triangles.
	if len(buf.Indices) != 12 {
		t.Errorf("got %d indices, want 12", len(buf.Indices))
	}
}

func reverseRect(x, y, w, h float64) []curve.PathElement {
	return []curve.PathElement{
		{Kind: curve.MoveToKind, P0: curve.Point{X: x, Y: y}},
		{Kind: curve.LineToKind, P0: curve.Point{X: x, Y: y + h}},
		{Kind: curve.LineToKind, P0: curve.Point{X: x + w, Y: y + h}},
		{Kind: curve.LineToKind, P0: curve.Point{X: x + w, Y: y}},
		{Kind: curve.ClosePathKind},
	}
}

func TestFillRingHole(t *testing.T) {
	// A 10x10 square with a 2x2 inner ring fills as a ring: the inner
	// area stays open regardless of the inner ring's winding.
	inners := map[string][]curve.PathElement{
		"opposite winding": reverseRect(4, 4, 2, 2),
		"same winding":     rectPath(4, 4, 2, 2),
	}
	for name, inner := range inners {
		t.Run(name, func(t *testing.T) {
			elems := append(rectPath(0, 0, 10, 10), inner...)
			var buf Buffers
			if err := Fill(&buf, elems, DefaultFillOptions(red)); err != nil {
				t.Fatalf("Fill: %v", err)
			}

			var area float64
			for i := 0; i+2 < len(buf.Indices); i += 3 {
				a := buf.Vertices[buf.Indices[i]].Pos
				b := buf.Vertices[buf.Indices[i+1]].Pos
				c := buf.Vertices[buf.Indices[i+2]].Pos
				cx := (a[0] + b[0] + c[0]) / 3
				cy := (a[1] + b[1] + c[1]) / 3
				if cx > 4 && cx < 6 && cy > 4 && cy < 6 {
					t.Fatalf("triangle centroid (%v, %v) inside the hole", cx, cy)
				}
				area += 0.5 * float64(abs32((b[0]-a[0])*(c[1]-a[1])-(b[1]-a[1])*(c[0]-a[0])))
			}
			// Outer area minus the hole.
			if area < 95.9 || area > 96.1 {
				t.Errorf("filled area = %v, want 96", area)
			}
		})
	}
}

func TestFillDisjointSubpaths(t *testing.T) {
	// Side-by-side rings contain each other not at all and fill
	// independently.
	elems := append(rectPath(0, 0, 10, 10), rectPath(20, 0, 10, 10)...)
	var buf Buffers
	if err := Fill(&buf, elems, DefaultFillOptions(red)); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if len(buf.Vertices) != 8 {
		t.Errorf("got %d vertices, want 8", len(buf.Vertices))
	}
	if len(buf.Indices) != 12 {
		t.Errorf("got %d indices, want 12", len(buf.Indices))
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestFillVertexColor(t *testing.T) {
	var buf Buffers
	opts := DefaultFillOptions(Color{0.2, 0.4, 0.6, 1})
	opts.Opacity = 0.5
	if err := Fill(&buf, rectPath(0, 0, 1, 1), opts); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	want := [4]float32{0.2, 0.4, 0.6, 0.5}
	for i, v := range buf.Vertices {
		if v.Color != want {
			t.Fatalf("vertex %d: got color %v, want %v", i, v.Color, want)
		}
	}
}

func TestFillDegenerateSubpaths(t *testing.T) {
	// Single-point and two-point subpaths have no area.
	elems := []curve.PathElement{
		{Kind: curve.MoveToKind, P0: curve.Point{X: 0, Y: 0}},
		{Kind: curve.MoveToKind, P0: curve.Point{X: 5, Y: 5}},
		{Kind: curve.LineToKind, P0: curve.Point{X: 6, Y: 5}},
	}
	var buf Buffers
	if err := Fill(&buf, elems, DefaultFillOptions(red)); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if len(buf.Vertices) != 0 || len(buf.Indices) != 0 {
		t.Fatalf("degenerate subpaths produced %d vertices/%d indices", len(buf.Vertices), len(buf.Indices))
	}
}

func TestFillParseError(t *testing.T) {
	elems := []curve.PathElement{
		{Kind: curve.LineToKind, P0: curve.Point{X: 1, Y: 1}},
	}
	var buf Buffers
	if err := Fill(&buf, elems, DefaultFillOptions(red)); err == nil {
		t.Fatal("expected error for drawing before MoveTo")
	}
	if len(buf.Vertices) != 0 || len(buf.Indices) != 0 {
		t.Fatal("failed fill modified the buffer set")
	}
}

func TestFillVertexOverflow(t *testing.T) {
	var buf Buffers
	buf.Vertices = make([]Vertex, MaxVertices-2)
	before := len(buf.Indices)
	err := Fill(&buf, rectPath(0, 0, 10, 10), DefaultFillOptions(red))
	if err == nil {
		t.Fatal("expected overflow error")
	}
	var terr *TessellationError
	if !errors.As(err, &terr) {
		t.Fatalf("got %T, want *TessellationError", err)
	}
	if terr.Stage != StageFill {
		t.Errorf("got stage %v, want %v", terr.Stage, StageFill)
	}
	if len(buf.Vertices) != MaxVertices-2 || len(buf.Indices) != before {
		t.Fatal("failed fill modified the buffer set")
	}
}

func TestStrokeLine(t *testing.T) {
	elems := []curve.PathElement{
		{Kind: curve.MoveToKind, P0: curve.Point{X: 0, Y: 0}},
		{Kind: curve.LineToKind, P0: curve.Point{X: 100, Y: 0}},
	}
	var buf Buffers
	opts := DefaultStrokeOptions(red)
	opts.Width = 4
	if err := Stroke(&buf, elems, opts); err != nil {
		t.Fatalf("Stroke: %v", err)
	}
	if len(buf.Vertices) < 4 {
		t.Fatalf("got %d vertices, expected at least a quad", len(buf.Vertices))
	}
	if len(buf.Indices) == 0 || len(buf.Indices)%3 != 0 {
		t.Fatalf("got %d indices, want a positive multiple of 3", len(buf.Indices))
	}
	// A width 4 stroke of a horizontal line spans y in [-2, 2].
	for _, v := range buf.Vertices {
		if v.Pos[1] < -2.5 || v.Pos[1] > 2.5 {
			t.Fatalf("stroke vertex %v outside the expected band", v.Pos)
		}
	}
}

func TestStrokeStageInError(t *testing.T) {
	var buf Buffers
	buf.Vertices = make([]Vertex, MaxVertices-1)
	opts := DefaultStrokeOptions(red)
	opts.Width = 2
	err := Stroke(&buf, rectPath(0, 0, 10, 10), opts)
	if err == nil {
		t.Fatal("expected overflow error")
	}
	var terr *TessellationError
	if !errors.As(err, &terr) {
		t.Fatalf("got %T, want *TessellationError", err)
	}
	if terr.Stage != StageStroke {
		t.Errorf("got stage %v, want %v", terr.Stage, StageStroke)
	}
}
