package tess

import (
	"cmp"
	"math"
	"slices"

	"github.com/vexel-gfx/vexel/path"
	"honnef.co/go/curve"
)

// Fill triangulates the filled area of elems and appends the result to
// buf. Subpaths are closed implicitly. On error buf is left unchanged.
func Fill(buf *Buffers, elems []curve.PathElement, opts FillOptions) error {
	return fill(buf, elems, opts.Tolerance, vertexColor(opts.Color, opts.Opacity), StageFill)
}

// Stroke expands elems into its stroke outline and appends the outline's
// fill to buf. On error buf is left unchanged.
func Stroke(buf *Buffers, elems []curve.PathElement, opts StrokeOptions) error {
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	style := curve.Stroke{
		Width:      opts.Width,
		Join:       opts.Join,
		MiterLimit: opts.MiterLimit,
		StartCap:   opts.Cap,
		EndCap:     opts.Cap,
	}
	stroked := curve.StrokePath(slices.Values(elems), style, curve.StrokeOpts{}, tol)
	outline := slices.Collect(stroked)
	return fill(buf, outline, tol, vertexColor(opts.Color, opts.Opacity), StageStroke)
}

func vertexColor(c Color, opacity float32) [4]float32 {
	return [4]float32{c[0], c[1], c[2], c[3] * opacity}
}

func fill(buf *Buffers, elems []curve.PathElement, tol float64, col [4]float32, stage Stage) error {
	if tol <= 0 {
		tol = DefaultTolerance
	}

	// Stage into copies so a failed call leaves buf untouched.
	verts := buf.Vertices
	indices := buf.Indices

	s := path.NewEventStream(elems)
	var rings [][]curve.Point
	var poly []curve.Point
	for {
		ev, ok := s.Next()
		if !ok {
			break
		}
		switch ev.Kind {
		case path.Begin:
			poly = append(poly[:0], ev.At)
		case path.Line:
			poly = append(poly, ev.To)
		case path.Quadratic:
			poly = flattenQuad(poly, ev.From, ev.Ctrl1, ev.To, tol)
		case path.Cubic:
			poly = flattenCubic(poly, ev.From, ev.Ctrl1, ev.Ctrl2, ev.To, tol)
		case path.End:
			if ring := normalizeRing(poly); ring != nil {
				rings = append(rings, ring)
			}
		}
	}
	if err := s.Err(); err != nil {
		return err
	}

	for _, p := range assemblePolygons(rings) {
		var err error
		verts, indices, err = appendPolygon(verts, indices, p, col, stage)
		if err != nil {
			return err
		}
	}

	buf.Vertices = verts
	buf.Indices = indices
	return nil
}

// normalizeRing strips the repeated closing point of an explicitly
// closed subpath and drops subpaths without area.
func normalizeRing(poly []curve.Point) []curve.Point {
	if n := len(poly); n > 1 && poly[n-1] == poly[0] {
		poly = poly[:n-1]
	}
	if len(poly) < 3 {
		return nil
	}
	return slices.Clone(poly)
}

// assemblePolygons groups a path's subpath rings into fillable polygons
// using even-odd containment: a ring nested inside an odd number of
// other rings is a hole and gets bridged into its enclosing ring, so
// glyph counters and ring pairs triangulate with their interior open.
func assemblePolygons(rings [][]curve.Point) [][]curve.Point {
	if len(rings) <= 1 {
		return rings
	}

	depth := make([]int, len(rings))
	parent := make([]int, len(rings))
	for i := range rings {
		parent[i] = -1
		for j := range rings {
			if i == j || !pointInPolygon(rings[i][0], rings[j]) {
				continue
			}
			depth[i]++
			if parent[i] == -1 ||
				math.Abs(signedArea(rings[j])) < math.Abs(signedArea(rings[parent[i]])) {
				parent[i] = j
			}
		}
	}

	var out [][]curve.Point
	for i := range rings {
		if depth[i]%2 != 0 {
			continue
		}
		var holes []int
		for j := range rings {
			if depth[j]%2 == 1 && parent[j] == i {
				holes = append(holes, j)
			}
		}
		merged := orientRing(slices.Clone(rings[i]), true)
		// Bridging rightmost holes first keeps later bridges from
		// crossing holes that are still unmerged.
		slices.SortFunc(holes, func(a, b int) int {
			return cmp.Compare(maxX(rings[b]), maxX(rings[a]))
		})
		for _, h := range holes {
			merged = bridgeHole(merged, orientRing(slices.Clone(rings[h]), false))
		}
		out = append(out, merged)
	}
	return out
}

// bridgeHole splices hole into outer through a zero-width cut between
// the hole's rightmost vertex and a mutually visible outer vertex. The
// outer ring must wind CCW and the hole CW so the merged ring keeps a
// consistent winding.
func bridgeHole(outer, hole []curve.Point) []curve.Point {
	hi := 0
	for k, p := range hole {
		if p.X > hole[hi].X {
			hi = k
		}
	}
	m := hole[hi]

	type candidate struct {
		idx  int
		dist float64
	}
	cands := make([]candidate, len(outer))
	for k, v := range outer {
		dx, dy := v.X-m.X, v.Y-m.Y
		cands[k] = candidate{k, dx*dx + dy*dy}
	}
	slices.SortFunc(cands, func(a, b candidate) int {
		return cmp.Compare(a.dist, b.dist)
	})

	oi := -1
	// First try vertices right of the cut point; a bridge running left
	// could cross the hole itself.
	for pass := 0; pass < 2 && oi < 0; pass++ {
		for _, c := range cands {
			if pass == 0 && outer[c.idx].X < m.X {
				continue
			}
			if bridgeClear(m, outer[c.idx], outer) && bridgeClear(m, outer[c.idx], hole) {
				oi = c.idx
				break
			}
		}
	}
	if oi < 0 {
		oi = cands[0].idx
	}

	merged := make([]curve.Point, 0, len(outer)+len(hole)+2)
	merged = append(merged, outer[:oi+1]...)
	for k := 0; k <= len(hole); k++ {
		merged = append(merged, hole[(hi+k)%len(hole)])
	}
	merged = append(merged, outer[oi:]...)
	return merged
}

// bridgeClear reports whether the segment a-b crosses any edge of ring.
// Edges merely touching the segment's endpoints do not count.
func bridgeClear(a, b curve.Point, ring []curve.Point) bool {
	for k := range ring {
		c, d := ring[k], ring[(k+1)%len(ring)]
		if segmentsCross(a, b, c, d) {
			return false
		}
	}
	return true
}

// segmentsCross reports a proper crossing of segments a-b and c-d.
func segmentsCross(a, b, c, d curve.Point) bool {
	d1 := triangleArea(c, d, a)
	d2 := triangleArea(c, d, b)
	d3 := triangleArea(a, b, c)
	d4 := triangleArea(a, b, d)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// orientRing reverses ring in place if its winding does not match ccw.
func orientRing(ring []curve.Point, ccw bool) []curve.Point {
	if (signedArea(ring) > 0) != ccw {
		slices.Reverse(ring)
	}
	return ring
}

func maxX(ring []curve.Point) float64 {
	x := ring[0].X
	for _, p := range ring[1:] {
		x = max(x, p.X)
	}
	return x
}

// pointInPolygon tests containment by crossing parity of a ray towards
// +x.
func pointInPolygon(p curve.Point, ring []curve.Point) bool {
	inside := false
	for k := range ring {
		a, b := ring[k], ring[(k+1)%len(ring)]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < a.X+(b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) {
			inside = !inside
		}
	}
	return inside
}

// appendPolygon triangulates one subpath polygon. Subpaths with fewer
// than three distinct points have no area and are dropped.
func appendPolygon(verts []Vertex, indices []uint16, poly []curve.Point, col [4]float32, stage Stage) ([]Vertex, []uint16, error) {
	// An explicitly closed subpath repeats its first point.
	if n := len(poly); n > 1 && poly[n-1] == poly[0] {
		poly = poly[:n-1]
	}
	if len(poly) < 3 {
		return verts, indices, nil
	}
	if len(verts)+len(poly) > MaxVertices {
		return nil, nil, &TessellationError{Stage: stage, Vertices: len(verts) + len(poly)}
	}

	base := uint16(len(verts))
	for _, p := range poly {
		verts = append(verts, Vertex{
			Pos:   [2]float32{float32(p.X), float32(p.Y)},
			Color: col,
		})
	}

	tris, ok := earClip(poly)
	if !ok {
		// Fan fallback, correct for convex polygons.
		for i := 1; i+1 < len(poly); i++ {
			if triangleArea(poly[0], poly[i], poly[i+1]) == 0 {
				continue
			}
			indices = append(indices, base, base+uint16(i), base+uint16(i+1))
		}
		return verts, indices, nil
	}
	for _, t := range tris {
		indices = append(indices, base+t)
	}
	return verts, indices, nil
}

// earClip triangulates a simple polygon. It reports failure when no ear
// can be found, which happens for self-intersecting input.
func earClip(poly []curve.Point) ([]uint16, bool) {
	ccw := signedArea(poly) > 0

	idx := make([]int, len(poly))
	for i := range idx {
		idx[i] = i
	}

	var out []uint16
	for len(idx) > 2 {
		found := false
		for i := 0; i < len(idx); i++ {
			i0 := idx[(i+len(idx)-1)%len(idx)]
			i1 := idx[i]
			i2 := idx[(i+1)%len(idx)]
			a, b, c := poly[i0], poly[i1], poly[i2]
			if triangleArea(a, b, c) == 0 {
				// Collinear triple; the middle vertex is redundant and
				// can be clipped without emitting a triangle. Bridged
				// holes introduce these along their cut edges.
				idx = append(idx[:i], idx[i+1:]...)
				found = true
				break
			}
			if !isConvex(a, b, c, ccw) {
				continue
			}
			contains := false
			for _, j := range idx {
				if j == i0 || j == i1 || j == i2 {
					continue
				}
				p := poly[j]
				// Duplicated bridge vertices coincide with the ear's
				// corners without blocking it.
				if p == a || p == b || p == c {
					continue
				}
				if pointInTriangle(p, a, b, c) {
					contains = true
					break
				}
			}
			if contains {
				continue
			}
			out = append(out, uint16(i0), uint16(i1), uint16(i2))
			idx = append(idx[:i], idx[i+1:]...)
			found = true
			break
		}
		if !found {
			return nil, false
		}
	}
	return out, len(out) > 0
}

func signedArea(poly []curve.Point) float64 {
	var a float64
	for i := range poly {
		j := (i + 1) % len(poly)
		a += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return a * 0.5
}

func triangleArea(a, b, c curve.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func isConvex(a, b, c curve.Point, ccw bool) bool {
	cross := triangleArea(a, b, c)
	if ccw {
		return cross > 0
	}
	return cross < 0
}

func pointInTriangle(p, a, b, c curve.Point) bool {
	sign := func(p1, p2, p3 curve.Point) float64 {
		return (p1.X-p3.X)*(p2.Y-p3.Y) - (p2.X-p3.X)*(p1.Y-p3.Y)
	}
	d1 := sign(p, a, b)
	d2 := sign(p, b, c)
	d3 := sign(p, c, a)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// flattenQuad appends the flattened form of a quadratic Bézier to pts,
// excluding the start point. Flatness is measured as the deviation of
// the curve midpoint from the chord midpoint.
func flattenQuad(pts []curve.Point, p0, c, p1 curve.Point, tol float64) []curve.Point {
	midX := 0.25*p0.X + 0.5*c.X + 0.25*p1.X
	midY := 0.25*p0.Y + 0.5*c.Y + 0.25*p1.Y
	dx := midX - 0.5*(p0.X+p1.X)
	dy := midY - 0.5*(p0.Y+p1.Y)
	if dx*dx+dy*dy <= tol*tol {
		return append(pts, p1)
	}

	a := midpoint(p0, c)
	b := midpoint(c, p1)
	m := midpoint(a, b)
	pts = flattenQuad(pts, p0, a, m, tol)
	return flattenQuad(pts, m, b, p1, tol)
}

// flattenCubic appends the flattened form of a cubic Bézier to pts,
// excluding the start point. The factor of 16 is the standard cubic
// approximation error bound.
func flattenCubic(pts []curve.Point, p0, c1, c2, p1 curve.Point, tol float64) []curve.Point {
	ux := 3*c1.X - 2*p0.X - p1.X
	uy := 3*c1.Y - 2*p0.Y - p1.Y
	vx := 3*c2.X - p0.X - 2*p1.X
	vy := 3*c2.Y - p0.Y - 2*p1.Y
	if max(ux*ux+uy*uy, vx*vx+vy*vy) <= 16*tol*tol {
		return append(pts, p1)
	}

	ab1 := midpoint(p0, c1)
	ab2 := midpoint(c1, c2)
	ab3 := midpoint(c2, p1)
	bc1 := midpoint(ab1, ab2)
	bc2 := midpoint(ab2, ab3)
	m := midpoint(bc1, bc2)
	pts = flattenCubic(pts, p0, ab1, bc1, m, tol)
	return flattenCubic(pts, m, bc2, ab3, p1, tol)
}

func midpoint(a, b curve.Point) curve.Point {
	return curve.Point{X: 0.5 * (a.X + b.X), Y: 0.5 * (a.Y + b.Y)}
}
