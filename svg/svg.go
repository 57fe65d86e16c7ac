// Package svg parses a small subset of SVG into styled outline regions.
//
// Supported content: the path element with a full "d" grammar, the basic
// shapes (rect, circle, ellipse, line, polyline, polygon), grouping via
// g, and solid-color fill and stroke presentation attributes. Gradients,
// patterns, clipping, filters, and CSS stylesheets are out of scope.
package svg

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vexel-gfx/vexel/tess"
	"honnef.co/go/curve"
)

// circleK is the cubic Bézier control distance that approximates a
// quarter circle of radius 1.
const circleK = 0.5519150244935106

// A Document is a parsed SVG file, reduced to a flat list of styled
// outline regions in viewBox coordinates.
type Document struct {
	ViewBox ViewBox
	Regions []Region
}

type ViewBox struct {
	MinX, MinY    float64
	Width, Height float64
}

// A Region is one shape together with its resolved paint. Fill and
// Stroke are nil when the respective paint is "none".
type Region struct {
	Elements []curve.PathElement
	Fill     *Paint
	Stroke   *StrokePaint
}

type Paint struct {
	Color tess.Color
	// Opacity is the product of the element's paint opacity and all
	// inherited group opacities.
	Opacity float32
}

type StrokePaint struct {
	Paint
	Width      float64
	Cap        curve.Cap
	Join       curve.Join
	MiterLimit float64
}

// style is the inheritable presentation state during parsing.
type style struct {
	fill          tess.Color
	hasFill       bool
	fillOpacity   float32
	stroke        tess.Color
	hasStroke     bool
	strokeOpacity float32
	opacity       float32
	strokeWidth   float64
	cap           curve.Cap
	join          curve.Join
	miterLimit    float64
}

func defaultStyle() style {
	return style{
		fill:          tess.Color{0, 0, 0, 1},
		hasFill:       true,
		fillOpacity:   1,
		strokeOpacity: 1,
		opacity:       1,
		strokeWidth:   1,
		cap:           curve.ButtCap,
		join:          curve.MiterJoin,
		miterLimit:    4,
	}
}

// Parse reads an SVG document. Unknown elements are skipped; malformed
// geometry or paint values fail the whole parse.
func Parse(data []byte) (*Document, error) {
	doc := &Document{ViewBox: ViewBox{Width: 1, Height: 1}}
	dec := xml.NewDecoder(bytes.NewReader(data))

	// The style stack mirrors the element nesting. Every start tag
	// pushes, every end tag pops, so leaf styles never leak.
	stack := []style{defaultStyle()}

	sawRoot := false
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parsing svg: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			st := stack[len(stack)-1]
			if err := applyAttrs(&st, t.Attr); err != nil {
				return nil, fmt.Errorf("parsing svg: %w", err)
			}
			stack = append(stack, st)

			switch t.Name.Local {
			case "svg":
				sawRoot = true
				applyViewBox(doc, t.Attr)
			case "path", "rect", "circle", "ellipse", "line", "polyline", "polygon":
				elems, strokeOnly, err := shapeElements(t)
				if err != nil {
					return nil, fmt.Errorf("parsing svg: %w", err)
				}
				if strokeOnly {
					st.hasFill = false
				}
				if region, ok := buildRegion(elems, st); ok {
					doc.Regions = append(doc.Regions, region)
				}
			}
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if !sawRoot {
		return nil, errors.New("parsing svg: no svg root element")
	}
	return doc, nil
}

// shapeElements returns the outline of a shape element. strokeOnly is
// set for shapes that cannot be filled.
func shapeElements(t xml.StartElement) (elems []curve.PathElement, strokeOnly bool, err error) {
	attr := func(name string) string {
		for _, a := range t.Attr {
			if a.Name.Local == name {
				return a.Value
			}
		}
		return ""
	}
	num := func(name string) (float64, error) {
		s := attr(name)
		if s == "" {
			return 0, nil
		}
		return parseLength(s)
	}
	nums := func(names ...string) ([]float64, error) {
		out := make([]float64, len(names))
		for i, name := range names {
			v, err := num(name)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	switch t.Name.Local {
	case "path":
		d := attr("d")
		if d == "" {
			return nil, false, nil
		}
		elems, err := parsePathData(d)
		return elems, false, err
	case "rect":
		v, err := nums("x", "y", "width", "height", "rx", "ry")
		if err != nil {
			return nil, false, err
		}
		if v[2] <= 0 || v[3] <= 0 {
			return nil, false, nil
		}
		return rectElements(v[0], v[1], v[2], v[3], v[4], v[5]), false, nil
	case "circle":
		v, err := nums("cx", "cy", "r")
		if err != nil {
			return nil, false, err
		}
		if v[2] <= 0 {
			return nil, false, nil
		}
		return ellipseElements(v[0], v[1], v[2], v[2]), false, nil
	case "ellipse":
		v, err := nums("cx", "cy", "rx", "ry")
		if err != nil {
			return nil, false, err
		}
		if v[2] <= 0 || v[3] <= 0 {
			return nil, false, nil
		}
		return ellipseElements(v[0], v[1], v[2], v[3]), false, nil
	case "line":
		v, err := nums("x1", "y1", "x2", "y2")
		if err != nil {
			return nil, false, err
		}
		return []curve.PathElement{
			{Kind: curve.MoveToKind, P0: curve.Point{X: v[0], Y: v[1]}},
			{Kind: curve.LineToKind, P0: curve.Point{X: v[2], Y: v[3]}},
		}, true, nil
	case "polyline", "polygon":
		pts, err := parsePointList(attr("points"))
		if err != nil {
			return nil, false, err
		}
		if len(pts) < 2 {
			return nil, false, nil
		}
		elems := make([]curve.PathElement, 0, len(pts)+1)
		elems = append(elems, curve.PathElement{Kind: curve.MoveToKind, P0: pts[0]})
		for _, pt := range pts[1:] {
			elems = append(elems, curve.PathElement{Kind: curve.LineToKind, P0: pt})
		}
		if t.Name.Local == "polygon" {
			elems = append(elems, curve.PathElement{Kind: curve.ClosePathKind})
		}
		return elems, false, nil
	}
	return nil, false, nil
}

func buildRegion(elems []curve.PathElement, st style) (Region, bool) {
	if len(elems) == 0 {
		return Region{}, false
	}
	region := Region{Elements: elems}
	if st.hasFill {
		region.Fill = &Paint{
			Color:   st.fill,
			Opacity: st.fillOpacity * st.opacity,
		}
	}
	if st.hasStroke && st.strokeWidth > 0 {
		region.Stroke = &StrokePaint{
			Paint: Paint{
				Color:   st.stroke,
				Opacity: st.strokeOpacity * st.opacity,
			},
			Width:      st.strokeWidth,
			Cap:        st.cap,
			Join:       st.join,
			MiterLimit: st.miterLimit,
		}
	}
	if region.Fill == nil && region.Stroke == nil {
		return Region{}, false
	}
	return region, true
}

func applyAttrs(st *style, attrs []xml.Attr) error {
	for _, a := range attrs {
		switch a.Name.Local {
		case "fill":
			c, ok, err := parseColor(a.Value)
			if err != nil {
				return err
			}
			st.fill = c
			st.hasFill = ok
		case "stroke":
			c, ok, err := parseColor(a.Value)
			if err != nil {
				return err
			}
			st.stroke = c
			st.hasStroke = ok
		case "fill-opacity":
			v, err := parseOpacity(a.Value)
			if err != nil {
				return err
			}
			st.fillOpacity = v
		case "stroke-opacity":
			v, err := parseOpacity(a.Value)
			if err != nil {
				return err
			}
			st.strokeOpacity = v
		case "opacity":
			v, err := parseOpacity(a.Value)
			if err != nil {
				return err
			}
			st.opacity *= v
		case "stroke-width":
			v, err := parseLength(a.Value)
			if err != nil {
				return err
			}
			st.strokeWidth = v
		case "stroke-linecap":
			switch strings.TrimSpace(a.Value) {
			case "butt":
				st.cap = curve.ButtCap
			case "round":
				st.cap = curve.RoundCap
			case "square":
				st.cap = curve.SquareCap
			}
		case "stroke-linejoin":
			switch strings.TrimSpace(a.Value) {
			case "miter":
				st.join = curve.MiterJoin
			case "round":
				st.join = curve.RoundJoin
			case "bevel":
				st.join = curve.BevelJoin
			}
		case "stroke-miterlimit":
			v, err := parseLength(a.Value)
			if err != nil {
				return err
			}
			st.miterLimit = v
		}
	}
	return nil
}

func applyViewBox(doc *Document, attrs []xml.Attr) {
	var w, h float64
	for _, a := range attrs {
		switch a.Name.Local {
		case "viewBox":
			fields := strings.Fields(strings.ReplaceAll(a.Value, ",", " "))
			if len(fields) != 4 {
				continue
			}
			var v [4]float64
			ok := true
			for i, f := range fields {
				x, err := strconv.ParseFloat(f, 64)
				if err != nil {
					ok = false
					break
				}
				v[i] = x
			}
			if ok && v[2] > 0 && v[3] > 0 {
				doc.ViewBox = ViewBox{MinX: v[0], MinY: v[1], Width: v[2], Height: v[3]}
				return
			}
		case "width":
			w, _ = parseLength(a.Value)
		case "height":
			h, _ = parseLength(a.Value)
		}
	}
	if w > 0 && h > 0 {
		doc.ViewBox = ViewBox{Width: w, Height: h}
	}
}

func rectElements(x, y, w, h, rx, ry float64) []curve.PathElement {
	if rx <= 0 && ry <= 0 {
		return []curve.PathElement{
			{Kind: curve.MoveToKind, P0: curve.Point{X: x, Y: y}},
			{Kind: curve.LineToKind, P0: curve.Point{X: x + w, Y: y}},
			{Kind: curve.LineToKind, P0: curve.Point{X: x + w, Y: y + h}},
			{Kind: curve.LineToKind, P0: curve.Point{X: x, Y: y + h}},
			{Kind: curve.ClosePathKind},
		}
	}
	if rx <= 0 {
		rx = ry
	}
	if ry <= 0 {
		ry = rx
	}
	rx = min(rx, w/2)
	ry = min(ry, h/2)
	kx := circleK * rx
	ky := circleK * ry
	return []curve.PathElement{
		{Kind: curve.MoveToKind, P0: curve.Point{X: x + rx, Y: y}},
		{Kind: curve.LineToKind, P0: curve.Point{X: x + w - rx, Y: y}},
		{Kind: curve.CubicToKind,
			P0: curve.Point{X: x + w - rx + kx, Y: y},
			P1: curve.Point{X: x + w, Y: y + ry - ky},
			P2: curve.Point{X: x + w, Y: y + ry}},
		{Kind: curve.LineToKind, P0: curve.Point{X: x + w, Y: y + h - ry}},
		{Kind: curve.CubicToKind,
			P0: curve.Point{X: x + w, Y: y + h - ry + ky},
			P1: curve.Point{X: x + w - rx + kx, Y: y + h},
			P2: curve.Point{X: x + w - rx, Y: y + h}},
		{Kind: curve.LineToKind, P0: curve.Point{X: x + rx, Y: y + h}},
		{Kind: curve.CubicToKind,
			P0: curve.Point{X: x + rx - kx, Y: y + h},
			P1: curve.Point{X: x, Y: y + h - ry + ky},
			P2: curve.Point{X: x, Y: y + h - ry}},
		{Kind: curve.LineToKind, P0: curve.Point{X: x, Y: y + ry}},
		{Kind: curve.CubicToKind,
			P0: curve.Point{X: x, Y: y + ry - ky},
			P1: curve.Point{X: x + rx - kx, Y: y},
			P2: curve.Point{X: x + rx, Y: y}},
		{Kind: curve.ClosePathKind},
	}
}

func ellipseElements(cx, cy, rx, ry float64) []curve.PathElement {
	kx := circleK * rx
	ky := circleK * ry
	return []curve.PathElement{
		{Kind: curve.MoveToKind, P0: curve.Point{X: cx + rx, Y: cy}},
		{Kind: curve.CubicToKind,
			P0: curve.Point{X: cx + rx, Y: cy + ky},
			P1: curve.Point{X: cx + kx, Y: cy + ry},
			P2: curve.Point{X: cx, Y: cy + ry}},
		{Kind: curve.CubicToKind,
			P0: curve.Point{X: cx - kx, Y: cy + ry},
			P1: curve.Point{X: cx - rx, Y: cy + ky},
			P2: curve.Point{X: cx - rx, Y: cy}},
		{Kind: curve.CubicToKind,
			P0: curve.Point{X: cx - rx, Y: cy - ky},
			P1: curve.Point{X: cx - kx, Y: cy - ry},
			P2: curve.Point{X: cx, Y: cy - ry}},
		{Kind: curve.CubicToKind,
			P0: curve.Point{X: cx + kx, Y: cy - ry},
			P1: curve.Point{X: cx + rx, Y: cy - ky},
			P2: curve.Point{X: cx + rx, Y: cy}},
		{Kind: curve.ClosePathKind},
	}
}

func parsePointList(s string) ([]curve.Point, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("odd number of point coordinates in %q", s)
	}
	pts := make([]curve.Point, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		x, err1 := strconv.ParseFloat(fields[i], 64)
		y, err2 := strconv.ParseFloat(fields[i+1], 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("invalid point list %q", s)
		}
		pts = append(pts, curve.Point{X: x, Y: y})
	}
	return pts, nil
}

func parseLength(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "px")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid length %q", s)
	}
	return v, nil
}

func parseOpacity(s string) (float32, error) {
	s = strings.TrimSpace(s)
	var v float64
	var err error
	if strings.HasSuffix(s, "%") {
		v, err = strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		v /= 100
	} else {
		v, err = strconv.ParseFloat(s, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid opacity %q", s)
	}
	return float32(clamp(v, 0, 1)), nil
}
