package svg

import (
	"fmt"
	"math"
	"strconv"

	"honnef.co/go/curve"
)

// parsePathData parses an SVG path "d" attribute into path elements.
// Supported commands: M, L, H, V, C, S, Q, T, A, Z, in both absolute and
// relative form. Arcs are converted to cubic Béziers.
func parsePathData(d string) ([]curve.PathElement, error) {
	p := &pathDataParser{data: d}
	return p.parse()
}

type pathDataParser struct {
	data string
	pos  int

	out []curve.PathElement

	cur   curve.Point
	start curve.Point
	// ctrl is the last control point, for the S and T reflection rules.
	ctrl    curve.Point
	lastCmd byte
}

func (p *pathDataParser) parse() ([]curve.PathElement, error) {
	for {
		p.skipSeparators()
		if p.pos >= len(p.data) {
			return p.out, nil
		}
		c := p.data[p.pos]
		var cmd byte
		if isCommand(c) {
			cmd = c
			p.pos++
		} else {
			// Implicit repetition of the previous command. After MoveTo
			// further coordinate pairs are LineTo.
			switch p.lastCmd {
			case 0:
				return nil, fmt.Errorf("path data: expected command at offset %d", p.pos)
			case 'M':
				cmd = 'L'
			case 'm':
				cmd = 'l'
			default:
				cmd = p.lastCmd
			}
		}
		if p.lastCmd == 0 && upper(cmd) != 'M' {
			return nil, fmt.Errorf("path data: must begin with a moveto, found %q", cmd)
		}
		if err := p.command(cmd); err != nil {
			return nil, err
		}
		p.lastCmd = cmd
	}
}

func (p *pathDataParser) command(cmd byte) error {
	rel := cmd >= 'a'
	switch upper(cmd) {
	case 'M':
		pt, err := p.point(rel)
		if err != nil {
			return err
		}
		p.out = append(p.out, curve.PathElement{Kind: curve.MoveToKind, P0: pt})
		p.cur = pt
		p.start = pt
		p.ctrl = pt
	case 'L':
		pt, err := p.point(rel)
		if err != nil {
			return err
		}
		p.lineTo(pt)
	case 'H':
		x, err := p.number()
		if err != nil {
			return err
		}
		if rel {
			x += p.cur.X
		}
		p.lineTo(curve.Point{X: x, Y: p.cur.Y})
	case 'V':
		y, err := p.number()
		if err != nil {
			return err
		}
		if rel {
			y += p.cur.Y
		}
		p.lineTo(curve.Point{X: p.cur.X, Y: y})
	case 'C':
		c1, err := p.point(rel)
		if err != nil {
			return err
		}
		c2, err := p.point(rel)
		if err != nil {
			return err
		}
		pt, err := p.point(rel)
		if err != nil {
			return err
		}
		p.cubicTo(c1, c2, pt)
	case 'S':
		c2, err := p.point(rel)
		if err != nil {
			return err
		}
		pt, err := p.point(rel)
		if err != nil {
			return err
		}
		c1 := p.cur
		if isCubic(p.lastCmd) {
			c1 = reflect(p.cur, p.ctrl)
		}
		p.cubicTo(c1, c2, pt)
	case 'Q':
		c, err := p.point(rel)
		if err != nil {
			return err
		}
		pt, err := p.point(rel)
		if err != nil {
			return err
		}
		p.quadTo(c, pt)
	case 'T':
		pt, err := p.point(rel)
		if err != nil {
			return err
		}
		c := p.cur
		if isQuad(p.lastCmd) {
			c = reflect(p.cur, p.ctrl)
		}
		p.quadTo(c, pt)
	case 'A':
		rx, err := p.number()
		if err != nil {
			return err
		}
		ry, err := p.number()
		if err != nil {
			return err
		}
		rot, err := p.number()
		if err != nil {
			return err
		}
		large, err := p.flag()
		if err != nil {
			return err
		}
		sweep, err := p.flag()
		if err != nil {
			return err
		}
		pt, err := p.point(rel)
		if err != nil {
			return err
		}
		p.arcTo(rx, ry, rot, large, sweep, pt)
	case 'Z':
		p.out = append(p.out, curve.PathElement{Kind: curve.ClosePathKind})
		p.cur = p.start
		p.ctrl = p.start
	default:
		return fmt.Errorf("path data: unsupported command %q", cmd)
	}
	return nil
}

func (p *pathDataParser) lineTo(pt curve.Point) {
	p.out = append(p.out, curve.PathElement{Kind: curve.LineToKind, P0: pt})
	p.cur = pt
	p.ctrl = pt
}

func (p *pathDataParser) quadTo(c, pt curve.Point) {
	p.out = append(p.out, curve.PathElement{Kind: curve.QuadToKind, P0: c, P1: pt})
	p.cur = pt
	p.ctrl = c
}

func (p *pathDataParser) cubicTo(c1, c2, pt curve.Point) {
	p.out = append(p.out, curve.PathElement{Kind: curve.CubicToKind, P0: c1, P1: c2, P2: pt})
	p.cur = pt
	p.ctrl = c2
}

// arcTo converts an endpoint-parametrized elliptical arc to cubic
// Béziers, following the conversion in the SVG implementation notes
// (F.6). Each emitted cubic spans at most a quarter turn.
func (p *pathDataParser) arcTo(rx, ry, rotDeg float64, large, sweep bool, end curve.Point) {
	if rx == 0 || ry == 0 || p.cur == end {
		p.lineTo(end)
		return
	}
	rx = math.Abs(rx)
	ry = math.Abs(ry)

	phi := rotDeg * math.Pi / 180
	cosPhi := math.Cos(phi)
	sinPhi := math.Sin(phi)

	dx := (p.cur.X - end.X) / 2
	dy := (p.cur.Y - end.Y) / 2
	x1p := cosPhi*dx + sinPhi*dy
	y1p := -sinPhi*dx + cosPhi*dy

	// Scale radii up if the endpoints cannot be connected otherwise.
	lambda := x1p*x1p/(rx*rx) + y1p*y1p/(ry*ry)
	if lambda > 1 {
		s := math.Sqrt(lambda)
		rx *= s
		ry *= s
	}

	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	if den == 0 {
		p.lineTo(end)
		return
	}
	co := math.Sqrt(math.Max(0, num/den))
	if large == sweep {
		co = -co
	}
	cxp := co * rx * y1p / ry
	cyp := -co * ry * x1p / rx

	cx := cosPhi*cxp - sinPhi*cyp + (p.cur.X+end.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (p.cur.Y+end.Y)/2

	theta1 := math.Atan2((y1p-cyp)/ry, (x1p-cxp)/rx)
	theta2 := math.Atan2((-y1p-cyp)/ry, (-x1p-cxp)/rx)
	dTheta := theta2 - theta1
	if !sweep && dTheta > 0 {
		dTheta -= 2 * math.Pi
	} else if sweep && dTheta < 0 {
		dTheta += 2 * math.Pi
	}

	segs := int(math.Ceil(math.Abs(dTheta) / (math.Pi / 2)))
	if segs < 1 {
		segs = 1
	}
	delta := dTheta / float64(segs)
	// Cubic control distance for a circular arc segment of angle delta.
	k := 4.0 / 3.0 * math.Tan(delta/4)

	arcPoint := func(theta float64) (pt, deriv curve.Point) {
		cosT := math.Cos(theta)
		sinT := math.Sin(theta)
		pt = curve.Point{
			X: cx + rx*cosT*cosPhi - ry*sinT*sinPhi,
			Y: cy + rx*cosT*sinPhi + ry*sinT*cosPhi,
		}
		deriv = curve.Point{
			X: -rx*sinT*cosPhi - ry*cosT*sinPhi,
			Y: -rx*sinT*sinPhi + ry*cosT*cosPhi,
		}
		return pt, deriv
	}

	theta := theta1
	_, d0 := arcPoint(theta)
	for i := 0; i < segs; i++ {
		next := theta + delta
		p1, d1 := arcPoint(next)
		if i == segs-1 {
			// Land exactly on the endpoint regardless of rounding.
			p1 = end
		}
		c1 := curve.Point{X: p.cur.X + k*d0.X, Y: p.cur.Y + k*d0.Y}
		c2 := curve.Point{X: p1.X - k*d1.X, Y: p1.Y - k*d1.Y}
		p.cubicTo(c1, c2, p1)
		theta = next
		d0 = d1
	}
}

func (p *pathDataParser) point(rel bool) (curve.Point, error) {
	x, err := p.number()
	if err != nil {
		return curve.Point{}, err
	}
	y, err := p.number()
	if err != nil {
		return curve.Point{}, err
	}
	pt := curve.Point{X: x, Y: y}
	if rel {
		pt.X += p.cur.X
		pt.Y += p.cur.Y
	}
	return pt, nil
}

func (p *pathDataParser) number() (float64, error) {
	p.skipSeparators()
	start := p.pos
	if p.pos < len(p.data) && (p.data[p.pos] == '-' || p.data[p.pos] == '+') {
		p.pos++
	}
	seenDot := false
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			p.pos++
			continue
		}
		if (c == 'e' || c == 'E') && p.pos > start {
			p.pos++
			if p.pos < len(p.data) && (p.data[p.pos] == '-' || p.data[p.pos] == '+') {
				p.pos++
			}
			continue
		}
		break
	}
	if p.pos == start {
		return 0, fmt.Errorf("path data: expected number at offset %d", start)
	}
	v, err := strconv.ParseFloat(p.data[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("path data: %w", err)
	}
	return v, nil
}

// flag parses an arc flag, which may be written without a separator
// before the following number.
func (p *pathDataParser) flag() (bool, error) {
	p.skipSeparators()
	if p.pos >= len(p.data) {
		return false, fmt.Errorf("path data: expected flag at offset %d", p.pos)
	}
	switch p.data[p.pos] {
	case '0':
		p.pos++
		return false, nil
	case '1':
		p.pos++
		return true, nil
	default:
		return false, fmt.Errorf("path data: invalid flag %q at offset %d", p.data[p.pos], p.pos)
	}
}

func (p *pathDataParser) skipSeparators() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r', ',':
			p.pos++
		default:
			return
		}
	}
}

func isCommand(c byte) bool {
	switch upper(c) {
	case 'M', 'L', 'H', 'V', 'C', 'S', 'Q', 'T', 'A', 'Z':
		return true
	}
	return false
}

func isCubic(cmd byte) bool {
	switch cmd {
	case 'C', 'c', 'S', 's':
		return true
	}
	return false
}

func isQuad(cmd byte) bool {
	switch cmd {
	case 'Q', 'q', 'T', 't':
		return true
	}
	return false
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 32
	}
	return c
}

func reflect(about, pt curve.Point) curve.Point {
	return curve.Point{X: 2*about.X - pt.X, Y: 2*about.Y - pt.Y}
}
