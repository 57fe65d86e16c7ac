package svg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vexel-gfx/vexel/tess"
)

// namedColors covers the CSS basic color keywords plus the few extended
// names that show up routinely in exported assets.
var namedColors = map[string]tess.Color{
	"black":   {0, 0, 0, 1},
	"silver":  {0.75, 0.75, 0.75, 1},
	"gray":    {0.5, 0.5, 0.5, 1},
	"grey":    {0.5, 0.5, 0.5, 1},
	"white":   {1, 1, 1, 1},
	"maroon":  {0.5, 0, 0, 1},
	"red":     {1, 0, 0, 1},
	"purple":  {0.5, 0, 0.5, 1},
	"fuchsia": {1, 0, 1, 1},
	"magenta": {1, 0, 1, 1},
	"green":   {0, 0.5, 0, 1},
	"lime":    {0, 1, 0, 1},
	"olive":   {0.5, 0.5, 0, 1},
	"yellow":  {1, 1, 0, 1},
	"navy":    {0, 0, 0.5, 1},
	"blue":    {0, 0, 1, 1},
	"teal":    {0, 0.5, 0.5, 1},
	"aqua":    {0, 1, 1, 1},
	"cyan":    {0, 1, 1, 1},
	"orange":  {1, 0.647, 0, 1},
}

// parseColor parses an SVG paint value. The boolean result is false for
// "none".
func parseColor(s string) (tess.Color, bool, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "", "none", "transparent":
		return tess.Color{}, false, nil
	}
	if c, ok := namedColors[s]; ok {
		return c, true, nil
	}
	if strings.HasPrefix(s, "#") {
		c, err := parseHexColor(s[1:])
		return c, err == nil, err
	}
	if strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")") {
		c, err := parseRGBColor(s[4 : len(s)-1])
		return c, err == nil, err
	}
	return tess.Color{}, false, fmt.Errorf("unsupported color %q", s)
}

func parseHexColor(hex string) (tess.Color, error) {
	var r, g, b uint64
	var err error
	switch len(hex) {
	case 3:
		r, g, b, err = hexChannels(hex, 1)
		r |= r << 4
		g |= g << 4
		b |= b << 4
	case 6:
		r, g, b, err = hexChannels(hex, 2)
	default:
		return tess.Color{}, fmt.Errorf("invalid hex color %q", "#"+hex)
	}
	if err != nil {
		return tess.Color{}, fmt.Errorf("invalid hex color %q", "#"+hex)
	}
	return tess.Color{float32(r) / 255, float32(g) / 255, float32(b) / 255, 1}, nil
}

func hexChannels(hex string, width int) (r, g, b uint64, err error) {
	r, err = strconv.ParseUint(hex[0:width], 16, 8)
	if err != nil {
		return
	}
	g, err = strconv.ParseUint(hex[width:2*width], 16, 8)
	if err != nil {
		return
	}
	b, err = strconv.ParseUint(hex[2*width:3*width], 16, 8)
	return
}

func parseRGBColor(inner string) (tess.Color, error) {
	parts := strings.Split(inner, ",")
	if len(parts) != 3 {
		return tess.Color{}, fmt.Errorf("invalid rgb() color %q", inner)
	}
	var out tess.Color
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if strings.HasSuffix(part, "%") {
			v, err := strconv.ParseFloat(strings.TrimSuffix(part, "%"), 64)
			if err != nil {
				return tess.Color{}, fmt.Errorf("invalid rgb() color %q", inner)
			}
			out[i] = float32(clamp(v/100, 0, 1))
		} else {
			v, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return tess.Color{}, fmt.Errorf("invalid rgb() color %q", inner)
			}
			out[i] = float32(clamp(v/255, 0, 1))
		}
	}
	out[3] = 1
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
