package vexel

import (
	"honnef.co/go/color"

	"github.com/vexel-gfx/vexel/tess"
)

// Color is an RGBA color with float32 channels in [0, 1].
type Color = tess.Color

// RGBA builds a Color from individual channels.
func RGBA(r, g, b, a float32) Color {
	return Color{r, g, b, a}
}

// VertexColor converts a managed color into the linear sRGB vertex color
// the geometry pipeline consumes.
func VertexColor(c *color.Color) Color {
	cc := c.Convert(color.LinearSRGB)
	return Color{
		float32(cc.Values[0]),
		float32(cc.Values[1]),
		float32(cc.Values[2]),
		float32(cc.Values[3]),
	}
}
