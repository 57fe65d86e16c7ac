// Package tess turns normalized path event streams into triangle meshes.
//
// Both fills and strokes append into a shared [Buffers] value, so several
// styled regions of one document can end up in a single pair of GPU
// buffers. Indices are 16 bits wide; one buffer set holds at most
// [MaxVertices] vertices.
package tess

import (
	"fmt"
	"structs"

	"honnef.co/go/curve"
)

// MaxVertices is the vertex capacity of one buffer set, dictated by the
// 16-bit index format.
const MaxVertices = 1 << 16

// DefaultTolerance is the flattening tolerance used when options leave
// the tolerance unset.
const DefaultTolerance = 0.1

// defaultMiterLimit matches the SVG initial value for stroke-miterlimit.
const defaultMiterLimit = 4

// Color is an RGBA color with float32 channels in [0, 1], alpha not
// premultiplied.
type Color [4]float32

// Vertex is one tessellated vertex as laid out in the GPU vertex buffer.
type Vertex struct {
	_ structs.HostLayout

	Pos   [2]float32
	Color [4]float32
}

// Buffers accumulates tessellation output. Appends are cumulative:
// indices always refer to the vertex numbering of the whole buffer, so
// callers can tessellate multiple regions into one set and upload it
// as-is.
type Buffers struct {
	Vertices []Vertex
	Indices  []uint16
}

// Stage identifies which tessellation stage failed.
type Stage uint8

const (
	StageFill Stage = iota
	StageStroke
)

func (s Stage) String() string {
	switch s {
	case StageFill:
		return "fill"
	case StageStroke:
		return "stroke"
	default:
		return fmt.Sprintf("Stage(%d)", s)
	}
}

// A TessellationError reports that a path could not be triangulated,
// currently always because the buffer set ran out of vertex capacity.
type TessellationError struct {
	Stage Stage
	// Vertices is the vertex count the buffer set would have needed.
	Vertices int
}

func (err *TessellationError) Error() string {
	return fmt.Sprintf("%s tessellation: %d vertices exceed the %d vertex capacity", err.Stage, err.Vertices, MaxVertices)
}

// FillOptions style a fill tessellation. Use [DefaultFillOptions] as the
// starting point; the zero value has zero opacity.
type FillOptions struct {
	// Tolerance is the maximum distance between a curve and its
	// flattened approximation. Values <= 0 mean DefaultTolerance.
	Tolerance float64
	Color     Color
	// Opacity scales the color's alpha channel.
	Opacity float32
}

func DefaultFillOptions(c Color) FillOptions {
	return FillOptions{
		Tolerance: DefaultTolerance,
		Color:     c,
		Opacity:   1,
	}
}

// StrokeOptions style a stroke tessellation. Use [DefaultStrokeOptions]
// as the starting point.
type StrokeOptions struct {
	Tolerance float64
	// Width is the stroke width, centered on the path.
	Width float64
	// Cap is applied to both ends of open subpaths.
	Cap        curve.Cap
	Join       curve.Join
	MiterLimit float64
	Color      Color
	Opacity    float32
}

func DefaultStrokeOptions(c Color) StrokeOptions {
	return StrokeOptions{
		Tolerance:  DefaultTolerance,
		Width:      1,
		Cap:        curve.ButtCap,
		Join:       curve.MiterJoin,
		MiterLimit: defaultMiterLimit,
		Color:      c,
		Opacity:    1,
	}
}
