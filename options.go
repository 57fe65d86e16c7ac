package vexel

import (
	"golang.org/x/exp/constraints"

	"honnef.co/go/wgpu"
)

// DefaultInstanceCapacity is the per-mesh instance capacity used when
// Options leaves it unset.
const DefaultInstanceCapacity = 1 << 20

// DefaultTolerance is the curve flattening tolerance used when Options
// leaves it unset, in output pixels.
const DefaultTolerance = 0.1

// Options configure a [Renderer].
type Options struct {
	// SurfaceFormat is the texture format of the surface the
	// post-process pass presents to.
	SurfaceFormat wgpu.TextureFormat
	// InstanceCapacity bounds the instance list of every mesh. The
	// instance buffer of each draw call is allocated at this size.
	// Values <= 0 mean DefaultInstanceCapacity.
	InstanceCapacity int
	// Tolerance is the flattening tolerance for uploads. Values <= 0
	// mean DefaultTolerance.
	Tolerance float64
	// ClearColor is the background the offscreen pass clears to.
	ClearColor wgpu.Color
}

func (opts *Options) instanceCapacity() int {
	return defaultIfZero(opts.InstanceCapacity, DefaultInstanceCapacity)
}

func (opts *Options) tolerance() float64 {
	return defaultIfZero(opts.Tolerance, DefaultTolerance)
}

func defaultIfZero[T constraints.Integer | constraints.Float](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}
