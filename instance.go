package vexel

import "structs"

// An Instance places one occurrence of a mesh. Instances are consumed by
// the geometry pipeline as a per-instance vertex buffer, so the struct
// layout matches the shader's instance attributes.
type Instance struct {
	_ structs.HostLayout

	// Position of the mesh origin, in pixels from the top-left corner.
	Position [2]float32
	// Rotation around the mesh origin, in radians.
	Rotation float32
	// Scale is a uniform scale factor.
	Scale float32
}

// NewInstance returns an instance at pos with no rotation and unit
// scale.
func NewInstance(x, y float32) Instance {
	return Instance{
		Position: [2]float32{x, y},
		Scale:    1,
	}
}
