package vexel

import "fmt"

// A CapacityError reports that an instance list exceeds the renderer's
// configured instance capacity. The draw call's previous instances are
// left untouched.
type CapacityError struct {
	Mesh      Mesh
	Instances int
	Capacity  int
}

func (err *CapacityError) Error() string {
	return fmt.Sprintf("mesh %d: %d instances exceed the capacity of %d", err.Mesh, err.Instances, err.Capacity)
}

// A ResizeError reports that the offscreen render target pair could not
// be allocated. Rendering must not continue on a renderer in this state.
type ResizeError struct {
	Width, Height uint32
	Err           error
}

func (err *ResizeError) Error() string {
	return fmt.Sprintf("allocating %dx%d render target: %v", err.Width, err.Height, err.Err)
}

func (err *ResizeError) Unwrap() error {
	return err.Err
}
