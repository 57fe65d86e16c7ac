package vexel

import (
	"errors"
	"testing"

	"honnef.co/go/curve"
	"honnef.co/go/wgpu"
)

func rectElements(x, y, w, h float64) []curve.PathElement {
	return []curve.PathElement{
		{Kind: curve.MoveToKind, P0: curve.Point{X: x, Y: y}},
		{Kind: curve.LineToKind, P0: curve.Point{X: x + w, Y: y}},
		{Kind: curve.LineToKind, P0: curve.Point{X: x + w, Y: y + h}},
		{Kind: curve.LineToKind, P0: curve.Point{X: x, Y: y + h}},
		{Kind: curve.ClosePathKind},
	}
}

func TestUploadPath(t *testing.T) {
	r, err := NewRenderer(640, 480, Options{})
	if err != nil {
		t.Fatal(err)
	}

	mesh, err := r.UploadPath(rectElements(0, 0, 10, 10), RGBA(1, 0, 0, 1), 1)
	if err != nil {
		t.Fatal(err)
	}
	dc := r.table.call(mesh)
	if len(dc.vertices) != 4 {
		t.Errorf("rectangle tessellated into %d vertices, want 4", len(dc.vertices))
	}
	if dc.indexCount != 6 {
		t.Errorf("rectangle tessellated into %d indices, want 6", dc.indexCount)
	}

	second, err := r.UploadPath(rectElements(20, 20, 5, 5), RGBA(0, 1, 0, 1), 1)
	if err != nil {
		t.Fatal(err)
	}
	if second <= mesh {
		t.Errorf("second upload returned handle %d, want one greater than %d", second, mesh)
	}
}

func TestUploadShape(t *testing.T) {
	r, err := NewRenderer(640, 480, Options{})
	if err != nil {
		t.Fatal(err)
	}

	// A degenerate shape still uploads as an empty mesh with a valid
	// handle.
	mesh, err := r.UploadShape(curve.Rect{}, RGBA(1, 1, 1, 1), 1)
	if err != nil {
		t.Fatal(err)
	}
	if dc := r.table.call(mesh); dc.indexCount%3 != 0 {
		t.Errorf("shape produced %d indices, want a multiple of 3", dc.indexCount)
	}
}

func TestUploadSVG(t *testing.T) {
	const doc = `<svg viewBox="0 0 100 100">
		<rect x="10" y="10" width="30" height="30" fill="red"/>
		<rect x="50" y="50" width="30" height="30" fill="#00ff00"/>
	</svg>`

	r, err := NewRenderer(640, 480, Options{})
	if err != nil {
		t.Fatal(err)
	}
	mesh, err := r.UploadSVG([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}

	// Both rectangles land in one mesh so the document draws with a
	// single call.
	dc := r.table.call(mesh)
	if len(dc.vertices) != 8 {
		t.Errorf("document tessellated into %d vertices, want 8", len(dc.vertices))
	}
	if dc.indexCount != 12 {
		t.Errorf("document tessellated into %d indices, want 12", dc.indexCount)
	}
}

func TestUploadSVGInvalid(t *testing.T) {
	r, err := NewRenderer(640, 480, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.UploadSVG([]byte(`<div/>`)); err == nil {
		t.Error("expected an error for a non-SVG document")
	}
}

func TestInstanceCapacityOption(t *testing.T) {
	r, err := NewRenderer(640, 480, Options{InstanceCapacity: 2})
	if err != nil {
		t.Fatal(err)
	}
	mesh, err := r.UploadPath(rectElements(0, 0, 1, 1), RGBA(1, 1, 1, 1), 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.SetInstances(mesh, make([]Instance, 2)); err != nil {
		t.Fatalf("setting 2 instances: %v", err)
	}
	var capErr *CapacityError
	if err := r.SetInstances(mesh, make([]Instance, 3)); !errors.As(err, &capErr) {
		t.Fatalf("setting 3 instances: got %v, want a CapacityError", err)
	}
}

func TestRenderDeviceMismatch(t *testing.T) {
	r, err := NewRenderer(640, 480, Options{})
	if err != nil {
		t.Fatal(err)
	}

	// Simulate a renderer whose GPU side was created on one device.
	r.dev = new(wgpu.Device)
	// wgpu.Queue is an incomplete cgo type and cannot be allocated in Go;
	// ensureGPU only compares the pointer, so nil works as a stand-in.
	r.queue = nil
	r.geometry = &geometryPipeline{}

	r.ensureGPU(r.dev, r.queue)

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a device mismatch")
		}
	}()
	r.ensureGPU(new(wgpu.Device), r.queue)
}

func TestNewRendererSize(t *testing.T) {
	var resizeErr *ResizeError
	if _, err := NewRenderer(0, 480, Options{}); !errors.As(err, &resizeErr) {
		t.Errorf("zero width: got %v, want a ResizeError", err)
	}
	if _, err := NewRenderer(640, maxTargetDim+1, Options{}); !errors.As(err, &resizeErr) {
		t.Errorf("oversized height: got %v, want a ResizeError", err)
	}
}

func TestResizeBeforeRender(t *testing.T) {
	r, err := NewRenderer(640, 480, Options{})
	if err != nil {
		t.Fatal(err)
	}

	// Without a device the resize only records the new size.
	if err := r.Resize(800, 600); err != nil {
		t.Fatal(err)
	}
	if r.width != 800 || r.height != 600 {
		t.Errorf("size after resize = %dx%d, want 800x600", r.width, r.height)
	}

	var resizeErr *ResizeError
	if err := r.Resize(800, 0); !errors.As(err, &resizeErr) {
		t.Fatalf("zero height: got %v, want a ResizeError", err)
	}
	if r.width != 800 || r.height != 600 {
		t.Errorf("size changed by a rejected resize to %dx%d", r.width, r.height)
	}
}
