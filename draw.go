package vexel

import (
	"fmt"
	"unsafe"

	"honnef.co/go/safeish"
	"honnef.co/go/wgpu"

	"github.com/vexel-gfx/vexel/tess"
)

// A Mesh is an opaque handle to one uploaded shape. Handles are issued
// monotonically in upload order and stay valid for the lifetime of the
// renderer.
type Mesh int

// A DrawCall owns one mesh's GPU-resident buffers and its current
// instance list. The vertex and index data are immutable after upload;
// the instance list is overwritten wholesale by [Renderer.SetInstances].
type DrawCall struct {
	vertices []tess.Vertex
	indices  []uint16
	// indexCount is the drawable index count. The index slice may carry
	// one padding element to keep uploads 4-byte aligned.
	indexCount int

	instances        []Instance
	refreshInstances bool

	binding *meshBinding
}

// meshBinding is the lazily created GPU half of a DrawCall.
type meshBinding struct {
	vertexBuf   *wgpu.Buffer
	indexBuf    *wgpu.Buffer
	instanceBuf *wgpu.Buffer
}

type drawCallTable struct {
	calls    []*DrawCall
	capacity int
	// missingBindings is set on upload and cleared once ensureBindings
	// has processed every call.
	missingBindings bool
}

func newDrawCallTable(capacity int) *drawCallTable {
	return &drawCallTable{capacity: capacity}
}

// upload appends a new draw call and returns its handle. The index
// slice is padded to an even length so the byte size stays 4-byte
// aligned for the upload.
func (t *drawCallTable) upload(vertices []tess.Vertex, indices []uint16) Mesh {
	indexCount := len(indices)
	if indexCount%2 != 0 {
		indices = append(indices, 0)
	}
	t.calls = append(t.calls, &DrawCall{
		vertices:   vertices,
		indices:    indices,
		indexCount: indexCount,
	})
	t.missingBindings = true
	mesh := Mesh(len(t.calls) - 1)
	Logger().Debug("uploaded mesh",
		"mesh", int(mesh),
		"vertices", len(vertices),
		"indices", indexCount)
	return mesh
}

// call resolves a handle. Handles only come out of upload, so a
// dangling one is an internal invariant violation.
func (t *drawCallTable) call(mesh Mesh) *DrawCall {
	if mesh < 0 || int(mesh) >= len(t.calls) {
		panic(fmt.Sprintf("vexel: dangling mesh handle %d", mesh))
	}
	return t.calls[mesh]
}

// setInstances overwrites the instance list of mesh. Lists beyond the
// configured capacity are rejected and the previous list is kept.
func (t *drawCallTable) setInstances(mesh Mesh, instances []Instance) error {
	dc := t.call(mesh)
	if len(instances) > t.capacity {
		return &CapacityError{
			Mesh:      mesh,
			Instances: len(instances),
			Capacity:  t.capacity,
		}
	}
	dc.instances = append(dc.instances[:0], instances...)
	dc.refreshInstances = true
	return nil
}

// ensureBindings creates the GPU buffers for every draw call that does
// not have them yet. Vertex and index buffers are written once here;
// the instance buffer is allocated at full capacity and streamed into
// by syncInstances.
func (t *drawCallTable) ensureBindings(dev *wgpu.Device, queue *wgpu.Queue) {
	if !t.missingBindings {
		return
	}
	for i, dc := range t.calls {
		if dc.binding != nil {
			continue
		}

		vertexBytes := safeish.SliceCast[[]byte](dc.vertices)
		vertexBuf := dev.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("mesh %d vertices", i),
			Size:  uint64(len(vertexBytes)),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		queue.WriteBuffer(vertexBuf, 0, vertexBytes)

		indexBytes := safeish.SliceCast[[]byte](dc.indices)
		indexBuf := dev.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("mesh %d indices", i),
			Size:  uint64(len(indexBytes)),
			Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		queue.WriteBuffer(indexBuf, 0, indexBytes)

		instanceBuf := dev.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("mesh %d instances", i),
			Size:  uint64(t.capacity) * uint64(unsafe.Sizeof(Instance{})),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})

		dc.binding = &meshBinding{
			vertexBuf:   vertexBuf,
			indexBuf:    indexBuf,
			instanceBuf: instanceBuf,
		}
		Logger().Debug("created mesh bindings", "mesh", i)
	}
	t.missingBindings = false
}

// syncInstances streams the instance list of every dirty draw call into
// its instance buffer.
func (t *drawCallTable) syncInstances(queue *wgpu.Queue) {
	for _, dc := range t.calls {
		if !dc.refreshInstances || len(dc.instances) == 0 {
			continue
		}
		queue.WriteBuffer(dc.binding.instanceBuf, 0, safeish.SliceCast[[]byte](dc.instances))
		dc.refreshInstances = false
	}
}
