package vexel

import (
	"fmt"

	"honnef.co/go/curve"
	"honnef.co/go/wgpu"

	"github.com/vexel-gfx/vexel/svg"
	"github.com/vexel-gfx/vexel/tess"
)

// maxTargetDim is the largest offscreen target edge we allocate. It
// matches the baseline WebGPU limit for 2D textures.
const maxTargetDim = 8192

// A Renderer tessellates shapes into GPU-resident meshes and draws any
// number of instances of them per frame. Uploading and instancing work
// without a device; the GPU side is created lazily on the first call to
// [Renderer.Render].
//
// A Renderer is not safe for concurrent use.
type Renderer struct {
	options Options
	width   uint32
	height  uint32

	table *drawCallTable

	dev      *wgpu.Device
	queue    *wgpu.Queue
	geometry *geometryPipeline
	post     *postPipeline
	target   *renderTarget

	rendering bool
}

// NewRenderer returns a renderer for a surface of the given pixel size.
// No GPU resources are created yet.
func NewRenderer(width, height uint32, opts Options) (*Renderer, error) {
	if err := validateSize(width, height); err != nil {
		return nil, err
	}
	return &Renderer{
		options: opts,
		width:   width,
		height:  height,
		table:   newDrawCallTable(opts.instanceCapacity()),
	}, nil
}

func validateSize(width, height uint32) error {
	if width == 0 || height == 0 {
		return &ResizeError{
			Width:  width,
			Height: height,
			Err:    fmt.Errorf("target size must be positive"),
		}
	}
	if width > maxTargetDim || height > maxTargetDim {
		return &ResizeError{
			Width:  width,
			Height: height,
			Err:    fmt.Errorf("target size exceeds the maximum of %d", maxTargetDim),
		}
	}
	return nil
}

// UploadPath tessellates a filled path and returns a handle to the
// resulting mesh. Coordinates are in pixels; the mesh carries a single
// solid color.
func (r *Renderer) UploadPath(elems []curve.PathElement, color Color, opacity float32) (Mesh, error) {
	var buf tess.Buffers
	opts := tess.DefaultFillOptions(color)
	opts.Tolerance = r.options.tolerance()
	opts.Opacity = opacity
	if err := tess.Fill(&buf, elems, opts); err != nil {
		return 0, err
	}
	return r.table.upload(buf.Vertices, buf.Indices), nil
}

// UploadStroke tessellates a stroked path and returns a handle to the
// resulting mesh.
func (r *Renderer) UploadStroke(elems []curve.PathElement, opts tess.StrokeOptions) (Mesh, error) {
	if opts.Tolerance == 0 {
		opts.Tolerance = r.options.tolerance()
	}
	var buf tess.Buffers
	if err := tess.Stroke(&buf, elems, opts); err != nil {
		return 0, err
	}
	return r.table.upload(buf.Vertices, buf.Indices), nil
}

// UploadShape tessellates any curve shape as a filled mesh.
func (r *Renderer) UploadShape(shape curve.Shape, color Color, opacity float32) (Mesh, error) {
	elems := make([]curve.PathElement, 0, 16)
	for el := range shape.PathElements(r.options.tolerance()) {
		elems = append(elems, el)
	}
	return r.UploadPath(elems, color, opacity)
}

// UploadSVG parses an SVG document and tessellates all of its regions
// into a single mesh, so the whole document draws with one call. Fill
// errors abort the upload; a region whose stroke fails to tessellate
// keeps its fill and logs a warning.
func (r *Renderer) UploadSVG(data []byte) (Mesh, error) {
	doc, err := svg.Parse(data)
	if err != nil {
		return 0, err
	}

	tol := r.options.tolerance()
	var buf tess.Buffers
	for i, region := range doc.Regions {
		if region.Fill != nil {
			opts := tess.DefaultFillOptions(region.Fill.Color)
			opts.Tolerance = tol
			opts.Opacity = region.Fill.Opacity
			if err := tess.Fill(&buf, region.Elements, opts); err != nil {
				return 0, fmt.Errorf("region %d: %w", i, err)
			}
		}
		if region.Stroke != nil {
			opts := tess.StrokeOptions{
				Tolerance:  tol,
				Width:      region.Stroke.Width,
				Cap:        region.Stroke.Cap,
				Join:       region.Stroke.Join,
				MiterLimit: region.Stroke.MiterLimit,
				Color:      region.Stroke.Color,
				Opacity:    region.Stroke.Opacity,
			}
			if err := tess.Stroke(&buf, region.Elements, opts); err != nil {
				Logger().Warn("skipping stroke", "region", i, "err", err)
			}
		}
	}
	return r.table.upload(buf.Vertices, buf.Indices), nil
}

// SetInstances replaces the instance list of mesh. The list is copied;
// the caller may reuse the slice. Passing more instances than the
// configured capacity returns a [CapacityError] and leaves the previous
// list in place.
func (r *Renderer) SetInstances(mesh Mesh, instances []Instance) error {
	return r.table.setInstances(mesh, instances)
}

// Render draws one frame into surface: every mesh with a non-empty
// instance list is drawn into the offscreen target, then the
// post-process pass applies FXAA and writes the result to surface.
func (r *Renderer) Render(dev *wgpu.Device, queue *wgpu.Queue, surface *wgpu.TextureView) error {
	r.rendering = true
	defer func() { r.rendering = false }()

	r.ensureGPU(dev, queue)
	r.table.ensureBindings(dev, queue)
	r.table.syncInstances(queue)

	encoder := dev.CreateCommandEncoder(nil)

	geometryPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "geometry pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       r.target.colorView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: r.options.ClearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.target.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	geometryPass.SetPipeline(r.geometry.pipeline)
	geometryPass.SetBindGroup(0, r.geometry.bindGroup, nil)
	for _, dc := range r.table.calls {
		if len(dc.instances) == 0 {
			continue
		}
		geometryPass.SetVertexBuffer(0, dc.binding.vertexBuf, 0, ^uint64(0))
		geometryPass.SetVertexBuffer(1, dc.binding.instanceBuf, 0, ^uint64(0))
		geometryPass.SetIndexBuffer(dc.binding.indexBuf, wgpu.IndexFormatUint16, 0, ^uint64(0))
		geometryPass.DrawIndexed(uint32(dc.indexCount), uint32(len(dc.instances)), 0, 0, 0)
	}
	geometryPass.End()
	geometryPass.Release()

	postPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "post-process pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       surface,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{},
			},
		},
	})
	postPass.SetPipeline(r.post.pipeline)
	postPass.SetBindGroup(0, r.post.bindGroup, nil)
	postPass.SetVertexBuffer(0, r.post.quadBuf, 0, ^uint64(0))
	postPass.Draw(6, 1, 0, 0)
	postPass.End()
	postPass.Release()

	cmd := encoder.Finish(nil)
	queue.Submit(cmd)
	return nil
}

// ensureGPU creates the pipelines and the offscreen target on first use
// and remembers the device for Resize. All later frames must use the
// same device; mesh buffers live on it.
func (r *Renderer) ensureGPU(dev *wgpu.Device, queue *wgpu.Queue) {
	if r.geometry != nil {
		if dev != r.dev || queue != r.queue {
			panic("vexel: Render called with a different device or queue")
		}
		return
	}
	r.dev = dev
	r.queue = queue
	r.geometry = newGeometryPipeline(dev, queue, r.width, r.height)
	r.post = newPostPipeline(dev, queue, r.options.SurfaceFormat)
	r.target = newRenderTarget(dev, r.width, r.height)
	r.post.rebind(dev, queue, r.target.colorView, r.width, r.height)
	Logger().Debug("created render pipelines", "width", r.width, "height", r.height)
}

// Resize adjusts the renderer to a new surface size, reallocating the
// offscreen target. Resize must not be called while a Render is in
// progress.
func (r *Renderer) Resize(width, height uint32) error {
	if r.rendering {
		panic("vexel: Resize called during Render")
	}
	if err := validateSize(width, height); err != nil {
		return err
	}
	r.width = width
	r.height = height
	if r.geometry == nil {
		// Not on the GPU yet; the new size applies on first Render.
		return nil
	}
	r.target.release()
	r.target = newRenderTarget(r.dev, width, height)
	r.geometry.updateGlobals(r.queue, width, height)
	r.post.rebind(r.dev, r.queue, r.target.colorView, width, height)
	Logger().Debug("resized render target", "width", width, "height", height)
	return nil
}
