package vexel

import (
	"structs"
	"unsafe"

	"honnef.co/go/safeish"
	"honnef.co/go/wgpu"

	"github.com/vexel-gfx/vexel/tess"
)

// geometryGlobals is the uniform block of the geometry pass.
type geometryGlobals struct {
	_ structs.HostLayout

	Zoom [2]float32
	Pan  [2]float32
}

// postGlobals is the uniform block of the post-process pass. The
// trailing padding keeps the block at a 16 byte multiple.
type postGlobals struct {
	_ structs.HostLayout

	Resolution [2]float32
	_pad       [2]float32
}

// quadVertices is a full-screen quad in NDC, two CCW triangles.
var quadVertices = [12]float32{
	-1, -1, 1, -1, 1, 1,
	-1, -1, 1, 1, -1, 1,
}

type geometryPipeline struct {
	pipeline   *wgpu.RenderPipeline
	bindLayout *wgpu.BindGroupLayout
	bindGroup  *wgpu.BindGroup
	globalsBuf *wgpu.Buffer
}

func newGeometryPipeline(dev *wgpu.Device, queue *wgpu.Queue, width, height uint32) *geometryPipeline {
	shader := dev.CreateShaderModule(wgpu.ShaderModuleDescriptor{
		Label:  "geometry shaders",
		Source: wgpu.ShaderSourceWGSL(geometryShaderSrc),
	})
	bindLayout := dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: &wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
		},
	})
	pipelineLayout := dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "geometry pipeline layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindLayout},
	})
	pipeline := dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "geometry pipeline",
		Layout: pipelineLayout,
		Vertex: &wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(unsafe.Sizeof(tess.Vertex{})),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 8, ShaderLocation: 1},
					},
				},
				{
					ArrayStride: uint64(unsafe.Sizeof(Instance{})),
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 2},
						{Format: wgpu.VertexFormatFloat32, Offset: 8, ShaderLocation: 3},
						{Format: wgpu.VertexFormatFloat32, Offset: 12, ShaderLocation: 4},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    wgpu.TextureFormatRGBA8Unorm,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: &wgpu.PrimitiveState{
			Topology:         wgpu.PrimitiveTopologyTriangleList,
			StripIndexFormat: ^wgpu.IndexFormat(0),
			FrontFace:        wgpu.FrontFaceCCW,
			CullMode:         wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth32Float,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLessEqual,
		},
		Multisample: &wgpu.MultisampleState{
			Count: 1,
			Mask:  ^uint32(0),
		},
	})

	globalsBuf := dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "geometry globals",
		Size:  uint64(unsafe.Sizeof(geometryGlobals{})),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	bindGroup := dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  globalsBuf,
				Size:    ^uint64(0),
			},
		},
	})

	p := &geometryPipeline{
		pipeline:   pipeline,
		bindLayout: bindLayout,
		bindGroup:  bindGroup,
		globalsBuf: globalsBuf,
	}
	p.updateGlobals(queue, width, height)
	return p
}

// updateGlobals sets the pixel-to-NDC transform for the given target
// size.
func (p *geometryPipeline) updateGlobals(queue *wgpu.Queue, width, height uint32) {
	globals := geometryGlobals{
		Zoom: [2]float32{2 / float32(width), 2 / float32(height)},
		Pan:  [2]float32{-float32(width) / 2, -float32(height) / 2},
	}
	queue.WriteBuffer(p.globalsBuf, 0, safeish.SliceCast[[]byte]([]geometryGlobals{globals}))
}

type postPipeline struct {
	pipeline   *wgpu.RenderPipeline
	bindLayout *wgpu.BindGroupLayout
	sampler    *wgpu.Sampler
	globalsBuf *wgpu.Buffer
	quadBuf    *wgpu.Buffer

	// bindGroup references the offscreen color view and is rebuilt
	// after every resize.
	bindGroup *wgpu.BindGroup
}

func newPostPipeline(dev *wgpu.Device, queue *wgpu.Queue, format wgpu.TextureFormat) *postPipeline {
	shader := dev.CreateShaderModule(wgpu.ShaderModuleDescriptor{
		Label:  "post-process shaders",
		Source: wgpu.ShaderSourceWGSL(postShaderSrc),
	})
	bindLayout := dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: &wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: &wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: &wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
		},
	})
	pipelineLayout := dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "post-process pipeline layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindLayout},
	})
	pipeline := dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "post-process pipeline",
		Layout: pipelineLayout,
		Vertex: &wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 8,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: &wgpu.PrimitiveState{
			Topology:         wgpu.PrimitiveTopologyTriangleList,
			StripIndexFormat: ^wgpu.IndexFormat(0),
			FrontFace:        wgpu.FrontFaceCCW,
			CullMode:         wgpu.CullModeBack,
		},
		Multisample: &wgpu.MultisampleState{
			Count: 1,
			Mask:  ^uint32(0),
		},
	})

	sampler := dev.CreateSampler(&wgpu.SamplerDescriptor{
		Label:        "post-process sampler",
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
	})
	globalsBuf := dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "post-process globals",
		Size:  uint64(unsafe.Sizeof(postGlobals{})),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	quadBuf := dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "full-screen quad",
		Size:  uint64(len(quadVertices)) * 4,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	queue.WriteBuffer(quadBuf, 0, safeish.SliceCast[[]byte](quadVertices[:]))

	return &postPipeline{
		pipeline:   pipeline,
		bindLayout: bindLayout,
		sampler:    sampler,
		globalsBuf: globalsBuf,
		quadBuf:    quadBuf,
	}
}

// rebind points the post pass at a new offscreen color view and updates
// the resolution uniform.
func (p *postPipeline) rebind(dev *wgpu.Device, queue *wgpu.Queue, view *wgpu.TextureView, width, height uint32) {
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	p.bindGroup = dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: p.bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: p.sampler},
			{Binding: 2, Buffer: p.globalsBuf, Size: ^uint64(0)},
		},
	})
	globals := postGlobals{
		Resolution: [2]float32{float32(width), float32(height)},
	}
	queue.WriteBuffer(p.globalsBuf, 0, safeish.SliceCast[[]byte]([]postGlobals{globals}))
}

// renderTarget is the offscreen color+depth pair of the geometry pass.
type renderTarget struct {
	colorView *wgpu.TextureView
	depthView *wgpu.TextureView
	width     uint32
	height    uint32
}

func newRenderTarget(dev *wgpu.Device, width, height uint32) *renderTarget {
	color := dev.CreateTexture(&wgpu.TextureDescriptor{
		Label: "offscreen color target",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
		Format:        wgpu.TextureFormatRGBA8Unorm,
	})
	defer color.Release()
	depth := dev.CreateTexture(&wgpu.TextureDescriptor{
		Label: "offscreen depth target",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Usage:         wgpu.TextureUsageRenderAttachment,
		Format:        wgpu.TextureFormatDepth32Float,
	})
	defer depth.Release()

	return &renderTarget{
		colorView: color.CreateView(nil),
		depthView: depth.CreateView(nil),
		width:     width,
		height:    height,
	}
}

func (t *renderTarget) release() {
	t.colorView.Release()
	t.depthView.Release()
}
