package vexel

// geometryShaderSrc transforms tessellated vertices by their per-draw
// instance attributes and maps pixel coordinates to NDC. zoom is
// (2/width, 2/height) and pan is (-width/2, -height/2), so the origin
// sits in the top-left corner with y growing downwards.
const geometryShaderSrc = `
	struct Globals {
		zoom: vec2<f32>,
		pan: vec2<f32>,
	}

	@group(0) @binding(0)
	var<uniform> globals: Globals;

	struct VertexIn {
		@location(0) pos: vec2<f32>,
		@location(1) color: vec4<f32>,
		@location(2) inst_pos: vec2<f32>,
		@location(3) inst_rot: f32,
		@location(4) inst_scale: f32,
	}

	struct VertexOut {
		@builtin(position) pos: vec4<f32>,
		@location(0) color: vec4<f32>,
	}

	@vertex
	fn vs_main(in: VertexIn) -> VertexOut {
		let c = cos(in.inst_rot);
		let s = sin(in.inst_rot);
		let local = in.pos * in.inst_scale;
		let rotated = vec2(local.x * c - local.y * s, local.x * s + local.y * c);
		let world = rotated + in.inst_pos;
		let ndc = (world + globals.pan) * globals.zoom;

		var out: VertexOut;
		out.pos = vec4(ndc.x, -ndc.y, 0.0, 1.0);
		out.color = in.color;
		return out;
	}

	@fragment
	fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
		return in.color;
	}
`

// postShaderSrc samples the offscreen color target and applies FXAA.
// The five neighbor UVs are precomputed in the vertex shader from the
// current resolution.
const postShaderSrc = `
	struct Globals {
		resolution: vec2<f32>,
	}

	@group(0) @binding(0)
	var offscreen: texture_2d<f32>;
	@group(0) @binding(1)
	var offscreen_sampler: sampler;
	@group(0) @binding(2)
	var<uniform> globals: Globals;

	struct VertexOut {
		@builtin(position) pos: vec4<f32>,
		@location(0) uv: vec2<f32>,
		@location(1) uv_nw: vec2<f32>,
		@location(2) uv_ne: vec2<f32>,
		@location(3) uv_sw: vec2<f32>,
		@location(4) uv_se: vec2<f32>,
	}

	@vertex
	fn vs_main(@location(0) pos: vec2<f32>) -> VertexOut {
		let inv = 1.0 / globals.resolution;
		let uv = pos * vec2(0.5, -0.5) + vec2(0.5);

		var out: VertexOut;
		out.pos = vec4(pos, 0.0, 1.0);
		out.uv = uv;
		out.uv_nw = uv + vec2(-1.0, -1.0) * inv;
		out.uv_ne = uv + vec2(1.0, -1.0) * inv;
		out.uv_sw = uv + vec2(-1.0, 1.0) * inv;
		out.uv_se = uv + vec2(1.0, 1.0) * inv;
		return out;
	}

	const REDUCE_MIN: f32 = 1.0 / 128.0;
	const REDUCE_MUL: f32 = 1.0 / 8.0;
	const SPAN_MAX: f32 = 8.0;

	fn luma(rgb: vec3<f32>) -> f32 {
		return dot(rgb, vec3(0.299, 0.587, 0.114));
	}

	@fragment
	fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
		let inv = 1.0 / globals.resolution;

		let rgb_nw = textureSample(offscreen, offscreen_sampler, in.uv_nw).rgb;
		let rgb_ne = textureSample(offscreen, offscreen_sampler, in.uv_ne).rgb;
		let rgb_sw = textureSample(offscreen, offscreen_sampler, in.uv_sw).rgb;
		let rgb_se = textureSample(offscreen, offscreen_sampler, in.uv_se).rgb;
		let center = textureSample(offscreen, offscreen_sampler, in.uv);

		let luma_nw = luma(rgb_nw);
		let luma_ne = luma(rgb_ne);
		let luma_sw = luma(rgb_sw);
		let luma_se = luma(rgb_se);
		let luma_center = luma(center.rgb);

		let luma_min = min(luma_center, min(min(luma_nw, luma_ne), min(luma_sw, luma_se)));
		let luma_max = max(luma_center, max(max(luma_nw, luma_ne), max(luma_sw, luma_se)));

		var dir = vec2(
			-((luma_nw + luma_ne) - (luma_sw + luma_se)),
			(luma_nw + luma_sw) - (luma_ne + luma_se),
		);
		let dir_reduce = max((luma_nw + luma_ne + luma_sw + luma_se) * 0.25 * REDUCE_MUL, REDUCE_MIN);
		let rcp_dir_min = 1.0 / (min(abs(dir.x), abs(dir.y)) + dir_reduce);
		dir = clamp(dir * rcp_dir_min, vec2(-SPAN_MAX), vec2(SPAN_MAX)) * inv;

		let rgb_a = 0.5 * (
			textureSample(offscreen, offscreen_sampler, in.uv + dir * (1.0 / 3.0 - 0.5)).rgb +
			textureSample(offscreen, offscreen_sampler, in.uv + dir * (2.0 / 3.0 - 0.5)).rgb);
		let rgb_b = rgb_a * 0.5 + 0.25 * (
			textureSample(offscreen, offscreen_sampler, in.uv + dir * -0.5).rgb +
			textureSample(offscreen, offscreen_sampler, in.uv + dir * 0.5).rgb);

		let luma_b = luma(rgb_b);
		if luma_b < luma_min || luma_b > luma_max {
			return vec4(rgb_a, center.a);
		}
		return vec4(rgb_b, center.a);
	}
`
