package meshview

import (
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/meshview/render"
)

// Option configures a Viewer during creation.
// Use functional options to customize Viewer behavior.
//
// Example:
//
//	// Defaults: fly camera, BGRA8 target, WGSL shader
//	v, err := meshview.New(device, queue)
//
//	// Orbit camera rendering into an RGBA surface
//	v, err := meshview.New(device, queue,
//	    meshview.WithRig(meshview.NewOrbitRig()),
//	    meshview.WithTargetFormat(gputypes.TextureFormatRGBA8Unorm))
type Option func(*options)

// options holds optional configuration for Viewer creation.
type options struct {
	lod      float32
	rig      Rig
	pipeline render.PipelineConfig
	camera   render.Camera
	light    render.Light
	logger   *slog.Logger
}

// defaultOptions returns the default viewer options.
func defaultOptions() options {
	return options{
		lod:    DefaultLOD,
		rig:    NewFlyRig(),
		camera: render.DefaultCamera(),
		light:  render.DefaultLight(),
	}
}

// DefaultLOD is the level-of-detail distance passed to importers when
// WithLOD is not given.
const DefaultLOD float32 = 0

// WithLOD sets the level-of-detail distance forwarded to importers by
// Viewer.Load.
func WithLOD(lod float32) Option {
	return func(o *options) {
		o.lod = lod
	}
}

// WithRig sets the camera rig. A nil rig keeps the camera fixed where
// WithCamera put it.
func WithRig(r Rig) Option {
	return func(o *options) {
		o.rig = r
	}
}

// WithTargetFormat sets the color format of the render pass the viewer
// paints into. It must match the host's surface or texture.
func WithTargetFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.pipeline.TargetFormat = f
	}
}

// WithShaderFormat selects WGSL or naga-compiled SPIR-V for the mesh
// shader.
func WithShaderFormat(f render.ShaderFormat) Option {
	return func(o *options) {
		o.pipeline.ShaderFormat = f
	}
}

// WithSampleCount sets the MSAA sample count of the render pass.
func WithSampleCount(n uint32) Option {
	return func(o *options) {
		o.pipeline.SampleCount = n
	}
}

// WithCamera sets the initial camera. The rig, if any, takes over on the
// first Prepare.
func WithCamera(c render.Camera) Option {
	return func(o *options) {
		o.camera = c
	}
}

// WithLight sets the initial point light.
func WithLight(l render.Light) Option {
	return func(o *options) {
		o.light = l
	}
}

// WithLogger sets the logger used by this viewer. Sub-packages keep using
// the package logger configured through SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
