package meshview

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/meshview/importer"
	"github.com/gogpu/meshview/mesh"
	"github.com/gogpu/meshview/render"
	"github.com/gogpu/meshview/resource"
)

// ErrClosed is returned by operations on a closed Viewer.
var ErrClosed = errors.New("meshview: viewer is closed")

// Viewer owns the mesh groups, the draw pipeline and the camera of one
// viewport. Geometry may be added at any time between frames; each frame
// the host calls Prepare before opening its render pass and Paint inside
// it.
type Viewer struct {
	device hal.Device
	queue  hal.Queue

	cache    *resource.Cache
	pipeline *render.Pipeline

	camera render.Camera
	light  render.Light
	rig    Rig
	lod    float32
	log    *slog.Logger

	// modelRotation orients the first instance of the first group. It is
	// only applied once set.
	modelRotation    mgl32.Quat
	hasModelRotation bool

	closed bool
}

// New creates a viewer drawing with device and queue.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Viewer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = Logger()
	}

	pipeline, err := render.NewPipeline(device, queue, o.pipeline)
	if err != nil {
		return nil, fmt.Errorf("meshview: %w", err)
	}
	v := &Viewer{
		device:        device,
		queue:         queue,
		cache:         resource.New(),
		pipeline:      pipeline,
		camera:        o.camera,
		light:         o.light,
		rig:           o.rig,
		lod:           o.lod,
		log:           log,
		modelRotation: mgl32.QuatIdent(),
	}
	if err := v.writeUniforms(); err != nil {
		pipeline.Destroy()
		return nil, fmt.Errorf("meshview: %w", err)
	}
	return v, nil
}

// NewFromProvider creates a viewer on the device of a host application.
func NewFromProvider(provider render.DeviceHandle, opts ...Option) (*Viewer, error) {
	device, queue, err := render.HalDevice(provider)
	if err != nil {
		return nil, fmt.Errorf("meshview: %w", err)
	}
	if f := provider.SurfaceFormat(); f != 0 {
		// Callers can still override the surface format with an option.
		opts = append([]Option{WithTargetFormat(f)}, opts...)
	}
	return New(device, queue, opts...)
}

// Add merges m into group, creating the group when needed, then frames the
// camera around everything loaded and moves the light above it.
func (v *Viewer) Add(group string, m *mesh.Mesh) error {
	if v.closed {
		return ErrClosed
	}
	if err := v.cache.Add(group, m); err != nil {
		return err
	}
	b := v.cache.CombinedBounds()
	v.frame(b)
	v.light.Position = mgl32.Vec3{b.X() * -2, b.Y() * 2, b.Z() * 2}
	return nil
}

// Set replaces group with m and frames the camera. The light stays where
// it is.
func (v *Viewer) Set(group string, m *mesh.Mesh) error {
	if v.closed {
		return ErrClosed
	}
	if err := v.cache.Set(group, m); err != nil {
		return err
	}
	v.frame(v.cache.CombinedBounds())
	return nil
}

// Load imports data through src at the viewer's level of detail and adds
// the result to group.
func (v *Viewer) Load(group string, src importer.Source, data []byte, instances []mesh.InstanceTransform) error {
	m, err := importer.Load(src, data, v.lod, instances)
	if err != nil {
		return fmt.Errorf("load group %q: %w", group, err)
	}
	return v.Add(group, m)
}

// Remove drops group, re-frames the camera around what is left and
// reports whether the group existed.
func (v *Viewer) Remove(group string) bool {
	if v.closed || !v.cache.Remove(group) {
		return false
	}
	v.frame(v.cache.CombinedBounds())
	return true
}

// Clear drops every group. GPU buffers are released on the next Prepare.
func (v *Viewer) Clear() {
	if v.closed {
		return
	}
	v.cache.Clear()
}

// AddInstance places one more copy of group.
func (v *Viewer) AddInstance(group string, t mesh.InstanceTransform) error {
	if v.closed {
		return ErrClosed
	}
	return v.cache.AddInstance(group, t)
}

// SetModelRotation sets the orientation of the first instance of the
// first group. It is written to the GPU on the next Prepare.
func (v *Viewer) SetModelRotation(q mgl32.Quat) {
	v.modelRotation = q
	v.hasModelRotation = true
}

// ModelRotation returns the rotation set by SetModelRotation.
func (v *Viewer) ModelRotation() mgl32.Quat { return v.modelRotation }

// Camera returns the camera as of the last Prepare.
func (v *Viewer) Camera() render.Camera { return v.camera }

// Light returns the current light.
func (v *Viewer) Light() render.Light { return v.light }

// SetLight moves or recolors the light. Written on the next Prepare.
func (v *Viewer) SetLight(l render.Light) { v.light = l }

// Rig returns the camera rig, or nil for a fixed camera.
func (v *Viewer) Rig() Rig { return v.rig }

// Cache exposes the group cache for inspection.
func (v *Viewer) Cache() *resource.Cache { return v.cache }

// Prepare advances the camera from in, writes the camera and light
// uniforms, uploads any group without GPU buffers and writes the model
// rotation. Call it once per frame before the render pass begins.
func (v *Viewer) Prepare(in FrameInput) error {
	if v.closed {
		return ErrClosed
	}
	if v.rig != nil {
		v.rig.Update(in)
		v.rig.Apply(&v.camera)
	}
	if in.Aspect > 0 {
		v.camera.Aspect = in.Aspect
	}
	if err := v.writeUniforms(); err != nil {
		return fmt.Errorf("meshview: prepare: %w", err)
	}

	if err := v.cache.Prepare(v.device, v.queue); err != nil {
		return fmt.Errorf("meshview: prepare: %w", err)
	}
	return v.applyModelRotation()
}

// Paint records the frame into pass and returns the number of draw calls.
// It only reads state prepared by Prepare.
func (v *Viewer) Paint(pass render.Pass) int {
	if v.closed {
		return 0
	}
	v.pipeline.Bind(pass)
	return v.cache.Paint(pass)
}

// Close releases every GPU resource held by the viewer. The device itself
// belongs to the caller. Safe to call twice.
func (v *Viewer) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.cache.Release(v.device)
	v.pipeline.Destroy()
}

func (v *Viewer) frame(bounds mgl32.Vec3) {
	if v.rig == nil {
		return
	}
	v.rig.Frame(bounds)
	v.rig.Apply(&v.camera)
	v.log.Debug("meshview: framed camera", "bounds", bounds, "eye", v.camera.Eye)
}

func (v *Viewer) writeUniforms() error {
	if err := v.pipeline.UpdateCamera(v.camera); err != nil {
		return err
	}
	return v.pipeline.UpdateLight(v.light)
}

func (v *Viewer) applyModelRotation() error {
	if !v.hasModelRotation {
		return nil
	}
	name, m, ok := v.cache.First()
	if !ok || len(m.Instances) == 0 {
		return nil
	}
	inst := m.Instances[0]
	inst.Rotation = v.modelRotation
	if err := v.cache.PatchInstance(v.queue, name, 0, inst); err != nil {
		return fmt.Errorf("meshview: model rotation: %w", err)
	}
	return nil
}
