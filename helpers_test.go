package meshview

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/meshview/mesh"
)

func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

// newTestViewer creates a viewer on a noop device and closes it when the
// test ends.
func newTestViewer(t *testing.T, opts ...Option) *Viewer {
	t.Helper()
	device, queue := createNoopDevice(t)
	v, err := New(device, queue, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(v.Close)
	return v
}

// recordingPass implements render.Pass and records what the viewer does.
type recordingPass struct {
	pipelines  int
	bindGroups []uint32
	draws      int
	instances  []uint32
}

func (p *recordingPass) SetPipeline(hal.RenderPipeline) { p.pipelines++ }
func (p *recordingPass) SetBindGroup(index uint32, _ hal.BindGroup, _ []uint32) {
	p.bindGroups = append(p.bindGroups, index)
}
func (p *recordingPass) SetVertexBuffer(uint32, hal.Buffer, uint64)              {}
func (p *recordingPass) SetIndexBuffer(hal.Buffer, gputypes.IndexFormat, uint64) {}
func (p *recordingPass) DrawIndexed(_, instanceCount, _ uint32, _ int32, _ uint32) {
	p.draws++
	p.instances = append(p.instances, instanceCount)
}

// triangle returns a right triangle in the XY plane with legs of length s.
func triangle(t *testing.T, s float32) *mesh.Mesh {
	t.Helper()
	up := mgl32.Vec3{0, 0, 1}
	m, err := mesh.New([]mesh.Vertex{
		{Position: mgl32.Vec3{0, 0, 0}, Normal: up},
		{Position: mgl32.Vec3{s, 0, 0}, Normal: up},
		{Position: mgl32.Vec3{0, s, 0}, Normal: up},
	}, []uint32{0, 1, 2}, nil)
	if err != nil {
		t.Fatalf("mesh.New failed: %v", err)
	}
	return m
}

func vecNear(a, b mgl32.Vec3, eps float32) bool {
	return a.ApproxEqualThreshold(b, eps)
}
