package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop device and queue for testing.
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

// countingAllocator forwards to a real device and counts buffer traffic.
type countingAllocator struct {
	device    hal.Device
	created   int
	destroyed int
	labels    []string
}

func (a *countingAllocator) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	a.created++
	a.labels = append(a.labels, desc.Label)
	return a.device.CreateBuffer(desc)
}

func (a *countingAllocator) DestroyBuffer(buffer hal.Buffer) {
	a.destroyed++
	a.device.DestroyBuffer(buffer)
}

// failingQueue rejects every buffer write.
type failingQueue struct {
	hal.Queue
	err error
}

func (q failingQueue) WriteBuffer(hal.Buffer, uint64, []byte) error { return q.err }

type drawCall struct {
	indexCount    uint32
	instanceCount uint32
}

// recordingPass records draw traffic without a real render pass.
type recordingPass struct {
	vertexSlots []uint32
	indexFormat gputypes.IndexFormat
	draws       []drawCall
}

func (p *recordingPass) SetVertexBuffer(slot uint32, _ hal.Buffer, _ uint64) {
	p.vertexSlots = append(p.vertexSlots, slot)
}

func (p *recordingPass) SetIndexBuffer(_ hal.Buffer, format gputypes.IndexFormat, _ uint64) {
	p.indexFormat = format
}

func (p *recordingPass) DrawIndexed(indexCount, instanceCount, _ uint32, _ int32, _ uint32) {
	p.draws = append(p.draws, drawCall{indexCount: indexCount, instanceCount: instanceCount})
}

// triangle returns a one-triangle mesh offset along x.
func triangle(t *testing.T, x float32) *Mesh {
	t.Helper()
	up := mgl32.Vec3{0, 0, 1}
	m, err := New([]Vertex{
		{Position: mgl32.Vec3{x, 0, 0}, Normal: up},
		{Position: mgl32.Vec3{x + 1, 0, 0}, Normal: up},
		{Position: mgl32.Vec3{x, 1, 0}, Normal: up},
	}, []uint32{0, 1, 2}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m
}
