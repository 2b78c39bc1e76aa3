package resource

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

type countingAllocator struct {
	device    hal.Device
	created   int
	destroyed int
}

func (a *countingAllocator) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	a.created++
	return a.device.CreateBuffer(desc)
}

func (a *countingAllocator) DestroyBuffer(buffer hal.Buffer) {
	a.destroyed++
	a.device.DestroyBuffer(buffer)
}

// newAllocator returns a counting allocator over a noop device, plus the
// device queue.
func newAllocator(t *testing.T) (*countingAllocator, hal.Queue) {
	t.Helper()
	device, queue := createNoopDevice(t)
	return &countingAllocator{device: device}, queue
}

type bufferWrite struct {
	buffer hal.Buffer
	offset uint64
	data   []byte
}

// recordingQueue forwards to a real queue and keeps a copy of every
// buffer write.
type recordingQueue struct {
	hal.Queue
	writes []bufferWrite
}

func (q *recordingQueue) WriteBuffer(buffer hal.Buffer, offset uint64, data []byte) error {
	q.writes = append(q.writes, bufferWrite{buffer: buffer, offset: offset, data: append([]byte(nil), data...)})
	return q.Queue.WriteBuffer(buffer, offset, data)
}

// lastWrite returns the most recent write to buffer at offset.
func (q *recordingQueue) lastWrite(buffer hal.Buffer, offset uint64) ([]byte, bool) {
	for i := len(q.writes) - 1; i >= 0; i-- {
		w := q.writes[i]
		if w.buffer == buffer && w.offset == offset {
			return w.data, true
		}
	}
	return nil, false
}

type drawCall struct {
	indexCount    uint32
	instanceCount uint32
}

type recordingPass struct {
	draws []drawCall
}

func (p *recordingPass) SetVertexBuffer(uint32, hal.Buffer, uint64)              {}
func (p *recordingPass) SetIndexBuffer(hal.Buffer, gputypes.IndexFormat, uint64) {}
func (p *recordingPass) DrawIndexed(indexCount, instanceCount, _ uint32, _ int32, _ uint32) {
	p.draws = append(p.draws, drawCall{indexCount: indexCount, instanceCount: instanceCount})
}

// triangle returns a one-triangle mesh scaled by s.
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
