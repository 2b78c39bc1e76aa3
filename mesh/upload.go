package mesh

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Allocator creates and releases GPU buffers. hal.Device satisfies it.
type Allocator interface {
	CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error)
	DestroyBuffer(buffer hal.Buffer)
}

// DrawPass is the subset of a render pass encoder needed to draw a mesh.
// hal.RenderPassEncoder satisfies it.
type DrawPass interface {
	SetVertexBuffer(slot uint32, buffer hal.Buffer, offset uint64)
	SetIndexBuffer(buffer hal.Buffer, format gputypes.IndexFormat, offset uint64)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

// Buffers is the GPU triple backing one uploaded mesh.
type Buffers struct {
	Vertex   hal.Buffer
	Index    hal.Buffer
	Instance hal.Buffer

	// Counts as of the upload. Draw uses these, never the live CPU
	// slices, so a draw cannot reach past the uploaded data.
	indexCount    int
	instanceCount int
	instanceCap   int
}

// InstanceCapacity returns the number of instance slots in the instance
// buffer.
func (b *Buffers) InstanceCapacity() int { return b.instanceCap }

// IndexCount returns the number of indices in the index buffer.
func (b *Buffers) IndexCount() int { return b.indexCount }

// InstanceCount returns the number of instance slots holding uploaded
// transforms. Slots past it are zero.
func (b *Buffers) InstanceCount() int { return b.instanceCount }

// Destroy releases all three buffers. Safe on a nil receiver and safe to
// call more than once.
func (b *Buffers) Destroy(device Allocator) {
	if b == nil || device == nil {
		return
	}
	if b.Instance != nil {
		device.DestroyBuffer(b.Instance)
		b.Instance = nil
	}
	if b.Index != nil {
		device.DestroyBuffer(b.Index)
		b.Index = nil
	}
	if b.Vertex != nil {
		device.DestroyBuffer(b.Vertex)
		b.Vertex = nil
	}
}

// Buffers returns the uploaded GPU buffers, or nil before the first
// Upload.
func (m *Mesh) Buffers() *Buffers { return m.buffers }

// Uploaded reports whether m has GPU buffers.
func (m *Mesh) Uploaded() bool { return m.buffers != nil }

// Upload creates the vertex, index and instance buffers and fills them
// through queue. The instance buffer always has at least one slot so a
// mesh with no instances can still be uploaded and later patched.
//
// Upload is a no-op when m already has buffers or has nothing to draw.
func (m *Mesh) Upload(device Allocator, queue hal.Queue) error {
	if m.buffers != nil || m.Empty() {
		return nil
	}

	b := &Buffers{
		indexCount:    len(m.Indices),
		instanceCount: len(m.Instances),
		instanceCap:   max(len(m.Instances), 1),
	}
	var err error

	b.Vertex, err = createBufferWithData(device, queue, m.label("vertex"),
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst, encodeVertices(m.Vertices))
	if err != nil {
		return err
	}
	b.Index, err = createBufferWithData(device, queue, m.label("index"),
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst, encodeIndices(m.Indices))
	if err != nil {
		b.Destroy(device)
		return err
	}
	b.Instance, err = createBufferWithData(device, queue, m.label("instance"),
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst, encodeInstances(m.Instances, b.instanceCap))
	if err != nil {
		b.Destroy(device)
		return err
	}

	m.buffers = b
	m.stale = false
	return nil
}

// Detach removes the GPU buffers from m without destroying them and
// clears the stale flag. The caller owns the returned buffers.
func (m *Mesh) Detach() *Buffers {
	b := m.buffers
	m.buffers = nil
	m.stale = false
	return b
}

// WriteInstance overwrites a single instance slot of the uploaded instance
// buffer with the current value of m.Instances[index]. Geometry buffers
// are not touched. Without buffers, or for a slot the next upload will
// fill, it only validates index.
func (m *Mesh) WriteInstance(queue hal.Queue, index int) error {
	if index < 0 || index >= len(m.Instances) {
		return fmt.Errorf("%w: %d of %d", ErrInstanceRange, index, len(m.Instances))
	}
	if m.buffers == nil || index >= m.buffers.instanceCount {
		return nil
	}
	offset := uint64(index) * InstanceSize //nolint:gosec // index checked non-negative above
	if err := queue.WriteBuffer(m.buffers.Instance, offset, m.Instances[index].ToRaw().Bytes()); err != nil {
		return fmt.Errorf("write %s slot %d: %w", m.label("instance"), index, err)
	}
	return nil
}

// Draw records one indexed, instanced draw covering every uploaded index
// and instance. It reports whether a draw call was recorded: meshes
// without buffers, indices or instances are skipped.
//
// A stale mesh keeps drawing what was last uploaded until the next
// Upload.
func (m *Mesh) Draw(pass DrawPass) bool {
	b := m.buffers
	if b == nil {
		return false
	}
	instances := min(len(m.Instances), b.instanceCount)
	if b.indexCount == 0 || instances == 0 {
		return false
	}
	pass.SetVertexBuffer(0, b.Vertex, 0)
	pass.SetVertexBuffer(1, b.Instance, 0)
	pass.SetIndexBuffer(b.Index, gputypes.IndexFormatUint32, 0)
	pass.DrawIndexed(uint32(b.indexCount), uint32(instances), 0, 0, 0) //nolint:gosec // counts fit uint32
	return true
}

func (m *Mesh) label(kind string) string {
	if m.Label == "" {
		return "mesh_" + kind
	}
	return m.Label + "_" + kind
}

// createBufferWithData allocates a buffer sized to data and uploads data
// through the queue.
func createBufferWithData(device Allocator, queue hal.Queue, label string, usage gputypes.BufferUsage, data []byte) (hal.Buffer, error) {
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if err := queue.WriteBuffer(buf, 0, data); err != nil {
		device.DestroyBuffer(buf)
		return nil, fmt.Errorf("write %s: %w", label, err)
	}
	return buf, nil
}
