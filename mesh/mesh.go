// Package mesh holds CPU-side mesh geometry and its lazily created GPU
// buffers.
//
// A Mesh owns three arrays (vertices, u32 indices, instances) plus a
// per-axis half extent around the origin. GPU buffers are created by
// Upload the first time a mesh is about to be drawn and are then reused
// for every frame. Geometry merged into a mesh after upload marks it
// stale; the owner is expected to Detach the old buffers and upload again.
//
// Mesh is not safe for concurrent use.
package mesh

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrIndexOutOfRange is returned when an index references a vertex
	// that does not exist.
	ErrIndexOutOfRange = errors.New("mesh: index out of range")

	// ErrInstanceRange is returned when an instance slot does not exist.
	ErrInstanceRange = errors.New("mesh: instance index out of range")

	// ErrNilMesh is returned when a nil mesh is passed where geometry is
	// required.
	ErrNilMesh = errors.New("mesh: nil mesh")
)

// Mesh is an indexed triangle list with any number of instances.
type Mesh struct {
	// Label names the mesh in GPU debug tooling. Optional.
	Label string

	Vertices  []Vertex
	Indices   []uint32
	Instances []InstanceTransform

	// Bounds is the per-axis maximum of |position| over all vertices: a
	// half extent around the origin, not a min/max box. Meshes are assumed
	// to be roughly centered.
	Bounds mgl32.Vec3

	buffers *Buffers
	stale   bool
}

// New builds a mesh from vertices and indices, computing its bounds.
// A nil instances slice defaults to a single DefaultInstance; an empty
// non-nil slice is kept as is and the mesh is never drawn.
func New(vertices []Vertex, indices []uint32, instances []InstanceTransform) (*Mesh, error) {
	if err := validateIndices(indices, len(vertices)); err != nil {
		return nil, err
	}
	if instances == nil {
		instances = []InstanceTransform{DefaultInstance()}
	}
	return &Mesh{
		Vertices:  vertices,
		Indices:   indices,
		Instances: instances,
		Bounds:    ComputeBounds(vertices),
	}, nil
}

// ComputeBounds returns the per-axis maximum absolute coordinate over
// vertices, or the zero vector when there are none.
func ComputeBounds(vertices []Vertex) mgl32.Vec3 {
	var b mgl32.Vec3
	for i := range vertices {
		p := vertices[i].Position
		for axis := 0; axis < 3; axis++ {
			b[axis] = max(b[axis], abs32(p[axis]))
		}
	}
	return b
}

// Validate checks that every index references an existing vertex.
func (m *Mesh) Validate() error {
	return validateIndices(m.Indices, len(m.Vertices))
}

// Empty reports whether m has nothing to draw.
func (m *Mesh) Empty() bool {
	return len(m.Vertices) == 0 || len(m.Indices) == 0
}

// Merge appends other's geometry to m. Indices of other are re-based by
// the current vertex count of m so the combined index list stays valid,
// and Bounds becomes the per-axis maximum of both meshes.
//
// Only geometry is merged: m keeps its own instances and other's instances
// and GPU buffers are ignored. If other carries an index that does not
// reference one of its own vertices, Merge fails with ErrIndexOutOfRange
// and m is left untouched.
//
// Merging into a mesh that was already uploaded marks it stale.
func (m *Mesh) Merge(other *Mesh) error {
	if other == nil {
		return ErrNilMesh
	}
	if err := other.Validate(); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	base := uint32(len(m.Vertices)) //nolint:gosec // vertex count fits uint32 by index invariant

	m.Vertices = append(m.Vertices, other.Vertices...)
	m.Indices = slices.Grow(m.Indices, len(other.Indices))
	for _, idx := range other.Indices {
		m.Indices = append(m.Indices, idx+base)
	}

	for axis := 0; axis < 3; axis++ {
		m.Bounds[axis] = max(m.Bounds[axis], other.Bounds[axis])
	}

	if m.buffers != nil && len(other.Vertices) > 0 {
		m.stale = true
	}
	return nil
}

// AppendInstance adds one placement. An uploaded mesh is marked stale,
// since the new transform is not in its instance buffer yet.
func (m *Mesh) AppendInstance(t InstanceTransform) {
	m.Instances = append(m.Instances, t)
	if m.buffers != nil && len(m.Instances) > m.buffers.instanceCount {
		m.stale = true
	}
}

// Stale reports whether the uploaded buffers no longer match the CPU
// geometry.
func (m *Mesh) Stale() bool { return m.stale }

func validateIndices(indices []uint32, vertexCount int) error {
	for i, idx := range indices {
		if int(idx) >= vertexCount {
			return fmt.Errorf("%w: index %d at position %d, %d vertices", ErrIndexOutOfRange, idx, i, vertexCount)
		}
	}
	return nil
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
