// Package resource aggregates meshes into named groups and owns their GPU
// buffers for the duration of a viewer session.
//
// Work is split into two phases per frame. Prepare uploads any group
// that has no GPU buffers yet (or whose buffers went stale); Paint only
// records draw calls against already uploaded buffers. Paint never
// allocates.
//
// Cache is not safe for concurrent use.
package resource

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/meshview/mesh"
)

var (
	// ErrUnknownGroup is returned when an operation names a group the
	// cache does not hold.
	ErrUnknownGroup = errors.New("resource: unknown group")

	// ErrInstanceRange is returned when an instance index is outside the
	// group's instance list.
	ErrInstanceRange = mesh.ErrInstanceRange
)

// Cache maps group names to meshes. Groups are iterated in the order they
// were first added.
type Cache struct {
	groups map[string]*mesh.Mesh
	order  []string
	bounds mgl32.Vec3

	// retired holds buffers that were replaced or removed. They are
	// destroyed at the start of the next Prepare, after the frame that
	// may still reference them.
	retired []*mesh.Buffers
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{groups: make(map[string]*mesh.Mesh)}
}

// Add inserts m under group, or merges its geometry into the mesh already
// stored there. The cache takes ownership of m when it is inserted. On a
// merge failure the stored group is left untouched and the error is
// returned.
func (c *Cache) Add(group string, m *mesh.Mesh) error {
	if m == nil {
		return mesh.ErrNilMesh
	}
	if existing, ok := c.groups[group]; ok {
		if err := existing.Merge(m); err != nil {
			return fmt.Errorf("add to group %q: %w", group, err)
		}
		slogger().Debug("resource: merged into group",
			"group", group, "vertices", len(existing.Vertices), "indices", len(existing.Indices))
	} else {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("add group %q: %w", group, err)
		}
		if m.Label == "" {
			m.Label = group
		}
		c.groups[group] = m
		c.order = append(c.order, group)
		slogger().Debug("resource: new group",
			"group", group, "vertices", len(m.Vertices), "indices", len(m.Indices))
	}
	c.recomputeBounds()
	return nil
}

// Set replaces whatever is stored under group with m.
func (c *Cache) Set(group string, m *mesh.Mesh) error {
	if m == nil {
		return mesh.ErrNilMesh
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("set group %q: %w", group, err)
	}
	c.Remove(group)
	return c.Add(group, m)
}

// Remove drops group and reports whether it existed.
func (c *Cache) Remove(group string) bool {
	m, ok := c.groups[group]
	if !ok {
		return false
	}
	c.retire(m)
	delete(c.groups, group)
	for i, name := range c.order {
		if name == group {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.recomputeBounds()
	return true
}

// Clear drops every group and resets the combined bounds to zero.
func (c *Cache) Clear() {
	for _, name := range c.order {
		c.retire(c.groups[name])
	}
	clear(c.groups)
	c.order = c.order[:0]
	c.bounds = mgl32.Vec3{}
}

// AddInstance appends a placement to group.
func (c *Cache) AddInstance(group string, t mesh.InstanceTransform) error {
	m, ok := c.groups[group]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}
	m.AppendInstance(t)
	return nil
}

// PatchInstance replaces instance index of group and writes just that
// slot into the uploaded instance buffer. Vertex and index buffers are not
// touched.
func (c *Cache) PatchInstance(queue hal.Queue, group string, index int, t mesh.InstanceTransform) error {
	m, ok := c.groups[group]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}
	if index < 0 || index >= len(m.Instances) {
		return fmt.Errorf("%w: group %q index %d of %d", ErrInstanceRange, group, index, len(m.Instances))
	}
	m.Instances[index] = t
	return m.WriteInstance(queue, index)
}

// Prepare destroys retired buffers and uploads every group that has no
// GPU buffers. A stale group has its buffers retired and is uploaded
// again. Groups with empty geometry are skipped. Calling Prepare twice
// without changes in between allocates nothing the second time.
func (c *Cache) Prepare(device mesh.Allocator, queue hal.Queue) error {
	c.destroyRetired(device)

	for _, name := range c.order {
		m := c.groups[name]
		if m.Stale() {
			slogger().Warn("resource: re-uploading stale group", "group", name)
			c.retire(m)
		}
		if m.Uploaded() || m.Empty() {
			continue
		}
		if err := m.Upload(device, queue); err != nil {
			return fmt.Errorf("upload group %q: %w", name, err)
		}
		slogger().Debug("resource: uploaded group",
			"group", name,
			"vertex_bytes", len(m.Vertices)*mesh.VertexSize,
			"index_bytes", len(m.Indices)*4,
			"instances", m.Buffers().InstanceCapacity())
	}
	return nil
}

// Paint records one indexed, instanced draw per drawable group, in
// insertion order, and returns the number of draw calls recorded. Groups
// with no buffers, no indices or no instances are skipped.
func (c *Cache) Paint(pass mesh.DrawPass) int {
	draws := 0
	for _, name := range c.order {
		if c.groups[name].Draw(pass) {
			draws++
		}
	}
	slogger().Debug("resource: paint", "groups", len(c.order), "draws", draws)
	return draws
}

// Release destroys every GPU buffer held by the cache. CPU geometry is
// kept, so a later Prepare uploads everything again.
func (c *Cache) Release(device mesh.Allocator) {
	for _, name := range c.order {
		c.retire(c.groups[name])
	}
	c.destroyRetired(device)
}

// Group returns the mesh stored under name.
func (c *Cache) Group(name string) (*mesh.Mesh, bool) {
	m, ok := c.groups[name]
	return m, ok
}

// Groups returns the group names in insertion order.
func (c *Cache) Groups() []string {
	return append([]string(nil), c.order...)
}

// Len returns the number of groups.
func (c *Cache) Len() int { return len(c.order) }

// First returns the earliest added group still in the cache.
func (c *Cache) First() (string, *mesh.Mesh, bool) {
	if len(c.order) == 0 {
		return "", nil, false
	}
	name := c.order[0]
	return name, c.groups[name], true
}

// CombinedBounds returns the per-axis maximum of every group's bounds.
func (c *Cache) CombinedBounds() mgl32.Vec3 { return c.bounds }

func (c *Cache) retire(m *mesh.Mesh) {
	if b := m.Detach(); b != nil {
		c.retired = append(c.retired, b)
	}
}

func (c *Cache) destroyRetired(device mesh.Allocator) {
	for _, b := range c.retired {
		b.Destroy(device)
	}
	if n := len(c.retired); n > 0 {
		slogger().Debug("resource: destroyed retired buffers", "count", n)
	}
	c.retired = c.retired[:0]
}

func (c *Cache) recomputeBounds() {
	var b mgl32.Vec3
	for _, name := range c.order {
		gb := c.groups[name].Bounds
		for axis := 0; axis < 3; axis++ {
			b[axis] = max(b[axis], gb[axis])
		}
	}
	c.bounds = b
}
