package resource

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/meshview/mesh"
)

func TestAddTwiceMerges(t *testing.T) {
	c := New()
	if err := c.Add("model", triangle(t, 1)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := c.Add("model", triangle(t, 2)); err != nil {
		t.Fatalf("second Add failed: %v", err)
	}

	if c.Len() != 1 {
		t.Fatalf("groups = %d, want 1", c.Len())
	}
	m, _ := c.Group("model")
	if len(m.Vertices) != 6 || len(m.Indices) != 6 {
		t.Errorf("merged mesh has %d vertices, %d indices; want 6, 6", len(m.Vertices), len(m.Indices))
	}
	for i, want := range []uint32{0, 1, 2, 3, 4, 5} {
		if m.Indices[i] != want {
			t.Errorf("indices[%d] = %d, want %d", i, m.Indices[i], want)
		}
	}
	if len(m.Instances) != 1 {
		t.Errorf("instances = %d, want 1", len(m.Instances))
	}
	if c.CombinedBounds() != (mgl32.Vec3{2, 2, 0}) {
		t.Errorf("CombinedBounds = %v, want (2, 2, 0)", c.CombinedBounds())
	}
}

func TestAddTwiceMatchesSingleMerge(t *testing.T) {
	c := New()
	if err := c.Add("model", triangle(t, 1)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := c.Add("model", triangle(t, 3)); err != nil {
		t.Fatalf("second Add failed: %v", err)
	}
	got, _ := c.Group("model")

	want := triangle(t, 1)
	if err := want.Merge(triangle(t, 3)); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if !slices.Equal(got.Vertices, want.Vertices) {
		t.Errorf("vertices = %v, want %v", got.Vertices, want.Vertices)
	}
	if !slices.Equal(got.Indices, want.Indices) {
		t.Errorf("indices = %v, want %v", got.Indices, want.Indices)
	}
	if !slices.Equal(got.Instances, want.Instances) {
		t.Errorf("instances = %v, want %v", got.Instances, want.Instances)
	}
	if got.Bounds != want.Bounds {
		t.Errorf("bounds = %v, want %v", got.Bounds, want.Bounds)
	}
	if c.CombinedBounds() != want.Bounds {
		t.Errorf("CombinedBounds = %v, want %v", c.CombinedBounds(), want.Bounds)
	}
}

func TestAddRejectsCorruptMesh(t *testing.T) {
	c := New()
	if err := c.Add("model", triangle(t, 1)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	bad := triangle(t, 5)
	bad.Indices[2] = 42

	if err := c.Add("model", bad); !errors.Is(err, mesh.ErrIndexOutOfRange) {
		t.Fatalf("err = %v, want ErrIndexOutOfRange", err)
	}
	m, _ := c.Group("model")
	if len(m.Vertices) != 3 {
		t.Errorf("group mutated by failed merge: %d vertices", len(m.Vertices))
	}
	if c.CombinedBounds() != (mgl32.Vec3{1, 1, 0}) {
		t.Errorf("CombinedBounds = %v, want (1, 1, 0)", c.CombinedBounds())
	}

	if err := c.Add("other", bad); !errors.Is(err, mesh.ErrIndexOutOfRange) {
		t.Errorf("new group err = %v, want ErrIndexOutOfRange", err)
	}
	if c.Len() != 1 {
		t.Errorf("groups = %d, want 1", c.Len())
	}
}

func TestSetShrinksBounds(t *testing.T) {
	c := New()
	_ = c.Add("model", triangle(t, 10))
	_ = c.Add("gizmo", triangle(t, 1))

	if err := c.Set("model", triangle(t, 2)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if c.CombinedBounds() != (mgl32.Vec3{2, 2, 0}) {
		t.Errorf("CombinedBounds = %v, want (2, 2, 0)", c.CombinedBounds())
	}
	m, _ := c.Group("model")
	if len(m.Vertices) != 3 {
		t.Errorf("Set should replace, got %d vertices", len(m.Vertices))
	}
}

func TestClear(t *testing.T) {
	alloc, queue := newAllocator(t)
	c := New()
	_ = c.Add("a", triangle(t, 1))
	_ = c.Add("b", triangle(t, 3))
	if err := c.Prepare(alloc, queue); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	c.Clear()
	if c.Len() != 0 || c.CombinedBounds() != (mgl32.Vec3{}) {
		t.Errorf("after Clear: len=%d bounds=%v", c.Len(), c.CombinedBounds())
	}
	pass := &recordingPass{}
	if n := c.Paint(pass); n != 0 {
		t.Errorf("Paint after Clear drew %d", n)
	}

	// Buffers of cleared groups are released on the next Prepare.
	if err := c.Prepare(alloc, queue); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if alloc.destroyed != 6 {
		t.Errorf("destroyed = %d, want 6", alloc.destroyed)
	}
}

func TestPrepareIsIdempotent(t *testing.T) {
	alloc, queue := newAllocator(t)
	c := New()
	_ = c.Add("a", triangle(t, 1))
	_ = c.Add("b", triangle(t, 2))

	if err := c.Prepare(alloc, queue); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if alloc.created != 6 {
		t.Fatalf("created = %d, want 6", alloc.created)
	}
	if err := c.Prepare(alloc, queue); err != nil {
		t.Fatalf("second Prepare failed: %v", err)
	}
	if alloc.created != 6 {
		t.Errorf("second Prepare allocated: created = %d", alloc.created)
	}
	c.Release(alloc)
	if alloc.destroyed != 6 {
		t.Errorf("Release destroyed %d, want 6", alloc.destroyed)
	}
}

func TestPrepareSkipsEmptyGeometry(t *testing.T) {
	alloc, queue := newAllocator(t)
	c := New()
	empty, _ := mesh.New(nil, nil, nil)
	_ = c.Add("empty", empty)

	if err := c.Prepare(alloc, queue); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if alloc.created != 0 {
		t.Errorf("empty group allocated %d buffers", alloc.created)
	}
	if n := c.Paint(&recordingPass{}); n != 0 {
		t.Errorf("empty group drew %d", n)
	}
}

func TestPaintSkipsZeroInstances(t *testing.T) {
	alloc, queue := newAllocator(t)
	c := New()
	none, _ := mesh.New(triangle(t, 1).Vertices, []uint32{0, 1, 2}, []mesh.InstanceTransform{})
	_ = c.Add("none", none)
	_ = c.Add("one", triangle(t, 1))
	t.Cleanup(func() { c.Release(alloc) })

	if err := c.Prepare(alloc, queue); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	pass := &recordingPass{}
	if n := c.Paint(pass); n != 1 {
		t.Fatalf("draws = %d, want 1", n)
	}
	if pass.draws[0].indexCount != 3 || pass.draws[0].instanceCount != 1 {
		t.Errorf("draw = %+v, want 3 indices x 1 instance", pass.draws[0])
	}
}

func TestPaintBeforePrepareDrawsNothing(t *testing.T) {
	c := New()
	_ = c.Add("a", triangle(t, 1))
	if n := c.Paint(&recordingPass{}); n != 0 {
		t.Errorf("draws = %d, want 0", n)
	}
}

func TestStaleGroupReuploads(t *testing.T) {
	alloc, queue := newAllocator(t)
	c := New()
	_ = c.Add("a", triangle(t, 1))
	t.Cleanup(func() { c.Release(alloc) })
	if err := c.Prepare(alloc, queue); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	_ = c.Add("a", triangle(t, 2))
	if err := c.Prepare(alloc, queue); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if alloc.created != 6 {
		t.Errorf("created = %d, want 6 after re-upload", alloc.created)
	}
	// Old buffers are retired, not destroyed, until the next Prepare.
	if alloc.destroyed != 0 {
		t.Errorf("destroyed = %d, want 0", alloc.destroyed)
	}

	pass := &recordingPass{}
	c.Paint(pass)
	if len(pass.draws) != 1 || pass.draws[0].indexCount != 6 {
		t.Errorf("draws = %+v, want one draw of 6 indices", pass.draws)
	}

	if err := c.Prepare(alloc, queue); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if alloc.destroyed != 3 {
		t.Errorf("destroyed = %d, want 3", alloc.destroyed)
	}
}

func TestAddInstance(t *testing.T) {
	alloc, queue := newAllocator(t)
	c := New()
	_ = c.Add("a", triangle(t, 1))
	t.Cleanup(func() { c.Release(alloc) })
	_ = c.Prepare(alloc, queue)

	inst := mesh.DefaultInstance()
	inst.Position = mgl32.Vec3{4, 0, 0}
	if err := c.AddInstance("a", inst); err != nil {
		t.Fatalf("AddInstance failed: %v", err)
	}
	if err := c.Prepare(alloc, queue); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	pass := &recordingPass{}
	c.Paint(pass)
	if len(pass.draws) != 1 || pass.draws[0].instanceCount != 2 {
		t.Errorf("draws = %+v, want one draw of 2 instances", pass.draws)
	}

	if err := c.AddInstance("missing", inst); !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("err = %v, want ErrUnknownGroup", err)
	}
}

func TestPatchInstance(t *testing.T) {
	alloc, queue := newAllocator(t)
	c := New()
	_ = c.Add("a", triangle(t, 1))
	t.Cleanup(func() { c.Release(alloc) })
	_ = c.Prepare(alloc, queue)
	created := alloc.created

	rot := mesh.DefaultInstance()
	rot.Rotation = mgl32.QuatRotate(1, mgl32.Vec3{0, 0, 1})
	if err := c.PatchInstance(queue, "a", 0, rot); err != nil {
		t.Fatalf("PatchInstance failed: %v", err)
	}
	m, _ := c.Group("a")
	if m.Instances[0] != rot {
		t.Errorf("instance not updated: %+v", m.Instances[0])
	}
	if alloc.created != created {
		t.Errorf("PatchInstance allocated buffers")
	}

	if err := c.PatchInstance(queue, "a", 1, rot); !errors.Is(err, ErrInstanceRange) {
		t.Errorf("err = %v, want ErrInstanceRange", err)
	}
	if err := c.PatchInstance(queue, "b", 0, rot); !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("err = %v, want ErrUnknownGroup", err)
	}
}

func TestGroupOrder(t *testing.T) {
	c := New()
	for _, name := range []string{"c", "a", "b"} {
		_ = c.Add(name, triangle(t, 1))
	}
	name, _, ok := c.First()
	if !ok || name != "c" {
		t.Errorf("First = %q, %v; want c", name, ok)
	}

	if !c.Remove("c") {
		t.Fatal("Remove(c) = false")
	}
	if c.Remove("c") {
		t.Error("second Remove(c) = true")
	}
	got := c.Groups()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Groups = %v, want [a b]", got)
	}
}

func TestAddNil(t *testing.T) {
	c := New()
	if err := c.Add("a", nil); !errors.Is(err, mesh.ErrNilMesh) {
		t.Errorf("err = %v, want ErrNilMesh", err)
	}
	if err := c.Set("a", nil); !errors.Is(err, mesh.ErrNilMesh) {
		t.Errorf("err = %v, want ErrNilMesh", err)
	}
}

func TestAddInstanceAfterEmptyUpload(t *testing.T) {
	alloc, q := newAllocator(t)
	queue := &recordingQueue{Queue: q}
	c := New()
	none, _ := mesh.New(triangle(t, 1).Vertices, []uint32{0, 1, 2}, []mesh.InstanceTransform{})
	_ = c.Add("a", none)
	t.Cleanup(func() { c.Release(alloc) })
	if err := c.Prepare(alloc, queue); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	if err := c.AddInstance("a", mesh.DefaultInstance()); err != nil {
		t.Fatalf("AddInstance failed: %v", err)
	}
	if err := c.Prepare(alloc, queue); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	pass := &recordingPass{}
	if n := c.Paint(pass); n != 1 || pass.draws[0].instanceCount != 1 {
		t.Fatalf("draws = %+v, want one draw of 1 instance", pass.draws)
	}
	m, _ := c.Group("a")
	slot, ok := queue.lastWrite(m.Buffers().Instance, 0)
	if !ok {
		t.Fatal("instance slot 0 was never written")
	}
	if want := mesh.DefaultInstance().ToRaw().Bytes(); !bytes.Equal(slot[:mesh.InstanceSize], want) {
		t.Errorf("instance slot 0 = % x, want % x", slot[:16], want[:16])
	}
}

func TestPaintBetweenMergeAndPrepare(t *testing.T) {
	alloc, queue := newAllocator(t)
	c := New()
	_ = c.Add("a", triangle(t, 1))
	t.Cleanup(func() { c.Release(alloc) })
	if err := c.Prepare(alloc, queue); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	_ = c.Add("a", triangle(t, 2))
	pass := &recordingPass{}
	c.Paint(pass)
	if len(pass.draws) != 1 || pass.draws[0].indexCount != 3 {
		t.Fatalf("draws = %+v, want one draw of the 3 uploaded indices", pass.draws)
	}

	if err := c.Prepare(alloc, queue); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	pass = &recordingPass{}
	c.Paint(pass)
	if len(pass.draws) != 1 || pass.draws[0].indexCount != 6 {
		t.Errorf("draws = %+v, want one draw of 6 indices", pass.draws)
	}
}
