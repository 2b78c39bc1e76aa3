// Package importer turns geometry produced by an external scene importer
// into mesh.Mesh values.
//
// The importer itself is an interface (Source); this package only adapts
// its flat position, normal and index arrays. A glTF 2.0 source is
// provided for .gltf and .glb files.
package importer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/meshview/mesh"
)

// ErrAttributeMismatch is returned when a Geometry carries a normal array
// whose length differs from its position array.
var ErrAttributeMismatch = errors.New("importer: normal count does not match position count")

// ErrIndexOutOfRange is the mesh package sentinel, re-exported so callers
// of this package can match it without importing mesh.
var ErrIndexOutOfRange = mesh.ErrIndexOutOfRange

// Geometry is the flattened output of a scene importer.
type Geometry struct {
	Positions [][3]float32
	// Normals is either empty or exactly as long as Positions.
	Normals [][3]float32
	Indices []uint32
}

// Source parses asset bytes into geometry. lod is forwarded untouched;
// sources without a level-of-detail ladder ignore it.
type Source interface {
	Import(data []byte, lod float32) (Geometry, error)
}

// Load imports data through src and builds a mesh from the result.
func Load(src Source, data []byte, lod float32, instances []mesh.InstanceTransform) (*mesh.Mesh, error) {
	g, err := src.Import(data, lod)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	return NewMesh(g, instances)
}

// NewMesh builds a mesh from g. Geometry without vertices yields an empty
// mesh with zero bounds. When g has no normals, smooth vertex normals are
// computed from the triangles. A nil instances slice defaults to a single
// identity instance.
func NewMesh(g Geometry, instances []mesh.InstanceTransform) (*mesh.Mesh, error) {
	if len(g.Normals) != 0 && len(g.Normals) != len(g.Positions) {
		return nil, fmt.Errorf("%w: %d normals, %d positions", ErrAttributeMismatch, len(g.Normals), len(g.Positions))
	}

	normals := g.Normals
	if len(normals) == 0 && len(g.Positions) > 0 {
		// Indices are validated by mesh.New below; computeNormals skips
		// out-of-range triangles so it never panics first.
		normals = computeNormals(g.Positions, g.Indices)
	}

	vertices := make([]mesh.Vertex, len(g.Positions))
	for i, p := range g.Positions {
		vertices[i] = mesh.Vertex{
			Position: mgl32.Vec3(p),
			Normal:   mgl32.Vec3(normals[i]),
		}
	}

	return mesh.New(vertices, g.Indices, instances)
}
