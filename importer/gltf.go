package importer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ErrNoPosition is returned for a triangle primitive without a POSITION
// attribute.
var ErrNoPosition = errors.New("importer: primitive has no POSITION attribute")

// GLTF imports glTF 2.0 assets, both JSON (.gltf with embedded buffers)
// and binary (.glb). Every triangle-list primitive of every mesh is
// flattened into one Geometry in mesh-local space; node transforms are not
// applied. glTF has no level-of-detail ladder, so lod is ignored.
type GLTF struct{}

// Import implements Source.
func (GLTF) Import(data []byte, _ float32) (Geometry, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return Geometry{}, fmt.Errorf("decode gltf: %w", err)
	}
	return geometryFromDocument(doc)
}

func geometryFromDocument(doc *gltf.Document) (Geometry, error) {
	var g Geometry
	// Normals are kept only when every primitive supplies them; otherwise
	// they are computed for the whole geometry.
	haveNormals := true

	for mi, m := range doc.Meshes {
		for pi, prim := range m.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			part, err := readPrimitive(doc, prim)
			if err != nil {
				return Geometry{}, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			base := uint32(len(g.Positions)) //nolint:gosec // vertex count fits uint32
			g.Positions = append(g.Positions, part.Positions...)
			if len(part.Normals) == 0 {
				haveNormals = false
			}
			if haveNormals {
				g.Normals = append(g.Normals, part.Normals...)
			}
			for _, idx := range part.Indices {
				g.Indices = append(g.Indices, idx+base)
			}
		}
	}
	if !haveNormals {
		g.Normals = nil
	}
	return g, nil
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) (Geometry, error) {
	var part Geometry

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return part, ErrNoPosition
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return part, fmt.Errorf("read positions: %w", err)
	}
	part.Positions = positions

	if nIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[nIdx], nil)
		if err != nil {
			return part, fmt.Errorf("read normals: %w", err)
		}
		if len(normals) == len(positions) {
			part.Normals = normals
		}
	}

	if prim.Indices != nil {
		indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return part, fmt.Errorf("read indices: %w", err)
		}
		part.Indices = indices
		return part, nil
	}

	// Non-indexed primitives draw vertices in order.
	part.Indices = make([]uint32, len(positions))
	for i := range part.Indices {
		part.Indices[i] = uint32(i) //nolint:gosec // vertex count fits uint32
	}
	return part, nil
}
