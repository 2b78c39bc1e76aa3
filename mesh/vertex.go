package mesh

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// VertexSize is the byte stride of one vertex in the vertex buffer.
// Layout per vertex:
//
//	position (vec3<f32>) = 12 bytes (location 0)
//	normal   (vec3<f32>) = 12 bytes (location 1)
//
// Total = 24 bytes per vertex.
const VertexSize = 24

// Vertex is a single mesh vertex. Only geometry is carried: no texture
// coordinates, no colors, no skinning weights.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
}

// encodeVertices packs vertices into the little-endian layout described
// by VertexSize.
func encodeVertices(vertices []Vertex) []byte {
	buf := make([]byte, 0, len(vertices)*VertexSize)
	for i := range vertices {
		buf = appendVec3(buf, vertices[i].Position)
		buf = appendVec3(buf, vertices[i].Normal)
	}
	return buf
}

func encodeIndices(indices []uint32) []byte {
	buf := make([]byte, 0, len(indices)*4)
	for _, idx := range indices {
		buf = binary.LittleEndian.AppendUint32(buf, idx)
	}
	return buf
}

func appendVec3(buf []byte, v mgl32.Vec3) []byte {
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func appendFloats(buf []byte, fs []float32) []byte {
	for _, f := range fs {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}
