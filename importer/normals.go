package importer

import "github.com/go-gl/mathgl/mgl32"

// computeNormals returns area-weighted vertex normals for an indexed
// triangle list. Vertices not referenced by any triangle get +Z.
func computeNormals(positions [][3]float32, indices []uint32) [][3]float32 {
	acc := make([]mgl32.Vec3, len(positions))
	n := uint32(len(positions)) //nolint:gosec // vertex count fits uint32
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if a >= n || b >= n || c >= n {
			continue
		}
		pa := mgl32.Vec3(positions[a])
		// The cross product length is twice the triangle area, so larger
		// faces weigh more.
		face := mgl32.Vec3(positions[b]).Sub(pa).Cross(mgl32.Vec3(positions[c]).Sub(pa))
		acc[a] = acc[a].Add(face)
		acc[b] = acc[b].Add(face)
		acc[c] = acc[c].Add(face)
	}

	out := make([][3]float32, len(positions))
	for i, v := range acc {
		if v.Len() == 0 {
			out[i] = [3]float32{0, 0, 1}
			continue
		}
		out[i] = [3]float32(v.Normalize())
	}
	return out
}
