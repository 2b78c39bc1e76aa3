package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// InstanceSize is the byte stride of one instance in the instance buffer.
// Layout per instance:
//
//	model  (mat4x4<f32>) = 64 bytes (locations 2..5, one vec4 column each)
//	normal (mat3x3<f32>) = 36 bytes (locations 6..8, one vec3 column each)
//
// Total = 100 bytes per instance.
const InstanceSize = 100

// InstanceTransform is one placement of a mesh: position, rotation and a
// uniform scale.
type InstanceTransform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    float32
}

// DefaultInstance returns the identity placement: origin, no rotation,
// scale 1.
func DefaultInstance() InstanceTransform {
	return InstanceTransform{
		Rotation: mgl32.QuatIdent(),
		Scale:    1,
	}
}

// InstanceRaw is the GPU form of an InstanceTransform. Both matrices are
// column-major.
type InstanceRaw struct {
	Model  mgl32.Mat4
	Normal mgl32.Mat3
}

// ToRaw converts t to its GPU layout. The model matrix is
// translation * rotation * scale; the normal matrix is the rotation alone,
// which is sufficient because the scale is uniform.
func (t InstanceTransform) ToRaw() InstanceRaw {
	rot := t.Rotation.Mat4()
	model := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(rot).
		Mul4(mgl32.Scale3D(t.Scale, t.Scale, t.Scale))
	return InstanceRaw{
		Model:  model,
		Normal: rot.Mat3(),
	}
}

// Bytes returns the 100-byte little-endian encoding of r.
func (r InstanceRaw) Bytes() []byte {
	return r.appendBytes(make([]byte, 0, InstanceSize))
}

func (r InstanceRaw) appendBytes(buf []byte) []byte {
	buf = appendFloats(buf, r.Model[:])
	return appendFloats(buf, r.Normal[:])
}

func encodeInstances(instances []InstanceTransform, capacity int) []byte {
	buf := make([]byte, 0, capacity*InstanceSize)
	for i := range instances {
		buf = instances[i].ToRaw().appendBytes(buf)
	}
	// Pad unused slots so the upload covers the whole buffer.
	return buf[:capacity*InstanceSize]
}
