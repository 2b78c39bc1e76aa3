// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraUniformSize is the byte size of CameraUniform on the GPU:
//
//	position  (vec4<f32>)     = 16 bytes
//	view_proj (mat4x4<f32>)   = 64 bytes
const CameraUniformSize = 80

// Camera is a right-handed perspective camera.
type Camera struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3

	// Aspect is width / height of the target.
	Aspect float32
	// FovY is the vertical field of view in degrees.
	FovY  float32
	ZNear float32
	ZFar  float32
}

// DefaultCamera returns the startup camera: eye (0, 5, 10) looking at the
// origin with +Z up, 60 degree field of view and a far plane far enough
// for large survey models.
func DefaultCamera() Camera {
	return Camera{
		Eye:    mgl32.Vec3{0, 5, 10},
		Target: mgl32.Vec3{0, 0, 0},
		Up:     mgl32.Vec3{0, 0, 1},
		Aspect: 1,
		FovY:   60,
		ZNear:  1,
		ZFar:   100000,
	}
}

// View returns the right-handed look-at matrix.
func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Target, c.Up)
}

// Projection returns the right-handed perspective matrix mapping depth to
// [0, 1].
func (c Camera) Projection() mgl32.Mat4 {
	return PerspectiveZO(mgl32.DegToRad(c.FovY), c.Aspect, c.ZNear, c.ZFar)
}

// ViewProj returns Projection * View.
func (c Camera) ViewProj() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}

// Uniform converts c to its GPU form.
func (c Camera) Uniform() CameraUniform {
	return CameraUniform{
		Position: [4]float32{c.Eye.X(), c.Eye.Y(), c.Eye.Z(), 1},
		ViewProj: c.ViewProj(),
	}
}

// CameraUniform is the camera as seen by the shader.
type CameraUniform struct {
	Position [4]float32
	ViewProj [16]float32 // column-major
}

// Bytes returns the little-endian encoding of u.
func (u CameraUniform) Bytes() []byte {
	buf := make([]byte, 0, CameraUniformSize)
	buf = appendFloats(buf, u.Position[:])
	return appendFloats(buf, u.ViewProj[:])
}

// PerspectiveZO returns a right-handed perspective projection with depth
// in [0, 1], the clip space used by WebGPU and Vulkan. fovy is in radians.
// mgl32.Perspective targets OpenGL's [-1, 1] depth range and cannot be used
// here.
func PerspectiveZO(fovy, aspect, near, far float32) mgl32.Mat4 {
	f := float32(1 / math.Tan(float64(fovy)/2))
	r := far / (near - far)
	return mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, r, -1,
		0, 0, r * near, 0,
	}
}
