// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// LightUniformSize is the byte size of LightUniform on the GPU. Each vec3
// is padded to 16 bytes:
//
//	position (vec3<f32>) + pad = 16 bytes
//	color    (vec3<f32>) + pad = 16 bytes
const LightUniformSize = 32

// Light is a single point light.
type Light struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
}

// DefaultLight returns a white light at (5, 0, 10).
func DefaultLight() Light {
	return Light{
		Position: mgl32.Vec3{5, 0, 10},
		Color:    mgl32.Vec3{1, 1, 1},
	}
}

// Uniform converts l to its GPU form.
func (l Light) Uniform() LightUniform {
	return LightUniform{Position: l.Position, Color: l.Color}
}

// LightUniform is the light as seen by the shader.
type LightUniform struct {
	Position [3]float32
	_        uint32
	Color    [3]float32
	_        uint32
}

// Bytes returns the little-endian encoding of u, padding included.
func (u LightUniform) Bytes() []byte {
	buf := make([]byte, 0, LightUniformSize)
	buf = appendFloats(buf, u.Position[:])
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = appendFloats(buf, u.Color[:])
	return binary.LittleEndian.AppendUint32(buf, 0)
}

func appendFloats(buf []byte, fs []float32) []byte {
	for _, f := range fs {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}
