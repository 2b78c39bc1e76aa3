package mesh

import "github.com/gogpu/gputypes"

// VertexLayout returns the per-vertex buffer layout (slot 0).
func VertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: VertexSize,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},  // position
			{Format: gputypes.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1}, // normal
		},
	}
}

// InstanceLayout returns the per-instance buffer layout (slot 1).
func InstanceLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: InstanceSize,
		StepMode:    gputypes.VertexStepModeInstance,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 2},  // model col 0
			{Format: gputypes.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 3}, // model col 1
			{Format: gputypes.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 4}, // model col 2
			{Format: gputypes.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 5}, // model col 3
			{Format: gputypes.VertexFormatFloat32x3, Offset: 64, ShaderLocation: 6}, // normal col 0
			{Format: gputypes.VertexFormatFloat32x3, Offset: 76, ShaderLocation: 7}, // normal col 1
			{Format: gputypes.VertexFormatFloat32x3, Offset: 88, ShaderLocation: 8}, // normal col 2
		},
	}
}

// Layouts returns the vertex and instance layouts in slot order, ready for
// a render pipeline's vertex state.
func Layouts() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{VertexLayout(), InstanceLayout()}
}
