// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/meshview/mesh"
)

//go:embed shaders/mesh.wgsl
var meshShaderSource string

// DepthFormat is the depth attachment format the pipeline is built for.
// Render passes that bind the pipeline must use a depth texture of this
// format.
const DepthFormat = gputypes.TextureFormatDepth32Float

// ErrNilDevice is returned when a pipeline is created without a device or
// queue.
var ErrNilDevice = errors.New("render: device or queue is nil")

// ShaderFormat selects how the mesh shader reaches the driver.
type ShaderFormat uint8

const (
	// ShaderWGSL hands WGSL source to the HAL, which translates it.
	ShaderWGSL ShaderFormat = iota
	// ShaderSPIRV compiles the WGSL to SPIR-V with naga first.
	ShaderSPIRV
)

// String returns the format name.
func (f ShaderFormat) String() string {
	if f == ShaderSPIRV {
		return "spirv"
	}
	return "wgsl"
}

// PipelineConfig configures NewPipeline.
type PipelineConfig struct {
	// TargetFormat is the color attachment format. Defaults to BGRA8Unorm.
	TargetFormat gputypes.TextureFormat
	ShaderFormat ShaderFormat
	// SampleCount defaults to 1.
	SampleCount uint32
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.TargetFormat == gputypes.TextureFormatUndefined {
		c.TargetFormat = gputypes.TextureFormatBGRA8Unorm
	}
	if c.SampleCount == 0 {
		c.SampleCount = 1
	}
	return c
}

// Pass is the subset of hal.RenderPassEncoder the viewer records into.
type Pass interface {
	mesh.DrawPass
	SetPipeline(pipeline hal.RenderPipeline)
	SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32)
}

// Pipeline is the fixed render pipeline for instanced meshes together with
// its camera and light uniforms. Uniform buffers are allocated once and
// overwritten in place on every update.
//
// Bind group 0 is the camera, bind group 1 the light.
type Pipeline struct {
	device hal.Device
	queue  hal.Queue
	cfg    PipelineConfig

	shader       hal.ShaderModule
	cameraLayout hal.BindGroupLayout
	lightLayout  hal.BindGroupLayout
	pipeLayout   hal.PipelineLayout
	pipeline     hal.RenderPipeline

	cameraBuf   hal.Buffer
	lightBuf    hal.Buffer
	cameraGroup hal.BindGroup
	lightGroup  hal.BindGroup
}

// NewPipeline compiles the mesh shader and creates every GPU object the
// pipeline needs. The uniforms start as DefaultCamera and DefaultLight.
func NewPipeline(device hal.Device, queue hal.Queue, cfg PipelineConfig) (*Pipeline, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	p := &Pipeline{device: device, queue: queue, cfg: cfg.withDefaults()}
	if err := p.createPipeline(); err != nil {
		p.Destroy()
		return nil, err
	}
	if err := p.UpdateCamera(DefaultCamera()); err != nil {
		p.Destroy()
		return nil, err
	}
	if err := p.UpdateLight(DefaultLight()); err != nil {
		p.Destroy()
		return nil, err
	}

	slogger().Info("render: mesh pipeline created",
		"target", p.cfg.TargetFormat, "shader", p.cfg.ShaderFormat, "samples", p.cfg.SampleCount)
	return p, nil
}

// Config returns the effective configuration.
func (p *Pipeline) Config() PipelineConfig { return p.cfg }

// UpdateCamera writes c into the camera uniform buffer.
func (p *Pipeline) UpdateCamera(c Camera) error {
	if p.cameraBuf == nil {
		return nil
	}
	if err := p.queue.WriteBuffer(p.cameraBuf, 0, c.Uniform().Bytes()); err != nil {
		return fmt.Errorf("write camera uniform: %w", err)
	}
	return nil
}

// UpdateLight writes l into the light uniform buffer.
func (p *Pipeline) UpdateLight(l Light) error {
	if p.lightBuf == nil {
		return nil
	}
	if err := p.queue.WriteBuffer(p.lightBuf, 0, l.Uniform().Bytes()); err != nil {
		return fmt.Errorf("write light uniform: %w", err)
	}
	return nil
}

// Bind sets the pipeline and both uniform bind groups on pass.
func (p *Pipeline) Bind(pass Pass) {
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, p.cameraGroup, nil)
	pass.SetBindGroup(1, p.lightGroup, nil)
}

// Destroy releases all GPU resources in reverse creation order. Safe to
// call multiple times.
func (p *Pipeline) Destroy() {
	if p.device == nil {
		return
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.lightGroup != nil {
		p.device.DestroyBindGroup(p.lightGroup)
		p.lightGroup = nil
	}
	if p.cameraGroup != nil {
		p.device.DestroyBindGroup(p.cameraGroup)
		p.cameraGroup = nil
	}
	if p.lightBuf != nil {
		p.device.DestroyBuffer(p.lightBuf)
		p.lightBuf = nil
	}
	if p.cameraBuf != nil {
		p.device.DestroyBuffer(p.cameraBuf)
		p.cameraBuf = nil
	}
	if p.lightLayout != nil {
		p.device.DestroyBindGroupLayout(p.lightLayout)
		p.lightLayout = nil
	}
	if p.cameraLayout != nil {
		p.device.DestroyBindGroupLayout(p.cameraLayout)
		p.cameraLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

func (p *Pipeline) createPipeline() error {
	if err := p.createShader(); err != nil {
		return err
	}
	if err := p.createUniforms(); err != nil {
		return err
	}

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "mesh_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.cameraLayout, p.lightLayout},
	})
	if err != nil {
		return fmt.Errorf("create mesh pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "mesh_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    mesh.Layouts(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    p.cfg.TargetFormat,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLess,
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeBack,
		},
		Multisample: gputypes.MultisampleState{
			Count: p.cfg.SampleCount,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create mesh pipeline: %w", err)
	}
	p.pipeline = pipeline
	return nil
}

func (p *Pipeline) createShader() error {
	source := hal.ShaderSource{WGSL: meshShaderSource}
	if p.cfg.ShaderFormat == ShaderSPIRV {
		spirv, err := compileSPIRV(meshShaderSource)
		if err != nil {
			return err
		}
		source = hal.ShaderSource{SPIRV: spirv}
	}
	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "mesh_shader",
		Source: source,
	})
	if err != nil {
		return fmt.Errorf("compile mesh shader: %w", err)
	}
	p.shader = shader
	return nil
}

func (p *Pipeline) createUniforms() error {
	var err error
	p.cameraLayout, err = p.createUniformLayout("camera_layout")
	if err != nil {
		return err
	}
	p.lightLayout, err = p.createUniformLayout("light_layout")
	if err != nil {
		return err
	}

	p.cameraBuf, err = p.createUniformBuffer("camera_uniform", CameraUniformSize)
	if err != nil {
		return err
	}
	p.lightBuf, err = p.createUniformBuffer("light_uniform", LightUniformSize)
	if err != nil {
		return err
	}

	p.cameraGroup, err = p.createUniformGroup("camera_bind_group", p.cameraLayout, p.cameraBuf, CameraUniformSize)
	if err != nil {
		return err
	}
	p.lightGroup, err = p.createUniformGroup("light_bind_group", p.lightLayout, p.lightBuf, LightUniformSize)
	return err
}

func (p *Pipeline) createUniformLayout(label string) (hal.BindGroupLayout, error) {
	layout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: label,
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return layout, nil
}

func (p *Pipeline) createUniformBuffer(label string, size uint64) (hal.Buffer, error) {
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return buf, nil
}

func (p *Pipeline) createUniformGroup(label string, layout hal.BindGroupLayout, buf hal.Buffer, size uint64) (hal.BindGroup, error) {
	group, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  label,
		Layout: layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(), Offset: 0, Size: size,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return group, nil
}

// compileSPIRV compiles WGSL to little-endian SPIR-V words.
func compileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compile mesh shader to spirv: %w", err)
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
