// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render holds the fixed GPU pipeline that draws instanced meshes
// and the camera and light uniforms it reads.
//
// # Key Principle
//
// The pipeline RECEIVES a GPU device, it does not pick one. Hosts pass a
// hal.Device and hal.Queue directly, or a DeviceHandle whose provider
// exposes them (see HalDevice). OpenDevice exists for headless tools and
// tests that have no host.
//
// # Pipeline layout
//
//	bind group 0: camera  (CameraUniform, 80 bytes)
//	bind group 1: light   (LightUniform, 32 bytes)
//	vertex slot 0: mesh.Vertex   (24 bytes, per vertex)
//	vertex slot 1: mesh.InstanceRaw (100 bytes, per instance)
//
// Triangles are CCW front facing with back-face culling. Depth uses
// Depth32Float, compare Less, writes enabled.
//
// # Usage
//
//	p, err := render.NewPipeline(device, queue, render.PipelineConfig{
//	    TargetFormat: gputypes.TextureFormatBGRA8Unorm,
//	})
//	if err != nil {
//	    return err
//	}
//	defer p.Destroy()
//
//	if err := p.UpdateCamera(cam); err != nil {
//	    return err
//	}
//	p.Bind(pass)
package render
