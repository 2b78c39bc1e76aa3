package snapshot

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/meshview/render"
)

// textureSet holds the color and depth targets of a Renderer.
type textureSet struct {
	color     hal.Texture
	colorView hal.TextureView
	depth     hal.Texture
	depthView hal.TextureView
	width     uint32
	height    uint32
}

// ensure recreates the textures when the size differs from the current
// one. A no-op when the size matches.
func (ts *textureSet) ensure(device hal.Device, w, h uint32) error {
	if ts.width == w && ts.height == h && ts.color != nil {
		return nil
	}
	ts.destroy(device)

	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	color, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "snapshot_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        ColorFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create color texture: %w", err)
	}
	ts.color = color

	colorView, err := device.CreateTextureView(color, &hal.TextureViewDescriptor{
		Label: "snapshot_color_view",
	})
	if err != nil {
		ts.destroy(device)
		return fmt.Errorf("create color view: %w", err)
	}
	ts.colorView = colorView

	depth, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "snapshot_depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        render.DepthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		ts.destroy(device)
		return fmt.Errorf("create depth texture: %w", err)
	}
	ts.depth = depth

	depthView, err := device.CreateTextureView(depth, &hal.TextureViewDescriptor{
		Label: "snapshot_depth_view",
	})
	if err != nil {
		ts.destroy(device)
		return fmt.Errorf("create depth view: %w", err)
	}
	ts.depthView = depthView

	ts.width = w
	ts.height = h
	return nil
}

func (ts *textureSet) destroy(device hal.Device) {
	if ts.depthView != nil {
		device.DestroyTextureView(ts.depthView)
		ts.depthView = nil
	}
	if ts.depth != nil {
		device.DestroyTexture(ts.depth)
		ts.depth = nil
	}
	if ts.colorView != nil {
		device.DestroyTextureView(ts.colorView)
		ts.colorView = nil
	}
	if ts.color != nil {
		device.DestroyTexture(ts.color)
		ts.color = nil
	}
	ts.width = 0
	ts.height = 0
}
