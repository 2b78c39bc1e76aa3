// Package snapshot renders a single viewer frame offscreen and reads it
// back as an image.
//
// A Renderer owns a color and a depth texture of a fixed size. Capture
// runs the viewer's Prepare and Paint inside one render pass on those
// textures, copies the color texture into a staging buffer, waits for
// the GPU and converts the BGRA rows into an *image.RGBA:
//
//	r, err := snapshot.New(device, queue, 1280, 720)
//	if err != nil { ... }
//	defer r.Close()
//	img, err := r.Capture(viewer, meshview.FrameInput{})
//
// The viewer must have been created with the BGRA8Unorm target format,
// which is the default.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/meshview"
	"github.com/gogpu/meshview/render"
)

// ColorFormat is the format of the capture color texture.
const ColorFormat = gputypes.TextureFormatBGRA8Unorm

// copyPitchAlignment is the required row alignment of texture to buffer
// copies.
const copyPitchAlignment = 256

// waitTimeout bounds how long Capture waits for the GPU.
const waitTimeout = 5 * time.Second

var (
	// ErrInvalidSize is returned for a zero width or height.
	ErrInvalidSize = errors.New("snapshot: width and height must be positive")

	// ErrNilViewer is returned by Capture without a viewer.
	ErrNilViewer = errors.New("snapshot: nil viewer")

	// ErrClosed is returned by Capture after Close.
	ErrClosed = errors.New("snapshot: renderer is closed")

	// ErrTimeout is returned when the GPU does not finish a capture in
	// time.
	ErrTimeout = errors.New("snapshot: timed out waiting for GPU")
)

// DefaultClearColor is the background of a capture: a dark grey.
var DefaultClearColor = gputypes.Color{R: 0.1, G: 0.1, B: 0.1, A: 1}

// Renderer captures viewer frames into images.
type Renderer struct {
	device hal.Device
	queue  hal.Queue

	// ClearColor fills the background before the viewer paints.
	ClearColor gputypes.Color

	textures textureSet
	closed   bool
}

// New creates a renderer with width x height targets.
func New(device hal.Device, queue hal.Queue, width, height uint32) (*Renderer, error) {
	if device == nil || queue == nil {
		return nil, render.ErrNilDevice
	}
	r := &Renderer{device: device, queue: queue, ClearColor: DefaultClearColor}
	if err := r.Resize(width, height); err != nil {
		return nil, err
	}
	return r, nil
}

// Size returns the current target size.
func (r *Renderer) Size() (width, height uint32) {
	return r.textures.width, r.textures.height
}

// Resize recreates the targets when the size changes.
func (r *Renderer) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return ErrInvalidSize
	}
	if r.closed {
		return ErrClosed
	}
	return r.textures.ensure(r.device, width, height)
}

// Capture prepares v with in and renders one frame into an image. When
// in.Aspect is zero the aspect ratio of the target is used.
func (r *Renderer) Capture(v *meshview.Viewer, in meshview.FrameInput) (*image.RGBA, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if v == nil {
		return nil, ErrNilViewer
	}
	w, h := r.Size()
	if in.Aspect == 0 {
		in.Aspect = float32(w) / float32(h)
	}
	if err := v.Prepare(in); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "snapshot_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("snapshot_frame"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "snapshot_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       r.textures.colorView,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: r.ClearColor,
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:            r.textures.depthView,
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	draws := v.Paint(rp)
	rp.End()

	// The color texture leaves the pass in attachment layout; the copy
	// needs it as a transfer source.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.textures.color,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "snapshot_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer r.device.DestroyBuffer(staging)

	encoder.CopyTextureToBuffer(r.textures.color, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: r.textures.color, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.textures.color,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	fence, err := r.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	defer r.device.DestroyFence(fence)

	if err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	ok, err := r.device.Wait(fence, 1, waitTimeout)
	if err != nil {
		return nil, fmt.Errorf("wait for GPU: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w after %v", ErrTimeout, waitTimeout)
	}

	readback := make([]byte, stagingSize)
	if err := r.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	slogger().Debug("snapshot: captured frame", "width", w, "height", h, "draws", draws)

	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	unpackBGRA(img, readback, int(alignedBytesPerRow))
	return img, nil
}

// Close releases the targets. The device belongs to the caller. Safe to
// call twice.
func (r *Renderer) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.textures.destroy(r.device)
}

// unpackBGRA copies rows of pitch bytes from src into img, swapping the
// red and blue channels.
func unpackBGRA(img *image.RGBA, src []byte, pitch int) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := range h {
		row := src[y*pitch : y*pitch+w*4]
		dst := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w*4; x += 4 {
			dst[x+0] = row[x+2]
			dst[x+1] = row[x+1]
			dst[x+2] = row[x+0]
			dst[x+3] = row[x+3]
		}
	}
}
