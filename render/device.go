// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	// Registers the Vulkan backend with hal.GetBackend.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// DeviceHandle provides GPU device access from the host application.
//
// The viewer does not create a device when embedded: the host (a window
// toolkit or game loop) owns the device and hands it over through this
// interface. The concrete provider must also expose its HAL objects:
//
//	HalDevice() any // returns hal.Device
//	HalQueue() any  // returns hal.Queue
type DeviceHandle = gpucontext.DeviceProvider

var (
	// ErrNoHalDevice is returned when a DeviceHandle does not expose HAL
	// device and queue objects.
	ErrNoHalDevice = errors.New("render: provider does not expose a HAL device")

	// ErrNoAdapter is returned when a backend reports no adapters.
	ErrNoAdapter = errors.New("render: no GPU adapters found")

	// ErrUnknownBackend is returned by ParseBackend for unrecognised names.
	ErrUnknownBackend = errors.New("render: unknown backend")
)

// HalDevice extracts the HAL device and queue behind a host provider.
func HalDevice(provider DeviceHandle) (hal.Device, hal.Queue, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, ErrNoHalDevice
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHalDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHalDevice)
	}
	return device, queue, nil
}

// NullDeviceHandle is a DeviceHandle that exposes no device. Useful as a
// placeholder in tests.
type NullDeviceHandle struct{}

// Device returns nil.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns TextureFormatUndefined.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Backend selects which HAL implementation OpenDevice uses.
type Backend uint8

const (
	// BackendVulkan opens the first discrete or integrated Vulkan adapter.
	BackendVulkan Backend = iota
	// BackendNoop opens a device that accepts every call and draws nothing.
	// Used for headless runs and tests.
	BackendNoop
)

// String returns the backend name as accepted by ParseBackend.
func (b Backend) String() string {
	switch b {
	case BackendVulkan:
		return "vulkan"
	case BackendNoop:
		return "noop"
	default:
		return fmt.Sprintf("Backend(%d)", b)
	}
}

// ParseBackend resolves a backend name.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(name) {
	case "vulkan", "vk":
		return BackendVulkan, nil
	case "noop", "none":
		return BackendNoop, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// Device is a device opened by this package, as opposed to one borrowed
// from a host through DeviceHandle.
type Device struct {
	Device hal.Device
	Queue  hal.Queue
	// Name is the adapter name reported by the driver.
	Name string

	instance hal.Instance
}

// Close destroys the device and its instance. Safe to call twice.
func (d *Device) Close() {
	if d.Device != nil {
		d.Device.Destroy()
		d.Device = nil
		d.Queue = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}

type instanceCreator interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// OpenDevice creates an instance for backend and opens a device on the
// best adapter it reports.
func OpenDevice(backend Backend) (*Device, error) {
	var creator instanceCreator
	switch backend {
	case BackendVulkan:
		b, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil, fmt.Errorf("%w: vulkan not available", ErrUnknownBackend)
		}
		creator = b
	case BackendNoop:
		creator = noop.API{}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownBackend, backend)
	}

	instance, err := creator.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}

	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	slogger().Info("render: device opened", "backend", backend, "adapter", selected.Info.Name)

	return &Device{
		Device:   openDev.Device,
		Queue:    openDev.Queue,
		Name:     selected.Info.Name,
		instance: instance,
	}, nil
}
