// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package wgpu implements compute.Device on top of gogpu/wgpu's HAL.
//
// Kernels are WGSL compiled to SPIR-V with naga. Parameter i of a kernel is
// bound at @binding(i) of group 0; scalar parameters are uploaded into a
// fresh 16-byte uniform buffer per enqueue. Every enqueue is one command
// buffer with one compute pass. Completion is tracked by the submission
// index the HAL queue returns; HAL queues execute submissions in order.
//
// A Device either owns its HAL device (Open) or borrows one from a host
// application (FromHAL, FromProvider). Borrowed devices are not destroyed.
package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Register the Vulkan backend for Open.
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/meshsmooth/compute"
)

// minBufferSize is the smallest buffer allocated. Zero-sized bindings are
// invalid, so empty meshes still get a 4-byte buffer.
const minBufferSize = 4

// Device is a compute.Device backed by a HAL device.
type Device struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    *Queue
	info     compute.DeviceInfo
	external bool
	closed   bool
}

var _ compute.Device = (*Device)(nil)

// Open creates a standalone Vulkan device, preferring discrete or
// integrated GPUs over software adapters.
func Open() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("wgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: no GPU adapters found")
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}

	d := newDevice(openDev.Device, openDev.Queue, selected.Info.Name, false)
	d.instance = instance
	d.info.MaxBufferSize = limits.MaxBufferSize
	compute.Logger().Info("wgpu: device opened (standalone)", "adapter", selected.Info.Name)
	return d, nil
}

// FromHAL wraps an existing HAL device and queue. The caller keeps
// ownership; Destroy releases only resources created through this Device.
func FromHAL(device hal.Device, queue hal.Queue, name string) *Device {
	return newDevice(device, queue, name, true)
}

// FromProvider borrows the HAL device of a host application. The provider
// must also expose HalDevice() any and HalQueue() any returning hal.Device
// and hal.Queue.
func FromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if provider == nil {
		return nil, fmt.Errorf("wgpu: nil device provider")
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("wgpu: provider %T does not expose HAL types", provider)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}

	name := provider.AdapterInfo().Name
	if name == "" {
		name = fmt.Sprintf("shared (%T)", provider)
	}
	d := newDevice(device, queue, name, true)
	compute.Logger().Info("wgpu: using shared device", "provider", name)
	return d, nil
}

func newDevice(device hal.Device, queue hal.Queue, name string, external bool) *Device {
	d := &Device{
		device:   device,
		external: external,
		info: compute.DeviceInfo{
			Name:    name,
			Backend: "wgpu",
		},
	}
	d.queue = &Queue{device: device, raw: queue}
	return d
}

// Info describes the device.
func (d *Device) Info() compute.DeviceInfo { return d.info }

// CreateBuffer allocates a storage buffer usable as a kernel argument and
// as a copy source or destination. Contents, when set, are uploaded before
// CreateBuffer returns.
func (d *Device) CreateBuffer(desc *compute.BufferDescriptor) (compute.Buffer, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: nil descriptor", compute.ErrAllocationFailed)
	}
	if d.isClosed() {
		return nil, fmt.Errorf("%w: %s: device destroyed", compute.ErrAllocationFailed, desc.Label)
	}
	if limit := d.info.MaxBufferSize; limit > 0 && desc.Size > limit {
		return nil, fmt.Errorf("%w: %s: %d bytes exceeds limit %d",
			compute.ErrAllocationFailed, desc.Label, desc.Size, limit)
	}
	if uint64(len(desc.Contents)) > desc.Size {
		return nil, fmt.Errorf("%w: %s: %d bytes of contents for a %d byte buffer",
			compute.ErrAllocationFailed, desc.Label, len(desc.Contents), desc.Size)
	}

	alloc := compute.RoundUp(desc.Size, 4)
	if alloc < minBufferSize {
		alloc = minBufferSize
	}
	raw, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  alloc,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%d bytes): %w", compute.ErrAllocationFailed, desc.Label, alloc, err)
	}

	if len(desc.Contents) > 0 {
		data := desc.Contents
		if rem := len(data) % 4; rem != 0 {
			data = make([]byte, len(desc.Contents)+4-rem)
			copy(data, desc.Contents)
		}
		if err := d.queue.raw.WriteBuffer(raw, 0, data); err != nil {
			d.device.DestroyBuffer(raw)
			return nil, fmt.Errorf("%w: %s: upload: %w", compute.ErrAllocationFailed, desc.Label, err)
		}
	}

	compute.Logger().Debug("wgpu: buffer created",
		"label", desc.Label,
		"bytes", desc.Size,
		"allocated", alloc,
		"initialized", desc.Contents != nil)
	return &Buffer{device: d.device, raw: raw, label: desc.Label, size: desc.Size, alloc: alloc}, nil
}

// Queue returns the device's queue.
func (d *Device) Queue() compute.Queue { return d.queue }

// Destroy releases the HAL device and instance if this Device owns them.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true

	if !d.external && d.device != nil {
		d.device.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}

func (d *Device) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
