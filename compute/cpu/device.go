// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cpu implements compute.Device in software.
//
// Kernels are Go functions registered by name. A launch of G lanes is split
// into work-groups of the kernel's preferred granularity and the groups run
// in parallel on a WorkerPool. The queue is in-order: a single goroutine
// takes commands in enqueue order and runs each to completion before the
// next.
//
// The bundled mesh kernels (init, laplacian) are registered by default, so
// compute.MeshSmoothLibrary compiles without extra setup.
package cpu

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/gogpu/meshsmooth/compute"
)

// KernelFunc executes one lane of a kernel. gid is the lane's global index;
// lanes at or beyond the element count must return without side effects.
type KernelFunc func(gid uint32, args Args)

// Option configures a Device.
type Option func(*options)

type options struct {
	workers       int
	granularity   uint32
	maxBufferSize uint64
	kernels       map[string]KernelFunc
}

// WithWorkers sets the worker count. Zero or negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithGranularity overrides the preferred granularity reported by every
// kernel. Zero keeps each kernel's declared workgroup size.
func WithGranularity(g uint32) Option {
	return func(o *options) { o.granularity = g }
}

// WithMaxBufferSize caps single buffer allocations. Zero means no cap.
func WithMaxBufferSize(n uint64) Option {
	return func(o *options) { o.maxBufferSize = n }
}

// WithKernel registers (or replaces) the implementation for a kernel name.
func WithKernel(name string, fn KernelFunc) Option {
	return func(o *options) { o.kernels[name] = fn }
}

// Device is a software compute device.
type Device struct {
	mu        sync.Mutex
	pool      *WorkerPool
	queue     *Queue
	opts      options
	destroyed bool
}

var _ compute.Device = (*Device)(nil)

// New creates a CPU device and starts its worker pool and queue.
func New(opts ...Option) *Device {
	o := options{kernels: builtinKernels()}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Device{
		pool: NewWorkerPool(o.workers),
		opts: o,
	}
	d.queue = newQueue(d)

	compute.Logger().Debug("cpu: device created",
		"workers", d.pool.Workers(),
		"granularity", o.granularity,
		"kernels", len(o.kernels))
	return d
}

// Info describes the device.
func (d *Device) Info() compute.DeviceInfo {
	return compute.DeviceInfo{
		Name:          fmt.Sprintf("cpu (%d workers, %s/%s)", d.pool.Workers(), runtime.GOOS, runtime.GOARCH),
		Backend:       "cpu",
		MaxBufferSize: d.opts.maxBufferSize,
	}
}

// CreateBuffer allocates a host-backed buffer.
func (d *Device) CreateBuffer(desc *compute.BufferDescriptor) (compute.Buffer, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: nil descriptor", compute.ErrAllocationFailed)
	}
	if d.isDestroyed() {
		return nil, fmt.Errorf("%w: %s: device destroyed", compute.ErrAllocationFailed, desc.Label)
	}
	if d.opts.maxBufferSize > 0 && desc.Size > d.opts.maxBufferSize {
		return nil, fmt.Errorf("%w: %s: %d bytes exceeds limit %d",
			compute.ErrAllocationFailed, desc.Label, desc.Size, d.opts.maxBufferSize)
	}
	if uint64(len(desc.Contents)) > desc.Size {
		return nil, fmt.Errorf("%w: %s: %d bytes of contents for a %d byte buffer",
			compute.ErrAllocationFailed, desc.Label, len(desc.Contents), desc.Size)
	}

	b := newBuffer(desc.Label, desc.Size, desc.Contents)
	compute.Logger().Debug("cpu: buffer created",
		"label", desc.Label,
		"bytes", desc.Size,
		"initialized", desc.Contents != nil)
	return b, nil
}

// CreateProgram resolves every kernel of lib against the registered Go
// implementations.
func (d *Device) CreateProgram(lib *compute.Library) (compute.Program, error) {
	if err := lib.Validate(); err != nil {
		return nil, err
	}
	p := &Program{device: d, label: lib.Label, kernels: make(map[string]programKernel, len(lib.Kernels))}
	for _, spec := range lib.Kernels {
		fn, ok := d.opts.kernels[spec.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s: no cpu implementation for kernel %q",
				compute.ErrCompile, lib.Label, spec.Name)
		}
		p.kernels[spec.Name] = programKernel{spec: spec, fn: fn}
	}
	compute.Logger().Debug("cpu: program created", "library", lib.Label, "kernels", len(lib.Kernels))
	return p, nil
}

// Queue returns the device's in-order queue.
func (d *Device) Queue() compute.Queue { return d.queue }

// Destroy drains the queue and stops the worker pool.
func (d *Device) Destroy() {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	d.mu.Unlock()

	d.queue.close()
	d.pool.Close()
}

func (d *Device) isDestroyed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed
}

// granularityFor returns the preferred granularity for a kernel spec.
func (d *Device) granularityFor(spec compute.KernelSpec) uint32 {
	if d.opts.granularity > 0 {
		return d.opts.granularity
	}
	return spec.WorkgroupSize
}
