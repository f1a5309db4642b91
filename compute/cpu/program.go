// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/meshsmooth/compute"
)

type programKernel struct {
	spec compute.KernelSpec
	fn   KernelFunc
}

// Program is a resolved kernel library.
type Program struct {
	device  *Device
	label   string
	kernels map[string]programKernel
}

// Kernel extracts a kernel by name.
func (p *Program) Kernel(name string) (compute.Kernel, error) {
	pk, ok := p.kernels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s: %q", compute.ErrUnknownKernel, p.label, name)
	}
	return &Kernel{
		device:      p.device,
		spec:        pk.spec,
		fn:          pk.fn,
		granularity: p.device.granularityFor(pk.spec),
		args:        compute.NewArgSet(name, pk.spec.Params),
	}, nil
}

// Release is a no-op; CPU programs hold no device resources.
func (p *Program) Release() {}

// Kernel is a CPU kernel with bound arguments.
type Kernel struct {
	mu          sync.Mutex
	device      *Device
	spec        compute.KernelSpec
	fn          KernelFunc
	granularity uint32
	args        *compute.ArgSet
}

// Name returns the kernel name.
func (k *Kernel) Name() string { return k.spec.Name }

// PreferredGranularity returns the work-group size used for launches.
func (k *Kernel) PreferredGranularity() uint32 { return k.granularity }

// SetArg binds an argument. Buffers must come from a cpu Device.
func (k *Kernel) SetArg(index int, value any) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if b, ok := value.(compute.Buffer); ok && b != nil {
		if _, native := b.(*Buffer); !native {
			return fmt.Errorf("%w: %s arg %d: %T", compute.ErrForeignResource, k.spec.Name, index, b)
		}
	}
	return k.args.Set(index, value)
}

// Release is a no-op.
func (k *Kernel) Release() {}

// snapshot captures the bound arguments for an enqueue.
func (k *Kernel) snapshot() (Args, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	values, err := k.args.Snapshot()
	if err != nil {
		return Args{}, err
	}
	for i, v := range values {
		if b, ok := v.(*Buffer); ok && b.Released() {
			return Args{}, fmt.Errorf("%w: %s arg %d (%s)", compute.ErrReleased, k.spec.Name, i, b.Label())
		}
	}
	return Args{values: values}, nil
}

// Args gives a running kernel typed access to its arguments.
type Args struct {
	values []any
}

// Buffer returns buffer argument i.
func (a Args) Buffer(i int) *Buffer { return a.values[i].(*Buffer) }

// Uint32 returns u32 argument i.
func (a Args) Uint32(i int) uint32 { return a.values[i].(uint32) }

// Int32 returns i32 argument i.
func (a Args) Int32(i int) int32 { return a.values[i].(int32) }

// Float32 returns f32 argument i.
func (a Args) Float32(i int) float32 { return a.values[i].(float32) }
