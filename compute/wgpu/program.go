// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/meshsmooth/compute"
)

// pipelineKernel holds the HAL objects built for one kernel spec.
type pipelineKernel struct {
	spec     compute.KernelSpec
	module   hal.ShaderModule
	bgLayout hal.BindGroupLayout
	layout   hal.PipelineLayout
	pipeline hal.ComputePipeline
}

// Program is a compiled kernel library.
type Program struct {
	mu       sync.Mutex
	device   hal.Device
	label    string
	kernels  map[string]*pipelineKernel
	released bool
}

// CreateProgram compiles every kernel of lib and builds its compute
// pipeline. On failure the pipelines already built are destroyed.
func (d *Device) CreateProgram(lib *compute.Library) (compute.Program, error) {
	if err := lib.Validate(); err != nil {
		return nil, err
	}
	if d.isClosed() {
		return nil, fmt.Errorf("%w: %s: device destroyed", compute.ErrCompile, lib.Label)
	}

	p := &Program{device: d.device, label: lib.Label, kernels: make(map[string]*pipelineKernel, len(lib.Kernels))}
	for _, spec := range lib.Kernels {
		pk, err := p.build(spec)
		if err != nil {
			p.Release()
			return nil, err
		}
		p.kernels[spec.Name] = pk
		compute.Logger().Debug("wgpu: pipeline created",
			"library", lib.Label,
			"kernel", spec.Name,
			"bindings", len(spec.Params),
			"workgroup_size", spec.WorkgroupSize)
	}

	compute.Logger().Info("wgpu: program compiled", "library", lib.Label, "kernels", len(lib.Kernels))
	return p, nil
}

func (p *Program) build(spec compute.KernelSpec) (*pipelineKernel, error) {
	spirv, err := CompileKernel(spec)
	if err != nil {
		return nil, err
	}

	pk := &pipelineKernel{spec: spec}
	name := p.label + "_" + spec.Name

	pk.module, err = p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  name,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: create shader module: %w", compute.ErrCompile, spec.Name, err)
	}

	pk.bgLayout, err = p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   name + "_bgl",
		Entries: layoutEntries(spec.Params),
	})
	if err != nil {
		p.destroyKernel(pk)
		return nil, fmt.Errorf("%w: %s: create bind group layout: %w", compute.ErrCompile, spec.Name, err)
	}

	pk.layout, err = p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            name + "_pl",
		BindGroupLayouts: []hal.BindGroupLayout{pk.bgLayout},
	})
	if err != nil {
		p.destroyKernel(pk)
		return nil, fmt.Errorf("%w: %s: create pipeline layout: %w", compute.ErrCompile, spec.Name, err)
	}

	pk.pipeline, err = p.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  name,
		Layout: pk.layout,
		Compute: hal.ComputeState{
			Module:     pk.module,
			EntryPoint: spec.Name,
		},
	})
	if err != nil {
		p.destroyKernel(pk)
		return nil, fmt.Errorf("%w: %s: create compute pipeline: %w", compute.ErrCompile, spec.Name, err)
	}
	return pk, nil
}

// layoutEntries maps parameter i to @binding(i).
func layoutEntries(params []compute.ParamKind) []gputypes.BindGroupLayoutEntry {
	entries := make([]gputypes.BindGroupLayoutEntry, len(params))
	for i, kind := range params {
		typ := gputypes.BufferBindingTypeUniform
		switch kind {
		case compute.ParamStorageRead:
			typ = gputypes.BufferBindingTypeReadOnlyStorage
		case compute.ParamStorageReadWrite:
			typ = gputypes.BufferBindingTypeStorage
		}
		entries[i] = gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: typ},
		}
	}
	return entries
}

func (p *Program) destroyKernel(pk *pipelineKernel) {
	if pk.pipeline != nil {
		p.device.DestroyComputePipeline(pk.pipeline)
		pk.pipeline = nil
	}
	if pk.layout != nil {
		p.device.DestroyPipelineLayout(pk.layout)
		pk.layout = nil
	}
	if pk.bgLayout != nil {
		p.device.DestroyBindGroupLayout(pk.bgLayout)
		pk.bgLayout = nil
	}
	if pk.module != nil {
		p.device.DestroyShaderModule(pk.module)
		pk.module = nil
	}
}

// Kernel returns a kernel with its own argument set. Kernels share the
// program's pipelines and must not be used after Release.
func (p *Program) Kernel(name string) (compute.Kernel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil, fmt.Errorf("%w: program %s", compute.ErrReleased, p.label)
	}
	pk, ok := p.kernels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s: %q", compute.ErrUnknownKernel, p.label, name)
	}
	return &Kernel{pk: pk, args: compute.NewArgSet(name, pk.spec.Params)}, nil
}

// Release destroys the program's pipelines.
func (p *Program) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return
	}
	p.released = true
	for _, pk := range p.kernels {
		p.destroyKernel(pk)
	}
}

// Kernel is a compute pipeline with bound arguments.
type Kernel struct {
	mu   sync.Mutex
	pk   *pipelineKernel
	args *compute.ArgSet
}

// Name returns the kernel name.
func (k *Kernel) Name() string { return k.pk.spec.Name }

// PreferredGranularity returns the WGSL workgroup size.
func (k *Kernel) PreferredGranularity() uint32 { return k.pk.spec.WorkgroupSize }

// SetArg binds an argument. Buffers must come from a wgpu Device.
func (k *Kernel) SetArg(index int, value any) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if b, ok := value.(compute.Buffer); ok && b != nil {
		if _, native := b.(*Buffer); !native {
			return fmt.Errorf("%w: %s arg %d: %T", compute.ErrForeignResource, k.pk.spec.Name, index, b)
		}
	}
	return k.args.Set(index, value)
}

// Release is a no-op; pipelines belong to the Program.
func (k *Kernel) Release() {}

func (k *Kernel) snapshot() ([]any, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	values, err := k.args.Snapshot()
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if b, ok := v.(*Buffer); ok && b.Released() {
			return nil, fmt.Errorf("%w: %s arg %d (%s)", compute.ErrReleased, k.pk.spec.Name, i, b.Label())
		}
	}
	return values, nil
}
