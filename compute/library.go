// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	_ "embed"
	"fmt"
)

//go:embed kernels/init.wgsl
var initSource string

//go:embed kernels/laplacian.wgsl
var laplacianSource string

// Kernel names in the mesh smoothing library.
const (
	// KernelInit copies every packed vertex from input to output.
	// Args: 0=input buffer, 1=output buffer, 2=element count (u32).
	KernelInit = "init"

	// KernelLaplacian runs one uniform Laplacian smoothing pass.
	// Args: 0=input, 1=output, 2=element count (u32), 3=CSR offsets,
	// 4=CSR neighbors, 5=lambda (f32).
	KernelLaplacian = "laplacian"
)

// DefaultWorkgroupSize is the @workgroup_size declared by the bundled kernels.
const DefaultWorkgroupSize = 64

// ParamKind describes one kernel parameter.
type ParamKind int

const (
	// ParamStorageRead is a buffer the kernel only reads.
	ParamStorageRead ParamKind = iota

	// ParamStorageReadWrite is a buffer the kernel writes.
	ParamStorageReadWrite

	// ParamUint32 is a 32-bit unsigned scalar.
	ParamUint32

	// ParamInt32 is a 32-bit signed scalar.
	ParamInt32

	// ParamFloat32 is a 32-bit float scalar.
	ParamFloat32
)

// String returns the parameter kind name.
func (k ParamKind) String() string {
	switch k {
	case ParamStorageRead:
		return "storage_read"
	case ParamStorageReadWrite:
		return "storage_read_write"
	case ParamUint32:
		return "u32"
	case ParamInt32:
		return "i32"
	case ParamFloat32:
		return "f32"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// IsBuffer reports whether the parameter binds a Buffer.
func (k ParamKind) IsBuffer() bool {
	return k == ParamStorageRead || k == ParamStorageReadWrite
}

// KernelSpec describes one kernel of a library.
//
// Parameter i is bound at @group(0) @binding(i) in the WGSL source; scalar
// parameters are uniform buffers holding a single-member struct.
type KernelSpec struct {
	// Name is both the kernel name and the WGSL entry point.
	Name string

	// Source is the WGSL module containing the entry point.
	Source string

	// WorkgroupSize must match the entry point's @workgroup_size.
	WorkgroupSize uint32

	// Params lists the parameters in binding order.
	Params []ParamKind
}

// Library is a named unit of kernel sources, compiled into a Program.
type Library struct {
	// Label names the unit in logs and errors.
	Label string

	// Kernels lists the kernels in the unit.
	Kernels []KernelSpec
}

// Lookup returns the kernel with the given name.
func (l *Library) Lookup(name string) (KernelSpec, bool) {
	for _, k := range l.Kernels {
		if k.Name == name {
			return k, true
		}
	}
	return KernelSpec{}, false
}

// Validate checks that kernel names are unique and specs are complete.
func (l *Library) Validate() error {
	if l == nil || len(l.Kernels) == 0 {
		return fmt.Errorf("%w: empty library", ErrCompile)
	}
	seen := make(map[string]bool, len(l.Kernels))
	for _, k := range l.Kernels {
		if k.Name == "" {
			return fmt.Errorf("%w: %s: kernel without name", ErrCompile, l.Label)
		}
		if seen[k.Name] {
			return fmt.Errorf("%w: %s: duplicate kernel %q", ErrCompile, l.Label, k.Name)
		}
		seen[k.Name] = true
		if k.WorkgroupSize == 0 {
			return fmt.Errorf("%w: %s: kernel %q has zero workgroup size", ErrCompile, l.Label, k.Name)
		}
	}
	return nil
}

// MeshSmoothLibrary returns the bundled kernel library: init and laplacian.
func MeshSmoothLibrary() *Library {
	return &Library{
		Label: "meshsmooth",
		Kernels: []KernelSpec{
			{
				Name:          KernelInit,
				Source:        initSource,
				WorkgroupSize: DefaultWorkgroupSize,
				Params:        []ParamKind{ParamStorageRead, ParamStorageReadWrite, ParamUint32},
			},
			{
				Name:          KernelLaplacian,
				Source:        laplacianSource,
				WorkgroupSize: DefaultWorkgroupSize,
				Params: []ParamKind{
					ParamStorageRead, ParamStorageReadWrite, ParamUint32,
					ParamStorageRead, ParamStorageRead, ParamFloat32,
				},
			},
		},
	}
}
