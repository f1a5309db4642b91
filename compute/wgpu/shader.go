// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/meshsmooth/compute"
)

// CompileKernel compiles a kernel's WGSL source to SPIR-V words.
func CompileKernel(spec compute.KernelSpec) ([]uint32, error) {
	spirvBytes, err := naga.Compile(spec.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", compute.ErrCompile, spec.Name, err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("%w: %s: SPIR-V length %d is not a multiple of 4",
			compute.ErrCompile, spec.Name, len(spirvBytes))
	}

	// SPIR-V is a stream of little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}
