// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cpu

import "github.com/gogpu/meshsmooth/compute"

// builtinKernels returns Go counterparts of the WGSL kernels in
// compute.MeshSmoothLibrary. Argument layouts match the WGSL bindings.
func builtinKernels() map[string]KernelFunc {
	return map[string]KernelFunc{
		compute.KernelInit:      initKernel,
		compute.KernelLaplacian: laplacianKernel,
	}
}

// initKernel: dst[i] = src[i] for i < n.
func initKernel(gid uint32, args Args) {
	n := args.Uint32(2)
	if gid >= n {
		return
	}
	src, dst := args.Buffer(0), args.Buffer(1)
	base := int(gid) * 4
	for c := 0; c < 4; c++ {
		dst.SetUint32(base+c, src.Uint32(base+c))
	}
}

// laplacianKernel moves vertex i toward the mean of its neighbors by lambda.
func laplacianKernel(gid uint32, args Args) {
	n := args.Uint32(2)
	if gid >= n {
		return
	}
	src, dst := args.Buffer(0), args.Buffer(1)
	offsets, adjacent := args.Buffer(3), args.Buffer(4)
	lambda := args.Float32(5)

	base := int(gid) * 4
	px, py, pz := src.Float32(base), src.Float32(base+1), src.Float32(base+2)

	first, last := offsets.Uint32(int(gid)), offsets.Uint32(int(gid)+1)
	if last == first {
		dst.SetFloat32(base, px)
		dst.SetFloat32(base+1, py)
		dst.SetFloat32(base+2, pz)
		dst.SetFloat32(base+3, 0)
		return
	}

	var sx, sy, sz float32
	for k := first; k < last; k++ {
		nb := int(adjacent.Uint32(int(k))) * 4
		sx += src.Float32(nb)
		sy += src.Float32(nb + 1)
		sz += src.Float32(nb + 2)
	}
	cnt := float32(last - first)
	dst.SetFloat32(base, px+lambda*(sx/cnt-px))
	dst.SetFloat32(base+1, py+lambda*(sy/cnt-py))
	dst.SetFloat32(base+2, pz+lambda*(sz/cnt-pz))
	dst.SetFloat32(base+3, 0)
}
