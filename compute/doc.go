// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package compute defines the parallel compute device abstraction used by
// the mesh pipeline.
//
// The abstraction follows the explicit-memory accelerator model: buffers are
// device memory objects created with copy-in semantics or left
// uninitialized, kernels are extracted by name from a compiled program,
// arguments are bound by index, and launches are asynchronous and return an
// [Event] that is later waited on and queried for timing.
//
// # Backends
//
// Two implementations ship with the module:
//   - compute/cpu: a software device that runs kernels as work-groups on a
//     goroutine pool. Always available.
//   - compute/wgpu: a gogpu/wgpu HAL device (Vulkan by default). Kernels are
//     WGSL compiled to SPIR-V with naga. Excluded with the nogpu build tag.
//
// # Launch geometry
//
// Kernels report a preferred granularity G. The global launch size for N
// elements is N rounded up to the next multiple of G (see [GlobalSize]).
// Kernels must guard indices at or beyond N themselves.
//
// # Queues
//
// Queues are in-order: commands execute in enqueue order. A command may
// additionally name events it must wait for.
package compute
