// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer is a HAL storage buffer.
type Buffer struct {
	device   hal.Device
	raw      hal.Buffer
	label    string
	size     uint64
	alloc    uint64
	released atomic.Bool
}

// Size returns the requested size in bytes.
func (b *Buffer) Size() uint64 { return b.size }

// Label returns the debug label.
func (b *Buffer) Label() string { return b.label }

// Release destroys the HAL buffer. Safe to call more than once.
func (b *Buffer) Release() {
	if b.released.CompareAndSwap(false, true) {
		b.device.DestroyBuffer(b.raw)
	}
}

// Released reports whether Release was called.
func (b *Buffer) Released() bool { return b.released.Load() }

// binding returns the bind group resource covering the whole buffer.
func (b *Buffer) binding(index uint32) gputypes.BindGroupEntry {
	return gputypes.BindGroupEntry{
		Binding: index,
		Resource: gputypes.BufferBinding{
			Buffer: b.raw.NativeHandle(),
			Offset: 0,
			Size:   0, // 0 = entire buffer
		},
	}
}
