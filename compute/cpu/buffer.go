// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cpu

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

// Buffer is host memory standing in for device memory. Storage is a slice of
// 32-bit words; sizes are rounded up to a whole word.
type Buffer struct {
	label    string
	size     uint64
	words    []uint32
	released atomic.Bool
}

func newBuffer(label string, size uint64, contents []byte) *Buffer {
	b := &Buffer{
		label: label,
		size:  size,
		words: make([]uint32, (size+3)/4),
	}
	if contents != nil {
		full := len(contents) / 4
		for i := 0; i < full; i++ {
			b.words[i] = binary.LittleEndian.Uint32(contents[i*4:])
		}
		if rest := len(contents) % 4; rest != 0 {
			var tail [4]byte
			copy(tail[:], contents[full*4:])
			b.words[full] = binary.LittleEndian.Uint32(tail[:])
		}
	}
	return b
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 { return b.size }

// Label returns the debug label.
func (b *Buffer) Label() string { return b.label }

// Release drops the backing storage. Kernels must not use the buffer after.
func (b *Buffer) Release() {
	if b.released.CompareAndSwap(false, true) {
		b.words = nil
	}
}

// Released reports whether Release was called.
func (b *Buffer) Released() bool { return b.released.Load() }

// Len returns the number of 32-bit words.
func (b *Buffer) Len() int { return len(b.words) }

// Uint32 returns word i.
func (b *Buffer) Uint32(i int) uint32 { return b.words[i] }

// SetUint32 stores word i.
func (b *Buffer) SetUint32(i int, v uint32) { b.words[i] = v }

// Float32 returns word i as a float.
func (b *Buffer) Float32(i int) float32 { return math.Float32frombits(b.words[i]) }

// SetFloat32 stores v as word i.
func (b *Buffer) SetFloat32(i int, v float32) { b.words[i] = math.Float32bits(v) }

// read copies bytes [offset, offset+len(dst)) into dst.
func (b *Buffer) read(offset uint64, dst []byte) {
	var word [4]byte
	for i := range dst {
		pos := offset + uint64(i)
		binary.LittleEndian.PutUint32(word[:], b.words[pos/4])
		dst[i] = word[pos%4]
	}
}
