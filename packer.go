// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshsmooth

import (
	"errors"
	"fmt"

	"github.com/gogpu/meshsmooth/compute"
	"github.com/gogpu/meshsmooth/mesh"
)

// Packed is a mesh in device layout.
type Packed struct {
	// Vertices holds one mesh.PackedVertex per vertex, little-endian.
	Vertices []byte

	// Offsets and Neighbors are the CSR form of the adjacency.
	Offsets   []uint32
	Neighbors []uint32

	VertexCount uint32
}

// Pack converts m into device layout. The adjacency must have been built.
func Pack(m *mesh.Mesh) (*Packed, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil mesh", ErrNoAdjacency)
	}
	if m.Adjacency == nil || len(m.Adjacency) != len(m.Vertices) {
		return nil, fmt.Errorf("%w: %d lists for %d vertices", ErrNoAdjacency, len(m.Adjacency), len(m.Vertices))
	}
	offsets, neighbors := m.Adjacency.CSR()
	return &Packed{
		Vertices:    mesh.PackedBytes(mesh.PackVertices(m.Vertices)),
		Offsets:     offsets,
		Neighbors:   neighbors,
		VertexCount: uint32(len(m.Vertices)),
	}, nil
}

// DeviceBuffers holds the device memory of one run.
type DeviceBuffers struct {
	// Input is initialized from the packed vertices.
	Input compute.Buffer

	// Output is uninitialized until a kernel writes it.
	Output compute.Buffer

	// Offsets and Neighbors hold the CSR adjacency.
	Offsets   compute.Buffer
	Neighbors compute.Buffer

	VertexCount uint32

	// BufferBytes is the size of Input, and of Output.
	BufferBytes uint64
}

// AllocateBuffers creates the device buffers for p. On failure every
// buffer already created is released and the error wraps
// compute.ErrAllocationFailed.
func AllocateBuffers(dev compute.Device, p *Packed) (*DeviceBuffers, error) {
	size := uint64(p.VertexCount) * mesh.PackedVertexSize
	db := &DeviceBuffers{VertexCount: p.VertexCount, BufferBytes: size}

	create := func(desc *compute.BufferDescriptor) (compute.Buffer, error) {
		b, err := dev.CreateBuffer(desc)
		if err != nil {
			db.Release()
			if !errors.Is(err, compute.ErrAllocationFailed) {
				err = fmt.Errorf("%w: %w", compute.ErrAllocationFailed, err)
			}
			return nil, err
		}
		return b, nil
	}

	var err error
	if db.Input, err = create(&compute.BufferDescriptor{
		Label: "positions-in", Size: size, Contents: p.Vertices,
	}); err != nil {
		return nil, err
	}
	if db.Output, err = create(&compute.BufferDescriptor{
		Label: "positions-out", Size: size,
	}); err != nil {
		return nil, err
	}
	if db.Offsets, err = create(&compute.BufferDescriptor{
		Label: "adjacency-offsets", Size: uint64(len(p.Offsets)) * 4, Contents: compute.Uint32Bytes(p.Offsets),
	}); err != nil {
		return nil, err
	}
	if db.Neighbors, err = create(&compute.BufferDescriptor{
		Label: "adjacency-neighbors", Size: uint64(len(p.Neighbors)) * 4, Contents: compute.Uint32Bytes(p.Neighbors),
	}); err != nil {
		return nil, err
	}

	Logger().Debug("meshsmooth: device buffers ready",
		"vertices", p.VertexCount,
		"bytes", size,
		"neighbors", len(p.Neighbors))
	return db, nil
}

// Release frees every buffer. Safe to call more than once.
func (db *DeviceBuffers) Release() {
	for _, b := range []*compute.Buffer{&db.Input, &db.Output, &db.Offsets, &db.Neighbors} {
		if *b != nil {
			(*b).Release()
			*b = nil
		}
	}
}
