// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import (
	"encoding/binary"
	"fmt"
	"math"
)

// PackedVertexSize is the byte size of one PackedVertex.
const PackedVertexSize = 16

// PackedVertex is a position padded to four floats, matching a WGSL
// vec4<f32>. W is always 0.
type PackedVertex struct {
	X, Y, Z, W float32
}

// PackVertices converts positions to packed records in vertex order.
func PackVertices(vs []Vertex) []PackedVertex {
	out := make([]PackedVertex, len(vs))
	for i, v := range vs {
		out[i] = PackedVertex{X: v.X, Y: v.Y, Z: v.Z}
	}
	return out
}

// Positions drops the padding.
func Positions(ps []PackedVertex) []Vertex {
	out := make([]Vertex, len(ps))
	for i, p := range ps {
		out[i] = Vertex{X: p.X, Y: p.Y, Z: p.Z}
	}
	return out
}

// PackedBytes encodes records as little-endian float32 quadruples.
func PackedBytes(ps []PackedVertex) []byte {
	buf := make([]byte, len(ps)*PackedVertexSize)
	for i, p := range ps {
		b := buf[i*PackedVertexSize:]
		binary.LittleEndian.PutUint32(b[0:], math.Float32bits(p.X))
		binary.LittleEndian.PutUint32(b[4:], math.Float32bits(p.Y))
		binary.LittleEndian.PutUint32(b[8:], math.Float32bits(p.Z))
		binary.LittleEndian.PutUint32(b[12:], math.Float32bits(p.W))
	}
	return buf
}

// UnpackBytes decodes the output of PackedBytes.
func UnpackBytes(b []byte) ([]PackedVertex, error) {
	if len(b)%PackedVertexSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrPackedSize, len(b))
	}
	out := make([]PackedVertex, len(b)/PackedVertexSize)
	for i := range out {
		r := b[i*PackedVertexSize:]
		out[i] = PackedVertex{
			X: math.Float32frombits(binary.LittleEndian.Uint32(r[0:])),
			Y: math.Float32frombits(binary.LittleEndian.Uint32(r[4:])),
			Z: math.Float32frombits(binary.LittleEndian.Uint32(r[8:])),
			W: math.Float32frombits(binary.LittleEndian.Uint32(r[12:])),
		}
	}
	return out, nil
}
