// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import (
	"fmt"
	"math"
)

// Vertex is a position in model space.
type Vertex struct {
	X, Y, Z float32
}

// Triangle holds three 0-based vertex IDs.
type Triangle [3]int

// Mesh is an indexed triangle mesh. The index of a vertex in Vertices is
// its ID.
type Mesh struct {
	Vertices  []Vertex
	Triangles []Triangle

	// Adjacency is set by BuildAdjacency.
	Adjacency Adjacency
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Triangles) }

// Empty reports whether the mesh has no vertices and no triangles.
func (m *Mesh) Empty() bool { return len(m.Vertices) == 0 && len(m.Triangles) == 0 }

// BuildAdjacency derives the neighbor lists and stores them on the mesh.
// On error the mesh is left unchanged.
func (m *Mesh) BuildAdjacency() error {
	adj, err := BuildAdjacency(len(m.Vertices), m.Triangles)
	if err != nil {
		return err
	}
	m.Adjacency = adj
	return nil
}

// Bounds returns the axis-aligned bounding box of the vertices. An empty
// mesh returns zero vectors.
func (m *Mesh) Bounds() (lo, hi Vertex) {
	if len(m.Vertices) == 0 {
		return Vertex{}, Vertex{}
	}
	lo = Vertex{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	hi = Vertex{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for _, v := range m.Vertices {
		lo.X, hi.X = min(lo.X, v.X), max(hi.X, v.X)
		lo.Y, hi.Y = min(lo.Y, v.Y), max(hi.Y, v.Y)
		lo.Z, hi.Z = min(lo.Z, v.Z), max(hi.Z, v.Z)
	}
	return lo, hi
}

// String returns a short summary.
func (m *Mesh) String() string {
	return fmt.Sprintf("mesh(%d vertices, %d triangles)", len(m.Vertices), len(m.Triangles))
}
