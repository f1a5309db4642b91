// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import (
	"errors"
	"math"
	"testing"
)

func TestPrimitive_Sphere(t *testing.T) {
	p := Primitive{Shape: ShapeSphere, Size: 2, Cells: 16}
	m, err := p.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.TriangleCount() == 0 {
		t.Fatal("no triangles")
	}
	// Welding shares corners between triangles.
	if m.VertexCount() >= 3*m.TriangleCount() {
		t.Errorf("%d vertices for %d triangles: corners not welded", m.VertexCount(), m.TriangleCount())
	}
	for i, v := range m.Vertices {
		r := math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z))
		if math.Abs(r-1) > 0.1 {
			t.Fatalf("vertex %d at radius %v, want about 1", i, r)
		}
	}

	if err := m.BuildAdjacency(); err != nil {
		t.Fatalf("BuildAdjacency: %v", err)
	}
	if !m.Adjacency.Symmetric() {
		t.Error("adjacency not symmetric")
	}
	if s := m.Adjacency.Stats(); s.Isolated != 0 {
		t.Errorf("%d isolated vertices on a closed surface", s.Isolated)
	}
}

func TestPrimitive_Box(t *testing.T) {
	m, err := Primitive{Shape: ShapeBox, Size: 4, Cells: 8}.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.TriangleCount() == 0 {
		t.Fatal("no triangles")
	}
	lo, hi := m.Bounds()
	const slack = 1.0 // one cell
	if lo.X < -2-slack || hi.X > 2+slack || lo.Z < -2-slack || hi.Z > 2+slack {
		t.Errorf("bounds %v..%v outside the box", lo, hi)
	}
	if err := m.BuildAdjacency(); err != nil {
		t.Fatalf("BuildAdjacency: %v", err)
	}
}

func TestPrimitive_UnknownShape(t *testing.T) {
	m, err := Primitive{Shape: "torus"}.Load()
	if !errors.Is(err, ErrUnknownShape) {
		t.Fatalf("err = %v, want ErrUnknownShape", err)
	}
	if m == nil || !m.Empty() {
		t.Errorf("mesh = %v, want empty", m)
	}
}

func TestWelder(t *testing.T) {
	w := newWelder(1e-3, 4)
	a := w.id(w.key(0, 0, 0), 0, 0, 0)
	b := w.id(w.key(1, 0, 0), 1, 0, 0)
	c := w.id(w.key(0.0001, 0, 0), 0.0001, 0, 0) // same grid cell as a
	if a == b {
		t.Error("distinct points welded")
	}
	if a != c {
		t.Error("coincident points not welded")
	}
	if len(w.vertices) != 2 {
		t.Errorf("vertices = %d, want 2", len(w.vertices))
	}
}
