// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import (
	"bytes"
	"errors"
	"slices"
	"testing"
)

func sorted(list []uint32) []uint32 {
	out := slices.Clone(list)
	slices.Sort(out)
	return out
}

func TestBuildAdjacency(t *testing.T) {
	tests := []struct {
		name     string
		vertices int
		tris     []Triangle
		want     map[int][]uint32 // as sets
	}{
		{
			name:     "single triangle",
			vertices: 3,
			tris:     []Triangle{{0, 1, 2}},
			want:     map[int][]uint32{0: {1, 2}, 1: {0, 2}, 2: {0, 1}},
		},
		{
			name:     "two triangles sharing an edge",
			vertices: 4,
			tris:     []Triangle{{0, 1, 2}, {1, 2, 3}},
			want:     map[int][]uint32{0: {1, 2}, 1: {0, 2, 3}, 2: {0, 1, 3}, 3: {1, 2}},
		},
		{
			name:     "isolated vertex",
			vertices: 5,
			tris:     []Triangle{{0, 1, 2}},
			want:     map[int][]uint32{3: {}, 4: {}},
		},
		{
			name:     "repeated triangle adds nothing",
			vertices: 3,
			tris:     []Triangle{{0, 1, 2}, {2, 1, 0}},
			want:     map[int][]uint32{0: {1, 2}, 1: {0, 2}, 2: {0, 1}},
		},
		{
			name:     "degenerate triangle never links a vertex to itself",
			vertices: 2,
			tris:     []Triangle{{0, 0, 1}},
			want:     map[int][]uint32{0: {1}, 1: {0}},
		},
		{
			name:     "no triangles",
			vertices: 2,
			want:     map[int][]uint32{0: {}, 1: {}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj, err := BuildAdjacency(tt.vertices, tt.tris)
			if err != nil {
				t.Fatalf("BuildAdjacency: %v", err)
			}
			if len(adj) != tt.vertices {
				t.Fatalf("len = %d, want %d", len(adj), tt.vertices)
			}
			for v, want := range tt.want {
				if got := sorted(adj[v]); !slices.Equal(got, want) {
					t.Errorf("vertex %d = %v, want %v", v, got, want)
				}
			}
		})
	}
}

func TestBuildAdjacency_Order(t *testing.T) {
	// Neighbors appear in first-seen order.
	adj, err := BuildAdjacency(4, []Triangle{{0, 1, 2}, {1, 2, 3}})
	if err != nil {
		t.Fatalf("BuildAdjacency: %v", err)
	}
	if want := []uint32{0, 2, 3}; !slices.Equal(adj[1], want) {
		t.Errorf("vertex 1 = %v, want %v", adj[1], want)
	}
	if want := []uint32{0, 1, 3}; !slices.Equal(adj[2], want) {
		t.Errorf("vertex 2 = %v, want %v", adj[2], want)
	}
}

func TestBuildAdjacency_OutOfRange(t *testing.T) {
	tests := []struct {
		name string
		tris []Triangle
	}{
		{"too large", []Triangle{{0, 1, 3}}},
		{"negative", []Triangle{{-1, 1, 2}}},
		{"late bad triangle", []Triangle{{0, 1, 2}, {0, 1, 2}, {2, 1, 7}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj, err := BuildAdjacency(3, tt.tris)
			if !errors.Is(err, ErrIndexOutOfRange) {
				t.Fatalf("err = %v, want ErrIndexOutOfRange", err)
			}
			if adj != nil {
				t.Errorf("adjacency = %v, want nil on failure", adj)
			}
		})
	}
}

// fan returns a triangle fan around vertex 0 with n rim vertices.
func fan(n int) []Triangle {
	tris := make([]Triangle, 0, n)
	for i := 1; i <= n; i++ {
		next := i%n + 1
		tris = append(tris, Triangle{0, i, next})
	}
	return tris
}

func TestBuildAdjacency_HighDegree(t *testing.T) {
	// Hub degree crosses setThreshold; results must match the linear path.
	const rim = 3 * setThreshold
	tris := fan(rim)
	// Revisit every triangle to exercise duplicate rejection through the set.
	tris = append(tris, fan(rim)...)

	adj, err := BuildAdjacency(rim+1, tris)
	if err != nil {
		t.Fatalf("BuildAdjacency: %v", err)
	}
	if got := len(adj[0]); got != rim {
		t.Fatalf("hub degree = %d, want %d", got, rim)
	}
	for i, nb := range adj[0] {
		if nb != uint32(i+1) {
			t.Fatalf("hub neighbor %d = %d, want %d (first-seen order)", i, nb, i+1)
		}
	}
	for v := 1; v <= rim; v++ {
		if got := len(adj[v]); got != 3 {
			t.Errorf("rim vertex %d degree = %d, want 3", v, got)
		}
	}
}

func TestAdjacency_NoDuplicatesOrSelf(t *testing.T) {
	adj, err := BuildAdjacency(13, fan(12))
	if err != nil {
		t.Fatalf("BuildAdjacency: %v", err)
	}
	for v, list := range adj {
		seen := make(map[uint32]bool)
		for _, n := range list {
			if int(n) == v {
				t.Errorf("vertex %d lists itself", v)
			}
			if seen[n] {
				t.Errorf("vertex %d lists %d twice", v, n)
			}
			seen[n] = true
		}
	}
	if !adj.Symmetric() {
		t.Error("adjacency not symmetric")
	}
}

func TestAdjacency_CSR(t *testing.T) {
	adj := Adjacency{{1, 2}, {0}, {}, {0, 1, 2}}
	offsets, neighbors := adj.CSR()

	if want := []uint32{0, 2, 3, 3, 6}; !slices.Equal(offsets, want) {
		t.Errorf("offsets = %v, want %v", offsets, want)
	}
	if want := []uint32{1, 2, 0, 0, 1, 2}; !slices.Equal(neighbors, want) {
		t.Errorf("neighbors = %v, want %v", neighbors, want)
	}

	empty := Adjacency{}
	offsets, neighbors = empty.CSR()
	if len(offsets) != 1 || offsets[0] != 0 || len(neighbors) != 0 {
		t.Errorf("empty CSR = %v %v, want [0] []", offsets, neighbors)
	}
}

func TestAdjacency_Symmetric(t *testing.T) {
	tests := []struct {
		name string
		adj  Adjacency
		want bool
	}{
		{"mutual", Adjacency{{1}, {0}}, true},
		{"one way", Adjacency{{1}, {}}, false},
		{"dangling", Adjacency{{5}}, false},
		{"empty", Adjacency{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.adj.Symmetric(); got != tt.want {
				t.Errorf("Symmetric() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdjacency_Stats(t *testing.T) {
	adj := Adjacency{{1, 2}, {0, 2}, {0, 1}, {}}
	s := adj.Stats()
	want := Stats{Vertices: 4, Links: 6, MinDegree: 0, MaxDegree: 2, MeanDegree: 1.5, Isolated: 1}
	if s != want {
		t.Errorf("Stats() = %+v, want %+v", s, want)
	}
	if s.String() == "" {
		t.Error("String() is empty")
	}

	if got := (Adjacency{}).Stats(); got != (Stats{}) {
		t.Errorf("empty Stats() = %+v, want zero", got)
	}
}

func TestAdjacency_Dump(t *testing.T) {
	adj := Adjacency{{1, 2}, {0}, {}}
	var buf bytes.Buffer
	if err := adj.Dump(&buf); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	want := "0: 1 2\n1: 0\n2:\n"
	if buf.String() != want {
		t.Errorf("Dump = %q, want %q", buf.String(), want)
	}
}

func TestMesh_BuildAdjacency(t *testing.T) {
	m := &Mesh{
		Vertices:  make([]Vertex, 3),
		Triangles: []Triangle{{0, 1, 2}},
	}
	if err := m.BuildAdjacency(); err != nil {
		t.Fatalf("BuildAdjacency: %v", err)
	}
	if len(m.Adjacency) != 3 {
		t.Fatalf("adjacency len = %d, want 3", len(m.Adjacency))
	}

	bad := &Mesh{Vertices: make([]Vertex, 2), Triangles: []Triangle{{0, 1, 2}}}
	if err := bad.BuildAdjacency(); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("err = %v, want ErrIndexOutOfRange", err)
	}
	if bad.Adjacency != nil {
		t.Error("adjacency set after failed build")
	}
}
