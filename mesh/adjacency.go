// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// setThreshold is the degree above which a vertex's duplicate check moves
// from a linear scan to a set.
const setThreshold = 32

// Adjacency holds each vertex's one-ring neighbors in first-seen order.
// A list never contains its own vertex or a duplicate; a vertex used by no
// triangle has an empty list.
type Adjacency [][]uint32

// BuildAdjacency derives neighbor lists from tris over vertexCount
// vertices. Triangles are processed in order; for every ordered pair (a, b)
// of distinct corners, b is appended to a's list unless already present.
// Any index outside [0, vertexCount) fails the whole build.
func BuildAdjacency(vertexCount int, tris []Triangle) (Adjacency, error) {
	if vertexCount < 0 {
		return nil, fmt.Errorf("%w: negative vertex count %d", ErrIndexOutOfRange, vertexCount)
	}
	for t, tri := range tris {
		for c, id := range tri {
			if id < 0 || id >= vertexCount {
				return nil, fmt.Errorf("%w: triangle %d corner %d is %d, vertex count %d",
					ErrIndexOutOfRange, t, c, id, vertexCount)
			}
		}
	}

	adj := make(Adjacency, vertexCount)
	for i := range adj {
		adj[i] = []uint32{}
	}
	// Sets are created lazily for high-degree vertices only.
	var sets map[int]map[uint32]struct{}

	add := func(a, b int) {
		list := adj[a]
		nb := uint32(b)
		if set, ok := sets[a]; ok {
			if _, dup := set[nb]; dup {
				return
			}
			set[nb] = struct{}{}
			adj[a] = append(list, nb)
			return
		}
		for _, x := range list {
			if x == nb {
				return
			}
		}
		list = append(list, nb)
		adj[a] = list
		if len(list) > setThreshold {
			if sets == nil {
				sets = make(map[int]map[uint32]struct{})
			}
			set := make(map[uint32]struct{}, len(list)*2)
			for _, x := range list {
				set[x] = struct{}{}
			}
			sets[a] = set
		}
	}

	for _, tri := range tris {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				if i == j || tri[i] == tri[j] {
					continue
				}
				add(tri[i], tri[j])
			}
		}
	}
	return adj, nil
}

// Degree returns the neighbor count of vertex i.
func (a Adjacency) Degree(i int) int { return len(a[i]) }

// CSR flattens the lists: neighbors of vertex i are
// neighbors[offsets[i]:offsets[i+1]]. offsets has len(a)+1 entries.
func (a Adjacency) CSR() (offsets, neighbors []uint32) {
	offsets = make([]uint32, len(a)+1)
	total := 0
	for i, list := range a {
		offsets[i] = uint32(total)
		total += len(list)
	}
	offsets[len(a)] = uint32(total)

	neighbors = make([]uint32, 0, total)
	for _, list := range a {
		neighbors = append(neighbors, list...)
	}
	return offsets, neighbors
}

// Symmetric reports whether every neighbor relation is mutual.
func (a Adjacency) Symmetric() bool {
	for i, list := range a {
		for _, j := range list {
			if int(j) >= len(a) || !contains(a[j], uint32(i)) {
				return false
			}
		}
	}
	return true
}

func contains(list []uint32, v uint32) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// Stats summarizes vertex degrees.
type Stats struct {
	Vertices   int
	Links      int // sum of all list lengths
	MinDegree  int
	MaxDegree  int
	MeanDegree float64
	Isolated   int
}

// Stats computes degree statistics.
func (a Adjacency) Stats() Stats {
	s := Stats{Vertices: len(a)}
	if len(a) == 0 {
		return s
	}
	s.MinDegree = len(a[0])
	for _, list := range a {
		d := len(list)
		s.Links += d
		s.MinDegree = min(s.MinDegree, d)
		s.MaxDegree = max(s.MaxDegree, d)
		if d == 0 {
			s.Isolated++
		}
	}
	s.MeanDegree = float64(s.Links) / float64(len(a))
	return s
}

// String returns a one-line summary.
func (s Stats) String() string {
	return fmt.Sprintf("%d vertices, %d links, degree min %d max %d mean %.2f, %d isolated",
		s.Vertices, s.Links, s.MinDegree, s.MaxDegree, s.MeanDegree, s.Isolated)
}

// Dump writes one line per vertex: "id: n0 n1 ...".
func (a Adjacency) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var buf []byte
	for i, list := range a {
		buf = strconv.AppendInt(buf[:0], int64(i), 10)
		buf = append(buf, ':')
		for _, n := range list {
			buf = append(buf, ' ')
			buf = strconv.AppendUint(buf, uint64(n), 10)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}
