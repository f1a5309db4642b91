// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Source produces a mesh.
type Source interface {
	Load() (*Mesh, error)
	String() string
}

// FileSource loads an OBJ file.
type FileSource struct {
	Path string
}

// Load reads the file with LoadOBJ.
func (s FileSource) Load() (*Mesh, error) { return LoadOBJ(s.Path) }

func (s FileSource) String() string { return s.Path }

// LoadOBJ opens path and parses it with ParseOBJ.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return &Mesh{}, fmt.Errorf("%w: %w", ErrFileOpen, err)
	}
	defer f.Close()

	m, err := ParseOBJ(f)
	if err != nil {
		return m, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseOBJ reads the subset of Wavefront OBJ this package understands:
//
//	v x y z            vertex position (extra values ignored)
//	f a//na b//nb c//nc triangle with vertex//normal indices
//
// Every other record is ignored. File indices are 1-based and converted to
// 0-based IDs without bounds checks; BuildAdjacency rejects bad IDs.
// A face without exactly three vertex//normal pairs, or a vertex with fewer
// than three coordinates, fails with ErrParse and an empty, non-nil Mesh.
func ParseOBJ(r io.Reader) (*Mesh, error) {
	m := &Mesh{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			v, err := parseVertex(fields[1:])
			if err != nil {
				return &Mesh{}, fmt.Errorf("%w: line %d: %w", ErrParse, line, err)
			}
			m.Vertices = append(m.Vertices, v)
		case "f":
			tri, err := parseFace(fields[1:])
			if err != nil {
				return &Mesh{}, fmt.Errorf("%w: line %d: %w", ErrParse, line, err)
			}
			m.Triangles = append(m.Triangles, tri)
		}
	}
	if err := sc.Err(); err != nil {
		return &Mesh{}, fmt.Errorf("%w: line %d: %w", ErrParse, line+1, err)
	}
	return m, nil
}

func parseVertex(fields []string) (Vertex, error) {
	if len(fields) < 3 {
		return Vertex{}, fmt.Errorf("vertex has %d coordinates, want 3", len(fields))
	}
	var c [3]float32
	for i := range c {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return Vertex{}, fmt.Errorf("vertex coordinate %d: %w", i, err)
		}
		c[i] = float32(f)
	}
	return Vertex{X: c[0], Y: c[1], Z: c[2]}, nil
}

// parseFace reads exactly three "v//n" tokens, six integers in total.
func parseFace(fields []string) (Triangle, error) {
	var (
		tri   Triangle
		idx   [6]int
		count int
	)
	for _, tok := range fields {
		vs, ns, _ := strings.Cut(tok, "//")
		for _, part := range [2]string{vs, ns} {
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return tri, fmt.Errorf("face token %q: %w", tok, err)
			}
			if count < len(idx) {
				idx[count] = n
			}
			count++
		}
	}
	if len(fields) != 3 || count != 6 {
		return tri, fmt.Errorf("face has %d indices in %d tokens, want 6 in 3 v//n pairs", count, len(fields))
	}
	for i := range tri {
		tri[i] = idx[2*i] - 1
	}
	return tri, nil
}
