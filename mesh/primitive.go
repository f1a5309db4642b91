// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Primitive shapes.
const (
	ShapeSphere = "sphere"
	ShapeBox    = "box"
)

// defaultCells is the marching cubes resolution along the longest axis.
const defaultCells = 32

// Primitive generates a closed mesh by tessellating a signed distance
// field with marching cubes. Coincident corners are welded so that
// triangles share vertex IDs and adjacency is meaningful.
type Primitive struct {
	Shape string  // ShapeSphere or ShapeBox
	Size  float64 // sphere diameter or box edge length; 0 means 1
	Cells int     // marching cubes cells; 0 means 32
}

// Load builds the mesh.
func (p Primitive) Load() (*Mesh, error) {
	size := p.Size
	if size <= 0 {
		size = 1
	}
	cells := p.Cells
	if cells <= 0 {
		cells = defaultCells
	}

	var s sdf.SDF3
	switch p.Shape {
	case ShapeSphere:
		s = sphere{radius: size / 2}
	case ShapeBox:
		box, err := sdf.Box3D(v3.Vec{X: size, Y: size, Z: size}, 0)
		if err != nil {
			return &Mesh{}, fmt.Errorf("mesh: box: %w", err)
		}
		s = box
	default:
		return &Mesh{}, fmt.Errorf("%w: %q", ErrUnknownShape, p.Shape)
	}

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)

	// Weld on a grid far finer than a cell.
	eps := size / float64(cells) * 1e-4
	w := newWelder(eps, len(triangles))
	m := &Mesh{Triangles: make([]Triangle, 0, len(triangles))}
	for _, tri := range triangles {
		var keys [3]weldKey
		for j := 0; j < 3; j++ {
			keys[j] = w.key(tri[j].X, tri[j].Y, tri[j].Z)
		}
		if keys[0] == keys[1] || keys[1] == keys[2] || keys[0] == keys[2] {
			continue // collapsed by welding
		}
		var t Triangle
		for j := 0; j < 3; j++ {
			t[j] = w.id(keys[j], tri[j].X, tri[j].Y, tri[j].Z)
		}
		m.Triangles = append(m.Triangles, t)
	}
	m.Vertices = w.vertices
	return m, nil
}

func (p Primitive) String() string {
	return fmt.Sprintf("%s(size=%g, cells=%d)", p.Shape, p.Size, p.Cells)
}

// sphere is an exact sphere SDF centered at the origin.
type sphere struct {
	radius float64
}

func (s sphere) Evaluate(p v3.Vec) float64 {
	return math.Sqrt(p.X*p.X+p.Y*p.Y+p.Z*p.Z) - s.radius
}

func (s sphere) BoundingBox() sdf.Box3 {
	r := s.radius
	return sdf.Box3{Min: v3.Vec{X: -r, Y: -r, Z: -r}, Max: v3.Vec{X: r, Y: r, Z: r}}
}

// weldKey is a position quantized to the weld grid.
type weldKey [3]int64

// welder maps positions to vertex IDs, merging positions that fall in the
// same grid cell.
type welder struct {
	eps      float64
	ids      map[weldKey]int
	vertices []Vertex
}

func newWelder(eps float64, triangles int) *welder {
	return &welder{
		eps:      eps,
		ids:      make(map[weldKey]int, triangles/2+1),
		vertices: make([]Vertex, 0, triangles/2+1),
	}
}

func (w *welder) key(x, y, z float64) weldKey {
	return weldKey{
		int64(math.Round(x / w.eps)),
		int64(math.Round(y / w.eps)),
		int64(math.Round(z / w.eps)),
	}
}

// id returns the vertex ID for key, adding (x, y, z) on first use.
func (w *welder) id(key weldKey, x, y, z float64) int {
	if id, ok := w.ids[key]; ok {
		return id
	}
	id := len(w.vertices)
	w.ids[key] = id
	w.vertices = append(w.vertices, Vertex{X: float32(x), Y: float32(y), Z: float32(z)})
	return id
}
