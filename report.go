// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshsmooth

import (
	"fmt"
	"strings"
	"time"

	"github.com/gogpu/meshsmooth/compute"
	"github.com/gogpu/meshsmooth/mesh"
)

// DispatchTiming is the measured cost of one kernel launch.
type DispatchTiming struct {
	Kernel string
	Global uint32

	// Elapsed is the device execution time.
	Elapsed time.Duration

	// Bandwidth is 2*BufferBytes/Elapsed in GB/s, counting one read and
	// one write of the vertex buffer.
	Bandwidth float64
}

// Report describes a completed run.
type Report struct {
	RunID  string
	Source string
	Device compute.DeviceInfo

	Vertices  int
	Triangles int
	Adjacency mesh.Stats

	// BufferBytes is the size of one vertex buffer.
	BufferBytes uint64

	Dispatches []DispatchTiming

	// Elapsed spans the start of the first dispatch to the end of the last.
	Elapsed time.Duration

	// Positions holds the final positions when readback was requested.
	Positions []mesh.Vertex
}

// Bandwidth returns the effective bandwidth over all dispatches in GB/s.
func (r *Report) Bandwidth() float64 {
	return compute.Bandwidth(2*r.BufferBytes*uint64(len(r.Dispatches)), r.Elapsed)
}

func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %s on %s (%s)\n", r.RunID, r.Source, r.Device.Name, r.Device.Backend)
	fmt.Fprintf(&b, "  mesh: %d vertices, %d triangles, %d bytes per buffer\n", r.Vertices, r.Triangles, r.BufferBytes)
	fmt.Fprintf(&b, "  adjacency: %s\n", r.Adjacency)
	for i, d := range r.Dispatches {
		fmt.Fprintf(&b, "  [%d] %-10s global=%-8d %9.3f ms %8.3f GB/s\n",
			i, d.Kernel, d.Global, millis(d.Elapsed), d.Bandwidth)
	}
	fmt.Fprintf(&b, "  total: %.3f ms, %.3f GB/s", millis(r.Elapsed), r.Bandwidth())
	return b.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
