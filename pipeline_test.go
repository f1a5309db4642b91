// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshsmooth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/meshsmooth/compute"
	"github.com/gogpu/meshsmooth/compute/cpu"
	"github.com/gogpu/meshsmooth/mesh"
)

const tetraOBJ = `# tetrahedron
v 0 0 0
v 1 0 0
v 0 1 0
v 0 0 1
f 1//1 2//1 3//1
f 1//1 2//1 4//1
f 1//1 3//1 4//1
f 2//1 3//1 4//1
`

// memSource serves a mesh from memory.
type memSource struct {
	m   *mesh.Mesh
	err error
}

func (s memSource) Load() (*mesh.Mesh, error) { return s.m, s.err }
func (s memSource) String() string             { return "memory" }

func newCPU(t *testing.T, opts ...cpu.Option) *cpu.Device {
	t.Helper()
	d := cpu.New(opts...)
	t.Cleanup(d.Destroy)
	return d
}

func tetra(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := mesh.ParseOBJ(strings.NewReader(tetraOBJ))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	return m
}

// smoothOnHost runs the smoothing passes on the host.
func smoothOnHost(vs []mesh.Vertex, adj mesh.Adjacency, lambda float32, passes int) []mesh.Vertex {
	cur := slices.Clone(vs)
	for pass := 0; pass < passes; pass++ {
		next := make([]mesh.Vertex, len(cur))
		for i, p := range cur {
			if len(adj[i]) == 0 {
				next[i] = p
				continue
			}
			var sx, sy, sz float32
			for _, nb := range adj[i] {
				sx += cur[nb].X
				sy += cur[nb].Y
				sz += cur[nb].Z
			}
			cnt := float32(len(adj[i]))
			next[i] = mesh.Vertex{
				X: p.X + lambda*(sx/cnt-p.X),
				Y: p.Y + lambda*(sy/cnt-p.Y),
				Z: p.Z + lambda*(sz/cnt-p.Z),
			}
		}
		cur = next
	}
	return cur
}

func near(a, b mesh.Vertex) bool {
	const eps = 1e-5
	return math.Abs(float64(a.X-b.X)) < eps &&
		math.Abs(float64(a.Y-b.Y)) < eps &&
		math.Abs(float64(a.Z-b.Z)) < eps
}

func wantStageError(t *testing.T, err error, stage State, target error) {
	t.Helper()
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v (%T), want *StageError", err, err)
	}
	if se.Stage != stage {
		t.Errorf("Stage = %v, want %v", se.Stage, stage)
	}
	if !errors.Is(err, target) {
		t.Errorf("err = %v, want %v", err, target)
	}
}

func TestPipeline_InitOnly(t *testing.T) {
	dev := newCPU(t)
	m := tetra(t)
	want := slices.Clone(m.Vertices)

	p := NewPipeline(dev, memSource{m: m}, WithReadback(true))
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantHistory := []State{
		StateUnloaded, StateLoaded, StateAdjacencyBuilt, StatePacked,
		StateDeviceBuffersReady, StateDispatched, StateCompleted,
	}
	if got := p.History(); !slices.Equal(got, wantHistory) {
		t.Errorf("History() = %v, want %v", got, wantHistory)
	}
	if p.State() != StateCompleted {
		t.Errorf("State() = %v, want Completed", p.State())
	}

	if report.Vertices != 4 || report.Triangles != 4 {
		t.Errorf("report counts = %d/%d, want 4/4", report.Vertices, report.Triangles)
	}
	if report.BufferBytes != 4*mesh.PackedVertexSize {
		t.Errorf("BufferBytes = %d, want %d", report.BufferBytes, 4*mesh.PackedVertexSize)
	}
	if len(report.Dispatches) != 1 {
		t.Fatalf("Dispatches = %d, want 1", len(report.Dispatches))
	}
	d := report.Dispatches[0]
	if d.Kernel != compute.KernelInit || d.Global != compute.DefaultWorkgroupSize {
		t.Errorf("dispatch = %+v, want init over %d lanes", d, compute.DefaultWorkgroupSize)
	}
	if report.Adjacency.MinDegree != 3 || report.Adjacency.MaxDegree != 3 {
		t.Errorf("Adjacency = %v, want degree 3 everywhere", report.Adjacency)
	}
	if !slices.Equal(report.Positions, want) {
		t.Errorf("Positions = %v, want %v", report.Positions, want)
	}
	if report.RunID != p.RunID {
		t.Errorf("RunID = %q, want %q", report.RunID, p.RunID)
	}
}

func TestPipeline_SmoothingPasses(t *testing.T) {
	tests := []struct {
		name   string
		passes int
		lambda float32
	}{
		{"one pass", 1, 0.5},
		{"two passes", 2, 0.5},
		{"three passes", 3, 0.25},
		{"zero lambda", 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newCPU(t, cpu.WithWorkers(2))
			m := tetra(t)
			p := NewPipeline(dev, memSource{m: m},
				WithPasses(tt.passes),
				WithLambda(tt.lambda),
				WithReadback(true))
			report, err := p.Run(context.Background())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(report.Dispatches) != tt.passes+1 {
				t.Fatalf("Dispatches = %d, want %d", len(report.Dispatches), tt.passes+1)
			}
			for i, d := range report.Dispatches[1:] {
				if d.Kernel != compute.KernelLaplacian {
					t.Errorf("dispatch %d kernel = %q, want %q", i+1, d.Kernel, compute.KernelLaplacian)
				}
			}

			want := smoothOnHost(m.Vertices, m.Adjacency, tt.lambda, tt.passes)
			for i := range want {
				if !near(report.Positions[i], want[i]) {
					t.Errorf("vertex %d = %v, want %v", i, report.Positions[i], want[i])
				}
			}
		})
	}
}

func TestPipeline_OnePassTetra(t *testing.T) {
	dev := newCPU(t)
	p := NewPipeline(dev, memSource{m: tetra(t)}, WithPasses(1), WithLambda(0.5), WithReadback(true))
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Vertex 0 moves halfway to the centroid of the other three.
	const s = float32(1.0 / 6.0)
	if got := report.Positions[0]; !near(got, mesh.Vertex{X: s, Y: s, Z: s}) {
		t.Errorf("vertex 0 = %v, want (%v, %v, %v)", got, s, s, s)
	}
}

func TestPipeline_SphereShrinks(t *testing.T) {
	dev := newCPU(t)
	p := NewPipeline(dev, mesh.Primitive{Shape: mesh.ShapeSphere, Size: 2, Cells: 12},
		WithPasses(3), WithLambda(0.5), WithReadback(true))
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	meanRadius := func(vs []mesh.Vertex) float64 {
		var sum float64
		for _, v := range vs {
			sum += math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z))
		}
		return sum / float64(len(vs))
	}
	before, after := meanRadius(p.Mesh().Vertices), meanRadius(report.Positions)
	if after >= before {
		t.Errorf("mean radius %v after smoothing, want less than %v", after, before)
	}
}

func TestPipeline_EmptyMesh(t *testing.T) {
	dev := newCPU(t)
	m, err := mesh.ParseOBJ(strings.NewReader("# nothing here\n"))
	if err != nil {
		t.Fatal(err)
	}
	p := NewPipeline(dev, memSource{m: m}, WithPasses(2), WithReadback(true))
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Vertices != 0 || len(report.Positions) != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
	for _, d := range report.Dispatches {
		if d.Global != 0 {
			t.Errorf("dispatch %s global = %d, want 0", d.Kernel, d.Global)
		}
	}
}

func TestPipeline_Failures(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.obj")
	badFace := filepath.Join(t.TempDir(), "bad.obj")
	if err := os.WriteFile(badFace, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1//1 2//1 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	outOfRange := &mesh.Mesh{
		Vertices:  []mesh.Vertex{{}, {X: 1}, {Y: 1}},
		Triangles: []mesh.Triangle{{0, 1, 3}},
	}

	tests := []struct {
		name   string
		src    mesh.Source
		dev    []cpu.Option
		opts   []Option
		stage  State
		target error
	}{
		{"invalid config", memSource{m: &mesh.Mesh{}}, nil, []Option{WithLambda(3)}, StateLoaded, ErrConfig},
		{"file open", mesh.FileSource{Path: missing}, nil, nil, StateLoaded, mesh.ErrFileOpen},
		{"parse", mesh.FileSource{Path: badFace}, nil, nil, StateLoaded, mesh.ErrParse},
		{"out of range", memSource{m: outOfRange}, nil, nil, StateAdjacencyBuilt, mesh.ErrIndexOutOfRange},
		{"allocation", memSource{m: tetra(t)}, []cpu.Option{cpu.WithMaxBufferSize(32)}, nil,
			StateDeviceBuffersReady, compute.ErrAllocationFailed},
		{"empty library", memSource{m: &mesh.Mesh{}}, nil,
			[]Option{WithKernelLibrary(&compute.Library{Label: "empty"})},
			StateDeviceBuffersReady, compute.ErrCompile},
		{"missing kernel", memSource{m: tetra(t)}, nil,
			[]Option{WithPasses(1), WithKernelLibrary(&compute.Library{
				Label:   "init only",
				Kernels: compute.MeshSmoothLibrary().Kernels[:1],
			})},
			StateDeviceBuffersReady, compute.ErrUnknownKernel},
		{"panicking kernel", memSource{m: tetra(t)},
			[]cpu.Option{cpu.WithKernel(compute.KernelInit, func(uint32, cpu.Args) { panic("boom") })}, nil,
			StateCompleted, compute.ErrWait},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newCPU(t, tt.dev...)
			p := NewPipeline(dev, tt.src, tt.opts...)
			report, err := p.Run(context.Background())
			if report != nil {
				t.Errorf("report = %v, want nil", report)
			}
			wantStageError(t, err, tt.stage, tt.target)
			if p.State() != StateFailed {
				t.Errorf("State() = %v, want Failed", p.State())
			}
		})
	}
}

func TestPipeline_TimedOut(t *testing.T) {
	release := make(chan struct{})
	var lanes atomic.Int32
	cpuDev := newCPU(t, cpu.WithKernel(compute.KernelInit, func(gid uint32, args cpu.Args) {
		<-release
		// Touch both buffers once unblocked.
		if gid < args.Uint32(2) {
			for w := 0; w < 4; w++ {
				args.Buffer(1).SetUint32(int(gid)*4+w, args.Buffer(0).Uint32(int(gid)*4+w))
			}
		}
		lanes.Add(1)
	}))
	unblocked := false
	unblock := func() {
		if !unblocked {
			unblocked = true
			close(release)
		}
	}
	t.Cleanup(unblock)
	dev := &countingDevice{Device: cpuDev}

	p := NewPipeline(dev, memSource{m: tetra(t)}, WithWaitTimeout(20*time.Millisecond))
	start := time.Now()
	_, err := p.Run(context.Background())
	wantStageError(t, err, StateCompleted, compute.ErrTimeout)
	if p.State() != StateTimedOut {
		t.Errorf("State() = %v, want TimedOut", p.State())
	}
	if !p.State().Terminal() {
		t.Error("TimedOut is not terminal")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Run took %v, timeout not honored", elapsed)
	}

	// The kernel is still running, so its buffers must stay alive.
	for _, b := range dev.created {
		if b.(*cpu.Buffer).Released() {
			t.Fatalf("buffer %s released while the kernel still runs", b.Label())
		}
	}

	unblock()
	deadline := time.Now().Add(5 * time.Second)
	for _, b := range dev.created {
		for !b.(*cpu.Buffer).Released() {
			if time.Now().After(deadline) {
				t.Fatalf("buffer %s not released after the kernel finished", b.Label())
			}
			time.Sleep(time.Millisecond)
		}
	}
	if lanes.Load() == 0 {
		t.Error("kernel never ran")
	}
}

// waitOnlyEvent reports completion only after Wait returned nil, like a
// device that learns of completion by polling inside Wait.
type waitOnlyEvent struct {
	compute.Event
	waited atomic.Bool
}

func (e *waitOnlyEvent) Wait(ctx context.Context) error {
	if err := e.Event.Wait(ctx); err != nil {
		return err
	}
	e.waited.Store(true)
	return nil
}

func (e *waitOnlyEvent) Done() bool { return e.waited.Load() }

func (e *waitOnlyEvent) Profile() (compute.Profile, error) {
	if !e.waited.Load() {
		return compute.Profile{}, compute.ErrNotComplete
	}
	return e.Event.Profile()
}

type waitOnlyQueue struct {
	compute.Queue
}

func (q waitOnlyQueue) EnqueueKernel(k compute.Kernel, global uint32, waitFor ...compute.Event) (compute.Event, error) {
	inner := make([]compute.Event, len(waitFor))
	for i, ev := range waitFor {
		if w, ok := ev.(*waitOnlyEvent); ok {
			inner[i] = w.Event
		} else {
			inner[i] = ev
		}
	}
	ev, err := q.Queue.EnqueueKernel(k, global, inner...)
	if err != nil {
		return nil, err
	}
	return &waitOnlyEvent{Event: ev}, nil
}

type waitOnlyDevice struct {
	compute.Device
}

func (d waitOnlyDevice) Queue() compute.Queue { return waitOnlyQueue{d.Device.Queue()} }

func TestPipeline_EventsCompleteOnlyAfterWait(t *testing.T) {
	for _, passes := range []int{0, 1, 3} {
		t.Run(fmt.Sprintf("passes=%d", passes), func(t *testing.T) {
			dev := waitOnlyDevice{newCPU(t)}
			p := NewPipeline(dev, memSource{m: tetra(t)}, WithPasses(passes))
			report, err := p.Run(context.Background())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if p.State() != StateCompleted {
				t.Errorf("State() = %v, want Completed", p.State())
			}
			if len(report.Dispatches) != passes+1 {
				t.Errorf("Dispatches = %d, want %d", len(report.Dispatches), passes+1)
			}
		})
	}
}

func TestPipeline_ReleasesBuffersOnFailure(t *testing.T) {
	dev := &countingDevice{Device: newCPU(t)}
	p := NewPipeline(dev, memSource{m: tetra(t)},
		WithPasses(1),
		WithKernelLibrary(&compute.Library{
			Label:   "init only",
			Kernels: compute.MeshSmoothLibrary().Kernels[:1],
		}))
	_, err := p.Run(context.Background())
	wantStageError(t, err, StateDeviceBuffersReady, compute.ErrUnknownKernel)
	if len(dev.created) != 4 {
		t.Fatalf("created %d buffers, want 4", len(dev.created))
	}
	for _, b := range dev.created {
		if !b.(*cpu.Buffer).Released() {
			t.Errorf("buffer %s not released", b.Label())
		}
	}
}

func TestPipeline_ReleasesBuffersOnSuccess(t *testing.T) {
	dev := &countingDevice{Device: newCPU(t)}
	if _, err := NewPipeline(dev, memSource{m: tetra(t)}, WithPasses(2)).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, b := range dev.created {
		if !b.(*cpu.Buffer).Released() {
			t.Errorf("buffer %s not released", b.Label())
		}
	}
}

func TestPipeline_RunTwice(t *testing.T) {
	dev := newCPU(t)
	p := NewPipeline(dev, memSource{m: tetra(t)})
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := p.Run(context.Background()); !errors.Is(err, ErrAlreadyRun) {
		t.Errorf("second Run: err = %v, want ErrAlreadyRun", err)
	}
	if p.State() != StateCompleted {
		t.Errorf("State() = %v, want Completed", p.State())
	}
}

func TestPipeline_MeshAvailableAfterRun(t *testing.T) {
	dev := newCPU(t)
	p := NewPipeline(dev, memSource{m: tetra(t)})
	if p.Mesh() != nil {
		t.Error("Mesh() before Run should be nil")
	}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	m := p.Mesh()
	if m == nil || len(m.Adjacency) != 4 {
		t.Fatalf("Mesh() = %v, want tetrahedron with adjacency", m)
	}
}

func TestReport_String(t *testing.T) {
	dev := newCPU(t)
	report, err := NewPipeline(dev, memSource{m: tetra(t)}, WithPasses(1)).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	s := report.String()
	for _, want := range []string{report.RunID, "memory", "cpu", compute.KernelInit, compute.KernelLaplacian, "GB/s", "ms"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q:\n%s", want, s)
		}
	}
	if report.Elapsed < 0 {
		t.Errorf("Elapsed = %v, want >= 0", report.Elapsed)
	}
}

func TestStageError(t *testing.T) {
	err := &StageError{Stage: StatePacked, Err: ErrNoAdjacency}
	if !errors.Is(err, ErrNoAdjacency) {
		t.Error("StageError does not unwrap")
	}
	if !strings.Contains(err.Error(), "Packed") {
		t.Errorf("Error() = %q, want stage name", err.Error())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateUnloaded, "Unloaded"},
		{StateDeviceBuffersReady, "DeviceBuffersReady"},
		{StateTimedOut, "TimedOut"},
		{State(42), "State(42)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.s), got, tt.want)
		}
	}
	for _, s := range []State{StateCompleted, StateFailed, StateTimedOut} {
		if !s.Terminal() {
			t.Errorf("%v should be terminal", s)
		}
	}
	if StateDispatched.Terminal() {
		t.Error("Dispatched should not be terminal")
	}
}
