// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshsmooth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/meshsmooth/compute"
	"github.com/gogpu/meshsmooth/mesh"
)

// Pipeline runs one mesh through a compute device. It is single-shot:
// Run may be called once.
type Pipeline struct {
	// RunID identifies the run in logs and reports.
	RunID string

	dev  compute.Device
	src  mesh.Source
	opts pipelineOptions

	mu      sync.Mutex
	started bool
	state   State
	history []State

	mesh    *mesh.Mesh
	packed  *Packed
	buffers *DeviceBuffers
	program compute.Program
	kernels []compute.Kernel
	steps   []step
}

// step is one enqueued kernel launch.
type step struct {
	kernel string
	global uint32
	event  compute.Event
}

// NewPipeline creates a pipeline that loads src and runs on dev.
func NewPipeline(dev compute.Device, src mesh.Source, opts ...Option) *Pipeline {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.library == nil {
		o.library = compute.MeshSmoothLibrary()
	}
	return &Pipeline{
		RunID:   uuid.New().String(),
		dev:     dev,
		src:     src,
		opts:    o,
		state:   StateUnloaded,
		history: []State{StateUnloaded},
	}
}

// State returns the current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// History returns every state entered so far, in order.
func (p *Pipeline) History() []State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]State(nil), p.history...)
}

// Mesh returns the loaded mesh, or nil before StateLoaded. The mesh and
// its adjacency outlive Run.
func (p *Pipeline) Mesh() *mesh.Mesh {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mesh
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config {
	return p.opts.config
}

// Run executes the pipeline: load, build adjacency, pack, allocate, dispatch
// and wait. On failure it returns a *StageError and the pipeline ends in
// StateFailed, or StateTimedOut when the wait exceeded the timeout. Device
// resources are released before Run returns, except when the last launch
// is still running: they are then released once it completes.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	p.started = true
	p.mu.Unlock()

	defer p.release()

	log := Logger().With("run", p.RunID)
	cfg := p.opts.config
	log.Info("meshsmooth: run started",
		"source", p.src.String(),
		"device", p.dev.Info().Name,
		"passes", cfg.Passes)

	if err := cfg.Validate(); err != nil {
		return nil, p.fail(StateLoaded, err)
	}

	m, err := p.src.Load()
	if err != nil {
		return nil, p.fail(StateLoaded, err)
	}
	p.mu.Lock()
	p.mesh = m
	p.mu.Unlock()
	p.enter(StateLoaded)

	if err := m.BuildAdjacency(); err != nil {
		return nil, p.fail(StateAdjacencyBuilt, err)
	}
	p.enter(StateAdjacencyBuilt)

	if p.packed, err = Pack(m); err != nil {
		return nil, p.fail(StatePacked, err)
	}
	p.enter(StatePacked)

	if err := p.prepare(); err != nil {
		return nil, p.fail(StateDeviceBuffersReady, err)
	}
	p.enter(StateDeviceBuffersReady)

	final, err := p.dispatch()
	if err != nil {
		return nil, p.fail(StateDispatched, err)
	}
	p.enter(StateDispatched)

	wctx := ctx
	if cfg.WaitTimeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.WaitTimeout))
		defer cancel()
	}
	events := make([]compute.Event, len(p.steps))
	for i, s := range p.steps {
		events[i] = s.event
	}
	if err := compute.WaitAll(wctx, events...); err != nil {
		if !errors.Is(err, compute.ErrTimeout) && !errors.Is(err, compute.ErrWait) {
			err = fmt.Errorf("%w: %w", compute.ErrWait, err)
		}
		return nil, p.fail(StateCompleted, err)
	}

	report, err := p.report()
	if err != nil {
		return nil, p.fail(StateCompleted, err)
	}
	if cfg.Readback {
		if report.Positions, err = p.readback(ctx, final); err != nil {
			return nil, p.fail(StateCompleted, err)
		}
	}
	p.enter(StateCompleted)

	log.Info("meshsmooth: run completed",
		"dispatches", len(report.Dispatches),
		"elapsed", report.Elapsed,
		"gbps", report.Bandwidth())
	return report, nil
}

// prepare allocates the device buffers and extracts the kernels.
func (p *Pipeline) prepare() error {
	var err error
	if p.buffers, err = AllocateBuffers(p.dev, p.packed); err != nil {
		return err
	}
	if p.program, err = p.dev.CreateProgram(p.opts.library); err != nil {
		return err
	}
	names := []string{compute.KernelInit}
	if p.opts.config.Passes > 0 {
		names = append(names, compute.KernelLaplacian)
	}
	for _, name := range names {
		k, err := p.program.Kernel(name)
		if err != nil {
			return err
		}
		p.kernels = append(p.kernels, k)
	}
	return nil
}

// dispatch enqueues init then each smoothing pass, chaining every launch
// on the previous one. It returns the buffer holding the final result.
func (p *Pipeline) dispatch() (compute.Buffer, error) {
	q := p.dev.Queue()
	db := p.buffers
	n := db.VertexCount

	ev, err := Dispatch(q, p.kernels[0], db.Input, db.Output, n)
	if err != nil {
		return nil, err
	}
	p.record(p.kernels[0], n, ev)

	src, dst := db.Output, db.Input
	for i := 0; i < p.opts.config.Passes; i++ {
		k := p.kernels[1]
		ev, err = DispatchSmooth(q, k, src, dst, db.Offsets, db.Neighbors, n, p.opts.config.Lambda, ev)
		if err != nil {
			return nil, fmt.Errorf("pass %d: %w", i+1, err)
		}
		p.record(k, n, ev)
		src, dst = dst, src
	}
	return src, nil
}

func (p *Pipeline) record(k compute.Kernel, n uint32, ev compute.Event) {
	var global uint32
	if n > 0 {
		global = compute.GlobalSize(n, k.PreferredGranularity())
	}
	p.steps = append(p.steps, step{kernel: k.Name(), global: global, event: ev})
}

// report reads the profile of every completed launch.
func (p *Pipeline) report() (*Report, error) {
	m := p.mesh
	r := &Report{
		RunID:       p.RunID,
		Source:      p.src.String(),
		Device:      p.dev.Info(),
		Vertices:    m.VertexCount(),
		Triangles:   m.TriangleCount(),
		Adjacency:   m.Adjacency.Stats(),
		BufferBytes: p.buffers.BufferBytes,
		Dispatches:  make([]DispatchTiming, 0, len(p.steps)),
	}
	var first, last time.Time
	for i, s := range p.steps {
		prof, err := s.event.Profile()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", compute.ErrWait, s.kernel, err)
		}
		elapsed := prof.Elapsed()
		r.Dispatches = append(r.Dispatches, DispatchTiming{
			Kernel:    s.kernel,
			Global:    s.global,
			Elapsed:   elapsed,
			Bandwidth: compute.Bandwidth(2*r.BufferBytes, elapsed),
		})
		if i == 0 {
			first = prof.Started
		}
		last = prof.Ended
	}
	r.Elapsed = last.Sub(first)
	return r, nil
}

func (p *Pipeline) readback(ctx context.Context, b compute.Buffer) ([]mesh.Vertex, error) {
	if p.buffers.BufferBytes == 0 {
		return []mesh.Vertex{}, nil
	}
	dst := make([]byte, p.buffers.BufferBytes)
	if err := p.dev.Queue().ReadBuffer(ctx, b, 0, dst); err != nil {
		return nil, err
	}
	packed, err := mesh.UnpackBytes(dst)
	if err != nil {
		return nil, err
	}
	return mesh.Positions(packed), nil
}

func (p *Pipeline) enter(s State) {
	p.mu.Lock()
	p.state = s
	p.history = append(p.history, s)
	p.mu.Unlock()
	Logger().Debug("meshsmooth: state", "run", p.RunID, "state", s.String())
}

// fail moves the pipeline to a terminal state and returns the StageError
// for the state that was being entered.
func (p *Pipeline) fail(stage State, err error) error {
	terminal := StateFailed
	if errors.Is(err, compute.ErrTimeout) {
		terminal = StateTimedOut
	}
	p.enter(terminal)
	Logger().Error("meshsmooth: run failed",
		"run", p.RunID,
		"stage", stage.String(),
		"outcome", terminal.String(),
		"err", err)
	return &StageError{Stage: stage, Err: err}
}

// release frees device resources in reverse order of acquisition. While
// the last launch still runs, release is handed to a goroutine that waits
// for it.
func (p *Pipeline) release() {
	steps, kernels, program, buffers := p.steps, p.kernels, p.program, p.buffers
	p.steps, p.kernels, p.program = nil, nil, nil

	free := func() {
		for _, s := range steps {
			s.event.Release()
		}
		for _, k := range kernels {
			k.Release()
		}
		if program != nil {
			program.Release()
		}
		if buffers != nil {
			buffers.Release()
		}
	}

	if len(steps) == 0 || steps[len(steps)-1].event.Done() {
		free()
		return
	}
	last := steps[len(steps)-1]
	Logger().Warn("meshsmooth: deferring release until launch completes",
		"run", p.RunID,
		"kernel", last.kernel)
	go func() {
		if err := last.event.Wait(context.Background()); err != nil {
			Logger().Debug("meshsmooth: in-flight launch ended", "run", p.RunID, "err", err)
		}
		free()
	}()
}
