// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package meshsmooth drives a triangle mesh through a compute device.
//
// # Overview
//
// A run loads a mesh, derives each vertex's one-ring neighbors, packs
// positions and adjacency into device buffers and dispatches kernels
// against an abstract compute device, timing each dispatch.
//
// # Quick Start
//
//	dev := cpu.New()
//	defer dev.Destroy()
//
//	p := meshsmooth.NewPipeline(dev, mesh.FileSource{Path: "bunny.obj"},
//	    meshsmooth.WithPasses(4),
//	    meshsmooth.WithLambda(0.5),
//	    meshsmooth.WithWaitTimeout(10*time.Second),
//	)
//	report, err := p.Run(ctx)
//	if err != nil {
//	    var se *meshsmooth.StageError
//	    if errors.As(err, &se) { ... }
//	}
//	fmt.Println(report)
//
// # Pipeline
//
// Run walks the states
//
//	Unloaded → Loaded → AdjacencyBuilt → Packed → DeviceBuffersReady → Dispatched → Completed
//
// with one step per arrow. A failing step moves the pipeline to Failed, or
// to TimedOut when the final wait exceeds Config.WaitTimeout, and Run
// returns a *StageError naming the state that was being entered. Device
// buffers are released when Run returns.
//
// The init kernel copies the input positions into the output buffer.
// Each of Config.Passes smoothing passes then moves every vertex toward the
// mean of its neighbors, ping-ponging between the two buffers. Every
// enqueue names the previous one as a wait dependency, and the host blocks
// once, on the last event.
//
// # Devices
//
// Devices implement compute.Device. compute/cpu runs kernels on a goroutine
// pool; compute/wgpu runs the WGSL kernels on a GPU through gogpu/wgpu.
//
// # Logging
//
// The package is silent by default. SetLogger enables structured logging
// here and in the compute backends.
package meshsmooth
