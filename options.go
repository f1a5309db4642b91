// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshsmooth

import (
	"time"

	"github.com/gogpu/meshsmooth/compute"
)

// Option configures a Pipeline during creation.
//
// Example:
//
//	// Defaults: init only, no timeout
//	p := meshsmooth.NewPipeline(dev, src)
//
//	// Four passes, bounded wait
//	p := meshsmooth.NewPipeline(dev, src,
//	    meshsmooth.WithPasses(4),
//	    meshsmooth.WithWaitTimeout(5*time.Second))
type Option func(*pipelineOptions)

// pipelineOptions holds optional configuration for Pipeline creation.
type pipelineOptions struct {
	config  Config
	library *compute.Library
}

// defaultOptions returns the default pipeline options.
func defaultOptions() pipelineOptions {
	return pipelineOptions{
		config:  DefaultConfig(),
		library: nil, // compute.MeshSmoothLibrary() if nil
	}
}

// WithConfig replaces the whole configuration. Options after it still
// apply. Mesh and device settings are ignored by the pipeline; they are
// for the caller that picks the source and device.
func WithConfig(c Config) Option {
	return func(o *pipelineOptions) {
		o.config = c
	}
}

// WithPasses sets the number of smoothing passes run after init.
func WithPasses(n int) Option {
	return func(o *pipelineOptions) {
		o.config.Passes = n
	}
}

// WithLambda sets the smoothing step.
func WithLambda(lambda float32) Option {
	return func(o *pipelineOptions) {
		o.config.Lambda = lambda
	}
}

// WithWaitTimeout bounds the blocking wait on the last dispatch.
// A run that exceeds it ends in StateTimedOut.
func WithWaitTimeout(d time.Duration) Option {
	return func(o *pipelineOptions) {
		o.config.WaitTimeout = Duration(d)
	}
}

// WithReadback copies the final positions into Report.Positions.
func WithReadback(on bool) Option {
	return func(o *pipelineOptions) {
		o.config.Readback = on
	}
}

// WithKernelLibrary replaces the bundled kernel library. The library must
// provide kernels named compute.KernelInit and, when passes are
// requested, compute.KernelLaplacian with the bundled argument layouts.
func WithKernelLibrary(lib *compute.Library) Option {
	return func(o *pipelineOptions) {
		o.library = lib
	}
}
