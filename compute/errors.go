// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import "errors"

// Device errors.
var (
	// ErrAllocationFailed is returned when the device cannot allocate a buffer.
	ErrAllocationFailed = errors.New("compute: device allocation failed")

	// ErrKernelLaunch is returned when argument binding or enqueueing fails.
	ErrKernelLaunch = errors.New("compute: kernel launch failed")

	// ErrWait is returned when waiting on an event fails.
	ErrWait = errors.New("compute: wait failed")

	// ErrTimeout is returned when a wait exceeds its deadline.
	ErrTimeout = errors.New("compute: wait timed out")

	// ErrInvalidArg is returned when a kernel argument has the wrong index or type.
	ErrInvalidArg = errors.New("compute: invalid kernel argument")

	// ErrArgNotBound is returned when launching a kernel with unbound arguments.
	ErrArgNotBound = errors.New("compute: kernel argument not bound")

	// ErrUnknownKernel is returned when a program has no kernel with the requested name.
	ErrUnknownKernel = errors.New("compute: unknown kernel")

	// ErrCompile is returned when a kernel library fails to compile.
	ErrCompile = errors.New("compute: program compilation failed")

	// ErrNotComplete is returned when profiling an event that has not completed.
	ErrNotComplete = errors.New("compute: event not complete")

	// ErrReleased is returned when using a released resource.
	ErrReleased = errors.New("compute: resource released")

	// ErrForeignResource is returned when a resource from another backend is passed in.
	ErrForeignResource = errors.New("compute: resource belongs to a different device")
)
