// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"context"
	"time"
)

// Device abstracts over compute backend implementations.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly released via their Release method
//   - Releasing a resource while a kernel still uses it is undefined behavior
//
// Implementations must be safe for concurrent use.
type Device interface {
	// Info describes the device.
	Info() DeviceInfo

	// CreateBuffer allocates device memory. If desc.Contents is non-nil the
	// buffer is initialized from it (copy-on-create); otherwise its contents
	// are undefined until a kernel writes them.
	//
	// Returns an error wrapping ErrAllocationFailed if allocation fails.
	CreateBuffer(desc *BufferDescriptor) (Buffer, error)

	// CreateProgram compiles a kernel library. Kernels are then extracted
	// by name with Program.Kernel.
	CreateProgram(lib *Library) (Program, error)

	// Queue returns the device's in-order command queue.
	Queue() Queue

	// Destroy releases the device. Resources created from it must be
	// released first.
	Destroy()
}

// DeviceInfo describes a compute device.
type DeviceInfo struct {
	// Name is the adapter or implementation name.
	Name string

	// Backend identifies the implementation ("cpu", "vulkan", "noop", ...).
	Backend string

	// MaxBufferSize is the largest buffer the device can allocate, in bytes.
	// Zero means no known limit.
	MaxBufferSize uint64
}

// BufferDescriptor describes a buffer to allocate.
type BufferDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Size is the buffer size in bytes.
	Size uint64

	// Contents, when non-nil, initializes the buffer. len(Contents) must not
	// exceed Size.
	Contents []byte
}

// Buffer is an opaque device memory region.
type Buffer interface {
	// Size returns the buffer size in bytes.
	Size() uint64

	// Label returns the debug label.
	Label() string

	// Release frees the device memory. Safe to call more than once.
	Release()
}

// Program is a compiled kernel library.
type Program interface {
	// Kernel extracts the kernel with the given name. The kernel's preferred
	// granularity is resolved here, once.
	Kernel(name string) (Kernel, error)

	// Release frees the compiled program.
	Release()
}

// Kernel is a compiled entry point with bindable arguments.
type Kernel interface {
	// Name returns the kernel name.
	Name() string

	// PreferredGranularity returns the preferred work-group size multiple.
	// Always >= 1.
	PreferredGranularity() uint32

	// SetArg binds an argument by index. Buffer parameters accept a Buffer,
	// scalar parameters accept uint32, int32 or float32 matching the
	// declared ParamKind. Returns an error wrapping ErrInvalidArg on
	// mismatch.
	SetArg(index int, value any) error

	// Release frees the kernel.
	Release()
}

// Queue is an in-order command queue.
type Queue interface {
	// EnqueueKernel launches k over a 1-D index space of globalSize lanes
	// using the currently bound arguments. The call does not block on
	// device execution. The launch starts only after every event in waitFor
	// has completed.
	EnqueueKernel(k Kernel, globalSize uint32, waitFor ...Event) (Event, error)

	// ReadBuffer copies len(dst) bytes starting at offset from b into dst,
	// after waitFor completes. It blocks until the copy is done.
	ReadBuffer(ctx context.Context, b Buffer, offset uint64, dst []byte, waitFor ...Event) error
}

// Event represents an enqueued operation.
type Event interface {
	// Wait blocks until the operation completes, ctx is done, or the device
	// reports an error. A ctx deadline expiring yields ErrTimeout.
	Wait(ctx context.Context) error

	// Done reports whether the operation has completed, without blocking.
	Done() bool

	// Profile returns the operation's timestamps. Returns ErrNotComplete if
	// the operation has not completed.
	Profile() (Profile, error)

	// Release frees backend resources tracked by the event. Safe to call
	// more than once.
	Release()
}

// Profile holds event timestamps.
type Profile struct {
	// Queued is when the command was enqueued.
	Queued time.Time

	// Started is when execution began.
	Started time.Time

	// Ended is when execution finished.
	Ended time.Time
}

// Elapsed returns the execution time, Ended - Started.
func (p Profile) Elapsed() time.Duration {
	return p.Ended.Sub(p.Started)
}

// Bandwidth returns the effective bandwidth in GB/s for moving bytes over
// d. Returns 0 when d is not positive.
func Bandwidth(bytes uint64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(bytes) / float64(d.Nanoseconds())
}
