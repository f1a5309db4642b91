// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshsmooth

import (
	"errors"
	"fmt"

	"github.com/gogpu/meshsmooth/compute"
)

// Dispatch enqueues k over n elements with arguments (in, out, n). The
// launch size is n rounded up to the kernel's preferred granularity. It
// does not block on execution.
//
// n == 0 enqueues nothing and returns an already-complete event. Binding or
// enqueue failures wrap compute.ErrKernelLaunch.
func Dispatch(q compute.Queue, k compute.Kernel, in, out compute.Buffer, n uint32, waitFor ...compute.Event) (compute.Event, error) {
	return launch(q, k, n, waitFor, in, out, n)
}

// DispatchSmooth enqueues one smoothing pass with arguments
// (in, out, n, offsets, neighbors, lambda). Same contract as Dispatch.
func DispatchSmooth(q compute.Queue, k compute.Kernel, in, out, offsets, neighbors compute.Buffer, n uint32, lambda float32, waitFor ...compute.Event) (compute.Event, error) {
	return launch(q, k, n, waitFor, in, out, n, offsets, neighbors, lambda)
}

func launch(q compute.Queue, k compute.Kernel, n uint32, waitFor []compute.Event, args ...any) (compute.Event, error) {
	if n == 0 {
		return compute.CompletedEvent(), nil
	}
	for i, a := range args {
		if err := k.SetArg(i, a); err != nil {
			return nil, fmt.Errorf("%w: %s: arg %d: %w", compute.ErrKernelLaunch, k.Name(), i, err)
		}
	}

	g := k.PreferredGranularity()
	global := compute.GlobalSize(n, g)
	Logger().Debug("meshsmooth: enqueue",
		"kernel", k.Name(),
		"elements", n,
		"granularity", g,
		"global", global,
		"waits", len(waitFor))

	ev, err := q.EnqueueKernel(k, global, waitFor...)
	if err != nil {
		if !errors.Is(err, compute.ErrKernelLaunch) {
			err = fmt.Errorf("%w: %s: %w", compute.ErrKernelLaunch, k.Name(), err)
		}
		return nil, err
	}
	return ev, nil
}
