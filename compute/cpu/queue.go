// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cpu

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/meshsmooth/compute"
)

// command is one queued operation.
type command struct {
	label   string
	waitFor []compute.Event
	run     func() error
	event   *Event
}

// Queue is an in-order command queue served by a single goroutine.
type Queue struct {
	device *Device

	mu      sync.Mutex
	pending []*command
	closed  bool
	wake    chan struct{}
	stopped chan struct{}
}

var _ compute.Queue = (*Queue)(nil)

func newQueue(d *Device) *Queue {
	q := &Queue{
		device:  d,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go q.loop()
	return q
}

// EnqueueKernel queues a launch of globalSize lanes. It returns as soon as
// the command is queued.
func (q *Queue) EnqueueKernel(k compute.Kernel, globalSize uint32, waitFor ...compute.Event) (compute.Event, error) {
	ck, ok := k.(*Kernel)
	if !ok || ck == nil {
		return nil, fmt.Errorf("%w: kernel %T", compute.ErrForeignResource, k)
	}
	args, err := ck.snapshot()
	if err != nil {
		return nil, err
	}
	group := ck.granularity
	if globalSize%group != 0 {
		return nil, fmt.Errorf("%w: %s: global size %d is not a multiple of %d",
			compute.ErrInvalidArg, ck.spec.Name, globalSize, group)
	}

	pool := q.device.pool
	fn := ck.fn
	cmd := &command{
		label:   ck.spec.Name,
		waitFor: waitFor,
		event:   newEvent(),
		run: func() error {
			return runGroups(pool, fn, args, globalSize, group)
		},
	}
	if err := q.push(cmd); err != nil {
		return nil, err
	}

	compute.Logger().Debug("cpu: kernel enqueued",
		"kernel", ck.spec.Name,
		"global", globalSize,
		"groups", compute.WorkgroupCount(globalSize, group),
		"wait_for", len(waitFor))
	return cmd.event, nil
}

// ReadBuffer copies buffer contents into dst once all earlier commands and
// waitFor have completed. The copy lands in a staging slice and reaches dst
// only after the wait succeeds, so dst is untouched when ctx ends first.
func (q *Queue) ReadBuffer(ctx context.Context, b compute.Buffer, offset uint64, dst []byte, waitFor ...compute.Event) error {
	cb, ok := b.(*Buffer)
	if !ok || cb == nil {
		return fmt.Errorf("%w: buffer %T", compute.ErrForeignResource, b)
	}
	if offset+uint64(len(dst)) > cb.Size() {
		return fmt.Errorf("%w: read [%d,%d) past end of %s (%d bytes)",
			compute.ErrInvalidArg, offset, offset+uint64(len(dst)), cb.Label(), cb.Size())
	}

	staged := make([]byte, len(dst))
	cmd := &command{
		label:   "read " + cb.Label(),
		waitFor: waitFor,
		event:   newEvent(),
		run: func() error {
			if cb.Released() {
				return fmt.Errorf("%w: %s", compute.ErrReleased, cb.Label())
			}
			cb.read(offset, staged)
			return nil
		},
	}
	if err := q.push(cmd); err != nil {
		return err
	}
	if err := cmd.event.Wait(ctx); err != nil {
		return err
	}
	copy(dst, staged)
	return nil
}

func (q *Queue) push(cmd *command) error {
	cmd.event.queued = time.Now()
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("%w: queue closed", compute.ErrKernelLaunch)
	}
	q.pending = append(q.pending, cmd)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

func (q *Queue) loop() {
	defer close(q.stopped)
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return
			}
			<-q.wake
			continue
		}
		cmd := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.execute(cmd)
	}
}

func (q *Queue) execute(cmd *command) {
	ev := cmd.event
	if err := compute.WaitAll(context.Background(), cmd.waitFor...); err != nil {
		ev.complete(fmt.Errorf("%w: %s: dependency failed: %w", compute.ErrWait, cmd.label, err))
		return
	}
	ev.started = time.Now()
	ev.complete(cmd.run())
}

// close stops accepting commands and waits for queued ones to finish.
func (q *Queue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
	<-q.stopped
}

// runGroups splits [0, global) into work-groups and runs them on the pool.
// A panicking lane fails the launch instead of crashing the process.
func runGroups(pool *WorkerPool, fn KernelFunc, args Args, global, group uint32) error {
	groups := compute.WorkgroupCount(global, group)
	if groups == 0 {
		return nil
	}

	var (
		failMu sync.Mutex
		fail   error
	)
	work := make([]func(), groups)
	for g := uint32(0); g < groups; g++ {
		first := g * group
		last := first + group
		work[g] = func() {
			defer func() {
				if r := recover(); r != nil {
					failMu.Lock()
					if fail == nil {
						fail = fmt.Errorf("work-group %d: %v", first/group, r)
					}
					failMu.Unlock()
				}
			}()
			for gid := first; gid < last; gid++ {
				fn(gid, args)
			}
		}
	}
	pool.ExecuteAll(work)
	return fail
}
