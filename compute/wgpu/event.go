// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/meshsmooth/compute"
)

// Poll intervals while waiting for a submission index to complete.
const (
	minPollInterval = 50 * time.Microsecond
	maxPollInterval = 2 * time.Millisecond
)

// releaseTimeout caps how long Release waits for an unfinished submission.
const releaseTimeout = 5 * time.Second

// Event tracks one submission by its queue index. Timestamps are host clock
// readings: queued before submit, started after submit returned, ended when
// the queue first reported the index completed.
type Event struct {
	mu       sync.Mutex
	label    string
	queue    *Queue
	index    uint64
	res      *submitResources
	queued   time.Time
	started  time.Time
	ended    time.Time
	finished atomic.Bool
	released bool
}

var _ compute.Event = (*Event)(nil)

// Wait polls the queue until the submission completes or ctx ends. A
// context deadline yields compute.ErrTimeout; the submission keeps running.
func (e *Event) Wait(ctx context.Context) error {
	if e.Done() {
		return nil
	}
	interval := minPollInterval
	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			if e.Done() {
				return nil
			}
			return compute.WaitError(ctx.Err())
		case <-timer.C:
		}
		if e.Done() {
			return nil
		}
		interval = min(2*interval, maxPollInterval)
		timer.Reset(interval)
	}
}

// Done polls the queue without blocking.
func (e *Event) Done() bool {
	if e.finished.Load() {
		return true
	}
	if e.queue.completed() < e.index {
		return false
	}
	e.mu.Lock()
	if !e.finished.Load() {
		e.ended = time.Now()
		e.finished.Store(true)
	}
	e.mu.Unlock()
	return true
}

// Profile returns host-side submission timestamps. It polls the queue, so
// an event that was never waited on still reports once its work is done.
func (e *Event) Profile() (compute.Profile, error) {
	if !e.Done() {
		return compute.Profile{}, compute.ErrNotComplete
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return compute.Profile{Queued: e.queued, Started: e.started, Ended: e.ended}, nil
}

// Release frees the submission's GPU objects. An unfinished submission is
// waited on for up to releaseTimeout; if it still runs, its objects are
// leaked rather than destroyed while in use.
func (e *Event) Release() {
	if !e.Done() {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		err := e.Wait(ctx)
		cancel()
		if err != nil {
			compute.Logger().Warn("wgpu: releasing unfinished submission",
				"label", e.label,
				"index", e.index,
				"error", err)
			return
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return
	}
	e.released = true
	e.res.cleanup()
}
