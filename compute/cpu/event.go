// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cpu

import (
	"context"
	"time"

	"github.com/gogpu/meshsmooth/compute"
)

// Event completes when its command has run. Timestamps are host clock
// readings taken by the queue goroutine.
type Event struct {
	done    chan struct{}
	queued  time.Time
	started time.Time
	ended   time.Time
	err     error
}

var _ compute.Event = (*Event)(nil)

func newEvent() *Event {
	return &Event{done: make(chan struct{})}
}

func (e *Event) complete(err error) {
	e.ended = time.Now()
	if e.started.IsZero() {
		e.started = e.ended
	}
	e.err = err
	close(e.done)
}

// Wait blocks until the command finishes or ctx ends.
func (e *Event) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return e.err
	case <-ctx.Done():
		return compute.WaitError(ctx.Err())
	}
}

// Done reports whether the command has finished.
func (e *Event) Done() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Profile returns the command's timestamps.
func (e *Event) Profile() (compute.Profile, error) {
	if !e.Done() {
		return compute.Profile{}, compute.ErrNotComplete
	}
	return compute.Profile{Queued: e.queued, Started: e.started, Ended: e.ended}, nil
}

// Release is a no-op.
func (e *Event) Release() {}
