// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// completedEvent is an event that was complete at creation.
type completedEvent struct {
	at time.Time
}

// CompletedEvent returns an event that is already complete, with all
// timestamps set to now. Dispatching zero elements yields one.
func CompletedEvent() Event {
	return completedEvent{at: time.Now()}
}

func (e completedEvent) Wait(context.Context) error { return nil }
func (e completedEvent) Done() bool                 { return true }
func (e completedEvent) Release()                   {}

func (e completedEvent) Profile() (Profile, error) {
	return Profile{Queued: e.at, Started: e.at, Ended: e.at}, nil
}

// WaitAll blocks until every event completes. It returns the first error
// encountered; events after a failing one are not waited on.
func WaitAll(ctx context.Context, events ...Event) error {
	for i, ev := range events {
		if ev == nil {
			continue
		}
		if err := ev.Wait(ctx); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

// WaitError maps a context error observed while waiting to ErrTimeout or
// ErrWait.
func WaitError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrWait, err)
}
