// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"context"
	"errors"
	"testing"
	"time"
)

// failingEvent reports a fixed error from Wait.
type failingEvent struct{ err error }

func (e failingEvent) Wait(context.Context) error { return e.err }
func (e failingEvent) Done() bool                 { return true }
func (e failingEvent) Release()                   {}
func (e failingEvent) Profile() (Profile, error)  { return Profile{}, e.err }

func TestCompletedEvent(t *testing.T) {
	ev := CompletedEvent()
	if !ev.Done() {
		t.Fatal("CompletedEvent should be done")
	}
	if err := ev.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	p, err := ev.Profile()
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.Elapsed() != 0 {
		t.Errorf("Elapsed = %v, want 0", p.Elapsed())
	}
	ev.Release()
}

func TestWaitAll(t *testing.T) {
	ctx := context.Background()
	if err := WaitAll(ctx); err != nil {
		t.Errorf("WaitAll() = %v", err)
	}
	if err := WaitAll(ctx, CompletedEvent(), nil, CompletedEvent()); err != nil {
		t.Errorf("WaitAll(completed...) = %v", err)
	}

	boom := errors.New("boom")
	err := WaitAll(ctx, CompletedEvent(), failingEvent{err: boom})
	if !errors.Is(err, boom) {
		t.Errorf("WaitAll with failing event = %v, want wrapped boom", err)
	}
}

func TestWaitError(t *testing.T) {
	if WaitError(nil) != nil {
		t.Error("WaitError(nil) should be nil")
	}
	if err := WaitError(context.DeadlineExceeded); !errors.Is(err, ErrTimeout) {
		t.Errorf("WaitError(deadline) = %v, want ErrTimeout", err)
	}
	err := WaitError(context.Canceled)
	if !errors.Is(err, ErrWait) || errors.Is(err, ErrTimeout) {
		t.Errorf("WaitError(canceled) = %v, want ErrWait only", err)
	}
}

func TestBandwidth(t *testing.T) {
	// 2 GB in one second is 2 GB/s.
	if got := Bandwidth(2_000_000_000, time.Second); got != 2 {
		t.Errorf("Bandwidth = %v, want 2", got)
	}
	if got := Bandwidth(100, 0); got != 0 {
		t.Errorf("Bandwidth with zero duration = %v, want 0", got)
	}
}
