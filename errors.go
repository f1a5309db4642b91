// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshsmooth

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is returned for an invalid configuration.
	ErrConfig = errors.New("meshsmooth: invalid config")

	// ErrAlreadyRun is returned when Run is called on a pipeline that has
	// left the Unloaded state.
	ErrAlreadyRun = errors.New("meshsmooth: pipeline already run")

	// ErrNoAdjacency is returned when packing a mesh whose adjacency has
	// not been built.
	ErrNoAdjacency = errors.New("meshsmooth: adjacency not built")
)

// State is a pipeline state.
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateAdjacencyBuilt
	StatePacked
	StateDeviceBuffersReady
	StateDispatched
	StateCompleted
	StateFailed
	StateTimedOut
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "Unloaded"
	case StateLoaded:
		return "Loaded"
	case StateAdjacencyBuilt:
		return "AdjacencyBuilt"
	case StatePacked:
		return "Packed"
	case StateDeviceBuffersReady:
		return "DeviceBuffersReady"
	case StateDispatched:
		return "Dispatched"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	case StateTimedOut:
		return "TimedOut"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateTimedOut
}

// StageError reports the state a pipeline failed to enter.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("meshsmooth: entering %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
