// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ScalarSize is the byte size of the uniform block holding one scalar
// argument. Uniform bindings are padded to 16 bytes.
const ScalarSize = 16

// ArgSet holds kernel arguments validated against their declared kinds.
// Backends snapshot it at enqueue time, so rebinding after an enqueue does
// not affect the launched command.
//
// ArgSet is not safe for concurrent use.
type ArgSet struct {
	kernel string
	params []ParamKind
	values []any
}

// NewArgSet creates an empty argument set for a kernel.
func NewArgSet(kernel string, params []ParamKind) *ArgSet {
	return &ArgSet{
		kernel: kernel,
		params: params,
		values: make([]any, len(params)),
	}
}

// Set binds value at index after checking it against the parameter kind.
func (a *ArgSet) Set(index int, value any) error {
	if index < 0 || index >= len(a.params) {
		return fmt.Errorf("%w: %s: index %d out of range [0,%d)", ErrInvalidArg, a.kernel, index, len(a.params))
	}
	kind := a.params[index]
	ok := false
	switch kind {
	case ParamStorageRead, ParamStorageReadWrite:
		var b Buffer
		b, ok = value.(Buffer)
		ok = ok && b != nil
	case ParamUint32:
		_, ok = value.(uint32)
	case ParamInt32:
		_, ok = value.(int32)
	case ParamFloat32:
		_, ok = value.(float32)
	}
	if !ok {
		return fmt.Errorf("%w: %s: arg %d wants %s, got %T", ErrInvalidArg, a.kernel, index, kind, value)
	}
	a.values[index] = value
	return nil
}

// Len returns the number of parameters.
func (a *ArgSet) Len() int { return len(a.params) }

// Kind returns the kind of parameter i.
func (a *ArgSet) Kind(i int) ParamKind { return a.params[i] }

// Snapshot returns a copy of the bound values, or an error wrapping
// ErrArgNotBound if any parameter is unbound.
func (a *ArgSet) Snapshot() ([]any, error) {
	for i, v := range a.values {
		if v == nil {
			return nil, fmt.Errorf("%w: %s: arg %d (%s)", ErrArgNotBound, a.kernel, i, a.params[i])
		}
	}
	out := make([]any, len(a.values))
	copy(out, a.values)
	return out, nil
}

// ScalarBytes encodes a scalar argument as a little-endian uniform block of
// ScalarSize bytes. Returns nil for non-scalar values.
func ScalarBytes(v any) []byte {
	buf := make([]byte, ScalarSize)
	switch s := v.(type) {
	case uint32:
		binary.LittleEndian.PutUint32(buf, s)
	case int32:
		binary.LittleEndian.PutUint32(buf, uint32(s)) //nolint:gosec // bit pattern preserved
	case float32:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(s))
	default:
		return nil
	}
	return buf
}
