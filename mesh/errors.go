// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import "errors"

var (
	// ErrFileOpen is returned when a mesh file cannot be opened.
	ErrFileOpen = errors.New("mesh: cannot open file")

	// ErrParse is returned when a mesh file contains a record the loader
	// cannot read. The accompanying *Mesh is empty.
	ErrParse = errors.New("mesh: parse failed")

	// ErrIndexOutOfRange is returned when a triangle references a vertex
	// outside [0, vertex count).
	ErrIndexOutOfRange = errors.New("mesh: vertex index out of range")

	// ErrPackedSize is returned when packed vertex data is not a whole
	// number of records.
	ErrPackedSize = errors.New("mesh: packed data size is not a multiple of 16")

	// ErrUnknownShape is returned for an unsupported primitive shape.
	ErrUnknownShape = errors.New("mesh: unknown primitive shape")
)
