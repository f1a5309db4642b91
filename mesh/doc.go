// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package mesh holds triangle meshes and the host-side preparation needed
// before they go to a compute device.
//
// A Mesh is loaded from a Wavefront OBJ file (LoadOBJ, ParseOBJ) or
// generated from a signed distance field (Primitive). BuildAdjacency
// derives each vertex's one-ring neighbor list, and PackVertices lays the
// positions out as 16-byte (x, y, z, 0) records. Adjacency.CSR flattens the
// neighbor lists into offset and index arrays that a kernel can walk.
//
// Mesh and Adjacency values are not modified after construction and may be
// shared between goroutines.
package mesh
