// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import "golang.org/x/exp/constraints"

// RoundUp returns n rounded up to the next multiple of m.
// m must be > 0.
func RoundUp[T constraints.Unsigned](n, m T) T {
	return (n + m - 1) / m * m
}

// GlobalSize returns the launch size for elementCount elements at the given
// granularity: ceil(elementCount/granularity) * granularity. A granularity
// of 0 is treated as 1. Zero elements yield zero.
func GlobalSize(elementCount, granularity uint32) uint32 {
	if granularity == 0 {
		granularity = 1
	}
	return RoundUp(elementCount, granularity)
}

// WorkgroupCount returns the number of work-groups of size groupSize needed
// to cover globalSize lanes.
func WorkgroupCount(globalSize, groupSize uint32) uint32 {
	if groupSize == 0 {
		groupSize = 1
	}
	return (globalSize + groupSize - 1) / groupSize
}
