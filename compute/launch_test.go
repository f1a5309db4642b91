// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import "testing"

func TestGlobalSize(t *testing.T) {
	tests := []struct {
		name        string
		n           uint32
		granularity uint32
		want        uint32
	}{
		{"1000 at 64", 1000, 64, 1024},
		{"exact multiple", 128, 64, 128},
		{"one element", 1, 64, 64},
		{"zero elements", 0, 64, 0},
		{"granularity one", 7, 1, 7},
		{"granularity zero treated as one", 7, 0, 7},
		{"non power of two", 100, 48, 144},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GlobalSize(tt.n, tt.granularity); got != tt.want {
				t.Errorf("GlobalSize(%d, %d) = %d, want %d", tt.n, tt.granularity, got, tt.want)
			}
		})
	}
}

func TestGlobalSize_MultipleAndCovering(t *testing.T) {
	for _, g := range []uint32{1, 2, 3, 32, 64, 100, 256} {
		for n := uint32(0); n < 600; n++ {
			got := GlobalSize(n, g)
			if got%g != 0 {
				t.Fatalf("GlobalSize(%d, %d) = %d, not a multiple of %d", n, g, got, g)
			}
			if got < n {
				t.Fatalf("GlobalSize(%d, %d) = %d, smaller than element count", n, g, got)
			}
			if got-n >= g {
				t.Fatalf("GlobalSize(%d, %d) = %d, overshoots by a whole group", n, g, got)
			}
		}
	}
}

func TestWorkgroupCount(t *testing.T) {
	tests := []struct {
		global, group, want uint32
	}{
		{1024, 64, 16},
		{0, 64, 0},
		{65, 64, 2},
		{10, 0, 10},
	}
	for _, tt := range tests {
		if got := WorkgroupCount(tt.global, tt.group); got != tt.want {
			t.Errorf("WorkgroupCount(%d, %d) = %d, want %d", tt.global, tt.group, got, tt.want)
		}
	}
}

func TestRoundUp_Uint64(t *testing.T) {
	if got := RoundUp(uint64(17), uint64(16)); got != 32 {
		t.Errorf("RoundUp(17, 16) = %d, want 32", got)
	}
}
