// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package main

import (
	"github.com/gogpu/meshsmooth/compute"
	"github.com/gogpu/meshsmooth/compute/wgpu"
)

func openGPU() (compute.Device, error) {
	dev, err := wgpu.Open()
	if err != nil {
		return nil, err
	}
	return dev, nil
}
