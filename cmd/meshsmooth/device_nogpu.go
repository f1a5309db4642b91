// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build nogpu

package main

import (
	"errors"

	"github.com/gogpu/meshsmooth/compute"
)

func openGPU() (compute.Device, error) {
	return nil, errors.New("built with nogpu")
}
