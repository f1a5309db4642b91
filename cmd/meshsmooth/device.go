// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"

	"github.com/gogpu/meshsmooth"
	"github.com/gogpu/meshsmooth/compute"
	"github.com/gogpu/meshsmooth/compute/cpu"
)

// openDevice opens the device named by cfg.Device. "auto" tries the GPU
// and falls back to the CPU device.
func openDevice(cfg meshsmooth.Config) (compute.Device, error) {
	switch cfg.Device {
	case meshsmooth.DeviceCPU:
		return cpu.New(cpu.WithWorkers(cfg.Workers)), nil
	case meshsmooth.DeviceGPU:
		return openGPU()
	case meshsmooth.DeviceAuto, "":
		dev, err := openGPU()
		if err == nil {
			return dev, nil
		}
		meshsmooth.Logger().Warn("gpu unavailable, using cpu", "err", err)
		return cpu.New(cpu.WithWorkers(cfg.Workers)), nil
	default:
		return nil, fmt.Errorf("%w: device %q", meshsmooth.ErrConfig, cfg.Device)
	}
}
