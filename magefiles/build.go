// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// All builds every package and the meshsmooth command with the GPU backend.
func (Build) All() error {
	if err := goCmd("build", "./..."); err != nil {
		return err
	}
	return goCmd("build", "-o", "bin/meshsmooth", "./cmd/meshsmooth")
}

// NoGPU builds without the wgpu backend; the command then runs on the CPU
// device only.
func (Build) NoGPU() error {
	return goCmd("build", "-tags", "nogpu", "-o", "bin/meshsmooth-cpu", "./cmd/meshsmooth")
}

type Test mg.Namespace

// All runs every test with the race detector.
func (Test) All() error {
	return goCmd("test", "-race", "./...")
}

// NoGPU runs the tests that need no GPU packages.
func (Test) NoGPU() error {
	return goCmd("test", "-tags", "nogpu", "-race", "./...")
}
