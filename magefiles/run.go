// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Sphere smooths a generated sphere on the best available device.
func (Run) Sphere() error {
	mg.Deps(Build.All)
	fmt.Println("Run meshsmooth on a sphere...")
	_, err := executeCmd("bin/meshsmooth",
		withArgs("-primitive", "sphere", "-cells", "48", "-passes", "8", "-timeout", "30s"),
		withStream())
	return err
}

// File smooths the given OBJ mesh.
func (Run) File(mesh string) error {
	mg.Deps(Build.All)
	_, err := executeCmd("bin/meshsmooth", withArgs("-passes", "4", mesh), withStream())
	return err
}
