//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified.
var Default = Build

// Build compiles the cythonext binary into bin/.
func Build() error {
	mg.Deps(Vet)
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", "bin/cythonext", "./cmd/cythonext")
}

// Vet runs go vet on every package.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Test runs the test suite with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm("bin")
}
