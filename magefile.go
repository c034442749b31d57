//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "bin/hatch-mypyc"

// Default target to run when none is specified.
var Default = Check

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet over every package.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs vet, then the tests.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Build compiles the hatch-mypyc CLI. VERSION, when set, is stamped into the
// binary.
func Build() error {
	mg.Deps(Vet)

	ldflags := "-s -w"
	if version := os.Getenv("VERSION"); version != "" {
		ldflags += " -X main.Version=" + version
	}
	return sh.RunWith(map[string]string{"CGO_ENABLED": "0"},
		"go", "build", "-ldflags", ldflags, "-o", binary, "./cmd/hatch-mypyc")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm("bin")
}
