//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "readaloud"

var Default = Build

// Build compiles the readaloud binary into the project root
func Build() error {
	mg.Deps(Vet)
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-o", binary, "./cmd/readaloud")
}

// Test runs all unit tests with the race detector
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet on every package
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Install puts readaloud into GOPATH/bin
func Install() error {
	mg.Deps(Test)
	return sh.RunV("go", "install", "./cmd/readaloud")
}

// Clean removes the binary and the transient clip directory
func Clean() error {
	if err := sh.Rm(binary); err != nil {
		return err
	}
	return sh.Rm(filepath.Join(os.TempDir(), "readaloud-clips"))
}
