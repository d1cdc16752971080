//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for playersheet using Mage.
//
// Usage:
//
//	mage build          Compile playersheet and playerctl to bin/
//	mage test:all       Run all tests
//	mage test:short     Run tests without the slower end-to-end cases
//	mage test:cover     Run all tests with a coverage profile
//	mage lint           Run go vet and golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install both binaries to GOPATH/bin
//	mage serve          Build and run the server against the local sqlite sheet
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo     = "go"
	binaryDir = "bin"
)

// binaries maps each binary name to its main package.
var binaries = map[string]string{
	"playersheet": "./cmd/playersheet",
	"playerctl":   "./cmd/playerctl",
}

// Build compiles both binaries to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	for name, pkg := range binaries {
		if err := sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, name), pkg); err != nil {
			return err
		}
	}
	return nil
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	os.Remove(coverProfile)
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binaries to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	for name := range binaries {
		if err := sh.Copy(filepath.Join(gopath, "bin", name), filepath.Join(binaryDir, name)); err != nil {
			return err
		}
	}
	return nil
}

// Serve builds and starts the server on the local sqlite sheet.
func Serve() error {
	mg.Deps(Build)
	env := map[string]string{"SHEET_BACKEND": "sqlite"}
	return sh.RunWithV(env, filepath.Join(binaryDir, "playersheet"), "serve")
}
