//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Test groups test targets (all, race, cover, package).
type Test mg.Namespace

// All runs every test.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "./...")
}

// Race runs every test with the race detector. The session and the watch
// command are the concurrent parts.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Cover runs every test and prints per-function coverage.
func (Test) Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile="+coverFile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func="+coverFile)
}

// Package runs the tests of the package named by PKG, relative to the
// module root.
func (Test) Package() error {
	pkg := strings.Trim(os.Getenv("PKG"), "/")
	if pkg == "" {
		return fmt.Errorf("set PKG, for example PKG=internal/sqlite")
	}
	return sh.RunV(binGo, "test", "-v", "./"+pkg+"/...")
}
