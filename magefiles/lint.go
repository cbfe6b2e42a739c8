//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binLint  = "golangci-lint"
	binGofmt = "gofmt"
)

// srcDirs are the directories holding criminalintent sources.
var srcDirs = []string{"cmd", "internal", "pkg", "magefiles"}

// Lint checks formatting, runs go vet, then golangci-lint when it is
// installed.
func Lint() error {
	mg.SerialDeps(Fmt, Vet)
	if _, err := exec.LookPath(binLint); err != nil {
		fmt.Println("golangci-lint not found, skipping")
		return nil
	}
	return sh.RunV(binLint, "run", "./...")
}

// Fmt fails if any source file needs gofmt.
func Fmt() error {
	out, err := sh.Output(binGofmt, append([]string{"-l"}, srcDirs...)...)
	if err != nil {
		return err
	}
	if files := strings.TrimSpace(out); files != "" {
		return fmt.Errorf("files need gofmt:\n%s", files)
	}
	return nil
}

// Vet runs go vet on every package.
func Vet() error {
	return sh.RunV(binGo, "vet", "./...")
}
