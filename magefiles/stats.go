//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// pkgStats counts lines and test functions in one package directory.
type pkgStats struct {
	Package   string `json:"package"`
	ProdLines int    `json:"prod_lines"`
	TestLines int    `json:"test_lines"`
	Tests     int    `json:"tests"`
}

// Stats prints line and test counts per package as JSON, one package per
// line, followed by a total. Build tooling is left out.
func Stats() error {
	byPkg := map[string]*pkgStats{}
	for _, root := range []string{"cmd", "internal", "pkg"} {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".go") {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			dir := filepath.ToSlash(filepath.Dir(path))
			st := byPkg[dir]
			if st == nil {
				st = &pkgStats{Package: dir}
				byPkg[dir] = st
			}
			lines := bytes.Count(data, []byte("\n"))
			if strings.HasSuffix(path, "_test.go") {
				st.TestLines += lines
				st.Tests += bytes.Count(data, []byte("\nfunc Test"))
			} else {
				st.ProdLines += lines
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	dirs := make([]string, 0, len(byPkg))
	for dir := range byPkg {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	enc := json.NewEncoder(os.Stdout)
	total := pkgStats{Package: "total"}
	for _, dir := range dirs {
		st := byPkg[dir]
		total.ProdLines += st.ProdLines
		total.TestLines += st.TestLines
		total.Tests += st.Tests
		if err := enc.Encode(st); err != nil {
			return err
		}
	}
	return enc.Encode(total)
}
