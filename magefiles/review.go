//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Review builds the CLI and runs the full review pipeline on a manuscript.
func Review(manuscript string) error {
	mg.Deps(Build)
	bin := filepath.Join(binDir, binName)
	return sh.RunV(bin, "review", manuscript,
		"--output", filepath.Join("output", "reviews", stem(manuscript)+"-review.yaml"))
}

// Persona builds the CLI and ingests a directory of prior reviews.
func Persona(dir string) error {
	mg.Deps(Build)
	bin := filepath.Join(binDir, binName)
	fmt.Println("Ingesting prior reviews from", dir)
	return sh.RunV(bin, "persona", "ingest", dir)
}

func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
