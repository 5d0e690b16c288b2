// Package main is the entry point for skindex.
package main

import (
	"os"

	"github.com/skindex/skindex/cmd/skindex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
