// Package main provides the entry point for the midos CLI.
package main

import (
	"os"

	"github.com/MidOSresearch/midos-mcp/cmd/midos/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
