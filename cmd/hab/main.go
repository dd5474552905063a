// Package main is the entry point for the hab CLI tool.
package main

import (
	"os"

	"github.com/hab-tool/hab/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
