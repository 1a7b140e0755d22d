// Package main is the entry point for the assetflow CLI binary.
package main

import (
	"os"

	cli "assetflow/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
