// Package main is the entry point for the hivesnap CLI.
package main

import (
	"os"

	"github.com/gadrian78/he-tokens-snapshot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
