// Package main is the querypilot CLI entrypoint.
package main

import (
	"os"

	"github.com/querypilot/querypilot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
