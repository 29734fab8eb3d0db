// Package main is the entry point for the servwatch CLI.
package main

import (
	"os"

	"github.com/servwatch/servwatch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
