// Package main is the checkup command line tool: it analyzes a portfolio file
// locally and prints the full diagnosis.
package main

import (
	"os"

	"github.com/aristath/checkup/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
