// Package main provides the devprobe CLI.
package main

import (
	"os"

	"github.com/born-ml/devprobe/cmd/devprobe/commands"
)

func main() {
	os.Exit(commands.Run(os.Args[1:], os.Stdout, os.Stderr))
}
