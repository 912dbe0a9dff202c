// Package main provides the entry point for the bridgemeta CLI tool.
package main

import (
	"github.com/bridgemeta/bridgemeta/cmd/bridgemeta/cmd"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
