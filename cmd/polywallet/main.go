// Package main is the entry point for the polywallet CLI.
package main

import (
	"os"

	"github.com/mrz1836/polywallet/internal/cli"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
//
//nolint:gochecknoglobals // link-time build metadata
var (
	version string
	commit  string
	date    string
)

func main() {
	cli.SetBuildInfo(cli.BuildInfo{Version: version, Commit: commit, Date: date})
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
