package main

import (
	"log/slog"
	"os"

	"github.com/cruciblehq/cruxpkg/internal"
	"github.com/cruciblehq/cruxpkg/internal/cli"
)

// The entry point for cruxpkg.
//
// Initializes logging, runs the selected command and exits with a code
// identifying the first failing stage.
func main() {
	slog.SetDefault(cli.NewLogger())

	slog.Debug("build", "version", internal.VersionString())

	slog.Debug("cruxpkg is running",
		"pid", os.Getpid(),
		"cwd", cwd(),
		"args", os.Args,
	)

	if err := cli.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(cli.ExitCode(err))
	}
}

// Returns the current working directory or "(unknown)".
func cwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "(unknown)"
	}
	return cwd
}
