package internal

import (
	"fmt"
	"runtime"
	"strings"
)

const (

	// Program name, used for logging groups, XDG subdirectories and env prefixes.
	Name = "cruxpkg"

	// Placeholder for a linker variable that was not set.
	defaultUndefined = "(undefined)"

	// Version string reported by builds made outside the release pipeline.
	defaultLocalBuild = "(local)"

	// Branch whose builds carry no pre-release suffix.
	mainBranch = "main"
)

// Set via -ldflags "-X github.com/cruciblehq/cruxpkg/internal.<name>=<value>".
var (
	version   = "" // Release version, e.g. "0.4.1" or "v0.4.1".
	stage     = "" // Branch the binary was built from.
	gitCommit = "" // Commit hash the binary was built from.

	rawQuiet   = "false" // Default for quiet mode.
	rawDebug   = "false" // Default for debug mode.
	rawVerbose = "false" // Default for verbose mode.
)

// Returns the release version without a leading "v".
func Version() string {
	return normalize(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(version)), "v"))
}

// Returns the branch the binary was built from, lowercased.
func Stage() string {
	return normalize(strings.ToLower(stage))
}

// Returns the commit hash the binary was built from.
func GitCommit() string {
	return normalize(gitCommit)
}

// Returns the architecture the binary was compiled for.
func Arch() string {
	return runtime.GOARCH
}

// Whether any of the release linker variables is missing.
func IsLocal() bool {
	for _, v := range []string{version, gitCommit, stage} {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// Returns "<version>[+<stage>] <commit> [<arch>]", or "(local)" for builds
// made outside the release pipeline. The stage suffix is omitted for main.
func VersionString() string {
	if IsLocal() {
		return defaultLocalBuild
	}

	suffix := ""
	if s := Stage(); s != mainBranch {
		suffix = "+" + s
	}

	return fmt.Sprintf("%s%s %s [%s]", Version(), suffix, GitCommit(), Arch())
}

func normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultUndefined
	}
	return s
}
