package native

import (
	"context"
	"errors"

	"github.com/cruciblehq/cruxpkg/internal/toolchain"
)

var (
	ErrToolFailed = errors.New("native build tool failed")
)

// Inputs for binding a source tree to a build directory.
type Configuration struct {
	Source      string             // Directory containing the top-level build script.
	BuildDir    string             // Directory for generated build files. Created if missing.
	Settings    toolchain.Settings // Toolchain axes. Must be valid.
	Definitions []string           // Extra "-DNAME=value" cache definitions.
	Env         []string           // Extra "KEY=value" environment for the tool.
}

// Inputs for building one target in a configured build directory.
type Step struct {
	BuildDir  string   // Directory previously passed to Configure.
	Target    string   // Target to build. Empty builds the default target.
	BuildType string   // Configuration for multi-config generators.
	Env       []string // Extra "KEY=value" environment for the tool.
}

// External build tool.
//
// Configure and Build return an error matching [ErrToolFailed] when the tool
// runs but exits non-zero. Any other error means the tool could not be run.
type Tool interface {
	Name() string                                         // Human-readable tool name, for logs.
	Locate() (string, error)                              // Resolves the tool executable.
	Configure(ctx context.Context, c Configuration) error // Runs the configure step.
	Build(ctx context.Context, s Step) error              // Builds one target.
}
