package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cruciblehq/cruxpkg/internal/build"
	"github.com/cruciblehq/cruxpkg/internal/native"
	"github.com/cruciblehq/cruxpkg/internal/runtime"
	"github.com/cruciblehq/cruxpkg/internal/toolchain"
)

// Outcome of running the consumer binary. Not persisted.
type Result struct {
	Binary   string // Executable that was run.
	ExitCode int    // Exit status of the process.
}

// Whether the consumer exited zero.
func (r *Result) Passed() bool {
	return r.ExitCode == 0
}

// Runs the consumer binary from its own directory.
//
// The working directory is the binary's directory, so the program can find
// resources relative to itself. Its output goes to this process's stdout and
// stderr unmodified. A binary that cannot be started fails with
// [build.ErrLaunch]. A non-zero exit returns the result together with an
// error matching [build.ErrValidationFailure].
func Run(ctx context.Context, binary string) (*Result, error) {
	abs, err := filepath.Abs(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", build.ErrLaunch, err)
	}

	slog.Info("running consumer", "binary", abs)

	res, err := runtime.Exec(ctx, runtime.Command{
		Args:   []string{abs},
		Dir:    filepath.Dir(abs),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", build.ErrLaunch, err)
	}

	result := &Result{Binary: abs, ExitCode: res.ExitCode}
	if !result.Passed() {
		return result, fmt.Errorf("%w: %s exited with status %d", build.ErrValidationFailure, filepath.Base(abs), res.ExitCode)
	}

	slog.Info("consumer passed", "binary", abs)

	return result, nil
}

// Configures, builds and runs the consumer program against a staged package.
func Validate(ctx context.Context, tool native.Tool, settings toolchain.Settings, pkg string, d build.Descriptor, opts Options) (*Result, error) {
	c, err := Configure(ctx, tool, settings, pkg, d, opts)
	if err != nil {
		return nil, err
	}

	binary, err := Build(ctx, c)
	if err != nil {
		return nil, err
	}

	return Run(ctx, binary)
}
