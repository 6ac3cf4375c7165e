package native

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cruciblehq/cruxpkg/internal/paths"
	"github.com/cruciblehq/cruxpkg/internal/runtime"
)

// Default name of the cmake executable.
const defaultCMake = "cmake"

// Drives cmake.
type CMake struct {
	Path      string    // Executable name or path. Empty uses "cmake" from PATH.
	Generator string    // Generator passed via -G. Empty uses cmake's default.
	Stdout    io.Writer // Receives the tool's stdout. Nil uses os.Stdout.
	Stderr    io.Writer // Receives the tool's stderr. Nil uses os.Stderr.
}

// Returns "cmake".
func (c *CMake) Name() string {
	return defaultCMake
}

// Resolves the cmake executable. The error matches errdefs.ErrNotFound.
func (c *CMake) Locate() (string, error) {
	return runtime.LookPath(c.executable())
}

// Runs "cmake -S <source> -B <build> [-G <gen>] -D...".
func (c *CMake) Configure(ctx context.Context, cfg Configuration) error {
	if err := os.MkdirAll(cfg.BuildDir, paths.DefaultDirMode); err != nil {
		return err
	}
	return c.run(ctx, c.configureArgs(cfg), cfg.Env)
}

// Runs "cmake --build <build> [--target <t>] [--config <type>]".
func (c *CMake) Build(ctx context.Context, s Step) error {
	return c.run(ctx, c.buildArgs(s), s.Env)
}

func (c *CMake) configureArgs(cfg Configuration) []string {
	args := []string{c.executable(), "-S", cfg.Source, "-B", cfg.BuildDir}
	if c.Generator != "" {
		args = append(args, "-G", c.Generator)
	}
	args = append(args, cfg.Settings.Definitions()...)
	return append(args, cfg.Definitions...)
}

func (c *CMake) buildArgs(s Step) []string {
	args := []string{c.executable(), "--build", s.BuildDir}
	if s.Target != "" {
		args = append(args, "--target", s.Target)
	}
	if s.BuildType != "" {
		args = append(args, "--config", s.BuildType)
	}
	return args
}

func (c *CMake) run(ctx context.Context, args, env []string) error {
	slog.Info("running native build tool", "args", args)

	res, err := runtime.Exec(ctx, runtime.Command{
		Args:   args,
		Env:    env,
		Stdout: writerOr(c.Stdout, os.Stdout),
		Stderr: writerOr(c.Stderr, os.Stderr),
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%w: %s exited with code %d", ErrToolFailed, c.Name(), res.ExitCode)
	}
	return nil
}

func (c *CMake) executable() string {
	if c.Path != "" {
		return c.Path
	}
	return defaultCMake
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}
