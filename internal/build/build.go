package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/cruciblehq/cruxpkg/internal/native"
	"github.com/cruciblehq/cruxpkg/internal/paths"
	"github.com/cruciblehq/cruxpkg/internal/toolchain"
)

// Binds a source tree to a native build directory.
type ConfigureOptions struct {
	Source      string   // Source root containing the top-level build script.
	BuildDir    string   // Native build directory.
	Definitions []string // Extra native cache definitions from the recipe.
}

// A run whose native build directory has been configured.
type Configured struct {
	run      *lifecycle
	tool     native.Tool
	settings toolchain.Settings
	source   string
	buildDir string
}

// A run whose verification target compiled and passed.
type Built struct {
	run    *lifecycle
	source string
}

// A run whose export rules have been applied.
type Staged struct {
	run   *lifecycle
	Root  string   // Package root directory.
	Files []string // Files written, relative to Root in slash form, sorted.
}

// Validates the settings, locates the native tool and runs its configure step.
//
// Every failure matches [ErrConfiguration]. The native tool's output is
// passed through unmodified.
func Configure(ctx context.Context, tool native.Tool, settings toolchain.Settings, opts ConfigureOptions) (*Configured, error) {
	run := &lifecycle{state: StateUnconfigured}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	if _, err := tool.Locate(); err != nil {
		return nil, fmt.Errorf("%w: locate %s: %w", ErrConfiguration, tool.Name(), err)
	}

	if info, err := os.Stat(opts.Source); err != nil {
		return nil, fmt.Errorf("%w: source: %w", ErrConfiguration, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("%w: source %s is not a directory", ErrConfiguration, opts.Source)
	}

	slog.Info("configuring", "source", opts.Source, "build", opts.BuildDir, "settings", settings.String())

	err := tool.Configure(ctx, native.Configuration{
		Source:      opts.Source,
		BuildDir:    opts.BuildDir,
		Settings:    settings,
		Definitions: opts.Definitions,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	run.advance(StateConfigured)

	return &Configured{
		run:      run,
		tool:     tool,
		settings: settings,
		source:   opts.Source,
		buildDir: opts.BuildDir,
	}, nil
}

// Current position of the run this handle belongs to.
func (c *Configured) State() State { return c.run.state }

// Compiles the tree, then builds and runs the verification target.
//
// The default target is built first; a failure there is a compilation error
// and matches [ErrBuild]. The named target (default "check") is built next;
// since everything is already compiled, the tool failing at that point means
// the checks ran and reported failure, which matches [ErrVerification].
// Any other failure of the named target, such as an interruption, matches
// [ErrBuild] and carries a [TargetError]. Neither is retried. On failure the
// run stays configured.
func (c *Configured) Build(ctx context.Context, target string) (*Built, error) {
	if err := c.run.require(StateConfigured, StateBuilt); err != nil {
		return nil, err
	}
	if target == "" {
		target = DefaultTarget
	}

	buildType := c.settings.CanonicalBuildType()

	slog.Info("compiling", "build", c.buildDir)
	if err := c.tool.Build(ctx, native.Step{BuildDir: c.buildDir, BuildType: buildType}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	slog.Info("verifying", "target", target)
	err := c.tool.Build(ctx, native.Step{BuildDir: c.buildDir, Target: target, BuildType: buildType})
	switch {
	case errors.Is(err, native.ErrToolFailed):
		return nil, fmt.Errorf("%w: %w", ErrVerification, &TargetError{Target: target, Err: err})
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrBuild, &TargetError{Target: target, Err: err})
	}

	c.run.advance(StateBuilt)

	return &Built{run: c.run, source: c.source}, nil
}

// Current position of the run this handle belongs to.
func (b *Built) State() State { return b.run.state }

// Applies every export rule of the descriptor, in order, into root.
//
// Rules whose source is absent are skipped. Copying is idempotent per rule
// but not transactional: a failure leaves already-copied files in place.
// A root that would overlap the sources being read matches [ErrConfiguration].
// Other failures match [ErrCopy] or [ErrFileSystemOperation].
func (b *Built) Package(d Descriptor, root string) (*Staged, error) {
	if err := b.run.require(StateBuilt, StateStaged); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if err := checkOverlap(b.source, root, d); err != nil {
		return nil, err
	}

	slog.Info("staging package", "name", d.Name, "version", d.Version, "output", root)

	if err := os.MkdirAll(root, paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}

	var files []string
	for i, rule := range d.Exports {
		written, err := applyExport(b.source, root, rule)
		if err != nil {
			return nil, fmt.Errorf("export %d (%s): %w", i+1, rule.Src, err)
		}
		files = append(files, written...)
	}

	slices.Sort(files)
	files = slices.Compact(files)

	b.run.advance(StateStaged)

	return &Staged{run: b.run, Root: root, Files: files}, nil
}

// Current position of the run this handle belongs to.
func (s *Staged) State() State { return s.run.state }
