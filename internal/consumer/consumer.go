package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cruciblehq/cruxpkg/internal/build"
	"github.com/cruciblehq/cruxpkg/internal/native"
	"github.com/cruciblehq/cruxpkg/internal/toolchain"
)

// Environment variables the compiler drivers search for headers.
var includePathVars = []string{"CPLUS_INCLUDE_PATH", "CPATH"}

// Locates the consumer program and its build tree.
type Options struct {
	Source   string // Consumer program source directory.
	BuildDir string // Native build directory for the consumer.
	Binary   string // Executable path relative to BuildDir.
}

// A consumer program bound to a staged package.
type Context struct {
	tool     native.Tool
	settings toolchain.Settings
	pkg      string
	buildDir string
	binary   string
}

// Checks the staged layout and configures the consumer program against it.
//
// Every include root the descriptor declares must exist under pkg; this is
// checked before the native tool is invoked. The package's include directory
// is exposed through the compilers' include path environment and through
// CMAKE_PREFIX_PATH. All failures match [build.ErrConfiguration].
func Configure(ctx context.Context, tool native.Tool, settings toolchain.Settings, pkg string, d build.Descriptor, opts Options) (*Context, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", build.ErrConfiguration, err)
	}

	if err := checkLayout(pkg, d); err != nil {
		return nil, err
	}

	if _, err := tool.Locate(); err != nil {
		return nil, fmt.Errorf("%w: locate %s: %w", build.ErrConfiguration, tool.Name(), err)
	}

	include := filepath.Join(pkg, "include")

	slog.Info("configuring consumer", "source", opts.Source, "package", pkg, "header_only", d.HeaderOnly)

	err := tool.Configure(ctx, native.Configuration{
		Source:   opts.Source,
		BuildDir: opts.BuildDir,
		Settings: settings,
		Definitions: []string{
			"-DCMAKE_PREFIX_PATH=" + pkg,
			"-DCMAKE_INCLUDE_PATH=" + include,
		},
		Env: includeEnv(include),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: consumer: %w", build.ErrConfiguration, err)
	}

	binary := opts.Binary
	if binary == "" {
		binary = build.DefaultConsumerBinary
	}

	return &Context{
		tool:     tool,
		settings: settings,
		pkg:      pkg,
		buildDir: opts.BuildDir,
		binary:   filepath.Join(opts.BuildDir, filepath.FromSlash(binary)),
	}, nil
}

// Compiles the consumer program and returns the path to its executable.
//
// A compilation failure means the staged package is not consumable and
// matches [build.ErrBuild], as does a build that succeeds without producing
// the expected executable.
func Build(ctx context.Context, c *Context) (string, error) {
	slog.Info("building consumer", "build", c.buildDir)

	err := c.tool.Build(ctx, native.Step{
		BuildDir:  c.buildDir,
		BuildType: c.settings.CanonicalBuildType(),
		Env:       includeEnv(filepath.Join(c.pkg, "include")),
	})
	if err != nil {
		return "", fmt.Errorf("%w: consumer: %w", build.ErrBuild, err)
	}

	info, err := os.Stat(c.binary)
	if err != nil {
		return "", fmt.Errorf("%w: consumer binary: %w", build.ErrBuild, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: consumer binary %s is a directory", build.ErrBuild, c.binary)
	}

	return c.binary, nil
}

// Fails unless every declared include root is a directory under pkg. A
// descriptor without include roots still requires pkg/include.
func checkLayout(pkg string, d build.Descriptor) error {
	roots := d.IncludeRoots()
	if len(roots) == 0 {
		roots = []string{"include"}
	}

	var missing []string
	for _, root := range roots {
		info, err := os.Stat(filepath.Join(pkg, filepath.FromSlash(root)))
		if err != nil || !info.IsDir() {
			missing = append(missing, root)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: package %s is missing include roots: %s", build.ErrConfiguration, pkg, strings.Join(missing, ", "))
	}
	return nil
}

// Prepends dir to the compilers' include path variables.
func includeEnv(dir string) []string {
	env := make([]string, 0, len(includePathVars))
	for _, name := range includePathVars {
		value := dir
		if prev := os.Getenv(name); prev != "" {
			value += string(os.PathListSeparator) + prev
		}
		env = append(env, name+"="+value)
	}
	return env
}
