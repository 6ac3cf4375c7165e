package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cruciblehq/cruxpkg/internal"
	"github.com/cruciblehq/cruxpkg/internal/build"
	"github.com/cruciblehq/cruxpkg/internal/consumer"
	"github.com/cruciblehq/cruxpkg/internal/native"
	"github.com/cruciblehq/cruxpkg/internal/paths"
	"github.com/cruciblehq/cruxpkg/internal/toolchain"
)

// Represents the 'cruxpkg run' command, the default.
type RunCmd struct {
	CppStd    string `name:"cppstd" env:"CRUXPKG_CPPSTD" default:"${cppstd}" help:"C++ language standard (e.g. 17, gnu20)."`
	OS        string `name:"os" env:"CRUXPKG_OS" default:"${os}" help:"Target operating system."`
	Compiler  string `name:"compiler" env:"CRUXPKG_COMPILER" default:"${compiler}" help:"Compiler family (gcc, clang, apple-clang, msvc) or driver path."`
	BuildType string `name:"build-type" env:"CRUXPKG_BUILD_TYPE" default:"${build_type}" help:"Build type (Debug, Release, RelWithDebInfo, MinSizeRel)."`
	Arch      string `name:"arch" env:"CRUXPKG_ARCH" default:"${arch}" help:"Target architecture."`

	// Locations come from the environment only; the toolchain axes are the
	// command's sole flags.
	Source   string `kong:"-"` // CRUXPKG_SOURCE, default ".".
	Output   string `kong:"-"` // CRUXPKG_OUTPUT, default per-user data directory.
	BuildDir string `kong:"-"` // CRUXPKG_BUILD_DIR, default per-user cache directory.
	CMake    string `kong:"-"` // CRUXPKG_CMAKE, default "cmake".
}

// Fills unset locations from the environment, then from defaults.
func (c *RunCmd) withEnv() {
	for _, v := range []struct {
		field *string
		env   string
		def   string
	}{
		{&c.Source, "CRUXPKG_SOURCE", "."},
		{&c.Output, "CRUXPKG_OUTPUT", ""},
		{&c.BuildDir, "CRUXPKG_BUILD_DIR", ""},
		{&c.CMake, "CRUXPKG_CMAKE", "cmake"},
	} {
		if *v.field != "" {
			continue
		}
		*v.field = os.Getenv(v.env)
		if *v.field == "" {
			*v.field = v.def
		}
	}
}

// Toolchain settings from the command line.
func (c *RunCmd) Settings() toolchain.Settings {
	return toolchain.Settings{
		CppStd:    c.CppStd,
		OS:        c.OS,
		Compiler:  c.Compiler,
		BuildType: c.BuildType,
		Arch:      c.Arch,
	}
}

// Executes the run command.
//
// Loads the recipe, builds and verifies the source tree, stages the package
// and validates it with the consumer program. The first failing stage ends
// the run and its error is returned unchanged. A summary is written to
// stderr unless quiet mode is on.
func (c *RunCmd) Run(ctx context.Context) error {
	rep := &report{}
	err := c.run(ctx, rep)

	if !internal.IsQuiet() {
		fmt.Fprint(os.Stderr, rep.render())
	}

	return err
}

func (c *RunCmd) run(ctx context.Context, rep *report) error {
	c.withEnv()
	settings := c.Settings()

	source, err := filepath.Abs(c.Source)
	if err != nil {
		return fmt.Errorf("%w: %w", build.ErrConfiguration, err)
	}

	d, err := build.LoadDescriptor(source)
	rep.recipe(d, err)
	if err != nil {
		return err
	}

	tool := &native.CMake{Path: c.CMake}

	res, err := build.Run(ctx, tool, build.Options{
		Descriptor: d,
		Settings:   settings,
		Source:     source,
		BuildDir:   c.BuildDir,
		Output:     c.Output,
	})
	rep.orchestrator(res, err)
	if err != nil {
		return err
	}

	consumerDir := paths.ConsumerBuildDir(d.Name, d.Version, settings.ID())
	if c.BuildDir != "" {
		consumerDir = filepath.Join(c.BuildDir, "consumer")
	}

	vres, err := consumer.Validate(ctx, tool, settings, res.Output, d, consumer.Options{
		Source:   filepath.Join(source, filepath.FromSlash(d.Consumer.Source)),
		BuildDir: consumerDir,
		Binary:   d.Consumer.Binary,
	})
	rep.consumer(vres, err)
	if err != nil {
		slog.Warn("staged package kept for inspection", "output", res.Output)
		return err
	}

	slog.Info("package validated", "name", d.Name, "version", d.Version, "output", res.Output)

	return nil
}
