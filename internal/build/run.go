package build

import (
	"context"
	"log/slog"

	"github.com/cruciblehq/cruxpkg/internal/native"
	"github.com/cruciblehq/cruxpkg/internal/paths"
	"github.com/cruciblehq/cruxpkg/internal/toolchain"
)

// Controls a full orchestrator run.
type Options struct {
	Descriptor Descriptor         // Package to build and stage.
	Settings   toolchain.Settings // Toolchain axes for the native build.
	Source     string             // Source root.
	BuildDir   string             // Native build directory. Defaults to an XDG cache path keyed by the settings.
	Output     string             // Package root. Defaults to an XDG data path keyed by name and version.
}

// Returned after a successful run.
type Result struct {
	Output   string       // Package root.
	Files    []string     // Files written by the export rules.
	Info     *PackageInfo // Description of the staged layout.
	InfoPath string       // Where Info was written.
}

// Configures, builds and verifies the source tree, then stages the package.
//
// Staging happens only after verification passes; a failed build leaves the
// output directory untouched. An output root overlapping the sources it
// would be staged from is refused before the native tool runs. The first
// failing stage's error is returned unchanged.
func Run(ctx context.Context, tool native.Tool, opts Options) (*Result, error) {
	d := opts.Descriptor
	opts = opts.withDefaults()

	slog.Info("packaging",
		"name", d.Name,
		"version", d.Version,
		"header_only", d.HeaderOnly,
		"exports", len(d.Exports),
	)

	if err := checkOverlap(opts.Source, opts.Output, d); err != nil {
		return nil, err
	}

	configured, err := Configure(ctx, tool, opts.Settings, ConfigureOptions{
		Source:      opts.Source,
		BuildDir:    opts.BuildDir,
		Definitions: d.Target.Definitions,
	})
	if err != nil {
		return nil, err
	}

	built, err := configured.Build(ctx, d.TargetName())
	if err != nil {
		return nil, err
	}

	staged, err := built.Package(d, opts.Output)
	if err != nil {
		return nil, err
	}

	info, err := Describe(staged.Root, d, opts.Settings)
	if err != nil {
		return nil, err
	}

	infoPath, err := WriteInfo(staged.Root, info)
	if err != nil {
		return nil, err
	}

	slog.Info("package staged", "output", staged.Root, "files", len(staged.Files), "digest", info.Digest)

	return &Result{
		Output:   staged.Root,
		Files:    staged.Files,
		Info:     info,
		InfoPath: infoPath,
	}, nil
}

func (o Options) withDefaults() Options {
	d := o.Descriptor
	if o.BuildDir == "" {
		o.BuildDir = paths.BuildDir(d.Name, d.Version, o.Settings.ID())
	}
	if o.Output == "" {
		o.Output = paths.PackageDir(d.Name, d.Version)
	}
	return o
}
