package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/cruciblehq/cruxpkg/internal"
	"github.com/cruciblehq/cruxpkg/internal/toolchain"
)

// Represents the root command for cruxpkg.
type Root struct {
	Quiet   bool       `short:"q" help:"Suppress informational output."`
	Verbose bool       `short:"v" help:"Enable verbose output."`
	Debug   bool       `short:"d" help:"Enable debug output."`
	Run     RunCmd     `cmd:"" default:"withargs" help:"Build, verify, stage and validate the package (default)."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Parsed command line.
var RootCmd Root

// Level shared by the default logger, adjusted once flags are parsed.
var logLevel = new(slog.LevelVar)

// Creates a stderr logger reflecting the current modes. Verbose mode adds
// source locations.
//
// Called from main with the build-time defaults and again by Execute once
// flags are parsed.
func NewLogger() *slog.Logger {
	logLevel.Set(internal.LogLevel())
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: internal.IsVerbose(),
	}))
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd, options(ctx)...)

	configureLogger(RootCmd)

	return kongCtx.Run()
}

// Kong options shared by Execute and tests.
func options(ctx context.Context) []kong.Option {
	return []kong.Option{
		kong.Name(internal.Name),
		kong.Description("Builds, verifies and stages a header-only C++ package, then validates it with a consumer program."),
		kong.UsageOnError(),
		kong.Vars(hostVars()),
		kong.BindTo(ctx, (*context.Context)(nil)),
	}
}

// Default values for the toolchain flags, describing the host.
func hostVars() kong.Vars {
	host := toolchain.Host()
	return kong.Vars{
		"version":    internal.VersionString(),
		"cppstd":     host.CppStd,
		"os":         host.OS,
		"compiler":   host.Compiler,
		"build_type": host.BuildType,
		"arch":       host.Arch,
	}
}

// Applies verbosity flags on top of the build-time defaults and replaces the
// default logger.
func configureLogger(root Root) {
	internal.SetDebug(root.Debug || internal.IsDebug())
	internal.SetQuiet(root.Quiet || internal.IsQuiet())
	internal.SetVerbose(root.Verbose || internal.IsVerbose())

	slog.SetDefault(NewLogger())
}
