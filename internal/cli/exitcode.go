package cli

import (
	"errors"

	"github.com/cruciblehq/cruxpkg/internal/build"
)

// Process exit codes. Each failure class has its own code so wrappers can
// tell which stage stopped the run without parsing output.
const (
	ExitSuccess           = 0
	ExitFailure           = 1
	ExitConfiguration     = 2
	ExitBuild             = 3
	ExitVerification      = 4
	ExitLaunch            = 5
	ExitValidationFailure = 6
)

// Returns the exit code for the error returned by Execute.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, build.ErrConfiguration):
		return ExitConfiguration
	case errors.Is(err, build.ErrVerification):
		return ExitVerification
	case errors.Is(err, build.ErrBuild):
		return ExitBuild
	case errors.Is(err, build.ErrLaunch):
		return ExitLaunch
	case errors.Is(err, build.ErrValidationFailure):
		return ExitValidationFailure
	default:
		return ExitFailure
	}
}
