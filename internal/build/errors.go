package build

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

// Failure classes surfaced to the invoker. Each stage wraps its failure in
// exactly one of the first five; none is downgraded by a later stage.
var (
	ErrConfiguration     = errors.New("configuration failed")
	ErrBuild             = errors.New("build failed")
	ErrVerification      = errors.New("verification failed")
	ErrLaunch            = errors.New("launch failed")
	ErrValidationFailure = errors.New("validation failed")
)

var (
	ErrState               = fmt.Errorf("illegal state transition: %w", errdefs.ErrFailedPrecondition)
	ErrFileSystemOperation = errors.New("file system operation failed")
	ErrCopy                = errors.New("copy failed")
)

// Failure of a named build target, as opposed to compiling the tree.
type TargetError struct {
	Target string
	Err    error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("target %s: %v", e.Target, e.Err)
}

func (e *TargetError) Unwrap() error { return e.Err }
