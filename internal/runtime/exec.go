package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/containerd/errdefs"
)

// Sequence counter for generating unique exec identifiers.
var execSeq uint64

// Returns a unique exec identifier, used to correlate log lines.
func nextExecID() string {
	return fmt.Sprintf("exec-%d", atomic.AddUint64(&execSeq, 1))
}

// Describes a process to run on the host.
type Command struct {
	Args   []string  // Program and arguments. Args[0] is resolved via PATH unless it contains a separator.
	Dir    string    // Working directory. Empty uses the current directory.
	Env    []string  // "KEY=value" overrides merged over the current environment.
	Stdout io.Writer // Receives standard output. Nil discards.
	Stderr io.Writer // Receives standard error. Nil discards.
}

// Outcome of a process that ran to completion.
type ExecResult struct {
	ExitCode int // Exit code of the process, -1 if it was killed by a signal.
}

// Runs a command on the host and waits for it to exit.
//
// The exit code is returned as-is; a non-zero code is not an error. Failing to
// start the process returns [ErrLaunch]. If ctx ends while the process is
// running, the process is killed and [ErrInterrupted] is returned.
func Exec(ctx context.Context, c Command) (*ExecResult, error) {
	if len(c.Args) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrLaunch)
	}

	id := nextExecID()
	slog.Debug("exec", "id", id, "args", c.Args, "dir", c.Dir)

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	cmd.Stdout = orDiscard(c.Stdout)
	cmd.Stderr = orDiscard(c.Stderr)
	if len(c.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), c.Env)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLaunch, c.Args[0], err)
	}

	err := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInterrupted, c.Args[0], ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
	default:
		return nil, fmt.Errorf("%w: %s: %w", ErrInterrupted, c.Args[0], err)
	}

	code := cmd.ProcessState.ExitCode()
	slog.Debug("exit", "id", id, "code", code)

	return &ExecResult{ExitCode: code}, nil
}

// Resolves a program name to an executable path.
//
// Names containing a path separator are checked as-is. The returned error
// matches [errdefs.ErrNotFound].
func LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errdefs.ErrNotFound, err)
	}
	return path, nil
}

// Merges override env vars on top of a base env slice. The result is sorted
// by key so child environments are reproducible.
func mergeEnv(base, overrides []string) []string {
	merged := make(map[string]string, len(base)+len(overrides))
	for _, entry := range base {
		if k, v, ok := strings.Cut(entry, "="); ok {
			merged[k] = v
		}
	}
	for _, entry := range overrides {
		if k, v, ok := strings.Cut(entry, "="); ok {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(merged))
	for _, k := range keys {
		result = append(result, k+"="+merged[k])
	}
	return result
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
