package build

import "fmt"

// Position of a run in the build lifecycle.
//
// Runs only move forward: unconfigured, configured, built, staged. Each
// position has its own handle type ([Configured], [Built], [Staged]) and the
// operation that advances a run is a method on the handle for the state it
// requires, so calling an operation out of order does not compile.
type State int

const (
	StateUnconfigured State = iota
	StateConfigured
	StateBuilt
	StateStaged
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	case StateBuilt:
		return "built"
	case StateStaged:
		return "staged"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Shared by the handles of one run. A handle whose run has already moved
// past it cannot advance the run again.
type lifecycle struct {
	state State
}

// Returns an error matching [ErrState] unless the run is at from.
func (l *lifecycle) require(from, to State) error {
	if l.state != from {
		return fmt.Errorf("%w: cannot move to %s from %s", ErrState, to, l.state)
	}
	return nil
}

func (l *lifecycle) advance(to State) {
	l.state = to
}
