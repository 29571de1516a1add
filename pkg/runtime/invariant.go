package runtime

import "fmt"

// InvariantError reports a broken interpreter invariant: a scope popped with
// the wrong kind, a property write against a ref the heap never issued, and
// the like. These are simulator bugs, never user-program errors, and callers
// must abort the run when one surfaces.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "invariant violation: " + e.Msg }

func invariantf(format string, args ...any) *InvariantError {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}
