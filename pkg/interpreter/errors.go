package interpreter

import "fmt"

// DeclarationError reports a duplicate or conflicting lexical declaration.
// It is detected before execution begins, so a run that returns one produced
// no steps at all.
type DeclarationError struct {
	Name string
	Msg  string
}

func (e *DeclarationError) Error() string {
	return fmt.Sprintf("declaration error: %s: %s", e.Name, e.Msg)
}

// LimitError reports an exhausted resource budget. The run aborts but the
// steps recorded so far are still returned: a scrubber can show how far the
// program got.
type LimitError struct {
	Resource string // "steps" or "call_depth"
	Limit    int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s limit of %d exceeded", e.Resource, e.Limit)
}

// UnsupportedError reports syntax the simulator does not model. It is a
// host-level failure, distinct from errors in the simulated program.
type UnsupportedError struct {
	What string
}

func (e *UnsupportedError) Error() string {
	return "unsupported syntax: " + e.What
}

func unsupportedf(format string, args ...any) *UnsupportedError {
	return &UnsupportedError{What: fmt.Sprintf(format, args...)}
}
