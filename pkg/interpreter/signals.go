package interpreter

import "github.com/WebSims/jstrace/pkg/runtime"

// Non-local control flow travels as error values through the recursive
// evaluator. Each construct that terminates a signal unwraps it; a signal
// that escapes its legal extent is an invariant violation caught at the top.

type returnSignal struct {
	value runtime.Value
}

func (returnSignal) Error() string { return "return outside function body" }

type throwSignal struct {
	value runtime.Value
}

func (throwSignal) Error() string { return "uncaught exception" }

type breakSignal struct{}

func (breakSignal) Error() string { return "break outside loop" }

type continueSignal struct{}

func (continueSignal) Error() string { return "continue outside loop" }
