package interpreter

import (
	"github.com/WebSims/jstrace/pkg/ast"
	"github.com/WebSims/jstrace/pkg/runtime"
	"github.com/WebSims/jstrace/pkg/trace"
)

// Options bound a run and fix the policy knobs the language leaves open.
type Options struct {
	// MaxSteps caps the recorded step count; user loops can be infinite.
	MaxSteps int
	// MaxCallDepth caps call-frame nesting.
	MaxCallDepth int
	// ImplicitGlobalDeclare makes assignment to an undeclared identifier
	// declare a var in the program scope (sloppy-mode behavior). When off
	// the assignment throws a reference error instead.
	ImplicitGlobalDeclare bool
}

func DefaultOptions() Options {
	return Options{
		MaxSteps:              10000,
		MaxCallDepth:          128,
		ImplicitGlobalDeclare: true,
	}
}

// Simulator runs a program AST and produces its step trace. A Simulator is
// stateless between runs; the trace is a pure function of the AST and the
// options.
type Simulator struct {
	opts Options
}

func New(opts Options) *Simulator {
	def := DefaultOptions()
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = def.MaxSteps
	}
	if opts.MaxCallDepth <= 0 {
		opts.MaxCallDepth = def.MaxCallDepth
	}
	return &Simulator{opts: opts}
}

// execState is the interpreter context threaded through every evaluator
// call: the live scope chain, the heap arena, the call frames, and the
// recorder every mutation funnels through. No interpreter state lives
// outside it.
type execState struct {
	scopes *runtime.ScopeStack
	heap   *runtime.Heap
	frames *runtime.CallFrameStack
	rec    *trace.Recorder
	opts   Options
}

// Run simulates the program and returns its trace.
//
//   - duplicate lexical declarations return (nil, *DeclarationError) with no
//     steps recorded;
//   - exhausted budgets return the partial trace plus a *LimitError;
//   - invariant violations and unsupported syntax return (nil, error);
//   - an uncaught throw in the simulated program is a normal result: the
//     trace carries OutcomeThrew and the thrown value, and still ends with
//     SCRIPT_EXECUTED.
func (s *Simulator) Run(program *ast.Program) (*trace.Trace, error) {
	if program == nil {
		return nil, &runtime.InvariantError{Msg: "nil program"}
	}
	if err := validateProgram(program); err != nil {
		return nil, err
	}

	scopes := runtime.NewScopeStack()
	heap := runtime.NewHeap()
	frames := runtime.NewCallFrameStack()
	rec := trace.NewRecorder(scopes, heap, frames, s.opts.MaxSteps)
	st := &execState{scopes: scopes, heap: heap, frames: frames, rec: rec, opts: s.opts}

	rec.Record(trace.StepInitial, program, nil)

	progScope := scopes.Push(runtime.ScopeKindProgram)
	rec.Record(trace.StepPushScope, program, pushChange(progScope))
	st.hoistFunctionScope(program.Body)
	rec.Record(trace.StepHoisting, program, nil)

	runErr := st.execStatements(program.Body)

	outcome := trace.OutcomeCompleted
	var errVal *trace.ValueSnapshot
	if runErr != nil {
		switch e := runErr.(type) {
		case throwSignal:
			outcome = trace.OutcomeThrew
			errVal = trace.SnapshotValue(e.value)
			rec.TruncateMemval(0)
		case *LimitError:
			return &trace.Trace{Steps: rec.Steps(), Outcome: trace.OutcomeAborted}, e
		default:
			return nil, runErr
		}
	}

	if _, err := scopes.Pop(runtime.ScopeKindProgram); err != nil {
		return nil, err
	}
	rec.Record(trace.StepPopScope, program, popChange(progScope))
	rec.Record(trace.StepScriptExecuted, program, nil)
	if rec.LimitExceeded() {
		return &trace.Trace{Steps: rec.Steps(), Outcome: trace.OutcomeAborted},
			&LimitError{Resource: "steps", Limit: s.opts.MaxSteps}
	}
	if rec.MemvalDepth() != 0 {
		return nil, &runtime.InvariantError{Msg: "memval stack not empty at script end"}
	}
	return &trace.Trace{Steps: rec.Steps(), Outcome: outcome, ErrorValue: errVal}, nil
}

// checkBudget aborts dispatch once the recorder has refused a step.
func (st *execState) checkBudget() error {
	if st.rec.LimitExceeded() {
		return &LimitError{Resource: "steps", Limit: st.opts.MaxSteps}
	}
	return nil
}

// pop consumes the top memval entry; the pop is reported on the next step.
func (st *execState) pop() (runtime.Value, error) {
	return st.rec.PopValue()
}

// currentThis resolves `this` for the innermost active frame; top-level
// code sees undefined.
func (st *execState) currentThis() runtime.Value {
	if f := st.frames.Current(); f != nil && f.This != nil {
		return f.This
	}
	return runtime.UndefinedValue{}
}

func (st *execState) throwString(name, msg string) throwSignal {
	return throwSignal{value: runtime.StringValue{Val: name + ": " + msg}}
}

func pushChange(s *runtime.Scope) *trace.MemoryChange {
	return &trace.MemoryChange{Kind: trace.ChangePushScope, ScopeKind: s.Kind().String(), ScopeID: s.ID()}
}

func popChange(s *runtime.Scope) *trace.MemoryChange {
	return &trace.MemoryChange{Kind: trace.ChangePopScope, ScopeKind: s.Kind().String(), ScopeID: s.ID()}
}

func writeVarChange(name string, v runtime.Value) *trace.MemoryChange {
	return &trace.MemoryChange{Kind: trace.ChangeWriteVar, Name: name, Value: trace.SnapshotValue(v)}
}

func writePropChange(ref runtime.HeapRef, key string, v runtime.Value) *trace.MemoryChange {
	return &trace.MemoryChange{Kind: trace.ChangeWriteProp, Ref: int(ref), Property: key, Value: trace.SnapshotValue(v)}
}

func allocChange(ref runtime.HeapRef) *trace.MemoryChange {
	return &trace.MemoryChange{Kind: trace.ChangeAllocate, Ref: int(ref)}
}
