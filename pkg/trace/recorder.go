package trace

import (
	"github.com/WebSims/jstrace/pkg/ast"
	"github.com/WebSims/jstrace/pkg/runtime"
)

// Recorder turns evaluator progress into an append-only step list. It owns
// the memval stack (values produced by expressions and not yet consumed)
// and the captured console log; both are snapshotted into every step.
//
// The recorder never returns errors. When the step budget runs out it stops
// appending and raises a flag; the evaluator checks the flag at dispatch
// points and aborts the run.
type Recorder struct {
	scopes *runtime.ScopeStack
	heap   *runtime.Heap
	frames *runtime.CallFrameStack
	sn     *snapshotter

	steps   []*ExecStep
	console []ConsoleEntry
	memval  []runtime.Value
	pending []MemvalChange

	maxSteps int
	limited  bool
}

// NewRecorder wires a recorder to the live machine state it snapshots.
// maxSteps of 0 means unlimited.
func NewRecorder(scopes *runtime.ScopeStack, heap *runtime.Heap, frames *runtime.CallFrameStack, maxSteps int) *Recorder {
	return &Recorder{
		scopes:   scopes,
		heap:     heap,
		frames:   frames,
		sn:       newSnapshotter(),
		maxSteps: maxSteps,
	}
}

// Record appends one step capturing the machine as it stands now, together
// with the memval movements queued since the previous step. Recording is a
// no-op after the step budget is exhausted.
func (r *Recorder) Record(t StepType, node ast.Node, change *MemoryChange) {
	if r.limited {
		return
	}
	if r.maxSteps > 0 && len(r.steps) >= r.maxSteps {
		r.limited = true
		return
	}
	step := &ExecStep{
		Index:         len(r.steps),
		Type:          t,
		Node:          RefOf(node),
		MemoryChange:  change,
		MemvalChanges: r.pending,
		Memory:        r.sn.memory(r.scopes.Chain(), r.heap, r.memval),
		Console:       r.console[:len(r.console):len(r.console)],
		CallDepth:     r.frames.Depth(),
	}
	r.pending = nil
	r.steps = append(r.steps, step)
}

// LimitExceeded reports whether the step budget has run out.
func (r *Recorder) LimitExceeded() bool { return r.limited }

// PushValue puts a produced expression value on the memval stack. The push
// is reported on the next recorded step.
func (r *Recorder) PushValue(v runtime.Value) {
	r.memval = append(r.memval, v)
	r.pending = append(r.pending, MemvalChange{Dir: MemvalPush, Value: SnapshotValue(v)})
}

// PopValue consumes the top memval entry.
func (r *Recorder) PopValue() (runtime.Value, error) {
	if len(r.memval) == 0 {
		return nil, &runtime.InvariantError{Msg: "pop of empty memval stack"}
	}
	v := r.memval[len(r.memval)-1]
	r.memval = r.memval[:len(r.memval)-1]
	r.pending = append(r.pending, MemvalChange{Dir: MemvalPop, Value: SnapshotValue(v)})
	return v, nil
}

// MemvalDepth reports how many produced values await consumption.
func (r *Recorder) MemvalDepth() int { return len(r.memval) }

// TruncateMemval pops down to the given depth, reporting each discarded
// value. Exception unwinding uses this to drop the partial results of
// expressions the throw abandoned.
func (r *Recorder) TruncateMemval(depth int) {
	for len(r.memval) > depth {
		v := r.memval[len(r.memval)-1]
		r.memval = r.memval[:len(r.memval)-1]
		r.pending = append(r.pending, MemvalChange{Dir: MemvalPop, Value: SnapshotValue(v)})
	}
}

// Console appends a captured console call. It becomes visible in the
// console snapshot of the next and all later steps.
func (r *Recorder) Console(method string, args []runtime.Value, text string) {
	entry := ConsoleEntry{Method: method, Text: text}
	for _, a := range args {
		entry.Args = append(entry.Args, SnapshotValue(a))
	}
	r.console = append(r.console, entry)
}

// Steps returns the recorded steps.
func (r *Recorder) Steps() []*ExecStep { return r.steps }

// ConsoleLog returns every captured console entry in order.
func (r *Recorder) ConsoleLog() []ConsoleEntry {
	return r.console[:len(r.console):len(r.console)]
}
