package trace

import (
	"github.com/WebSims/jstrace/pkg/ast"
)

// StepType labels what the simulator did to produce a step.
type StepType string

const (
	StepInitial        StepType = "INITIAL"
	StepPushScope      StepType = "PUSH_SCOPE"
	StepHoisting       StepType = "HOISTING"
	StepPopScope       StepType = "POP_SCOPE"
	StepExecuting      StepType = "EXECUTING"
	StepExecuted       StepType = "EXECUTED"
	StepEvaluating     StepType = "EVALUATING"
	StepEvaluated      StepType = "EVALUATED"
	StepFunctionCall   StepType = "FUNCTION_CALL"
	StepScriptExecuted StepType = "SCRIPT_EXECUTED"
)

// NodeRef identifies the AST node a step concerns. The Node pointer gives
// in-process identity; Type and Range travel in serialized traces.
type NodeRef struct {
	Node  ast.Node `json:"-"`
	Type  string   `json:"type"`
	Range [2]int   `json:"range"`
}

func RefOf(node ast.Node) *NodeRef {
	if node == nil {
		return nil
	}
	return &NodeRef{
		Node:  node,
		Type:  string(node.NodeType()),
		Range: node.SourceRange(),
	}
}

// ChangeKind labels the memory mutation a step carries.
type ChangeKind string

const (
	ChangePushScope ChangeKind = "push_scope"
	ChangePopScope  ChangeKind = "pop_scope"
	ChangeWriteVar  ChangeKind = "write_variable"
	ChangeWriteProp ChangeKind = "write_property"
	ChangeAllocate  ChangeKind = "allocate_heap_object"
	ChangeDeclare   ChangeKind = "declare_variable"
)

// MemoryChange describes the single mutation (or scope transition) attached
// to a step. Fields beyond Kind are populated per kind.
type MemoryChange struct {
	Kind ChangeKind `json:"kind"`

	ScopeKind string `json:"scopeKind,omitempty"`
	ScopeID   int    `json:"scopeId,omitempty"`

	Name     string         `json:"name,omitempty"`
	Property string         `json:"property,omitempty"`
	Ref      int            `json:"ref,omitempty"`
	Value    *ValueSnapshot `json:"value,omitempty"`
}

// MemvalDir says whether a memval change pushed a produced value or popped
// a consumed one.
type MemvalDir string

const (
	MemvalPush MemvalDir = "push"
	MemvalPop  MemvalDir = "pop"
)

// MemvalChange records one movement on the evaluation value stack.
type MemvalChange struct {
	Dir   MemvalDir      `json:"dir"`
	Value *ValueSnapshot `json:"value"`
}

// ExecStep is one immutable snapshot of the simulation. Steps share
// unchanged scope and heap snapshots with their neighbours, so holding a
// full trace is cheap even for long runs.
type ExecStep struct {
	Index         int             `json:"index"`
	Type          StepType        `json:"type"`
	Node          *NodeRef        `json:"node,omitempty"`
	MemoryChange  *MemoryChange   `json:"memoryChange,omitempty"`
	MemvalChanges []MemvalChange  `json:"memvalChanges,omitempty"`
	Memory        *MemorySnapshot `json:"memory"`
	Console       []ConsoleEntry  `json:"console"`
	CallDepth     int             `json:"callDepth"`
}

// ConsoleEntry is one captured console call.
type ConsoleEntry struct {
	Method string           `json:"method"`
	Args   []*ValueSnapshot `json:"args"`
	Text   string           `json:"text"`
}

// Outcome says how a run ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeThrew     Outcome = "threw"
	OutcomeAborted   Outcome = "aborted"
)

// Trace is the full product of one run.
type Trace struct {
	Steps      []*ExecStep    `json:"steps"`
	Outcome    Outcome        `json:"outcome"`
	ErrorValue *ValueSnapshot `json:"errorValue,omitempty"`
}

// Final returns the last step, or nil for an empty trace.
func (t *Trace) Final() *ExecStep {
	if len(t.Steps) == 0 {
		return nil
	}
	return t.Steps[len(t.Steps)-1]
}
