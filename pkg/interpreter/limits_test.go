package interpreter_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/WebSims/jstrace/pkg/ast"
	"github.com/WebSims/jstrace/pkg/interpreter"
	"github.com/WebSims/jstrace/pkg/trace"
)

func TestStepBudgetStopsInfiniteLoop(t *testing.T) {
	opts := interpreter.DefaultOptions()
	opts.MaxSteps = 50
	tr, err := runProgram(t, opts, ast.Prog(
		ast.While(ast.Bool(true), ast.Block()),
	))
	var lerr *interpreter.LimitError
	if !errors.As(err, &lerr) {
		t.Fatalf("err = %v, want *LimitError", err)
	}
	if lerr.Resource != "steps" || lerr.Limit != 50 {
		t.Fatalf("LimitError = %+v", lerr)
	}
	if tr == nil {
		t.Fatal("no partial trace returned")
	}
	if tr.Outcome != trace.OutcomeAborted {
		t.Fatalf("outcome = %s, want %s", tr.Outcome, trace.OutcomeAborted)
	}
	if len(tr.Steps) != 50 {
		t.Fatalf("partial trace has %d steps, want exactly 50", len(tr.Steps))
	}
}

func TestCallDepthBudgetStopsRecursion(t *testing.T) {
	opts := interpreter.DefaultOptions()
	opts.MaxCallDepth = 8
	tr, err := runProgram(t, opts, ast.Prog(
		ast.FnDecl("f", ast.Params(), ast.ExprStmt(ast.Call(ast.ID("f")))),
		ast.ExprStmt(ast.Call(ast.ID("f"))),
	))
	var lerr *interpreter.LimitError
	if !errors.As(err, &lerr) {
		t.Fatalf("err = %v, want *LimitError", err)
	}
	if lerr.Resource != "call_depth" || lerr.Limit != 8 {
		t.Fatalf("LimitError = %+v", lerr)
	}
	if tr == nil || tr.Outcome != trace.OutcomeAborted {
		t.Fatalf("trace = %+v, want partial aborted trace", tr)
	}
	maxDepth := 0
	for _, s := range tr.Steps {
		if s.CallDepth > maxDepth {
			maxDepth = s.CallDepth
		}
	}
	if maxDepth > 8 {
		t.Fatalf("recorded call depth %d past the limit", maxDepth)
	}
}

func TestZeroOptionsFallBackToDefaults(t *testing.T) {
	tr, err := interpreter.New(interpreter.Options{ImplicitGlobalDeclare: true}).Run(ast.Prog(
		ast.ConsoleLog(ast.Num(1)),
	))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if tr.Outcome != trace.OutcomeCompleted {
		t.Fatalf("outcome = %s", tr.Outcome)
	}
}

func TestTraceIsDeterministic(t *testing.T) {
	prog := ast.Prog(
		ast.FnDecl("makeAdder", ast.Params("a"),
			ast.Ret(ast.Arrow(ast.Params("b"), ast.Bin("+", ast.ID("a"), ast.ID("b"))))),
		ast.Decl(ast.DeclarationVar, "add2", ast.Call(ast.ID("makeAdder"), ast.Num(2))),
		ast.Decl(ast.DeclarationVar, "obj", ast.Object(ast.Prop("xs", ast.Array(ast.Num(1), ast.Num(2))))),
		ast.ExprStmt(ast.Call(ast.Member(ast.Member(ast.ID("obj"), "xs"), "push"), ast.Call(ast.ID("add2"), ast.Num(3)))),
		ast.For(
			ast.Decl(ast.DeclarationLet, "i", ast.Num(0)),
			ast.Bin("<", ast.ID("i"), ast.Num(3)),
			ast.Update("++", ast.ID("i"), false),
			ast.Block(ast.ConsoleLog(ast.ID("i"))),
		),
		ast.Try(
			ast.Block(ast.Throw(ast.Str("x"))),
			ast.Catch("e", ast.ConsoleLog(ast.ID("e"))),
			nil),
	)

	sim := interpreter.New(interpreter.DefaultOptions())
	first, err := sim.Run(prog)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := sim.Run(prog)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	// Compare through JSON so snapshot pointer identity does not matter,
	// only the recorded content.
	if diff := cmp.Diff(toJSON(t, first), toJSON(t, second)); diff != "" {
		t.Fatalf("traces differ between runs (-first +second):\n%s", diff)
	}
}

func toJSON(t *testing.T, tr *trace.Trace) any {
	t.Helper()
	data, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("marshal trace: %v", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal trace: %v", err)
	}
	return out
}

func TestTraceSurvivesJSONRoundTrip(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.Decl(ast.DeclarationVar, "o", ast.Object(ast.Prop("a", ast.Num(1)))),
		ast.ConsoleLog(ast.Member(ast.ID("o"), "a")),
	))
	data, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("marshal trace: %v", err)
	}
	var back trace.Trace
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal trace: %v", err)
	}
	if back.Outcome != tr.Outcome || len(back.Steps) != len(tr.Steps) {
		t.Fatalf("round trip lost structure: %d steps %s", len(back.Steps), back.Outcome)
	}
	if back.Final().Console[0].Text != "1" {
		t.Fatalf("round trip lost console text: %q", back.Final().Console[0].Text)
	}
}
