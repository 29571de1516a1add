package interpreter_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/WebSims/jstrace/pkg/ast"
	"github.com/WebSims/jstrace/pkg/interpreter"
	"github.com/WebSims/jstrace/pkg/trace"
)

func scopeVariable(s *trace.ScopeSnapshot, name string) *trace.VariableSnapshot {
	for _, v := range s.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

func TestHoistingSnapshotShowsBindingsBeforeExecution(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.ConsoleLog(ast.ID("x")),
		ast.Decl(ast.DeclarationVar, "x", ast.Num(1)),
		ast.FnDecl("f", ast.Params()),
		ast.Decl(ast.DeclarationLet, "y", ast.Num(2)),
	))
	hoist := firstStep(tr, trace.StepHoisting)
	if hoist == nil {
		t.Fatal("no HOISTING step recorded")
	}
	prog := hoist.Memory.Scopes[0]

	x := scopeVariable(prog, "x")
	if x == nil || !x.Initialized || x.Value.Kind != "undefined" {
		t.Fatalf("var binding at hoist = %+v, want initialized undefined", x)
	}
	f := scopeVariable(prog, "f")
	if f == nil || !f.Initialized || f.Value.Kind != "reference" {
		t.Fatalf("function binding at hoist = %+v, want initialized reference", f)
	}
	y := scopeVariable(prog, "y")
	if y == nil || y.Initialized {
		t.Fatalf("let binding at hoist = %+v, want uninitialized", y)
	}
}

func TestVarReadsUndefinedBeforeInitializer(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.ConsoleLog(ast.ID("x")),
		ast.Decl(ast.DeclarationVar, "x", ast.Num(1)),
		ast.ConsoleLog(ast.ID("x")),
	))
	assertConsole(t, tr, "undefined", "1")
}

func TestFunctionCallableBeforeDeclaration(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.ConsoleLog(ast.Call(ast.ID("f"))),
		ast.FnDecl("f", ast.Params(), ast.Ret(ast.Num(42))),
	))
	assertConsole(t, tr, "42")
}

func TestFunctionWinsVarCollisionAtHoist(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.ConsoleLog(ast.Unary("typeof", ast.ID("f"))),
		ast.Decl(ast.DeclarationVar, "f", nil),
		ast.FnDecl("f", ast.Params()),
	))
	assertConsole(t, tr, "function")
}

func TestTemporalDeadZoneRead(t *testing.T) {
	tr := mustThrow(t, ast.Prog(
		ast.ConsoleLog(ast.ID("y")),
		ast.Decl(ast.DeclarationLet, "y", ast.Num(1)),
	))
	want := "ReferenceError: Cannot access 'y' before initialization"
	if tr.ErrorValue.Value != want {
		t.Fatalf("error value = %q, want %q", tr.ErrorValue.Value, want)
	}
}

func TestTemporalDeadZoneWrite(t *testing.T) {
	tr := mustThrow(t, ast.Prog(
		ast.ExprStmt(ast.Assign(ast.ID("y"), ast.Num(5))),
		ast.Decl(ast.DeclarationLet, "y", ast.Num(1)),
	))
	if !strings.Contains(tr.ErrorValue.Value, "before initialization") {
		t.Fatalf("error value = %q", tr.ErrorValue.Value)
	}
}

func TestLetWithoutInitializerLeavesDeadZone(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.Decl(ast.DeclarationLet, "y", nil),
		ast.ConsoleLog(ast.ID("y")),
	))
	assertConsole(t, tr, "undefined")
}

func TestTypeofUndeclaredIsUndefined(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.ConsoleLog(ast.Unary("typeof", ast.ID("nope"))),
	))
	assertConsole(t, tr, "undefined")
}

func TestTypeofDeadZoneThrows(t *testing.T) {
	tr := mustThrow(t, ast.Prog(
		ast.ConsoleLog(ast.Unary("typeof", ast.ID("z"))),
		ast.Decl(ast.DeclarationLet, "z", ast.Num(1)),
	))
	if !strings.Contains(tr.ErrorValue.Value, "before initialization") {
		t.Fatalf("error value = %q", tr.ErrorValue.Value)
	}
}

func TestDuplicateLetIsStaticError(t *testing.T) {
	tr, err := runProgram(t, interpreter.DefaultOptions(), ast.Prog(
		ast.Decl(ast.DeclarationLet, "x", ast.Num(1)),
		ast.Decl(ast.DeclarationLet, "x", ast.Num(2)),
	))
	var derr *interpreter.DeclarationError
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want *DeclarationError", err)
	}
	if derr.Name != "x" {
		t.Fatalf("DeclarationError.Name = %q, want %q", derr.Name, "x")
	}
	if tr != nil {
		t.Fatalf("trace = %d steps, want nil for static errors", len(tr.Steps))
	}
}

func TestVarConflictsWithLexical(t *testing.T) {
	// { var x } hoists x into the program scope where let x lives.
	_, err := runProgram(t, interpreter.DefaultOptions(), ast.Prog(
		ast.Decl(ast.DeclarationLet, "x", ast.Num(1)),
		ast.Block(ast.Decl(ast.DeclarationVar, "x", ast.Num(2))),
	))
	var derr *interpreter.DeclarationError
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want *DeclarationError", err)
	}
}

func TestParamShadowedByLetIsStaticError(t *testing.T) {
	_, err := runProgram(t, interpreter.DefaultOptions(), ast.Prog(
		ast.FnDecl("f", ast.Params("a"),
			ast.Decl(ast.DeclarationLet, "a", ast.Num(1))),
	))
	var derr *interpreter.DeclarationError
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want *DeclarationError", err)
	}
}

func TestVarRedeclaringParamIsAllowed(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.FnDecl("f", ast.Params("a"),
			ast.Decl(ast.DeclarationVar, "a", ast.Num(9)),
			ast.Ret(ast.ID("a"))),
		ast.ConsoleLog(ast.Call(ast.ID("f"), ast.Num(1))),
	))
	assertConsole(t, tr, "9")
}

func TestLetShadowingInBlock(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.Decl(ast.DeclarationLet, "x", ast.Str("outer")),
		ast.Block(
			ast.Decl(ast.DeclarationLet, "x", ast.Str("inner")),
			ast.ConsoleLog(ast.ID("x")),
		),
		ast.ConsoleLog(ast.ID("x")),
	))
	assertConsole(t, tr, "inner", "outer")
}

func TestVarEscapesBlock(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.Block(ast.Decl(ast.DeclarationVar, "x", ast.Num(3))),
		ast.ConsoleLog(ast.ID("x")),
	))
	assertConsole(t, tr, "3")
}

func TestBlockWithoutDeclarationsSkipsHoisting(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.Block(ast.ConsoleLog(ast.Str("a"))),
	))
	// Program hoisting only; the empty block pushes a scope but records no
	// hoisting pass.
	if n := countSteps(tr, trace.StepHoisting); n != 1 {
		t.Fatalf("%d HOISTING steps, want 1", n)
	}
}

func TestConstReassignmentThrows(t *testing.T) {
	tr := mustThrow(t, ast.Prog(
		ast.Decl(ast.DeclarationConst, "c", ast.Num(1)),
		ast.ExprStmt(ast.Assign(ast.ID("c"), ast.Num(2))),
	))
	want := "TypeError: Assignment to constant variable."
	if tr.ErrorValue.Value != want {
		t.Fatalf("error value = %q, want %q", tr.ErrorValue.Value, want)
	}
}

func TestUndeclaredReadThrows(t *testing.T) {
	tr := mustThrow(t, ast.Prog(
		ast.ConsoleLog(ast.ID("missing")),
	))
	want := "ReferenceError: missing is not defined"
	if tr.ErrorValue.Value != want {
		t.Fatalf("error value = %q, want %q", tr.ErrorValue.Value, want)
	}
}

func TestImplicitGlobalDeclare(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.FnDecl("f", ast.Params(),
			ast.ExprStmt(ast.Assign(ast.ID("leak"), ast.Num(5)))),
		ast.ExprStmt(ast.Call(ast.ID("f"))),
		ast.ConsoleLog(ast.ID("leak")),
	))
	assertConsole(t, tr, "5")
}

func TestImplicitGlobalDeclareDisabled(t *testing.T) {
	opts := interpreter.DefaultOptions()
	opts.ImplicitGlobalDeclare = false
	tr, err := runProgram(t, opts, ast.Prog(
		ast.ExprStmt(ast.Assign(ast.ID("leak"), ast.Num(5))),
	))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if tr.Outcome != trace.OutcomeThrew {
		t.Fatalf("outcome = %s, want %s", tr.Outcome, trace.OutcomeThrew)
	}
	want := "ReferenceError: leak is not defined"
	if tr.ErrorValue.Value != want {
		t.Fatalf("error value = %q, want %q", tr.ErrorValue.Value, want)
	}
}
