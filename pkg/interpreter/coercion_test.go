package interpreter_test

import (
	"testing"

	"github.com/WebSims/jstrace/pkg/ast"
)

// The coercion cases mirror the "wtf JavaScript" programs the simulator is
// built to explain; each row logs one expression and checks the rendered
// result.
func TestCoercionTable(t *testing.T) {
	cases := []struct {
		name string
		expr ast.Expression
		want string
	}{
		{"number addition", ast.Bin("+", ast.Num(1), ast.Num(2)), "3"},
		{"string concat wins", ast.Bin("+", ast.Str("1"), ast.Num(2)), "12"},
		{"concat left to right", ast.Bin("+", ast.Bin("+", ast.Num(1), ast.Num(2)), ast.Str("3")), "33"},
		{"minus coerces", ast.Bin("-", ast.Str("5"), ast.Num(2)), "3"},
		{"booleans add as numbers", ast.Bin("+", ast.Bool(true), ast.Bool(true)), "2"},
		{"null is zero", ast.Bin("+", ast.Null(), ast.Num(1)), "1"},
		{"undefined is NaN", ast.Bin("+", ast.Unary("void", ast.Num(0)), ast.Num(1)), "NaN"},
		{"loose number string", ast.Bin("==", ast.Num(1), ast.Str("1")), "true"},
		{"strict number string", ast.Bin("===", ast.Num(1), ast.Str("1")), "false"},
		{"null loose undefined", ast.Bin("==", ast.Null(), ast.Unary("void", ast.Num(0))), "true"},
		{"null not loose zero", ast.Bin("==", ast.Null(), ast.Num(0)), "false"},
		{"empty string loose zero", ast.Bin("==", ast.Str(""), ast.Num(0)), "true"},
		{"boolean coerces to number", ast.Bin("==", ast.Bool(true), ast.Str("1")), "true"},
		{"NaN never equals itself", ast.Bin("===", ast.Bin("/", ast.Num(0), ast.Num(0)), ast.Bin("/", ast.Num(0), ast.Num(0))), "false"},
		{"NaN comparisons are false", ast.Bin("<", ast.Bin("/", ast.Num(0), ast.Num(0)), ast.Num(1)), "false"},
		{"typeof null", ast.Unary("typeof", ast.Null()), "object"},
		{"typeof NaN", ast.Unary("typeof", ast.Bin("/", ast.Num(0), ast.Num(0))), "number"},
		{"string comparison", ast.Bin("<", ast.Str("apple"), ast.Str("banana")), "true"},
		{"numeric string comparison", ast.Bin("<", ast.Str("10"), ast.Num(9)), "false"},
		{"negation coerces", ast.Unary("-", ast.Str("7")), "-7"},
		{"not of empty string", ast.Unary("!", ast.Str("")), "true"},
		{"modulo", ast.Bin("%", ast.Num(7), ast.Num(3)), "1"},
		{"division by zero", ast.Bin("/", ast.Num(1), ast.Num(0)), "Infinity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := mustComplete(t, ast.Prog(ast.ConsoleLog(tc.expr)))
			assertConsole(t, tr, tc.want)
		})
	}
}

func TestArrayCoercionInOperators(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.ConsoleLog(ast.Bin("+", ast.Array(ast.Num(1), ast.Num(2)), ast.Str("!"))),
		ast.ConsoleLog(ast.Bin("+", ast.Array(), ast.Array())),
		ast.ConsoleLog(ast.Bin("==", ast.Array(ast.Num(1)), ast.Num(1))),
	))
	assertConsole(t, tr, "1,2!", "", "true")
}

func TestObjectCoercionInOperators(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.ConsoleLog(ast.Bin("+", ast.Object(), ast.Str(""))),
	))
	assertConsole(t, tr, "[object Object]")
}

func TestLogicalOperatorsShortCircuit(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.ConsoleLog(ast.Logic("&&", ast.Bool(true), ast.Str("yes"))),
		ast.ConsoleLog(ast.Logic("||", ast.Bool(false), ast.Str("no"))),
		ast.ConsoleLog(ast.Logic("??", ast.Null(), ast.Str("dflt"))),
		ast.ConsoleLog(ast.Logic("??", ast.Num(0), ast.Str("ignored"))),
		ast.ConsoleLog(ast.Logic("&&", ast.Num(0), ast.Call(ast.ID("missing")))),
	))
	// The last row short-circuits, so the undefined call never runs.
	assertConsole(t, tr, "yes", "no", "dflt", "0", "0")
}

func TestConditionalExpression(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.ConsoleLog(ast.Cond(ast.Bin(">", ast.Num(2), ast.Num(1)), ast.Str("bigger"), ast.Str("smaller"))),
	))
	assertConsole(t, tr, "bigger")
}

func TestSequenceExpressionYieldsLast(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.Decl(ast.DeclarationVar, "x", ast.Num(0)),
		ast.ConsoleLog(ast.Seq(ast.Assign(ast.ID("x"), ast.Num(5)), ast.Bin("+", ast.ID("x"), ast.Num(1)))),
	))
	assertConsole(t, tr, "6")
}

func TestUpdateAndCompoundAssignment(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.Decl(ast.DeclarationLet, "n", ast.Num(1)),
		ast.ExprStmt(ast.AssignOp("+=", ast.ID("n"), ast.Num(2))),
		ast.ConsoleLog(ast.Update("++", ast.ID("n"), false)),
		ast.ConsoleLog(ast.ID("n")),
		ast.ConsoleLog(ast.Update("++", ast.ID("n"), true)),
		ast.ConsoleLog(ast.Update("--", ast.ID("n"), false)),
		ast.ConsoleLog(ast.ID("n")),
	))
	assertConsole(t, tr, "3", "4", "5", "5", "4")
}

func TestCompoundAssignmentOnProperty(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.Decl(ast.DeclarationVar, "o", ast.Object(ast.Prop("n", ast.Num(10)))),
		ast.ExprStmt(ast.AssignOp("*=", ast.Member(ast.ID("o"), "n"), ast.Num(3))),
		ast.ConsoleLog(ast.Member(ast.ID("o"), "n")),
		ast.ConsoleLog(ast.Update("++", ast.Member(ast.ID("o"), "n"), false)),
		ast.ConsoleLog(ast.Member(ast.ID("o"), "n")),
	))
	assertConsole(t, tr, "30", "30", "31")
}

func TestStringConcatenationChain(t *testing.T) {
	tr := mustComplete(t, ast.Prog(
		ast.Decl(ast.DeclarationVar, "name", ast.Str("world")),
		ast.ConsoleLog(ast.Bin("+", ast.Bin("+", ast.Str("hello "), ast.ID("name")), ast.Str("!"))),
	))
	assertConsole(t, tr, "hello world!")
}
