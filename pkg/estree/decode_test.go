package estree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WebSims/jstrace/pkg/ast"
	"github.com/WebSims/jstrace/pkg/estree"
	"github.com/WebSims/jstrace/pkg/interpreter"
	"github.com/WebSims/jstrace/pkg/trace"
)

// espree output for:
//
//	let total = 0;
//	for (let i = 0; i < 3; i++) { total += i; }
//	console.log("total", total);
const loopProgram = `{
  "type": "Program",
  "range": [0, 87],
  "body": [
    {
      "type": "VariableDeclaration",
      "range": [0, 14],
      "kind": "let",
      "declarations": [
        {
          "type": "VariableDeclarator",
          "range": [4, 13],
          "id": {"type": "Identifier", "range": [4, 9], "name": "total"},
          "init": {"type": "Literal", "range": [12, 13], "value": 0, "raw": "0"}
        }
      ]
    },
    {
      "type": "ForStatement",
      "range": [15, 58],
      "init": {
        "type": "VariableDeclaration",
        "range": [20, 29],
        "kind": "let",
        "declarations": [
          {
            "type": "VariableDeclarator",
            "range": [24, 29],
            "id": {"type": "Identifier", "range": [24, 25], "name": "i"},
            "init": {"type": "Literal", "range": [28, 29], "value": 0, "raw": "0"}
          }
        ]
      },
      "test": {
        "type": "BinaryExpression",
        "range": [31, 36],
        "operator": "<",
        "left": {"type": "Identifier", "range": [31, 32], "name": "i"},
        "right": {"type": "Literal", "range": [35, 36], "value": 3, "raw": "3"}
      },
      "update": {
        "type": "UpdateExpression",
        "range": [38, 41],
        "operator": "++",
        "prefix": false,
        "argument": {"type": "Identifier", "range": [38, 39], "name": "i"}
      },
      "body": {
        "type": "BlockStatement",
        "range": [43, 58],
        "body": [
          {
            "type": "ExpressionStatement",
            "range": [45, 56],
            "expression": {
              "type": "AssignmentExpression",
              "range": [45, 55],
              "operator": "+=",
              "left": {"type": "Identifier", "range": [45, 50], "name": "total"},
              "right": {"type": "Identifier", "range": [54, 55], "name": "i"}
            }
          }
        ]
      }
    },
    {
      "type": "ExpressionStatement",
      "range": [59, 87],
      "expression": {
        "type": "CallExpression",
        "range": [59, 86],
        "callee": {
          "type": "MemberExpression",
          "range": [59, 70],
          "computed": false,
          "object": {"type": "Identifier", "range": [59, 66], "name": "console"},
          "property": {"type": "Identifier", "range": [67, 70], "name": "log"}
        },
        "arguments": [
          {"type": "Literal", "range": [71, 78], "value": "total", "raw": "\"total\""},
          {"type": "Identifier", "range": [80, 85], "name": "total"}
        ]
      }
    }
  ]
}`

func TestDecodeProgramStructure(t *testing.T) {
	prog, err := estree.DecodeProgram([]byte(loopProgram))
	require.NoError(t, err)
	require.Len(t, prog.Body, 3)
	assert.Equal(t, [2]int{0, 87}, prog.SourceRange())

	decl, ok := prog.Body[0].(*ast.VariableDeclaration)
	require.True(t, ok, "statement 0 is %T", prog.Body[0])
	assert.Equal(t, ast.DeclarationLet, decl.Kind)
	require.Len(t, decl.Declarations, 1)
	assert.Equal(t, "total", decl.Declarations[0].ID.Name)
	assert.Equal(t, [2]int{4, 13}, decl.Declarations[0].SourceRange())
	init, ok := decl.Declarations[0].Init.(*ast.NumberLiteral)
	require.True(t, ok, "init is %T", decl.Declarations[0].Init)
	assert.Equal(t, 0.0, init.Value)

	loop, ok := prog.Body[1].(*ast.ForStatement)
	require.True(t, ok, "statement 1 is %T", prog.Body[1])
	loopInit, ok := loop.Init.(*ast.VariableDeclaration)
	require.True(t, ok, "loop init is %T", loop.Init)
	assert.Equal(t, ast.DeclarationLet, loopInit.Kind)
	update, ok := loop.Update.(*ast.UpdateExpression)
	require.True(t, ok, "loop update is %T", loop.Update)
	assert.False(t, update.Prefix)

	call, ok := prog.Body[2].(*ast.ExpressionStatement).Expression.(*ast.CallExpression)
	require.True(t, ok)
	member, ok := call.Callee.(*ast.MemberExpression)
	require.True(t, ok, "callee is %T", call.Callee)
	assert.False(t, member.Computed)
	require.Len(t, call.Arguments, 2)
	str, ok := call.Arguments[0].(*ast.StringLiteral)
	require.True(t, ok, "argument 0 is %T", call.Arguments[0])
	assert.Equal(t, "total", str.Value)
}

func TestDecodeStartEndOffsets(t *testing.T) {
	// acorn can emit start/end instead of a range pair.
	prog, err := estree.DecodeProgram([]byte(`{
		"type": "Program", "start": 0, "end": 6,
		"body": [
			{"type": "ExpressionStatement", "start": 0, "end": 6,
			 "expression": {"type": "Literal", "start": 0, "end": 5, "value": false, "raw": "false"}}
		]
	}`))
	require.NoError(t, err)
	assert.Equal(t, [2]int{0, 6}, prog.SourceRange())
	expr := prog.Body[0].(*ast.ExpressionStatement).Expression
	lit, ok := expr.(*ast.BooleanLiteral)
	require.True(t, ok, "expression is %T", expr)
	assert.False(t, lit.Value)
	assert.Equal(t, [2]int{0, 5}, lit.SourceRange())
}

func TestDecodeLiteralKinds(t *testing.T) {
	prog, err := estree.DecodeProgram([]byte(`{
		"type": "Program",
		"body": [
			{"type": "ExpressionStatement", "expression": {"type": "Literal", "value": 3.5}},
			{"type": "ExpressionStatement", "expression": {"type": "Literal", "value": "s"}},
			{"type": "ExpressionStatement", "expression": {"type": "Literal", "value": true}},
			{"type": "ExpressionStatement", "expression": {"type": "Literal", "value": null}}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, prog.Body, 4)
	assert.IsType(t, &ast.NumberLiteral{}, prog.Body[0].(*ast.ExpressionStatement).Expression)
	assert.IsType(t, &ast.StringLiteral{}, prog.Body[1].(*ast.ExpressionStatement).Expression)
	assert.IsType(t, &ast.BooleanLiteral{}, prog.Body[2].(*ast.ExpressionStatement).Expression)
	assert.IsType(t, &ast.NullLiteral{}, prog.Body[3].(*ast.ExpressionStatement).Expression)
}

func TestDecodeClassDeclaration(t *testing.T) {
	prog, err := estree.DecodeProgram([]byte(`{
		"type": "Program",
		"body": [
			{
				"type": "ClassDeclaration",
				"id": {"type": "Identifier", "name": "Point"},
				"superClass": null,
				"body": {
					"type": "ClassBody",
					"body": [
						{
							"type": "PropertyDefinition",
							"static": false, "computed": false,
							"key": {"type": "Identifier", "name": "x"},
							"value": {"type": "Literal", "value": 0}
						},
						{
							"type": "MethodDefinition",
							"kind": "method", "static": false, "computed": false,
							"key": {"type": "Identifier", "name": "getX"},
							"value": {
								"type": "FunctionExpression",
								"id": null, "params": [],
								"body": {"type": "BlockStatement", "body": [
									{"type": "ReturnStatement", "argument": {
										"type": "MemberExpression", "computed": false,
										"object": {"type": "ThisExpression"},
										"property": {"type": "Identifier", "name": "x"}
									}}
								]}
							}
						}
					]
				}
			}
		]
	}`))
	require.NoError(t, err)
	class, ok := prog.Body[0].(*ast.ClassDeclaration)
	require.True(t, ok, "statement is %T", prog.Body[0])
	assert.Equal(t, "Point", class.ID.Name)
	require.Len(t, class.Body.Body, 2)
	assert.IsType(t, &ast.PropertyDefinition{}, class.Body.Body[0])
	method, ok := class.Body.Body[1].(*ast.MethodDefinition)
	require.True(t, ok)
	assert.Equal(t, ast.MethodKindMethod, method.Kind)
}

func TestDecodeUnsupportedConstructs(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"unknown node", `{"type": "Program", "body": [{"type": "LabeledStatement"}]}`},
		{"regex literal", `{"type": "Program", "body": [
			{"type": "ExpressionStatement", "expression": {"type": "Literal", "value": null, "regex": {"pattern": "a", "flags": ""}}}]}`},
		{"labeled break", `{"type": "Program", "body": [
			{"type": "BreakStatement", "label": {"type": "Identifier", "name": "out"}}]}`},
		{"getter property", `{"type": "Program", "body": [
			{"type": "ExpressionStatement", "expression": {"type": "ObjectExpression", "properties": [
				{"type": "Property", "kind": "get",
				 "key": {"type": "Identifier", "name": "x"},
				 "value": {"type": "FunctionExpression", "id": null, "params": [], "body": {"type": "BlockStatement", "body": []}}}]}}]}`},
		{"class inheritance", `{"type": "Program", "body": [
			{"type": "ClassDeclaration", "id": {"type": "Identifier", "name": "B"},
			 "superClass": {"type": "Identifier", "name": "A"},
			 "body": {"type": "ClassBody", "body": []}}]}`},
		{"static member", `{"type": "Program", "body": [
			{"type": "ClassDeclaration", "id": {"type": "Identifier", "name": "A"},
			 "body": {"type": "ClassBody", "body": [
				{"type": "MethodDefinition", "kind": "method", "static": true,
				 "key": {"type": "Identifier", "name": "m"},
				 "value": {"type": "FunctionExpression", "id": null, "params": [], "body": {"type": "BlockStatement", "body": []}}}]}}]}`},
		{"destructured parameter", `{"type": "Program", "body": [
			{"type": "FunctionDeclaration", "id": {"type": "Identifier", "name": "f"},
			 "params": [{"type": "ObjectPattern", "properties": []}],
			 "body": {"type": "BlockStatement", "body": []}}]}`},
		{"not a program", `{"type": "Identifier", "name": "x"}`},
		{"invalid json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := estree.DecodeProgram([]byte(tc.json))
			require.Error(t, err)
		})
	}
}

func TestDecodeThenSimulate(t *testing.T) {
	prog, err := estree.DecodeProgram([]byte(loopProgram))
	require.NoError(t, err)

	tr, err := interpreter.New(interpreter.DefaultOptions()).Run(prog)
	require.NoError(t, err)
	require.Equal(t, trace.OutcomeCompleted, tr.Outcome)

	final := tr.Final()
	require.Len(t, final.Console, 1)
	assert.Equal(t, "total 3", final.Console[0].Text)

	// Step node references carry the parser's source ranges.
	assert.Equal(t, [2]int{0, 87}, tr.Steps[0].Node.Range)
}
