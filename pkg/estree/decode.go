// Package estree decodes ESTree-compatible parser output (acorn, espree)
// into the simulator's AST. Parsing source text is an external concern; this
// boundary only translates shapes. Unknown or unsupported node types are
// decode errors, never interpreter errors.
package estree

import (
	"encoding/json"
	"fmt"

	"github.com/WebSims/jstrace/pkg/ast"
)

// DecodeProgram decodes a JSON document holding an ESTree Program node.
func DecodeProgram(data []byte) (*ast.Program, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("estree: invalid JSON: %w", err)
	}
	node, err := decodeNode(raw)
	if err != nil {
		return nil, err
	}
	prog, ok := node.(*ast.Program)
	if !ok {
		return nil, fmt.Errorf("estree: top-level node is %s, want Program", node.NodeType())
	}
	return prog, nil
}

type ranger interface {
	SetRange(start, end int)
}

func decodeNode(m map[string]any) (ast.Node, error) {
	t, _ := m["type"].(string)
	node, err := decodeByType(t, m)
	if err != nil {
		return nil, err
	}
	if r, ok := node.(ranger); ok {
		start, end := sourceRange(m)
		r.SetRange(start, end)
	}
	return node, nil
}

// sourceRange reads either the "range" pair or start/end offsets.
func sourceRange(m map[string]any) (int, int) {
	if pair, ok := m["range"].([]any); ok && len(pair) == 2 {
		return toInt(pair[0]), toInt(pair[1])
	}
	return toInt(m["start"]), toInt(m["end"])
}

func toInt(v any) int {
	f, _ := v.(float64)
	return int(f)
}

func decodeByType(t string, m map[string]any) (ast.Node, error) {
	switch t {
	case "Program":
		body, err := decodeStatements(m["body"])
		if err != nil {
			return nil, err
		}
		return ast.NewProgram(body), nil
	case "Identifier":
		name, _ := m["name"].(string)
		return ast.NewIdentifier(name), nil
	case "Literal":
		return decodeLiteral(m)
	case "ThisExpression":
		return ast.NewThisExpression(), nil
	case "ArrayExpression":
		elements, err := decodeExpressions(m["elements"])
		if err != nil {
			return nil, err
		}
		return ast.NewArrayExpression(elements), nil
	case "ObjectExpression":
		return decodeObjectExpression(m)
	case "Property":
		return decodeProperty(m)
	case "MemberExpression":
		object, err := decodeExpression(m["object"])
		if err != nil {
			return nil, err
		}
		property, err := decodeExpression(m["property"])
		if err != nil {
			return nil, err
		}
		computed, _ := m["computed"].(bool)
		return ast.NewMemberExpression(object, property, computed), nil
	case "CallExpression":
		callee, args, err := decodeCallParts(m)
		if err != nil {
			return nil, err
		}
		return ast.NewCallExpression(callee, args), nil
	case "NewExpression":
		callee, args, err := decodeCallParts(m)
		if err != nil {
			return nil, err
		}
		return ast.NewNewExpression(callee, args), nil
	case "AssignmentExpression":
		op, _ := m["operator"].(string)
		left, err := decodeExpression(m["left"])
		if err != nil {
			return nil, err
		}
		right, err := decodeExpression(m["right"])
		if err != nil {
			return nil, err
		}
		return ast.NewAssignmentExpression(op, left, right), nil
	case "BinaryExpression":
		op, _ := m["operator"].(string)
		left, err := decodeExpression(m["left"])
		if err != nil {
			return nil, err
		}
		right, err := decodeExpression(m["right"])
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryExpression(op, left, right), nil
	case "LogicalExpression":
		op, _ := m["operator"].(string)
		left, err := decodeExpression(m["left"])
		if err != nil {
			return nil, err
		}
		right, err := decodeExpression(m["right"])
		if err != nil {
			return nil, err
		}
		return ast.NewLogicalExpression(op, left, right), nil
	case "UnaryExpression":
		op, _ := m["operator"].(string)
		arg, err := decodeExpression(m["argument"])
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryExpression(op, arg), nil
	case "UpdateExpression":
		op, _ := m["operator"].(string)
		arg, err := decodeExpression(m["argument"])
		if err != nil {
			return nil, err
		}
		prefix, _ := m["prefix"].(bool)
		return ast.NewUpdateExpression(op, arg, prefix), nil
	case "ConditionalExpression":
		test, err := decodeExpression(m["test"])
		if err != nil {
			return nil, err
		}
		consequent, err := decodeExpression(m["consequent"])
		if err != nil {
			return nil, err
		}
		alternate, err := decodeExpression(m["alternate"])
		if err != nil {
			return nil, err
		}
		return ast.NewConditionalExpression(test, consequent, alternate), nil
	case "SequenceExpression":
		exprs, err := decodeExpressions(m["expressions"])
		if err != nil {
			return nil, err
		}
		return ast.NewSequenceExpression(exprs), nil
	case "FunctionExpression":
		return decodeFunctionExpression(m)
	case "ArrowFunctionExpression":
		return decodeArrowFunction(m)
	case "ExpressionStatement":
		expr, err := decodeExpression(m["expression"])
		if err != nil {
			return nil, err
		}
		return ast.NewExpressionStatement(expr), nil
	case "VariableDeclaration":
		return decodeVariableDeclaration(m)
	case "VariableDeclarator":
		id, err := decodeIdentifierField(m["id"])
		if err != nil {
			return nil, err
		}
		init, err := decodeExpression(m["init"])
		if err != nil {
			return nil, err
		}
		return ast.NewVariableDeclarator(id, init), nil
	case "FunctionDeclaration":
		id, err := decodeIdentifierField(m["id"])
		if err != nil {
			return nil, err
		}
		params, err := decodeParams(m["params"])
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(m["body"])
		if err != nil {
			return nil, err
		}
		return ast.NewFunctionDeclaration(id, params, body), nil
	case "BlockStatement":
		body, err := decodeStatements(m["body"])
		if err != nil {
			return nil, err
		}
		return ast.NewBlockStatement(body), nil
	case "EmptyStatement":
		return ast.NewEmptyStatement(), nil
	case "IfStatement":
		test, err := decodeExpression(m["test"])
		if err != nil {
			return nil, err
		}
		consequent, err := decodeStatement(m["consequent"])
		if err != nil {
			return nil, err
		}
		var alternate ast.Statement
		if m["alternate"] != nil {
			alternate, err = decodeStatement(m["alternate"])
			if err != nil {
				return nil, err
			}
		}
		return ast.NewIfStatement(test, consequent, alternate), nil
	case "ForStatement":
		return decodeForStatement(m)
	case "WhileStatement":
		test, err := decodeExpression(m["test"])
		if err != nil {
			return nil, err
		}
		body, err := decodeStatement(m["body"])
		if err != nil {
			return nil, err
		}
		return ast.NewWhileStatement(test, body), nil
	case "DoWhileStatement":
		body, err := decodeStatement(m["body"])
		if err != nil {
			return nil, err
		}
		test, err := decodeExpression(m["test"])
		if err != nil {
			return nil, err
		}
		return ast.NewDoWhileStatement(body, test), nil
	case "BreakStatement":
		if m["label"] != nil {
			return nil, fmt.Errorf("estree: labeled break is not supported")
		}
		return ast.NewBreakStatement(), nil
	case "ContinueStatement":
		if m["label"] != nil {
			return nil, fmt.Errorf("estree: labeled continue is not supported")
		}
		return ast.NewContinueStatement(), nil
	case "ReturnStatement":
		arg, err := decodeExpression(m["argument"])
		if err != nil {
			return nil, err
		}
		return ast.NewReturnStatement(arg), nil
	case "ThrowStatement":
		arg, err := decodeExpression(m["argument"])
		if err != nil {
			return nil, err
		}
		return ast.NewThrowStatement(arg), nil
	case "TryStatement":
		return decodeTryStatement(m)
	case "CatchClause":
		var param *ast.Identifier
		if m["param"] != nil {
			id, err := decodeIdentifierField(m["param"])
			if err != nil {
				return nil, err
			}
			param = id
		}
		body, err := decodeBlock(m["body"])
		if err != nil {
			return nil, err
		}
		return ast.NewCatchClause(param, body), nil
	case "ClassDeclaration":
		return decodeClassDeclaration(m)
	default:
		return nil, fmt.Errorf("estree: unsupported node type %q", t)
	}
}

// decodeLiteral splits the ESTree Literal node by value type so the
// evaluator can switch on concrete literal nodes.
func decodeLiteral(m map[string]any) (ast.Node, error) {
	switch v := m["value"].(type) {
	case float64:
		return ast.NewNumberLiteral(v), nil
	case string:
		return ast.NewStringLiteral(v), nil
	case bool:
		return ast.NewBooleanLiteral(v), nil
	case nil:
		// Regex literals arrive with a null value and a "regex" payload.
		if m["regex"] != nil {
			return nil, fmt.Errorf("estree: regex literals are not supported")
		}
		return ast.NewNullLiteral(), nil
	default:
		return nil, fmt.Errorf("estree: unsupported literal value %T", v)
	}
}

func decodeObjectExpression(m map[string]any) (ast.Node, error) {
	items, _ := m["properties"].([]any)
	props := make([]*ast.Property, 0, len(items))
	for _, item := range items {
		pm, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("estree: object property is not a node")
		}
		node, err := decodeNode(pm)
		if err != nil {
			return nil, err
		}
		prop, ok := node.(*ast.Property)
		if !ok {
			return nil, fmt.Errorf("estree: unsupported object member %s", node.NodeType())
		}
		props = append(props, prop)
	}
	return ast.NewObjectExpression(props), nil
}

func decodeProperty(m map[string]any) (ast.Node, error) {
	if kind, _ := m["kind"].(string); kind != "" && kind != "init" {
		return nil, fmt.Errorf("estree: %s accessors are not supported", kind)
	}
	key, err := decodeExpression(m["key"])
	if err != nil {
		return nil, err
	}
	value, err := decodeExpression(m["value"])
	if err != nil {
		return nil, err
	}
	computed, _ := m["computed"].(bool)
	return ast.NewProperty(key, value, computed), nil
}

func decodeCallParts(m map[string]any) (ast.Expression, []ast.Expression, error) {
	callee, err := decodeExpression(m["callee"])
	if err != nil {
		return nil, nil, err
	}
	args, err := decodeExpressions(m["arguments"])
	if err != nil {
		return nil, nil, err
	}
	return callee, args, nil
}

func decodeFunctionExpression(m map[string]any) (ast.Node, error) {
	var id *ast.Identifier
	if m["id"] != nil {
		named, err := decodeIdentifierField(m["id"])
		if err != nil {
			return nil, err
		}
		id = named
	}
	params, err := decodeParams(m["params"])
	if err != nil {
		return nil, err
	}
	body, err := decodeBlock(m["body"])
	if err != nil {
		return nil, err
	}
	return ast.NewFunctionExpression(id, params, body), nil
}

func decodeArrowFunction(m map[string]any) (ast.Node, error) {
	params, err := decodeParams(m["params"])
	if err != nil {
		return nil, err
	}
	bm, ok := m["body"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("estree: arrow function body is not a node")
	}
	body, err := decodeNode(bm)
	if err != nil {
		return nil, err
	}
	return ast.NewArrowFunctionExpression(params, body), nil
}

func decodeVariableDeclaration(m map[string]any) (ast.Node, error) {
	kindStr, _ := m["kind"].(string)
	var kind ast.DeclarationKind
	switch kindStr {
	case "var":
		kind = ast.DeclarationVar
	case "let":
		kind = ast.DeclarationLet
	case "const":
		kind = ast.DeclarationConst
	default:
		return nil, fmt.Errorf("estree: unsupported declaration kind %q", kindStr)
	}
	items, _ := m["declarations"].([]any)
	decls := make([]*ast.VariableDeclarator, 0, len(items))
	for _, item := range items {
		dm, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("estree: declarator is not a node")
		}
		node, err := decodeNode(dm)
		if err != nil {
			return nil, err
		}
		d, ok := node.(*ast.VariableDeclarator)
		if !ok {
			return nil, fmt.Errorf("estree: expected VariableDeclarator, got %s", node.NodeType())
		}
		decls = append(decls, d)
	}
	return ast.NewVariableDeclaration(kind, decls), nil
}

func decodeForStatement(m map[string]any) (ast.Node, error) {
	var init ast.Node
	if im, ok := m["init"].(map[string]any); ok {
		node, err := decodeNode(im)
		if err != nil {
			return nil, err
		}
		init = node
	}
	var test, update ast.Expression
	var err error
	if m["test"] != nil {
		test, err = decodeExpression(m["test"])
		if err != nil {
			return nil, err
		}
	}
	if m["update"] != nil {
		update, err = decodeExpression(m["update"])
		if err != nil {
			return nil, err
		}
	}
	body, err := decodeStatement(m["body"])
	if err != nil {
		return nil, err
	}
	return ast.NewForStatement(init, test, update, body), nil
}

func decodeTryStatement(m map[string]any) (ast.Node, error) {
	block, err := decodeBlock(m["block"])
	if err != nil {
		return nil, err
	}
	var handler *ast.CatchClause
	if hm, ok := m["handler"].(map[string]any); ok {
		node, err := decodeNode(hm)
		if err != nil {
			return nil, err
		}
		clause, ok := node.(*ast.CatchClause)
		if !ok {
			return nil, fmt.Errorf("estree: expected CatchClause, got %s", node.NodeType())
		}
		handler = clause
	}
	var finalizer *ast.BlockStatement
	if m["finalizer"] != nil {
		finalizer, err = decodeBlock(m["finalizer"])
		if err != nil {
			return nil, err
		}
	}
	return ast.NewTryStatement(block, handler, finalizer), nil
}

func decodeClassDeclaration(m map[string]any) (ast.Node, error) {
	if m["superClass"] != nil {
		return nil, fmt.Errorf("estree: class inheritance is not supported")
	}
	id, err := decodeIdentifierField(m["id"])
	if err != nil {
		return nil, err
	}
	bm, ok := m["body"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("estree: class body is not a node")
	}
	items, _ := bm["body"].([]any)
	elements := make([]ast.Node, 0, len(items))
	for _, item := range items {
		em, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("estree: class element is not a node")
		}
		el, err := decodeClassElement(em)
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
	}
	body := ast.NewClassBody(elements)
	if r, ok := any(body).(ranger); ok {
		start, end := sourceRange(bm)
		r.SetRange(start, end)
	}
	return ast.NewClassDeclaration(id, body), nil
}

func decodeClassElement(m map[string]any) (ast.Node, error) {
	t, _ := m["type"].(string)
	if static, _ := m["static"].(bool); static {
		return nil, fmt.Errorf("estree: static class members are not supported")
	}
	if computed, _ := m["computed"].(bool); computed {
		return nil, fmt.Errorf("estree: computed class member names are not supported")
	}
	switch t {
	case "MethodDefinition":
		kindStr, _ := m["kind"].(string)
		var kind ast.MethodKind
		switch kindStr {
		case "constructor":
			kind = ast.MethodKindConstructor
		case "method":
			kind = ast.MethodKindMethod
		default:
			return nil, fmt.Errorf("estree: %s class members are not supported", kindStr)
		}
		key, err := decodeIdentifierField(m["key"])
		if err != nil {
			return nil, err
		}
		vm, ok := m["value"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("estree: method value is not a node")
		}
		node, err := decodeNode(vm)
		if err != nil {
			return nil, err
		}
		fn, ok := node.(*ast.FunctionExpression)
		if !ok {
			return nil, fmt.Errorf("estree: method value is %s, want FunctionExpression", node.NodeType())
		}
		md := ast.NewMethodDefinition(key, fn, kind)
		start, end := sourceRange(m)
		md.SetRange(start, end)
		return md, nil
	case "PropertyDefinition":
		key, err := decodeIdentifierField(m["key"])
		if err != nil {
			return nil, err
		}
		var value ast.Expression
		if m["value"] != nil {
			value, err = decodeExpression(m["value"])
			if err != nil {
				return nil, err
			}
		}
		pd := ast.NewPropertyDefinition(key, value)
		start, end := sourceRange(m)
		pd.SetRange(start, end)
		return pd, nil
	default:
		return nil, fmt.Errorf("estree: unsupported class element %q", t)
	}
}

// Shared field decoders.

func decodeStatements(v any) ([]ast.Statement, error) {
	items, _ := v.([]any)
	out := make([]ast.Statement, 0, len(items))
	for _, item := range items {
		s, err := decodeStatement(item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func decodeStatement(v any) (ast.Statement, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("estree: statement is not a node")
	}
	node, err := decodeNode(m)
	if err != nil {
		return nil, err
	}
	s, ok := node.(ast.Statement)
	if !ok {
		return nil, fmt.Errorf("estree: %s is not a statement", node.NodeType())
	}
	return s, nil
}

func decodeExpressions(v any) ([]ast.Expression, error) {
	items, _ := v.([]any)
	out := make([]ast.Expression, 0, len(items))
	for _, item := range items {
		e, err := decodeExpression(item)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeExpression(v any) (ast.Expression, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("estree: expression is not a node")
	}
	node, err := decodeNode(m)
	if err != nil {
		return nil, err
	}
	e, ok := node.(ast.Expression)
	if !ok {
		return nil, fmt.Errorf("estree: %s is not an expression", node.NodeType())
	}
	return e, nil
}

func decodeIdentifierField(v any) (*ast.Identifier, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("estree: expected an Identifier node")
	}
	node, err := decodeNode(m)
	if err != nil {
		return nil, err
	}
	id, ok := node.(*ast.Identifier)
	if !ok {
		return nil, fmt.Errorf("estree: expected Identifier, got %s", node.NodeType())
	}
	return id, nil
}

func decodeParams(v any) ([]*ast.Identifier, error) {
	items, _ := v.([]any)
	out := make([]*ast.Identifier, 0, len(items))
	for _, item := range items {
		id, err := decodeIdentifierField(item)
		if err != nil {
			return nil, fmt.Errorf("estree: unsupported parameter form: %w", err)
		}
		out = append(out, id)
	}
	return out, nil
}

func decodeBlock(v any) (*ast.BlockStatement, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("estree: expected a BlockStatement node")
	}
	node, err := decodeNode(m)
	if err != nil {
		return nil, err
	}
	b, ok := node.(*ast.BlockStatement)
	if !ok {
		return nil, fmt.Errorf("estree: expected BlockStatement, got %s", node.NodeType())
	}
	return b, nil
}
