package ast

// Terse constructors used by tests and examples to assemble programs without
// going through an external parser.

// Prog builds a Program from statements, wrapping bare expressions in
// ExpressionStatement nodes.
func Prog(stmts ...Statement) *Program {
	return NewProgram(wrapStatements(stmts))
}

func wrapStatements(stmts []Statement) []Statement {
	out := make([]Statement, 0, len(stmts))
	for _, s := range stmts {
		if expr, ok := s.(Expression); ok {
			if _, isStmt := s.(*ExpressionStatement); !isStmt {
				out = append(out, NewExpressionStatement(expr))
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func ID(name string) *Identifier { return NewIdentifier(name) }

func Num(v float64) *NumberLiteral { return NewNumberLiteral(v) }

func Str(v string) *StringLiteral { return NewStringLiteral(v) }

func Bool(v bool) *BooleanLiteral { return NewBooleanLiteral(v) }

func Null() *NullLiteral { return NewNullLiteral() }

func This() *ThisExpression { return NewThisExpression() }

func Array(elements ...Expression) *ArrayExpression { return NewArrayExpression(elements) }

func Object(props ...*Property) *ObjectExpression { return NewObjectExpression(props) }

func Prop(key string, value Expression) *Property { return NewProperty(ID(key), value, false) }

// Member builds obj.name.
func Member(object Expression, name string) *MemberExpression {
	return NewMemberExpression(object, ID(name), false)
}

// Index builds obj[expr].
func Index(object Expression, key Expression) *MemberExpression {
	return NewMemberExpression(object, key, true)
}

func Call(callee Expression, args ...Expression) *CallExpression {
	return NewCallExpression(callee, args)
}

func New(callee Expression, args ...Expression) *NewExpression {
	return NewNewExpression(callee, args)
}

func Assign(left, right Expression) *AssignmentExpression {
	return NewAssignmentExpression("=", left, right)
}

func AssignOp(op string, left, right Expression) *AssignmentExpression {
	return NewAssignmentExpression(op, left, right)
}

func Bin(op string, left, right Expression) *BinaryExpression {
	return NewBinaryExpression(op, left, right)
}

func Logic(op string, left, right Expression) *LogicalExpression {
	return NewLogicalExpression(op, left, right)
}

func Unary(op string, argument Expression) *UnaryExpression {
	return NewUnaryExpression(op, argument)
}

func Update(op string, argument Expression, prefix bool) *UpdateExpression {
	return NewUpdateExpression(op, argument, prefix)
}

func Cond(test, consequent, alternate Expression) *ConditionalExpression {
	return NewConditionalExpression(test, consequent, alternate)
}

func Seq(exprs ...Expression) *SequenceExpression { return NewSequenceExpression(exprs) }

// ExprStmt wraps an expression as a statement.
func ExprStmt(expr Expression) *ExpressionStatement { return NewExpressionStatement(expr) }

// Decl builds a single-name declaration: Decl("let", "x", Num(1)).
// A nil init leaves the declarator uninitialized.
func Decl(kind DeclarationKind, name string, init Expression) *VariableDeclaration {
	return NewVariableDeclaration(kind, []*VariableDeclarator{NewVariableDeclarator(ID(name), init)})
}

func DeclMulti(kind DeclarationKind, decls ...*VariableDeclarator) *VariableDeclaration {
	return NewVariableDeclaration(kind, decls)
}

func Dtor(name string, init Expression) *VariableDeclarator {
	return NewVariableDeclarator(ID(name), init)
}

func Params(names ...string) []*Identifier {
	out := make([]*Identifier, 0, len(names))
	for _, n := range names {
		out = append(out, ID(n))
	}
	return out
}

func FnDecl(name string, params []*Identifier, body ...Statement) *FunctionDeclaration {
	return NewFunctionDeclaration(ID(name), params, Block(body...))
}

func FnExpr(params []*Identifier, body ...Statement) *FunctionExpression {
	return NewFunctionExpression(nil, params, Block(body...))
}

// Arrow builds an arrow function with an expression body (implicit return).
func Arrow(params []*Identifier, body Expression) *ArrowFunctionExpression {
	return NewArrowFunctionExpression(params, body)
}

// ArrowBlock builds an arrow function with a block body.
func ArrowBlock(params []*Identifier, body ...Statement) *ArrowFunctionExpression {
	return NewArrowFunctionExpression(params, Block(body...))
}

func Block(stmts ...Statement) *BlockStatement {
	return NewBlockStatement(wrapStatements(stmts))
}

func If(test Expression, consequent, alternate Statement) *IfStatement {
	return NewIfStatement(test, consequent, alternate)
}

func For(init Node, test, update Expression, body Statement) *ForStatement {
	return NewForStatement(init, test, update, body)
}

func While(test Expression, body Statement) *WhileStatement {
	return NewWhileStatement(test, body)
}

func DoWhile(body Statement, test Expression) *DoWhileStatement {
	return NewDoWhileStatement(body, test)
}

func Ret(argument Expression) *ReturnStatement { return NewReturnStatement(argument) }

func Throw(argument Expression) *ThrowStatement { return NewThrowStatement(argument) }

func Try(block *BlockStatement, handler *CatchClause, finalizer *BlockStatement) *TryStatement {
	return NewTryStatement(block, handler, finalizer)
}

func Catch(param string, body ...Statement) *CatchClause {
	var id *Identifier
	if param != "" {
		id = ID(param)
	}
	return NewCatchClause(id, Block(body...))
}

// ConsoleLog builds console.log(args...).
func ConsoleLog(args ...Expression) *CallExpression {
	return Call(Member(ID("console"), "log"), args...)
}

func Class(name string, elements ...Node) *ClassDeclaration {
	return NewClassDeclaration(ID(name), NewClassBody(elements))
}

func Method(name string, params []*Identifier, body ...Statement) *MethodDefinition {
	kind := MethodKindMethod
	if name == "constructor" {
		kind = MethodKindConstructor
	}
	return NewMethodDefinition(ID(name), FnExpr(params, body...), kind)
}

func Field(name string, value Expression) *PropertyDefinition {
	return NewPropertyDefinition(ID(name), value)
}
