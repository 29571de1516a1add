package ast

// NodeType mirrors the ESTree "type" discriminator emitted by external
// parsers (acorn, espree). The simulator only consumes the subset below.
type NodeType string

const (
	NodeProgram                 NodeType = "Program"
	NodeIdentifier              NodeType = "Identifier"
	NodeNumberLiteral           NodeType = "NumberLiteral"
	NodeStringLiteral           NodeType = "StringLiteral"
	NodeBooleanLiteral          NodeType = "BooleanLiteral"
	NodeNullLiteral             NodeType = "NullLiteral"
	NodeArrayExpression         NodeType = "ArrayExpression"
	NodeObjectExpression        NodeType = "ObjectExpression"
	NodeProperty                NodeType = "Property"
	NodeMemberExpression        NodeType = "MemberExpression"
	NodeCallExpression          NodeType = "CallExpression"
	NodeNewExpression           NodeType = "NewExpression"
	NodeAssignmentExpression    NodeType = "AssignmentExpression"
	NodeBinaryExpression        NodeType = "BinaryExpression"
	NodeLogicalExpression       NodeType = "LogicalExpression"
	NodeUnaryExpression         NodeType = "UnaryExpression"
	NodeUpdateExpression        NodeType = "UpdateExpression"
	NodeConditionalExpression   NodeType = "ConditionalExpression"
	NodeSequenceExpression      NodeType = "SequenceExpression"
	NodeFunctionExpression      NodeType = "FunctionExpression"
	NodeArrowFunctionExpression NodeType = "ArrowFunctionExpression"
	NodeThisExpression          NodeType = "ThisExpression"
	NodeExpressionStatement     NodeType = "ExpressionStatement"
	NodeVariableDeclaration     NodeType = "VariableDeclaration"
	NodeVariableDeclarator      NodeType = "VariableDeclarator"
	NodeFunctionDeclaration     NodeType = "FunctionDeclaration"
	NodeBlockStatement          NodeType = "BlockStatement"
	NodeEmptyStatement          NodeType = "EmptyStatement"
	NodeIfStatement             NodeType = "IfStatement"
	NodeForStatement            NodeType = "ForStatement"
	NodeWhileStatement          NodeType = "WhileStatement"
	NodeDoWhileStatement        NodeType = "DoWhileStatement"
	NodeBreakStatement          NodeType = "BreakStatement"
	NodeContinueStatement       NodeType = "ContinueStatement"
	NodeReturnStatement         NodeType = "ReturnStatement"
	NodeThrowStatement          NodeType = "ThrowStatement"
	NodeTryStatement            NodeType = "TryStatement"
	NodeCatchClause             NodeType = "CatchClause"
	NodeClassDeclaration        NodeType = "ClassDeclaration"
	NodeClassBody               NodeType = "ClassBody"
	NodeMethodDefinition        NodeType = "MethodDefinition"
	NodePropertyDefinition      NodeType = "PropertyDefinition"
)

// Node is implemented by every AST node. SourceRange reports the [start, end)
// byte offsets from the original source; consumers use it for highlighting
// and the simulator treats it as opaque identity.
type Node interface {
	NodeType() NodeType
	SourceRange() [2]int
	isNode()
}

type nodeImpl struct {
	Type  NodeType `json:"type"`
	Range [2]int   `json:"range"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType  { return n.Type }
func (n nodeImpl) SourceRange() [2]int { return n.Range }
func (nodeImpl) isNode()               {}

// SetRange records the [start, end) source offsets; decoders call it after
// construction.
func (n *nodeImpl) SetRange(start, end int) { n.Range = [2]int{start, end} }

// Marker interfaces.

type Expression interface {
	Node
	expressionNode()
	statementNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

// Program root

type Program struct {
	nodeImpl

	Body []Statement `json:"body"`
}

func NewProgram(body []Statement) *Program {
	return &Program{nodeImpl: newNodeImpl(NodeProgram), Body: body}
}

// Identifier

type Identifier struct {
	nodeImpl
	expressionMarker
	statementMarker

	Name string `json:"name"`
}

func NewIdentifier(name string) *Identifier {
	return &Identifier{nodeImpl: newNodeImpl(NodeIdentifier), Name: name}
}

// Literals. External ESTree `Literal` nodes are split by value type during
// decoding so the evaluator can switch without inspecting `any`.

type NumberLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Value float64 `json:"value"`
}

func NewNumberLiteral(value float64) *NumberLiteral {
	return &NumberLiteral{nodeImpl: newNodeImpl(NodeNumberLiteral), Value: value}
}

type StringLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Value string `json:"value"`
}

func NewStringLiteral(value string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral), Value: value}
}

type BooleanLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Value bool `json:"value"`
}

func NewBooleanLiteral(value bool) *BooleanLiteral {
	return &BooleanLiteral{nodeImpl: newNodeImpl(NodeBooleanLiteral), Value: value}
}

type NullLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker
}

func NewNullLiteral() *NullLiteral {
	return &NullLiteral{nodeImpl: newNodeImpl(NodeNullLiteral)}
}

// Composite expressions

type ArrayExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Elements []Expression `json:"elements"`
}

func NewArrayExpression(elements []Expression) *ArrayExpression {
	return &ArrayExpression{nodeImpl: newNodeImpl(NodeArrayExpression), Elements: elements}
}

type Property struct {
	nodeImpl

	Key      Expression `json:"key"` // Identifier or StringLiteral unless Computed
	Value    Expression `json:"value"`
	Computed bool       `json:"computed"`
}

func NewProperty(key Expression, value Expression, computed bool) *Property {
	return &Property{nodeImpl: newNodeImpl(NodeProperty), Key: key, Value: value, Computed: computed}
}

type ObjectExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Properties []*Property `json:"properties"`
}

func NewObjectExpression(properties []*Property) *ObjectExpression {
	return &ObjectExpression{nodeImpl: newNodeImpl(NodeObjectExpression), Properties: properties}
}

type MemberExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Object   Expression `json:"object"`
	Property Expression `json:"property"` // Identifier when !Computed
	Computed bool       `json:"computed"`
}

func NewMemberExpression(object, property Expression, computed bool) *MemberExpression {
	return &MemberExpression{nodeImpl: newNodeImpl(NodeMemberExpression), Object: object, Property: property, Computed: computed}
}

type CallExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Callee    Expression   `json:"callee"`
	Arguments []Expression `json:"arguments"`
}

func NewCallExpression(callee Expression, arguments []Expression) *CallExpression {
	return &CallExpression{nodeImpl: newNodeImpl(NodeCallExpression), Callee: callee, Arguments: arguments}
}

type NewExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Callee    Expression   `json:"callee"`
	Arguments []Expression `json:"arguments"`
}

func NewNewExpression(callee Expression, arguments []Expression) *NewExpression {
	return &NewExpression{nodeImpl: newNodeImpl(NodeNewExpression), Callee: callee, Arguments: arguments}
}

type AssignmentExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Operator string     `json:"operator"` // =, +=, -=, *=, /=
	Left     Expression `json:"left"`     // Identifier or MemberExpression
	Right    Expression `json:"right"`
}

func NewAssignmentExpression(operator string, left, right Expression) *AssignmentExpression {
	return &AssignmentExpression{nodeImpl: newNodeImpl(NodeAssignmentExpression), Operator: operator, Left: left, Right: right}
}

type BinaryExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Operator string     `json:"operator"`
	Left     Expression `json:"left"`
	Right    Expression `json:"right"`
}

func NewBinaryExpression(operator string, left, right Expression) *BinaryExpression {
	return &BinaryExpression{nodeImpl: newNodeImpl(NodeBinaryExpression), Operator: operator, Left: left, Right: right}
}

type LogicalExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Operator string     `json:"operator"` // &&, ||, ??
	Left     Expression `json:"left"`
	Right    Expression `json:"right"`
}

func NewLogicalExpression(operator string, left, right Expression) *LogicalExpression {
	return &LogicalExpression{nodeImpl: newNodeImpl(NodeLogicalExpression), Operator: operator, Left: left, Right: right}
}

type UnaryExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Operator string     `json:"operator"` // -, +, !, typeof
	Argument Expression `json:"argument"`
}

func NewUnaryExpression(operator string, argument Expression) *UnaryExpression {
	return &UnaryExpression{nodeImpl: newNodeImpl(NodeUnaryExpression), Operator: operator, Argument: argument}
}

type UpdateExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Operator string     `json:"operator"` // ++ or --
	Argument Expression `json:"argument"`
	Prefix   bool       `json:"prefix"`
}

func NewUpdateExpression(operator string, argument Expression, prefix bool) *UpdateExpression {
	return &UpdateExpression{nodeImpl: newNodeImpl(NodeUpdateExpression), Operator: operator, Argument: argument, Prefix: prefix}
}

type ConditionalExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Test       Expression `json:"test"`
	Consequent Expression `json:"consequent"`
	Alternate  Expression `json:"alternate"`
}

func NewConditionalExpression(test, consequent, alternate Expression) *ConditionalExpression {
	return &ConditionalExpression{nodeImpl: newNodeImpl(NodeConditionalExpression), Test: test, Consequent: consequent, Alternate: alternate}
}

type SequenceExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Expressions []Expression `json:"expressions"`
}

func NewSequenceExpression(expressions []Expression) *SequenceExpression {
	return &SequenceExpression{nodeImpl: newNodeImpl(NodeSequenceExpression), Expressions: expressions}
}

type FunctionExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	ID     *Identifier     `json:"id,omitempty"`
	Params []*Identifier   `json:"params"`
	Body   *BlockStatement `json:"body"`
}

func NewFunctionExpression(id *Identifier, params []*Identifier, body *BlockStatement) *FunctionExpression {
	return &FunctionExpression{nodeImpl: newNodeImpl(NodeFunctionExpression), ID: id, Params: params, Body: body}
}

// ArrowFunctionExpression bodies are either a BlockStatement or a bare
// expression (implicit return).
type ArrowFunctionExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Params []*Identifier `json:"params"`
	Body   Node          `json:"body"`
}

func NewArrowFunctionExpression(params []*Identifier, body Node) *ArrowFunctionExpression {
	return &ArrowFunctionExpression{nodeImpl: newNodeImpl(NodeArrowFunctionExpression), Params: params, Body: body}
}

type ThisExpression struct {
	nodeImpl
	expressionMarker
	statementMarker
}

func NewThisExpression() *ThisExpression {
	return &ThisExpression{nodeImpl: newNodeImpl(NodeThisExpression)}
}

// Statements

type ExpressionStatement struct {
	nodeImpl
	statementMarker

	Expression Expression `json:"expression"`
}

func NewExpressionStatement(expression Expression) *ExpressionStatement {
	return &ExpressionStatement{nodeImpl: newNodeImpl(NodeExpressionStatement), Expression: expression}
}

type DeclarationKind string

const (
	DeclarationVar   DeclarationKind = "var"
	DeclarationLet   DeclarationKind = "let"
	DeclarationConst DeclarationKind = "const"
)

type VariableDeclarator struct {
	nodeImpl

	ID   *Identifier `json:"id"`
	Init Expression  `json:"init,omitempty"`
}

func NewVariableDeclarator(id *Identifier, init Expression) *VariableDeclarator {
	return &VariableDeclarator{nodeImpl: newNodeImpl(NodeVariableDeclarator), ID: id, Init: init}
}

type VariableDeclaration struct {
	nodeImpl
	statementMarker

	Kind         DeclarationKind       `json:"kind"`
	Declarations []*VariableDeclarator `json:"declarations"`
}

func NewVariableDeclaration(kind DeclarationKind, declarations []*VariableDeclarator) *VariableDeclaration {
	return &VariableDeclaration{nodeImpl: newNodeImpl(NodeVariableDeclaration), Kind: kind, Declarations: declarations}
}

type FunctionDeclaration struct {
	nodeImpl
	statementMarker

	ID     *Identifier     `json:"id"`
	Params []*Identifier   `json:"params"`
	Body   *BlockStatement `json:"body"`
}

func NewFunctionDeclaration(id *Identifier, params []*Identifier, body *BlockStatement) *FunctionDeclaration {
	return &FunctionDeclaration{nodeImpl: newNodeImpl(NodeFunctionDeclaration), ID: id, Params: params, Body: body}
}

type BlockStatement struct {
	nodeImpl
	statementMarker

	Body []Statement `json:"body"`
}

func NewBlockStatement(body []Statement) *BlockStatement {
	return &BlockStatement{nodeImpl: newNodeImpl(NodeBlockStatement), Body: body}
}

type EmptyStatement struct {
	nodeImpl
	statementMarker
}

func NewEmptyStatement() *EmptyStatement {
	return &EmptyStatement{nodeImpl: newNodeImpl(NodeEmptyStatement)}
}

type IfStatement struct {
	nodeImpl
	statementMarker

	Test       Expression `json:"test"`
	Consequent Statement  `json:"consequent"`
	Alternate  Statement  `json:"alternate,omitempty"`
}

func NewIfStatement(test Expression, consequent, alternate Statement) *IfStatement {
	return &IfStatement{nodeImpl: newNodeImpl(NodeIfStatement), Test: test, Consequent: consequent, Alternate: alternate}
}

// ForStatement.Init is either a *VariableDeclaration or an Expression (or nil).
type ForStatement struct {
	nodeImpl
	statementMarker

	Init   Node       `json:"init,omitempty"`
	Test   Expression `json:"test,omitempty"`
	Update Expression `json:"update,omitempty"`
	Body   Statement  `json:"body"`
}

func NewForStatement(init Node, test, update Expression, body Statement) *ForStatement {
	return &ForStatement{nodeImpl: newNodeImpl(NodeForStatement), Init: init, Test: test, Update: update, Body: body}
}

type WhileStatement struct {
	nodeImpl
	statementMarker

	Test Expression `json:"test"`
	Body Statement  `json:"body"`
}

func NewWhileStatement(test Expression, body Statement) *WhileStatement {
	return &WhileStatement{nodeImpl: newNodeImpl(NodeWhileStatement), Test: test, Body: body}
}

type DoWhileStatement struct {
	nodeImpl
	statementMarker

	Body Statement  `json:"body"`
	Test Expression `json:"test"`
}

func NewDoWhileStatement(body Statement, test Expression) *DoWhileStatement {
	return &DoWhileStatement{nodeImpl: newNodeImpl(NodeDoWhileStatement), Body: body, Test: test}
}

type BreakStatement struct {
	nodeImpl
	statementMarker
}

func NewBreakStatement() *BreakStatement {
	return &BreakStatement{nodeImpl: newNodeImpl(NodeBreakStatement)}
}

type ContinueStatement struct {
	nodeImpl
	statementMarker
}

func NewContinueStatement() *ContinueStatement {
	return &ContinueStatement{nodeImpl: newNodeImpl(NodeContinueStatement)}
}

type ReturnStatement struct {
	nodeImpl
	statementMarker

	Argument Expression `json:"argument,omitempty"`
}

func NewReturnStatement(argument Expression) *ReturnStatement {
	return &ReturnStatement{nodeImpl: newNodeImpl(NodeReturnStatement), Argument: argument}
}

type ThrowStatement struct {
	nodeImpl
	statementMarker

	Argument Expression `json:"argument"`
}

func NewThrowStatement(argument Expression) *ThrowStatement {
	return &ThrowStatement{nodeImpl: newNodeImpl(NodeThrowStatement), Argument: argument}
}

type CatchClause struct {
	nodeImpl

	Param *Identifier     `json:"param,omitempty"`
	Body  *BlockStatement `json:"body"`
}

func NewCatchClause(param *Identifier, body *BlockStatement) *CatchClause {
	return &CatchClause{nodeImpl: newNodeImpl(NodeCatchClause), Param: param, Body: body}
}

type TryStatement struct {
	nodeImpl
	statementMarker

	Block     *BlockStatement `json:"block"`
	Handler   *CatchClause    `json:"handler,omitempty"`
	Finalizer *BlockStatement `json:"finalizer,omitempty"`
}

func NewTryStatement(block *BlockStatement, handler *CatchClause, finalizer *BlockStatement) *TryStatement {
	return &TryStatement{nodeImpl: newNodeImpl(NodeTryStatement), Block: block, Handler: handler, Finalizer: finalizer}
}

// Classes

type MethodKind string

const (
	MethodKindConstructor MethodKind = "constructor"
	MethodKindMethod      MethodKind = "method"
)

type MethodDefinition struct {
	nodeImpl

	Key   *Identifier         `json:"key"`
	Value *FunctionExpression `json:"value"`
	Kind  MethodKind          `json:"kind"`
}

func NewMethodDefinition(key *Identifier, value *FunctionExpression, kind MethodKind) *MethodDefinition {
	return &MethodDefinition{nodeImpl: newNodeImpl(NodeMethodDefinition), Key: key, Value: value, Kind: kind}
}

type PropertyDefinition struct {
	nodeImpl

	Key   *Identifier `json:"key"`
	Value Expression  `json:"value,omitempty"`
}

func NewPropertyDefinition(key *Identifier, value Expression) *PropertyDefinition {
	return &PropertyDefinition{nodeImpl: newNodeImpl(NodePropertyDefinition), Key: key, Value: value}
}

// ClassBody elements are MethodDefinition or PropertyDefinition nodes.
type ClassBody struct {
	nodeImpl

	Body []Node `json:"body"`
}

func NewClassBody(body []Node) *ClassBody {
	return &ClassBody{nodeImpl: newNodeImpl(NodeClassBody), Body: body}
}

type ClassDeclaration struct {
	nodeImpl
	statementMarker

	ID   *Identifier `json:"id"`
	Body *ClassBody  `json:"body"`
}

func NewClassDeclaration(id *Identifier, body *ClassBody) *ClassDeclaration {
	return &ClassDeclaration{nodeImpl: newNodeImpl(NodeClassDeclaration), ID: id, Body: body}
}
