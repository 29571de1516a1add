package interpreter

import (
	"fmt"

	"github.com/WebSims/jstrace/pkg/ast"
	"github.com/WebSims/jstrace/pkg/runtime"
	"github.com/WebSims/jstrace/pkg/trace"
)

func (st *execState) execStatements(stmts []ast.Statement) error {
	for _, s := range stmts {
		if err := st.execStatement(s); err != nil {
			return err
		}
	}
	return nil
}

// execStatement dispatches on the statement type. Every statement records
// EXECUTING on entry and EXECUTED on normal completion; a statement that
// transfers control (throw, return, break, continue) records EXECUTED and
// then returns its signal, while statements the signal unwinds through
// record no EXECUTED.
func (st *execState) execStatement(s ast.Statement) error {
	if err := st.checkBudget(); err != nil {
		return err
	}
	switch s := s.(type) {
	case *ast.ExpressionStatement:
		return st.execExpressionStatement(s)
	case *ast.VariableDeclaration:
		return st.execVariableDeclaration(s)
	case *ast.FunctionDeclaration:
		// The binding was created by the hoisting pass.
		st.rec.Record(trace.StepExecuting, s, nil)
		st.rec.Record(trace.StepExecuted, s, nil)
		return nil
	case *ast.EmptyStatement:
		st.rec.Record(trace.StepExecuting, s, nil)
		st.rec.Record(trace.StepExecuted, s, nil)
		return nil
	case *ast.BlockStatement:
		return st.execBlock(s)
	case *ast.IfStatement:
		return st.execIf(s)
	case *ast.ForStatement:
		return st.execFor(s)
	case *ast.WhileStatement:
		return st.execWhile(s)
	case *ast.DoWhileStatement:
		return st.execDoWhile(s)
	case *ast.BreakStatement:
		st.rec.Record(trace.StepExecuting, s, nil)
		st.rec.Record(trace.StepExecuted, s, nil)
		return breakSignal{}
	case *ast.ContinueStatement:
		st.rec.Record(trace.StepExecuting, s, nil)
		st.rec.Record(trace.StepExecuted, s, nil)
		return continueSignal{}
	case *ast.ReturnStatement:
		return st.execReturn(s)
	case *ast.ThrowStatement:
		return st.execThrow(s)
	case *ast.TryStatement:
		return st.execTry(s)
	case *ast.ClassDeclaration:
		return st.execClassDeclaration(s)
	default:
		return &runtime.InvariantError{Msg: fmt.Sprintf("unexpected statement node %s", s.NodeType())}
	}
}

func (st *execState) execExpressionStatement(s *ast.ExpressionStatement) error {
	st.rec.Record(trace.StepExecuting, s, nil)
	if _, err := st.evalExpression(s.Expression); err != nil {
		return err
	}
	if _, err := st.pop(); err != nil {
		return err
	}
	st.rec.Record(trace.StepExecuted, s, nil)
	return nil
}

func (st *execState) execVariableDeclaration(s *ast.VariableDeclaration) error {
	st.rec.Record(trace.StepExecuting, s, nil)
	if err := st.execDeclarators(s); err != nil {
		return err
	}
	st.rec.Record(trace.StepExecuted, s, nil)
	return nil
}

// execDeclarators runs the initializers of a declaration. var bindings were
// initialized to undefined at hoist time and are only written when an
// initializer exists; let/const bindings leave the temporal dead zone here,
// with or without an initializer.
func (st *execState) execDeclarators(s *ast.VariableDeclaration) error {
	for _, d := range s.Declarations {
		name := d.ID.Name
		if s.Kind == ast.DeclarationVar {
			if d.Init == nil {
				continue
			}
			v, err := st.evalExpression(d.Init)
			if err != nil {
				return err
			}
			if _, err := st.pop(); err != nil {
				return err
			}
			scope, _, found := st.scopes.Lookup(name)
			if !found {
				return &runtime.InvariantError{Msg: fmt.Sprintf("var %q missing after hoisting", name)}
			}
			if err := scope.SetValue(name, v); err != nil {
				return err
			}
			st.rec.Record(trace.StepEvaluated, d, writeVarChange(name, v))
			continue
		}
		var v runtime.Value = runtime.UndefinedValue{}
		if d.Init != nil {
			val, err := st.evalExpression(d.Init)
			if err != nil {
				return err
			}
			if _, err := st.pop(); err != nil {
				return err
			}
			v = val
		}
		if err := st.scopes.Current().Initialize(name, v); err != nil {
			return err
		}
		st.rec.Record(trace.StepEvaluated, d, writeVarChange(name, v))
	}
	return nil
}

func (st *execState) execBlock(s *ast.BlockStatement) error {
	st.rec.Record(trace.StepExecuting, s, nil)
	scope := st.scopes.Push(runtime.ScopeKindBlock)
	st.rec.Record(trace.StepPushScope, s, pushChange(scope))
	if st.hoistBlockScope(s.Body) {
		st.rec.Record(trace.StepHoisting, s, nil)
	}
	runErr := st.execStatements(s.Body)
	if err := st.popScope(runtime.ScopeKindBlock, s); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	st.rec.Record(trace.StepExecuted, s, nil)
	return nil
}

func (st *execState) popScope(kind runtime.ScopeKind, node ast.Node) error {
	scope, err := st.scopes.Pop(kind)
	if err != nil {
		return err
	}
	st.rec.Record(trace.StepPopScope, node, popChange(scope))
	return nil
}

func (st *execState) execIf(s *ast.IfStatement) error {
	st.rec.Record(trace.StepExecuting, s, nil)
	if _, err := st.evalExpression(s.Test); err != nil {
		return err
	}
	test, err := st.pop()
	if err != nil {
		return err
	}
	if truthy(test) {
		if err := st.execStatement(s.Consequent); err != nil {
			return err
		}
	} else if s.Alternate != nil {
		if err := st.execStatement(s.Alternate); err != nil {
			return err
		}
	}
	st.rec.Record(trace.StepExecuted, s, nil)
	return nil
}

func (st *execState) execWhile(s *ast.WhileStatement) error {
	st.rec.Record(trace.StepExecuting, s, nil)
	for {
		if err := st.checkBudget(); err != nil {
			return err
		}
		if _, err := st.evalExpression(s.Test); err != nil {
			return err
		}
		test, err := st.pop()
		if err != nil {
			return err
		}
		if !truthy(test) {
			break
		}
		if err := st.execStatement(s.Body); err != nil {
			if _, ok := err.(breakSignal); ok {
				break
			}
			if _, ok := err.(continueSignal); !ok {
				return err
			}
		}
	}
	st.rec.Record(trace.StepExecuted, s, nil)
	return nil
}

func (st *execState) execDoWhile(s *ast.DoWhileStatement) error {
	st.rec.Record(trace.StepExecuting, s, nil)
	for {
		if err := st.checkBudget(); err != nil {
			return err
		}
		if err := st.execStatement(s.Body); err != nil {
			if _, ok := err.(breakSignal); ok {
				break
			}
			if _, ok := err.(continueSignal); !ok {
				return err
			}
		}
		if _, err := st.evalExpression(s.Test); err != nil {
			return err
		}
		test, err := st.pop()
		if err != nil {
			return err
		}
		if !truthy(test) {
			break
		}
	}
	st.rec.Record(trace.StepExecuted, s, nil)
	return nil
}

// execFor runs a for loop. A let/const init gets a loop scope that is
// replaced by a fresh one before every update evaluation, with the loop
// variables' current values copied forward, so closures created in the body
// capture per-iteration bindings.
func (st *execState) execFor(s *ast.ForStatement) error {
	st.rec.Record(trace.StepExecuting, s, nil)

	var iterScope *runtime.Scope
	var loopVars []string
	var loopDecl runtime.DeclarationType

	initDecl, hasInitDecl := s.Init.(*ast.VariableDeclaration)
	lexicalInit := hasInitDecl && initDecl.Kind != ast.DeclarationVar

	switch {
	case lexicalInit:
		iterScope = st.scopes.Push(runtime.ScopeKindBlock)
		st.rec.Record(trace.StepPushScope, s, pushChange(iterScope))
		loopDecl = runtime.DeclLet
		if initDecl.Kind == ast.DeclarationConst {
			loopDecl = runtime.DeclConst
		}
		for _, d := range initDecl.Declarations {
			iterScope.Declare(d.ID.Name, loopDecl, nil, false)
			loopVars = append(loopVars, d.ID.Name)
		}
		st.rec.Record(trace.StepHoisting, s, nil)
		if err := st.execDeclarators(initDecl); err != nil {
			if perr := st.popScope(runtime.ScopeKindBlock, s); perr != nil {
				return perr
			}
			return err
		}
	case hasInitDecl:
		if err := st.execDeclarators(initDecl); err != nil {
			return err
		}
	case s.Init != nil:
		initExpr, ok := s.Init.(ast.Expression)
		if !ok {
			return &runtime.InvariantError{Msg: "for init is neither declaration nor expression"}
		}
		if _, err := st.evalExpression(initExpr); err != nil {
			return err
		}
		if _, err := st.pop(); err != nil {
			return err
		}
	}

	runErr := st.runForLoop(s, &iterScope, loopVars, loopDecl)

	if lexicalInit {
		if err := st.popScope(runtime.ScopeKindBlock, s); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	st.rec.Record(trace.StepExecuted, s, nil)
	return nil
}

func (st *execState) runForLoop(s *ast.ForStatement, iterScope **runtime.Scope, loopVars []string, loopDecl runtime.DeclarationType) error {
	for {
		if err := st.checkBudget(); err != nil {
			return err
		}
		if s.Test != nil {
			if _, err := st.evalExpression(s.Test); err != nil {
				return err
			}
			test, err := st.pop()
			if err != nil {
				return err
			}
			if !truthy(test) {
				return nil
			}
		}
		if err := st.execStatement(s.Body); err != nil {
			if _, ok := err.(breakSignal); ok {
				return nil
			}
			if _, ok := err.(continueSignal); !ok {
				return err
			}
		}
		if *iterScope != nil {
			fresh, err := st.rotateIterationScope(s, *iterScope, loopVars, loopDecl)
			if err != nil {
				return err
			}
			*iterScope = fresh
		}
		if s.Update != nil {
			if _, err := st.evalExpression(s.Update); err != nil {
				return err
			}
			if _, err := st.pop(); err != nil {
				return err
			}
		}
	}
}

// rotateIterationScope replaces the loop scope with a fresh sibling holding
// copies of the loop variables' current values. The old scope stays alive
// through any closures that captured it.
func (st *execState) rotateIterationScope(s *ast.ForStatement, old *runtime.Scope, names []string, decl runtime.DeclarationType) (*runtime.Scope, error) {
	parent := old.Parent()
	carried := make([]runtime.Value, len(names))
	for i, name := range names {
		v, ok := old.Variable(name)
		if !ok {
			return nil, &runtime.InvariantError{Msg: fmt.Sprintf("loop variable %q missing from iteration scope", name)}
		}
		carried[i] = v.Value
	}
	if err := st.popScope(runtime.ScopeKindBlock, s); err != nil {
		return nil, err
	}
	fresh := st.scopes.PushFresh(runtime.ScopeKindBlock, parent)
	st.rec.Record(trace.StepPushScope, s, pushChange(fresh))
	for i, name := range names {
		fresh.Declare(name, decl, carried[i], true)
	}
	st.rec.Record(trace.StepHoisting, s, nil)
	return fresh, nil
}

func (st *execState) execReturn(s *ast.ReturnStatement) error {
	st.rec.Record(trace.StepExecuting, s, nil)
	var v runtime.Value = runtime.UndefinedValue{}
	if s.Argument != nil {
		val, err := st.evalExpression(s.Argument)
		if err != nil {
			return err
		}
		if _, err := st.pop(); err != nil {
			return err
		}
		v = val
	}
	st.rec.Record(trace.StepExecuted, s, nil)
	return returnSignal{value: v}
}

func (st *execState) execThrow(s *ast.ThrowStatement) error {
	st.rec.Record(trace.StepExecuting, s, nil)
	v, err := st.evalExpression(s.Argument)
	if err != nil {
		return err
	}
	if _, err := st.pop(); err != nil {
		return err
	}
	st.rec.Record(trace.StepExecuted, s, nil)
	return throwSignal{value: v}
}

func isControlSignal(err error) bool {
	switch err.(type) {
	case throwSignal, returnSignal, breakSignal, continueSignal:
		return true
	default:
		return false
	}
}

func (st *execState) execTry(s *ast.TryStatement) error {
	st.rec.Record(trace.StepExecuting, s, nil)
	memvalMark := st.rec.MemvalDepth()

	blockErr := st.execStatement(s.Block)
	if blockErr != nil && !isControlSignal(blockErr) {
		return blockErr
	}

	var pending error
	if ts, ok := blockErr.(throwSignal); ok && s.Handler != nil {
		// Partial expression results the throw abandoned are dropped
		// before the handler starts.
		st.rec.TruncateMemval(memvalMark)
		pending = st.execCatch(s.Handler, ts.value)
		if pending != nil && !isControlSignal(pending) {
			return pending
		}
	} else {
		pending = blockErr
	}

	if s.Finalizer != nil {
		ferr := st.execStatement(s.Finalizer)
		if ferr != nil {
			// An abrupt finalizer overrides the pending completion.
			return ferr
		}
	}
	if pending != nil {
		return pending
	}
	st.rec.Record(trace.StepExecuted, s, nil)
	return nil
}

// execCatch binds the thrown value to the catch parameter in a new block
// scope and runs the handler body in that same scope.
func (st *execState) execCatch(h *ast.CatchClause, thrown runtime.Value) error {
	scope := st.scopes.Push(runtime.ScopeKindBlock)
	st.rec.Record(trace.StepPushScope, h, pushChange(scope))
	declared := false
	if h.Param != nil {
		scope.Declare(h.Param.Name, runtime.DeclParameter, thrown, true)
		declared = true
	}
	if st.hoistBlockScope(h.Body.Body) || declared {
		st.rec.Record(trace.StepHoisting, h, nil)
	}
	runErr := st.execStatements(h.Body.Body)
	if err := st.popScope(runtime.ScopeKindBlock, h); err != nil {
		return err
	}
	return runErr
}

// execClassDeclaration builds the class's function object, resolving the
// prototype method table once, and initializes the hoisted class binding.
func (st *execState) execClassDeclaration(s *ast.ClassDeclaration) error {
	st.rec.Record(trace.StepExecuting, s, nil)

	chain := st.scopes.Chain()
	methods := make(map[string]runtime.HeapRef)
	var methodOrder []string
	var ctorParams []*ast.Identifier
	var ctorBody *ast.BlockStatement
	var fields []*ast.PropertyDefinition

	for _, el := range s.Body.Body {
		switch el := el.(type) {
		case *ast.MethodDefinition:
			if el.Kind == ast.MethodKindConstructor {
				ctorParams = el.Value.Params
				ctorBody = el.Value.Body
				continue
			}
			ref := st.allocateFunction(el.Key.Name, el.Value.Params, el.Value.Body, el.Value, false)
			if _, seen := methods[el.Key.Name]; !seen {
				methodOrder = append(methodOrder, el.Key.Name)
			}
			methods[el.Key.Name] = ref
		case *ast.PropertyDefinition:
			fields = append(fields, el)
		default:
			return unsupportedf("class element %s", el.NodeType())
		}
	}

	obj := st.heap.Allocate(runtime.ObjectKindFunction)
	var body ast.Node
	if ctorBody != nil {
		body = ctorBody
	}
	obj.Function = &runtime.FunctionData{
		Name:        s.ID.Name,
		Params:      paramNames(ctorParams),
		Body:        body,
		Node:        s,
		Closure:     chain,
		IsClass:     true,
		Methods:     methods,
		MethodOrder: methodOrder,
		Fields:      fields,
	}

	val := runtime.ReferenceValue{Ref: obj.Ref()}
	if err := st.scopes.Current().Initialize(s.ID.Name, val); err != nil {
		return err
	}
	st.rec.Record(trace.StepExecuted, s, writeVarChange(s.ID.Name, val))
	return nil
}

func paramNames(params []*ast.Identifier) []string {
	out := make([]string, 0, len(params))
	for _, p := range params {
		out = append(out, p.Name)
	}
	return out
}
