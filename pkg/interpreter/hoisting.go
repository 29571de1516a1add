package interpreter

import (
	"github.com/WebSims/jstrace/pkg/ast"
	"github.com/WebSims/jstrace/pkg/runtime"
)

// The hoisting pass runs once per new scope, before any of its statements
// execute. Declaration conflicts were already rejected by validateProgram,
// so the pass only applies the redeclaration policy:
//
//   - a function binding wins over a later var of the same name;
//   - among duplicate function declarations the last one wins.

// hoistFunctionScope prepares a program or function scope: var and function
// declarations are collected through nested blocks and control flow (never
// into nested function bodies), then the scope's own immediate lexical
// declarations enter the temporal dead zone.
func (st *execState) hoistFunctionScope(stmts []ast.Statement) {
	scope := st.scopes.Current()
	for _, s := range stmts {
		st.hoistVarFunc(scope, s)
	}
	st.hoistLexical(scope, stmts)
}

// hoistBlockScope prepares a freshly pushed block scope and reports whether
// it declared anything: block scopes only hoist their own lexical names.
func (st *execState) hoistBlockScope(stmts []ast.Statement) bool {
	return st.hoistLexical(st.scopes.Current(), stmts)
}

func (st *execState) hoistVarFunc(scope *runtime.Scope, s ast.Statement) {
	switch s := s.(type) {
	case *ast.VariableDeclaration:
		if s.Kind != ast.DeclarationVar {
			return
		}
		for _, d := range s.Declarations {
			// An existing function or parameter binding keeps its value; the
			// var declaration is a no-op until its initializer runs.
			if _, ok := scope.Variable(d.ID.Name); ok {
				continue
			}
			scope.Declare(d.ID.Name, runtime.DeclVar, runtime.UndefinedValue{}, true)
		}
	case *ast.FunctionDeclaration:
		// Function declarations hoist past blocks to the nearest function
		// or program scope, capturing the chain as it stands now.
		ref := st.allocateFunction(s.ID.Name, s.Params, s.Body, s, false)
		scope.Declare(s.ID.Name, runtime.DeclFunction, runtime.ReferenceValue{Ref: ref}, true)
	case *ast.BlockStatement:
		for _, inner := range s.Body {
			st.hoistVarFunc(scope, inner)
		}
	case *ast.IfStatement:
		st.hoistVarFunc(scope, s.Consequent)
		if s.Alternate != nil {
			st.hoistVarFunc(scope, s.Alternate)
		}
	case *ast.ForStatement:
		if vd, ok := s.Init.(*ast.VariableDeclaration); ok && vd.Kind == ast.DeclarationVar {
			st.hoistVarFunc(scope, vd)
		}
		st.hoistVarFunc(scope, s.Body)
	case *ast.WhileStatement:
		st.hoistVarFunc(scope, s.Body)
	case *ast.DoWhileStatement:
		st.hoistVarFunc(scope, s.Body)
	case *ast.TryStatement:
		for _, inner := range s.Block.Body {
			st.hoistVarFunc(scope, inner)
		}
		if s.Handler != nil {
			for _, inner := range s.Handler.Body.Body {
				st.hoistVarFunc(scope, inner)
			}
		}
		if s.Finalizer != nil {
			for _, inner := range s.Finalizer.Body {
				st.hoistVarFunc(scope, inner)
			}
		}
	}
}

// hoistLexical declares the immediate let/const/class names of stmts in the
// given scope, all uninitialized (TDZ), and reports whether it declared any.
func (st *execState) hoistLexical(scope *runtime.Scope, stmts []ast.Statement) bool {
	declared := false
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.VariableDeclaration:
			if s.Kind == ast.DeclarationVar {
				continue
			}
			decl := runtime.DeclLet
			if s.Kind == ast.DeclarationConst {
				decl = runtime.DeclConst
			}
			for _, d := range s.Declarations {
				scope.Declare(d.ID.Name, decl, nil, false)
				declared = true
			}
		case *ast.ClassDeclaration:
			scope.Declare(s.ID.Name, runtime.DeclLet, nil, false)
			declared = true
		}
	}
	return declared
}
