package interpreter

import (
	"github.com/WebSims/jstrace/pkg/ast"
)

// Static declaration validation. Conflicting declarations are the moral
// equivalent of a SyntaxError, so they surface before execution begins and
// a program that fails here never produces a single step. The checks cover
// every scope in the program, including function bodies that might never be
// called.

func validateProgram(p *ast.Program) error {
	v := &validator{}
	return v.scopeBody(nil, nil, p.Body)
}

type validator struct{}

func dupDeclaration(name string) error {
	return &DeclarationError{Name: name, Msg: "duplicate lexical declaration"}
}

// scopeBody checks one scope unit. lexExtra are lexical bindings the unit
// owns besides its statements (a for-init let/const list); paramLike are
// names that conflict with lexical declarations but tolerate var
// redeclaration (function and catch parameters).
func (v *validator) scopeBody(lexExtra, paramLike []string, stmts []ast.Statement) error {
	lex := make(map[string]bool)
	for _, n := range lexExtra {
		if lex[n] {
			return dupDeclaration(n)
		}
		lex[n] = true
	}
	for _, s := range stmts {
		for _, name := range immediateLexicalNames(s) {
			if lex[name] {
				return dupDeclaration(name)
			}
			lex[name] = true
		}
	}
	for _, p := range paramLike {
		if lex[p] {
			return &DeclarationError{Name: p, Msg: "lexical declaration conflicts with parameter"}
		}
	}
	var conflict error
	eachHoistedName(stmts, func(name string) {
		if conflict == nil && lex[name] {
			conflict = &DeclarationError{Name: name, Msg: "var or function declaration conflicts with lexical declaration"}
		}
	})
	if conflict != nil {
		return conflict
	}
	for _, s := range stmts {
		if err := v.statement(s); err != nil {
			return err
		}
	}
	return nil
}

// immediateLexicalNames lists the block-scoped names a statement declares
// directly in the enclosing scope.
func immediateLexicalNames(s ast.Statement) []string {
	switch s := s.(type) {
	case *ast.VariableDeclaration:
		if s.Kind == ast.DeclarationVar {
			return nil
		}
		names := make([]string, 0, len(s.Declarations))
		for _, d := range s.Declarations {
			names = append(names, d.ID.Name)
		}
		return names
	case *ast.ClassDeclaration:
		return []string{s.ID.Name}
	default:
		return nil
	}
}

// eachHoistedName visits every var and function declaration name that
// hoists into the scope owning stmts, descending through blocks and control
// flow but never into nested function or class bodies.
func eachHoistedName(stmts []ast.Statement, fn func(string)) {
	for _, s := range stmts {
		hoistedNamesIn(s, fn)
	}
}

func hoistedNamesIn(s ast.Statement, fn func(string)) {
	switch s := s.(type) {
	case *ast.VariableDeclaration:
		if s.Kind == ast.DeclarationVar {
			for _, d := range s.Declarations {
				fn(d.ID.Name)
			}
		}
	case *ast.FunctionDeclaration:
		fn(s.ID.Name)
	case *ast.BlockStatement:
		eachHoistedName(s.Body, fn)
	case *ast.IfStatement:
		hoistedNamesIn(s.Consequent, fn)
		if s.Alternate != nil {
			hoistedNamesIn(s.Alternate, fn)
		}
	case *ast.ForStatement:
		if vd, ok := s.Init.(*ast.VariableDeclaration); ok && vd.Kind == ast.DeclarationVar {
			for _, d := range vd.Declarations {
				fn(d.ID.Name)
			}
		}
		hoistedNamesIn(s.Body, fn)
	case *ast.WhileStatement:
		hoistedNamesIn(s.Body, fn)
	case *ast.DoWhileStatement:
		hoistedNamesIn(s.Body, fn)
	case *ast.TryStatement:
		eachHoistedName(s.Block.Body, fn)
		if s.Handler != nil {
			eachHoistedName(s.Handler.Body.Body, fn)
		}
		if s.Finalizer != nil {
			eachHoistedName(s.Finalizer.Body, fn)
		}
	}
}

func (v *validator) statement(s ast.Statement) error {
	switch s := s.(type) {
	case *ast.ExpressionStatement:
		return v.expr(s.Expression)
	case *ast.VariableDeclaration:
		for _, d := range s.Declarations {
			if err := v.expr(d.Init); err != nil {
				return err
			}
		}
		return nil
	case *ast.FunctionDeclaration:
		return v.function(s.Params, s.Body)
	case *ast.BlockStatement:
		return v.scopeBody(nil, nil, s.Body)
	case *ast.IfStatement:
		if err := v.expr(s.Test); err != nil {
			return err
		}
		if err := v.statement(s.Consequent); err != nil {
			return err
		}
		if s.Alternate != nil {
			return v.statement(s.Alternate)
		}
		return nil
	case *ast.ForStatement:
		if err := v.validateForHead(s); err != nil {
			return err
		}
		if err := v.expr(s.Test); err != nil {
			return err
		}
		if err := v.expr(s.Update); err != nil {
			return err
		}
		return v.statement(s.Body)
	case *ast.WhileStatement:
		if err := v.expr(s.Test); err != nil {
			return err
		}
		return v.statement(s.Body)
	case *ast.DoWhileStatement:
		if err := v.statement(s.Body); err != nil {
			return err
		}
		return v.expr(s.Test)
	case *ast.ReturnStatement:
		return v.expr(s.Argument)
	case *ast.ThrowStatement:
		return v.expr(s.Argument)
	case *ast.TryStatement:
		if err := v.scopeBody(nil, nil, s.Block.Body); err != nil {
			return err
		}
		if s.Handler != nil {
			var params []string
			if s.Handler.Param != nil {
				params = []string{s.Handler.Param.Name}
			}
			if err := v.scopeBody(nil, params, s.Handler.Body.Body); err != nil {
				return err
			}
		}
		if s.Finalizer != nil {
			return v.scopeBody(nil, nil, s.Finalizer.Body)
		}
		return nil
	case *ast.ClassDeclaration:
		return v.classBody(s.Body)
	case *ast.BreakStatement, *ast.ContinueStatement, *ast.EmptyStatement:
		return nil
	default:
		if e, ok := s.(ast.Expression); ok {
			return v.expr(e)
		}
		return nil
	}
}

// validateForHead checks a for-init let/const list against itself and
// against names hoisting out of the loop body.
func (v *validator) validateForHead(s *ast.ForStatement) error {
	vd, ok := s.Init.(*ast.VariableDeclaration)
	if !ok {
		if e, isExpr := s.Init.(ast.Expression); isExpr {
			return v.expr(e)
		}
		return nil
	}
	for _, d := range vd.Declarations {
		if err := v.expr(d.Init); err != nil {
			return err
		}
	}
	if vd.Kind == ast.DeclarationVar {
		return nil
	}
	lex := make(map[string]bool)
	for _, d := range vd.Declarations {
		if lex[d.ID.Name] {
			return dupDeclaration(d.ID.Name)
		}
		lex[d.ID.Name] = true
	}
	var conflict error
	hoistedNamesIn(s.Body, func(name string) {
		if conflict == nil && lex[name] {
			conflict = &DeclarationError{Name: name, Msg: "var or function declaration conflicts with loop variable"}
		}
	})
	return conflict
}

func (v *validator) function(params []*ast.Identifier, body *ast.BlockStatement) error {
	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
	}
	return v.scopeBody(nil, names, body.Body)
}

func (v *validator) classBody(body *ast.ClassBody) error {
	for _, el := range body.Body {
		switch el := el.(type) {
		case *ast.MethodDefinition:
			if err := v.function(el.Value.Params, el.Value.Body); err != nil {
				return err
			}
		case *ast.PropertyDefinition:
			if err := v.expr(el.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *validator) expr(e ast.Expression) error {
	switch e := e.(type) {
	case nil:
		return nil
	case *ast.ArrayExpression:
		for _, el := range e.Elements {
			if err := v.expr(el); err != nil {
				return err
			}
		}
		return nil
	case *ast.ObjectExpression:
		for _, p := range e.Properties {
			if p.Computed {
				if err := v.expr(p.Key); err != nil {
					return err
				}
			}
			if err := v.expr(p.Value); err != nil {
				return err
			}
		}
		return nil
	case *ast.MemberExpression:
		if err := v.expr(e.Object); err != nil {
			return err
		}
		if e.Computed {
			return v.expr(e.Property)
		}
		return nil
	case *ast.CallExpression:
		if err := v.expr(e.Callee); err != nil {
			return err
		}
		return v.exprs(e.Arguments)
	case *ast.NewExpression:
		if err := v.expr(e.Callee); err != nil {
			return err
		}
		return v.exprs(e.Arguments)
	case *ast.AssignmentExpression:
		if err := v.expr(e.Left); err != nil {
			return err
		}
		return v.expr(e.Right)
	case *ast.BinaryExpression:
		if err := v.expr(e.Left); err != nil {
			return err
		}
		return v.expr(e.Right)
	case *ast.LogicalExpression:
		if err := v.expr(e.Left); err != nil {
			return err
		}
		return v.expr(e.Right)
	case *ast.UnaryExpression:
		return v.expr(e.Argument)
	case *ast.UpdateExpression:
		return v.expr(e.Argument)
	case *ast.ConditionalExpression:
		if err := v.expr(e.Test); err != nil {
			return err
		}
		if err := v.expr(e.Consequent); err != nil {
			return err
		}
		return v.expr(e.Alternate)
	case *ast.SequenceExpression:
		return v.exprs(e.Expressions)
	case *ast.FunctionExpression:
		return v.function(e.Params, e.Body)
	case *ast.ArrowFunctionExpression:
		names := make([]string, 0, len(e.Params))
		for _, p := range e.Params {
			names = append(names, p.Name)
		}
		if body, ok := e.Body.(*ast.BlockStatement); ok {
			return v.scopeBody(nil, names, body.Body)
		}
		if body, ok := e.Body.(ast.Expression); ok {
			return v.expr(body)
		}
		return nil
	default:
		return nil
	}
}

func (v *validator) exprs(list []ast.Expression) error {
	for _, e := range list {
		if err := v.expr(e); err != nil {
			return err
		}
	}
	return nil
}
