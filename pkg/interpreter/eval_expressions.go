package interpreter

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/WebSims/jstrace/pkg/ast"
	"github.com/WebSims/jstrace/pkg/runtime"
	"github.com/WebSims/jstrace/pkg/trace"
)

// evalExpression dispatches on the expression type. Every successful
// evaluation leaves exactly one value on the memval stack (the result,
// reported on the node's EVALUATED step); the caller pops it when it is
// consumed. Composite expressions record EVALUATING on entry; leaves
// (literals, identifiers, this) only record EVALUATED.
func (st *execState) evalExpression(e ast.Expression) (runtime.Value, error) {
	if err := st.checkBudget(); err != nil {
		return nil, err
	}
	switch e := e.(type) {
	case *ast.NumberLiteral:
		return st.finish(e, runtime.NumberValue{Val: e.Value}, nil)
	case *ast.StringLiteral:
		return st.finish(e, runtime.StringValue{Val: e.Value}, nil)
	case *ast.BooleanLiteral:
		return st.finish(e, runtime.BooleanValue{Val: e.Value}, nil)
	case *ast.NullLiteral:
		return st.finish(e, runtime.NullValue{}, nil)
	case *ast.Identifier:
		return st.evalIdentifier(e)
	case *ast.ThisExpression:
		return st.finish(e, st.currentThis(), nil)
	case *ast.ArrayExpression:
		return st.evalArray(e)
	case *ast.ObjectExpression:
		return st.evalObject(e)
	case *ast.MemberExpression:
		v, _, err := st.evalMember(e)
		return v, err
	case *ast.CallExpression:
		return st.evalCall(e)
	case *ast.NewExpression:
		return st.evalNew(e)
	case *ast.AssignmentExpression:
		return st.evalAssignment(e)
	case *ast.BinaryExpression:
		return st.evalBinary(e)
	case *ast.LogicalExpression:
		return st.evalLogical(e)
	case *ast.UnaryExpression:
		return st.evalUnary(e)
	case *ast.UpdateExpression:
		return st.evalUpdate(e)
	case *ast.ConditionalExpression:
		return st.evalConditional(e)
	case *ast.SequenceExpression:
		return st.evalSequence(e)
	case *ast.FunctionExpression:
		return st.evalFunctionExpression(e)
	case *ast.ArrowFunctionExpression:
		return st.evalArrowFunction(e)
	default:
		return nil, &runtime.InvariantError{Msg: fmt.Sprintf("unexpected expression node %s", e.NodeType())}
	}
}

// finish pushes the result and records the node's EVALUATED step.
func (st *execState) finish(node ast.Node, v runtime.Value, change *trace.MemoryChange) (runtime.Value, error) {
	st.rec.PushValue(v)
	st.rec.Record(trace.StepEvaluated, node, change)
	return v, nil
}

func (st *execState) evalIdentifier(e *ast.Identifier) (runtime.Value, error) {
	_, v, found := st.scopes.Lookup(e.Name)
	if !found {
		return nil, st.throwString("ReferenceError", e.Name+" is not defined")
	}
	if !v.Initialized {
		return nil, st.throwString("ReferenceError", "Cannot access '"+e.Name+"' before initialization")
	}
	return st.finish(e, v.Value, nil)
}

func (st *execState) evalArray(e *ast.ArrayExpression) (runtime.Value, error) {
	st.rec.Record(trace.StepEvaluating, e, nil)
	elements := make([]runtime.Value, len(e.Elements))
	for _, el := range e.Elements {
		if _, err := st.evalExpression(el); err != nil {
			return nil, err
		}
	}
	for i := len(e.Elements) - 1; i >= 0; i-- {
		v, err := st.pop()
		if err != nil {
			return nil, err
		}
		elements[i] = v
	}
	obj := st.heap.Allocate(runtime.ObjectKindArray)
	for i, v := range elements {
		if err := st.heap.WriteProperty(obj.Ref(), strconv.Itoa(i), v); err != nil {
			return nil, err
		}
	}
	return st.finish(e, runtime.ReferenceValue{Ref: obj.Ref()}, allocChange(obj.Ref()))
}

func (st *execState) evalObject(e *ast.ObjectExpression) (runtime.Value, error) {
	st.rec.Record(trace.StepEvaluating, e, nil)
	type pair struct {
		key string
		val runtime.Value
	}
	pairs := make([]pair, 0, len(e.Properties))
	for _, p := range e.Properties {
		key, err := st.propertyKey(p)
		if err != nil {
			return nil, err
		}
		if _, err := st.evalExpression(p.Value); err != nil {
			return nil, err
		}
		v, err := st.pop()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair{key: key, val: v})
	}
	obj := st.heap.Allocate(runtime.ObjectKindPlain)
	for _, p := range pairs {
		if err := st.heap.WriteProperty(obj.Ref(), p.key, p.val); err != nil {
			return nil, err
		}
	}
	return st.finish(e, runtime.ReferenceValue{Ref: obj.Ref()}, allocChange(obj.Ref()))
}

func (st *execState) propertyKey(p *ast.Property) (string, error) {
	if p.Computed {
		if _, err := st.evalExpression(p.Key); err != nil {
			return "", err
		}
		kv, err := st.pop()
		if err != nil {
			return "", err
		}
		return toString(st.heap, kv), nil
	}
	switch k := p.Key.(type) {
	case *ast.Identifier:
		return k.Name, nil
	case *ast.StringLiteral:
		return k.Value, nil
	case *ast.NumberLiteral:
		return runtime.FormatNumber(k.Value), nil
	default:
		return "", unsupportedf("object property key %s", p.Key.NodeType())
	}
}

// evalMember evaluates a property read and also returns the receiver value,
// which method calls need for `this` binding.
func (st *execState) evalMember(e *ast.MemberExpression) (runtime.Value, runtime.Value, error) {
	st.rec.Record(trace.StepEvaluating, e, nil)
	obj, err := st.evalExpression(e.Object)
	if err != nil {
		return nil, nil, err
	}
	key, err := st.memberKey(e)
	if err != nil {
		return nil, nil, err
	}
	if _, err := st.pop(); err != nil { // receiver
		return nil, nil, err
	}
	v, rerr := st.readMember(obj, key)
	if rerr != nil {
		return nil, nil, rerr
	}
	res, err := st.finish(e, v, nil)
	return res, obj, err
}

// memberKey resolves the property name, evaluating and consuming the key
// expression when the access is computed.
func (st *execState) memberKey(e *ast.MemberExpression) (string, error) {
	if !e.Computed {
		id, ok := e.Property.(*ast.Identifier)
		if !ok {
			return "", unsupportedf("member property %s", e.Property.NodeType())
		}
		return id.Name, nil
	}
	if _, err := st.evalExpression(e.Property); err != nil {
		return "", err
	}
	kv, err := st.pop()
	if err != nil {
		return "", err
	}
	return toString(st.heap, kv), nil
}

// readMember implements the property read semantics: heap objects read own
// properties and then the class prototype method table; strings support
// length and index reads; everything else reads undefined. A read through
// undefined or null throws.
func (st *execState) readMember(obj runtime.Value, key string) (runtime.Value, error) {
	switch o := obj.(type) {
	case runtime.UndefinedValue:
		return nil, st.throwString("TypeError", "Cannot read properties of undefined (reading '"+key+"')")
	case runtime.NullValue:
		return nil, st.throwString("TypeError", "Cannot read properties of null (reading '"+key+"')")
	case runtime.StringValue:
		if key == "length" {
			return runtime.NumberValue{Val: float64(utf8.RuneCountInString(o.Val))}, nil
		}
		if idx, err := strconv.Atoi(key); err == nil {
			runes := []rune(o.Val)
			if idx >= 0 && idx < len(runes) {
				return runtime.StringValue{Val: string(runes[idx])}, nil
			}
		}
		return runtime.UndefinedValue{}, nil
	case runtime.ReferenceValue:
		heapObj, err := st.heap.Object(o.Ref)
		if err != nil {
			return nil, err
		}
		if v, ok := heapObj.Property(key); ok {
			return v, nil
		}
		if heapObj.ClassRef != runtime.NilRef {
			class, err := st.heap.Object(heapObj.ClassRef)
			if err != nil {
				return nil, err
			}
			if class.Function != nil {
				if m, ok := class.Function.Methods[key]; ok {
					return runtime.ReferenceValue{Ref: m}, nil
				}
			}
		}
		return runtime.UndefinedValue{}, nil
	default:
		return runtime.UndefinedValue{}, nil
	}
}

func (st *execState) evalAssignment(e *ast.AssignmentExpression) (runtime.Value, error) {
	st.rec.Record(trace.StepEvaluating, e, nil)
	switch target := e.Left.(type) {
	case *ast.Identifier:
		return st.assignIdentifier(e, target)
	case *ast.MemberExpression:
		return st.assignMember(e, target)
	default:
		return nil, unsupportedf("assignment target %s", e.Left.NodeType())
	}
}

func (st *execState) assignIdentifier(e *ast.AssignmentExpression, target *ast.Identifier) (runtime.Value, error) {
	var old runtime.Value
	if e.Operator != "=" {
		_, v, found := st.scopes.Lookup(target.Name)
		if !found {
			return nil, st.throwString("ReferenceError", target.Name+" is not defined")
		}
		if !v.Initialized {
			return nil, st.throwString("ReferenceError", "Cannot access '"+target.Name+"' before initialization")
		}
		old = v.Value
	}

	if _, err := st.evalExpression(e.Right); err != nil {
		return nil, err
	}
	value, err := st.pop()
	if err != nil {
		return nil, err
	}
	if e.Operator != "=" {
		value, err = applyBinary(st.heap, compoundOp(e.Operator), old, value)
		if err != nil {
			return nil, err
		}
	}

	scope, v, found := st.scopes.Lookup(target.Name)
	switch {
	case !found && st.opts.ImplicitGlobalDeclare:
		// Sloppy-mode implicit global: the name becomes a var in the
		// program scope.
		st.scopes.Bottom().Declare(target.Name, runtime.DeclVar, value, true)
	case !found:
		return nil, st.throwString("ReferenceError", target.Name+" is not defined")
	case v.Decl == runtime.DeclConst && v.Initialized:
		return nil, st.throwString("TypeError", "Assignment to constant variable.")
	case !v.Initialized:
		return nil, st.throwString("ReferenceError", "Cannot access '"+target.Name+"' before initialization")
	default:
		if err := scope.SetValue(target.Name, value); err != nil {
			return nil, err
		}
	}
	return st.finish(e, value, writeVarChange(target.Name, value))
}

func (st *execState) assignMember(e *ast.AssignmentExpression, target *ast.MemberExpression) (runtime.Value, error) {
	obj, err := st.evalExpression(target.Object)
	if err != nil {
		return nil, err
	}
	key, err := st.memberKey(target)
	if err != nil {
		return nil, err
	}
	if _, err := st.evalExpression(e.Right); err != nil {
		return nil, err
	}
	value, err := st.pop()
	if err != nil {
		return nil, err
	}
	if _, err := st.pop(); err != nil { // receiver
		return nil, err
	}
	if e.Operator != "=" {
		old, rerr := st.readMember(obj, key)
		if rerr != nil {
			return nil, rerr
		}
		value, err = applyBinary(st.heap, compoundOp(e.Operator), old, value)
		if err != nil {
			return nil, err
		}
	}

	ref, ok := obj.(runtime.ReferenceValue)
	if !ok {
		switch obj.(type) {
		case runtime.UndefinedValue:
			return nil, st.throwString("TypeError", "Cannot set properties of undefined (setting '"+key+"')")
		case runtime.NullValue:
			return nil, st.throwString("TypeError", "Cannot set properties of null (setting '"+key+"')")
		default:
			// Property writes on primitives are silently lost.
			return st.finish(e, value, nil)
		}
	}
	if err := st.heap.WriteProperty(ref.Ref, key, value); err != nil {
		return nil, err
	}
	return st.finish(e, value, writePropChange(ref.Ref, key, value))
}

func compoundOp(op string) string {
	return op[:len(op)-1] // "+=" applies "+"
}

func (st *execState) evalBinary(e *ast.BinaryExpression) (runtime.Value, error) {
	st.rec.Record(trace.StepEvaluating, e, nil)
	if _, err := st.evalExpression(e.Left); err != nil {
		return nil, err
	}
	if _, err := st.evalExpression(e.Right); err != nil {
		return nil, err
	}
	right, err := st.pop()
	if err != nil {
		return nil, err
	}
	left, err := st.pop()
	if err != nil {
		return nil, err
	}
	result, err := applyBinary(st.heap, e.Operator, left, right)
	if err != nil {
		return nil, err
	}
	return st.finish(e, result, nil)
}

func (st *execState) evalLogical(e *ast.LogicalExpression) (runtime.Value, error) {
	st.rec.Record(trace.StepEvaluating, e, nil)
	if _, err := st.evalExpression(e.Left); err != nil {
		return nil, err
	}
	left, err := st.pop()
	if err != nil {
		return nil, err
	}
	var shortCircuit bool
	switch e.Operator {
	case "&&":
		shortCircuit = !truthy(left)
	case "||":
		shortCircuit = truthy(left)
	case "??":
		k := left.Kind()
		shortCircuit = k != runtime.KindUndefined && k != runtime.KindNull
	default:
		return nil, unsupportedf("logical operator %q", e.Operator)
	}
	if shortCircuit {
		return st.finish(e, left, nil)
	}
	if _, err := st.evalExpression(e.Right); err != nil {
		return nil, err
	}
	right, err := st.pop()
	if err != nil {
		return nil, err
	}
	return st.finish(e, right, nil)
}

func (st *execState) evalUnary(e *ast.UnaryExpression) (runtime.Value, error) {
	st.rec.Record(trace.StepEvaluating, e, nil)

	// typeof on a bare identifier never throws for undeclared names; it
	// still throws for a binding in its temporal dead zone.
	if e.Operator == "typeof" {
		if id, ok := e.Argument.(*ast.Identifier); ok {
			_, v, found := st.scopes.Lookup(id.Name)
			if !found {
				return st.finish(e, runtime.StringValue{Val: "undefined"}, nil)
			}
			if !v.Initialized {
				return nil, st.throwString("ReferenceError", "Cannot access '"+id.Name+"' before initialization")
			}
			return st.finish(e, runtime.StringValue{Val: typeofString(st.heap, v.Value)}, nil)
		}
	}

	if _, err := st.evalExpression(e.Argument); err != nil {
		return nil, err
	}
	arg, err := st.pop()
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case "-":
		return st.finish(e, runtime.NumberValue{Val: -toNumber(st.heap, arg)}, nil)
	case "+":
		return st.finish(e, runtime.NumberValue{Val: toNumber(st.heap, arg)}, nil)
	case "!":
		return st.finish(e, runtime.BooleanValue{Val: !truthy(arg)}, nil)
	case "typeof":
		return st.finish(e, runtime.StringValue{Val: typeofString(st.heap, arg)}, nil)
	case "void":
		return st.finish(e, runtime.UndefinedValue{}, nil)
	default:
		return nil, unsupportedf("unary operator %q", e.Operator)
	}
}

func (st *execState) evalUpdate(e *ast.UpdateExpression) (runtime.Value, error) {
	st.rec.Record(trace.StepEvaluating, e, nil)
	delta := 1.0
	if e.Operator == "--" {
		delta = -1
	}
	switch target := e.Argument.(type) {
	case *ast.Identifier:
		scope, v, found := st.scopes.Lookup(target.Name)
		if !found {
			return nil, st.throwString("ReferenceError", target.Name+" is not defined")
		}
		if !v.Initialized {
			return nil, st.throwString("ReferenceError", "Cannot access '"+target.Name+"' before initialization")
		}
		if v.Decl == runtime.DeclConst {
			return nil, st.throwString("TypeError", "Assignment to constant variable.")
		}
		old := toNumber(st.heap, v.Value)
		updated := runtime.NumberValue{Val: old + delta}
		if err := scope.SetValue(target.Name, updated); err != nil {
			return nil, err
		}
		result := runtime.Value(updated)
		if !e.Prefix {
			result = runtime.NumberValue{Val: old}
		}
		return st.finish(e, result, writeVarChange(target.Name, updated))
	case *ast.MemberExpression:
		obj, err := st.evalExpression(target.Object)
		if err != nil {
			return nil, err
		}
		key, err := st.memberKey(target)
		if err != nil {
			return nil, err
		}
		if _, err := st.pop(); err != nil { // receiver
			return nil, err
		}
		oldVal, rerr := st.readMember(obj, key)
		if rerr != nil {
			return nil, rerr
		}
		ref, ok := obj.(runtime.ReferenceValue)
		if !ok {
			return nil, st.throwString("TypeError", "Cannot set properties of "+toString(st.heap, obj))
		}
		old := toNumber(st.heap, oldVal)
		updated := runtime.NumberValue{Val: old + delta}
		if err := st.heap.WriteProperty(ref.Ref, key, updated); err != nil {
			return nil, err
		}
		result := runtime.Value(updated)
		if !e.Prefix {
			result = runtime.NumberValue{Val: old}
		}
		return st.finish(e, result, writePropChange(ref.Ref, key, updated))
	default:
		return nil, unsupportedf("update target %s", e.Argument.NodeType())
	}
}

func (st *execState) evalConditional(e *ast.ConditionalExpression) (runtime.Value, error) {
	st.rec.Record(trace.StepEvaluating, e, nil)
	if _, err := st.evalExpression(e.Test); err != nil {
		return nil, err
	}
	test, err := st.pop()
	if err != nil {
		return nil, err
	}
	branch := e.Alternate
	if truthy(test) {
		branch = e.Consequent
	}
	if _, err := st.evalExpression(branch); err != nil {
		return nil, err
	}
	v, err := st.pop()
	if err != nil {
		return nil, err
	}
	return st.finish(e, v, nil)
}

func (st *execState) evalSequence(e *ast.SequenceExpression) (runtime.Value, error) {
	st.rec.Record(trace.StepEvaluating, e, nil)
	if len(e.Expressions) == 0 {
		return nil, &runtime.InvariantError{Msg: "empty sequence expression"}
	}
	var last runtime.Value
	for _, sub := range e.Expressions {
		if _, err := st.evalExpression(sub); err != nil {
			return nil, err
		}
		v, err := st.pop()
		if err != nil {
			return nil, err
		}
		last = v
	}
	return st.finish(e, last, nil)
}

func (st *execState) evalFunctionExpression(e *ast.FunctionExpression) (runtime.Value, error) {
	st.rec.Record(trace.StepEvaluating, e, nil)
	name := ""
	if e.ID != nil {
		name = e.ID.Name
	}
	ref := st.allocateFunction(name, e.Params, e.Body, e, false)
	return st.finish(e, runtime.ReferenceValue{Ref: ref}, allocChange(ref))
}

func (st *execState) evalArrowFunction(e *ast.ArrowFunctionExpression) (runtime.Value, error) {
	st.rec.Record(trace.StepEvaluating, e, nil)
	ref := st.allocateFunction("", e.Params, e.Body, e, true)
	return st.finish(e, runtime.ReferenceValue{Ref: ref}, allocChange(ref))
}
