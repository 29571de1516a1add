package interpreter

import (
	"strconv"
	"strings"

	"github.com/WebSims/jstrace/pkg/ast"
	"github.com/WebSims/jstrace/pkg/runtime"
	"github.com/WebSims/jstrace/pkg/trace"
)

// allocateFunction creates a function heap object capturing the scope chain
// as it stands right now. Arrow functions additionally capture `this`.
func (st *execState) allocateFunction(name string, params []*ast.Identifier, body ast.Node, node ast.Node, isArrow bool) runtime.HeapRef {
	obj := st.heap.Allocate(runtime.ObjectKindFunction)
	fn := &runtime.FunctionData{
		Name:    name,
		Params:  paramNames(params),
		Body:    body,
		Node:    node,
		Closure: st.scopes.Chain(),
		IsArrow: isArrow,
	}
	if isArrow {
		fn.BoundThis = st.currentThis()
	}
	obj.Function = fn
	return obj.Ref()
}

var consoleMethods = map[string]bool{
	"log":   true,
	"warn":  true,
	"error": true,
	"info":  true,
	"debug": true,
}

func (st *execState) evalCall(e *ast.CallExpression) (runtime.Value, error) {
	st.rec.Record(trace.StepEvaluating, e, nil)

	if method, ok := st.consoleIntercept(e); ok {
		return st.evalConsoleCall(e, method)
	}

	var thisVal runtime.Value = runtime.UndefinedValue{}
	var fnVal runtime.Value

	if member, ok := e.Callee.(*ast.MemberExpression); ok {
		obj, err := st.evalExpression(member.Object)
		if err != nil {
			return nil, err
		}
		key, err := st.memberKey(member)
		if err != nil {
			return nil, err
		}
		if ref, isRef := obj.(runtime.ReferenceValue); isRef && !member.Computed {
			if native, isNative := st.arrayNative(ref, key); isNative {
				return st.evalArrayNative(e, ref, native)
			}
		}
		// The callee resolves before the arguments, so a missing method
		// fails before argument side effects run.
		fnVal, err = st.readMember(obj, key)
		if err != nil {
			return nil, err
		}
		if !callable(st, fnVal) {
			return nil, st.throwString("TypeError", memberCallName(member, key)+" is not a function")
		}
		thisVal = obj
		args, aerr := st.evalArguments(e.Arguments)
		if aerr != nil {
			return nil, aerr
		}
		if _, err := st.pop(); err != nil { // receiver
			return nil, err
		}
		return st.completeCall(e, fnVal, thisVal, args)
	}

	fnVal, err := st.evalExpression(e.Callee)
	if err != nil {
		return nil, err
	}
	if !callable(st, fnVal) {
		return nil, st.throwString("TypeError", calleeName(e.Callee)+" is not a function")
	}
	args, err := st.evalArguments(e.Arguments)
	if err != nil {
		return nil, err
	}
	if _, err := st.pop(); err != nil { // callee
		return nil, err
	}
	return st.completeCall(e, fnVal, thisVal, args)
}

func (st *execState) completeCall(e *ast.CallExpression, fnVal, thisVal runtime.Value, args []runtime.Value) (runtime.Value, error) {
	result, err := st.invoke(e, fnVal.(runtime.ReferenceValue), thisVal, args, runtime.NilRef)
	if err != nil {
		return nil, err
	}
	return st.finish(e, result, nil)
}

// evalArguments evaluates call arguments left to right and consumes their
// memval entries in reverse.
func (st *execState) evalArguments(exprs []ast.Expression) ([]runtime.Value, error) {
	for _, a := range exprs {
		if _, err := st.evalExpression(a); err != nil {
			return nil, err
		}
	}
	args := make([]runtime.Value, len(exprs))
	for i := len(exprs) - 1; i >= 0; i-- {
		v, err := st.pop()
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func callable(st *execState, v runtime.Value) bool {
	ref, ok := v.(runtime.ReferenceValue)
	if !ok {
		return false
	}
	obj, err := st.heap.Object(ref.Ref)
	return err == nil && obj.Kind() == runtime.ObjectKindFunction && obj.Function != nil
}

func memberCallName(m *ast.MemberExpression, key string) string {
	if obj, ok := m.Object.(*ast.Identifier); ok {
		return obj.Name + "." + key
	}
	return key
}

func calleeName(callee ast.Expression) string {
	if id, ok := callee.(*ast.Identifier); ok {
		return id.Name
	}
	return "expression"
}

// invoke runs a function body: swap to the callee's captured chain, push a
// function scope with parameter bindings, hoist, execute. instanceRef is
// set for `new` so class field initializers know their receiver; NilRef
// marks a plain call. The scope and frame are unwound on every path; the
// FUNCTION_CALL step is recorded only on normal completion.
func (st *execState) invoke(callNode ast.Node, fnRef runtime.ReferenceValue, thisVal runtime.Value, args []runtime.Value, instanceRef runtime.HeapRef) (runtime.Value, error) {
	obj, err := st.heap.Object(fnRef.Ref)
	if err != nil {
		return nil, err
	}
	fn := obj.Function
	if fn.IsClass && instanceRef == runtime.NilRef {
		return nil, st.throwString("TypeError", "Class constructor "+fn.Name+" cannot be invoked without 'new'")
	}
	if st.frames.Depth() >= st.opts.MaxCallDepth {
		return nil, &LimitError{Resource: "call_depth", Limit: st.opts.MaxCallDepth}
	}

	this := thisVal
	if fn.IsArrow {
		this = fn.BoundThis
		if this == nil {
			this = runtime.UndefinedValue{}
		}
	}
	frame := &runtime.CallFrame{
		FnRef:       fnRef.Ref,
		FnNode:      fn.Node,
		Args:        args,
		This:        this,
		CallNodeKey: runtime.CallNodeKey(callNode),
		HeapAtCall:  st.heap.Size(),
	}

	prev := st.scopes.Swap(fn.Closure)
	fnScope := st.scopes.Push(runtime.ScopeKindFunction)
	st.rec.Record(trace.StepPushScope, fn.Node, pushChange(fnScope))
	st.frames.Push(frame)

	for i, name := range fn.Params {
		var v runtime.Value = runtime.UndefinedValue{}
		if i < len(args) {
			v = args[i]
		}
		fnScope.Declare(name, runtime.DeclParameter, v, true)
	}

	result, runErr := st.runFunctionBody(fn, instanceRef)
	frame.ReturnValue = result

	if _, err := st.frames.Pop(); err != nil {
		return nil, err
	}
	if perr := st.popScope(runtime.ScopeKindFunction, fn.Node); perr != nil {
		return nil, perr
	}
	st.scopes.Restore(prev)

	if runErr != nil {
		return nil, runErr
	}
	st.rec.Record(trace.StepFunctionCall, callNode, nil)
	return result, nil
}

func (st *execState) runFunctionBody(fn *runtime.FunctionData, instanceRef runtime.HeapRef) (runtime.Value, error) {
	switch body := fn.Body.(type) {
	case *ast.BlockStatement:
		st.hoistFunctionScope(body.Body)
		st.rec.Record(trace.StepHoisting, fn.Node, nil)
		if fn.IsClass && instanceRef != runtime.NilRef {
			if err := st.initClassFields(fn, instanceRef); err != nil {
				return nil, err
			}
		}
		err := st.execStatements(body.Body)
		if rs, ok := err.(returnSignal); ok {
			return rs.value, nil
		}
		if err != nil {
			return nil, err
		}
		return runtime.UndefinedValue{}, nil
	case nil:
		// A class without a constructor still initializes its fields.
		st.rec.Record(trace.StepHoisting, fn.Node, nil)
		if fn.IsClass && instanceRef != runtime.NilRef {
			if err := st.initClassFields(fn, instanceRef); err != nil {
				return nil, err
			}
		}
		return runtime.UndefinedValue{}, nil
	default:
		// Arrow expression body: the expression value is the return value.
		expr, ok := fn.Body.(ast.Expression)
		if !ok {
			return nil, &runtime.InvariantError{Msg: "function body is neither block nor expression"}
		}
		st.rec.Record(trace.StepHoisting, fn.Node, nil)
		if _, err := st.evalExpression(expr); err != nil {
			return nil, err
		}
		return st.pop()
	}
}

// initClassFields evaluates field initializers against the new instance,
// inside the constructor's scope so `this` resolves to the instance.
func (st *execState) initClassFields(fn *runtime.FunctionData, instanceRef runtime.HeapRef) error {
	for _, f := range fn.Fields {
		var v runtime.Value = runtime.UndefinedValue{}
		if f.Value != nil {
			if _, err := st.evalExpression(f.Value); err != nil {
				return err
			}
			val, err := st.pop()
			if err != nil {
				return err
			}
			v = val
		}
		if err := st.heap.WriteProperty(instanceRef, f.Key.Name, v); err != nil {
			return err
		}
	}
	return nil
}

func (st *execState) evalNew(e *ast.NewExpression) (runtime.Value, error) {
	st.rec.Record(trace.StepEvaluating, e, nil)
	fnVal, err := st.evalExpression(e.Callee)
	if err != nil {
		return nil, err
	}
	if !callable(st, fnVal) {
		return nil, st.throwString("TypeError", calleeName(e.Callee)+" is not a constructor")
	}
	args, err := st.evalArguments(e.Arguments)
	if err != nil {
		return nil, err
	}
	if _, err := st.pop(); err != nil { // callee
		return nil, err
	}

	fnRef := fnVal.(runtime.ReferenceValue)
	fnObj, err := st.heap.Object(fnRef.Ref)
	if err != nil {
		return nil, err
	}
	instance := st.heap.Allocate(runtime.ObjectKindPlain)
	if fnObj.Function.IsClass {
		instance.ClassRef = fnRef.Ref
	}

	result, err := st.invoke(e, fnRef, runtime.ReferenceValue{Ref: instance.Ref()}, args, instance.Ref())
	if err != nil {
		return nil, err
	}
	// A constructor returning an object overrides the instance.
	final := runtime.Value(runtime.ReferenceValue{Ref: instance.Ref()})
	if ref, ok := result.(runtime.ReferenceValue); ok {
		final = ref
	}
	return st.finish(e, final, allocChange(instance.Ref()))
}

// consoleIntercept reports whether the call is console.<method>(...) with
// `console` undeclared in scope.
func (st *execState) consoleIntercept(e *ast.CallExpression) (string, bool) {
	member, ok := e.Callee.(*ast.MemberExpression)
	if !ok || member.Computed {
		return "", false
	}
	obj, ok := member.Object.(*ast.Identifier)
	if !ok || obj.Name != "console" {
		return "", false
	}
	prop, ok := member.Property.(*ast.Identifier)
	if !ok || !consoleMethods[prop.Name] {
		return "", false
	}
	if _, _, found := st.scopes.Lookup("console"); found {
		return "", false
	}
	return prop.Name, true
}

// evalConsoleCall captures a console.* invocation as a structured entry
// instead of performing I/O. The call evaluates to undefined.
func (st *execState) evalConsoleCall(e *ast.CallExpression, method string) (runtime.Value, error) {
	args, err := st.evalArguments(e.Arguments)
	if err != nil {
		return nil, err
	}
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, st.renderValue(a, 0))
	}
	st.rec.Console(method, args, strings.Join(parts, " "))
	return st.finish(e, runtime.UndefinedValue{}, nil)
}

func (st *execState) arrayNative(ref runtime.ReferenceValue, key string) (string, bool) {
	obj, err := st.heap.Object(ref.Ref)
	if err != nil || obj.Kind() != runtime.ObjectKindArray {
		return "", false
	}
	if key == "push" || key == "pop" {
		return key, true
	}
	return "", false
}

// evalArrayNative implements Array.prototype.push and pop on the heap's
// numeric-key convention. The receiver is already on the memval stack.
func (st *execState) evalArrayNative(e *ast.CallExpression, ref runtime.ReferenceValue, method string) (runtime.Value, error) {
	args, err := st.evalArguments(e.Arguments)
	if err != nil {
		return nil, err
	}
	if _, err := st.pop(); err != nil { // receiver
		return nil, err
	}
	obj, err := st.heap.Object(ref.Ref)
	if err != nil {
		return nil, err
	}
	switch method {
	case "push":
		length := arrayLength(obj)
		for _, a := range args {
			if err := st.heap.WriteProperty(ref.Ref, strconv.Itoa(length), a); err != nil {
				return nil, err
			}
			length++
		}
		result := runtime.NumberValue{Val: float64(length)}
		return st.finish(e, result, writePropChange(ref.Ref, "length", result))
	case "pop":
		length := arrayLength(obj)
		if length == 0 {
			return st.finish(e, runtime.UndefinedValue{}, nil)
		}
		last, _ := obj.Property(strconv.Itoa(length - 1))
		if last == nil {
			last = runtime.UndefinedValue{}
		}
		st.heap.RemoveProperty(ref.Ref, strconv.Itoa(length-1))
		newLen := runtime.NumberValue{Val: float64(length - 1)}
		if err := st.heap.WriteProperty(ref.Ref, "length", newLen); err != nil {
			return nil, err
		}
		return st.finish(e, last, writePropChange(ref.Ref, "length", newLen))
	default:
		return nil, &runtime.InvariantError{Msg: "unknown array native " + method}
	}
}
