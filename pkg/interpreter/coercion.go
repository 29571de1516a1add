package interpreter

import (
	"math"
	"strconv"
	"strings"

	"github.com/WebSims/jstrace/pkg/runtime"
)

// JavaScript coercion rules. Example programs deliberately probe these, so
// the behavior here follows the language, not what would be convenient.

func truthy(v runtime.Value) bool {
	switch v := v.(type) {
	case runtime.UndefinedValue, runtime.NullValue:
		return false
	case runtime.BooleanValue:
		return v.Val
	case runtime.NumberValue:
		return v.Val != 0 && !math.IsNaN(v.Val)
	case runtime.StringValue:
		return v.Val != ""
	default:
		return true
	}
}

// toPrimitive converts a reference to its string form the way JS does when
// an object meets an operator: arrays join their elements with commas,
// everything else becomes "[object Object]" or a function placeholder.
func toPrimitive(h *runtime.Heap, v runtime.Value) runtime.Value {
	ref, ok := v.(runtime.ReferenceValue)
	if !ok {
		return v
	}
	obj, err := h.Object(ref.Ref)
	if err != nil {
		return runtime.StringValue{Val: "[object Object]"}
	}
	switch obj.Kind() {
	case runtime.ObjectKindArray:
		length := arrayLength(obj)
		parts := make([]string, 0, length)
		for i := 0; i < length; i++ {
			el, ok := obj.Property(strconv.Itoa(i))
			if !ok || el.Kind() == runtime.KindUndefined || el.Kind() == runtime.KindNull {
				parts = append(parts, "")
				continue
			}
			parts = append(parts, toString(h, el))
		}
		return runtime.StringValue{Val: strings.Join(parts, ",")}
	case runtime.ObjectKindFunction:
		name := ""
		if obj.Function != nil {
			name = obj.Function.Name
		}
		return runtime.StringValue{Val: "function " + name + "() { ... }"}
	default:
		return runtime.StringValue{Val: "[object Object]"}
	}
}

func toNumber(h *runtime.Heap, v runtime.Value) float64 {
	switch v := v.(type) {
	case runtime.UndefinedValue:
		return math.NaN()
	case runtime.NullValue:
		return 0
	case runtime.BooleanValue:
		if v.Val {
			return 1
		}
		return 0
	case runtime.NumberValue:
		return v.Val
	case runtime.StringValue:
		s := strings.TrimSpace(v.Val)
		if s == "" {
			return 0
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	case runtime.ReferenceValue:
		return toNumber(h, toPrimitive(h, v))
	default:
		return math.NaN()
	}
}

func toString(h *runtime.Heap, v runtime.Value) string {
	switch v := v.(type) {
	case runtime.UndefinedValue:
		return "undefined"
	case runtime.NullValue:
		return "null"
	case runtime.BooleanValue:
		if v.Val {
			return "true"
		}
		return "false"
	case runtime.NumberValue:
		return runtime.FormatNumber(v.Val)
	case runtime.StringValue:
		return v.Val
	case runtime.ReferenceValue:
		return toString(h, toPrimitive(h, v))
	default:
		return "undefined"
	}
}

func typeofString(h *runtime.Heap, v runtime.Value) string {
	switch v := v.(type) {
	case runtime.UndefinedValue:
		return "undefined"
	case runtime.NullValue:
		return "object"
	case runtime.BooleanValue:
		return "boolean"
	case runtime.NumberValue:
		return "number"
	case runtime.StringValue:
		return "string"
	case runtime.ReferenceValue:
		if obj, err := h.Object(v.Ref); err == nil && obj.Kind() == runtime.ObjectKindFunction {
			return "function"
		}
		return "object"
	default:
		return "undefined"
	}
}

func strictEquals(l, r runtime.Value) bool {
	if l.Kind() != r.Kind() {
		return false
	}
	switch l := l.(type) {
	case runtime.UndefinedValue, runtime.NullValue:
		return true
	case runtime.BooleanValue:
		return l.Val == r.(runtime.BooleanValue).Val
	case runtime.NumberValue:
		rv := r.(runtime.NumberValue).Val
		return l.Val == rv // NaN !== NaN falls out of Go float comparison
	case runtime.StringValue:
		return l.Val == r.(runtime.StringValue).Val
	case runtime.ReferenceValue:
		return l.Ref == r.(runtime.ReferenceValue).Ref
	default:
		return false
	}
}

func looseEquals(h *runtime.Heap, l, r runtime.Value) bool {
	if l.Kind() == r.Kind() {
		return strictEquals(l, r)
	}
	lk, rk := l.Kind(), r.Kind()
	switch {
	case (lk == runtime.KindNull && rk == runtime.KindUndefined) ||
		(lk == runtime.KindUndefined && rk == runtime.KindNull):
		return true
	case lk == runtime.KindNumber && rk == runtime.KindString:
		return numbersEqual(l.(runtime.NumberValue).Val, toNumber(h, r))
	case lk == runtime.KindString && rk == runtime.KindNumber:
		return numbersEqual(toNumber(h, l), r.(runtime.NumberValue).Val)
	case lk == runtime.KindBoolean:
		return looseEquals(h, runtime.NumberValue{Val: toNumber(h, l)}, r)
	case rk == runtime.KindBoolean:
		return looseEquals(h, l, runtime.NumberValue{Val: toNumber(h, r)})
	case lk == runtime.KindReference && (rk == runtime.KindNumber || rk == runtime.KindString):
		return looseEquals(h, toPrimitive(h, l), r)
	case rk == runtime.KindReference && (lk == runtime.KindNumber || lk == runtime.KindString):
		return looseEquals(h, l, toPrimitive(h, r))
	default:
		return false
	}
}

func numbersEqual(a, b float64) bool {
	return a == b
}

// applyBinary implements the arithmetic, relational, and equality operators.
func applyBinary(h *runtime.Heap, op string, l, r runtime.Value) (runtime.Value, error) {
	switch op {
	case "+":
		lp, rp := toPrimitive(h, l), toPrimitive(h, r)
		if lp.Kind() == runtime.KindString || rp.Kind() == runtime.KindString {
			return runtime.StringValue{Val: toString(h, lp) + toString(h, rp)}, nil
		}
		return runtime.NumberValue{Val: toNumber(h, lp) + toNumber(h, rp)}, nil
	case "-":
		return runtime.NumberValue{Val: toNumber(h, l) - toNumber(h, r)}, nil
	case "*":
		return runtime.NumberValue{Val: toNumber(h, l) * toNumber(h, r)}, nil
	case "/":
		return runtime.NumberValue{Val: toNumber(h, l) / toNumber(h, r)}, nil
	case "%":
		return runtime.NumberValue{Val: math.Mod(toNumber(h, l), toNumber(h, r))}, nil
	case "==":
		return runtime.BooleanValue{Val: looseEquals(h, l, r)}, nil
	case "!=":
		return runtime.BooleanValue{Val: !looseEquals(h, l, r)}, nil
	case "===":
		return runtime.BooleanValue{Val: strictEquals(l, r)}, nil
	case "!==":
		return runtime.BooleanValue{Val: !strictEquals(l, r)}, nil
	case "<", "<=", ">", ">=":
		return compareValues(h, op, l, r), nil
	default:
		return nil, unsupportedf("binary operator %q", op)
	}
}

// compareValues implements the relational operators: string-to-string
// comparison is lexicographic, everything else goes through ToNumber, and
// any NaN makes the comparison false.
func compareValues(h *runtime.Heap, op string, l, r runtime.Value) runtime.Value {
	lp, rp := toPrimitive(h, l), toPrimitive(h, r)
	if lp.Kind() == runtime.KindString && rp.Kind() == runtime.KindString {
		ls, rs := lp.(runtime.StringValue).Val, rp.(runtime.StringValue).Val
		switch op {
		case "<":
			return runtime.BooleanValue{Val: ls < rs}
		case "<=":
			return runtime.BooleanValue{Val: ls <= rs}
		case ">":
			return runtime.BooleanValue{Val: ls > rs}
		default:
			return runtime.BooleanValue{Val: ls >= rs}
		}
	}
	ln, rn := toNumber(h, lp), toNumber(h, rp)
	if math.IsNaN(ln) || math.IsNaN(rn) {
		return runtime.BooleanValue{Val: false}
	}
	switch op {
	case "<":
		return runtime.BooleanValue{Val: ln < rn}
	case "<=":
		return runtime.BooleanValue{Val: ln <= rn}
	case ">":
		return runtime.BooleanValue{Val: ln > rn}
	default:
		return runtime.BooleanValue{Val: ln >= rn}
	}
}

func arrayLength(obj *runtime.HeapObject) int {
	if lv, ok := obj.Property("length"); ok {
		if n, ok := lv.(runtime.NumberValue); ok {
			return int(n.Val)
		}
	}
	return 0
}
