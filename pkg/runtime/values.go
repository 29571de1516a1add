package runtime

import (
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the runtime value category. Everything a variable or
// property can hold is either an inline primitive or a reference into the
// heap arena.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindReference:
		return "reference"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values. Values are immutable;
// mutation happens only through scope assignment and heap property writes.
type Value interface {
	Kind() Kind
}

type UndefinedValue struct{}

func (UndefinedValue) Kind() Kind { return KindUndefined }

type NullValue struct{}

func (NullValue) Kind() Kind { return KindNull }

type BooleanValue struct {
	Val bool
}

func (BooleanValue) Kind() Kind { return KindBoolean }

type NumberValue struct {
	Val float64
}

func (NumberValue) Kind() Kind { return KindNumber }

type StringValue struct {
	Val string
}

func (StringValue) Kind() Kind { return KindString }

// ReferenceValue points at a heap object; copying it aliases the object.
type ReferenceValue struct {
	Ref HeapRef
}

func (ReferenceValue) Kind() Kind { return KindReference }

// FormatNumber renders a float the way JS does for display: integral values
// without a decimal point, NaN and infinities spelled out.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == math.Trunc(v) && math.Abs(v) < 1e21:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}
