package runtime

import (
	"strconv"

	"github.com/WebSims/jstrace/pkg/ast"
)

// HeapRef is the stable identity of a heap object. Refs are issued
// monotonically, never reused, and never invalidated: the heap is append-only
// so snapshots taken at any step stay resolvable forever.
type HeapRef int

// NilRef is the zero HeapRef; the heap never issues it.
const NilRef HeapRef = 0

// ObjectKind categorises heap objects.
type ObjectKind int

const (
	ObjectKindPlain ObjectKind = iota
	ObjectKindArray
	ObjectKindFunction
)

func (k ObjectKind) String() string {
	switch k {
	case ObjectKindPlain:
		return "object"
	case ObjectKindArray:
		return "array"
	case ObjectKindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// FunctionData carries the callable payload of a function heap object: the
// parameter names, the body node, and the scope chain captured when the
// function value was created. The captured chain is what makes closures work;
// it is shared, live state, not a copy.
type FunctionData struct {
	Name    string
	Params  []string
	Body    ast.Node // *ast.BlockStatement, or an expression for arrow bodies
	Node    ast.Node // declaring AST node
	Closure []*Scope // lexical chain at creation time, outermost first

	// Arrow functions capture `this` at creation.
	IsArrow   bool
	BoundThis Value

	// Class constructors resolve their prototype method table once at
	// declaration time.
	IsClass     bool
	Methods     map[string]HeapRef
	MethodOrder []string
	Fields      []*ast.PropertyDefinition
}

// HeapObject is one entry in the arena. Inter-object references are plain
// HeapRef lookups, which keeps cyclic and self-referential object graphs
// trivially representable.
type HeapObject struct {
	ref      HeapRef
	kind     ObjectKind
	props    map[string]Value
	order    []string
	version  uint64
	Function *FunctionData

	// ClassRef links an instance to its class constructor for prototype
	// method resolution. NilRef for non-instances.
	ClassRef HeapRef
}

func (o *HeapObject) Ref() HeapRef     { return o.ref }
func (o *HeapObject) Kind() ObjectKind { return o.kind }

// Version increments on every mutation; the step recorder uses it to share
// unchanged object snapshots across steps.
func (o *HeapObject) Version() uint64 { return o.version }

// Keys returns property names in insertion order.
func (o *HeapObject) Keys() []string {
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// Property reads an own property.
func (o *HeapObject) Property(key string) (Value, bool) {
	v, ok := o.props[key]
	return v, ok
}

func (o *HeapObject) setProperty(key string, value Value) {
	if _, ok := o.props[key]; !ok {
		o.order = append(o.order, key)
	}
	o.props[key] = value
	o.version++
}

// Heap is the append-only object arena. There is no deletion API by design:
// past step snapshots must remain valid without the heap ever compacting.
type Heap struct {
	objects []*HeapObject
}

func NewHeap() *Heap {
	return &Heap{}
}

// Allocate creates a new object of the given kind and returns it. Array
// objects start with length 0.
func (h *Heap) Allocate(kind ObjectKind) *HeapObject {
	obj := &HeapObject{
		ref:   HeapRef(len(h.objects) + 1),
		kind:  kind,
		props: make(map[string]Value),
	}
	if kind == ObjectKindArray {
		obj.setProperty("length", NumberValue{Val: 0})
	}
	h.objects = append(h.objects, obj)
	return obj
}

// Object resolves a ref. An unknown ref is an invariant violation: the
// evaluator can only obtain refs from Allocate.
func (h *Heap) Object(ref HeapRef) (*HeapObject, error) {
	if ref < 1 || int(ref) > len(h.objects) {
		return nil, invariantf("heap ref %d does not exist", ref)
	}
	return h.objects[ref-1], nil
}

// ReadProperty reads an own property on the object behind ref. A missing
// property reads as (nil, false, nil); only a bad ref is an error.
func (h *Heap) ReadProperty(ref HeapRef, key string) (Value, bool, error) {
	obj, err := h.Object(ref)
	if err != nil {
		return nil, false, err
	}
	v, ok := obj.Property(key)
	return v, ok, nil
}

// WriteProperty writes an own property, maintaining the `length` convention
// for arrays: writing a numeric key at or past the current length extends it.
func (h *Heap) WriteProperty(ref HeapRef, key string, value Value) error {
	obj, err := h.Object(ref)
	if err != nil {
		return err
	}
	obj.setProperty(key, value)
	if obj.kind == ObjectKindArray && key != "length" {
		if idx, err := strconv.Atoi(key); err == nil && idx >= 0 {
			length := 0.0
			if lv, ok := obj.Property("length"); ok {
				if n, ok := lv.(NumberValue); ok {
					length = n.Val
				}
			}
			if float64(idx+1) > length {
				obj.setProperty("length", NumberValue{Val: float64(idx + 1)})
			}
		}
	}
	return nil
}

// RemoveProperty deletes an own property. Objects themselves are never
// deleted; this exists for array element removal (pop).
func (h *Heap) RemoveProperty(ref HeapRef, key string) {
	obj, err := h.Object(ref)
	if err != nil {
		return
	}
	if _, ok := obj.props[key]; !ok {
		return
	}
	delete(obj.props, key)
	for i, k := range obj.order {
		if k == key {
			obj.order = append(obj.order[:i], obj.order[i+1:]...)
			break
		}
	}
	obj.version++
}

// Size reports how many objects have ever been allocated.
func (h *Heap) Size() int { return len(h.objects) }

// Objects returns the arena in allocation order. Callers must not mutate.
func (h *Heap) Objects() []*HeapObject { return h.objects }
