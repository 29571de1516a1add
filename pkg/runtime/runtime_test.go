package runtime

import (
	"testing"
)

func TestScopeStackPushPopKinds(t *testing.T) {
	st := NewScopeStack()
	prog := st.Push(ScopeKindProgram)
	if prog.ID() != 1 || prog.Parent() != nil {
		t.Fatalf("program scope: id=%d parent=%v", prog.ID(), prog.Parent())
	}
	blk := st.Push(ScopeKindBlock)
	if blk.Parent() != prog {
		t.Fatalf("block parent should be program scope")
	}
	if _, err := st.Pop(ScopeKindFunction); err == nil {
		t.Fatalf("expected kind mismatch error")
	}
	popped, err := st.Pop(ScopeKindBlock)
	if err != nil || popped != blk {
		t.Fatalf("pop block: %v", err)
	}
	if st.Current() != prog {
		t.Fatalf("program scope should be current after pop")
	}
}

func TestScopeLookupInnermostWins(t *testing.T) {
	st := NewScopeStack()
	prog := st.Push(ScopeKindProgram)
	prog.Declare("x", DeclVar, NumberValue{Val: 1}, true)
	blk := st.Push(ScopeKindBlock)
	blk.Declare("x", DeclLet, NumberValue{Val: 2}, true)

	scope, v, ok := st.Lookup("x")
	if !ok || scope != blk {
		t.Fatalf("lookup should find innermost binding")
	}
	if n := v.Value.(NumberValue); n.Val != 2 {
		t.Fatalf("got %v, want 2", n.Val)
	}

	st.Pop(ScopeKindBlock)
	scope, v, ok = st.Lookup("x")
	if !ok || scope != prog || v.Value.(NumberValue).Val != 1 {
		t.Fatalf("outer binding should be visible after pop")
	}
}

func TestScopeVersionTracksMutation(t *testing.T) {
	st := NewScopeStack()
	s := st.Push(ScopeKindProgram)
	v0 := s.Version()
	s.Declare("a", DeclLet, UndefinedValue{}, false)
	if s.Version() == v0 {
		t.Fatalf("declare should bump version")
	}
	v1 := s.Version()
	if err := s.Initialize("a", NumberValue{Val: 3}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if s.Version() == v1 {
		t.Fatalf("initialize should bump version")
	}
	if err := s.SetValue("missing", NullValue{}); err == nil {
		t.Fatalf("expected error assigning undeclared name")
	}
}

func TestScopeStackSwapRestore(t *testing.T) {
	st := NewScopeStack()
	prog := st.Push(ScopeKindProgram)
	st.Push(ScopeKindBlock)

	captured := []*Scope{prog}
	prev := st.Swap(captured)
	if st.Depth() != 1 || st.Current() != prog {
		t.Fatalf("swap should install the captured chain")
	}
	fn := st.Push(ScopeKindFunction)
	if fn.Parent() != prog {
		t.Fatalf("function scope parent should be captured top")
	}
	st.Pop(ScopeKindFunction)
	st.Restore(prev)
	if st.Depth() != 2 {
		t.Fatalf("restore should reinstate caller chain, depth=%d", st.Depth())
	}
}

func TestHeapAllocateAndProperties(t *testing.T) {
	h := NewHeap()
	obj := h.Allocate(ObjectKindPlain)
	if obj.Ref() != 1 {
		t.Fatalf("first ref should be 1, got %d", obj.Ref())
	}
	if err := h.WriteProperty(obj.Ref(), "name", StringValue{Val: "a"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	v, ok, err := h.ReadProperty(obj.Ref(), "name")
	if err != nil || !ok || v.(StringValue).Val != "a" {
		t.Fatalf("read back: %v %v %v", v, ok, err)
	}
	if _, _, err := h.ReadProperty(HeapRef(99), "x"); err == nil {
		t.Fatalf("unknown ref should be an invariant error")
	}
}

func TestHeapArrayLengthMaintenance(t *testing.T) {
	h := NewHeap()
	arr := h.Allocate(ObjectKindArray)
	lv, ok := arr.Property("length")
	if !ok || lv.(NumberValue).Val != 0 {
		t.Fatalf("new array length should be 0")
	}
	h.WriteProperty(arr.Ref(), "0", StringValue{Val: "x"})
	h.WriteProperty(arr.Ref(), "2", StringValue{Val: "z"})
	lv, _ = arr.Property("length")
	if lv.(NumberValue).Val != 3 {
		t.Fatalf("sparse write at 2 should set length 3, got %v", lv)
	}
}

func TestHeapInsertionOrder(t *testing.T) {
	h := NewHeap()
	obj := h.Allocate(ObjectKindPlain)
	h.WriteProperty(obj.Ref(), "b", NumberValue{Val: 1})
	h.WriteProperty(obj.Ref(), "a", NumberValue{Val: 2})
	h.WriteProperty(obj.Ref(), "b", NumberValue{Val: 3})
	keys := obj.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Fatalf("keys should keep insertion order, got %v", keys)
	}
}

func TestCallFrameStack(t *testing.T) {
	fs := NewCallFrameStack()
	if fs.Current() != nil || fs.Depth() != 0 {
		t.Fatalf("fresh stack should be empty")
	}
	f1 := &CallFrame{CallNodeKey: "CallExpression@0:5"}
	f2 := &CallFrame{CallNodeKey: "CallExpression@0:5"}
	fs.Push(f1)
	if fs.IsRecursive("CallExpression@0:5") {
		t.Fatalf("single activation is not recursive")
	}
	fs.Push(f2)
	if !fs.IsRecursive("CallExpression@0:5") {
		t.Fatalf("second activation of the same site is recursive")
	}
	top, err := fs.Pop()
	if err != nil || top != f2 {
		t.Fatalf("pop: %v", err)
	}
	if _, err := NewCallFrameStack().Pop(); err == nil {
		t.Fatalf("pop of empty stack should error")
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1, "1"},
		{-0.5, "-0.5"},
		{1e21, "1e+21"},
		{3.14, "3.14"},
	}
	for _, c := range cases {
		if got := FormatNumber(c.in); got != c.want {
			t.Fatalf("FormatNumber(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
