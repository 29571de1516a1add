package trace

import (
	"github.com/WebSims/jstrace/pkg/runtime"
)

// ValueSnapshot is the serializable image of one runtime value. Primitives
// carry their display text; references carry the heap ref they alias.
type ValueSnapshot struct {
	Kind  string `json:"kind"`
	Value string `json:"value,omitempty"`
	Ref   int    `json:"ref,omitempty"`
}

// VariableSnapshot is one binding inside a scope snapshot. An uninitialized
// binding is a live temporal dead zone entry.
type VariableSnapshot struct {
	Name        string         `json:"name"`
	Decl        string         `json:"decl"`
	Initialized bool           `json:"initialized"`
	Value       *ValueSnapshot `json:"value,omitempty"`
}

// ScopeSnapshot is the frozen image of one scope at one step.
type ScopeSnapshot struct {
	ID        int                 `json:"id"`
	Kind      string              `json:"kind"`
	Variables []*VariableSnapshot `json:"variables"`
}

// PropertySnapshot is one heap object property in insertion order.
type PropertySnapshot struct {
	Key   string         `json:"key"`
	Value *ValueSnapshot `json:"value"`
}

// HeapObjectSnapshot is the frozen image of one heap object. Function
// objects additionally record their name, parameter list, and the IDs of
// their captured scopes so a viewer can render the closure chain.
type HeapObjectSnapshot struct {
	Ref        int                 `json:"ref"`
	Kind       string              `json:"kind"`
	Properties []*PropertySnapshot `json:"properties"`

	FunctionName string   `json:"functionName,omitempty"`
	Params       []string `json:"params,omitempty"`
	ClosureIDs   []int    `json:"closureIds,omitempty"`
}

// MemorySnapshot is the whole visible machine state at one step: the live
// scope stack bottom-first, scopes kept alive only by closures, every heap
// object ever allocated, and the pending expression values.
type MemorySnapshot struct {
	Scopes   []*ScopeSnapshot      `json:"scopes"`
	Retained []*ScopeSnapshot      `json:"retained,omitempty"`
	Heap     []*HeapObjectSnapshot `json:"heap"`
	Memval   []*ValueSnapshot      `json:"memval"`
}

// SnapshotValue freezes a runtime value.
func SnapshotValue(v runtime.Value) *ValueSnapshot {
	switch v := v.(type) {
	case nil:
		return nil
	case runtime.UndefinedValue:
		return &ValueSnapshot{Kind: "undefined", Value: "undefined"}
	case runtime.NullValue:
		return &ValueSnapshot{Kind: "null", Value: "null"}
	case runtime.BooleanValue:
		if v.Val {
			return &ValueSnapshot{Kind: "boolean", Value: "true"}
		}
		return &ValueSnapshot{Kind: "boolean", Value: "false"}
	case runtime.NumberValue:
		return &ValueSnapshot{Kind: "number", Value: runtime.FormatNumber(v.Val)}
	case runtime.StringValue:
		return &ValueSnapshot{Kind: "string", Value: v.Val}
	case runtime.ReferenceValue:
		return &ValueSnapshot{Kind: "reference", Ref: int(v.Ref)}
	default:
		return &ValueSnapshot{Kind: "unknown"}
	}
}

type scopeCacheEntry struct {
	version uint64
	snap    *ScopeSnapshot
}

type heapCacheEntry struct {
	version uint64
	snap    *HeapObjectSnapshot
}

// snapshotter freezes machine state, sharing unchanged scope and object
// snapshots between consecutive steps. A scope or object whose version
// counter has not moved reuses the previous snapshot pointer, so a trace of
// N steps over M objects costs far less than N*M.
type snapshotter struct {
	scopeCache map[*runtime.Scope]scopeCacheEntry
	heapCache  map[runtime.HeapRef]heapCacheEntry
}

func newSnapshotter() *snapshotter {
	return &snapshotter{
		scopeCache: make(map[*runtime.Scope]scopeCacheEntry),
		heapCache:  make(map[runtime.HeapRef]heapCacheEntry),
	}
}

func (sn *snapshotter) scope(s *runtime.Scope) *ScopeSnapshot {
	if e, ok := sn.scopeCache[s]; ok && e.version == s.Version() {
		return e.snap
	}
	names := s.Names()
	snap := &ScopeSnapshot{
		ID:        s.ID(),
		Kind:      s.Kind().String(),
		Variables: make([]*VariableSnapshot, 0, len(names)),
	}
	for _, name := range names {
		v, ok := s.Variable(name)
		if !ok {
			continue
		}
		vs := &VariableSnapshot{
			Name:        name,
			Decl:        v.Decl.String(),
			Initialized: v.Initialized,
		}
		if v.Initialized {
			vs.Value = SnapshotValue(v.Value)
		}
		snap.Variables = append(snap.Variables, vs)
	}
	sn.scopeCache[s] = scopeCacheEntry{version: s.Version(), snap: snap}
	return snap
}

func (sn *snapshotter) object(o *runtime.HeapObject) *HeapObjectSnapshot {
	if e, ok := sn.heapCache[o.Ref()]; ok && e.version == o.Version() {
		return e.snap
	}
	keys := o.Keys()
	snap := &HeapObjectSnapshot{
		Ref:        int(o.Ref()),
		Kind:       o.Kind().String(),
		Properties: make([]*PropertySnapshot, 0, len(keys)),
	}
	for _, key := range keys {
		v, ok := o.Property(key)
		if !ok {
			continue
		}
		snap.Properties = append(snap.Properties, &PropertySnapshot{
			Key:   key,
			Value: SnapshotValue(v),
		})
	}
	if fn := o.Function; fn != nil {
		snap.FunctionName = fn.Name
		snap.Params = fn.Params
		for _, s := range fn.Closure {
			snap.ClosureIDs = append(snap.ClosureIDs, s.ID())
		}
	}
	sn.heapCache[o.Ref()] = heapCacheEntry{version: o.Version(), snap: snap}
	return snap
}

// memory freezes the whole machine: the live scope chain, the heap arena,
// and the memval stack.
func (sn *snapshotter) memory(scopes []*runtime.Scope, heap *runtime.Heap, memval []runtime.Value) *MemorySnapshot {
	m := &MemorySnapshot{
		Scopes: make([]*ScopeSnapshot, 0, len(scopes)),
		Heap:   make([]*HeapObjectSnapshot, 0, heap.Size()),
		Memval: make([]*ValueSnapshot, 0, len(memval)),
	}
	live := make(map[int]bool, len(scopes))
	for _, s := range scopes {
		m.Scopes = append(m.Scopes, sn.scope(s))
		live[s.ID()] = true
	}
	for _, o := range heap.Objects() {
		m.Heap = append(m.Heap, sn.object(o))
	}
	// Scopes held only by closures still appear so closure IDs resolve.
	seen := make(map[int]bool)
	for _, o := range heap.Objects() {
		if o.Function == nil {
			continue
		}
		for _, s := range o.Function.Closure {
			if live[s.ID()] || seen[s.ID()] {
				continue
			}
			seen[s.ID()] = true
			m.Retained = append(m.Retained, sn.scope(s))
		}
	}
	for _, v := range memval {
		m.Memval = append(m.Memval, SnapshotValue(v))
	}
	return m
}
