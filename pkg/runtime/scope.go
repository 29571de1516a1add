package runtime

// ScopeKind distinguishes the three lexical scope varieties.
type ScopeKind int

const (
	ScopeKindProgram ScopeKind = iota
	ScopeKindFunction
	ScopeKindBlock
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeKindProgram:
		return "program"
	case ScopeKindFunction:
		return "function"
	case ScopeKindBlock:
		return "block"
	default:
		return "unknown"
	}
}

// DeclarationType records how a binding was introduced.
type DeclarationType int

const (
	DeclVar DeclarationType = iota
	DeclLet
	DeclConst
	DeclFunction
	DeclParameter
)

func (d DeclarationType) String() string {
	switch d {
	case DeclVar:
		return "var"
	case DeclLet:
		return "let"
	case DeclConst:
		return "const"
	case DeclFunction:
		return "function"
	case DeclParameter:
		return "parameter"
	default:
		return "unknown"
	}
}

// Variable is one binding in a scope. A let/const binding created by hoisting
// starts uninitialized (the temporal dead zone); reading it in that state is
// a JS-visible reference error, which the evaluator enforces.
type Variable struct {
	Decl        DeclarationType
	Value       Value
	Initialized bool
}

// Scope is one lexical scope: an ordered variable table plus a pointer to its
// lexical parent (fixed at creation, not the dynamic caller). Scopes popped
// from the live stack stay alive through closures and step snapshots.
type Scope struct {
	id      int
	kind    ScopeKind
	vars    map[string]*Variable
	order   []string
	parent  *Scope
	version uint64
}

func (s *Scope) ID() int         { return s.id }
func (s *Scope) Kind() ScopeKind { return s.kind }
func (s *Scope) Parent() *Scope  { return s.parent }

// Version increments on every binding mutation; the step recorder uses it to
// share unchanged scope snapshots across steps.
func (s *Scope) Version() uint64 { return s.version }

// Names returns binding names in declaration order.
func (s *Scope) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Variable reads an own binding.
func (s *Scope) Variable(name string) (*Variable, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Declare introduces a binding in this scope, replacing any previous one
// with the same name (redeclaration policy is decided by the hoisting pass,
// which is the only caller that replaces).
func (s *Scope) Declare(name string, decl DeclarationType, value Value, initialized bool) *Variable {
	v := &Variable{Decl: decl, Value: value, Initialized: initialized}
	if _, ok := s.vars[name]; !ok {
		s.order = append(s.order, name)
	}
	s.vars[name] = v
	s.version++
	return v
}

// Initialize marks a TDZ binding as live and sets its value.
func (s *Scope) Initialize(name string, value Value) error {
	v, ok := s.vars[name]
	if !ok {
		return invariantf("initialize of undeclared %q in scope %d", name, s.id)
	}
	v.Value = value
	v.Initialized = true
	s.version++
	return nil
}

// SetValue overwrites an existing binding's value.
func (s *Scope) SetValue(name string, value Value) error {
	v, ok := s.vars[name]
	if !ok {
		return invariantf("assignment to undeclared %q in scope %d", name, s.id)
	}
	v.Value = value
	v.Initialized = true
	s.version++
	return nil
}

// ScopeStack is the live, ordered list of active scopes. The bottom entry is
// the program scope; lookup walks from the top (innermost) downward. During a
// function call the stack is swapped to the callee's captured chain so the
// visible stack is always the callee's lexical chain.
type ScopeStack struct {
	scopes []*Scope
	nextID int
}

func NewScopeStack() *ScopeStack {
	return &ScopeStack{nextID: 1}
}

// Push appends a new scope of the given kind whose lexical parent is the
// current top, and returns it.
func (st *ScopeStack) Push(kind ScopeKind) *Scope {
	scope := &Scope{
		id:     st.nextID,
		kind:   kind,
		vars:   make(map[string]*Variable),
		parent: st.Current(),
	}
	st.nextID++
	st.scopes = append(st.scopes, scope)
	return scope
}

// PushFresh appends a new scope with an explicit parent, used for
// per-iteration loop scopes that replace a popped sibling.
func (st *ScopeStack) PushFresh(kind ScopeKind, parent *Scope) *Scope {
	scope := &Scope{
		id:     st.nextID,
		kind:   kind,
		vars:   make(map[string]*Variable),
		parent: parent,
	}
	st.nextID++
	st.scopes = append(st.scopes, scope)
	return scope
}

// Pop removes the top scope, asserting its kind. A mismatch means the
// evaluator's control flow is out of step with its scope management and the
// run must abort.
func (st *ScopeStack) Pop(kind ScopeKind) (*Scope, error) {
	if len(st.scopes) == 0 {
		return nil, invariantf("pop of empty scope stack")
	}
	top := st.scopes[len(st.scopes)-1]
	if top.kind != kind {
		return nil, invariantf("pop expected %s scope, top is %s (id %d)", kind, top.kind, top.id)
	}
	st.scopes = st.scopes[:len(st.scopes)-1]
	return top, nil
}

// Current returns the innermost scope, or nil when the stack is empty.
func (st *ScopeStack) Current() *Scope {
	if len(st.scopes) == 0 {
		return nil
	}
	return st.scopes[len(st.scopes)-1]
}

// Bottom returns the program scope, or nil when the stack is empty.
func (st *ScopeStack) Bottom() *Scope {
	if len(st.scopes) == 0 {
		return nil
	}
	return st.scopes[0]
}

func (st *ScopeStack) Depth() int { return len(st.scopes) }

// Chain returns a copy of the live stack, bottom first.
func (st *ScopeStack) Chain() []*Scope {
	out := make([]*Scope, len(st.scopes))
	copy(out, st.scopes)
	return out
}

// Swap replaces the live stack with the given chain (a callee's captured
// closure chain) and returns the previous one for restoration after the call.
func (st *ScopeStack) Swap(chain []*Scope) []*Scope {
	prev := st.scopes
	st.scopes = make([]*Scope, len(chain))
	copy(st.scopes, chain)
	return prev
}

// Restore reinstates a chain previously returned by Swap.
func (st *ScopeStack) Restore(chain []*Scope) {
	st.scopes = chain
}

// Lookup searches from the innermost scope outward and reports the scope the
// binding lives in.
func (st *ScopeStack) Lookup(name string) (*Scope, *Variable, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if v, ok := st.scopes[i].vars[name]; ok {
			return st.scopes[i], v, true
		}
	}
	return nil, nil, false
}
