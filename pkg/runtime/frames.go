package runtime

import (
	"fmt"

	"github.com/WebSims/jstrace/pkg/ast"
)

// CallFrame records one active function invocation. Frames stay valid after
// pop: steps recorded while the frame was live snapshot everything they need.
type CallFrame struct {
	FnRef       HeapRef
	FnNode      ast.Node
	Args        []Value
	This        Value
	CallNodeKey string // identity of the call-site node; same site recurs at depth > 1
	HeapAtCall  int    // arena size when the call began
	ReturnValue Value
}

// CallNodeKey derives a stable identity for a call-site node from its type
// and source range.
func CallNodeKey(node ast.Node) string {
	r := node.SourceRange()
	return fmt.Sprintf("%s@%d:%d", node.NodeType(), r[0], r[1])
}

// CallFrameStack tracks nested invocations for recursion detection, stack
// presentation, and the call-depth budget.
type CallFrameStack struct {
	frames []*CallFrame
}

func NewCallFrameStack() *CallFrameStack {
	return &CallFrameStack{}
}

func (s *CallFrameStack) Push(frame *CallFrame) {
	s.frames = append(s.frames, frame)
}

func (s *CallFrameStack) Pop() (*CallFrame, error) {
	if len(s.frames) == 0 {
		return nil, invariantf("pop of empty call frame stack")
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return top, nil
}

// Current returns the innermost frame, or nil at top level.
func (s *CallFrameStack) Current() *CallFrame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func (s *CallFrameStack) Depth() int { return len(s.frames) }

// IsRecursive reports whether the given call-site key is already active
// somewhere below the top of the stack.
func (s *CallFrameStack) IsRecursive(key string) bool {
	count := 0
	for _, f := range s.frames {
		if f.CallNodeKey == key {
			count++
			if count > 1 {
				return true
			}
		}
	}
	return false
}
