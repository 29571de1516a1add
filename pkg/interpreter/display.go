package interpreter

import (
	"strconv"
	"strings"

	"github.com/WebSims/jstrace/pkg/runtime"
)

// renderValue formats a value for console entry text the way devtools
// would: objects and arrays render one level deep, nested references
// collapse to placeholders.
func (st *execState) renderValue(v runtime.Value, depth int) string {
	switch v := v.(type) {
	case runtime.StringValue:
		if depth > 0 {
			return "'" + v.Val + "'"
		}
		return v.Val
	case runtime.ReferenceValue:
		obj, err := st.heap.Object(v.Ref)
		if err != nil {
			return "[object]"
		}
		switch obj.Kind() {
		case runtime.ObjectKindFunction:
			name := ""
			if obj.Function != nil {
				name = obj.Function.Name
			}
			if name == "" {
				return "[Function (anonymous)]"
			}
			return "[Function: " + name + "]"
		case runtime.ObjectKindArray:
			if depth > 0 {
				return "[Array]"
			}
			length := arrayLength(obj)
			if length == 0 {
				return "[]"
			}
			parts := make([]string, 0, length)
			for i := 0; i < length; i++ {
				el, ok := obj.Property(strconv.Itoa(i))
				if !ok {
					el = runtime.UndefinedValue{}
				}
				parts = append(parts, st.renderValue(el, depth+1))
			}
			return "[ " + strings.Join(parts, ", ") + " ]"
		default:
			if depth > 0 {
				return "[Object]"
			}
			keys := obj.Keys()
			parts := make([]string, 0, len(keys))
			for _, k := range keys {
				pv, ok := obj.Property(k)
				if !ok {
					continue
				}
				parts = append(parts, k+": "+st.renderValue(pv, depth+1))
			}
			if len(parts) == 0 {
				return "{}"
			}
			return "{ " + strings.Join(parts, ", ") + " }"
		}
	default:
		return toString(st.heap, v)
	}
}
