package doc

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// FromJSON decodes JSON text into a Node tree. It is the fixture loader for
// tests and the in-process stand-in for the external Binary Doc Cursor's
// decode step; the engine itself never depends on JSON encoding.
func FromJSON(data []byte) (*Node, error) {
	return FromJSONAlloc(data, func() *Node { return &Node{} })
}

// FromJSONAlloc decodes JSON text like FromJSON but obtains every Node from
// alloc, so a caller holding a Pool (e.g. the patch package, spec.md §5)
// can recycle scratch allocations across repeated apply/decode cycles.
func FromJSONAlloc(data []byte, alloc func() *Node) (*Node, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return fromAny(v, alloc), nil
}

func fromAny(v any, alloc func() *Node) *Node {
	switch x := v.(type) {
	case nil:
		n := alloc()
		n.Kind, n.Index = Null, -1
		return n
	case string:
		n := alloc()
		n.Kind, n.Index, n.s = Str, -1, x
		return n
	case bool:
		n := alloc()
		n.Kind, n.Index, n.b = Bool, -1, x
		return n
	case float64:
		n := alloc()
		n.Index = -1
		if x == float64(int64(x)) {
			n.Kind, n.i = I64, int64(x)
		} else {
			n.Kind, n.f = F64, x
		}
		return n
	case []any:
		n := alloc()
		n.Kind, n.Index = Array, -1
		for _, e := range x {
			n.AddElement(fromAny(e, alloc))
		}
		return n
	case map[string]any:
		n := alloc()
		n.Kind, n.Index = Object, -1
		// Fields are added in sorted key order so walks over the decoded
		// tree are deterministic.
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			n.AddField(k, fromAny(x[k], alloc))
		}
		return n
	default:
		n := alloc()
		n.Kind, n.Index = Null, -1
		return n
	}
}

// OpenMapped reads path and decodes it as a JSON-encoded document. The
// format here is a trivial internal encoding, not a sharded index file, so
// a plain read suffices; no memory-mapping dependency is warranted.
func OpenMapped(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("doc: open %s: %w", path, err)
	}
	return FromJSON(data)
}

// ToJSON renders n back to JSON text, the inverse of FromJSON. Used by the
// patch package to hand a document to an external JSON-Patch library and
// to read its result back into a Node tree.
func ToJSON(n *Node) ([]byte, error) {
	return json.Marshal(toAny(n))
}

func toAny(n *Node) any {
	switch n.Kind {
	case Null:
		return nil
	case Str:
		return n.s
	case I64:
		return n.i
	case F64:
		return n.f
	case Bool:
		return n.b
	case Array:
		out := make([]any, 0, n.childCount())
		for c := n.FirstChild; c != nil; c = c.Next {
			out = append(out, toAny(c))
		}
		return out
	case Object:
		out := make(map[string]any, n.childCount())
		for c := n.FirstChild; c != nil; c = c.Next {
			out[c.Key] = toAny(c)
		}
		return out
	default:
		return nil
	}
}
