// Package doc is a minimal stand-in for the two external collaborators
// spec.md declares out of scope but requires an interface for: the Binary
// Doc Cursor (a depth-first walker over a serialized document) and the
// Tree Doc (a mutable in-memory node tree used by apply/projection).
// Node plays both roles: Walk treats it as a read-only cursor source,
// while the patch and project packages mutate it in place as a Tree Doc.
package doc

import "github.com/jqlang/jql/value"

// Kind tags the shape of a Node's payload.
type Kind int

const (
	Null Kind = iota
	Str
	I64
	F64
	Bool
	Object
	Array
)

// Flag bits used by the Projection Engine to mark a node during its
// mark-and-sweep pass (spec.md §4.8, §6 "a per-node flags byte").
type Flag byte

const (
	FlagKeep Flag = 1 << iota
	FlagPath
)

// Node is one position of a document tree: an object, array, or scalar.
// Object/array children are linked via FirstChild/Next; Key and Index
// identify a child's position within its parent.
type Node struct {
	Kind Kind

	Key   string // valid when this node is an object field
	Index int    // valid when this node is an array element; -1 otherwise

	s string
	i  int64
	f  float64
	b  bool

	Parent     *Node
	FirstChild *Node
	Next       *Node

	Flags Flag
}

func NewObject() *Node { return &Node{Kind: Object, Index: -1} }
func NewArray() *Node  { return &Node{Kind: Array, Index: -1} }
func NewNull() *Node   { return &Node{Kind: Null, Index: -1} }
func NewStr(s string) *Node  { return &Node{Kind: Str, Index: -1, s: s} }
func NewI64(i int64) *Node   { return &Node{Kind: I64, Index: -1, i: i} }
func NewF64(f float64) *Node { return &Node{Kind: F64, Index: -1, f: f} }
func NewBool(b bool) *Node   { return &Node{Kind: Bool, Index: -1, b: b} }

// AddField appends child as an object field of n, named key.
func (n *Node) AddField(key string, child *Node) {
	child.Key = key
	child.Index = -1
	n.appendChild(child)
}

// AddElement appends child as the next array element of n.
func (n *Node) AddElement(child *Node) {
	child.Index = n.childCount()
	n.appendChild(child)
}

func (n *Node) appendChild(child *Node) {
	child.Parent = n
	if n.FirstChild == nil {
		n.FirstChild = child
		return
	}
	last := n.FirstChild
	for last.Next != nil {
		last = last.Next
	}
	last.Next = child
}

func (n *Node) childCount() int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.Next {
		count++
	}
	return count
}

// Value renders n as a value.Value. A structural node (object or array) is
// returned as a TreeRef wrapping n; ScalarValue reports ok=false for it.
func (n *Node) Value() value.Value {
	switch n.Kind {
	case Null:
		return value.Null_()
	case Str:
		return value.Str_(n.s)
	case I64:
		return value.I64_(n.i)
	case F64:
		return value.F64_(n.f)
	case Bool:
		return value.Bool_(n.b)
	default:
		return value.TreeRef_(n)
	}
}

// ScalarValue implements value.Scalar: a structural node cannot coerce to
// a scalar (spec.md §4.1's BinnRef coercion step).
func (n *Node) ScalarValue() (value.Value, bool) {
	if n.Kind == Object || n.Kind == Array {
		return value.Value{}, false
	}
	return n.Value(), true
}

// Elements implements value.TreeComparable for array nodes (spec.md §4.4's
// IN operator: "right operand must be an array tree").
func (n *Node) Elements() ([]value.Value, bool) {
	if n.Kind != Array {
		return nil, false
	}
	var out []value.Value
	for c := n.FirstChild; c != nil; c = c.Next {
		out = append(out, c.Value())
	}
	return out, true
}

// StructuralEqual implements value.TreeComparable: two objects are equal
// iff they have the same fields (order-independent) with equal values; two
// arrays are equal iff same length with pairwise-equal elements in order.
func (n *Node) StructuralEqual(other any) bool {
	o, ok := other.(*Node)
	if !ok || o == nil {
		return false
	}
	if n.Kind != o.Kind {
		return false
	}
	switch n.Kind {
	case Array:
		a, _ := n.Elements()
		b, _ := o.Elements()
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !value.Equal(a[i], b[i]) {
				return false
			}
		}
		return true
	case Object:
		af := n.fields()
		bf := o.fields()
		if len(af) != len(bf) {
			return false
		}
		for k, av := range af {
			bv, ok := bf[k]
			if !ok || !value.Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return value.Equal(n.Value(), o.Value())
	}
}

func (n *Node) fields() map[string]value.Value {
	out := make(map[string]value.Value)
	for c := n.FirstChild; c != nil; c = c.Next {
		out[c.Key] = c.Value()
	}
	return out
}

// DeleteChild unlinks child from n's child list. It is a no-op if child is
// not a direct child of n.
func (n *Node) DeleteChild(child *Node) {
	if n.FirstChild == child {
		n.FirstChild = child.Next
		child.Parent = nil
		child.Next = nil
		return
	}
	for c := n.FirstChild; c != nil; c = c.Next {
		if c.Next == child {
			c.Next = child.Next
			child.Parent = nil
			child.Next = nil
			return
		}
	}
}
