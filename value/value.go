// Package value implements the Value Domain (spec.md §4.1): a tagged
// scalar/composite value plus the coercion and comparison rules the match
// evaluator needs to reconcile loosely-typed operands.
//
// The comparator is intentionally asymmetric — the Str-vs-Str
// length-primary rule and the Null-vs-string asymmetry are quirks of the
// source implementation (jql.c) but are load-bearing for corpus
// compatibility (spec.md §9 "Comparator asymmetries"); this package
// reproduces them exactly rather than "fixing" them.
package value

import (
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	Null Kind = iota
	Str
	I64
	F64
	Bool
	BinnRef
	TreeRef
	Regex
)

// Scalar is implemented by a binary-cursor handle (spec.md's BinnRef) that
// can coerce itself to a concrete scalar Value when the comparator needs
// one. It lives here, not in the doc package, so value has no import-cycle
// dependency on the document model.
type Scalar interface {
	// ScalarValue returns the coerced scalar and true, or ok=false if the
	// referenced position is structural (object/array) and cannot be
	// coerced to a scalar.
	ScalarValue() (Value, bool)
}

// TreeComparable is implemented by a tree-node handle (spec.md's TreeRef)
// that participates in structural (object/array) comparison. Compare
// delegates structural comparisons to the document package via this
// interface rather than depending on it directly.
type TreeComparable interface {
	// StructuralEqual reports whether this tree node is equal to other
	// under the document model's own node-comparison semantics.
	StructuralEqual(other any) bool
	// Elements returns the ordered child values of an array node, or
	// ok=false if the node is not an array.
	Elements() ([]Value, bool)
}

// Value is QL's tagged union of comparable operands.
type Value struct {
	Kind Kind

	s string
	i  int64
	f  float64
	b  bool

	ref   Scalar         // BinnRef payload
	tree  TreeComparable // TreeRef payload
	regex *CompiledRegex // Regex payload
}

func Of(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{Kind: Null}
	case string:
		return Str_(x)
	case int:
		return I64_(int64(x))
	case int64:
		return I64_(x)
	case float64:
		return F64_(x)
	case bool:
		return Bool_(x)
	default:
		return Value{Kind: Null}
	}
}

func Str_(s string) Value  { return Value{Kind: Str, s: s} }
func I64_(i int64) Value   { return Value{Kind: I64, i: i} }
func F64_(f float64) Value { return Value{Kind: F64, f: f} }
func Bool_(b bool) Value   { return Value{Kind: Bool, b: b} }
func Null_() Value         { return Value{Kind: Null} }

func BinnRef_(ref Scalar) Value { return Value{Kind: BinnRef, ref: ref} }
func TreeRef_(t TreeComparable) Value {
	return Value{Kind: TreeRef, tree: t}
}
func Regex_(c *CompiledRegex) Value { return Value{Kind: Regex, regex: c} }

func (v Value) AsString() string            { return v.s }
func (v Value) AsInt() int64                { return v.i }
func (v Value) AsFloat() float64            { return v.f }
func (v Value) AsBool() bool                { return v.b }
func (v Value) AsScalarRef() Scalar         { return v.ref }
func (v Value) AsTreeRef() TreeComparable   { return v.tree }
func (v Value) AsRegex() *CompiledRegex     { return v.regex }
func (v Value) IsStructural() bool          { return v.Kind == TreeRef || v.Kind == BinnRef }

// Cmp compares left against right under QL's coercion table (spec.md §4.1).
// It returns (sign, true) when defined, or (0, false) when Unmatched — the
// caller (NM/VD consumers) is responsible for demoting Unmatched to "false"
// rather than surfacing an error (spec.md §7).
func Cmp(left, right Value) (int, bool) {
	if left.Kind == BinnRef {
		if sv, ok := left.ref.ScalarValue(); ok {
			left = sv
		} else if right.Kind == TreeRef {
			// Structural left (object/array binary) against a structural
			// right (object/array tree): materialize the left to a tree and
			// delegate to the external node comparator (spec.md §4.1).
			if lt, ok := left.ref.(TreeComparable); ok {
				return structuralCmp(lt, right.tree)
			}
			return 0, false
		} else {
			return 0, false
		}
	}

	switch left.Kind {
	case Str:
		return cmpStrLeft(left.s, right)
	case I64:
		return cmpI64Left(left.i, right)
	case F64:
		return cmpF64Left(left.f, right)
	case Bool:
		return cmpBoolLeft(left.b, right)
	case Null:
		return cmpNullLeft(right)
	case TreeRef:
		if right.Kind == TreeRef {
			return structuralCmp(left.tree, right.tree)
		}
		return 0, false
	default:
		return 0, false
	}
}

// structuralCmp delegates object/array equality to the tree comparator.
// The comparator only defines equality (0) or Unmatched; ordering between
// two distinct composite values is not part of QL's comparison rules.
func structuralCmp(left, right TreeComparable) (int, bool) {
	if left == nil || right == nil {
		return 0, false
	}
	if left.StructuralEqual(right) {
		return 0, true
	}
	return 0, false
}

func sign(n int64) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}

func signF(n float64) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}

// decimalParse parses s the way jql.c's strtod-based coercions do: best
// effort, defaulting to 0 on failure (not Unmatched — the source only
// produces Unmatched for unsupported *type* pairs, never for malformed
// numeric text within a supported pair).
func decimalParse(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func atoi(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func cmpStrLeft(left string, right Value) (int, bool) {
	switch right.Kind {
	case Str:
		// length-primary, then lexicographic over the first len(left) bytes.
		if len(left) != len(right.s) {
			return sign(int64(len(left) - len(right.s))), true
		}
		n := len(left)
		if n > len(right.s) {
			n = len(right.s)
		}
		return strings.Compare(left[:n], right.s[:n]), true
	case I64:
		// Str-vs-numeric is a plain lexicographic compare, unlike Str-vs-Str:
		// jql.c's cmp_str_num just does strcmp(lv->vstr, nbuf), no length
		// pre-check (_examples/original_source/src/jql/jql.c:390-399).
		return strings.Compare(left, strconv.FormatInt(right.i, 10)), true
	case F64:
		return strings.Compare(left, shortestRoundtrip(right.f)), true
	case Bool:
		return sign(int64(strings.Compare(left, "true")) - b2i(right.b)), true
	case Null:
		if left == "" {
			return 0, true
		}
		return 1, true
	default:
		return 0, false
	}
}

func cmpStrAgainstText(left, text string) int {
	if len(left) != len(text) {
		return sign(int64(len(left) - len(text)))
	}
	return strings.Compare(left, text)
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func shortestRoundtrip(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// cmpI64Left widens left to float64 when right is an F64 (spec.md §4.1);
// against Str and Bool it subtracts integers. Integers beyond 2^53 lose
// precision in the float64 widening; this is
// accepted as-is rather than special-cased, so two values that differ only
// beyond 2^53 precision compare equal, matching widen-then-compare semantics
// exactly rather than diverging from them for large magnitudes.
func cmpI64Left(left int64, right Value) (int, bool) {
	switch right.Kind {
	case Str:
		return sign(left - atoi(right.s)), true
	case I64:
		return sign(left - right.i), true
	case F64:
		return signF(float64(left) - right.f), true
	case Bool:
		return sign(left - b2i(right.b)), true
	case Null:
		return 1, true
	default:
		return 0, false
	}
}

func cmpF64Left(left float64, right Value) (int, bool) {
	switch right.Kind {
	case Str:
		return signF(left - decimalParse(right.s)), true
	case I64:
		return signF(left - float64(right.i)), true
	case F64:
		return signF(left - right.f), true
	case Bool:
		return signF(left - float64(b2i(right.b))), true
	case Null:
		return -1, true
	default:
		return 0, false
	}
}

func cmpBoolLeft(left bool, right Value) (int, bool) {
	li := b2i(left)
	switch right.Kind {
	case Str:
		return sign(li - b2i(right.s == "true")), true
	case I64:
		return sign(li - b2i(right.i != 0)), true
	case F64:
		return sign(li - b2i(right.f != 0.0)), true
	case Bool:
		return sign(li - b2i(right.b)), true
	case Null:
		return int(li), true
	default:
		return 0, false
	}
}

func cmpNullLeft(right Value) (int, bool) {
	switch right.Kind {
	case Str:
		if right.s != "" {
			return -1, true
		}
		return 0, true
	case I64:
		return -1, true
	case F64:
		return -1, true
	case Bool:
		return -1, true
	case Null:
		return 0, true
	default:
		return 0, false
	}
}

// Equal is sugar over Cmp for the IN/NI containment operators (spec.md
// §4.4): equal iff Cmp is defined and zero.
func Equal(a, b Value) bool {
	n, ok := Cmp(a, b)
	return ok && n == 0
}
