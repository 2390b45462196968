package jql

import (
	"strconv"

	"github.com/jqlang/jql/ast"
	"github.com/jqlang/jql/errcode"
	"github.com/jqlang/jql/placeholder"
	"github.com/jqlang/jql/value"
)

// evalEnv bundles the collaborators NM needs to resolve operands and
// dispatch comparison ops (spec.md §4.4).
type evalEnv struct {
	placeholders *placeholder.Table
	regex        *ast.RegexCache
}

// matchField reports whether key satisfies a Field path node.
func matchField(node *ast.Node, key string) bool {
	return key == node.Name
}

// matchExprStep evaluates an ExprStep node's expression chain against the
// current key and value (spec.md §4.4's "Expr(expr-chain)").
func matchExprStep(node *ast.Node, key string, val value.Value, env *evalEnv) (bool, error) {
	return evalChain(node.Chain, key, val, env)
}

// evalChain walks the expression chain left-to-right, combining results via
// each link's Join (spec.md §4.6's combination rule, reused here since a
// Filter's terminal expression chain combines the same way as ETE's
// children).
func evalChain(chain *ast.Expression, key string, val value.Value, env *evalEnv) (bool, error) {
	if chain == nil {
		return true, nil
	}
	result, err := evalExpression(chain, key, val, env)
	if err != nil {
		return false, err
	}
	for cur := chain.Next; cur != nil; cur = cur.Next {
		next, err := evalExpression(cur, key, val, env)
		if err != nil {
			return false, err
		}
		if cur.Join != nil && cur.Join.Negate {
			next = !next
		}
		if cur.Join != nil && cur.Join.Kind == ast.Or {
			result = result || next
			if result {
				return true, nil
			}
		} else {
			result = result && next
		}
	}
	return result, nil
}

// evalExpression evaluates one link of the chain: an optional key-based
// gate, then the value predicate `current-value Op Right` (spec.md §4.4).
func evalExpression(e *ast.Expression, key string, val value.Value, env *evalEnv) (bool, error) {
	switch left := e.Left.(type) {
	case ast.StarKey:
		rv, err := resolveOperand(e.Right, env)
		if err != nil {
			return false, err
		}
		return applyOp(e.Op, value.Str_(key), rv, env)
	case ast.FieldKey:
		if key != left.Name {
			return false, nil
		}
		rv, err := resolveOperand(e.Right, env)
		if err != nil {
			return false, err
		}
		return applyOp(e.Op, val, rv, env)
	case ast.NestedExpr:
		gate, err := evalKeyGate(left, key, env)
		if err != nil {
			return false, err
		}
		if !gate {
			return false, nil
		}
		rv, err := resolveOperand(e.Right, env)
		if err != nil {
			return false, err
		}
		return applyOp(e.Op, val, rv, env)
	default:
		return false, errcode.New(errcode.Assertion, "unknown left operand type %T", e.Left)
	}
}

func evalKeyGate(ne ast.NestedExpr, key string, env *evalEnv) (bool, error) {
	rv, err := resolveOperand(ne.Right, env)
	if err != nil {
		return false, err
	}
	return applyOp(ne.Op, value.Str_(key), rv, env)
}

// resolveOperand turns a literal, placeholder reference, or nested operand
// into a concrete value.Value.
func resolveOperand(o ast.Operand, env *evalEnv) (value.Value, error) {
	switch x := o.(type) {
	case ast.Literal:
		return x.Value, nil
	case ast.PlaceholderRef:
		k := placeholder.ByIndex(x.Index)
		if x.ByName {
			k = placeholder.ByName(x.Name)
		}
		return env.placeholders.MustLookup(k)
	default:
		return value.Value{}, errcode.New(errcode.Assertion, "operand %T cannot be resolved to a value", o)
	}
}

// applyOp dispatches a comparison/containment operator, demoting Unmatched
// to false and applying negation last (spec.md §4.4).
func applyOp(op *ast.Op, left, right value.Value, env *evalEnv) (bool, error) {
	var result bool
	var err error

	switch op.Kind {
	case ast.EQ:
		n, ok := value.Cmp(left, right)
		result = ok && n == 0
	case ast.GT:
		n, ok := value.Cmp(left, right)
		result = ok && n > 0
	case ast.GTE:
		n, ok := value.Cmp(left, right)
		result = ok && n >= 0
	case ast.LT:
		n, ok := value.Cmp(left, right)
		result = ok && n < 0
	case ast.LTE:
		n, ok := value.Cmp(left, right)
		result = ok && n <= 0
	case ast.RE:
		result, err = applyRegex(op, left, right, env)
	case ast.IN:
		// `left in right`: right is the array tree, left is the needle
		// (spec.md §4.4 "IN").
		result = applyIn(right, left)
	case ast.NI:
		// `left ni right`: left is the array tree at the current value,
		// right is the needle (spec.md §4.4 "NI": "equivalent to swapped
		// containment").
		result = applyIn(left, right)
	default:
		return false, errcode.New(errcode.Assertion, "unknown op kind %v", op.Kind)
	}
	if err != nil {
		return false, err
	}
	if op.Negate {
		result = !result
	}
	return result, nil
}

// applyRegex compiles (lazily, cached by op identity) the pattern sourced
// from a bound regex placeholder, else right stringified via VD rules
// (spec.md §4.3).
func applyRegex(op *ast.Op, left, right value.Value, env *evalEnv) (bool, error) {
	var source string
	if right.Kind == value.Regex {
		cr := right.AsRegex()
		return cr.MatchString(stringify(left)), nil
	}
	source = stringify(right)
	cr, err := env.regex.Compile(op, source)
	if err != nil {
		return false, err
	}
	return cr.MatchString(stringify(left)), nil
}

func stringify(v value.Value) string {
	switch v.Kind {
	case value.Str:
		return v.AsString()
	case value.I64:
		return strconv.FormatInt(v.AsInt(), 10)
	case value.F64:
		return strconv.FormatFloat(v.AsFloat(), 'g', -1, 64)
	case value.Bool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// applyIn requires the container operand to be a TreeRef of Array (spec.md
// §9's resolution of the open question: "strictly require TreeRef of
// Array" rather than the source's conflated type check).
func applyIn(container, needle value.Value) bool {
	if container.Kind != value.TreeRef {
		return false
	}
	elems, ok := container.AsTreeRef().Elements()
	if !ok {
		return false
	}
	for _, e := range elems {
		if value.Equal(e, needle) {
			return true
		}
	}
	return false
}

// matchNode evaluates a single path Node against the current traversal
// position and reports whether it matched, without mutating shadow state
// (the caller, FSM, owns range transitions).
func matchNode(node *ast.Node, key string, val value.Value, env *evalEnv) (bool, error) {
	switch node.NType {
	case ast.Field:
		return matchField(node, key), nil
	case ast.Any:
		return true, nil
	case ast.AnyDescent:
		return true, nil
	case ast.ExprStep:
		return matchExprStep(node, key, val, env)
	default:
		return false, errcode.New(errcode.Assertion, "unknown node type %v", node.NType)
	}
}
