package jql

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jqlang/jql/ast"
	"github.com/jqlang/jql/placeholder"
	"github.com/jqlang/jql/value"
)

func newEnv() *evalEnv {
	return &evalEnv{placeholders: placeholder.New(), regex: ast.NewRegexCache()}
}

// P4 (Negation duality): eval(not P, x) == not eval(P, x) whenever eval(P, x)
// does not error (spec.md §8).
func TestApplyOpNegationDuality(t *testing.T) {
	b := ast.NewBuilder()
	env := newEnv()

	pos := b.NewOp(ast.EQ, false)
	neg := b.NewOp(ast.EQ, true)

	left := value.I64_(5)
	right := value.I64_(5)

	posResult, err := applyOp(pos, left, right, env)
	require.NoError(t, err)
	negResult, err := applyOp(neg, left, right, env)
	require.NoError(t, err)

	require.True(t, posResult)
	require.Equal(t, !posResult, negResult)
}

// IN requires the right operand to be a TreeRef array (spec.md §9's
// resolution of the open question); a non-tree right operand never matches
// rather than inspecting invalid state.
func TestApplyInRequiresTreeRefContainer(t *testing.T) {
	env := newEnv()
	op := ast.NewBuilder().NewOp(ast.IN, false)

	ok, err := applyOp(op, value.I64_(1), value.I64_(1), env)
	require.NoError(t, err)
	require.False(t, ok)
}

// IN checks "left appears in right's elements"; NI checks "right appears
// in left's elements" (spec.md §4.4: NI is "equivalent to swapped
// containment").
func TestApplyInAndNiContainerOrientation(t *testing.T) {
	env := newEnv()
	arr := value.TreeRef_(literalArrayFor(value.Str_("a"), value.Str_("b")))

	inOp := ast.NewBuilder().NewOp(ast.IN, false)
	ok, err := applyOp(inOp, value.Str_("b"), arr, env)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = applyOp(inOp, value.Str_("c"), arr, env)
	require.NoError(t, err)
	require.False(t, ok)

	niOp := ast.NewBuilder().NewOp(ast.NI, false)
	ok, err = applyOp(niOp, arr, value.Str_("a"), env)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = applyOp(niOp, arr, value.Str_("z"), env)
	require.NoError(t, err)
	require.False(t, ok)
}

type fixedArray []value.Value

func (a fixedArray) Elements() ([]value.Value, bool) { return []value.Value(a), true }
func (a fixedArray) StructuralEqual(other any) bool {
	b, ok := other.(fixedArray)
	if !ok || len(a) != len(b) {
		return false
	}
	for i := range a {
		if !value.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func literalArrayFor(vs ...value.Value) value.TreeComparable { return fixedArray(vs) }
