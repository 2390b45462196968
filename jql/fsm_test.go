package jql

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jqlang/jql/ast"
	"github.com/jqlang/jql/value"
)

// TestEvalFilterAnyDescentSuccessorConsumption exercises FSM's AnyDescent
// rule directly: the node keeps Collecting until its successor matches at
// the same event, at which point both advance together (spec.md §4.4).
func TestEvalFilterAnyDescentSuccessorConsumption(t *testing.T) {
	b := ast.NewBuilder()
	op := b.NewOp(ast.GT, false)
	expr := b.NewExpression(ast.FieldKey{Name: "age"}, op, ast.Literal{Value: value.I64_(18)})
	f := b.NewFilter(b.AnyDescentNode(), b.ExprStepNode(expr))

	fs := newFilterState(f)
	env := newEnv()

	matched, dirty, err := evalFilter(fs, f, 0, "", value.TreeRef_(nil), env)
	require.NoError(t, err)
	require.False(t, matched)
	require.False(t, dirty)

	matched, dirty, err = evalFilter(fs, f, 1, "u", value.TreeRef_(nil), env)
	require.NoError(t, err)
	require.False(t, matched)
	require.False(t, dirty)

	matched, dirty, err = evalFilter(fs, f, 2, "age", value.I64_(20), env)
	require.NoError(t, err)
	require.True(t, matched)
	require.True(t, dirty)
}

// An AnyDescent-terminated filter (no successor node) always matches once
// reached (spec.md §4.4: "Always yields match=true").
func TestEvalFilterAnyDescentTerminalAlwaysMatches(t *testing.T) {
	b := ast.NewBuilder()
	f := b.NewFilter(b.AnyDescentNode())
	fs := newFilterState(f)
	env := newEnv()

	matched, dirty, err := evalFilter(fs, f, 0, "whatever", value.Str_("x"), env)
	require.NoError(t, err)
	require.True(t, matched)
	require.True(t, dirty)
}

// P2 (Sticky match): once matched, subsequent events return true without
// re-inspecting node state.
func TestEvalFilterStickyOnceMatched(t *testing.T) {
	b := ast.NewBuilder()
	f := b.NewFilter(b.FieldNode("x"))
	fs := newFilterState(f)
	env := newEnv()

	matched, _, err := evalFilter(fs, f, 0, "x", value.I64_(1), env)
	require.NoError(t, err)
	require.True(t, matched)

	matched, dirty, err := evalFilter(fs, f, 5, "anything", value.Bool_(false), env)
	require.NoError(t, err)
	require.True(t, matched)
	require.False(t, dirty)
}

// P1 (Monotonic progress): a level regression resets node ranges that have
// fallen out of scope rather than leaving stale Armed state behind.
func TestEvalFilterLevelRegressionResets(t *testing.T) {
	b := ast.NewBuilder()
	f := b.NewFilter(b.FieldNode("a"), b.FieldNode("b"))
	fs := newFilterState(f)
	env := newEnv()

	_, _, err := evalFilter(fs, f, 0, "a", value.Str_("x"), env)
	require.NoError(t, err)
	require.Equal(t, Armed, fs.Ranges[0].State)

	// Regress to level 0 again (a sibling subtree): node 0's armed range at
	// level 0 must be cleared so it can be re-attempted, not left stuck.
	_, _, err = evalFilter(fs, f, 0, "a", value.Str_("y"), env)
	require.NoError(t, err)
	require.Equal(t, Armed, fs.Ranges[0].State)
	require.False(t, fs.Matched)
}
