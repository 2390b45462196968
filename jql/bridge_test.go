package jql

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jqlang/jql/ast"
	"github.com/jqlang/jql/doc"
)

func TestIsTrivialWildcardRecognizesSingleStarOrDoubleStar(t *testing.T) {
	b := ast.NewBuilder()
	star := b.NewExprNode(b.FilterChild(nil, b.NewFilter(b.AnyNode())))
	require.True(t, isTrivialWildcard(star))

	b2 := ast.NewBuilder()
	descent := b2.NewExprNode(b2.FilterChild(nil, b2.NewFilter(b2.AnyDescentNode())))
	require.True(t, isTrivialWildcard(descent))

	b3 := ast.NewBuilder()
	field := b3.NewExprNode(b3.FilterChild(nil, b3.NewFilter(b3.FieldNode("a"))))
	require.False(t, isTrivialWildcard(field))
}

// The DWB terminates the walk as soon as the root ExprNode matches, without
// visiting the rest of the document (spec.md §4.7).
func TestDWBTerminatesOnMatch(t *testing.T) {
	b := ast.NewBuilder()
	en := b.NewExprNode(b.FilterChild(nil, b.NewFilter(b.FieldNode("a"))))
	es := newEvalState(en)
	env := newEnv()
	bridge := newDWB(en, es, env)

	root := doc.NewObject()
	root.AddField("a", doc.NewI64(1))
	root.AddField("b", doc.NewI64(2))

	visited := 0
	doc.Walk(root, func(e doc.Event) doc.Command {
		visited++
		return bridge.visit(e)
	})

	require.True(t, bridge.result)
	// root + "a" field, in insertion order: matched before "b" is visited.
	require.Equal(t, 2, visited)
}
