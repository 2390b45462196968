package jql

import (
	"strconv"

	"github.com/RoaringBitmap/roaring"

	"github.com/jqlang/jql/ast"
	"github.com/jqlang/jql/doc"
	"github.com/jqlang/jql/value"
)

// dwb is the Document Walker Bridge (spec.md §4.7): it adapts doc.Event
// values into the (level, key, value) shape ETE expects and decides, after
// each event, whether the walk should continue, skip the current subtree,
// or terminate.
type dwb struct {
	root   *ast.ExprNode
	state  *EvalState
	env    *evalEnv
	err    error
	result bool

	// unmatched tracks filter IDs not yet matched, so the subtree-skip
	// decision only inspects filters that can still make progress instead
	// of walking the full filter set every event.
	unmatched *roaring.Bitmap
}

func newDWB(root *ast.ExprNode, state *EvalState, env *evalEnv) *dwb {
	bm := roaring.New()
	for id := range state.filters {
		bm.Add(uint32(id))
	}
	return &dwb{root: root, state: state, env: env, unmatched: bm}
}

// Visit adapts one doc.Event into an ETE invocation and returns the
// walker's next command (spec.md §4.7).
func (d *dwb) visit(e doc.Event) doc.Command {
	// The walker reports the document root itself at level 0; filter paths
	// address the root's fields, so the root event is not evaluated and the
	// root's direct children are evaluated at level 0.
	if e.Level == 0 {
		return doc.Continue
	}
	lvl := e.Level - 1

	key := e.Key
	if e.IsIndex {
		key = strconv.Itoa(e.Index)
	}
	var val value.Value = e.Node.Value()

	matched, dirty, err := evalExprNode(d.root, d.state, lvl, key, val, d.env)
	if err != nil {
		d.err = err
		return doc.Terminate
	}
	if matched {
		d.result = true
		return doc.Terminate
	}
	if dirty {
		if !d.anyUnmatchedNeedsProgress(lvl) {
			return doc.SkipNested
		}
	}
	return doc.Continue
}

// anyUnmatchedNeedsProgress reports whether some not-yet-matched filter's
// last_lvl equals lvl, i.e. it just advanced and could still progress
// deeper (spec.md §4.7's subtree-skip rule).
func (d *dwb) anyUnmatchedNeedsProgress(lvl int) bool {
	toRemove := []uint32{}
	needsProgress := false
	it := d.unmatched.Iterator()
	for it.HasNext() {
		id := it.Next()
		fs := d.state.filters[int(id)]
		if fs == nil {
			continue
		}
		if fs.Matched {
			toRemove = append(toRemove, id)
			continue
		}
		if fs.LastLvl == lvl {
			needsProgress = true
		}
	}
	for _, id := range toRemove {
		d.unmatched.Remove(id)
	}
	return needsProgress
}

// isTrivialWildcard reports whether root is the single-`*`-or-`**` query
// that matches any document without walking (spec.md §4.7's fast path).
func isTrivialWildcard(root *ast.ExprNode) bool {
	if len(root.Children) != 1 {
		return false
	}
	c := root.Children[0]
	if c.Filter == nil || len(c.Filter.Nodes) != 1 {
		return false
	}
	nt := c.Filter.Nodes[0].NType
	return nt == ast.Any || nt == ast.AnyDescent
}
