package jql

import (
	"github.com/jqlang/jql/ast"
	"github.com/jqlang/jql/value"
)

// evalExprNode is the Expression Tree Evaluator (spec.md §4.6): a boolean
// combinator over filters and nested combinators. EN.Matched is sticky for
// the whole node once true; there is no stickiness at sub-filter
// granularity (spec.md's explicit callout). It reports the combined result
// plus whether any descendant filter was dirtied this event, for the
// Document Walker Bridge's subtree-skip decision.
func evalExprNode(en *ast.ExprNode, es *EvalState, lvl int, key string, val value.Value, env *evalEnv) (matched bool, dirty bool, err error) {
	est := es.expr(en)
	if est.Matched {
		return true, false, nil
	}

	result := false
	first := true
	for _, c := range en.Children {
		var childResult, childDirty bool
		if c.Sub != nil {
			childResult, childDirty, err = evalExprNode(c.Sub, es, lvl, key, val, env)
		} else {
			fs := es.filter(c.Filter)
			childResult, childDirty, err = evalFilter(fs, c.Filter, lvl, key, val, env)
		}
		if err != nil {
			return false, false, err
		}
		if childDirty {
			dirty = true
		}
		if c.Join != nil && c.Join.Negate {
			childResult = !childResult
		}

		if first {
			result = childResult
			first = false
			continue
		}
		if c.Join != nil && c.Join.Kind == ast.Or {
			result = result || childResult
			if result {
				break
			}
		} else {
			result = result && childResult
		}
	}

	if result {
		est.Matched = true
	}
	return result, dirty, nil
}
