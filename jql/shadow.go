// Package jql is the Lifecycle Facade and evaluation core: it wires the
// Value Domain, Placeholder Table, Regex Cache, Node Matcher, Filter State
// Machine, Expression Tree Evaluator, and Document Walker Bridge together
// behind a single bind-and-match Query API (spec.md §4.9, §6).
package jql

import (
	"github.com/jqlang/jql/ast"
)

// RangeState is the per-node progress state the Filter State Machine
// tracks across a document walk (spec.md §9's "EvalState shadow tree"
// design note, replacing the source's overloaded start/end integers with
// an explicit enum).
type RangeState int

const (
	// Unreached: the node has not yet been attempted.
	Unreached RangeState = iota
	// Armed: the node last matched within [Start, End] (inclusive); for
	// Field/Any/ExprStep nodes Start == End, the level of the match.
	Armed
	// Consumed: an AnyDescent node whose successor matched at ConsumedAt;
	// excluded from further matching at or deeper than that level.
	Consumed
	// Collecting: an AnyDescent node still swallowing intermediate levels.
	Collecting
)

// nodeRange is one path Node's shadow state.
type nodeRange struct {
	State      RangeState
	Start, End int
	ConsumedAt int
}

// isArmed reports whether the node is eligible to be matched by NM at lvl
// (spec.md §4.5 step 4).
func (r nodeRange) isArmed(lvl int) bool {
	switch r.State {
	case Unreached:
		return true
	case Armed:
		return lvl >= r.Start && lvl <= r.End
	case Collecting:
		return lvl >= r.Start
	case Consumed:
		return lvl < r.ConsumedAt
	default:
		return false
	}
}

// needsReset reports whether lvl has regressed past this node's live
// range, requiring it to fall back to Unreached (spec.md §4.5 step 3).
func (r nodeRange) needsReset(lvl int) bool {
	switch r.State {
	case Armed:
		return lvl >= r.Start && lvl <= r.End
	case Collecting:
		return lvl >= r.Start
	case Consumed:
		return r.ConsumedAt >= lvl
	default:
		return false
	}
}

// filterState is the per-Filter shadow state (spec.md §3 "MFCTX"): whether
// the filter has matched (sticky for the walk), the deepest level at which
// it made progress, and one nodeRange per path Node.
type filterState struct {
	Matched bool
	LastLvl int
	Ranges  []nodeRange
}

func newFilterState(f *ast.Filter) *filterState {
	return &filterState{
		LastLvl: -1,
		Ranges:  make([]nodeRange, len(f.Nodes)),
	}
}

func (fs *filterState) reset() {
	fs.Matched = false
	fs.LastLvl = -1
	for i := range fs.Ranges {
		fs.Ranges[i] = nodeRange{}
	}
}

// exprState is the per-ExprNode shadow state (spec.md §3 "MENCTX"): sticky
// once the combinator as a whole is satisfied.
type exprState struct {
	Matched bool
}

func (es *exprState) reset() { es.Matched = false }

// EvalState is the full shadow tree for one Query clone (spec.md §9): a
// parallel structure indexed by the small integer IDs ast.Builder assigns,
// so the same immutable *ast.Query can back many concurrently-evaluating
// clones.
type EvalState struct {
	filters map[int]*filterState
	exprs   map[int]*exprState
}

func newEvalState(root *ast.ExprNode) *EvalState {
	es := &EvalState{
		filters: make(map[int]*filterState),
		exprs:   make(map[int]*exprState),
	}
	es.populate(root)
	return es
}

func (es *EvalState) populate(n *ast.ExprNode) {
	if _, ok := es.exprs[n.ID]; ok {
		return
	}
	es.exprs[n.ID] = &exprState{}
	for _, c := range n.Children {
		if c.Filter != nil {
			if _, ok := es.filters[c.Filter.ID]; !ok {
				es.filters[c.Filter.ID] = newFilterState(c.Filter)
			}
		}
		if c.Sub != nil {
			es.populate(c.Sub)
		}
	}
}

func (es *EvalState) filter(f *ast.Filter) *filterState { return es.filters[f.ID] }
func (es *EvalState) expr(n *ast.ExprNode) *exprState    { return es.exprs[n.ID] }

// Reset clears all sticky/progress state, as Query.Reset does for a fresh
// document walk (spec.md §4.9).
func (es *EvalState) Reset() {
	for _, fs := range es.filters {
		fs.reset()
	}
	for _, ex := range es.exprs {
		ex.reset()
	}
}
