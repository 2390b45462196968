package jql

import (
	"github.com/google/uuid"

	"github.com/jqlang/jql/ast"
	"github.com/jqlang/jql/doc"
	"github.com/jqlang/jql/errcode"
	"github.com/jqlang/jql/internal/obs"
	"github.com/jqlang/jql/patch"
	"github.com/jqlang/jql/placeholder"
	"github.com/jqlang/jql/project"
	"github.com/jqlang/jql/value"
)

// Query is the Lifecycle Facade (spec.md §4.9): it owns one query's
// placeholder table, regex cache, and evaluation shadow state, and exposes
// the bind-and-match API spec.md §6 names. A Query is not safe for
// concurrent use (spec.md §5); Clone produces an independent Query sharing
// the same immutable AST.
type Query struct {
	ast   *ast.Query
	state *EvalState
	ph    *placeholder.Table
	regex *ast.RegexCache
	pool  *patch.Pool

	applyPatch []byte

	log obs.Logger
}

// Create parses queryText against collection and allocates shadow state
// for evaluation (spec.md §4.9's "create").
func Create(collection, queryText string) (*Query, error) {
	q, err := ast.Parse(collection, queryText)
	if err != nil {
		return nil, err
	}
	return newQuery(q), nil
}

func newQuery(q *ast.Query) *Query {
	ph := placeholder.New()
	declarePlaceholders(q.Root, ph)
	if q.SkipRef != nil {
		ph.Declare(keyOf(*q.SkipRef))
	}
	if q.LimitRef != nil {
		ph.Declare(keyOf(*q.LimitRef))
	}
	return &Query{
		ast:   q,
		state: newEvalState(q.Root),
		ph:    ph,
		regex: ast.NewRegexCache(),
		pool:  patch.NewPool(),
		log:   obs.Scoped("jql"),
	}
}

// Clone returns a fresh Query sharing this one's immutable AST but with
// independent shadow state, placeholder bindings, and regex cache (spec.md
// §5: "cloning the AST and creating a fresh query is required for parallel
// evaluation").
func (q *Query) Clone() *Query {
	return newQuery(q.ast)
}

// Reset clears all per-document progress state; if resetPlaceholders, also
// releases placeholder bindings and their compiled regexes (spec.md §4.9).
func (q *Query) Reset(resetPlaceholders bool) {
	q.state.Reset()
	if resetPlaceholders {
		q.ph.Clear()
		q.regex.Reset()
	}
}

// Destroy releases placeholder values, cached compiled regexes, and drops
// the reference to the AST (spec.md §4.9).
func (q *Query) Destroy() {
	q.ph.Clear()
	q.regex.Reset()
	q.ast = nil
	q.state = nil
}

func declarePlaceholders(en *ast.ExprNode, ph *placeholder.Table) {
	seen := make(map[int]bool)
	var walk func(*ast.ExprNode)
	walk = func(n *ast.ExprNode) {
		if seen[n.ID] {
			return
		}
		seen[n.ID] = true
		for _, c := range n.Children {
			if c.Filter != nil {
				declareFilterPlaceholders(c.Filter, ph)
			}
			if c.Sub != nil {
				walk(c.Sub)
			}
		}
	}
	walk(en)
}

func declareFilterPlaceholders(f *ast.Filter, ph *placeholder.Table) {
	for _, n := range f.Nodes {
		if n.NType != ast.ExprStep {
			continue
		}
		for e := n.Chain; e != nil; e = e.Next {
			declareOperandPlaceholder(e.Left, ph)
			declareOperandPlaceholder(e.Right, ph)
		}
	}
}

func declareOperandPlaceholder(o ast.Operand, ph *placeholder.Table) {
	switch x := o.(type) {
	case ast.PlaceholderRef:
		ph.Declare(keyOf(x))
	case ast.NestedExpr:
		declareOperandPlaceholder(x.Key, ph)
		declareOperandPlaceholder(x.Right, ph)
	}
}

func keyOf(ref ast.PlaceholderRef) placeholder.Key {
	if ref.ByName {
		return placeholder.ByName(ref.Name)
	}
	return placeholder.ByIndex(ref.Index)
}

// --- Bind API (spec.md §6: "Bind placeholder by name or index for each
// scalar kind plus Null, Json, Regex"). ---

func (q *Query) BindString(key placeholder.Key, s string) error {
	return q.ph.Bind(key, value.Str_(s))
}

func (q *Query) BindInt(key placeholder.Key, i int64) error {
	return q.ph.Bind(key, value.I64_(i))
}

func (q *Query) BindFloat(key placeholder.Key, f float64) error {
	return q.ph.Bind(key, value.F64_(f))
}

func (q *Query) BindBool(key placeholder.Key, b bool) error {
	return q.ph.Bind(key, value.Bool_(b))
}

func (q *Query) BindNull(key placeholder.Key) error {
	return q.ph.Bind(key, value.Null_())
}

// BindJSON binds a JSON-shaped value, stored as a TreeRef (spec.md §4.2).
func (q *Query) BindJSON(key placeholder.Key, raw []byte) error {
	tree, err := doc.FromJSON(raw)
	if err != nil {
		return errcode.Wrap(errcode.Assertion, err, "invalid JSON placeholder value")
	}
	return q.ph.Bind(key, value.TreeRef_(tree))
}

// BindRegex binds and eagerly compiles a regex pattern (spec.md §4.2).
func (q *Query) BindRegex(key placeholder.Key, pattern string) error {
	return q.ph.BindRegex(key, ast.CompilePattern, pattern)
}

// SetApplyPatch attaches a JSON-Patch document to be applied before
// projection (spec.md §6's "Patch Applier" collaborator). Passing nil
// clears it.
func (q *Query) SetApplyPatch(patchDoc []byte) {
	q.applyPatch = patchDoc
}

// --- Introspection (spec.md §4.9, §6). ---

// ID returns the identifier correlating this Query's log lines and metrics
// across its lifetime; Clone gives the clone a distinct one.
func (q *Query) ID() uuid.UUID      { return q.ph.ID() }
func (q *Query) Collection() string { return q.ast.Collection }
func (q *Query) HasApply() bool     { return len(q.applyPatch) > 0 }
func (q *Query) HasProjection() bool {
	return len(q.ast.Projections) > 0
}
func (q *Query) HasOrderby() bool { return len(q.ast.OrderBy) > 0 }

// Skip resolves the skip clause from an AST literal or a bound placeholder
// (spec.md §4.9).
func (q *Query) Skip() (int64, error) {
	if q.ast.SkipRef != nil {
		v, err := q.ph.MustLookup(keyOf(*q.ast.SkipRef))
		if err != nil {
			return 0, err
		}
		return v.AsInt(), nil
	}
	if q.ast.HasSkip {
		return q.ast.Skip, nil
	}
	return 0, nil
}

// Limit resolves the limit clause the same way Skip does.
func (q *Query) Limit() (int64, error) {
	if q.ast.LimitRef != nil {
		v, err := q.ph.MustLookup(keyOf(*q.ast.LimitRef))
		if err != nil {
			return 0, err
		}
		return v.AsInt(), nil
	}
	if q.ast.HasLimit {
		return q.ast.Limit, nil
	}
	return 0, nil
}

// Matched drives the Document Walker Bridge across doc and reports whether
// the query's predicate is satisfied (spec.md §6 "matched(doc) -> bool |
// error"). Per-document progress from an earlier call is cleared first;
// placeholder bindings are kept.
func (q *Query) Matched(d *doc.Node) (bool, error) {
	if isTrivialWildcard(q.ast.Root) {
		return true, nil
	}
	q.state.Reset()

	env := &evalEnv{placeholders: q.ph, regex: q.regex}
	bridge := newDWB(q.ast.Root, q.state, env)

	doc.Walk(d, bridge.visit)

	metrics := obs.GetMetrics()
	if bridge.err != nil {
		code := errcode.CodeOf(bridge.err)
		metrics.EvalErrorsTotal.WithLabelValues(q.ast.Collection, code.String()).Inc()
		q.log.Error("match evaluation failed", obs.Err(bridge.err), obs.String("query_id", q.ID().String()))
		return false, bridge.err
	}
	if bridge.result {
		metrics.MatchesTotal.WithLabelValues(q.ast.Collection).Inc()
	}
	return bridge.result, nil
}

// Apply performs patch-then-project (spec.md §6 "apply(doc, pool) -> tree |
// nil | error"). It returns nil, nil when the query has neither an apply
// step nor a projection.
func (q *Query) Apply(d *doc.Node) (*doc.Node, error) {
	if !q.HasApply() && !q.HasProjection() {
		return nil, nil
	}

	tree := d
	if q.HasApply() {
		patched, err := patch.Apply(tree, q.applyPatch, q.pool)
		if err != nil {
			return nil, err
		}
		tree = patched
	}

	if q.HasProjection() {
		tree = project.Project(tree, q.ast.Projections)
	}
	obs.GetMetrics().ApplyTotal.WithLabelValues(q.ast.Collection).Inc()
	return tree, nil
}
