package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jqlang/jql/errcode"
	"github.com/jqlang/jql/value"
)

// Parse turns query text into a Query AST (spec.md §6's "AST Provider").
// It is a minimal recursive-descent parser covering the path/predicate
// grammar spec.md names: field/`*`/`**` path steps, the eight comparison
// and containment operators, string/number/bool/null/array literals,
// name/ordinal placeholders, AND/OR filter combination, and the
// include/exclude/`{alt}`/`all` projection grammar. It is deliberately not
// a full query language (spec.md §1 Non-goals).
func Parse(collection, text string) (*Query, error) {
	p := &parser{src: text, b: NewBuilder()}
	q, err := p.parseQuery()
	if err != nil {
		// A clause-level error (duplicate skip/limit, oversized orderby)
		// already carries its own public Code; only grammar errors get
		// folded under QueryParse.
		if e, ok := err.(*errcode.Error); ok {
			return nil, e
		}
		return nil, errcode.Wrap(errcode.QueryParse, err, "failed to parse query %q", text)
	}
	q.Collection = collection
	return q, nil
}

type parser struct {
	src string
	pos int
	b   *Builder
}

// parseQuery parses the root predicate followed by zero or more '|'-prefixed
// clauses: a projection list, "skip", "limit", or "orderby" (spec.md §4.9's
// "create" grammar plus the skip/limit/orderby clauses jql.c's own parser
// accepts; spec.md §6 names the corresponding error codes but the
// distillation never wires a caller that can raise them).
func (p *parser) parseQuery() (*Query, error) {
	root, err := p.parseCombinator()
	if err != nil {
		return nil, err
	}
	q := &Query{Root: root}

	for {
		p.skipSpace()
		if !p.peekByte('|') {
			break
		}
		p.pos++
		p.skipSpace()

		switch {
		case p.peekKeyword("skip"):
			p.pos += 4
			if q.HasSkip || q.SkipRef != nil {
				return nil, errcode.New(errcode.SkipAlreadySet, "")
			}
			v, has, ref, err := p.parseSkipLimitValue()
			if err != nil {
				return nil, err
			}
			q.Skip, q.HasSkip, q.SkipRef = v, has, ref
		case p.peekKeyword("limit"):
			p.pos += 5
			if q.HasLimit || q.LimitRef != nil {
				return nil, errcode.New(errcode.LimitAlreadySet, "")
			}
			v, has, ref, err := p.parseSkipLimitValue()
			if err != nil {
				return nil, err
			}
			q.Limit, q.HasLimit, q.LimitRef = v, has, ref
		case p.peekKeyword("orderby"):
			p.pos += 7
			fields, err := p.parseOrderBy()
			if err != nil {
				return nil, err
			}
			if len(q.OrderBy)+len(fields) > 64 {
				return nil, errcode.New(errcode.OrderbyMaxLimit, "")
			}
			q.OrderBy = append(q.OrderBy, fields...)
		default:
			projs, err := p.parseProjections()
			if err != nil {
				return nil, err
			}
			q.Projections = append(q.Projections, projs...)
		}
	}

	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected trailing text at offset %d: %q", p.pos, p.src[p.pos:])
	}
	return q, nil
}

// parseSkipLimitValue parses either an integer literal or a name/ordinal
// placeholder reference following a "skip"/"limit" keyword.
func (p *parser) parseSkipLimitValue() (value int64, has bool, ref *PlaceholderRef, err error) {
	p.skipSpace()
	switch {
	case p.peekByte(':'):
		p.pos++
		name := p.readIdent()
		if name == "" {
			return 0, false, nil, fmt.Errorf("expected placeholder name at offset %d", p.pos)
		}
		r := PlaceholderRef{ByName: true, Name: name}
		return 0, false, &r, nil
	case p.peekByte('?'):
		p.pos++
		start := p.pos
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
		n, convErr := strconv.Atoi(p.src[start:p.pos])
		if convErr != nil {
			return 0, false, nil, fmt.Errorf("invalid ordinal placeholder at offset %d", start)
		}
		r := PlaceholderRef{Index: n - 1}
		return 0, false, &r, nil
	default:
		start := p.pos
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
		text := p.src[start:p.pos]
		if text == "" {
			return 0, false, nil, fmt.Errorf("expected skip/limit value at offset %d", p.pos)
		}
		n, convErr := strconv.ParseInt(text, 10, 64)
		if convErr != nil {
			return 0, false, nil, convErr
		}
		return n, true, nil, nil
	}
}

// parseOrderBy parses a comma-separated list of "/field" paths following an
// "orderby" keyword into their bare field names.
func (p *parser) parseOrderBy() ([]string, error) {
	var fields []string
	for {
		p.skipSpace()
		if !p.peekByte('/') {
			return nil, fmt.Errorf("expected orderby field at offset %d", p.pos)
		}
		p.pos++
		name := p.readIdent()
		if name == "" {
			return nil, fmt.Errorf("expected orderby field name at offset %d", p.pos)
		}
		fields = append(fields, name)
		p.skipSpace()
		if p.peekByte(',') {
			p.pos++
			continue
		}
		break
	}
	return fields, nil
}

// parseCombinator parses filter (AND|OR filter)* into a single ExprNode.
func (p *parser) parseCombinator() (*ExprNode, error) {
	var children []Child

	f, err := p.parseFilterClause()
	if err != nil {
		return nil, err
	}
	children = append(children, Child{Filter: f})

	for {
		p.skipSpace()
		kw, negate, ok := p.peekJoinKeyword()
		if !ok {
			break
		}
		p.pos += len(kw)
		p.skipSpace()
		if p.peekKeyword("not") {
			p.pos += 3
			negate = !negate
			p.skipSpace()
		}
		nf, err := p.parseFilterClause()
		if err != nil {
			return nil, err
		}
		join := &Join{Kind: joinKindOf(kw), Negate: negate}
		children = append(children, Child{Filter: nf, Join: join})
	}

	return p.b.NewExprNode(children...), nil
}

func joinKindOf(kw string) JoinKind {
	if strings.EqualFold(kw, "or") {
		return Or
	}
	return And
}

func (p *parser) peekJoinKeyword() (string, bool, bool) {
	p.skipSpace()
	if p.peekKeyword("and") {
		return "and", false, true
	}
	if p.peekKeyword("or") {
		return "or", false, true
	}
	return "", false, false
}

func (p *parser) peekKeyword(kw string) bool {
	rest := p.src[p.pos:]
	if !strings.HasPrefix(strings.ToLower(rest), kw) {
		return false
	}
	end := p.pos + len(kw)
	if end < len(p.src) && isIdentByte(p.src[end]) {
		return false
	}
	return true
}

// parseFilterClause parses "/path/steps [op rhs]" into a Filter. When a
// predicate follows, the last path segment is folded into the predicate's
// left operand (a field-name gate evaluated against the same tree position
// as the value comparison, spec.md §4.4) rather than kept as a separate
// path Node — this is what lets a single document event satisfy both the
// field-name gate and the value predicate together.
func (p *parser) parseFilterClause() (*Filter, error) {
	p.skipSpace()
	if !p.peekByte('/') {
		return nil, fmt.Errorf("expected '/' at offset %d", p.pos)
	}
	p.pos++

	var nodes []*Node
	for {
		step, err := p.parsePathStep()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, step)
		if p.peekByte('/') {
			p.pos++
			continue
		}
		break
	}

	p.skipSpace()
	if op, ok, err := p.tryParseOp(); err != nil {
		return nil, err
	} else if ok {
		var left Operand
		if n := len(nodes); n > 0 && nodes[n-1].NType == Field {
			left = FieldKey{Name: nodes[n-1].Name}
			nodes = nodes[:n-1]
		} else {
			left = StarKey{}
		}
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		expr := p.b.NewExpression(left, op, right)
		nodes = append(nodes, p.b.ExprStepNode(expr))
	}

	return p.b.NewFilter(nodes...), nil
}

func (p *parser) parsePathStep() (*Node, error) {
	if strings.HasPrefix(p.src[p.pos:], "**") {
		p.pos += 2
		return p.b.AnyDescentNode(), nil
	}
	if p.peekByte('*') {
		p.pos++
		return p.b.AnyNode(), nil
	}
	name := p.readIdent()
	if name == "" {
		return nil, fmt.Errorf("expected path segment at offset %d", p.pos)
	}
	return p.b.FieldNode(name), nil
}

func (p *parser) tryParseOp() (*Op, bool, error) {
	p.skipSpace()
	rest := p.src[p.pos:]
	type spelling struct {
		text string
		kind OpKind
	}
	spellings := []spelling{
		{">=", GTE}, {"<=", LTE}, {"=", EQ}, {">", GT}, {"<", LT},
		{"re", RE}, {"in", IN}, {"ni", NI},
	}
	for _, s := range spellings {
		if strings.HasPrefix(rest, s.text) {
			if isIdentByte(s.text[0]) {
				end := p.pos + len(s.text)
				if end < len(p.src) && isIdentByte(p.src[end]) {
					continue
				}
			}
			p.pos += len(s.text)
			negate := false
			return p.b.NewOp(s.kind, negate), true, nil
		}
	}
	return nil, false, nil
}

func (p *parser) parseOperand() (Operand, error) {
	p.skipSpace()
	switch {
	case p.peekByte(':'):
		p.pos++
		name := p.readIdent()
		return PlaceholderRef{ByName: true, Name: name}, nil
	case p.peekByte('?'):
		p.pos++
		start := p.pos
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
		n, err := strconv.Atoi(p.src[start:p.pos])
		if err != nil {
			return nil, fmt.Errorf("invalid ordinal placeholder at offset %d", start)
		}
		return PlaceholderRef{Index: n - 1}, nil
	case p.peekByte('"'):
		s, err := p.readString()
		if err != nil {
			return nil, err
		}
		return Literal{Value: value.Str_(s)}, nil
	case p.peekByte('['):
		return p.parseArrayLiteral()
	case p.peekKeyword("true"):
		p.pos += 4
		return Literal{Value: value.Bool_(true)}, nil
	case p.peekKeyword("false"):
		p.pos += 5
		return Literal{Value: value.Bool_(false)}, nil
	case p.peekKeyword("null"):
		p.pos += 4
		return Literal{Value: value.Null_()}, nil
	default:
		return p.parseNumberOperand()
	}
}

func (p *parser) parseNumberOperand() (Operand, error) {
	start := p.pos
	if p.peekByte('-') {
		p.pos++
	}
	for p.pos < len(p.src) && (isDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
		p.pos++
	}
	text := p.src[start:p.pos]
	if text == "" {
		return nil, fmt.Errorf("expected operand at offset %d", p.pos)
	}
	if strings.Contains(text, ".") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, err
		}
		return Literal{Value: value.F64_(f)}, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, err
	}
	return Literal{Value: value.I64_(n)}, nil
}

// parseArrayLiteral parses a literal array into a TreeRef-backed value so
// IN/NI operands round-trip through the same structural comparison path
// the document package uses (spec.md §4.4, §9's "strictly require TreeRef
// of Array" resolution of the open question).
func (p *parser) parseArrayLiteral() (Operand, error) {
	p.pos++ // consume '['
	var elems []value.Value
	p.skipSpace()
	for !p.peekByte(']') {
		opnd, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		lit, ok := opnd.(Literal)
		if !ok {
			return nil, fmt.Errorf("array literal elements must themselves be literals")
		}
		elems = append(elems, lit.Value)
		p.skipSpace()
		if p.peekByte(',') {
			p.pos++
			p.skipSpace()
			continue
		}
		break
	}
	if !p.peekByte(']') {
		return nil, fmt.Errorf("unterminated array literal at offset %d", p.pos)
	}
	p.pos++
	return Literal{Value: value.TreeRef_(literalArray(elems))}, nil
}

// literalArray implements value.TreeComparable for a parser-constructed
// array literal, independent of the doc package's runtime tree.
type literalArray []value.Value

func (a literalArray) Elements() ([]value.Value, bool) { return []value.Value(a), true }

func (a literalArray) StructuralEqual(other any) bool {
	b, ok := other.(interface {
		Elements() ([]value.Value, bool)
	})
	if !ok {
		return false
	}
	bv, ok := b.Elements()
	if !ok || len(bv) != len(a) {
		return false
	}
	for i := range a {
		if !value.Equal(a[i], bv[i]) {
			return false
		}
	}
	return true
}

func (p *parser) readString() (string, error) {
	if !p.peekByte('"') {
		return "", fmt.Errorf("expected string at offset %d", p.pos)
	}
	p.pos++
	start := p.pos
	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '"' {
			sb.WriteString(p.src[start:p.pos])
			p.pos++
			return sb.String(), nil
		}
		if c == '\\' && p.pos+1 < len(p.src) {
			sb.WriteString(p.src[start:p.pos])
			p.pos++
			sb.WriteByte(p.src[p.pos])
			p.pos++
			start = p.pos
			continue
		}
		p.pos++
	}
	return "", fmt.Errorf("unterminated string literal")
}

func (p *parser) readIdent() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *parser) peekByte(b byte) bool {
	return p.pos < len(p.src) && p.src[p.pos] == b
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// parseProjections parses a comma-separated projection clause list
// (spec.md §4.8): "-all", "+all", or an optionally-'-'-prefixed path where
// the final segment may be a brace alternation like "{name,age}".
func (p *parser) parseProjections() ([]Projection, error) {
	var out []Projection
	for {
		p.skipSpace()
		proj, err := p.parseOneProjection()
		if err != nil {
			return nil, err
		}
		out = append(out, proj)
		p.skipSpace()
		if p.peekByte(',') {
			p.pos++
			continue
		}
		break
	}
	return out, nil
}

func (p *parser) parseOneProjection() (Projection, error) {
	exclude := false
	if p.peekByte('-') {
		exclude = true
		p.pos++
	} else if p.peekByte('+') {
		p.pos++
	}

	if p.peekKeyword("all") {
		p.pos += 3
		return Projection{Exclude: exclude, IsAll: true}, nil
	}

	if !p.peekByte('/') {
		return Projection{}, fmt.Errorf("expected projection path at offset %d", p.pos)
	}
	p.pos++

	var segs []Segment
	for {
		seg, err := p.parseProjectionSegment()
		if err != nil {
			return Projection{}, err
		}
		segs = append(segs, seg)
		if p.peekByte('/') {
			p.pos++
			continue
		}
		break
	}
	return Projection{Segments: segs, Exclude: exclude}, nil
}

func (p *parser) parseProjectionSegment() (Segment, error) {
	if p.peekByte('*') {
		p.pos++
		return Segment{Field: "*"}, nil
	}
	if p.peekByte('{') {
		p.pos++
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] != '}' {
			p.pos++
		}
		if !p.peekByte('}') {
			return Segment{}, fmt.Errorf("unterminated alternation at offset %d", start)
		}
		alts := p.src[start:p.pos]
		p.pos++
		return Segment{Field: "{" + alts + "}"}, nil
	}
	name := p.readIdent()
	if name == "" {
		return Segment{}, fmt.Errorf("expected projection segment at offset %d", p.pos)
	}
	return Segment{Field: name}, nil
}
