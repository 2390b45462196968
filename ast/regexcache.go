package ast

import (
	"strings"

	"github.com/grafana/regexp"

	"github.com/jqlang/jql/errcode"
	"github.com/jqlang/jql/value"
)

// RegexCache lazily compiles one pattern per Op site (spec.md §4.3), keyed
// by the Op's identity (its ID, stable for the AST's lifetime). A query is
// single-threaded (spec.md §5), so no locking is needed; a cloned query
// gets its own cache so compiled patterns are never shared across
// concurrent walks.
type RegexCache struct {
	entries map[int]*value.CompiledRegex
}

func NewRegexCache() *RegexCache {
	return &RegexCache{entries: make(map[int]*value.CompiledRegex)}
}

// Compile returns the cached pattern for op, compiling it from source on
// first use. source is either the bound regex placeholder's raw pattern or
// the right operand stringified via the value package's rules (spec.md
// §4.3).
func (c *RegexCache) Compile(op *Op, source string) (*value.CompiledRegex, error) {
	if cr, ok := c.entries[op.ID]; ok {
		return cr, nil
	}
	cr, err := compilePattern(source)
	if err != nil {
		return nil, err
	}
	c.entries[op.ID] = cr
	return cr, nil
}

// Release drops a cached entry, e.g. when an op's placeholder-bound pattern
// is rebound with a new pattern.
func (c *RegexCache) Release(op *Op) {
	delete(c.entries, op.ID)
}

// Reset clears every cached pattern (spec.md §4.9 "reset").
func (c *RegexCache) Reset() {
	c.entries = make(map[int]*value.CompiledRegex)
}

// CompilePattern exposes the same anchor-stripping compile step the cache
// uses internally, for callers (e.g. placeholder regex binds) that need a
// CompiledRegex without going through an Op-keyed cache entry.
func CompilePattern(source string) (*value.CompiledRegex, error) {
	return compilePattern(source)
}

// compilePattern strips a leading '^' and trailing '$' anchor, remembering
// them as MatchStart/MatchEnd rather than mutating the pattern text in the
// AST arena (spec.md §9's "Regex anchor rewriting" design note). The
// stripped pattern's own length is kept as PatternLen for MatchEnd to
// compare against, not the matched-against input's length (jql.c:578).
func compilePattern(source string) (*value.CompiledRegex, error) {
	pat := source
	matchStart := strings.HasPrefix(pat, "^")
	if matchStart {
		pat = pat[1:]
	}
	matchEnd := strings.HasSuffix(pat, "$")
	if matchEnd {
		pat = pat[:len(pat)-1]
	}

	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, errcode.Wrap(errcode.RegexpInvalid, err, "invalid regular expression %q", source)
	}

	return &value.CompiledRegex{Re: re, MatchStart: matchStart, MatchEnd: matchEnd, PatternLen: len(pat)}, nil
}
