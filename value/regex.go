package value

import (
	"github.com/grafana/regexp"
)

// CompiledRegex is the Regex Cache's cache entry (spec.md §4.3): a compiled
// pattern plus the anchor flags recovered by stripping a leading '^' or
// trailing '$' before compiling. Design Notes §9 prefers this over mutating
// the pattern string in place, so MatchStart/MatchEnd live alongside the
// immutable compiled form rather than being re-derived from it.
type CompiledRegex struct {
	Re *regexp.Regexp

	// MatchStart requires a positive match to begin at offset 0 of the
	// input (the pattern had a leading '^').
	MatchStart bool
	// MatchEnd requires a positive match to end at PatternLen (the pattern
	// had a trailing '$').
	MatchEnd bool
	// PatternLen is the stripped pattern's own length (jql.c's match_end,
	// jql.c:578 "rci - 1"), not the input's length: jql.c compares the
	// match's end offset against the pattern text's length, so a
	// variable-length pattern matching a longer-or-shorter input than its
	// own source text is rejected even when the match otherwise reaches
	// the end of the input. Preserved as-is per spec.md §9.
	PatternLen int
}

// MatchString reports whether s satisfies the compiled pattern under the
// anchor flags recovered at compile time (spec.md §4.3, property P5).
//
// Per spec.md §9's "Open questions": if the original pattern was exactly
// "$", stripping yields an empty pattern with MatchEnd set; behavior is
// preserved as-is (an empty pattern matches everywhere, so MatchEnd reduces
// to "s is empty"), matching jql.c rather than special-casing it.
func (c *CompiledRegex) MatchString(s string) bool {
	loc := c.Re.FindStringIndex(s)
	if loc == nil {
		return false
	}
	if c.MatchStart && loc[0] != 0 {
		return false
	}
	if c.MatchEnd && loc[1] != c.PatternLen {
		return false
	}
	return true
}
