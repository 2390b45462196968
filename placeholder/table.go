// Package placeholder implements the Placeholder Table (spec.md §4.2):
// name/index-keyed bindings for query parameters, bound once per Query and
// consulted by the Node Matcher during evaluation.
package placeholder

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jqlang/jql/errcode"
	"github.com/jqlang/jql/value"
)

// Key identifies a placeholder site: either a string name (":name") or an
// ordinal index ("?N", 0-based in binding order).
type Key struct {
	Name    string
	Ordinal int
	ByName  bool
}

func ByName(name string) Key { return Key{Name: name, ByName: true} }
func ByIndex(i int) Key      { return Key{Ordinal: i} }

func (k Key) String() string {
	if k.ByName {
		return ":" + k.Name
	}
	return "?" + strconv.Itoa(k.Ordinal)
}

// ParseKey recognizes the two placeholder spellings spec.md §4.2 defines:
// names beginning with ':' are string-named, strings prefixed '?' are
// ordinal (1-based in source text, stored 0-based here).
func ParseKey(s string) (Key, bool) {
	if strings.HasPrefix(s, ":") && len(s) > 1 {
		return ByName(s[1:]), true
	}
	if strings.HasPrefix(s, "?") && len(s) > 1 {
		n, err := strconv.Atoi(s[1:])
		if err != nil || n < 1 {
			return Key{}, false
		}
		return ByIndex(n - 1), true
	}
	return Key{}, false
}

type binding struct {
	val   value.Value
	regex *value.CompiledRegex // owned; released on rebind/clear
}

// Table is a per-Query placeholder store. It is not safe for concurrent use;
// each cloned Query owns its own Table (spec.md §5).
type Table struct {
	// id correlates a table to log lines/metrics without exposing pointer
	// identity.
	id uuid.UUID

	named    map[string]binding
	ordinal  map[int]binding
	declared map[Key]bool // sites the AST actually references
}

func New() *Table {
	return &Table{
		id:       uuid.New(),
		named:    make(map[string]binding),
		ordinal:  make(map[int]binding),
		declared: make(map[Key]bool),
	}
}

func (t *Table) ID() uuid.UUID { return t.id }

// Declare registers a placeholder site the AST references, so Lookup can
// distinguish "never declared" (InvalidPlaceholder, surfaced at bind time by
// the caller) from "declared but unbound" (UnsetPlaceholder, surfaced when
// the query actually consumes it during evaluation).
func (t *Table) Declare(k Key) { t.declared[k] = true }

func (t *Table) isDeclared(k Key) bool { return t.declared[k] }

// Bind stores v at k as given; regex patterns are compiled by BindRegex.
// Rebinding releases the previous owned value (e.g. a compiled regex).
func (t *Table) Bind(k Key, v value.Value) error {
	if !t.isDeclared(k) {
		return errcode.New(errcode.InvalidPlaceholder, "placeholder %s is not referenced by this query", k)
	}
	b := binding{val: v}
	t.set(k, b)
	return nil
}

// BindRegex compiles pattern eagerly and stores it as a Regex-kind value.
func (t *Table) BindRegex(k Key, compile func(pattern string) (*value.CompiledRegex, error), pattern string) error {
	if !t.isDeclared(k) {
		return errcode.New(errcode.InvalidPlaceholder, "placeholder %s is not referenced by this query", k)
	}
	cr, err := compile(pattern)
	if err != nil {
		return err
	}
	t.set(k, binding{val: value.Regex_(cr), regex: cr})
	return nil
}

func (t *Table) set(k Key, b binding) {
	if k.ByName {
		t.named[k.Name] = b
	} else {
		t.ordinal[k.Ordinal] = b
	}
}

// Lookup returns the bound value for k, or ok=false if unbound.
func (t *Table) Lookup(k Key) (value.Value, bool) {
	if k.ByName {
		b, ok := t.named[k.Name]
		return b.val, ok
	}
	b, ok := t.ordinal[k.Ordinal]
	return b.val, ok
}

// MustLookup is the evaluation-time counterpart of Lookup: it surfaces
// UnsetPlaceholder when the query consumes an unbound site, per spec.md §7.
func (t *Table) MustLookup(k Key) (value.Value, error) {
	v, ok := t.Lookup(k)
	if !ok {
		return value.Value{}, errcode.New(errcode.UnsetPlaceholder, "placeholder %s was never bound", k)
	}
	return v, nil
}

// Clear releases all bindings (called by destroy, and by reset when the
// caller asks placeholders to be cleared too).
func (t *Table) Clear() {
	t.named = make(map[string]binding)
	t.ordinal = make(map[int]binding)
}

// DeclaredKeys returns every key declared on t, in no particular order.
func (t *Table) DeclaredKeys() []Key {
	keys := make([]Key, 0, len(t.declared))
	for k := range t.declared {
		keys = append(keys, k)
	}
	return keys
}
