// Package errcode defines the public error taxonomy of the match/projection
// engine (spec.md §6, §7): a small set of named codes, a one-shot
// message-table registration mirroring the teacher's log.Init pattern, and
// an error type that carries a code plus an optional wrapped cause.
package errcode

import (
	"fmt"
	"sync"

	pkgerrors "github.com/pkg/errors"
)

// Code is a public error kind. Values are stable and may be compared with ==.
type Code int

const (
	_ Code = iota
	QueryParse
	InvalidPlaceholder
	UnsetPlaceholder
	RegexpInvalid
	RegexpCharset
	RegexpSubexp
	RegexpSubmatch
	RegexpEngine
	SkipAlreadySet
	LimitAlreadySet
	OrderbyMaxLimit
	Assertion
)

var messages = map[Code]string{
	QueryParse:          "failed to parse query",
	InvalidPlaceholder:  "unknown placeholder name or index",
	UnsetPlaceholder:    "query consumed a placeholder that was never bound",
	RegexpInvalid:       "invalid regular expression",
	RegexpCharset:       "regular expression uses an unsupported character set",
	RegexpSubexp:        "regular expression subexpression error",
	RegexpSubmatch:      "regular expression submatch error",
	RegexpEngine:        "regular expression engine error",
	SkipAlreadySet:      "skip clause already set",
	LimitAlreadySet:     "limit clause already set",
	OrderbyMaxLimit:     "order-by exceeds the maximum of 64 fields",
	Assertion:           "internal invariant violated",
}

var (
	initOnce sync.Once
	table    map[Code]string
)

// Init performs the one-shot registration of the code→message table. It is
// idempotent and safe under concurrent callers; repeated calls are no-ops.
func Init() {
	initOnce.Do(func() {
		table = make(map[Code]string, len(messages))
		for c, m := range messages {
			table[c] = m
		}
	})
}

func (c Code) String() string {
	if table != nil {
		if m, ok := table[c]; ok {
			return m
		}
	}
	if m, ok := messages[c]; ok {
		return m
	}
	return fmt.Sprintf("errcode(%d)", int(c))
}

// Error is the concrete error type surfaced by the engine. It always carries
// a Code; Cause is non-nil when the error wraps a lower-level failure (a
// regex compile error, an allocation failure propagated verbatim, etc).
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func New(code Code, format string, args ...any) *Error {
	msg := code.String()
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Code: code, Message: msg}
}

// Wrap attaches cause to a new *Error, capturing a stack trace at the wrap
// site via pkg/errors so the cause chain carries call-site context across
// package boundaries (spec.md's ambient error-handling stack, grounded on
// the teacher's internal/tracer package).
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	if cause != nil {
		e.Cause = pkgerrors.WithStack(cause)
	}
	return e
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// CodeOf extracts the Code carried by err, unwrapping *Error chains, or
// Assertion if err does not carry one (used for metrics labeling).
func CodeOf(err error) Code {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return Assertion
}

// Is reports whether err carries the given code, unwrapping *Error chains.
func Is(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Code == code {
				return true
			}
			err = e.Cause
			continue
		}
		return false
	}
	return false
}

func init() {
	Init()
}
