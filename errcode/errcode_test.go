package errcode

import (
	"errors"
	"strings"
	"testing"
)

func TestNewUsesCodeMessageWhenFormatEmpty(t *testing.T) {
	e := New(RegexpInvalid, "")
	if e.Message != RegexpInvalid.String() {
		t.Fatalf("expected default message %q, got %q", RegexpInvalid.String(), e.Message)
	}
}

func TestWrapCapturesCauseAndStack(t *testing.T) {
	cause := errors.New("boom")
	e := Wrap(QueryParse, cause, "failed to parse %q", "x")

	if e.Code != QueryParse {
		t.Fatalf("expected code %v, got %v", QueryParse, e.Code)
	}
	if !strings.Contains(e.Error(), "boom") {
		t.Fatalf("expected wrapped cause in Error(), got %q", e.Error())
	}
	if e.Unwrap() == nil {
		t.Fatal("expected non-nil Unwrap after Wrap with a cause")
	}
	// pkg/errors.WithStack wraps cause, so the string still contains it.
	if !strings.Contains(e.Cause.Error(), "boom") {
		t.Fatalf("expected stack-wrapped cause to preserve message, got %q", e.Cause.Error())
	}
}

func TestIsWalksErrorChain(t *testing.T) {
	inner := New(RegexpInvalid, "bad pattern")
	outer := &Error{Code: Assertion, Message: "wrapping", Cause: inner}

	if !Is(outer, RegexpInvalid) {
		t.Fatal("expected Is to find RegexpInvalid through the chain")
	}
	if Is(outer, SkipAlreadySet) {
		t.Fatal("expected Is to report false for an absent code")
	}
}

func TestCodeOfFallsBackToAssertion(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != Assertion {
		t.Fatalf("expected Assertion for a plain error, got %v", got)
	}
	if got := CodeOf(New(LimitAlreadySet, "")); got != LimitAlreadySet {
		t.Fatalf("expected LimitAlreadySet, got %v", got)
	}
}

func TestCodeOfReturnsCodeOfWrapResult(t *testing.T) {
	wrapped := Wrap(RegexpEngine, errors.New("engine exploded"), "")
	if got := CodeOf(wrapped); got != RegexpEngine {
		t.Fatalf("expected RegexpEngine, got %v", got)
	}
}
