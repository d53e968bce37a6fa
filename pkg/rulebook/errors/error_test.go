package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"mercator-hq/rulebook/pkg/rulebook/ast"
)

func TestError_Error(t *testing.T) {
	err := &Error{
		Type:       ErrorTypeStructural,
		Message:    "Rule 2 is missing a bold title",
		Location:   ast.Location{File: "rules.md", Line: 8, Column: 4},
		Context:    "-> 8 | 2. Keep ingestion separate\n",
		Suggestion: "Start the item with a bold title",
	}

	got := err.Error()
	for _, want := range []string{
		"[structural] Rule 2 is missing a bold title",
		"--> rules.md:8:4",
		"-> 8 | 2. Keep ingestion separate",
		"= suggestion: Start the item with a bold title",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() missing %q in:\n%s", want, got)
		}
	}

	bare := (&Error{Type: ErrorTypeLookup, Message: "Rule \"x\" not found"}).Error()
	if bare != "[lookup] Rule \"x\" not found" {
		t.Errorf("Error() = %q", bare)
	}
}

func TestError_Is(t *testing.T) {
	tests := []struct {
		errType       ErrorType
		wantMalformed bool
		wantUnknown   bool
	}{
		{ErrorTypeSyntax, true, false},
		{ErrorTypeStructural, true, false},
		{ErrorTypeLookup, false, true},
		{ErrorTypeIO, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			err := &Error{Type: tt.errType, Message: "x"}
			if got := stderrors.Is(err, ErrMalformedPolicyDocument); got != tt.wantMalformed {
				t.Errorf("Is(ErrMalformedPolicyDocument) = %v, want %v", got, tt.wantMalformed)
			}
			if got := stderrors.Is(err, ErrUnknownRuleID); got != tt.wantUnknown {
				t.Errorf("Is(ErrUnknownRuleID) = %v, want %v", got, tt.wantUnknown)
			}

			wrapped := fmt.Errorf("loading: %w", err)
			if got := stderrors.Is(wrapped, ErrMalformedPolicyDocument); got != tt.wantMalformed {
				t.Errorf("wrapped Is(ErrMalformedPolicyDocument) = %v, want %v", got, tt.wantMalformed)
			}
		})
	}
}

func TestNewUnknownRuleError(t *testing.T) {
	err := NewUnknownRuleError("api-resiliance", []string{"python-version", "api-resilience"})
	if !stderrors.Is(err, ErrUnknownRuleID) {
		t.Error("unknown rule error does not match ErrUnknownRuleID")
	}
	if err.RuleID != "api-resiliance" {
		t.Errorf("RuleID = %q", err.RuleID)
	}
	if err.Suggestion != "Did you mean 'api-resilience'?" {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
}

func TestErrorList(t *testing.T) {
	el := NewErrorList()
	if el.HasErrors() || el.ToError() != nil {
		t.Fatal("new list reports errors")
	}

	el.AddError(ErrorTypeSyntax, "bad yaml", ast.Location{Line: 2})
	if el.Error() != el.Errors[0].Error() {
		t.Errorf("single-error list renders differently from its error:\n%s", el.Error())
	}

	el.AddErrorWithSuggestion(ErrorTypeStructural, "no heading", ast.Location{}, "add one")
	el.Add(&Error{Type: ErrorTypeIO, Message: "too large"})

	if el.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", el.Count())
	}
	if !strings.HasPrefix(el.Error(), "Found 3 error(s):") {
		t.Errorf("Error() = %q", el.Error())
	}
	if got := len(el.ByType(ErrorTypeStructural)); got != 1 {
		t.Errorf("ByType(structural) = %d errors, want 1", got)
	}
	if el.HasErrorType(ErrorTypeLookup) {
		t.Error("HasErrorType(lookup) = true")
	}

	err := el.ToError()
	if !stderrors.Is(err, ErrMalformedPolicyDocument) {
		t.Error("list with a syntax error does not match ErrMalformedPolicyDocument")
	}
	var target *Error
	if !stderrors.As(err, &target) || target.Message != "bad yaml" {
		t.Errorf("errors.As found %v, want the first error", target)
	}
}

func TestErrorList_IONotMalformed(t *testing.T) {
	el := NewErrorList()
	el.Add(&Error{Type: ErrorTypeIO, Message: "unreadable"})
	if stderrors.Is(el, ErrMalformedPolicyDocument) {
		t.Error("io-only list matches ErrMalformedPolicyDocument")
	}
}
