package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"mercator-hq/rulebook/pkg/rulebook/ast"
)

// Sentinel errors matched through errors.Is.
var (
	// ErrMalformedPolicyDocument reports that a document does not conform to
	// the expected heading/list structure or a rule lacks a required field.
	ErrMalformedPolicyDocument = stderrors.New("malformed policy document")

	// ErrUnknownRuleID reports a lookup for a rule id not present in a registry.
	ErrUnknownRuleID = stderrors.New("unknown rule id")
)

// ErrorType categorizes the type of error encountered.
type ErrorType string

const (
	ErrorTypeSyntax     ErrorType = "syntax"     // Metadata block cannot be read
	ErrorTypeStructural ErrorType = "structural" // Heading/list structure or required field missing
	ErrorTypeLookup     ErrorType = "lookup"     // Unknown rule id
	ErrorTypeIO         ErrorType = "io"         // Input too large or unreadable
)

// Error represents a rich error with location, context, and suggestions.
type Error struct {
	Type       ErrorType    // Category of error
	Message    string       // Error message
	RuleID     string       // Rule involved, if any
	Location   ast.Location // Source location (file, line, column)
	Context    string       // Surrounding lines of the source
	Suggestion string       // Suggested fix (optional)
}

// Error implements the error interface.
// It returns a formatted error message with location and context.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s", e.Type, e.Message))

	if e.Location.IsValid() {
		sb.WriteString(fmt.Sprintf("\n  --> %s", e.Location.String()))
	}

	if e.Context != "" {
		sb.WriteString("\n  |\n")
		sb.WriteString(strings.TrimRight(e.Context, "\n"))
		sb.WriteString("\n  |")
	}

	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\n  = suggestion: %s", e.Suggestion))
	}

	return sb.String()
}

// Is reports whether the error belongs to one of the sentinel kinds.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrMalformedPolicyDocument:
		return e.Type == ErrorTypeSyntax || e.Type == ErrorTypeStructural
	case ErrUnknownRuleID:
		return e.Type == ErrorTypeLookup
	}
	return false
}

// NewUnknownRuleError builds the lookup error for a missing rule id.
// knownIDs is used to suggest the closest match.
func NewUnknownRuleError(id string, knownIDs []string) *Error {
	return &Error{
		Type:       ErrorTypeLookup,
		Message:    fmt.Sprintf("Rule %q not found", id),
		RuleID:     id,
		Suggestion: SuggestRuleID(id, knownIDs),
	}
}

// ErrorList represents a collection of errors encountered during parsing.
// It allows accumulating multiple errors instead of failing on the first error.
type ErrorList struct {
	Errors []*Error
}

// NewErrorList creates a new empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{
		Errors: make([]*Error, 0),
	}
}

// Add appends an error to the list.
func (el *ErrorList) Add(err *Error) {
	el.Errors = append(el.Errors, err)
}

// AddError creates and adds a new error with the given parameters.
func (el *ErrorList) AddError(errType ErrorType, message string, location ast.Location) {
	el.Add(&Error{
		Type:     errType,
		Message:  message,
		Location: location,
	})
}

// AddErrorWithSuggestion creates and adds a new error with a suggestion.
func (el *ErrorList) AddErrorWithSuggestion(errType ErrorType, message string, location ast.Location, suggestion string) {
	el.Add(&Error{
		Type:       errType,
		Message:    message,
		Location:   location,
		Suggestion: suggestion,
	})
}

// HasErrors returns true if the error list contains any errors.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Count returns the number of errors in the list.
func (el *ErrorList) Count() int {
	return len(el.Errors)
}

// Error implements the error interface.
// It returns all errors formatted as a single string.
func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}
	if el.Count() == 1 {
		return el.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d error(s):\n", el.Count()))

	for i, err := range el.Errors {
		sb.WriteString(fmt.Sprintf("\nError %d:\n", i+1))
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}

	return sb.String()
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (el *ErrorList) Unwrap() []error {
	errs := make([]error, len(el.Errors))
	for i, err := range el.Errors {
		errs[i] = err
	}
	return errs
}

// ToError returns nil if the error list is empty, otherwise returns the error list itself.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}

// ByType returns all errors of the given type.
func (el *ErrorList) ByType(errType ErrorType) []*Error {
	var result []*Error
	for _, err := range el.Errors {
		if err.Type == errType {
			result = append(result, err)
		}
	}
	return result
}

// HasErrorType returns true if the error list contains at least one error of the given type.
func (el *ErrorList) HasErrorType(errType ErrorType) bool {
	for _, err := range el.Errors {
		if err.Type == errType {
			return true
		}
	}
	return false
}
