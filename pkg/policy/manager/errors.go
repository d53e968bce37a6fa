package manager

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDocument is returned when a document name is not in the catalog.
var ErrUnknownDocument = errors.New("unknown rules document")

// LoadError represents an error that occurred while reading a rules file.
// This includes file system errors like "file not found", "permission denied",
// or errors related to file size limits or encoding validation.
type LoadError struct {
	// FilePath is the path to the file that failed to load
	FilePath string

	// Message describes the error
	Message string

	// Cause is the underlying error that caused this load error
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load rules file %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load rules file %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ParseError wraps a document that was read but did not parse.
// The cause is the parser's error, so errors.Is with
// ErrMalformedPolicyDocument matches through it.
type ParseError struct {
	// FilePath is the path to the file that failed to parse
	FilePath string

	// Cause is the underlying parser error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %q: %v", e.FilePath, e.Cause)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// CatalogError represents an error while installing documents in the catalog,
// such as two files declaring the same document name.
type CatalogError struct {
	// Document is the name of the document involved in the error
	Document string

	// Operation is the operation that failed (e.g., "replace", "lookup")
	Operation string

	// Message describes the catalog error
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	if e.Document != "" {
		return fmt.Sprintf("catalog error for document %q during %s: %s", e.Document, e.Operation, e.Message)
	}
	return fmt.Sprintf("catalog error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *CatalogError) Unwrap() error {
	return e.Cause
}

// ErrorList collects the per-file errors of a directory load.
type ErrorList struct {
	Errors []error
}

// Error implements the error interface.
func (e *ErrorList) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors occurred:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %v\n", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors so errors.Is and errors.As see each one.
func (e *ErrorList) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the list.
func (e *ErrorList) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if the list contains any errors.
func (e *ErrorList) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns nil if there are no errors, the single error if there is one,
// or the ErrorList itself if there are multiple errors.
func (e *ErrorList) ToError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	if len(e.Errors) == 1 {
		return e.Errors[0]
	}
	return e
}
