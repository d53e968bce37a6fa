package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"unicode/utf8"

	"mercator-hq/rulebook/pkg/rulebook/ast"
	rbErrors "mercator-hq/rulebook/pkg/rulebook/errors"
)

// DefaultMaxFileSize is the largest document accepted by default (1 MiB).
const DefaultMaxFileSize int64 = 1 << 20

// Parser parses rules documents into ast.Document values.
// A Parser is safe for concurrent use once configured.
type Parser struct {
	maxFileSize int64 // Maximum document size in bytes
	strictMode  bool  // Require the metadata block and its description
}

// NewParser creates a new parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: DefaultMaxFileSize,
		strictMode:  false,
	}
}

// WithMaxFileSize sets the maximum document size limit.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	if size > 0 {
		p.maxFileSize = size
	}
	return p
}

// WithStrictMode enables strict validation of the metadata block.
func (p *Parser) WithStrictMode(strict bool) *Parser {
	p.strictMode = strict
	return p
}

// MaxFileSize returns the configured size limit.
func (p *Parser) MaxFileSize() int64 {
	return p.maxFileSize
}

// StrictMode reports whether strict validation is enabled.
func (p *Parser) StrictMode() bool {
	return p.strictMode
}

// Parse reads the document at path and parses it.
func (p *Parser) Parse(path string) (*ast.Document, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, &rbErrors.Error{
			Type:     rbErrors.ErrorTypeIO,
			Message:  fmt.Sprintf("Failed to access file: %v", err),
			Location: ast.Location{File: path},
		}
	}

	if fileInfo.Size() > p.maxFileSize {
		return nil, &rbErrors.Error{
			Type:     rbErrors.ErrorTypeIO,
			Message:  fmt.Sprintf("File size %d exceeds maximum %d bytes", fileInfo.Size(), p.maxFileSize),
			Location: ast.Location{File: path},
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &rbErrors.Error{
			Type:     rbErrors.ErrorTypeIO,
			Message:  fmt.Sprintf("Failed to read file: %v", err),
			Location: ast.Location{File: path},
		}
	}

	return p.ParseBytes(data, path)
}

// ParseBytes parses a document held in memory. sourcePath is used only for
// locations in errors and may be empty. Every failure, including text over
// the size limit, matches rbErrors.ErrMalformedPolicyDocument.
func (p *Parser) ParseBytes(data []byte, sourcePath string) (*ast.Document, error) {
	if int64(len(data)) > p.maxFileSize {
		return nil, &rbErrors.Error{
			Type:       rbErrors.ErrorTypeStructural,
			Message:    fmt.Sprintf("Document size %d exceeds maximum %d bytes", len(data), p.maxFileSize),
			Location:   ast.Location{File: sourcePath},
			Suggestion: "Split the rules into several documents",
		}
	}

	if !utf8.Valid(data) {
		return nil, &rbErrors.Error{
			Type:       rbErrors.ErrorTypeSyntax,
			Message:    "Document is not valid UTF-8",
			Location:   ast.Location{File: sourcePath, Line: 1, Column: 1},
			Suggestion: "Save the document with UTF-8 encoding",
		}
	}

	b := newBuilder(sourcePath, data, p.strictMode)
	doc := b.build()

	if b.errs.HasErrors() {
		rbErrors.AddContext(b.errs, data)
		return nil, b.errs
	}

	sum := sha256.Sum256(data)
	doc.Checksum = hex.EncodeToString(sum[:])
	return doc, nil
}
