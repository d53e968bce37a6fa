// Package parser turns rules documents into ast.Document values.
//
// A document is Markdown with an optional YAML metadata block:
//
//	---
//	description: Code style and architecture mandates for this workspace
//	globs: ["**/*.py"]
//	alwaysApply: true
//	---
//	# Project Rules
//
//	1. **Python Version**: Use Python 3.11+ and follow PEP 8.
//	   - Use type hints for public functions.
//	2. **Modular Architecture**: Keep ingestion, LLM and UI code in separate modules.
//
// The metadata block is decoded with gopkg.in/yaml.v3 and the body is parsed
// with goldmark. Every ordered list that sits directly under the document is
// a list of rules. Each item must open with a bold title followed by a colon,
// written "**Title**:" or "**Title:**"; the text after the title and the
// nested bullets form the rule's description. The title comes from the first
// heading written with '#'; underlined headings do not count.
//
// # Usage
//
//	p := parser.NewParser()
//	doc, err := p.Parse(".cursorrules")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, rule := range doc.Rules {
//	    fmt.Println(rule.ID, rule.Title)
//	}
//
// # Errors
//
// Structural problems are collected rather than reported one at a time: a
// document with two untitled items yields an errors.ErrorList with two
// entries, each carrying the item's line and the surrounding source lines.
// Every such error matches errors.ErrMalformedPolicyDocument.
//
// # Strict Mode
//
// WithStrictMode(true) additionally requires the metadata block and a
// non-empty description key, and rejects scopes entries naming rules that do
// not exist.
package parser
