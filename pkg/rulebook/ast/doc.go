// Package ast defines the parsed form of a rules document.
//
// A rules document is a Markdown file consumed by a development workspace to
// constrain how code is written in it. It has an optional metadata block, a
// heading, and a numbered list of mandates:
//
//	---
//	description: Code style and architecture mandates
//	---
//	# Project Rules
//
//	1. **Python Version**: Use Python 3.11+ and follow PEP 8.
//	   - Type hints on all public functions.
//
// # Core Types
//
// Document: root node holding the title, metadata and rules in document order
//
// Rule: one mandated convention with id, title, description and scope
//
// Metadata: the YAML block between the --- delimiters
//
// Location: source location (file, line, column)
//
// All nodes are plain values. Once a Document has been built nothing in this
// module mutates it.
package ast
