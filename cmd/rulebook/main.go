// Rulebook parses Markdown rules documents, such as .cursorrules files, into
// registries of named rules and serves them to tooling.
//
// A rules document is a heading followed by a numbered list. Each item opens
// with a bold title, which becomes the rule id:
//
//	# Project Rules
//
//	1. **Python Version**: Target Python 3.11+ and follow PEP 8 styling.
//	2. **API Resilience**: Wrap every external API call in exponential backoff.
//
// Usage:
//
//	# Check documents for structural errors
//	rulebook lint .cursor/rules
//
//	# List the rules of every document
//	rulebook list --format csv
//
//	# Print one rule
//	rulebook show api-resilience
//
//	# Reload on change and serve metrics
//	rulebook watch --config rulebook.yaml
//
//	# Show version information
//	rulebook version
package main

func main() {
	Execute()
}
