package ast

import "strings"

// Scope is the kind of artifact a rule constrains.
type Scope string

const (
	// ScopeLanguage covers target language, version and styling conventions.
	ScopeLanguage Scope = "language"
	// ScopeFileOrganization covers module and file separation conventions.
	ScopeFileOrganization Scope = "file-organization"
	// ScopeExternalCall covers the behavior of calls to external services.
	ScopeExternalCall Scope = "external-call"
	// ScopeGeneral is used when no narrower scope applies.
	ScopeGeneral Scope = "general"
)

// ValidScopes returns all recognised scopes.
func ValidScopes() []Scope {
	return []Scope{ScopeLanguage, ScopeFileOrganization, ScopeExternalCall, ScopeGeneral}
}

// IsValid returns true if the scope is one of the recognised scopes.
func (s Scope) IsValid() bool {
	for _, v := range ValidScopes() {
		if s == v {
			return true
		}
	}
	return false
}

// ParseScope converts a string into a Scope. Matching ignores case and
// accepts underscores or spaces in place of hyphens.
func ParseScope(s string) (Scope, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("_", "-", " ", "-").Replace(normalized)
	scope := Scope(normalized)
	return scope, scope.IsValid()
}

// scopeKeywords lists, per scope, words that mark a rule as belonging to it.
// Scopes are checked in order; the first with a hit wins.
var scopeKeywords = []struct {
	scope    Scope
	keywords []string
}{
	{ScopeExternalCall, []string{"api", "backoff", "retry", "retries", "external", "http", "request", "timeout", "resilien"}},
	{ScopeFileOrganization, []string{"module", "modular", "architecture", "separat", "directory", "folder", "package", "file", "layer"}},
	{ScopeLanguage, []string{"python", "golang", "typescript", "javascript", "version", "pep", "style", "lint", "format", "naming", "type hint"}},
}

// InferScope classifies a rule from its title and description.
// The title is checked first so that it dominates incidental words in the
// description.
func InferScope(title, description string) Scope {
	for _, text := range []string{title, description} {
		lower := strings.ToLower(text)
		for _, entry := range scopeKeywords {
			for _, kw := range entry.keywords {
				if strings.Contains(lower, kw) {
					return entry.scope
				}
			}
		}
	}
	return ScopeGeneral
}
