package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Python Version", "python-version"},
		{"Modular Architecture", "modular-architecture"},
		{"API Resilience", "api-resilience"},
		{"Python 3.11+ & PEP 8", "python-3-11-pep-8"},
		{"  Don't  Repeat Yourself ", "dont-repeat-yourself"},
		{"snake_case naming", "snake-case-naming"},
		{"!!!", ""},
		{"Données", "données"},
		{"Résumé Format", "résumé-format"},
		{"日本語", "日本語"},
		{"Ошибки API", "ошибки-api"},
		{"Règles", "règles"},
	}
	for _, tt := range tests {
		if got := Slug(tt.title); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestInferScope(t *testing.T) {
	tests := []struct {
		title       string
		description string
		want        Scope
	}{
		{"Python Version", "Target Python 3.11+ and follow PEP 8.", ScopeLanguage},
		{"Modular Architecture", "Keep ingestion, LLM and UI in separate modules.", ScopeFileOrganization},
		{"API Resilience", "Use exponential backoff.", ScopeExternalCall},
		{"Resilience", "Wrap calls to other services with retries.", ScopeExternalCall},
		{"Commit Messages", "Write the subject in the imperative mood.", ScopeGeneral},
	}
	for _, tt := range tests {
		if got := InferScope(tt.title, tt.description); got != tt.want {
			t.Errorf("InferScope(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		input  string
		want   Scope
		wantOK bool
	}{
		{"language", ScopeLanguage, true},
		{"External_Call", ScopeExternalCall, true},
		{" file organization ", ScopeFileOrganization, true},
		{"database", Scope("database"), false},
	}
	for _, tt := range tests {
		got, ok := ParseScope(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseScope(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRule_Clone(t *testing.T) {
	original := Rule{ID: "a", Details: []string{"one", "two"}}
	clone := original.Clone()
	clone.Details[0] = "changed"

	if original.Details[0] != "one" {
		t.Error("Clone() shares Details with the original")
	}
	if diff := cmp.Diff(Rule{ID: "a"}, Rule{ID: "a"}.Clone()); diff != "" {
		t.Errorf("Clone() of a rule without details changed it:\n%s", diff)
	}
}

func TestRule_Mentions(t *testing.T) {
	rule := Rule{Title: "API Resilience", Description: "Use exponential backoff."}
	if !rule.Mentions("Exponential Backoff") {
		t.Error("Mentions() is case-sensitive")
	}
	if rule.Mentions("PEP 8") {
		t.Error("Mentions() matched absent text")
	}
}

func TestMetadata_Clone(t *testing.T) {
	original := Metadata{
		Globs:  []string{"*.py"},
		Scopes: map[string]Scope{"a": ScopeGeneral},
		Extra:  map[string]any{"owner": "team"},
	}
	clone := original.Clone()
	clone.Globs[0] = "*.go"
	clone.Scopes["a"] = ScopeLanguage
	clone.Extra["owner"] = "other"

	if original.Globs[0] != "*.py" || original.Scopes["a"] != ScopeGeneral || original.Extra["owner"] != "team" {
		t.Errorf("Clone() shares state with the original: %+v", original)
	}
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		loc  Location
		want string
	}{
		{Location{File: "rules.md", Line: 3, Column: 4}, "rules.md:3:4"},
		{Location{Line: 3, Column: 4}, "<input>:3:4"},
		{Location{}, "<unknown>"},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestDocument_GetRule(t *testing.T) {
	doc := &Document{Rules: []Rule{{ID: "a"}, {ID: "b"}}}
	if doc.RuleCount() != 2 {
		t.Errorf("RuleCount() = %d, want 2", doc.RuleCount())
	}
	if r, ok := doc.GetRule("b"); !ok || r.ID != "b" {
		t.Errorf("GetRule(b) = (%v, %v)", r, ok)
	}
	if _, ok := doc.GetRule("c"); ok {
		t.Error("GetRule(c) found a rule")
	}
}
