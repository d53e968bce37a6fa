package ast

// Metadata is the YAML block delimited by --- lines at the top of a rules
// document.
type Metadata struct {
	Description string           // Human-readable purpose of the document
	Name        string           // Optional document name
	Globs       []string         // File patterns the rules apply to
	AlwaysApply bool             // Whether the rules apply regardless of Globs
	Scopes      map[string]Scope // Explicit scope per rule id
	Extra       map[string]any   // Keys not recognised above
	Present     bool             // Whether the document had a metadata block
	Location    Location         // Location of the opening delimiter
}

// Clone returns a deep copy of the metadata.
func (m Metadata) Clone() Metadata {
	if m.Globs != nil {
		globs := make([]string, len(m.Globs))
		copy(globs, m.Globs)
		m.Globs = globs
	}
	if m.Scopes != nil {
		scopes := make(map[string]Scope, len(m.Scopes))
		for k, v := range m.Scopes {
			scopes[k] = v
		}
		m.Scopes = scopes
	}
	if m.Extra != nil {
		extra := make(map[string]any, len(m.Extra))
		for k, v := range m.Extra {
			extra[k] = v
		}
		m.Extra = extra
	}
	return m
}

// Document is the root node for a parsed rules document.
type Document struct {
	Title      string   // Text of the first heading
	Metadata   Metadata // Metadata block (zero value when absent)
	Rules      []Rule   // Rules in document order
	SourceFile string   // Path the document was read from (may be empty)
	Checksum   string   // Hex sha256 of the source bytes
	Location   Location // Location of the heading
}

// RuleCount returns the number of rules in the document.
func (d *Document) RuleCount() int {
	return len(d.Rules)
}

// GetRule returns the rule with the given id and whether it exists.
func (d *Document) GetRule(id string) (Rule, bool) {
	for _, rule := range d.Rules {
		if rule.ID == id {
			return rule, true
		}
	}
	return Rule{}, false
}
