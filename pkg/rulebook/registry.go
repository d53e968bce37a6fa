package rulebook

import (
	"iter"

	"mercator-hq/rulebook/pkg/rulebook/ast"
	rbErrors "mercator-hq/rulebook/pkg/rulebook/errors"
	"mercator-hq/rulebook/pkg/rulebook/parser"
)

// Registry is the immutable set of rules parsed from one document.
type Registry struct {
	doc   *ast.Document
	index map[string]int // rule id -> position in doc.Rules
}

// Load parses a rules document and builds a registry from it.
// It fails with an error matching rbErrors.ErrMalformedPolicyDocument when the
// text does not follow the heading/list structure or a rule lacks its title
// or description. Text larger than the parser's size limit (1MB by default)
// is reported the same way.
func Load(source []byte) (*Registry, error) {
	return LoadWithParser(parser.NewParser(), source, "")
}

// LoadFile reads and parses the rules document at path.
func LoadFile(path string) (*Registry, error) {
	doc, err := parser.NewParser().Parse(path)
	if err != nil {
		return nil, err
	}
	return New(doc)
}

// LoadWithParser parses source with a configured parser. sourcePath is used in
// error locations and may be empty.
func LoadWithParser(p *parser.Parser, source []byte, sourcePath string) (*Registry, error) {
	doc, err := p.ParseBytes(source, sourcePath)
	if err != nil {
		return nil, err
	}
	return New(doc)
}

// New builds a registry from an already parsed document. The registry keeps
// its own copy, so later changes to doc are not observed.
func New(doc *ast.Document) (*Registry, error) {
	if doc == nil {
		return nil, &rbErrors.Error{
			Type:    rbErrors.ErrorTypeStructural,
			Message: "Document cannot be nil",
		}
	}

	owned := &ast.Document{
		Title:      doc.Title,
		Metadata:   doc.Metadata.Clone(),
		Rules:      make([]ast.Rule, len(doc.Rules)),
		SourceFile: doc.SourceFile,
		Checksum:   doc.Checksum,
		Location:   doc.Location,
	}

	index := make(map[string]int, len(doc.Rules))
	errs := rbErrors.NewErrorList()
	for i, rule := range doc.Rules {
		if rule.ID == "" || rule.Title == "" || rule.Description == "" {
			errs.Add(&rbErrors.Error{
				Type:     rbErrors.ErrorTypeStructural,
				Message:  "Rule is missing its id, title or description",
				RuleID:   rule.ID,
				Location: rule.Location,
			})
			continue
		}
		if _, dup := index[rule.ID]; dup {
			errs.Add(&rbErrors.Error{
				Type:     rbErrors.ErrorTypeStructural,
				Message:  "Duplicate rule id " + rule.ID,
				RuleID:   rule.ID,
				Location: rule.Location,
			})
			continue
		}
		index[rule.ID] = i
		owned.Rules[i] = rule.Clone()
	}
	if err := errs.ToError(); err != nil {
		return nil, err
	}

	return &Registry{doc: owned, index: index}, nil
}

// Get returns the rule with the given id. It fails with an error matching
// rbErrors.ErrUnknownRuleID when no such rule exists.
func (r *Registry) Get(id string) (ast.Rule, error) {
	i, ok := r.index[id]
	if !ok {
		return ast.Rule{}, rbErrors.NewUnknownRuleError(id, r.IDs())
	}
	return r.doc.Rules[i].Clone(), nil
}

// Has reports whether a rule with the given id exists.
func (r *Registry) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// All returns the rules in document order. Each call returns a fresh copy
// with identical contents.
func (r *Registry) All() []ast.Rule {
	rules := make([]ast.Rule, len(r.doc.Rules))
	for i, rule := range r.doc.Rules {
		rules[i] = rule.Clone()
	}
	return rules
}

// Rules iterates the rules in document order, yielding the zero-based index
// and a copy of each rule. The sequence may be ranged over any number of times.
func (r *Registry) Rules() iter.Seq2[int, ast.Rule] {
	return func(yield func(int, ast.Rule) bool) {
		for i, rule := range r.doc.Rules {
			if !yield(i, rule.Clone()) {
				return
			}
		}
	}
}

// ByScope returns the rules constraining the given kind of artifact, in
// document order.
func (r *Registry) ByScope(scope ast.Scope) []ast.Rule {
	var rules []ast.Rule
	for _, rule := range r.doc.Rules {
		if rule.Scope == scope {
			rules = append(rules, rule.Clone())
		}
	}
	return rules
}

// IDs returns the rule ids in document order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.doc.Rules))
	for i, rule := range r.doc.Rules {
		ids[i] = rule.ID
	}
	return ids
}

// Len returns the number of rules.
func (r *Registry) Len() int {
	return len(r.doc.Rules)
}

// Title returns the document heading.
func (r *Registry) Title() string {
	return r.doc.Title
}

// Metadata returns a copy of the document's metadata block.
func (r *Registry) Metadata() ast.Metadata {
	return r.doc.Metadata.Clone()
}

// SourceFile returns the path the document was read from, if any.
func (r *Registry) SourceFile() string {
	return r.doc.SourceFile
}

// Checksum returns the hex sha256 of the source document.
func (r *Registry) Checksum() string {
	return r.doc.Checksum
}

// Version returns a short identifier of the source content. Two registries
// loaded from the same bytes share a version.
func (r *Registry) Version() string {
	if len(r.doc.Checksum) < 16 {
		return r.doc.Checksum
	}
	return r.doc.Checksum[:16]
}
