package manager

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"

	"mercator-hq/rulebook/pkg/rulebook"
	"mercator-hq/rulebook/pkg/rulebook/ast"
	rbErrors "mercator-hq/rulebook/pkg/rulebook/errors"
)

// Catalog holds the active registries keyed by document name.
// Readers share a read lock; Replace swaps the whole map at once.
type Catalog struct {
	mu        sync.RWMutex
	documents map[string]*rulebook.Registry
	names     []string
	version   string
	loadTime  time.Time
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	c := &Catalog{
		documents: make(map[string]*rulebook.Registry),
	}
	c.updateVersion()
	return c
}

// Replace atomically replaces every document in the catalog.
// Nothing changes if the set contains a nil registry or two documents with
// the same name.
func (c *Catalog) Replace(registries []*rulebook.Registry) error {
	if registries == nil {
		return &CatalogError{
			Operation: "replace",
			Message:   "registries cannot be nil",
		}
	}

	documents := make(map[string]*rulebook.Registry, len(registries))
	for _, reg := range registries {
		if reg == nil {
			return &CatalogError{
				Operation: "replace",
				Message:   "registry cannot be nil",
			}
		}

		name := DocumentName(reg)
		if name == "" {
			return &CatalogError{
				Operation: "replace",
				Message:   fmt.Sprintf("cannot derive a document name for %q", reg.SourceFile()),
			}
		}
		if prev, ok := documents[name]; ok {
			return &CatalogError{
				Document:  name,
				Operation: "replace",
				Message:   fmt.Sprintf("declared by both %q and %q", prev.SourceFile(), reg.SourceFile()),
			}
		}
		documents[name] = reg
	}

	names := make([]string, 0, len(documents))
	for name := range documents {
		names = append(names, name)
	}
	sort.Strings(names)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.documents = documents
	c.names = names
	c.loadTime = time.Now()
	c.updateVersion()

	return nil
}

// Get returns the registry for a document name.
func (c *Catalog) Get(name string) (*rulebook.Registry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	reg, ok := c.documents[name]
	return reg, ok
}

// Names returns the document names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]string(nil), c.names...)
}

// All returns every registry, sorted by document name.
func (c *Catalog) All() []*rulebook.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	registries := make([]*rulebook.Registry, 0, len(c.names))
	for _, name := range c.names {
		registries = append(registries, c.documents[name])
	}
	return registries
}

// Count returns the number of documents in the catalog.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.documents)
}

// FindRule returns the rule with the given id from the first document, in
// name order, that declares it.
func (c *Catalog) FindRule(id string) (string, ast.Rule, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var known []string
	for _, name := range c.names {
		reg := c.documents[name]
		if rule, err := reg.Get(id); err == nil {
			return name, rule, nil
		}
		known = append(known, reg.IDs()...)
	}

	return "", ast.Rule{}, rbErrors.NewUnknownRuleError(id, known)
}

// Version returns a hash over the document names and content checksums.
func (c *Catalog) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.version
}

// LoadTime returns when the catalog was last replaced.
func (c *Catalog) LoadTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.loadTime
}

// RuleCounts returns the number of rules per document name.
func (c *Catalog) RuleCounts() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counts := make(map[string]int, len(c.documents))
	for name, reg := range c.documents {
		counts[name] = reg.Len()
	}
	return counts
}

// Info returns a summary of every document, sorted by name.
func (c *Catalog) Info() []DocumentInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]DocumentInfo, 0, len(c.names))
	for _, name := range c.names {
		reg := c.documents[name]
		md := reg.Metadata()
		infos = append(infos, DocumentInfo{
			Name:        name,
			Title:       reg.Title(),
			Description: md.Description,
			FilePath:    reg.SourceFile(),
			Version:     reg.Version(),
			RuleCount:   reg.Len(),
			Globs:       md.Globs,
		})
	}
	return infos
}

// Stats returns statistics about the documents in the catalog.
func (c *Catalog) Stats() CatalogStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CatalogStats{
		DocumentCount: len(c.documents),
		LoadTime:      c.loadTime,
		Version:       c.version,
		RulesByScope:  make(map[ast.Scope]int),
	}

	for _, reg := range c.documents {
		stats.TotalRules += reg.Len()
		for _, rule := range reg.Rules() {
			stats.RulesByScope[rule.Scope]++
		}
	}

	return stats
}

// updateVersion must be called with the write lock held.
func (c *Catalog) updateVersion() {
	h := sha256.New()
	for _, name := range c.names {
		reg := c.documents[name]
		h.Write([]byte(name))
		h.Write([]byte(reg.Checksum()))
	}
	c.version = fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// CatalogStats contains statistics about the catalog.
type CatalogStats struct {
	DocumentCount int
	TotalRules    int
	RulesByScope  map[ast.Scope]int
	LoadTime      time.Time
	Version       string
}
