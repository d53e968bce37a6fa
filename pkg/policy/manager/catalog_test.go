package manager

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mercator-hq/rulebook/pkg/rulebook"
	"mercator-hq/rulebook/pkg/rulebook/ast"
	rbErrors "mercator-hq/rulebook/pkg/rulebook/errors"
	"mercator-hq/rulebook/pkg/rulebook/parser"
)

func mustRegistry(t *testing.T, path, content string) *rulebook.Registry {
	t.Helper()
	reg, err := rulebook.LoadWithParser(parser.NewParser(), []byte(content), path)
	if err != nil {
		t.Fatalf("LoadWithParser(%s) error = %v", path, err)
	}
	return reg
}

func TestCatalog_Empty(t *testing.T) {
	c := NewCatalog()

	if c.Count() != 0 {
		t.Errorf("Count() = %d, want 0", c.Count())
	}
	if c.Version() == "" {
		t.Error("Version() of empty catalog should not be empty")
	}
	if _, _, err := c.FindRule("python-version"); !errors.Is(err, rbErrors.ErrUnknownRuleID) {
		t.Errorf("FindRule() error = %v, want ErrUnknownRuleID", err)
	}
}

func TestCatalog_Replace(t *testing.T) {
	c := NewCatalog()
	emptyVersion := c.Version()

	err := c.Replace([]*rulebook.Registry{
		mustRegistry(t, "rules/project.md", projectRules),
		mustRegistry(t, "rules/other.md", namedRules),
	})
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	if diff := cmp.Diff([]string{"project", "service"}, c.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if c.Version() == emptyVersion {
		t.Error("Version() did not change after Replace")
	}
	if c.LoadTime().IsZero() {
		t.Error("LoadTime() not set after Replace")
	}

	reg, ok := c.Get("service")
	if !ok || reg.SourceFile() != "rules/other.md" {
		t.Errorf("Get(service) = %v, %v", reg, ok)
	}

	var files []string
	for _, reg := range c.All() {
		files = append(files, reg.SourceFile())
	}
	if diff := cmp.Diff([]string{"rules/project.md", "rules/other.md"}, files); diff != "" {
		t.Errorf("All() order mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalog_Replace_DuplicateName(t *testing.T) {
	c := NewCatalog()
	if err := c.Replace([]*rulebook.Registry{mustRegistry(t, "a/project.md", projectRules)}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	before := c.Version()

	err := c.Replace([]*rulebook.Registry{
		mustRegistry(t, "a/project.md", projectRules),
		mustRegistry(t, "b/project.md", projectRules),
	})

	var catErr *CatalogError
	if !errors.As(err, &catErr) {
		t.Fatalf("Replace() error = %v, want *CatalogError", err)
	}
	if catErr.Document != "project" {
		t.Errorf("CatalogError.Document = %q, want project", catErr.Document)
	}
	if c.Version() != before {
		t.Error("failed Replace changed the catalog")
	}
}

func TestCatalog_Replace_Invalid(t *testing.T) {
	c := NewCatalog()

	if err := c.Replace(nil); err == nil {
		t.Error("Replace(nil) expected error")
	}
	if err := c.Replace([]*rulebook.Registry{nil}); err == nil {
		t.Error("Replace([nil]) expected error")
	}
}

func TestCatalog_VersionDependsOnContent(t *testing.T) {
	a := NewCatalog()
	b := NewCatalog()

	if err := a.Replace([]*rulebook.Registry{mustRegistry(t, "project.md", projectRules)}); err != nil {
		t.Fatal(err)
	}
	if err := b.Replace([]*rulebook.Registry{mustRegistry(t, "project.md", projectRules)}); err != nil {
		t.Fatal(err)
	}
	if a.Version() != b.Version() {
		t.Errorf("same content produced versions %q and %q", a.Version(), b.Version())
	}

	edited := projectRules + "4. **Logging**: Use structured logging everywhere.\n"
	if err := b.Replace([]*rulebook.Registry{mustRegistry(t, "project.md", edited)}); err != nil {
		t.Fatal(err)
	}
	if a.Version() == b.Version() {
		t.Error("edited content kept the same version")
	}
}

func TestCatalog_FindRule(t *testing.T) {
	c := NewCatalog()
	err := c.Replace([]*rulebook.Registry{
		mustRegistry(t, "zeta.md", projectRules),
		mustRegistry(t, "alpha.md", projectRules),
		mustRegistry(t, "svc.md", namedRules),
	})
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	doc, rule, err := c.FindRule("api-resilience")
	if err != nil {
		t.Fatalf("FindRule() error = %v", err)
	}
	if doc != "alpha" {
		t.Errorf("FindRule() document = %q, want alpha", doc)
	}
	if rule.Title != "API Resilience" {
		t.Errorf("FindRule() title = %q", rule.Title)
	}

	doc, _, err = c.FindRule("timeouts")
	if err != nil || doc != "service" {
		t.Errorf("FindRule(timeouts) = %q, %v", doc, err)
	}

	_, _, err = c.FindRule("api-resilence")
	if !errors.Is(err, rbErrors.ErrUnknownRuleID) {
		t.Fatalf("FindRule(typo) error = %v, want ErrUnknownRuleID", err)
	}
	var rbErr *rbErrors.Error
	if !errors.As(err, &rbErr) || rbErr.Suggestion == "" {
		t.Errorf("FindRule(typo) should carry a suggestion, got %v", err)
	}
}

func TestCatalog_InfoAndStats(t *testing.T) {
	c := NewCatalog()
	err := c.Replace([]*rulebook.Registry{
		mustRegistry(t, "project.md", projectRules),
		mustRegistry(t, "svc.md", namedRules),
	})
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	infos := c.Info()
	if len(infos) != 2 {
		t.Fatalf("Info() returned %d entries, want 2", len(infos))
	}
	if infos[0].Name != "project" || infos[0].RuleCount != 3 || infos[0].Title != "Project Rules" {
		t.Errorf("Info()[0] = %+v", infos[0])
	}
	if infos[1].Description != "Service conventions" {
		t.Errorf("Info()[1].Description = %q", infos[1].Description)
	}

	stats := c.Stats()
	if stats.DocumentCount != 2 || stats.TotalRules != 4 {
		t.Errorf("Stats() = %+v", stats)
	}
	if stats.RulesByScope[ast.ScopeExternalCall] == 0 {
		t.Errorf("Stats().RulesByScope = %v, want external-call rules", stats.RulesByScope)
	}

	if diff := cmp.Diff(map[string]int{"project": 3, "service": 1}, c.RuleCounts()); diff != "" {
		t.Errorf("RuleCounts() mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalog_ConcurrentAccess(t *testing.T) {
	c := NewCatalog()
	regs := []*rulebook.Registry{mustRegistry(t, "project.md", projectRules)}
	if err := c.Replace(regs); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = c.Replace(regs)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, _, err := c.FindRule("python-version"); err != nil {
					t.Errorf("FindRule() error = %v", err)
					return
				}
				_ = c.Stats()
			}
		}()
	}
	wg.Wait()
}
