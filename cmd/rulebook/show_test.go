package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	rbErrors "mercator-hq/rulebook/pkg/rulebook/errors"
)

func setShowFlags(path, document, format string) {
	cfgFile = ""
	logLevel = ""
	showFlags.path = path
	showFlags.document = document
	showFlags.format = format
}

func TestShowRuleText(t *testing.T) {
	setShowFlags("testdata/project-rules.md", "", "text")
	cmd, buf := newTestCommand()

	if err := showRule(cmd, []string{"api-resilience"}); err != nil {
		t.Fatalf("showRule() error = %v", err)
	}

	want := []string{
		"api-resilience: API Resilience\n",
		"  scope:    external-call\n",
		"  document: project-rules (testdata/project-rules.md:15)\n",
		"  Wrap every external API call in exponential backoff.\n",
		"  - Retry at most five times.\n",
	}
	out := buf.String()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestShowRuleJSON(t *testing.T) {
	setShowFlags("testdata/rules", "backend", "json")
	cmd, buf := newTestCommand()

	if err := showRule(cmd, []string{"structured-logging"}); err != nil {
		t.Fatalf("showRule() error = %v", err)
	}

	var view RuleView
	if err := json.Unmarshal(buf.Bytes(), &view); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if view.Document != "backend" || view.Title != "Structured Logging" {
		t.Errorf("view = %+v", view)
	}
}

func TestShowRuleUnknown(t *testing.T) {
	setShowFlags("testdata/project-rules.md", "", "text")
	cmd, _ := newTestCommand()

	err := showRule(cmd, []string{"nonexistent-rule"})
	if !errors.Is(err, rbErrors.ErrUnknownRuleID) {
		t.Errorf("showRule() error = %v, want ErrUnknownRuleID", err)
	}
}

func TestShowRuleWrongDocument(t *testing.T) {
	setShowFlags("testdata/rules", "backend", "text")
	cmd, _ := newTestCommand()

	if err := showRule(cmd, []string{"python-version"}); !errors.Is(err, rbErrors.ErrUnknownRuleID) {
		t.Errorf("showRule() error = %v, want ErrUnknownRuleID", err)
	}

	setShowFlags("testdata/rules", "frontend", "text")
	if err := showRule(cmd, []string{"python-version"}); err == nil {
		t.Error("showRule() with unknown document should fail")
	}
}
