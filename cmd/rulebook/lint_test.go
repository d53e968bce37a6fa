package main

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/rulebook/pkg/cli"
)

func setLintFlags(strict bool, format string) {
	cfgFile = ""
	logLevel = ""
	lintFlags.strict = strict
	lintFlags.format = format
}

func TestLintDocumentsValidFile(t *testing.T) {
	setLintFlags(false, "text")
	cmd, buf := newTestCommand()

	if err := lintDocuments(cmd, []string{"testdata/project-rules.md"}); err != nil {
		t.Fatalf("lintDocuments() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `✓ Document "project-rules": 3 rule(s)`) {
		t.Errorf("output missing success line:\n%s", out)
	}
	if !strings.Contains(out, "1 document(s), 0 failed, 0 error(s)") {
		t.Errorf("output missing summary:\n%s", out)
	}
}

func TestLintDocumentsInvalidFile(t *testing.T) {
	setLintFlags(false, "text")
	cmd, buf := newTestCommand()

	err := lintDocuments(cmd, []string{"testdata/missing-title.md"})
	var cmdErr *cli.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("lintDocuments() error = %v, want *cli.CommandError", err)
	}

	out := buf.String()
	if !strings.Contains(out, "(line 4, col ") || !strings.Contains(out, "[structural]") {
		t.Errorf("output missing located error:\n%s", out)
	}
	if !strings.Contains(out, "suggestion:") {
		t.Errorf("output missing suggestion:\n%s", out)
	}
}

func TestLintDocumentsNonexistentFile(t *testing.T) {
	setLintFlags(false, "text")
	cmd, _ := newTestCommand()

	if err := lintDocuments(cmd, []string{"testdata/nonexistent.md"}); err == nil {
		t.Error("lintDocuments() with nonexistent file should return error")
	}
}

func TestLintDocumentsDirectory(t *testing.T) {
	setLintFlags(false, "json")
	cmd, buf := newTestCommand()

	if err := lintDocuments(cmd, []string{"testdata/rules"}); err != nil {
		t.Fatalf("lintDocuments() error = %v", err)
	}

	var report LintReport
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if len(report.Results) != 2 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}
	if report.Results[0].Document != "backend" || report.Results[0].Rules != 2 {
		t.Errorf("first result = %+v", report.Results[0])
	}
}

func TestLintDocumentsEmptyDirectory(t *testing.T) {
	setLintFlags(false, "text")
	cmd, _ := newTestCommand()

	if err := lintDocuments(cmd, []string{t.TempDir()}); err == nil {
		t.Error("lintDocuments() with empty directory should return error")
	}
}

func TestLintDocumentsStrict(t *testing.T) {
	setLintFlags(true, "json")
	cmd, buf := newTestCommand()

	if err := lintDocuments(cmd, []string{"testdata/project-rules.md"}); err != nil {
		t.Errorf("strict lint of document with metadata failed: %v", err)
	}

	buf.Reset()
	plain := filepath.Join(t.TempDir(), "plain.md")
	writeTestFile(t, plain, "# Rules\n\n1. **Naming**: Use descriptive names.\n")
	if err := lintDocuments(cmd, []string{plain}); err == nil {
		t.Error("strict lint of document without metadata should fail")
	}
}

func TestLintDocumentsRejectsCSV(t *testing.T) {
	setLintFlags(false, "csv")
	cmd, _ := newTestCommand()

	err := lintDocuments(cmd, []string{"testdata/project-rules.md"})
	if cli.ExitCode(err) != cli.ExitConfigError {
		t.Errorf("lintDocuments() error = %v, want config error", err)
	}
}

func TestLintFile(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		wantValid bool
	}{
		{name: "valid document", file: "testdata/project-rules.md", wantValid: true},
		{name: "missing title", file: "testdata/missing-title.md", wantValid: false},
		{name: "nonexistent file", file: "testdata/nonexistent.md", wantValid: false},
	}

	setLintFlags(false, "text")
	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	loader := newLoaderForTest(cfg)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := lintFile(loader, tt.file)
			if result.Valid != tt.wantValid {
				t.Errorf("lintFile(%q).Valid = %v, want %v", tt.file, result.Valid, tt.wantValid)
			}
			if !tt.wantValid && len(result.Errors) == 0 {
				t.Errorf("lintFile(%q) reported no errors", tt.file)
			}
		})
	}
}
