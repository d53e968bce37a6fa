package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/rulebook/pkg/cli"
	"mercator-hq/rulebook/pkg/policy/manager"
	rbErrors "mercator-hq/rulebook/pkg/rulebook/errors"
)

var lintFlags struct {
	strict bool
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint [paths...]",
	Short: "Validate rules documents",
	Long: `Validate rules documents for syntax and structural errors.

Each path is a document or a directory of documents. With no paths the
configured rules.path is linted. The checks are:
  - Metadata block is closed and holds valid YAML
  - Document has a heading and at least one numbered rule
  - Every rule opens with a bold title and has a description
  - Rule ids are unique within the document

Examples:
  # Lint the configured rules
  rulebook lint

  # Lint a directory
  rulebook lint .cursor/rules

  # Require a metadata block with a description
  rulebook lint --strict AGENTS.md

  # JSON output for CI
  rulebook lint --format json .cursorrules`,
	RunE: lintDocuments,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "require a metadata block with a description")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

func lintDocuments(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(lintFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return cli.NewConfigError("format", "lint supports text and json output")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{cfg.Rules.Path}
	}

	loaderConfig := manager.LoaderConfigFromRules(&cfg.Rules)
	loaderConfig.Strict = loaderConfig.Strict || lintFlags.strict

	report := lintPaths(manager.NewLoader(loaderConfig), paths)

	if err := cli.NewFormatter(format).FormatTo(output(cmd), report); err != nil {
		return err
	}

	if report.Failed > 0 {
		return cli.NewCommandError("lint", fmt.Errorf("%d of %d document(s) failed validation", report.Failed, len(report.Results)))
	}
	return nil
}

// LintReport is the result of linting one or more paths.
type LintReport struct {
	Results []LintResult `json:"results"`
	Failed  int          `json:"failed"`
}

// LintResult represents the validation result for a single document.
type LintResult struct {
	File     string      `json:"file"`
	Valid    bool        `json:"valid"`
	Document string      `json:"document,omitempty"`
	Rules    int         `json:"rules,omitempty"`
	Errors   []LintIssue `json:"errors,omitempty"`
}

// LintIssue represents a single validation error.
type LintIssue struct {
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
	Rule       string `json:"rule,omitempty"`
	Message    string `json:"message"`
	Type       string `json:"type,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func lintPaths(loader *manager.Loader, paths []string) *LintReport {
	report := &LintReport{}

	for _, path := range paths {
		files, err := loader.Files(path)
		if err != nil {
			report.add(LintResult{File: path, Errors: issuesFromError(err)})
			continue
		}
		if len(files) == 0 {
			report.add(LintResult{
				File:   path,
				Errors: []LintIssue{{Message: "no rules documents found", Type: string(rbErrors.ErrorTypeIO)}},
			})
			continue
		}
		for _, file := range files {
			report.add(lintFile(loader, file))
		}
	}

	return report
}

func (r *LintReport) add(result LintResult) {
	if !result.Valid {
		r.Failed++
	}
	r.Results = append(r.Results, result)
}

func lintFile(loader *manager.Loader, path string) LintResult {
	reg, err := loader.LoadFile(path)
	if err != nil {
		return LintResult{File: path, Errors: issuesFromError(err)}
	}

	return LintResult{
		File:     path,
		Valid:    true,
		Document: manager.DocumentName(reg),
		Rules:    reg.Len(),
	}
}

func issuesFromError(err error) []LintIssue {
	var errList *rbErrors.ErrorList
	if errors.As(err, &errList) {
		issues := make([]LintIssue, 0, len(errList.Errors))
		for _, e := range errList.Errors {
			issues = append(issues, issueFromError(e))
		}
		return issues
	}

	var rbErr *rbErrors.Error
	if errors.As(err, &rbErr) {
		return []LintIssue{issueFromError(rbErr)}
	}

	return []LintIssue{{Message: err.Error(), Type: string(rbErrors.ErrorTypeIO)}}
}

func issueFromError(e *rbErrors.Error) LintIssue {
	return LintIssue{
		Line:       e.Location.Line,
		Column:     e.Location.Column,
		Rule:       e.RuleID,
		Message:    e.Message,
		Type:       string(e.Type),
		Suggestion: e.Suggestion,
	}
}

// WriteText renders the report for a terminal.
func (r *LintReport) WriteText(w io.Writer) error {
	totalErrors := 0

	for _, result := range r.Results {
		fmt.Fprintf(w, "Validating %s...\n", result.File)

		if result.Valid {
			fmt.Fprintf(w, "✓ Document %q: %d rule(s)\n", result.Document, result.Rules)
		}

		for _, issue := range result.Errors {
			fmt.Fprintf(w, "✗ Error: %s", issue.Message)
			if issue.Line > 0 {
				fmt.Fprintf(w, " (line %d", issue.Line)
				if issue.Column > 0 {
					fmt.Fprintf(w, ", col %d", issue.Column)
				}
				fmt.Fprint(w, ")")
			}
			if issue.Type != "" {
				fmt.Fprintf(w, " [%s]", issue.Type)
			}
			fmt.Fprintln(w)
			if issue.Suggestion != "" {
				fmt.Fprintf(w, "  suggestion: %s\n", issue.Suggestion)
			}
			totalErrors++
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Summary:")
	_, err := fmt.Fprintf(w, "  %d document(s), %d failed, %d error(s)\n", len(r.Results), r.Failed, totalErrors)
	return err
}
