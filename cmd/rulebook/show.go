package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/rulebook/pkg/cli"
	"mercator-hq/rulebook/pkg/rulebook/ast"
)

var showFlags struct {
	path     string
	document string
	format   string
}

var showCmd = &cobra.Command{
	Use:   "show <rule-id>",
	Short: "Print one rule",
	Long: `Print the rule with the given id. Without --document the first document,
in name order, that declares the id is used.

Examples:
  rulebook show python-version
  rulebook show api-resilience --path .cursor/rules --document backend
  rulebook show modular-architecture --format json`,
	Args: cobra.ExactArgs(1),
	RunE: showRule,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVarP(&showFlags.path, "path", "p", "", "rules document or directory (default rules.path)")
	showCmd.Flags().StringVarP(&showFlags.document, "document", "d", "", "only look in this document")
	showCmd.Flags().StringVar(&showFlags.format, "format", "text", "output format: text, json")
}

func showRule(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(showFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return cli.NewConfigError("format", "show supports text and json output")
	}

	mgr, err := loadRules(showFlags.path)
	if err != nil {
		return cli.NewCommandError("show", err)
	}
	defer mgr.Close()

	id := args[0]
	var (
		document string
		rule     ast.Rule
	)
	if showFlags.document != "" {
		reg, err := mgr.Document(showFlags.document)
		if err != nil {
			return cli.NewCommandError("show", err)
		}
		if rule, err = reg.Get(id); err != nil {
			return cli.NewCommandError("show", err)
		}
		document = showFlags.document
	} else {
		if document, rule, err = mgr.FindRule(id); err != nil {
			return cli.NewCommandError("show", err)
		}
	}

	view := newRuleView(document, rule)
	return cli.NewFormatter(format).FormatTo(output(cmd), &view)
}

// WriteText renders a single rule for a terminal.
func (v *RuleView) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "%s: %s\n", v.ID, v.Title)
	fmt.Fprintf(w, "  scope:    %s\n", v.Scope)
	fmt.Fprintf(w, "  document: %s", v.Document)
	if v.File != "" {
		fmt.Fprintf(w, " (%s:%d)", v.File, v.Line)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	if v.Summary != "" {
		fmt.Fprintf(w, "  %s\n", v.Summary)
	}
	for _, detail := range v.Details {
		fmt.Fprintf(w, "  - %s\n", detail)
	}
	return nil
}
