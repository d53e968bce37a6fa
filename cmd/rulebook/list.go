package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/rulebook/pkg/cli"
	"mercator-hq/rulebook/pkg/policy/manager"
	"mercator-hq/rulebook/pkg/rulebook/ast"
)

var listFlags struct {
	format string
	scope  string
}

var listCmd = &cobra.Command{
	Use:   "list [path]",
	Short: "List the rules of each document",
	Long: `List the rules of every document under path, or under the configured
rules.path when no path is given. Documents are listed by name and their
rules in document order.

Examples:
  # List the configured rules
  rulebook list

  # Only rules about external calls, as CSV
  rulebook list --scope external-call --format csv .cursor/rules`,
	Args: cobra.MaximumNArgs(1),
	RunE: listRules,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listFlags.format, "format", "text", "output format: text, json, csv")
	listCmd.Flags().StringVar(&listFlags.scope, "scope", "", "only list rules with this scope (language, file-organization, external-call, general)")
}

func listRules(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(listFlags.format)
	if err != nil {
		return err
	}

	var scope ast.Scope
	if listFlags.scope != "" {
		s, ok := ast.ParseScope(listFlags.scope)
		if !ok {
			return cli.NewConfigError("scope", fmt.Sprintf("unknown scope %q", listFlags.scope))
		}
		scope = s
	}

	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	mgr, err := loadRules(path)
	if err != nil {
		return cli.NewCommandError("list", err)
	}
	defer mgr.Close()

	return cli.NewFormatter(format).FormatTo(output(cmd), buildListing(mgr, scope))
}

// loadRules loads the rules at path, or at the configured rules.path when
// path is empty, without watching.
func loadRules(path string) (*manager.Manager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg, true)
	if err != nil {
		return nil, err
	}

	rules := cfg.Rules
	rules.Watch = false
	if path != "" {
		rules.Path = path
	}

	mgr, err := manager.NewManager(&rules, logger)
	if err != nil {
		return nil, err
	}
	if err := mgr.Load(); err != nil {
		_ = mgr.Close()
		return nil, err
	}
	return mgr, nil
}

// RuleListing is a listing of the rules of several documents.
type RuleListing struct {
	Version   string         `json:"version"`
	Documents []DocumentView `json:"documents"`
}

// DocumentView describes one document and its rules.
type DocumentView struct {
	Name  string     `json:"name"`
	Title string     `json:"title"`
	File  string     `json:"file"`
	Rules []RuleView `json:"rules"`
}

// RuleView is the printable form of a rule.
type RuleView struct {
	Document    string   `json:"document,omitempty"`
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Scope       string   `json:"scope"`
	Summary     string   `json:"summary,omitempty"`
	Description string   `json:"description"`
	Details     []string `json:"details,omitempty"`
	File        string   `json:"file,omitempty"`
	Line        int      `json:"line,omitempty"`
}

func newRuleView(document string, rule ast.Rule) RuleView {
	return RuleView{
		Document:    document,
		ID:          rule.ID,
		Title:       rule.Title,
		Scope:       string(rule.Scope),
		Summary:     rule.Summary,
		Description: rule.Description,
		Details:     rule.Details,
		File:        rule.Location.File,
		Line:        rule.Location.Line,
	}
}

func buildListing(src manager.RuleSource, scope ast.Scope) *RuleListing {
	listing := &RuleListing{Version: src.Version()}

	for _, reg := range src.Documents() {
		name := manager.DocumentName(reg)
		doc := DocumentView{
			Name:  name,
			Title: reg.Title(),
			File:  reg.SourceFile(),
			Rules: []RuleView{},
		}

		for _, rule := range reg.Rules() {
			if scope != "" && rule.Scope != scope {
				continue
			}
			doc.Rules = append(doc.Rules, newRuleView(name, rule))
		}

		listing.Documents = append(listing.Documents, doc)
	}

	return listing
}

// WriteText renders the listing for a terminal.
func (l *RuleListing) WriteText(w io.Writer) error {
	for i, doc := range l.Documents {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s)\n", doc.Title, doc.Name)
		for _, rule := range doc.Rules {
			fmt.Fprintf(w, "  %-28s %-18s %s\n", rule.ID, rule.Scope, firstLine(rule.Description))
		}
	}
	return nil
}

// Header implements cli.Tabular.
func (l *RuleListing) Header() []string {
	return []string{"document", "id", "title", "scope", "line", "description"}
}

// Rows implements cli.Tabular.
func (l *RuleListing) Rows() [][]string {
	var rows [][]string
	for _, doc := range l.Documents {
		for _, rule := range doc.Rules {
			rows = append(rows, []string{
				doc.Name,
				rule.ID,
				rule.Title,
				rule.Scope,
				strconv.Itoa(rule.Line),
				rule.Description,
			})
		}
	}
	return rows
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
