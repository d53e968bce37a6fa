package parser

import (
	"fmt"
	"strings"

	gast "github.com/yuin/goldmark/ast"

	"mercator-hq/rulebook/pkg/rulebook/ast"
	rbErrors "mercator-hq/rulebook/pkg/rulebook/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// builder constructs a Document from source bytes, collecting errors.
type builder struct {
	sourcePath string
	source     []byte
	strict     bool
	lines      lineIndex
	errs       *rbErrors.ErrorList
	seen       map[string]int // rule id -> position of first definition

	// underlined is the first setext heading, reported when no '#' heading
	// exists.
	underlined *gast.Heading
}

func newBuilder(sourcePath string, source []byte, strict bool) *builder {
	return &builder{
		sourcePath: sourcePath,
		source:     source,
		strict:     strict,
		lines:      newLineIndex(source),
		errs:       rbErrors.NewErrorList(),
		seen:       make(map[string]int),
	}
}

// build parses the metadata block and the Markdown body.
func (b *builder) build() *ast.Document {
	doc := &ast.Document{SourceFile: b.sourcePath}

	// Work on a copy with the BOM and metadata block blanked out so goldmark
	// offsets still index into the original source.
	work := make([]byte, len(b.source))
	copy(work, b.source)
	if len(work) >= len(utf8BOM) && string(work[:len(utf8BOM)]) == string(utf8BOM) {
		blank(work[:len(utf8BOM)])
	}

	fm, found, closed := findFrontmatter(work)
	if found && !closed {
		b.errs.AddErrorWithSuggestion(
			rbErrors.ErrorTypeSyntax,
			"Metadata block is not closed",
			b.location(0),
			"Close the metadata block with a line containing only '---'",
		)
		return doc
	}
	if found {
		doc.Metadata = b.decodeMetadata(fm)
		blank(work[:fm.endOffset])
	}

	root := parseMarkdown(work)
	position := 0
	lastRule := -1
	prevOrdered := false
	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *gast.Heading:
			if !isATXHeading(n, work) {
				if b.underlined == nil {
					b.underlined = n
				}
				prevOrdered = false
				continue
			}
			if doc.Title == "" {
				doc.Title = inlineText(n, work)
				if off, ok := firstOffset(n); ok {
					doc.Location = b.location(off)
					doc.Location.Column = 1
				}
			}
			prevOrdered = false
		case *gast.List:
			if !n.IsOrdered() {
				// Bullets indented less than the item text end the numbered
				// list; they still elaborate the item just before them.
				if prevOrdered && lastRule >= 0 {
					doc.Rules[lastRule].Details = appendDetails(doc.Rules[lastRule].Details, n, work)
				}
				prevOrdered = false
				continue
			}
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				listItem, ok := item.(*gast.ListItem)
				if !ok {
					continue
				}
				position++
				lastRule = -1
				if rule, ok := b.buildRule(listItem, position, work); ok {
					doc.Rules = append(doc.Rules, rule)
					lastRule = len(doc.Rules) - 1
				}
			}
			prevOrdered = true
		default:
			prevOrdered = false
		}
	}

	doc.Rules = b.finishRules(doc.Rules, doc.Metadata)
	b.checkDocument(doc)
	return doc
}

// buildRule converts one numbered item into a Rule.
func (b *builder) buildRule(item *gast.ListItem, position int, source []byte) (ast.Rule, bool) {
	loc := ast.Location{File: b.sourcePath}
	if off, ok := firstOffset(item); ok {
		loc = b.location(off)
	}

	first := item.FirstChild()
	if first == nil {
		b.errs.AddErrorWithSuggestion(
			rbErrors.ErrorTypeStructural,
			fmt.Sprintf("Rule %d is empty", position),
			loc,
			rbErrors.SuggestBoldTitle(""),
		)
		return ast.Rule{}, false
	}

	title, summary, hasColon, ok := splitTitle(first, source)
	if ok && !hasColon {
		b.errs.AddErrorWithSuggestion(
			rbErrors.ErrorTypeStructural,
			fmt.Sprintf("Rule %d title %q is not followed by a colon", position, title),
			loc,
			fmt.Sprintf("Write the title as '**%s**: description'", title),
		)
		return ast.Rule{}, false
	}
	if !ok {
		itemText := ""
		if first.Kind() == gast.KindParagraph || first.Kind() == gast.KindTextBlock {
			itemText = inlineText(first, source)
		}
		b.errs.AddErrorWithSuggestion(
			rbErrors.ErrorTypeStructural,
			fmt.Sprintf("Rule %d is missing a bold title", position),
			loc,
			rbErrors.SuggestBoldTitle(itemText),
		)
		return ast.Rule{}, false
	}

	var continuation []string
	if summary != "" {
		continuation = append(continuation, summary)
	}
	var details []string
	for child := first.NextSibling(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *gast.List:
			details = appendDetails(details, c, source)
		case *gast.Paragraph, *gast.TextBlock:
			if t := inlineText(c, source); t != "" {
				continuation = append(continuation, t)
			}
		}
	}
	summary = strings.Join(continuation, "\n")

	id := ast.Slug(title)
	if id == "" {
		b.errs.AddErrorWithSuggestion(
			rbErrors.ErrorTypeStructural,
			fmt.Sprintf("Rule %d title %q does not yield an identifier", position, title),
			loc,
			"Use letters or digits in the title",
		)
		return ast.Rule{}, false
	}

	if firstPos, dup := b.seen[id]; dup {
		b.errs.Add(&rbErrors.Error{
			Type:       rbErrors.ErrorTypeStructural,
			Message:    fmt.Sprintf("Rule %d has id %q already used by rule %d", position, id, firstPos),
			RuleID:     id,
			Location:   loc,
			Suggestion: "Give each rule a distinct title",
		})
		return ast.Rule{}, false
	}
	b.seen[id] = position

	return ast.Rule{
		ID:       id,
		Title:    title,
		Summary:  summary,
		Details:  details,
		Position: position,
		Location: loc,
	}, true
}

// finishRules composes each rule's description and scope, dropping rules
// that end up without a description.
func (b *builder) finishRules(rules []ast.Rule, meta ast.Metadata) []ast.Rule {
	finished := rules[:0]
	for _, rule := range rules {
		parts := make([]string, 0, len(rule.Details)+1)
		if rule.Summary != "" {
			parts = append(parts, rule.Summary)
		}
		parts = append(parts, rule.Details...)
		rule.Description = strings.Join(parts, "\n")

		if rule.Description == "" {
			b.errs.Add(&rbErrors.Error{
				Type:       rbErrors.ErrorTypeStructural,
				Message:    fmt.Sprintf("Rule %q has no description", rule.Title),
				RuleID:     rule.ID,
				Location:   rule.Location,
				Suggestion: "Add text after the title or nested bullet items",
			})
			continue
		}

		if scope, explicit := meta.Scopes[rule.ID]; explicit {
			rule.Scope = scope
		} else {
			rule.Scope = ast.InferScope(rule.Title, rule.Description)
		}
		finished = append(finished, rule)
	}
	return finished
}

// splitTitle extracts the bold title opening a list item and the text that
// follows it. ok is false when the item does not start with bold text.
// hasColon reports whether the title ends with a colon, either inside the
// bold text or as the first character after it.
func splitTitle(block gast.Node, source []byte) (title, rest string, hasColon, ok bool) {
	if block.Kind() != gast.KindParagraph && block.Kind() != gast.KindTextBlock {
		return "", "", false, false
	}

	lead := block.FirstChild()
	emphasis, isEmphasis := lead.(*gast.Emphasis)
	if !isEmphasis || emphasis.Level != 2 {
		return "", "", false, false
	}

	title = strings.TrimSpace(inlineText(emphasis, source))
	if trimmed, found := strings.CutSuffix(title, ":"); found {
		title = strings.TrimSpace(trimmed)
		hasColon = true
	}
	if title == "" {
		return "", "", false, false
	}

	var sb strings.Builder
	for sibling := emphasis.NextSibling(); sibling != nil; sibling = sibling.NextSibling() {
		writeNode(&sb, sibling, source)
	}
	rest = strings.Join(strings.Fields(sb.String()), " ")
	if !hasColon {
		rest, hasColon = strings.CutPrefix(rest, ":")
	}
	return title, strings.TrimSpace(rest), hasColon, true
}

// isATXHeading reports whether the heading is written with leading '#'
// characters rather than underlined with '=' or '-'.
func isATXHeading(h *gast.Heading, source []byte) bool {
	if h.Lines().Len() == 0 {
		// "#" alone is an empty ATX heading; setext headings always have text.
		return true
	}
	start := h.Lines().At(0).Start
	for start > 0 && source[start-1] != '\n' {
		start--
	}
	for start < len(source) && (source[start] == ' ' || source[start] == '\t') {
		start++
	}
	if start >= len(source) || source[start] != '#' {
		return false
	}
	for start < len(source) && source[start] == '#' {
		start++
	}
	return start == len(source) || source[start] == ' ' || source[start] == '\t' ||
		source[start] == '\r' || source[start] == '\n'
}

// appendDetails collects the text of every item in a nested list, depth
// first, so deeper bullets follow their parent.
func appendDetails(details []string, list *gast.List, source []byte) []string {
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		for child := item.FirstChild(); child != nil; child = child.NextSibling() {
			switch c := child.(type) {
			case *gast.List:
				details = appendDetails(details, c, source)
			case *gast.Paragraph, *gast.TextBlock:
				if t := inlineText(c, source); t != "" {
					details = append(details, t)
				}
			}
		}
	}
	return details
}

// checkDocument applies document-level structure checks.
func (b *builder) checkDocument(doc *ast.Document) {
	itemErrors := b.errs.HasErrorType(rbErrors.ErrorTypeStructural)

	if doc.Title == "" {
		loc := ast.Location{File: b.sourcePath}
		message := "Document has no heading"
		if b.underlined != nil {
			message = "Document has no heading line beginning with '#'"
			if off, ok := firstOffset(b.underlined); ok {
				loc = b.location(off)
			}
		}
		b.errs.AddErrorWithSuggestion(
			rbErrors.ErrorTypeStructural,
			message,
			loc,
			"Add a heading line such as '# Project Rules' before the rules",
		)
	}

	if len(doc.Rules) == 0 && !itemErrors {
		b.errs.AddErrorWithSuggestion(
			rbErrors.ErrorTypeStructural,
			"Document has no numbered rules",
			ast.Location{File: b.sourcePath},
			"List each rule as a numbered item: '1. **Title**: description'",
		)
	}

	if !b.strict {
		return
	}

	if !doc.Metadata.Present {
		b.errs.AddErrorWithSuggestion(
			rbErrors.ErrorTypeStructural,
			"Document has no metadata block",
			ast.Location{File: b.sourcePath, Line: 1, Column: 1},
			"Start the document with '---', a description line, and '---'",
		)
	} else if doc.Metadata.Description == "" {
		b.errs.AddErrorWithSuggestion(
			rbErrors.ErrorTypeStructural,
			"Metadata block has no description",
			doc.Metadata.Location,
			rbErrors.SuggestMissingField("description", "\"What these rules enforce\""),
		)
	}

	for id := range doc.Metadata.Scopes {
		if _, ok := doc.GetRule(id); !ok {
			b.errs.Add(&rbErrors.Error{
				Type:       rbErrors.ErrorTypeStructural,
				Message:    fmt.Sprintf("Metadata scopes names unknown rule %q", id),
				RuleID:     id,
				Location:   doc.Metadata.Location,
				Suggestion: rbErrors.SuggestRuleID(id, ruleIDs(doc.Rules)),
			})
		}
	}
}

func (b *builder) location(offset int) ast.Location {
	line, column := b.lines.position(offset)
	return ast.Location{File: b.sourcePath, Line: line, Column: column}
}

func ruleIDs(rules []ast.Rule) []string {
	ids := make([]string, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}
	return ids
}

// blank replaces every byte except newlines with a space.
func blank(b []byte) {
	for i, c := range b {
		if c != '\n' && c != '\r' {
			b[i] = ' '
		}
	}
}
