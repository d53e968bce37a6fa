package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"mercator-hq/rulebook/pkg/rulebook/ast"
	rbErrors "mercator-hq/rulebook/pkg/rulebook/errors"
)

const metadataDelimiter = "---"

// frontmatter is the raw metadata block located at the top of a document.
type frontmatter struct {
	raw       []byte // YAML between the delimiters
	endLine   int    // 1-based line of the closing delimiter
	endOffset int    // Offset just past the closing delimiter line
}

// yamlMetadata is the intermediate structure the metadata block decodes into.
type yamlMetadata struct {
	Description string            `yaml:"description"`
	Name        string            `yaml:"name"`
	Globs       yaml.Node         `yaml:"globs"`
	AlwaysApply bool              `yaml:"alwaysApply"`
	Scopes      map[string]string `yaml:"scopes"`
}

var knownMetadataKeys = map[string]bool{
	"description": true,
	"name":        true,
	"globs":       true,
	"alwaysApply": true,
	"scopes":      true,
}

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

// readLine returns the line starting at off without its newline and the
// offset of the following line.
func readLine(src []byte, off int) (string, int) {
	i := bytes.IndexByte(src[off:], '\n')
	if i < 0 {
		return string(src[off:]), len(src)
	}
	return string(src[off : off+i]), off + i + 1
}

func isDelimiter(line string) bool {
	return strings.TrimSpace(line) == metadataDelimiter
}

// findFrontmatter locates a metadata block opening on the first line.
// found reports an opening delimiter; closed reports its matching close.
func findFrontmatter(src []byte) (fm frontmatter, found, closed bool) {
	if len(src) == 0 {
		return frontmatter{}, false, false
	}
	first, next := readLine(src, 0)
	if !isDelimiter(first) {
		return frontmatter{}, false, false
	}

	lineNo := 1
	for off := next; off < len(src); {
		line, n := readLine(src, off)
		lineNo++
		if isDelimiter(line) {
			return frontmatter{raw: src[next:off], endLine: lineNo, endOffset: n}, true, true
		}
		off = n
	}
	return frontmatter{}, true, false
}

// decodeMetadata decodes the metadata block. Problems are added to errs.
func (b *builder) decodeMetadata(fm frontmatter) ast.Metadata {
	meta := ast.Metadata{
		Present:  true,
		Location: ast.Location{File: b.sourcePath, Line: 1, Column: 1},
	}

	var raw yamlMetadata
	if err := yaml.Unmarshal(fm.raw, &raw); err != nil {
		b.errs.AddErrorWithSuggestion(
			rbErrors.ErrorTypeSyntax,
			fmt.Sprintf("Metadata block is not valid YAML: %v", err),
			b.yamlErrorLocation(err),
			"Check YAML syntax (indentation, colons, quotes)",
		)
		return meta
	}

	meta.Description = strings.TrimSpace(raw.Description)
	meta.Name = strings.TrimSpace(raw.Name)
	meta.AlwaysApply = raw.AlwaysApply
	meta.Globs = b.decodeGlobs(&raw.Globs)

	if len(raw.Scopes) > 0 {
		meta.Scopes = make(map[string]ast.Scope, len(raw.Scopes))
		for id, value := range raw.Scopes {
			scope, ok := ast.ParseScope(value)
			if !ok {
				b.errs.AddErrorWithSuggestion(
					rbErrors.ErrorTypeStructural,
					fmt.Sprintf("Unknown scope %q for rule %q", value, id),
					meta.Location,
					fmt.Sprintf("Valid scopes: %s", joinScopes(ast.ValidScopes())),
				)
				continue
			}
			meta.Scopes[id] = scope
		}
	}

	var all map[string]any
	if err := yaml.Unmarshal(fm.raw, &all); err == nil {
		for key, value := range all {
			if knownMetadataKeys[key] {
				continue
			}
			if meta.Extra == nil {
				meta.Extra = make(map[string]any)
			}
			meta.Extra[key] = value
		}
	}

	return meta
}

// decodeGlobs accepts either a YAML list or a comma-separated string.
func (b *builder) decodeGlobs(node *yaml.Node) []string {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		var globs []string
		for _, part := range strings.Split(node.Value, ",") {
			if glob := strings.TrimSpace(part); glob != "" {
				globs = append(globs, glob)
			}
		}
		return globs
	case yaml.SequenceNode:
		var globs []string
		if err := node.Decode(&globs); err != nil {
			b.errs.AddError(
				rbErrors.ErrorTypeSyntax,
				fmt.Sprintf("globs must be a list of strings: %v", err),
				ast.Location{File: b.sourcePath, Line: node.Line + 1, Column: node.Column},
			)
			return nil
		}
		return globs
	case 0:
		return nil
	default:
		b.errs.AddError(
			rbErrors.ErrorTypeSyntax,
			"globs must be a string or a list of strings",
			ast.Location{File: b.sourcePath, Line: node.Line + 1, Column: node.Column},
		)
		return nil
	}
}

// yamlErrorLocation maps a yaml.v3 error line (relative to the block) to a
// document line. The block starts on line 2.
func (b *builder) yamlErrorLocation(err error) ast.Location {
	loc := ast.Location{File: b.sourcePath, Line: 1, Column: 1}
	if m := yamlLinePattern.FindStringSubmatch(err.Error()); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			loc.Line = n + 1
		}
	}
	return loc
}

func joinScopes(scopes []ast.Scope) string {
	names := make([]string, len(scopes))
	for i, s := range scopes {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
