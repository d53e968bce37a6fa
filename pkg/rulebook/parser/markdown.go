package parser

import (
	"sort"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// The goldmark configuration never changes and its parser keeps per-call
// state in the reader, so one instance is shared.
var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdownInstance
}

// parseMarkdown parses source into a goldmark document tree.
func parseMarkdown(source []byte) gast.Node {
	return getMarkdown().Parser().Parse(text.NewReader(source))
}

// inlineText flattens the inline children of a block into plain text.
// Emphasis, links and code spans are unwrapped; soft breaks become spaces.
func inlineText(node gast.Node, source []byte) string {
	var sb strings.Builder
	writeInline(&sb, node, source)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func writeInline(sb *strings.Builder, node gast.Node, source []byte) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		writeNode(sb, child, source)
	}
}

func writeNode(sb *strings.Builder, node gast.Node, source []byte) {
	switch n := node.(type) {
	case *gast.Text:
		sb.Write(n.Segment.Value(source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			sb.WriteByte(' ')
		}
	case *gast.String:
		sb.Write(n.Value)
	case *gast.AutoLink:
		sb.Write(n.URL(source))
	case *gast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			segment := n.Segments.At(i)
			sb.Write(segment.Value(source))
		}
	default:
		writeInline(sb, node, source)
	}
}

// firstOffset returns the byte offset where the node's first line of content
// starts, searching descendants when the node itself has no lines.
func firstOffset(node gast.Node) (int, bool) {
	if node.Type() == gast.TypeBlock && node.Lines().Len() > 0 {
		return node.Lines().At(0).Start, true
	}
	if t, ok := node.(*gast.Text); ok {
		return t.Segment.Start, true
	}
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if off, ok := firstOffset(child); ok {
			return off, true
		}
	}
	return 0, false
}

// lineIndex maps byte offsets to 1-based line and column numbers.
type lineIndex struct {
	starts []int
}

func newLineIndex(source []byte) lineIndex {
	starts := []int{0}
	for i, c := range source {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{starts: starts}
}

// position returns the line and column for offset.
func (li lineIndex) position(offset int) (int, int) {
	line := sort.Search(len(li.starts), func(i int) bool {
		return li.starts[i] > offset
	})
	if line == 0 {
		return 1, offset + 1
	}
	return line, offset - li.starts[line-1] + 1
}
