package ast

import (
	"strings"
	"unicode"
)

// Rule represents one mandated convention.
type Rule struct {
	ID          string   // Stable identifier, unique within a document (kebab-case)
	Title       string   // Short human-readable name (the bolded title)
	Description string   // Full prose statement of the mandate
	Summary     string   // Text following the title on the list item line
	Details     []string // Nested sub-bullet elaborations, in order
	Scope       Scope    // Kind of artifact the rule constrains
	Position    int      // 1-based position in the document
	Location    Location // Source location of the list item
}

// HasDetails returns true if the rule has elaborating sub-items.
func (r Rule) HasDetails() bool {
	return len(r.Details) > 0
}

// Mentions reports whether the rule's title or description contains the
// given text, ignoring case.
func (r Rule) Mentions(text string) bool {
	needle := strings.ToLower(text)
	return strings.Contains(strings.ToLower(r.Title), needle) ||
		strings.Contains(strings.ToLower(r.Description), needle)
}

// Clone returns a deep copy of the rule.
func (r Rule) Clone() Rule {
	if r.Details != nil {
		details := make([]string, len(r.Details))
		copy(details, r.Details)
		r.Details = details
	}
	return r
}

// Slug converts a title into a rule identifier: lower-case letters and
// digits of any script separated by single hyphens. "Python Version & Style"
// becomes "python-version-style" and "Données" stays "données".
func Slug(title string) string {
	var sb strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			if pendingHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(r)
		case unicode.IsMark(r) && sb.Len() > 0 && !pendingHyphen:
			// Combining accents stay with their letter.
			sb.WriteRune(r)
		case r == '+':
			// "Python 3.11+" keeps its meaning without a trailing symbol.
		case r == '\'' || r == '’':
			// Apostrophes join words ("Don't" -> "dont").
		default:
			pendingHyphen = true
		}
	}
	return sb.String()
}
