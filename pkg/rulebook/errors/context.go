package errors

import (
	"fmt"
	"strings"
)

// ExtractContext returns the lines surrounding line (1-based) in source,
// formatted with line numbers and an arrow on the offending line.
func ExtractContext(source []byte, line, column, contextLines int) string {
	if line <= 0 || len(source) == 0 {
		return ""
	}

	lines := strings.Split(strings.ReplaceAll(string(source), "\r\n", "\n"), "\n")
	errorLine := line - 1
	if errorLine >= len(lines) {
		return ""
	}

	startLine := max(errorLine-contextLines, 0)
	endLine := min(errorLine+contextLines, len(lines)-1)

	var sb strings.Builder
	maxLineNumWidth := len(fmt.Sprintf("%d", endLine+1))

	for i := startLine; i <= endLine; i++ {
		prefix := "  "
		if i == errorLine {
			prefix = "->"
		}
		sb.WriteString(fmt.Sprintf("%s %*d | %s\n", prefix, maxLineNumWidth, i+1, lines[i]))

		if i == errorLine && column > 0 {
			padding := strings.Repeat(" ", column-1)
			sb.WriteString(fmt.Sprintf("   %s | %s^\n", strings.Repeat(" ", maxLineNumWidth), padding))
		}
	}

	return sb.String()
}

// AddContext fills in the Context of every error in the list from source.
// Errors without a valid location are left untouched.
func AddContext(el *ErrorList, source []byte) {
	for _, err := range el.Errors {
		if err.Location.IsValid() && err.Context == "" {
			err.Context = ExtractContext(source, err.Location.Line, err.Location.Column, 2)
		}
	}
}
