package errors

import (
	"fmt"
	"strings"
)

// SuggestRuleID suggests the closest known rule id for an unknown one.
// It uses Levenshtein distance to find similar ids.
func SuggestRuleID(unknown string, knownIDs []string) string {
	if len(knownIDs) == 0 {
		return ""
	}

	minDistance := -1
	var bestMatch string
	for _, id := range knownIDs {
		dist := levenshteinDistance(unknown, id)
		if minDistance < 0 || dist < minDistance {
			minDistance = dist
			bestMatch = id
		}
	}

	// Only suggest if the distance is reasonable (< 5 edits)
	if minDistance < 5 {
		return fmt.Sprintf("Did you mean '%s'?", bestMatch)
	}

	if len(knownIDs) > 5 {
		return fmt.Sprintf("Known rules include: %s, ...", strings.Join(knownIDs[:5], ", "))
	}
	return fmt.Sprintf("Known rules: %s", strings.Join(knownIDs, ", "))
}

// SuggestBoldTitle suggests how to open a numbered item with a bold title.
func SuggestBoldTitle(itemText string) string {
	title, _, found := strings.Cut(itemText, ":")
	title = strings.TrimSpace(title)
	if !found || title == "" || len(title) > 60 {
		return "Start the item with a bold title followed by a colon, e.g. '**Title**: description'"
	}
	return fmt.Sprintf("Start the item with a bold title, e.g. '**%s**: ...'", title)
}

// SuggestMissingField suggests adding a required metadata field.
func SuggestMissingField(fieldName string, exampleValue string) string {
	if exampleValue != "" {
		return fmt.Sprintf("Add '%s: %s' to the metadata block", fieldName, exampleValue)
	}
	return fmt.Sprintf("Add '%s' to the metadata block", fieldName)
}

// levenshteinDistance computes the Levenshtein distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}

	len1 := len(s1)
	len2 := len(s2)

	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
	}

	for i := 0; i <= len1; i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}

			matrix[i][j] = min(
				matrix[i-1][j]+1,      // Deletion
				matrix[i][j-1]+1,      // Insertion
				matrix[i-1][j-1]+cost, // Substitution
			)
		}
	}

	return matrix[len1][len2]
}
