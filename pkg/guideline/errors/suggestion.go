package errors

import (
	"fmt"
	"strings"
)

// SuggestName suggests the closest valid name for an unknown one.
func SuggestName(unknown string, valid []string) string {
	if len(valid) == 0 {
		return ""
	}

	minDistance := 1000
	var best string
	for _, v := range valid {
		if d := levenshteinDistance(strings.ToLower(unknown), strings.ToLower(v)); d < minDistance {
			minDistance = d
			best = v
		}
	}

	// Only suggest if the distance is reasonable
	if minDistance < 5 {
		return fmt.Sprintf("Did you mean '%s'?", best)
	}
	return fmt.Sprintf("Valid values: %s", strings.Join(valid, ", "))
}

// SuggestMissingField suggests adding a missing field with an example value.
func SuggestMissingField(field, example string) string {
	return fmt.Sprintf("Add '%s: %s'", field, example)
}

// levenshteinDistance calculates the edit distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}
