package ui

import (
	"sort"
	"strings"
)

// MaxSuggestions caps the names returned by FindSimilar.
const MaxSuggestions = 3

// FindSimilar returns up to MaxSuggestions candidates within maxDistance
// edits of target, closest first. Matching ignores case.
//
// Example:
//
//	FindSimilar("Persn", []string{"Person", "Pet", "Team"}, 2)
//	// Returns: ["Person"]
func FindSimilar(target string, candidates []string, maxDistance int) []string {
	type match struct {
		value    string
		distance int
	}

	var matches []match
	lower := strings.ToLower(target)
	for _, candidate := range candidates {
		if d := LevenshteinDistance(lower, strings.ToLower(candidate)); d <= maxDistance {
			matches = append(matches, match{candidate, d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	out := make([]string, 0, MaxSuggestions)
	for i := 0; i < len(matches) && i < MaxSuggestions; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// LevenshteinDistance returns the minimum number of single-character edits
// turning s1 into s2.
func LevenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}
