package command

import "strings"

// FuzzyThreshold is the minimum score (out of 100) a candidate must reach
// to be considered a match (spec §4.8).
const FuzzyThreshold = 25

// Score rates how well query identifies candidate, highest-wins, per spec
// §4.8's fuzzy matching rules:
//
//   - Exact match (case-insensitive): 100.
//   - Substring: 80.
//   - Otherwise, per whitespace-separated query token, the best score
//     against any single candidate word (prefix: 70, substring: 50,
//     in-order subsequence: 30), averaged across all query tokens. The
//     result is 0 unless every token matched something.
func Score(query, candidate string) int {
	q := strings.ToLower(strings.TrimSpace(query))
	c := strings.ToLower(strings.TrimSpace(candidate))
	if q == "" || c == "" {
		return 0
	}
	if q == c {
		return 100
	}
	if strings.Contains(c, q) {
		return 80
	}

	tokens := strings.Fields(q)
	words := strings.Fields(c)
	if len(tokens) == 0 || len(words) == 0 {
		return 0
	}

	total := 0
	for _, tok := range tokens {
		best := 0
		for _, word := range words {
			if s := wordScore(tok, word); s > best {
				best = s
			}
		}
		if best == 0 {
			return 0
		}
		total += best
	}
	return total / len(tokens)
}

func wordScore(token, word string) int {
	switch {
	case strings.HasPrefix(word, token):
		return 70
	case strings.Contains(word, token):
		return 50
	case isSubsequence(token, word):
		return 30
	default:
		return 0
	}
}

// isSubsequence reports whether every rune of s appears in t in order,
// not necessarily contiguously.
func isSubsequence(s, t string) bool {
	i := 0
	runes := []rune(s)
	if len(runes) == 0 {
		return false
	}
	for _, r := range t {
		if i < len(runes) && runes[i] == r {
			i++
		}
	}
	return i == len(runes)
}

// Candidate pairs a display name with arbitrary caller data, letting
// FindBest return whichever candidate matched.
type Candidate struct {
	Name string
	Data interface{}
}

// FindBest scores query against every candidate and returns the
// highest-scoring one at or above FuzzyThreshold. Ties are broken by
// earliest position in candidates.
func FindBest(query string, candidates []Candidate) (Candidate, int, bool) {
	bestIdx := -1
	bestScore := 0
	for i, cand := range candidates {
		s := Score(query, cand.Name)
		if s > bestScore {
			bestScore = s
			bestIdx = i
		}
	}
	if bestIdx < 0 || bestScore < FuzzyThreshold {
		return Candidate{}, 0, false
	}
	return candidates[bestIdx], bestScore, true
}
