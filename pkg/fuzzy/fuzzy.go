// Package fuzzy provides string similarity scorers used to match scraped
// form-field identifiers against known field vocabularies.
package fuzzy

import (
	"strings"
)

// Scorer rates how alike two strings are, from 0 (nothing shared) to 1 (identical).
// Implementations are case-insensitive.
type Scorer interface {
	Score(a, b string) float64
}

// Match represents a matched candidate with its score
type Match struct {
	Str   string
	Score float64
}

// ForName returns the scorer registered under name, falling back to Dice
func ForName(name string) Scorer {
	switch strings.ToLower(name) {
	case "levenshtein", "lev":
		return Levenshtein{}
	default:
		return Dice{}
	}
}

// BestMatch scores query against every candidate and returns the best one.
// Ties keep the earlier candidate. ok is false when candidates is empty.
func BestMatch(s Scorer, query string, candidates []string) (Match, bool) {
	if len(candidates) == 0 {
		return Match{}, false
	}
	best := Match{Score: -1}
	for _, c := range candidates {
		score := s.Score(query, c)
		if score > best.Score {
			best = Match{Str: c, Score: score}
		}
		if score == 1 {
			break
		}
	}
	return best, true
}

// Dice scores two strings with the Sørensen-Dice coefficient over
// character bigrams (multiset intersection).
type Dice struct{}

// Score implements Scorer
func (Dice) Score(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	if string(ra) == string(rb) {
		if len(ra) == 0 {
			return 0
		}
		return 1
	}
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	pairs := make(map[[2]rune]int, len(ra))
	for i := 0; i < len(ra)-1; i++ {
		pairs[[2]rune{ra[i], ra[i+1]}]++
	}

	shared := 0
	for i := 0; i < len(rb)-1; i++ {
		p := [2]rune{rb[i], rb[i+1]}
		if pairs[p] > 0 {
			pairs[p]--
			shared++
		}
	}

	return float64(2*shared) / float64(len(ra)-1+len(rb)-1)
}

// Levenshtein scores two strings as 1 - editDistance/longerLength.
type Levenshtein struct{}

// Score implements Scorer
func (Levenshtein) Score(a, b string) float64 {
	la := strings.ToLower(a)
	lb := strings.ToLower(b)
	longest := max(len([]rune(la)), len([]rune(lb)))
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshteinDistance(la, lb))/float64(longest)
}

// levenshteinDistance counts single-rune insertions, deletions and substitutions
func levenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
