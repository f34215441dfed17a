package field

import (
	"strings"

	"github.com/bastiangx/fillserve/pkg/fuzzy"
	"github.com/charmbracelet/log"
)

// Default thresholds for accepting a fuzzy match
const (
	DefaultThreshold     = 0.7
	DefaultWeakThreshold = 0.3
)

// Classifier maps element descriptors to field types.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	scorer        fuzzy.Scorer
	patterns      []typePatterns
	threshold     float64
	weakThreshold float64
}

// candidate is the running best across all phases
type candidate struct {
	typ   Type
	score float64
	str   string
}

// better reports whether (score, str) beats the current best; equal scores
// prefer the longer matched string.
func (c candidate) better(score float64, str string) bool {
	if score != c.score {
		return score > c.score
	}
	return len(str) > len(c.str)
}

// NewClassifier creates a classifier with the given scorer and thresholds.
// A nil scorer selects bigram Dice.
func NewClassifier(scorer fuzzy.Scorer, threshold, weakThreshold float64) *Classifier {
	if scorer == nil {
		scorer = fuzzy.Dice{}
	}
	return &Classifier{
		scorer:        scorer,
		patterns:      defaultPatterns,
		threshold:     threshold,
		weakThreshold: weakThreshold,
	}
}

// DefaultClassifier uses Dice scoring with the default thresholds
func DefaultClassifier() *Classifier {
	return NewClassifier(fuzzy.Dice{}, DefaultThreshold, DefaultWeakThreshold)
}

// Classify returns the best-guess field type for d. ok is false when
// nothing matched strongly enough.
func (c *Classifier) Classify(d Descriptor) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(d.InputType)) {
	case "email":
		return Email, true
	case "tel":
		return Phone, true
	}

	tokens := Tokens(d)
	if len(tokens) == 0 {
		return "", false
	}

	best := candidate{score: -1}

	// contiguous joins of two or more tokens
	for i := 0; i < len(tokens); i++ {
		var b strings.Builder
		b.WriteString(tokens[i])
		for j := i + 1; j < len(tokens); j++ {
			b.WriteString(tokens[j])
			joined := b.String()
			if c.consider(&best, joined) {
				log.Debugf("classify: join %q -> %s", joined, best.typ)
				return best.typ, true
			}
		}
	}

	// whole tokens
	for _, tok := range tokens {
		if c.consider(&best, tok) {
			log.Debugf("classify: token %q -> %s", tok, best.typ)
			return best.typ, true
		}
	}

	// camelCase pieces; a perfect piece does not end the search
	for _, tok := range tokens {
		parts := splitCamel(tok)
		if len(parts) < 2 {
			continue
		}
		for _, part := range parts {
			c.consider(&best, part)
		}
	}

	if best.score > c.threshold {
		log.Debugf("classify: best %q -> %s (%.2f)", best.str, best.typ, best.score)
		return best.typ, true
	}

	if best.score > c.weakThreshold {
		for _, tok := range tokens {
			lower := strings.ToLower(tok)
			if strings.Contains(lower, "email") {
				return Email, true
			}
			if strings.Contains(lower, "phone") {
				return Phone, true
			}
		}
	}

	log.Debugf("classify: no match (best %q %.2f)", best.str, best.score)
	return "", false
}

// consider scores s against every type and folds it into best.
// It returns true when s is a perfect match.
func (c *Classifier) consider(best *candidate, s string) bool {
	if s == "" {
		return false
	}
	for _, tp := range c.patterns {
		m, ok := fuzzy.BestMatch(c.scorer, s, tp.Patterns)
		if !ok {
			continue
		}
		if best.better(m.Score, s) {
			*best = candidate{typ: tp.Type, score: m.Score, str: s}
		}
		if m.Score >= 1 {
			*best = candidate{typ: tp.Type, score: m.Score, str: s}
			return true
		}
	}
	return false
}
