package classify

import (
	"fmt"
	"strings"
)

// HeuristicResult is the stage-one score for a page's text.
type HeuristicResult struct {
	Score   float64
	Reason  string
	Negated bool
	// Hits counts distinct matched categories; zero means the page has
	// no food language at all.
	Hits int
}

// ScoreText scans the text against the weighted keyword categories. The
// score is the strongest matched category's weight plus a small bonus per
// additional category, capped at 1. A negation phrase zeroes everything.
func ScoreText(text string) HeuristicResult {
	lower := strings.ToLower(text)

	for _, neg := range negationPhrases {
		if strings.Contains(lower, neg) {
			return HeuristicResult{
				Score:   0,
				Reason:  fmt.Sprintf("negation phrase %q", neg),
				Negated: true,
			}
		}
	}

	var (
		best      float64
		bestMatch string
		hits      int
	)
	for _, cat := range categories {
		phrase := firstMatch(lower, cat.phrases)
		if phrase == "" {
			continue
		}
		hits++
		if cat.weight > best {
			best = cat.weight
			bestMatch = fmt.Sprintf("matched %s: %q", cat.name, phrase)
		}
	}

	if hits == 0 {
		return HeuristicResult{Score: 0, Reason: "no food keywords"}
	}

	score := best + 0.05*float64(hits-1)
	if score > 1 {
		score = 1
	}
	return HeuristicResult{Score: score, Reason: bestMatch, Hits: hits}
}

func firstMatch(lower string, phrases []string) string {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return p
		}
	}
	return ""
}
