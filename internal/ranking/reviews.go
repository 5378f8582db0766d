package ranking

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"garage-advisor/internal/models"
)

const (
	maxHighlights        = 3
	minHighlightRunes    = 50
	highlightExcerptRune = 100

	makeMentionWeight = 0.5
	issueMatchWeight  = 0.3
)

type reviewAnalysis struct {
	makeScore  float64
	issueScore float64
	highlights []string
}

// analyzeReviews credits each review once for mentioning the make and once
// for matching an issue keyword. Both scores are capped at 10. Highlights
// favour make mentions, then issue matches.
func analyzeReviews(reviews []models.Review, carMake string, issueKeywords []string) reviewAnalysis {
	var (
		ra          reviewAnalysis
		makeQuotes  []string
		issueQuotes []string
	)

	for _, r := range reviews {
		text := strings.ToLower(r.Text)
		quotable := utf8.RuneCountInString(r.Text) > minHighlightRunes
		quoted := false

		if carMake != "" && strings.Contains(text, carMake) {
			ra.makeScore += r.Rating * makeMentionWeight
			if quotable {
				makeQuotes = append(makeQuotes, highlight(r))
				quoted = true
			}
		}
		if containsAny(text, issueKeywords) {
			ra.issueScore += r.Rating * issueMatchWeight
			if quotable && !quoted {
				issueQuotes = append(issueQuotes, highlight(r))
			}
		}
	}

	ra.makeScore = math.Min(ra.makeScore, maxRelevanceScore)
	ra.issueScore = math.Min(ra.issueScore, maxRelevanceScore)

	ra.highlights = make([]string, 0, maxHighlights)
	for _, q := range append(makeQuotes, issueQuotes...) {
		if len(ra.highlights) == maxHighlights {
			break
		}
		ra.highlights = append(ra.highlights, q)
	}
	return ra
}

func highlight(r models.Review) string {
	excerpt := r.Text
	if utf8.RuneCountInString(excerpt) > highlightExcerptRune {
		excerpt = string([]rune(excerpt)[:highlightExcerptRune])
	}
	return fmt.Sprintf("\"%s...\" - %s", excerpt, r.Author)
}
