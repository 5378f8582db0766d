package ranking

import (
	"math"
	"strings"

	"garage-advisor/internal/models"
)

const (
	maxVolumeScore    = 5
	maxRelevanceScore = 10
)

// Result is the outcome of scoring one place.
type Result struct {
	Total          float64
	MakeRelevance  float64
	IssueRelevance float64
	Highlights     []string
}

// Scorer computes relevance scores. It holds no mutable state.
type Scorer struct {
	profile Profile
}

func NewScorer(profile Profile) *Scorer {
	return &Scorer{profile: profile}
}

func (s *Scorer) Profile() Profile { return s.profile }

// Eligible applies the minimum rating and review-count filter. Profiles
// without the filter accept everything.
func (s *Scorer) Eligible(p models.NormalizedPlace) bool {
	if !s.profile.RequireEligibility {
		return true
	}
	if p.Rating == nil || *p.Rating < s.profile.MinRating {
		return false
	}
	return p.ReviewCount != nil && *p.ReviewCount >= s.profile.MinReviews
}

// Score is deterministic in its inputs.
func (s *Scorer) Score(p models.NormalizedPlace, vehicleMake, issueText string) Result {
	name := strings.ToLower(p.Name)
	carMake := strings.ToLower(strings.TrimSpace(vehicleMake))
	issue := strings.ToLower(issueText)

	total := baseScore(p) + nameScore(name, carMake)

	if s.profile.CategoryScores {
		for _, c := range categoryScores {
			if p.HasCategory(c.Category) {
				total += c.Score
			}
		}
	}
	if s.profile.IssueNameScore {
		for _, pair := range issueNamePairs {
			if containsAny(issue, pair.Issue) && containsAny(name, pair.Name) {
				total += 2
			}
		}
	}

	var res Result
	if s.profile.ReviewAnalysis {
		ra := analyzeReviews(p.Reviews, carMake, IssueKeywords(issue))
		total += ra.makeScore + ra.issueScore
		res.MakeRelevance = ra.makeScore
		res.IssueRelevance = ra.issueScore
		res.Highlights = ra.highlights
	} else {
		res.MakeRelevance = nameMakeRelevance(name, strings.ToLower(p.Brand), carMake)
		res.IssueRelevance = nameIssueRelevance(name, issue, Services(p, s.profile.DefaultServices))
	}
	if res.Highlights == nil {
		res.Highlights = []string{}
	}

	res.Total = round2(total)
	res.MakeRelevance = round2(res.MakeRelevance)
	res.IssueRelevance = round2(res.IssueRelevance)
	return res
}

func baseScore(p models.NormalizedPlace) float64 {
	var score float64
	if p.Rating != nil {
		score += *p.Rating * 2
	}
	if p.ReviewCount != nil {
		score += math.Min(float64(*p.ReviewCount)/10, maxVolumeScore)
	}
	return score
}

func nameScore(name, carMake string) float64 {
	var score float64
	if carMake != "" && strings.Contains(name, carMake) {
		score += 3
	}
	if containsAny(name, []string{"service", "repair"}) {
		score += 2
	}
	if containsAny(name, []string{"auto", "car"}) {
		score += 1
	}
	if containsAny(name, []string{"specialist", "center"}) {
		score += 2
	}
	return score
}

func nameMakeRelevance(name, brand, carMake string) float64 {
	switch {
	case carMake != "" && strings.Contains(name, carMake):
		return 8
	case carMake != "" && brand != "" && strings.Contains(brand, carMake):
		return 7
	case containsAny(name, []string{"specialist", "center"}):
		return 3
	default:
		return 1
	}
}

func nameIssueRelevance(name, issue string, services []string) float64 {
	score := 1.0
	for _, pair := range issueNamePairs {
		if !containsAny(issue, pair.Issue) {
			continue
		}
		if containsAny(name, pair.Name) {
			score += pair.NameRelevance
		}
		if pair.ServiceRelevance == 0 {
			continue
		}
		for _, svc := range services {
			if containsAny(strings.ToLower(svc), pair.Name) {
				score += pair.ServiceRelevance
			}
		}
	}
	return math.Min(score, maxRelevanceScore)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
