package ranking

import "garage-advisor/internal/models"

// Profile selects which scoring signals apply to a source. Commercial data
// carries ratings and reviews; open data carries tags and names only.
type Profile struct {
	Kind models.SourceKind

	CategoryScores bool
	IssueNameScore bool
	ReviewAnalysis bool

	// RequireEligibility enables the MinRating/MinReviews filter.
	RequireEligibility bool
	MinRating          float64
	MinReviews         int

	// DefaultRating is reported when the source has no rating concept.
	DefaultRating   float64
	DefaultServices []string
}

const (
	defaultMinRating  = 3.5
	defaultMinReviews = 3
)

func CommercialProfile(minRating float64, minReviews int) Profile {
	if minRating <= 0 {
		minRating = defaultMinRating
	}
	if minReviews <= 0 {
		minReviews = defaultMinReviews
	}
	return Profile{
		Kind:               models.SourceGoogle,
		ReviewAnalysis:     true,
		RequireEligibility: true,
		MinRating:          minRating,
		MinReviews:         minReviews,
		DefaultServices:    []string{"General Repair", "Maintenance"},
	}
}

func OpenDataProfile() Profile {
	return Profile{
		Kind:            models.SourceOSM,
		CategoryScores:  true,
		IssueNameScore:  true,
		DefaultRating:   4.0,
		DefaultServices: []string{"General Service", "Maintenance"},
	}
}

// ProfileFor returns the profile matching the source kind.
func ProfileFor(kind models.SourceKind, minRating float64, minReviews int) Profile {
	if kind == models.SourceGoogle {
		return CommercialProfile(minRating, minReviews)
	}
	return OpenDataProfile()
}
