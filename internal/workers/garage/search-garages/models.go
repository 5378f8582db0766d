// internal/workers/garage/search-garages/models.go
package searchgarages

import "garage-advisor/internal/models"

// Input accepts both the API names and the wizard's names for each field.
type Input = models.SearchRequestPayload

type Output struct {
	Garages     []models.RankedGarage `json:"garages"`
	ResultCount int                   `json:"resultCount"`
	NoResults   bool                  `json:"noResults"`
	Region      string                `json:"region"`
	Source      models.SourceKind     `json:"source"`
}
