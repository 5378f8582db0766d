// Package places turns upstream place-search APIs into NormalizedPlace records.
// Vendor response shapes are private to this package.
package places

import (
	"context"

	"garage-advisor/internal/models"
)

// Source searches one upstream family for garages in a region.
//
// Search returns the union of every sub-query that succeeded. It fails with
// errors.ErrUpstreamUnavailable only when all sub-queries failed, and with
// errors.ErrConfiguration when the source cannot run at all.
type Source interface {
	Kind() models.SourceKind
	Search(ctx context.Context, region Region, vehicleMake, issueText string) ([]models.NormalizedPlace, error)
}
