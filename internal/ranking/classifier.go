package ranking

import (
	"strings"

	"garage-advisor/internal/models"
)

// IsAutomotive reports whether the place plausibly repairs vehicles. A place
// with a known non-operational status is always rejected; otherwise either an
// allow-listed category or an automotive name keyword is enough. Fuel stations
// only count when they also carry a shop tag.
func IsAutomotive(p models.NormalizedPlace) bool {
	if p.BusinessStatus != "" && p.BusinessStatus != models.BusinessStatusOperational {
		return false
	}

	hasShop := false
	for _, c := range p.Categories {
		if strings.HasPrefix(c, "shop:") {
			hasShop = true
			break
		}
	}
	for _, c := range p.Categories {
		if automotiveCategories[c] {
			return true
		}
		if c == "amenity:fuel" && hasShop {
			return true
		}
	}

	return containsAny(strings.ToLower(p.Name), automotiveNameKeywords)
}
