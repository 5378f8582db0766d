package ranking

import (
	"fmt"
	"math"
	"strings"

	"garage-advisor/internal/models"
)

// Dedupe drops every place whose ID, or whose normalized name on a ~100m
// grid, was already seen. The first occurrence wins and order is kept.
func Dedupe(places []models.NormalizedPlace) []models.NormalizedPlace {
	out := make([]models.NormalizedPlace, 0, len(places))
	seenIDs := make(map[string]bool, len(places))
	seenKeys := make(map[string]bool, len(places))

	for _, p := range places {
		key := proximityKey(p)
		if (p.ID != "" && seenIDs[p.ID]) || seenKeys[key] {
			continue
		}
		if p.ID != "" {
			seenIDs[p.ID] = true
		}
		seenKeys[key] = true
		out = append(out, p)
	}
	return out
}

func proximityKey(p models.NormalizedPlace) string {
	name := strings.Join(strings.Fields(strings.ToLower(p.Name)), " ")
	return fmt.Sprintf("%s|%d|%d", name, gridCell(p.Coordinates.Lat), gridCell(p.Coordinates.Lng))
}

func gridCell(deg float64) int64 {
	return int64(math.Round(deg * 1000))
}
