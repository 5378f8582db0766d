package places

import (
	"fmt"
	"strings"
)

// issueTerm maps issue-text substrings to upstream search terms.
type issueTerm struct {
	Keywords []string
	Terms    []string
}

var issueSearchTerms = []issueTerm{
	{Keywords: []string{"engine", "motor"}, Terms: []string{"engine repair", "engine diagnostic"}},
	{Keywords: []string{"brake"}, Terms: []string{"brake repair", "brake service"}},
	{Keywords: []string{"electrical", "electric"}, Terms: []string{"electrical repair", "auto electrical"}},
	{Keywords: []string{"transmission", "gearbox"}, Terms: []string{"transmission repair", "gearbox service"}},
	{Keywords: []string{"ac", "air condition"}, Terms: []string{"ac repair", "air conditioning service"}},
	{Keywords: []string{"suspension"}, Terms: []string{"suspension repair", "shock absorber"}},
	{Keywords: []string{"body", "paint", "dent"}, Terms: []string{"body work", "auto body repair"}},
	{Keywords: []string{"oil", "maintenance"}, Terms: []string{"oil change", "car maintenance"}},
	{Keywords: []string{"tire", "tyre"}, Terms: []string{"tire service", "wheel alignment"}},
}

var (
	googleBaseTerms = []string{"car repair", "automotive service", "auto garage", "car service center"}
	googleMakeTerms = []string{"%s service", "%s repair", "%s specialist"}
)

const (
	maxGoogleQueries    = 6
	maxNominatimQueries = 4
)

// IssueSearchTerms returns the search terms for every table row whose
// keyword occurs in the lower-cased issue text, in table order.
func IssueSearchTerms(issueText string) []string {
	issue := strings.ToLower(issueText)
	var out []string
	seen := make(map[string]bool)
	for _, row := range issueSearchTerms {
		if !containsAny(issue, row.Keywords) {
			continue
		}
		for _, term := range row.Terms {
			if !seen[term] {
				seen[term] = true
				out = append(out, term)
			}
		}
	}
	return out
}

// GoogleQueries builds the text-search queries for the commercial source.
func GoogleQueries(region Region, vehicleMake, issueText string) []string {
	suffix := locationSuffix(region)
	var queries []string

	for _, base := range googleBaseTerms[:2] {
		for _, makeTerm := range googleMakeTerms[:2] {
			queries = append(queries, fmt.Sprintf("%s %s %s", base, fmt.Sprintf(makeTerm, vehicleMake), suffix))
		}
	}

	terms := IssueSearchTerms(issueText)
	if len(terms) > 2 {
		terms = terms[:2]
	}
	for _, term := range terms {
		queries = append(queries,
			fmt.Sprintf("%s %s %s", vehicleMake, term, suffix),
			fmt.Sprintf("car %s service %s", term, suffix),
		)
	}

	if len(queries) > maxGoogleQueries {
		queries = queries[:maxGoogleQueries]
	}
	return queries
}

// NominatimQueries builds the free-text geocoder queries for the open-data source.
func NominatimQueries(region Region, vehicleMake string) []string {
	suffix := locationSuffix(region)
	queries := []string{
		"car repair " + suffix,
		"auto service " + suffix,
		fmt.Sprintf("%s service %s", vehicleMake, suffix),
		"garage " + suffix,
	}
	if len(queries) > maxNominatimQueries {
		queries = queries[:maxNominatimQueries]
	}
	return queries
}

// OverpassQuery builds the radius query for automotive OSM elements.
func OverpassQuery(region Region, timeoutSeconds int) string {
	around := fmt.Sprintf("(around:%d,%g,%g)", region.RadiusMeters, region.Center.Lat, region.Center.Lng)
	filters := []string{
		`nwr["shop"="car_repair"]`,
		`nwr["shop"="car"]`,
		`nwr["shop"="car_parts"]`,
		`nwr["amenity"="car_wash"]`,
		`nwr["craft"="car_repair"]`,
		`nwr["amenity"="fuel"]["shop"]`,
		`nwr["name"~"garage|workshop|service|repair|auto|car",i]`,
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", timeoutSeconds)
	for _, f := range filters {
		fmt.Fprintf(&b, "  %s%s;\n", f, around)
	}
	b.WriteString(");\nout center meta;")
	return b.String()
}

func locationSuffix(region Region) string {
	if region.Country == "" {
		return region.Name
	}
	return region.Name + " " + region.Country
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
