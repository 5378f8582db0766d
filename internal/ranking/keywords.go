package ranking

import "strings"

// keywordRule maps any of Keywords, found as a lower-case substring, to Label.
type keywordRule struct {
	Keywords []string
	Label    string
}

var (
	automotiveCategories = map[string]bool{
		"car_repair":        true,
		"car_dealer":        true,
		"car_wash":          true,
		"gas_station":       true,
		"establishment":     true,
		"point_of_interest": true,
		"shop:car_repair":   true,
		"shop:car":          true,
		"shop:car_parts":    true,
		"amenity:car_wash":  true,
		"craft:car_repair":  true,
	}

	automotiveNameKeywords = []string{
		"auto", "car", "garage", "service", "repair", "workshop",
		"maintenance", "motor", "automotive", "vehicle", "tire", "tyre",
	}
)

// Services derived from open-data tags, in table order.
var tagServices = []keywordRule{
	{Keywords: []string{"shop:car_repair"}, Label: "General Repair"},
	{Keywords: []string{"shop:car"}, Label: "Car Sales"},
	{Keywords: []string{"shop:car_parts"}, Label: "Parts Sales"},
	{Keywords: []string{"amenity:car_wash"}, Label: "Car Wash"},
	{Keywords: []string{"amenity:fuel"}, Label: "Fuel Station"},
	{Keywords: []string{"craft:car_repair"}, Label: "Car Repair"},
}

var nameServices = []keywordRule{
	{Keywords: []string{"service"}, Label: "General Service"},
	{Keywords: []string{"repair"}, Label: "Repair Service"},
	{Keywords: []string{"maintenance"}, Label: "Maintenance"},
	{Keywords: []string{"body"}, Label: "Body Work"},
	{Keywords: []string{"paint"}, Label: "Paint Service"},
	{Keywords: []string{"tire", "tyre"}, Label: "Tire Service"},
	{Keywords: []string{"oil"}, Label: "Oil Change"},
	{Keywords: []string{"brake"}, Label: "Brake Service"},
	{Keywords: []string{"engine"}, Label: "Engine Repair"},
	{Keywords: []string{"electrical"}, Label: "Electrical Work"},
	{Keywords: []string{"ac", "air condition"}, Label: "AC Service"},
}

var reviewServices = []keywordRule{
	{Keywords: []string{"engine"}, Label: "Engine Repair"},
	{Keywords: []string{"brake"}, Label: "Brake Service"},
	{Keywords: []string{"electrical"}, Label: "Electrical Work"},
	{Keywords: []string{"ac", "air condition"}, Label: "AC Service"},
	{Keywords: []string{"transmission"}, Label: "Transmission Repair"},
	{Keywords: []string{"oil change"}, Label: "Oil Change"},
}

// issueReviewKeywords lists, per issue trigger, the words searched for in review text.
var issueReviewKeywords = []struct {
	Triggers []string
	Words    []string
}{
	{Triggers: []string{"engine"}, Words: []string{"engine", "motor", "diagnostic"}},
	{Triggers: []string{"brake"}, Words: []string{"brake", "braking", "stopping"}},
	{Triggers: []string{"electrical"}, Words: []string{"electrical", "electric", "wiring", "battery"}},
	{Triggers: []string{"transmission"}, Words: []string{"transmission", "gearbox", "gear", "shifting"}},
	{Triggers: []string{"ac", "air condition"}, Words: []string{"ac", "air conditioning", "cooling"}},
	{Triggers: []string{"suspension"}, Words: []string{"suspension", "shock", "absorber"}},
	{Triggers: []string{"oil"}, Words: []string{"oil", "change", "maintenance"}},
	{Triggers: []string{"tire", "tyre"}, Words: []string{"tire", "tyre", "wheel", "alignment"}},
}

var genericReviewKeywords = []string{"service", "repair", "fix", "maintenance", "professional", "quality"}

// issueNamePair scores a place whose name matches an issue the user described.
type issueNamePair struct {
	Issue []string
	Name  []string
	// NameRelevance is the issue-relevance bonus for a name match.
	NameRelevance float64
	// ServiceRelevance is the per-service bonus; zero disables the service check.
	ServiceRelevance float64
}

var issueNamePairs = []issueNamePair{
	{Issue: []string{"engine"}, Name: []string{"engine"}, NameRelevance: 3, ServiceRelevance: 2},
	{Issue: []string{"brake"}, Name: []string{"brake"}, NameRelevance: 3, ServiceRelevance: 2},
	{Issue: []string{"electrical"}, Name: []string{"electrical"}, NameRelevance: 3, ServiceRelevance: 2},
	{Issue: []string{"tire", "tyre"}, Name: []string{"tire", "tyre"}, NameRelevance: 3},
	{Issue: []string{"oil"}, Name: []string{"oil"}, NameRelevance: 2},
}

var categoryScores = []struct {
	Category string
	Score    float64
}{
	{Category: "shop:car_repair", Score: 3},
	{Category: "craft:car_repair", Score: 2.5},
	{Category: "shop:car", Score: 1.5},
}

// IssueKeywords returns the review words relevant to the issue text, followed
// by the generic service words.
func IssueKeywords(issueText string) []string {
	issue := strings.ToLower(issueText)
	var out []string
	for _, row := range issueReviewKeywords {
		if containsAny(issue, row.Triggers) {
			out = append(out, row.Words...)
		}
	}
	return append(out, genericReviewKeywords...)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}
