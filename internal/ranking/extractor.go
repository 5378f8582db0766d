package ranking

import (
	"fmt"
	"regexp"
	"strings"

	"garage-advisor/internal/models"
)

const (
	maxServices       = 6
	maxServiceReviews = 10
	hoursNotAvailable = "Hours not available"
	phoneNotAvailable = "N/A"
)

var dayLabel = regexp.MustCompile(`^[A-Za-z]+:\s*`)

// Attributes are the display fields derived from a place.
type Attributes struct {
	Services     []string
	WorkingHours string
	Address      string
	Phone        string
	IsOpenNow    *bool
}

// Extractor derives display attributes. The open-now estimator is injected
// so the clock used can be swapped per region.
type Extractor struct {
	defaults []string
	openNow  OpenNowEstimator
}

func NewExtractor(profile Profile, openNow OpenNowEstimator) *Extractor {
	if openNow == nil {
		openNow = WallClock{}
	}
	return &Extractor{defaults: profile.DefaultServices, openNow: openNow}
}

func (e *Extractor) Extract(p models.NormalizedPlace) Attributes {
	attrs := Attributes{
		Services:     Services(p, e.defaults),
		WorkingHours: WorkingHours(p),
		Address:      Address(p),
		Phone:        strings.TrimSpace(p.Phone),
		IsOpenNow:    p.OpenNow,
	}
	if attrs.Phone == "" {
		attrs.Phone = phoneNotAvailable
	}
	if attrs.IsOpenNow == nil {
		attrs.IsOpenNow = e.openNow.OpenNow(hoursText(p))
	}
	return attrs
}

// Services collects labels from tags, then the name, then the first ten
// reviews. The result is de-duplicated in insertion order and capped at six;
// an empty result falls back to defaults.
func Services(p models.NormalizedPlace, defaults []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(label string) {
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}

	for _, rule := range tagServices {
		for _, tag := range rule.Keywords {
			if p.HasCategory(tag) {
				add(rule.Label)
			}
		}
	}

	name := strings.ToLower(p.Name)
	for _, rule := range nameServices {
		if containsAny(name, rule.Keywords) {
			add(rule.Label)
		}
	}

	reviews := p.Reviews
	if len(reviews) > maxServiceReviews {
		reviews = reviews[:maxServiceReviews]
	}
	for _, r := range reviews {
		text := strings.ToLower(r.Text)
		for _, rule := range reviewServices {
			if containsAny(text, rule.Keywords) {
				add(rule.Label)
			}
		}
	}

	if len(out) == 0 {
		out = append(out, defaults...)
	}
	if len(out) > maxServices {
		out = out[:maxServices]
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// WorkingHours shows the first weekday line without its day label, else
// the raw hours text.
func WorkingHours(p models.NormalizedPlace) string {
	for _, line := range p.WeekdayHours {
		if strings.TrimSpace(line) != "" {
			return dayLabel.ReplaceAllString(line, "")
		}
	}
	if h := strings.TrimSpace(p.OpeningHours); h != "" {
		return h
	}
	return hoursNotAvailable
}

func Address(p models.NormalizedPlace) string {
	var parts []string
	for _, part := range p.AddressParts {
		if s := strings.TrimSpace(part); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	if a := strings.TrimSpace(p.FormattedAddress); a != "" {
		return a
	}
	return fmt.Sprintf("%.4f, %.4f", p.Coordinates.Lat, p.Coordinates.Lng)
}

func hoursText(p models.NormalizedPlace) string {
	if p.OpeningHours != "" {
		return p.OpeningHours
	}
	return strings.Join(p.WeekdayHours, "\n")
}
