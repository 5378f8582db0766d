package diagnosis

import (
	"strings"

	"garage-advisor/internal/models"
)

const sectionMarker = "##"

type sectionRule struct {
	keywords []string
	kind     models.SectionKind
}

// Checked in order; the first matching title keyword wins.
var sectionRules = []sectionRule{
	{keywords: []string{"summary", "ملخص"}, kind: models.SectionSummary},
	{keywords: []string{"causes", "الأسباب"}, kind: models.SectionCauses},
	{keywords: []string{"severity", "الخطورة"}, kind: models.SectionSeverity},
	{keywords: []string{"cost", "التكلفة"}, kind: models.SectionCost},
	{keywords: []string{"actions", "recommended", "الإجراءات"}, kind: models.SectionActions},
	{keywords: []string{"parts", "القطع"}, kind: models.SectionParts},
}

// ParseSections splits diagnosis text on "##". The first line of each block
// is its title and the remaining lines its body. Blank blocks are dropped.
func ParseSections(text string) []models.DiagnosisSection {
	sections := make([]models.DiagnosisSection, 0, 6)
	for _, block := range strings.Split(text, sectionMarker) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		title, body, _ := strings.Cut(block, "\n")
		title = strings.TrimSpace(title)
		sections = append(sections, models.DiagnosisSection{
			Title: title,
			Kind:  SectionKindOf(title),
			Body:  strings.TrimSpace(body),
		})
	}
	return sections
}

func SectionKindOf(title string) models.SectionKind {
	lower := strings.ToLower(title)
	for _, rule := range sectionRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.kind
			}
		}
	}
	return models.SectionOther
}
