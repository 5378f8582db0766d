package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// DiagnosisRequest is forwarded verbatim to the diagnosis endpoint.
type DiagnosisRequest struct {
	CarMake          string   `json:"carMake"`
	CarModel         string   `json:"carModel"`
	CarYear          YearText `json:"carYear"`
	IssueDescription string   `json:"issueDescription"`
	Language         string   `json:"language,omitempty"`
}

// YearText decodes from a JSON string or number and always encodes as a string.
type YearText string

func (y *YearText) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = YearText(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*y = YearText(strconv.FormatInt(i, 10))
		return nil
	}
	*y = YearText(n.String())
	return nil
}

// SectionKind classifies a "## Heading" block of the diagnosis text.
type SectionKind string

const (
	SectionSummary  SectionKind = "summary"
	SectionCauses   SectionKind = "causes"
	SectionSeverity SectionKind = "severity"
	SectionCost     SectionKind = "cost"
	SectionActions  SectionKind = "actions"
	SectionParts    SectionKind = "parts"
	SectionOther    SectionKind = "other"
)

type DiagnosisSection struct {
	Title string      `json:"title"`
	Kind  SectionKind `json:"kind"`
	Body  string      `json:"body"`
}

type Diagnosis struct {
	Text     string             `json:"diagnosis"`
	Sections []DiagnosisSection `json:"sections"`
}
