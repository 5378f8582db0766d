// internal/models/garage.go
package models

import "strings"

// SourceKind identifies which place source produced a record.
type SourceKind string

const (
	SourceGoogle SourceKind = "google"
	SourceOSM    SourceKind = "osm"
)

const BusinessStatusOperational = "OPERATIONAL"

// SearchRequest is one garage search. It accepts the wizard's field names
// (emirate, carMake, issue) as aliases when decoded through Normalize.
type SearchRequest struct {
	Region      string `json:"region"`
	VehicleMake string `json:"vehicleMake"`
	IssueText   string `json:"issueText"`
}

// SearchRequestPayload is the wire shape accepted by the API and job workers.
type SearchRequestPayload struct {
	Region      string `json:"region,omitempty"`
	Emirate     string `json:"emirate,omitempty"`
	VehicleMake string `json:"vehicleMake,omitempty"`
	CarMake     string `json:"carMake,omitempty"`
	IssueText   string `json:"issueText,omitempty"`
	Issue       string `json:"issue,omitempty"`
}

// Normalize folds alias fields into a SearchRequest and trims whitespace.
func (p SearchRequestPayload) Normalize() SearchRequest {
	return SearchRequest{
		Region:      strings.TrimSpace(firstNonEmpty(p.Region, p.Emirate)),
		VehicleMake: strings.TrimSpace(firstNonEmpty(p.VehicleMake, p.CarMake)),
		IssueText:   strings.TrimSpace(firstNonEmpty(p.IssueText, p.Issue)),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Review is one customer review carried by the commercial source.
type Review struct {
	Author string  `json:"author"`
	Rating float64 `json:"rating"`
	Text   string  `json:"text"`
}

// NormalizedPlace is the source-agnostic candidate produced by a place source.
// Categories hold plain place types ("car_repair") for the commercial source
// and "key:value" tags ("shop:car_repair") for open data.
type NormalizedPlace struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Source           SourceKind  `json:"source"`
	Coordinates      Coordinates `json:"coordinates"`
	Categories       []string    `json:"categories,omitempty"`
	BusinessStatus   string      `json:"businessStatus,omitempty"`
	Rating           *float64    `json:"rating,omitempty"`
	ReviewCount      *int        `json:"reviewCount,omitempty"`
	Phone            string      `json:"phone,omitempty"`
	Website          string      `json:"website,omitempty"`
	FormattedAddress string      `json:"formattedAddress,omitempty"`
	AddressParts     []string    `json:"addressParts,omitempty"`
	WeekdayHours     []string    `json:"weekdayHours,omitempty"`
	OpeningHours     string      `json:"openingHours,omitempty"`
	OpenNow          *bool       `json:"openNow,omitempty"`
	Brand            string      `json:"brand,omitempty"`
	Reviews          []Review    `json:"reviews,omitempty"`
	PhotoRefs        []string    `json:"photoRefs,omitempty"`
}

// HasCategory reports whether the place carries the exact category.
func (p NormalizedPlace) HasCategory(category string) bool {
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// RankedGarage is the scored, UI-ready output record.
type RankedGarage struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Region           string      `json:"region"`
	Rating           float64     `json:"rating"`
	ReviewCount      int         `json:"reviewCount"`
	Phone            string      `json:"phone"`
	Website          string      `json:"website,omitempty"`
	Address          string      `json:"address"`
	WorkingHours     string      `json:"workingHours"`
	Coordinates      Coordinates `json:"coordinates"`
	RelevanceScore   float64     `json:"relevanceScore"`
	ReviewHighlights []string    `json:"reviewHighlights"`
	Services         []string    `json:"services"`
	MakeRelevance    float64     `json:"makeRelevance"`
	IssueRelevance   float64     `json:"issueRelevance"`
	Source           SourceKind  `json:"source"`
	PhotoRefs        []string    `json:"photoRefs,omitempty"`
	IsOpenNow        *bool       `json:"isOpenNow,omitempty"`
}

// Float64 and Int return pointers for optional fields.
func Float64(v float64) *float64 { return &v }

func Int(v int) *int { return &v }

func Bool(v bool) *bool { return &v }
