package places

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	apperrors "garage-advisor/internal/common/errors"
	commonhttp "garage-advisor/internal/common/http"
	"garage-advisor/internal/common/logger"
	"garage-advisor/internal/models"
	"garage-advisor/internal/ranking"

	"golang.org/x/sync/errgroup"
)

const (
	googleSearchType = "car_repair"
	maxPhotoRefs     = 3
)

var googleDetailFields = []string{
	"name", "formatted_address", "formatted_phone_number",
	"website", "rating", "user_ratings_total", "reviews",
	"opening_hours", "photos", "geometry",
}

// GoogleConfig configures the Places web-service source.
type GoogleConfig struct {
	BaseURL      string
	APIKey       string
	DetailsLimit int
	Language     string
}

// GoogleSource queries Places Text Search and enriches a shortlist with Place Details.
type GoogleSource struct {
	cfg    GoogleConfig
	client *commonhttp.Client
	fan    *fanOut
	logger logger.Logger
}

func NewGoogleSource(cfg GoogleConfig, client *commonhttp.Client, opts FanOutOptions, log logger.Logger) *GoogleSource {
	if cfg.DetailsLimit <= 0 {
		cfg.DetailsLimit = 15
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	log = log.Component("places.google")
	return &GoogleSource{
		cfg:    cfg,
		client: client,
		fan:    newFanOut(models.SourceGoogle, opts, log),
		logger: log,
	}
}

func (s *GoogleSource) Kind() models.SourceKind { return models.SourceGoogle }

// Validate reports a configuration error when the API key is missing.
func (s *GoogleSource) Validate() error {
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return apperrors.NewConfigurationError("Google Maps API key is not configured")
	}
	return nil
}

func (s *GoogleSource) Search(ctx context.Context, region Region, vehicleMake, issueText string) ([]models.NormalizedPlace, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	queries := GoogleQueries(region, vehicleMake, issueText)
	subQueries := make([]subQuery, 0, len(queries))
	for _, q := range queries {
		subQueries = append(subQueries, subQuery{
			upstream: "textsearch",
			label:    q,
			cacheKey: CacheKey(models.SourceGoogle, "textsearch", region.Name, q),
			run: func(ctx context.Context) ([]models.NormalizedPlace, error) {
				return s.textSearch(ctx, q, region)
			},
		})
	}

	summaries, err := s.fan.run(ctx, subQueries)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.NormalizedPlace, 0, len(summaries))
	for _, p := range ranking.Dedupe(summaries) {
		if ranking.IsAutomotive(p) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) > s.cfg.DetailsLimit {
		candidates = candidates[:s.cfg.DetailsLimit]
	}

	detailed := s.enrich(ctx, candidates)

	s.logger.Info("google search completed", map[string]interface{}{
		"region":     region.Name,
		"queries":    len(queries),
		"summaries":  len(summaries),
		"candidates": len(detailed),
	})
	return detailed, nil
}

// enrich fetches details concurrently. A failed lookup keeps the summary record.
func (s *GoogleSource) enrich(ctx context.Context, candidates []models.NormalizedPlace) []models.NormalizedPlace {
	out := make([]models.NormalizedPlace, len(candidates))
	copy(out, candidates)

	var mu sync.Mutex
	failed := 0

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.fan.opts.MaxConcurrency)
	for i := range out {
		eg.Go(func() error {
			detailCtx, cancel := context.WithTimeout(egCtx, s.fan.opts.Timeout)
			defer cancel()

			detail, err := s.details(detailCtx, out[i].ID)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				s.logger.Warn("place details failed, keeping summary", map[string]interface{}{
					"placeId": out[i].ID,
					"name":    out[i].Name,
					"error":   err.Error(),
				})
				return nil
			}
			out[i] = mergeDetails(out[i], detail)
			return nil
		})
	}
	_ = eg.Wait()

	if failed > 0 {
		s.logger.Debug("details enrichment degraded", map[string]interface{}{
			"failed": failed,
			"total":  len(out),
		})
	}
	return out
}

func (s *GoogleSource) textSearch(ctx context.Context, query string, region Region) ([]models.NormalizedPlace, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("location", fmt.Sprintf("%g,%g", region.Center.Lat, region.Center.Lng))
	params.Set("radius", strconv.Itoa(region.RadiusMeters))
	params.Set("type", googleSearchType)
	params.Set("key", s.cfg.APIKey)
	if s.cfg.Language != "" {
		params.Set("language", s.cfg.Language)
	}

	var resp googleTextSearchResponse
	if err := s.client.GetJSON(ctx, s.cfg.BaseURL+"/textsearch/json", params, &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return []models.NormalizedPlace{}, nil
	default:
		return nil, &googleStatusError{Status: resp.Status, Message: resp.ErrorMessage}
	}

	out := make([]models.NormalizedPlace, 0, len(resp.Results))
	for _, gp := range resp.Results {
		if p, ok := gp.normalize(); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *GoogleSource) details(ctx context.Context, placeID string) (googlePlace, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", strings.Join(googleDetailFields, ","))
	params.Set("key", s.cfg.APIKey)
	if s.cfg.Language != "" {
		params.Set("language", s.cfg.Language)
	}

	var resp googleDetailsResponse
	if err := s.client.GetJSON(ctx, s.cfg.BaseURL+"/details/json", params, &resp); err != nil {
		return googlePlace{}, err
	}
	if resp.Status != "OK" {
		return googlePlace{}, &googleStatusError{Status: resp.Status, Message: resp.ErrorMessage}
	}
	return resp.Result, nil
}

// mergeDetails overlays non-empty detail fields onto the summary record.
func mergeDetails(summary models.NormalizedPlace, d googlePlace) models.NormalizedPlace {
	out := summary
	if d.Name != "" {
		out.Name = d.Name
	}
	if d.FormattedAddress != "" {
		out.FormattedAddress = d.FormattedAddress
	}
	if d.FormattedPhoneNumber != "" {
		out.Phone = d.FormattedPhoneNumber
	}
	if d.Website != "" {
		out.Website = d.Website
	}
	if d.Rating != nil {
		out.Rating = d.Rating
	}
	if d.UserRatingsTotal != nil {
		out.ReviewCount = d.UserRatingsTotal
	}
	if d.Geometry != nil && d.Geometry.Location != nil {
		out.Coordinates = models.Coordinates{Lat: d.Geometry.Location.Lat, Lng: d.Geometry.Location.Lng}
	}
	if d.OpeningHours != nil {
		if d.OpeningHours.OpenNow != nil {
			out.OpenNow = d.OpeningHours.OpenNow
		}
		if len(d.OpeningHours.WeekdayText) > 0 {
			out.WeekdayHours = d.OpeningHours.WeekdayText
		}
	}
	if refs := d.photoRefs(); len(refs) > 0 {
		out.PhotoRefs = refs
	}
	if len(d.Reviews) > 0 {
		out.Reviews = d.reviews()
	}
	return out
}

// --- vendor shapes ---

type googleLatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googlePlace struct {
	PlaceID              string   `json:"place_id"`
	Name                 string   `json:"name"`
	FormattedAddress     string   `json:"formatted_address"`
	Vicinity             string   `json:"vicinity"`
	Types                []string `json:"types"`
	BusinessStatus       string   `json:"business_status"`
	Rating               *float64 `json:"rating"`
	UserRatingsTotal     *int     `json:"user_ratings_total"`
	FormattedPhoneNumber string   `json:"formatted_phone_number"`
	Website              string   `json:"website"`
	Geometry             *struct {
		Location *googleLatLng `json:"location"`
	} `json:"geometry"`
	OpeningHours *struct {
		OpenNow     *bool    `json:"open_now"`
		WeekdayText []string `json:"weekday_text"`
	} `json:"opening_hours"`
	Photos []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
	Reviews []struct {
		AuthorName string  `json:"author_name"`
		Rating     float64 `json:"rating"`
		Text       string  `json:"text"`
	} `json:"reviews"`
}

type googleTextSearchResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Results      []googlePlace `json:"results"`
}

type googleDetailsResponse struct {
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message"`
	Result       googlePlace `json:"result"`
}

type googleStatusError struct {
	Status  string
	Message string
}

func (e *googleStatusError) Error() string {
	if e.Message == "" {
		return "places status " + e.Status
	}
	return fmt.Sprintf("places status %s: %s", e.Status, e.Message)
}

func (e *googleStatusError) UpstreamStatus() string { return e.Status }

// normalize drops records missing an id, a name or a location.
func (gp googlePlace) normalize() (models.NormalizedPlace, bool) {
	if gp.PlaceID == "" || gp.Name == "" || gp.Geometry == nil || gp.Geometry.Location == nil {
		return models.NormalizedPlace{}, false
	}

	status := gp.BusinessStatus
	if status == "" {
		status = models.BusinessStatusOperational
	}
	address := gp.FormattedAddress
	if address == "" {
		address = gp.Vicinity
	}

	p := models.NormalizedPlace{
		ID:               gp.PlaceID,
		Name:             gp.Name,
		Source:           models.SourceGoogle,
		Coordinates:      models.Coordinates{Lat: gp.Geometry.Location.Lat, Lng: gp.Geometry.Location.Lng},
		Categories:       gp.Types,
		BusinessStatus:   status,
		Rating:           gp.Rating,
		ReviewCount:      gp.UserRatingsTotal,
		Phone:            gp.FormattedPhoneNumber,
		Website:          gp.Website,
		FormattedAddress: address,
		PhotoRefs:        gp.photoRefs(),
		Reviews:          gp.reviews(),
	}
	if gp.OpeningHours != nil {
		p.OpenNow = gp.OpeningHours.OpenNow
		p.WeekdayHours = gp.OpeningHours.WeekdayText
	}
	return p, true
}

func (gp googlePlace) photoRefs() []string {
	var refs []string
	for _, ph := range gp.Photos {
		if ph.PhotoReference == "" {
			continue
		}
		refs = append(refs, ph.PhotoReference)
		if len(refs) == maxPhotoRefs {
			break
		}
	}
	return refs
}

func (gp googlePlace) reviews() []models.Review {
	if len(gp.Reviews) == 0 {
		return nil
	}
	out := make([]models.Review, 0, len(gp.Reviews))
	for _, r := range gp.Reviews {
		out = append(out, models.Review{Author: r.AuthorName, Rating: r.Rating, Text: r.Text})
	}
	return out
}
