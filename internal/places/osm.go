package places

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	commonhttp "garage-advisor/internal/common/http"
	"garage-advisor/internal/common/logger"
	"garage-advisor/internal/models"
)

const overpassTimeoutSeconds = 25

// OSMConfig configures the open-data source.
type OSMConfig struct {
	OverpassURL    string
	NominatimURL   string
	NominatimLimit int
}

// OSMSource combines one Overpass radius query with Nominatim free-text lookups.
type OSMSource struct {
	cfg    OSMConfig
	client *commonhttp.Client
	fan    *fanOut
	logger logger.Logger
}

func NewOSMSource(cfg OSMConfig, client *commonhttp.Client, opts FanOutOptions, log logger.Logger) *OSMSource {
	if cfg.NominatimLimit <= 0 {
		cfg.NominatimLimit = 10
	}
	log = log.Component("places.osm")
	return &OSMSource{
		cfg:    cfg,
		client: client,
		fan:    newFanOut(models.SourceOSM, opts, log),
		logger: log,
	}
}

func (s *OSMSource) Kind() models.SourceKind { return models.SourceOSM }

func (s *OSMSource) Search(ctx context.Context, region Region, vehicleMake, issueText string) ([]models.NormalizedPlace, error) {
	overpass := OverpassQuery(region, overpassTimeoutSeconds)
	subQueries := []subQuery{{
		upstream: "overpass",
		label:    fmt.Sprintf("around %dm of %s", region.RadiusMeters, region.Name),
		cacheKey: CacheKey(models.SourceOSM, "overpass", overpass),
		run: func(ctx context.Context) ([]models.NormalizedPlace, error) {
			return s.overpass(ctx, overpass)
		},
	}}

	for _, q := range NominatimQueries(region, vehicleMake) {
		subQueries = append(subQueries, subQuery{
			upstream: "nominatim",
			label:    q,
			cacheKey: CacheKey(models.SourceOSM, "nominatim", q),
			run: func(ctx context.Context) ([]models.NormalizedPlace, error) {
				return s.nominatim(ctx, q)
			},
		})
	}

	places, err := s.fan.run(ctx, subQueries)
	if err != nil {
		return nil, err
	}

	s.logger.Info("osm search completed", map[string]interface{}{
		"region":     region.Name,
		"subQueries": len(subQueries),
		"places":     len(places),
	})
	return places, nil
}

func (s *OSMSource) overpass(ctx context.Context, query string) ([]models.NormalizedPlace, error) {
	var resp overpassResponse
	if err := s.client.PostForm(ctx, s.cfg.OverpassURL, url.Values{"data": {query}}, &resp); err != nil {
		return nil, fmt.Errorf("overpass: %w", err)
	}

	out := make([]models.NormalizedPlace, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		if p, ok := el.normalize(); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *OSMSource) nominatim(ctx context.Context, query string) ([]models.NormalizedPlace, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(s.cfg.NominatimLimit))
	params.Set("addressdetails", "1")
	params.Set("extratags", "1")

	var resp []nominatimResult
	if err := s.client.GetJSON(ctx, s.cfg.NominatimURL, params, &resp); err != nil {
		return nil, fmt.Errorf("nominatim: %w", err)
	}

	out := make([]models.NormalizedPlace, 0, len(resp))
	for _, r := range resp {
		if p, ok := r.normalize(); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- vendor shapes ---

type overpassLatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *overpassLatLon   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type nominatimResult struct {
	OSMType     string            `json:"osm_type"`
	OSMID       int64             `json:"osm_id"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Class       string            `json:"class"`
	Type        string            `json:"type"`
	Address     map[string]string `json:"address"`
	ExtraTags   map[string]string `json:"extratags"`
}

func osmID(elementType string, id int64) string {
	return fmt.Sprintf("osm_%s_%d", elementType, id)
}

// normalize keeps tagged elements with a name, shop, amenity or craft and a position.
// Ways and relations take their coordinates from the computed center.
func (el overpassElement) normalize() (models.NormalizedPlace, bool) {
	if len(el.Tags) == 0 {
		return models.NormalizedPlace{}, false
	}
	if firstTag(el.Tags, "name", "shop", "amenity", "craft") == "" {
		return models.NormalizedPlace{}, false
	}

	var coords models.Coordinates
	switch {
	case el.Center != nil:
		coords = models.Coordinates{Lat: el.Center.Lat, Lng: el.Center.Lon}
	case el.Lat != nil && el.Lon != nil:
		coords = models.Coordinates{Lat: *el.Lat, Lng: *el.Lon}
	default:
		return models.NormalizedPlace{}, false
	}

	return placeFromTags(osmID(el.Type, el.ID), coords, el.Tags, ""), true
}

// normalize keeps results with coordinates and a display name. The object's
// class/type pair ("shop"/"car_repair") is folded into its tags.
func (r nominatimResult) normalize() (models.NormalizedPlace, bool) {
	if r.DisplayName == "" || r.Lat == "" || r.Lon == "" {
		return models.NormalizedPlace{}, false
	}
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return models.NormalizedPlace{}, false
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return models.NormalizedPlace{}, false
	}

	tags := make(map[string]string, len(r.ExtraTags)+4)
	for k, v := range r.ExtraTags {
		tags[k] = v
	}
	if r.Class != "" && r.Type != "" {
		if _, exists := tags[r.Class]; !exists {
			tags[r.Class] = r.Type
		}
	}
	if tags["name"] == "" {
		tags["name"] = strings.TrimSpace(strings.Split(r.DisplayName, ",")[0])
	}
	if r.Address != nil {
		if road := r.Address["road"]; road != "" && tags["addr:street"] == "" {
			tags["addr:street"] = road
		}
		if city := firstTag(r.Address, "city", "town", "village"); city != "" && tags["addr:city"] == "" {
			tags["addr:city"] = city
		}
	}

	return placeFromTags(osmID(r.OSMType, r.OSMID), models.Coordinates{Lat: lat, Lng: lon}, tags, r.DisplayName), true
}

var osmCategoryKeys = []string{"shop", "amenity", "craft"}

func placeFromTags(id string, coords models.Coordinates, tags map[string]string, displayName string) models.NormalizedPlace {
	var categories []string
	for _, key := range osmCategoryKeys {
		if v := tags[key]; v != "" {
			categories = append(categories, key+":"+v)
		}
	}

	var addressParts []string
	for _, key := range []string{"addr:street", "addr:city"} {
		if v := tags[key]; v != "" {
			addressParts = append(addressParts, v)
		}
	}
	fullAddress := tags["addr:full"]
	if fullAddress == "" {
		fullAddress = displayName
	}

	return models.NormalizedPlace{
		ID:               id,
		Name:             osmName(tags),
		Source:           models.SourceOSM,
		Coordinates:      coords,
		Categories:       categories,
		Phone:            firstTag(tags, "phone", "contact:phone"),
		Website:          firstTag(tags, "website", "contact:website"),
		FormattedAddress: fullAddress,
		AddressParts:     addressParts,
		OpeningHours:     tags["opening_hours"],
		Brand:            tags["brand"],
	}
}

// osmName falls back from name to brand, operator and a generated label.
func osmName(tags map[string]string) string {
	if n := firstTag(tags, "name", "brand", "operator"); n != "" {
		return n
	}
	if shop := tags["shop"]; shop != "" {
		return humanize(shop) + " shop"
	}
	if amenity := tags["amenity"]; amenity != "" {
		return humanize(amenity) + " station"
	}
	return "Automotive Service"
}

// humanize turns a tag value like "car_repair" into "car repair".
func humanize(tagValue string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(tagValue, "_", " ")), " ")
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(tags[k]); v != "" {
			return v
		}
	}
	return ""
}
