package places

import (
	"strings"
	"time"

	"garage-advisor/internal/models"
)

// Region is one supported search area.
type Region struct {
	Name         string             `json:"name"`
	Center       models.Coordinates `json:"center"`
	RadiusMeters int                `json:"radiusMeters"`
	// Country is appended to free-text queries.
	Country   string        `json:"country"`
	UTCOffset time.Duration `json:"-"`
}

// Registry is an immutable lookup of supported regions.
type Registry struct {
	order  []string
	byName map[string]Region
}

func NewRegistry(regions ...Region) *Registry {
	r := &Registry{byName: make(map[string]Region, len(regions))}
	for _, region := range regions {
		key := strings.ToLower(region.Name)
		if _, dup := r.byName[key]; dup {
			continue
		}
		r.order = append(r.order, region.Name)
		r.byName[key] = region
	}
	return r
}

// UAE returns the seven emirates.
func UAE() *Registry {
	const gst = 4 * time.Hour
	return NewRegistry(
		Region{Name: "Dubai", Center: models.Coordinates{Lat: 25.2048, Lng: 55.2708}, RadiusMeters: 50000, Country: "UAE", UTCOffset: gst},
		Region{Name: "Abu Dhabi", Center: models.Coordinates{Lat: 24.4539, Lng: 54.3773}, RadiusMeters: 60000, Country: "UAE", UTCOffset: gst},
		Region{Name: "Sharjah", Center: models.Coordinates{Lat: 25.3463, Lng: 55.4209}, RadiusMeters: 30000, Country: "UAE", UTCOffset: gst},
		Region{Name: "Ajman", Center: models.Coordinates{Lat: 25.4052, Lng: 55.5136}, RadiusMeters: 20000, Country: "UAE", UTCOffset: gst},
		Region{Name: "Ras Al Khaimah", Center: models.Coordinates{Lat: 25.7889, Lng: 55.9598}, RadiusMeters: 40000, Country: "UAE", UTCOffset: gst},
		Region{Name: "Fujairah", Center: models.Coordinates{Lat: 25.1288, Lng: 56.3264}, RadiusMeters: 30000, Country: "UAE", UTCOffset: gst},
		Region{Name: "Umm Al Quwain", Center: models.Coordinates{Lat: 25.5648, Lng: 55.6906}, RadiusMeters: 25000, Country: "UAE", UTCOffset: gst},
	)
}

// Lookup is case-insensitive on the canonical name.
func (r *Registry) Lookup(name string) (Region, bool) {
	region, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return region, ok
}

// Names returns region names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) All() []Region {
	out := make([]Region, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[strings.ToLower(name)])
	}
	return out
}
