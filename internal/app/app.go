// Package app assembles the search and diagnosis components from configuration.
// Both the worker manager and the CLI build their graph through here.
package app

import (
	"garage-advisor/internal/common/config"
	"garage-advisor/internal/common/database"
	commonhttp "garage-advisor/internal/common/http"
	"garage-advisor/internal/common/logger"
	"garage-advisor/internal/common/observability"
	"garage-advisor/internal/diagnosis"
	"garage-advisor/internal/places"
	"garage-advisor/internal/search"
)

type Components struct {
	Registry     *places.Registry
	Source       places.Source
	Orchestrator *search.Orchestrator
	Sessions     *search.Sessions
	Diagnosis    *diagnosis.Client
}

// NewCache returns a Redis-backed sub-query cache, or a no-op cache when
// redis is nil or places.cache_ttl is zero.
func NewCache(cfg *config.Config, redis *database.RedisClient, log logger.Logger) places.Cache {
	if redis == nil || cfg.Places.CacheTTL <= 0 {
		return places.NoopCache{}
	}
	return places.NewRedisCache(redis, config.GetDuration(cfg.Places.CacheTTL), log)
}

// NewSource builds the place source selected by places.provider.
func NewSource(cfg *config.Config, cache places.Cache, log logger.Logger) places.Source {
	timeout := config.GetDuration(cfg.Places.Timeout)
	fan := places.FanOutOptions{
		MaxConcurrency: cfg.Places.MaxConcurrency,
		Timeout:        timeout,
		Cache:          cache,
	}

	if cfg.Places.Provider == config.ProviderGoogle {
		src := places.NewGoogleSource(places.GoogleConfig{
			BaseURL:      cfg.Places.Google.BaseURL,
			APIKey:       cfg.Places.Google.APIKey,
			DetailsLimit: cfg.Places.Google.DetailsLimit,
			Language:     cfg.Places.Google.Language,
		}, commonhttp.NewClient(timeout), fan, log)

		// Searches still start; each one fails with a configuration error.
		if err := src.Validate(); err != nil {
			log.Warn("google places source is not usable", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return src
	}

	client := commonhttp.NewClient(timeout, commonhttp.WithUserAgent(cfg.Places.OSM.UserAgent))
	return places.NewOSMSource(places.OSMConfig{
		OverpassURL:    cfg.Places.OSM.OverpassURL,
		NominatimURL:   cfg.Places.OSM.NominatimURL,
		NominatimLimit: cfg.Places.OSM.NominatimLimit,
	}, client, fan, log)
}

func NewDiagnosis(cfg *config.Config, log logger.Logger) *diagnosis.Client {
	return diagnosis.NewClient(diagnosis.Config{
		URL:     cfg.Diagnosis.URL,
		APIKey:  cfg.Diagnosis.APIKey,
		Timeout: config.GetDuration(cfg.Diagnosis.Timeout),
	}, log)
}

// New wires the full component graph. obs may be nil.
func New(cfg *config.Config, cache places.Cache, obs *observability.Observability, log logger.Logger) *Components {
	registry := places.UAE()
	source := NewSource(cfg, cache, log)

	orchestrator := search.NewOrchestrator(registry, source, search.Options{
		TopN:         cfg.Ranking.TopN,
		MinRating:    cfg.Ranking.MinRating,
		MinReviews:   cfg.Ranking.MinReviews,
		OpenNowClock: cfg.Ranking.OpenNowClock,
	}, obs, log)

	return &Components{
		Registry:     registry,
		Source:       source,
		Orchestrator: orchestrator,
		Sessions:     search.NewSessions(orchestrator, config.GetDuration(cfg.Server.SessionTTL), log),
		Diagnosis:    NewDiagnosis(cfg, log),
	}
}
