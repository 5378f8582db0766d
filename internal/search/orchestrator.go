// Package search runs the garage pipeline: source, dedupe, classify, score,
// sort and cut.
package search

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"garage-advisor/internal/common/config"
	apperrors "garage-advisor/internal/common/errors"
	"garage-advisor/internal/common/logger"
	"garage-advisor/internal/common/metrics"
	"garage-advisor/internal/common/observability"
	"garage-advisor/internal/models"
	"garage-advisor/internal/places"
	"garage-advisor/internal/ranking"
)

const (
	DefaultTopN = 5
	MaxTopN     = config.MaxTopN

	outcomeOK        = "ok"
	outcomeNoResults = "no_results"
)

// Options tune ranking. Zero values fall back to defaults.
type Options struct {
	TopN       int
	MinRating  float64
	MinReviews int
	// OpenNowClock selects the open-now estimator: config.ClockWall or config.ClockRegion.
	OpenNowClock string
	// Now overrides the clock used by the open-now estimator.
	Now func() time.Time
}

// Orchestrator is safe for concurrent use; each Run keeps its own state.
type Orchestrator struct {
	registry *places.Registry
	source   places.Source
	scorer   *ranking.Scorer
	opts     Options
	obs      *observability.Observability
	logger   logger.Logger
}

func NewOrchestrator(registry *places.Registry, source places.Source, opts Options, obs *observability.Observability, log logger.Logger) *Orchestrator {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.TopN > MaxTopN {
		opts.TopN = MaxTopN
	}
	if opts.OpenNowClock == "" {
		opts.OpenNowClock = config.ClockWall
	}
	return &Orchestrator{
		registry: registry,
		source:   source,
		scorer:   ranking.NewScorer(ranking.ProfileFor(source.Kind(), opts.MinRating, opts.MinReviews)),
		opts:     opts,
		obs:      obs,
		logger:   log.Component("search").WithFields(map[string]interface{}{"source": string(source.Kind())}),
	}
}

func (o *Orchestrator) Source() models.SourceKind { return o.source.Kind() }

func (o *Orchestrator) Registry() *places.Registry { return o.registry }

// Run validates the request before any network call and returns at most
// TopN garages ordered by relevance. An empty, non-nil slice means the
// search succeeded with no results.
func (o *Orchestrator) Run(ctx context.Context, req models.SearchRequest) ([]models.RankedGarage, error) {
	region, err := o.validate(req)
	if err != nil {
		o.recordOutcome(ctx, req.Region, string(apperrors.CodeOf(err)), 0)
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues(string(o.source.Kind())).Observe(time.Since(start).Seconds())
	}()

	raw, err := o.source.Search(ctx, region, req.VehicleMake, req.IssueText)
	if err != nil {
		err = o.classifyError(err)
		o.recordOutcome(ctx, region.Name, string(apperrors.CodeOf(err)), 0)
		o.logger.Error("garage search failed", map[string]interface{}{
			"region": region.Name,
			"make":   req.VehicleMake,
			"error":  err.Error(),
		})
		return nil, err
	}

	garages := o.rank(region, req, raw)

	outcome := outcomeOK
	if len(garages) == 0 {
		outcome = outcomeNoResults
	}
	o.recordOutcome(ctx, region.Name, outcome, len(garages))

	o.logger.Info("garage search completed", map[string]interface{}{
		"region":     region.Name,
		"make":       req.VehicleMake,
		"candidates": len(raw),
		"results":    len(garages),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return garages, nil
}

func (o *Orchestrator) validate(req models.SearchRequest) (places.Region, error) {
	var missing []string
	if strings.TrimSpace(req.Region) == "" {
		missing = append(missing, "region")
	}
	if strings.TrimSpace(req.VehicleMake) == "" {
		missing = append(missing, "vehicleMake")
	}
	if strings.TrimSpace(req.IssueText) == "" {
		missing = append(missing, "issueText")
	}
	if len(missing) > 0 {
		return places.Region{}, apperrors.NewInvalidParametersError("missing: " + strings.Join(missing, ", "))
	}

	region, ok := o.registry.Lookup(req.Region)
	if !ok {
		return places.Region{}, apperrors.NewInvalidRegionError(req.Region)
	}
	return region, nil
}

// classifyError keeps taxonomy errors and caller cancellation as they are
// and turns a bare deadline into UpstreamTimeout.
func (o *Orchestrator) classifyError(err error) error {
	if apperrors.AsStandard(err).Code != apperrors.ErrCodeInternal {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewUpstreamTimeoutError(string(o.source.Kind()), err)
	}
	return apperrors.NewInternalError(err)
}

func (o *Orchestrator) rank(region places.Region, req models.SearchRequest, raw []models.NormalizedPlace) []models.RankedGarage {
	source := string(o.source.Kind())
	profile := o.scorer.Profile()
	extractor := ranking.NewExtractor(profile, o.estimator(region))

	unique := ranking.Dedupe(raw)
	metrics.CandidatesFiltered.WithLabelValues(source, "duplicate").Add(float64(len(raw) - len(unique)))

	garages := make([]models.RankedGarage, 0, len(unique))
	var nonAutomotive, ineligible int
	for _, p := range unique {
		if !ranking.IsAutomotive(p) {
			nonAutomotive++
			continue
		}
		if !o.scorer.Eligible(p) {
			ineligible++
			continue
		}
		garages = append(garages, o.toGarage(region, req, p, extractor, profile))
	}
	metrics.CandidatesFiltered.WithLabelValues(source, "non_automotive").Add(float64(nonAutomotive))
	metrics.CandidatesFiltered.WithLabelValues(source, "ineligible").Add(float64(ineligible))

	sort.SliceStable(garages, func(i, j int) bool {
		return garages[i].RelevanceScore > garages[j].RelevanceScore
	})
	if len(garages) > o.opts.TopN {
		garages = garages[:o.opts.TopN]
	}
	return garages
}

func (o *Orchestrator) toGarage(region places.Region, req models.SearchRequest, p models.NormalizedPlace, extractor *ranking.Extractor, profile ranking.Profile) models.RankedGarage {
	score := o.scorer.Score(p, req.VehicleMake, req.IssueText)
	attrs := extractor.Extract(p)

	rating := profile.DefaultRating
	if p.Rating != nil {
		rating = *p.Rating
	}
	reviews := 0
	if p.ReviewCount != nil && *p.ReviewCount > 0 {
		reviews = *p.ReviewCount
	}

	return models.RankedGarage{
		ID:               p.ID,
		Name:             p.Name,
		Region:           region.Name,
		Rating:           rating,
		ReviewCount:      reviews,
		Phone:            attrs.Phone,
		Website:          p.Website,
		Address:          attrs.Address,
		WorkingHours:     attrs.WorkingHours,
		Coordinates:      p.Coordinates,
		RelevanceScore:   score.Total,
		ReviewHighlights: score.Highlights,
		Services:         attrs.Services,
		MakeRelevance:    score.MakeRelevance,
		IssueRelevance:   score.IssueRelevance,
		Source:           p.Source,
		PhotoRefs:        p.PhotoRefs,
		IsOpenNow:        attrs.IsOpenNow,
	}
}

func (o *Orchestrator) estimator(region places.Region) ranking.OpenNowEstimator {
	if o.opts.OpenNowClock == config.ClockRegion {
		return ranking.RegionClock{Offset: region.UTCOffset, Now: o.opts.Now}
	}
	return ranking.WallClock{Now: o.opts.Now}
}

func (o *Orchestrator) recordOutcome(ctx context.Context, region, outcome string, results int) {
	source := string(o.source.Kind())
	metrics.Searches.WithLabelValues(source, outcome).Inc()
	o.obs.RecordSearch(ctx, region, source, outcome, results)
}
