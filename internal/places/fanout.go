package places

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "garage-advisor/internal/common/errors"
	commonhttp "garage-advisor/internal/common/http"
	"garage-advisor/internal/common/logger"
	"garage-advisor/internal/common/metrics"
	"garage-advisor/internal/models"

	"golang.org/x/sync/errgroup"
)

// FanOutOptions tunes how sub-queries are dispatched.
type FanOutOptions struct {
	MaxConcurrency int
	Timeout        time.Duration
	Cache          Cache
}

// subQuery is one upstream call among several issued per search.
type subQuery struct {
	upstream string
	label    string
	cacheKey string
	run      func(ctx context.Context) ([]models.NormalizedPlace, error)
}

// upstreamStatusError is implemented by errors that carry a vendor status string.
type upstreamStatusError interface {
	UpstreamStatus() string
}

type fanOut struct {
	source models.SourceKind
	opts   FanOutOptions
	logger logger.Logger
}

func newFanOut(source models.SourceKind, opts FanOutOptions, log logger.Logger) *fanOut {
	if opts.Cache == nil {
		opts.Cache = NoopCache{}
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &fanOut{source: source, opts: opts, logger: log}
}

// run executes every sub-query concurrently and merges the successful ones
// in input order. A failed sub-query contributes nothing; only when all fail
// does run return UpstreamUnavailable.
func (f *fanOut) run(ctx context.Context, queries []subQuery) ([]models.NormalizedPlace, error) {
	if len(queries) == 0 {
		return []models.NormalizedPlace{}, nil
	}

	results := make([][]models.NormalizedPlace, len(queries))

	var (
		mu       sync.Mutex
		failures int
		lastErr  error
	)
	recordFailure := func(q subQuery, err error) {
		mu.Lock()
		failures++
		lastErr = err
		mu.Unlock()

		f.logger.Warn("sub-query failed", map[string]interface{}{
			"upstream": q.upstream,
			"query":    q.label,
			"timeout":  commonhttp.IsTimeout(err),
			"error":    err.Error(),
		})
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(f.opts.MaxConcurrency)

	for i, q := range queries {
		eg.Go(func() error {
			if q.cacheKey != "" {
				if cached, ok := f.opts.Cache.Get(egCtx, q.cacheKey); ok {
					metrics.UpstreamSubQueries.WithLabelValues(string(f.source), q.upstream, "cached").Inc()
					results[i] = cached
					return nil
				}
			}

			subCtx, cancel := context.WithTimeout(egCtx, f.opts.Timeout)
			defer cancel()

			start := time.Now()
			places, err := q.run(subCtx)
			metrics.UpstreamSubQueryDuration.WithLabelValues(string(f.source), q.upstream).Observe(time.Since(start).Seconds())

			if err != nil {
				metrics.UpstreamSubQueries.WithLabelValues(string(f.source), q.upstream, "error").Inc()
				recordFailure(q, err)
				return nil
			}

			metrics.UpstreamSubQueries.WithLabelValues(string(f.source), q.upstream, "ok").Inc()
			results[i] = places
			if q.cacheKey != "" {
				f.opts.Cache.Set(egCtx, q.cacheKey, places)
			}
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil && failures > 0 {
		return nil, err
	}

	if failures == len(queries) {
		return nil, upstreamUnavailable(f.source, failures, lastErr)
	}
	if failures > 0 {
		f.logger.Warn("partial upstream failure", map[string]interface{}{
			"failedSubQueries": failures,
			"totalSubQueries":  len(queries),
		})
	}

	merged := make([]models.NormalizedPlace, 0)
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged, nil
}

func upstreamUnavailable(source models.SourceKind, failures int, lastErr error) error {
	stdErr := apperrors.NewUpstreamUnavailableError(string(source), failures, lastErr)
	var statusErr upstreamStatusError
	if errors.As(lastErr, &statusErr) {
		stdErr.WithMetadata("upstreamStatus", statusErr.UpstreamStatus())
	}
	return stdErr
}
