// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	UpstreamSubQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garage_upstream_subqueries_total",
			Help: "Place-source sub-queries by source, upstream and outcome (ok, error, cached)",
		},
		[]string{"source", "upstream", "outcome"},
	)

	UpstreamSubQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "garage_upstream_subquery_duration_seconds",
			Help:    "Latency of individual place-source sub-queries",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		},
		[]string{"source", "upstream"},
	)

	Searches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garage_searches_total",
			Help: "Garage searches by source and outcome (ok, no_results, error code)",
		},
		[]string{"source", "outcome"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "garage_search_duration_seconds",
			Help:    "End-to-end garage search latency",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 25, 60},
		},
		[]string{"source"},
	)

	CandidatesFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garage_candidates_filtered_total",
			Help: "Candidates dropped by pipeline stage (duplicate, non_automotive, ineligible)",
		},
		[]string{"source", "stage"},
	)

	DiagnosisRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garage_diagnosis_requests_total",
			Help: "Diagnosis endpoint calls by outcome",
		},
		[]string{"outcome"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "garage_search_sessions_active",
			Help: "Search sessions currently tracked by the API",
		},
	)
)
