// Package api serves the garage advisor HTTP API.
//
// Routes:
//
//	GET    /api/regions          → supported regions
//	POST   /api/garages/search   → run a search for the X-Session-ID session
//	POST   /api/garages/retry    → replay the session's last search
//	DELETE /api/garages/session  → forget the session
//	POST   /api/diagnose         → forward a diagnosis request
//	GET    /health, /ready       → liveness and readiness
//	GET    /metrics              → Prometheus
package api

import (
	"context"
	"net/http"
	"strings"

	"garage-advisor/internal/common/logger"
	"garage-advisor/internal/models"
	"garage-advisor/internal/places"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	SessionHeader = "X-Session-ID"

	statusOK        = "ok"
	statusNoResults = "no_results"

	defaultMaxBodyBytes = 64 << 10
)

// Diagnoser forwards a diagnosis request to the hosted endpoint.
type Diagnoser interface {
	Diagnose(ctx context.Context, req models.DiagnosisRequest) (*models.Diagnosis, error)
}

// Searches is the per-session search surface.
type Searches interface {
	Search(ctx context.Context, sessionID string, req models.SearchRequest) ([]models.RankedGarage, error)
	Retry(ctx context.Context, sessionID string) ([]models.RankedGarage, error)
	Clear(sessionID string)
}

type Options struct {
	MaxBodyBytes   int64
	AllowedOrigins []string
	Source         models.SourceKind
	// Ready reports whether the process can take traffic. Nil means always ready.
	Ready func() bool
}

type Server struct {
	registry  *places.Registry
	searches  Searches
	diagnoser Diagnoser
	opts      Options
	logger    logger.Logger
}

func NewServer(registry *places.Registry, searches Searches, diagnoser Diagnoser, opts Options, log logger.Logger) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Server{
		registry:  registry,
		searches:  searches,
		diagnoser: diagnoser,
		opts:      opts,
		logger:    log.Component("api"),
	}
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), s.cors())

	router.GET("/health", s.health)
	router.GET("/ready", s.ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(s.limitBody())
	{
		api.GET("/regions", s.listRegions)
		api.POST("/garages/search", s.searchGarages)
		api.POST("/garages/retry", s.retrySearch)
		api.DELETE("/garages/session", s.clearSession)
		api.POST("/diagnose", s.diagnose)
	}
	return router
}

// ParseOrigins splits a comma-separated origin list.
func ParseOrigins(list string) []string {
	var out []string
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) ready(c *gin.Context) {
	if s.opts.Ready != nil && !s.opts.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
