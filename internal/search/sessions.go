package search

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "garage-advisor/internal/common/errors"
	"garage-advisor/internal/common/logger"
	"garage-advisor/internal/common/metrics"
	"garage-advisor/internal/models"
)

const defaultSessionTTL = 30 * time.Minute

// ErrSuperseded is returned to a search that was cancelled because the same
// session started a newer one.
var ErrSuperseded = errors.New("search superseded by a newer request")

// Runner executes one search.
type Runner interface {
	Run(ctx context.Context, req models.SearchRequest) ([]models.RankedGarage, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, req models.SearchRequest) ([]models.RankedGarage, error)

func (f RunnerFunc) Run(ctx context.Context, req models.SearchRequest) ([]models.RankedGarage, error) {
	return f(ctx, req)
}

type session struct {
	last     *models.SearchRequest
	cancel   context.CancelFunc
	gen      uint64
	lastSeen time.Time
}

// Sessions remembers the last search per session so it can be retried, and
// cancels a session's in-flight search when a newer one starts.
type Sessions struct {
	runner Runner
	ttl    time.Duration
	now    func() time.Time
	logger logger.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func NewSessions(runner Runner, ttl time.Duration, log logger.Logger) *Sessions {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Sessions{
		runner:   runner,
		ttl:      ttl,
		now:      time.Now,
		logger:   log.Component("search.sessions"),
		sessions: make(map[string]*session),
	}
}

// Search records req as the session's last search and runs it.
func (s *Sessions) Search(ctx context.Context, sessionID string, req models.SearchRequest) ([]models.RankedGarage, error) {
	runCtx, gen := s.begin(ctx, sessionID, req)
	defer s.finish(sessionID, gen)

	garages, err := s.runner.Run(runCtx, req)
	if err != nil && ctx.Err() == nil && errors.Is(runCtx.Err(), context.Canceled) {
		s.logger.Debug("search superseded", map[string]interface{}{"sessionId": sessionID})
		return nil, ErrSuperseded
	}
	return garages, err
}

// Retry replays the session's last search parameters.
func (s *Sessions) Retry(ctx context.Context, sessionID string) ([]models.RankedGarage, error) {
	req, ok := s.Last(sessionID)
	if !ok {
		return nil, apperrors.NewNoPreviousSearchError()
	}
	s.logger.Info("retrying last search", map[string]interface{}{
		"sessionId": sessionID,
		"region":    req.Region,
	})
	return s.Search(ctx, sessionID, req)
}

// Last returns the session's most recent search parameters.
func (s *Sessions) Last(sessionID string) (models.SearchRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.last == nil {
		return models.SearchRequest{}, false
	}
	return *sess.last, true
}

// Clear cancels any in-flight search and forgets the session.
func (s *Sessions) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		if sess.cancel != nil {
			sess.cancel()
		}
		delete(s.sessions, sessionID)
		metrics.ActiveSessions.Set(float64(len(s.sessions)))
	}
}

// Prune drops idle sessions older than the TTL and reports how many went.
func (s *Sessions) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	pruned := 0
	for id, sess := range s.sessions {
		if sess.cancel == nil && sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			pruned++
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return pruned
}

// Run prunes idle sessions every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Prune(); n > 0 {
				s.logger.Debug("pruned idle sessions", map[string]interface{}{"count": n})
			}
		}
	}
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Sessions) begin(ctx context.Context, sessionID string, req models.SearchRequest) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
		metrics.ActiveSessions.Set(float64(len(s.sessions)))
	}
	if sess.cancel != nil {
		sess.cancel()
	}

	runCtx, cancel := context.WithCancel(ctx)
	sess.gen++
	sess.cancel = cancel
	sess.last = &req
	sess.lastSeen = s.now()
	return runCtx, sess.gen
}

func (s *Sessions) finish(sessionID string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.gen != gen {
		return
	}
	sess.cancel()
	sess.cancel = nil
	sess.lastSeen = s.now()
}
