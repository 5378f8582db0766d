// internal/diagnosis/client.go
package diagnosis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	apperrors "garage-advisor/internal/common/errors"
	commonhttp "garage-advisor/internal/common/http"
	"garage-advisor/internal/common/logger"
	"garage-advisor/internal/common/metrics"
	"garage-advisor/internal/models"
)

const (
	outcomeOK              = "ok"
	outcomeRateLimited     = "rate_limited"
	outcomePaymentRequired = "payment_required"
	outcomeFailed          = "failed"
	outcomeTimeout         = "timeout"

	defaultLanguage = "en"
)

type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client calls the hosted diagnostic endpoint. It never retries; the caller
// decides whether to ask again.
type Client struct {
	cfg    Config
	http   *commonhttp.Client
	logger logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	var opts []commonhttp.Option
	if cfg.APIKey != "" {
		opts = append(opts, commonhttp.WithHeader("Authorization", "Bearer "+cfg.APIKey))
	}
	return &Client{
		cfg:    cfg,
		http:   commonhttp.NewClient(cfg.Timeout, opts...),
		logger: log.Component("diagnosis"),
	}
}

type diagnoseResponse struct {
	Diagnosis string `json:"diagnosis"`
	Error     string `json:"error"`
}

// Diagnose forwards req and returns the diagnosis text split into sections.
func (c *Client) Diagnose(ctx context.Context, req models.DiagnosisRequest) (*models.Diagnosis, error) {
	if strings.TrimSpace(c.cfg.URL) == "" {
		return nil, apperrors.NewConfigurationError("diagnosis endpoint URL is not configured")
	}
	if strings.TrimSpace(req.CarMake) == "" || strings.TrimSpace(req.IssueDescription) == "" {
		return nil, apperrors.NewInvalidParametersError("carMake and issueDescription are required")
	}
	if req.Language == "" {
		req.Language = defaultLanguage
	}

	start := time.Now()
	var resp diagnoseResponse
	err := c.http.PostJSON(ctx, c.cfg.URL, req, &resp)
	if err == nil && resp.Error != "" {
		err = apperrors.NewDiagnosisFailedError(http.StatusOK, resp.Error, nil)
	}
	if err == nil && strings.TrimSpace(resp.Diagnosis) == "" {
		err = apperrors.NewDiagnosisFailedError(http.StatusOK, "", errors.New("empty diagnosis"))
	}
	if err != nil {
		err = c.classify(err)
		metrics.DiagnosisRequests.WithLabelValues(outcomeFor(err)).Inc()
		c.logger.Error("diagnosis failed", map[string]interface{}{
			"make":       req.CarMake,
			"language":   req.Language,
			"errorCode":  string(apperrors.CodeOf(err)),
			"error":      err.Error(),
			"durationMs": time.Since(start).Milliseconds(),
		})
		return nil, err
	}

	metrics.DiagnosisRequests.WithLabelValues(outcomeOK).Inc()
	sections := ParseSections(resp.Diagnosis)
	c.logger.Info("diagnosis completed", map[string]interface{}{
		"make":       req.CarMake,
		"language":   req.Language,
		"sections":   len(sections),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return &models.Diagnosis{Text: resp.Diagnosis, Sections: sections}, nil
}

func (c *Client) classify(err error) error {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if commonhttp.IsTimeout(err) {
		return apperrors.NewUpstreamTimeoutError("diagnosis", err)
	}

	var statusErr *commonhttp.StatusError
	if !errors.As(err, &statusErr) {
		return apperrors.NewDiagnosisFailedError(0, "", err)
	}

	message := upstreamMessage(statusErr.Body)
	switch statusErr.StatusCode {
	case http.StatusTooManyRequests:
		return apperrors.NewDiagnosisRateLimitedError(message)
	case http.StatusPaymentRequired:
		return apperrors.NewDiagnosisPaymentRequiredError(message)
	default:
		return apperrors.NewDiagnosisFailedError(statusErr.StatusCode, message, err)
	}
}

// upstreamMessage extracts {"error": "..."} from a failure body.
func upstreamMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error)
}

func outcomeFor(err error) string {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeDiagnosisRateLimited:
		return outcomeRateLimited
	case apperrors.ErrCodeDiagnosisPaymentRequired:
		return outcomePaymentRequired
	case apperrors.ErrCodeUpstreamTimeout:
		return outcomeTimeout
	default:
		return outcomeFailed
	}
}
