package api

import (
	"context"
	"errors"
	"net/http"

	apperrors "garage-advisor/internal/common/errors"
	"garage-advisor/internal/search"

	"github.com/gin-gonic/gin"
)

const codeSuperseded = "SEARCH_SUPERSEDED"

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// statusFor maps an error code to the HTTP status returned to clients.
func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeInvalidParameters, apperrors.ErrCodeInvalidRegion, apperrors.ErrCodeNoPreviousSearch:
		return http.StatusBadRequest
	case apperrors.ErrCodeDiagnosisRateLimited:
		return http.StatusTooManyRequests
	case apperrors.ErrCodeDiagnosisPaymentRequired:
		return http.StatusPaymentRequired
	case apperrors.ErrCodeUpstreamUnavailable, apperrors.ErrCodeDiagnosisFailed:
		return http.StatusBadGateway
	case apperrors.ErrCodeUpstreamTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	if errors.Is(err, search.ErrSuperseded) {
		c.JSON(http.StatusConflict, errorResponse{Error: errorBody{
			Code:    codeSuperseded,
			Message: err.Error(),
		}})
		return
	}
	if errors.Is(err, context.Canceled) && c.Request.Context().Err() != nil {
		// Client went away; nobody is left to read a body.
		c.Abort()
		return
	}

	stdErr := apperrors.AsStandard(err)
	status := statusFor(stdErr.Code)

	fields := map[string]interface{}{
		"path":      c.FullPath(),
		"status":    status,
		"errorCode": string(stdErr.Code),
		"details":   stdErr.Details,
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields)
	} else {
		s.logger.Warn("request rejected", fields)
	}

	c.JSON(status, errorResponse{Error: errorBody{
		Code:      string(stdErr.Code),
		Message:   apperrors.UserMessage(err),
		Retryable: stdErr.Retryable,
	}})
}
