package errors

import (
	"context"
	stderrors "errors"
)

// User-facing messages surfaced by the API and attached to BPMN error variables.
const (
	MsgMissingAPIKey   = "Google Maps API key is missing or invalid. Please configure the API key."
	MsgQuotaExceeded   = "Google Maps API quota exceeded. Please try again later."
	MsgNetwork         = "Network error. Please check your internet connection and try again."
	MsgTimeout         = "Search timed out. Please try again with a different location."
	MsgInvalidParams   = "Please provide all required search parameters"
	MsgInvalidRegion   = "The selected emirate is not supported."
	MsgNoPrevious      = "No previous search to retry"
	MsgGenericSearch   = "Failed to search for garages. Please try again."
	MsgGenericDiagnose = "Diagnostic service error"
)

// Upstream status values recorded in StandardError.Metadata["upstreamStatus"].
const (
	UpstreamStatusQuota  = "OVER_QUERY_LIMIT"
	UpstreamStatusDenied = "REQUEST_DENIED"
)

// UserMessage maps an error to the fixed set of messages shown to end users.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return MsgTimeout
	}

	var stdErr *StandardError
	if !stderrors.As(err, &stdErr) {
		return MsgGenericSearch
	}

	switch stdErr.Code {
	case ErrCodeConfiguration:
		return MsgMissingAPIKey
	case ErrCodeUpstreamUnavailable:
		switch stdErr.Metadata["upstreamStatus"] {
		case UpstreamStatusQuota:
			return MsgQuotaExceeded
		case UpstreamStatusDenied:
			return MsgMissingAPIKey
		}
		if stderrors.Is(stdErr.cause, context.DeadlineExceeded) {
			return MsgTimeout
		}
		return MsgNetwork
	case ErrCodeUpstreamTimeout:
		return MsgTimeout
	case ErrCodeInvalidParameters:
		return MsgInvalidParams
	case ErrCodeInvalidRegion:
		return MsgInvalidRegion
	case ErrCodeNoPreviousSearch:
		return MsgNoPrevious
	case ErrCodeDiagnosisRateLimited, ErrCodeDiagnosisPaymentRequired, ErrCodeDiagnosisFailed:
		return stdErr.Message
	default:
		return MsgGenericSearch
	}
}
