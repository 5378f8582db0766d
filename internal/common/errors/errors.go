// Package errors provides the garage-advisor error taxonomy and its BPMN mapping.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfiguration       ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	ErrCodeInvalidRegion       ErrorCode = "INVALID_REGION"
	ErrCodeInvalidParameters   ErrorCode = "INVALID_PARAMETERS"

	ErrCodeDiagnosisRateLimited     ErrorCode = "DIAGNOSIS_RATE_LIMITED"
	ErrCodeDiagnosisPaymentRequired ErrorCode = "DIAGNOSIS_PAYMENT_REQUIRED"
	ErrCodeDiagnosisFailed          ErrorCode = "DIAGNOSIS_FAILED"

	ErrCodeNoPreviousSearch ErrorCode = "NO_PREVIOUS_SEARCH"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any StandardError carrying the same code, so the sentinels
// below work with errors.Is regardless of message or details.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata sets a metadata key and returns the same error for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Sentinels for errors.Is checks.
var (
	ErrConfiguration       = &StandardError{Code: ErrCodeConfiguration}
	ErrUpstreamUnavailable = &StandardError{Code: ErrCodeUpstreamUnavailable}
	ErrUpstreamTimeout     = &StandardError{Code: ErrCodeUpstreamTimeout}
	ErrInvalidRegion       = &StandardError{Code: ErrCodeInvalidRegion}
	ErrInvalidParameters   = &StandardError{Code: ErrCodeInvalidParameters}
	ErrRateLimited         = &StandardError{Code: ErrCodeDiagnosisRateLimited}
	ErrPaymentRequired     = &StandardError{Code: ErrCodeDiagnosisPaymentRequired}
	ErrDiagnosisFailed     = &StandardError{Code: ErrCodeDiagnosisFailed}
	ErrNoPreviousSearch    = &StandardError{Code: ErrCodeNoPreviousSearch}
)

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewConfigurationError is raised when a required credential or setting is missing.
func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfiguration,
		Message:   "Service is not configured",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamUnavailableError is raised when every sub-query of a place source failed.
func NewUpstreamUnavailableError(source string, failed int, cause error) *StandardError {
	details := fmt.Sprintf("source: %s, failedSubQueries: %d", source, failed)
	if cause != nil {
		details = fmt.Sprintf("%s, lastError: %s", details, cause.Error())
	}
	return &StandardError{
		Code:      ErrCodeUpstreamUnavailable,
		Message:   "Place search upstream unavailable",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewUpstreamTimeoutError(service string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamTimeout,
		Message:   fmt.Sprintf("Upstream '%s' timeout", service),
		Details:   errorText(cause),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewInvalidRegionError(region string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRegion,
		Message:   "Unknown region",
		Details:   fmt.Sprintf("region: %q", region),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidParametersError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidParameters,
		Message:   "Please provide all required search parameters",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDiagnosisRateLimitedError maps an HTTP 429 from the diagnosis endpoint.
func NewDiagnosisRateLimitedError(upstreamMessage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDiagnosisRateLimited,
		Message:   withDefault(upstreamMessage, "Rate limit exceeded. Please try again in a moment."),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDiagnosisPaymentRequiredError maps an HTTP 402 from the diagnosis endpoint.
func NewDiagnosisPaymentRequiredError(upstreamMessage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDiagnosisPaymentRequired,
		Message:   withDefault(upstreamMessage, "Service temporarily unavailable. Please contact support."),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewDiagnosisFailedError(status int, upstreamMessage string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDiagnosisFailed,
		Message:   withDefault(upstreamMessage, "Diagnostic service error"),
		Details:   fmt.Sprintf("status: %d, error: %s", status, errorText(cause)),
		Retryable: false,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewNoPreviousSearchError() *StandardError {
	return &StandardError{
		Code:      ErrCodeNoPreviousSearch,
		Message:   "No previous search to retry",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   errorText(cause),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func withDefault(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the BPMN error codes caught by boundary events.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeConfiguration:            "CONFIGURATION_ERROR",
	ErrCodeUpstreamUnavailable:      "UPSTREAM_UNAVAILABLE",
	ErrCodeUpstreamTimeout:          "UPSTREAM_TIMEOUT",
	ErrCodeInvalidRegion:            "INVALID_REGION",
	ErrCodeInvalidParameters:        "INVALID_PARAMETERS",
	ErrCodeDiagnosisRateLimited:     "DIAGNOSIS_RATE_LIMITED",
	ErrCodeDiagnosisPaymentRequired: "DIAGNOSIS_PAYMENT_REQUIRED",
	ErrCodeDiagnosisFailed:          "DIAGNOSIS_FAILED",
}

// GetRetryCount returns the job retry budget for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeUpstreamUnavailable:
		return 3
	case ErrCodeUpstreamTimeout:
		return 2
	case ErrCodeDiagnosisRateLimited:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"userMessage":       UserMessage(stdErr),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandard extracts a StandardError from a wrapped chain, or wraps err as INTERNAL_ERROR.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// CodeOf returns the error code carried by err, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CONFIGURATION"):
		return "CONFIGURATION"
	case strings.Contains(codeStr, "UPSTREAM"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "DIAGNOSIS"):
		return "DIAGNOSIS"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
