package diagnosis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "garage-advisor/internal/common/errors"
	"garage-advisor/internal/common/logger"
	"garage-advisor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiagnosis = `## Diagnosis Summary
Worn front brake pads.

## Possible Causes
1. Pads below minimum thickness
2. Glazed rotors

## Severity Assessment
Rating: High

## Estimated Repair Cost
AED 350 - 600

## Recommended Actions
1. Avoid hard braking

## Parts Likely Needed
1. Brake pads - front axle`

var patrol = models.DiagnosisRequest{
	CarMake:          "Nissan",
	CarModel:         "Patrol",
	CarYear:          "2019",
	IssueDescription: "grinding noise when braking",
}

// ==========================
// Helpers
// ==========================

func newTestClient(t *testing.T, url string) *Client {
	return NewClient(Config{URL: url, APIKey: "secret", Timeout: 2 * time.Second}, logger.NewTestLogger(t))
}

func respond(status int, body interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// ==========================
// Diagnose
// ==========================

func TestDiagnose_Success(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(http.StatusOK, map[string]string{"diagnosis": sampleDiagnosis})(w, r)
	}))
	defer srv.Close()

	diag, err := newTestClient(t, srv.URL).Diagnose(context.Background(), patrol)
	require.NoError(t, err)

	assert.Equal(t, sampleDiagnosis, diag.Text)
	require.Len(t, diag.Sections, 6)
	assert.Equal(t, models.SectionSummary, diag.Sections[0].Kind)
	assert.Equal(t, models.SectionParts, diag.Sections[5].Kind)

	assert.Equal(t, map[string]interface{}{
		"carMake":          "Nissan",
		"carModel":         "Patrol",
		"carYear":          "2019",
		"issueDescription": "grinding noise when braking",
		"language":         "en",
	}, got)
}

func TestDiagnose_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        interface{}
		wantCode    apperrors.ErrorCode
		wantMessage string
		retryable   bool
	}{
		{
			name:        "rate limited with message",
			status:      http.StatusTooManyRequests,
			body:        map[string]string{"error": "Rate limits exceeded, please try again later."},
			wantCode:    apperrors.ErrCodeDiagnosisRateLimited,
			wantMessage: "Rate limits exceeded, please try again later.",
			retryable:   true,
		},
		{
			name:        "rate limited without body",
			status:      http.StatusTooManyRequests,
			body:        nil,
			wantCode:    apperrors.ErrCodeDiagnosisRateLimited,
			wantMessage: "Rate limit exceeded. Please try again in a moment.",
			retryable:   true,
		},
		{
			name:        "payment required",
			status:      http.StatusPaymentRequired,
			body:        map[string]string{"error": "Payment required, please add funds."},
			wantCode:    apperrors.ErrCodeDiagnosisPaymentRequired,
			wantMessage: "Payment required, please add funds.",
		},
		{
			name:        "server error",
			status:      http.StatusInternalServerError,
			body:        map[string]string{"error": "AI gateway error"},
			wantCode:    apperrors.ErrCodeDiagnosisFailed,
			wantMessage: "AI gateway error",
		},
		{
			name:        "error in success body",
			status:      http.StatusOK,
			body:        map[string]string{"error": "LOVABLE_API_KEY is not configured"},
			wantCode:    apperrors.ErrCodeDiagnosisFailed,
			wantMessage: "LOVABLE_API_KEY is not configured",
		},
		{
			name:        "empty diagnosis",
			status:      http.StatusOK,
			body:        map[string]string{"diagnosis": "  "},
			wantCode:    apperrors.ErrCodeDiagnosisFailed,
			wantMessage: "Diagnostic service error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				respond(tt.status, tt.body)(w, r)
			}))
			defer srv.Close()

			diag, err := newTestClient(t, srv.URL).Diagnose(context.Background(), patrol)
			assert.Nil(t, diag)
			require.Error(t, err)

			stdErr := apperrors.AsStandard(err)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantMessage, stdErr.Message)
			assert.Equal(t, tt.wantMessage, apperrors.UserMessage(err))
			assert.Equal(t, tt.retryable, stdErr.Retryable)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no automatic retry")
		})
	}
}

func TestDiagnose_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(Config{URL: srv.URL, Timeout: 50 * time.Millisecond}, logger.NewNoOpLogger())
	_, err := client.Diagnose(context.Background(), patrol)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUpstreamTimeout, apperrors.CodeOf(err))
}

func TestDiagnose_RejectsBeforeCalling(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { atomic.AddInt32(&calls, 1) }))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Diagnose(context.Background(), models.DiagnosisRequest{CarMake: "Kia"})
	assert.Equal(t, apperrors.ErrCodeInvalidParameters, apperrors.CodeOf(err))

	_, err = newTestClient(t, "").Diagnose(context.Background(), patrol)
	assert.Equal(t, apperrors.ErrCodeConfiguration, apperrors.CodeOf(err))

	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestDiagnose_KeepsLanguage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body models.DiagnosisRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ar", body.Language)
		assert.Empty(t, r.Header.Get("Authorization"))
		respond(http.StatusOK, map[string]string{"diagnosis": "## ملخص التشخيص\nنص"})(w, r)
	}))
	defer srv.Close()

	req := patrol
	req.Language = "ar"
	diag, err := NewClient(Config{URL: srv.URL}, logger.NewNoOpLogger()).Diagnose(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, diag.Sections, 1)
	assert.Equal(t, models.SectionSummary, diag.Sections[0].Kind)
}
