// internal/workers/garage/search-garages/handler_test.go
package searchgarages

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "garage-advisor/internal/common/errors"
	"garage-advisor/internal/common/logger"
	"garage-advisor/internal/models"
	"garage-advisor/internal/places"
	"garage-advisor/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 3 * time.Second}
}

type fakeSearcher struct {
	got     models.SearchRequest
	garages []models.RankedGarage
	err     error
}

func (f *fakeSearcher) Run(_ context.Context, req models.SearchRequest) ([]models.RankedGarage, error) {
	f.got = req
	return f.garages, f.err
}

type staticSource struct {
	places []models.NormalizedPlace
}

func (s staticSource) Kind() models.SourceKind { return models.SourceOSM }

func (s staticSource) Search(context.Context, places.Region, string, string) ([]models.NormalizedPlace, error) {
	return s.places, nil
}

// ==========================
// Input Parsing
// ==========================

func TestParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		want      models.SearchRequest
		wantErr   bool
	}{
		{
			name:      "api field names",
			variables: `{"region":"Dubai","vehicleMake":"Toyota","issueText":"engine noise"}`,
			want:      models.SearchRequest{Region: "Dubai", VehicleMake: "Toyota", IssueText: "engine noise"},
		},
		{
			name:      "wizard field names with padding",
			variables: `{"emirate":" Sharjah ","carMake":"Honda","issue":"brakes squeal","unrelated":1}`,
			want:      models.SearchRequest{Region: "Sharjah", VehicleMake: "Honda", IssueText: "brakes squeal"},
		},
		{name: "wrong type", variables: `{"region":25}`, wantErr: true},
		{name: "broken json", variables: `{"region":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := parseInput(tt.variables)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrCodeInvalidParameters, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, input.Normalize())
		})
	}
}

// ==========================
// Execute
// ==========================

func TestExecute_Success(t *testing.T) {
	searcher := &fakeSearcher{garages: []models.RankedGarage{{ID: "g1", Name: "Desert Motors"}, {ID: "g2"}}}
	handler := NewHandler(createTestConfig(), searcher, models.SourceGoogle, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Emirate: "Dubai", CarMake: "Toyota", Issue: "engine"})
	require.NoError(t, err)

	assert.Equal(t, models.SearchRequest{Region: "Dubai", VehicleMake: "Toyota", IssueText: "engine"}, searcher.got)
	assert.Equal(t, 2, output.ResultCount)
	assert.False(t, output.NoResults)
	assert.Equal(t, "Dubai", output.Region)
	assert.Equal(t, models.SourceGoogle, output.Source)
}

func TestExecute_NoResults(t *testing.T) {
	searcher := &fakeSearcher{garages: []models.RankedGarage{}}
	handler := NewHandler(createTestConfig(), searcher, models.SourceOSM, nil, logger.NewNoOpLogger())

	output, err := handler.Execute(context.Background(), &Input{Region: "Ajman", VehicleMake: "Kia", IssueText: "ac"})
	require.NoError(t, err)
	assert.True(t, output.NoResults)
	assert.Zero(t, output.ResultCount)

	raw, err := json.Marshal(output)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"garages":[]`)
}

func TestExecute_PropagatesError(t *testing.T) {
	searcher := &fakeSearcher{err: apperrors.NewUpstreamUnavailableError("osm", 5, errors.New("down"))}
	handler := NewHandler(createTestConfig(), searcher, models.SourceOSM, nil, logger.NewNoOpLogger())

	output, err := handler.Execute(context.Background(), &Input{Region: "Ajman", VehicleMake: "Kia", IssueText: "ac"})
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, apperrors.ErrUpstreamUnavailable))

	bpmn := apperrors.ConvertToBPMNError(apperrors.AsStandard(err))
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", bpmn.Code)
	assert.Equal(t, 3, bpmn.Retries)
	assert.Equal(t, apperrors.MsgNetwork, bpmn.ErrorVariables["userMessage"])
}

func TestExecute_WithOrchestrator(t *testing.T) {
	source := staticSource{places: []models.NormalizedPlace{
		{ID: "osm_node_1", Name: "Al Quoz Auto Repair", Source: models.SourceOSM, Categories: []string{"shop:car_repair"}},
		{ID: "osm_node_2", Name: "Lulu Hypermarket", Source: models.SourceOSM, Categories: []string{"shop:supermarket"}},
	}}
	orchestrator := search.NewOrchestrator(places.UAE(), source, search.Options{}, nil, logger.NewNoOpLogger())
	handler := NewHandler(createTestConfig(), orchestrator, orchestrator.Source(), nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Region: "Dubai", VehicleMake: "Toyota", IssueText: "engine noise"})
	require.NoError(t, err)
	require.Equal(t, 1, output.ResultCount)
	assert.Equal(t, "osm_node_1", output.Garages[0].ID)

	_, err = handler.Execute(context.Background(), &Input{Region: "Muscat", VehicleMake: "Toyota", IssueText: "engine noise"})
	assert.Equal(t, apperrors.ErrCodeInvalidRegion, apperrors.CodeOf(err))
}
