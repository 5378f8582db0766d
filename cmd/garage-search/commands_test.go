package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"garage-advisor/internal/app"
	"garage-advisor/internal/common/logger"
	"garage-advisor/internal/diagnosis"
	"garage-advisor/internal/models"
	"garage-advisor/internal/places"
	"garage-advisor/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	places []models.NormalizedPlace
}

func (s staticSource) Kind() models.SourceKind { return models.SourceOSM }

func (s staticSource) Search(context.Context, places.Region, string, string) ([]models.NormalizedPlace, error) {
	return s.places, nil
}

func testEnv(t *testing.T, src places.Source, diagnosisURL string) envFunc {
	t.Helper()
	log := logger.NewNoOpLogger()
	registry := places.UAE()
	orchestrator := search.NewOrchestrator(registry, src, search.Options{}, nil, log)

	return func(string) (*environment, error) {
		return &environment{
			components: &app.Components{
				Registry:     registry,
				Source:       src,
				Orchestrator: orchestrator,
				Sessions:     search.NewSessions(orchestrator, 0, log),
				Diagnosis:    diagnosis.NewClient(diagnosis.Config{URL: diagnosisURL}, log),
			},
			close: func() {},
		}, nil
	}
}

func run(t *testing.T, env envFunc, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out, env)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// ==========================
// Commands
// ==========================

func TestRegions(t *testing.T) {
	out, err := run(t, testEnv(t, staticSource{}, ""), "regions", "--json")
	require.NoError(t, err)

	var regions []places.Region
	require.NoError(t, json.Unmarshal([]byte(out), &regions))
	assert.Len(t, regions, 7)
	assert.Equal(t, "Dubai", regions[0].Name)
}

func TestSearch_PrintsRankedGarages(t *testing.T) {
	src := staticSource{places: []models.NormalizedPlace{{
		ID:          "osm:node/1",
		Name:        "Toyota Engine Repair Garage",
		Source:      models.SourceOSM,
		Coordinates: models.Coordinates{Lat: 25.2, Lng: 55.3},
		Categories:  []string{"shop:car_repair"},
	}}}

	out, err := run(t, testEnv(t, src, ""), "search", "--region", "Dubai", "--make", "Toyota", "--issue", "engine noise")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Toyota Engine Repair Garage")
	assert.Contains(t, out, "hours: Hours not available")
}

func TestSearch_NoResults(t *testing.T) {
	out, err := run(t, testEnv(t, staticSource{}, ""), "search", "--region", "Dubai", "--make", "Kia", "--issue", "strange smell")
	require.NoError(t, err)
	assert.Contains(t, out, "No garages matched")
}

func TestSearch_InvalidRegion(t *testing.T) {
	_, err := run(t, testEnv(t, staticSource{}, ""), "search", "--region", "Muscat", "--make", "Kia", "--issue", "smell")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_REGION")
}

func TestDiagnose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "2015", body["carYear"])
		assert.Equal(t, "ar", body["language"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"diagnosis":"## ملخص\nفحص الفرامل"}`))
	}))
	defer srv.Close()

	out, err := run(t, testEnv(t, staticSource{}, srv.URL), "diagnose",
		"--make", "Toyota", "--model", "Camry", "--year", "2015", "--issue", "squeaking brakes", "--lang", "ar")
	require.NoError(t, err)
	assert.Contains(t, out, "فحص الفرامل")
}

func TestDiagnose_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := run(t, testEnv(t, staticSource{}, srv.URL), "diagnose",
		"--make", "Toyota", "--model", "Camry", "--year", "2015", "--issue", "squeaking brakes")
	require.Error(t, err)
	assert.Equal(t, "DIAGNOSIS_RATE_LIMITED: Rate limit exceeded. Please try again in a moment.", err.Error())
}
