package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRequestPayload_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		payload SearchRequestPayload
		want    SearchRequest
	}{
		{
			name:    "api names",
			payload: SearchRequestPayload{Region: "Dubai", VehicleMake: "Toyota", IssueText: "engine noise"},
			want:    SearchRequest{Region: "Dubai", VehicleMake: "Toyota", IssueText: "engine noise"},
		},
		{
			name:    "wizard aliases",
			payload: SearchRequestPayload{Emirate: " Sharjah ", CarMake: "Nissan", Issue: "brake squeal"},
			want:    SearchRequest{Region: "Sharjah", VehicleMake: "Nissan", IssueText: "brake squeal"},
		},
		{
			name:    "primary wins over alias",
			payload: SearchRequestPayload{Region: "Ajman", Emirate: "Dubai"},
			want:    SearchRequest{Region: "Ajman"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.payload.Normalize())
		})
	}
}

func TestYearText_Unmarshal(t *testing.T) {
	var req DiagnosisRequest
	require.NoError(t, json.Unmarshal([]byte(`{"carYear":2019}`), &req))
	assert.Equal(t, YearText("2019"), req.CarYear)

	require.NoError(t, json.Unmarshal([]byte(`{"carYear":" 2021 "}`), &req))
	assert.Equal(t, YearText("2021"), req.CarYear)

	out, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"carYear":"2021"`)
}

func TestNormalizedPlace_HasCategory(t *testing.T) {
	p := NormalizedPlace{Categories: []string{"shop:car_repair", "amenity:fuel"}}
	assert.True(t, p.HasCategory("shop:car_repair"))
	assert.False(t, p.HasCategory("shop:car"))
}
