package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *metric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestObservability_RecordSearch(t *testing.T) {
	reader := metric.NewManualReader()
	obs := NewWithReader(reader, "garage-advisor-test")
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordSearch(ctx, "Dubai", "osm", "ok", 5)
	obs.RecordSearch(ctx, "Dubai", "osm", "ok", 3)

	metrics := collect(t, reader)
	require.Contains(t, metrics, "garage.searches")
	sum, ok := metrics["garage.searches"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	require.Contains(t, metrics, "garage.results")
}

func TestObservability_NilSafe(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		obs.RecordSearch(context.Background(), "Dubai", "osm", "ok", 1)
		obs.RecordJobProcessed(context.Background(), "search-garages", "completed")
		obs.Shutdown()
	})
}
