package places

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "garage-advisor/internal/common/errors"
	commonhttp "garage-advisor/internal/common/http"
	"garage-advisor/internal/common/logger"
	"garage-advisor/internal/models"
	"garage-advisor/internal/ranking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const overpassFixture = `{
  "elements": [
    {"type": "node", "id": 101, "lat": 25.2001, "lon": 55.2701,
     "tags": {"name": "Al Quoz Brake Centre", "shop": "car_repair", "addr:street": "Street 18", "addr:city": "Dubai", "opening_hours": "24/7"}},
    {"type": "way", "id": 202, "center": {"lat": 25.2101, "lon": 55.2801},
     "tags": {"shop": "car_parts", "brand": "AutoPro"}},
    {"type": "node", "id": 303, "lat": 25.3, "lon": 55.3},
    {"type": "node", "id": 404, "tags": {"name": "Floating"}},
    {"type": "node", "id": 505, "lat": 25.22, "lon": 55.29, "tags": {"craft": "car_repair"}}
  ]
}`

const nominatimFixture = `[
  {"osm_type": "node", "osm_id": 101, "lat": "25.2001", "lon": "55.2701",
   "display_name": "Al Quoz Brake Centre, Street 18, Dubai, UAE", "class": "shop", "type": "car_repair"},
  {"osm_type": "way", "osm_id": 909, "lat": "25.19", "lon": "55.25",
   "display_name": "Nissan Service Hub, Umm Suqeim, Dubai, UAE", "class": "shop", "type": "car_repair",
   "address": {"road": "Al Wasl Road", "city": "Dubai"}, "extratags": {"phone": "+971 4 555 0000"}},
  {"osm_type": "node", "osm_id": 1, "lat": "not-a-number", "lon": "55.25", "display_name": "Broken"}
]`

type fakeOSM struct {
	overpassCalls  int32
	nominatimCalls int32
	failOverpass   bool
	failNominatim  int32 // number of leading nominatim calls to fail; -1 fails all
}

func (f *fakeOSM) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/interpreter", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.overpassCalls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.True(t, strings.HasPrefix(r.PostForm.Get("data"), "[out:json]"))
		if f.failOverpass {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		_, _ = w.Write([]byte(overpassFixture))
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&f.nominatimCalls, 1)
		q := r.URL.Query()
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "1", q.Get("extratags"))
		assert.Equal(t, "garage-advisor-test", r.Header.Get("User-Agent"))
		limit := atomic.LoadInt32(&f.failNominatim)
		if limit < 0 || n <= limit {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(nominatimFixture))
	})
	return httptest.NewServer(mux)
}

func newTestOSMSource(t *testing.T, baseURL string) *OSMSource {
	return NewOSMSource(
		OSMConfig{OverpassURL: baseURL + "/api/interpreter", NominatimURL: baseURL + "/search"},
		commonhttp.NewClient(5*time.Second, commonhttp.WithUserAgent("garage-advisor-test")),
		// One at a time so the failing Nominatim calls are deterministic.
		FanOutOptions{MaxConcurrency: 1, Timeout: 2 * time.Second},
		logger.NewTestLogger(t),
	)
}

func byID(places []models.NormalizedPlace) map[string]models.NormalizedPlace {
	out := make(map[string]models.NormalizedPlace, len(places))
	for _, p := range places {
		if _, ok := out[p.ID]; !ok {
			out[p.ID] = p
		}
	}
	return out
}

func TestOSMSource_Search(t *testing.T) {
	fake := &fakeOSM{}
	srv := fake.server(t)
	defer srv.Close()

	got, err := newTestOSMSource(t, srv.URL).Search(context.Background(), dubai(t), "Nissan", "brake")
	require.NoError(t, err)

	assert.Equal(t, int32(1), fake.overpassCalls)
	assert.Equal(t, int32(4), fake.nominatimCalls)

	places := byID(ranking.Dedupe(got))
	assert.Len(t, places, 4, "node 101 from both upstreams merges by id")

	node := places["osm_node_101"]
	assert.Equal(t, "Al Quoz Brake Centre", node.Name)
	assert.Equal(t, []string{"shop:car_repair"}, node.Categories)
	assert.Equal(t, []string{"Street 18", "Dubai"}, node.AddressParts)
	assert.Equal(t, "24/7", node.OpeningHours)
	assert.Nil(t, node.Rating)

	way := places["osm_way_202"]
	assert.Equal(t, "AutoPro", way.Name)
	assert.Equal(t, 25.2101, way.Coordinates.Lat)

	craft := places["osm_node_505"]
	assert.Equal(t, "Automotive Service", craft.Name)
	assert.Equal(t, []string{"craft:car_repair"}, craft.Categories)

	hub := places["osm_way_909"]
	assert.Equal(t, "Nissan Service Hub", hub.Name)
	assert.Equal(t, "+971 4 555 0000", hub.Phone)
	assert.Equal(t, []string{"Al Wasl Road", "Dubai"}, hub.AddressParts)
	assert.Equal(t, "Nissan Service Hub, Umm Suqeim, Dubai, UAE", hub.FormattedAddress)

	_, untagged := places["osm_node_303"]
	assert.False(t, untagged)
	_, floating := places["osm_node_404"]
	assert.False(t, floating)
}

func TestOSMSource_PartialFailure(t *testing.T) {
	fake := &fakeOSM{failOverpass: true, failNominatim: 1}
	srv := fake.server(t)
	defer srv.Close()

	log, logs := logger.NewObservedLogger()
	src := NewOSMSource(
		OSMConfig{OverpassURL: srv.URL + "/api/interpreter", NominatimURL: srv.URL + "/search"},
		commonhttp.NewClient(5*time.Second, commonhttp.WithUserAgent("garage-advisor-test")),
		FanOutOptions{MaxConcurrency: 1},
		log,
	)

	got, err := src.Search(context.Background(), dubai(t), "Nissan", "")
	require.NoError(t, err)
	assert.Len(t, byID(got), 2)
	assert.Equal(t, 2, logs.FilterMessage("sub-query failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("partial upstream failure").Len())
}

func TestOSMSource_AllFail(t *testing.T) {
	fake := &fakeOSM{failOverpass: true, failNominatim: -1}
	srv := fake.server(t)
	defer srv.Close()

	got, err := newTestOSMSource(t, srv.URL).Search(context.Background(), dubai(t), "Nissan", "")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUpstreamUnavailable))
	assert.Equal(t, apperrors.MsgNetwork, apperrors.UserMessage(err))
}

func TestOSMName(t *testing.T) {
	tests := []struct {
		tags map[string]string
		want string
	}{
		{tags: map[string]string{"name": "Desert Motors", "brand": "X"}, want: "Desert Motors"},
		{tags: map[string]string{"brand": "ADNOC"}, want: "ADNOC"},
		{tags: map[string]string{"operator": "ENOC"}, want: "ENOC"},
		{tags: map[string]string{"shop": "car_parts"}, want: "car parts shop"},
		{tags: map[string]string{"shop": "car_repair"}, want: "car repair shop"},
		{tags: map[string]string{"amenity": "car_wash"}, want: "car wash station"},
		{tags: map[string]string{"shop": "tyres"}, want: "tyres shop"},
		{tags: map[string]string{}, want: "Automotive Service"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, osmName(tt.tags))
		})
	}
}
