package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifequest/lifequest-hub/internal/domain/journal"
)

// forecastServer stubs the two-step weather.gov lookup.
func forecastServer(t *testing.T, temperature float64, unit, shortForecast string) *httptest.Server {
	t.Helper()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		switch {
		case strings.HasPrefix(r.URL.Path, "/points/"):
			fmt.Fprintf(w, `{"properties": {"gridId": "TST", "forecast": "%s/gridpoints/TST/1,1/forecast"}}`, server.URL)
		case strings.HasPrefix(r.URL.Path, "/gridpoints/"):
			fmt.Fprintf(w, `{"properties": {"periods": [
				{"name": "Today", "temperature": %g, "temperatureUnit": "%s", "shortForecast": "%s", "isDaytime": true}
			]}}`, temperature, unit, shortForecast)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return server
}

func testWeatherClient(baseURL string) *Client {
	config := DefaultClientConfig(40.7128, -74.0060)
	config.BaseURL = baseURL
	return NewClient(config)
}

func TestSnapshot_FetchesForecast(t *testing.T) {
	server := forecastServer(t, 68, "F", "Partly Cloudy")
	defer server.Close()

	client := testWeatherClient(server.URL)
	snapshot, err := client.Snapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Partly Cloudy", snapshot.Summary)
	assert.InDelta(t, 20.0, snapshot.TempC, 0.01)
	assert.NotEmpty(t, snapshot.CapturedAt)
}

func TestSnapshot_CelsiusPassthrough(t *testing.T) {
	server := forecastServer(t, 21.5, "C", "Sunny")
	defer server.Close()

	client := testWeatherClient(server.URL)
	snapshot, err := client.Snapshot(context.Background())

	require.NoError(t, err)
	assert.InDelta(t, 21.5, snapshot.TempC, 0.01)
}

func TestSnapshot_GridpointResolvedOnce(t *testing.T) {
	pointCalls := 0
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/points/"):
			pointCalls++
			fmt.Fprintf(w, `{"properties": {"gridId": "TST", "forecast": "%s/gridpoints/TST/1,1/forecast"}}`, server.URL)
		case strings.HasPrefix(r.URL.Path, "/gridpoints/"):
			fmt.Fprint(w, `{"properties": {"periods": [
				{"name": "Today", "temperature": 70, "temperatureUnit": "F", "shortForecast": "Clear"}
			]}}`)
		}
	}))
	defer server.Close()

	client := testWeatherClient(server.URL)
	_, err := client.Snapshot(context.Background())
	require.NoError(t, err)
	_, err = client.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, pointCalls, "point lookup should be memoized")
}

func TestSnapshot_EmptyPeriodsIsError(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/points/"):
			fmt.Fprintf(w, `{"properties": {"gridId": "TST", "forecast": "%s/gridpoints/TST/1,1/forecast"}}`, server.URL)
		default:
			fmt.Fprint(w, `{"properties": {"periods": []}}`)
		}
	}))
	defer server.Close()

	client := testWeatherClient(server.URL)
	_, err := client.Snapshot(context.Background())

	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Cached provider
// ─────────────────────────────────────────────────────────────────────────────

type fakeSnapshotCache struct {
	snapshot *journal.WeatherSnapshot
	sets     int
}

func (f *fakeSnapshotCache) Get(ctx context.Context) (*journal.WeatherSnapshot, error) {
	return f.snapshot, nil
}

func (f *fakeSnapshotCache) Set(ctx context.Context, snapshot *journal.WeatherSnapshot) error {
	f.snapshot = snapshot
	f.sets++
	return nil
}

func TestCachedProvider_ServesFromCache(t *testing.T) {
	server := forecastServer(t, 50, "F", "Rain")
	defer server.Close()

	cache := &fakeSnapshotCache{snapshot: &journal.WeatherSnapshot{Summary: "Cached Fog", TempC: 11}}
	provider := NewCachedProvider(testWeatherClient(server.URL), cache)

	snapshot, err := provider.Snapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Cached Fog", snapshot.Summary)
}

func TestCachedProvider_MissFallsThroughAndPopulates(t *testing.T) {
	server := forecastServer(t, 50, "F", "Rain")
	defer server.Close()

	cache := &fakeSnapshotCache{}
	provider := NewCachedProvider(testWeatherClient(server.URL), cache)

	snapshot, err := provider.Snapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Rain", snapshot.Summary)
	assert.Equal(t, 1, cache.sets)
}

func TestCachedProvider_RefreshOverwritesCache(t *testing.T) {
	server := forecastServer(t, 50, "F", "Rain")
	defer server.Close()

	cache := &fakeSnapshotCache{snapshot: &journal.WeatherSnapshot{Summary: "Stale"}}
	provider := NewCachedProvider(testWeatherClient(server.URL), cache)

	snapshot, err := provider.Refresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Rain", snapshot.Summary)
	assert.Equal(t, "Rain", cache.snapshot.Summary)
}
