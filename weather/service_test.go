package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baseball-sim/sim-engine/models"
)

var gameTime = time.Date(2025, time.July, 4, 19, 10, 0, 0, time.UTC)

func newTestService(t *testing.T, apiKey, baseURL string) *Service {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return NewService(Options{
		APIKey:       apiKey,
		BaseURL:      baseURL,
		MaxRetries:   1,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 2 * time.Millisecond,
		RateLimit:    100,
		Logger:       logger,
	})
}

// forecastServer serves two 3-hour slots around gameTime and counts requests
func forecastServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	early := gameTime.Add(-3 * time.Hour).Unix()
	late := gameTime.Add(50 * time.Minute).Unix()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, "imperial", r.URL.Query().Get("units"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"list":[
			{"dt":%d,"main":{"temp":70.2,"pressure":1013.25,"humidity":40},"wind":{"speed":4,"deg":180}},
			{"dt":%d,"main":{"temp":88.6,"pressure":1013.25,"humidity":65},"wind":{"speed":12.7,"deg":0}}
		]}`, early, late)
	}))
}

func TestNewServiceDefaults(t *testing.T) {
	service := NewService(Options{APIKey: "test_key_123"})

	assert.Equal(t, "test_key_123", service.apiKey)
	assert.Equal(t, DefaultBaseURL, service.baseURL)
	assert.Equal(t, defaultRequestTimeout, service.httpClient.HTTPClient.Timeout)
	assert.Equal(t, defaultMaxRetries, service.httpClient.RetryMax)
	assert.Equal(t, defaultRetryWaitMax, service.httpClient.RetryWaitMax)
	assert.InDelta(t, defaultRateLimit, float64(service.limiter.Limit()), 1e-9)
	require.NotNil(t, service.cache)
}

func TestGetWeatherForGameDome(t *testing.T) {
	var hits int32
	server := forecastServer(t, &hits)
	defer server.Close()
	service := newTestService(t, "key", server.URL)

	stadium := models.Stadium{Name: "Tropicana Field", RoofType: "dome", Latitude: 27.77, Longitude: -82.65}
	weather, err := service.GetWeatherForGame(context.Background(), stadium, gameTime)

	require.NoError(t, err)
	assert.Equal(t, controlledConditions(), weather)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestGetWeatherForGameFetchesClosestSlot(t *testing.T) {
	var hits int32
	server := forecastServer(t, &hits)
	defer server.Close()
	service := newTestService(t, "key", server.URL)

	stadium := models.Stadium{Name: "Wrigley Field", RoofType: "outdoor", Latitude: 41.948, Longitude: -87.655}
	weather, err := service.GetWeatherForGame(context.Background(), stadium, gameTime)

	require.NoError(t, err)
	assert.Equal(t, 88, weather.Temperature)
	assert.Equal(t, 12, weather.WindSpeed)
	assert.Equal(t, "out", weather.WindDir)
	assert.Equal(t, 65, weather.Humidity)
	assert.InDelta(t, 29.92, weather.Pressure, 0.01)
}

func TestGetWeatherForGameUsesCache(t *testing.T) {
	var hits int32
	server := forecastServer(t, &hits)
	defer server.Close()
	service := newTestService(t, "key", server.URL)

	stadium := models.Stadium{Name: "Fenway Park", Latitude: 42.346, Longitude: -71.097}
	first, err := service.GetWeatherForGame(context.Background(), stadium, gameTime)
	require.NoError(t, err)
	second, err := service.GetWeatherForGame(context.Background(), stadium, gameTime.Add(10*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, 1, service.CacheStats()["entries"])
}

func TestGetWeatherForGameFallbacks(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer failing.Close()

	tests := []struct {
		name    string
		apiKey  string
		stadium models.Stadium
	}{
		{
			name:    "no coordinates",
			apiKey:  "key",
			stadium: models.Stadium{Name: "Nowhere Park", Altitude: 5200},
		},
		{
			name:    "no api key",
			apiKey:  "",
			stadium: models.Stadium{Name: "Coors Field", Latitude: 39.756, Longitude: -104.994, Altitude: 5200},
		},
		{
			name:    "upstream error",
			apiKey:  "key",
			stadium: models.Stadium{Name: "Coors Field", Latitude: 39.756, Longitude: -104.994, Altitude: 5200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(t, tt.apiKey, failing.URL)

			weather, err := service.GetWeatherForGame(context.Background(), tt.stadium, gameTime)

			require.NoError(t, err)
			assert.Equal(t, defaultWeather(tt.stadium, gameTime), weather)
			assert.Equal(t, 75, weather.Temperature)
			assert.InDelta(t, 24.72, weather.Pressure, 0.001)
		})
	}
}

func TestFetchForecastRetriesTransientFailure(t *testing.T) {
	var hits int32
	healthy := forecastServer(t, &hits)
	defer healthy.Close()

	var attempts int32
	flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		healthy.Config.Handler.ServeHTTP(w, r)
	}))
	defer flaky.Close()

	service := newTestService(t, "key", flaky.URL)
	stadium := models.Stadium{Name: "Wrigley Field", Latitude: 41.948, Longitude: -87.655}

	weather, err := service.fetchForecast(context.Background(), stadium, gameTime)

	require.NoError(t, err)
	assert.Equal(t, 88, weather.Temperature)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestFetchForecastClientErrorNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		http.Error(w, "bad coordinates", http.StatusBadRequest)
	}))
	defer server.Close()

	service := newTestService(t, "key", server.URL)
	_, err := service.fetchForecast(context.Background(), models.Stadium{Name: "Park", Latitude: 1, Longitude: 1}, gameTime)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestRetryPolicy(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		status int
		err    error
		retry  bool
	}{
		{"network error", 0, fmt.Errorf("connection reset"), true},
		{"rate limited", http.StatusTooManyRequests, nil, true},
		{"server error", http.StatusBadGateway, nil, true},
		{"unauthorized", http.StatusUnauthorized, nil, false},
		{"ok", http.StatusOK, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *http.Response
			if tt.err == nil {
				resp = &http.Response{StatusCode: tt.status}
			}
			retry, err := retryPolicy(ctx, resp, tt.err)
			require.NoError(t, err)
			assert.Equal(t, tt.retry, retry)
		})
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	retry, err := retryPolicy(cancelled, &http.Response{StatusCode: http.StatusBadGateway}, nil)
	assert.False(t, retry)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultWeatherSeason(t *testing.T) {
	stadium := models.Stadium{Name: "Park"}

	assert.Equal(t, 75, defaultWeather(stadium, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)).Temperature)
	assert.Equal(t, 55, defaultWeather(stadium, time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)).Temperature)
	assert.Equal(t, 55, defaultWeather(stadium, time.Date(2025, time.March, 28, 0, 0, 0, 0, time.UTC)).Temperature)
}

func TestDegreesToDirection(t *testing.T) {
	tests := []struct {
		degrees  int
		expected string
	}{
		{0, "out"},
		{45, "right"},
		{90, "right"},
		{135, "in"},
		{180, "in"},
		{225, "left"},
		{270, "left"},
		{315, "out"},
		{-45, "out"},
		{720, "out"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.degrees), func(t *testing.T) {
			assert.Equal(t, tt.expected, degreesToDirection(tt.degrees))
		})
	}
}

func TestCacheKey(t *testing.T) {
	stadium := models.Stadium{Name: "Yankee Stadium"}

	key1 := cacheKey(stadium, time.Date(2025, 7, 4, 19, 5, 0, 0, time.UTC))
	key2 := cacheKey(stadium, time.Date(2025, 7, 4, 19, 25, 0, 0, time.UTC))
	key3 := cacheKey(stadium, time.Date(2025, 7, 4, 19, 45, 0, 0, time.UTC))

	assert.Equal(t, key1, key2)
	assert.NotEqual(t, key1, key3)
}

func TestClosestForecastEmpty(t *testing.T) {
	_, err := closestForecast(forecastResponse{}, gameTime, models.Stadium{})
	assert.Error(t, err)
}

func TestValidateAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"list":[]}`))
	}))
	defer server.Close()

	assert.NoError(t, newTestService(t, "good", server.URL).ValidateAPIKey(context.Background()))
	assert.Error(t, newTestService(t, "bad", server.URL).ValidateAPIKey(context.Background()))
	assert.ErrorIs(t, newTestService(t, "", server.URL).ValidateAPIKey(context.Background()), ErrNoAPIKey)
}
