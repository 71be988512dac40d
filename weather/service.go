// Package weather fetches game-time forecasts for outdoor ballparks.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/baseball-sim/sim-engine/metrics"
	"github.com/baseball-sim/sim-engine/models"
)

const (
	// DefaultBaseURL is the OpenWeatherMap 2.5 API root
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	defaultCacheTTL       = 30 * time.Minute
	defaultRequestTimeout = 10 * time.Second
	defaultMaxRetries     = 3
	defaultRetryWaitMin   = 250 * time.Millisecond
	defaultRetryWaitMax   = 5 * time.Second
	defaultRateLimit      = 5.0 // requests per second
)

// ErrNoAPIKey is returned when a forecast is requested without credentials
var ErrNoAPIKey = errors.New("weather API key not configured")

// Options configure a Service. Zero values fall back to the defaults.
type Options struct {
	APIKey       string
	BaseURL      string
	CacheTTL     time.Duration
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	RateLimit    float64 // requests per second
	Logger       logrus.FieldLogger
}

// Service handles weather data fetching and caching
type Service struct {
	apiKey     string
	baseURL    string
	httpClient *retryablehttp.Client
	limiter    *rate.Limiter
	cache      *cache.Cache
	logger     logrus.FieldLogger
}

// forecastResponse is the subset of the 5-day forecast payload we read
type forecastResponse struct {
	List []forecastEntry `json:"list"`
}

type forecastEntry struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		Pressure float64 `json:"pressure"` // hPa
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
}

// NewService creates a new weather service
func NewService(opts Options) *Service {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultRequestTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = defaultRetryWaitMin
	}
	if opts.RetryWaitMax < opts.RetryWaitMin {
		opts.RetryWaitMax = max(defaultRetryWaitMax, opts.RetryWaitMin)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	logger := opts.Logger.WithField("component", "weather")

	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = opts.Timeout
	client.RetryMax = opts.MaxRetries
	client.RetryWaitMin = opts.RetryWaitMin
	client.RetryWaitMax = opts.RetryWaitMax
	client.CheckRetry = retryPolicy
	client.Logger = retryLogger{logger: logger}

	return &Service{
		apiKey:     opts.APIKey,
		baseURL:    opts.BaseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		// go-cache sweeps expired entries on its own janitor goroutine
		cache:  cache.New(opts.CacheTTL, opts.CacheTTL/2),
		logger: logger,
	}
}

// GetWeatherForGame returns the forecast for a stadium at game time.
// Domes get controlled conditions; fetch failures fall back to seasonal defaults
// so a simulation never fails on weather.
func (s *Service) GetWeatherForGame(ctx context.Context, stadium models.Stadium, gameTime time.Time) (models.Weather, error) {
	logger := s.logger.WithField("stadium", stadium.Name)

	if stadium.IsDome() {
		logger.Debug("Indoor stadium, using controlled conditions")
		return controlledConditions(), nil
	}

	key := cacheKey(stadium, gameTime)
	if cached, ok := s.cache.Get(key); ok {
		metrics.RecordWeatherCacheLookup(true)
		return cached.(models.Weather), nil
	}
	metrics.RecordWeatherCacheLookup(false)

	if stadium.Latitude == 0 && stadium.Longitude == 0 {
		logger.Warn("No coordinates for stadium, using default weather")
		return defaultWeather(stadium, gameTime), nil
	}

	forecast, err := s.fetchForecast(ctx, stadium, gameTime)
	if err != nil {
		logger.WithError(err).Warn("Failed to fetch weather, using default")
		return defaultWeather(stadium, gameTime), nil
	}

	s.cache.SetDefault(key, forecast)
	return forecast, nil
}

// controlledConditions returns the climate of an indoor park
func controlledConditions() models.Weather {
	return models.Weather{
		Temperature: 72,
		WindSpeed:   0,
		WindDir:     "calm",
		Humidity:    50,
		Pressure:    29.92,
	}
}

// defaultWeather returns seasonal outdoor conditions for the game month
func defaultWeather(stadium models.Stadium, gameTime time.Time) models.Weather {
	temp := 55
	if month := gameTime.Month(); month >= time.April && month <= time.September {
		temp = 75
	}

	// Drop ~1 inHg per 1000 feet
	pressure := 29.92 - float64(stadium.Altitude)/1000.0

	return models.Weather{
		Temperature: temp,
		WindSpeed:   8,
		WindDir:     "varies",
		Humidity:    55,
		Pressure:    pressure,
	}
}

// fetchForecast calls the 5-day/3-hour forecast endpoint
func (s *Service) fetchForecast(ctx context.Context, stadium models.Stadium, gameTime time.Time) (models.Weather, error) {
	if s.apiKey == "" {
		return models.Weather{}, ErrNoAPIKey
	}

	params := url.Values{}
	params.Add("lat", fmt.Sprintf("%.4f", stadium.Latitude))
	params.Add("lon", fmt.Sprintf("%.4f", stadium.Longitude))
	params.Add("appid", s.apiKey)
	params.Add("units", "imperial") // Fahrenheit, mph
	params.Add("cnt", "40")

	resp, err := s.get(ctx, s.baseURL+"/forecast?"+params.Encode())
	if err != nil {
		return models.Weather{}, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Weather{}, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.Weather{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return closestForecast(payload, gameTime, stadium)
}

// get issues a rate-limited GET, retrying transient failures
func (s *Service) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return s.httpClient.Do(req)
}

// retryPolicy retries network errors, rate limiting and 5xx responses
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError, nil
}

// retryLogger routes retry chatter to logrus at debug level
type retryLogger struct {
	logger logrus.FieldLogger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(kvFields(keysAndValues)).Warn(msg)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(kvFields(keysAndValues)).Warn(msg)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func kvFields(keysAndValues []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

// closestForecast picks the 3-hour slot nearest to first pitch
func closestForecast(resp forecastResponse, gameTime time.Time, stadium models.Stadium) (models.Weather, error) {
	if len(resp.List) == 0 {
		return models.Weather{}, fmt.Errorf("no forecast data available")
	}

	closest := resp.List[0]
	minDiff := absDuration(gameTime.Sub(time.Unix(closest.Dt, 0)))
	for _, entry := range resp.List[1:] {
		if diff := absDuration(gameTime.Sub(time.Unix(entry.Dt, 0))); diff < minDiff {
			minDiff = diff
			closest = entry
		}
	}

	return models.Weather{
		Temperature: int(closest.Main.Temp),
		WindSpeed:   int(closest.Wind.Speed),
		WindDir:     degreesToDirection(closest.Wind.Deg),
		Humidity:    closest.Main.Humidity,
		Pressure:    hPaToInHg(closest.Main.Pressure) - float64(stadium.Altitude)/1000.0,
	}, nil
}

func hPaToInHg(hPa float64) float64 {
	if hPa <= 0 {
		return 29.92
	}
	return hPa * 0.02953
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// degreesToDirection maps a wind bearing to its effect on a batted ball:
// "out" toward the outfield, "in" toward the plate, "left"/"right" crosswinds
func degreesToDirection(degrees int) string {
	degrees %= 360
	if degrees < 0 {
		degrees += 360
	}

	switch {
	case degrees >= 293 || degrees < 23:
		return "out"
	case degrees < 113:
		return "right"
	case degrees < 203:
		return "in"
	default:
		return "left"
	}
}

// cacheKey rounds to the hour so nearby requests share a forecast
func cacheKey(stadium models.Stadium, gameTime time.Time) string {
	return fmt.Sprintf("%s_%s", stadium.Name, gameTime.UTC().Round(time.Hour).Format("2006-01-02T15"))
}

// CacheStats returns cache statistics for monitoring
func (s *Service) CacheStats() map[string]interface{} {
	return map[string]interface{}{
		"entries": s.cache.ItemCount(),
	}
}

// ValidateAPIKey checks the key against a single-slot forecast request
func (s *Service) ValidateAPIKey(ctx context.Context) error {
	if s.apiKey == "" {
		return ErrNoAPIKey
	}

	params := url.Values{}
	params.Add("lat", "40.7128")
	params.Add("lon", "-74.0060")
	params.Add("appid", s.apiKey)
	params.Add("cnt", "1")

	resp, err := s.get(ctx, s.baseURL+"/forecast?"+params.Encode())
	if err != nil {
		return fmt.Errorf("API key validation request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		s.logger.Info("Weather API key validated")
		return nil
	case http.StatusUnauthorized:
		return fmt.Errorf("invalid API key")
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API key validation failed with status %d: %s", resp.StatusCode, string(body))
	}
}
