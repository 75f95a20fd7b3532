// Package weather implements the weather.gov forecast client. Entries get a
// snapshot of current conditions as journal context; the API is free and
// unauthenticated but requires a User-Agent and a two-step lookup (point to
// gridpoint, gridpoint to forecast).
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/lifequest/lifequest-hub/internal/domain/journal"
	"github.com/lifequest/lifequest-hub/pkg/circuitbreaker"
	"github.com/lifequest/lifequest-hub/pkg/retry"
	"github.com/lifequest/lifequest-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the weather.gov client.
type ClientConfig struct {
	// BaseURL is the API base URL (override for tests)
	BaseURL string

	// UserAgent identifies the app to weather.gov, which rejects requests
	// without one. Include a contact address per their API guidelines.
	UserAgent string

	// Latitude and Longitude locate the deployment. The app serves one
	// household, so a single point is enough.
	Latitude  float64
	Longitude float64

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults for the given point.
func DefaultClientConfig(lat, lon float64) ClientConfig {
	return ClientConfig{
		BaseURL:   "https://api.weather.gov",
		UserAgent: "lifequest-hub (contact: ops@lifequest.example)",
		Latitude:  lat,
		Longitude: lon,
		Timeout:   10 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// ErrNoForecast is returned when the API answers without a usable period.
var ErrNoForecast = errors.New("weather: no forecast periods in response")

// Client fetches current conditions from weather.gov. Implements
// command.WeatherProvider and query.DashboardWeather. All failures are
// non-fatal to callers; entries and dashboards degrade to absent weather.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	breaker    *circuitbreaker.CircuitBreaker
	retrier    *retry.Retrier

	// The point-to-gridpoint mapping never changes for a fixed deployment,
	// so it is resolved once and reused.
	mu          sync.Mutex
	forecastURL string
}

// NewClient creates a new weather.gov client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	logger := config.Logger.With("component", "weather_client")

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
		breaker: circuitbreaker.WeatherAPIBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		}),
		retrier: retry.WeatherRetrier(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// API RESPONSE SHAPES
// ══════════════════════════════════════════════════════════════════════════════

// pointResponse is the /points/{lat},{lon} response, reduced to the fields
// the client uses.
type pointResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
		GridID   string `json:"gridId"`
	} `json:"properties"`
}

// forecastResponse is the gridpoint forecast response.
type forecastResponse struct {
	Properties struct {
		Periods []forecastPeriod `json:"periods"`
	} `json:"properties"`
}

type forecastPeriod struct {
	Name            string  `json:"name"`
	Temperature     float64 `json:"temperature"`
	TemperatureUnit string  `json:"temperatureUnit"`
	ShortForecast   string  `json:"shortForecast"`
	IsDaytime       bool    `json:"isDaytime"`
}

// tempC converts the period temperature to Celsius.
func (p forecastPeriod) tempC() float64 {
	if p.TemperatureUnit == "F" {
		return (p.Temperature - 32) * 5 / 9
	}
	return p.Temperature
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot returns current conditions for the configured point.
func (c *Client) Snapshot(ctx context.Context) (*journal.WeatherSnapshot, error) {
	var snapshot *journal.WeatherSnapshot
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		return c.breaker.Execute(ctx, func(ctx context.Context) error {
			result, err := c.fetchSnapshot(ctx)
			if err != nil {
				return retry.Retryable(err)
			}
			snapshot = result
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("weather snapshot: %w", err)
	}
	return snapshot, nil
}

func (c *Client) fetchSnapshot(ctx context.Context) (*journal.WeatherSnapshot, error) {
	forecastURL, err := c.resolveForecastURL(ctx)
	if err != nil {
		return nil, err
	}

	var forecast forecastResponse
	if err := c.get(ctx, forecastURL, &forecast); err != nil {
		return nil, err
	}
	if len(forecast.Properties.Periods) == 0 {
		return nil, ErrNoForecast
	}

	period := forecast.Properties.Periods[0]
	return &journal.WeatherSnapshot{
		Summary:    period.ShortForecast,
		TempC:      period.tempC(),
		CapturedAt: timeutil.Now().Format(time.RFC3339),
	}, nil
}

// resolveForecastURL resolves and memoizes the gridpoint forecast URL for
// the configured point.
func (c *Client) resolveForecastURL(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.forecastURL != "" {
		return c.forecastURL, nil
	}

	pointURL := fmt.Sprintf("%s/points/%.4f,%.4f", c.config.BaseURL, c.config.Latitude, c.config.Longitude)

	var point pointResponse
	if err := c.get(ctx, pointURL, &point); err != nil {
		return "", fmt.Errorf("resolve gridpoint: %w", err)
	}
	if point.Properties.Forecast == "" {
		return "", fmt.Errorf("resolve gridpoint: no forecast URL for point")
	}

	c.forecastURL = point.Properties.Forecast
	c.logger.Info("resolved weather gridpoint",
		"grid_id", point.Properties.GridID, "forecast_url", c.forecastURL)
	return c.forecastURL, nil
}

func (c *Client) get(ctx context.Context, url string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weather api status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
