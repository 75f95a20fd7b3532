package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lifequest/lifequest-hub/internal/domain/journal"
)

// WeatherRefresher fetches a fresh weather snapshot and stores it in the
// cache. Implemented by the weather CachedProvider.
type WeatherRefresher interface {
	Refresh(ctx context.Context) (*journal.WeatherSnapshot, error)
}

// WarmWeatherCacheJob refreshes the weather cache on a fixed interval so
// journal entries and the dashboard never wait on a live forecast lookup.
type WarmWeatherCacheJob struct {
	refresher WeatherRefresher
	logger    *slog.Logger
	timeout   time.Duration
}

// NewWarmWeatherCacheJob creates the job. A non-positive timeout defaults
// to 30 seconds.
func NewWarmWeatherCacheJob(refresher WeatherRefresher, logger *slog.Logger, timeout time.Duration) *WarmWeatherCacheJob {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WarmWeatherCacheJob{
		refresher: refresher,
		logger:    logger.With("job", "warm_weather_cache"),
		timeout:   timeout,
	}
}

// Name returns the job name.
func (j *WarmWeatherCacheJob) Name() string {
	return "warm_weather_cache"
}

// Description returns a human-readable description.
func (j *WarmWeatherCacheJob) Description() string {
	return "Refreshes the cached weather snapshot from the forecast service"
}

// Run executes the job.
func (j *WarmWeatherCacheJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	snapshot, err := j.refresher.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh weather snapshot: %w", err)
	}

	j.logger.Info("weather cache warmed",
		"summary", snapshot.Summary,
		"temp_c", snapshot.TempC,
	)
	return nil
}
