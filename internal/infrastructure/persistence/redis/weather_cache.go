package redis

import (
	"context"
	"errors"
	"time"

	"github.com/lifequest/lifequest-hub/internal/domain/journal"
)

// WeatherCache holds the most recent forecast snapshot. The worker warms it
// on a schedule so journal entries and dashboards are served without waiting
// on weather.gov.
type WeatherCache struct {
	cache *Cache
	key   string
	ttl   time.Duration
}

// NewWeatherCache creates a WeatherCache backed by the given cache client.
func NewWeatherCache(cache *Cache) *WeatherCache {
	return &WeatherCache{
		cache: cache,
		key:   WeatherKey("current"),
		ttl:   TTLWeatherCache,
	}
}

// Get returns the cached snapshot, or nil on a miss.
func (w *WeatherCache) Get(ctx context.Context) (*journal.WeatherSnapshot, error) {
	var snapshot journal.WeatherSnapshot
	err := w.cache.Get(ctx, w.key, &snapshot)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

// Set stores the snapshot.
func (w *WeatherCache) Set(ctx context.Context, snapshot *journal.WeatherSnapshot) error {
	if snapshot == nil {
		return ErrCacheNilValue
	}
	return w.cache.Set(ctx, w.key, snapshot, w.ttl)
}
