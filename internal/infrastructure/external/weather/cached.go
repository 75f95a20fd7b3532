package weather

import (
	"context"

	"github.com/lifequest/lifequest-hub/internal/domain/journal"
)

// SnapshotCache stores the most recent snapshot. The redis WeatherCache
// implements it.
type SnapshotCache interface {
	Get(ctx context.Context) (*journal.WeatherSnapshot, error)
	Set(ctx context.Context, snapshot *journal.WeatherSnapshot) error
}

// CachedProvider serves snapshots from cache when available, falling back to
// the live client. The worker's warm job keeps the cache fresh, so journal
// writes rarely pay the weather.gov round trip.
type CachedProvider struct {
	client *Client
	cache  SnapshotCache
}

// NewCachedProvider creates a CachedProvider. cache may be nil, in which
// case every call hits the live client.
func NewCachedProvider(client *Client, cache SnapshotCache) *CachedProvider {
	return &CachedProvider{
		client: client,
		cache:  cache,
	}
}

// Snapshot returns cached conditions when fresh, live conditions otherwise.
func (p *CachedProvider) Snapshot(ctx context.Context) (*journal.WeatherSnapshot, error) {
	if p.cache != nil {
		if snapshot, err := p.cache.Get(ctx); err == nil && snapshot != nil {
			return snapshot, nil
		}
	}

	snapshot, err := p.client.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		_ = p.cache.Set(ctx, snapshot)
	}
	return snapshot, nil
}

// Refresh fetches live conditions and stores them, returning the snapshot.
// The warm job calls this on its schedule.
func (p *CachedProvider) Refresh(ctx context.Context) (*journal.WeatherSnapshot, error) {
	snapshot, err := p.client.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		if err := p.cache.Set(ctx, snapshot); err != nil {
			return snapshot, err
		}
	}
	return snapshot, nil
}
