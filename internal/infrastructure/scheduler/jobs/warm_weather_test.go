package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifequest/lifequest-hub/internal/domain/journal"
)

type fakeRefresher struct {
	calls    int
	snapshot *journal.WeatherSnapshot
	err      error
}

func (r *fakeRefresher) Refresh(ctx context.Context) (*journal.WeatherSnapshot, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.snapshot, nil
}

func TestWarmWeatherCacheJob_Run(t *testing.T) {
	refresher := &fakeRefresher{snapshot: &journal.WeatherSnapshot{
		Summary: "Partly Cloudy",
		TempC:   18.5,
	}}
	job := NewWarmWeatherCacheJob(refresher, nil, 0)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, refresher.calls)
	assert.Equal(t, "warm_weather_cache", job.Name())
}

func TestWarmWeatherCacheJob_RefreshFailure(t *testing.T) {
	refreshErr := errors.New("forecast service unreachable")
	job := NewWarmWeatherCacheJob(&fakeRefresher{err: refreshErr}, nil, 0)

	err := job.Run(context.Background())
	assert.ErrorIs(t, err, refreshErr)
}
