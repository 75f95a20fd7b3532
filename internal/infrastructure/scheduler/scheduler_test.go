package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *fakeJob) Name() string        { return j.name }
func (j *fakeJob) Description() string { return "fake job for tests" }

func (j *fakeJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	config := DefaultSchedulerConfig()
	config.Logger = slog.New(slog.NewTextHandler(testWriter{t}, nil))
	return NewScheduler(config)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestScheduler_Register(t *testing.T) {
	s := newTestScheduler(t)
	job := &fakeJob{name: "warm_weather_cache"}

	err := s.Register(job, NewIntervalSchedule(time.Hour))
	require.NoError(t, err)

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "warm_weather_cache", jobs[0].Name)
	assert.Equal(t, "@every 1h0m0s", jobs[0].Schedule)
	assert.False(t, jobs[0].NextRun.IsZero())
}

func TestScheduler_RegisterDuplicate(t *testing.T) {
	s := newTestScheduler(t)
	schedule := NewIntervalSchedule(time.Hour)

	require.NoError(t, s.Register(&fakeJob{name: "dup"}, schedule))
	err := s.Register(&fakeJob{name: "dup"}, schedule)
	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestScheduler_RegisterNil(t *testing.T) {
	s := newTestScheduler(t)

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&fakeJob{name: "job"}, nil), ErrNilSchedule)
}

func TestScheduler_RunNow(t *testing.T) {
	s := newTestScheduler(t)
	job := &fakeJob{name: "suggest_daily_tasks"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "suggest_daily_tasks")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(1), job.runs.Load())

	metrics := s.GetMetrics()
	require.NotNil(t, metrics)
	assert.Equal(t, int64(1), metrics.TotalExecutions)
	assert.Equal(t, int64(1), metrics.TotalSuccesses)
}

func TestScheduler_RunNowFailure(t *testing.T) {
	s := newTestScheduler(t)
	jobErr := errors.New("forecast service down")
	job := &fakeJob{name: "failing", err: jobErr}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "failing")
	assert.ErrorIs(t, err, jobErr)
	assert.False(t, result.Success)

	metrics := s.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalFailures)
	assert.Equal(t, int64(1), metrics.FailuresByJob["failing"])
}

func TestScheduler_RunNowUnknownJob(t *testing.T) {
	s := newTestScheduler(t)

	_, err := s.RunNow(context.Background(), "no_such_job")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_Lifecycle(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}
