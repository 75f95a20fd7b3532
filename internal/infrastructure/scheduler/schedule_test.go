package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalSchedule_Next(t *testing.T) {
	s := NewIntervalSchedule(30 * time.Minute)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, base.Add(30*time.Minute), s.Next(base))
	assert.Equal(t, "@every 30m0s", s.String())
}

func TestIntervalSchedule_ClampsBelowOneSecond(t *testing.T) {
	s := NewIntervalSchedule(10 * time.Millisecond)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, base.Add(time.Second), s.Next(base))
}

func TestDailyAtSchedule_NextSameDay(t *testing.T) {
	s, err := NewDailyAtSchedule(7, 30, time.UTC)
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 5, 0, 0, 0, time.UTC)
	next := s.Next(base)

	assert.Equal(t, time.Date(2025, 6, 1, 7, 30, 0, 0, time.UTC), next)
}

func TestDailyAtSchedule_RollsToNextDay(t *testing.T) {
	s, err := NewDailyAtSchedule(7, 30, time.UTC)
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	next := s.Next(base)

	assert.Equal(t, time.Date(2025, 6, 2, 7, 30, 0, 0, time.UTC), next)
}

func TestDailyAtSchedule_ExactTimeRollsForward(t *testing.T) {
	s, err := NewDailyAtSchedule(7, 30, time.UTC)
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 7, 30, 0, 0, time.UTC)
	next := s.Next(base)

	assert.Equal(t, time.Date(2025, 6, 2, 7, 30, 0, 0, time.UTC), next)
}

func TestDailyAtSchedule_NilLocationDefaultsUTC(t *testing.T) {
	s, err := NewDailyAtSchedule(0, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "@daily 00:00 UTC", s.String())
}

func TestDailyAtSchedule_InvalidBounds(t *testing.T) {
	_, err := NewDailyAtSchedule(24, 0, time.UTC)
	assert.Error(t, err)

	_, err = NewDailyAtSchedule(-1, 0, time.UTC)
	assert.Error(t, err)

	_, err = NewDailyAtSchedule(7, 60, time.UTC)
	assert.Error(t, err)
}
