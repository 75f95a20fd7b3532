package scheduler

import (
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERVAL SCHEDULE
// ══════════════════════════════════════════════════════════════════════════════

// IntervalSchedule runs a job at a fixed interval.
type IntervalSchedule struct {
	interval time.Duration
}

// NewIntervalSchedule creates a schedule that fires every interval.
// Intervals below one second are clamped to one second, matching the
// scheduler's tick resolution.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	if interval < time.Second {
		interval = time.Second
	}
	return &IntervalSchedule{interval: interval}
}

// Next returns the next run time after t.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.interval)
}

// String returns a human-readable representation.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.interval)
}

// ══════════════════════════════════════════════════════════════════════════════
// DAILY SCHEDULE
// ══════════════════════════════════════════════════════════════════════════════

// DailyAtSchedule runs a job once per day at a fixed local time.
// Used for the morning task suggestion run.
type DailyAtSchedule struct {
	hour     int
	minute   int
	location *time.Location
}

// NewDailyAtSchedule creates a schedule that fires daily at hour:minute in
// the given location. A nil location defaults to UTC. Out-of-range hour or
// minute values are an error.
func NewDailyAtSchedule(hour, minute int, location *time.Location) (*DailyAtSchedule, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("invalid hour %d: must be 0-23", hour)
	}
	if minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid minute %d: must be 0-59", minute)
	}
	if location == nil {
		location = time.UTC
	}
	return &DailyAtSchedule{hour: hour, minute: minute, location: location}, nil
}

// Next returns the next occurrence of hour:minute strictly after t.
func (s *DailyAtSchedule) Next(t time.Time) time.Time {
	local := t.In(s.location)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// String returns a human-readable representation.
func (s *DailyAtSchedule) String() string {
	return fmt.Sprintf("@daily %02d:%02d %s", s.hour, s.minute, s.location)
}
