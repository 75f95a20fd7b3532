// Package timeutil provides timezone-aware date utilities for LifeQuest Hub.
// Journal streaks and daily task suggestions are computed against the
// deployment timezone, not UTC, so "today" matches what the player sees.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"sync/atomic"
	"time"
)

// appTZ is the deployment timezone. Defaults to UTC until SetLocation is
// called during startup with the configured zone.
var appTZ atomic.Pointer[time.Location]

func init() {
	appTZ.Store(time.UTC)
}

// SetLocation sets the deployment timezone. Call once during startup.
func SetLocation(loc *time.Location) {
	if loc != nil {
		appTZ.Store(loc)
	}
}

// Location returns the current deployment timezone.
func Location() *time.Location {
	return appTZ.Load()
}

// Now returns the current time in the deployment timezone.
func Now() time.Time {
	return time.Now().In(Location())
}

// ToLocal converts a time to the deployment timezone.
func ToLocal(t time.Time) time.Time {
	return t.In(Location())
}

// Date creates a time in the deployment timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, Location())
}

// DateTime creates a time in the deployment timezone with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, Location())
}

// StartOfDay returns the start of the day (00:00:00) in the deployment timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToLocal(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location())
}

// EndOfDay returns the end of the day (23:59:59.999999999) in the deployment timezone.
func EndOfDay(t time.Time) time.Time {
	local := ToLocal(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, Location())
}

// StartOfWeek returns the start of the week (Monday 00:00:00).
func StartOfWeek(t time.Time) time.Time {
	local := ToLocal(t)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	daysToSubtract := weekday - 1 // Monday = 1
	return StartOfDay(local.AddDate(0, 0, -daysToSubtract))
}

// EndOfWeek returns the end of the week (Sunday 23:59:59).
func EndOfWeek(t time.Time) time.Time {
	start := StartOfWeek(t)
	return EndOfDay(start.AddDate(0, 0, 6))
}

// IsToday checks if the given time is today in the deployment timezone.
func IsToday(t time.Time) bool {
	return IsSameDay(t, Now())
}

// IsYesterday checks if the given time is yesterday in the deployment timezone.
func IsYesterday(t time.Time) bool {
	return IsSameDay(t, Now().AddDate(0, 0, -1))
}

// DaysSince calculates the number of days since the given time.
func DaysSince(t time.Time) int {
	now := StartOfDay(Now())
	then := StartOfDay(t)
	duration := now.Sub(then)
	return int(duration.Hours() / 24)
}

// Streak-related utilities for journal tracking.

// IsSameDay checks if two times are on the same day in the deployment timezone.
func IsSameDay(t1, t2 time.Time) bool {
	a1, a2 := ToLocal(t1), ToLocal(t2)
	return a1.Year() == a2.Year() && a1.YearDay() == a2.YearDay()
}

// IsConsecutiveDay checks if t2 is the day after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	a1, a2 := ToLocal(t1), ToLocal(t2)
	nextDay := a1.AddDate(0, 0, 1)
	return IsSameDay(nextDay, a2)
}

// DaysBetween calculates the number of days between two times.
func DaysBetween(t1, t2 time.Time) int {
	a1 := StartOfDay(t1)
	a2 := StartOfDay(t2)
	duration := a2.Sub(a1)
	days := int(duration.Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// Suggestion timing. Daily quest suggestions are generated in the morning
// window so they land before the player plans their day.
const (
	// SuggestionWindowStart is when daily suggestions may start (6:00 AM).
	SuggestionWindowStart = 6
	// SuggestionWindowEnd is when daily suggestions stop (11:00 AM).
	SuggestionWindowEnd = 11
)

// IsSuggestionWindow checks if the given time falls in the morning
// suggestion window (6:00-11:00).
func IsSuggestionWindow(t time.Time) bool {
	hour := ToLocal(t).Hour()
	return hour >= SuggestionWindowStart && hour < SuggestionWindowEnd
}

// NextSuggestionWindow returns the next time the suggestion window opens.
func NextSuggestionWindow(t time.Time) time.Time {
	local := ToLocal(t)
	hour := local.Hour()

	if hour < SuggestionWindowStart {
		return DateTime(local.Year(), int(local.Month()), local.Day(), SuggestionWindowStart, 0, 0)
	} else if hour >= SuggestionWindowEnd {
		tomorrow := local.AddDate(0, 0, 1)
		return DateTime(tomorrow.Year(), int(tomorrow.Month()), tomorrow.Day(), SuggestionWindowStart, 0, 0)
	}

	// Already inside the window
	return local
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatHumanDate is a human-readable format.
	FormatHumanDate = "2 January 2006"
	// FormatShortDate is a short format (Jan 2).
	FormatShortDate = "Jan 2"
)

// FormatLocal formats a time in the deployment timezone with the given layout.
func FormatLocal(t time.Time, layout string) string {
	return ToLocal(t).Format(layout)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD).
func FormatDateStr(t time.Time) string {
	return FormatLocal(t, FormatDate)
}

// FormatRelative returns a human-readable relative time string.
func FormatRelative(t time.Time) string {
	now := Now()
	local := ToLocal(t)
	duration := now.Sub(local)

	if duration < 0 {
		duration = -duration
		return formatFutureDuration(duration)
	}

	return formatPastDuration(duration)
}

func formatPastDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hours := int(d.Hours())
		return fmt.Sprintf("%dh ago", hours)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%dd ago", days)
	case d < 30*24*time.Hour:
		weeks := int(d.Hours() / 24 / 7)
		return fmt.Sprintf("%dw ago", weeks)
	default:
		months := int(d.Hours() / 24 / 30)
		if months < 12 {
			return fmt.Sprintf("%dmo ago", months)
		}
		years := months / 12
		return fmt.Sprintf("%dy ago", years)
	}
}

func formatFutureDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		mins := int(d.Minutes())
		return fmt.Sprintf("in %dm", mins)
	case d < 24*time.Hour:
		hours := int(d.Hours())
		return fmt.Sprintf("in %dh", hours)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "tomorrow"
		}
		return fmt.Sprintf("in %dd", days)
	}
}

// ParseLocal parses a time string in the deployment timezone.
func ParseLocal(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, Location())
}

// ParseDateLocal parses a date string (YYYY-MM-DD) in the deployment timezone.
func ParseDateLocal(value string) (time.Time, error) {
	return ParseLocal(FormatDate, value)
}
