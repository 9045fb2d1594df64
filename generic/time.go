package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// TIME POINT - Calendar date abstraction
// =============================================================================

// TimePoint is a calendar date. Holdings are valued per day, so anything
// finer than a day is normalized away before comparison.
type TimePoint struct {
	Time time.Time
}

const DateLayout = "2006-01-02"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime drops the clock part of t, keeping its calendar date.
func FromTime(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func Today() TimePoint {
	return FromTime(time.Now())
}

// ParseDate accepts YYYY-MM-DD or a full RFC3339 timestamp.
func ParseDate(s string) (TimePoint, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return FromTime(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
	}
	return FromTime(t), nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.Before(other) || tp.Equal(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return tp.After(other) || tp.Equal(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint  { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }
func (tp TimePoint) AddYears(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(n, 0, 0)} }

// AddMonths moves n calendar months, clamping the day to the target month's
// last day (Jan 31 + 1 month = Feb 28/29, not Mar 3).
func (tp TimePoint) AddMonths(n int) TimePoint {
	first := time.Date(tp.Year(), tp.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return ClampedDate(first.Year(), first.Month(), tp.Day())
}

// Properties
func (tp TimePoint) Year() int          { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month  { return tp.Time.Month() }
func (tp TimePoint) Day() int           { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool       { return tp.Time.IsZero() }
func (tp TimePoint) Format(layout string) string { return tp.Time.Format(layout) }

func (tp TimePoint) String() string {
	return tp.Time.Format(DateLayout)
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func EndOfMonth(year int, month time.Month) TimePoint {
	return FromTime(time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1))
}

// ClampedDate returns day-of-month `day` in the given month, or the month's
// last day when the month is shorter.
func ClampedDate(year int, month time.Month, day int) TimePoint {
	last := EndOfMonth(year, month).Day()
	if day > last {
		day = last
	}
	return NewTimePoint(year, month, day)
}
