package reports

import (
	"errors"
	"time"
)

// Period selects the reporting window relative to the current date.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ErrInvalidPeriod rejects period selectors outside week, month and year.
var ErrInvalidPeriod = errors.New("reports: invalid period")

// ParsePeriod validates a period selector.
func ParsePeriod(value string) (Period, error) {
	switch Period(value) {
	case PeriodWeek, PeriodMonth, PeriodYear:
		return Period(value), nil
	default:
		return "", ErrInvalidPeriod
	}
}

// Range is a half-open [Start, End) reporting window.
type Range struct {
	Period Period
	Start  time.Time
	End    time.Time
}

// Contains reports whether the instant falls inside the window.
func (r Range) Contains(instant time.Time) bool {
	return !instant.Before(r.Start) && instant.Before(r.End)
}

// RangeFor resolves the period into concrete bounds around now: the current
// ISO week starting Monday, the current calendar month, or the current
// calendar year.
func RangeFor(period Period, now time.Time) (Range, error) {
	now = now.UTC()
	switch period {
	case PeriodWeek:
		daysSinceMonday := (int(now.Weekday()) + 6) % 7
		monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, -daysSinceMonday)
		return Range{Period: period, Start: monday, End: monday.AddDate(0, 0, 7)}, nil
	case PeriodMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Range{Period: period, Start: start, End: start.AddDate(0, 1, 0)}, nil
	case PeriodYear:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return Range{Period: period, Start: start, End: start.AddDate(1, 0, 0)}, nil
	default:
		return Range{}, ErrInvalidPeriod
	}
}
