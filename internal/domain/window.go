package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format accepted for date-range queries.
const DateLayout = "2006-01-02"

// TimeWindow is a half-open [Start, End) interval in UTC.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// LastDuration is the window ending now and spanning d.
func LastDuration(d time.Duration) TimeWindow {
	now := Now()
	return TimeWindow{Start: now.Add(-d), End: now}
}

// LastDays is the window ending now and spanning n days.
func LastDays(n int) TimeWindow {
	now := Now()
	return TimeWindow{Start: now.AddDate(0, 0, -n), End: now}
}

// Today spans from UTC midnight until now.
func Today() TimeWindow {
	now := Now()
	return TimeWindow{Start: startOfDay(now), End: now}
}

// CalendarMonth spans the whole of the given UTC month.
func CalendarMonth(year int, month time.Month) (TimeWindow, error) {
	if month < time.January || month > time.December {
		return TimeWindow{}, fmt.Errorf("%w: month must be between 1 and 12", ErrInvalidInput)
	}
	if year < 1900 || year > 9999 {
		return TimeWindow{}, fmt.Errorf("%w: year out of range", ErrInvalidInput)
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return TimeWindow{Start: start, End: start.AddDate(0, 1, 0)}, nil
}

// DateRange parses two YYYY-MM-DD dates. The end date is inclusive, so the
// window runs until midnight after it.
func DateRange(start, end string) (TimeWindow, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("%w: start must be YYYY-MM-DD", ErrInvalidInput)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("%w: end must be YYYY-MM-DD", ErrInvalidInput)
	}
	if e.Before(s) {
		return TimeWindow{}, fmt.Errorf("%w: start must not be after end", ErrInvalidInput)
	}
	return TimeWindow{Start: s, End: e.AddDate(0, 0, 1)}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
