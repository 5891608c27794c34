// Package quarter provides calendar-quarter arithmetic for bounding which
// deals count toward a dashboard total. All functions are pure so quarter
// policy can be tested without wall-clock dependence.
package quarter

import (
	"fmt"
	"time"
)

// Bounds returns the half-open interval [start, end) of the calendar
// quarter containing t, evaluated in t's location. A quarter starts at
// midnight on the first day of January, April, July or October.
func Bounds(t time.Time) (start, end time.Time) {
	firstMonth := time.Month((int(t.Month())-1)/3*3 + 1)
	start = time.Date(t.Year(), firstMonth, 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 3, 0)
}

// Contains reports whether ts falls inside [start, end).
func Contains(ts, start, end time.Time) bool {
	return !ts.Before(start) && ts.Before(end)
}

// Label formats a quarter start as e.g. "2025-Q3".
func Label(start time.Time) string {
	return fmt.Sprintf("%d-Q%d", start.Year(), (int(start.Month())-1)/3+1)
}

// Parse turns a Label back into the quarter's start instant in loc.
func Parse(label string, loc *time.Location) (time.Time, error) {
	var year, q int
	if _, err := fmt.Sscanf(label, "%d-Q%d", &year, &q); err != nil {
		return time.Time{}, fmt.Errorf("invalid quarter %q", label)
	}
	if q < 1 || q > 4 {
		return time.Time{}, fmt.Errorf("invalid quarter %q", label)
	}
	return time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, loc), nil
}
