package breadth

import (
	"time"

	"breadthcli/internal/errors"
)

// SelectWindow filters observations to a trailing window relative to
// now: everything with date >= now - windowDays is kept, inclusive at
// the lower bound. The cutoff is computed from now's calendar day so
// the bound does not drift with the time of day; stored dates are
// midnight-truncated and must compare equal to the cutoff exactly
// windowDays back. There is no upper bound; future-dated rows, if any,
// are retained. An empty selection is reported as
// errors.ErrInsufficientHistory so callers branch on "no data"
// explicitly instead of computing statistics over an empty slice.
func SelectWindow(history []Observation, now time.Time, windowDays int) ([]Observation, error) {
	if len(history) == 0 {
		return nil, errors.ErrInsufficientHistory
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	cutoff := day.AddDate(0, 0, -windowDays)
	var window []Observation
	for _, o := range history {
		if !o.Date.Before(cutoff) {
			window = append(window, o)
		}
	}

	if len(window) == 0 {
		return nil, errors.ErrInsufficientHistory
	}
	return window, nil
}

// LatestDate returns the maximum date present in the window.
func LatestDate(window []Observation) time.Time {
	var latest time.Time
	for _, o := range window {
		if o.Date.After(latest) {
			latest = o.Date
		}
	}
	return latest
}
