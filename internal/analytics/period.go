package analytics

import (
	"time"

	"github.com/social-listening/mentions-dashboard/internal/models"
)

// DefaultComparisonDays is the prior-window length used when the current window
// has no explicit start.
const DefaultComparisonDays = 30

const oneDay = 24 * time.Hour

// PreviousPeriod returns the window of equal length that ends the day before the
// current window starts. current is the already filtered collection and stands in
// for any open bound. ok is false when there is nothing to anchor a window on.
func PreviousPeriod(f models.FilterSet, current []models.Mention, defaultDays int) (start, end time.Time, ok bool) {
	if defaultDays <= 0 {
		defaultDays = DefaultComparisonDays
	}
	earliest, latest, hasDates := dateSpan(current)

	var anchor time.Time
	days := defaultDays

	switch {
	case f.DateRange.Start != nil:
		anchor = models.NormalizeDate(*f.DateRange.Start)
		var last time.Time
		if f.DateRange.End != nil {
			last = models.NormalizeDate(*f.DateRange.End)
		} else if hasDates {
			last = latest
		}
		if !last.IsZero() && !last.Before(anchor) {
			days = daysBetween(anchor, last) + 1
		}
	case hasDates:
		anchor = earliest
	case f.DateRange.End != nil:
		anchor = models.NormalizeDate(*f.DateRange.End)
	default:
		return time.Time{}, time.Time{}, false
	}

	start = anchor.AddDate(0, 0, -days)
	end = anchor.AddDate(0, 0, -1)
	return start, end, true
}

// PreviousCollection applies f to all with its date range swapped for the
// previous period of current. It returns nil when no previous window exists.
func PreviousCollection(all []models.Mention, f models.FilterSet, current []models.Mention, defaultDays int) []models.Mention {
	start, end, ok := PreviousPeriod(f, current, defaultDays)
	if !ok {
		return nil
	}
	return Apply(all, WithDateRange(f, start, end))
}

func dateSpan(records []models.Mention) (earliest, latest time.Time, ok bool) {
	for _, record := range records {
		if !record.HasDate() {
			continue
		}
		d := models.NormalizeDate(record.Date)
		if !ok || d.Before(earliest) {
			earliest = d
		}
		if !ok || d.After(latest) {
			latest = d
		}
		ok = true
	}
	return earliest, latest, ok
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / oneDay)
}
