// Package analytics holds the pure filtering and aggregation pipeline behind the
// dashboard. Nothing here performs I/O or keeps state.
package analytics

import (
	"time"

	"github.com/social-listening/mentions-dashboard/internal/models"
)

// Apply returns the records that satisfy every dimension of f, in input order.
// The input slice is never modified.
func Apply(records []models.Mention, f models.FilterSet) []models.Mention {
	filtered := make([]models.Mention, 0, len(records))
	for _, record := range records {
		if Matches(record, f) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// Matches reports whether a single record passes f
func Matches(m models.Mention, f models.FilterSet) bool {
	if !inDateRange(m, f.DateRange) {
		return false
	}
	if !allowed(f.Sentiment, m.Sentiment) {
		return false
	}
	if !allowed(f.Channels, m.Channel) {
		return false
	}
	if !allowed(f.Categories, m.Category) {
		return false
	}
	if !allowed(f.SubCategories, m.SubCategory) {
		return false
	}
	if !allowed(f.ContentTypes, m.ContentType) {
		return false
	}
	if !allowed(f.SpeakerTypes, m.SpeakerType) {
		return false
	}
	if !allowed(f.Usernames, m.Username) {
		return false
	}
	return inEngagementRange(m.TotalEngagement, f.EngagementRange)
}

func inDateRange(m models.Mention, r models.DateRange) bool {
	if !r.IsSet() {
		return true
	}
	// Undated records fail closed whenever a bound is active.
	if !m.HasDate() {
		return false
	}
	day := models.NormalizeDate(m.Date)
	if r.Start != nil && day.Before(models.NormalizeDate(*r.Start)) {
		return false
	}
	if r.End != nil && day.After(models.NormalizeDate(*r.End)) {
		return false
	}
	return true
}

func inEngagementRange(engagement int, r models.EngagementRange) bool {
	if engagement < r.Min {
		return false
	}
	if r.Max != nil && engagement > *r.Max {
		return false
	}
	return true
}

func allowed[T comparable](set []T, value T) bool {
	if len(set) == 0 {
		return true
	}
	for _, candidate := range set {
		if candidate == value {
			return true
		}
	}
	return false
}

// WithDateRange returns a copy of f restricted to the given window
func WithDateRange(f models.FilterSet, start, end time.Time) models.FilterSet {
	out := f.Clone()
	out.DateRange = models.DateRange{Start: &start, End: &end}
	return out
}
