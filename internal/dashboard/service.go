package dashboard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/social-listening/mentions-dashboard/internal/analytics"
	"github.com/social-listening/mentions-dashboard/internal/config"
	"github.com/social-listening/mentions-dashboard/internal/models"
)

// DefaultEngagementMax is the engagement ceiling used when no records are loaded
const DefaultEngagementMax = 10000

// ErrNotSetDimension is returned when a value operation targets a dimension that
// is not set-valued (dateRange, engagementRange) or does not exist.
var ErrNotSetDimension = errors.New("not a set-valued filter dimension")

// View selects which aggregate the presentation layer foregrounds
type View string

const (
	ViewOverview    View = "overview"
	ViewSentiment   View = "sentiment"
	ViewPerformance View = "performance"
	ViewInfluencer  View = "influencer"
	ViewContent     View = "content"
)

// Views lists every view the presentation layer knows
var Views = []View{ViewOverview, ViewSentiment, ViewPerformance, ViewInfluencer, ViewContent}

func (v View) Valid() bool {
	for _, known := range Views {
		if v == known {
			return true
		}
	}
	return false
}

// Service is the single source of truth for the dashboard. Every mutation
// recomputes the filtered collection and the aggregates before it returns.
type Service struct {
	comparisonDays int
	fallbackMax    int

	mu        sync.RWMutex
	records   []models.Mention
	filtered  []models.Mention
	filters   models.FilterSet
	view      View
	loading   bool
	lastError string
	kpis      models.KPISummary
	charts    models.ChartData
	updatedAt time.Time
}

// Snapshot is a consistent read of the whole dashboard state
type Snapshot struct {
	Filters       models.FilterSet  `json:"filters"`
	View          View              `json:"view"`
	Loading       bool              `json:"loading"`
	Error         string            `json:"error,omitempty"`
	TotalRecords  int               `json:"totalRecords"`
	FilteredCount int               `json:"filteredCount"`
	KPIs          models.KPISummary `json:"kpis"`
	Charts        models.ChartData  `json:"charts"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// Selection is the filtered collection together with the filters and view that
// produced it
type Selection struct {
	Records []models.Mention
	Filters models.FilterSet
	View    View
}

// NewService creates an empty dashboard
func NewService(cfg *config.Config) *Service {
	s := &Service{
		comparisonDays: cfg.ComparisonDays,
		fallbackMax:    cfg.DefaultEngagementMax,
		filters:        models.DefaultFilters(),
		view:           ViewOverview,
	}
	if s.comparisonDays <= 0 {
		s.comparisonDays = analytics.DefaultComparisonDays
	}
	if s.fallbackMax <= 0 {
		s.fallbackMax = DefaultEngagementMax
	}
	s.recompute()
	return s
}

// SetRecords replaces the whole collection and re-derives the engagement ceiling
// from it.
func (s *Service) SetRecords(records []models.Mention) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append([]models.Mention{}, records...)
	limit := s.observedMax()
	s.filters.EngagementRange.Max = &limit
	s.recompute()

	logrus.WithFields(logrus.Fields{
		"records":        len(s.records),
		"engagement_max": limit,
	}).Info("Dashboard records replaced")
}

// SetFilters replaces each field present in patch
func (s *Service) SetFilters(patch models.FilterPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filters = s.filters.Merge(patch)
	s.recompute()
}

// AddFilterValue allows one more value in a set-valued dimension. Adding a value
// already present is a no-op.
func (s *Service) AddFilterValue(dim models.Dimension, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.filters.Values(dim)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotSetDimension, dim)
	}
	for _, v := range current {
		if v == value {
			return nil
		}
	}
	patch, _ := models.PatchFor(dim, append(current, value))
	s.filters = s.filters.Merge(patch)
	s.recompute()
	return nil
}

// RemoveFilterValue drops one value from a set-valued dimension. Removing an
// absent value is a no-op.
func (s *Service) RemoveFilterValue(dim models.Dimension, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.filters.Values(dim)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotSetDimension, dim)
	}
	kept := make([]string, 0, len(current))
	for _, v := range current {
		if v != value {
			kept = append(kept, v)
		}
	}
	if len(kept) == len(current) {
		return nil
	}
	patch, _ := models.PatchFor(dim, kept)
	s.filters = s.filters.Merge(patch)
	s.recompute()
	return nil
}

// ClearFilters resets every dimension to its permissive default, with the
// engagement ceiling taken from the loaded records.
func (s *Service) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filters = models.DefaultFilters()
	limit := s.observedMax()
	s.filters.EngagementRange.Max = &limit
	s.recompute()
}

func (s *Service) SetView(view View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = view
}

func (s *Service) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// SetError stores a user-facing error message; an empty message clears it
func (s *Service) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = message
}

// Records returns a copy of the full collection
func (s *Service) Records() []models.Mention {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Mention{}, s.records...)
}

// Filtered returns a copy of the filtered collection
func (s *Service) Filtered() []models.Mention {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Mention{}, s.filtered...)
}

// Selection reads the filtered records, filters and view under one lock
func (s *Service) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Selection{
		Records: append([]models.Mention{}, s.filtered...),
		Filters: s.filters.Clone(),
		View:    s.view,
	}
}

func (s *Service) Filters() models.FilterSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.Clone()
}

func (s *Service) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

func (s *Service) KPIs() models.KPISummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kpis
}

func (s *Service) Charts() models.ChartData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.charts.Clone()
}

// Influencers ranks the authors of the filtered collection
func (s *Service) Influencers(n int) []models.InfluencerStat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return analytics.TopInfluencers(s.filtered, n)
}

// Snapshot returns every derived view from a single consistent state
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Filters:       s.filters.Clone(),
		View:          s.view,
		Loading:       s.loading,
		Error:         s.lastError,
		TotalRecords:  len(s.records),
		FilteredCount: len(s.filtered),
		KPIs:          s.kpis,
		Charts:        s.charts.Clone(),
		UpdatedAt:     s.updatedAt,
	}
}

// recompute rebuilds every derived value. Callers hold the write lock.
func (s *Service) recompute() {
	start := time.Now()

	s.filtered = analytics.Apply(s.records, s.filters)
	previous := analytics.PreviousCollection(s.records, s.filters, s.filtered, s.comparisonDays)
	s.kpis = analytics.ComputeKPIs(s.filtered, previous)
	s.charts = analytics.ComputeCharts(s.filtered)
	s.updatedAt = time.Now()

	logrus.Debugf("Recomputed dashboard: %d/%d records pass filters, %d in comparison window (%v)",
		len(s.filtered), len(s.records), len(previous), time.Since(start))
}

func (s *Service) observedMax() int {
	if len(s.records) == 0 {
		return s.fallbackMax
	}
	limit := 0
	for _, record := range s.records {
		if record.TotalEngagement > limit {
			limit = record.TotalEngagement
		}
	}
	return limit
}
