package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/social-listening/mentions-dashboard/internal/models"
	"github.com/social-listening/mentions-dashboard/internal/sources"
)

// ErrSourceDisabled is returned when a source has nothing to load
var ErrSourceDisabled = errors.New("source is not enabled")

// Store is the part of the dashboard the loader drives
type Store interface {
	SetLoading(loading bool)
	SetError(message string)
	SetRecords(records []models.Mention)
}

// Metrics holds ingestion metrics
type Metrics struct {
	LastSource         string         `json:"last_source"`
	LastLoad           time.Time      `json:"last_load"`
	LastLoadDuration   string         `json:"last_load_duration"`
	TotalRecords       int            `json:"total_records"`
	ChannelBreakdown   map[string]int `json:"channel_breakdown"`
	SentimentBreakdown map[string]int `json:"sentiment_breakdown"`
	LoadCount          int            `json:"load_count"`
	ErrorCount         int            `json:"error_count"`
	LastError          string         `json:"last_error,omitempty"`
}

// Loader moves records from a source into the dashboard
type Loader struct {
	store   Store
	timeout time.Duration

	// serializes loads so a slow sheet fetch cannot overwrite a newer upload
	loadMu sync.Mutex

	mu      sync.RWMutex
	metrics Metrics
}

// NewLoader creates a loader. A zero timeout leaves the caller's deadline alone.
func NewLoader(store Store, timeout time.Duration) *Loader {
	return &Loader{
		store:   store,
		timeout: timeout,
		metrics: Metrics{
			ChannelBreakdown:   map[string]int{},
			SentimentBreakdown: map[string]int{},
		},
	}
}

// Load fetches every record from src and replaces the dashboard collection. On
// failure the error is recorded on the dashboard and the previous collection is
// kept.
func (l *Loader) Load(ctx context.Context, src sources.Source) error {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()

	start := time.Now()
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	l.store.SetLoading(true)
	defer l.store.SetLoading(false)

	logrus.Infof("Loading mentions from %s", src.GetName())

	records, err := l.fetch(ctx, src)
	if err != nil {
		l.store.SetError(err.Error())
		l.recordFailure(src.GetName(), err)
		logrus.WithFields(logrus.Fields{
			"source":   src.GetName(),
			"duration": time.Since(start).String(),
		}).Errorf("Failed to load mentions: %v", err)
		return err
	}

	l.store.SetRecords(records)
	l.store.SetError("")
	l.recordSuccess(src.GetName(), records, time.Since(start))

	logrus.WithFields(logrus.Fields{
		"source":   src.GetName(),
		"records":  len(records),
		"duration": time.Since(start).String(),
	}).Info("Mentions loaded")
	return nil
}

func (l *Loader) fetch(ctx context.Context, src sources.Source) ([]models.Mention, error) {
	if !src.IsEnabled() {
		return nil, fmt.Errorf("%s: %w", src.GetName(), ErrSourceDisabled)
	}
	records, err := src.FetchMentions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", src.GetName(), err)
	}
	return records, nil
}

func (l *Loader) recordSuccess(source string, records []models.Mention, duration time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.metrics.LastSource = source
	l.metrics.LastLoad = time.Now()
	l.metrics.LastLoadDuration = duration.String()
	l.metrics.TotalRecords = len(records)
	l.metrics.LoadCount++
	l.metrics.LastError = ""

	// Reset counters
	l.metrics.ChannelBreakdown = map[string]int{}
	l.metrics.SentimentBreakdown = map[string]int{}

	for _, record := range records {
		l.metrics.ChannelBreakdown[labelOf(string(record.Channel))]++
		l.metrics.SentimentBreakdown[labelOf(string(record.Sentiment))]++
	}
}

func (l *Loader) recordFailure(source string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.metrics.LastSource = source
	l.metrics.ErrorCount++
	l.metrics.LastError = err.Error()
}

// Metrics returns a copy of the current ingestion metrics
func (l *Loader) Metrics() Metrics {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := l.metrics
	out.ChannelBreakdown = copyCounts(l.metrics.ChannelBreakdown)
	out.SentimentBreakdown = copyCounts(l.metrics.SentimentBreakdown)
	return out
}

// GetMetrics returns current metrics as JSON
func (l *Loader) GetMetrics() string {
	data, _ := json.MarshalIndent(l.Metrics(), "", "  ")
	return string(data)
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func labelOf(value string) string {
	if value == "" {
		return models.UnknownLabel
	}
	return value
}
