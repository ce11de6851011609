package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/social-listening/mentions-dashboard/internal/dashboard"
	"github.com/social-listening/mentions-dashboard/internal/models"
	"github.com/social-listening/mentions-dashboard/internal/notifications"
	"github.com/social-listening/mentions-dashboard/internal/storage"
)

const (
	// PeriodOnDemand labels reports generated outside the schedule
	PeriodOnDemand = "on-demand"

	influencerCount = 10
	filePrefix      = "report_"
)

// ErrReportNotFound is returned when no stored report has the requested name
var ErrReportNotFound = errors.New("report not found")

// Dashboard is the read side of the dashboard a report is built from
type Dashboard interface {
	Snapshot() dashboard.Snapshot
	Influencers(n int) []models.InfluencerStat
}

// Service generates dashboard digests, stores them and sends them out
type Service struct {
	dashboard     Dashboard
	storage       storage.StorageInterface
	notifications notifications.NotificationInterface
	now           func() time.Time
}

// NewService creates a report service. Either collaborator may be nil, in which
// case that step is skipped.
func NewService(dash Dashboard, store storage.StorageInterface, notifier notifications.NotificationInterface) *Service {
	return &Service{
		dashboard:     dash,
		storage:       store,
		notifications: notifier,
		now:           time.Now,
	}
}

// Generate builds a report from the dashboard's current filtered view
func (s *Service) Generate(period string) *models.Report {
	if period == "" {
		period = PeriodOnDemand
	}
	snapshot := s.dashboard.Snapshot()

	return &models.Report{
		GeneratedAt:   s.now().UTC(),
		Period:        period,
		TotalRecords:  snapshot.TotalRecords,
		TotalMentions: snapshot.FilteredCount,
		Filters:       snapshot.Filters,
		KPIs:          snapshot.KPIs,
		Charts:        snapshot.Charts,
		Influencers:   s.dashboard.Influencers(influencerCount),
	}
}

// Publish generates a report, stores it as JSON and sends it to the configured
// channels. The report is returned together with its stored name.
func (s *Service) Publish(ctx context.Context, period string) (*models.Report, string, error) {
	start := time.Now()
	report := s.Generate(period)

	name, err := s.store(ctx, report)
	if err != nil {
		logrus.Errorf("Failed to store report: %v", err)
		return report, "", err
	}

	if s.notifications != nil {
		if err := s.notifications.SendReport(ctx, report); err != nil {
			logrus.Errorf("Failed to send report: %v", err)
			return report, name, fmt.Errorf("failed to send report: %w", err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"period":   report.Period,
		"mentions": report.TotalMentions,
		"name":     name,
		"duration": time.Since(start).String(),
	}).Info("Report published")
	return report, name, nil
}

func (s *Service) store(ctx context.Context, report *models.Report) (string, error) {
	if s.storage == nil {
		return "", nil
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	name := fmt.Sprintf("%s%s.json", filePrefix, report.GeneratedAt.Format("2006-01-02_15-04-05"))
	if err := s.storage.Store(ctx, name, data); err != nil {
		return "", fmt.Errorf("failed to store report: %w", err)
	}
	return name, nil
}

// List returns stored report names, newest first
func (s *Service) List(ctx context.Context) ([]string, error) {
	if s.storage == nil {
		return []string{}, nil
	}
	names, err := s.storage.List(ctx, filePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Retrieve loads a stored report by name
func (s *Service) Retrieve(ctx context.Context, name string) (*models.Report, error) {
	if s.storage == nil || !strings.HasPrefix(name, filePrefix) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, name)
	}
	data, err := s.storage.Retrieve(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve report %s: %w", name, err)
	}

	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", name, err)
	}
	return &report, nil
}
