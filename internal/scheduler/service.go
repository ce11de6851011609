package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/social-listening/mentions-dashboard/internal/config"
	"github.com/social-listening/mentions-dashboard/internal/models"
	"github.com/social-listening/mentions-dashboard/internal/notifications"
	"github.com/social-listening/mentions-dashboard/internal/sources"
)

const (
	dailyExpression  = "0 0 9 * * *"
	weeklyExpression = "0 0 9 * * MON"
	jobTimeout       = 10 * time.Minute
)

// Loader refreshes the dashboard from a source
type Loader interface {
	Load(ctx context.Context, src sources.Source) error
}

// Publisher generates and sends a digest for a period
type Publisher interface {
	Publish(ctx context.Context, period string) (*models.Report, string, error)
}

// Service handles scheduling of sheet refreshes and digests
type Service struct {
	config        *config.Config
	loader        Loader
	sheet         sources.Source
	reports       Publisher
	notifications notifications.NotificationInterface
	cron          *cron.Cron
}

// NewService creates a new scheduler service. sheet may be nil when no sheet
// is configured.
func NewService(cfg *config.Config, loader Loader, sheet sources.Source, reports Publisher, notifier notifications.NotificationInterface) *Service {
	return &Service{
		config:        cfg,
		loader:        loader,
		sheet:         sheet,
		reports:       reports,
		notifications: notifier,
		cron:          cron.New(cron.WithSeconds()),
	}
}

// Start registers the configured jobs and starts the scheduler
func (s *Service) Start() error {
	jobs := 0

	if s.config.SheetRefreshSchedule != "" && s.sheet != nil {
		if _, err := s.cron.AddFunc(s.config.SheetRefreshSchedule, s.RefreshSheet); err != nil {
			return fmt.Errorf("invalid sheet refresh schedule %q: %w", s.config.SheetRefreshSchedule, err)
		}
		jobs++
	}

	if expression := ReportExpression(s.config.ReportSchedule); expression != "" {
		if _, err := s.cron.AddFunc(expression, s.SendDigest); err != nil {
			return fmt.Errorf("invalid report schedule %q: %w", expression, err)
		}
		jobs++
	}

	s.cron.Start()
	logrus.WithFields(logrus.Fields{
		"sheet_refresh": s.config.SheetRefreshSchedule,
		"report":        s.config.ReportSchedule,
		"jobs":          jobs,
	}).Info("Scheduler started")
	return nil
}

// ReportExpression maps a report schedule name to a cron expression with
// seconds. Digests run at 09:00, daily or on Mondays.
func ReportExpression(schedule string) string {
	switch schedule {
	case "daily":
		return dailyExpression
	case "weekly":
		return weeklyExpression
	default:
		return ""
	}
}

// RefreshSheet reloads the dashboard from the sheet and alerts on failure
func (s *Service) RefreshSheet() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	logrus.Info("Starting scheduled sheet refresh")
	err := s.loader.Load(ctx, s.sheet)
	if err == nil {
		return
	}

	logrus.Errorf("Scheduled sheet refresh failed: %v", err)
	if s.notifications == nil {
		return
	}
	alert := &models.Alert{
		Type:      "sheet_refresh",
		Title:     "Sheet refresh failed",
		Message:   err.Error(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notifications.SendAlert(ctx, alert); err != nil {
		logrus.Errorf("Failed to send sheet refresh alert: %v", err)
	}
}

// SendDigest publishes the scheduled report
func (s *Service) SendDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	logrus.Infof("Starting scheduled %s digest", s.config.ReportSchedule)
	if _, _, err := s.reports.Publish(ctx, s.config.ReportSchedule); err != nil {
		logrus.Errorf("Scheduled digest failed: %v", err)
	}
}

// Entries returns the number of registered jobs
func (s *Service) Entries() int {
	return len(s.cron.Entries())
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
