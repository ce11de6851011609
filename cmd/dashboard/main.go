package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/social-listening/mentions-dashboard/internal/cache"
	"github.com/social-listening/mentions-dashboard/internal/chat"
	"github.com/social-listening/mentions-dashboard/internal/config"
	"github.com/social-listening/mentions-dashboard/internal/dashboard"
	"github.com/social-listening/mentions-dashboard/internal/ingest"
	"github.com/social-listening/mentions-dashboard/internal/notifications"
	"github.com/social-listening/mentions-dashboard/internal/reporting"
	"github.com/social-listening/mentions-dashboard/internal/scheduler"
	"github.com/social-listening/mentions-dashboard/internal/server"
	"github.com/social-listening/mentions-dashboard/internal/sources"
	"github.com/social-listening/mentions-dashboard/internal/storage"
)

const (
	sampleSeed  = 42
	loadTimeout = 2 * time.Minute
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting mentions dashboard")

	ctx := context.Background()

	reportStore, err := newStorage(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	var notifier notifications.NotificationInterface
	if cfg.NotificationsEnabled() {
		notifier = notifications.NewService(cfg)
	}

	sheetCache, err := cache.New(ctx, cfg)
	if err != nil {
		logrus.Warnf("Sheet cache unavailable, continuing without it: %v", err)
		sheetCache = nil
	}
	if sheetCache != nil {
		defer sheetCache.Close()
	}

	var classifier sources.Classifier
	if cfg.InferMissingSentiment {
		classifier = sources.NewVaderClassifier()
	}
	normalizer := sources.NewRowNormalizer(classifier)

	dashboardService := dashboard.NewService(cfg)
	loader := ingest.NewLoader(dashboardService, loadTimeout)
	sample := sources.NewSampleSource(cfg.SampleSize, sampleSeed)

	var sheet sources.Source
	if cfg.SheetEnabled() {
		sheet = sources.NewGoogleSheetSource(cfg.GoogleSheetID, cfg.GoogleSheetGID, normalizer, sheetCache, cfg.SheetCacheTTL)
	}

	if cfg.LoadSampleOnStart {
		if err := loader.Load(ctx, sample); err != nil {
			logrus.Errorf("Failed to load sample data: %v", err)
		}
	}

	settings, err := chat.LoadSettings(cfg)
	if err != nil {
		logrus.Fatalf("Failed to load AI settings: %v", err)
	}
	chatService := chat.NewService(settings, cfg.AISettingsFile)

	reportService := reporting.NewService(dashboardService, reportStore, notifier)

	schedulerService := scheduler.NewService(cfg, loader, sheet, reportService, notifier)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	api := server.New(cfg, server.Dependencies{
		Dashboard:  dashboardService,
		Loader:     loader,
		Normalizer: normalizer,
		Sample:     sample,
		Sheet:      sheet,
		Chat:       chatService,
		Reports:    reportService,
	})
	httpServer := api.HTTPServer()

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

// newStorage uses Azure Blob Storage when an account is configured and the
// local report directory otherwise
func newStorage(ctx context.Context, cfg *config.Config) (storage.StorageInterface, error) {
	if cfg.StorageAccount != "" {
		return storage.NewAzureStorage(ctx, cfg.StorageAccount, cfg.StorageContainer)
	}
	logrus.Infof("Azure storage account not configured, storing reports in %s", cfg.ReportDir)
	return storage.NewLocalStorage(cfg.ReportDir)
}
