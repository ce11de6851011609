package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 50, cfg.MaxUploadMB)
	assert.Equal(t, 30, cfg.ComparisonDays)
	assert.Equal(t, 10000, cfg.DefaultEngagementMax)
	assert.Equal(t, "0", cfg.GoogleSheetGID)
	assert.Equal(t, 5*time.Minute, cfg.SheetCacheTTL)
	assert.True(t, cfg.LoadSampleOnStart)
	assert.False(t, cfg.SheetEnabled())
	assert.False(t, cfg.NotificationsEnabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GOOGLE_SHEET_ID", "sheet-123")
	t.Setenv("SHEET_REFRESH_SCHEDULE", "0 */15 * * * *")
	t.Setenv("SHEET_CACHE_TTL", "90s")
	t.Setenv("REPORT_SCHEDULE", "Weekly")
	t.Setenv("TEAMS_WEBHOOK_URL", "https://example.test/hook")
	t.Setenv("OPENAI_TEMPERATURE", "0.2")
	t.Setenv("COMPARISON_DAYS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.SheetEnabled())
	assert.Equal(t, 90*time.Second, cfg.SheetCacheTTL)
	assert.Equal(t, "weekly", cfg.ReportSchedule)
	assert.Equal(t, 0.2, cfg.OpenAITemperature)
	assert.Equal(t, 30, cfg.ComparisonDays)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "Unknown report schedule",
			env:  map[string]string{"REPORT_SCHEDULE": "hourly", "TEAMS_WEBHOOK_URL": "https://example.test"},
		},
		{
			name: "Report schedule without notification channel",
			env:  map[string]string{"REPORT_SCHEDULE": "daily"},
		},
		{
			name: "Email without SMTP",
			env:  map[string]string{"NOTIFICATION_EMAIL": "team@example.test"},
		},
		{
			name: "Sheet refresh without sheet",
			env:  map[string]string{"SHEET_REFRESH_SCHEDULE": "0 0 * * * *"},
		},
		{
			name: "Zero upload limit",
			env:  map[string]string{"MAX_UPLOAD_MB": "0"},
		},
		{
			name: "Temperature out of range",
			env:  map[string]string{"OPENAI_TEMPERATURE": "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
