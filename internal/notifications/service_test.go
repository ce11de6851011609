package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/social-listening/mentions-dashboard/internal/config"
	"github.com/social-listening/mentions-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type mockDialer struct {
	mock.Mock
}

func (m *mockDialer) DialAndSend(msgs ...*gomail.Message) error {
	args := m.Called(msgs)
	return args.Error(0)
}

func testReport() *models.Report {
	return &models.Report{
		GeneratedAt:   time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
		Period:        "weekly",
		TotalRecords:  5,
		TotalMentions: 3,
		KPIs: models.KPISummary{
			TotalMentions:     models.Metric{Value: 3, Change: 50, Trend: models.TrendUp},
			TotalEngagement:   models.Metric{Value: 6550, Change: -10, Trend: models.TrendDown},
			AvgEngagementRate: models.Metric{Value: 2183.3, Trend: models.TrendStable},
			SentimentScore:    models.SentimentScore{Value: 100},
		},
		Charts: models.ChartData{
			SentimentDistribution: []models.SentimentSlice{
				{Name: "Positive", Count: 3, Percentage: 100, ColorHint: models.ColorSuccess},
			},
			ChannelPerformance: []models.ChannelStat{
				{Channel: "Facebook", MentionCount: 2, TotalEngagement: 3350},
				{Channel: "Instagram", MentionCount: 1, TotalEngagement: 3200},
			},
			TopCategories: []models.CategoryStat{
				{Category: "ESG Branding", MentionCount: 2, Percentage: 66.7},
			},
		},
		Influencers: []models.InfluencerStat{
			{Username: "dave", Mentions: 1, TotalEngagement: 3200, PositiveRate: 100},
		},
	}
}

func TestService_SendReport_Teams(t *testing.T) {
	var received TeamsMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := NewService(&config.Config{TeamsWebhookURL: server.URL})
	require.NoError(t, service.SendReport(context.Background(), testReport()))

	assert.Equal(t, "MessageCard", received.Type)
	assert.Equal(t, "Social Listening Digest - Weekly", received.Title)
	assert.Equal(t, "3 of 5 mentions match the active filters", received.Text)
	require.Len(t, received.Sections, 4)
	assert.Equal(t, "Key metrics", received.Sections[0].ActivityTitle)
	assert.Equal(t, "3 (+50.0%, up)", received.Sections[0].Facts[0].Value)
	assert.Contains(t, received.Sections[2].ActivityText, "**Facebook** - 2 mentions, 3350 engagement")
	assert.Contains(t, received.Sections[3].ActivityText, "**dave**")
}

func TestBuildTeamsMessage_TopChannelsByMentionCount(t *testing.T) {
	report := testReport()
	report.Charts.ChannelPerformance = []models.ChannelStat{
		{Channel: "Website", MentionCount: 1, TotalEngagement: 10},
		{Channel: "Twitter", MentionCount: 1, TotalEngagement: 20},
		{Channel: "Instagram", MentionCount: 1, TotalEngagement: 30},
		{Channel: "TikTok", MentionCount: 1, TotalEngagement: 40},
		{Channel: "YouTube", MentionCount: 1, TotalEngagement: 50},
		{Channel: "Facebook", MentionCount: 50, TotalEngagement: 9000},
	}

	message := NewService(&config.Config{}).buildTeamsMessage(report)

	var channels *TeamsSection
	for i := range message.Sections {
		if message.Sections[i].ActivityTitle == "Top Channels" {
			channels = &message.Sections[i]
		}
	}
	require.NotNil(t, channels)

	lines := strings.Split(channels.ActivityText, "\n\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "**Facebook** - 50 mentions, 9000 engagement", lines[0])
	assert.NotContains(t, channels.ActivityText, "YouTube")
	assert.Equal(t, "Website", report.Charts.ChannelPerformance[0].Channel)
}

func TestService_SendReport_CollectsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad payload"))
	}))
	defer server.Close()

	dialer := &mockDialer{}
	dialer.On("DialAndSend", mock.Anything).Return(errors.New("smtp unavailable"))

	service := NewService(&config.Config{
		TeamsWebhookURL:   server.URL,
		NotificationEmail: "team@example.test",
		SMTPUsername:      "bot@example.test",
	})
	service.dialer = dialer

	err := service.SendReport(context.Background(), testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Teams: Teams webhook returned status 400: bad payload")
	assert.Contains(t, err.Error(), "Email: failed to send email: smtp unavailable")
	dialer.AssertNumberOfCalls(t, "DialAndSend", 1)
}

func TestService_SendReport_Email(t *testing.T) {
	dialer := &mockDialer{}
	dialer.On("DialAndSend", mock.MatchedBy(func(msgs []*gomail.Message) bool {
		if len(msgs) != 1 {
			return false
		}
		subject := msgs[0].GetHeader("Subject")
		to := msgs[0].GetHeader("To")
		return len(subject) == 1 && subject[0] == "Social Listening Digest - Weekly (3 mentions)" &&
			len(to) == 1 && to[0] == "team@example.test"
	})).Return(nil)

	service := NewService(&config.Config{
		NotificationEmail: "team@example.test",
		SMTPUsername:      "bot@example.test",
	})
	service.dialer = dialer

	require.NoError(t, service.SendReport(context.Background(), testReport()))
	dialer.AssertExpectations(t)
}

func TestBuildEmailHTML(t *testing.T) {
	html, err := buildEmailHTML(testReport())
	require.NoError(t, err)

	assert.Contains(t, html, "Weekly digest generated on January 15, 2024")
	assert.Contains(t, html, `<span class="up">+50.0%</span>`)
	assert.Contains(t, html, "<td>Facebook</td><td>2</td><td>3350</td>")
	assert.Contains(t, html, "<td>ESG Branding</td>")
	assert.Contains(t, html, "<td>dave</td>")
}

func TestBuildEmailText(t *testing.T) {
	text := buildEmailText(testReport())

	assert.Contains(t, text, "Social Listening Digest - Weekly")
	assert.Contains(t, text, "Total Engagement: 6550 (-10.0%, down)")
	assert.Contains(t, text, "Positive   3 (100.0%)")
	assert.Contains(t, text, "1. dave - 1 mentions, 3200 engagement")
}

func TestService_SendAlert(t *testing.T) {
	var received TeamsMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	alert := &models.Alert{
		Type:      "sheet_refresh",
		Title:     "Sheet refresh failed",
		Message:   "google sheet export returned status 404",
		CreatedAt: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
	}

	service := NewService(&config.Config{TeamsWebhookURL: server.URL})
	require.NoError(t, service.SendAlert(context.Background(), alert))
	assert.Equal(t, "Sheet refresh failed", received.Title)
	assert.Equal(t, "sheet_refresh", received.Sections[0].Facts[0].Value)

	// Without a webhook the alert is only logged
	assert.NoError(t, NewService(&config.Config{}).SendAlert(context.Background(), alert))
}
