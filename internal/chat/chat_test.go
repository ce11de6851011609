package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/social-listening/mentions-dashboard/internal/config"
	"github.com/social-listening/mentions-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mentions() []models.Mention {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	return []models.Mention{
		{ID: "1", Date: day(11), Content: "Great launch #ESG #launch", Sentiment: models.SentimentPositive, Channel: models.ChannelFacebook, Category: models.CategoryBusinessBranding, TotalEngagement: 1250},
		{ID: "2", Date: day(12), Content: "Slow support response again", Sentiment: models.SentimentNegative, Channel: models.ChannelTwitter, Category: models.CategoryCrisisManagement, TotalEngagement: 830},
		{ID: "3", Date: day(13), Content: "Amazing ESG progress #ESG", Sentiment: models.SentimentPositive, Channel: models.ChannelFacebook, Category: models.CategoryESGBranding, TotalEngagement: 2100},
		{ID: "4", Date: day(14), Content: "Quarterly update published", Sentiment: models.SentimentNeutral, Channel: models.ChannelWebsite, Category: models.CategoryBusinessBranding, TotalEngagement: 950},
		{ID: "5", Date: day(15), Content: "Launch video is amazing", Sentiment: models.SentimentPositive, Channel: models.ChannelInstagram, Category: models.CategoryESGBranding, TotalEngagement: 3200},
	}
}

func TestDetectQuery(t *testing.T) {
	tests := []struct {
		name            string
		question        string
		queryType       string
		limit           int
		contentAnalysis bool
		channels        []models.Channel
		sentiment       []models.Sentiment
		categories      []models.Category
		minEngagement   int
	}{
		{
			name:      "Overview",
			question:  "Give me an overall summary",
			queryType: QueryOverview,
		},
		{
			name:      "Top N with channel",
			question:  "Show the top 3 Facebook mentions",
			queryType: QueryFiltered,
			limit:     3,
			channels:  []models.Channel{models.ChannelFacebook},
		},
		{
			name:       "Alternatives within a dimension",
			question:   "Compare negative posts on Twitter and Instagram about ESG",
			queryType:  QueryContentAnalysis,
			limit:      10,
			channels:   []models.Channel{models.ChannelTwitter, models.ChannelInstagram},
			sentiment:  []models.Sentiment{models.SentimentNegative},
			categories: []models.Category{models.CategoryESGBranding},

			contentAnalysis: true,
		},
		{
			name:          "Viral",
			question:      "Which mentions went viral?",
			queryType:     QueryFiltered,
			limit:         10,
			minEngagement: 1001,
		},
		{
			name:      "Breakdown",
			question:  "Sentiment breakdown by channel",
			queryType: QueryMultiDimension,
			limit:     10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := DetectQuery(tt.question)
			assert.Equal(t, tt.queryType, query.Type)
			assert.Equal(t, tt.limit, query.Limit)
			assert.Equal(t, tt.contentAnalysis, query.ContentAnalysis)
			assert.ElementsMatch(t, tt.channels, query.Filters.Channels)
			assert.ElementsMatch(t, tt.sentiment, query.Filters.Sentiment)
			assert.ElementsMatch(t, tt.categories, query.Filters.Categories)
			assert.Equal(t, tt.minEngagement, query.Filters.EngagementRange.Min)
		})
	}
}

func TestBuildContext_TopResults(t *testing.T) {
	dashCtx := BuildContext("top 2 facebook mentions", mentions(), models.DefaultFilters(), "overview")

	assert.Equal(t, 5, dashCtx.TotalItems)
	assert.Equal(t, 2, dashCtx.FilteredItems)
	require.Len(t, dashCtx.TopResults, 2)
	assert.Equal(t, "3", dashCtx.TopResults[0].ID)
	assert.Equal(t, "1", dashCtx.TopResults[1].ID)
	assert.Nil(t, dashCtx.ContentInsights)
	assert.Equal(t, 2, dashCtx.SentimentBreakdown.Positive.Count)
	assert.Equal(t, 100.0, dashCtx.SentimentBreakdown.Positive.Percentage)
	assert.Equal(t, 3350, dashCtx.SentimentBreakdown.Positive.TotalEngagement)
	assert.Contains(t, dashCtx.Summary, "with filters: channels=Facebook")
	assert.Contains(t, dashCtx.Summary, "Showing top 2 results")
}

func TestBuildContext_Overview(t *testing.T) {
	dashCtx := BuildContext("overall summary", mentions(), models.DefaultFilters(), "content")

	assert.Equal(t, 5, dashCtx.FilteredItems)
	assert.Len(t, dashCtx.TopResults, 5)
	assert.Equal(t, "5", dashCtx.TopResults[0].ID)
	assert.Equal(t, 8330, dashCtx.EngagementStats.Total)
	assert.NotContains(t, dashCtx.Summary, "Showing top")

	require.Len(t, dashCtx.ChannelBreakdown, 4)
	facebook := dashCtx.ChannelBreakdown[0]
	assert.Equal(t, "Facebook", facebook.Channel)
	assert.Equal(t, 2, facebook.Count)
	assert.InDelta(t, 40.0, facebook.Percentage, 0.001)
	assert.Equal(t, 1675.0, facebook.AvgEngagement)
	assert.Equal(t, []string{"Amazing ESG progress #ESG", "Great launch #ESG #launch"}, facebook.TopContent)

	// The content view always carries content insights
	require.NotNil(t, dashCtx.ContentInsights)
	insights := dashCtx.ContentInsights
	assert.Equal(t, 5, insights.TotalPosts)
	assert.Equal(t, TermCount{Term: "#ESG", Count: 2}, insights.TopHashtags[0])
	assert.Equal(t, TermCount{Term: "esg", Count: 3}, insights.TopKeywords[0])
	require.Len(t, insights.ContentSamples, 5)
	assert.Equal(t, 3200, insights.ContentSamples[0].Engagement)
}

func TestBuildContext_Empty(t *testing.T) {
	dashCtx := BuildContext("what about tiktok?", nil, models.DefaultFilters(), "overview")
	assert.Equal(t, 0, dashCtx.FilteredItems)
	assert.Empty(t, dashCtx.TopResults)
	assert.Equal(t, 0.0, dashCtx.SentimentBreakdown.Positive.Percentage)
}

func TestLoadSettings(t *testing.T) {
	cfg := &config.Config{
		OpenAIAPIKey:      "sk-env",
		OpenAIModel:       "gpt-4o-mini",
		OpenAITemperature: 0.7,
		OpenAIMaxTokens:   1000,
	}

	settings, err := LoadSettings(cfg)
	require.NoError(t, err)
	assert.Equal(t, defaultSystemPrompt, settings.SystemPrompt)
	assert.Equal(t, "sk-env", settings.APIKey)

	path := filepath.Join(t.TempDir(), "ai.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: gpt-4\ntemperature: 0.2\nsystem_prompt: Be brief.\n"), 0600))
	cfg.AISettingsFile = path

	settings, err = LoadSettings(cfg)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", settings.Model)
	assert.Equal(t, 0.2, settings.Temperature)
	assert.Equal(t, "Be brief.", settings.SystemPrompt)
	assert.Equal(t, 1000, settings.MaxTokens)
	assert.Equal(t, "sk-env", settings.APIKey)

	require.NoError(t, os.WriteFile(path, []byte("max_tokens: -5\n"), 0600))
	_, err = LoadSettings(cfg)
	assert.True(t, errors.Is(err, ErrInvalidSettings))

	cfg.AISettingsFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = LoadSettings(cfg)
	assert.NoError(t, err)
}

func testSettings(baseURL string) Settings {
	return Settings{
		SystemPrompt: "You analyse mentions.",
		Model:        "gpt-4o-mini",
		Temperature:  0.5,
		MaxTokens:    200,
		APIKey:       "sk-test",
		BaseURL:      baseURL,
	}
}

func completionServer(t *testing.T, requests *[]openai.ChatCompletionRequest) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*requests = append(*requests, req)

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"id":"cmpl-%d","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"**Answer %d**"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`, len(*requests), len(*requests))
	}))
}

func TestService_Send(t *testing.T) {
	var requests []openai.ChatCompletionRequest
	server := completionServer(t, &requests)
	defer server.Close()

	service := NewService(testSettings(server.URL+"/v1"), "")
	dashCtx := BuildContext("overall summary", mentions(), models.DefaultFilters(), "overview")

	reply, err := service.Send(context.Background(), "How are we doing?", &dashCtx)
	require.NoError(t, err)
	assert.Equal(t, "**Answer 1**", reply.Content)
	assert.Contains(t, reply.HTML, "<strong>Answer 1</strong>")
	assert.NotEmpty(t, reply.ID)

	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.Equal(t, 200, req.MaxTokens)
	assert.InDelta(t, 0.5, req.Temperature, 1e-6)
	require.Len(t, req.Messages, 3)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.True(t, strings.HasPrefix(req.Messages[1].Content, "Current dashboard data: "))
	assert.Equal(t, "How are we doing?", req.Messages[2].Content)

	history := service.History()
	require.Len(t, history, 2)
	assert.Equal(t, openai.ChatMessageRoleUser, history[0].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, history[1].Role)
	assert.NotEqual(t, history[0].ID, history[1].ID)
}

func TestService_Send_HistoryWindow(t *testing.T) {
	var requests []openai.ChatCompletionRequest
	server := completionServer(t, &requests)
	defer server.Close()

	service := NewService(testSettings(server.URL+"/v1"), "")
	for i := 0; i < 7; i++ {
		_, err := service.Send(context.Background(), fmt.Sprintf("question %d", i), nil)
		require.NoError(t, err)
	}

	last := requests[len(requests)-1]
	// system prompt + 10 history messages + the question
	require.Len(t, last.Messages, 12)
	assert.Equal(t, "question 1", last.Messages[1].Content)
	assert.Equal(t, "question 6", last.Messages[11].Content)
	assert.Len(t, service.History(), 14)

	service.Clear()
	assert.Empty(t, service.History())
}

func TestService_Send_Errors(t *testing.T) {
	settings := testSettings("")
	settings.APIKey = ""
	service := NewService(settings, "")

	_, err := service.Send(context.Background(), "hello", nil)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
	assert.Equal(t, ErrMissingAPIKey.Error(), service.State().Error)
	assert.Empty(t, service.History())

	_, err = service.Send(context.Background(), "   ", nil)
	assert.True(t, errors.Is(err, ErrEmptyQuestion))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	service = NewService(testSettings(server.URL+"/v1"), "")
	_, err = service.Send(context.Background(), "hello", nil)
	require.Error(t, err)

	state := service.State()
	assert.Contains(t, state.Error, "Incorrect API key provided")
	assert.False(t, state.Loading)
	assert.Len(t, state.Messages, 1)
}

func TestService_UpdateSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ai.yaml")
	service := NewService(testSettings(""), path)

	temperature := 1.2
	model := "gpt-4"
	updated, err := service.UpdateSettings(SettingsPatch{Temperature: &temperature, Model: &model})
	require.NoError(t, err)
	assert.Equal(t, 1.2, updated.Temperature)
	assert.Equal(t, "gpt-4", service.State().Settings.Model)
	assert.True(t, service.State().HasAPIKey)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "model: gpt-4")
	assert.NotContains(t, string(data), "sk-test")

	tooHot := 5.0
	_, err = service.UpdateSettings(SettingsPatch{Temperature: &tooHot})
	assert.True(t, errors.Is(err, ErrInvalidSettings))
	assert.Equal(t, 1.2, service.State().Settings.Temperature)
}

func TestRenderMarkdown_DropsRawHTML(t *testing.T) {
	html := RenderMarkdown("Hello <script>alert(1)</script> **world**")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "<strong>world</strong>")
}
