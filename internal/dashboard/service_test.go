package dashboard

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/social-listening/mentions-dashboard/internal/config"
	"github.com/social-listening/mentions-dashboard/internal/models"
	"github.com/social-listening/mentions-dashboard/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleMentions() []models.Mention {
	sentiments := []models.Sentiment{
		models.SentimentPositive, models.SentimentNegative, models.SentimentPositive,
		models.SentimentNeutral, models.SentimentPositive,
	}
	engagements := []int{1250, 830, 2100, 950, 3200}
	channels := []models.Channel{
		models.ChannelFacebook, models.ChannelTwitter, models.ChannelFacebook,
		models.ChannelWebsite, models.ChannelYouTube,
	}

	mentions := make([]models.Mention, 5)
	for i := range mentions {
		mentions[i] = models.Mention{
			ID:              string(rune('1' + i)),
			Date:            day("2024-01-11").AddDate(0, 0, i),
			Sentiment:       sentiments[i],
			Channel:         channels[i],
			Category:        models.CategoryBusinessBranding,
			Username:        "user" + string(rune('a'+i)),
			TotalEngagement: engagements[i],
		}
	}
	return mentions
}

func newLoadedService(t *testing.T) *Service {
	t.Helper()
	service := NewService(&config.Config{})
	service.SetRecords(sampleMentions())
	return service
}

func TestService_ScenarioNoFilters(t *testing.T) {
	service := newLoadedService(t)

	kpis := service.KPIs()
	assert.Equal(t, 5.0, kpis.TotalMentions.Value)
	assert.Equal(t, 8330.0, kpis.TotalEngagement.Value)
	assert.Equal(t, 1666.0, kpis.AvgEngagementRate.Value)
	assert.InDelta(t, 70.0, kpis.SentimentScore.Value, 1e-9)
	assert.Len(t, service.Filtered(), 5)
}

func TestService_ScenarioSentimentFilter(t *testing.T) {
	service := newLoadedService(t)

	service.SetFilters(models.FilterPatch{Sentiment: []models.Sentiment{models.SentimentPositive}})

	assert.Len(t, service.Filtered(), 3)
	assert.Equal(t, []models.SentimentSlice{
		{Name: "Positive", Count: 3, Percentage: 100, ColorHint: models.ColorSuccess},
	}, service.Charts().SentimentDistribution)
}

func TestService_ScenarioDateRange(t *testing.T) {
	service := newLoadedService(t)
	start, end := day("2024-01-13"), day("2024-01-14")

	service.SetFilters(models.FilterPatch{DateRange: &models.DateRange{Start: &start, End: &end}})

	filtered := service.Filtered()
	require.Len(t, filtered, 2)
	assert.Equal(t, "2024-01-13", filtered[0].DateKey())
	assert.Equal(t, "2024-01-14", filtered[1].DateKey())

	// Previous window 01-11..01-12 holds two mentions as well.
	assert.Equal(t, models.TrendStable, service.KPIs().TotalMentions.Trend)
}

func TestService_ScenarioEmptyCollection(t *testing.T) {
	service := newLoadedService(t)
	service.SetRecords([]models.Mention{})

	kpis := service.KPIs()
	assert.Equal(t, 0.0, kpis.TotalMentions.Value)
	assert.Equal(t, 0.0, kpis.TotalEngagement.Value)
	assert.Equal(t, 0.0, kpis.AvgEngagementRate.Value)
	assert.Equal(t, 50.0, kpis.SentimentScore.Value)

	charts := service.Charts()
	assert.Empty(t, charts.SentimentDistribution)
	assert.Empty(t, charts.ChannelPerformance)
	assert.Empty(t, charts.TopCategories)
	assert.Empty(t, charts.TimelineTrend)

	require.NotNil(t, service.Filters().EngagementRange.Max)
	assert.Equal(t, DefaultEngagementMax, *service.Filters().EngagementRange.Max)
}

func TestService_ScenarioClearFilters(t *testing.T) {
	service := newLoadedService(t)
	service.SetFilters(models.FilterPatch{
		Channels:        []models.Channel{models.ChannelTwitter},
		EngagementRange: &models.EngagementRange{Min: 100, Max: intPtr(500)},
	})
	assert.Empty(t, service.Filtered())

	service.ClearFilters()

	filters := service.Filters()
	require.NotNil(t, filters.EngagementRange.Max)
	assert.Equal(t, 3200, *filters.EngagementRange.Max)
	assert.Equal(t, 0, filters.EngagementRange.Min)
	assert.Empty(t, filters.Channels)
	assert.Equal(t, service.Records(), service.Filtered())
}

func TestService_ClearFiltersAdmitsImportedNegatives(t *testing.T) {
	input := "Date,Sentiment,Channel,Total Engagement\n" +
		"2024-01-15,Positive,Facebook,-5\n" +
		"2024-01-16,Negative,Website,-1\n"
	records, err := sources.ParseCSV(strings.NewReader(input), sources.NewRowNormalizer(nil))
	require.NoError(t, err)

	service := NewService(&config.Config{})
	service.SetRecords(records)
	service.SetFilters(models.FilterPatch{Channels: []models.Channel{models.ChannelTwitter}})
	require.Empty(t, service.Filtered())

	service.ClearFilters()

	require.NotNil(t, service.Filters().EngagementRange.Max)
	assert.Equal(t, 0, *service.Filters().EngagementRange.Max)
	assert.Len(t, service.Filtered(), 2)
}

func TestService_SetRecordsDerivesMaxAndAdmitsAll(t *testing.T) {
	service := NewService(&config.Config{DefaultEngagementMax: 500})
	assert.Nil(t, service.Filters().EngagementRange.Max)

	service.SetRecords(sampleMentions())
	assert.Equal(t, 3200, *service.Filters().EngagementRange.Max)
	assert.Len(t, service.Filtered(), 5)

	service.SetRecords(nil)
	assert.Equal(t, 500, *service.Filters().EngagementRange.Max)
}

func TestService_SetFiltersReplacesWholeField(t *testing.T) {
	service := newLoadedService(t)
	service.SetFilters(models.FilterPatch{Channels: []models.Channel{models.ChannelFacebook, models.ChannelTwitter}})
	service.SetFilters(models.FilterPatch{Channels: []models.Channel{models.ChannelWebsite}})

	assert.Equal(t, []models.Channel{models.ChannelWebsite}, service.Filters().Channels)
	assert.Len(t, service.Filtered(), 1)

	// Fields absent from the patch are untouched.
	service.SetFilters(models.FilterPatch{Usernames: []string{"userd"}})
	assert.Equal(t, []models.Channel{models.ChannelWebsite}, service.Filters().Channels)
	assert.Len(t, service.Filtered(), 1)
}

func TestService_AddRemoveFilterValue(t *testing.T) {
	service := newLoadedService(t)

	require.NoError(t, service.AddFilterValue(models.DimensionChannels, "Facebook"))
	assert.Len(t, service.Filtered(), 2)

	require.NoError(t, service.AddFilterValue(models.DimensionChannels, "Facebook"))
	assert.Equal(t, []models.Channel{models.ChannelFacebook}, service.Filters().Channels)

	require.NoError(t, service.AddFilterValue(models.DimensionChannels, "YouTube"))
	assert.Len(t, service.Filtered(), 3)

	require.NoError(t, service.RemoveFilterValue(models.DimensionChannels, "Instagram"))
	assert.Len(t, service.Filtered(), 3)

	require.NoError(t, service.RemoveFilterValue(models.DimensionChannels, "Facebook"))
	require.NoError(t, service.RemoveFilterValue(models.DimensionChannels, "YouTube"))
	assert.Empty(t, service.Filters().Channels)
	assert.Len(t, service.Filtered(), 5)
}

func TestService_ValueOperationsRejectRangeDimensions(t *testing.T) {
	service := newLoadedService(t)

	for _, dim := range []models.Dimension{"dateRange", "engagementRange", "nope"} {
		err := service.AddFilterValue(dim, "x")
		assert.True(t, errors.Is(err, ErrNotSetDimension), "add %s", dim)
		err = service.RemoveFilterValue(dim, "x")
		assert.True(t, errors.Is(err, ErrNotSetDimension), "remove %s", dim)
	}
}

func TestService_SettersDoNotRecompute(t *testing.T) {
	service := newLoadedService(t)
	before := service.Snapshot()

	service.SetView(ViewInfluencer)
	service.SetLoading(true)
	service.SetError("remote fetch returned 404")

	after := service.Snapshot()
	assert.Equal(t, ViewInfluencer, after.View)
	assert.True(t, after.Loading)
	assert.Equal(t, "remote fetch returned 404", after.Error)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	assert.Equal(t, before.KPIs, after.KPIs)

	service.SetError("")
	assert.Empty(t, service.Snapshot().Error)
}

func TestService_ReadsAreCopies(t *testing.T) {
	service := newLoadedService(t)

	records := service.Filtered()
	records[0].Username = "mutated"
	assert.NotEqual(t, "mutated", service.Filtered()[0].Username)

	filters := service.Filters()
	filters.Usernames = append(filters.Usernames, "mutated")
	assert.Empty(t, service.Filters().Usernames)

	charts := service.Charts()
	require.NotEmpty(t, charts.ChannelPerformance)
	first := service.Charts().ChannelPerformance[0]
	charts.ChannelPerformance[0].Channel = "mutated"
	charts.SentimentDistribution[0].Count = -1
	charts.TopCategories[0].MentionCount = -1
	charts.TimelineTrend[0].Date = "mutated"
	assert.Equal(t, first, service.Charts().ChannelPerformance[0])
	assert.NotEqual(t, -1, service.Charts().SentimentDistribution[0].Count)
	assert.NotEqual(t, -1, service.Charts().TopCategories[0].MentionCount)
	assert.NotEqual(t, "mutated", service.Charts().TimelineTrend[0].Date)

	snapshot := service.Snapshot()
	snapshot.Charts.ChannelPerformance[0].MentionCount = 999
	assert.Equal(t, first, service.Snapshot().Charts.ChannelPerformance[0])

	selection := service.Selection()
	selection.Records[0].Username = "mutated"
	selection.Filters.Usernames = append(selection.Filters.Usernames, "mutated")
	assert.NotEqual(t, "mutated", service.Selection().Records[0].Username)
	assert.Empty(t, service.Selection().Filters.Usernames)
}

func TestService_SelectionMatchesState(t *testing.T) {
	service := newLoadedService(t)
	service.SetFilters(models.FilterPatch{Channels: []models.Channel{models.ChannelFacebook}})
	service.SetView(ViewSentiment)

	selection := service.Selection()
	assert.Len(t, selection.Records, 2)
	assert.Equal(t, []models.Channel{models.ChannelFacebook}, selection.Filters.Channels)
	assert.Equal(t, ViewSentiment, selection.View)
}

func TestService_SetRecordsCopiesInput(t *testing.T) {
	service := NewService(&config.Config{})
	input := sampleMentions()
	service.SetRecords(input)

	input[0].TotalEngagement = 999999
	assert.Equal(t, 8330.0, service.KPIs().TotalEngagement.Value)
}

func TestService_Influencers(t *testing.T) {
	service := newLoadedService(t)
	service.SetFilters(models.FilterPatch{Channels: []models.Channel{models.ChannelFacebook}})

	influencers := service.Influencers(10)
	require.Len(t, influencers, 2)
	assert.Equal(t, "userc", influencers[0].Username)
}

func TestService_SnapshotCounts(t *testing.T) {
	service := newLoadedService(t)
	service.SetFilters(models.FilterPatch{Sentiment: []models.Sentiment{models.SentimentNegative}})

	snapshot := service.Snapshot()
	assert.Equal(t, 5, snapshot.TotalRecords)
	assert.Equal(t, 1, snapshot.FilteredCount)
	assert.Equal(t, ViewOverview, snapshot.View)
	assert.Equal(t, 1.0, snapshot.KPIs.TotalMentions.Value)
}

func TestView_Valid(t *testing.T) {
	for _, view := range Views {
		assert.True(t, view.Valid(), view)
	}
	assert.False(t, View("timeline").Valid())
	assert.False(t, View("").Valid())
}

func intPtr(v int) *int { return &v }
