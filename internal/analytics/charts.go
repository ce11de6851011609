package analytics

import (
	"sort"

	"github.com/social-listening/mentions-dashboard/internal/models"
)

// ComputeCharts builds every chart-ready aggregate of records
func ComputeCharts(records []models.Mention) models.ChartData {
	return models.ChartData{
		SentimentDistribution: SentimentDistribution(records),
		ChannelPerformance:    ChannelPerformance(records),
		TopCategories:         CategoryRanking(records),
		TimelineTrend:         TimelineTrend(records),
	}
}

// SentimentDistribution emits one row per observed sentiment. Known sentiments
// come first in Positive, Negative, Neutral order; any other label follows in
// first-seen order.
func SentimentDistribution(records []models.Mention) []models.SentimentSlice {
	counts := newCounter()
	for _, record := range records {
		counts.add(label(string(record.Sentiment)), 0)
	}

	rows := make([]models.SentimentSlice, 0, len(counts.order))
	emit := func(name string) {
		n := counts.counts[name]
		rows = append(rows, models.SentimentSlice{
			Name:       name,
			Count:      n,
			Percentage: percentage(n, len(records)),
			ColorHint:  colorFor(name),
		})
	}

	known := make(map[string]bool, len(models.Sentiments))
	for _, sentiment := range models.Sentiments {
		known[string(sentiment)] = true
		if counts.counts[string(sentiment)] > 0 {
			emit(string(sentiment))
		}
	}
	for _, name := range counts.order {
		if !known[name] {
			emit(name)
		}
	}
	return rows
}

func colorFor(sentiment string) models.ColorHint {
	switch models.Sentiment(sentiment) {
	case models.SentimentPositive:
		return models.ColorSuccess
	case models.SentimentNegative:
		return models.ColorDanger
	}
	return models.ColorNeutral
}

// ChannelPerformance emits one row per observed channel in first-seen order
func ChannelPerformance(records []models.Mention) []models.ChannelStat {
	counts := newCounter()
	for _, record := range records {
		counts.add(label(string(record.Channel)), record.TotalEngagement)
	}

	stats := make([]models.ChannelStat, 0, len(counts.order))
	for _, channel := range counts.order {
		stats = append(stats, models.ChannelStat{
			Channel:         channel,
			MentionCount:    counts.counts[channel],
			TotalEngagement: counts.engagement[channel],
		})
	}
	return stats
}

// TopChannels returns the n channels with the most mentions. Ties keep their
// input order. n <= 0 returns every channel.
func TopChannels(stats []models.ChannelStat, n int) []models.ChannelStat {
	sorted := append([]models.ChannelStat{}, stats...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MentionCount > sorted[j].MentionCount
	})
	if n > 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// CategoryRanking emits one row per observed category, sorted by mention count
// descending. Ties keep first-encountered order.
func CategoryRanking(records []models.Mention) []models.CategoryStat {
	counts := newCounter()
	for _, record := range records {
		counts.add(label(string(record.Category)), 0)
	}

	ranking := make([]models.CategoryStat, 0, len(counts.order))
	for _, category := range counts.order {
		n := counts.counts[category]
		ranking = append(ranking, models.CategoryStat{
			Category:     category,
			MentionCount: n,
			Percentage:   percentage(n, len(records)),
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].MentionCount > ranking[j].MentionCount
	})
	return ranking
}

// TimelineTrend buckets records per calendar date in ascending order. Days
// without records produce no bucket, and undated records are left out.
func TimelineTrend(records []models.Mention) []models.TimelinePoint {
	counts := newCounter()
	for _, record := range records {
		if !record.HasDate() {
			continue
		}
		counts.add(models.NormalizeDate(record.Date).Format(models.DateLayout), record.TotalEngagement)
	}

	points := make([]models.TimelinePoint, 0, len(counts.order))
	for _, day := range counts.order {
		points = append(points, models.TimelinePoint{
			Date:            day,
			MentionCount:    counts.counts[day],
			TotalEngagement: counts.engagement[day],
		})
	}
	// YYYY-MM-DD sorts lexically in date order.
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})
	return points
}

// counter tallies mentions and engagement per key, remembering first-seen order
type counter struct {
	order      []string
	counts     map[string]int
	engagement map[string]int
}

func newCounter() *counter {
	return &counter{
		counts:     make(map[string]int),
		engagement: make(map[string]int),
	}
}

func (c *counter) add(key string, engagement int) {
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
	c.engagement[key] += engagement
}

func label(value string) string {
	if value == "" {
		return models.UnknownLabel
	}
	return value
}
