package analytics

import (
	"sort"

	"github.com/social-listening/mentions-dashboard/internal/models"
)

// TopInfluencers ranks authors by influence score (0.4 per engagement point,
// 0.3 per mention, 3 per positive mention) and returns at most n of them.
// n <= 0 returns everyone.
func TopInfluencers(records []models.Mention, n int) []models.InfluencerStat {
	type tally struct {
		mentions   int
		engagement int
		positive   int
		negative   int
		channels   []string
		seen       map[string]bool
	}

	var order []string
	tallies := make(map[string]*tally)
	for _, record := range records {
		name := label(record.Username)
		t, ok := tallies[name]
		if !ok {
			t = &tally{seen: make(map[string]bool)}
			tallies[name] = t
			order = append(order, name)
		}
		t.mentions++
		t.engagement += record.TotalEngagement
		switch record.Sentiment {
		case models.SentimentPositive:
			t.positive++
		case models.SentimentNegative:
			t.negative++
		}
		channel := label(string(record.Channel))
		if !t.seen[channel] {
			t.seen[channel] = true
			t.channels = append(t.channels, channel)
		}
	}

	stats := make([]models.InfluencerStat, 0, len(order))
	for _, name := range order {
		t := tallies[name]
		stats = append(stats, models.InfluencerStat{
			Username:        name,
			Mentions:        t.mentions,
			TotalEngagement: t.engagement,
			AvgEngagement:   ratio(float64(t.engagement), float64(t.mentions)),
			Channels:        t.channels,
			PositiveRate:    percentage(t.positive, t.mentions),
			NegativeRate:    percentage(t.negative, t.mentions),
			InfluenceScore:  float64(t.engagement)*0.4 + float64(t.mentions)*0.3 + float64(t.positive)*10*0.3,
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].InfluenceScore > stats[j].InfluenceScore
	})
	if n > 0 && n < len(stats) {
		stats = stats[:n]
	}
	return stats
}

// SpeakerTypeBreakdown summarizes records per speaker type, most frequent first
func SpeakerTypeBreakdown(records []models.Mention) []models.SpeakerTypeStat {
	counts := newCounter()
	users := make(map[string]map[string]bool)
	for _, record := range records {
		key := label(string(record.SpeakerType))
		counts.add(key, record.TotalEngagement)
		if users[key] == nil {
			users[key] = make(map[string]bool)
		}
		users[key][record.Username] = true
	}

	stats := make([]models.SpeakerTypeStat, 0, len(counts.order))
	for _, key := range counts.order {
		stats = append(stats, models.SpeakerTypeStat{
			SpeakerType:     key,
			Count:           counts.counts[key],
			TotalEngagement: counts.engagement[key],
			UniqueUsers:     len(users[key]),
			AvgEngagement:   ratio(float64(counts.engagement[key]), float64(counts.counts[key])),
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Count > stats[j].Count
	})
	return stats
}

// ContentTypePerformance summarizes records per content type, highest total
// engagement first
func ContentTypePerformance(records []models.Mention) []models.ContentTypeStat {
	counts := newCounter()
	for _, record := range records {
		counts.add(label(string(record.ContentType)), record.TotalEngagement)
	}

	stats := make([]models.ContentTypeStat, 0, len(counts.order))
	for _, key := range counts.order {
		stats = append(stats, models.ContentTypeStat{
			ContentType:     key,
			Count:           counts.counts[key],
			TotalEngagement: counts.engagement[key],
			AvgEngagement:   ratio(float64(counts.engagement[key]), float64(counts.counts[key])),
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalEngagement > stats[j].TotalEngagement
	})
	return stats
}

// ComputeEngagementStats reports total, mean, median and the sum of the ten
// largest engagement values.
func ComputeEngagementStats(records []models.Mention) models.EngagementStats {
	if len(records) == 0 {
		return models.EngagementStats{}
	}

	values := make([]int, len(records))
	for i, record := range records {
		values[i] = record.TotalEngagement
	}
	sort.Sort(sort.Reverse(sort.IntSlice(values)))

	stats := models.EngagementStats{Total: sumEngagement(records)}
	stats.Average = ratio(float64(stats.Total), float64(len(values)))

	mid := len(values) / 2
	if len(values)%2 == 1 {
		stats.Median = float64(values[mid])
	} else {
		stats.Median = float64(values[mid-1]+values[mid]) / 2
	}

	for i := 0; i < len(values) && i < 10; i++ {
		stats.Top10Total += values[i]
	}
	return stats
}
