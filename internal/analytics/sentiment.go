package analytics

import (
	"sort"

	"github.com/social-listening/mentions-dashboard/internal/models"
)

type sentimentTally struct {
	total, positive, negative, neutral int
}

func (t *sentimentTally) add(sentiment models.Sentiment) {
	t.total++
	switch sentiment {
	case models.SentimentPositive:
		t.positive++
	case models.SentimentNegative:
		t.negative++
	case models.SentimentNeutral:
		t.neutral++
	}
}

// ChannelSentiment breaks each channel down by sentiment, highest positive rate
// first. Ties keep first-encountered order.
func ChannelSentiment(records []models.Mention) []models.ChannelSentimentStat {
	var order []string
	tallies := make(map[string]*sentimentTally)
	for _, record := range records {
		channel := label(string(record.Channel))
		t, ok := tallies[channel]
		if !ok {
			t = &sentimentTally{}
			tallies[channel] = t
			order = append(order, channel)
		}
		t.add(record.Sentiment)
	}

	stats := make([]models.ChannelSentimentStat, 0, len(order))
	for _, channel := range order {
		t := tallies[channel]
		stats = append(stats, models.ChannelSentimentStat{
			Channel:      channel,
			Total:        t.total,
			Positive:     t.positive,
			Negative:     t.negative,
			Neutral:      t.neutral,
			PositiveRate: percentage(t.positive, t.total),
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].PositiveRate > stats[j].PositiveRate
	})
	return stats
}

// SentimentTimeline buckets dated records per calendar date in ascending order
// and keeps the last days buckets. days <= 0 keeps every bucket.
func SentimentTimeline(records []models.Mention, days int) []models.SentimentTimelinePoint {
	tallies := make(map[string]*sentimentTally)
	for _, record := range records {
		if !record.HasDate() {
			continue
		}
		key := models.NormalizeDate(record.Date).Format(models.DateLayout)
		t, ok := tallies[key]
		if !ok {
			t = &sentimentTally{}
			tallies[key] = t
		}
		t.add(record.Sentiment)
	}

	dates := make([]string, 0, len(tallies))
	for key := range tallies {
		dates = append(dates, key)
	}
	sort.Strings(dates)
	if days > 0 && len(dates) > days {
		dates = dates[len(dates)-days:]
	}

	points := make([]models.SentimentTimelinePoint, 0, len(dates))
	for _, key := range dates {
		t := tallies[key]
		points = append(points, models.SentimentTimelinePoint{
			Date:         key,
			Total:        t.total,
			Positive:     t.positive,
			Negative:     t.negative,
			Neutral:      t.neutral,
			PositiveRate: percentage(t.positive, t.total),
			NegativeRate: percentage(t.negative, t.total),
		})
	}
	return points
}

// TopMentions returns the n most engaging records without reordering the input.
// n <= 0 returns every record.
func TopMentions(records []models.Mention, n int) []models.Mention {
	sorted := append([]models.Mention{}, records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalEngagement > sorted[j].TotalEngagement
	})
	if n > 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// TopMentionsBySentiment returns the n most engaging records of one sentiment
func TopMentionsBySentiment(records []models.Mention, sentiment models.Sentiment, n int) []models.Mention {
	var matching []models.Mention
	for _, record := range records {
		if record.Sentiment == sentiment {
			matching = append(matching, record)
		}
	}
	return TopMentions(matching, n)
}

// InteractionTotals sums comments, reactions and shares
func InteractionTotals(records []models.Mention) models.InteractionTotals {
	var totals models.InteractionTotals
	for _, record := range records {
		totals.Comments += record.Comments
		totals.Reactions += record.Reactions
		totals.Shares += record.Shares
	}
	return totals
}
