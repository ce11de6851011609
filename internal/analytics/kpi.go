package analytics

import "github.com/social-listening/mentions-dashboard/internal/models"

// NeutralScore is the sentiment score of an empty collection
const NeutralScore = 50.0

// ComputeKPIs derives the headline metrics of current, comparing each against
// previous (the equally long window right before the current one).
func ComputeKPIs(current, previous []models.Mention) models.KPISummary {
	curCount := float64(len(current))
	prevCount := float64(len(previous))
	curEngagement := float64(sumEngagement(current))
	prevEngagement := float64(sumEngagement(previous))
	curAvg := ratio(curEngagement, curCount)
	prevAvg := ratio(prevEngagement, prevCount)

	return models.KPISummary{
		TotalMentions:     compare(curCount, prevCount),
		TotalEngagement:   compare(curEngagement, prevEngagement),
		AvgEngagementRate: compare(curAvg, prevAvg),
		SentimentScore:    ComputeSentimentScore(current),
	}
}

// ComputeSentimentScore weighs Positive as 1, Neutral as 0.5 and Negative as 0
// and scales the mean to 0-100. Values outside the three known sentiments weigh
// as neutral.
func ComputeSentimentScore(records []models.Mention) models.SentimentScore {
	if len(records) == 0 {
		return models.SentimentScore{Value: NeutralScore}
	}

	var positive, negative, neutral int
	for _, record := range records {
		switch record.Sentiment {
		case models.SentimentPositive:
			positive++
		case models.SentimentNegative:
			negative++
		case models.SentimentNeutral:
			neutral++
		}
	}

	total := float64(len(records))
	other := total - float64(positive+negative+neutral)
	weighted := float64(positive) + 0.5*(float64(neutral)+other)

	return models.SentimentScore{
		Value: weighted / total * 100,
		Distribution: models.SentimentShares{
			Positive: percentage(positive, len(records)),
			Negative: percentage(negative, len(records)),
			Neutral:  percentage(neutral, len(records)),
		},
	}
}

func compare(current, previous float64) models.Metric {
	metric := models.Metric{Value: current, Trend: models.TrendStable}
	if previous > 0 {
		metric.Change = (current - previous) / previous * 100
	}
	switch {
	case current > previous:
		metric.Trend = models.TrendUp
	case current < previous:
		metric.Trend = models.TrendDown
	}
	return metric
}

func sumEngagement(records []models.Mention) int {
	total := 0
	for _, record := range records {
		total += record.TotalEngagement
	}
	return total
}

// ratio divides, yielding 0 for a zero denominator
func ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

func percentage(part, total int) float64 {
	return ratio(float64(part)*100, float64(total))
}
