package models

// Trend is the period-over-period direction of a KPI
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Metric is a headline value with its change against the previous period
type Metric struct {
	Value  float64 `json:"value"`
	Change float64 `json:"change"` // percent
	Trend  Trend   `json:"trend"`
}

// SentimentShares holds each sentiment's share of a collection, in percent
type SentimentShares struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// SentimentScore is the 0-100 polarity index of a collection
type SentimentScore struct {
	Value        float64         `json:"value"`
	Distribution SentimentShares `json:"distribution"`
}

// KPISummary holds the headline metrics
type KPISummary struct {
	TotalMentions     Metric         `json:"totalMentions"`
	TotalEngagement   Metric         `json:"totalEngagement"`
	AvgEngagementRate Metric         `json:"avgEngagementRate"`
	SentimentScore    SentimentScore `json:"sentimentScore"`
}

// ColorHint is the presentation intent for a sentiment slice
type ColorHint string

const (
	ColorSuccess ColorHint = "success"
	ColorDanger  ColorHint = "danger"
	ColorNeutral ColorHint = "neutral"
)

type SentimentSlice struct {
	Name       string    `json:"name"`
	Count      int       `json:"count"`
	Percentage float64   `json:"percentage"`
	ColorHint  ColorHint `json:"colorHint"`
}

type ChannelStat struct {
	Channel         string `json:"channel"`
	MentionCount    int    `json:"mentionCount"`
	TotalEngagement int    `json:"totalEngagement"`
}

type CategoryStat struct {
	Category     string  `json:"category"`
	MentionCount int     `json:"mentionCount"`
	Percentage   float64 `json:"percentage"`
}

type TimelinePoint struct {
	Date            string `json:"date"` // YYYY-MM-DD
	MentionCount    int    `json:"mentionCount"`
	TotalEngagement int    `json:"totalEngagement"`
}

// ChartData bundles the chart-ready aggregates of a collection
type ChartData struct {
	SentimentDistribution []SentimentSlice `json:"sentimentDistribution"`
	ChannelPerformance    []ChannelStat    `json:"channelPerformance"`
	TopCategories         []CategoryStat   `json:"topCategories"`
	TimelineTrend         []TimelinePoint  `json:"timelineTrend"`
}

// Clone returns a copy whose slices do not alias c's
func (c ChartData) Clone() ChartData {
	return ChartData{
		SentimentDistribution: append([]SentimentSlice{}, c.SentimentDistribution...),
		ChannelPerformance:    append([]ChannelStat{}, c.ChannelPerformance...),
		TopCategories:         append([]CategoryStat{}, c.TopCategories...),
		TimelineTrend:         append([]TimelinePoint{}, c.TimelineTrend...),
	}
}

// InfluencerStat summarizes one author's footprint
type InfluencerStat struct {
	Username        string   `json:"username"`
	Mentions        int      `json:"mentions"`
	TotalEngagement int      `json:"totalEngagement"`
	AvgEngagement   float64  `json:"avgEngagement"`
	Channels        []string `json:"channels"`
	PositiveRate    float64  `json:"positiveRate"`
	NegativeRate    float64  `json:"negativeRate"`
	InfluenceScore  float64  `json:"influenceScore"`
}

// SpeakerTypeStat summarizes one speaker type
type SpeakerTypeStat struct {
	SpeakerType     string  `json:"speakerType"`
	Count           int     `json:"count"`
	TotalEngagement int     `json:"totalEngagement"`
	UniqueUsers     int     `json:"uniqueUsers"`
	AvgEngagement   float64 `json:"avgEngagement"`
}

// ContentTypeStat summarizes one content type
type ContentTypeStat struct {
	ContentType     string  `json:"contentType"`
	Count           int     `json:"count"`
	TotalEngagement int     `json:"totalEngagement"`
	AvgEngagement   float64 `json:"avgEngagement"`
}

// EngagementStats describes the engagement distribution of a collection
type EngagementStats struct {
	Total      int     `json:"total"`
	Average    float64 `json:"average"`
	Median     float64 `json:"median"`
	Top10Total int     `json:"top10Total"`
}

// ChannelSentimentStat is the sentiment mix of one channel
type ChannelSentimentStat struct {
	Channel      string  `json:"channel"`
	Total        int     `json:"total"`
	Positive     int     `json:"positive"`
	Negative     int     `json:"negative"`
	Neutral      int     `json:"neutral"`
	PositiveRate float64 `json:"positiveRate"`
}

// SentimentTimelinePoint is the sentiment mix of one calendar date
type SentimentTimelinePoint struct {
	Date         string  `json:"date"` // YYYY-MM-DD
	Total        int     `json:"total"`
	Positive     int     `json:"positive"`
	Negative     int     `json:"negative"`
	Neutral      int     `json:"neutral"`
	PositiveRate float64 `json:"positiveRate"`
	NegativeRate float64 `json:"negativeRate"`
}

// InteractionTotals sums the engagement breakdown of a collection
type InteractionTotals struct {
	Comments  int `json:"comments"`
	Reactions int `json:"reactions"`
	Shares    int `json:"shares"`
}
