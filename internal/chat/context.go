package chat

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/social-listening/mentions-dashboard/internal/analytics"
	"github.com/social-listening/mentions-dashboard/internal/models"
)

// Query kinds
const (
	QueryOverview        = "overview"
	QueryFiltered        = "filtered"
	QueryContentAnalysis = "content_analysis"
	QueryMultiDimension  = "multi_dimension"
)

const (
	defaultTopN          = 10
	overviewMaxRows      = 50
	viralEngagement      = 1000
	topContentPerChannel = 3
	keywordLimit         = 10
	hashtagLimit         = 5
	sampleLimit          = 5
	sampleMaxRunes       = 200
	topContentRunes      = 100
	minKeywordLength     = 3
)

var (
	topNPattern    = regexp.MustCompile(`\btop\s*(\d+)\b`)
	hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

	overviewWords       = []string{"total", "overall", "summary", "summarize", "summarise", "overview"}
	contentWords        = []string{"content", "post", "caption", "hashtag", "keyword", "wording", "message", "text"}
	multiDimensionWords = []string{"compare", "comparison", "breakdown", "versus", " vs ", "by channel", "by sentiment", "by category"}
)

// QueryType is what the question asks for, detected from its wording
type QueryType struct {
	Type            string           `json:"type"`
	Limit           int              `json:"limit"`
	ContentAnalysis bool             `json:"contentAnalysis"`
	Dimensions      []string         `json:"dimensions"`
	Filters         models.FilterSet `json:"filters"`
}

type SentimentBucket struct {
	Count           int     `json:"count"`
	Percentage      float64 `json:"percentage"`
	TotalEngagement int     `json:"totalEngagement"`
}

type SentimentBreakdown struct {
	Positive SentimentBucket `json:"positive"`
	Negative SentimentBucket `json:"negative"`
	Neutral  SentimentBucket `json:"neutral"`
}

type ChannelBucket struct {
	Channel       string   `json:"channel"`
	Count         int      `json:"count"`
	Percentage    float64  `json:"percentage"`
	AvgEngagement float64  `json:"avgEngagement"`
	TopContent    []string `json:"topContent"`
}

type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

type ContentSample struct {
	Content    string `json:"content"`
	Engagement int    `json:"engagement"`
	Sentiment  string `json:"sentiment"`
	Channel    string `json:"channel"`
}

type ContentInsights struct {
	TotalPosts       int             `json:"totalPosts"`
	AvgContentLength int             `json:"avgContentLength"`
	TopKeywords      []TermCount     `json:"topKeywords"`
	TopHashtags      []TermCount     `json:"topHashtags"`
	ContentSamples   []ContentSample `json:"contentSamples"`
}

// DashboardContext is the data summary sent to the assistant with a question
type DashboardContext struct {
	Query              QueryType              `json:"queryType"`
	View               string                 `json:"view"`
	DashboardFilters   models.FilterSet       `json:"dashboardFilters"`
	TotalItems         int                    `json:"totalItems"`
	FilteredItems      int                    `json:"filteredItems"`
	SentimentBreakdown SentimentBreakdown     `json:"sentimentBreakdown"`
	ChannelBreakdown   []ChannelBucket        `json:"channelBreakdown"`
	EngagementStats    models.EngagementStats `json:"engagementStats"`
	ContentInsights    *ContentInsights       `json:"contentInsights,omitempty"`
	TopResults         []models.Mention       `json:"topResults"`
	Summary            string                 `json:"summary"`
}

// DetectQuery classifies a question and extracts the filters it names
func DetectQuery(question string) QueryType {
	message := " " + strings.ToLower(question) + " "

	contentAnalysis := containsAny(message, contentWords)
	multiDimension := containsAny(message, multiDimensionWords)

	if containsAny(message, overviewWords) {
		query := QueryType{
			Type:            QueryOverview,
			ContentAnalysis: contentAnalysis,
			Dimensions:      []string{},
			Filters:         models.DefaultFilters(),
		}
		if multiDimension {
			query.Dimensions = []string{"channel", "sentiment", "category"}
		}
		return query
	}

	query := QueryType{
		Type:            QueryFiltered,
		Limit:           defaultTopN,
		ContentAnalysis: contentAnalysis,
		Dimensions:      []string{},
		Filters:         detectFilters(message),
	}
	if match := topNPattern.FindStringSubmatch(message); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil && n > 0 {
			query.Limit = n
		}
	}

	switch {
	case contentAnalysis:
		query.Type = QueryContentAnalysis
	case multiDimension:
		query.Type = QueryMultiDimension
	}
	if multiDimension {
		query.Dimensions = []string{"channel", "sentiment"}
	}
	return query
}

// detectFilters maps category, channel, sentiment and virality words onto a
// filter set. Several values named for one dimension are alternatives.
func detectFilters(message string) models.FilterSet {
	filters := models.DefaultFilters()

	if strings.Contains(message, "business branding") {
		filters.Categories = append(filters.Categories, models.CategoryBusinessBranding)
	}
	if strings.Contains(message, "esg") {
		filters.Categories = append(filters.Categories, models.CategoryESGBranding)
	}
	if strings.Contains(message, "crisis") {
		filters.Categories = append(filters.Categories, models.CategoryCrisisManagement)
	}

	for _, channel := range models.Channels {
		if strings.Contains(message, strings.ToLower(string(channel))) {
			filters.Channels = append(filters.Channels, channel)
		}
	}

	for _, sentiment := range models.Sentiments {
		if strings.Contains(message, strings.ToLower(string(sentiment))) {
			filters.Sentiment = append(filters.Sentiment, sentiment)
		}
	}

	if strings.Contains(message, "viral") || strings.Contains(message, "high engagement") {
		filters.EngagementRange.Min = viralEngagement + 1
	}

	return filters
}

// BuildContext summarises the dashboard's filtered records for a question
func BuildContext(question string, records []models.Mention, dashboardFilters models.FilterSet, view string) DashboardContext {
	query := DetectQuery(question)

	matching := analytics.Apply(records, query.Filters)
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].TotalEngagement > matching[j].TotalEngagement
	})

	limit := query.Limit
	if limit <= 0 {
		limit = overviewMaxRows
	}
	if limit > len(matching) {
		limit = len(matching)
	}

	dashCtx := DashboardContext{
		Query:              query,
		View:               view,
		DashboardFilters:   dashboardFilters,
		TotalItems:         len(records),
		FilteredItems:      len(matching),
		SentimentBreakdown: sentimentBreakdown(matching),
		ChannelBreakdown:   channelBreakdown(matching),
		EngagementStats:    analytics.ComputeEngagementStats(matching),
		TopResults:         append([]models.Mention{}, matching[:limit]...),
	}
	if query.ContentAnalysis || view == "content" {
		insights := contentInsights(matching)
		dashCtx.ContentInsights = &insights
	}
	dashCtx.Summary = summarize(query, len(records), len(matching), limit)

	return dashCtx
}

func sentimentBreakdown(records []models.Mention) SentimentBreakdown {
	var out SentimentBreakdown
	for _, m := range records {
		bucket := &out.Neutral
		switch m.Sentiment {
		case models.SentimentPositive:
			bucket = &out.Positive
		case models.SentimentNegative:
			bucket = &out.Negative
		}
		bucket.Count++
		bucket.TotalEngagement += m.TotalEngagement
	}
	for _, bucket := range []*SentimentBucket{&out.Positive, &out.Negative, &out.Neutral} {
		bucket.Percentage = share(bucket.Count, len(records))
	}
	return out
}

// channelBreakdown expects records sorted by engagement, descending
func channelBreakdown(records []models.Mention) []ChannelBucket {
	index := map[string]int{}
	var buckets []ChannelBucket
	engagement := map[string]int{}

	for _, m := range records {
		name := string(m.Channel)
		if name == "" {
			name = models.UnknownLabel
		}
		i, ok := index[name]
		if !ok {
			i = len(buckets)
			index[name] = i
			buckets = append(buckets, ChannelBucket{Channel: name, TopContent: []string{}})
		}
		buckets[i].Count++
		engagement[name] += m.TotalEngagement
		if len(buckets[i].TopContent) < topContentPerChannel && m.Content != "" {
			buckets[i].TopContent = append(buckets[i].TopContent, truncate(m.Content, topContentRunes))
		}
	}

	for i := range buckets {
		buckets[i].Percentage = share(buckets[i].Count, len(records))
		buckets[i].AvgEngagement = float64(engagement[buckets[i].Channel]) / float64(buckets[i].Count)
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Count > buckets[j].Count
	})
	return buckets
}

// contentInsights expects records sorted by engagement, descending
func contentInsights(records []models.Mention) ContentInsights {
	insights := ContentInsights{
		TotalPosts:     len(records),
		TopKeywords:    []TermCount{},
		TopHashtags:    []TermCount{},
		ContentSamples: []ContentSample{},
	}

	keywords := map[string]int{}
	hashtags := map[string]int{}
	totalRunes, withContent := 0, 0

	for _, m := range records {
		if m.Content == "" {
			continue
		}
		withContent++
		totalRunes += len([]rune(m.Content))

		for _, tag := range hashtagPattern.FindAllString(m.Content, -1) {
			hashtags[tag]++
		}
		for _, word := range strings.Fields(strings.ToLower(m.Content)) {
			word = strings.Map(keepWordRune, word)
			if len([]rune(word)) >= minKeywordLength {
				keywords[word]++
			}
		}

		if len(insights.ContentSamples) < sampleLimit && len([]rune(m.Content)) > 10 {
			insights.ContentSamples = append(insights.ContentSamples, ContentSample{
				Content:    truncate(m.Content, sampleMaxRunes),
				Engagement: m.TotalEngagement,
				Sentiment:  string(m.Sentiment),
				Channel:    string(m.Channel),
			})
		}
	}

	if withContent > 0 {
		insights.AvgContentLength = (totalRunes + withContent/2) / withContent
	}
	insights.TopKeywords = topTerms(keywords, keywordLimit)
	insights.TopHashtags = topTerms(hashtags, hashtagLimit)
	return insights
}

func keepWordRune(r rune) rune {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return r
	}
	return -1
}

// topTerms orders by count, then alphabetically
func topTerms(counts map[string]int, n int) []TermCount {
	terms := make([]TermCount, 0, len(counts))
	for term, count := range counts {
		terms = append(terms, TermCount{Term: term, Count: count})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Term < terms[j].Term
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

func summarize(query QueryType, total, matching, shown int) string {
	var b strings.Builder
	b.WriteString("Query type: " + query.Type)
	if described := describeFilters(query.Filters); described != "" {
		b.WriteString(" with filters: " + described)
	}
	b.WriteString(fmt.Sprintf("\nDashboard data: %d items", total))
	b.WriteString(fmt.Sprintf("\nMatching data: %d items", matching))
	if query.Limit > 0 {
		b.WriteString(fmt.Sprintf("\nShowing top %d results", shown))
	}
	return b.String()
}

func describeFilters(f models.FilterSet) string {
	var parts []string
	for _, dim := range []models.Dimension{models.DimensionCategories, models.DimensionChannels, models.DimensionSentiment} {
		if values, _ := f.Values(dim); len(values) > 0 {
			parts = append(parts, fmt.Sprintf("%s=%s", dim, strings.Join(values, "|")))
		}
	}
	if f.EngagementRange.Min > 0 {
		parts = append(parts, fmt.Sprintf("engagement>=%d", f.EngagementRange.Min))
	}
	return strings.Join(parts, ", ")
}

func containsAny(message string, words []string) bool {
	for _, word := range words {
		if strings.Contains(message, word) {
			return true
		}
	}
	return false
}

func share(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
