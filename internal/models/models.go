package models

import "time"

// Sentiment is the polarity assigned to a mention
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// Channel is the platform a mention was observed on
type Channel string

const (
	ChannelFacebook  Channel = "Facebook"
	ChannelWebsite   Channel = "Website"
	ChannelTwitter   Channel = "Twitter"
	ChannelInstagram Channel = "Instagram"
	ChannelTikTok    Channel = "TikTok"
	ChannelYouTube   Channel = "YouTube"
)

// ContentType is the kind of item a mention is
type ContentType string

const (
	ContentTypePost    ContentType = "Post"
	ContentTypeVideo   ContentType = "Video"
	ContentTypeComment ContentType = "Comment"
	ContentTypeStory   ContentType = "Story"
)

// Category is the top-level topic bucket
type Category string

const (
	CategoryBusinessBranding Category = "Business Branding"
	CategoryESGBranding      Category = "ESG Branding"
	CategoryCrisisManagement Category = "Crisis Management"
)

// SubCategory refines Category
type SubCategory string

const (
	SubCategorySport     SubCategory = "Sport"
	SubCategoryStock     SubCategory = "Stock"
	SubCategoryNetZero   SubCategory = "Net zero"
	SubCategoryCorporate SubCategory = "Corporate"
)

// SpeakerType classifies the author of a mention
type SpeakerType string

const (
	SpeakerPublisher  SpeakerType = "Publisher"
	SpeakerInfluencer SpeakerType = "Influencer voice"
	SpeakerConsumer   SpeakerType = "Consumer"
	SpeakerMedia      SpeakerType = "Media"
)

// Known values per enum, in display order. Importers coerce anything else to the
// matching Default* value.
var (
	Sentiments    = []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral}
	Channels      = []Channel{ChannelFacebook, ChannelWebsite, ChannelTwitter, ChannelInstagram, ChannelTikTok, ChannelYouTube}
	ContentTypes  = []ContentType{ContentTypePost, ContentTypeVideo, ContentTypeComment, ContentTypeStory}
	Categories    = []Category{CategoryBusinessBranding, CategoryESGBranding, CategoryCrisisManagement}
	SubCategories = []SubCategory{SubCategorySport, SubCategoryStock, SubCategoryNetZero, SubCategoryCorporate}
	SpeakerTypes  = []SpeakerType{SpeakerPublisher, SpeakerInfluencer, SpeakerConsumer, SpeakerMedia}
)

const (
	DefaultSentiment   = SentimentNeutral
	DefaultChannel     = ChannelWebsite
	DefaultContentType = ContentTypePost
	DefaultCategory    = CategoryBusinessBranding
	DefaultSubCategory = SubCategoryCorporate
	DefaultSpeakerType = SpeakerConsumer
)

// UnknownLabel names the aggregate bucket for an empty field value
const UnknownLabel = "Unknown"

// Mention represents one observed social-media item
type Mention struct {
	ID              string      `json:"id"`
	Date            time.Time   `json:"date"` // calendar date at UTC midnight, zero when unknown
	Content         string      `json:"content"`
	Sentiment       Sentiment   `json:"sentiment"`
	Channel         Channel     `json:"channel"`
	ContentType     ContentType `json:"content_type"`
	TotalEngagement int         `json:"total_engagement"`
	Username        string      `json:"username"`
	Category        Category    `json:"category"`
	SubCategory     SubCategory `json:"sub_category"`
	SpeakerType     SpeakerType `json:"type_of_speaker"`
	Comments        int         `json:"comments"`
	Reactions       int         `json:"reactions"`
	Shares          int         `json:"shares"`
}

// HasDate reports whether the mention carries a usable calendar date
func (m Mention) HasDate() bool {
	return !m.Date.IsZero()
}

// DateKey returns the mention's date as YYYY-MM-DD, or "" when unknown
func (m Mention) DateKey() string {
	if !m.HasDate() {
		return ""
	}
	return m.Date.Format(DateLayout)
}

// DateLayout is the canonical calendar-date format used for grouping and the API
const DateLayout = "2006-01-02"

// NormalizeDate strips time-of-day, keeping the calendar date as seen in t's own
// location, and returns it at UTC midnight.
func NormalizeDate(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return NormalizeDate(t), nil
}

// Report represents a generated dashboard digest
type Report struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	Period        string           `json:"period"` // "daily", "weekly" or "on-demand"
	TotalRecords  int              `json:"total_records"`
	TotalMentions int              `json:"total_mentions"`
	Filters       FilterSet        `json:"filters"`
	KPIs          KPISummary       `json:"kpis"`
	Charts        ChartData        `json:"charts"`
	Influencers   []InfluencerStat `json:"influencers"`
}

// Alert is an operational notice, such as a failed scheduled refresh
type Alert struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
