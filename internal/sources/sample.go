package sources

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/social-listening/mentions-dashboard/internal/models"
)

type engagementBand struct {
	min, max int
}

var channelEngagement = map[models.Channel]engagementBand{
	models.ChannelFacebook:  {min: 10, max: 200},
	models.ChannelWebsite:   {min: 5, max: 100},
	models.ChannelTwitter:   {min: 15, max: 150},
	models.ChannelInstagram: {min: 20, max: 300},
	models.ChannelTikTok:    {min: 50, max: 500},
	models.ChannelYouTube:   {min: 30, max: 250},
}

var minorChannels = []models.Channel{
	models.ChannelTwitter, models.ChannelInstagram, models.ChannelTikTok, models.ChannelYouTube,
}

var sampleContents = []string{
	"Great service from this company! Highly recommend their approach to customer satisfaction.",
	"The new product launch was fantastic. Really impressed with the innovation. #launch",
	"Could be better. The customer service response time needs improvement.",
	"Love the company's commitment to sustainability and environmental responsibility. #ESG",
	"Amazing results from their recent ESG initiatives. True corporate leadership. #NetZero",
	"The latest announcement shows they really care about their community impact.",
	"Not satisfied with the recent changes. Hope they address customer concerns soon.",
	"Excellent presentation at the conference. Very professional and insightful.",
	"Their stock performance has been impressive this quarter. #investing",
	"The company's response to the crisis was handled professionally and transparently.",
}

var sampleUsernames = []string{
	"social_enthusiast", "business_watcher", "green_advocate", "market_analyst",
	"customer_voice", "industry_insider", "brand_follower", "stock_trader",
	"sustainability_fan", "corporate_observer", "consumer_rights", "media_reporter",
	"investment_guru", "eco_warrior", "business_student", "marketing_pro",
}

// SampleSource generates the bundled demonstration dataset
type SampleSource struct {
	size int
	seed int64
	now  func() time.Time
}

// NewSampleSource creates a generator of size mentions. The same seed and clock
// always produce the same dataset.
func NewSampleSource(size int, seed int64) *SampleSource {
	return &SampleSource{
		size: size,
		seed: seed,
		now:  time.Now,
	}
}

// WithClock replaces the clock the last-30-days window is anchored on
func (s *SampleSource) WithClock(now func() time.Time) *SampleSource {
	s.now = now
	return s
}

func (s *SampleSource) GetName() string {
	return "sample"
}

func (s *SampleSource) IsEnabled() bool {
	return s.size > 0
}

func (s *SampleSource) FetchMentions(ctx context.Context) ([]models.Mention, error) {
	rng := rand.New(rand.NewSource(s.seed))
	today := models.NormalizeDate(s.now())

	mentions := make([]models.Mention, 0, s.size)
	for i := 0; i < s.size; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sentiment := pickSentiment(rng.Float64())
		channel := pickChannel(rng)
		engagement := pickEngagement(rng, channel, sentiment)

		reactions := int(float64(engagement) * (0.6 + rng.Float64()*0.3))
		comments := int(float64(engagement) * (0.05 + rng.Float64()*0.15))
		shares := engagement - reactions - comments
		if shares < 0 {
			shares = 0
		}

		mentions = append(mentions, models.Mention{
			ID:              strconv.Itoa(i + 1),
			Date:            today.AddDate(0, 0, -rng.Intn(30)),
			Content:         sampleContents[rng.Intn(len(sampleContents))],
			Sentiment:       sentiment,
			Channel:         channel,
			ContentType:     models.ContentTypes[rng.Intn(len(models.ContentTypes))],
			TotalEngagement: engagement,
			Username:        sampleUsernames[rng.Intn(len(sampleUsernames))],
			Category:        models.Categories[rng.Intn(len(models.Categories))],
			SubCategory:     models.SubCategories[rng.Intn(len(models.SubCategories))],
			SpeakerType:     models.SpeakerTypes[rng.Intn(len(models.SpeakerTypes))],
			Comments:        comments,
			Reactions:       reactions,
			Shares:          shares,
		})
	}

	// Newest first
	sort.SliceStable(mentions, func(i, j int) bool {
		return mentions[i].Date.After(mentions[j].Date)
	})

	return mentions, nil
}

// pickSentiment weights 60% positive, 35% neutral, 5% negative
func pickSentiment(roll float64) models.Sentiment {
	switch {
	case roll < 0.60:
		return models.SentimentPositive
	case roll < 0.95:
		return models.SentimentNeutral
	default:
		return models.SentimentNegative
	}
}

// pickChannel weights Facebook 40%, Website 35%, the rest share 25%
func pickChannel(rng *rand.Rand) models.Channel {
	roll := rng.Float64()
	switch {
	case roll < 0.40:
		return models.ChannelFacebook
	case roll < 0.75:
		return models.ChannelWebsite
	default:
		return minorChannels[rng.Intn(len(minorChannels))]
	}
}

func pickEngagement(rng *rand.Rand, channel models.Channel, sentiment models.Sentiment) int {
	multiplier := 1.0
	switch sentiment {
	case models.SentimentPositive:
		multiplier = 1.5
	case models.SentimentNegative:
		multiplier = 0.7
	}

	band := channelEngagement[channel]
	low := int(float64(band.min) * multiplier)
	high := int(float64(band.max) * multiplier)
	if high <= low {
		return low
	}
	return low + rng.Intn(high-low)
}
