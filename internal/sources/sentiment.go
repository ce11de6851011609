package sources

import (
	"html"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
	"github.com/social-listening/mentions-dashboard/internal/models"
)

// Compound score thresholds for the VADER classifier
const (
	positiveThreshold = 0.20
	negativeThreshold = -0.20
)

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern          = regexp.MustCompile(`https?://\S+|www\.\S+`)
	htmlTagPattern      = regexp.MustCompile(`<[^>]*>`)
)

// VaderClassifier infers sentiment for mentions whose sentiment cell is blank
type VaderClassifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderClassifier() *VaderClassifier {
	return &VaderClassifier{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Classify scores text and maps the compound score onto the three sentiments
func (v *VaderClassifier) Classify(text string) models.Sentiment {
	score := v.analyzer.PolarityScores(PlainText(text)).Compound
	switch {
	case score >= positiveThreshold:
		return models.SentimentPositive
	case score <= negativeThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// PlainText renders markdown and strips the markup, links and URLs, leaving the
// words a reader would see.
func PlainText(input string) string {
	input = markdownLinkPattern.ReplaceAllString(input, "$1")
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	text := htmlTagPattern.ReplaceAllString(string(output), " ")
	text = urlPattern.ReplaceAllString(html.UnescapeString(text), "")
	return strings.Join(strings.Fields(text), " ")
}
