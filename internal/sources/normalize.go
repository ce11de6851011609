package sources

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/social-listening/mentions-dashboard/internal/models"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrNoDataRows is returned when a dataset has a header but no usable rows
	ErrNoDataRows = errors.New("dataset contains no data rows")
	// ErrMissingColumns is returned when a required column cannot be found
	ErrMissingColumns = errors.New("dataset is missing required columns")
)

// Canonical column names
const (
	colID          = "id"
	colDate        = "date"
	colContent     = "content"
	colSentiment   = "sentiment"
	colChannel     = "channel"
	colContentType = "content_type"
	colEngagement  = "total_engagement"
	colUsername    = "username"
	colCategory    = "category"
	colSubCategory = "sub_category"
	colSpeakerType = "type_of_speaker"
	colComments    = "comments"
	colReactions   = "reactions"
	colShares      = "shares"
)

var requiredColumns = []string{colDate, colSentiment, colChannel, colEngagement}

// headerAliases maps a folded header (lowercase, no spaces or underscores) to its
// canonical column.
var headerAliases = map[string]string{
	"id":              colID,
	"date":            colDate,
	"content":         colContent,
	"text":            colContent,
	"message":         colContent,
	"sentiment":       colSentiment,
	"channel":         colChannel,
	"platform":        colChannel,
	"contenttype":     colContentType,
	"totalengagement": colEngagement,
	"engagement":      colEngagement,
	"username":        colUsername,
	"user":            colUsername,
	"author":          colUsername,
	"category":        colCategory,
	"subcategory":     colSubCategory,
	"typeofspeaker":   colSpeakerType,
	"speakertype":     colSpeakerType,
	"speaker":         colSpeakerType,
	"comment":         colComments,
	"comments":        colComments,
	"reaction":        colReactions,
	"reactions":       colReactions,
	"share":           colShares,
	"shares":          colShares,
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	models.DateLayout,
	"1/2/2006",
	"02/01/2006",
	"2006/01/02",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// Classifier assigns a sentiment to free text
type Classifier interface {
	Classify(text string) models.Sentiment
}

// RowNormalizer turns loosely formatted tabular rows into mentions
type RowNormalizer struct {
	classifier Classifier
}

// NewRowNormalizer creates a normalizer. A nil classifier leaves blank sentiment
// cells at the default value.
func NewRowNormalizer(classifier Classifier) *RowNormalizer {
	return &RowNormalizer{classifier: classifier}
}

// Normalize converts a header row plus data rows into mentions. Blank rows are
// skipped; fields that cannot be coerced fall back to their defaults.
func (n *RowNormalizer) Normalize(rows [][]string) ([]models.Mention, error) {
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}

	columns := mapHeader(rows[0])
	var missing []string
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	mentions := make([]models.Mention, 0, len(rows)-1)
	inferred := 0
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}

		cell := func(column string) string {
			idx, ok := columns[column]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		mention := models.Mention{
			ID:              cell(colID),
			Date:            parseDate(cell(colDate)),
			Content:         cell(colContent),
			Channel:         parseChannel(cell(colChannel)),
			ContentType:     coerce(cell(colContentType), models.ContentTypes, models.DefaultContentType),
			TotalEngagement: parseNumber(cell(colEngagement)),
			Username:        cell(colUsername),
			Category:        coerce(cell(colCategory), models.Categories, models.DefaultCategory),
			SubCategory:     coerce(cell(colSubCategory), models.SubCategories, models.DefaultSubCategory),
			SpeakerType:     coerce(cell(colSpeakerType), models.SpeakerTypes, models.DefaultSpeakerType),
			Comments:        parseNumber(cell(colComments)),
			Reactions:       parseNumber(cell(colReactions)),
			Shares:          parseNumber(cell(colShares)),
		}
		if mention.ID == "" {
			mention.ID = strconv.Itoa(i + 1)
		}

		rawSentiment := cell(colSentiment)
		if rawSentiment == "" && n.classifier != nil && mention.Content != "" {
			mention.Sentiment = n.classifier.Classify(mention.Content)
			inferred++
		} else {
			mention.Sentiment = coerce(rawSentiment, models.Sentiments, models.DefaultSentiment)
		}

		mentions = append(mentions, mention)
	}

	if len(mentions) == 0 {
		return nil, ErrNoDataRows
	}

	logrus.WithFields(logrus.Fields{
		"rows":               len(rows) - 1,
		"mentions":           len(mentions),
		"inferred_sentiment": inferred,
	}).Debug("Normalized dataset rows")

	return mentions, nil
}

func mapHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		canonical, ok := headerAliases[foldHeader(name)]
		if !ok {
			continue
		}
		if _, seen := columns[canonical]; !seen {
			columns[canonical] = idx
		}
	}
	return columns
}

func foldHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(name)
}

func isBlank(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// parseDate accepts the common spreadsheet formats and Excel serial day numbers.
// Anything else yields the zero time, meaning the date is unknown.
func parseDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return models.NormalizeDate(t)
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return models.NormalizeDate(t)
		}
	}
	return time.Time{}
}

// parseNumber reads a count cell. Unparseable and negative values become 0.
func parseNumber(raw string) int {
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.ReplaceAll(raw, " ", "")
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0
	}
	return int(value)
}

func parseChannel(raw string) models.Channel {
	if strings.EqualFold(raw, "x") {
		return models.ChannelTwitter
	}
	return coerce(raw, models.Channels, models.DefaultChannel)
}

// coerce matches raw against the known values case-insensitively
func coerce[T ~string](raw string, known []T, fallback T) T {
	for _, value := range known {
		if strings.EqualFold(raw, string(value)) {
			return value
		}
	}
	return fallback
}
