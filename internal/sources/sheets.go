package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/social-listening/mentions-dashboard/internal/cache"
	"github.com/social-listening/mentions-dashboard/internal/models"
)

const defaultSheetsBaseURL = "https://docs.google.com"

// GoogleSheetSource loads mentions from the CSV export of a published sheet
type GoogleSheetSource struct {
	sheetID    string
	gid        string
	baseURL    string
	client     *resty.Client
	normalizer *RowNormalizer
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewGoogleSheetSource creates a sheet source. The cache is optional.
func NewGoogleSheetSource(sheetID, gid string, normalizer *RowNormalizer, c cache.Cache, ttl time.Duration) *GoogleSheetSource {
	if gid == "" {
		gid = "0"
	}
	return &GoogleSheetSource{
		sheetID:    sheetID,
		gid:        gid,
		baseURL:    defaultSheetsBaseURL,
		client:     resty.New().SetTimeout(30 * time.Second),
		normalizer: normalizer,
		cache:      c,
		cacheTTL:   ttl,
	}
}

// WithBaseURL points the source at a different export host
func (g *GoogleSheetSource) WithBaseURL(baseURL string) *GoogleSheetSource {
	g.baseURL = strings.TrimRight(baseURL, "/")
	return g
}

func (g *GoogleSheetSource) GetName() string {
	return "google-sheet"
}

func (g *GoogleSheetSource) IsEnabled() bool {
	return g.sheetID != ""
}

// ExportURL returns the CSV export address of the configured sheet tab
func (g *GoogleSheetSource) ExportURL() string {
	return fmt.Sprintf("%s/spreadsheets/d/%s/export?format=csv&gid=%s", g.baseURL, g.sheetID, g.gid)
}

func (g *GoogleSheetSource) FetchMentions(ctx context.Context) ([]models.Mention, error) {
	if !g.IsEnabled() {
		return nil, fmt.Errorf("google sheet source is not configured (GOOGLE_SHEET_ID)")
	}

	body, err := g.exportCSV(ctx)
	if err != nil {
		return nil, err
	}

	mentions, err := ParseCSV(bytes.NewReader(body), g.normalizer)
	if err != nil {
		return nil, fmt.Errorf("failed to parse google sheet: %w", err)
	}
	return mentions, nil
}

func (g *GoogleSheetSource) exportCSV(ctx context.Context) ([]byte, error) {
	key := fmt.Sprintf("sheet:%s:%s", g.sheetID, g.gid)

	if g.cache != nil {
		cached, ok, err := g.cache.Get(ctx, key)
		if err != nil {
			logrus.Warnf("Sheet cache lookup failed: %v", err)
		} else if ok {
			logrus.Debugf("Serving google sheet %s from cache", g.sheetID)
			return []byte(cached), nil
		}
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/csv").
		Get(g.ExportURL())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google sheet: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("google sheet export returned status %d", resp.StatusCode())
	}

	body := resp.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("google sheet export is empty")
	}

	if g.cache != nil {
		if err := g.cache.Set(ctx, key, string(body), g.cacheTTL); err != nil {
			logrus.Warnf("Failed to cache google sheet export: %v", err)
		}
	}

	return body, nil
}
