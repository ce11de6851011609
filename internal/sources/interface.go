package sources

import (
	"context"

	"github.com/social-listening/mentions-dashboard/internal/models"
)

// Source interface defines the contract for all mention datasets the dashboard
// can load: the bundled sample, an uploaded file or a published Google Sheet.
type Source interface {
	GetName() string
	FetchMentions(ctx context.Context) ([]models.Mention, error)
	IsEnabled() bool
}

var (
	_ Source = (*SampleSource)(nil)
	_ Source = (*FileSource)(nil)
	_ Source = (*GoogleSheetSource)(nil)
)
