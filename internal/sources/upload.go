package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/social-listening/mentions-dashboard/internal/models"
)

// ErrUnsupportedFormat is returned for uploads that are neither .xlsx nor .csv
var ErrUnsupportedFormat = errors.New("unsupported file type")

// FileSource wraps an uploaded spreadsheet held in memory
type FileSource struct {
	filename   string
	data       []byte
	normalizer *RowNormalizer
}

// NewFileSource creates a source for an uploaded file. The format is chosen from
// the file extension.
func NewFileSource(filename string, data []byte, normalizer *RowNormalizer) *FileSource {
	return &FileSource{
		filename:   filename,
		data:       data,
		normalizer: normalizer,
	}
}

func (f *FileSource) GetName() string {
	return "upload:" + f.filename
}

func (f *FileSource) IsEnabled() bool {
	return len(f.data) > 0
}

func (f *FileSource) FetchMentions(ctx context.Context) ([]models.Mention, error) {
	if !f.IsEnabled() {
		return nil, fmt.Errorf("uploaded file %q is empty", f.filename)
	}

	switch ext := strings.ToLower(filepath.Ext(f.filename)); ext {
	case ".xlsx", ".xlsm":
		return ParseWorkbook(bytes.NewReader(f.data), f.normalizer)
	case ".csv":
		return ParseCSV(bytes.NewReader(f.data), f.normalizer)
	default:
		return nil, fmt.Errorf("%w %q: expected .xlsx or .csv", ErrUnsupportedFormat, ext)
	}
}
