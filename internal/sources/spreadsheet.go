package sources

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/social-listening/mentions-dashboard/internal/models"
	"github.com/xuri/excelize/v2"
)

// ParseWorkbook reads the first sheet of an .xlsx workbook
func ParseWorkbook(r io.Reader, normalizer *RowNormalizer) ([]models.Mention, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logrus.Warnf("Failed to close workbook: %v", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoDataRows
	}

	// Raw values keep dates as serial numbers instead of locale-formatted text
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	return normalizer.Normalize(rows)
}

// ParseCSV reads a comma-separated export with a header row
func ParseCSV(r io.Reader, normalizer *RowNormalizer) ([]models.Mention, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	return normalizer.Normalize(rows)
}
