package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateRange_UnmarshalJSON(t *testing.T) {
	jan13 := time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC)
	jan14 := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		start   *time.Time
		end     *time.Time
		wantErr bool
	}{
		{name: "Calendar dates", input: `{"start":"2024-01-13","end":"2024-01-14"}`, start: &jan13, end: &jan14},
		{name: "RFC3339 keeps its own calendar day", input: `{"start":"2024-01-13T23:30:00-05:00"}`, start: &jan13},
		{name: "Open end", input: `{"start":"2024-01-13","end":null}`, start: &jan13},
		{name: "Empty string is open", input: `{"start":"","end":"2024-01-14"}`, end: &jan14},
		{name: "Empty object", input: `{}`},
		{name: "Invalid date", input: `{"start":"13/01/2024"}`, wantErr: true},
		{name: "Wrong type", input: `{"start":20240113}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r DateRange
			err := json.Unmarshal([]byte(tt.input), &r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start, r.Start)
			assert.Equal(t, tt.end, r.End)
		})
	}
}

func TestDateRange_MarshalJSON(t *testing.T) {
	start := time.Date(2024, 1, 13, 15, 4, 5, 0, time.UTC)
	data, err := json.Marshal(FilterSet{DateRange: DateRange{Start: &start}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"dateRange":{"start":"2024-01-13"}`)

	var decoded FilterSet
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.DateRange.Start)
	assert.Equal(t, NormalizeDate(start), *decoded.DateRange.Start)
	assert.Nil(t, decoded.DateRange.End)
}

func TestFilterPatch_DateRangeFromJSON(t *testing.T) {
	var patch FilterPatch
	require.NoError(t, json.Unmarshal([]byte(`{"dateRange":{"start":"2024-01-13","end":"2024-01-14"}}`), &patch))
	require.NotNil(t, patch.DateRange)

	merged := DefaultFilters().Merge(patch)
	assert.True(t, merged.DateRange.IsSet())
	assert.Equal(t, "2024-01-14", merged.DateRange.End.Format(DateLayout))
}
