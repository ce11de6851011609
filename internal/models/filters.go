package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateRange bounds mentions by calendar date. Either end may be nil; both are inclusive.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

type dateRangeJSON struct {
	Start *string `json:"start,omitempty"`
	End   *string `json:"end,omitempty"`
}

// MarshalJSON writes the bounds as YYYY-MM-DD calendar dates
func (r DateRange) MarshalJSON() ([]byte, error) {
	var out dateRangeJSON
	if r.Start != nil {
		start := NormalizeDate(*r.Start).Format(DateLayout)
		out.Start = &start
	}
	if r.End != nil {
		end := NormalizeDate(*r.End).Format(DateLayout)
		out.End = &end
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts YYYY-MM-DD or RFC3339 bounds. Empty strings and nulls
// leave the bound open.
func (r *DateRange) UnmarshalJSON(data []byte) error {
	var in dateRangeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	start, err := parseBound(in.Start)
	if err != nil {
		return fmt.Errorf("invalid dateRange start: %w", err)
	}
	end, err := parseBound(in.End)
	if err != nil {
		return fmt.Errorf("invalid dateRange end: %w", err)
	}

	*r = DateRange{Start: start, End: end}
	return nil
}

func parseBound(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	if day, err := ParseDate(*value); err == nil {
		return &day, nil
	}
	t, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		return nil, fmt.Errorf("%q is neither %s nor RFC3339", *value, DateLayout)
	}
	day := NormalizeDate(t)
	return &day, nil
}

// IsSet reports whether either bound is active
func (r DateRange) IsSet() bool {
	return r.Start != nil || r.End != nil
}

// EngagementRange bounds total engagement. A nil Max is unbounded.
type EngagementRange struct {
	Min int  `json:"min"`
	Max *int `json:"max,omitempty"`
}

// FilterSet is the active slicing criteria. Empty slices impose no restriction.
type FilterSet struct {
	DateRange       DateRange       `json:"dateRange"`
	Sentiment       []Sentiment     `json:"sentiment"`
	Channels        []Channel       `json:"channels"`
	Categories      []Category      `json:"categories"`
	SubCategories   []SubCategory   `json:"subCategories"`
	ContentTypes    []ContentType   `json:"contentTypes"`
	SpeakerTypes    []SpeakerType   `json:"speakerTypes"`
	Usernames       []string        `json:"usernames"`
	EngagementRange EngagementRange `json:"engagementRange"`
}

// DefaultFilters returns the permissive filter set that admits every record
func DefaultFilters() FilterSet {
	return FilterSet{
		Sentiment:     []Sentiment{},
		Channels:      []Channel{},
		Categories:    []Category{},
		SubCategories: []SubCategory{},
		ContentTypes:  []ContentType{},
		SpeakerTypes:  []SpeakerType{},
		Usernames:     []string{},
	}
}

// Clone returns a deep copy so callers cannot mutate shared slices
func (f FilterSet) Clone() FilterSet {
	out := f
	out.Sentiment = append([]Sentiment{}, f.Sentiment...)
	out.Channels = append([]Channel{}, f.Channels...)
	out.Categories = append([]Category{}, f.Categories...)
	out.SubCategories = append([]SubCategory{}, f.SubCategories...)
	out.ContentTypes = append([]ContentType{}, f.ContentTypes...)
	out.SpeakerTypes = append([]SpeakerType{}, f.SpeakerTypes...)
	out.Usernames = append([]string{}, f.Usernames...)
	if f.DateRange.Start != nil {
		start := *f.DateRange.Start
		out.DateRange.Start = &start
	}
	if f.DateRange.End != nil {
		end := *f.DateRange.End
		out.DateRange.End = &end
	}
	if f.EngagementRange.Max != nil {
		limit := *f.EngagementRange.Max
		out.EngagementRange.Max = &limit
	}
	return out
}

// FilterPatch is a partial FilterSet. Nil fields are left unchanged; non-nil
// fields replace the current value wholesale.
type FilterPatch struct {
	DateRange       *DateRange       `json:"dateRange,omitempty"`
	Sentiment       []Sentiment      `json:"sentiment,omitempty"`
	Channels        []Channel        `json:"channels,omitempty"`
	Categories      []Category       `json:"categories,omitempty"`
	SubCategories   []SubCategory    `json:"subCategories,omitempty"`
	ContentTypes    []ContentType    `json:"contentTypes,omitempty"`
	SpeakerTypes    []SpeakerType    `json:"speakerTypes,omitempty"`
	Usernames       []string         `json:"usernames,omitempty"`
	EngagementRange *EngagementRange `json:"engagementRange,omitempty"`
}

// Merge applies the patch on top of f and returns the result
func (f FilterSet) Merge(p FilterPatch) FilterSet {
	out := f.Clone()
	if p.DateRange != nil {
		out.DateRange = *p.DateRange
	}
	if p.Sentiment != nil {
		out.Sentiment = append([]Sentiment{}, p.Sentiment...)
	}
	if p.Channels != nil {
		out.Channels = append([]Channel{}, p.Channels...)
	}
	if p.Categories != nil {
		out.Categories = append([]Category{}, p.Categories...)
	}
	if p.SubCategories != nil {
		out.SubCategories = append([]SubCategory{}, p.SubCategories...)
	}
	if p.ContentTypes != nil {
		out.ContentTypes = append([]ContentType{}, p.ContentTypes...)
	}
	if p.SpeakerTypes != nil {
		out.SpeakerTypes = append([]SpeakerType{}, p.SpeakerTypes...)
	}
	if p.Usernames != nil {
		out.Usernames = append([]string{}, p.Usernames...)
	}
	if p.EngagementRange != nil {
		out.EngagementRange = *p.EngagementRange
	}
	return out
}

// Dimension names a set-valued filter dimension
type Dimension string

const (
	DimensionSentiment     Dimension = "sentiment"
	DimensionChannels      Dimension = "channels"
	DimensionCategories    Dimension = "categories"
	DimensionSubCategories Dimension = "subCategories"
	DimensionContentTypes  Dimension = "contentTypes"
	DimensionSpeakerTypes  Dimension = "speakerTypes"
	DimensionUsernames     Dimension = "usernames"
)

// Dimensions lists every set-valued dimension
var Dimensions = []Dimension{
	DimensionSentiment, DimensionChannels, DimensionCategories, DimensionSubCategories,
	DimensionContentTypes, DimensionSpeakerTypes, DimensionUsernames,
}

// Values returns the allowed values of dimension d as plain strings
func (f FilterSet) Values(d Dimension) ([]string, bool) {
	switch d {
	case DimensionSentiment:
		return toStrings(f.Sentiment), true
	case DimensionChannels:
		return toStrings(f.Channels), true
	case DimensionCategories:
		return toStrings(f.Categories), true
	case DimensionSubCategories:
		return toStrings(f.SubCategories), true
	case DimensionContentTypes:
		return toStrings(f.ContentTypes), true
	case DimensionSpeakerTypes:
		return toStrings(f.SpeakerTypes), true
	case DimensionUsernames:
		return append([]string{}, f.Usernames...), true
	}
	return nil, false
}

// PatchFor builds a patch replacing dimension d with values
func PatchFor(d Dimension, values []string) (FilterPatch, bool) {
	var p FilterPatch
	switch d {
	case DimensionSentiment:
		p.Sentiment = fromStrings[Sentiment](values)
	case DimensionChannels:
		p.Channels = fromStrings[Channel](values)
	case DimensionCategories:
		p.Categories = fromStrings[Category](values)
	case DimensionSubCategories:
		p.SubCategories = fromStrings[SubCategory](values)
	case DimensionContentTypes:
		p.ContentTypes = fromStrings[ContentType](values)
	case DimensionSpeakerTypes:
		p.SpeakerTypes = fromStrings[SpeakerType](values)
	case DimensionUsernames:
		p.Usernames = append([]string{}, values...)
	default:
		return FilterPatch{}, false
	}
	return p, true
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func fromStrings[T ~string](in []string) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = T(v)
	}
	return out
}
