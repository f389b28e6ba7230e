package models

import "time"

// DateField selects which note timestamp a date range applies to.
type DateField string

const (
	DateCreated DateField = "created"
	DateUpdated DateField = "updated"
)

// DateRange is an inclusive time window. A nil bound is unbounded on that side.
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
	Type  DateField  `json:"type"`
}

// Active reports whether at least one bound is set.
func (r DateRange) Active() bool {
	return r.Start != nil || r.End != nil
}

// WordCountRange bounds a note's word count inclusively.
type WordCountRange struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

// Active reports whether at least one bound is set.
func (r WordCountRange) Active() bool {
	return r.Min != nil || r.Max != nil
}

// SearchFilters are the advanced filter criteria. Active criteria are ANDed.
// HasLabels nil means no constraint.
type SearchFilters struct {
	DateRange DateRange      `json:"dateRange"`
	HasLabels *bool          `json:"hasLabels"`
	WordCount WordCountRange `json:"wordCount"`
}

// DefaultSearchFilters returns filters with every criterion inactive.
func DefaultSearchFilters() SearchFilters {
	return SearchFilters{DateRange: DateRange{Type: DateUpdated}}
}

// Highlight lists the distinct matched substrings found in a note.
type Highlight struct {
	Title   []string `json:"title"`
	Content []string `json:"content"`
}

// ExportData is the JSON backup document.
type ExportData struct {
	Notes      []Note  `json:"notes"`
	Labels     []Label `json:"labels"`
	ExportedAt string  `json:"exportedAt"`
	Version    string  `json:"version"`
}
