package query

import (
	"github.com/starford/smartnotes/internal/markup"
	"github.com/starford/smartnotes/internal/models"
)

// FilterNotesAdvanced keeps the notes satisfying every active criterion of f.
func (e *Engine) FilterNotesAdvanced(f models.SearchFilters) []models.Note {
	notes, _ := e.src.Snapshot()
	return FilterNotesAdvanced(notes, f)
}

// FilterNotesAdvanced is the advanced filter over an explicit note list.
func FilterNotesAdvanced(notes []models.Note, f models.SearchFilters) []models.Note {
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if matchesDateRange(n, f.DateRange) && matchesHasLabels(n, f.HasLabels) && matchesWordCount(n, f.WordCount) {
			out = append(out, n)
		}
	}
	return out
}

func matchesDateRange(n models.Note, r models.DateRange) bool {
	if !r.Active() {
		return true
	}
	ms := n.UpdatedAt
	if r.Type == models.DateCreated {
		ms = n.CreatedAt
	}
	t := models.Time(ms)
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

func matchesHasLabels(n models.Note, want *bool) bool {
	if want == nil {
		return true
	}
	return (len(n.LabelIDs) > 0) == *want
}

func matchesWordCount(n models.Note, r models.WordCountRange) bool {
	if !r.Active() {
		return true
	}
	wc := markup.WordCount(n.Content)
	if r.Min != nil && wc < *r.Min {
		return false
	}
	if r.Max != nil && wc > *r.Max {
		return false
	}
	return true
}

// WithLabels keeps the notes carrying at least one of labelIDs. An empty
// labelIDs keeps every note.
func WithLabels(notes []models.Note, labelIDs []string) []models.Note {
	if len(labelIDs) == 0 {
		return notes
	}
	out := make([]models.Note, 0)
	for _, n := range notes {
		for _, id := range labelIDs {
			if n.HasLabel(id) {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// Intersect keeps the notes of a whose id also appears in b, in a's order.
func Intersect(a, b []models.Note) []models.Note {
	ids := make(map[string]struct{}, len(b))
	for _, n := range b {
		ids[n.ID] = struct{}{}
	}
	out := make([]models.Note, 0, len(a))
	for _, n := range a {
		if _, ok := ids[n.ID]; ok {
			out = append(out, n)
		}
	}
	return out
}

// ViewRequest combines every filter category of the note list. Categories
// are ANDed; label ids within LabelIDs are ORed.
type ViewRequest struct {
	Query     string
	Advanced  bool
	Options   SearchOptions
	LabelIDs  []string
	Filters   *models.SearchFilters
	SortBy    SortField
	SortOrder SortOrder
}

// View runs the full list pipeline on one snapshot: text search, label
// filter, advanced filters, then sort. Highlights are only set for
// advanced searches.
func (e *Engine) View(req ViewRequest) Result {
	notes, labels := e.src.Snapshot()

	res := Result{Notes: notes, Highlights: map[string]models.Highlight{}}
	if req.Advanced {
		res = SearchNotesAdvanced(notes, labels, req.Query, req.Options)
	} else {
		res.Notes = SearchNotes(notes, req.Query)
	}
	if len(req.LabelIDs) > 0 {
		res.Notes = Intersect(res.Notes, WithLabels(notes, req.LabelIDs))
	}
	if req.Filters != nil {
		res.Notes = Intersect(res.Notes, FilterNotesAdvanced(notes, *req.Filters))
	}
	for id := range res.Highlights {
		if !containsID(res.Notes, id) {
			delete(res.Highlights, id)
		}
	}
	res.Notes = Sort(res.Notes, req.SortBy, req.SortOrder)
	return res
}

func containsID(notes []models.Note, id string) bool {
	for _, n := range notes {
		if n.ID == id {
			return true
		}
	}
	return false
}
