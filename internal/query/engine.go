// Package query implements note search, advanced filtering, sorting and
// statistics over a consistent snapshot of the repositories. It holds no
// state of its own.
package query

import (
	"regexp"
	"strings"

	"github.com/starford/smartnotes/internal/markup"
	"github.com/starford/smartnotes/internal/models"
)

// Source provides a consistent view of both collections. *store.Store
// satisfies it.
type Source interface {
	Snapshot() ([]models.Note, []models.Label)
}

// Engine answers queries against a Source.
type Engine struct {
	src Source
}

// New creates a query engine reading from src.
func New(src Source) *Engine {
	return &Engine{src: src}
}

// SearchOptions tunes SearchNotesAdvanced.
type SearchOptions struct {
	IncludeLabels bool `json:"includeLabels"`
	CaseSensitive bool `json:"caseSensitive"`
	WholeWords    bool `json:"wholeWords"`
}

// DefaultSearchOptions searches labels too, ignoring case, on substrings.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{IncludeLabels: true}
}

// Result is the outcome of an advanced search. Highlights is keyed by note id.
type Result struct {
	Notes      []models.Note               `json:"notes"`
	Highlights map[string]models.Highlight `json:"highlights"`
}

// SearchNotes returns notes whose title or raw content contains q, ignoring
// case. A blank q returns every note in collection order.
func (e *Engine) SearchNotes(q string) []models.Note {
	notes, _ := e.src.Snapshot()
	return SearchNotes(notes, q)
}

// SearchNotes is the basic search over an explicit note list.
func SearchNotes(notes []models.Note, q string) []models.Note {
	if strings.TrimSpace(q) == "" {
		return notes
	}
	term := strings.ToLower(q)
	out := make([]models.Note, 0)
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), term) ||
			strings.Contains(strings.ToLower(n.Content), term) {
			out = append(out, n)
		}
	}
	return out
}

// SearchNotesAdvanced matches the trimmed q against titles, tag-stripped
// content and, optionally, the names of the labels a note carries.
//
// Highlights hold the distinct matched substrings in their original casing,
// in order of first occurrence. A note matched only through a label gets an
// entry with empty lists.
func (e *Engine) SearchNotesAdvanced(q string, opts SearchOptions) Result {
	notes, labels := e.src.Snapshot()
	return SearchNotesAdvanced(notes, labels, q, opts)
}

// SearchNotesAdvanced is the advanced search over explicit collections.
func SearchNotesAdvanced(notes []models.Note, labels []models.Label, q string, opts SearchOptions) Result {
	term := strings.TrimSpace(q)
	if term == "" {
		return Result{Notes: notes, Highlights: map[string]models.Highlight{}}
	}

	re := matcher(term, opts)
	names := make(map[string]string, len(labels))
	for _, l := range labels {
		names[l.ID] = l.Name
	}

	res := Result{Notes: make([]models.Note, 0), Highlights: map[string]models.Highlight{}}
	for _, n := range notes {
		titleHits := distinct(re.FindAllString(n.Title, -1))
		contentHits := distinct(re.FindAllString(markup.StripTags(n.Content), -1))

		labelHit := false
		if opts.IncludeLabels {
			for _, id := range n.LabelIDs {
				if name, ok := names[id]; ok && re.MatchString(name) {
					labelHit = true
					break
				}
			}
		}

		if len(titleHits) == 0 && len(contentHits) == 0 && !labelHit {
			continue
		}
		res.Notes = append(res.Notes, n)
		res.Highlights[n.ID] = models.Highlight{Title: titleHits, Content: contentHits}
	}
	return res
}

// matcher compiles term into a literal pattern honouring opts.
func matcher(term string, opts SearchOptions) *regexp.Regexp {
	pattern := regexp.QuoteMeta(term)
	if opts.WholeWords {
		pattern = `\b` + pattern + `\b`
	}
	if !opts.CaseSensitive {
		pattern = `(?i)` + pattern
	}
	return regexp.MustCompile(pattern)
}

// distinct drops repeated strings, keeping first occurrences.
func distinct(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
