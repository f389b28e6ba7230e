package query

import (
	"math"
	"slices"
	"time"

	"github.com/starford/smartnotes/internal/markup"
	"github.com/starford/smartnotes/internal/models"
)

const recentWindow = 7 * 24 * time.Hour

// LabelStat is a label with the number of notes carrying it.
type LabelStat struct {
	models.Label
	NoteCount int `json:"noteCount"`
}

// Stats summarises the note collection.
type Stats struct {
	TotalNotes          int         `json:"totalNotes"`
	TotalWords          int         `json:"totalWords"`
	NotesWithLabels     int         `json:"notesWithLabels"`
	NotesWithoutLabels  int         `json:"notesWithoutLabels"`
	LabelStats          []LabelStat `json:"labelStats"`
	RecentNotes         int         `json:"recentNotes"`
	AverageWordsPerNote int         `json:"averageWordsPerNote"`
}

// Stats computes collection statistics relative to now.
func (e *Engine) Stats(now time.Time) Stats {
	notes, labels := e.src.Snapshot()
	return ComputeStats(notes, labels, now)
}

// ComputeStats is Stats over explicit collections. RecentNotes counts notes
// updated within the seven days before now.
func ComputeStats(notes []models.Note, labels []models.Label, now time.Time) Stats {
	st := Stats{TotalNotes: len(notes), LabelStats: make([]LabelStat, 0, len(labels))}

	cutoff := models.Millis(now.Add(-recentWindow))
	for _, n := range notes {
		st.TotalWords += markup.WordCount(n.Content)
		if len(n.LabelIDs) > 0 {
			st.NotesWithLabels++
		} else {
			st.NotesWithoutLabels++
		}
		if n.UpdatedAt > cutoff {
			st.RecentNotes++
		}
	}
	if st.TotalNotes > 0 {
		st.AverageWordsPerNote = int(math.Round(float64(st.TotalWords) / float64(st.TotalNotes)))
	}

	for _, l := range labels {
		count := 0
		for _, n := range notes {
			if n.HasLabel(l.ID) {
				count++
			}
		}
		st.LabelStats = append(st.LabelStats, LabelStat{Label: l, NoteCount: count})
	}
	slices.SortStableFunc(st.LabelStats, func(a, b LabelStat) int {
		return b.NoteCount - a.NoteCount
	})
	return st
}
