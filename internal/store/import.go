package store

import (
	"fmt"

	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/storage"
)

// ImportMode selects how imported entities are combined with existing ones.
type ImportMode string

const (
	// ImportMerge adds entities whose ids are not present and keeps the rest.
	ImportMerge ImportMode = "merge"
	// ImportReplace discards both collections before adding the import.
	ImportReplace ImportMode = "replace"
)

// ParseImportMode parses s, defaulting to ImportMerge when empty.
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(s) {
	case "", ImportMerge:
		return ImportMerge, nil
	case ImportReplace:
		return ImportReplace, nil
	default:
		return "", fmt.Errorf("store: unknown import mode %q", s)
	}
}

// ImportResult counts the entities that were added.
type ImportResult struct {
	NotesAdded  int `json:"notesAdded"`
	LabelsAdded int `json:"labelsAdded"`
}

// Import applies decoded backup data in one update of both collections.
// Imported notes keep their ids and timestamps.
func (s *Store) Import(notes []models.Note, labels []models.Label, mode ImportMode) ImportResult {
	var res ImportResult

	s.mu.Lock()
	if mode == ImportReplace {
		s.notes = []models.Note{}
		s.labels = []models.Label{}
		s.currentNoteID = ""
	}
	for _, l := range labels {
		if s.indexOfLabelLocked(l.ID) >= 0 {
			continue
		}
		s.labels = append(s.labels, l)
		res.LabelsAdded++
	}
	for _, n := range notes {
		if s.indexOfNoteLocked(n.ID) >= 0 {
			continue
		}
		n = n.Clone()
		n.LabelIDs = dedupe(n.LabelIDs)
		s.notes = append(s.notes, n)
		res.NotesAdded++
	}
	s.persistLocked(storage.KeyNotes)
	s.persistLocked(storage.KeyLabels)
	s.mu.Unlock()

	s.emit(Event{Kind: StoreImported})
	return res
}
