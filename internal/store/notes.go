package store

import (
	"github.com/starford/smartnotes/internal/apperr"
	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/storage"
)

// NoteUpdate holds the note fields to change; nil fields are left as is.
// The id and creation time of a note cannot be updated.
type NoteUpdate struct {
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	LabelIDs *[]string `json:"labelIds,omitempty"`
}

// CreateNote prepends a new empty note, makes it current and returns its id.
// An empty title falls back to models.DefaultTitle.
func (s *Store) CreateNote(title string) string {
	if title == "" {
		title = models.DefaultTitle
	}

	s.mu.Lock()
	id := s.freshIDLocked(func(id string) bool { return s.indexOfNoteLocked(id) >= 0 })
	now := s.nowMillis()
	note := models.Note{
		ID:        id,
		Title:     title,
		Content:   "",
		CreatedAt: now,
		UpdatedAt: now,
		LabelIDs:  []string{},
	}
	s.notes = append([]models.Note{note}, s.notes...)
	s.currentNoteID = id
	s.unsaved = false
	s.persistLocked(storage.KeyNotes)
	s.mu.Unlock()

	s.emit(Event{Kind: NoteCreated, ID: id})
	return id
}

// UpdateNote merges upd into the note with the given id and stamps
// UpdatedAt, even when upd changes nothing. UpdatedAt never moves backwards.
// Unknown ids are ignored. The unsaved-changes flag is cleared either way.
func (s *Store) UpdateNote(id string, upd NoteUpdate) {
	s.mu.Lock()
	s.unsaved = false
	i := s.indexOfNoteLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.applyLocked(i, upd)
	s.mu.Unlock()

	s.emit(Event{Kind: NoteUpdated, ID: id})
}

// UpdateNoteIf is UpdateNote guarded by a precondition evaluated on the
// current note under the same lock. It returns apperr.ErrNotFound for an
// unknown id and apperr.ErrConflict when match rejects the note.
func (s *Store) UpdateNoteIf(id string, upd NoteUpdate, match func(models.Note) bool) (models.Note, error) {
	s.mu.Lock()
	i := s.indexOfNoteLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return models.Note{}, apperr.ErrNotFound
	}
	if !match(s.notes[i].Clone()) {
		s.mu.Unlock()
		return models.Note{}, apperr.ErrConflict
	}
	s.unsaved = false
	s.applyLocked(i, upd)
	out := s.notes[i].Clone()
	s.mu.Unlock()

	s.emit(Event{Kind: NoteUpdated, ID: id})
	return out, nil
}

func (s *Store) applyLocked(i int, upd NoteUpdate) {
	n := &s.notes[i]
	if upd.Title != nil {
		n.Title = *upd.Title
	}
	if upd.Content != nil {
		n.Content = *upd.Content
	}
	if upd.LabelIDs != nil {
		n.LabelIDs = dedupe(*upd.LabelIDs)
	}
	n.UpdatedAt = max(s.nowMillis(), n.UpdatedAt)
	s.persistLocked(storage.KeyNotes)
}

// AddLabelToNote attaches labelID to the note if it is not attached yet.
func (s *Store) AddLabelToNote(noteID, labelID string) {
	n, ok := s.GetNoteByID(noteID)
	if !ok || n.HasLabel(labelID) {
		return
	}
	ids := append(n.LabelIDs, labelID)
	s.UpdateNote(noteID, NoteUpdate{LabelIDs: &ids})
}

// RemoveLabelFromNote detaches labelID from the note if attached.
func (s *Store) RemoveLabelFromNote(noteID, labelID string) {
	n, ok := s.GetNoteByID(noteID)
	if !ok || !n.HasLabel(labelID) {
		return
	}
	ids := make([]string, 0, len(n.LabelIDs))
	for _, id := range n.LabelIDs {
		if id != labelID {
			ids = append(ids, id)
		}
	}
	s.UpdateNote(noteID, NoteUpdate{LabelIDs: &ids})
}

// DeleteNote removes the note with the given id and clears the current
// selection if it pointed at it.
func (s *Store) DeleteNote(id string) {
	s.DeleteNotes([]string{id})
}

// DeleteNotes removes every listed note in a single collection update and
// returns how many were removed.
func (s *Store) DeleteNotes(ids []string) int {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	kept := make([]models.Note, 0, len(s.notes))
	var events []Event
	for _, n := range s.notes {
		if _, ok := drop[n.ID]; ok {
			events = append(events, Event{Kind: NoteDeleted, ID: n.ID})
			continue
		}
		kept = append(kept, n)
	}
	if len(events) == 0 {
		s.mu.Unlock()
		return 0
	}
	s.notes = kept
	if _, ok := drop[s.currentNoteID]; ok {
		s.currentNoteID = ""
	}
	s.unsaved = false
	s.persistLocked(storage.KeyNotes)
	s.mu.Unlock()

	s.emit(events...)
	return len(events)
}

// DuplicateNote prepends a copy of the note titled "<title> (Copy)" with a
// new id and fresh timestamps. It returns "" when the source does not exist.
func (s *Store) DuplicateNote(id string) string {
	s.mu.Lock()
	i := s.indexOfNoteLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return ""
	}
	dup := s.notes[i].Clone()
	dup.ID = s.freshIDLocked(func(id string) bool { return s.indexOfNoteLocked(id) >= 0 })
	dup.Title = dup.Title + " (Copy)"
	now := s.nowMillis()
	dup.CreatedAt = now
	dup.UpdatedAt = now
	s.notes = append([]models.Note{dup}, s.notes...)
	s.persistLocked(storage.KeyNotes)
	s.mu.Unlock()

	s.emit(Event{Kind: NoteCreated, ID: dup.ID})
	return dup.ID
}

// GetNoteByID returns a copy of the note with the given id.
func (s *Store) GetNoteByID(id string) (models.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOfNoteLocked(id); i >= 0 {
		return s.notes[i].Clone(), true
	}
	return models.Note{}, false
}

// GetNotesWithLabels returns the notes carrying at least one of labelIDs.
// An empty labelIDs means no filter: every note is returned.
func (s *Store) GetNotesWithLabels(labelIDs []string) []models.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(labelIDs) == 0 {
		return cloneNotes(s.notes)
	}
	out := make([]models.Note, 0)
	for _, n := range s.notes {
		for _, id := range labelIDs {
			if n.HasLabel(id) {
				out = append(out, n.Clone())
				break
			}
		}
	}
	return out
}

// Notes returns every note in collection order (most recently created first).
func (s *Store) Notes() []models.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNotes(s.notes)
}

// CurrentNoteID returns the selected note id, or "" when none is selected.
func (s *Store) CurrentNoteID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentNoteID
}

// SetCurrentNote selects a note. "" clears the selection; unknown ids are
// ignored.
func (s *Store) SetCurrentNote(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.indexOfNoteLocked(id) < 0 {
		return
	}
	s.currentNoteID = id
}

// HasUnsavedChanges reports whether an edit is waiting to be committed.
func (s *Store) HasUnsavedChanges() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unsaved
}

// SetUnsavedChanges sets the unsaved-changes flag.
func (s *Store) SetUnsavedChanges(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsaved = v
}

func (s *Store) indexOfNoteLocked(id string) int {
	for i := range s.notes {
		if s.notes[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneNotes(notes []models.Note) []models.Note {
	out := make([]models.Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out
}

// dedupe keeps the first occurrence of every id.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
