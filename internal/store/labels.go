package store

import (
	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/storage"
)

// LabelUpdate holds the label fields to change; nil fields are left as is.
type LabelUpdate struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// CreateLabel appends a new label and returns its id.
func (s *Store) CreateLabel(name, color string) string {
	s.mu.Lock()
	id := s.freshIDLocked(func(id string) bool { return s.indexOfLabelLocked(id) >= 0 })
	s.labels = append(s.labels, models.Label{
		ID:        id,
		Name:      name,
		Color:     color,
		CreatedAt: s.nowMillis(),
	})
	s.persistLocked(storage.KeyLabels)
	s.mu.Unlock()

	s.emit(Event{Kind: LabelCreated, ID: id})
	return id
}

// UpdateLabel merges upd into the label with the given id. Unknown ids are
// ignored.
func (s *Store) UpdateLabel(id string, upd LabelUpdate) {
	s.mu.Lock()
	i := s.indexOfLabelLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	if upd.Name != nil {
		s.labels[i].Name = *upd.Name
	}
	if upd.Color != nil {
		s.labels[i].Color = *upd.Color
	}
	s.persistLocked(storage.KeyLabels)
	s.mu.Unlock()

	s.emit(Event{Kind: LabelUpdated, ID: id})
}

// DeleteLabel removes the label with the given id. Notes keep referencing
// the id; lookups simply stop resolving it.
func (s *Store) DeleteLabel(id string) {
	s.mu.Lock()
	i := s.indexOfLabelLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.labels = append(s.labels[:i:i], s.labels[i+1:]...)
	s.persistLocked(storage.KeyLabels)
	s.mu.Unlock()

	s.emit(Event{Kind: LabelDeleted, ID: id})
}

// GetLabelByID returns the label with the given id.
func (s *Store) GetLabelByID(id string) (models.Label, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOfLabelLocked(id); i >= 0 {
		return s.labels[i], true
	}
	return models.Label{}, false
}

// GetLabelsByIDs resolves ids in input order, dropping ids without a label.
func (s *Store) GetLabelsByIDs(ids []string) []models.Label {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Label, 0, len(ids))
	for _, id := range ids {
		if i := s.indexOfLabelLocked(id); i >= 0 {
			out = append(out, s.labels[i])
		}
	}
	return out
}

// Labels returns every label in insertion order.
func (s *Store) Labels() []models.Label {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Label{}, s.labels...)
}

func (s *Store) indexOfLabelLocked(id string) int {
	for i := range s.labels {
		if s.labels[i].ID == id {
			return i
		}
	}
	return -1
}
