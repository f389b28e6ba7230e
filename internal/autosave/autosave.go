// Package autosave debounces note edits into repository updates. Edits are
// committed on the trailing edge of a quiet period.
package autosave

import (
	"log/slog"
	"sync"
	"time"

	"github.com/starford/smartnotes/internal/store"
)

// DefaultDelay is the quiet period used when none is configured.
const DefaultDelay = 500 * time.Millisecond

// Target receives committed drafts. *store.Store satisfies it.
type Target interface {
	UpdateNote(id string, upd store.NoteUpdate)
	SetUnsavedChanges(v bool)
}

// Draft is a pending edit. Nil fields are left unchanged on commit.
type Draft struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type pending struct {
	noteID string
	draft  Draft
}

// Saver coalesces edits per note. It is safe for concurrent use.
type Saver struct {
	target Target
	delay  time.Duration
	logger *slog.Logger

	mu    sync.Mutex
	cur   *pending
	timer *time.Timer
	gen   uint64
}

// New creates a Saver committing to target after delay without edits.
func New(target Target, delay time.Duration, logger *slog.Logger) *Saver {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Saver{target: target, delay: delay, logger: logger}
}

// Edit records a draft for noteID and restarts the quiet period. A pending
// draft for another note is committed first.
func (s *Saver) Edit(noteID string, d Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur != nil && s.cur.noteID != noteID {
		s.commit(s.takeLocked())
	}
	if s.cur == nil {
		s.cur = &pending{noteID: noteID}
	}
	if d.Title != nil {
		s.cur.draft.Title = d.Title
	}
	if d.Content != nil {
		s.cur.draft.Content = d.Content
	}
	s.target.SetUnsavedChanges(true)

	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen) })
}

func (s *Saver) fire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.cur == nil {
		return
	}
	s.commit(s.takeLocked())
}

// takeLocked detaches the pending draft and stops its timer.
func (s *Saver) takeLocked() *pending {
	p := s.cur
	s.cur = nil
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	return p
}

// commit is called with mu held so that a concurrent edit cannot observe the
// unsaved flag cleared by UpdateNote.
func (s *Saver) commit(p *pending) {
	s.target.UpdateNote(p.noteID, store.NoteUpdate{Title: p.draft.Title, Content: p.draft.Content})
	s.logger.Debug("autosave: committed", slog.String("note_id", p.noteID))
}

// Flush commits the pending draft immediately. It reports whether there was
// one.
func (s *Saver) Flush() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return false
	}
	s.commit(s.takeLocked())
	return true
}

// Cancel drops the pending draft and clears the unsaved flag.
func (s *Saver) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return
	}
	s.takeLocked()
	s.target.SetUnsavedChanges(false)
}

// Pending reports whether a draft is waiting to be committed.
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil
}

// PendingNoteID returns the note the pending draft belongs to, or "".
func (s *Saver) PendingNoteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return ""
	}
	return s.cur.noteID
}
