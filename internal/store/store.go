// Package store owns the note and label collections. It implements the label
// and note repositories, notifies subscribers after every mutation and
// persists each collection under its own storage key.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/smartnotes/internal/apperr"
	"github.com/starford/smartnotes/internal/checksum"
	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/storage"
)

// EventKind names a repository change.
type EventKind string

const (
	NoteCreated   EventKind = "note.created"
	NoteUpdated   EventKind = "note.updated"
	NoteDeleted   EventKind = "note.deleted"
	LabelCreated  EventKind = "label.created"
	LabelUpdated  EventKind = "label.updated"
	LabelDeleted  EventKind = "label.deleted"
	StoreImported EventKind = "store.imported"
	StoreReloaded EventKind = "store.reloaded"
)

// Event describes one change. ID is the entity id, or the storage key for
// StoreReloaded.
type Event struct {
	Kind EventKind `json:"kind"`
	ID   string    `json:"id"`
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator overrides the id generator (uuid.NewString by default).
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

type subscriber struct {
	id int
	fn func(Event)
}

// Store is the single owner of the note and label collections.
//
// All access is serialised by mu, so callers on different goroutines observe
// the state produced by the last completed mutation. Subscribers are invoked
// after mu is released.
type Store struct {
	mu            sync.RWMutex
	notes         []models.Note
	labels        []models.Label
	currentNoteID string
	unsaved       bool
	sums          map[string]string // checksum of the last blob saved or loaded per key
	gens          map[string]uint64 // bumped on every mutation of a namespace
	failed        map[string]bool   // namespaces whose stored blob could not be loaded

	provider storage.Provider
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int
}

// New creates an empty store persisting through provider. A nil provider
// keeps the store in memory only.
func New(provider storage.Provider, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		notes:    []models.Note{},
		labels:   []models.Label{},
		sums:     make(map[string]string),
		gens:     make(map[string]uint64),
		failed:   make(map[string]bool),
		provider: provider,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to be called after every mutation and returns a
// function that removes it.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	s.subMu.Lock()
	subs := append([]subscriber(nil), s.subs...)
	s.subMu.Unlock()
	for _, ev := range events {
		for _, sub := range subs {
			sub.fn(ev)
		}
	}
}

// nowMillis returns the current time in epoch milliseconds.
func (s *Store) nowMillis() int64 {
	return models.Millis(s.now())
}

// freshIDLocked draws ids until one is not taken.
func (s *Store) freshIDLocked(taken func(string) bool) string {
	for {
		id := s.newID()
		if id != "" && !taken(id) {
			return id
		}
	}
}

type envelope[T any] struct {
	Version int `json:"version"`
	State   T   `json:"state"`
}

type notesState struct {
	Notes []models.Note `json:"notes"`
}

type labelsState struct {
	Labels []models.Label `json:"labels"`
}

// persistLocked saves one namespace. Failures are logged: repository
// operations never fail because of storage. A namespace whose stored blob
// failed to load is kept in memory only so the unreadable data is not
// overwritten.
func (s *Store) persistLocked(key string) {
	s.gens[key]++
	if s.provider == nil {
		return
	}
	if s.failed[key] {
		s.logger.Warn("store: save skipped, stored data could not be loaded", slog.String("key", key))
		return
	}
	var (
		data []byte
		err  error
	)
	switch key {
	case storage.KeyNotes:
		data, err = json.Marshal(envelope[notesState]{State: notesState{Notes: s.notes}})
	case storage.KeyLabels:
		data, err = json.Marshal(envelope[labelsState]{State: labelsState{Labels: s.labels}})
	default:
		return
	}
	if err != nil {
		s.logger.Warn("store: encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if err := s.provider.Save(context.Background(), key, data); err != nil {
		s.logger.Warn("store: save failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	s.sums[key] = checksum.Sum(data)
}

// Load reads both collections from storage. Each namespace is loaded
// independently: a missing key yields an empty collection and a corrupt one
// is reported without affecting the other. A namespace that fails to load is
// not saved again until a later Reload succeeds.
func (s *Store) Load(ctx context.Context) error {
	if s.provider == nil {
		return nil
	}
	var errs []error
	for _, key := range []string{storage.KeyNotes, storage.KeyLabels} {
		if _, err := s.reload(ctx, key, true); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reload re-reads one namespace after an external change. It is a no-op when
// the stored blob is the one this store last saved or loaded, or when the
// namespace was mutated while the blob was being read.
func (s *Store) Reload(ctx context.Context, key string) error {
	changed, err := s.reload(ctx, key, false)
	if err != nil {
		return err
	}
	if changed {
		s.emit(Event{Kind: StoreReloaded, ID: key})
	}
	return nil
}

func (s *Store) reload(ctx context.Context, key string, initial bool) (bool, error) {
	if s.provider == nil || (key != storage.KeyNotes && key != storage.KeyLabels) {
		return false, nil
	}
	s.mu.RLock()
	gen := s.gens[key]
	s.mu.RUnlock()

	data, err := s.provider.Load(ctx, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			delete(s.failed, key)
			return false, nil
		}
		if ctx.Err() == nil {
			s.failed[key] = true
		}
		return false, err
	}
	if s.gens[key] != gen {
		// The blob predates a mutation made while it was read.
		s.logger.Debug("store: stale reload discarded", slog.String("key", key))
		return false, nil
	}
	sum := checksum.Sum(data)
	if !initial && !s.failed[key] && s.sums[key] == sum {
		return false, nil
	}

	switch key {
	case storage.KeyNotes:
		var env envelope[notesState]
		if err := json.Unmarshal(data, &env); err != nil {
			s.failed[key] = true
			return false, fmt.Errorf("store: decode %s: %w", key, err)
		}
		s.notes = normalizeNotes(env.State.Notes)
		if s.currentNoteID != "" && s.indexOfNoteLocked(s.currentNoteID) < 0 {
			s.currentNoteID = ""
		}
	case storage.KeyLabels:
		var env envelope[labelsState]
		if err := json.Unmarshal(data, &env); err != nil {
			s.failed[key] = true
			return false, fmt.Errorf("store: decode %s: %w", key, err)
		}
		s.labels = env.State.Labels
		if s.labels == nil {
			s.labels = []models.Label{}
		}
	}
	s.sums[key] = sum
	delete(s.failed, key)
	s.logger.Debug("store: loaded", slog.String("key", key))
	return true, nil
}

func normalizeNotes(notes []models.Note) []models.Note {
	if notes == nil {
		return []models.Note{}
	}
	for i := range notes {
		if notes[i].LabelIDs == nil {
			notes[i].LabelIDs = []string{}
		}
	}
	return notes
}

// Snapshot returns copies of both collections taken under one lock.
func (s *Store) Snapshot() ([]models.Note, []models.Label) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNotes(s.notes), append([]models.Label{}, s.labels...)
}
