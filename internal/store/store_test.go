package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/smartnotes/internal/apperr"
	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/storage"
	"github.com/starford/smartnotes/internal/testutil"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 12, 9, 0, 0, 0, time.UTC)}
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *fakeClock) {
	t.Helper()
	clock := newClock()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(nil, nil, opts...), clock
}

func ptr[T any](v T) *T { return &v }

func TestCreateNote_Defaults(t *testing.T) {
	s, clock := newTestStore(t)

	first := s.CreateNote("")
	clock.Advance(time.Second)
	second := s.CreateNote("Plan")

	notes := s.Notes()
	require.Len(t, notes, 2)
	assert.Equal(t, second, notes[0].ID, "newest note is first")
	assert.Equal(t, first, notes[1].ID)
	assert.Equal(t, models.DefaultTitle, notes[1].Title)
	assert.Equal(t, "Plan", notes[0].Title)
	assert.Equal(t, "", notes[0].Content)
	assert.Equal(t, []string{}, notes[0].LabelIDs)
	assert.Equal(t, notes[0].CreatedAt, notes[0].UpdatedAt)
	assert.Equal(t, second, s.CurrentNoteID())
}

func TestIDUniqueness_CollidingGenerator(t *testing.T) {
	seq := []string{"a", "a", "b", "b", "a", "c", "d"}
	i := 0
	gen := func() string {
		id := seq[i%len(seq)]
		i++
		return id
	}
	s, _ := newTestStore(t, WithIDGenerator(gen))

	n1 := s.CreateNote("one")
	n2 := s.CreateNote("two")
	n3 := s.DuplicateNote(n1)
	assert.NotEqual(t, n1, n2)
	assert.NotEqual(t, n2, n3)
	assert.NotEqual(t, n1, n3)

	l1 := s.CreateLabel("x", "#000000")
	l2 := s.CreateLabel("y", "#000000")
	assert.NotEqual(t, l1, l2)
}

func TestIDUniqueness_ManyCreates(t *testing.T) {
	s, _ := newTestStore(t)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := s.CreateNote(fmt.Sprintf("n%d", i))
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestUpdateNote_AlwaysStampsUpdatedAt(t *testing.T) {
	s, clock := newTestStore(t)
	id := s.CreateNote("Plan")
	before, _ := s.GetNoteByID(id)

	clock.Advance(time.Minute)
	s.UpdateNote(id, NoteUpdate{})

	after, _ := s.GetNoteByID(id)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.Greater(t, after.UpdatedAt, before.UpdatedAt)
	assert.Equal(t, before.Title, after.Title)
}

func TestUpdateNote_MergesFields(t *testing.T) {
	s, clock := newTestStore(t)
	id := s.CreateNote("Plan")
	clock.Advance(time.Second)

	s.UpdateNote(id, NoteUpdate{Content: ptr("<p>Ship the release</p>")})
	s.UpdateNote(id, NoteUpdate{LabelIDs: &[]string{"l1", "l2", "l1"}})

	n, ok := s.GetNoteByID(id)
	require.True(t, ok)
	assert.Equal(t, "Plan", n.Title)
	assert.Equal(t, "<p>Ship the release</p>", n.Content)
	assert.Equal(t, []string{"l1", "l2"}, n.LabelIDs)
}

func TestUpdateNote_NeverMovesBackwards(t *testing.T) {
	s, clock := newTestStore(t)
	id := s.CreateNote("Plan")
	before, _ := s.GetNoteByID(id)

	clock.Advance(-time.Hour)
	s.UpdateNote(id, NoteUpdate{Title: ptr("Plan B")})

	after, _ := s.GetNoteByID(id)
	assert.GreaterOrEqual(t, after.UpdatedAt, before.UpdatedAt)
	assert.GreaterOrEqual(t, after.UpdatedAt, after.CreatedAt)
}

func TestUpdateNote_UnknownIDIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.CreateNote("Plan")
	var events []Event
	s.Subscribe(func(e Event) { events = append(events, e) })

	s.UpdateNote("missing", NoteUpdate{Title: ptr("x")})

	n, _ := s.GetNoteByID(id)
	assert.Equal(t, "Plan", n.Title)
	assert.Empty(t, events)
}

func TestUpdateNote_ClearsUnsavedFlag(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.CreateNote("Plan")
	s.SetUnsavedChanges(true)
	require.True(t, s.HasUnsavedChanges())

	s.UpdateNote(id, NoteUpdate{Content: ptr("x")})
	assert.False(t, s.HasUnsavedChanges())
}

func TestUpdateNoteIf(t *testing.T) {
	s, clock := newTestStore(t)
	id := s.CreateNote("Plan")
	s.SetUnsavedChanges(true)

	_, err := s.UpdateNoteIf(id, NoteUpdate{Title: ptr("Nope")}, func(models.Note) bool { return false })
	assert.ErrorIs(t, err, apperr.ErrConflict)
	n, _ := s.GetNoteByID(id)
	assert.Equal(t, "Plan", n.Title)
	assert.True(t, s.HasUnsavedChanges(), "rejected update leaves the flag")

	_, err = s.UpdateNoteIf("missing", NoteUpdate{}, func(models.Note) bool { return true })
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	clock.Advance(time.Minute)
	got, err := s.UpdateNoteIf(id, NoteUpdate{Title: ptr("Done")}, func(n models.Note) bool { return n.Title == "Plan" })
	require.NoError(t, err)
	assert.Equal(t, "Done", got.Title)
	assert.Equal(t, models.Millis(clock.Now()), got.UpdatedAt)
	assert.False(t, s.HasUnsavedChanges())
}

func TestDeleteNote_ClearsCurrent(t *testing.T) {
	s, _ := newTestStore(t)
	keep := s.CreateNote("keep")
	gone := s.CreateNote("gone")
	require.Equal(t, gone, s.CurrentNoteID())

	s.DeleteNote(gone)
	_, ok := s.GetNoteByID(gone)
	assert.False(t, ok)
	assert.Equal(t, "", s.CurrentNoteID())

	s.SetCurrentNote(keep)
	s.DeleteNote("missing")
	assert.Equal(t, keep, s.CurrentNoteID())
	assert.Len(t, s.Notes(), 1)
}

func TestDeleteNotes_Bulk(t *testing.T) {
	s, _ := newTestStore(t)
	a := s.CreateNote("a")
	b := s.CreateNote("b")
	c := s.CreateNote("c")
	var events []Event
	s.Subscribe(func(e Event) { events = append(events, e) })

	removed := s.DeleteNotes([]string{a, c, "missing"})
	assert.Equal(t, 2, removed)
	notes := s.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, b, notes[0].ID)
	assert.Equal(t, "", s.CurrentNoteID(), "c was current")
	assert.Len(t, events, 2)
}

func TestDuplicateNote(t *testing.T) {
	s, clock := newTestStore(t)
	id := s.CreateNote("Plan")
	s.UpdateNote(id, NoteUpdate{Content: ptr("<p>body</p>"), LabelIDs: &[]string{"l1"}})
	orig, _ := s.GetNoteByID(id)

	clock.Advance(time.Hour)
	dupID := s.DuplicateNote(id)
	require.NotEmpty(t, dupID)
	assert.NotEqual(t, id, dupID)

	dup, ok := s.GetNoteByID(dupID)
	require.True(t, ok)
	assert.Equal(t, "Plan (Copy)", dup.Title)
	assert.Equal(t, orig.Content, dup.Content)
	assert.Equal(t, orig.LabelIDs, dup.LabelIDs)
	assert.Equal(t, models.Millis(clock.Now()), dup.CreatedAt)
	assert.Equal(t, dup.CreatedAt, dup.UpdatedAt)
	assert.Equal(t, dupID, s.Notes()[0].ID, "duplicate is inserted first")

	// The copy shares no label slice with the original.
	s.RemoveLabelFromNote(dupID, "l1")
	orig2, _ := s.GetNoteByID(id)
	assert.Equal(t, []string{"l1"}, orig2.LabelIDs)
}

func TestDuplicateNote_Missing(t *testing.T) {
	s, _ := newTestStore(t)
	s.CreateNote("only")
	before := s.Notes()

	assert.Equal(t, "", s.DuplicateNote("nonexistent"))
	assert.Equal(t, before, s.Notes())
}

func TestGetNotesWithLabels(t *testing.T) {
	s, _ := newTestStore(t)
	a := s.CreateNote("a")
	b := s.CreateNote("b")
	s.CreateNote("c")
	s.AddLabelToNote(a, "work")
	s.AddLabelToNote(b, "home")

	assert.Len(t, s.GetNotesWithLabels(nil), 3, "empty filter returns everything")
	assert.Len(t, s.GetNotesWithLabels([]string{}), 3)
	assert.Empty(t, s.GetNotesWithLabels([]string{"X"}))

	got := s.GetNotesWithLabels([]string{"work", "home"})
	require.Len(t, got, 2, "OR semantics")
	assert.Equal(t, b, got[0].ID)
	assert.Equal(t, a, got[1].ID)
}

func TestAddLabelToNote_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.CreateNote("a")
	s.AddLabelToNote(id, "l1")
	s.AddLabelToNote(id, "l1")
	n, _ := s.GetNoteByID(id)
	assert.Equal(t, []string{"l1"}, n.LabelIDs)
}

func TestReadsReturnCopies(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.CreateNote("a")
	s.AddLabelToNote(id, "l1")

	n, _ := s.GetNoteByID(id)
	n.LabelIDs[0] = "mutated"
	n.Title = "mutated"

	again, _ := s.GetNoteByID(id)
	assert.Equal(t, "a", again.Title)
	assert.Equal(t, []string{"l1"}, again.LabelIDs)
}

func TestLabels_CRUD(t *testing.T) {
	s, clock := newTestStore(t)
	work := s.CreateLabel("Work", "#3b82f6")
	home := s.CreateLabel("Home", "#22c55e")

	labels := s.Labels()
	require.Len(t, labels, 2)
	assert.Equal(t, work, labels[0].ID, "insertion order")
	assert.Equal(t, models.Millis(clock.Now()), labels[0].CreatedAt)

	s.UpdateLabel(work, LabelUpdate{Color: ptr("#ef4444")})
	l, ok := s.GetLabelByID(work)
	require.True(t, ok)
	assert.Equal(t, "Work", l.Name)
	assert.Equal(t, "#ef4444", l.Color)

	s.UpdateLabel("missing", LabelUpdate{Name: ptr("x")})
	s.DeleteLabel("missing")
	assert.Len(t, s.Labels(), 2)

	s.DeleteLabel(home)
	_, ok = s.GetLabelByID(home)
	assert.False(t, ok)
}

func TestGetLabelsByIDs_OrderAndStaleIDs(t *testing.T) {
	s, _ := newTestStore(t)
	a := s.CreateLabel("A", "#000000")
	b := s.CreateLabel("B", "#000000")

	got := s.GetLabelsByIDs([]string{b, "stale", a})
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Name)
	assert.Equal(t, "A", got[1].Name)
}

func TestDeleteLabel_DoesNotCascade(t *testing.T) {
	s, _ := newTestStore(t)
	l := s.CreateLabel("Work", "#3b82f6")
	n := s.CreateNote("Plan")
	s.AddLabelToNote(n, l)

	s.DeleteLabel(l)

	note, _ := s.GetNoteByID(n)
	assert.Equal(t, []string{l}, note.LabelIDs)
	assert.Empty(t, s.GetLabelsByIDs(note.LabelIDs))
}

func TestSubscribe_EventsAndCancel(t *testing.T) {
	s, _ := newTestStore(t)
	var got []Event
	cancel := s.Subscribe(func(e Event) {
		// Reads inside a listener observe the new state.
		if e.Kind == NoteCreated {
			_, ok := s.GetNoteByID(e.ID)
			assert.True(t, ok)
		}
		got = append(got, e)
	})

	id := s.CreateNote("a")
	s.UpdateNote(id, NoteUpdate{})
	l := s.CreateLabel("x", "#000000")
	cancel()
	s.DeleteNote(id)

	assert.Equal(t, []Event{
		{Kind: NoteCreated, ID: id},
		{Kind: NoteUpdated, ID: id},
		{Kind: LabelCreated, ID: l},
	}, got)
}

func TestSetCurrentNote(t *testing.T) {
	s, _ := newTestStore(t)
	a := s.CreateNote("a")
	s.CreateNote("b")

	s.SetCurrentNote(a)
	assert.Equal(t, a, s.CurrentNoteID())
	s.SetCurrentNote("missing")
	assert.Equal(t, a, s.CurrentNoteID())
	s.SetCurrentNote("")
	assert.Equal(t, "", s.CurrentNoteID())
}

func TestImport_MergeAndReplace(t *testing.T) {
	s, _ := newTestStore(t)
	existing := s.CreateNote("existing")
	s.CreateLabel("Work", "#3b82f6")

	incoming := []models.Note{
		{ID: existing, Title: "clash", LabelIDs: []string{}},
		{ID: "imported", Title: "new", CreatedAt: 1, UpdatedAt: 2, LabelIDs: []string{"l9"}},
	}
	labels := []models.Label{{ID: "l9", Name: "Imported", Color: "#000000", CreatedAt: 1}}

	res := s.Import(incoming, labels, ImportMerge)
	assert.Equal(t, ImportResult{NotesAdded: 1, LabelsAdded: 1}, res)
	n, _ := s.GetNoteByID(existing)
	assert.Equal(t, "existing", n.Title, "merge keeps existing entities")
	imp, ok := s.GetNoteByID("imported")
	require.True(t, ok)
	assert.Equal(t, int64(1), imp.CreatedAt)
	assert.Len(t, s.Labels(), 2)

	res = s.Import(incoming[1:], labels, ImportReplace)
	assert.Equal(t, ImportResult{NotesAdded: 1, LabelsAdded: 1}, res)
	assert.Len(t, s.Notes(), 1)
	assert.Len(t, s.Labels(), 1)
	assert.Equal(t, "", s.CurrentNoteID())
}

func TestParseImportMode(t *testing.T) {
	m, err := ParseImportMode("")
	require.NoError(t, err)
	assert.Equal(t, ImportMerge, m)
	m, err = ParseImportMode("replace")
	require.NoError(t, err)
	assert.Equal(t, ImportReplace, m)
	_, err = ParseImportMode("upsert")
	assert.Error(t, err)
}

func newFSStore(t *testing.T, dir string) *Store {
	t.Helper()
	fs, err := storage.NewFS(dir)
	require.NoError(t, err)
	return New(fs, nil, WithClock(newClock().Now))
}

func TestPersistence_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := newFSStore(t, dir)
	l := s.CreateLabel("Work", "#3b82f6")
	n := s.CreateNote("Plan")
	s.UpdateNote(n, NoteUpdate{Content: ptr("<p>x</p>"), LabelIDs: &[]string{l}})

	reopened := newFSStore(t, dir)
	require.NoError(t, reopened.Load(context.Background()))
	assert.Equal(t, s.Notes(), reopened.Notes())
	assert.Equal(t, s.Labels(), reopened.Labels())
}

func TestPersistence_SQLite(t *testing.T) {
	db := testutil.TestSQLite(t)
	s := New(db, nil)
	l := s.CreateLabel("Home", "#22c55e")
	n := s.CreateNote("Groceries")
	s.AddLabelToNote(n, l)

	reopened := New(db, nil)
	require.NoError(t, reopened.Load(context.Background()))
	assert.Equal(t, s.Notes(), reopened.Notes())
	assert.Equal(t, s.Labels(), reopened.Labels())

	keys, err := db.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{storage.KeyLabels, storage.KeyNotes}, keys)
}

func TestPersistence_NamespacesIndependent(t *testing.T) {
	dir := t.TempDir()
	s := newFSStore(t, dir)
	s.CreateLabel("Work", "#3b82f6")
	s.CreateNote("Plan")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "labels.json"), []byte("{corrupt"), 0o644))

	reopened := newFSStore(t, dir)
	err := reopened.Load(context.Background())
	assert.Error(t, err)
	assert.Len(t, reopened.Notes(), 1, "notes load despite corrupt labels")
	assert.Empty(t, reopened.Labels())
}

func TestPersistence_EmptyDirectory(t *testing.T) {
	s := newFSStore(t, t.TempDir())
	require.NoError(t, s.Load(context.Background()))
	assert.Empty(t, s.Notes())
	assert.Empty(t, s.Labels())
}

func TestReload_IgnoresOwnWritesAndAppliesExternal(t *testing.T) {
	dir := t.TempDir()
	s := newFSStore(t, dir)
	s.CreateNote("mine")
	var events []Event
	s.Subscribe(func(e Event) { events = append(events, e) })

	require.NoError(t, s.Reload(context.Background(), storage.KeyNotes))
	assert.Empty(t, events, "own write is not reloaded")

	other := newFSStore(t, dir)
	require.NoError(t, other.Load(context.Background()))
	other.CreateNote("theirs")

	require.NoError(t, s.Reload(context.Background(), storage.KeyNotes))
	assert.Equal(t, []Event{{Kind: StoreReloaded, ID: storage.KeyNotes}}, events)
	assert.Len(t, s.Notes(), 2)

	require.NoError(t, s.Reload(context.Background(), storage.KeyPreferences))
}

// hookedProvider runs afterLoad once the stored bytes have been read.
type hookedProvider struct {
	storage.Provider
	afterLoad func()
}

func (p *hookedProvider) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := p.Provider.Load(ctx, key)
	if p.afterLoad != nil {
		hook := p.afterLoad
		p.afterLoad = nil
		hook()
	}
	return data, err
}

func TestReload_KeepsMutationMadeDuringRead(t *testing.T) {
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	require.NoError(t, err)
	provider := &hookedProvider{Provider: fs}
	s := New(provider, nil, WithClock(newClock().Now))
	s.CreateNote("A")

	other := newFSStore(t, dir)
	require.NoError(t, other.Load(context.Background()))
	other.CreateNote("external")

	var created string
	provider.afterLoad = func() { created = s.CreateNote("B") }
	require.NoError(t, s.Reload(context.Background(), storage.KeyNotes))

	_, ok := s.GetNoteByID(created)
	assert.True(t, ok, "note created while the blob was read survives the reload")

	reopened := newFSStore(t, dir)
	require.NoError(t, reopened.Load(context.Background()))
	_, ok = reopened.GetNoteByID(created)
	assert.True(t, ok, "note created while the blob was read is persisted")
}

func TestLoad_CorruptNamespaceIsNotOverwritten(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.json")
	corrupt := []byte(`{"version":0,"state":{"notes":[`)
	require.NoError(t, os.WriteFile(path, corrupt, 0o644))

	s := newFSStore(t, dir)
	require.Error(t, s.Load(context.Background()))

	id := s.CreateNote("in memory")
	_, ok := s.GetNoteByID(id)
	assert.True(t, ok)
	s.CreateLabel("Work", "#3b82f6")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, corrupt, data, "unreadable notes are left on disk")
	_, err = os.Stat(filepath.Join(dir, "labels.json"))
	assert.NoError(t, err, "healthy namespaces still persist")

	require.NoError(t, os.Remove(path))
	require.NoError(t, s.Reload(context.Background(), storage.KeyNotes))
	s.CreateNote("after repair")
	_, err = os.Stat(path)
	assert.NoError(t, err, "saving resumes once the namespace is readable")
}
