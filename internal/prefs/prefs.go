// Package prefs holds the user's view preferences and search history. Only
// the durable subset is persisted, under its own storage key.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/starford/smartnotes/internal/apperr"
	"github.com/starford/smartnotes/internal/checksum"
	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/query"
	"github.com/starford/smartnotes/internal/storage"
)

const (
	maxHistory = 10
	maxRecent  = 5
)

// Theme is the colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// State is the full preference state.
type State struct {
	Theme              Theme                `json:"theme"`
	SidebarCollapsed   bool                 `json:"sidebarCollapsed"`
	SearchQuery        string               `json:"searchQuery"`
	SelectedLabelIDs   []string             `json:"selectedLabelIds"`
	SortBy             query.SortField      `json:"sortBy"`
	SortOrder          query.SortOrder      `json:"sortOrder"`
	SearchHistory      []string             `json:"searchHistory"`
	RecentSearches     []string             `json:"recentSearches"`
	SearchFilters      models.SearchFilters `json:"searchFilters"`
	AdvancedSearchOpen bool                 `json:"advancedSearchOpen"`
}

func defaultState() State {
	return State{
		Theme:            ThemeLight,
		SelectedLabelIDs: []string{},
		SortBy:           query.SortUpdated,
		SortOrder:        query.Desc,
		SearchHistory:    []string{},
		RecentSearches:   []string{},
		SearchFilters:    models.DefaultSearchFilters(),
	}
}

func (s State) clone() State {
	out := s
	out.SelectedLabelIDs = slices.Clone(s.SelectedLabelIDs)
	out.SearchHistory = slices.Clone(s.SearchHistory)
	out.RecentSearches = slices.Clone(s.RecentSearches)
	return out
}

// persisted is the durable subset of State.
type persisted struct {
	Theme            Theme           `json:"theme"`
	SidebarCollapsed bool            `json:"sidebarCollapsed"`
	SortBy           query.SortField `json:"sortBy"`
	SortOrder        query.SortOrder `json:"sortOrder"`
	SearchHistory    []string        `json:"searchHistory"`
	RecentSearches   []string        `json:"recentSearches"`
}

type envelope struct {
	Version int       `json:"version"`
	State   persisted `json:"state"`
}

// Prefs guards the preference state. It is safe for concurrent use.
type Prefs struct {
	mu       sync.Mutex
	st       State
	sum      string
	gen      uint64 // bumped on every durable change
	failed   bool   // stored blob could not be loaded; saves are suspended
	provider storage.Provider
	logger   *slog.Logger
}

// New creates preferences with default values. A nil provider keeps them in
// memory only.
func New(provider storage.Provider, logger *slog.Logger) *Prefs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prefs{st: defaultState(), provider: provider, logger: logger}
}

// State returns a copy of the current state.
func (p *Prefs) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.st.clone()
}

// update applies fn under the lock and persists when durable is true.
func (p *Prefs) update(durable bool, fn func(*State)) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.st)
	if durable {
		p.persistLocked()
	}
	return p.st.clone()
}

func (p *Prefs) persistLocked() {
	p.gen++
	if p.provider == nil {
		return
	}
	if p.failed {
		p.logger.Warn("prefs: save skipped, stored preferences could not be loaded")
		return
	}
	data, err := json.Marshal(envelope{State: persisted{
		Theme:            p.st.Theme,
		SidebarCollapsed: p.st.SidebarCollapsed,
		SortBy:           p.st.SortBy,
		SortOrder:        p.st.SortOrder,
		SearchHistory:    p.st.SearchHistory,
		RecentSearches:   p.st.RecentSearches,
	}})
	if err != nil {
		p.logger.Warn("prefs: encode failed", slog.String("error", err.Error()))
		return
	}
	if err := p.provider.Save(context.Background(), storage.KeyPreferences, data); err != nil {
		p.logger.Warn("prefs: save failed", slog.String("error", err.Error()))
		return
	}
	p.sum = checksum.Sum(data)
}

// Load reads the persisted subset. A missing key keeps the defaults. When the
// stored blob cannot be read, changes stay in memory until a Reload succeeds.
func (p *Prefs) Load(ctx context.Context) error {
	_, err := p.reload(ctx, true)
	return err
}

// Reload re-reads the persisted subset after an external change and reports
// whether anything was applied.
func (p *Prefs) Reload(ctx context.Context) (bool, error) {
	return p.reload(ctx, false)
}

func (p *Prefs) reload(ctx context.Context, initial bool) (bool, error) {
	if p.provider == nil {
		return false, nil
	}
	p.mu.Lock()
	gen := p.gen
	p.mu.Unlock()

	data, err := p.provider.Load(ctx, storage.KeyPreferences)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			p.failed = false
			return false, nil
		}
		if ctx.Err() == nil {
			p.failed = true
		}
		return false, err
	}
	if p.gen != gen {
		return false, nil
	}
	sum := checksum.Sum(data)
	if !initial && !p.failed && sum == p.sum {
		return false, nil
	}

	env := envelope{State: persisted{
		Theme:     p.st.Theme,
		SortBy:    p.st.SortBy,
		SortOrder: p.st.SortOrder,
	}}
	if err := json.Unmarshal(data, &env); err != nil {
		p.failed = true
		return false, fmt.Errorf("prefs: decode: %w", err)
	}
	ps := env.State
	if ps.Theme == ThemeLight || ps.Theme == ThemeDark {
		p.st.Theme = ps.Theme
	}
	if by, err := query.ParseSortField(string(ps.SortBy)); err == nil {
		p.st.SortBy = by
	}
	if order, err := query.ParseSortOrder(string(ps.SortOrder)); err == nil {
		p.st.SortOrder = order
	}
	p.st.SidebarCollapsed = ps.SidebarCollapsed
	p.st.SearchHistory = capped(ps.SearchHistory, maxHistory)
	p.st.RecentSearches = capped(ps.RecentSearches, maxRecent)
	p.sum = sum
	p.failed = false
	return true, nil
}

func capped(in []string, n int) []string {
	if len(in) > n {
		in = in[:n]
	}
	return append([]string{}, in...)
}

// AddToSearchHistory records a trimmed query at the front of both the
// history and the recent list. Blank queries are ignored.
func (p *Prefs) AddToSearchHistory(q string) State {
	q = strings.TrimSpace(q)
	if q == "" {
		return p.State()
	}
	return p.update(true, func(s *State) {
		s.SearchHistory = pushFront(s.SearchHistory, q, maxHistory)
		s.RecentSearches = pushFront(s.RecentSearches, q, maxRecent)
	})
}

func pushFront(list []string, q string, limit int) []string {
	out := make([]string, 0, limit)
	out = append(out, q)
	for _, v := range list {
		if len(out) == limit {
			break
		}
		if v != q {
			out = append(out, v)
		}
	}
	return out
}

// RemoveFromSearchHistory drops q from both lists.
func (p *Prefs) RemoveFromSearchHistory(q string) State {
	return p.update(true, func(s *State) {
		s.SearchHistory = without(s.SearchHistory, q)
		s.RecentSearches = without(s.RecentSearches, q)
	})
}

func without(list []string, q string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != q {
			out = append(out, v)
		}
	}
	return out
}

// ClearSearchHistory empties both lists.
func (p *Prefs) ClearSearchHistory() State {
	return p.update(true, func(s *State) {
		s.SearchHistory = []string{}
		s.RecentSearches = []string{}
	})
}

// History returns the search history, most recent first.
func (p *Prefs) History() []string {
	return p.State().SearchHistory
}

// Recent returns the short recent-searches list, most recent first.
func (p *Prefs) Recent() []string {
	return p.State().RecentSearches
}
