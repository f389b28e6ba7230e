package prefs

import (
	"fmt"
	"slices"

	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/query"
)

// ParseTheme validates s as a Theme.
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("prefs: unknown theme %q", s)
}

// SetSearchFilters replaces the advanced search filters. Filters are not
// persisted.
func (p *Prefs) SetSearchFilters(f models.SearchFilters) State {
	return p.update(false, func(s *State) {
		if f.DateRange.Type == "" {
			f.DateRange.Type = models.DateUpdated
		}
		s.SearchFilters = f
	})
}

// ResetSearchFilters restores the default filters.
func (p *Prefs) ResetSearchFilters() State {
	return p.update(false, func(s *State) {
		s.SearchFilters = models.DefaultSearchFilters()
	})
}

// SearchFilters returns the current advanced filters.
func (p *Prefs) SearchFilters() models.SearchFilters {
	return p.State().SearchFilters
}

func (p *Prefs) ToggleAdvancedSearch() State {
	return p.update(false, func(s *State) {
		s.AdvancedSearchOpen = !s.AdvancedSearchOpen
	})
}

func (p *Prefs) SetAdvancedSearchOpen(open bool) State {
	return p.update(false, func(s *State) {
		s.AdvancedSearchOpen = open
	})
}

func (p *Prefs) SetTheme(t Theme) State {
	return p.update(true, func(s *State) {
		s.Theme = t
	})
}

// ToggleTheme switches between light and dark.
func (p *Prefs) ToggleTheme() State {
	return p.update(true, func(s *State) {
		if s.Theme == ThemeDark {
			s.Theme = ThemeLight
		} else {
			s.Theme = ThemeDark
		}
	})
}

func (p *Prefs) ToggleSidebar() State {
	return p.update(true, func(s *State) {
		s.SidebarCollapsed = !s.SidebarCollapsed
	})
}

func (p *Prefs) SetSidebarCollapsed(collapsed bool) State {
	return p.update(true, func(s *State) {
		s.SidebarCollapsed = collapsed
	})
}

func (p *Prefs) SetSearchQuery(q string) State {
	return p.update(false, func(s *State) {
		s.SearchQuery = q
	})
}

func (p *Prefs) SetSelectedLabelIDs(ids []string) State {
	return p.update(false, func(s *State) {
		s.SelectedLabelIDs = append([]string{}, ids...)
	})
}

// ToggleLabelFilter adds id to the selected labels, or removes it when
// already selected.
func (p *Prefs) ToggleLabelFilter(id string) State {
	return p.update(false, func(s *State) {
		if i := slices.Index(s.SelectedLabelIDs, id); i >= 0 {
			s.SelectedLabelIDs = slices.Delete(slices.Clone(s.SelectedLabelIDs), i, i+1)
			return
		}
		s.SelectedLabelIDs = append(slices.Clone(s.SelectedLabelIDs), id)
	})
}

func (p *Prefs) SetSort(by query.SortField, order query.SortOrder) State {
	return p.update(true, func(s *State) {
		if by != "" {
			s.SortBy = by
		}
		if order != "" {
			s.SortOrder = order
		}
	})
}

// ClearFilters resets the search query and the label selection.
func (p *Prefs) ClearFilters() State {
	return p.update(false, func(s *State) {
		s.SearchQuery = ""
		s.SelectedLabelIDs = []string{}
	})
}

// Patch is a partial update of State. Nil fields are left unchanged.
type Patch struct {
	Theme              *Theme                `json:"theme"`
	SidebarCollapsed   *bool                 `json:"sidebarCollapsed"`
	SearchQuery        *string               `json:"searchQuery"`
	SelectedLabelIDs   *[]string             `json:"selectedLabelIds"`
	SortBy             *query.SortField      `json:"sortBy"`
	SortOrder          *query.SortOrder      `json:"sortOrder"`
	SearchFilters      *models.SearchFilters `json:"searchFilters"`
	AdvancedSearchOpen *bool                 `json:"advancedSearchOpen"`
}

// Apply applies every set field of pt in one update. Values are expected
// to be validated by the caller.
func (p *Prefs) Apply(pt Patch) State {
	durable := pt.Theme != nil || pt.SidebarCollapsed != nil || pt.SortBy != nil || pt.SortOrder != nil
	return p.update(durable, func(s *State) {
		if pt.Theme != nil {
			s.Theme = *pt.Theme
		}
		if pt.SidebarCollapsed != nil {
			s.SidebarCollapsed = *pt.SidebarCollapsed
		}
		if pt.SearchQuery != nil {
			s.SearchQuery = *pt.SearchQuery
		}
		if pt.SelectedLabelIDs != nil {
			s.SelectedLabelIDs = append([]string{}, (*pt.SelectedLabelIDs)...)
		}
		if pt.SortBy != nil {
			s.SortBy = *pt.SortBy
		}
		if pt.SortOrder != nil {
			s.SortOrder = *pt.SortOrder
		}
		if pt.SearchFilters != nil {
			f := *pt.SearchFilters
			if f.DateRange.Type == "" {
				f.DateRange.Type = models.DateUpdated
			}
			s.SearchFilters = f
		}
		if pt.AdvancedSearchOpen != nil {
			s.AdvancedSearchOpen = *pt.AdvancedSearchOpen
		}
	})
}
