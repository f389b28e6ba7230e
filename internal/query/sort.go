package query

import (
	"cmp"
	"fmt"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/smartnotes/internal/models"
)

// SortField selects the note attribute to order by.
type SortField string

const (
	SortCreated SortField = "created"
	SortUpdated SortField = "updated"
	SortTitle   SortField = "title"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// ParseSortField maps s to a SortField. An empty s yields SortUpdated.
func ParseSortField(s string) (SortField, error) {
	switch SortField(s) {
	case "":
		return SortUpdated, nil
	case SortCreated, SortUpdated, SortTitle:
		return SortField(s), nil
	}
	return "", fmt.Errorf("query: unknown sort field %q", s)
}

// ParseSortOrder maps s to a SortOrder. An empty s yields Desc.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "":
		return Desc, nil
	case Asc, Desc:
		return SortOrder(s), nil
	}
	return "", fmt.Errorf("query: unknown sort order %q", s)
}

// Sort returns a sorted copy of notes. Equal keys keep their input order.
// Zero values default to most recently updated first. Titles are compared
// with locale-aware collation.
func Sort(notes []models.Note, by SortField, order SortOrder) []models.Note {
	if by == "" {
		by = SortUpdated
	}
	if order == "" {
		order = Desc
	}

	var compare func(a, b models.Note) int
	switch by {
	case SortCreated:
		compare = func(a, b models.Note) int { return cmp.Compare(a.CreatedAt, b.CreatedAt) }
	case SortTitle:
		c := collate.New(language.English)
		compare = func(a, b models.Note) int { return c.CompareString(a.Title, b.Title) }
	default:
		compare = func(a, b models.Note) int { return cmp.Compare(a.UpdatedAt, b.UpdatedAt) }
	}

	out := slices.Clone(notes)
	slices.SortStableFunc(out, func(a, b models.Note) int {
		if order == Desc {
			return -compare(a, b)
		}
		return compare(a, b)
	})
	return out
}
