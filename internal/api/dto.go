package api

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/prefs"
	"github.com/starford/smartnotes/internal/query"
	"github.com/starford/smartnotes/internal/store"
)

const maxTitleLen = 500

// CreateNoteRequest is the request body for creating a note. Every field is
// optional.
type CreateNoteRequest struct {
	Title    string   `json:"title" example:"Plan"`
	Content  *string  `json:"content" example:"<p>Ship the release</p>"`
	LabelIDs []string `json:"labelIds"`
}

// Validate validates the request.
func (r *CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Length(0, maxTitleLen)),
		validation.Field(&r.LabelIDs, validation.Each(validation.Required)),
	)
}

// nonEmptyIDs rejects blank entries in an optional id list.
var nonEmptyIDs = validation.By(func(v any) error {
	ids, ok := v.(*[]string)
	if !ok || ids == nil {
		return nil
	}
	return validation.Validate(*ids, validation.Each(validation.Required))
})

// UpdateNoteRequest is a partial note update; absent fields are unchanged.
type UpdateNoteRequest struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	LabelIDs *[]string `json:"labelIds"`
}

// Validate validates the request.
func (r *UpdateNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Length(0, maxTitleLen)),
		validation.Field(&r.LabelIDs, nonEmptyIDs),
	)
}

func (r *UpdateNoteRequest) toUpdate() store.NoteUpdate {
	return store.NoteUpdate{Title: r.Title, Content: r.Content, LabelIDs: r.LabelIDs}
}

// BulkDeleteRequest lists the notes to delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// Validate validates the request.
func (r *BulkDeleteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.IDs, validation.Required, validation.Each(validation.Required)),
	)
}

// CurrentNoteRequest selects the current note; an empty id clears it.
type CurrentNoteRequest struct {
	ID string `json:"id"`
}

// CurrentNoteResponse reports the selection and the unsaved-changes flag.
type CurrentNoteResponse struct {
	ID      string       `json:"id"`
	Note    *models.Note `json:"note,omitempty"`
	Unsaved bool         `json:"unsaved"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
	Total int           `json:"total"`
}

// CreateLabelRequest is the request body for creating a label.
type CreateLabelRequest struct {
	Name  string `json:"name" example:"Work"`
	Color string `json:"color" example:"#3b82f6"`
}

// Validate validates the request.
func (r *CreateLabelRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Color, validation.Required, validation.Match(models.HexColor).Error("must be a #rrggbb colour")),
	)
}

// UpdateLabelRequest is a partial label update.
type UpdateLabelRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// Validate validates the request.
func (r *UpdateLabelRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.Color, validation.NilOrNotEmpty, validation.Match(models.HexColor).Error("must be a #rrggbb colour")),
	)
}

// FilterRequest carries advanced filter criteria.
type FilterRequest struct {
	models.SearchFilters
}

// Validate validates the request.
func (r *FilterRequest) Validate() error {
	return validateFilters(r.SearchFilters)
}

func validateFilters(f models.SearchFilters) error {
	if err := validation.Validate(string(f.DateRange.Type),
		validation.In(string(models.DateCreated), string(models.DateUpdated)),
	); err != nil {
		return errors.New("dateRange.type: " + err.Error())
	}
	if f.DateRange.Start != nil && f.DateRange.End != nil && f.DateRange.End.Before(*f.DateRange.Start) {
		return errors.New("dateRange: end is before start")
	}
	if f.WordCount.Min != nil && f.WordCount.Max != nil && *f.WordCount.Max < *f.WordCount.Min {
		return errors.New("wordCount: max is below min")
	}
	return nil
}

// ImportResponse reports how many entities were received, survived
// validation, and were added.
type ImportResponse struct {
	Received counts `json:"received"`
	Valid    counts `json:"valid"`
	Imported counts `json:"imported"`
}

type counts struct {
	Notes  int `json:"notes"`
	Labels int `json:"labels"`
}

// HistoryRequest records a submitted search.
type HistoryRequest struct {
	Query string `json:"query"`
}

// Validate validates the request.
func (r *HistoryRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Query, validation.Required),
	)
}

// HistoryResponse lists past searches, most recent first.
type HistoryResponse struct {
	History []string `json:"history"`
	Recent  []string `json:"recent"`
}

// PreferencesRequest is a partial preferences update.
type PreferencesRequest struct {
	prefs.Patch
}

// Validate validates the request.
func (r *PreferencesRequest) Validate() error {
	if err := validation.ValidateStruct(&r.Patch,
		validation.Field(&r.Theme, validation.NilOrNotEmpty,
			validation.In(prefs.ThemeLight, prefs.ThemeDark)),
		validation.Field(&r.SortBy, validation.NilOrNotEmpty,
			validation.In(query.SortCreated, query.SortUpdated, query.SortTitle)),
		validation.Field(&r.SortOrder, validation.NilOrNotEmpty,
			validation.In(query.Asc, query.Desc)),
	); err != nil {
		return err
	}
	if r.SearchFilters != nil {
		f := *r.SearchFilters
		if f.DateRange.Type == "" {
			f.DateRange.Type = models.DateUpdated
		}
		return validateFilters(f)
	}
	return nil
}
