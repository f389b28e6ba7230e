package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/query"
)

// SearchResponse is the advanced search result.
type SearchResponse struct {
	Notes      []models.Note               `json:"notes"`
	Highlights map[string]models.Highlight `json:"highlights"`
	Total      int                         `json:"total"`
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func boolParam(q url.Values, key string, def bool) (bool, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: must be a boolean", key)
	}
	return b, nil
}

// parseViewRequest reads the list pipeline parameters shared by /notes and
// /search.
func parseViewRequest(q url.Values) (query.ViewRequest, error) {
	req := query.ViewRequest{Query: q.Get("q"), LabelIDs: splitList(q.Get("labels"))}

	var err error
	if req.SortBy, err = query.ParseSortField(q.Get("sort")); err != nil {
		return req, err
	}
	if req.SortOrder, err = query.ParseSortOrder(q.Get("order")); err != nil {
		return req, err
	}

	f := models.DefaultSearchFilters()
	active := false
	if v := q.Get("hasLabels"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("hasLabels: must be a boolean")
		}
		f.HasLabels = &b
		active = true
	}
	for key, dst := range map[string]**int{"minWords": &f.WordCount.Min, "maxWords": &f.WordCount.Max} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return req, fmt.Errorf("%s: must be a non-negative integer", key)
			}
			*dst = &n
			active = true
		}
	}
	for key, dst := range map[string]**time.Time{"from": &f.DateRange.Start, "to": &f.DateRange.End} {
		if v := q.Get(key); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return req, fmt.Errorf("%s: must be an RFC 3339 time", key)
			}
			*dst = &t
			active = true
		}
	}
	if v := q.Get("dateType"); v != "" {
		f.DateRange.Type = models.DateField(v)
	}
	if err := validateFilters(f); err != nil {
		return req, err
	}
	if active {
		req.Filters = &f
	}
	return req, nil
}

// Search handles GET /search: advanced search with highlights.
//
//	@Summary	Search notes by title, content and label names
//	@Tags		search
//	@Produce	json
//	@Param		q				query		string	true	"Search term"
//	@Param		labels			query		string	false	"Comma-separated label ids (any)"
//	@Param		case			query		bool	false	"Case-sensitive matching"
//	@Param		whole			query		bool	false	"Whole-word matching"
//	@Param		includeLabels	query		bool	false	"Match label names (default true)"
//	@Success	200				{object}	SearchResponse
//	@Failure	400				{object}	errResponse
//	@Security	BearerAuth
//	@Router		/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := parseViewRequest(q)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	req.Advanced = true
	opts := query.DefaultSearchOptions()
	if opts.CaseSensitive, err = boolParam(q, "case", false); err == nil {
		if opts.WholeWords, err = boolParam(q, "whole", false); err == nil {
			opts.IncludeLabels, err = boolParam(q, "includeLabels", true)
		}
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	req.Options = opts

	res := h.d.Query.View(req)
	writeJSON(w, http.StatusOK, SearchResponse{Notes: res.Notes, Highlights: res.Highlights, Total: len(res.Notes)})
}

// Filter handles POST /filter.
func (h *Handler) Filter(w http.ResponseWriter, r *http.Request) {
	req := FilterRequest{SearchFilters: models.DefaultSearchFilters()}
	if !decodeJSON(w, r, &req) {
		return
	}
	notes := h.d.Query.FilterNotesAdvanced(req.SearchFilters)
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.d.Query.Stats(h.d.Now()))
}
