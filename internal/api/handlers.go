package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/smartnotes/internal/autosave"
	"github.com/starford/smartnotes/internal/checksum"
	"github.com/starford/smartnotes/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	d Deps
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Handler{d: d}
}

// noteETag is the entity tag of a note's JSON representation.
func noteETag(n models.Note) string {
	b, _ := json.Marshal(n)
	return checksum.ETag(b)
}

func noteMatches(header string, n models.Note) bool {
	b, _ := json.Marshal(n)
	return checksum.MatchETag(header, b)
}

func writeNote(w http.ResponseWriter, status int, n models.Note) {
	w.Header().Set("ETag", noteETag(n))
	writeJSON(w, status, n)
}

// ListNotes handles GET /notes.
//
//	@Summary	List notes filtered by text, labels and advanced criteria
//	@Tags		notes
//	@Produce	json
//	@Param		q			query		string	false	"Basic text search"
//	@Param		labels		query		string	false	"Comma-separated label ids (any)"
//	@Param		sort		query		string	false	"Sort field"	Enums(created, updated, title)
//	@Param		order		query		string	false	"Sort order"	Enums(asc, desc)
//	@Param		hasLabels	query		bool	false	"Only notes with (true) or without (false) labels"
//	@Param		minWords	query		int		false	"Minimum word count"
//	@Param		maxWords	query		int		false	"Maximum word count"
//	@Param		from		query		string	false	"RFC 3339 lower date bound"
//	@Param		to			query		string	false	"RFC 3339 upper date bound"
//	@Param		dateType	query		string	false	"Date field"	Enums(created, updated)
//	@Success	200			{object}	NoteListResponse
//	@Failure	400			{object}	errResponse
//	@Security	BearerAuth
//	@Router		/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	req, err := parseViewRequest(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	res := h.d.Query.View(req)
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: res.Notes, Total: len(res.Notes)})
}

// CreateNote handles POST /notes. The new note becomes current.
//
//	@Summary	Create a note
//	@Tags		notes
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CreateNoteRequest	false	"Initial fields"
//	@Success	201		{object}	models.Note
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	s := h.d.Store
	id := s.CreateNote(req.Title)
	if req.Content != nil || len(req.LabelIDs) > 0 {
		upd := UpdateNoteRequest{Content: req.Content}
		if len(req.LabelIDs) > 0 {
			upd.LabelIDs = &req.LabelIDs
		}
		s.UpdateNote(id, upd.toUpdate())
	}
	n, _ := s.GetNoteByID(id)
	writeNote(w, http.StatusCreated, n)
}

// GetNote handles GET /notes/{id}.
//
//	@Summary	Get a note
//	@Tags		notes
//	@Produce	json
//	@Param		id	path		string	true	"Note id"
//	@Success	200	{object}	models.Note
//	@Failure	404	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, ok := h.d.Store.GetNoteByID(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeNote(w, http.StatusOK, n)
}

// UpdateNote handles PATCH /notes/{id} with optional optimistic locking.
//
//	@Summary	Update a note
//	@Tags		notes
//	@Accept		json
//	@Produce	json
//	@Param		id			path		string				true	"Note id"
//	@Param		If-Match	header		string				false	"ETag from a previous read"
//	@Param		body		body		UpdateNoteRequest	true	"Fields to change"
//	@Success	200			{object}	models.Note
//	@Failure	400			{object}	errResponse
//	@Failure	404			{object}	errResponse
//	@Failure	409			{object}	errResponse
//	@Security	BearerAuth
//	@Router		/notes/{id} [patch]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ifMatch := r.Header.Get("If-Match")
	match := func(n models.Note) bool {
		return ifMatch == "" || ifMatch == "*" || noteMatches(ifMatch, n)
	}
	n, err := h.d.Store.UpdateNoteIf(chi.URLParam(r, "id"), req.toUpdate(), match)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	writeNote(w, http.StatusOK, n)
}

// DeleteNote handles DELETE /notes/{id}.
//
//	@Summary	Delete a note
//	@Tags		notes
//	@Param		id	path	string	true	"Note id"
//	@Success	204
//	@Failure	404	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if h.d.Store.DeleteNotes([]string{chi.URLParam(r, "id")}) == 0 {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkDeleteNotes handles POST /notes/bulk-delete.
//
//	@Summary	Delete several notes at once
//	@Tags		notes
//	@Accept		json
//	@Produce	json
//	@Param		body	body		BulkDeleteRequest	true	"Ids to delete"
//	@Success	200		{object}	map[string]int
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/notes/bulk-delete [post]
func (h *Handler) BulkDeleteNotes(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": h.d.Store.DeleteNotes(req.IDs)})
}

// DuplicateNote handles POST /notes/{id}/duplicate.
//
//	@Summary	Duplicate a note
//	@Tags		notes
//	@Produce	json
//	@Param		id	path		string	true	"Source note id"
//	@Success	201	{object}	models.Note
//	@Failure	404	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/notes/{id}/duplicate [post]
func (h *Handler) DuplicateNote(w http.ResponseWriter, r *http.Request) {
	id := h.d.Store.DuplicateNote(chi.URLParam(r, "id"))
	if id == "" {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	n, _ := h.d.Store.GetNoteByID(id)
	writeNote(w, http.StatusCreated, n)
}

// SaveDraft handles PUT /notes/{id}/draft. The draft is committed after the
// autosave quiet period.
//
//	@Summary	Record an in-progress edit
//	@Tags		notes
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"Note id"
//	@Param		body	body		autosave.Draft	true	"Edited fields"
//	@Success	202		{object}	CurrentNoteResponse
//	@Failure	404		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/notes/{id}/draft [put]
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.d.Store.GetNoteByID(id); !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	var draft autosave.Draft
	if !decodeJSON(w, r, &draft) {
		return
	}
	h.d.Autosave.Edit(id, draft)
	writeJSON(w, http.StatusAccepted, CurrentNoteResponse{ID: id, Unsaved: h.d.Store.HasUnsavedChanges()})
}

// AddLabelToNote handles PUT /notes/{id}/labels/{labelID}.
func (h *Handler) AddLabelToNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.d.Store.GetNoteByID(id); !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	h.d.Store.AddLabelToNote(id, chi.URLParam(r, "labelID"))
	n, _ := h.d.Store.GetNoteByID(id)
	writeNote(w, http.StatusOK, n)
}

// RemoveLabelFromNote handles DELETE /notes/{id}/labels/{labelID}.
func (h *Handler) RemoveLabelFromNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.d.Store.GetNoteByID(id); !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	h.d.Store.RemoveLabelFromNote(id, chi.URLParam(r, "labelID"))
	n, _ := h.d.Store.GetNoteByID(id)
	writeNote(w, http.StatusOK, n)
}

// GetCurrentNote handles GET /notes/current.
func (h *Handler) GetCurrentNote(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.currentNote())
}

// SetCurrentNote handles PUT /notes/current. An empty id clears the
// selection.
func (h *Handler) SetCurrentNote(w http.ResponseWriter, r *http.Request) {
	var req CurrentNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ID != "" {
		if _, ok := h.d.Store.GetNoteByID(req.ID); !ok {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
	}
	h.d.Store.SetCurrentNote(req.ID)
	writeJSON(w, http.StatusOK, h.currentNote())
}

func (h *Handler) currentNote() CurrentNoteResponse {
	s := h.d.Store
	resp := CurrentNoteResponse{ID: s.CurrentNoteID(), Unsaved: s.HasUnsavedChanges()}
	if n, ok := s.GetNoteByID(resp.ID); ok {
		resp.Note = &n
	}
	return resp
}
