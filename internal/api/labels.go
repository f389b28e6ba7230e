package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/store"
)

// ListLabels handles GET /labels.
//
//	@Summary	List labels in creation order
//	@Tags		labels
//	@Produce	json
//	@Success	200	{object}	map[string][]models.Label
//	@Security	BearerAuth
//	@Router		/labels [get]
func (h *Handler) ListLabels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]models.Label{"labels": h.d.Store.Labels()})
}

// CreateLabel handles POST /labels.
//
//	@Summary	Create a label
//	@Tags		labels
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CreateLabelRequest	true	"Label to create"
//	@Success	201		{object}	models.Label
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/labels [post]
func (h *Handler) CreateLabel(w http.ResponseWriter, r *http.Request) {
	var req CreateLabelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := h.d.Store.CreateLabel(strings.TrimSpace(req.Name), req.Color)
	l, _ := h.d.Store.GetLabelByID(id)
	writeJSON(w, http.StatusCreated, l)
}

// UpdateLabel handles PATCH /labels/{id}.
func (h *Handler) UpdateLabel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.d.Store.GetLabelByID(id); !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	var req UpdateLabelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.d.Store.UpdateLabel(id, store.LabelUpdate{Name: req.Name, Color: req.Color})
	l, _ := h.d.Store.GetLabelByID(id)
	writeJSON(w, http.StatusOK, l)
}

// DeleteLabel handles DELETE /labels/{id}. Notes keep the stale reference.
func (h *Handler) DeleteLabel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.d.Store.GetLabelByID(id); !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	h.d.Store.DeleteLabel(id)
	w.WriteHeader(http.StatusNoContent)
}

// Palette handles GET /labels/palette.
func (h *Handler) Palette(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"colors": models.DefaultColors})
}
