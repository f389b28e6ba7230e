package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/smartnotes/internal/codec"
	"github.com/starford/smartnotes/internal/store"
)

// Export handles GET /export/{format} and offers the document as a download.
//
//	@Summary	Export all notes and labels
//	@Tags		transfer
//	@Produce	json,text/markdown,text/csv
//	@Param		format	path	string	true	"Export format"	Enums(json, markdown, csv)
//	@Success	200
//	@Failure	400	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/export/{format} [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := codec.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	notes, labels := h.d.Store.Snapshot()
	body, err := h.d.Codec.Export(format, notes, labels)
	if err != nil {
		writeError(w, "export", err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType()+"; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, codec.Filename(format, h.d.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// Import handles POST /import?mode=merge|replace. The body is a JSON backup.
// Entities that fail validation are dropped; the response tells how many.
//
//	@Summary	Import a JSON backup
//	@Tags		transfer
//	@Accept		json
//	@Produce	json
//	@Param		mode	query		string	false	"Combination policy"	Enums(merge, replace)
//	@Success	200		{object}	ImportResponse
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	rawMode := r.URL.Query().Get("mode")
	if err := validation.Validate(rawMode, validation.In(string(store.ImportMerge), string(store.ImportReplace))); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("mode: "+err.Error()))
		return
	}
	mode, _ := store.ParseImportMode(rawMode)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	imp, err := h.d.Codec.ImportFromJSON(string(data))
	if err != nil {
		writeError(w, "import", err)
		return
	}
	res := h.d.Store.Import(imp.Notes, imp.Labels, mode)
	slog.Info("import applied",
		slog.String("mode", string(mode)),
		slog.Int("notes_received", imp.NotesReceived),
		slog.Int("notes_added", res.NotesAdded))

	writeJSON(w, http.StatusOK, ImportResponse{
		Received: counts{Notes: imp.NotesReceived, Labels: imp.LabelsReceived},
		Valid:    counts{Notes: len(imp.Notes), Labels: len(imp.Labels)},
		Imported: counts{Notes: res.NotesAdded, Labels: res.LabelsAdded},
	})
}
