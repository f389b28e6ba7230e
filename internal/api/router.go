package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/smartnotes/internal/autosave"
	"github.com/starford/smartnotes/internal/codec"
	"github.com/starford/smartnotes/internal/prefs"
	"github.com/starford/smartnotes/internal/query"
	"github.com/starford/smartnotes/internal/store"
)

// Deps are the components the REST surface delegates to.
type Deps struct {
	Store    *store.Store
	Query    *query.Engine
	Codec    *codec.Codec
	Prefs    *prefs.Prefs
	Autosave *autosave.Saver
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewRouter creates a chi router with all API routes mounted. When
// authEnabled is true every route requires the bearer token.
func NewRouter(d Deps, authEnabled bool, token string) chi.Router {
	h := NewHandler(d)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.ListNotes)
		r.Post("/", h.CreateNote)
		r.Post("/bulk-delete", h.BulkDeleteNotes)
		r.Get("/current", h.GetCurrentNote)
		r.Put("/current", h.SetCurrentNote)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetNote)
			r.Patch("/", h.UpdateNote)
			r.Delete("/", h.DeleteNote)
			r.Post("/duplicate", h.DuplicateNote)
			r.Put("/draft", h.SaveDraft)
			r.Put("/labels/{labelID}", h.AddLabelToNote)
			r.Delete("/labels/{labelID}", h.RemoveLabelFromNote)
		})
	})

	r.Route("/labels", func(r chi.Router) {
		r.Get("/", h.ListLabels)
		r.Post("/", h.CreateLabel)
		r.Get("/palette", h.Palette)
		r.Patch("/{id}", h.UpdateLabel)
		r.Delete("/{id}", h.DeleteLabel)
	})

	r.Get("/search", h.Search)
	r.Post("/filter", h.Filter)
	r.Get("/stats", h.Stats)

	r.Get("/export/{format}", h.Export)
	r.Post("/import", h.Import)

	r.Get("/history", h.GetHistory)
	r.Post("/history", h.AddHistory)
	r.Delete("/history", h.DeleteHistory)
	r.Get("/preferences", h.GetPreferences)
	r.Patch("/preferences", h.UpdatePreferences)

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
