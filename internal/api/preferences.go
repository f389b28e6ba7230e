package api

import (
	"net/http"
)

// GetHistory handles GET /history.
func (h *Handler) GetHistory(w http.ResponseWriter, _ *http.Request) {
	st := h.d.Prefs.State()
	writeJSON(w, http.StatusOK, HistoryResponse{History: st.SearchHistory, Recent: st.RecentSearches})
}

// AddHistory handles POST /history.
func (h *Handler) AddHistory(w http.ResponseWriter, r *http.Request) {
	var req HistoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st := h.d.Prefs.AddToSearchHistory(req.Query)
	writeJSON(w, http.StatusOK, HistoryResponse{History: st.SearchHistory, Recent: st.RecentSearches})
}

// DeleteHistory handles DELETE /history. With ?q= only that entry is
// removed; otherwise the history is cleared.
func (h *Handler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	p := h.d.Prefs
	if q := r.URL.Query().Get("q"); q != "" {
		p.RemoveFromSearchHistory(q)
	} else {
		p.ClearSearchHistory()
	}
	st := p.State()
	writeJSON(w, http.StatusOK, HistoryResponse{History: st.SearchHistory, Recent: st.RecentSearches})
}

// GetPreferences handles GET /preferences.
func (h *Handler) GetPreferences(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.d.Prefs.State())
}

// UpdatePreferences handles PATCH /preferences.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req PreferencesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.d.Prefs.Apply(req.Patch))
}
