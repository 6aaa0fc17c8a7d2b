package handler

import (
	"log/slog"
	"net/http"

	"github.com/akozlova/foodgram/internal/service"
)

// ShortLinkHandler mints short recipe links and redirects them.
type ShortLinkHandler struct {
	links  *service.ShortLinkService
	logger *slog.Logger
}

// NewShortLinkHandler creates a new ShortLinkHandler.
func NewShortLinkHandler(links *service.ShortLinkService, logger *slog.Logger) *ShortLinkHandler {
	return &ShortLinkHandler{links: links, logger: logger}
}

// HandleGetLink returns the short link for a recipe, creating it on first
// request. Open to anonymous callers; idempotent.
//
// HTTP: GET /api/recipes/{id}/get-link/
// RESPONSE: {"short-link": "https://host/s/Ab3x"}
func (h *ShortLinkHandler) HandleGetLink(w http.ResponseWriter, r *http.Request) {
	shortURL, err := h.links.GetOrCreate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	// The hyphenated key is the one quirk of this endpoint's contract.
	writeJSON(w, http.StatusOK, map[string]string{"short-link": shortURL})
}

// HandleRedirect resolves a short token and redirects to the full recipe
// URL. Lives outside /api — this is the URL people paste into chats.
//
// HTTP: GET /s/{token}
func (h *ShortLinkHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	target, err := h.links.Resolve(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, err)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}
