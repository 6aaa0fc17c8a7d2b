package handler

import (
	"log/slog"
	"net/http"

	"github.com/akozlova/foodgram/internal/service"
)

// CatalogHandler serves the read-only reference data: tags and the
// ingredient catalogue. Both are open to anonymous callers.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// HandleListTags returns all tags as a bare array (no pagination — the tag
// set is small and curated).
//
// HTTP: GET /api/tags/
func (h *CatalogHandler) HandleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.catalog.Tags(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// HandleGetTag returns one tag by ID.
//
// HTTP: GET /api/tags/{id}/
func (h *CatalogHandler) HandleGetTag(w http.ResponseWriter, r *http.Request) {
	tag, err := h.catalog.Tag(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// HandleListIngredients returns the ingredient catalogue, optionally
// filtered by a case-insensitive name prefix.
//
// HTTP: GET /api/ingredients/?name=flo
func (h *CatalogHandler) HandleListIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.catalog.Ingredients(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ingredients)
}

// HandleGetIngredient returns one catalogue entry by ID.
//
// HTTP: GET /api/ingredients/{id}/
func (h *CatalogHandler) HandleGetIngredient(w http.ResponseWriter, r *http.Request) {
	ingredient, err := h.catalog.Ingredient(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ingredient)
}
