// Package handler contains the HTTP layer: request parsing, response
// encoding, and the translation of domain errors into status codes. No
// business rules live here — handlers call services and render what comes
// back.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/akozlova/foodgram/internal/auth"
	"github.com/akozlova/foodgram/internal/model"
	"github.com/akozlova/foodgram/internal/repository"
	"github.com/akozlova/foodgram/internal/service"
)

// RecipeHandler manages recipe CRUD, the favorite and shopping-cart toggles,
// and the shopping-list download.
type RecipeHandler struct {
	recipes *service.RecipeService
	logger  *slog.Logger
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(recipes *service.RecipeService, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, logger: logger}
}

// recipeRequest is the JSON shape clients send to create or update a recipe.
// Note that the response is always the full read representation — we never
// echo this payload back.
type recipeRequest struct {
	Ingredients []model.IngredientAmount `json:"ingredients"`
	Tags        []string                 `json:"tags"`
	Image       string                   `json:"image"` // base64 data URI
	Name        string                   `json:"name"`
	Text        string                   `json:"text"`
	CookingTime int                      `json:"cooking_time"`
}

func (req *recipeRequest) toInput() service.RecipeInput {
	return service.RecipeInput{
		Name:        req.Name,
		Image:       req.Image,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Ingredients: req.Ingredients,
		TagIDs:      req.Tags,
	}
}

// HandleList returns recipes matching the query filters, newest first.
//
// HTTP: GET /api/recipes/
//
// QUERY PARAMETERS:
//
//	tags                 — tag slug, repeatable (?tags=lunch&tags=vegan), OR semantics
//	author               — author user ID
//	is_favorited=1       — only the caller's favorites (ignored for anonymous)
//	is_in_shopping_cart=1 — only the caller's cart (ignored for anonymous)
//	limit, offset        — pagination
func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	q := r.URL.Query()
	filter := repository.RecipeFilter{
		TagSlugs: q["tags"],
		AuthorID: q.Get("author"),
	}
	// The identity-relative filters only make sense for a known caller;
	// for anonymous requests they are silently ignored rather than erroring.
	if viewerID != "" {
		if q.Get("is_favorited") == "1" {
			filter.FavoritedBy = viewerID
		}
		if q.Get("is_in_shopping_cart") == "1" {
			filter.InCartOf = viewerID
		}
	}

	details, err := h.recipes.List(r.Context(), viewerID, filter, parseListOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}

	for i := range details {
		renderDetail(&details[i])
	}
	writeJSON(w, http.StatusOK, details)
}

// HandleCreate creates a recipe owned by the authenticated caller.
//
// HTTP: POST /api/recipes/
func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid recipe JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	detail, err := h.recipes.Create(r.Context(), userID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	renderDetail(detail)
	writeJSON(w, http.StatusCreated, detail)
}

// HandleGet returns one recipe. Open to anonymous callers — the
// viewer-relative flags simply come back false.
//
// HTTP: GET /api/recipes/{id}/
func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	detail, err := h.recipes.GetDetail(r.Context(), viewerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	renderDetail(detail)
	writeJSON(w, http.StatusOK, detail)
}

// HandleUpdate rewrites a recipe. Author or admin only; the service enforces
// that and this handler just relays the Forbidden error.
//
// HTTP: PATCH /api/recipes/{id}/
func (h *RecipeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid recipe JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	detail, err := h.recipes.Update(r.Context(), userID, r.PathValue("id"), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	renderDetail(detail)
	writeJSON(w, http.StatusOK, detail)
}

// HandleDelete removes a recipe (author or admin only).
//
// HTTP: DELETE /api/recipes/{id}/
func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.recipes.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleFavorite adds the recipe to the caller's favorites.
//
// HTTP: POST /api/recipes/{id}/favorite/
//
// Returns 400 both for an unknown recipe and for a duplicate add — the
// toggle endpoints treat every bad add as a client error on this request.
func (h *RecipeHandler) HandleFavorite(w http.ResponseWriter, r *http.Request) {
	h.handleAdd(w, r, h.recipes.Favorite)
}

// HandleUnfavorite removes the recipe from the caller's favorites.
//
// HTTP: DELETE /api/recipes/{id}/favorite/
func (h *RecipeHandler) HandleUnfavorite(w http.ResponseWriter, r *http.Request) {
	h.handleRemove(w, r, h.recipes.Unfavorite)
}

// HandleAddToCart adds the recipe to the caller's shopping cart.
//
// HTTP: POST /api/recipes/{id}/shopping_cart/
func (h *RecipeHandler) HandleAddToCart(w http.ResponseWriter, r *http.Request) {
	h.handleAdd(w, r, h.recipes.AddToCart)
}

// HandleRemoveFromCart removes the recipe from the caller's shopping cart.
//
// HTTP: DELETE /api/recipes/{id}/shopping_cart/
func (h *RecipeHandler) HandleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	h.handleRemove(w, r, h.recipes.RemoveFromCart)
}

type addFunc func(ctx context.Context, userID, recipeID string) (*model.RecipeSummary, error)

func (h *RecipeHandler) handleAdd(w http.ResponseWriter, r *http.Request, add addFunc) {
	userID, _ := auth.UserIDFromContext(r.Context())

	summary, err := add(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	renderSummary(summary)
	writeJSON(w, http.StatusCreated, summary)
}

func (h *RecipeHandler) handleRemove(w http.ResponseWriter, r *http.Request, remove func(ctx context.Context, userID, recipeID string) error) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := remove(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDownloadCart streams the aggregated shopping list as a text file
// attachment. 400 if the cart is empty.
//
// HTTP: GET /api/recipes/download_shopping_cart/
func (h *RecipeHandler) HandleDownloadCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	filename, content, err := h.recipes.ShoppingList(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := w.Write(content); err != nil {
		h.logger.Error("failed to write shopping list", slog.String("error", err.Error()))
	}
}
