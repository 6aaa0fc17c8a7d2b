package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/akozlova/foodgram/internal/auth"
	"github.com/akozlova/foodgram/internal/service"
)

// UserHandler manages registration, profiles, avatars, password changes,
// and the subscription graph.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// registerRequest is the registration payload. The password never appears in
// any response shape.
type registerRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// registerResponse deliberately omits is_subscribed and avatar — a freshly
// created account has neither, and the registration contract returns only
// what the client sent plus the assigned ID.
type registerResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// HandleRegister creates a new account. Open to anonymous callers.
//
// HTTP: POST /api/users/
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid registration JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

// HandleList returns user profiles, paginated. Open to anonymous callers.
//
// HTTP: GET /api/users/
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	profiles, err := h.users.List(r.Context(), viewerID, parseListOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}

	for i := range profiles {
		renderProfile(&profiles[i])
	}
	writeJSON(w, http.StatusOK, profiles)
}

// HandleGet returns one user's profile.
//
// HTTP: GET /api/users/{id}/
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	profile, err := h.users.Profile(r.Context(), viewerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	renderProfile(profile)
	writeJSON(w, http.StatusOK, profile)
}

// HandleMe returns the caller's own profile.
//
// HTTP: GET /api/users/me/
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	profile, err := h.users.Profile(r.Context(), userID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	renderProfile(profile)
	writeJSON(w, http.StatusOK, profile)
}

// HandleUpdateMe changes the caller's first/last name. Fields left out of
// the payload keep their current value.
//
// HTTP: PATCH /api/users/me/
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	profile, err := h.users.UpdateName(r.Context(), userID, req.FirstName, req.LastName)
	if err != nil {
		writeError(w, err)
		return
	}

	renderProfile(profile)
	writeJSON(w, http.StatusOK, profile)
}

// HandleSetAvatar stores a new avatar from a base64 data URI.
//
// HTTP: PUT /api/users/me/avatar/
// REQUEST BODY: {"avatar": "data:image/png;base64,..."}
// RESPONSE: {"avatar": "/media/user_images/<file>"}
func (h *UserHandler) HandleSetAvatar(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		Avatar string `json:"avatar"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	profile, err := h.users.SetAvatar(r.Context(), userID, req.Avatar)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"avatar": mediaURL(profile.Avatar),
	})
}

// HandleDeleteAvatar removes the caller's avatar.
//
// HTTP: DELETE /api/users/me/avatar/
func (h *UserHandler) HandleDeleteAvatar(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.users.DeleteAvatar(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSetPassword changes the caller's password. Requires the current
// password — possession of a token alone is not enough.
//
// HTTP: POST /api/users/set_password/
func (h *UserHandler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	if err := h.users.SetPassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSubscribe subscribes the caller to an author and returns the
// author's enriched profile.
//
// HTTP: POST /api/users/{id}/subscribe/
//
// QUERY PARAMETERS:
//
//	recipes_limit — cap on the embedded recipe list (recipes_count stays total)
func (h *UserHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	profile, err := h.users.Subscribe(r.Context(), userID, r.PathValue("id"), recipesLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}

	renderAuthor(profile)
	writeJSON(w, http.StatusCreated, profile)
}

// HandleUnsubscribe removes the caller's subscription to an author.
//
// HTTP: DELETE /api/users/{id}/subscribe/
func (h *UserHandler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.users.Unsubscribe(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSubscriptions lists the authors the caller follows, most recent
// subscription first.
//
// HTTP: GET /api/users/subscriptions/
func (h *UserHandler) HandleSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	profiles, err := h.users.Subscriptions(r.Context(), userID, recipesLimit(r), parseListOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}

	for i := range profiles {
		renderAuthor(&profiles[i])
	}
	writeJSON(w, http.StatusOK, profiles)
}

// recipesLimit parses the optional recipes_limit query parameter; zero means
// "no truncation".
func recipesLimit(r *http.Request) int {
	if v := r.URL.Query().Get("recipes_limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
