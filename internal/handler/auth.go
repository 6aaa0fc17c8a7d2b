package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/akozlova/foodgram/internal/service"
)

// tokenCookieMaxAge matches the JWT lifetime: one long-lived token per
// login, revoked client-side by logout.
const tokenCookieMaxAge = 30 * 24 * 60 * 60

// AuthHandler manages the token login/logout endpoints.
//
// The token is delivered two ways at once: in the JSON body (for API
// clients that send it back as a Bearer header) and as an HttpOnly cookie
// (for the web frontend, where JavaScript never touches the token).
type AuthHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users *service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, logger: logger}
}

// HandleLogin verifies credentials and issues a token.
//
// HTTP: POST /api/auth/token/login/
// REQUEST BODY: {"email": "...", "password": "..."}
// RESPONSE: {"auth_token": "<jwt>"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid login JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   tokenCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"auth_token": token})
}

// HandleLogout clears the token cookie.
//
// The JWT itself stays valid until it expires — this is stateless auth, so
// logout only discards the client's copy. Header-based clients just stop
// sending the token.
//
// HTTP: POST /api/auth/token/logout/
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // delete immediately
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}
