package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dailybite/dailybite/internal/auth"
	"github.com/dailybite/dailybite/internal/model"
	"github.com/dailybite/dailybite/internal/service"
)

// AuthHandler exposes registration, login, and profile endpoints.
//
// ENDPOINTS:
//   - HandleRegister → POST /auth/register  create account, return token
//   - HandleToken    → POST /auth/token     form login (OAuth2 password style)
//   - HandleLogin    → POST /auth/login     JSON login (mobile clients)
//   - HandleMe       → GET  /auth/me        current user's profile
//   - HandleUpdateMe → PUT  /auth/me        merge-patch the profile
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, logger: logger}
}

// registerRequest is the JSON body for POST /auth/register.
// calorieGoal is optional — omitted or zero falls back to the default.
type registerRequest struct {
	Email            string `json:"email"`
	Username         string `json:"username"`
	Password         string `json:"password"`
	CalorieGoal      int    `json:"calorieGoal"`
	AutoDeleteImages *bool  `json:"autoDeleteImages"`
}

// tokenResponse is returned by every endpoint that issues a token.
// The shape follows the OAuth2 bearer convention (access_token/token_type)
// so off-the-shelf API clients work unmodified.
type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        *model.User `json:"user"`
}

// HandleRegister creates a new account and logs it straight in.
//
// HTTP: POST /auth/register
// RESPONSE: 201 with token+user, 400 on validation, 409 on duplicate.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid register JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	in := service.RegisterInput{
		Email:            req.Email,
		Username:         req.Username,
		Password:         req.Password,
		CalorieGoal:      req.CalorieGoal,
		AutoDeleteImages: true, // matches the account default
	}
	if req.AutoDeleteImages != nil {
		in.AutoDeleteImages = *req.AutoDeleteImages
	}

	result, err := h.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		User:        result.User,
	})
}

// HandleToken is the form-encoded login endpoint.
//
// HTTP: POST /auth/token (application/x-www-form-urlencoded)
//
// The field is called "username" but carries the EMAIL — that's the OAuth2
// password-grant form convention, kept for compatibility with API clients
// that speak it.
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid form body"})
		return
	}

	h.login(w, r, r.PostFormValue("username"), r.PostFormValue("password"))
}

// loginRequest is the JSON body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin is the JSON login endpoint used by mobile clients.
//
// HTTP: POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	h.login(w, r, req.Email, req.Password)
}

// login is the shared tail of both login endpoints. A 401 carries the
// WWW-Authenticate header per RFC 6750.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, email, password string) {
	result, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		User:        result.User,
	})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /auth/me (requires auth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		// Only reachable if the route was wired without RequireAuth.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	user, err := h.auth.GetUser(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleUpdateMe merge-patches the authenticated user's profile.
//
// HTTP: PUT /auth/me (requires auth)
// BODY: any subset of {email, username, calorieGoal, autoDeleteImages}
func (h *AuthHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var patch model.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), identity.UserID, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
