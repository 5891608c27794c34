package handler

import (
	"log/slog"
	"net/http"

	"github.com/elm042025/sales-dashboard/internal/usecase"
)

// AuthHandler handles HTTP requests for account management.
type AuthHandler struct {
	uc           usecase.AuthUseCase
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(uc usecase.AuthUseCase, logger *slog.Logger, maxBodyBytes int64) *AuthHandler {
	return &AuthHandler{uc: uc, logger: logger, maxBodyBytes: maxBodyBytes}
}

// SignUp creates an unconfirmed account.
// POST /api/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req usecase.SignUpRequest
	if !decodeJSON(w, r, h.maxBodyBytes, &req) {
		return
	}

	result, err := h.uc.SignUp(r.Context(), req)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, result)
}

// ConfirmEmail redeems a confirmation token.
// GET /api/auth/confirm?token=
func (h *AuthHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if err := h.uc.ConfirmEmail(r.Context(), token); err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, map[string]string{"status": "confirmed"})
}

// SignIn exchanges credentials for a session token.
// POST /api/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, h.maxBodyBytes, &req) {
		return
	}

	result, err := h.uc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, result)
}

// SignOut revokes the calling session.
// POST /api/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	if err := h.uc.SignOut(r.Context(), session); err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in profile.
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	user, err := h.uc.CurrentUser(r.Context(), session.UserID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, user)
}
