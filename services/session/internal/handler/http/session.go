package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/adatechschool/MBB/pkg/errors"
	"github.com/adatechschool/MBB/pkg/httputil"
	"github.com/adatechschool/MBB/pkg/middleware"
	"github.com/adatechschool/MBB/services/session/internal/service"
)

// SessionHandler handles HTTP requests for session endpoints.
type SessionHandler struct {
	service *service.SessionService
	cookies *cookieWriter
	logger  *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(svc *service.SessionService, cookies *cookieWriter, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{service: svc, cookies: cookies, logger: logger}
}

// RefreshResponse wraps the rotated session with its new tokens.
type RefreshResponse struct {
	Session any `json:"session"`
	Tokens  any `json:"tokens"`
}

// Create handles POST /api/v1/sessions/add
//
// The session is derived entirely from the refresh token cookie. The caller
// cannot pick the owner or the expiry.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	refreshCookie, err := r.Cookie(refreshTokenCookie)
	if err != nil || refreshCookie.Value == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("Refresh token not provided."), h.logger)
		return
	}

	session, err := h.service.Create(r.Context(), refreshCookie.Value)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: session})
}

// Current handles GET /api/v1/sessions/current
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("missing credentials"), h.logger)
		return
	}

	sessions, err := h.service.List(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sessions})
}

// Refresh handles POST /api/v1/sessions/refresh
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshCookie, err := r.Cookie(refreshTokenCookie)
	if err != nil || refreshCookie.Value == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("Refresh token not provided."), h.logger)
		return
	}

	session, pair, err := h.service.Refresh(r.Context(), refreshCookie.Value)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.set(w, pair)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: RefreshResponse{
			Session: session,
			Tokens:  pair,
		},
	})
}

// Delete handles DELETE /api/v1/sessions?token_hash=...
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tokenHash := r.URL.Query().Get("token_hash")
	if tokenHash == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("token_hash query parameter is required"), h.logger)
		return
	}

	if err := h.service.DeleteByHash(r.Context(), tokenHash); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteByID handles DELETE /api/v1/sessions/{id}
//
// The session must belong to the authenticated user. Deleting a session that
// is already gone still returns 204 so that retries are harmless.
func (h *SessionHandler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("missing credentials"), h.logger)
		return
	}

	sessionID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), sessionID, userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
