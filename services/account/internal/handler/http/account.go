package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adatechschool/MBB/pkg/httputil"
	"github.com/adatechschool/MBB/pkg/validator"
	"github.com/adatechschool/MBB/services/account/internal/service"
)

// AccountHandler handles HTTP requests for account endpoints.
type AccountHandler struct {
	service *service.AccountService
	logger  *slog.Logger
}

// NewAccountHandler creates a new account HTTP handler.
func NewAccountHandler(svc *service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{service: svc, logger: logger}
}

// ProvisionRequest is the JSON request body for provisioning an account.
type ProvisionRequest struct {
	UserID   string `json:"user_id" validate:"required,uuid"`
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
}

// UpdateRequest is the JSON request body for updating a profile.
type UpdateRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=64"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	AboutMe  *string `json:"about_me,omitempty" validate:"omitempty,max=280"`
}

// Provision handles POST /api/v1/accounts
// Returns 201 when a new account was created and 200 when it already existed.
func (h *AccountHandler) Provision(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req ProvisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	account, created, err := h.service.Provision(r.Context(), service.ProvisionInput{
		UserID:   req.UserID,
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	httputil.WriteJSON(w, status, httputil.Response{Data: account})
}

// Get handles GET /api/v1/accounts/{userID}
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	account, err := h.service.Get(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: account})
}

// Update handles PUT /api/v1/accounts/{userID}
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	userID := chi.URLParam(r, "userID")

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	account, err := h.service.Update(r.Context(), userID, service.UpdateInput{
		Username: req.Username,
		Email:    req.Email,
		AboutMe:  req.AboutMe,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: account})
}

// TouchLastSeen handles POST /api/v1/accounts/{userID}/seen
func (h *AccountHandler) TouchLastSeen(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if err := h.service.TouchLastSeen(r.Context(), userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/accounts/{userID}
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if err := h.service.Delete(r.Context(), userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
