package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/credisol/crediledger/internal/adapter/http/dto"
	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/usecase"
)

// SuspenseService defines the behavior needed by SuspenseHandler.
type SuspenseService interface {
	Preview(ctx context.Context, suspenseID string, target domain.SuspenseTarget) (*usecase.AssignmentProjection, error)
	Assign(ctx context.Context, suspenseID string, target domain.SuspenseTarget) (*usecase.AssignResult, error)
	GetSuspense(ctx context.Context, id string) (*domain.SuspenseBalance, error)
	ListByCredit(ctx context.Context, creditID string) ([]*domain.SuspenseBalance, error)
}

// SuspenseHandler handles suspense balance HTTP requests.
type SuspenseHandler struct {
	suspenseUC SuspenseService
}

// NewSuspenseHandler creates a new SuspenseHandler.
func NewSuspenseHandler(suspenseUC SuspenseService) *SuspenseHandler {
	return &SuspenseHandler{suspenseUC: suspenseUC}
}

// Get retrieves a suspense balance by ID.
func (h *SuspenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing suspense ID", "")
		return
	}

	suspense, err := h.suspenseUC.GetSuspense(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get suspense balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SuspenseFromDomain(suspense))
}

// Assign applies a pending suspense balance to its target.
func (h *SuspenseHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing suspense ID", "")
		return
	}

	var req dto.AssignSuspenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.suspenseUC.Assign(r.Context(), id, req.ToTarget())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to assign suspense balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AssignResultFromDomain(result))
}

// Preview computes what Assign would do without persisting.
func (h *SuspenseHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing suspense ID", "")
		return
	}

	var req dto.AssignSuspenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	projection, err := h.suspenseUC.Preview(r.Context(), id, req.ToTarget())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to preview assignment", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AssignmentProjectionFromDomain(projection))
}
