package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/credisol/crediledger/internal/adapter/http/dto"
	"github.com/credisol/crediledger/internal/adapter/http/middleware"
	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/usecase"
)

// BatchService defines the batch operations needed by BatchHandler.
type BatchService interface {
	ApplyBatch(ctx context.Context, input usecase.ApplyBatchInput) (*usecase.ApplyBatchResult, error)
	GetBatch(ctx context.Context, id string) (*domain.BatchUpload, error)
}

// VoidService defines the void operation needed by BatchHandler.
type VoidService interface {
	VoidBatch(ctx context.Context, batchID, actor, reason string) (*usecase.VoidResult, error)
}

// BatchHandler handles payroll batch HTTP requests.
type BatchHandler struct {
	batchUC BatchService
	voidUC  VoidService
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(batchUC BatchService, voidUC VoidService) *BatchHandler {
	return &BatchHandler{batchUC: batchUC, voidUC: voidUC}
}

// Apply applies a payroll upload (planilla) atomically.
func (h *BatchHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req dto.ApplyBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.batchUC.ApplyBatch(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to apply batch", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.BatchResultFromDomain(result))
}

// Get retrieves a batch upload by ID.
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing batch ID", "")
		return
	}

	batch, err := h.batchUC.GetBatch(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get batch", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BatchFromDomain(batch))
}

// Void reverses every payment in a processed batch.
func (h *BatchHandler) Void(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing batch ID", "")
		return
	}

	var req dto.VoidBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "missing void reason", "")
		return
	}

	actor := req.Actor
	if user, ok := middleware.GetUserFromContext(r.Context()); ok {
		actor = user.ID
	}
	if actor == "" {
		writeError(w, http.StatusBadRequest, "missing actor", "")
		return
	}

	result, err := h.voidUC.VoidBatch(r.Context(), id, actor, req.Reason)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to void batch", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.VoidResultFromDomain(result))
}
