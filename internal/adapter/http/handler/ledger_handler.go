package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/credisol/crediledger/internal/adapter/http/dto"
	"github.com/credisol/crediledger/internal/usecase"
)

// ConsistencyService defines the behavior needed by LedgerHandler.
type ConsistencyService interface {
	Check(ctx context.Context) (bool, error)
}

// LedgerHandler exposes ledger-wide checks.
type LedgerHandler struct {
	consistencyUC ConsistencyService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(consistencyUC ConsistencyService) *LedgerHandler {
	return &LedgerHandler{consistencyUC: consistencyUC}
}

// CheckConsistency verifies the ledger-wide balance invariant.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	consistent, err := h.consistencyUC.Check(r.Context())
	if err != nil && !errors.Is(err, usecase.ErrInconsistentLedger) {
		writeError(w, http.StatusInternalServerError, "consistency check failed", err.Error())
		return
	}

	status := http.StatusOK
	if !consistent {
		status = http.StatusConflict
	}

	writeJSON(w, status, dto.ConsistencyResponse{Consistent: consistent})
}
