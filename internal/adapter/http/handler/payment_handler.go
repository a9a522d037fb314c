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

// PaymentService defines the behavior needed by PaymentHandler.
type PaymentService interface {
	Apply(ctx context.Context, input usecase.ApplyPaymentInput) (*usecase.ApplyPaymentResult, error)
	Preview(ctx context.Context, input usecase.ApplyPaymentInput) (*usecase.PaymentProjection, error)
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)
	ListPaymentsByCredit(ctx context.Context, creditID string, limit, offset int) ([]*domain.Payment, error)
}

// PaymentHandler handles payment-related HTTP requests.
type PaymentHandler struct {
	paymentUC PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentUC PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentUC: paymentUC}
}

// Apply applies a single payment against a credit.
func (h *PaymentHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req dto.ApplyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.paymentUC.Apply(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to apply payment", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.ApplyResultFromDomain(result))
}

// Preview computes what Apply would do without persisting.
func (h *PaymentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req dto.ApplyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	projection, err := h.paymentUC.Preview(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to preview payment", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ProjectionFromDomain(projection))
}

// Get retrieves a payment by ID.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing payment ID", "")
		return
	}

	payment, err := h.paymentUC.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get payment", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
}
