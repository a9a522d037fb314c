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

// CreditService defines the behavior needed by CreditHandler.
type CreditService interface {
	CreateCredit(ctx context.Context, input usecase.CreateCreditInput) (*domain.Credit, error)
	GetCredit(ctx context.Context, id string) (*domain.Credit, error)
	ListCredits(ctx context.Context, limit, offset int) ([]*domain.Credit, error)
	ListInstallments(ctx context.Context, creditID string) ([]*domain.Installment, error)
}

// ScheduleService defines the schedule operations needed by CreditHandler.
type ScheduleService interface {
	Formalize(ctx context.Context, creditID string) ([]*domain.Installment, error)
	Regenerate(ctx context.Context, input usecase.RegenerateInput) ([]*domain.Installment, error)
}

// CreditHandler handles credit-related HTTP requests.
type CreditHandler struct {
	creditUC   CreditService
	scheduleUC ScheduleService
	paymentUC  PaymentService
	suspenseUC SuspenseService
}

// NewCreditHandler creates a new CreditHandler.
func NewCreditHandler(
	creditUC CreditService,
	scheduleUC ScheduleService,
	paymentUC PaymentService,
	suspenseUC SuspenseService,
) *CreditHandler {
	return &CreditHandler{
		creditUC:   creditUC,
		scheduleUC: scheduleUC,
		paymentUC:  paymentUC,
		suspenseUC: suspenseUC,
	}
}

// Create creates a new credit in Pendiente state.
func (h *CreditHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	credit, err := h.creditUC.CreateCredit(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create credit", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.CreditFromDomain(credit))
}

// Get retrieves a credit by ID.
func (h *CreditHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing credit ID", "")
		return
	}

	credit, err := h.creditUC.GetCredit(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get credit", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.CreditFromDomain(credit))
}

// List lists credits with pagination.
func (h *CreditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	credits, err := h.creditUC.ListCredits(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list credits", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.CreditsFromDomain(credits))
}

// ListInstallments returns a credit's amortization table.
func (h *CreditHandler) ListInstallments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing credit ID", "")
		return
	}

	installments, err := h.creditUC.ListInstallments(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list installments", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.InstallmentsFromDomain(installments))
}

// ListPayments lists a credit's payments.
func (h *CreditHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing credit ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	payments, err := h.paymentUC.ListPaymentsByCredit(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list payments", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentsFromDomain(payments))
}

// ListSuspense lists a credit's suspense balances.
func (h *CreditHandler) ListSuspense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing credit ID", "")
		return
	}

	balances, err := h.suspenseUC.ListByCredit(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list suspense balances", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SuspensesFromDomain(balances))
}

// Formalize freezes the credit's terms and generates its schedule.
func (h *CreditHandler) Formalize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing credit ID", "")
		return
	}

	installments, err := h.scheduleUC.Formalize(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to formalize credit", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.InstallmentsFromDomain(installments))
}

// Regenerate rebuilds the credit's schedule from its frozen terms.
func (h *CreditHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing credit ID", "")
		return
	}

	var req dto.RegenerateScheduleRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	installments, err := h.scheduleUC.Regenerate(r.Context(), usecase.RegenerateInput{
		CreditID:           id,
		RebuildPendingOnly: req.RebuildPendingOnly,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to regenerate schedule", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.InstallmentsFromDomain(installments))
}
