package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/credisol/crediledger/internal/adapter/http/dto"
	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/usecase"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrCreditNotFound),
		errors.Is(err, domain.ErrInstallmentNotFound),
		errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrBatchNotFound),
		errors.Is(err, domain.ErrSuspenseNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrInvalidCedula),
		errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrInvalidScheduleInput),
		errors.Is(err, domain.ErrInvalidSuspenseTarget),
		errors.Is(err, domain.ErrNoPendingInstallment):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCreditNotFormalized),
		errors.Is(err, domain.ErrCreditAlreadyFormalized),
		errors.Is(err, domain.ErrScheduleLocked),
		errors.Is(err, domain.ErrAlreadyVoided),
		errors.Is(err, domain.ErrDuplicateReversal),
		errors.Is(err, domain.ErrSuspenseAlreadyAssigned),
		errors.Is(err, domain.ErrInvalidStatusTransition),
		errors.Is(err, usecase.ErrInconsistentLedger):
		return http.StatusConflict
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
