package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Credit errors
	ErrCreditNotFound          = errors.New("credit not found")
	ErrCreditNotFormalized     = errors.New("credit is not formalized")
	ErrCreditAlreadyFormalized = errors.New("credit is already formalized")
	ErrInvalidStatusTransition = errors.New("status transition not allowed")

	// Schedule errors
	ErrInvalidScheduleInput = errors.New("invalid schedule input")
	ErrScheduleLocked       = errors.New("schedule has paid installments and cannot be regenerated")

	// Payment errors
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInstallmentNotFound  = errors.New("installment not found")
	ErrNoPendingInstallment = errors.New("credit has no pending installment")
	ErrPaymentNotFound      = errors.New("payment not found")

	// Reversal errors
	ErrBatchNotFound       = errors.New("batch upload not found")
	ErrAlreadyVoided       = errors.New("batch upload is already voided")
	ErrDuplicateReversal   = errors.New("payment was already reversed")
	ErrConcurrencyConflict = errors.New("could not acquire credit lock, retry the operation")

	// Suspense errors
	ErrSuspenseNotFound        = errors.New("suspense balance not found")
	ErrSuspenseAlreadyAssigned = errors.New("suspense balance is already assigned")
	ErrInvalidSuspenseTarget   = errors.New("invalid suspense assignment target")

	// User errors
	ErrUserNotFound = errors.New("user not found")
)

// InvalidScheduleInputError carries the computed numbers that failed
// validation so the caller can correct its inputs without guessing.
type InvalidScheduleInputError struct {
	Reason       string
	Principal    decimal.Decimal
	Charges      decimal.Decimal
	NetPrincipal decimal.Decimal
	TermMonths   int
}

func (e *InvalidScheduleInputError) Error() string {
	return fmt.Sprintf("invalid schedule input: %s (principal=%s charges=%s net=%s term=%d)",
		e.Reason, e.Principal, e.Charges, e.NetPrincipal, e.TermMonths)
}

// Is makes the error match the ErrInvalidScheduleInput sentinel.
func (e *InvalidScheduleInputError) Is(target error) bool {
	return target == ErrInvalidScheduleInput
}
