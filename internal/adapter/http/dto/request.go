package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/usecase"
)

// CreateCreditRequest represents a request to create a credit.
type CreateCreditRequest struct {
	ClientID         string          `json:"client_id"`
	Cedula           string          `json:"cedula"`
	DeductoraID      string          `json:"deductora_id"`
	Principal        decimal.Decimal `json:"principal"`
	Charges          decimal.Decimal `json:"charges"`
	TermMonths       int             `json:"term_months"`
	AnnualRate       decimal.Decimal `json:"annual_rate"`
	InsuranceEnabled bool            `json:"insurance_enabled"`
	InsurancePremium decimal.Decimal `json:"insurance_premium"`
	DisbursedAt      time.Time       `json:"disbursed_at"`
	FirstDueDate     time.Time       `json:"first_due_date"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateCreditRequest) ToUseCaseInput() usecase.CreateCreditInput {
	return usecase.CreateCreditInput{
		ClientID:         r.ClientID,
		Cedula:           r.Cedula,
		DeductoraID:      r.DeductoraID,
		Principal:        r.Principal,
		Charges:          r.Charges,
		TermMonths:       r.TermMonths,
		AnnualRate:       r.AnnualRate,
		InsuranceEnabled: r.InsuranceEnabled,
		InsurancePremium: r.InsurancePremium,
		DisbursedAt:      r.DisbursedAt,
		FirstDueDate:     r.FirstDueDate,
	}
}

// ApplyPaymentRequest represents a single payment to apply or preview.
type ApplyPaymentRequest struct {
	CreditID          string          `json:"credit_id"`
	Amount            decimal.Decimal `json:"amount"`
	InstallmentNumber *int            `json:"installment_number,omitempty"`
	Source            string          `json:"source,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ApplyPaymentRequest) ToUseCaseInput() usecase.ApplyPaymentInput {
	return usecase.ApplyPaymentInput{
		CreditID:          r.CreditID,
		Amount:            r.Amount,
		InstallmentNumber: r.InstallmentNumber,
		Source:            domain.PaymentSource(r.Source),
	}
}

// BatchRowRequest is one payroll deduction line.
type BatchRowRequest struct {
	Cedula string          `json:"cedula"`
	Amount decimal.Decimal `json:"amount"`
}

// ApplyBatchRequest represents a payroll upload (planilla).
type ApplyBatchRequest struct {
	DeductoraID string            `json:"deductora_id"`
	Period      string            `json:"period"`
	Rows        []BatchRowRequest `json:"rows"`
}

// ToUseCaseInput converts to use case input.
func (r *ApplyBatchRequest) ToUseCaseInput() usecase.ApplyBatchInput {
	rows := make([]usecase.BatchRow, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = usecase.BatchRow{
			Cedula: row.Cedula,
			Amount: row.Amount,
		}
	}
	return usecase.ApplyBatchInput{
		DeductoraID: r.DeductoraID,
		Period:      r.Period,
		Rows:        rows,
	}
}

// VoidBatchRequest represents a request to void a batch upload.
type VoidBatchRequest struct {
	Reason string `json:"reason"`
	// Actor is used when the request carries no authenticated user.
	Actor string `json:"actor,omitempty"`
}

// AssignSuspenseRequest represents a request to assign a suspense balance.
type AssignSuspenseRequest struct {
	Target string `json:"target"`
}

// ToTarget converts the wire value to the domain target.
func (r *AssignSuspenseRequest) ToTarget() domain.SuspenseTarget {
	return domain.SuspenseTarget(r.Target)
}

// RegenerateScheduleRequest controls how a schedule is rebuilt.
type RegenerateScheduleRequest struct {
	RebuildPendingOnly bool `json:"rebuild_pending_only"`
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
