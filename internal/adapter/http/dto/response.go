package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/usecase"
)

// CreditResponse represents a credit in API responses.
type CreditResponse struct {
	ID                 string          `json:"id"`
	ClientID           string          `json:"client_id"`
	Cedula             string          `json:"cedula"`
	DeductoraID        string          `json:"deductora_id"`
	Principal          decimal.Decimal `json:"principal"`
	Charges            decimal.Decimal `json:"charges"`
	NetPrincipal       decimal.Decimal `json:"net_principal"`
	TermMonths         int             `json:"term_months"`
	AnnualRate         decimal.Decimal `json:"annual_rate"`
	InsuranceEnabled   bool            `json:"insurance_enabled"`
	InsurancePremium   decimal.Decimal `json:"insurance_premium"`
	DisbursedAt        time.Time       `json:"disbursed_at"`
	FirstDueDate       time.Time       `json:"first_due_date"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	Status             string          `json:"status"`
	FormalizedAt       *time.Time      `json:"formalized_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// CreditFromDomain converts a domain credit to a response.
func CreditFromDomain(c *domain.Credit) *CreditResponse {
	return &CreditResponse{
		ID:                 c.ID,
		ClientID:           c.ClientID,
		Cedula:             c.Cedula,
		DeductoraID:        c.DeductoraID,
		Principal:          c.Principal,
		Charges:            c.Charges,
		NetPrincipal:       c.NetPrincipal(),
		TermMonths:         c.TermMonths,
		AnnualRate:         c.AnnualRate,
		InsuranceEnabled:   c.InsuranceEnabled,
		InsurancePremium:   c.InsurancePremium,
		DisbursedAt:        c.DisbursedAt,
		FirstDueDate:       c.FirstDueDate,
		OutstandingBalance: c.OutstandingBalance,
		Status:             string(c.Status),
		FormalizedAt:       c.FormalizedAt,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// CreditsFromDomain converts domain credits to responses.
func CreditsFromDomain(credits []*domain.Credit) []*CreditResponse {
	result := make([]*CreditResponse, len(credits))
	for i, c := range credits {
		result[i] = CreditFromDomain(c)
	}
	return result
}

// InstallmentResponse represents one schedule row in API responses.
type InstallmentResponse struct {
	ID           string          `json:"id"`
	CreditID     string          `json:"credit_id"`
	Number       int             `json:"number"`
	DueDate      time.Time       `json:"due_date"`
	RateSnapshot decimal.Decimal `json:"rate_snapshot"`
	TermSnapshot int             `json:"term_snapshot"`

	OwedMora      decimal.Decimal `json:"owed_mora"`
	OwedCorriente decimal.Decimal `json:"owed_corriente"`
	OwedPoliza    decimal.Decimal `json:"owed_poliza"`
	OwedPrincipal decimal.Decimal `json:"owed_principal"`

	PaidMora      decimal.Decimal `json:"paid_mora"`
	PaidCorriente decimal.Decimal `json:"paid_corriente"`
	PaidPoliza    decimal.Decimal `json:"paid_poliza"`
	PaidPrincipal decimal.Decimal `json:"paid_principal"`

	PreviousBalance  decimal.Decimal `json:"previous_balance"`
	ResultingBalance decimal.Decimal `json:"resulting_balance"`

	Status string     `json:"status"`
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

// InstallmentFromDomain converts a domain installment to a response.
func InstallmentFromDomain(i *domain.Installment) *InstallmentResponse {
	return &InstallmentResponse{
		ID:               i.ID,
		CreditID:         i.CreditID,
		Number:           i.Number,
		DueDate:          i.DueDate,
		RateSnapshot:     i.RateSnapshot,
		TermSnapshot:     i.TermSnapshot,
		OwedMora:         i.OwedMora,
		OwedCorriente:    i.OwedCorriente,
		OwedPoliza:       i.OwedPoliza,
		OwedPrincipal:    i.OwedPrincipal,
		PaidMora:         i.PaidMora,
		PaidCorriente:    i.PaidCorriente,
		PaidPoliza:       i.PaidPoliza,
		PaidPrincipal:    i.PaidPrincipal,
		PreviousBalance:  i.PreviousBalance,
		ResultingBalance: i.ResultingBalance,
		Status:           string(i.Status),
		PaidAt:           i.PaidAt,
	}
}

// InstallmentsFromDomain converts domain installments to responses.
func InstallmentsFromDomain(installments []*domain.Installment) []*InstallmentResponse {
	result := make([]*InstallmentResponse, len(installments))
	for i, inst := range installments {
		result[i] = InstallmentFromDomain(inst)
	}
	return result
}

// BreakdownResponse is the four-way waterfall split.
type BreakdownResponse struct {
	Mora      decimal.Decimal `json:"mora"`
	Corriente decimal.Decimal `json:"corriente"`
	Poliza    decimal.Decimal `json:"poliza"`
	Principal decimal.Decimal `json:"principal"`
}

func breakdownFromDomain(b domain.Breakdown) BreakdownResponse {
	return BreakdownResponse{
		Mora:      b.Mora,
		Corriente: b.Corriente,
		Poliza:    b.Poliza,
		Principal: b.Principal,
	}
}

// ReversalResponse describes what a reversal undid.
type ReversalResponse struct {
	ReversedAt      time.Time         `json:"reversed_at"`
	Deltas          BreakdownResponse `json:"deltas"`
	BalanceRestored decimal.Decimal   `json:"balance_restored"`
	Floored         bool              `json:"floored"`
}

// PaymentResponse represents a payment in API responses.
type PaymentResponse struct {
	ID                 string            `json:"id"`
	CreditID           string            `json:"credit_id"`
	InstallmentNumber  int               `json:"installment_number"`
	BatchID            *string           `json:"batch_id,omitempty"`
	Amount             decimal.Decimal   `json:"amount"`
	Breakdown          BreakdownResponse `json:"breakdown"`
	BalanceBefore      decimal.Decimal   `json:"balance_before"`
	BalanceAfter       decimal.Decimal   `json:"balance_after"`
	Status             string            `json:"status"`
	Source             string            `json:"source"`
	Reversal           *ReversalResponse `json:"reversal,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}

// PaymentFromDomain converts a domain payment to a response.
func PaymentFromDomain(p *domain.Payment) *PaymentResponse {
	resp := &PaymentResponse{
		ID:                p.ID,
		CreditID:          p.CreditID,
		InstallmentNumber: p.InstallmentNumber,
		BatchID:           p.BatchID,
		Amount:            p.Amount,
		Breakdown:         breakdownFromDomain(p.Breakdown),
		BalanceBefore:     p.BalanceBefore,
		BalanceAfter:      p.BalanceAfter,
		Status:            string(p.Status),
		Source:            string(p.Source),
		CreatedAt:         p.CreatedAt,
	}

	if p.Reversal != nil {
		resp.Reversal = &ReversalResponse{
			ReversedAt:      p.Reversal.ReversedAt,
			Deltas:          breakdownFromDomain(p.Reversal.Deltas),
			BalanceRestored: p.Reversal.BalanceRestored,
			Floored:         p.Reversal.Floored,
		}
	}

	return resp
}

// PaymentsFromDomain converts domain payments to responses.
func PaymentsFromDomain(payments []*domain.Payment) []*PaymentResponse {
	result := make([]*PaymentResponse, len(payments))
	for i, p := range payments {
		result[i] = PaymentFromDomain(p)
	}
	return result
}

// ApplyPaymentResponse is a payment application outcome, including the
// suspense balance created for an overflow when there is one.
type ApplyPaymentResponse struct {
	Payment  *PaymentResponse  `json:"payment"`
	Suspense *SuspenseResponse `json:"suspense,omitempty"`
}

// ApplyResultFromDomain converts an apply result to a response.
func ApplyResultFromDomain(r *usecase.ApplyPaymentResult) *ApplyPaymentResponse {
	resp := &ApplyPaymentResponse{Payment: PaymentFromDomain(r.Payment)}
	if r.Suspense != nil {
		resp.Suspense = SuspenseFromDomain(r.Suspense)
	}
	return resp
}

// ProjectionResponse is the dry-run outcome of a payment or assignment.
type ProjectionResponse struct {
	InstallmentNumber int               `json:"installment_number"`
	Breakdown         BreakdownResponse `json:"breakdown"`
	Remainder         decimal.Decimal   `json:"remainder"`
	Settles           bool              `json:"settles"`
	BalanceAfter      decimal.Decimal   `json:"balance_after"`
}

// ProjectionFromDomain converts a payment projection to a response.
func ProjectionFromDomain(p *usecase.PaymentProjection) *ProjectionResponse {
	return &ProjectionResponse{
		InstallmentNumber: p.InstallmentNumber,
		Breakdown:         breakdownFromDomain(p.Breakdown),
		Remainder:         p.Remainder,
		Settles:           p.Settles,
		BalanceAfter:      p.BalanceAfter,
	}
}

// AssignmentProjectionResponse is the dry-run outcome of a suspense
// assignment.
type AssignmentProjectionResponse struct {
	Target            string            `json:"target"`
	InstallmentNumber int               `json:"installment_number,omitempty"`
	Breakdown         BreakdownResponse `json:"breakdown"`
	Remainder         decimal.Decimal   `json:"remainder"`
	Settles           bool              `json:"settles"`
	BalanceAfter      decimal.Decimal   `json:"balance_after"`
}

// AssignmentProjectionFromDomain converts an assignment projection.
func AssignmentProjectionFromDomain(p *usecase.AssignmentProjection) *AssignmentProjectionResponse {
	return &AssignmentProjectionResponse{
		Target:            string(p.Target),
		InstallmentNumber: p.InstallmentNumber,
		Breakdown:         breakdownFromDomain(p.Breakdown),
		Remainder:         p.Remainder,
		Settles:           p.Settles,
		BalanceAfter:      p.BalanceAfter,
	}
}

// AssignResultResponse is the outcome of a suspense assignment.
type AssignResultResponse struct {
	Suspense   *SuspenseResponse             `json:"suspense"`
	Payment    *PaymentResponse              `json:"payment"`
	Projection *AssignmentProjectionResponse `json:"projection"`
}

// AssignResultFromDomain converts an assignment result.
func AssignResultFromDomain(r *usecase.AssignResult) *AssignResultResponse {
	return &AssignResultResponse{
		Suspense:   SuspenseFromDomain(r.Suspense),
		Payment:    PaymentFromDomain(r.Payment),
		Projection: AssignmentProjectionFromDomain(r.Projection),
	}
}

// SuspenseResponse represents a suspense balance in API responses.
type SuspenseResponse struct {
	ID         string          `json:"id"`
	CreditID   string          `json:"credit_id"`
	PaymentID  string          `json:"payment_id"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	AssignedAt *time.Time      `json:"assigned_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SuspenseFromDomain converts a domain suspense balance to a response.
func SuspenseFromDomain(s *domain.SuspenseBalance) *SuspenseResponse {
	return &SuspenseResponse{
		ID:         s.ID,
		CreditID:   s.CreditID,
		PaymentID:  s.PaymentID,
		Amount:     s.Amount,
		Status:     string(s.Status),
		AssignedAt: s.AssignedAt,
		CreatedAt:  s.CreatedAt,
	}
}

// SuspensesFromDomain converts domain suspense balances to responses.
func SuspensesFromDomain(balances []*domain.SuspenseBalance) []*SuspenseResponse {
	result := make([]*SuspenseResponse, len(balances))
	for i, s := range balances {
		result[i] = SuspenseFromDomain(s)
	}
	return result
}

// BatchResponse represents a batch upload in API responses.
type BatchResponse struct {
	ID          string          `json:"id"`
	DeductoraID string          `json:"deductora_id"`
	Period      string          `json:"period"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	VoidedBy    string          `json:"voided_by,omitempty"`
	VoidReason  string          `json:"void_reason,omitempty"`
	VoidedAt    *time.Time      `json:"voided_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// BatchFromDomain converts a domain batch upload to a response.
func BatchFromDomain(b *domain.BatchUpload) *BatchResponse {
	return &BatchResponse{
		ID:          b.ID,
		DeductoraID: b.DeductoraID,
		Period:      b.Period,
		Count:       b.Count,
		TotalAmount: b.TotalAmount,
		Status:      string(b.Status),
		VoidedBy:    b.VoidedBy,
		VoidReason:  b.VoidReason,
		VoidedAt:    b.VoidedAt,
		CreatedAt:   b.CreatedAt,
	}
}

// ApplyBatchResponse is the outcome of applying a planilla.
type ApplyBatchResponse struct {
	Batch    *BatchResponse     `json:"batch"`
	Payments []*PaymentResponse `json:"payments"`
}

// BatchResultFromDomain converts a batch application result.
func BatchResultFromDomain(r *usecase.ApplyBatchResult) *ApplyBatchResponse {
	return &ApplyBatchResponse{
		Batch:    BatchFromDomain(r.Batch),
		Payments: PaymentsFromDomain(r.Payments),
	}
}

// VoidResultResponse summarizes a batch reversal.
type VoidResultResponse struct {
	BatchID          string          `json:"batch_id"`
	PaymentsReversed int             `json:"payments_reversed"`
	TotalRestored    decimal.Decimal `json:"total_restored"`
}

// VoidResultFromDomain converts a void result.
func VoidResultFromDomain(r *usecase.VoidResult) *VoidResultResponse {
	return &VoidResultResponse{
		BatchID:          r.BatchID,
		PaymentsReversed: r.PaymentsReversed,
		TotalRestored:    r.TotalRestored,
	}
}

// ConsistencyResponse reports the ledger-wide balance invariant check.
type ConsistencyResponse struct {
	Consistent bool `json:"consistent"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
