package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentStatusAplicado  PaymentStatus = "Aplicado"
	PaymentStatusReversado PaymentStatus = "Reversado"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusAplicado:  {PaymentStatusReversado},
	PaymentStatusReversado: {},
}

// CanTransitionTo reports whether the transition is in the fixed table.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentSource tags where a payment came from.
type PaymentSource string

const (
	PaymentSourceVentanilla PaymentSource = "ventanilla"
	PaymentSourcePlanilla   PaymentSource = "planilla"
	PaymentSourceSuspense   PaymentSource = "suspense"
)

// Breakdown is the four-way split of a payment produced by the waterfall:
// late interest, current interest, insurance and principal.
type Breakdown struct {
	Mora      decimal.Decimal `json:"mora"`
	Corriente decimal.Decimal `json:"corriente"`
	Poliza    decimal.Decimal `json:"poliza"`
	Principal decimal.Decimal `json:"principal"`
}

// Total is the sum of all four components.
func (b Breakdown) Total() decimal.Decimal {
	return b.Mora.Add(b.Corriente).Add(b.Poliza).Add(b.Principal)
}

// IsZero reports whether every component is zero.
func (b Breakdown) IsZero() bool {
	return b.Total().IsZero()
}

// ReversalSnapshot records exactly what a reversal undid, for audit and to
// detect double-reversal attempts.
type ReversalSnapshot struct {
	ReversedAt      time.Time       `json:"reversed_at"`
	Deltas          Breakdown       `json:"deltas"`
	BalanceRestored decimal.Decimal `json:"balance_restored"`
	Floored         bool            `json:"floored"`
}

// Payment is one money movement against a credit. Amounts are never edited
// after creation; reversal only flips the status and stores a snapshot.
type Payment struct {
	ID                 string
	CreditID           string
	InstallmentNumber  int
	BatchID            *string
	Amount             decimal.Decimal
	Breakdown          Breakdown
	BalanceBefore      decimal.Decimal
	BalanceAfter       decimal.Decimal
	CreditStatusBefore CreditStatus
	Status             PaymentStatus
	Source             PaymentSource
	Reversal           *ReversalSnapshot
	CreatedAt          time.Time
}

// Validate validates a payment request amount.
func (p *Payment) Validate() error {
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}
