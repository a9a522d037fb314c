package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditStatus is the lifecycle state of a credit.
type CreditStatus string

const (
	CreditStatusPendiente   CreditStatus = "Pendiente"
	CreditStatusFormalizado CreditStatus = "Formalizado"
	CreditStatusEnMora      CreditStatus = "En Mora"
	CreditStatusCancelado   CreditStatus = "Cancelado"
	CreditStatusRefundido   CreditStatus = "Refundido"
)

var creditTransitions = map[CreditStatus][]CreditStatus{
	CreditStatusPendiente:   {CreditStatusFormalizado},
	CreditStatusFormalizado: {CreditStatusEnMora, CreditStatusCancelado, CreditStatusRefundido},
	CreditStatusEnMora:      {CreditStatusFormalizado, CreditStatusCancelado, CreditStatusRefundido},
	CreditStatusCancelado:   {},
	CreditStatusRefundido:   {},
}

// CanTransitionTo reports whether the transition is in the fixed table.
func (s CreditStatus) CanTransitionTo(next CreditStatus) bool {
	for _, allowed := range creditTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Credit represents one loan. The annual rate is frozen into the credit at
// formalization; the servicing engine never re-reads a live rate table.
type Credit struct {
	ID                 string
	ClientID           string
	Cedula             string
	DeductoraID        string
	Principal          decimal.Decimal
	Charges            decimal.Decimal
	TermMonths         int
	AnnualRate         decimal.Decimal
	InsuranceEnabled   bool
	InsurancePremium   decimal.Decimal
	DisbursedAt        time.Time
	FirstDueDate       time.Time
	OutstandingBalance decimal.Decimal
	Status             CreditStatus
	FormalizedAt       *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NetPrincipal is the disbursed principal minus one-time charges. It is the
// amount the schedule amortizes.
func (c *Credit) NetPrincipal() decimal.Decimal {
	return c.Principal.Sub(c.Charges)
}

// MonthlyRate is the frozen annual rate expressed as a monthly fraction.
func (c *Credit) MonthlyRate() decimal.Decimal {
	return c.AnnualRate.Div(decimal.NewFromInt(100)).Div(decimal.NewFromInt(12))
}

// Transition moves the credit to the next status, rejecting transitions not
// in the table.
func (c *Credit) Transition(next CreditStatus) error {
	if !c.Status.CanTransitionTo(next) {
		return ErrInvalidStatusTransition
	}
	c.Status = next
	return nil
}

// Servicing reports whether payments may be applied to the credit.
func (c *Credit) Servicing() bool {
	return c.Status == CreditStatusFormalizado || c.Status == CreditStatusEnMora
}

// BalanceMismatch reports a credit whose stored outstanding balance diverges
// from the balance derived from its payment history.
type BalanceMismatch struct {
	CreditID string
	Stored   decimal.Decimal
	Derived  decimal.Decimal
}
