package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus is the lifecycle state of an installment.
type InstallmentStatus string

const (
	// InstallmentStatusVigente marks row 0, the disbursement marker. It is
	// never eligible for payment application.
	InstallmentStatusVigente InstallmentStatus = "Vigente"

	InstallmentStatusPendiente InstallmentStatus = "Pendiente"
	InstallmentStatusPagado    InstallmentStatus = "Pagado"
)

var installmentTransitions = map[InstallmentStatus][]InstallmentStatus{
	InstallmentStatusVigente:   {},
	InstallmentStatusPendiente: {InstallmentStatusPagado},
	// A full reversal sends a paid installment back to pending.
	InstallmentStatusPagado: {InstallmentStatusPendiente},
}

// CanTransitionTo reports whether the transition is in the fixed table.
func (s InstallmentStatus) CanTransitionTo(next InstallmentStatus) bool {
	for _, allowed := range installmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Installment is one scheduled period of a credit. Row 0 represents the
// disbursement itself. Owed* columns are the scheduled amounts; Paid*
// columns are cumulative movements from applied payments.
type Installment struct {
	ID           string
	CreditID     string
	Number       int
	DueDate      time.Time
	RateSnapshot decimal.Decimal
	TermSnapshot int

	OwedMora      decimal.Decimal
	OwedCorriente decimal.Decimal
	OwedPoliza    decimal.Decimal
	OwedPrincipal decimal.Decimal

	PaidMora      decimal.Decimal
	PaidCorriente decimal.Decimal
	PaidPoliza    decimal.Decimal
	PaidPrincipal decimal.Decimal

	PreviousBalance  decimal.Decimal
	ResultingBalance decimal.Decimal

	Status    InstallmentStatus
	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalOwed is the sum of the four scheduled components.
func (i *Installment) TotalOwed() decimal.Decimal {
	return i.OwedMora.Add(i.OwedCorriente).Add(i.OwedPoliza).Add(i.OwedPrincipal)
}

// TotalPaid is the sum of the four cumulative movements.
func (i *Installment) TotalPaid() decimal.Decimal {
	return i.PaidMora.Add(i.PaidCorriente).Add(i.PaidPoliza).Add(i.PaidPrincipal)
}

// Settled reports whether cumulative movements cover everything owed.
func (i *Installment) Settled() bool {
	return i.TotalPaid().GreaterThanOrEqual(i.TotalOwed())
}

// Payable reports whether the installment can receive money.
func (i *Installment) Payable() bool {
	return i.Number > 0 && i.Status != InstallmentStatusVigente
}

// ApplyBreakdown adds a waterfall breakdown to the cumulative movement
// columns and flips the status to Pagado when the installment settles.
func (i *Installment) ApplyBreakdown(b Breakdown, at time.Time) {
	i.PaidMora = i.PaidMora.Add(b.Mora)
	i.PaidCorriente = i.PaidCorriente.Add(b.Corriente)
	i.PaidPoliza = i.PaidPoliza.Add(b.Poliza)
	i.PaidPrincipal = i.PaidPrincipal.Add(b.Principal)

	if i.Status == InstallmentStatusPendiente && i.Settled() {
		i.Status = InstallmentStatusPagado
		paidAt := at
		i.PaidAt = &paidAt
	}
	i.UpdatedAt = at
}

// ReverseBreakdown subtracts a breakdown from the cumulative movement
// columns, flooring each column at zero rather than going negative. It
// returns the deltas actually reversed and whether any column was floored.
// When the cumulative total drops to zero the installment returns to
// Pendiente and its payment date is cleared.
func (i *Installment) ReverseBreakdown(b Breakdown, at time.Time) (Breakdown, bool) {
	var floored bool

	clamp := func(paid, delta decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
		if delta.GreaterThan(paid) {
			floored = true
			return decimal.Zero, paid
		}
		return paid.Sub(delta), delta
	}

	var reversed Breakdown
	i.PaidMora, reversed.Mora = clamp(i.PaidMora, b.Mora)
	i.PaidCorriente, reversed.Corriente = clamp(i.PaidCorriente, b.Corriente)
	i.PaidPoliza, reversed.Poliza = clamp(i.PaidPoliza, b.Poliza)
	i.PaidPrincipal, reversed.Principal = clamp(i.PaidPrincipal, b.Principal)

	if i.Status == InstallmentStatusPagado && i.TotalPaid().IsZero() {
		i.Status = InstallmentStatusPendiente
		i.PaidAt = nil
	}
	i.UpdatedAt = at

	return reversed, floored
}
