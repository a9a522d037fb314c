package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SuspenseStatus is the lifecycle state of a suspense balance.
type SuspenseStatus string

const (
	SuspenseStatusPending               SuspenseStatus = "pending"
	SuspenseStatusAssignedToInstallment SuspenseStatus = "assigned_to_installment"
	SuspenseStatusAssignedToPrincipal   SuspenseStatus = "assigned_to_principal"
)

var suspenseTransitions = map[SuspenseStatus][]SuspenseStatus{
	SuspenseStatusPending: {SuspenseStatusAssignedToInstallment, SuspenseStatusAssignedToPrincipal},
	SuspenseStatusAssignedToInstallment: {},
	SuspenseStatusAssignedToPrincipal:   {},
}

// CanTransitionTo reports whether the transition is in the fixed table.
func (s SuspenseStatus) CanTransitionTo(next SuspenseStatus) bool {
	for _, allowed := range suspenseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SuspenseTarget is where a pending suspense balance can be assigned.
type SuspenseTarget string

const (
	SuspenseTargetNextInstallment SuspenseTarget = "next_installment"
	SuspenseTargetPrincipal       SuspenseTarget = "principal"
)

// SuspenseBalance is money received in excess of everything currently owed,
// parked until it is assigned to a future installment or to principal.
// Voiding the batch that produced its originating payment deletes it.
type SuspenseBalance struct {
	ID         string
	CreditID   string
	PaymentID  string
	Amount     decimal.Decimal
	Status     SuspenseStatus
	AssignedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
