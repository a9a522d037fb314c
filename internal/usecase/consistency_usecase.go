package usecase

import (
	"context"
	"errors"
)

var (
	// ErrInconsistentLedger is returned when any credit's stored balance
	// diverges from the balance derived from its payments.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: stored balances diverge from payment history")
)

// ConsistencyUseCase verifies the ledger-wide balance invariant: for every
// credit, outstanding balance equals net principal minus the principal
// portion of applied payments plus the principal portion of reversed ones.
type ConsistencyUseCase struct {
	ledgerRepo LedgerRepository
}

// NewConsistencyUseCase creates a new ConsistencyUseCase.
func NewConsistencyUseCase(ledgerRepo LedgerRepository) *ConsistencyUseCase {
	return &ConsistencyUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// Check verifies the invariant and returns any offending credits.
func (uc *ConsistencyUseCase) Check(ctx context.Context) (bool, error) {
	mismatches, err := uc.ledgerRepo.FindBalanceMismatches(ctx, 100)
	if err != nil {
		return false, err
	}

	if len(mismatches) > 0 {
		return false, ErrInconsistentLedger
	}

	return true, nil
}
