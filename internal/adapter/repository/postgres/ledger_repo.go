package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/credisol/crediledger/internal/domain"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// FindBalanceMismatches compares each formalized credit's stored outstanding
// balance against the balance derived from its payment history: net principal
// minus the principal portion of every applied payment. Reversed payments are
// excluded because their reversal already restored the stored balance.
func (r *LedgerRepository) FindBalanceMismatches(ctx context.Context, limit int) ([]*domain.BalanceMismatch, error) {
	query := `
		SELECT c.id,
		       c.outstanding_balance,
		       c.principal - c.charges - COALESCE(SUM(p.principal) FILTER (WHERE p.status = $1), 0) AS derived
		FROM credits c
		LEFT JOIN payments p ON p.credit_id = c.id
		WHERE c.formalized_at IS NOT NULL
		GROUP BY c.id, c.outstanding_balance, c.principal, c.charges
		HAVING c.outstanding_balance <> c.principal - c.charges - COALESCE(SUM(p.principal) FILTER (WHERE p.status = $1), 0)
		ORDER BY c.id
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, domain.PaymentStatusAplicado, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mismatches []*domain.BalanceMismatch
	for rows.Next() {
		var (
			mismatch domain.BalanceMismatch
			stored   pgtype.Numeric
			derived  pgtype.Numeric
		)
		if err := rows.Scan(&mismatch.CreditID, &stored, &derived); err != nil {
			return nil, err
		}
		mismatch.Stored = numericToDecimal(stored)
		mismatch.Derived = numericToDecimal(derived)
		mismatches = append(mismatches, &mismatch)
	}

	return mismatches, rows.Err()
}
