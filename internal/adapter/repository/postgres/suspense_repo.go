package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/usecase"
)

const suspenseColumns = `
	id, credit_id, payment_id, amount, status, assigned_at, created_at, updated_at
`

// SuspenseRepository implements usecase.SuspenseRepository.
type SuspenseRepository struct {
	pool *pgxpool.Pool
}

// NewSuspenseRepository creates a new SuspenseRepository.
func NewSuspenseRepository(pool *pgxpool.Pool) *SuspenseRepository {
	return &SuspenseRepository{pool: pool}
}

// Create inserts a suspense balance inside the caller's transaction.
func (r *SuspenseRepository) Create(ctx context.Context, tx usecase.Transaction, suspense *domain.SuspenseBalance) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO suspense_balances (` + suspenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := pgxTx.Exec(ctx, query,
		suspense.ID,
		suspense.CreditID,
		suspense.PaymentID,
		decimalToNumeric(suspense.Amount),
		suspense.Status,
		timePtrToPgTimestamptz(suspense.AssignedAt),
		timeToPgTimestamptz(suspense.CreatedAt),
		timeToPgTimestamptz(suspense.UpdatedAt),
	)

	return err
}

// GetByID retrieves a suspense balance by ID.
func (r *SuspenseRepository) GetByID(ctx context.Context, id string) (*domain.SuspenseBalance, error) {
	query := `SELECT ` + suspenseColumns + ` FROM suspense_balances WHERE id = $1`

	return scanSuspense(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a suspense balance with a FOR UPDATE row lock.
func (r *SuspenseRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.SuspenseBalance, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + suspenseColumns + ` FROM suspense_balances WHERE id = $1 FOR UPDATE`

	suspense, err := scanSuspense(pgxTx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapLockError(err)
	}

	return suspense, nil
}

// UpdateStatus moves a suspense balance to its assigned state.
func (r *SuspenseRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.SuspenseStatus, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE suspense_balances
		SET status = $2, assigned_at = $3, updated_at = $3
		WHERE id = $1
	`

	tag, err := pgxTx.Exec(ctx, query, id, status, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSuspenseNotFound
	}

	return nil
}

// DeleteByPayment removes suspense balances a payment originated, used when
// the payment itself is reversed.
func (r *SuspenseRepository) DeleteByPayment(ctx context.Context, tx usecase.Transaction, paymentID string) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `DELETE FROM suspense_balances WHERE payment_id = $1`

	_, err := pgxTx.Exec(ctx, query, paymentID)
	return err
}

// ListByCredit lists suspense balances for a credit.
func (r *SuspenseRepository) ListByCredit(ctx context.Context, creditID string) ([]*domain.SuspenseBalance, error) {
	query := `
		SELECT ` + suspenseColumns + `
		FROM suspense_balances
		WHERE credit_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, creditID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []*domain.SuspenseBalance
	for rows.Next() {
		suspense, err := scanSuspense(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, suspense)
	}

	return balances, rows.Err()
}

func scanSuspense(row pgx.Row) (*domain.SuspenseBalance, error) {
	var (
		suspense   domain.SuspenseBalance
		amount     pgtype.Numeric
		assignedAt pgtype.Timestamptz
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)

	err := row.Scan(
		&suspense.ID,
		&suspense.CreditID,
		&suspense.PaymentID,
		&amount,
		&suspense.Status,
		&assignedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSuspenseNotFound
		}
		return nil, err
	}

	suspense.Amount = numericToDecimal(amount)
	suspense.AssignedAt = pgTimestamptzToTimePtr(assignedAt)
	suspense.CreatedAt = createdAt.Time
	suspense.UpdatedAt = updatedAt.Time

	return &suspense, nil
}
