package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/usecase"
)

const paymentColumns = `
	id, credit_id, installment_number, batch_id, amount,
	mora, corriente, poliza, principal,
	balance_before, balance_after, credit_status_before,
	status, source, reversal, created_at
`

// PaymentRepository implements usecase.PaymentRepository.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create inserts a payment inside the caller's transaction.
func (r *PaymentRepository) Create(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	var reversal []byte
	if payment.Reversal != nil {
		var err error
		reversal, err = json.Marshal(payment.Reversal)
		if err != nil {
			return err
		}
	}

	_, err := pgxTx.Exec(ctx, query,
		payment.ID,
		payment.CreditID,
		payment.InstallmentNumber,
		payment.BatchID,
		decimalToNumeric(payment.Amount),
		decimalToNumeric(payment.Breakdown.Mora),
		decimalToNumeric(payment.Breakdown.Corriente),
		decimalToNumeric(payment.Breakdown.Poliza),
		decimalToNumeric(payment.Breakdown.Principal),
		decimalToNumeric(payment.BalanceBefore),
		decimalToNumeric(payment.BalanceAfter),
		payment.CreditStatusBefore,
		payment.Status,
		payment.Source,
		reversal,
		timeToPgTimestamptz(payment.CreatedAt),
	)

	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	return scanPayment(r.pool.QueryRow(ctx, query, id))
}

// ListByCredit lists payments for a credit, newest first.
func (r *PaymentRepository) ListByCredit(ctx context.Context, creditID string, limit, offset int) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE credit_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, creditID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayments(rows)
}

// ListByBatch lists a batch's payments in application order, inside the
// caller's transaction.
func (r *PaymentRepository) ListByBatch(ctx context.Context, tx usecase.Transaction, batchID string) ([]*domain.Payment, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE batch_id = $1
		ORDER BY created_at, id
	`

	rows, err := pgxTx.Query(ctx, query, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayments(rows)
}

// MarkReversed flips a payment to Reversado and stores the reversal snapshot.
// The guard on status makes a concurrent double reversal a no-op the caller
// can detect.
func (r *PaymentRepository) MarkReversed(ctx context.Context, tx usecase.Transaction, id string, snapshot *domain.ReversalSnapshot) error {
	pgxTx := tx.(*Tx).PgxTx()

	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	query := `
		UPDATE payments
		SET status = $2, reversal = $3
		WHERE id = $1 AND status = $4
	`

	tag, err := pgxTx.Exec(ctx, query, id, domain.PaymentStatusReversado, raw, domain.PaymentStatusAplicado)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateReversal
	}

	return nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		payment       domain.Payment
		amount        pgtype.Numeric
		mora          pgtype.Numeric
		corriente     pgtype.Numeric
		poliza        pgtype.Numeric
		principal     pgtype.Numeric
		balanceBefore pgtype.Numeric
		balanceAfter  pgtype.Numeric
		reversal      []byte
		createdAt     pgtype.Timestamptz
	)

	err := row.Scan(
		&payment.ID,
		&payment.CreditID,
		&payment.InstallmentNumber,
		&payment.BatchID,
		&amount,
		&mora,
		&corriente,
		&poliza,
		&principal,
		&balanceBefore,
		&balanceAfter,
		&payment.CreditStatusBefore,
		&payment.Status,
		&payment.Source,
		&reversal,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}

	payment.Amount = numericToDecimal(amount)
	payment.Breakdown = domain.Breakdown{
		Mora:      numericToDecimal(mora),
		Corriente: numericToDecimal(corriente),
		Poliza:    numericToDecimal(poliza),
		Principal: numericToDecimal(principal),
	}
	payment.BalanceBefore = numericToDecimal(balanceBefore)
	payment.BalanceAfter = numericToDecimal(balanceAfter)
	payment.CreatedAt = createdAt.Time

	if reversal != nil {
		var snapshot domain.ReversalSnapshot
		if err := json.Unmarshal(reversal, &snapshot); err != nil {
			return nil, err
		}
		payment.Reversal = &snapshot
	}

	return &payment, nil
}

func scanPayments(rows pgx.Rows) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}
