package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/usecase"
)

const installmentColumns = `
	id, credit_id, number, due_date, rate_snapshot, term_snapshot,
	owed_mora, owed_corriente, owed_poliza, owed_principal,
	paid_mora, paid_corriente, paid_poliza, paid_principal,
	previous_balance, resulting_balance, status, paid_at,
	created_at, updated_at
`

// InstallmentRepository implements usecase.InstallmentRepository.
type InstallmentRepository struct {
	pool *pgxpool.Pool
}

// NewInstallmentRepository creates a new InstallmentRepository.
func NewInstallmentRepository(pool *pgxpool.Pool) *InstallmentRepository {
	return &InstallmentRepository{pool: pool}
}

// CreateBatch inserts a whole schedule in one round trip.
func (r *InstallmentRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, installments []*domain.Installment) error {
	pgxTx := tx.(*Tx).PgxTx()

	batch := &pgx.Batch{}
	query := `
		INSERT INTO installments (` + installmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	for _, inst := range installments {
		batch.Queue(query,
			inst.ID,
			inst.CreditID,
			inst.Number,
			timeToPgTimestamptz(inst.DueDate),
			decimalToNumeric(inst.RateSnapshot),
			inst.TermSnapshot,
			decimalToNumeric(inst.OwedMora),
			decimalToNumeric(inst.OwedCorriente),
			decimalToNumeric(inst.OwedPoliza),
			decimalToNumeric(inst.OwedPrincipal),
			decimalToNumeric(inst.PaidMora),
			decimalToNumeric(inst.PaidCorriente),
			decimalToNumeric(inst.PaidPoliza),
			decimalToNumeric(inst.PaidPrincipal),
			decimalToNumeric(inst.PreviousBalance),
			decimalToNumeric(inst.ResultingBalance),
			inst.Status,
			timePtrToPgTimestamptz(inst.PaidAt),
			timeToPgTimestamptz(inst.CreatedAt),
			timeToPgTimestamptz(inst.UpdatedAt),
		)
	}

	return pgxTx.SendBatch(ctx, batch).Close()
}

// ListByCredit lists a credit's installments ordered by number.
func (r *InstallmentRepository) ListByCredit(ctx context.Context, creditID string) ([]*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE credit_id = $1
		ORDER BY number
	`

	rows, err := r.pool.Query(ctx, query, creditID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanInstallments(rows)
}

// ListByCreditTx lists installments inside the caller's transaction, so a
// regeneration sees rows consistent with the credit it just locked.
func (r *InstallmentRepository) ListByCreditTx(ctx context.Context, tx usecase.Transaction, creditID string) ([]*domain.Installment, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE credit_id = $1
		ORDER BY number
	`

	rows, err := pgxTx.Query(ctx, query, creditID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanInstallments(rows)
}

// GetByNumber retrieves one installment by credit and number.
func (r *InstallmentRepository) GetByNumber(ctx context.Context, tx usecase.Transaction, creditID string, number int) (*domain.Installment, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE credit_id = $1 AND number = $2
	`

	return scanInstallment(pgxTx.QueryRow(ctx, query, creditID, number))
}

// NextPending returns the lowest-numbered pending installment.
func (r *InstallmentRepository) NextPending(ctx context.Context, tx usecase.Transaction, creditID string) (*domain.Installment, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE credit_id = $1 AND number > 0 AND status = $2
		ORDER BY number
		LIMIT 1
	`

	inst, err := scanInstallment(pgxTx.QueryRow(ctx, query, creditID, domain.InstallmentStatusPendiente))
	if err != nil {
		if errors.Is(err, domain.ErrInstallmentNotFound) {
			return nil, domain.ErrNoPendingInstallment
		}
		return nil, err
	}

	return inst, nil
}

// UpdateMovements persists the cumulative movement columns, status and
// payment date after an application or reversal.
func (r *InstallmentRepository) UpdateMovements(ctx context.Context, tx usecase.Transaction, installment *domain.Installment) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE installments
		SET paid_mora = $3, paid_corriente = $4, paid_poliza = $5, paid_principal = $6,
		    status = $7, paid_at = $8, updated_at = $9
		WHERE credit_id = $1 AND number = $2
	`

	tag, err := pgxTx.Exec(ctx, query,
		installment.CreditID,
		installment.Number,
		decimalToNumeric(installment.PaidMora),
		decimalToNumeric(installment.PaidCorriente),
		decimalToNumeric(installment.PaidPoliza),
		decimalToNumeric(installment.PaidPrincipal),
		installment.Status,
		timePtrToPgTimestamptz(installment.PaidAt),
		timeToPgTimestamptz(installment.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInstallmentNotFound
	}

	return nil
}

// DeleteFromNumber removes installments numbered fromNumber and above, the
// tail a regeneration is about to rebuild.
func (r *InstallmentRepository) DeleteFromNumber(ctx context.Context, tx usecase.Transaction, creditID string, fromNumber int) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `DELETE FROM installments WHERE credit_id = $1 AND number >= $2`

	_, err := pgxTx.Exec(ctx, query, creditID, fromNumber)
	return err
}

func scanInstallment(row pgx.Row) (*domain.Installment, error) {
	var (
		inst             domain.Installment
		rateSnapshot     pgtype.Numeric
		owedMora         pgtype.Numeric
		owedCorriente    pgtype.Numeric
		owedPoliza       pgtype.Numeric
		owedPrincipal    pgtype.Numeric
		paidMora         pgtype.Numeric
		paidCorriente    pgtype.Numeric
		paidPoliza       pgtype.Numeric
		paidPrincipal    pgtype.Numeric
		previousBalance  pgtype.Numeric
		resultingBalance pgtype.Numeric
		dueDate          pgtype.Timestamptz
		paidAt           pgtype.Timestamptz
		createdAt        pgtype.Timestamptz
		updatedAt        pgtype.Timestamptz
	)

	err := row.Scan(
		&inst.ID,
		&inst.CreditID,
		&inst.Number,
		&dueDate,
		&rateSnapshot,
		&inst.TermSnapshot,
		&owedMora,
		&owedCorriente,
		&owedPoliza,
		&owedPrincipal,
		&paidMora,
		&paidCorriente,
		&paidPoliza,
		&paidPrincipal,
		&previousBalance,
		&resultingBalance,
		&inst.Status,
		&paidAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInstallmentNotFound
		}
		return nil, err
	}

	inst.DueDate = dueDate.Time
	inst.RateSnapshot = numericToDecimal(rateSnapshot)
	inst.OwedMora = numericToDecimal(owedMora)
	inst.OwedCorriente = numericToDecimal(owedCorriente)
	inst.OwedPoliza = numericToDecimal(owedPoliza)
	inst.OwedPrincipal = numericToDecimal(owedPrincipal)
	inst.PaidMora = numericToDecimal(paidMora)
	inst.PaidCorriente = numericToDecimal(paidCorriente)
	inst.PaidPoliza = numericToDecimal(paidPoliza)
	inst.PaidPrincipal = numericToDecimal(paidPrincipal)
	inst.PreviousBalance = numericToDecimal(previousBalance)
	inst.ResultingBalance = numericToDecimal(resultingBalance)
	inst.PaidAt = pgTimestamptzToTimePtr(paidAt)
	inst.CreatedAt = createdAt.Time
	inst.UpdatedAt = updatedAt.Time

	return &inst, nil
}

func scanInstallments(rows pgx.Rows) ([]*domain.Installment, error) {
	var installments []*domain.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}

	return installments, rows.Err()
}
