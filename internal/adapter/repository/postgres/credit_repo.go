package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/usecase"
)

const creditColumns = `
	id, client_id, cedula, deductora_id, principal, charges, term_months,
	annual_rate, insurance_enabled, insurance_premium, disbursed_at,
	first_due_date, outstanding_balance, status, formalized_at,
	created_at, updated_at
`

// CreditRepository implements usecase.CreditRepository.
type CreditRepository struct {
	pool *pgxpool.Pool
}

// NewCreditRepository creates a new CreditRepository.
func NewCreditRepository(pool *pgxpool.Pool) *CreditRepository {
	return &CreditRepository{pool: pool}
}

// Create creates a new credit.
func (r *CreditRepository) Create(ctx context.Context, credit *domain.Credit) error {
	query := `
		INSERT INTO credits (` + creditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.pool.Exec(ctx, query,
		credit.ID,
		credit.ClientID,
		credit.Cedula,
		credit.DeductoraID,
		decimalToNumeric(credit.Principal),
		decimalToNumeric(credit.Charges),
		credit.TermMonths,
		decimalToNumeric(credit.AnnualRate),
		credit.InsuranceEnabled,
		decimalToNumeric(credit.InsurancePremium),
		timeToPgTimestamptz(credit.DisbursedAt),
		timeToPgTimestamptz(credit.FirstDueDate),
		decimalToNumeric(credit.OutstandingBalance),
		credit.Status,
		timePtrToPgTimestamptz(credit.FormalizedAt),
		timeToPgTimestamptz(credit.CreatedAt),
		timeToPgTimestamptz(credit.UpdatedAt),
	)

	return err
}

// GetByID retrieves a credit by ID.
func (r *CreditRepository) GetByID(ctx context.Context, id string) (*domain.Credit, error) {
	query := `SELECT ` + creditColumns + ` FROM credits WHERE id = $1`

	return r.scanCredit(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a credit by ID with a FOR UPDATE row lock. Every
// balance mutation goes through this lock.
func (r *CreditRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Credit, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + creditColumns + ` FROM credits WHERE id = $1 FOR UPDATE`

	credit, err := r.scanCredit(pgxTx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapLockError(err)
	}

	return credit, nil
}

// GetByIDsForUpdate locks multiple credits. Callers pass IDs in sorted order
// so concurrent batches acquire locks in the same sequence.
func (r *CreditRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Credit, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT ` + creditColumns + `
		FROM credits
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := pgxTx.Query(ctx, query, ids)
	if err != nil {
		return nil, mapLockError(err)
	}
	defer rows.Close()

	return r.scanCredits(rows)
}

// GetActiveByCedula resolves a payroll row to the borrower's credit in
// servicing under the given deductora.
func (r *CreditRepository) GetActiveByCedula(ctx context.Context, deductoraID, cedula string) (*domain.Credit, error) {
	query := `
		SELECT ` + creditColumns + `
		FROM credits
		WHERE deductora_id = $1 AND cedula = $2 AND status IN ($3, $4)
		ORDER BY formalized_at DESC
		LIMIT 1
	`

	return r.scanCredit(r.pool.QueryRow(ctx, query,
		deductoraID, cedula, domain.CreditStatusFormalizado, domain.CreditStatusEnMora))
}

// UpdateBalance updates the outstanding balance of a credit.
func (r *CreditRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `UPDATE credits SET outstanding_balance = $2, updated_at = $3 WHERE id = $1`

	tag, err := pgxTx.Exec(ctx, query, id, decimalToNumeric(balance), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCreditNotFound
	}

	return nil
}

// UpdateStatus updates the status of a credit.
func (r *CreditRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.CreditStatus, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `UPDATE credits SET status = $2, updated_at = $3 WHERE id = $1`

	tag, err := pgxTx.Exec(ctx, query, id, status, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCreditNotFound
	}

	return nil
}

// MarkFormalized freezes the credit: status Formalizado, outstanding balance
// opened at net principal, formalization timestamped.
func (r *CreditRepository) MarkFormalized(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, formalizedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE credits
		SET status = $2, outstanding_balance = $3, formalized_at = $4, updated_at = $4
		WHERE id = $1
	`

	tag, err := pgxTx.Exec(ctx, query,
		id, domain.CreditStatusFormalizado, decimalToNumeric(balance), timeToPgTimestamptz(formalizedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCreditNotFound
	}

	return nil
}

// List lists credits with pagination.
func (r *CreditRepository) List(ctx context.Context, limit, offset int) ([]*domain.Credit, error) {
	query := `
		SELECT ` + creditColumns + `
		FROM credits
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanCredits(rows)
}

func (r *CreditRepository) scanCredit(row pgx.Row) (*domain.Credit, error) {
	var (
		credit             domain.Credit
		principal          pgtype.Numeric
		charges            pgtype.Numeric
		annualRate         pgtype.Numeric
		insurancePremium   pgtype.Numeric
		outstandingBalance pgtype.Numeric
		disbursedAt        pgtype.Timestamptz
		firstDueDate       pgtype.Timestamptz
		formalizedAt       pgtype.Timestamptz
		createdAt          pgtype.Timestamptz
		updatedAt          pgtype.Timestamptz
	)

	err := row.Scan(
		&credit.ID,
		&credit.ClientID,
		&credit.Cedula,
		&credit.DeductoraID,
		&principal,
		&charges,
		&credit.TermMonths,
		&annualRate,
		&credit.InsuranceEnabled,
		&insurancePremium,
		&disbursedAt,
		&firstDueDate,
		&outstandingBalance,
		&credit.Status,
		&formalizedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCreditNotFound
		}
		return nil, err
	}

	credit.Principal = numericToDecimal(principal)
	credit.Charges = numericToDecimal(charges)
	credit.AnnualRate = numericToDecimal(annualRate)
	credit.InsurancePremium = numericToDecimal(insurancePremium)
	credit.OutstandingBalance = numericToDecimal(outstandingBalance)
	credit.DisbursedAt = disbursedAt.Time
	credit.FirstDueDate = firstDueDate.Time
	credit.FormalizedAt = pgTimestamptzToTimePtr(formalizedAt)
	credit.CreatedAt = createdAt.Time
	credit.UpdatedAt = updatedAt.Time

	return &credit, nil
}

func (r *CreditRepository) scanCredits(rows pgx.Rows) ([]*domain.Credit, error) {
	var credits []*domain.Credit
	for rows.Next() {
		credit, err := r.scanCredit(rows)
		if err != nil {
			return nil, err
		}
		credits = append(credits, credit)
	}

	return credits, rows.Err()
}
