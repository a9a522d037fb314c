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

const batchColumns = `
	id, deductora_id, period, count, total_amount, status,
	voided_by, void_reason, voided_at, created_at
`

// BatchRepository implements usecase.BatchRepository.
type BatchRepository struct {
	pool *pgxpool.Pool
}

// NewBatchRepository creates a new BatchRepository.
func NewBatchRepository(pool *pgxpool.Pool) *BatchRepository {
	return &BatchRepository{pool: pool}
}

// Create inserts a batch upload inside the caller's transaction.
func (r *BatchRepository) Create(ctx context.Context, tx usecase.Transaction, batch *domain.BatchUpload) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO batch_uploads (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := pgxTx.Exec(ctx, query,
		batch.ID,
		batch.DeductoraID,
		batch.Period,
		batch.Count,
		decimalToNumeric(batch.TotalAmount),
		batch.Status,
		batch.VoidedBy,
		batch.VoidReason,
		timePtrToPgTimestamptz(batch.VoidedAt),
		timeToPgTimestamptz(batch.CreatedAt),
	)

	return err
}

// GetByID retrieves a batch upload by ID.
func (r *BatchRepository) GetByID(ctx context.Context, id string) (*domain.BatchUpload, error) {
	query := `SELECT ` + batchColumns + ` FROM batch_uploads WHERE id = $1`

	return scanBatch(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a batch with a FOR UPDATE row lock, serializing
// concurrent void attempts on the same batch.
func (r *BatchRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.BatchUpload, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + batchColumns + ` FROM batch_uploads WHERE id = $1 FOR UPDATE`

	batch, err := scanBatch(pgxTx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapLockError(err)
	}

	return batch, nil
}

// MarkVoided records who voided the batch and why. The status guard turns a
// concurrent double void into zero affected rows.
func (r *BatchRepository) MarkVoided(ctx context.Context, tx usecase.Transaction, id, actor, reason string, voidedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE batch_uploads
		SET status = $2, voided_by = $3, void_reason = $4, voided_at = $5
		WHERE id = $1 AND status = $6
	`

	tag, err := pgxTx.Exec(ctx, query,
		id, domain.BatchStatusVoided, actor, reason,
		timeToPgTimestamptz(voidedAt), domain.BatchStatusProcessed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyVoided
	}

	return nil
}

func scanBatch(row pgx.Row) (*domain.BatchUpload, error) {
	var (
		batch       domain.BatchUpload
		totalAmount pgtype.Numeric
		voidedAt    pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&batch.ID,
		&batch.DeductoraID,
		&batch.Period,
		&batch.Count,
		&totalAmount,
		&batch.Status,
		&batch.VoidedBy,
		&batch.VoidReason,
		&voidedAt,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBatchNotFound
		}
		return nil, err
	}

	batch.TotalAmount = numericToDecimal(totalAmount)
	batch.VoidedAt = pgTimestamptzToTimePtr(voidedAt)
	batch.CreatedAt = createdAt.Time

	return &batch, nil
}
