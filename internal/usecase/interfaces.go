package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/credisol/crediledger/internal/domain"
)

// CreditRepository defines data access for credits.
type CreditRepository interface {
	Create(ctx context.Context, credit *domain.Credit) error
	GetByID(ctx context.Context, id string) (*domain.Credit, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Credit, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Credit, error)
	GetActiveByCedula(ctx context.Context, deductoraID, cedula string) (*domain.Credit, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.CreditStatus, updatedAt time.Time) error
	MarkFormalized(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, formalizedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Credit, error)
}

// InstallmentRepository defines data access for installments.
type InstallmentRepository interface {
	CreateBatch(ctx context.Context, tx Transaction, installments []*domain.Installment) error
	ListByCredit(ctx context.Context, creditID string) ([]*domain.Installment, error)
	ListByCreditTx(ctx context.Context, tx Transaction, creditID string) ([]*domain.Installment, error)
	GetByNumber(ctx context.Context, tx Transaction, creditID string, number int) (*domain.Installment, error)
	NextPending(ctx context.Context, tx Transaction, creditID string) (*domain.Installment, error)
	UpdateMovements(ctx context.Context, tx Transaction, installment *domain.Installment) error
	DeleteFromNumber(ctx context.Context, tx Transaction, creditID string, fromNumber int) error
}

// PaymentRepository defines data access for payments.
type PaymentRepository interface {
	Create(ctx context.Context, tx Transaction, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	ListByCredit(ctx context.Context, creditID string, limit, offset int) ([]*domain.Payment, error)
	ListByBatch(ctx context.Context, tx Transaction, batchID string) ([]*domain.Payment, error)
	MarkReversed(ctx context.Context, tx Transaction, id string, snapshot *domain.ReversalSnapshot) error
}

// SuspenseRepository defines data access for suspense balances.
type SuspenseRepository interface {
	Create(ctx context.Context, tx Transaction, suspense *domain.SuspenseBalance) error
	GetByID(ctx context.Context, id string) (*domain.SuspenseBalance, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.SuspenseBalance, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.SuspenseStatus, updatedAt time.Time) error
	DeleteByPayment(ctx context.Context, tx Transaction, paymentID string) error
	ListByCredit(ctx context.Context, creditID string) ([]*domain.SuspenseBalance, error)
}

// BatchRepository defines data access for batch uploads.
type BatchRepository interface {
	Create(ctx context.Context, tx Transaction, batch *domain.BatchUpload) error
	GetByID(ctx context.Context, id string) (*domain.BatchUpload, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.BatchUpload, error)
	MarkVoided(ctx context.Context, tx Transaction, id, actor, reason string, voidedAt time.Time) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
	GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

// LedgerRepository defines ledger-wide consistency queries.
type LedgerRepository interface {
	// FindBalanceMismatches returns credits whose outstanding balance does
	// not equal net principal minus applied principal plus reversed
	// principal.
	FindBalanceMismatches(ctx context.Context, limit int) ([]*domain.BalanceMismatch, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation when it fails with a transient storage error
// (lock contention, serialization failure). The operation must be safe to
// replay from the top.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
