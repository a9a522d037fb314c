package integration

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	postgresRepo "github.com/credisol/crediledger/internal/adapter/repository/postgres"
	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/usecase"
	"github.com/credisol/crediledger/tests/testutil"
)

// env wires real repositories and use cases against the test database.
type env struct {
	db *testutil.TestDB

	creditRepo      *postgresRepo.CreditRepository
	installmentRepo *postgresRepo.InstallmentRepository
	paymentRepo     *postgresRepo.PaymentRepository
	suspenseRepo    *postgresRepo.SuspenseRepository
	batchRepo       *postgresRepo.BatchRepository
	outboxRepo      *postgresRepo.OutboxRepository
	auditRepo       *postgresRepo.AuditRepository
	ledgerRepo      *postgresRepo.LedgerRepository

	creditUC      *usecase.CreditUseCase
	scheduleUC    *usecase.ScheduleUseCase
	paymentUC     *usecase.PaymentUseCase
	suspenseUC    *usecase.SuspenseUseCase
	voidUC        *usecase.VoidUseCase
	consistencyUC *usecase.ConsistencyUseCase
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := testutil.NewTestDB(t)
	t.Cleanup(db.Cleanup)

	db.TruncateAll(context.Background())

	txManager := postgresRepo.NewTxManager(db.Pool)
	creditRepo := postgresRepo.NewCreditRepository(db.Pool)
	installmentRepo := postgresRepo.NewInstallmentRepository(db.Pool)
	paymentRepo := postgresRepo.NewPaymentRepository(db.Pool)
	suspenseRepo := postgresRepo.NewSuspenseRepository(db.Pool)
	batchRepo := postgresRepo.NewBatchRepository(db.Pool)
	outboxRepo := postgresRepo.NewOutboxRepository(db.Pool)
	auditRepo := postgresRepo.NewAuditRepository(db.Pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(db.Pool)
	cache := testutil.NewTestCache(t)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()

	return &env{
		db:              db,
		creditRepo:      creditRepo,
		installmentRepo: installmentRepo,
		paymentRepo:     paymentRepo,
		suspenseRepo:    suspenseRepo,
		batchRepo:       batchRepo,
		outboxRepo:      outboxRepo,
		auditRepo:       auditRepo,
		ledgerRepo:      ledgerRepo,

		creditUC:   usecase.NewCreditUseCase(creditRepo, installmentRepo, cache, idGen),
		scheduleUC: usecase.NewScheduleUseCase(txManager, creditRepo, installmentRepo, outboxRepo, cache, idGen),
		paymentUC: usecase.NewPaymentUseCase(
			txManager, creditRepo, installmentRepo, paymentRepo,
			suspenseRepo, batchRepo, outboxRepo, cache, idGen, nil,
		).WithRetrier(retrier),
		suspenseUC: usecase.NewSuspenseUseCase(
			txManager, creditRepo, installmentRepo, paymentRepo,
			suspenseRepo, outboxRepo, cache, idGen,
		),
		voidUC: usecase.NewVoidUseCase(
			txManager, creditRepo, installmentRepo, paymentRepo,
			suspenseRepo, batchRepo, outboxRepo, auditRepo, cache, idGen, zerolog.Nop(),
		).WithRetrier(retrier),
		consistencyUC: usecase.NewConsistencyUseCase(ledgerRepo),
	}
}

// formalizedCredit creates a credit and takes it through formalization.
func (e *env) formalizedCredit(t *testing.T, ctx context.Context, p testutil.CreditParams) *domain.Credit {
	t.Helper()

	credit := e.db.CreateTestCredit(ctx, p)

	if _, err := e.scheduleUC.Formalize(ctx, credit.ID); err != nil {
		t.Fatalf("failed to formalize credit: %v", err)
	}

	formalized, err := e.creditUC.GetCredit(ctx, credit.ID)
	if err != nil {
		t.Fatalf("failed to reload credit: %v", err)
	}
	return formalized
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}
