package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/infrastructure/metrics"
)

// PaymentUseCase handles payment application, single and batched.
type PaymentUseCase struct {
	txManager       TransactionManager
	creditRepo      CreditRepository
	installmentRepo InstallmentRepository
	paymentRepo     PaymentRepository
	batchRepo       BatchRepository
	cache           Cache
	metrics         *metrics.Metrics // optional
	retrier         Retrier // optional
	writer          *ledgerWriter
}

// NewPaymentUseCase creates a new PaymentUseCase.
func NewPaymentUseCase(
	txManager TransactionManager,
	creditRepo CreditRepository,
	installmentRepo InstallmentRepository,
	paymentRepo PaymentRepository,
	suspenseRepo SuspenseRepository,
	batchRepo BatchRepository,
	outboxRepo OutboxRepository,
	cache Cache,
	idGen IDGenerator,
	m *metrics.Metrics,
) *PaymentUseCase {
	return &PaymentUseCase{
		txManager:       txManager,
		creditRepo:      creditRepo,
		installmentRepo: installmentRepo,
		paymentRepo:     paymentRepo,
		batchRepo:       batchRepo,
		cache:           cache,
		metrics:         m,
		writer: &ledgerWriter{
			creditRepo:      creditRepo,
			installmentRepo: installmentRepo,
			paymentRepo:     paymentRepo,
			suspenseRepo:    suspenseRepo,
			outboxRepo:      outboxRepo,
			idGen:           idGen,
		},
	}
}

// WithRetrier makes batch application replay on lock contention. Two
// overlapping planillas lock several credit rows each; the loser deadlocks,
// rolls back and retries from the locks.
func (uc *PaymentUseCase) WithRetrier(r Retrier) *PaymentUseCase {
	uc.retrier = r
	return uc
}

func (uc *PaymentUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

// ApplyPaymentInput represents a single incoming payment.
type ApplyPaymentInput struct {
	CreditID          string
	Amount            decimal.Decimal
	InstallmentNumber *int // nil targets the next pending installment
	Source            domain.PaymentSource
}

// ApplyPaymentResult is the outcome of applying one payment.
type ApplyPaymentResult struct {
	Payment  *domain.Payment
	Suspense *domain.SuspenseBalance
}

// Apply applies a single payment to a credit under its row lock.
func (uc *PaymentUseCase) Apply(ctx context.Context, input ApplyPaymentInput) (*ApplyPaymentResult, error) {
	start := time.Now()

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	credit, err := uc.creditRepo.GetByIDForUpdate(ctx, tx, input.CreditID)
	if err != nil {
		return nil, err
	}

	if !credit.Servicing() {
		return nil, domain.ErrCreditNotFormalized
	}

	installment, err := uc.targetInstallment(ctx, tx, credit.ID, input.InstallmentNumber)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	source := input.Source
	if source == "" {
		source = domain.PaymentSourceVentanilla
	}

	payment, suspense, err := uc.writer.Apply(ctx, tx, credit, installment, input.Amount, source, nil, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.invalidateSchedule(ctx, credit.ID)

	if uc.metrics != nil {
		uc.metrics.PaymentsApplied.WithLabelValues(string(source)).Inc()
		uc.metrics.PaymentDuration.Observe(time.Since(start).Seconds())
		amount, _ := input.Amount.Float64()
		uc.metrics.PaymentAmount.Observe(amount)
		if suspense != nil {
			uc.metrics.SuspenseCreated.Inc()
		}
	}

	return &ApplyPaymentResult{Payment: payment, Suspense: suspense}, nil
}

// targetInstallment resolves which installment a payment lands on: the
// explicit number when given, otherwise the next pending one. When nothing
// is pending the result is nil and the full amount goes to suspense.
func (uc *PaymentUseCase) targetInstallment(ctx context.Context, tx Transaction, creditID string, number *int) (*domain.Installment, error) {
	if number != nil {
		installment, err := uc.installmentRepo.GetByNumber(ctx, tx, creditID, *number)
		if err != nil {
			return nil, err
		}
		if !installment.Payable() {
			return nil, domain.ErrInstallmentNotFound
		}
		return installment, nil
	}

	installment, err := uc.installmentRepo.NextPending(ctx, tx, creditID)
	if err != nil {
		if errors.Is(err, domain.ErrNoPendingInstallment) {
			return nil, nil
		}
		return nil, err
	}
	return installment, nil
}

// PaymentProjection is the dry-run result of a payment, computed by the same
// allocator the real application uses.
type PaymentProjection struct {
	InstallmentNumber int
	Breakdown         domain.Breakdown
	Remainder         decimal.Decimal
	Settles           bool
	BalanceAfter      decimal.Decimal
}

// Preview computes what Apply would do without persisting anything. It reads
// the latest committed state lock-free.
func (uc *PaymentUseCase) Preview(ctx context.Context, input ApplyPaymentInput) (*PaymentProjection, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	credit, err := uc.creditRepo.GetByID(ctx, input.CreditID)
	if err != nil {
		return nil, err
	}

	if !credit.Servicing() {
		return nil, domain.ErrCreditNotFormalized
	}

	installments, err := uc.installmentRepo.ListByCredit(ctx, credit.ID)
	if err != nil {
		return nil, err
	}

	installment := pickTarget(installments, input.InstallmentNumber)
	if input.InstallmentNumber != nil && installment == nil {
		return nil, domain.ErrInstallmentNotFound
	}

	projection := &PaymentProjection{
		Remainder:    input.Amount,
		BalanceAfter: credit.OutstandingBalance,
	}

	if installment != nil {
		breakdown, remainder := domain.Allocate(installment, input.Amount)
		projection.InstallmentNumber = installment.Number
		projection.Breakdown = breakdown
		projection.Remainder = remainder
		projection.Settles = installment.TotalPaid().Add(breakdown.Total()).GreaterThanOrEqual(installment.TotalOwed())
		projection.BalanceAfter = credit.OutstandingBalance.Sub(breakdown.Principal)
	}

	return projection, nil
}

func pickTarget(installments []*domain.Installment, number *int) *domain.Installment {
	for _, inst := range installments {
		if number != nil {
			if inst.Number == *number && inst.Payable() {
				return inst
			}
			continue
		}
		if inst.Payable() && inst.Status == domain.InstallmentStatusPendiente {
			return inst
		}
	}
	return nil
}

// BatchRow is one payroll deduction line.
type BatchRow struct {
	Cedula string
	Amount decimal.Decimal
}

// ApplyBatchInput represents a payroll upload (planilla).
type ApplyBatchInput struct {
	DeductoraID string
	Period      string
	Rows        []BatchRow
}

// ApplyBatchResult is the outcome of applying a planilla.
type ApplyBatchResult struct {
	Batch    *domain.BatchUpload
	Payments []*domain.Payment
}

// ApplyBatch resolves each payroll row to a credit and applies all rows in
// one transaction. Any failing row aborts the whole batch; there is no
// partially applied planilla.
func (uc *PaymentUseCase) ApplyBatch(ctx context.Context, input ApplyBatchInput) (*ApplyBatchResult, error) {
	start := time.Now()

	if err := domain.ValidatePeriod(input.Period); err != nil {
		return nil, err
	}
	if len(input.Rows) == 0 {
		return nil, domain.ErrInvalidAmount
	}

	total := decimal.Zero
	for _, row := range input.Rows {
		if err := domain.ValidateCedula(row.Cedula); err != nil {
			return nil, err
		}
		if err := domain.ValidateAmount(row.Amount); err != nil {
			return nil, err
		}
		total = total.Add(row.Amount)
	}

	// Resolve rows to credits before opening the transaction.
	type resolvedRow struct {
		creditID string
		amount   decimal.Decimal
	}

	resolved := make([]resolvedRow, 0, len(input.Rows))
	creditIDs := make([]string, 0, len(input.Rows))
	seen := make(map[string]bool)

	for _, row := range input.Rows {
		credit, err := uc.creditRepo.GetActiveByCedula(ctx, input.DeductoraID, row.Cedula)
		if err != nil {
			return nil, err
		}

		resolved = append(resolved, resolvedRow{creditID: credit.ID, amount: row.Amount})
		if !seen[credit.ID] {
			seen[credit.ID] = true
			creditIDs = append(creditIDs, credit.ID)
		}
	}

	// Lock credits in sorted order (deadlock prevention).
	sort.Strings(creditIDs)

	var batch *domain.BatchUpload
	var payments []*domain.Payment

	attempt := func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		credits, err := uc.creditRepo.GetByIDsForUpdate(ctx, tx, creditIDs)
		if err != nil {
			return err
		}
		if len(credits) != len(creditIDs) {
			return domain.ErrCreditNotFound
		}

		creditMap := make(map[string]*domain.Credit, len(credits))
		for _, c := range credits {
			if !c.Servicing() {
				return domain.ErrCreditNotFormalized
			}
			creditMap[c.ID] = c
		}

		now := time.Now().UTC()

		batch = &domain.BatchUpload{
			ID:          uc.writer.idGen.Generate(),
			DeductoraID: input.DeductoraID,
			Period:      input.Period,
			Count:       len(input.Rows),
			TotalAmount: total,
			Status:      domain.BatchStatusProcessed,
			CreatedAt:   now,
		}

		if err := uc.batchRepo.Create(ctx, tx, batch); err != nil {
			return err
		}

		payments = make([]*domain.Payment, 0, len(resolved))
		for _, row := range resolved {
			credit := creditMap[row.creditID]

			installment, err := uc.targetInstallment(ctx, tx, credit.ID, nil)
			if err != nil {
				return err
			}

			payment, _, err := uc.writer.Apply(ctx, tx, credit, installment, row.amount, domain.PaymentSourcePlanilla, &batch.ID, now)
			if err != nil {
				return err
			}

			payments = append(payments, payment)
		}

		return tx.Commit(ctx)
	}

	if err := uc.retry(ctx, attempt); err != nil {
		return nil, err
	}

	for _, id := range creditIDs {
		uc.invalidateSchedule(ctx, id)
	}

	if uc.metrics != nil {
		uc.metrics.BatchesProcessed.Inc()
		uc.metrics.BatchRows.Observe(float64(len(input.Rows)))
		uc.metrics.BatchDuration.Observe(time.Since(start).Seconds())
		uc.metrics.PaymentsApplied.
			WithLabelValues(string(domain.PaymentSourcePlanilla)).
			Add(float64(len(payments)))
	}

	return &ApplyBatchResult{Batch: batch, Payments: payments}, nil
}

// GetPayment retrieves a payment by ID.
func (uc *PaymentUseCase) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	return uc.paymentRepo.GetByID(ctx, id)
}

// ListPaymentsByCredit lists payments for a credit.
func (uc *PaymentUseCase) ListPaymentsByCredit(ctx context.Context, creditID string, limit, offset int) ([]*domain.Payment, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return uc.paymentRepo.ListByCredit(ctx, creditID, limit, offset)
}

// GetBatch retrieves a batch upload by ID.
func (uc *PaymentUseCase) GetBatch(ctx context.Context, id string) (*domain.BatchUpload, error) {
	return uc.batchRepo.GetByID(ctx, id)
}

func (uc *PaymentUseCase) invalidateSchedule(ctx context.Context, creditID string) {
	if uc.cache == nil {
		return
	}
	// Best-effort: a missed delete only extends staleness up to the TTL.
	_ = uc.cache.Delete(ctx, ScheduleCacheKey(creditID))
}
