package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/credisol/crediledger/internal/domain"
)

// VoidUseCase undoes every ledger mutation a batch upload caused. It is the
// exact algebraic inverse of payment application: after a void, the credit
// and every touched installment are back in their pre-batch state, and every
// suspense balance the batch created is gone.
type VoidUseCase struct {
	txManager       TransactionManager
	creditRepo      CreditRepository
	installmentRepo InstallmentRepository
	paymentRepo     PaymentRepository
	suspenseRepo    SuspenseRepository
	batchRepo       BatchRepository
	outboxRepo      OutboxRepository
	auditRepo       AuditRepository // optional, nil disables the audit trail
	cache           Cache
	idGen           IDGenerator
	retrier         Retrier // optional
	logger          zerolog.Logger
}

// NewVoidUseCase creates a new VoidUseCase.
func NewVoidUseCase(
	txManager TransactionManager,
	creditRepo CreditRepository,
	installmentRepo InstallmentRepository,
	paymentRepo PaymentRepository,
	suspenseRepo SuspenseRepository,
	batchRepo BatchRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	cache Cache,
	idGen IDGenerator,
	logger zerolog.Logger,
) *VoidUseCase {
	return &VoidUseCase{
		txManager:       txManager,
		creditRepo:      creditRepo,
		installmentRepo: installmentRepo,
		paymentRepo:     paymentRepo,
		suspenseRepo:    suspenseRepo,
		batchRepo:       batchRepo,
		outboxRepo:      outboxRepo,
		auditRepo:       auditRepo,
		cache:           cache,
		idGen:           idGen,
		logger:          logger,
	}
}

// WithRetrier makes the void replay on lock contention. A void locks the
// same credit rows a running planilla does, so the loser rolls back and
// retries from the batch lock.
func (uc *VoidUseCase) WithRetrier(r Retrier) *VoidUseCase {
	uc.retrier = r
	return uc
}

func (uc *VoidUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

// VoidResult summarizes a batch reversal.
type VoidResult struct {
	BatchID          string
	PaymentsReversed int
	TotalRestored    decimal.Decimal
}

// VoidBatch reverses every payment in a processed batch under one
// transaction, with every touched credit locked for the duration.
func (uc *VoidUseCase) VoidBatch(ctx context.Context, batchID, actor, reason string) (*VoidResult, error) {
	var payments []*domain.Payment
	var creditIDs []string
	var totalRestored decimal.Decimal
	var now time.Time

	attempt := func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		batch, err := uc.batchRepo.GetByIDForUpdate(ctx, tx, batchID)
		if err != nil {
			return err
		}

		if batch.Status != domain.BatchStatusProcessed {
			return domain.ErrAlreadyVoided
		}

		payments, err = uc.paymentRepo.ListByBatch(ctx, tx, batchID)
		if err != nil {
			return err
		}

		creditIDs = make([]string, 0, len(payments))
		seen := make(map[string]bool)
		for _, p := range payments {
			if !seen[p.CreditID] {
				seen[p.CreditID] = true
				creditIDs = append(creditIDs, p.CreditID)
			}
		}
		sort.Strings(creditIDs)

		credits, err := uc.creditRepo.GetByIDsForUpdate(ctx, tx, creditIDs)
		if err != nil {
			return err
		}

		creditMap := make(map[string]*domain.Credit, len(credits))
		for _, c := range credits {
			creditMap[c.ID] = c
		}

		now = time.Now().UTC()
		totalRestored = decimal.Zero

		// Reverse in the opposite order of application.
		for i := len(payments) - 1; i >= 0; i-- {
			restored, err := uc.reversePayment(ctx, tx, creditMap, payments[i], now)
			if err != nil {
				return err
			}
			totalRestored = totalRestored.Add(restored)
		}

		if err := uc.batchRepo.MarkVoided(ctx, tx, batchID, actor, reason, now); err != nil {
			return err
		}

		err = uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   batchID,
			AggregateType: domain.AggregateTypeBatch,
			EventType:     domain.EventTypeBatchVoided,
			Payload: map[string]any{
				"batch_id":      batchID,
				"payment_count": len(payments),
				"total_amount":  batch.TotalAmount.String(),
				"voided_by":     actor,
				"reason":        reason,
			},
			CreatedAt: now,
		})
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	}

	if err := uc.retry(ctx, attempt); err != nil {
		return nil, err
	}

	for _, id := range creditIDs {
		uc.invalidateSchedule(ctx, id)
	}

	// Audit logging (best-effort, outside the transaction)
	if uc.auditRepo != nil {
		_ = uc.auditRepo.Create(ctx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       actor,
			Action:       string(domain.AuditActionBatchVoid),
			ResourceType: domain.AggregateTypeBatch,
			ResourceID:   batchID,
			AfterState: domain.JSON{
				"payments_reversed": len(payments),
				"total_restored":    totalRestored.String(),
				"reason":            reason,
			},
			Status:    string(domain.AuditStatusSuccess),
			CreatedAt: now,
		})
	}

	return &VoidResult{
		BatchID:          batchID,
		PaymentsReversed: len(payments),
		TotalRestored:    totalRestored,
	}, nil
}

// reversePayment undoes one payment: restores the credit balance and status,
// subtracts the breakdown from the target installment's cumulative columns,
// deletes suspense balances the payment originated, and flips the payment to
// Reversado with a snapshot of the deltas actually reversed.
func (uc *VoidUseCase) reversePayment(
	ctx context.Context,
	tx Transaction,
	creditMap map[string]*domain.Credit,
	payment *domain.Payment,
	now time.Time,
) (decimal.Decimal, error) {
	if payment.Status == domain.PaymentStatusReversado || payment.Reversal != nil {
		return decimal.Zero, domain.ErrDuplicateReversal
	}

	credit, ok := creditMap[payment.CreditID]
	if !ok {
		return decimal.Zero, domain.ErrCreditNotFound
	}

	restored := payment.Breakdown.Principal
	newBalance := credit.OutstandingBalance.Add(restored)

	if err := uc.creditRepo.UpdateBalance(ctx, tx, credit.ID, newBalance, now); err != nil {
		return decimal.Zero, err
	}
	credit.OutstandingBalance = newBalance

	// Roll back a delinquency transition that happened on the back of this
	// batch.
	if credit.Status == domain.CreditStatusEnMora && payment.CreditStatusBefore != domain.CreditStatusEnMora {
		if credit.Status.CanTransitionTo(payment.CreditStatusBefore) {
			if err := uc.creditRepo.UpdateStatus(ctx, tx, credit.ID, payment.CreditStatusBefore, now); err != nil {
				return decimal.Zero, err
			}
			credit.Status = payment.CreditStatusBefore
		}
	}

	snapshot := &domain.ReversalSnapshot{
		ReversedAt:      now,
		Deltas:          payment.Breakdown,
		BalanceRestored: restored,
	}

	if payment.InstallmentNumber > 0 {
		installment, err := uc.installmentRepo.GetByNumber(ctx, tx, payment.CreditID, payment.InstallmentNumber)
		if err != nil {
			return decimal.Zero, err
		}

		reversed, floored := installment.ReverseBreakdown(payment.Breakdown, now)
		if floored {
			// Tolerate prior inconsistencies rather than going negative,
			// but leave a trace.
			uc.logger.Warn().
				Str("payment_id", payment.ID).
				Str("credit_id", payment.CreditID).
				Int("installment", payment.InstallmentNumber).
				Msg("reversal floored cumulative movement at zero")
		}
		snapshot.Deltas = reversed
		snapshot.Floored = floored

		if err := uc.installmentRepo.UpdateMovements(ctx, tx, installment); err != nil {
			return decimal.Zero, err
		}
	}

	if err := uc.suspenseRepo.DeleteByPayment(ctx, tx, payment.ID); err != nil {
		return decimal.Zero, err
	}

	if err := uc.paymentRepo.MarkReversed(ctx, tx, payment.ID, snapshot); err != nil {
		return decimal.Zero, err
	}

	return restored, nil
}

func (uc *VoidUseCase) invalidateSchedule(ctx context.Context, creditID string) {
	if uc.cache == nil {
		return
	}
	_ = uc.cache.Delete(ctx, ScheduleCacheKey(creditID))
}
