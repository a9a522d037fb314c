package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/credisol/crediledger/internal/domain"
)

// SuspenseUseCase assigns parked overflow money to a future installment or
// directly to principal. Preview and Assign share one projection function so
// the numbers shown before confirming are exactly the numbers applied.
type SuspenseUseCase struct {
	txManager       TransactionManager
	creditRepo      CreditRepository
	installmentRepo InstallmentRepository
	suspenseRepo    SuspenseRepository
	outboxRepo      OutboxRepository
	cache           Cache
	writer          *ledgerWriter
}

// NewSuspenseUseCase creates a new SuspenseUseCase.
func NewSuspenseUseCase(
	txManager TransactionManager,
	creditRepo CreditRepository,
	installmentRepo InstallmentRepository,
	paymentRepo PaymentRepository,
	suspenseRepo SuspenseRepository,
	outboxRepo OutboxRepository,
	cache Cache,
	idGen IDGenerator,
) *SuspenseUseCase {
	return &SuspenseUseCase{
		txManager:       txManager,
		creditRepo:      creditRepo,
		installmentRepo: installmentRepo,
		suspenseRepo:    suspenseRepo,
		outboxRepo:      outboxRepo,
		cache:           cache,
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

// AssignmentProjection is what assigning a suspense balance would do.
type AssignmentProjection struct {
	Target            domain.SuspenseTarget
	InstallmentNumber int
	Breakdown         domain.Breakdown
	Remainder         decimal.Decimal
	Settles           bool
	BalanceAfter      decimal.Decimal
}

// projectAssignment computes the effect of an assignment. Both Preview and
// Assign route through it; it never mutates its inputs.
func projectAssignment(
	credit *domain.Credit,
	installment *domain.Installment,
	suspense *domain.SuspenseBalance,
	target domain.SuspenseTarget,
) (*AssignmentProjection, error) {
	switch target {
	case domain.SuspenseTargetNextInstallment:
		if installment == nil {
			return nil, domain.ErrNoPendingInstallment
		}

		breakdown, remainder := domain.Allocate(installment, suspense.Amount)
		return &AssignmentProjection{
			Target:            target,
			InstallmentNumber: installment.Number,
			Breakdown:         breakdown,
			Remainder:         remainder,
			Settles:           installment.TotalPaid().Add(breakdown.Total()).GreaterThanOrEqual(installment.TotalOwed()),
			BalanceAfter:      credit.OutstandingBalance.Sub(breakdown.Principal),
		}, nil

	case domain.SuspenseTargetPrincipal:
		applied := decimal.Min(suspense.Amount, credit.OutstandingBalance)
		return &AssignmentProjection{
			Target:       target,
			Breakdown:    domain.Breakdown{Principal: applied},
			Remainder:    suspense.Amount.Sub(applied),
			BalanceAfter: credit.OutstandingBalance.Sub(applied),
		}, nil

	default:
		return nil, domain.ErrInvalidSuspenseTarget
	}
}

// Preview computes an assignment without persisting, reading the latest
// committed state lock-free.
func (uc *SuspenseUseCase) Preview(ctx context.Context, suspenseID string, target domain.SuspenseTarget) (*AssignmentProjection, error) {
	suspense, err := uc.suspenseRepo.GetByID(ctx, suspenseID)
	if err != nil {
		return nil, err
	}

	if suspense.Status != domain.SuspenseStatusPending {
		return nil, domain.ErrSuspenseAlreadyAssigned
	}

	credit, err := uc.creditRepo.GetByID(ctx, suspense.CreditID)
	if err != nil {
		return nil, err
	}

	var installment *domain.Installment
	if target == domain.SuspenseTargetNextInstallment {
		installments, err := uc.installmentRepo.ListByCredit(ctx, credit.ID)
		if err != nil {
			return nil, err
		}
		installment = pickTarget(installments, nil)
	}

	return projectAssignment(credit, installment, suspense, target)
}

// AssignResult is the outcome of a suspense assignment.
type AssignResult struct {
	Suspense   *domain.SuspenseBalance
	Payment    *domain.Payment
	Projection *AssignmentProjection
}

// Assign applies a pending suspense balance to its target under the credit's
// row lock.
func (uc *SuspenseUseCase) Assign(ctx context.Context, suspenseID string, target domain.SuspenseTarget) (*AssignResult, error) {
	if target != domain.SuspenseTargetNextInstallment && target != domain.SuspenseTargetPrincipal {
		return nil, domain.ErrInvalidSuspenseTarget
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	suspense, err := uc.suspenseRepo.GetByIDForUpdate(ctx, tx, suspenseID)
	if err != nil {
		return nil, err
	}

	if suspense.Status != domain.SuspenseStatusPending {
		return nil, domain.ErrSuspenseAlreadyAssigned
	}

	credit, err := uc.creditRepo.GetByIDForUpdate(ctx, tx, suspense.CreditID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	var (
		payment    *domain.Payment
		projection *AssignmentProjection
		nextStatus domain.SuspenseStatus
	)

	switch target {
	case domain.SuspenseTargetNextInstallment:
		installment, err := uc.installmentRepo.NextPending(ctx, tx, credit.ID)
		if err != nil {
			return nil, err
		}

		projection, err = projectAssignment(credit, installment, suspense, target)
		if err != nil {
			return nil, err
		}

		payment, _, err = uc.writer.Apply(ctx, tx, credit, installment, suspense.Amount, domain.PaymentSourceSuspense, nil, now)
		if err != nil {
			return nil, err
		}

		nextStatus = domain.SuspenseStatusAssignedToInstallment

	case domain.SuspenseTargetPrincipal:
		projection, err = projectAssignment(credit, nil, suspense, target)
		if err != nil {
			return nil, err
		}

		payment, err = uc.applyToPrincipal(ctx, tx, credit, projection.Breakdown.Principal, now)
		if err != nil {
			return nil, err
		}

		nextStatus = domain.SuspenseStatusAssignedToPrincipal
	}

	if !suspense.Status.CanTransitionTo(nextStatus) {
		return nil, domain.ErrInvalidStatusTransition
	}

	if err := uc.suspenseRepo.UpdateStatus(ctx, tx, suspense.ID, nextStatus, now); err != nil {
		return nil, err
	}
	suspense.Status = nextStatus
	assignedAt := now
	suspense.AssignedAt = &assignedAt

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, ScheduleCacheKey(credit.ID))
	}

	return &AssignResult{Suspense: suspense, Payment: payment, Projection: projection}, nil
}

// applyToPrincipal records a principal-only adjustment: a payment targeting
// row 0 whose breakdown carries only the principal portion.
func (uc *SuspenseUseCase) applyToPrincipal(
	ctx context.Context,
	tx Transaction,
	credit *domain.Credit,
	amount decimal.Decimal,
	now time.Time,
) (*domain.Payment, error) {
	balanceBefore := credit.OutstandingBalance
	balanceAfter := balanceBefore.Sub(amount)

	if err := uc.creditRepo.UpdateBalance(ctx, tx, credit.ID, balanceAfter, now); err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		ID:                 uc.writer.idGen.Generate(),
		CreditID:           credit.ID,
		InstallmentNumber:  0,
		Amount:             amount,
		Breakdown:          domain.Breakdown{Principal: amount},
		BalanceBefore:      balanceBefore,
		BalanceAfter:       balanceAfter,
		CreditStatusBefore: credit.Status,
		Status:             domain.PaymentStatusAplicado,
		Source:             domain.PaymentSourceSuspense,
		CreatedAt:          now,
	}

	if err := uc.writer.paymentRepo.Create(ctx, tx, payment); err != nil {
		return nil, err
	}
	credit.OutstandingBalance = balanceAfter

	if err := uc.writer.emitPaymentApplied(ctx, tx, payment, now); err != nil {
		return nil, err
	}

	return payment, nil
}

// GetSuspense retrieves a suspense balance by ID.
func (uc *SuspenseUseCase) GetSuspense(ctx context.Context, id string) (*domain.SuspenseBalance, error) {
	return uc.suspenseRepo.GetByID(ctx, id)
}

// ListByCredit lists suspense balances for a credit.
func (uc *SuspenseUseCase) ListByCredit(ctx context.Context, creditID string) ([]*domain.SuspenseBalance, error) {
	return uc.suspenseRepo.ListByCredit(ctx, creditID)
}
