package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/credisol/crediledger/internal/domain"
)

// ScheduleUseCase generates and regenerates amortization schedules.
type ScheduleUseCase struct {
	txManager       TransactionManager
	creditRepo      CreditRepository
	installmentRepo InstallmentRepository
	outboxRepo      OutboxRepository
	cache           Cache
	idGen           IDGenerator
}

// NewScheduleUseCase creates a new ScheduleUseCase.
func NewScheduleUseCase(
	txManager TransactionManager,
	creditRepo CreditRepository,
	installmentRepo InstallmentRepository,
	outboxRepo OutboxRepository,
	cache Cache,
	idGen IDGenerator,
) *ScheduleUseCase {
	return &ScheduleUseCase{
		txManager:       txManager,
		creditRepo:      creditRepo,
		installmentRepo: installmentRepo,
		outboxRepo:      outboxRepo,
		cache:           cache,
		idGen:           idGen,
	}
}

// Formalize freezes the credit's terms, generates its installment table and
// opens the outstanding balance at net principal.
func (uc *ScheduleUseCase) Formalize(ctx context.Context, creditID string) ([]*domain.Installment, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	credit, err := uc.creditRepo.GetByIDForUpdate(ctx, tx, creditID)
	if err != nil {
		return nil, err
	}

	if credit.Status != domain.CreditStatusPendiente {
		return nil, domain.ErrCreditAlreadyFormalized
	}

	now := time.Now().UTC()

	rows, err := domain.GenerateSchedule(uc.scheduleInput(credit), now)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		row.ID = uc.idGen.Generate()
	}

	if err := uc.installmentRepo.CreateBatch(ctx, tx, rows); err != nil {
		return nil, err
	}

	if err := uc.creditRepo.MarkFormalized(ctx, tx, credit.ID, credit.NetPrincipal(), now); err != nil {
		return nil, err
	}

	err = uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   credit.ID,
		AggregateType: domain.AggregateTypeCredit,
		EventType:     domain.EventTypeCreditFormalized,
		Payload: map[string]any{
			"credit_id":     credit.ID,
			"net_principal": credit.NetPrincipal().String(),
			"term_months":   credit.TermMonths,
			"annual_rate":   credit.AnnualRate.String(),
			"formalized_at": now.Format(time.RFC3339),
		},
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.invalidate(ctx, credit.ID)

	return rows, nil
}

// RegenerateInput controls how an existing schedule is rebuilt.
type RegenerateInput struct {
	CreditID string

	// RebuildPendingOnly preserves installments that already carry payments
	// and rebuilds only the untouched tail. Without it, regeneration over a
	// schedule with any movement fails with ErrScheduleLocked.
	RebuildPendingOnly bool
}

// Regenerate rebuilds a credit's installment table from its frozen terms.
func (uc *ScheduleUseCase) Regenerate(ctx context.Context, input RegenerateInput) ([]*domain.Installment, error) {
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

	existing, err := uc.installmentRepo.ListByCreditTx(ctx, tx, credit.ID)
	if err != nil {
		return nil, err
	}

	// The last row that carries any movement anchors the rebuild.
	lastTouched := 0
	for _, inst := range existing {
		if inst.Number > 0 && (inst.TotalPaid().IsPositive() || inst.Status == domain.InstallmentStatusPagado) {
			if inst.Number > lastTouched {
				lastTouched = inst.Number
			}
		}
	}

	if lastTouched > 0 && !input.RebuildPendingOnly {
		return nil, domain.ErrScheduleLocked
	}

	now := time.Now().UTC()

	var rows []*domain.Installment
	if lastTouched == 0 {
		// Nothing paid: rebuild the whole table, disbursement row included.
		if err := uc.installmentRepo.DeleteFromNumber(ctx, tx, credit.ID, 0); err != nil {
			return nil, err
		}

		rows, err = domain.GenerateSchedule(uc.scheduleInput(credit), now)
		if err != nil {
			return nil, err
		}
	} else {
		rows, err = uc.rebuildTail(credit, existing, lastTouched, now)
		if err != nil {
			return nil, err
		}

		if err := uc.installmentRepo.DeleteFromNumber(ctx, tx, credit.ID, lastTouched+1); err != nil {
			return nil, err
		}
	}

	for _, row := range rows {
		row.ID = uc.idGen.Generate()
	}

	if err := uc.installmentRepo.CreateBatch(ctx, tx, rows); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.invalidate(ctx, credit.ID)

	return rows, nil
}

// rebuildTail regenerates installments lastTouched+1..n from the balance the
// preserved rows left off at, keeping numbering, due dates and balance
// continuity intact.
func (uc *ScheduleUseCase) rebuildTail(
	credit *domain.Credit,
	existing []*domain.Installment,
	lastTouched int,
	now time.Time,
) ([]*domain.Installment, error) {
	var anchor *domain.Installment
	for _, inst := range existing {
		if inst.Number == lastTouched {
			anchor = inst
			break
		}
	}
	if anchor == nil {
		return nil, domain.ErrInstallmentNotFound
	}

	remainingTerm := credit.TermMonths - lastTouched
	if remainingTerm <= 0 {
		return nil, domain.ErrScheduleLocked
	}

	tail, err := domain.GenerateSchedule(domain.ScheduleInput{
		CreditID:         credit.ID,
		Principal:        anchor.ResultingBalance,
		TermMonths:       remainingTerm,
		AnnualRate:       credit.AnnualRate,
		InsurancePremium: uc.scheduleInput(credit).InsurancePremium,
		DisbursedAt:      anchor.DueDate,
		FirstDueDate:     anchor.DueDate.AddDate(0, 1, 0),
	}, now)
	if err != nil {
		return nil, err
	}

	// Drop the synthetic disbursement row and renumber after the anchor.
	rows := tail[1:]
	for i, row := range rows {
		row.Number = lastTouched + 1 + i
		row.TermSnapshot = credit.TermMonths
	}

	return rows, nil
}

func (uc *ScheduleUseCase) scheduleInput(credit *domain.Credit) domain.ScheduleInput {
	premium := credit.InsurancePremium
	if !credit.InsuranceEnabled {
		premium = decimal.Zero
	}

	return domain.ScheduleInput{
		CreditID:         credit.ID,
		Principal:        credit.Principal,
		Charges:          credit.Charges,
		TermMonths:       credit.TermMonths,
		AnnualRate:       credit.AnnualRate,
		InsurancePremium: premium,
		DisbursedAt:      credit.DisbursedAt,
		FirstDueDate:     credit.FirstDueDate,
	}
}

func (uc *ScheduleUseCase) invalidate(ctx context.Context, creditID string) {
	if uc.cache == nil {
		return
	}
	_ = uc.cache.Delete(ctx, ScheduleCacheKey(creditID))
}
