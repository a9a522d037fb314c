package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/credisol/crediledger/internal/domain"
)

// ledgerWriter applies a waterfall allocation to durable state. Every call
// site that moves money against a credit (teller payment, payroll batch row,
// suspense assignment) routes through Apply so the mutation sequence is
// identical everywhere: installment cumulatives, credit balance, payment row,
// overflow parking, outbox event. The caller owns the transaction and must
// hold the credit's row lock.
type ledgerWriter struct {
	creditRepo      CreditRepository
	installmentRepo InstallmentRepository
	paymentRepo     PaymentRepository
	suspenseRepo    SuspenseRepository
	outboxRepo      OutboxRepository
	idGen           IDGenerator
}

// Apply allocates amount against the installment and persists the mutation.
// A remainder beyond everything owed is parked as a pending suspense balance
// originating from the created payment, never dropped.
func (w *ledgerWriter) Apply(
	ctx context.Context,
	tx Transaction,
	credit *domain.Credit,
	installment *domain.Installment,
	amount decimal.Decimal,
	source domain.PaymentSource,
	batchID *string,
	now time.Time,
) (*domain.Payment, *domain.SuspenseBalance, error) {
	var (
		breakdown domain.Breakdown
		remainder = amount
		number    int
	)

	if installment != nil {
		breakdown, remainder = domain.Allocate(installment, amount)
		installment.ApplyBreakdown(breakdown, now)

		if err := w.installmentRepo.UpdateMovements(ctx, tx, installment); err != nil {
			return nil, nil, err
		}
		number = installment.Number
	}

	balanceBefore := credit.OutstandingBalance
	balanceAfter := balanceBefore.Sub(breakdown.Principal)

	if err := w.creditRepo.UpdateBalance(ctx, tx, credit.ID, balanceAfter, now); err != nil {
		return nil, nil, err
	}

	payment := &domain.Payment{
		ID:                 w.idGen.Generate(),
		CreditID:           credit.ID,
		InstallmentNumber:  number,
		BatchID:            batchID,
		Amount:             amount,
		Breakdown:          breakdown,
		BalanceBefore:      balanceBefore,
		BalanceAfter:       balanceAfter,
		CreditStatusBefore: credit.Status,
		Status:             domain.PaymentStatusAplicado,
		Source:             source,
		CreatedAt:          now,
	}

	if err := w.paymentRepo.Create(ctx, tx, payment); err != nil {
		return nil, nil, err
	}

	credit.OutstandingBalance = balanceAfter

	suspense, err := w.parkRemainder(ctx, tx, credit, payment, remainder, now)
	if err != nil {
		return nil, nil, err
	}

	if err := w.emitPaymentApplied(ctx, tx, payment, now); err != nil {
		return nil, nil, err
	}

	return payment, suspense, nil
}

// parkRemainder creates a pending suspense balance for money that exceeded
// everything currently owed. A zero remainder is a no-op.
func (w *ledgerWriter) parkRemainder(
	ctx context.Context,
	tx Transaction,
	credit *domain.Credit,
	origin *domain.Payment,
	remainder decimal.Decimal,
	now time.Time,
) (*domain.SuspenseBalance, error) {
	if !remainder.IsPositive() {
		return nil, nil
	}

	suspense := &domain.SuspenseBalance{
		ID:        w.idGen.Generate(),
		CreditID:  credit.ID,
		PaymentID: origin.ID,
		Amount:    remainder,
		Status:    domain.SuspenseStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := w.suspenseRepo.Create(ctx, tx, suspense); err != nil {
		return nil, err
	}

	return suspense, nil
}

func (w *ledgerWriter) emitPaymentApplied(ctx context.Context, tx Transaction, p *domain.Payment, now time.Time) error {
	return w.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            w.idGen.Generate(),
		AggregateID:   p.ID,
		AggregateType: domain.AggregateTypePayment,
		EventType:     domain.EventTypePaymentApplied,
		Payload: map[string]any{
			"payment_id":         p.ID,
			"credit_id":          p.CreditID,
			"installment_number": p.InstallmentNumber,
			"amount":             p.Amount.String(),
			"mora":               p.Breakdown.Mora.String(),
			"corriente":          p.Breakdown.Corriente.String(),
			"poliza":             p.Breakdown.Poliza.String(),
			"principal":          p.Breakdown.Principal.String(),
			"source":             string(p.Source),
		},
		CreatedAt: now,
	})
}
