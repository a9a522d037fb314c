package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/usecase"
	"github.com/credisol/crediledger/internal/usecase/mocks"
)

// ledgerFixture wires every mock repository around a formalized credit with
// two pending installments. Installment 1 owes 500 mora + 2000 corriente +
// 300 poliza + 9000 principal = 11800.
type ledgerFixture struct {
	txManager       *mocks.MockTransactionManager
	creditRepo      *mocks.MockCreditRepository
	installmentRepo *mocks.MockInstallmentRepository
	paymentRepo     *mocks.MockPaymentRepository
	suspenseRepo    *mocks.MockSuspenseRepository
	batchRepo       *mocks.MockBatchRepository
	outboxRepo      *mocks.MockOutboxRepository
	cache           *mocks.MockCache
	idGen           *mocks.MockIDGenerator

	credit *domain.Credit
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	f := &ledgerFixture{
		txManager:       mocks.NewMockTransactionManager(),
		creditRepo:      mocks.NewMockCreditRepository(),
		installmentRepo: mocks.NewMockInstallmentRepository(),
		paymentRepo:     mocks.NewMockPaymentRepository(),
		suspenseRepo:    mocks.NewMockSuspenseRepository(),
		batchRepo:       mocks.NewMockBatchRepository(),
		outboxRepo:      mocks.NewMockOutboxRepository(),
		cache:           mocks.NewMockCache(),
		idGen:           mocks.NewMockIDGenerator(),
	}

	now := time.Now().UTC()
	f.credit = &domain.Credit{
		ID:                 "credit-1",
		ClientID:           "client-1",
		Cedula:             "8-123-456",
		DeductoraID:        "ded-1",
		Principal:          decimal.NewFromInt(100000),
		Charges:            decimal.Zero,
		TermMonths:         12,
		AnnualRate:         decimal.NewFromFloat(24),
		OutstandingBalance: decimal.NewFromInt(100000),
		Status:             domain.CreditStatusFormalizado,
		DisbursedAt:        now.AddDate(0, -2, 0),
		FirstDueDate:       now.AddDate(0, -1, 0),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := f.creditRepo.Create(context.Background(), f.credit); err != nil {
		t.Fatalf("seed credit: %v", err)
	}

	rows := []*domain.Installment{
		{
			ID: "inst-0", CreditID: "credit-1", Number: 0,
			Status:           domain.InstallmentStatusVigente,
			OwedPrincipal:    decimal.NewFromInt(100000),
			ResultingBalance: decimal.NewFromInt(100000),
		},
		{
			ID: "inst-1", CreditID: "credit-1", Number: 1,
			Status:           domain.InstallmentStatusPendiente,
			DueDate:          now.AddDate(0, -1, 0),
			OwedMora:         decimal.NewFromInt(500),
			OwedCorriente:    decimal.NewFromInt(2000),
			OwedPoliza:       decimal.NewFromInt(300),
			OwedPrincipal:    decimal.NewFromInt(9000),
			PreviousBalance:  decimal.NewFromInt(100000),
			ResultingBalance: decimal.NewFromInt(91000),
		},
		{
			ID: "inst-2", CreditID: "credit-1", Number: 2,
			Status:           domain.InstallmentStatusPendiente,
			DueDate:          now,
			OwedCorriente:    decimal.NewFromInt(2000),
			OwedPoliza:       decimal.NewFromInt(300),
			OwedPrincipal:    decimal.NewFromInt(9000),
			PreviousBalance:  decimal.NewFromInt(91000),
			ResultingBalance: decimal.NewFromInt(82000),
		},
	}
	if err := f.installmentRepo.CreateBatch(context.Background(), nil, rows); err != nil {
		t.Fatalf("seed installments: %v", err)
	}

	return f
}

func (f *ledgerFixture) paymentUseCase() *usecase.PaymentUseCase {
	return usecase.NewPaymentUseCase(
		f.txManager, f.creditRepo, f.installmentRepo, f.paymentRepo,
		f.suspenseRepo, f.batchRepo, f.outboxRepo, f.cache, f.idGen, nil,
	)
}

func (f *ledgerFixture) installment(t *testing.T, number int) *domain.Installment {
	t.Helper()
	inst, err := f.installmentRepo.GetByNumber(context.Background(), nil, "credit-1", number)
	if err != nil {
		t.Fatalf("installment %d: %v", number, err)
	}
	return inst
}

func TestPaymentUseCase_Apply_PartialWaterfall(t *testing.T) {
	f := newLedgerFixture(t)
	uc := f.paymentUseCase()

	result, err := uc.Apply(context.Background(), usecase.ApplyPaymentInput{
		CreditID: "credit-1",
		Amount:   decimal.NewFromInt(5000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := result.Payment
	if !p.Breakdown.Mora.Equal(decimal.NewFromInt(500)) ||
		!p.Breakdown.Corriente.Equal(decimal.NewFromInt(2000)) ||
		!p.Breakdown.Poliza.Equal(decimal.NewFromInt(300)) ||
		!p.Breakdown.Principal.Equal(decimal.NewFromInt(2200)) {
		t.Errorf("breakdown = %+v, want {500 2000 300 2200}", p.Breakdown)
	}
	if result.Suspense != nil {
		t.Errorf("expected no suspense for a partial payment, got %+v", result.Suspense)
	}

	if !p.BalanceBefore.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("balance before = %s, want 100000", p.BalanceBefore)
	}
	if !p.BalanceAfter.Equal(decimal.NewFromInt(97800)) {
		t.Errorf("balance after = %s, want 97800", p.BalanceAfter)
	}
	if !f.credit.OutstandingBalance.Equal(decimal.NewFromInt(97800)) {
		t.Errorf("credit balance = %s, want 97800", f.credit.OutstandingBalance)
	}

	inst := f.installment(t, 1)
	if inst.Status != domain.InstallmentStatusPendiente {
		t.Errorf("installment status = %s, want Pendiente after partial payment", inst.Status)
	}
	if !inst.TotalPaid().Equal(decimal.NewFromInt(5000)) {
		t.Errorf("installment total paid = %s, want 5000", inst.TotalPaid())
	}

	events := f.outboxRepo.Events()
	if len(events) != 1 || events[0].EventType != domain.EventTypePaymentApplied {
		t.Errorf("expected one payment.applied outbox event, got %d", len(events))
	}
}

func TestPaymentUseCase_Apply_OverpaymentParksSuspense(t *testing.T) {
	f := newLedgerFixture(t)
	uc := f.paymentUseCase()

	result, err := uc.Apply(context.Background(), usecase.ApplyPaymentInput{
		CreditID: "credit-1",
		Amount:   decimal.NewFromInt(15000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Payment.Breakdown.Total().Equal(decimal.NewFromInt(11800)) {
		t.Errorf("breakdown total = %s, want 11800", result.Payment.Breakdown.Total())
	}

	if result.Suspense == nil {
		t.Fatal("expected overflow parked in suspense")
	}
	if !result.Suspense.Amount.Equal(decimal.NewFromInt(3200)) {
		t.Errorf("suspense amount = %s, want 3200", result.Suspense.Amount)
	}
	if result.Suspense.Status != domain.SuspenseStatusPending {
		t.Errorf("suspense status = %s, want pending", result.Suspense.Status)
	}
	if result.Suspense.PaymentID != result.Payment.ID {
		t.Errorf("suspense must reference its originating payment")
	}

	inst := f.installment(t, 1)
	if inst.Status != domain.InstallmentStatusPagado {
		t.Errorf("installment status = %s, want Pagado", inst.Status)
	}
	if inst.PaidAt == nil {
		t.Error("paid installment must carry a payment date")
	}
}

func TestPaymentUseCase_Apply_NoPendingInstallment(t *testing.T) {
	f := newLedgerFixture(t)
	for _, n := range []int{1, 2} {
		inst := f.installment(t, n)
		inst.Status = domain.InstallmentStatusPagado
	}
	uc := f.paymentUseCase()

	result, err := uc.Apply(context.Background(), usecase.ApplyPaymentInput{
		CreditID: "credit-1",
		Amount:   decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Suspense == nil || !result.Suspense.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatal("full amount must go to suspense when nothing is pending")
	}
	if result.Payment.InstallmentNumber != 0 {
		t.Errorf("payment installment = %d, want 0", result.Payment.InstallmentNumber)
	}
	if !result.Payment.Breakdown.IsZero() {
		t.Errorf("breakdown = %+v, want zero", result.Payment.Breakdown)
	}
	if !f.credit.OutstandingBalance.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("balance = %s, must be untouched", f.credit.OutstandingBalance)
	}
}

func TestPaymentUseCase_Apply_ExplicitInstallment(t *testing.T) {
	f := newLedgerFixture(t)
	uc := f.paymentUseCase()

	two := 2
	result, err := uc.Apply(context.Background(), usecase.ApplyPaymentInput{
		CreditID:          "credit-1",
		Amount:            decimal.NewFromInt(2000),
		InstallmentNumber: &two,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Payment.InstallmentNumber != 2 {
		t.Errorf("payment landed on %d, want 2", result.Payment.InstallmentNumber)
	}

	// Row 0 is the disbursement marker and never receives money.
	zero := 0
	_, err = uc.Apply(context.Background(), usecase.ApplyPaymentInput{
		CreditID:          "credit-1",
		Amount:            decimal.NewFromInt(100),
		InstallmentNumber: &zero,
	})
	if !errors.Is(err, domain.ErrInstallmentNotFound) {
		t.Errorf("expected ErrInstallmentNotFound for row 0, got %v", err)
	}
}

func TestPaymentUseCase_Apply_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *ledgerFixture)
		input   usecase.ApplyPaymentInput
		wantErr error
	}{
		{
			name:    "unknown credit",
			input:   usecase.ApplyPaymentInput{CreditID: "missing", Amount: decimal.NewFromInt(100)},
			wantErr: domain.ErrCreditNotFound,
		},
		{
			name: "credit not formalized",
			setup: func(f *ledgerFixture) {
				f.credit.Status = domain.CreditStatusPendiente
			},
			input:   usecase.ApplyPaymentInput{CreditID: "credit-1", Amount: decimal.NewFromInt(100)},
			wantErr: domain.ErrCreditNotFormalized,
		},
		{
			name:    "non-positive amount",
			input:   usecase.ApplyPaymentInput{CreditID: "credit-1", Amount: decimal.Zero},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			input:   usecase.ApplyPaymentInput{CreditID: "credit-1", Amount: decimal.NewFromInt(-50)},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.paymentUseCase().Apply(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if len(f.outboxRepo.Events()) != 0 {
				t.Error("rejected payment must not emit events")
			}
		})
	}
}

func TestPaymentUseCase_Preview_MatchesApply(t *testing.T) {
	amounts := []decimal.Decimal{
		decimal.NewFromInt(600),
		decimal.NewFromInt(5000),
		decimal.NewFromInt(15000),
	}

	for _, amount := range amounts {
		preview := newLedgerFixture(t)
		projection, err := preview.paymentUseCase().Preview(context.Background(), usecase.ApplyPaymentInput{
			CreditID: "credit-1",
			Amount:   amount,
		})
		if err != nil {
			t.Fatalf("preview %s: %v", amount, err)
		}

		applied := newLedgerFixture(t)
		result, err := applied.paymentUseCase().Apply(context.Background(), usecase.ApplyPaymentInput{
			CreditID: "credit-1",
			Amount:   amount,
		})
		if err != nil {
			t.Fatalf("apply %s: %v", amount, err)
		}

		if !projection.Breakdown.Mora.Equal(result.Payment.Breakdown.Mora) ||
			!projection.Breakdown.Corriente.Equal(result.Payment.Breakdown.Corriente) ||
			!projection.Breakdown.Poliza.Equal(result.Payment.Breakdown.Poliza) ||
			!projection.Breakdown.Principal.Equal(result.Payment.Breakdown.Principal) {
			t.Errorf("amount %s: preview breakdown %+v != applied %+v",
				amount, projection.Breakdown, result.Payment.Breakdown)
		}
		if !projection.BalanceAfter.Equal(result.Payment.BalanceAfter) {
			t.Errorf("amount %s: preview balance %s != applied %s",
				amount, projection.BalanceAfter, result.Payment.BalanceAfter)
		}
	}

	// Preview leaves no trace.
	f := newLedgerFixture(t)
	if _, err := f.paymentUseCase().Preview(context.Background(), usecase.ApplyPaymentInput{
		CreditID: "credit-1",
		Amount:   decimal.NewFromInt(5000),
	}); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if payments, _ := f.paymentRepo.ListByCredit(context.Background(), "credit-1", 100, 0); len(payments) != 0 {
		t.Error("preview must not persist payments")
	}
	if !f.credit.OutstandingBalance.Equal(decimal.NewFromInt(100000)) {
		t.Error("preview must not move the balance")
	}
}

func TestPaymentUseCase_ApplyBatch(t *testing.T) {
	f := newLedgerFixture(t)

	// Second credit for the same deductora.
	other := &domain.Credit{
		ID:                 "credit-2",
		ClientID:           "client-2",
		Cedula:             "2-456-789",
		DeductoraID:        "ded-1",
		Principal:          decimal.NewFromInt(50000),
		TermMonths:         6,
		AnnualRate:         decimal.NewFromFloat(24),
		OutstandingBalance: decimal.NewFromInt(50000),
		Status:             domain.CreditStatusFormalizado,
	}
	if err := f.creditRepo.Create(context.Background(), other); err != nil {
		t.Fatalf("seed credit: %v", err)
	}
	if err := f.installmentRepo.CreateBatch(context.Background(), nil, []*domain.Installment{
		{
			ID: "inst-b1", CreditID: "credit-2", Number: 1,
			Status:        domain.InstallmentStatusPendiente,
			OwedCorriente: decimal.NewFromInt(1000),
			OwedPrincipal: decimal.NewFromInt(8000),
		},
	}); err != nil {
		t.Fatalf("seed installments: %v", err)
	}

	uc := f.paymentUseCase()

	result, err := uc.ApplyBatch(context.Background(), usecase.ApplyBatchInput{
		DeductoraID: "ded-1",
		Period:      "2026-08",
		Rows: []usecase.BatchRow{
			{Cedula: "8-123-456", Amount: decimal.NewFromInt(5000)},
			{Cedula: "2-456-789", Amount: decimal.NewFromInt(3000)},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Batch.Status != domain.BatchStatusProcessed {
		t.Errorf("batch status = %s, want processed", result.Batch.Status)
	}
	if result.Batch.Count != 2 {
		t.Errorf("batch count = %d, want 2", result.Batch.Count)
	}
	if !result.Batch.TotalAmount.Equal(decimal.NewFromInt(8000)) {
		t.Errorf("batch total = %s, want 8000", result.Batch.TotalAmount)
	}
	if len(result.Payments) != 2 {
		t.Fatalf("payments = %d, want 2", len(result.Payments))
	}

	for _, p := range result.Payments {
		if p.BatchID == nil || *p.BatchID != result.Batch.ID {
			t.Error("batch payment must carry the batch ID")
		}
		if p.Source != domain.PaymentSourcePlanilla {
			t.Errorf("payment source = %s, want planilla", p.Source)
		}
	}

	if !f.credit.OutstandingBalance.Equal(decimal.NewFromInt(97800)) {
		t.Errorf("credit-1 balance = %s, want 97800", f.credit.OutstandingBalance)
	}
	// 3000 against 1000 corriente + 8000 principal: 2000 to principal.
	if !other.OutstandingBalance.Equal(decimal.NewFromInt(48000)) {
		t.Errorf("credit-2 balance = %s, want 48000", other.OutstandingBalance)
	}
}

func TestPaymentUseCase_ApplyBatch_RetriesOnLockContention(t *testing.T) {
	f := newLedgerFixture(t)

	// The first attempt loses the lock race before touching any row; the
	// retrier replays the whole planilla.
	begins := 0
	contention := errors.New("deadlock detected")
	f.txManager.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
		begins++
		if begins == 1 {
			return nil, contention
		}
		return &mocks.MockTransaction{}, nil
	}

	retrier := mocks.NewMockRetrier()
	uc := f.paymentUseCase().WithRetrier(retrier)

	result, err := uc.ApplyBatch(context.Background(), usecase.ApplyBatchInput{
		DeductoraID: "ded-1",
		Period:      "2026-08",
		Rows:        []usecase.BatchRow{{Cedula: "8-123-456", Amount: decimal.NewFromInt(5000)}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if begins != 2 {
		t.Errorf("transaction begins = %d, want 2", begins)
	}
	if retrier.Attempts != 2 {
		t.Errorf("retrier attempts = %d, want 2", retrier.Attempts)
	}
	if len(result.Payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(result.Payments))
	}
	if result.Batch.Status != domain.BatchStatusProcessed {
		t.Errorf("batch status = %s, want processed", result.Batch.Status)
	}
}

func TestPaymentUseCase_ApplyBatch_ExhaustedRetryFails(t *testing.T) {
	f := newLedgerFixture(t)

	contention := errors.New("deadlock detected")
	f.txManager.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
		return nil, contention
	}

	uc := f.paymentUseCase().WithRetrier(mocks.NewMockRetrier())

	_, err := uc.ApplyBatch(context.Background(), usecase.ApplyBatchInput{
		DeductoraID: "ded-1",
		Period:      "2026-08",
		Rows:        []usecase.BatchRow{{Cedula: "8-123-456", Amount: decimal.NewFromInt(5000)}},
	})
	if !errors.Is(err, contention) {
		t.Fatalf("error = %v, want %v", err, contention)
	}
	if payments, _ := f.paymentRepo.ListByCredit(context.Background(), "credit-1", 100, 0); len(payments) != 0 {
		t.Error("failed batch must not leave payments behind")
	}
}

func TestPaymentUseCase_ApplyBatch_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.ApplyBatchInput
		wantErr error
	}{
		{
			name: "unknown cedula aborts the whole batch",
			input: usecase.ApplyBatchInput{
				DeductoraID: "ded-1",
				Period:      "2026-08",
				Rows: []usecase.BatchRow{
					{Cedula: "8-123-456", Amount: decimal.NewFromInt(5000)},
					{Cedula: "9-999-999", Amount: decimal.NewFromInt(3000)},
				},
			},
			wantErr: domain.ErrCreditNotFound,
		},
		{
			name: "bad period",
			input: usecase.ApplyBatchInput{
				DeductoraID: "ded-1",
				Period:      "08-2026",
				Rows:        []usecase.BatchRow{{Cedula: "8-123-456", Amount: decimal.NewFromInt(100)}},
			},
			wantErr: domain.ErrInvalidPeriod,
		},
		{
			name: "empty batch",
			input: usecase.ApplyBatchInput{
				DeductoraID: "ded-1",
				Period:      "2026-08",
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "negative row amount",
			input: usecase.ApplyBatchInput{
				DeductoraID: "ded-1",
				Period:      "2026-08",
				Rows:        []usecase.BatchRow{{Cedula: "8-123-456", Amount: decimal.NewFromInt(-10)}},
			},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)

			_, err := f.paymentUseCase().ApplyBatch(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}

			if payments, _ := f.paymentRepo.ListByCredit(context.Background(), "credit-1", 100, 0); len(payments) != 0 {
				t.Error("aborted batch must not leave payments behind")
			}
		})
	}
}
