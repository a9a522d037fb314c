package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/usecase"
)

func (f *ledgerFixture) creditUseCase() *usecase.CreditUseCase {
	return usecase.NewCreditUseCase(f.creditRepo, f.installmentRepo, f.cache, f.idGen)
}

func validCreateCreditInput() usecase.CreateCreditInput {
	now := time.Now().UTC()
	return usecase.CreateCreditInput{
		ClientID:     "client-7",
		Cedula:       "8-765-432",
		DeductoraID:  "ded-1",
		Principal:    decimal.NewFromInt(250000),
		Charges:      decimal.NewFromInt(5000),
		TermMonths:   24,
		AnnualRate:   decimal.NewFromFloat(28.5),
		DisbursedAt:  now,
		FirstDueDate: now.AddDate(0, 1, 0),
	}
}

func TestCreditUseCase_CreateCredit(t *testing.T) {
	f := newLedgerFixture(t)

	credit, err := f.creditUseCase().CreateCredit(context.Background(), validCreateCreditInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if credit.Status != domain.CreditStatusPendiente {
		t.Errorf("status = %s, want Pendiente", credit.Status)
	}
	if !credit.OutstandingBalance.IsZero() {
		t.Errorf("balance = %s, want 0 before formalization", credit.OutstandingBalance)
	}
	if credit.ID == "" {
		t.Error("credit must get an ID")
	}

	stored, err := f.creditRepo.GetByID(context.Background(), credit.ID)
	if err != nil {
		t.Fatalf("get credit: %v", err)
	}
	if !stored.NetPrincipal().Equal(decimal.NewFromInt(245000)) {
		t.Errorf("net principal = %s, want 245000", stored.NetPrincipal())
	}
}

func TestCreditUseCase_CreateCredit_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*usecase.CreateCreditInput)
		wantErr error
	}{
		{
			name:    "bad cedula",
			modify:  func(in *usecase.CreateCreditInput) { in.Cedula = "not a cedula" },
			wantErr: domain.ErrInvalidCedula,
		},
		{
			name:    "zero principal",
			modify:  func(in *usecase.CreateCreditInput) { in.Principal = decimal.Zero },
			wantErr: domain.ErrInvalidScheduleInput,
		},
		{
			name:    "zero term",
			modify:  func(in *usecase.CreateCreditInput) { in.TermMonths = 0 },
			wantErr: domain.ErrInvalidScheduleInput,
		},
		{
			name: "charges exceed principal",
			modify: func(in *usecase.CreateCreditInput) {
				in.Charges = in.Principal.Add(decimal.NewFromInt(1))
			},
			wantErr: domain.ErrInvalidScheduleInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			input := validCreateCreditInput()
			tt.modify(&input)

			_, err := f.creditUseCase().CreateCredit(context.Background(), input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreditUseCase_ListInstallments_Cache(t *testing.T) {
	f := newLedgerFixture(t)
	uc := f.creditUseCase()

	rows, err := f.installmentRepo.ListByCredit(context.Background(), "credit-1")
	if err != nil {
		t.Fatalf("seed read: %v", err)
	}

	calls := 0
	f.installmentRepo.ListByCreditFunc = func(ctx context.Context, creditID string) ([]*domain.Installment, error) {
		calls++
		return rows, nil
	}

	first, err := uc.ListInstallments(context.Background(), "credit-1")
	if err != nil {
		t.Fatalf("first list: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("rows = %d, want 3", len(first))
	}

	second, err := uc.ListInstallments(context.Background(), "credit-1")
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if len(second) != 3 {
		t.Fatalf("cached rows = %d, want 3", len(second))
	}
	if calls != 1 {
		t.Errorf("repository calls = %d, want 1 (second read served from cache)", calls)
	}
}

func TestCreditUseCase_ListInstallments_InvalidatedAfterPayment(t *testing.T) {
	f := newLedgerFixture(t)
	uc := f.creditUseCase()

	if _, err := uc.ListInstallments(context.Background(), "credit-1"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	if _, err := f.paymentUseCase().Apply(context.Background(), usecase.ApplyPaymentInput{
		CreditID: "credit-1",
		Amount:   decimal.NewFromInt(5000),
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	rows, err := uc.ListInstallments(context.Background(), "credit-1")
	if err != nil {
		t.Fatalf("list after payment: %v", err)
	}

	var target *domain.Installment
	for _, r := range rows {
		if r.Number == 1 {
			target = r
		}
	}
	if target == nil {
		t.Fatal("installment 1 missing")
	}
	if !target.TotalPaid().Equal(decimal.NewFromInt(5000)) {
		t.Errorf("total paid = %s, want fresh 5000 (stale cache served)", target.TotalPaid())
	}
}

func TestConsistencyUseCase_Check(t *testing.T) {
	t.Run("consistent", func(t *testing.T) {
		uc := usecase.NewConsistencyUseCase(stubLedgerRepo{})
		ok, err := uc.Check(context.Background())
		if err != nil || !ok {
			t.Fatalf("ok = %v, err = %v, want true, nil", ok, err)
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		uc := usecase.NewConsistencyUseCase(stubLedgerRepo{
			mismatches: []*domain.BalanceMismatch{
				{CreditID: "credit-1", Stored: decimal.NewFromInt(100), Derived: decimal.NewFromInt(90)},
			},
		})
		ok, err := uc.Check(context.Background())
		if ok || !errors.Is(err, usecase.ErrInconsistentLedger) {
			t.Fatalf("ok = %v, err = %v, want false, ErrInconsistentLedger", ok, err)
		}
	})
}

type stubLedgerRepo struct {
	mismatches []*domain.BalanceMismatch
	err        error
}

func (s stubLedgerRepo) FindBalanceMismatches(ctx context.Context, limit int) ([]*domain.BalanceMismatch, error) {
	return s.mismatches, s.err
}
