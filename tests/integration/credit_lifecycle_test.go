package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/usecase"
	"github.com/credisol/crediledger/tests/testutil"
)

func TestCreditFormalization(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	e := newEnv(t)
	ctx := context.Background()

	credit := e.db.CreateTestCredit(ctx, testutil.CreditParams{
		Principal:  mustDecimal(t, "5000000"),
		Charges:    mustDecimal(t, "75000"),
		TermMonths: 60,
		AnnualRate: mustDecimal(t, "15"),
	})

	rows, err := e.scheduleUC.Formalize(ctx, credit.ID)
	require.NoError(t, err)
	require.Len(t, rows, 61, "disbursement row plus one row per month")

	net := mustDecimal(t, "4925000")

	// Row 0 is the disbursement marker, never payable.
	marker := rows[0]
	assert.Equal(t, 0, marker.Number)
	assert.Equal(t, domain.InstallmentStatusVigente, marker.Status)
	assert.True(t, marker.OwedPrincipal.Equal(net))
	assert.True(t, marker.ResultingBalance.Equal(net))
	assert.False(t, marker.Payable())

	// Every amortizing row except the last carries the same level payment.
	payment := rows[1].OwedCorriente.Add(rows[1].OwedPrincipal)
	for _, row := range rows[2 : len(rows)-1] {
		total := row.OwedCorriente.Add(row.OwedPrincipal)
		assert.True(t, total.Equal(payment),
			"row %d payment %s != %s", row.Number, total, payment)
	}

	// Principal column sums to net principal exactly: the last row absorbs
	// all rounding drift.
	sum := decimal.Zero
	for _, row := range rows[1:] {
		sum = sum.Add(row.OwedPrincipal)
	}
	assert.True(t, sum.Equal(net), "principal sum %s != net %s", sum, net)
	assert.True(t, rows[len(rows)-1].ResultingBalance.IsZero())

	// The credit opens its outstanding balance at net principal.
	reloaded, err := e.creditUC.GetCredit(ctx, credit.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CreditStatusFormalizado, reloaded.Status)
	assert.True(t, reloaded.OutstandingBalance.Equal(net))
	require.NotNil(t, reloaded.FormalizedAt)
}

func TestCreditFormalizationIsOneShot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	e := newEnv(t)
	ctx := context.Background()

	credit := e.db.CreateTestCredit(ctx, testutil.CreditParams{})

	_, err := e.scheduleUC.Formalize(ctx, credit.ID)
	require.NoError(t, err)

	_, err = e.scheduleUC.Formalize(ctx, credit.ID)
	assert.True(t, errors.Is(err, domain.ErrCreditAlreadyFormalized))
}

func TestScheduleRegeneration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	e := newEnv(t)
	ctx := context.Background()

	credit := e.formalizedCredit(t, ctx, testutil.CreditParams{TermMonths: 12})

	t.Run("untouched schedule rebuilds completely", func(t *testing.T) {
		rows, err := e.scheduleUC.Regenerate(ctx, usecase.RegenerateInput{CreditID: credit.ID})
		require.NoError(t, err)
		assert.Len(t, rows, 13)
	})

	t.Run("locks once an installment carries a payment", func(t *testing.T) {
		installments, err := e.creditUC.ListInstallments(ctx, credit.ID)
		require.NoError(t, err)

		owed := installments[1].TotalOwed()
		_, err = e.paymentUC.Apply(ctx, usecase.ApplyPaymentInput{
			CreditID: credit.ID,
			Amount:   owed,
		})
		require.NoError(t, err)

		_, err = e.scheduleUC.Regenerate(ctx, usecase.RegenerateInput{CreditID: credit.ID})
		assert.True(t, errors.Is(err, domain.ErrScheduleLocked))
	})

	t.Run("pending-only rebuild preserves paid rows", func(t *testing.T) {
		rows, err := e.scheduleUC.Regenerate(ctx, usecase.RegenerateInput{
			CreditID:           credit.ID,
			RebuildPendingOnly: true,
		})
		require.NoError(t, err)
		require.NotEmpty(t, rows)
		assert.Equal(t, 2, rows[0].Number, "rebuild starts after the paid row")

		installments, err := e.creditUC.ListInstallments(ctx, credit.ID)
		require.NoError(t, err)
		assert.Len(t, installments, 13)
		assert.Equal(t, domain.InstallmentStatusPagado, installments[1].Status)
	})
}

func TestLedgerConsistencyAfterLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	e := newEnv(t)
	ctx := context.Background()

	credit := e.formalizedCredit(t, ctx, testutil.CreditParams{TermMonths: 24})

	installments, err := e.creditUC.ListInstallments(ctx, credit.ID)
	require.NoError(t, err)

	_, err = e.paymentUC.Apply(ctx, usecase.ApplyPaymentInput{
		CreditID: credit.ID,
		Amount:   installments[1].TotalOwed(),
	})
	require.NoError(t, err)

	consistent, err := e.consistencyUC.Check(ctx)
	require.NoError(t, err)
	assert.True(t, consistent)
}
