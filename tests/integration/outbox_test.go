package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/usecase"
	"github.com/credisol/crediledger/tests/testutil"
)

func TestOutboxRecordsLedgerEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	e := newEnv(t)
	ctx := context.Background()

	credit := e.formalizedCredit(t, ctx, testutil.CreditParams{TermMonths: 12})

	installments, err := e.creditUC.ListInstallments(ctx, credit.ID)
	require.NoError(t, err)

	_, err = e.paymentUC.Apply(ctx, usecase.ApplyPaymentInput{
		CreditID: credit.ID,
		Amount:   installments[1].TotalOwed(),
	})
	require.NoError(t, err)

	events, err := e.outboxRepo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2, "one event for formalization, one for the payment")

	types := map[string]bool{}
	for _, evt := range events {
		types[evt.EventType] = true
		assert.False(t, evt.Published)
	}
	assert.True(t, types[domain.EventTypeCreditFormalized])
	assert.True(t, types[domain.EventTypePaymentApplied])
}

func TestOutboxMarkPublished(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	e := newEnv(t)
	ctx := context.Background()

	e.formalizedCredit(t, ctx, testutil.CreditParams{TermMonths: 12})

	events, err := e.outboxRepo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	err = e.outboxRepo.MarkPublished(ctx, events[0].ID, time.Now().UTC())
	require.NoError(t, err)

	events, err = e.outboxRepo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestOutboxBatchVoidEvent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	e := newEnv(t)
	ctx := context.Background()

	credit := e.formalizedCredit(t, ctx, testutil.CreditParams{
		Cedula:      "5-0777-0888",
		DeductoraID: "ded-acme",
		TermMonths:  12,
	})

	installments, err := e.creditUC.ListInstallments(ctx, credit.ID)
	require.NoError(t, err)

	batchResult, err := e.paymentUC.ApplyBatch(ctx, usecase.ApplyBatchInput{
		DeductoraID: "ded-acme",
		Period:      "2026-08",
		Rows: []usecase.BatchRow{
			{Cedula: "5-0777-0888", Amount: installments[1].TotalOwed()},
		},
	})
	require.NoError(t, err)

	_, err = e.voidUC.VoidBatch(ctx, batchResult.Batch.ID, "usr-ops", "wrong period")
	require.NoError(t, err)

	events, err := e.outboxRepo.GetByAggregate(ctx, domain.AggregateTypeBatch, batchResult.Batch.ID, 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, domain.EventTypeBatchVoided, events[0].EventType)
}
