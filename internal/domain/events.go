package domain

import "time"

// Event types handed to the external accounting poster.
const (
	EventTypeCreditFormalized = "credit.formalized"
	EventTypePaymentApplied   = "payment.applied"
	EventTypeSuspenseAssigned = "suspense.assigned"
	EventTypeBatchVoided      = "batch.voided"
)

// Aggregate types
const (
	AggregateTypeCredit  = "credit"
	AggregateTypePayment = "payment"
	AggregateTypeBatch   = "batch"
)

// OutboxEvent represents an event to be posted to the external accounting
// system. Events are written in the same transaction as the ledger mutation
// and delivered by an independent poller, so the ledger never blocks on the
// poster's success or failure.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// CreditFormalizedEvent payload
type CreditFormalizedEvent struct {
	CreditID     string `json:"credit_id"`
	NetPrincipal string `json:"net_principal"`
	TermMonths   int    `json:"term_months"`
	AnnualRate   string `json:"annual_rate"`
	FormalizedAt string `json:"formalized_at"`
}

// PaymentAppliedEvent payload: the journal-entry material the accounting
// poster needs (entry type, reference, amount, breakdown).
type PaymentAppliedEvent struct {
	PaymentID         string `json:"payment_id"`
	CreditID          string `json:"credit_id"`
	InstallmentNumber int    `json:"installment_number"`
	Amount            string `json:"amount"`
	Mora              string `json:"mora"`
	Corriente         string `json:"corriente"`
	Poliza            string `json:"poliza"`
	Principal         string `json:"principal"`
	Source            string `json:"source"`
}

// BatchVoidedEvent payload
type BatchVoidedEvent struct {
	BatchID      string `json:"batch_id"`
	PaymentCount int    `json:"payment_count"`
	TotalAmount  string `json:"total_amount"`
	VoidedBy     string `json:"voided_by"`
	Reason       string `json:"reason"`
}
