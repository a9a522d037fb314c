package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus is the lifecycle state of a batch upload.
type BatchStatus string

const (
	BatchStatusProcessed BatchStatus = "processed"
	BatchStatusVoided    BatchStatus = "voided"
)

var batchTransitions = map[BatchStatus][]BatchStatus{
	BatchStatusProcessed: {BatchStatusVoided},
	BatchStatusVoided:    {},
}

// CanTransitionTo reports whether the transition is in the fixed table.
func (s BatchStatus) CanTransitionTo(next BatchStatus) bool {
	for _, allowed := range batchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// BatchUpload groups payments applied together, e.g. one payroll deduction
// run (planilla). Reversal operates at this granularity.
type BatchUpload struct {
	ID          string
	DeductoraID string
	Period      string
	Count       int
	TotalAmount decimal.Decimal
	Status      BatchStatus
	VoidedBy    string
	VoidReason  string
	VoidedAt    *time.Time
	CreatedAt   time.Time
}
