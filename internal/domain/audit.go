package domain

import (
	"time"
)

// AuditLog represents an audit trail entry for compliance and debugging
type AuditLog struct {
	ID           string
	UserID       string // Who performed the action
	Action       string // What action (payment.apply, batch.void, etc.)
	ResourceType string // Type of resource (credit, payment, batch)
	ResourceID   string // ID of the resource
	IPAddress    string // Client IP address
	UserAgent    string // Client user agent
	RequestID    string // Request ID for tracing
	BeforeState  JSON   // State before the action
	AfterState   JSON   // State after the action
	Status       string // success, failure, error
	ErrorMessage string // If status=error, the error message
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	// Credit actions
	AuditActionCreditCreate    AuditAction = "credit.create"
	AuditActionCreditFormalize AuditAction = "credit.formalize"
	AuditActionScheduleRegen   AuditAction = "schedule.regenerate"

	// Payment actions
	AuditActionPaymentApply AuditAction = "payment.apply"
	AuditActionBatchApply   AuditAction = "batch.apply"
	AuditActionBatchVoid    AuditAction = "batch.void"

	// Suspense actions
	AuditActionSuspenseAssign AuditAction = "suspense.assign"

	// Auth actions
	AuditActionUserLogin  AuditAction = "user.login"
	AuditActionUserLogout AuditAction = "user.logout"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
	AuditStatusError   AuditStatus = "error"
)

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}
