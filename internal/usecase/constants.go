package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// ScheduleCacheTTL is how long installment schedules are cached. Ledger
	// mutations delete the key eagerly; the TTL only bounds staleness when a
	// delete is missed.
	ScheduleCacheTTL = 60 * time.Second
)

// ScheduleCacheKey is the cache key for a credit's installment schedule.
func ScheduleCacheKey(creditID string) string {
	return "schedule:" + creditID
}
