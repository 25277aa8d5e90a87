package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultPathCacheTTL bounds how long hierarchy paths stay cached.
	DefaultPathCacheTTL = time.Hour

	// maxCopyAttempts bounds the search for a free "-COPY-n" number.
	maxCopyAttempts = 100

	// maxNumberAttempts bounds the search for a free automatic entry number.
	maxNumberAttempts = 20

	systemActor = "system"
)
