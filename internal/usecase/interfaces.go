package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
)

// AccountRepository defines data access for the chart of accounts.
type AccountRepository interface {
	CreateTx(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Account, error)
	GetByCode(ctx context.Context, code string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	// GetByIDsForUpdate locks rows in the order given; callers sort ids first.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error
	SetActive(ctx context.Context, tx Transaction, id string, active bool, updatedAt time.Time) error
	Delete(ctx context.Context, tx Transaction, id string) error
	ListChildren(ctx context.Context, parentID string) ([]*domain.Account, error)
	CountChildren(ctx context.Context, tx Transaction, parentID string, activeOnly bool) (int, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error)
}

// JournalEntryRepository defines data access for journal entries and their movements.
type JournalEntryRepository interface {
	// Create inserts the entry together with its movements.
	Create(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error
	GetByID(ctx context.Context, id string) (*domain.JournalEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.JournalEntry, error)
	ExistsNumber(ctx context.Context, number string) (bool, error)
	NextNumber(ctx context.Context, tx Transaction, year int) (string, error)
	// UpdateHeader persists state, description and lifecycle timestamps.
	UpdateHeader(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error
	Delete(ctx context.Context, tx Transaction, id string) error
	List(ctx context.Context, filter EntryFilter) ([]*domain.JournalEntry, error)
}

// EntryFilter narrows entry listings.
type EntryFilter struct {
	OwnerID string
	State   domain.EntryState
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// MovementRepository defines data access for movement lines.
type MovementRepository interface {
	Create(ctx context.Context, tx Transaction, movement *domain.Movement) error
	Update(ctx context.Context, tx Transaction, movement *domain.Movement) error
	Delete(ctx context.Context, tx Transaction, id string) error
	SetApplied(ctx context.Context, tx Transaction, id string, applied bool) error
	// CountByAccount counts movements on the account whose entry is in one of states,
	// or in any state when none are given.
	CountByAccount(ctx context.Context, tx Transaction, accountID string, states ...domain.EntryState) (int, error)
	// SumPosted aggregates debits and credits of movements belonging to posted entries.
	SumPosted(ctx context.Context, accountID string) (debits, credits decimal.Decimal, err error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Movement, error)
}

// LedgerRepository defines data access for ledger-wide checks.
type LedgerRepository interface {
	// PostedTotals sums debits and credits over every posted entry of the owner.
	PostedTotals(ctx context.Context, ownerID string) (debits, credits decimal.Decimal, err error)
	// BalancesByCategory sums stored detail balances per category.
	BalancesByCategory(ctx context.Context, ownerID string) (map[domain.Category]decimal.Decimal, error)
	// UnbalancedPostedEntries lists posted entries whose own movements do not balance.
	UnbalancedPostedEntries(ctx context.Context, ownerID string, tolerance decimal.Decimal) ([]string, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyPending is the value CheckAndSet stores while the first request
// holding a key is still running.
const IdempotencyPending = "processing"

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key so the request can be retried.
	Release(ctx context.Context, key string) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock in UTC.
func SystemClock() Clock { return systemClock{} }

type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error { return operation() }
