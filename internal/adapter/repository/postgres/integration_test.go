package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bookkeeper/internal/domain"
	infrapg "github.com/iho/bookkeeper/internal/infrastructure/postgres"
	"github.com/iho/bookkeeper/internal/usecase"
)

const migrationsDir = "../../../../migrations"

// newTestPool migrates and truncates the database at DATABASE_URL.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	require.NoError(t, infrapg.NewMigrator(dbURL, migrationsDir, zerolog.Nop()).Up())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := infrapg.NewPoolWithConfig(ctx, infrapg.PoolConfig{DatabaseURL: dbURL, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE TABLE movements, journal_entries, entry_number_sequences, accounts, outbox_events, audit_logs CASCADE`)
	require.NoError(t, err)
	return pool
}

func TestIntegrationEntryLifecycle(t *testing.T) {
	pool := newTestPool(t)
	ctx := domain.WithPrincipal(context.Background(), domain.Principal{OwnerID: "owner-1", Role: domain.RoleAdmin})

	txManager := NewTxManager(pool)
	accountRepo := NewAccountRepository(pool)
	movementRepo := NewMovementRepository(pool)
	outboxRepo := NewOutboxRepository(pool)
	idGen := NewULIDGenerator()

	accounts := usecase.NewAccountUseCase(txManager, accountRepo, movementRepo, outboxRepo, idGen).
		WithAudit(NewAuditRepository(pool))
	entries := usecase.NewEntryUseCase(txManager, accountRepo, NewEntryRepository(pool), movementRepo, outboxRepo, idGen).
		WithRetrier(NewRetrier(zerolog.Nop()))
	ledger := usecase.NewLedgerUseCase(NewLedgerRepository(pool), domain.DefaultBalanceTolerance)

	create := func(code, name string, cat domain.Category, sub domain.Subtype, parent *domain.Account, detail bool) *domain.Account {
		t.Helper()
		in := usecase.CreateAccountInput{Code: code, Name: name, Category: cat, Subtype: sub, IsDetail: detail}
		if parent != nil {
			in.ParentID = &parent.ID
		}
		a, err := accounts.CreateAccount(ctx, in)
		require.NoError(t, err)
		return a
	}

	assets := create("1", "Assets", domain.CategoryAsset, domain.SubtypeNone, nil, false)
	current := create("1.1", "Current Assets", domain.CategoryAsset, domain.SubtypeCurrent, assets, false)
	cash := create("1.1.01", "Cash", domain.CategoryAsset, domain.SubtypeCurrent, current, true)
	equity := create("3", "Equity", domain.CategoryEquity, domain.SubtypeNone, nil, false)
	capital := create("3.1", "Capital", domain.CategoryEquity, domain.SubtypeNone, equity, true)

	path, err := accounts.HierarchyPath(ctx, cash.ID)
	require.NoError(t, err)
	assert.Equal(t, "Assets > Current Assets > Cash", path)

	hundred := decimal.NewFromInt(100)
	entry, err := entries.CreateEntry(ctx, usecase.CreateEntryInput{
		Date:        time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Description: "opening balance",
		Movements: []usecase.MovementInput{
			{AccountID: cash.ID, Debit: hundred},
			{AccountID: capital.ID, Credit: hundred},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStateDraft, entry.State)

	posted, err := entries.PostEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatePosted, posted.State)

	balance, err := accounts.ComputeBalance(ctx, cash.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(hundred), "computed balance %s", balance)

	stored, err := accountRepo.GetByID(ctx, cash.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(hundred), "stored balance %s", stored.Balance)

	report, err := ledger.CheckConsistency(ctx, "owner-1")
	require.NoError(t, err)
	assert.True(t, report.Consistent())

	copyEntry, err := entries.DuplicateEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStateDraft, copyEntry.State)
	assert.Equal(t, posted.Number+"-COPY", copyEntry.Number)

	voided, err := entries.VoidEntry(ctx, entry.ID, "typo")
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStateVoid, voided.State)

	stored, err = accountRepo.GetByID(ctx, cash.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.IsZero(), "balance after void %s", stored.Balance)

	_, err = entries.PostEntry(ctx, entry.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	pending, err := outboxRepo.GetUnpublished(ctx, 50)
	require.NoError(t, err)
	assert.NotEmpty(t, pending)
}
