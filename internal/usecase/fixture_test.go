package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
	"github.com/iho/bookkeeper/internal/usecase/mocks"
)

const testOwner = "owner-1"

type fixture struct {
	store    *mocks.Store
	ids      *mocks.SequentialIDs
	clock    *mocks.FixedClock
	accounts *usecase.AccountUseCase
	entries  *usecase.EntryUseCase
	ledger   *usecase.LedgerUseCase
	recon    *usecase.ReconciliationUseCase
	chart    map[string]*domain.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := mocks.NewStore()
	ids := &mocks.SequentialIDs{}
	clock := &mocks.FixedClock{T: time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)}

	accounts := usecase.NewAccountUseCase(store, store.Accounts(), store.Movements(), store.Outbox(), ids).
		WithAudit(store.Audit()).
		WithClock(clock)
	entries := usecase.NewEntryUseCase(store, store.Accounts(), store.Entries(), store.Movements(), store.Outbox(), ids).
		WithAudit(store.Audit()).
		WithClock(clock)
	ledger := usecase.NewLedgerUseCase(store.Ledger(), domain.DefaultBalanceTolerance)

	return &fixture{
		store:    store,
		ids:      ids,
		clock:    clock,
		accounts: accounts,
		entries:  entries,
		ledger:   ledger,
		recon:    usecase.NewReconciliationUseCase(store.Accounts(), store.Movements(), ledger),
		chart:    make(map[string]*domain.Account),
	}
}

type accountSpec struct {
	key      string
	code     string
	name     string
	category domain.Category
	subtype  domain.Subtype
	parent   string
	detail   bool
}

var standardChart = []accountSpec{
	{"assets", "1", "Assets", domain.CategoryAsset, domain.SubtypeNone, "", false},
	{"current", "1.1", "Current Assets", domain.CategoryAsset, domain.SubtypeCurrent, "assets", false},
	{"cash", "1.1.01", "Cash", domain.CategoryAsset, domain.SubtypeCurrent, "current", true},
	{"bank", "1.1.02", "Bank", domain.CategoryAsset, domain.SubtypeCurrent, "current", true},
	{"liabilities", "2", "Liabilities", domain.CategoryLiability, domain.SubtypeNone, "", false},
	{"short", "2.1", "Short Term", domain.CategoryLiability, domain.SubtypeCurrent, "liabilities", false},
	{"card", "2.1.01", "Credit Card", domain.CategoryLiability, domain.SubtypeCurrent, "short", true},
	{"equity", "3", "Equity", domain.CategoryEquity, domain.SubtypeNone, "", false},
	{"capital", "3.1", "Capital", domain.CategoryEquity, domain.SubtypeNone, "equity", true},
	{"revenue", "4", "Revenue", domain.CategoryRevenue, domain.SubtypeNone, "", false},
	{"sales", "4.1", "Sales", domain.CategoryRevenue, domain.SubtypeNone, "revenue", true},
	{"expenses", "5", "Expenses", domain.CategoryExpense, domain.SubtypeNone, "", false},
	{"rent", "5.1", "Rent", domain.CategoryExpense, domain.SubtypeNone, "expenses", true},
}

func (f *fixture) seedChart(t *testing.T) {
	t.Helper()
	for _, spec := range standardChart {
		f.createAccount(t, spec)
	}
}

func (f *fixture) createAccount(t *testing.T, spec accountSpec) *domain.Account {
	t.Helper()
	input := usecase.CreateAccountInput{
		OwnerID:  testOwner,
		Code:     spec.code,
		Name:     spec.name,
		Category: spec.category,
		Subtype:  spec.subtype,
		IsDetail: spec.detail,
	}
	if spec.parent != "" {
		id := f.chart[spec.parent].ID
		input.ParentID = &id
	}
	a, err := f.accounts.CreateAccount(context.Background(), input)
	require.NoError(t, err, "create %s", spec.key)
	f.chart[spec.key] = a
	return a
}

func (f *fixture) id(key string) string {
	return f.chart[key].ID
}

func (f *fixture) debit(key, amount string) usecase.MovementInput {
	return usecase.MovementInput{AccountID: f.id(key), Debit: decimal.RequireFromString(amount)}
}

func (f *fixture) credit(key, amount string) usecase.MovementInput {
	return usecase.MovementInput{AccountID: f.id(key), Credit: decimal.RequireFromString(amount)}
}

func (f *fixture) draft(t *testing.T, lines ...usecase.MovementInput) *domain.JournalEntry {
	t.Helper()
	e, err := f.entries.CreateEntry(context.Background(), usecase.CreateEntryInput{
		OwnerID:     testOwner,
		Description: "test entry",
		Movements:   lines,
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) post(t *testing.T, lines ...usecase.MovementInput) *domain.JournalEntry {
	t.Helper()
	e := f.draft(t, lines...)
	posted, err := f.entries.PostEntry(context.Background(), e.ID)
	require.NoError(t, err)
	return posted
}

func (f *fixture) balance(key string) decimal.Decimal {
	return f.store.Account(f.id(key)).Balance
}

// requireAgreement checks stored balances against recomputed ones for every account.
func (f *fixture) requireAgreement(t *testing.T) {
	t.Helper()
	for key, a := range f.chart {
		computed, err := f.accounts.ComputeBalance(context.Background(), a.ID)
		require.NoError(t, err)
		stored := f.balance(key)
		require.Truef(t, stored.Equal(computed), "%s: stored %s, computed %s", key, stored, computed)
	}
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}
