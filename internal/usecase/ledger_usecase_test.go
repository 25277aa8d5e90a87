package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
)

type fakeLedgerRepository struct {
	debits     decimal.Decimal
	credits    decimal.Decimal
	unbalanced []string
	totals     map[domain.Category]decimal.Decimal
	err        error
}

func (f *fakeLedgerRepository) PostedTotals(context.Context, string) (decimal.Decimal, decimal.Decimal, error) {
	return f.debits, f.credits, f.err
}

func (f *fakeLedgerRepository) BalancesByCategory(context.Context, string) (map[domain.Category]decimal.Decimal, error) {
	return f.totals, f.err
}

func (f *fakeLedgerRepository) UnbalancedPostedEntries(context.Context, string, decimal.Decimal) ([]string, error) {
	return f.unbalanced, f.err
}

func totals(asset, liability, equity, revenue, expense int64) map[domain.Category]decimal.Decimal {
	return map[domain.Category]decimal.Decimal{
		domain.CategoryAsset:     decimal.NewFromInt(asset),
		domain.CategoryLiability: decimal.NewFromInt(liability),
		domain.CategoryEquity:    decimal.NewFromInt(equity),
		domain.CategoryRevenue:   decimal.NewFromInt(revenue),
		domain.CategoryExpense:   decimal.NewFromInt(expense),
	}
}

func TestLedgerUseCase_VerifyConsistency(t *testing.T) {
	hundred := decimal.NewFromInt(100)

	tests := []struct {
		name        string
		repo        *fakeLedgerRepository
		want        bool
		expectedErr error
	}{
		{
			name: "balanced ledger",
			repo: &fakeLedgerRepository{
				debits: hundred, credits: hundred,
				totals: totals(150, 20, 100, 80, 50),
			},
			want: true,
		},
		{
			name: "empty ledger",
			repo: &fakeLedgerRepository{
				debits: decimal.Zero, credits: decimal.Zero,
			},
			want: true,
		},
		{
			name:        "repo error surfaces",
			repo:        &fakeLedgerRepository{err: errors.New("db down")},
			expectedErr: errors.New("db down"),
		},
		{
			name: "debits differ from credits",
			repo: &fakeLedgerRepository{
				debits: hundred, credits: decimal.NewFromInt(90),
				totals: totals(0, 0, 0, 0, 0),
			},
			expectedErr: ErrInconsistentLedger,
		},
		{
			name: "unbalanced posted entry",
			repo: &fakeLedgerRepository{
				debits: hundred, credits: hundred,
				unbalanced: []string{"entry-1"},
			},
			expectedErr: ErrInconsistentLedger,
		},
		{
			name: "equation broken by balance drift",
			repo: &fakeLedgerRepository{
				debits: hundred, credits: hundred,
				totals: totals(151, 20, 100, 80, 50),
			},
			expectedErr: ErrInconsistentLedger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewLedgerUseCase(tt.repo, decimal.Zero)
			err := uc.VerifyConsistency(context.Background(), "owner-1")

			if tt.expectedErr != nil {
				if err == nil {
					t.Fatalf("expected error %v, got nil", tt.expectedErr)
				}
				if errors.Is(tt.expectedErr, ErrInconsistentLedger) && !errors.Is(err, ErrInconsistentLedger) {
					t.Fatalf("expected ErrInconsistentLedger, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			report, err := uc.CheckConsistency(context.Background(), "owner-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if report.Consistent() != tt.want {
				t.Fatalf("Consistent() = %v, want %v", report.Consistent(), tt.want)
			}
		})
	}
}

func TestLedgerUseCase_EquationDifference(t *testing.T) {
	repo := &fakeLedgerRepository{
		debits: decimal.NewFromInt(10), credits: decimal.NewFromInt(10),
		totals: totals(95, 20, 100, 80, 50),
	}
	uc := NewLedgerUseCase(repo, decimal.Zero)

	report, err := uc.CheckConsistency(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.DoubleEntryHolds() {
		t.Fatal("expected double entry identity to hold")
	}
	if want := decimal.NewFromInt(-55); !report.EquationDifference.Equal(want) {
		t.Fatalf("EquationDifference = %s, want %s", report.EquationDifference, want)
	}
	if report.EquationHolds() {
		t.Fatal("expected equation check to fail")
	}
}

func TestLedgerUseCase_DifferencesBelowTolerance(t *testing.T) {
	tests := []struct {
		name    string
		credits string
		asset   string
		want    bool
	}{
		{name: "exact", credits: "100", asset: "100", want: true},
		{name: "sub-cent drift", credits: "99.995", asset: "100.005", want: true},
		{name: "one cent off", credits: "99.99", asset: "100", want: false},
		{name: "equation one cent off", credits: "100", asset: "100.01", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeLedgerRepository{
				debits:  decimal.NewFromInt(100),
				credits: decimal.RequireFromString(tt.credits),
				totals: map[domain.Category]decimal.Decimal{
					domain.CategoryAsset:  decimal.RequireFromString(tt.asset),
					domain.CategoryEquity: decimal.NewFromInt(100),
				},
			}
			uc := NewLedgerUseCase(repo, domain.DefaultBalanceTolerance)

			report, err := uc.CheckConsistency(context.Background(), "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !report.Tolerance.Equal(domain.DefaultBalanceTolerance) {
				t.Fatalf("Tolerance = %s", report.Tolerance)
			}
			if report.Consistent() != tt.want {
				t.Fatalf("Consistent() = %v, want %v (debits %s credits %s equation %s)",
					report.Consistent(), tt.want, report.TotalDebits, report.TotalCredits, report.EquationDifference)
			}
		})
	}
}

func TestLedgerUseCase_PrincipalScopesOwner(t *testing.T) {
	var seen string
	repo := &scopedLedgerRepository{fakeLedgerRepository: fakeLedgerRepository{}, seen: &seen}
	uc := NewLedgerUseCase(repo, decimal.Zero)

	ctx := domain.WithPrincipal(context.Background(), domain.Principal{OwnerID: "owner-7", Role: domain.RoleViewer})
	report, err := uc.CheckConsistency(ctx, "owner-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "owner-7" || report.OwnerID != "owner-7" {
		t.Fatalf("expected owner-7, repo saw %q and report has %q", seen, report.OwnerID)
	}
}

type scopedLedgerRepository struct {
	fakeLedgerRepository
	seen *string
}

func (s *scopedLedgerRepository) PostedTotals(ctx context.Context, ownerID string) (decimal.Decimal, decimal.Decimal, error) {
	*s.seen = ownerID
	return s.fakeLedgerRepository.PostedTotals(ctx, ownerID)
}
