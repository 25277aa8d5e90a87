package postgres

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/infrastructure/postgres/generated"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// PostedTotals sums debits and credits over every posted entry of the owner.
func (r *LedgerRepository) PostedTotals(ctx context.Context, ownerID string) (totalDebits decimal.Decimal, totalCredits decimal.Decimal, err error) {
	result, err := queries(r.pool, nil).PostedTotals(ctx, ownerID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(result.TotalDebits), numericToDecimal(result.TotalCredits), nil
}

// BalancesByCategory sums stored detail balances per category. Categories
// without accounts report zero.
func (r *LedgerRepository) BalancesByCategory(ctx context.Context, ownerID string) (map[domain.Category]decimal.Decimal, error) {
	rows, err := queries(r.pool, nil).BalancesByCategory(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	totals := map[domain.Category]decimal.Decimal{
		domain.CategoryAsset:     decimal.Zero,
		domain.CategoryLiability: decimal.Zero,
		domain.CategoryEquity:    decimal.Zero,
		domain.CategoryRevenue:   decimal.Zero,
		domain.CategoryExpense:   decimal.Zero,
	}
	for _, row := range rows {
		totals[domain.Category(row.Category)] = numericToDecimal(row.Total)
	}
	return totals, nil
}

// UnbalancedPostedEntries lists posted entries whose movements differ by at
// least tolerance or that carry fewer than two lines.
func (r *LedgerRepository) UnbalancedPostedEntries(ctx context.Context, ownerID string, tolerance decimal.Decimal) ([]string, error) {
	return queries(r.pool, nil).UnbalancedPostedEntries(ctx, generated.UnbalancedPostedEntriesParams{
		OwnerID:   ownerID,
		Tolerance: decimalToNumeric(tolerance),
	})
}
