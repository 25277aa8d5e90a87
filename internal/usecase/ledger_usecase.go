package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when the ledger is not balanced.
	ErrInconsistentLedger = errors.New("ledger is inconsistent")
)

// LedgerUseCase handles ledger-wide checks.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
	tolerance  decimal.Decimal
	clock      Clock
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository, tolerance decimal.Decimal) *LedgerUseCase {
	if !tolerance.IsPositive() {
		tolerance = domain.DefaultBalanceTolerance
	}
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
		tolerance:  tolerance,
		clock:      SystemClock(),
	}
}

// ConsistencyReport summarises the double-entry identity and the
// accounting equation for one owner, or all owners when OwnerID is empty.
type ConsistencyReport struct {
	OwnerID           string
	TotalDebits       decimal.Decimal
	TotalCredits      decimal.Decimal
	UnbalancedEntries []string
	Totals            map[domain.Category]decimal.Decimal
	// EquationDifference is (assets + expenses) - (liabilities + equity + revenue).
	EquationDifference decimal.Decimal
	// Tolerance is the exclusive bound applied to both differences. A zero
	// tolerance demands exact equality.
	Tolerance          decimal.Decimal
	CheckedAt          time.Time
}

// DoubleEntryHolds reports whether posted debits equal posted credits.
func (r *ConsistencyReport) DoubleEntryHolds() bool {
	return r.within(r.TotalDebits.Sub(r.TotalCredits)) && len(r.UnbalancedEntries) == 0
}

// EquationHolds reports whether assets equal liabilities plus equity once
// revenue and expenses are folded in.
func (r *ConsistencyReport) EquationHolds() bool {
	return r.within(r.EquationDifference)
}

func (r *ConsistencyReport) within(diff decimal.Decimal) bool {
	if !r.Tolerance.IsPositive() {
		return diff.IsZero()
	}
	return diff.Abs().LessThan(r.Tolerance)
}

// Consistent reports whether every check passed.
func (r *ConsistencyReport) Consistent() bool {
	return r.DoubleEntryHolds() && r.EquationHolds()
}

// CheckConsistency computes the consistency report.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context, ownerID string) (*ConsistencyReport, error) {
	ownerID = ownerOf(ctx, ownerID)

	debits, credits, err := uc.ledgerRepo.PostedTotals(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	unbalanced, err := uc.ledgerRepo.UnbalancedPostedEntries(ctx, ownerID, uc.tolerance)
	if err != nil {
		return nil, err
	}

	totals, err := uc.ledgerRepo.BalancesByCategory(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	left := totals[domain.CategoryAsset].Add(totals[domain.CategoryExpense])
	right := totals[domain.CategoryLiability].Add(totals[domain.CategoryEquity]).Add(totals[domain.CategoryRevenue])

	return &ConsistencyReport{
		OwnerID:            ownerID,
		TotalDebits:        debits,
		TotalCredits:       credits,
		UnbalancedEntries:  unbalanced,
		Totals:             totals,
		EquationDifference: left.Sub(right),
		Tolerance:          uc.tolerance,
		CheckedAt:          uc.clock.Now(),
	}, nil
}

// VerifyConsistency returns ErrInconsistentLedger describing the first failed check.
func (uc *LedgerUseCase) VerifyConsistency(ctx context.Context, ownerID string) error {
	report, err := uc.CheckConsistency(ctx, ownerID)
	if err != nil {
		return err
	}
	if !report.DoubleEntryHolds() {
		return fmt.Errorf("%w: debits=%s credits=%s unbalanced entries=%d",
			ErrInconsistentLedger, report.TotalDebits, report.TotalCredits, len(report.UnbalancedEntries))
	}
	if !report.EquationHolds() {
		return fmt.Errorf("%w: accounting equation off by %s", ErrInconsistentLedger, report.EquationDifference)
	}
	return nil
}
