package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/infrastructure/metrics"
)

// ReconciliationUseCase compares stored balances with balances recomputed
// from posted movements.
type ReconciliationUseCase struct {
	accountRepo  AccountRepository
	movementRepo MovementRepository
	ledger       *LedgerUseCase
	clock        Clock
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	movementRepo MovementRepository,
	ledger *LedgerUseCase,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo:  accountRepo,
		movementRepo: movementRepo,
		ledger:       ledger,
		clock:        SystemClock(),
		logger:       zerolog.Nop(),
	}
}

// WithMetrics enables Prometheus gauges.
func (uc *ReconciliationUseCase) WithMetrics(m *metrics.Metrics) *ReconciliationUseCase {
	uc.metrics = m
	return uc
}

// WithLogger sets the logger.
func (uc *ReconciliationUseCase) WithLogger(l zerolog.Logger) *ReconciliationUseCase {
	uc.logger = l
	return uc
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID         string
	Code              string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileAccount recomputes one account's balance and compares it with the stored one.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !visibleTo(ctx, account.OwnerID) {
		return nil, domain.ErrAccountNotFound
	}
	return uc.reconcile(ctx, account)
}

func (uc *ReconciliationUseCase) reconcile(ctx context.Context, account *domain.Account) (*ReconciliationResult, error) {
	debits, credits, err := uc.movementRepo.SumPosted(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	calculated := domain.BalanceFromTotals(account.Category, debits, credits)
	diff := account.Balance.Sub(calculated)

	return &ReconciliationResult{
		AccountID:         account.ID,
		Code:              account.Code,
		RecordedBalance:   account.Balance,
		CalculatedBalance: calculated,
		Difference:        diff,
		IsReconciled:      diff.IsZero(),
		LastChecked:       uc.clock.Now(),
	}, nil
}

const reconcilePageSize = 500

// ReconcileAllAccounts reconciles every account of the owner, or of all
// owners when ownerID is empty.
func (uc *ReconciliationUseCase) ReconcileAllAccounts(ctx context.Context, ownerID string) ([]*ReconciliationResult, error) {
	ownerID = ownerOf(ctx, ownerID)

	var results []*ReconciliationResult
	for offset := 0; ; offset += reconcilePageSize {
		accounts, err := uc.accountRepo.ListByOwner(ctx, ownerID, reconcilePageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, account := range accounts {
			result, err := uc.reconcile(ctx, account)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile account %s: %w", account.ID, err)
			}
			results = append(results, result)
		}
		if len(accounts) < reconcilePageSize {
			break
		}
	}

	return results, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	OwnerID            string
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	Ledger             *ConsistencyReport
	CheckedAt          time.Time
}

// LedgerConsistent reports whether the ledger-wide checks passed.
func (r *ReconciliationReport) LedgerConsistent() bool {
	return r.Ledger != nil && r.Ledger.Consistent()
}

// Healthy reports whether nothing needs attention.
func (r *ReconciliationReport) Healthy() bool {
	return len(r.Discrepancies) == 0 && r.LedgerConsistent()
}

// GenerateReconciliationReport reconciles every account and runs the ledger checks.
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context, ownerID string) (*ReconciliationReport, error) {
	ownerID = ownerOf(ctx, ownerID)

	results, err := uc.ReconcileAllAccounts(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	ledger, err := uc.ledger.CheckConsistency(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		OwnerID:       ownerID,
		TotalAccounts: len(results),
		Discrepancies: make([]*ReconciliationResult, 0),
		Ledger:        ledger,
		CheckedAt:     uc.clock.Now(),
	}

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	if uc.metrics != nil {
		uc.metrics.ReconciliationRuns.Inc()
		uc.metrics.ReconciliationDiscrepancies.Set(float64(len(report.Discrepancies)))
	}

	event := uc.logger.Info()
	if !report.Healthy() {
		event = uc.logger.Warn()
	}
	event.
		Str("owner_id", ownerID).
		Int("accounts", report.TotalAccounts).
		Int("discrepancies", len(report.Discrepancies)).
		Bool("ledger_consistent", report.LedgerConsistent()).
		Msg("reconciliation completed")

	return report, nil
}
