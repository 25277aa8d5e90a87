package dto

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

func TestEntryFromDomain(t *testing.T) {
	now := time.Now().UTC()
	entry := &domain.JournalEntry{
		ID:     "je-1",
		Number: "JE-2025-000001",
		State:  domain.EntryStatePosted,
		Movements: []*domain.Movement{
			{ID: "m-1", AccountID: "cash", Debit: decimal.NewFromInt(150), Applied: true},
			{ID: "m-2", AccountID: "capital", Credit: decimal.NewFromInt(150), Applied: true, Position: 1},
		},
		PostedAt: &now,
	}

	resp := EntryFromDomain(entry)
	if resp.Number != "JE-2025-000001" || resp.State != domain.EntryStatePosted {
		t.Fatalf("unexpected header %+v", resp)
	}
	if !resp.TotalDebits.Equal(decimal.NewFromInt(150)) || !resp.TotalCredits.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected totals %s/%s", resp.TotalDebits, resp.TotalCredits)
	}
	if len(resp.Movements) != 2 || resp.Movements[1].Position != 1 || !resp.Movements[0].Applied {
		t.Fatalf("unexpected movements %+v", resp.Movements)
	}
}

func TestAccountFromDomain(t *testing.T) {
	resp := AccountFromDomain(&domain.Account{ID: "acc-1", Code: "2.1.01", Category: domain.CategoryLiability})
	if resp.Polarity != domain.PolarityCredit {
		t.Fatalf("expected credit polarity, got %s", resp.Polarity)
	}
}

func TestErrorFromDomain(t *testing.T) {
	if ErrorFromDomain(nil) != nil {
		t.Fatal("expected nil for nil error")
	}

	resp := ErrorFromDomain(domain.NewUnbalancedError(decimal.NewFromInt(150), decimal.NewFromInt(140)))
	if resp.Error != string(domain.CodeUnbalancedEntry) {
		t.Fatalf("expected unbalanced_entry, got %s", resp.Error)
	}
	if resp.Difference == nil || !resp.Difference.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected difference 10, got %v", resp.Difference)
	}

	resp = ErrorFromDomain(domain.ErrEntryNotPosted)
	if resp.Error != string(domain.CodeInvalidState) || resp.Difference != nil {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestReconciliationFromUseCase(t *testing.T) {
	report := &usecase.ReconciliationReport{
		OwnerID:            "owner-1",
		TotalAccounts:      3,
		ReconciledAccounts: 2,
		Discrepancies: []*usecase.ReconciliationResult{
			{AccountID: "cash", Code: "1.1.01", Difference: decimal.NewFromInt(10)},
		},
		Ledger: &usecase.ConsistencyReport{
			Totals: map[domain.Category]decimal.Decimal{domain.CategoryAsset: decimal.NewFromInt(500)},
		},
	}

	resp := ReconciliationFromUseCase(report)
	if resp.Healthy {
		t.Fatal("expected unhealthy report")
	}
	if len(resp.Discrepancies) != 1 || resp.Discrepancies[0].Code != "1.1.01" {
		t.Fatalf("unexpected discrepancies %+v", resp.Discrepancies)
	}
	if resp.Ledger == nil || !resp.Ledger.Consistent {
		t.Fatalf("expected consistent ledger section, got %+v", resp.Ledger)
	}
	if !resp.Ledger.Totals["ASSET"].Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected asset total 500, got %s", resp.Ledger.Totals["ASSET"])
	}
	if resp.Ledger.UnbalancedEntries == nil {
		t.Fatal("expected empty, non-nil unbalanced entries")
	}
}
