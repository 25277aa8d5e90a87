package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func draftEntry(t *testing.T, lines ...*Movement) *JournalEntry {
	t.Helper()
	e := &JournalEntry{ID: "e1", Number: "JE-1", Description: "rent", State: EntryStateDraft, Date: testNow}
	for _, m := range lines {
		if err := e.AddMovement(m); err != nil {
			t.Fatalf("AddMovement: %v", err)
		}
	}
	return e
}

func TestJournalEntry_Totals(t *testing.T) {
	empty := &JournalEntry{State: EntryStateDraft}
	if !empty.TotalDebits().IsZero() || !empty.TotalCredits().IsZero() || !empty.Difference().IsZero() {
		t.Fatal("empty entry totals must be zero")
	}

	e := draftEntry(t,
		NewMovement("m1", "cash", KindDebit, dec("150"), ""),
		NewMovement("m2", "sales", KindCredit, dec("140"), ""),
	)
	if !e.TotalDebits().Equal(dec("150")) || !e.TotalCredits().Equal(dec("140")) {
		t.Errorf("totals = %s/%s", e.TotalDebits(), e.TotalCredits())
	}
	if !e.Difference().Equal(dec("10")) {
		t.Errorf("difference = %s, want 10", e.Difference())
	}
}

func TestJournalEntry_IsBalanced(t *testing.T) {
	tests := []struct {
		debit, credit string
		want          bool
	}{
		{"100", "100", true},
		{"100.009", "100", true},
		{"100.01", "100", false},
		{"100", "100.02", false},
	}
	for _, tt := range tests {
		t.Run(tt.debit+"-"+tt.credit, func(t *testing.T) {
			e := draftEntry(t,
				NewMovement("m1", "a", KindDebit, dec(tt.debit), ""),
				NewMovement("m2", "b", KindCredit, dec(tt.credit), ""),
			)
			if got := e.IsBalanced(DefaultBalanceTolerance); got != tt.want {
				t.Errorf("IsBalanced() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJournalEntry_CanPost(t *testing.T) {
	t.Run("single movement", func(t *testing.T) {
		e := draftEntry(t, NewMovement("m1", "cash", KindDebit, dec("100"), ""))
		err := e.CanPost(DefaultBalanceTolerance)
		if !errors.Is(err, ErrUnbalancedEntry) {
			t.Fatalf("expected ErrUnbalancedEntry, got %v", err)
		}
		if !strings.Contains(err.Error(), "fewer than 2 movements") {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("difference reported", func(t *testing.T) {
		e := draftEntry(t,
			NewMovement("m1", "cash", KindDebit, dec("150"), ""),
			NewMovement("m2", "sales", KindCredit, dec("140"), ""),
		)
		err := e.CanPost(DefaultBalanceTolerance)
		var le *Error
		if !errors.As(err, &le) || le.Code() != CodeUnbalancedEntry {
			t.Fatalf("expected unbalanced entry error, got %v", err)
		}
		if !le.Difference.Equal(dec("10.00")) {
			t.Errorf("difference = %s, want 10.00", le.Difference)
		}
		if !strings.Contains(le.Message, "10.00") {
			t.Errorf("message %q should mention the difference", le.Message)
		}
	})

	t.Run("not draft", func(t *testing.T) {
		e := &JournalEntry{State: EntryStatePosted}
		if err := e.CanPost(DefaultBalanceTolerance); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})
}

func TestJournalEntry_PostVoidRoundTrip(t *testing.T) {
	cash := newDetail("cash", CategoryAsset, "30")
	loan := newDetail("loan", CategoryLiability, "30")
	accounts := NewAccountSet([]*Account{cash, loan})

	e := draftEntry(t,
		NewMovement("m1", "cash", KindDebit, dec("50"), ""),
		NewMovement("m2", "loan", KindCredit, dec("50"), ""),
	)

	if err := e.Post(accounts, DefaultBalanceTolerance, testNow); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if e.State != EntryStatePosted || e.PostedAt == nil {
		t.Fatalf("state = %s", e.State)
	}
	if !cash.Balance.Equal(dec("80")) || !loan.Balance.Equal(dec("80")) {
		t.Fatalf("balances after post = %s/%s", cash.Balance, loan.Balance)
	}
	for _, m := range e.Movements {
		if !m.Applied {
			t.Errorf("movement %s not applied", m.ID)
		}
	}

	if err := e.Void(accounts, "typo", testNow); err != nil {
		t.Fatalf("Void: %v", err)
	}
	if !cash.Balance.Equal(dec("30")) || !loan.Balance.Equal(dec("30")) {
		t.Fatalf("balances after void = %s/%s", cash.Balance, loan.Balance)
	}
	for _, m := range e.Movements {
		if m.Applied {
			t.Errorf("movement %s still applied", m.ID)
		}
	}
	if !strings.HasSuffix(e.Description, "\n\nVOIDED: typo") {
		t.Errorf("description = %q", e.Description)
	}

	if err := e.Post(accounts, DefaultBalanceTolerance, testNow); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("post after void: expected ErrInvalidState, got %v", err)
	}
	if err := e.Void(accounts, "", testNow); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second void: expected ErrInvalidState, got %v", err)
	}
}

func TestJournalEntry_PostIsAllOrNothing(t *testing.T) {
	cash := newDetail("cash", CategoryAsset, "10")
	rent := newDetail("rent", CategoryExpense, "0")
	bank := newDetail("bank", CategoryAsset, "5")
	accounts := NewAccountSet([]*Account{cash, rent, bank})

	e := draftEntry(t,
		NewMovement("m1", "rent", KindDebit, dec("20"), ""),
		NewMovement("m2", "cash", KindCredit, dec("10"), ""),
		NewMovement("m3", "bank", KindCredit, dec("10"), ""),
	)

	err := e.Post(accounts, DefaultBalanceTolerance, testNow)
	if !errors.Is(err, ErrNegativeBalanceNotAllowed) {
		t.Fatalf("expected ErrNegativeBalanceNotAllowed, got %v", err)
	}
	if e.State != EntryStateDraft {
		t.Errorf("state = %s, want DRAFT", e.State)
	}
	if !cash.Balance.Equal(dec("10")) || !rent.Balance.IsZero() || !bank.Balance.Equal(dec("5")) {
		t.Errorf("balances mutated: %s %s %s", cash.Balance, rent.Balance, bank.Balance)
	}
	for _, m := range e.Movements {
		if m.Applied {
			t.Errorf("movement %s applied", m.ID)
		}
	}
}

func TestJournalEntry_SameAccountTwice(t *testing.T) {
	cash := newDetail("cash", CategoryAsset, "0")
	equity := newDetail("cap", CategoryEquity, "0")
	accounts := NewAccountSet([]*Account{cash, equity})

	e := draftEntry(t,
		NewMovement("m1", "cash", KindDebit, dec("100"), ""),
		NewMovement("m2", "cash", KindCredit, dec("60"), ""),
		NewMovement("m3", "cap", KindCredit, dec("40"), ""),
	)
	if err := e.Post(accounts, DefaultBalanceTolerance, testNow); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if !cash.Balance.Equal(dec("40")) {
		t.Errorf("cash = %s, want 40", cash.Balance)
	}
}

func TestJournalEntry_AddMovementOnlyInDraft(t *testing.T) {
	e := &JournalEntry{State: EntryStatePosted}
	err := e.AddMovement(NewMovement("m", "a", KindDebit, dec("1"), ""))
	if !errors.Is(err, ErrEntryNotDraft) {
		t.Fatalf("expected ErrEntryNotDraft, got %v", err)
	}

	d := draftEntry(t)
	if err := d.AddMovement(&Movement{ID: "x", AccountID: "a"}); !errors.Is(err, ErrInvalidMovement) {
		t.Fatalf("expected ErrInvalidMovement, got %v", err)
	}
}

func TestJournalEntry_RemoveMovement(t *testing.T) {
	e := draftEntry(t,
		NewMovement("m1", "a", KindDebit, dec("1"), ""),
		NewMovement("m2", "b", KindCredit, dec("1"), ""),
		NewMovement("m3", "c", KindCredit, dec("1"), ""),
	)
	if err := e.RemoveMovement("m2"); err != nil {
		t.Fatalf("RemoveMovement: %v", err)
	}
	if len(e.Movements) != 2 || e.Movements[1].ID != "m3" || e.Movements[1].Position != 1 {
		t.Errorf("unexpected movements after removal")
	}
	if err := e.RemoveMovement("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestJournalEntry_Duplicate(t *testing.T) {
	cash := newDetail("cash", CategoryAsset, "0")
	sales := newDetail("sales", CategoryRevenue, "0")
	accounts := NewAccountSet([]*Account{cash, sales})

	e := draftEntry(t,
		NewMovement("m1", "cash", KindDebit, dec("75"), "sale"),
		NewMovement("m2", "sales", KindCredit, dec("75"), "sale"),
	)
	e.Reference = "INV-7"
	if err := e.Post(accounts, DefaultBalanceTolerance, testNow); err != nil {
		t.Fatalf("Post: %v", err)
	}

	n := 0
	newID := func() string { n++; return fmt.Sprintf("id%d", n) }
	dup := e.Duplicate(CopyNumber(e.Number, 1), newID, testNow)

	if dup.State != EntryStateDraft || dup.Number != "JE-1-COPY" {
		t.Errorf("dup state/number = %s/%s", dup.State, dup.Number)
	}
	if dup.Description != "COPY OF: rent" || dup.Reference != "INV-7" || !dup.Date.Equal(e.Date) {
		t.Errorf("dup header not copied: %+v", dup)
	}
	if !dup.TotalDebits().Equal(e.TotalDebits()) || !dup.TotalCredits().Equal(e.TotalCredits()) {
		t.Error("totals differ")
	}
	for i, m := range dup.Movements {
		if m.Applied || m.EntryID != dup.ID || m.ID == e.Movements[i].ID {
			t.Errorf("movement %d not a fresh copy: %+v", i, m)
		}
	}
	if !cash.Balance.Equal(dec("75")) {
		t.Errorf("balances touched by duplicate: %s", cash.Balance)
	}
}

func TestCopyNumber(t *testing.T) {
	if got := CopyNumber("JE-7", 1); got != "JE-7-COPY" {
		t.Errorf("got %s", got)
	}
	if got := CopyNumber("JE-7", 3); got != "JE-7-COPY-3" {
		t.Errorf("got %s", got)
	}
}
