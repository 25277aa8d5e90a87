package domain

import (
	"errors"
	"testing"
)

func TestMovement_KindAndAmount(t *testing.T) {
	d := NewMovement("m", "a", KindDebit, dec("12.5"), "")
	if d.Kind() != KindDebit || !d.Amount().Equal(dec("12.5")) {
		t.Errorf("debit movement: %s %s", d.Kind(), d.Amount())
	}
	c := NewMovement("m", "a", KindCredit, dec("3"), "")
	if c.Kind() != KindCredit || !c.Amount().Equal(dec("3")) {
		t.Errorf("credit movement: %s %s", c.Kind(), c.Amount())
	}
}

func TestMovement_Validate(t *testing.T) {
	acc := newDetail("a", CategoryAsset, "0")

	tests := []struct {
		name   string
		m      *Movement
		mutate func(*Account)
	}{
		{"both sides", &Movement{AccountID: "a", Debit: dec("1"), Credit: dec("1")}, nil},
		{"neither side", &Movement{AccountID: "a"}, nil},
		{"negative debit", &Movement{AccountID: "a", Debit: dec("-1")}, nil},
		{"grouping account", &Movement{AccountID: "a", Debit: dec("1")}, func(a *Account) { a.IsDetail = false }},
		{"inactive account", &Movement{AccountID: "a", Debit: dec("1")}, func(a *Account) { a.IsActive = false }},
		{"wrong account", &Movement{AccountID: "b", Debit: dec("1")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := acc.Clone()
			if tt.mutate != nil {
				tt.mutate(a)
			}
			err := tt.m.Validate(a)
			if !errors.Is(err, ErrInvalidMovement) || CodeOf(err) != CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestMovement_ValidateScale(t *testing.T) {
	tests := []struct {
		amount string
		places int32
		ok     bool
	}{
		{"100.00", 2, true},
		{"100.5", 2, true},
		{"100.005", 2, false},
		{"0.000000001", 2, false},
		{"1500", 0, true},
		{"1500.5", 0, false},
	}
	for _, tt := range tests {
		m := &Movement{AccountID: "a", Credit: dec(tt.amount)}
		err := m.ValidateScale(tt.places)
		if tt.ok && err != nil {
			t.Errorf("%s at %d places: unexpected error %v", tt.amount, tt.places, err)
		}
		if !tt.ok && (!errors.Is(err, ErrInvalidMovement) || CodeOf(err) != CodeValidation) {
			t.Errorf("%s at %d places: expected validation error, got %v", tt.amount, tt.places, err)
		}
	}
}

func TestMovement_ApplyRevert(t *testing.T) {
	posted := &JournalEntry{State: EntryStatePosted}
	draft := &JournalEntry{State: EntryStateDraft}

	t.Run("entry must be posted", func(t *testing.T) {
		acc := newDetail("a", CategoryAsset, "0")
		m := NewMovement("m", "a", KindDebit, dec("5"), "")
		if err := m.Apply(draft, acc); !errors.Is(err, ErrEntryNotPosted) {
			t.Fatalf("expected ErrEntryNotPosted, got %v", err)
		}
		if !acc.Balance.IsZero() || m.Applied {
			t.Fatal("state changed on failure")
		}
	})

	t.Run("apply twice", func(t *testing.T) {
		acc := newDetail("a", CategoryAsset, "0")
		m := NewMovement("m", "a", KindDebit, dec("5"), "")
		if err := m.Apply(posted, acc); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		err := m.Apply(posted, acc)
		if !errors.Is(err, ErrAlreadyApplied) || !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrAlreadyApplied, got %v", err)
		}
		if !acc.Balance.Equal(dec("5")) {
			t.Errorf("balance = %s, want 5", acc.Balance)
		}
	})

	t.Run("revert uses opposite kind", func(t *testing.T) {
		acc := newDetail("l", CategoryLiability, "10")
		m := NewMovement("m", "l", KindCredit, dec("4"), "")
		_ = m.Apply(posted, acc)
		if err := m.Revert(acc); err != nil {
			t.Fatalf("Revert: %v", err)
		}
		if !acc.Balance.Equal(dec("10")) || m.Applied {
			t.Errorf("balance = %s applied = %v", acc.Balance, m.Applied)
		}
	})

	t.Run("revert when not applied", func(t *testing.T) {
		acc := newDetail("a", CategoryAsset, "0")
		m := NewMovement("m", "a", KindDebit, dec("5"), "")
		if err := m.Revert(acc); !errors.Is(err, ErrNotApplied) {
			t.Fatalf("expected ErrNotApplied, got %v", err)
		}
	})

	t.Run("revert blocked by negative balance", func(t *testing.T) {
		acc := newDetail("a", CategoryAsset, "0")
		m := NewMovement("m", "a", KindDebit, dec("5"), "")
		_ = m.Apply(posted, acc)
		acc.Balance = dec("2")
		if err := m.Revert(acc); !errors.Is(err, ErrNegativeBalanceNotAllowed) {
			t.Fatalf("expected ErrNegativeBalanceNotAllowed, got %v", err)
		}
		if !m.Applied {
			t.Error("movement lost applied flag on failed revert")
		}
	})
}
