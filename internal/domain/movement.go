package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Movement is a single debit or credit line of a journal entry.
type Movement struct {
	ID          string
	EntryID     string
	AccountID   string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
	Applied     bool
	Position    int
}

// NewMovement builds an unapplied movement of the given kind.
func NewMovement(id, accountID string, kind MovementKind, amount decimal.Decimal, description string) *Movement {
	m := &Movement{ID: id, AccountID: accountID, Description: description}
	if kind == KindDebit {
		m.Debit = amount
	} else {
		m.Credit = amount
	}
	return m
}

// Kind returns the side the movement is booked on.
func (m *Movement) Kind() MovementKind {
	if m.Debit.IsPositive() {
		return KindDebit
	}
	return KindCredit
}

// Amount returns the non-zero side.
func (m *Movement) Amount() decimal.Decimal {
	if m.Debit.IsPositive() {
		return m.Debit
	}
	return m.Credit
}

// ValidateAmounts checks that exactly one side is strictly positive.
func (m *Movement) ValidateAmounts() error {
	if m.Debit.IsNegative() || m.Credit.IsNegative() {
		return fmt.Errorf("%w: amounts cannot be negative", ErrInvalidMovement)
	}
	if m.Debit.IsPositive() && m.Credit.IsPositive() {
		return fmt.Errorf("%w: cannot carry both a debit and a credit", ErrInvalidMovement)
	}
	if m.Debit.IsZero() && m.Credit.IsZero() {
		return fmt.Errorf("%w: must carry a debit or a credit", ErrInvalidMovement)
	}
	return nil
}

// ValidateScale rejects amounts carrying more than places decimal places.
func (m *Movement) ValidateScale(places int32) error {
	amount := m.Amount()
	if !amount.Equal(amount.Truncate(places)) {
		return fmt.Errorf("%w: amount %s has more than %d decimal places", ErrInvalidMovement, amount, places)
	}
	return nil
}

// Validate checks the movement against its target account.
func (m *Movement) Validate(account *Account) error {
	if err := m.ValidateAmounts(); err != nil {
		return err
	}
	if account == nil || account.ID != m.AccountID {
		return fmt.Errorf("%w: account %s not supplied", ErrInvalidMovement, m.AccountID)
	}
	if !account.IsDetail {
		return fmt.Errorf("%w: account %s is a grouping account", ErrInvalidMovement, account.Code)
	}
	if !account.IsActive {
		return fmt.Errorf("%w: account %s is inactive", ErrInvalidMovement, account.Code)
	}
	return nil
}

// Apply books the movement on account. The entry must be posted.
func (m *Movement) Apply(entry *JournalEntry, account *Account) error {
	if m.Applied {
		return fmt.Errorf("%w: %s", ErrAlreadyApplied, m.ID)
	}
	if entry == nil || entry.State != EntryStatePosted {
		return ErrEntryNotPosted
	}
	if err := m.Validate(account); err != nil {
		return err
	}
	if err := account.ApplyMovement(m.Amount(), m.Kind()); err != nil {
		return err
	}
	m.Applied = true
	return nil
}

// Revert books the opposite kind for the same amount.
func (m *Movement) Revert(account *Account) error {
	if !m.Applied {
		return fmt.Errorf("%w: %s", ErrNotApplied, m.ID)
	}
	if account == nil || account.ID != m.AccountID {
		return fmt.Errorf("%w: account %s not supplied", ErrInvalidMovement, m.AccountID)
	}
	if err := account.ApplyMovement(m.Amount(), m.Kind().Opposite()); err != nil {
		return err
	}
	m.Applied = false
	return nil
}

// Copy returns an unapplied copy of the movement with a new identity.
func (m *Movement) Copy(id, entryID string) *Movement {
	return &Movement{
		ID:          id,
		EntryID:     entryID,
		AccountID:   m.AccountID,
		Debit:       m.Debit,
		Credit:      m.Credit,
		Description: m.Description,
		Position:    m.Position,
	}
}
