package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryState is the lifecycle state of a journal entry.
type EntryState string

const (
	EntryStateDraft  EntryState = "DRAFT"
	EntryStatePosted EntryState = "POSTED"
	EntryStateVoid   EntryState = "VOID"
)

// IsValid reports whether s is a known state.
func (s EntryState) IsValid() bool {
	return s == EntryStateDraft || s == EntryStatePosted || s == EntryStateVoid
}

const (
	copySuffix        = "-COPY"
	copyDescPrefix    = "COPY OF: "
	voidReasonMarker  = "VOIDED: "
	minEntryMovements = 2
)

// DefaultBalanceTolerance is the largest debit/credit difference, exclusive,
// that still counts as balanced.
var DefaultBalanceTolerance = decimal.New(1, -2)

// JournalEntry groups movements that must balance before they touch accounts.
type JournalEntry struct {
	ID          string
	Number      string
	Date        time.Time
	Description string
	Reference   string
	State       EntryState
	OwnerID     string
	Movements   []*Movement
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PostedAt    *time.Time
	VoidedAt    *time.Time
}

// AccountSet indexes accounts by ID.
type AccountSet map[string]*Account

// NewAccountSet builds a set from a slice.
func NewAccountSet(accounts []*Account) AccountSet {
	set := make(AccountSet, len(accounts))
	for _, a := range accounts {
		set[a.ID] = a
	}
	return set
}

func (s AccountSet) clone() AccountSet {
	c := make(AccountSet, len(s))
	for id, a := range s {
		c[id] = a.Clone()
	}
	return c
}

// AccountIDs returns the distinct account IDs referenced by the movements.
func (e *JournalEntry) AccountIDs() []string {
	seen := make(map[string]bool, len(e.Movements))
	ids := make([]string, 0, len(e.Movements))
	for _, m := range e.Movements {
		if !seen[m.AccountID] {
			seen[m.AccountID] = true
			ids = append(ids, m.AccountID)
		}
	}
	return ids
}

// AddMovement appends m to a draft entry. Balances are not touched.
func (e *JournalEntry) AddMovement(m *Movement) error {
	if e.State != EntryStateDraft {
		return fmt.Errorf("%w: cannot add movements to %s entry %s", ErrEntryNotDraft, e.State, e.Number)
	}
	if err := m.ValidateAmounts(); err != nil {
		return err
	}
	m.EntryID = e.ID
	m.Position = len(e.Movements)
	e.Movements = append(e.Movements, m)
	return nil
}

// Movement returns the movement with the given ID.
func (e *JournalEntry) Movement(id string) (*Movement, bool) {
	for _, m := range e.Movements {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// RemoveMovement drops a movement from a draft entry and renumbers the rest.
func (e *JournalEntry) RemoveMovement(id string) error {
	if e.State != EntryStateDraft {
		return fmt.Errorf("%w: cannot remove movements from %s entry %s", ErrEntryNotDraft, e.State, e.Number)
	}
	for i, m := range e.Movements {
		if m.ID == id {
			e.Movements = append(e.Movements[:i], e.Movements[i+1:]...)
			for j := i; j < len(e.Movements); j++ {
				e.Movements[j].Position = j
			}
			return nil
		}
	}
	return ErrMovementNotFound
}

// TotalDebits sums the debit side.
func (e *JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, m := range e.Movements {
		total = total.Add(m.Debit)
	}
	return total
}

// TotalCredits sums the credit side.
func (e *JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, m := range e.Movements {
		total = total.Add(m.Credit)
	}
	return total
}

// Difference returns debits minus credits.
func (e *JournalEntry) Difference() decimal.Decimal {
	return e.TotalDebits().Sub(e.TotalCredits())
}

// IsBalanced reports whether the debit/credit difference is below tolerance.
func (e *JournalEntry) IsBalanced(tolerance decimal.Decimal) bool {
	return e.Difference().Abs().LessThan(tolerance)
}

// CanPost returns nil when the entry may be posted.
func (e *JournalEntry) CanPost(tolerance decimal.Decimal) error {
	if e.State != EntryStateDraft {
		return fmt.Errorf("%w: entry %s is %s", ErrEntryNotDraft, e.Number, e.State)
	}
	if len(e.Movements) < minEntryMovements {
		return ErrTooFewMovements
	}
	if !e.IsBalanced(tolerance) {
		return NewUnbalancedError(e.TotalDebits(), e.TotalCredits())
	}
	return nil
}

// CanVoid returns nil when the entry may be voided.
func (e *JournalEntry) CanVoid() error {
	if e.State != EntryStatePosted {
		return fmt.Errorf("%w: only posted entries can be voided, entry %s is %s", ErrInvalidState, e.Number, e.State)
	}
	return nil
}

// Post applies every movement to accounts in entry order. The applications
// are rehearsed on copies first, so a failure leaves entry and accounts untouched.
func (e *JournalEntry) Post(accounts AccountSet, tolerance decimal.Decimal, now time.Time) error {
	if err := e.CanPost(tolerance); err != nil {
		return err
	}

	rehearsal := accounts.clone()
	for _, m := range e.Movements {
		if m.Applied {
			return fmt.Errorf("movement %d: %w", m.Position+1, ErrAlreadyApplied)
		}
		account := rehearsal[m.AccountID]
		if err := m.Validate(account); err != nil {
			return fmt.Errorf("movement %d: %w", m.Position+1, err)
		}
		if err := account.ApplyMovement(m.Amount(), m.Kind()); err != nil {
			return fmt.Errorf("movement %d: %w", m.Position+1, err)
		}
	}

	e.State = EntryStatePosted
	for _, m := range e.Movements {
		if err := m.Apply(e, accounts[m.AccountID]); err != nil {
			return fmt.Errorf("movement %d: %w", m.Position+1, err)
		}
	}
	e.PostedAt = &now
	e.UpdatedAt = now
	return nil
}

// Void reverts every applied movement and marks the entry void.
func (e *JournalEntry) Void(accounts AccountSet, reason string, now time.Time) error {
	if err := e.CanVoid(); err != nil {
		return err
	}

	rehearsal := accounts.clone()
	for _, m := range e.Movements {
		probe := *m
		if err := probe.Revert(rehearsal[m.AccountID]); err != nil {
			return fmt.Errorf("movement %d: %w", m.Position+1, err)
		}
	}

	for _, m := range e.Movements {
		if err := m.Revert(accounts[m.AccountID]); err != nil {
			return fmt.Errorf("movement %d: %w", m.Position+1, err)
		}
	}
	e.State = EntryStateVoid
	if reason = strings.TrimSpace(reason); reason != "" {
		e.Description += "\n\n" + voidReasonMarker + reason
	}
	e.VoidedAt = &now
	e.UpdatedAt = now
	return nil
}

// Duplicate returns a new draft with fresh unapplied copies of the movements.
// newID is called once for the entry and once per movement.
func (e *JournalEntry) Duplicate(number string, newID func() string, now time.Time) *JournalEntry {
	dup := &JournalEntry{
		ID:          newID(),
		Number:      number,
		Date:        e.Date,
		Description: copyDescPrefix + e.Description,
		Reference:   e.Reference,
		State:       EntryStateDraft,
		OwnerID:     e.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	dup.Movements = make([]*Movement, 0, len(e.Movements))
	for _, m := range e.Movements {
		dup.Movements = append(dup.Movements, m.Copy(newID(), dup.ID))
	}
	return dup
}

// CopyNumber derives the number of the n-th copy of an entry (n starts at 1).
func CopyNumber(original string, n int) string {
	if n <= 1 {
		return original + copySuffix
	}
	return fmt.Sprintf("%s%s-%d", original, copySuffix, n)
}
