package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Category is the top-level classification of an account.
type Category string

const (
	CategoryAsset     Category = "ASSET"
	CategoryLiability Category = "LIABILITY"
	CategoryEquity    Category = "EQUITY"
	CategoryRevenue   Category = "REVENUE"
	CategoryExpense   Category = "EXPENSE"
)

// Categories lists every category in chart order.
var Categories = []Category{
	CategoryAsset,
	CategoryLiability,
	CategoryEquity,
	CategoryRevenue,
	CategoryExpense,
}

// Polarity is the side on which an account's balance increases.
type Polarity string

const (
	PolarityDebit  Polarity = "DEBIT"
	PolarityCredit Polarity = "CREDIT"
)

// Subtype refines ASSET and LIABILITY accounts.
type Subtype string

const (
	SubtypeNone       Subtype = ""
	SubtypeCurrent    Subtype = "CURRENT"
	SubtypeNonCurrent Subtype = "NON_CURRENT"
)

// MovementKind is the side a movement is booked on.
type MovementKind string

const (
	KindDebit  MovementKind = "DEBIT"
	KindCredit MovementKind = "CREDIT"
)

type categoryRule struct {
	polarity      Polarity
	allowNegative bool
	root          string
}

var categoryRules = map[Category]categoryRule{
	CategoryAsset:     {polarity: PolarityDebit, root: "1"},
	CategoryLiability: {polarity: PolarityCredit, allowNegative: true, root: "2"},
	CategoryEquity:    {polarity: PolarityCredit, allowNegative: true, root: "3"},
	CategoryRevenue:   {polarity: PolarityCredit, root: "4"},
	CategoryExpense:   {polarity: PolarityDebit, root: "5"},
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	_, ok := categoryRules[c]
	return ok
}

// Polarity returns the normal side of the category.
func (c Category) Polarity() Polarity {
	return categoryRules[c].polarity
}

// AllowsNegativeBalance reports whether balances of this category may go below zero.
func (c Category) AllowsNegativeBalance() bool {
	return categoryRules[c].allowNegative
}

// ParseCategory converts a string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// IsValid reports whether s is a known subtype.
func (s Subtype) IsValid() bool {
	switch s {
	case SubtypeNone, SubtypeCurrent, SubtypeNonCurrent:
		return true
	}
	return false
}

// IsValid reports whether k is DEBIT or CREDIT.
func (k MovementKind) IsValid() bool {
	return k == KindDebit || k == KindCredit
}

// Opposite returns the reversing kind.
func (k MovementKind) Opposite() MovementKind {
	if k == KindDebit {
		return KindCredit
	}
	return KindDebit
}

// SignedDelta returns the balance change of booking amount on the kind side of
// an account of category c. Movements on the normal side increase the balance.
func SignedDelta(c Category, kind MovementKind, amount decimal.Decimal) decimal.Decimal {
	if (kind == KindDebit) == (c.Polarity() == PolarityDebit) {
		return amount
	}
	return amount.Neg()
}

// BalanceFromTotals derives a balance from aggregated debits and credits.
func BalanceFromTotals(c Category, debits, credits decimal.Decimal) decimal.Decimal {
	return SignedDelta(c, KindDebit, debits).Add(SignedDelta(c, KindCredit, credits))
}

// Account is a node in the chart of accounts.
type Account struct {
	ID          string
	Code        string
	Name        string
	Description string
	ParentID    *string
	Level       int
	Category    Category
	Subtype     Subtype
	Balance     decimal.Decimal
	IsDetail    bool
	IsActive    bool
	OwnerID     string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Polarity returns the normal side of the account.
func (a *Account) Polarity() Polarity {
	return a.Category.Polarity()
}

// IsRoot reports whether the account has no parent.
func (a *Account) IsRoot() bool {
	return a.ParentID == nil
}

// ValidateMovement checks that amount can be booked on the account at all,
// regardless of the resulting balance.
func (a *Account) ValidateMovement(amount decimal.Decimal, kind MovementKind) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount %s must be positive", ErrInvalidMovement, amount)
	}
	if !kind.IsValid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidMovement, kind)
	}
	if !a.IsDetail {
		return fmt.Errorf("%w: account %s is a grouping account", ErrInvalidMovement, a.Code)
	}
	if !a.IsActive {
		return fmt.Errorf("%w: account %s is inactive", ErrInvalidMovement, a.Code)
	}
	return nil
}

// NextBalance returns the balance after booking amount, without mutating the account.
func (a *Account) NextBalance(amount decimal.Decimal, kind MovementKind) (decimal.Decimal, error) {
	if err := a.ValidateMovement(amount, kind); err != nil {
		return decimal.Zero, err
	}
	next := a.Balance.Add(SignedDelta(a.Category, kind, amount))
	if next.IsNegative() && !a.Category.AllowsNegativeBalance() {
		return decimal.Zero, Errorf(ErrNegativeBalanceNotAllowed,
			"account %s (%s) cannot go negative: balance %s, %s %s",
			a.Code, a.Category, a.Balance.StringFixed(2), kind, amount.StringFixed(2))
	}
	return next, nil
}

// ApplyMovement books amount on the kind side and updates the balance.
func (a *Account) ApplyMovement(amount decimal.Decimal, kind MovementKind) error {
	next, err := a.NextBalance(amount, kind)
	if err != nil {
		return err
	}
	a.Balance = next
	a.Version++
	return nil
}

// AttachTo places the account under parent, deriving its level.
func (a *Account) AttachTo(parent *Account) error {
	if parent == nil {
		a.ParentID = nil
		a.Level = 1
		return nil
	}
	if parent.Category != a.Category {
		return fmt.Errorf("%w: parent %s is %s, child is %s", ErrInvalidParent, parent.Code, parent.Category, a.Category)
	}
	if parent.IsDetail {
		return fmt.Errorf("%w: parent %s is a detail account", ErrInvalidParent, parent.Code)
	}
	if !parent.IsActive {
		return fmt.Errorf("%w: parent %s is inactive", ErrInvalidParent, parent.Code)
	}
	if parent.OwnerID != a.OwnerID {
		return fmt.Errorf("%w: parent %s belongs to another owner", ErrInvalidParent, parent.Code)
	}
	id := parent.ID
	a.ParentID = &id
	a.Level = parent.Level + 1
	return nil
}

// Clone returns a copy safe to mutate.
func (a *Account) Clone() *Account {
	c := *a
	if a.ParentID != nil {
		id := *a.ParentID
		c.ParentID = &id
	}
	return &c
}
