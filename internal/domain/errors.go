package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrorCode is the machine-readable identifier of an error kind.
type ErrorCode string

const (
	CodeValidation           ErrorCode = "validation_error"
	CodeInvalidState         ErrorCode = "invalid_state"
	CodeUnbalancedEntry      ErrorCode = "unbalanced_entry"
	CodeNegativeBalance      ErrorCode = "negative_balance_not_allowed"
	CodeReferentialIntegrity ErrorCode = "referential_integrity_violation"
	CodeNotFound             ErrorCode = "not_found"
	CodeInternal             ErrorCode = "internal_error"
)

// Error kinds
var (
	ErrValidation                = errors.New("validation error")
	ErrInvalidState              = errors.New("invalid state")
	ErrUnbalancedEntry           = errors.New("unbalanced entry")
	ErrNegativeBalanceNotAllowed = errors.New("negative balance not allowed")
	ErrReferentialIntegrity      = errors.New("referential integrity violation")
	ErrNotFound                  = errors.New("not found")
)

var kindCodes = map[error]ErrorCode{
	ErrValidation:                CodeValidation,
	ErrInvalidState:              CodeInvalidState,
	ErrUnbalancedEntry:           CodeUnbalancedEntry,
	ErrNegativeBalanceNotAllowed: CodeNegativeBalance,
	ErrReferentialIntegrity:      CodeReferentialIntegrity,
	ErrNotFound:                  CodeNotFound,
}

// Error is a ledger failure of a known kind. errors.Is matches both the
// error value itself and its kind.
type Error struct {
	Kind       error
	Message    string
	Difference decimal.Decimal
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Code returns the machine-readable code of the error kind.
func (e *Error) Code() ErrorCode {
	if code, ok := kindCodes[e.Kind]; ok {
		return code
	}
	return CodeInternal
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf builds an Error of the given kind.
func Errorf(kind error, format string, args ...any) *Error {
	return newError(kind, fmt.Sprintf(format, args...))
}

// CodeOf returns the code of the first ledger error kind in err's chain.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Code()
	}
	for kind, code := range kindCodes {
		if errors.Is(err, kind) {
			return code
		}
	}
	return CodeInternal
}

// Not found
var (
	ErrAccountNotFound  = newError(ErrNotFound, "account not found")
	ErrEntryNotFound    = newError(ErrNotFound, "journal entry not found")
	ErrMovementNotFound = newError(ErrNotFound, "movement not found")
)

// Validation
var (
	ErrInvalidMovement    = newError(ErrValidation, "invalid movement")
	ErrInvalidAmount      = newError(ErrValidation, "amount must be positive")
	ErrInvalidAccountName = newError(ErrValidation, "invalid account name")
	ErrInvalidAccountCode = newError(ErrValidation, "invalid account code")
	ErrDuplicateCode      = newError(ErrValidation, "account code already exists")
	ErrDuplicateNumber    = newError(ErrValidation, "entry number already exists")
	ErrInvalidParent      = newError(ErrValidation, "invalid parent account")
	ErrInvalidCategory    = newError(ErrValidation, "invalid account category")
	ErrInvalidCurrency    = newError(ErrValidation, "invalid currency code")
)

// Invalid state
var (
	ErrAlreadyApplied = newError(ErrInvalidState, "movement already applied")
	ErrNotApplied     = newError(ErrInvalidState, "movement is not applied")
	ErrEntryNotPosted = newError(ErrInvalidState, "journal entry is not posted")
	ErrEntryNotDraft  = newError(ErrInvalidState, "journal entry is not a draft")
)

// ErrTooFewMovements is returned when an entry has fewer than two movements.
var ErrTooFewMovements = newError(ErrUnbalancedEntry, "fewer than 2 movements")

// NewUnbalancedError reports the debit/credit difference of an entry.
func NewUnbalancedError(debits, credits decimal.Decimal) *Error {
	diff := debits.Sub(credits)
	return &Error{
		Kind:       ErrUnbalancedEntry,
		Message:    fmt.Sprintf("entry is unbalanced: debits %s, credits %s, difference %s", debits.StringFixed(2), credits.StringFixed(2), diff.Abs().StringFixed(2)),
		Difference: diff.Abs(),
	}
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)
