package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MinAccountNameLength = 1
	MaxAccountCodeLength = 32
	MaxDescriptionLength = 4000
	MaxEntryNumberLength = 64
)

var accountCodeRegex = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinAccountNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if len(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	if strings.Contains(name, PathSeparator) {
		return fmt.Errorf("%w: name cannot contain %q", ErrInvalidAccountName, PathSeparator)
	}

	return nil
}

// CodePrefix returns the code prefix required for a category and subtype.
func CodePrefix(c Category, s Subtype) (string, error) {
	rule, ok := categoryRules[c]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, c)
	}
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown subtype %q", ErrInvalidAccountCode, s)
	}
	if s == SubtypeNone {
		return rule.root, nil
	}
	if c != CategoryAsset && c != CategoryLiability {
		return "", fmt.Errorf("%w: subtype %s only applies to assets and liabilities", ErrInvalidAccountCode, s)
	}
	if s == SubtypeCurrent {
		return rule.root + ".1", nil
	}
	return rule.root + ".2", nil
}

// HasCodePrefix reports whether code lies under prefix, segment by segment.
func HasCodePrefix(code, prefix string) bool {
	return code == prefix || strings.HasPrefix(code, prefix+".")
}

// ValidateAccountCode checks the code format and the category/subtype prefix rules.
func ValidateAccountCode(code string, c Category, s Subtype) error {
	if code == "" {
		return fmt.Errorf("%w: code cannot be empty", ErrInvalidAccountCode)
	}
	if len(code) > MaxAccountCodeLength {
		return fmt.Errorf("%w: code exceeds %d characters", ErrInvalidAccountCode, MaxAccountCodeLength)
	}
	if !accountCodeRegex.MatchString(code) {
		return fmt.Errorf("%w: %q must be dot separated digits", ErrInvalidAccountCode, code)
	}
	prefix, err := CodePrefix(c, s)
	if err != nil {
		return err
	}
	if !HasCodePrefix(code, prefix) {
		return fmt.Errorf("%w: %s %s codes must start with %q, got %q", ErrInvalidAccountCode, c, s, prefix, code)
	}
	return nil
}

// ValidateChildCode checks that a child code extends its parent's code.
func ValidateChildCode(code string, parent *Account) error {
	if parent == nil {
		return nil
	}
	if code == parent.Code || !HasCodePrefix(code, parent.Code) {
		return fmt.Errorf("%w: %q must extend parent code %q", ErrInvalidAccountCode, code, parent.Code)
	}
	return nil
}

// ValidateEntryNumber validates a journal entry number.
func ValidateEntryNumber(number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return Errorf(ErrValidation, "entry number cannot be empty")
	}
	if len(number) > MaxEntryNumberLength {
		return Errorf(ErrValidation, "entry number exceeds %d characters", MaxEntryNumberLength)
	}
	return nil
}

// ValidateDescription validates free text length.
func ValidateDescription(desc string) error {
	if len(desc) > MaxDescriptionLength {
		return Errorf(ErrValidation, "description exceeds %d characters", MaxDescriptionLength)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
