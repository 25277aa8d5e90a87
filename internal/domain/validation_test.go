package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateAccountName(t *testing.T) {
	t.Parallel()

	t.Run("valid name", func(t *testing.T) {
		if err := ValidateAccountName("Petty Cash"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		err := ValidateAccountName("   ")
		if !errors.Is(err, ErrInvalidAccountName) {
			t.Fatalf("expected ErrInvalidAccountName, got %v", err)
		}
	})

	t.Run("name too long", func(t *testing.T) {
		tooLong := strings.Repeat("a", MaxAccountNameLength+1)
		err := ValidateAccountName(tooLong)
		if !errors.Is(err, ErrInvalidAccountName) {
			t.Fatalf("expected ErrInvalidAccountName, got %v", err)
		}
	})

	t.Run("path separator rejected", func(t *testing.T) {
		if err := ValidateAccountName("Cash > Petty"); !errors.Is(err, ErrInvalidAccountName) {
			t.Fatalf("expected ErrInvalidAccountName, got %v", err)
		}
	})
}

func TestValidateAccountCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code     string
		category Category
		subtype  Subtype
		ok       bool
	}{
		{"1", CategoryAsset, SubtypeNone, true},
		{"1.1.01", CategoryAsset, SubtypeCurrent, true},
		{"1.1", CategoryAsset, SubtypeCurrent, true},
		{"1.2.05", CategoryAsset, SubtypeNonCurrent, true},
		{"1.2.05", CategoryAsset, SubtypeCurrent, false},
		{"1.10", CategoryAsset, SubtypeCurrent, false},
		{"2.1.01", CategoryLiability, SubtypeCurrent, true},
		{"2.2", CategoryLiability, SubtypeNonCurrent, true},
		{"2.1", CategoryLiability, SubtypeNonCurrent, false},
		{"3.1", CategoryEquity, SubtypeNone, true},
		{"4.01", CategoryRevenue, SubtypeNone, true},
		{"5.3.2", CategoryExpense, SubtypeNone, true},
		{"4.1", CategoryExpense, SubtypeNone, false},
		{"3.1", CategoryEquity, SubtypeCurrent, false},
		{"", CategoryAsset, SubtypeNone, false},
		{"1..1", CategoryAsset, SubtypeNone, false},
		{"1.a", CategoryAsset, SubtypeNone, false},
		{"1", Category("OTHER"), SubtypeNone, false},
	}

	for _, tt := range tests {
		err := ValidateAccountCode(tt.code, tt.category, tt.subtype)
		if tt.ok && err != nil {
			t.Errorf("ValidateAccountCode(%q, %s, %s) unexpected error: %v", tt.code, tt.category, tt.subtype, err)
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("ValidateAccountCode(%q, %s, %s) expected error", tt.code, tt.category, tt.subtype)
			} else if CodeOf(err) != CodeValidation {
				t.Errorf("expected validation code, got %s", CodeOf(err))
			}
		}
	}
}

func TestValidateChildCode(t *testing.T) {
	parent := &Account{Code: "1.1"}
	if err := ValidateChildCode("1.1.01", parent); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateChildCode("1.1", parent); !errors.Is(err, ErrInvalidAccountCode) {
		t.Errorf("expected ErrInvalidAccountCode, got %v", err)
	}
	if err := ValidateChildCode("1.2.01", parent); !errors.Is(err, ErrInvalidAccountCode) {
		t.Errorf("expected ErrInvalidAccountCode, got %v", err)
	}
}

func TestValidateEntryNumber(t *testing.T) {
	if err := ValidateEntryNumber("JE-2025-000001"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateEntryNumber(" "); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	t.Parallel()

	limit, offset, err := ValidatePagination(0, -5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != 50 || offset != 0 {
		t.Fatalf("expected defaults, got limit=%d offset=%d", limit, offset)
	}

	limit, _, _ = ValidatePagination(5000, 0)
	if limit != 1000 {
		t.Fatalf("expected limit to be capped at 1000, got %d", limit)
	}
}
