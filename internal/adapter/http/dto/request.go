package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	OwnerID     string  `json:"owner_id"    validate:"omitempty,max=128"`
	Code        string  `json:"code"        validate:"required,max=32"`
	Name        string  `json:"name"        validate:"required,max=255"`
	Description string  `json:"description" validate:"max=4000"`
	ParentID    *string `json:"parent_id"   validate:"omitempty,min=1"`
	Category    string  `json:"category"    validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Subtype     string  `json:"subtype"     validate:"omitempty,oneof=CURRENT NON_CURRENT"`
	IsDetail    bool    `json:"is_detail"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		OwnerID:     r.OwnerID,
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		ParentID:    r.ParentID,
		Category:    domain.Category(r.Category),
		Subtype:     domain.Subtype(r.Subtype),
		IsDetail:    r.IsDetail,
	}
}

// MovementRequest is one debit or credit line. Exactly one side is positive.
type MovementRequest struct {
	AccountID   string          `json:"account_id"  validate:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description" validate:"max=4000"`
}

// ToUseCaseInput converts to use case input.
func (r *MovementRequest) ToUseCaseInput() usecase.MovementInput {
	return usecase.MovementInput{
		AccountID:   r.AccountID,
		Debit:       r.Debit,
		Credit:      r.Credit,
		Description: r.Description,
	}
}

// CreateEntryRequest represents a request to draft a journal entry.
type CreateEntryRequest struct {
	OwnerID     string            `json:"owner_id"    validate:"omitempty,max=128"`
	Number      string            `json:"number"      validate:"omitempty,max=64"`
	Date        *time.Time        `json:"date"`
	Description string            `json:"description" validate:"max=4000"`
	Reference   string            `json:"reference"   validate:"max=255"`
	Movements   []MovementRequest `json:"movements"   validate:"dive"`
}

// ToUseCaseInput converts to use case input. A missing date is left zero for
// the use case to default.
func (r *CreateEntryRequest) ToUseCaseInput() usecase.CreateEntryInput {
	input := usecase.CreateEntryInput{
		OwnerID:     r.OwnerID,
		Number:      r.Number,
		Description: r.Description,
		Reference:   r.Reference,
		Movements:   make([]usecase.MovementInput, len(r.Movements)),
	}
	if r.Date != nil {
		input.Date = *r.Date
	}
	for i := range r.Movements {
		input.Movements[i] = r.Movements[i].ToUseCaseInput()
	}
	return input
}

// VoidEntryRequest carries the reason appended to the entry description.
type VoidEntryRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}
