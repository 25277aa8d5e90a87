package dto

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ParentID    *string         `json:"parent_id,omitempty"`
	Level       int             `json:"level"`
	Category    domain.Category `json:"category"`
	Subtype     domain.Subtype  `json:"subtype,omitempty"`
	Polarity    domain.Polarity `json:"polarity"`
	Balance     decimal.Decimal `json:"balance"`
	IsDetail    bool            `json:"is_detail"`
	IsActive    bool            `json:"is_active"`
	OwnerID     string          `json:"owner_id"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:          a.ID,
		Code:        a.Code,
		Name:        a.Name,
		Description: a.Description,
		ParentID:    a.ParentID,
		Level:       a.Level,
		Category:    a.Category,
		Subtype:     a.Subtype,
		Polarity:    a.Polarity(),
		Balance:     a.Balance,
		IsDetail:    a.IsDetail,
		IsActive:    a.IsActive,
		OwnerID:     a.OwnerID,
		Version:     a.Version,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// PathResponse is the hierarchy path of an account.
type PathResponse struct {
	AccountID string `json:"account_id"`
	Path      string `json:"path"`
}

// BalanceResponse compares the stored balance with recomputed ones.
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Stored    decimal.Decimal `json:"stored"`
	Computed  decimal.Decimal `json:"computed"`
	Rollup    decimal.Decimal `json:"rollup"`
}

// MovementResponse represents a movement line.
type MovementResponse struct {
	ID          string          `json:"id"`
	EntryID     string          `json:"entry_id"`
	AccountID   string          `json:"account_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
	Applied     bool            `json:"applied"`
	Position    int             `json:"position"`
}

// MovementFromDomain converts a domain movement to response.
func MovementFromDomain(m *domain.Movement) *MovementResponse {
	return &MovementResponse{
		ID:          m.ID,
		EntryID:     m.EntryID,
		AccountID:   m.AccountID,
		Debit:       m.Debit,
		Credit:      m.Credit,
		Description: m.Description,
		Applied:     m.Applied,
		Position:    m.Position,
	}
}

// MovementsFromDomain converts domain movements to responses.
func MovementsFromDomain(movements []*domain.Movement) []*MovementResponse {
	result := make([]*MovementResponse, len(movements))
	for i, m := range movements {
		result[i] = MovementFromDomain(m)
	}
	return result
}

// EntryResponse represents a journal entry with its totals.
type EntryResponse struct {
	ID           string              `json:"id"`
	Number       string              `json:"number"`
	Date         time.Time           `json:"date"`
	Description  string              `json:"description,omitempty"`
	Reference    string              `json:"reference,omitempty"`
	State        domain.EntryState   `json:"state"`
	OwnerID      string              `json:"owner_id"`
	TotalDebits  decimal.Decimal     `json:"total_debits"`
	TotalCredits decimal.Decimal     `json:"total_credits"`
	Movements    []*MovementResponse `json:"movements"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	PostedAt     *time.Time          `json:"posted_at,omitempty"`
	VoidedAt     *time.Time          `json:"voided_at,omitempty"`
}

// EntryFromDomain converts a domain entry to response.
func EntryFromDomain(e *domain.JournalEntry) *EntryResponse {
	return &EntryResponse{
		ID:           e.ID,
		Number:       e.Number,
		Date:         e.Date,
		Description:  e.Description,
		Reference:    e.Reference,
		State:        e.State,
		OwnerID:      e.OwnerID,
		TotalDebits:  e.TotalDebits(),
		TotalCredits: e.TotalCredits(),
		Movements:    MovementsFromDomain(e.Movements),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
		PostedAt:     e.PostedAt,
		VoidedAt:     e.VoidedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.JournalEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ListEntriesResponse wraps a page of entries.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Total   int64            `json:"total"`
}

// EntryCheckResponse reports whether an entry may be posted or voided.
type EntryCheckResponse struct {
	EntryID      string          `json:"entry_id"`
	State        string          `json:"state"`
	TotalDebits  decimal.Decimal `json:"total_debits"`
	TotalCredits decimal.Decimal `json:"total_credits"`
	Difference   decimal.Decimal `json:"difference"`
	Balanced     bool            `json:"balanced"`
	CanPost      bool            `json:"can_post"`
	CanVoid      bool            `json:"can_void"`
	PostError    *ErrorResponse  `json:"post_error,omitempty"`
	VoidError    *ErrorResponse  `json:"void_error,omitempty"`
}

// EntryCheckFromUseCase converts an entry check to response.
func EntryCheckFromUseCase(c *usecase.EntryCheck) *EntryCheckResponse {
	return &EntryCheckResponse{
		EntryID:      c.Entry.ID,
		State:        string(c.Entry.State),
		TotalDebits:  c.TotalDebits,
		TotalCredits: c.TotalCredits,
		Difference:   c.Difference,
		Balanced:     c.Balanced,
		CanPost:      c.CanPost(),
		CanVoid:      c.CanVoid(),
		PostError:    ErrorFromDomain(c.PostError),
		VoidError:    ErrorFromDomain(c.VoidError),
	}
}

// ConsistencyResponse reports the ledger-wide checks.
type ConsistencyResponse struct {
	OwnerID            string                     `json:"owner_id,omitempty"`
	Consistent         bool                       `json:"consistent"`
	DoubleEntryHolds   bool                       `json:"double_entry_holds"`
	EquationHolds      bool                       `json:"equation_holds"`
	TotalDebits        decimal.Decimal            `json:"total_debits"`
	TotalCredits       decimal.Decimal            `json:"total_credits"`
	UnbalancedEntries  []string                   `json:"unbalanced_entries"`
	Totals             map[string]decimal.Decimal `json:"totals"`
	EquationDifference decimal.Decimal            `json:"equation_difference"`
	Tolerance          decimal.Decimal            `json:"tolerance"`
	CheckedAt          time.Time                  `json:"checked_at"`
}

// ConsistencyFromUseCase converts a consistency report to response.
func ConsistencyFromUseCase(r *usecase.ConsistencyReport) *ConsistencyResponse {
	totals := make(map[string]decimal.Decimal, len(r.Totals))
	for c, v := range r.Totals {
		totals[string(c)] = v
	}
	unbalanced := r.UnbalancedEntries
	if unbalanced == nil {
		unbalanced = []string{}
	}
	return &ConsistencyResponse{
		OwnerID:            r.OwnerID,
		Consistent:         r.Consistent(),
		DoubleEntryHolds:   r.DoubleEntryHolds(),
		EquationHolds:      r.EquationHolds(),
		TotalDebits:        r.TotalDebits,
		TotalCredits:       r.TotalCredits,
		UnbalancedEntries:  unbalanced,
		Totals:             totals,
		EquationDifference: r.EquationDifference,
		Tolerance:          r.Tolerance,
		CheckedAt:          r.CheckedAt,
	}
}

// DiscrepancyResponse is one account whose stored balance drifted.
type DiscrepancyResponse struct {
	AccountID         string          `json:"account_id"`
	Code              string          `json:"code"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
}

// ReconciliationResponse summarises a reconciliation run.
type ReconciliationResponse struct {
	OwnerID            string                 `json:"owner_id,omitempty"`
	Healthy            bool                   `json:"healthy"`
	TotalAccounts      int                    `json:"total_accounts"`
	ReconciledAccounts int                    `json:"reconciled_accounts"`
	Discrepancies      []*DiscrepancyResponse `json:"discrepancies"`
	Ledger             *ConsistencyResponse   `json:"ledger,omitempty"`
	CheckedAt          time.Time              `json:"checked_at"`
}

// ReconciliationFromUseCase converts a reconciliation report to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationReport) *ReconciliationResponse {
	resp := &ReconciliationResponse{
		OwnerID:            r.OwnerID,
		Healthy:            r.Healthy(),
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      make([]*DiscrepancyResponse, len(r.Discrepancies)),
		CheckedAt:          r.CheckedAt,
	}
	for i, d := range r.Discrepancies {
		resp.Discrepancies[i] = &DiscrepancyResponse{
			AccountID:         d.AccountID,
			Code:              d.Code,
			RecordedBalance:   d.RecordedBalance,
			CalculatedBalance: d.CalculatedBalance,
			Difference:        d.Difference,
		}
	}
	if r.Ledger != nil {
		resp.Ledger = ConsistencyFromUseCase(r.Ledger)
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error      string           `json:"error"`
	Message    string           `json:"message,omitempty"`
	Difference *decimal.Decimal `json:"difference,omitempty"`
}

// ErrorFromDomain converts an error to response, or nil for a nil error.
func ErrorFromDomain(err error) *ErrorResponse {
	if err == nil {
		return nil
	}
	resp := &ErrorResponse{
		Error:   string(domain.CodeOf(err)),
		Message: err.Error(),
	}
	var le *domain.Error
	if errors.As(err, &le) && !le.Difference.IsZero() {
		diff := le.Difference
		resp.Difference = &diff
	}
	return resp
}
