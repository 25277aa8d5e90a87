package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/infrastructure/postgres/generated"
	"github.com/iho/bookkeeper/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// CreateTx inserts an account inside tx.
func (r *AccountRepository) CreateTx(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	err := queries(r.pool, tx).CreateAccount(ctx, generated.CreateAccountParams{
		ID:          account.ID,
		OwnerID:     account.OwnerID,
		Code:        account.Code,
		Name:        account.Name,
		Description: account.Description,
		ParentID:    optionalText(account.ParentID),
		Level:       int32(account.Level),
		Category:    string(account.Category),
		Subtype:     string(account.Subtype),
		Balance:     decimalToNumeric(account.Balance),
		IsDetail:    account.IsDetail,
		IsActive:    account.IsActive,
		Version:     account.Version,
		CreatedAt:   timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:   timeToPgTimestamptz(account.UpdatedAt),
	})
	return translate(err, domain.ErrDuplicateCode)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row, err := queries(r.pool, nil).GetAccountByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}
	return rowToAccount(row), nil
}

// GetByIDs retrieves every existing account among ids. Missing ids are skipped.
func (r *AccountRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Account, error) {
	rows, err := queries(r.pool, nil).GetAccountsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return rowsToAccounts(rows), nil
}

// GetByCode retrieves an account by its chart code.
func (r *AccountRepository) GetByCode(ctx context.Context, code string) (*domain.Account, error) {
	row, err := queries(r.pool, nil).GetAccountByCode(ctx, code)
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}
	return rowToAccount(row), nil
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	row, err := queries(r.pool, tx).GetAccountByIDForUpdate(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}
	return rowToAccount(row), nil
}

// GetByIDsForUpdate retrieves multiple accounts by IDs with FOR UPDATE locks
// taken in id order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	rows, err := queries(r.pool, tx).GetAccountsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}
	return rowsToAccounts(rows), nil
}

// UpdateBalance stores a new balance. The write is rejected when the stored
// version is not older than the given one.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error {
	n, err := queries(r.pool, tx).UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		ID:        id,
		Balance:   decimalToNumeric(balance),
		Version:   version,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.Errorf(domain.ErrInvalidState, "account %s was modified concurrently", id)
	}
	return nil
}

// SetActive flips the active flag.
func (r *AccountRepository) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	n, err := queries(r.pool, tx).SetAccountActive(ctx, generated.SetAccountActiveParams{
		ID:        id,
		IsActive:  active,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// Delete removes an account row.
func (r *AccountRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	n, err := queries(r.pool, tx).DeleteAccount(ctx, id)
	if err != nil {
		return translate(err, nil)
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// ListChildren returns the direct children of parentID ordered by code.
func (r *AccountRepository) ListChildren(ctx context.Context, parentID string) ([]*domain.Account, error) {
	rows, err := queries(r.pool, nil).ListChildAccounts(ctx, pgtype.Text{String: parentID, Valid: true})
	if err != nil {
		return nil, err
	}
	return rowsToAccounts(rows), nil
}

// CountChildren counts direct children, optionally only active ones.
func (r *AccountRepository) CountChildren(ctx context.Context, tx usecase.Transaction, parentID string, activeOnly bool) (int, error) {
	n, err := queries(r.pool, tx).CountChildAccounts(ctx, generated.CountChildAccountsParams{
		ParentID:   pgtype.Text{String: parentID, Valid: true},
		ActiveOnly: activeOnly,
	})
	return int(n), err
}

// ListByOwner lists accounts ordered by code. An empty owner lists every account.
func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error) {
	rows, err := queries(r.pool, nil).ListAccountsByOwner(ctx, generated.ListAccountsByOwnerParams{
		OwnerID: ownerID,
		Limit:   int32(limit),
		Offset:  int32(offset),
	})
	if err != nil {
		return nil, err
	}
	return rowsToAccounts(rows), nil
}

func rowsToAccounts(rows []generated.Account) []*domain.Account {
	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}
	return accounts
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Code:        row.Code,
		Name:        row.Name,
		Description: row.Description,
		ParentID:    textPtr(row.ParentID),
		Level:       int(row.Level),
		Category:    domain.Category(row.Category),
		Subtype:     domain.Subtype(row.Subtype),
		Balance:     numericToDecimal(row.Balance),
		IsDetail:    row.IsDetail,
		IsActive:    row.IsActive,
		Version:     row.Version,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}
