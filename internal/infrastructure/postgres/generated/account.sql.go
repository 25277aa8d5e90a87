package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const countChildAccounts = `-- name: CountChildAccounts :one
SELECT COUNT(*) FROM accounts
WHERE parent_id = $1 AND (NOT $2::bool OR is_active)
`

type CountChildAccountsParams struct {
	ParentID   pgtype.Text `json:"parent_id"`
	ActiveOnly bool        `json:"active_only"`
}

func (q *Queries) CountChildAccounts(ctx context.Context, arg CountChildAccountsParams) (int64, error) {
	row := q.db.QueryRow(ctx, countChildAccounts, arg.ParentID, arg.ActiveOnly)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createAccount = `-- name: CreateAccount :exec
INSERT INTO accounts (id, owner_id, code, name, description, parent_id, level, category, subtype, balance, is_detail, is_active, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

type CreateAccountParams struct {
	ID          string             `json:"id"`
	OwnerID     string             `json:"owner_id"`
	Code        string             `json:"code"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	ParentID    pgtype.Text        `json:"parent_id"`
	Level       int32              `json:"level"`
	Category    string             `json:"category"`
	Subtype     string             `json:"subtype"`
	Balance     pgtype.Numeric     `json:"balance"`
	IsDetail    bool               `json:"is_detail"`
	IsActive    bool               `json:"is_active"`
	Version     int64              `json:"version"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) error {
	_, err := q.db.Exec(ctx, createAccount,
		arg.ID,
		arg.OwnerID,
		arg.Code,
		arg.Name,
		arg.Description,
		arg.ParentID,
		arg.Level,
		arg.Category,
		arg.Subtype,
		arg.Balance,
		arg.IsDetail,
		arg.IsActive,
		arg.Version,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const deleteAccount = `-- name: DeleteAccount :execrows
DELETE FROM accounts WHERE id = $1
`

func (q *Queries) DeleteAccount(ctx context.Context, id string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteAccount, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getAccountByCode = `-- name: GetAccountByCode :one
SELECT id, owner_id, code, name, description, parent_id, level, category, subtype, balance, is_detail, is_active, version, created_at, updated_at FROM accounts WHERE code = $1
`

func (q *Queries) GetAccountByCode(ctx context.Context, code string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByCode, code)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Code,
		&i.Name,
		&i.Description,
		&i.ParentID,
		&i.Level,
		&i.Category,
		&i.Subtype,
		&i.Balance,
		&i.IsDetail,
		&i.IsActive,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountByID = `-- name: GetAccountByID :one
SELECT id, owner_id, code, name, description, parent_id, level, category, subtype, balance, is_detail, is_active, version, created_at, updated_at FROM accounts WHERE id = $1
`

func (q *Queries) GetAccountByID(ctx context.Context, id string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByID, id)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Code,
		&i.Name,
		&i.Description,
		&i.ParentID,
		&i.Level,
		&i.Category,
		&i.Subtype,
		&i.Balance,
		&i.IsDetail,
		&i.IsActive,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountByIDForUpdate = `-- name: GetAccountByIDForUpdate :one
SELECT id, owner_id, code, name, description, parent_id, level, category, subtype, balance, is_detail, is_active, version, created_at, updated_at FROM accounts WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetAccountByIDForUpdate(ctx context.Context, id string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByIDForUpdate, id)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Code,
		&i.Name,
		&i.Description,
		&i.ParentID,
		&i.Level,
		&i.Category,
		&i.Subtype,
		&i.Balance,
		&i.IsDetail,
		&i.IsActive,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountsByIDs = `-- name: GetAccountsByIDs :many
SELECT id, owner_id, code, name, description, parent_id, level, category, subtype, balance, is_detail, is_active, version, created_at, updated_at FROM accounts WHERE id = ANY($1::text[]) ORDER BY id
`

func (q *Queries) GetAccountsByIDs(ctx context.Context, ids []string) ([]Account, error) {
	return q.listAccounts(ctx, getAccountsByIDs, ids)
}

const getAccountsByIDsForUpdate = `-- name: GetAccountsByIDsForUpdate :many
SELECT id, owner_id, code, name, description, parent_id, level, category, subtype, balance, is_detail, is_active, version, created_at, updated_at FROM accounts WHERE id = ANY($1::text[]) ORDER BY id FOR UPDATE
`

func (q *Queries) GetAccountsByIDsForUpdate(ctx context.Context, ids []string) ([]Account, error) {
	return q.listAccounts(ctx, getAccountsByIDsForUpdate, ids)
}

const listAccountsByOwner = `-- name: ListAccountsByOwner :many
SELECT id, owner_id, code, name, description, parent_id, level, category, subtype, balance, is_detail, is_active, version, created_at, updated_at FROM accounts
WHERE ($1::text = '' OR owner_id = $1::text)
ORDER BY code
LIMIT $2 OFFSET $3
`

type ListAccountsByOwnerParams struct {
	OwnerID string `json:"owner_id"`
	Limit   int32  `json:"limit"`
	Offset  int32  `json:"offset"`
}

func (q *Queries) ListAccountsByOwner(ctx context.Context, arg ListAccountsByOwnerParams) ([]Account, error) {
	return q.listAccounts(ctx, listAccountsByOwner, arg.OwnerID, arg.Limit, arg.Offset)
}

const listChildAccounts = `-- name: ListChildAccounts :many
SELECT id, owner_id, code, name, description, parent_id, level, category, subtype, balance, is_detail, is_active, version, created_at, updated_at FROM accounts WHERE parent_id = $1 ORDER BY code
`

func (q *Queries) ListChildAccounts(ctx context.Context, parentID pgtype.Text) ([]Account, error) {
	return q.listAccounts(ctx, listChildAccounts, parentID)
}

func (q *Queries) listAccounts(ctx context.Context, query string, args ...interface{}) ([]Account, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Account{}
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.ID,
			&i.OwnerID,
			&i.Code,
			&i.Name,
			&i.Description,
			&i.ParentID,
			&i.Level,
			&i.Category,
			&i.Subtype,
			&i.Balance,
			&i.IsDetail,
			&i.IsActive,
			&i.Version,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setAccountActive = `-- name: SetAccountActive :execrows
UPDATE accounts SET is_active = $2, updated_at = $3 WHERE id = $1
`

type SetAccountActiveParams struct {
	ID        string             `json:"id"`
	IsActive  bool               `json:"is_active"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) SetAccountActive(ctx context.Context, arg SetAccountActiveParams) (int64, error) {
	result, err := q.db.Exec(ctx, setAccountActive, arg.ID, arg.IsActive, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const updateAccountBalance = `-- name: UpdateAccountBalance :execrows
UPDATE accounts SET balance = $2, version = $3, updated_at = $4
WHERE id = $1 AND version < $3
`

type UpdateAccountBalanceParams struct {
	ID        string             `json:"id"`
	Balance   pgtype.Numeric     `json:"balance"`
	Version   int64              `json:"version"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateAccountBalance(ctx context.Context, arg UpdateAccountBalanceParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateAccountBalance,
		arg.ID,
		arg.Balance,
		arg.Version,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
