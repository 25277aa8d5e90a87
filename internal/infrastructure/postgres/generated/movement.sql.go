package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const countMovementsByAccount = `-- name: CountMovementsByAccount :one
SELECT COUNT(*) FROM movements m
JOIN journal_entries e ON e.id = m.entry_id
WHERE m.account_id = $1
  AND (cardinality($2::text[]) = 0 OR e.state = ANY($2::text[]))
`

type CountMovementsByAccountParams struct {
	AccountID string   `json:"account_id"`
	States    []string `json:"states"`
}

func (q *Queries) CountMovementsByAccount(ctx context.Context, arg CountMovementsByAccountParams) (int64, error) {
	row := q.db.QueryRow(ctx, countMovementsByAccount, arg.AccountID, arg.States)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createMovement = `-- name: CreateMovement :exec
INSERT INTO movements (id, entry_id, account_id, debit, credit, description, applied, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type CreateMovementParams struct {
	ID          string         `json:"id"`
	EntryID     string         `json:"entry_id"`
	AccountID   string         `json:"account_id"`
	Debit       pgtype.Numeric `json:"debit"`
	Credit      pgtype.Numeric `json:"credit"`
	Description string         `json:"description"`
	Applied     bool           `json:"applied"`
	Position    int32          `json:"position"`
}

func (q *Queries) CreateMovement(ctx context.Context, arg CreateMovementParams) error {
	_, err := q.db.Exec(ctx, createMovement,
		arg.ID,
		arg.EntryID,
		arg.AccountID,
		arg.Debit,
		arg.Credit,
		arg.Description,
		arg.Applied,
		arg.Position,
	)
	return err
}

const deleteMovement = `-- name: DeleteMovement :execrows
DELETE FROM movements WHERE id = $1
`

func (q *Queries) DeleteMovement(ctx context.Context, id string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteMovement, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listMovementsByAccount = `-- name: ListMovementsByAccount :many
SELECT m.id, m.entry_id, m.account_id, m.debit, m.credit, m.description, m.applied, m.position FROM movements m
JOIN journal_entries e ON e.id = m.entry_id
WHERE m.account_id = $1
ORDER BY e.entry_date DESC, e.number DESC, m.position
LIMIT $2 OFFSET $3
`

type ListMovementsByAccountParams struct {
	AccountID string `json:"account_id"`
	Limit     int32  `json:"limit"`
	Offset    int32  `json:"offset"`
}

func (q *Queries) ListMovementsByAccount(ctx context.Context, arg ListMovementsByAccountParams) ([]Movement, error) {
	return q.listMovements(ctx, listMovementsByAccount, arg.AccountID, arg.Limit, arg.Offset)
}

const listMovementsByEntries = `-- name: ListMovementsByEntries :many
SELECT id, entry_id, account_id, debit, credit, description, applied, position FROM movements
WHERE entry_id = ANY($1::text[])
ORDER BY entry_id, position
`

func (q *Queries) ListMovementsByEntries(ctx context.Context, entryIds []string) ([]Movement, error) {
	return q.listMovements(ctx, listMovementsByEntries, entryIds)
}

const listMovementsByEntry = `-- name: ListMovementsByEntry :many
SELECT id, entry_id, account_id, debit, credit, description, applied, position FROM movements
WHERE entry_id = $1
ORDER BY position
`

func (q *Queries) ListMovementsByEntry(ctx context.Context, entryID string) ([]Movement, error) {
	return q.listMovements(ctx, listMovementsByEntry, entryID)
}

func (q *Queries) listMovements(ctx context.Context, query string, args ...interface{}) ([]Movement, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Movement{}
	for rows.Next() {
		var i Movement
		if err := rows.Scan(
			&i.ID,
			&i.EntryID,
			&i.AccountID,
			&i.Debit,
			&i.Credit,
			&i.Description,
			&i.Applied,
			&i.Position,
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

const setMovementApplied = `-- name: SetMovementApplied :execrows
UPDATE movements SET applied = $2 WHERE id = $1
`

type SetMovementAppliedParams struct {
	ID      string `json:"id"`
	Applied bool   `json:"applied"`
}

func (q *Queries) SetMovementApplied(ctx context.Context, arg SetMovementAppliedParams) (int64, error) {
	result, err := q.db.Exec(ctx, setMovementApplied, arg.ID, arg.Applied)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const sumPostedMovements = `-- name: SumPostedMovements :one
SELECT COALESCE(SUM(m.debit), 0)::numeric AS debits,
       COALESCE(SUM(m.credit), 0)::numeric AS credits
FROM movements m
JOIN journal_entries e ON e.id = m.entry_id
WHERE m.account_id = $1 AND e.state = 'POSTED'
`

type SumPostedMovementsRow struct {
	Debits  pgtype.Numeric `json:"debits"`
	Credits pgtype.Numeric `json:"credits"`
}

func (q *Queries) SumPostedMovements(ctx context.Context, accountID string) (SumPostedMovementsRow, error) {
	row := q.db.QueryRow(ctx, sumPostedMovements, accountID)
	var i SumPostedMovementsRow
	err := row.Scan(&i.Debits, &i.Credits)
	return i, err
}

const updateMovement = `-- name: UpdateMovement :execrows
UPDATE movements
SET account_id = $2, debit = $3, credit = $4, description = $5, position = $6
WHERE id = $1
`

type UpdateMovementParams struct {
	ID          string         `json:"id"`
	AccountID   string         `json:"account_id"`
	Debit       pgtype.Numeric `json:"debit"`
	Credit      pgtype.Numeric `json:"credit"`
	Description string         `json:"description"`
	Position    int32          `json:"position"`
}

func (q *Queries) UpdateMovement(ctx context.Context, arg UpdateMovementParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateMovement,
		arg.ID,
		arg.AccountID,
		arg.Debit,
		arg.Credit,
		arg.Description,
		arg.Position,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
