package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const balancesByCategory = `-- name: BalancesByCategory :many
SELECT category, COALESCE(SUM(balance), 0)::numeric AS total
FROM accounts
WHERE is_detail AND ($1::text = '' OR owner_id = $1::text)
GROUP BY category
`

type BalancesByCategoryRow struct {
	Category string         `json:"category"`
	Total    pgtype.Numeric `json:"total"`
}

func (q *Queries) BalancesByCategory(ctx context.Context, ownerID string) ([]BalancesByCategoryRow, error) {
	rows, err := q.db.Query(ctx, balancesByCategory, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []BalancesByCategoryRow{}
	for rows.Next() {
		var i BalancesByCategoryRow
		if err := rows.Scan(&i.Category, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const postedTotals = `-- name: PostedTotals :one
SELECT COALESCE(SUM(m.debit), 0)::numeric AS total_debits,
       COALESCE(SUM(m.credit), 0)::numeric AS total_credits
FROM movements m
JOIN journal_entries e ON e.id = m.entry_id
WHERE e.state = 'POSTED' AND ($1::text = '' OR e.owner_id = $1::text)
`

type PostedTotalsRow struct {
	TotalDebits  pgtype.Numeric `json:"total_debits"`
	TotalCredits pgtype.Numeric `json:"total_credits"`
}

func (q *Queries) PostedTotals(ctx context.Context, ownerID string) (PostedTotalsRow, error) {
	row := q.db.QueryRow(ctx, postedTotals, ownerID)
	var i PostedTotalsRow
	err := row.Scan(&i.TotalDebits, &i.TotalCredits)
	return i, err
}

const unbalancedPostedEntries = `-- name: UnbalancedPostedEntries :many
SELECT e.id
FROM journal_entries e
JOIN movements m ON m.entry_id = e.id
WHERE e.state = 'POSTED' AND ($1::text = '' OR e.owner_id = $1::text)
GROUP BY e.id
HAVING ABS(SUM(m.debit) - SUM(m.credit)) >= $2::numeric OR COUNT(m.id) < 2
ORDER BY e.id
`

type UnbalancedPostedEntriesParams struct {
	OwnerID   string         `json:"owner_id"`
	Tolerance pgtype.Numeric `json:"tolerance"`
}

func (q *Queries) UnbalancedPostedEntries(ctx context.Context, arg UnbalancedPostedEntriesParams) ([]string, error) {
	rows, err := q.db.Query(ctx, unbalancedPostedEntries, arg.OwnerID, arg.Tolerance)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
