package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createJournalEntry = `-- name: CreateJournalEntry :exec
INSERT INTO journal_entries (id, owner_id, number, entry_date, description, reference, state, created_at, updated_at, posted_at, voided_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

type CreateJournalEntryParams struct {
	ID          string             `json:"id"`
	OwnerID     string             `json:"owner_id"`
	Number      string             `json:"number"`
	EntryDate   pgtype.Timestamptz `json:"entry_date"`
	Description string             `json:"description"`
	Reference   string             `json:"reference"`
	State       string             `json:"state"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
	PostedAt    pgtype.Timestamptz `json:"posted_at"`
	VoidedAt    pgtype.Timestamptz `json:"voided_at"`
}

func (q *Queries) CreateJournalEntry(ctx context.Context, arg CreateJournalEntryParams) error {
	_, err := q.db.Exec(ctx, createJournalEntry,
		arg.ID,
		arg.OwnerID,
		arg.Number,
		arg.EntryDate,
		arg.Description,
		arg.Reference,
		arg.State,
		arg.CreatedAt,
		arg.UpdatedAt,
		arg.PostedAt,
		arg.VoidedAt,
	)
	return err
}

const deleteJournalEntry = `-- name: DeleteJournalEntry :execrows
DELETE FROM journal_entries WHERE id = $1
`

func (q *Queries) DeleteJournalEntry(ctx context.Context, id string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteJournalEntry, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getJournalEntryByID = `-- name: GetJournalEntryByID :one
SELECT id, owner_id, number, entry_date, description, reference, state, created_at, updated_at, posted_at, voided_at FROM journal_entries WHERE id = $1
`

func (q *Queries) GetJournalEntryByID(ctx context.Context, id string) (JournalEntry, error) {
	row := q.db.QueryRow(ctx, getJournalEntryByID, id)
	var i JournalEntry
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Number,
		&i.EntryDate,
		&i.Description,
		&i.Reference,
		&i.State,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.PostedAt,
		&i.VoidedAt,
	)
	return i, err
}

const getJournalEntryByIDForUpdate = `-- name: GetJournalEntryByIDForUpdate :one
SELECT id, owner_id, number, entry_date, description, reference, state, created_at, updated_at, posted_at, voided_at FROM journal_entries WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetJournalEntryByIDForUpdate(ctx context.Context, id string) (JournalEntry, error) {
	row := q.db.QueryRow(ctx, getJournalEntryByIDForUpdate, id)
	var i JournalEntry
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Number,
		&i.EntryDate,
		&i.Description,
		&i.Reference,
		&i.State,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.PostedAt,
		&i.VoidedAt,
	)
	return i, err
}

const journalEntryNumberExists = `-- name: JournalEntryNumberExists :one
SELECT EXISTS (SELECT 1 FROM journal_entries WHERE number = $1)
`

func (q *Queries) JournalEntryNumberExists(ctx context.Context, number string) (bool, error) {
	row := q.db.QueryRow(ctx, journalEntryNumberExists, number)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const listJournalEntries = `-- name: ListJournalEntries :many
SELECT id, owner_id, number, entry_date, description, reference, state, created_at, updated_at, posted_at, voided_at FROM journal_entries
WHERE ($1::text = '' OR owner_id = $1::text)
  AND ($2::text = '' OR state = $2::text)
  AND ($3::timestamptz IS NULL OR entry_date >= $3::timestamptz)
  AND ($4::timestamptz IS NULL OR entry_date <= $4::timestamptz)
ORDER BY entry_date, number
LIMIT $5 OFFSET $6
`

type ListJournalEntriesParams struct {
	OwnerID  string             `json:"owner_id"`
	State    string             `json:"state"`
	FromDate pgtype.Timestamptz `json:"from_date"`
	ToDate   pgtype.Timestamptz `json:"to_date"`
	Limit    int32              `json:"limit"`
	Offset   int32              `json:"offset"`
}

func (q *Queries) ListJournalEntries(ctx context.Context, arg ListJournalEntriesParams) ([]JournalEntry, error) {
	rows, err := q.db.Query(ctx, listJournalEntries,
		arg.OwnerID,
		arg.State,
		arg.FromDate,
		arg.ToDate,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []JournalEntry{}
	for rows.Next() {
		var i JournalEntry
		if err := rows.Scan(
			&i.ID,
			&i.OwnerID,
			&i.Number,
			&i.EntryDate,
			&i.Description,
			&i.Reference,
			&i.State,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.PostedAt,
			&i.VoidedAt,
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

const nextEntryNumber = `-- name: NextEntryNumber :one
INSERT INTO entry_number_sequences (year, last_seq) VALUES ($1, 1)
ON CONFLICT (year) DO UPDATE SET last_seq = entry_number_sequences.last_seq + 1
RETURNING last_seq
`

func (q *Queries) NextEntryNumber(ctx context.Context, year int32) (int64, error) {
	row := q.db.QueryRow(ctx, nextEntryNumber, year)
	var last_seq int64
	err := row.Scan(&last_seq)
	return last_seq, err
}

const updateJournalEntryHeader = `-- name: UpdateJournalEntryHeader :execrows
UPDATE journal_entries
SET state = $2, description = $3, updated_at = $4, posted_at = $5, voided_at = $6
WHERE id = $1
`

type UpdateJournalEntryHeaderParams struct {
	ID          string             `json:"id"`
	State       string             `json:"state"`
	Description string             `json:"description"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
	PostedAt    pgtype.Timestamptz `json:"posted_at"`
	VoidedAt    pgtype.Timestamptz `json:"voided_at"`
}

func (q *Queries) UpdateJournalEntryHeader(ctx context.Context, arg UpdateJournalEntryHeaderParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateJournalEntryHeader,
		arg.ID,
		arg.State,
		arg.Description,
		arg.UpdatedAt,
		arg.PostedAt,
		arg.VoidedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
