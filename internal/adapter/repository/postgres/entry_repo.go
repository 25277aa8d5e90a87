package postgres

import (
	"context"
	"fmt"

	"github.com/iho/bookkeeper/internal/domain"
	"github.com/iho/bookkeeper/internal/infrastructure/postgres/generated"
	"github.com/iho/bookkeeper/internal/usecase"
)

// EntryRepository implements usecase.JournalEntryRepository.
type EntryRepository struct {
	pool Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create inserts the entry header followed by its movements.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	q := queries(r.pool, tx)

	err := q.CreateJournalEntry(ctx, generated.CreateJournalEntryParams{
		ID:          entry.ID,
		OwnerID:     entry.OwnerID,
		Number:      entry.Number,
		EntryDate:   timeToPgTimestamptz(entry.Date),
		Description: entry.Description,
		Reference:   entry.Reference,
		State:       string(entry.State),
		CreatedAt:   timeToPgTimestamptz(entry.CreatedAt),
		UpdatedAt:   timeToPgTimestamptz(entry.UpdatedAt),
		PostedAt:    optionalTimestamptz(entry.PostedAt),
		VoidedAt:    optionalTimestamptz(entry.VoidedAt),
	})
	if err != nil {
		return translate(err, domain.ErrDuplicateNumber)
	}

	for _, m := range entry.Movements {
		if err := q.CreateMovement(ctx, movementParams(m)); err != nil {
			return translate(err, nil)
		}
	}
	return nil
}

// GetByID retrieves an entry with its movements.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.JournalEntry, error) {
	q := queries(r.pool, nil)
	row, err := q.GetJournalEntryByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrEntryNotFound)
	}
	return r.withMovements(ctx, q, row)
}

// GetByIDForUpdate locks the entry header and loads its movements.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	q := queries(r.pool, tx)
	row, err := q.GetJournalEntryByIDForUpdate(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrEntryNotFound)
	}
	return r.withMovements(ctx, q, row)
}

func (r *EntryRepository) withMovements(ctx context.Context, q *generated.Queries, row generated.JournalEntry) (*domain.JournalEntry, error) {
	rows, err := q.ListMovementsByEntry(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	entry := rowToEntry(row)
	entry.Movements = rowsToMovements(rows)
	return entry, nil
}

// ExistsNumber reports whether any entry already uses number.
func (r *EntryRepository) ExistsNumber(ctx context.Context, number string) (bool, error) {
	return queries(r.pool, nil).JournalEntryNumberExists(ctx, number)
}

// NextNumber allocates the next sequential number for year.
func (r *EntryRepository) NextNumber(ctx context.Context, tx usecase.Transaction, year int) (string, error) {
	seq, err := queries(r.pool, tx).NextEntryNumber(ctx, int32(year))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("JE-%d-%06d", year, seq), nil
}

// UpdateHeader persists state, description and lifecycle timestamps.
func (r *EntryRepository) UpdateHeader(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	n, err := queries(r.pool, tx).UpdateJournalEntryHeader(ctx, generated.UpdateJournalEntryHeaderParams{
		ID:          entry.ID,
		State:       string(entry.State),
		Description: entry.Description,
		UpdatedAt:   timeToPgTimestamptz(entry.UpdatedAt),
		PostedAt:    optionalTimestamptz(entry.PostedAt),
		VoidedAt:    optionalTimestamptz(entry.VoidedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// Delete removes the entry; its movements go with it.
func (r *EntryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	n, err := queries(r.pool, tx).DeleteJournalEntry(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// List returns entries matching filter ordered by date and number, each
// with its movements.
func (r *EntryRepository) List(ctx context.Context, filter usecase.EntryFilter) ([]*domain.JournalEntry, error) {
	q := queries(r.pool, nil)

	params := generated.ListJournalEntriesParams{
		OwnerID: filter.OwnerID,
		State:   string(filter.State),
		Limit:   int32(filter.Limit),
		Offset:  int32(filter.Offset),
	}
	if filter.From != nil {
		params.FromDate = timeToPgTimestamptz(*filter.From)
	}
	if filter.To != nil {
		params.ToDate = timeToPgTimestamptz(*filter.To)
	}

	rows, err := q.ListJournalEntries(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*domain.JournalEntry{}, nil
	}

	entries := make([]*domain.JournalEntry, 0, len(rows))
	byID := make(map[string]*domain.JournalEntry, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		e := rowToEntry(row)
		entries = append(entries, e)
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}

	movements, err := q.ListMovementsByEntries(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range rowsToMovements(movements) {
		if e, ok := byID[m.EntryID]; ok {
			e.Movements = append(e.Movements, m)
		}
	}
	return entries, nil
}

func rowToEntry(row generated.JournalEntry) *domain.JournalEntry {
	return &domain.JournalEntry{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Number:      row.Number,
		Date:        row.EntryDate.Time,
		Description: row.Description,
		Reference:   row.Reference,
		State:       domain.EntryState(row.State),
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
		PostedAt:    timePtr(row.PostedAt),
		VoidedAt:    timePtr(row.VoidedAt),
	}
}
